package rasterkit

import "fmt"

// 单波段栅格数据，按行存储；读出后不再修改，变换结果均为新的Grid
type Grid struct {
	Width  int
	Height int
	Data   []float64
}

func NewGrid(width, height int) Grid {
	return Grid{
		Width:  width,
		Height: height,
		Data:   make([]float64, width*height),
	}
}

// 以row-major切片构建Grid，长度不符时报错
func GridFromSlice(width, height int, data []float64) (g Grid, err error) {
	if width < 0 || height < 0 || len(data) != width*height {
		err = fmt.Errorf("%w: %dx%d with %d cells", ErrShapeMismatch, width, height, len(data))
		return
	}
	g = Grid{Width: width, Height: height, Data: data}
	return
}

func (g Grid) At(row, col int) float64 {
	return g.Data[row*g.Width+col]
}

// (行数, 列数)
func (g Grid) Shape() (rows, cols int) {
	return g.Height, g.Width
}

func (g Grid) Len() int {
	return len(g.Data)
}

func (g Grid) Clone() Grid {
	data := make([]float64, len(g.Data))
	copy(data, g.Data)
	return Grid{Width: g.Width, Height: g.Height, Data: data}
}

func (g Grid) Equal(o Grid) bool {
	if g.Width != o.Width || g.Height != o.Height || len(g.Data) != len(o.Data) {
		return false
	}
	for i, v := range g.Data {
		if v != o.Data[i] {
			return false
		}
	}
	return true
}

// 取内存中的子窗口
func (g Grid) Sub(w Window) (ret Grid, err error) {
	if !w.Within(g.Width, g.Height) {
		err = ErrWindowOutOfRange
		return
	}
	ret = NewGrid(w.Width, w.Height)
	for r := 0; r < w.Height; r++ {
		src := (w.RowOff+r)*g.Width + w.ColOff
		copy(ret.Data[r*w.Width:(r+1)*w.Width], g.Data[src:src+w.Width])
	}
	return
}

// 转为int32，栅格矢量化前使用
func (g Grid) Int32() []int32 {
	ret := make([]int32, len(g.Data))
	for i, v := range g.Data {
		ret[i] = int32(v)
	}
	return ret
}

func (g Grid) String() string {
	return fmt.Sprintf("Grid(%dx%d)", g.Height, g.Width)
}
