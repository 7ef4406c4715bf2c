package rasterkit

import (
	"fmt"
	"math"
)

// WKB格式的矢量
type GdalGeo = []byte

// 待裁剪的矢量，Crs为空时视为与栅格坐标系一致
type Shape struct {
	Geom GdalGeo
	Crs  string
}

// 栅格范围
type Bounds struct {
	Left   float64
	Bottom float64
	Right  float64
	Top    float64
}

func (b Bounds) String() string {
	return fmt.Sprintf("BoundingBox(left=%v, bottom=%v, right=%v, top=%v)", b.Left, b.Bottom, b.Right, b.Top)
}

// 栅格行列窗口
type Window struct {
	ColOff int
	RowOff int
	Width  int
	Height int
}

func (w Window) Empty() bool {
	return w.Width <= 0 || w.Height <= 0
}

// 两窗口的交集，无交集时返回空窗口
func (w Window) Intersect(o Window) (ret Window) {
	c0 := max(w.ColOff, o.ColOff)
	r0 := max(w.RowOff, o.RowOff)
	c1 := min(w.ColOff+w.Width, o.ColOff+o.Width)
	r1 := min(w.RowOff+w.Height, o.RowOff+o.Height)
	if c1 <= c0 || r1 <= r0 {
		return
	}
	ret = Window{ColOff: c0, RowOff: r0, Width: c1 - c0, Height: r1 - r0}
	return
}

// 窗口是否完整位于w x h的栅格内
func (w Window) Within(width, height int) bool {
	return w.ColOff >= 0 && w.RowOff >= 0 && w.Width >= 0 && w.Height >= 0 &&
		w.ColOff+w.Width <= width && w.RowOff+w.Height <= height
}

func (w Window) String() string {
	return fmt.Sprintf("Window(col_off=%d, row_off=%d, width=%d, height=%d)", w.ColOff, w.RowOff, w.Width, w.Height)
}

// 仿射变换参数，GDAL顺序：[x原点, 像元宽, 行旋转, y原点, 列旋转, 像元高]
type Affine [6]float64

// 行列号 -> 空间坐标
func (a Affine) Apply(col, row float64) (x, y float64) {
	x = a[0] + col*a[1] + row*a[2]
	y = a[3] + col*a[4] + row*a[5]
	return
}

// 空间坐标 -> 行列号
func (a Affine) Inverse() (inv Affine, err error) {
	det := a[1]*a[5] - a[2]*a[4]
	if det == 0 {
		err = ErrDegenerateTransform
		return
	}
	inv[1] = a[5] / det
	inv[2] = -a[2] / det
	inv[4] = -a[4] / det
	inv[5] = a[1] / det
	inv[0] = -a[0]*inv[1] - a[3]*inv[2]
	inv[3] = -a[0]*inv[4] - a[3]*inv[5]
	return
}

// 平移到窗口左上角后的变换
func (a Affine) Translate(colOff, rowOff int) Affine {
	x, y := a.Apply(float64(colOff), float64(rowOff))
	return Affine{x, a[1], a[2], y, a[4], a[5]}
}

func (a Affine) Equal(o Affine, eps float64) bool {
	for i := range a {
		if math.Abs(a[i]-o[i]) > eps {
			return false
		}
	}
	return true
}

func (a Affine) String() string {
	return fmt.Sprintf("| %.2f, %.2f, %.2f|\n| %.2f, %.2f, %.2f|\n| 0.00, 0.00, 1.00|",
		a[1], a[2], a[0], a[4], a[5], a[3])
}
