package rasterkit

import (
	"fmt"
	"math"

	"github.com/wgdzlh/rasterkit/log"

	"github.com/airbusgeo/godal"
	"go.uber.org/zap"
)

// 裁剪掩膜，Excluded为true的像元位于矢量之外
type Mask struct {
	Width    int
	Height   int
	Excluded []bool
}

func newMask(width, height int, excluded bool) Mask {
	m := Mask{Width: width, Height: height, Excluded: make([]bool, width*height)}
	if excluded {
		for i := range m.Excluded {
			m.Excluded[i] = true
		}
	}
	return m
}

func (m Mask) At(row, col int) bool {
	return m.Excluded[row*m.Width+col]
}

// 被矢量覆盖（未排除）的像元数
func (m Mask) Covered() (n int) {
	for _, v := range m.Excluded {
		if !v {
			n++
		}
	}
	return
}

// 根据已转换到栅格坐标系的矢量计算掩膜、区域仿射变换与行列窗口
// crop为true时结果裁剪到矢量范围；allTouched为true时所有与矢量接触的像元都视为覆盖
// 矢量与栅格不相交时：crop为true返回ErrEmptyIntersection，否则返回空窗口与全排除掩膜
func (g *GdalToolbox) GeometryMask(d *Dataset, shapes []Shape, crop, allTouched bool) (mask Mask, t Affine, win Window, err error) {
	if len(shapes) == 0 {
		err = ErrNoShapes
		return
	}
	dsCrs := d.Crs()
	for i, s := range shapes {
		if s.Crs == "" || dsCrs == "" {
			continue
		}
		var same bool
		if same, err = g.SameCrs(s.Crs, dsCrs); err != nil {
			return
		}
		if !same {
			log.Error(g.logTag+"shape crs mismatches raster", zap.Int("idx", i), zap.String("crs", s.Crs))
			err = fmt.Errorf("%w: shape %d in %s", ErrCrsMismatch, i, s.Crs)
			return
		}
	}
	dt, err := d.Transform()
	if err != nil {
		return
	}
	inv, err := dt.Inverse()
	if err != nil {
		return
	}
	var (
		geo   *godal.Geometry
		bnds  [4]float64
		geoms = make([]*godal.Geometry, 0, len(shapes))
		cMin  = math.Inf(1)
		rMin  = math.Inf(1)
		cMax  = math.Inf(-1)
		rMax  = math.Inf(-1)
	)
	defer func() {
		for _, v := range geoms {
			v.Close()
		}
	}()
	for i, s := range shapes {
		if len(s.Geom) == 0 {
			err = fmt.Errorf("%w: shape %d", ErrInvalidWKB, i)
			return
		}
		if geo, err = godal.NewGeometryFromWKB(s.Geom, nil); err != nil {
			log.Error(g.logTag+"parse shape wkb failed", zap.Int("idx", i), zap.Error(err))
			err = fmt.Errorf("%w: %v", ErrInvalidWKB, err)
			return
		}
		geoms = append(geoms, geo)
		if bnds, err = geo.Bounds(); err != nil {
			return
		}
		for _, xy := range [4][2]float64{{bnds[0], bnds[1]}, {bnds[0], bnds[3]}, {bnds[2], bnds[1]}, {bnds[2], bnds[3]}} {
			c, r := inv.Apply(xy[0], xy[1])
			cMin, cMax = math.Min(cMin, c), math.Max(cMax, c)
			rMin, rMax = math.Min(rMin, r), math.Max(rMax, r)
		}
	}
	c0, r0 := snapFloor(cMin), snapFloor(rMin)
	shapeWin := Window{
		ColOff: c0,
		RowOff: r0,
		Width:  snapCeil(cMax) - c0,
		Height: snapCeil(rMax) - r0,
	}
	full := Window{Width: d.Width(), Height: d.Height()}
	hit := shapeWin.Intersect(full)
	if hit.Empty() {
		if crop {
			log.Error(g.logTag+"shapes do not overlap raster", zap.String("shapeWin", shapeWin.String()))
			err = ErrEmptyIntersection
			return
		}
		log.Warn(g.logTag+"shapes are outside bounds of raster", zap.String("shapeWin", shapeWin.String()))
		mask = newMask(full.Width, full.Height, true)
		t = dt
		return
	}
	win, t = full, dt
	if crop {
		win = hit
		t = dt.Translate(hit.ColOff, hit.RowOff)
	}
	log.Info(g.logTag+"resolved shape window", zap.String("window", win.String()), zap.Bool("crop", crop), zap.Bool("allTouched", allTouched))
	mask, err = g.rasterizeMask(geoms, t, win.Width, win.Height, allTouched)
	return
}

// 在内存栅格上烧录矢量以生成掩膜
func (g *GdalToolbox) rasterizeMask(geoms []*godal.Geometry, t Affine, width, height int, allTouched bool) (mask Mask, err error) {
	mds, err := godal.Create(godal.Memory, "", 1, godal.Byte, width, height)
	if err != nil {
		log.Error(g.logTag+"create mask dataset failed", zap.Error(err))
		return
	}
	defer mds.Close()
	if err = mds.SetGeoTransform([6]float64(t)); err != nil {
		return
	}
	opts := []godal.RasterizeGeometryOption{godal.Values(MASK_BURNED)}
	if allTouched {
		opts = append(opts, godal.AllTouched())
	}
	for _, geo := range geoms {
		if err = mds.RasterizeGeometry(geo, opts...); err != nil {
			log.Error(g.logTag+"rasterize shape failed", zap.Error(err))
			return
		}
	}
	buf := make([]byte, width*height)
	if err = mds.Bands()[0].Read(0, 0, buf, width, height); err != nil {
		return
	}
	mask = newMask(width, height, false)
	for i, v := range buf {
		mask.Excluded[i] = v != MASK_BURNED
	}
	return
}

// 行列号与整数的差小于pixelSnapEps时视为落在像元边界上，避免浮点误差使窗口多出一行/列
func snapFloor(v float64) int {
	if r := math.Round(v); math.Abs(v-r) < pixelSnapEps {
		return int(r)
	}
	return int(math.Floor(v))
}

func snapCeil(v float64) int {
	if r := math.Round(v); math.Abs(v-r) < pixelSnapEps {
		return int(r)
	}
	return int(math.Ceil(v))
}
