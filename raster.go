package rasterkit

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strings"

	"github.com/wgdzlh/rasterkit/log"

	"github.com/airbusgeo/godal"
	"go.uber.org/zap"
)

// 已打开的栅格数据集，使用完毕后须调用Close
type Dataset struct {
	ds     *godal.Dataset
	Path   string
	logTag string
}

// 栅格元数据
type Metadata struct {
	Count     int
	Width     int
	Height    int
	Crs       string
	Transform Affine
	Bounds    Bounds
	NoData    float64
	HasNoData bool
	DataType  godal.DataType
}

func (m Metadata) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Number of layers: %d\n", m.Count)
	fmt.Fprintf(&sb, "Number of columns: %d\n", m.Width)
	fmt.Fprintf(&sb, "Number of rows: %d\n", m.Height)
	fmt.Fprintf(&sb, "Data type: %s\n", m.DataType)
	if m.HasNoData {
		fmt.Fprintf(&sb, "Nodata: %v\n", m.NoData)
	}
	fmt.Fprintf(&sb, "CRS: %s\n", m.Crs)
	fmt.Fprintf(&sb, "Affine transform:\n%s\n", m.Transform)
	fmt.Fprintf(&sb, "Boundaries: %s", m.Bounds)
	return sb.String()
}

// 打开栅格文件
func (g *GdalToolbox) OpenRaster(path string) (d *Dataset, err error) {
	if _, err = os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = fmt.Errorf("%w: %s", ErrRasterNotFound, path)
		} else {
			err = fmt.Errorf("%w: %s: %v", ErrInvalidTif, path, err)
		}
		log.Error(g.logTag+"stat raster failed", zap.String("path", path), zap.Error(err))
		return
	}
	sds, err := godal.Open(path, godal.RasterOnly())
	if err != nil {
		log.Error(g.logTag+"open tif failed", zap.String("path", path), zap.Error(err))
		err = fmt.Errorf("%w: %s: %v", ErrInvalidTif, path, err)
		return
	}
	if bc := sds.Structure().NBands; bc < 1 {
		sds.Close()
		log.Error(g.logTag+"tif has no band", zap.String("path", path))
		err = ErrEmptyTif
		return
	}
	d = &Dataset{ds: sds, Path: path, logTag: g.logTag}
	log.Info(g.logTag+"opened tif", zap.String("path", path))
	return
}

func (d *Dataset) Close() error {
	if d.ds == nil {
		return nil
	}
	err := d.ds.Close()
	d.ds = nil
	return err
}

func (d *Dataset) Count() int {
	return d.ds.Structure().NBands
}

func (d *Dataset) Width() int {
	return d.ds.Structure().SizeX
}

func (d *Dataset) Height() int {
	return d.ds.Structure().SizeY
}

// 坐标系WKT，可能为空
func (d *Dataset) Crs() string {
	return d.ds.Projection()
}

func (d *Dataset) Transform() (t Affine, err error) {
	gt, err := d.ds.GeoTransform()
	if err != nil {
		return
	}
	t = Affine(gt)
	return
}

func (d *Dataset) NoData() (float64, bool) {
	return d.ds.Bands()[0].NoData()
}

func (d *Dataset) Metadata() (m Metadata, err error) {
	st := d.ds.Structure()
	m.Count = st.NBands
	m.Width = st.SizeX
	m.Height = st.SizeY
	m.DataType = st.DataType
	m.Crs = d.Crs()
	m.NoData, m.HasNoData = d.NoData()
	if m.Transform, err = d.Transform(); err != nil {
		log.Error(d.logTag+"get geotransform failed", zap.String("path", d.Path), zap.Error(err))
		return
	}
	bnds, err := d.ds.Bounds()
	if err != nil {
		return
	}
	m.Bounds = Bounds{Left: bnds[0], Bottom: bnds[1], Right: bnds[2], Top: bnds[3]}
	return
}

// 读取第band个波段（从1开始），win为nil时读取整个波段
func (d *Dataset) Read(band int, win *Window) (grid Grid, err error) {
	st := d.ds.Structure()
	if band < 1 || band > st.NBands {
		err = fmt.Errorf("%w: %d of %d", ErrBandIndex, band, st.NBands)
		return
	}
	w := Window{Width: st.SizeX, Height: st.SizeY}
	if win != nil {
		w = *win
	}
	if w.Empty() {
		err = ErrEmptyWindow
		return
	}
	if !w.Within(st.SizeX, st.SizeY) {
		err = fmt.Errorf("%w: %s in %dx%d", ErrWindowOutOfRange, w, st.SizeX, st.SizeY)
		return
	}
	log.Info(d.logTag+"read tif band", zap.Int("band", band), zap.String("dt", st.DataType.String()),
		zap.Int("col", w.ColOff), zap.Int("row", w.RowOff), zap.Int("width", w.Width), zap.Int("height", w.Height))
	grid = NewGrid(w.Width, w.Height)
	if err = d.ds.Bands()[band-1].Read(w.ColOff, w.RowOff, grid.Data, w.Width, w.Height); err != nil {
		log.Error(d.logTag+"read tif band failed", zap.Int("band", band), zap.Error(err))
		err = fmt.Errorf("%w: %v", ErrTifReadFailed, err)
	}
	return
}

// 写入栅格所需的配置
type Profile struct {
	Driver    godal.DriverName
	DataType  godal.DataType
	Width     int
	Height    int
	Count     int
	Crs       string
	Transform Affine
	NoData    float64
	HasNoData bool
	Compress  string
	Tiled     bool
	BlockX    int
	BlockY    int
}

// 裁剪后更新变换与尺寸，返回新的Profile
func (p Profile) WithWindow(t Affine, width, height int) Profile {
	p.Transform = t
	p.Width = width
	p.Height = height
	if p.Tiled && (p.BlockX > width || p.BlockY > height) {
		p.Tiled = false
	}
	return p
}

func (p Profile) creationOptions() (opts []string) {
	if p.Compress != "" {
		opts = append(opts, "COMPRESS="+p.Compress)
	}
	if p.Tiled && p.BlockX > 0 && p.BlockY > 0 {
		opts = append(opts, "TILED=YES", fmt.Sprintf("BLOCKXSIZE=%d", p.BlockX), fmt.Sprintf("BLOCKYSIZE=%d", p.BlockY))
	}
	return
}

func (p Profile) String() string {
	return fmt.Sprintf("{driver: %s, dtype: %s, nodata: %v, width: %d, height: %d, count: %d, transform: %v, compress: %q, tiled: %v, blockxsize: %d, blockysize: %d}",
		p.Driver, p.DataType, p.NoData, p.Width, p.Height, p.Count, [6]float64(p.Transform), p.Compress, p.Tiled, p.BlockX, p.BlockY)
}

func (d *Dataset) Profile() (p Profile, err error) {
	st := d.ds.Structure()
	p = Profile{
		Driver:   godal.GTiff,
		DataType: st.DataType,
		Width:    st.SizeX,
		Height:   st.SizeY,
		Count:    st.NBands,
		Crs:      d.Crs(),
		Compress: strings.ToUpper(d.ds.Metadata(TIF_COMPRESS_KEY, godal.Domain(IMAGE_STRUCTURE))),
		Tiled:    isTiled(st),
		BlockX:   st.BlockSizeX,
		BlockY:   st.BlockSizeY,
	}
	p.NoData, p.HasNoData = d.NoData()
	p.Transform, err = d.Transform()
	return
}

// 条带的块宽恒等于栅格宽；块宽等于栅格宽时，方形且为16倍数的块也按瓦片处理
func isTiled(st godal.DatasetStructure) bool {
	if st.BlockSizeX != st.SizeX {
		return true
	}
	return st.BlockSizeY > 1 && st.BlockSizeX == st.BlockSizeY && st.BlockSizeX%16 == 0
}

// 按profile写出栅格，bands数量和尺寸须与profile一致；返回前关闭文件
func (g *GdalToolbox) WriteRaster(path string, prof Profile, bands ...Grid) (err error) {
	if len(bands) != prof.Count {
		err = fmt.Errorf("%w: %d bands for count %d", ErrShapeMismatch, len(bands), prof.Count)
		return
	}
	for i, b := range bands {
		if b.Width != prof.Width || b.Height != prof.Height || len(b.Data) != prof.Width*prof.Height {
			err = fmt.Errorf("%w: band %d is %dx%d, profile %dx%d", ErrShapeMismatch, i+1, b.Height, b.Width, prof.Height, prof.Width)
			return
		}
	}
	if prof.Width == 0 || prof.Height == 0 {
		err = ErrEmptyWindow
		return
	}
	driver := prof.Driver
	if driver == "" {
		driver = godal.GTiff
	}
	dt := prof.DataType
	if dt == godal.Unknown {
		dt = godal.Float64
	}
	log.Info(g.logTag+"write tif", zap.String("path", path), zap.String("profile", prof.String()))
	ods, err := godal.Create(driver, path, prof.Count, dt, prof.Width, prof.Height, godal.CreationOption(prof.creationOptions()...))
	if err != nil {
		log.Error(g.logTag+"create tif failed", zap.String("path", path), zap.Error(err))
		err = fmt.Errorf("%w: %v", ErrGdalDriverCreate, err)
		return
	}
	defer func() {
		if e := ods.Close(); e != nil && err == nil {
			log.Error(g.logTag+"close written tif failed", zap.String("path", path), zap.Error(e))
			err = fmt.Errorf("%w: %v", ErrTifWriteFailed, e)
		}
	}()
	if err = ods.SetGeoTransform([6]float64(prof.Transform)); err != nil {
		return
	}
	if prof.Crs != "" {
		if err = ods.SetProjection(prof.Crs); err != nil {
			return
		}
	}
	for i, bnd := range ods.Bands() {
		if prof.HasNoData {
			if err = bnd.SetNoData(prof.NoData); err != nil {
				return
			}
		}
		if err = bnd.Write(0, 0, bands[i].Data, prof.Width, prof.Height); err != nil {
			log.Error(g.logTag+"write tif band failed", zap.Int("band", i+1), zap.Error(err))
			err = fmt.Errorf("%w: %v", ErrTifWriteFailed, err)
			return
		}
	}
	return
}

// 重新打开写出的栅格，检查尺寸、变换与像元值是否与写入时一致
func (g *GdalToolbox) VerifyRaster(path string, prof Profile, bands ...Grid) (err error) {
	d, err := g.OpenRaster(path)
	if err != nil {
		return
	}
	defer d.Close()
	p, err := d.Profile()
	if err != nil {
		return
	}
	if p.Width != prof.Width || p.Height != prof.Height || p.Count != len(bands) {
		err = fmt.Errorf("%w: size %dx%dx%d", ErrRoundTripMismatch, p.Count, p.Height, p.Width)
		return
	}
	if !p.Transform.Equal(prof.Transform, RoundTripEps) {
		err = fmt.Errorf("%w: transform %v", ErrRoundTripMismatch, [6]float64(p.Transform))
		return
	}
	var got Grid
	for i, want := range bands {
		if got, err = d.Read(i+1, nil); err != nil {
			return
		}
		for j, v := range want.Data {
			if !sameCell(v, got.Data[j]) {
				err = fmt.Errorf("%w: band %d cell %d: %v != %v", ErrRoundTripMismatch, i+1, j, got.Data[j], v)
				return
			}
		}
	}
	log.Info(g.logTag+"verified written tif", zap.String("path", path))
	return
}

// 写入低精度类型(如Float32)时允许舍入误差
func sameCell(a, b float64) bool {
	if a == b || (math.IsNaN(a) && math.IsNaN(b)) {
		return true
	}
	return math.Abs(a-b) <= 1e-6*math.Max(math.Abs(a), math.Abs(b))
}
