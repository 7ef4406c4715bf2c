package rasterkit

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/wgdzlh/rasterkit/log"
	"github.com/wgdzlh/rasterkit/utils"

	"go.uber.org/zap"
)

// 示例流程的参数
type Config struct {
	Input          string
	Output         string // 为空时写到输入文件同目录下的<name>_modified.tif
	GeoJSONOut     string // 为空时不导出
	SqliteOut      string // 为空时不导出
	ShapefileOut   string // 为空时不导出
	Band           int
	BBox           [4]float64 // [minx, miny, maxx, maxy]
	BBoxCrs        string
	RasterCrs      string // 栅格自身缺少坐标系时使用
	Threshold      float64
	NoData         float64
	Crop           bool
	AllTouched     bool
	EightConnected bool
}

func DefaultConfig() Config {
	return Config{
		Input:      filepath.Join("data", "GHS_POP_E2020_GLOBE_R2023A_54009_1000_V1_0_R3_C18.tif"),
		Band:       DefaultBand,
		BBox:       DefaultBBox,
		BBoxCrs:    GEOGRAPHIC_CRS,
		RasterCrs:  MOLLWEIDE_CRS,
		Threshold:  DefaultThreshold,
		NoData:     DefaultNoData,
		Crop:       true,
		AllTouched: true,
	}
}

type Report struct {
	Metadata      Metadata
	FullStats     BandStats
	Window        Window
	Transform     Affine
	Covered       int
	CroppedStats  BandStats
	FilteredStats BandStats
	Profile       Profile
	Output        string
	Table         *VectorTable
}

func (r Report) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", r.Metadata)
	fmt.Fprintf(&sb, "Full band: %s\n", r.FullStats)
	fmt.Fprintf(&sb, "Crop %s, %d cells inside bbox\n", r.Window, r.Covered)
	fmt.Fprintf(&sb, "Crop transform:\n%s\n", r.Transform)
	fmt.Fprintf(&sb, "Cropped band: %s\n", r.CroppedStats)
	fmt.Fprintf(&sb, "Filtered band: %s\n", r.FilteredStats)
	fmt.Fprintf(&sb, "Written %s with profile %s\n", r.Output, r.Profile)
	if r.Table != nil {
		fmt.Fprintf(&sb, "Vectorized %d regions, %d labels", r.Table.Len(), len(r.Table.Labels()))
	}
	return sb.String()
}

// 打开、读取、按范围裁剪、阈值过滤、写出、回读校验、矢量化，任一步出错即终止
func (g *GdalToolbox) RunWorkflow(cfg Config) (rep Report, err error) {
	if cfg.Band == 0 {
		cfg.Band = DefaultBand
	}
	log.Info(g.logTag+"start workflow", zap.String("input", cfg.Input), zap.Float64s("bbox", cfg.BBox[:]), zap.Float64("threshold", cfg.Threshold))
	d, err := g.OpenRaster(cfg.Input)
	if err != nil {
		return
	}
	defer d.Close()

	if rep.Metadata, err = d.Metadata(); err != nil {
		return
	}
	log.Info(g.logTag+"raster metadata", zap.Int("count", rep.Metadata.Count), zap.Int("width", rep.Metadata.Width),
		zap.Int("height", rep.Metadata.Height), zap.String("bounds", rep.Metadata.Bounds.String()))

	full, err := d.Read(cfg.Band, nil)
	if err != nil {
		return
	}
	if full.Len() != rep.Metadata.Width*rep.Metadata.Height {
		err = fmt.Errorf("%w: full band has %d cells", ErrShapeMismatch, full.Len())
		return
	}
	rep.FullStats = ComputeStats(full, rep.Metadata.NoData, rep.Metadata.HasNoData)

	rasterCrs := d.Crs()
	if rasterCrs == "" {
		log.Warn(g.logTag+"raster has no crs, fallback", zap.String("crs", cfg.RasterCrs))
		if rasterCrs, err = g.CrsToWkt(cfg.RasterCrs); err != nil {
			return
		}
	}
	shape, err := g.ReprojectBBox(cfg.BBox, cfg.BBoxCrs, rasterCrs)
	if err != nil {
		return
	}
	mask, aff, win, err := g.GeometryMask(d, []Shape{shape}, cfg.Crop, cfg.AllTouched)
	if err != nil {
		return
	}
	if win.Empty() {
		err = ErrEmptyIntersection
		return
	}
	rep.Window, rep.Transform, rep.Covered = win, aff, mask.Covered()
	cropped, err := d.Read(cfg.Band, &win)
	if err != nil {
		return
	}
	rep.CroppedStats = ComputeStats(cropped, rep.Metadata.NoData, rep.Metadata.HasNoData)

	filtered := Threshold(cropped, cfg.Threshold, cfg.NoData)
	rep.FilteredStats = ComputeStats(filtered, cfg.NoData, true)

	prof, err := d.Profile()
	if err != nil {
		return
	}
	prof = prof.WithWindow(aff, filtered.Width, filtered.Height)
	prof.Count = 1
	prof.Crs = rasterCrs
	prof.NoData, prof.HasNoData = cfg.NoData, true
	rep.Profile = prof
	if rep.Output, err = g.outputPath(cfg); err != nil {
		return
	}
	if err = g.WriteRaster(rep.Output, prof, filtered); err != nil {
		return
	}
	if err = g.VerifyRaster(rep.Output, prof, filtered); err != nil {
		return
	}

	rep.Table, err = g.Vectorize(LabeledGrid{
		Grid:      filtered,
		Crs:       rasterCrs,
		Transform: aff,
		NoData:    cfg.NoData,
		HasNoData: true,
	}, VectorizeOption{EightConnected: cfg.EightConnected})
	if err != nil {
		return
	}
	if cfg.GeoJSONOut != "" {
		if err = rep.Table.SaveGeoJSON(cfg.GeoJSONOut); err != nil {
			return
		}
	}
	if cfg.SqliteOut != "" {
		if err = rep.Table.SaveSqlite(cfg.SqliteOut); err != nil {
			return
		}
	}
	if cfg.ShapefileOut != "" {
		if err = g.SaveShapefile(rep.Table, cfg.ShapefileOut); err != nil {
			return
		}
	}
	log.Info(g.logTag+"workflow done", zap.String("output", rep.Output), zap.Int("regions", rep.Table.Len()))
	return
}

// 未指定输出时：设置了临时目录则写到其下的独立子目录，否则与输入文件同目录
func (g *GdalToolbox) outputPath(cfg Config) (path string, err error) {
	if cfg.Output != "" {
		return cfg.Output, nil
	}
	dir := ""
	if g.tmpDir != "" {
		if dir, err = utils.GetUniqSubDir(g.tmpDir); err != nil {
			log.Error(g.logTag+"create output dir failed", zap.String("tmpDir", g.tmpDir), zap.Error(err))
			return
		}
	}
	path = utils.DerivedPath(dir, cfg.Input, OUT_SUFFIX, FILE_EXT_TIF)
	return
}
