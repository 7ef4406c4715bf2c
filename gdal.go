package rasterkit

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/wgdzlh/rasterkit/log"

	"github.com/airbusgeo/godal"
	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

type GdalToolbox struct {
	refMap map[string]gdal.SpatialReference
	rLock  sync.Mutex
	tmpDir string
	logTag string
}

// 由GDAL库C语言创建的内存对象，需要手动调用Destroy回收
type destroyable interface {
	Destroy()
}

var registerOnce sync.Once

// 初始化GDAL工具箱，tmpDir为可选的输出目录（未提供时输出写到输入文件旁）
func NewGdalToolbox(tmpDir ...string) *GdalToolbox {
	registerOnce.Do(godal.RegisterAll)
	g := &GdalToolbox{
		refMap: map[string]gdal.SpatialReference{},
		logTag: "GdalToolbox:",
	}
	if len(tmpDir) > 0 && tmpDir[0] != "" {
		g.tmpDir = tmpDir[0]
	}
	return g
}

// 获取坐标系定义对应的坐标系（可复用，故无需回收）
// 支持"EPSG:xxxx"、"ESRI:54009"、proj4字符串和WKT
func (g *GdalToolbox) getCrsRef(crs string) (ref gdal.SpatialReference, err error) {
	g.rLock.Lock()
	defer g.rLock.Unlock()
	ref, ok := g.refMap[crs]
	if ok {
		return
	}
	ref = gdal.CreateSpatialReference("")
	def := strings.TrimSpace(crs)
	upper := strings.ToUpper(strings.ReplaceAll(def, " ", ""))
	switch {
	case strings.HasPrefix(upper, "EPSG:"):
		var code int
		if code, err = strconv.Atoi(upper[5:]); err != nil {
			err = fmt.Errorf("%w: %s", ErrUnknownCrs, crs)
			break
		}
		err = ref.FromEPSG(code)
	case upper == MOLLWEIDE_CRS:
		err = ref.FromProj4(MOLLWEIDE_PROJ)
	case strings.HasPrefix(def, "+proj"):
		err = ref.FromProj4(def)
	case strings.Contains(upper, "["):
		err = ref.FromWKT(def)
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownCrs, crs)
	}
	if err != nil {
		log.Error(g.logTag+"set crs ref failed", zap.String("crs", crs), zap.Error(err))
		ref.Destroy()
		return
	}
	// 固定数据轴次序为(经度,纬度)，否则EPSG:4326下的坐标转换会出现次序倒置
	ref.SetAxisMappingStrategy(gdal.OAMS_TraditionalGisOrder)
	g.refMap[crs] = ref
	return
}

// 将坐标系定义转为WKT
func (g *GdalToolbox) CrsToWkt(crs string) (wkt string, err error) {
	ref, err := g.getCrsRef(crs)
	if err != nil {
		return
	}
	return ref.ToWKT()
}

// 判断两个坐标系定义是否相同
func (g *GdalToolbox) SameCrs(a, b string) (same bool, err error) {
	if a == b {
		same = true
		return
	}
	refA, err := g.getCrsRef(a)
	if err != nil {
		return
	}
	refB, err := g.getCrsRef(b)
	if err != nil {
		return
	}
	same = refA.IsSame(refB)
	return
}

func (g *GdalToolbox) parseWKB(wkb GdalGeo, ref gdal.SpatialReference) (ret gdal.Geometry, err error) {
	if len(wkb) == 0 {
		err = ErrInvalidWKB
		return
	}
	ret, err = gdal.CreateFromWKB(wkb, ref, len(wkb))
	if err != nil {
		log.Error(g.logTag+"parse wkb failed", zap.Error(err))
		err = ErrInvalidWKB
	}
	return
}

func (g *GdalToolbox) parseWKT(wkt string, ref gdal.SpatialReference) (ret gdal.Geometry, err error) {
	ret, err = gdal.CreateFromWKT(wkt, ref)
	if err != nil {
		log.Error(g.logTag+"parse wkt failed", zap.Error(err))
		err = ErrInvalidWKT
	}
	return
}

// 转换WKB坐标系
func (g *GdalToolbox) TransformWkb(wkb GdalGeo, crs, tCrs string) (ret GdalGeo, err error) {
	if tCrs == crs {
		ret = wkb
		return
	}
	ref, err := g.getCrsRef(crs)
	if err != nil {
		return
	}
	tRef, err := g.getCrsRef(tCrs)
	if err != nil {
		return
	}
	geo, err := g.parseWKB(wkb, ref)
	if err != nil {
		return
	}
	defer geo.Destroy()
	if err = geo.TransformTo(tRef); err != nil {
		log.Error(g.logTag+"geo transform failed", zap.Error(err))
		return
	}
	ret, err = geo.ToWKB()
	return
}

// 转换WKT坐标系
func (g *GdalToolbox) TransformWkt(wkt, crs, tCrs string) (ret string, err error) {
	if tCrs == crs {
		ret = wkt
		return
	}
	ref, err := g.getCrsRef(crs)
	if err != nil {
		return
	}
	tRef, err := g.getCrsRef(tCrs)
	if err != nil {
		return
	}
	geo, err := g.parseWKT(wkt, ref)
	if err != nil {
		return
	}
	defer geo.Destroy()
	if err = geo.TransformTo(tRef); err != nil {
		log.Error(g.logTag+"geo transform failed", zap.Error(err))
		return
	}
	ret, err = geo.ToWKT()
	return
}

// 将[minx, miny, maxx, maxy]矩形从crs转到tCrs，输出可直接用于裁剪的Shape
func (g *GdalToolbox) ReprojectBBox(bbox [4]float64, crs, tCrs string) (ret Shape, err error) {
	wkt := SpanToWkt([4]float64{bbox[0], bbox[2], bbox[1], bbox[3]})
	ref, err := g.getCrsRef(crs)
	if err != nil {
		return
	}
	geo, err := g.parseWKT(wkt, ref)
	if err != nil {
		return
	}
	defer geo.Destroy()
	wkb, err := geo.ToWKB()
	if err != nil {
		return
	}
	if ret.Geom, err = g.TransformWkb(wkb, crs, tCrs); err != nil {
		return
	}
	ret.Crs = tCrs
	log.Info(g.logTag+"reprojected bbox", zap.Float64s("bbox", bbox[:]), zap.String("from", crs), zap.String("to", tCrs))
	return
}

// 获取WKT范围[minx, maxx, miny, maxy]
func (g *GdalToolbox) GetWktSpan(wkt, crs string) (span [4]float64, err error) {
	ref, err := g.getCrsRef(crs)
	if err != nil {
		return
	}
	geo, err := g.parseWKT(wkt, ref)
	if err != nil {
		return
	}
	defer geo.Destroy()
	envelop := geo.Envelope()
	span[0] = envelop.MinX()
	span[1] = envelop.MaxX()
	span[2] = envelop.MinY()
	span[3] = envelop.MaxY()
	return
}

// WKB转WKT
func (g *GdalToolbox) WkbToWkt(wkb GdalGeo, crs string) (wkt string, err error) {
	ref, err := g.getCrsRef(crs)
	if err != nil {
		return
	}
	geo, err := g.parseWKB(wkb, ref)
	if err != nil {
		return
	}
	wkt, err = geo.ToWKT()
	geo.Destroy()
	return
}

// 释放缓存的坐标系
func (g *GdalToolbox) Close() {
	g.rLock.Lock()
	defer g.rLock.Unlock()
	var gc []destroyable
	for k, v := range g.refMap {
		gc = append(gc, v)
		delete(g.refMap, k)
	}
	for _, v := range gc {
		v.Destroy()
	}
}

func PointsToWkt(lon1, lon2, lat1, lat2 float64) string {
	return fmt.Sprintf("POLYGON((%[1]f %[3]f, %[1]f %[4]f, %[2]f %[4]f, %[2]f %[3]f, %[1]f %[3]f))", lon1, lon2, lat1, lat2)
}

func SpanToWkt(span [4]float64) string {
	return PointsToWkt(span[0], span[1], span[2], span[3])
}
