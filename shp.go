package rasterkit

import (
	"fmt"

	"github.com/wgdzlh/rasterkit/log"
	"github.com/wgdzlh/rasterkit/utils"

	"github.com/lukeroth/gdal"
	"github.com/paulmach/orb/encoding/wkb"
	"go.uber.org/zap"
)

func (g *GdalToolbox) getShpDriver(shp, crs string) (ds gdal.DataSource, ref gdal.SpatialReference, layer gdal.Layer, err error) {
	log.Info(g.logTag+"output shp files", zap.String("shp", shp))
	if crs != "" {
		if ref, err = g.getCrsRef(crs); err != nil {
			return
		}
	}
	driver := gdal.OGRDriverByName(SHP_DRIVER_NAME)
	ds, ok := driver.Create(shp, nil)
	if !ok {
		err = ErrGdalDriverCreate
		return
	}
	layer = ds.CreateLayer(utils.GetFilenameWithoutExt(shp), ref, gdal.GT_Polygon, []string{ENCODING_OPTION})
	return
}

func (g *GdalToolbox) initShpLayer(layer gdal.Layer) (err error) {
	label := gdal.CreateFieldDefinition(FIELD_LABEL, gdal.FT_Integer)
	defer label.Destroy()
	err = layer.CreateField(label, false)
	return
}

// 将矢量表写入shp，标签写入label整型字段
func (g *GdalToolbox) SaveShapefile(t *VectorTable, shp string) (err error) {
	ds, ref, layer, err := g.getShpDriver(shp, t.Crs)
	if err != nil {
		return
	}
	defer ds.Destroy() // 生成shp文件 + 释放资源
	if err = g.initShpLayer(layer); err != nil {
		return
	}
	var (
		def      = layer.Definition()
		labelIdx = def.FieldIndex(FIELD_LABEL)
		feature  gdal.Feature
		geo      gdal.Geometry
		raw      []byte
		gc       = make([]destroyable, 0, len(t.Rows))
	)
	defer func() {
		for _, v := range gc {
			v.Destroy()
		}
	}()
	for i, r := range t.Rows {
		feature = def.Create()
		gc = append(gc, feature)
		if err = feature.SetFID(int64(i)); err != nil {
			log.Error(g.logTag+"err in set feature fid", zap.Error(err))
			return
		}
		feature.SetFieldInteger(labelIdx, int(r.Label))
		if raw, err = wkb.Marshal(r.Geometry); err != nil {
			return
		}
		if geo, err = g.parseWKB(raw, ref); err != nil {
			return
		}
		if err = feature.SetGeometryDirectly(geo); err != nil {
			geo.Destroy()
			log.Error(g.logTag+"err in set geom of feature", zap.Error(err))
			return
		}
		if err = layer.Create(feature); err != nil {
			log.Error(g.logTag+"err in create feature of layer", zap.Error(err))
			return
		}
	}
	log.Info(g.logTag+"shp files created", zap.String("shp", shp), zap.Int("rows", len(t.Rows)))
	return
}

// 从shp读回矢量表，要求存在label字段
func (g *GdalToolbox) LoadShapefile(shp string) (t *VectorTable, err error) {
	driver := gdal.OGRDriverByName(SHP_DRIVER_NAME)
	ds, ok := driver.Open(shp, 0)
	if !ok {
		err = ErrGdalDriverOpen
		return
	}
	defer ds.Destroy()
	layer := ds.LayerByIndex(0)
	labelIdx := layer.Definition().FieldIndex(FIELD_LABEL)
	if labelIdx < 0 {
		err = fmt.Errorf(ErrColumnMissingTemplate, FIELD_LABEL)
		return
	}
	t = &VectorTable{}
	if wkt, e := layer.SpatialReference().ToWKT(); e == nil {
		t.Crs = wkt
	}
	var (
		feature *gdal.Feature
		raw     []byte
		r       Region
		gc      []destroyable
	)
	defer func() {
		for _, v := range gc {
			v.Destroy()
		}
	}()
	for {
		if feature = layer.NextFeature(); feature == nil {
			break
		}
		gc = append(gc, *feature)
		if raw, err = feature.Geometry().ToWKB(); err != nil {
			log.Error(g.logTag+"err in wkb convert", zap.Error(err))
			return
		}
		if r.Geometry, err = wkb.Unmarshal(raw); err != nil {
			err = fmt.Errorf("%w: %v", ErrInvalidWKB, err)
			return
		}
		r.Label = int64(feature.FieldAsInteger(labelIdx))
		t.Rows = append(t.Rows, r)
	}
	log.Info(g.logTag+"got regions from shp", zap.String("shp", shp), zap.Int("rows", len(t.Rows)))
	return
}
