package rasterkit

import (
	"fmt"

	"github.com/wgdzlh/rasterkit/log"

	"github.com/airbusgeo/godal"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"go.uber.org/zap"
)

// 带坐标信息的栅格，作为矢量化输入
type LabeledGrid struct {
	Grid
	Crs       string // WKT，可为空
	Transform Affine
	NoData    float64
	HasNoData bool
}

type VectorizeOption struct {
	// 对角相邻的像元也合并为同一区域，默认仅四邻域
	EightConnected bool
}

// 将值相同且相连的像元合并为面，nodata像元不输出；每个连通区域对应一行
func (g *GdalToolbox) Vectorize(lg LabeledGrid, opt ...VectorizeOption) (table *VectorTable, err error) {
	if lg.Width == 0 || lg.Height == 0 || len(lg.Data) != lg.Width*lg.Height {
		err = fmt.Errorf("%w: %s", ErrShapeMismatch, lg.Grid)
		return
	}
	var op VectorizeOption
	if len(opt) > 0 {
		op = opt[0]
	}
	log.Info(g.logTag+"start vectorize", zap.Int("width", lg.Width), zap.Int("height", lg.Height), zap.Bool("8connected", op.EightConnected))
	rds, err := godal.Create(godal.Memory, "", 1, godal.Int32, lg.Width, lg.Height)
	if err != nil {
		log.Error(g.logTag+"create label dataset failed", zap.Error(err))
		return
	}
	defer rds.Close()
	if err = rds.SetGeoTransform([6]float64(lg.Transform)); err != nil {
		return
	}
	var sr *godal.SpatialRef
	if lg.Crs != "" {
		if sr, err = godal.NewSpatialRefFromWKT(lg.Crs); err != nil {
			log.Error(g.logTag+"parse grid crs failed", zap.Error(err))
			err = fmt.Errorf("%w: %v", ErrUnknownCrs, err)
			return
		}
		defer sr.Close()
		if err = rds.SetSpatialRef(sr); err != nil {
			return
		}
	}
	bnd := rds.Bands()[0]
	if lg.HasNoData {
		if err = bnd.SetNoData(float64(int32(lg.NoData))); err != nil {
			return
		}
	}
	if err = bnd.Write(0, 0, lg.Int32(), lg.Width, lg.Height); err != nil {
		return
	}

	vds, err := godal.CreateVector(godal.Memory, "")
	if err != nil {
		log.Error(g.logTag+"create vector dataset failed", zap.Error(err))
		return
	}
	defer vds.Close()
	layer, err := vds.CreateLayer(fmt.Sprintf(TMP_LAYER, uuid.NewString()), sr, godal.GTPolygon,
		godal.NewFieldDefinition(FIELD_LABEL, godal.FTInt))
	if err != nil {
		log.Error(g.logTag+"create vector layer failed", zap.Error(err))
		return
	}
	popts := []godal.PolygonizeOption{godal.PixelValueFieldIndex(0)}
	if op.EightConnected {
		popts = append(popts, godal.EightConnected())
	}
	if err = bnd.Polygonize(layer, popts...); err != nil {
		log.Error(g.logTag+"polygonize failed", zap.Error(err))
		return
	}

	table = &VectorTable{Crs: lg.Crs}
	layer.ResetReading()
	for {
		feat := layer.NextFeature()
		if feat == nil {
			break
		}
		row, e := featureToRegion(feat)
		feat.Close()
		if e != nil {
			err = e
			return
		}
		table.Rows = append(table.Rows, row)
	}
	log.Info(g.logTag+"vectorize done", zap.Int("regions", len(table.Rows)))
	return
}

func featureToRegion(feat *godal.Feature) (row Region, err error) {
	raw, err := feat.Geometry().WKB()
	if err != nil {
		return
	}
	if row.Geometry, err = wkb.Unmarshal(raw); err != nil {
		err = fmt.Errorf("%w: %v", ErrInvalidWKB, err)
		return
	}
	switch row.Geometry.(type) {
	case orb.Polygon, orb.MultiPolygon:
	default:
		err = fmt.Errorf("%w: %s", ErrGdalWrongGeoType, row.Geometry.GeoJSONType())
		return
	}
	row.Label = feat.Fields()[FIELD_LABEL].Int()
	return
}
