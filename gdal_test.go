package rasterkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrsParsing(t *testing.T) {
	g := newTestToolbox(t)
	wkt, err := g.CrsToWkt(GEOGRAPHIC_CRS)
	require.NoError(t, err)
	assert.Contains(t, wkt, "WGS")

	same, err := g.SameCrs(GEOGRAPHIC_CRS, wkt)
	require.NoError(t, err)
	assert.True(t, same)

	same, err = g.SameCrs(GEOGRAPHIC_CRS, MOLLWEIDE_CRS)
	require.NoError(t, err)
	assert.False(t, same)

	same, err = g.SameCrs(MOLLWEIDE_CRS, MOLLWEIDE_PROJ)
	require.NoError(t, err)
	assert.True(t, same)

	_, err = g.CrsToWkt("UTM-50")
	assert.ErrorIs(t, err, ErrUnknownCrs)
	_, err = g.CrsToWkt("EPSG:abc")
	assert.ErrorIs(t, err, ErrUnknownCrs)
}

func TestTrans(t *testing.T) {
	g := newTestToolbox(t)
	span := [4]float64{113.695688629, 115.075725846, 29.971802123, 31.360788281}
	wkt := SpanToWkt(span)

	ret, err := g.TransformWkt(wkt, GEOGRAPHIC_CRS, "EPSG:3857")
	require.NoError(t, err)
	merc, err := g.GetWktSpan(ret, "EPSG:3857")
	require.NoError(t, err)
	assert.InDelta(t, 12656546, merc[0], 1000)
	assert.InDelta(t, 3499900, merc[2], 2000)

	back, err := g.TransformWkt(ret, "EPSG:3857", GEOGRAPHIC_CRS)
	require.NoError(t, err)
	got, err := g.GetWktSpan(back, GEOGRAPHIC_CRS)
	require.NoError(t, err)
	for i := range span {
		assert.InDelta(t, span[i], got[i], 1e-5)
	}
}

func TestReprojectBBox(t *testing.T) {
	g := newTestToolbox(t)
	shape, err := g.ReprojectBBox(DefaultBBox, GEOGRAPHIC_CRS, MOLLWEIDE_CRS)
	require.NoError(t, err)
	assert.Equal(t, MOLLWEIDE_CRS, shape.Crs)

	wkt, err := g.WkbToWkt(shape.Geom, MOLLWEIDE_CRS)
	require.NoError(t, err)
	span, err := g.GetWktSpan(wkt, MOLLWEIDE_CRS)
	require.NoError(t, err)
	// 布里斯托尔海峡附近，Mollweide下x约为-28万至-16万米，y约为600万米
	assert.Greater(t, span[0], -320000.0)
	assert.Less(t, span[1], -140000.0)
	assert.Greater(t, span[2], 5800000.0)
	assert.Less(t, span[3], 6300000.0)
	assert.Less(t, span[0], span[1])
	assert.Less(t, span[2], span[3])

	same, err := g.TransformWkb(shape.Geom, MOLLWEIDE_CRS, MOLLWEIDE_CRS)
	require.NoError(t, err)
	assert.Equal(t, shape.Geom, same)

	// 同一坐标系下矩形原样输出，范围与bbox一致
	flat, err := g.ReprojectBBox(DefaultBBox, GEOGRAPHIC_CRS, GEOGRAPHIC_CRS)
	require.NoError(t, err)
	wkt, err = g.WkbToWkt(flat.Geom, GEOGRAPHIC_CRS)
	require.NoError(t, err)
	span, err = g.GetWktSpan(wkt, GEOGRAPHIC_CRS)
	require.NoError(t, err)
	assert.Equal(t, [4]float64{DefaultBBox[0], DefaultBBox[2], DefaultBBox[1], DefaultBBox[3]}, span)

	_, err = g.TransformWkb(nil, GEOGRAPHIC_CRS, MOLLWEIDE_CRS)
	assert.ErrorIs(t, err, ErrInvalidWKB)
	_, err = g.TransformWkt("POLYGON((", GEOGRAPHIC_CRS, MOLLWEIDE_CRS)
	assert.ErrorIs(t, err, ErrInvalidWKT)
}

func TestPointsToWkt(t *testing.T) {
	assert.Equal(t,
		"POLYGON((1.000000 3.000000, 1.000000 4.000000, 2.000000 4.000000, 2.000000 3.000000, 1.000000 3.000000))",
		PointsToWkt(1, 2, 3, 4))
	assert.Equal(t, PointsToWkt(1, 2, 3, 4), SpanToWkt([4]float64{1, 2, 3, 4}))
}
