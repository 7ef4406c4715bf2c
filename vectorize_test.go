package rasterkit

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func diagonalGrid(t *testing.T) LabeledGrid {
	t.Helper()
	g, err := GridFromSlice(3, 3, []float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	})
	require.NoError(t, err)
	return LabeledGrid{Grid: g, Transform: Affine{0, 1, 0, 3, 0, -1}}
}

func TestVectorizeConnectivity(t *testing.T) {
	g := newTestToolbox(t)

	table, err := g.Vectorize(diagonalGrid(t))
	require.NoError(t, err)
	assert.Equal(t, 5, table.Len())
	assert.Equal(t, map[int64]int{0: 2, 1: 3}, table.CountByLabel())
	assert.Equal(t, []string{FIELD_LABEL, FIELD_GEOMETRY}, table.Columns())

	var area float64
	for _, r := range table.Rows {
		assert.Equal(t, orb.Polygon{}.GeoJSONType(), r.Geometry.GeoJSONType())
		area += math.Abs(r.Area())
	}
	assert.InDelta(t, 9, area, 1e-9)
	assert.Equal(t, orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{3, 3}}, table.Bound())

	table, err = g.Vectorize(diagonalGrid(t), VectorizeOption{EightConnected: true})
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
	assert.Equal(t, []int64{0, 1}, table.Labels())
}

func TestVectorizeSkipsNoData(t *testing.T) {
	g := newTestToolbox(t)
	grid, err := GridFromSlice(3, 3, []float64{
		-200, -200, -200,
		-200, 7, -200,
		-200, -200, -200,
	})
	require.NoError(t, err)
	lg := LabeledGrid{Grid: grid, Transform: Affine{0, 1, 0, 3, 0, -1}, NoData: -200, HasNoData: true}

	table, err := g.Vectorize(lg)
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, int64(7), table.Rows[0].Label)
	assert.InDelta(t, 1, math.Abs(table.Rows[0].Area()), 1e-9)

	lg.HasNoData = false
	table, err = g.Vectorize(lg)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
	assert.Equal(t, []int64{-200, 7}, table.Labels())
}

func TestVectorizeThresholdedBlock(t *testing.T) {
	g := newTestToolbox(t)
	crs, err := g.CrsToWkt(MOLLWEIDE_CRS)
	require.NoError(t, err)

	src := NewGrid(1000, 1000)
	for i := range src.Data {
		src.Data[i] = 10000
	}
	src.Data[0], src.Data[1], src.Data[1000], src.Data[1001] = 6000, 6000, 6000, 6000
	filtered := Threshold(src, DefaultThreshold, DefaultNoData)

	table, err := g.Vectorize(LabeledGrid{
		Grid:      filtered,
		Crs:       crs,
		Transform: Affine{-250000, 1000, 0, 6100000, 0, -1000},
		NoData:    DefaultNoData,
		HasNoData: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
	assert.Equal(t, []int64{6000, 10000}, table.Labels())
	assert.Equal(t, crs, table.Crs)
}

func TestVectorizeRejectsBadGrid(t *testing.T) {
	g := newTestToolbox(t)
	_, err := g.Vectorize(LabeledGrid{Grid: Grid{Width: 2, Height: 2, Data: []float64{1}}})
	assert.ErrorIs(t, err, ErrShapeMismatch)
	_, err = g.Vectorize(LabeledGrid{})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}
