package rasterkit

import (
	"path/filepath"
	"testing"

	"github.com/airbusgeo/godal"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/stretchr/testify/require"
)

func newTestToolbox(t *testing.T) *GdalToolbox {
	t.Helper()
	g := NewGdalToolbox(t.TempDir())
	t.Cleanup(g.Close)
	return g
}

// 单波段经纬度栅格，左上角(0, height)，像元大小1度
func testProfile(t *testing.T, g *GdalToolbox, width, height int) Profile {
	t.Helper()
	wkt, err := g.CrsToWkt(GEOGRAPHIC_CRS)
	require.NoError(t, err)
	return Profile{
		Driver:    godal.GTiff,
		DataType:  godal.Float64,
		Width:     width,
		Height:    height,
		Count:     1,
		Crs:       wkt,
		Transform: Affine{0, 1, 0, float64(height), 0, -1},
		NoData:    DefaultNoData,
		HasNoData: true,
	}
}

func writeTestRaster(t *testing.T, g *GdalToolbox, prof Profile, bands ...Grid) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input"+FILE_EXT_TIF)
	require.NoError(t, g.WriteRaster(path, prof, bands...))
	return path
}

func rampGrid(width, height int) Grid {
	g := NewGrid(width, height)
	for i := range g.Data {
		g.Data[i] = float64(i)
	}
	return g
}

func rectShape(t *testing.T, minx, miny, maxx, maxy float64, crs string) Shape {
	t.Helper()
	poly := orb.Polygon{orb.Ring{{minx, miny}, {minx, maxy}, {maxx, maxy}, {maxx, miny}, {minx, miny}}}
	raw, err := wkb.Marshal(poly)
	require.NoError(t, err)
	return Shape{Geom: raw, Crs: crs}
}
