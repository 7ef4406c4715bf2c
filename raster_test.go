package rasterkit

import (
	"path/filepath"
	"testing"

	"github.com/airbusgeo/godal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRasterNotFound(t *testing.T) {
	g := newTestToolbox(t)
	_, err := g.OpenRaster(filepath.Join(t.TempDir(), "missing.tif"))
	assert.ErrorIs(t, err, ErrRasterNotFound)
}

func TestRasterMetadataAndRead(t *testing.T) {
	g := newTestToolbox(t)
	prof := testProfile(t, g, 10, 8)
	src := rampGrid(10, 8)
	path := writeTestRaster(t, g, prof, src)

	d, err := g.OpenRaster(path)
	require.NoError(t, err)
	defer d.Close()

	m, err := d.Metadata()
	require.NoError(t, err)
	assert.Equal(t, 1, m.Count)
	assert.Equal(t, 10, m.Width)
	assert.Equal(t, 8, m.Height)
	assert.Equal(t, godal.Float64, m.DataType)
	assert.True(t, m.HasNoData)
	assert.Equal(t, float64(DefaultNoData), m.NoData)
	assert.Equal(t, prof.Transform, m.Transform)
	assert.Equal(t, Bounds{Left: 0, Bottom: 0, Right: 10, Top: 8}, m.Bounds)
	assert.NotEmpty(t, m.Crs)
	assert.Contains(t, m.String(), "Number of columns: 10")

	full, err := d.Read(1, nil)
	require.NoError(t, err)
	assert.Equal(t, m.Width*m.Height, full.Len())
	assert.True(t, src.Equal(full))

	win := Window{ColOff: 2, RowOff: 3, Width: 4, Height: 2}
	part, err := d.Read(1, &win)
	require.NoError(t, err)
	want, err := src.Sub(win)
	require.NoError(t, err)
	assert.Equal(t, want.Data, part.Data)
}

func TestRasterReadErrors(t *testing.T) {
	g := newTestToolbox(t)
	path := writeTestRaster(t, g, testProfile(t, g, 4, 4), rampGrid(4, 4))
	d, err := g.OpenRaster(path)
	require.NoError(t, err)
	defer d.Close()

	_, err = d.Read(0, nil)
	assert.ErrorIs(t, err, ErrBandIndex)
	_, err = d.Read(2, nil)
	assert.ErrorIs(t, err, ErrBandIndex)
	_, err = d.Read(1, &Window{ColOff: 3, Width: 2, Height: 1})
	assert.ErrorIs(t, err, ErrWindowOutOfRange)
	_, err = d.Read(1, &Window{})
	assert.ErrorIs(t, err, ErrEmptyWindow)
}

func TestWriteRasterShapeMismatch(t *testing.T) {
	g := newTestToolbox(t)
	prof := testProfile(t, g, 4, 4)
	path := filepath.Join(t.TempDir(), "bad.tif")

	err := g.WriteRaster(path, prof, rampGrid(3, 4))
	assert.ErrorIs(t, err, ErrShapeMismatch)
	err = g.WriteRaster(path, prof, rampGrid(4, 4), rampGrid(4, 4))
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestProfileRoundTrip(t *testing.T) {
	g := newTestToolbox(t)
	prof := testProfile(t, g, 6, 5)
	prof.Compress = "DEFLATE"
	src := rampGrid(6, 5)
	path := writeTestRaster(t, g, prof, src)

	d, err := g.OpenRaster(path)
	require.NoError(t, err)
	p, err := d.Profile()
	require.NoError(t, err)
	require.NoError(t, d.Close())
	assert.Equal(t, "DEFLATE", p.Compress)
	assert.False(t, p.Tiled)
	assert.Equal(t, prof.Transform, p.Transform)

	crop := p.WithWindow(p.Transform.Translate(1, 1), 3, 2)
	assert.Equal(t, 3, crop.Width)
	assert.Equal(t, 2, crop.Height)
	assert.Equal(t, Affine{1, 1, 0, 4, 0, -1}, crop.Transform)
	assert.Equal(t, 6, p.Width, "WithWindow returns a copy")

	sub, err := src.Sub(Window{ColOff: 1, RowOff: 1, Width: 3, Height: 2})
	require.NoError(t, err)
	out := filepath.Join(t.TempDir(), "crop.tif")
	require.NoError(t, g.WriteRaster(out, crop, sub))
	assert.NoError(t, g.VerifyRaster(out, crop, sub))

	other := sub.Clone()
	other.Data[0] = 99
	assert.ErrorIs(t, g.VerifyRaster(out, crop, other), ErrRoundTripMismatch)
}

func TestProfileDetectsTiles(t *testing.T) {
	g := newTestToolbox(t)
	prof := testProfile(t, g, 256, 256)
	prof.Tiled, prof.BlockX, prof.BlockY = true, 256, 256
	path := writeTestRaster(t, g, prof, rampGrid(256, 256))

	d, err := g.OpenRaster(path)
	require.NoError(t, err)
	defer d.Close()
	p, err := d.Profile()
	require.NoError(t, err)
	assert.True(t, p.Tiled)
	assert.Equal(t, 256, p.BlockX)
	assert.Equal(t, 256, p.BlockY)

	assert.False(t, isTiled(godal.DatasetStructure{BandStructure: godal.BandStructure{SizeX: 256, SizeY: 256, BlockSizeX: 256, BlockSizeY: 1}}))
	assert.True(t, isTiled(godal.DatasetStructure{BandStructure: godal.BandStructure{SizeX: 300, SizeY: 300, BlockSizeX: 256, BlockSizeY: 256}}))
	assert.False(t, isTiled(godal.DatasetStructure{BandStructure: godal.BandStructure{SizeX: 6, SizeY: 5, BlockSizeX: 6, BlockSizeY: 5}}))
}

func TestProfileWithWindowDropsTiling(t *testing.T) {
	p := Profile{Width: 1024, Height: 1024, Tiled: true, BlockX: 256, BlockY: 256}
	assert.True(t, p.WithWindow(Affine{}, 512, 300).Tiled)
	assert.False(t, p.WithWindow(Affine{}, 100, 300).Tiled)
	assert.ElementsMatch(t, []string{"TILED=YES", "BLOCKXSIZE=256", "BLOCKYSIZE=256"}, p.creationOptions())
}
