package rasterkit

import "errors"

var (
	ErrGdalDriverCreate    = errors.New("gdal driver create err")
	ErrGdalDriverOpen      = errors.New("gdal driver open err")
	ErrRasterNotFound      = errors.New("raster file not found")
	ErrInvalidTif          = errors.New("invalid tif")
	ErrTifReadFailed       = errors.New("tif read failed")
	ErrTifWriteFailed      = errors.New("tif write failed")
	ErrBandIndex           = errors.New("band index out of range")
	ErrWindowOutOfRange    = errors.New("window out of raster range")
	ErrEmptyWindow         = errors.New("window is empty")
	ErrShapeMismatch       = errors.New("grid shape mismatches profile")
	ErrEmptyIntersection   = errors.New("input shapes do not overlap raster")
	ErrCrsMismatch         = errors.New("shape crs differs from raster crs")
	ErrNoShapes            = errors.New("no shapes given")
	ErrRoundTripMismatch   = errors.New("written raster differs on re-read")
	ErrDegenerateTransform = errors.New("degenerate affine transform")
	ErrUnknownCrs          = errors.New("unknown crs definition")
	ErrInvalidWKT          = errors.New("invalid WKT")
	ErrInvalidWKB          = errors.New("invalid WKB")
	ErrGdalWrongGeoType    = errors.New("gdal wrong geo type")
	ErrEmptyTif            = errors.New("empty tif")
)
