package rasterkit

const (
	FILE_EXT_TIF     = ".tif"
	FILE_EXT_JSON    = ".json"
	FILE_EXT_SQLITE  = ".sqlite"
	FILE_EXT_SHP     = ".shp"
	TIF_COMPRESS_KEY = "COMPRESSION"
	IMAGE_STRUCTURE  = "IMAGE_STRUCTURE"
	SHAPE_ENCODING   = "UTF-8"
	SHP_DRIVER_NAME  = "ESRI Shapefile"
	ENCODING_OPTION  = "ENCODING=" + SHAPE_ENCODING

	GEOGRAPHIC_CRS = "EPSG:4326"
	MOLLWEIDE_CRS  = "ESRI:54009"
	MOLLWEIDE_PROJ = "+proj=moll +lon_0=0 +x_0=0 +y_0=0 +datum=WGS84 +units=m +no_defs"

	DefaultNoData    = -200
	DefaultThreshold = 5000
	DefaultBand      = 1

	FIELD_LABEL    = "label"
	FIELD_GEOMETRY = "geometry"

	TMP_LAYER   = "vec_%s"
	OUT_SUFFIX  = "_modified"
	MASK_BURNED = 1

	RoundTripEps = 1e-9
	pixelSnapEps = 1e-6

	ErrColumnMissingTemplate = `shp文件中缺失【%s】字段`
)

// 默认的检查区域（布里斯托尔海峡）
var DefaultBBox = [4]float64{-3.6955, 51.1869, -2.3002, 51.9855}
