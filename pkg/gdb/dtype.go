package gdb

import "strings"

// Semantic field types.
const (
	TypeInt32    = "int32"
	TypeInt64    = "int64"
	TypeFloat32  = "float32"
	TypeFloat64  = "float64"
	TypeString   = "str"
	TypeDatetime = "datetime"
	TypeTime     = "time"
	TypeBytes    = "bytes"
)

var typeAliases = map[string]string{
	"int":       TypeInt32,
	"int32":     TypeInt32,
	"int16":     TypeInt32,
	"smallint":  TypeInt32,
	"tinyint":   TypeInt32,
	"mediumint": TypeInt32,
	"boolean":   TypeInt32,
	"bool":      TypeInt32,
	"int64":     TypeInt64,
	"integer":   TypeInt64,
	"bigint":    TypeInt64,
	"float":     TypeFloat64,
	"float32":   TypeFloat32,
	"real":      TypeFloat64,
	"double":    TypeFloat64,
	"float64":   TypeFloat64,
	"str":       TypeString,
	"string":    TypeString,
	"text":      TypeString,
	"varchar":   TypeString,
	"char":      TypeString,
	"date":      TypeDatetime,
	"datetime":  TypeDatetime,
	"timestamp": TypeDatetime,
	"time":      TypeTime,
	"bytes":     TypeBytes,
	"blob":      TypeBytes,
	"binary":    TypeBytes,
}

// NormalizeType maps a reader's declared type onto the semantic type set.
// Length suffixes such as "TEXT(50)" or "str:80" are ignored; unknown
// types are returned lowercased.
func NormalizeType(declared string) string {
	t := strings.ToLower(strings.TrimSpace(declared))
	if i := strings.IndexAny(t, "(:"); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	if norm, ok := typeAliases[t]; ok {
		return norm
	}
	return t
}

// IsNumeric reports whether a semantic type gets numeric statistics.
func IsNumeric(dtype string) bool {
	switch dtype {
	case TypeInt32, TypeInt64, TypeFloat32, TypeFloat64:
		return true
	}
	return false
}

var geometryNames = map[string]string{
	"point":              "Point",
	"linestring":         "LineString",
	"polygon":            "Polygon",
	"multipoint":         "MultiPoint",
	"multilinestring":    "MultiLineString",
	"multipolygon":       "MultiPolygon",
	"geometrycollection": "GeometryCollection",
	"geometry":           "Geometry",
	"curvepolygon":       "CurvePolygon",
	"multisurface":       "MultiSurface",
	"multicurve":         "MultiCurve",
	"multipatch":         "MultiPatch",
}

// NormalizeGeometry canonicalizes a geometry type name. Absent geometry
// ("", "none", "null") yields "". Z-enabled geometries get a "3D " prefix.
func NormalizeGeometry(declared string, hasZ bool) string {
	g := strings.TrimSpace(declared)
	lower := strings.ToLower(g)
	switch lower {
	case "", "none", "null":
		return ""
	}

	if strings.HasPrefix(lower, "3d ") {
		hasZ = true
		lower = strings.TrimSpace(lower[3:])
	}
	if name, ok := geometryNames[lower]; ok {
		g = name
	} else if base, ok := geometryNames[strings.TrimSuffix(lower, "z")]; ok && strings.HasSuffix(lower, "z") {
		g = base
		hasZ = true
	}
	if hasZ {
		return "3D " + g
	}
	return g
}
