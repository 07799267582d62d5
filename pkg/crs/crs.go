// Package crs resolves coordinate reference systems of feature layers to
// EPSG codes and reprojects their bounding boxes to WGS84.
//
// Resolution is best-effort: the root AUTHORITY (WKT1) or ID (WKT2) of a
// well-known-text definition is preferred, then the structured
// organisation/code pair reported by the reader. Reprojection supports
// geographic systems, Web Mercator and Transverse Mercator families (UTM,
// Gauss-Kruger and any WKT with explicit Transverse Mercator parameters).
package crs

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/agentstation/geomanifest/pkg/errors"
)

// Definition describes a layer's coordinate reference system as reported
// by a feature-database reader.
type Definition struct {
	// WKT is the well-known-text definition, if any.
	WKT string
	// Organization and Code are the structured authority pair, e.g. "EPSG", 32637.
	Organization string
	Code         int
}

// IsZero reports whether the definition carries no information.
func (d Definition) IsZero() bool {
	return strings.TrimSpace(d.WKT) == "" && d.Code == 0
}

// Bounds is a bounding box in native layer coordinates.
type Bounds struct {
	MinX float64 `json:"minx" yaml:"minx"`
	MinY float64 `json:"miny" yaml:"miny"`
	MaxX float64 `json:"maxx" yaml:"maxx"`
	MaxY float64 `json:"maxy" yaml:"maxy"`
}

// IsZero reports whether all bounds are zero, which readers use for "unknown".
func (b Bounds) IsZero() bool {
	return b.MinX == 0 && b.MinY == 0 && b.MaxX == 0 && b.MaxY == 0
}

// GeoBounds is a bounding box in WGS84 degrees.
type GeoBounds struct {
	MinLon float64 `json:"min_lon" yaml:"min_lon"`
	MinLat float64 `json:"min_lat" yaml:"min_lat"`
	MaxLon float64 `json:"max_lon" yaml:"max_lon"`
	MaxLat float64 `json:"max_lat" yaml:"max_lat"`
}

// Union returns the smallest box covering both g and o.
func (g GeoBounds) Union(o GeoBounds) GeoBounds {
	return GeoBounds{
		MinLon: math.Min(g.MinLon, o.MinLon),
		MinLat: math.Min(g.MinLat, o.MinLat),
		MaxLon: math.Max(g.MaxLon, o.MaxLon),
		MaxLat: math.Max(g.MaxLat, o.MaxLat),
	}
}

// EPSG returns the EPSG code of a definition, or 0 when it cannot be determined.
func EPSG(def Definition) int {
	if def.WKT != "" {
		if root, err := ParseWKT(def.WKT); err == nil {
			if code := rootAuthority(root); code != 0 {
				return code
			}
		}
	}
	if strings.EqualFold(def.Organization, "EPSG") && def.Code > 0 {
		return def.Code
	}
	return 0
}

// ID formats an EPSG code as "EPSG:n".
func ID(code int) string {
	return "EPSG:" + strconv.Itoa(code)
}

func rootAuthority(root *Node) int {
	// WKT1 places AUTHORITY last among the root's children; nested ones
	// belong to the datum, spheroid or base CRS.
	for i := len(root.Children) - 1; i >= 0; i-- {
		c := root.Children[i]
		if c.Keyword != "AUTHORITY" && c.Keyword != "ID" {
			continue
		}
		if !strings.EqualFold(c.Name(), "EPSG") {
			continue
		}
		if len(c.Numbers) > 0 {
			return int(c.Numbers[0])
		}
		if len(c.Strings) > 1 {
			if n, err := strconv.Atoi(strings.TrimSpace(c.Strings[1])); err == nil {
				return n
			}
		}
	}
	return 0
}

// ToWGS84 reprojects native bounds to WGS84. All four corners are
// transformed and enveloped; results are rounded to six decimal places.
func ToWGS84(b Bounds, def Definition) (*GeoBounds, error) {
	proj, err := ProjectionFor(def)
	if err != nil {
		return nil, err
	}

	corners := [4][2]float64{
		{b.MinX, b.MinY}, {b.MinX, b.MaxY}, {b.MaxX, b.MinY}, {b.MaxX, b.MaxY},
	}
	out := GeoBounds{
		MinLon: math.Inf(1), MinLat: math.Inf(1),
		MaxLon: math.Inf(-1), MaxLat: math.Inf(-1),
	}
	for _, c := range corners {
		lon, lat, err := proj.Inverse(c[0], c[1])
		if err != nil {
			return nil, err
		}
		if math.IsNaN(lon) || math.IsNaN(lat) || math.IsInf(lon, 0) || math.IsInf(lat, 0) {
			return nil, fmt.Errorf("%w: non-finite coordinate from %s", errors.ErrUnsupported, proj.Name())
		}
		out.MinLon = math.Min(out.MinLon, lon)
		out.MinLat = math.Min(out.MinLat, lat)
		out.MaxLon = math.Max(out.MaxLon, lon)
		out.MaxLat = math.Max(out.MaxLat, lat)
	}

	out.MinLon = Round(out.MinLon, 6)
	out.MinLat = Round(out.MinLat, 6)
	out.MaxLon = Round(out.MaxLon, 6)
	out.MaxLat = Round(out.MaxLat, 6)
	return &out, nil
}

// Round rounds v to the given number of decimal places, half away from zero.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	r := math.Round(v*p) / p
	if r == 0 {
		return 0 // drop negative zero
	}
	return r
}
