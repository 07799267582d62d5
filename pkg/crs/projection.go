package crs

import (
	"fmt"
	"math"
	"strings"

	"github.com/agentstation/geomanifest/pkg/errors"
)

// Projection converts projected coordinates back to geographic degrees.
type Projection interface {
	Name() string
	Inverse(x, y float64) (lon, lat float64, err error)
}

// Ellipsoid is a reference ellipsoid given by semi-major axis and inverse flattening.
type Ellipsoid struct {
	A    float64
	InvF float64
}

// Reference ellipsoids.
var (
	WGS84       = Ellipsoid{A: 6378137, InvF: 298.257223563}
	Krassowsky  = Ellipsoid{A: 6378245, InvF: 298.3}
	GSK2011     = Ellipsoid{A: 6378136.5, InvF: 298.2564151}
	earthRadius = 6378137.0
)

func (e Ellipsoid) e2() float64 {
	if e.InvF == 0 {
		return 0
	}
	f := 1 / e.InvF
	return 2*f - f*f
}

// Geographic passes coordinates through unchanged. Datum shifts between
// geographic systems are below the precision a catalog extent needs.
type Geographic struct{}

// Name implements Projection.
func (Geographic) Name() string { return "geographic" }

// Inverse implements Projection.
func (Geographic) Inverse(x, y float64) (float64, float64, error) {
	if y < -90.000001 || y > 90.000001 {
		return 0, 0, fmt.Errorf("%w: latitude %v out of range", errors.ErrInvalidInput, y)
	}
	return x, y, nil
}

// WebMercator is the spherical Pseudo-Mercator (EPSG:3857).
type WebMercator struct{}

// Name implements Projection.
func (WebMercator) Name() string { return "web_mercator" }

// Inverse implements Projection.
func (WebMercator) Inverse(x, y float64) (float64, float64, error) {
	lon := x / earthRadius * 180 / math.Pi
	lat := math.Atan(math.Sinh(y/earthRadius)) * 180 / math.Pi
	return lon, lat, nil
}

// TransverseMercator is an ellipsoidal Transverse Mercator projection.
type TransverseMercator struct {
	Ellipsoid       Ellipsoid
	CentralMeridian float64 // degrees
	LatitudeOrigin  float64 // degrees
	ScaleFactor     float64
	FalseEasting    float64
	FalseNorthing   float64
	// UnitToMeters scales projected coordinates to meters.
	UnitToMeters float64
}

// Name implements Projection.
func (tm TransverseMercator) Name() string {
	return fmt.Sprintf("transverse_mercator(lon0=%g)", tm.CentralMeridian)
}

// UTM returns the WGS84 UTM projection for a zone and hemisphere.
func UTM(zone int, south bool) TransverseMercator {
	tm := TransverseMercator{
		Ellipsoid:       WGS84,
		CentralMeridian: float64(6*zone - 183),
		ScaleFactor:     0.9996,
		FalseEasting:    500000,
		UnitToMeters:    1,
	}
	if south {
		tm.FalseNorthing = 10000000
	}
	return tm
}

// GaussKruger returns a six-degree Gauss-Kruger zone projection whose
// false easting carries the zone number as a prefix.
func GaussKruger(zone int, e Ellipsoid) TransverseMercator {
	return TransverseMercator{
		Ellipsoid:       e,
		CentralMeridian: float64(6*zone - 3),
		ScaleFactor:     1,
		FalseEasting:    float64(zone)*1e6 + 500000,
		UnitToMeters:    1,
	}
}

func (tm TransverseMercator) meridianArc(phi float64) float64 {
	e2 := tm.Ellipsoid.e2()
	e4, e6 := e2*e2, e2*e2*e2
	return tm.Ellipsoid.A * ((1-e2/4-3*e4/64-5*e6/256)*phi -
		(3*e2/8+3*e4/32+45*e6/1024)*math.Sin(2*phi) +
		(15*e4/256+45*e6/1024)*math.Sin(4*phi) -
		(35*e6/3072)*math.Sin(6*phi))
}

// Inverse implements Projection using the series expansion from Snyder,
// "Map Projections: A Working Manual", eq. 8-18 to 8-25.
func (tm TransverseMercator) Inverse(x, y float64) (float64, float64, error) {
	k0 := tm.ScaleFactor
	if k0 == 0 {
		k0 = 1
	}
	unit := tm.UnitToMeters
	if unit == 0 {
		unit = 1
	}
	a := tm.Ellipsoid.A
	e2 := tm.Ellipsoid.e2()
	e4, e6 := e2*e2, e2*e2*e2
	ep2 := e2 / (1 - e2)

	x = x*unit - tm.FalseEasting
	y = y*unit - tm.FalseNorthing

	m := tm.meridianArc(tm.LatitudeOrigin*math.Pi/180) + y/k0
	mu := m / (a * (1 - e2/4 - 3*e4/64 - 5*e6/256))
	sq := math.Sqrt(1 - e2)
	e1 := (1 - sq) / (1 + sq)

	phi1 := mu +
		(3*e1/2-27*math.Pow(e1, 3)/32)*math.Sin(2*mu) +
		(21*e1*e1/16-55*math.Pow(e1, 4)/32)*math.Sin(4*mu) +
		(151*math.Pow(e1, 3)/96)*math.Sin(6*mu) +
		(1097*math.Pow(e1, 4)/512)*math.Sin(8*mu)

	sin1, cos1, tan1 := math.Sin(phi1), math.Cos(phi1), math.Tan(phi1)
	c1 := ep2 * cos1 * cos1
	t1 := tan1 * tan1
	w := 1 - e2*sin1*sin1
	n1 := a / math.Sqrt(w)
	r1 := a * (1 - e2) / math.Pow(w, 1.5)
	d := x / (n1 * k0)

	lat := phi1 - (n1*tan1/r1)*(d*d/2-
		(5+3*t1+10*c1-4*c1*c1-9*ep2)*math.Pow(d, 4)/24+
		(61+90*t1+298*c1+45*t1*t1-252*ep2-3*c1*c1)*math.Pow(d, 6)/720)
	lon := (d - (1+2*t1+c1)*math.Pow(d, 3)/6 +
		(5-2*c1+28*t1-3*c1*c1+8*ep2+24*t1*t1)*math.Pow(d, 5)/120) / cos1

	return tm.CentralMeridian + lon*180/math.Pi, lat * 180 / math.Pi, nil
}

// ProjectionFor selects an inverse projection for a definition. An
// explicit WKT projection takes precedence over a known EPSG code.
func ProjectionFor(def Definition) (Projection, error) {
	if def.IsZero() {
		return nil, fmt.Errorf("%w: no coordinate reference system", errors.ErrUnsupported)
	}
	if def.WKT != "" {
		root, err := ParseWKT(def.WKT)
		if err == nil {
			if p, ok := fromWKT(root); ok {
				return p, nil
			}
		}
	}
	if code := EPSG(def); code != 0 {
		if p, ok := fromEPSG(code); ok {
			return p, nil
		}
		return nil, fmt.Errorf("%w: EPSG:%d", errors.ErrUnsupported, code)
	}
	return nil, fmt.Errorf("%w: unrecognized coordinate reference system", errors.ErrUnsupported)
}

var geographicCodes = map[int]bool{
	7683: true, // GSK-2011
	9057: true, // WGS 84 (G2139)
}

func fromEPSG(code int) (Projection, bool) {
	switch {
	case code >= 4000 && code < 5000, geographicCodes[code]:
		return Geographic{}, true
	case code == 3857 || code == 900913 || code == 102100:
		return WebMercator{}, true
	case code >= 32601 && code <= 32660:
		return UTM(code-32600, false), true
	case code >= 32701 && code <= 32760:
		return UTM(code-32700, true), true
	case code >= 28402 && code <= 28432:
		return GaussKruger(code-28400, Krassowsky), true
	case code >= 20902 && code <= 20932:
		return GaussKruger(code-20900, GSK2011), true
	}
	return nil, false
}

func fromWKT(root *Node) (Projection, bool) {
	switch root.Keyword {
	case "GEOGCS", "GEOGCRS", "GEODCRS", "GEOGRAPHICCRS", "GEODETICCRS":
		return Geographic{}, true
	case "PROJCS", "PROJCRS", "PROJECTEDCRS":
	default:
		return nil, false
	}

	method := ""
	if n := root.Find("PROJECTION", "METHOD"); n != nil {
		method = normalizeKey(n.Name())
	}
	switch {
	case strings.Contains(method, "mercatorauxiliarysphere"), strings.Contains(method, "pseudomercator"),
		strings.Contains(method, "popularvisualisation"):
		return WebMercator{}, true
	case strings.Contains(method, "transversemercator"), strings.Contains(method, "gausskruger"):
	default:
		return nil, false
	}

	tm := TransverseMercator{Ellipsoid: WGS84, ScaleFactor: 1, UnitToMeters: 1}
	if sph := root.Find("SPHEROID", "ELLIPSOID"); sph != nil && len(sph.Numbers) >= 2 {
		tm.Ellipsoid = Ellipsoid{A: sph.Numbers[0], InvF: sph.Numbers[1]}
	}
	for _, c := range allNodes(root, "PARAMETER") {
		if len(c.Numbers) == 0 {
			continue
		}
		v := c.Numbers[0]
		switch normalizeKey(c.Name()) {
		case "centralmeridian", "longitudeofnaturalorigin", "longitudeoforigin":
			tm.CentralMeridian = v
		case "latitudeoforigin", "latitudeofnaturalorigin":
			tm.LatitudeOrigin = v
		case "scalefactor", "scalefactoratnaturalorigin":
			tm.ScaleFactor = v
		case "falseeasting":
			tm.FalseEasting = v
		case "falsenorthing":
			tm.FalseNorthing = v
		}
	}
	if unit := root.Child("UNIT", "LENGTHUNIT"); unit != nil && len(unit.Numbers) > 0 && unit.Numbers[0] > 0 {
		tm.UnitToMeters = unit.Numbers[0]
	}
	return tm, true
}

func allNodes(n *Node, keyword string) []*Node {
	var out []*Node
	if n.Keyword == keyword {
		out = append(out, n)
	}
	for _, c := range n.Children {
		out = append(out, allNodes(c, keyword)...)
	}
	return out
}

func normalizeKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r == '_' || r == ' ' || r == '-' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
