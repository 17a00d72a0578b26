package contour

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Moments are the spatial, central and normalized central moments of a
// contour polygon, integrated over its interior.
type Moments struct {
	M00, M10, M01, M20, M11, M02, M30, M21, M12, M03 float64
	Mu20, Mu11, Mu02, Mu30, Mu21, Mu12, Mu03         float64
	Nu20, Nu11, Nu02, Nu30, Nu21, Nu12, Nu03         float64
}

// values lists the moments in CSV column order.
func (mo Moments) values() []float64 {
	return []float64{
		mo.M00, mo.M10, mo.M01, mo.M20, mo.M11, mo.M02, mo.M30, mo.M21, mo.M12, mo.M03,
		mo.Mu20, mo.Mu11, mo.Mu02, mo.Mu30, mo.Mu21, mo.Mu12, mo.Mu03,
		mo.Nu20, mo.Nu11, mo.Nu02, mo.Nu30, mo.Nu21, mo.Nu12, mo.Nu03,
	}
}

// Metrics describes the size and shape of one contour.
type Metrics struct {
	// Area is the polygon area enclosed by the contour vertices. A region
	// one pixel wide has zero area; Pixels carries the region size.
	Area      float64
	Perimeter float64
	Pixels    int
	HullArea  float64
	Centroid  orb.Point
	Bound     orb.Bound
	Moments   Moments

	// AspectRatio and Extent refer to the pixel bounding box, which is one
	// pixel larger than Bound in each direction.
	AspectRatio float64 // box width over box height
	Extent      float64 // area over box area

	// Shape descriptors.
	W1  float64 // diameter of the circle of equal area
	W2  float64 // diameter of the circle of equal perimeter
	W3  float64 // Malinowska circularity
	W9  float64 // Haralick-style circularity, 1 for a disc
	W10 float64 // solidity, area over hull area
	M1  float64 // first Hu-type invariant, nu20 + nu02
	M2  float64
	M3  float64
}

// Measure computes the metrics of c. Divisions by a zero area or
// perimeter yield zero for the affected descriptors.
func Measure(c Contour) Metrics {
	m := Metrics{
		Area:      math.Abs(planar.Area(c.Ring)),
		Perimeter: perimeter(c.Ring),
		Pixels:    c.Pixels,
		HullArea:  math.Abs(planar.Area(ConvexHull(c.Ring))),
		Bound:     c.Ring.Bound(),
		Moments:   PolygonMoments(c.Ring),
	}
	if m.Moments.M00 != 0 {
		m.Centroid = orb.Point{m.Moments.M10 / m.Moments.M00, m.Moments.M01 / m.Moments.M00}
	} else {
		m.Centroid = m.Bound.Center()
	}

	if len(c.Ring) > 0 {
		bw := m.Bound.Max[0] - m.Bound.Min[0] + 1
		bh := m.Bound.Max[1] - m.Bound.Min[1] + 1
		m.AspectRatio = bw / bh
		m.Extent = m.Area / (bw * bh)
	}

	a, p := m.Area, m.Perimeter
	m.W1 = 2 * math.Sqrt(a/math.Pi)
	m.W2 = p / math.Pi
	if a > 0 {
		m.W3 = p/(2*math.Sqrt(math.Pi*a)) - 1
	}
	if p > 0 {
		m.W9 = 2 * math.Sqrt(math.Pi*a) / p
	}
	if m.HullArea > 0 {
		m.W10 = a / m.HullArea
	}

	mo := m.Moments
	m.M1 = mo.Nu20 + mo.Nu02
	m.M2 = (mo.Nu20-mo.Nu02)*(mo.Nu20-mo.Nu02) + 4*mo.Nu11*mo.Nu11
	m.M3 = (mo.Nu30-3*mo.Nu12)*(mo.Nu30-3*mo.Nu12) + (3*mo.Nu21-mo.Nu03)*(3*mo.Nu21-mo.Nu03)
	return m
}

// MeasureAll measures every contour in order.
func MeasureAll(cs []Contour) []Metrics {
	out := make([]Metrics, len(cs))
	for i, c := range cs {
		out[i] = Measure(c)
	}
	return out
}

// perimeter is the length of the closed ring, so a one pixel wide stroke
// counts both of its sides.
func perimeter(r orb.Ring) float64 {
	if len(r) < 2 {
		return 0
	}
	closed := append(orb.LineString(nil), r...)
	if !r.Closed() {
		closed = append(closed, r[0])
	}
	return planar.Length(closed)
}

// PolygonMoments integrates the moments up to third order over the
// polygon bounded by r using Green's theorem. The result does not depend
// on the ring orientation.
func PolygonMoments(r orb.Ring) Moments {
	var a00, a10, a01, a20, a11, a02, a30, a21, a12, a03 float64
	n := len(r)
	if n < 3 {
		return Moments{}
	}

	prev := r[n-1]
	for _, cur := range r {
		xp, yp := prev[0], prev[1]
		x, y := cur[0], cur[1]

		dxy := xp*y - x*yp
		xs := xp + x
		ys := yp + y
		xp2, yp2 := xp*xp, yp*yp
		x2, y2 := x*x, y*y

		a00 += dxy
		a10 += dxy * xs
		a01 += dxy * ys
		a20 += dxy * (xp*xs + x2)
		a11 += dxy * (xp*(ys+yp) + x*(ys+y))
		a02 += dxy * (yp*ys + y2)
		a30 += dxy * xs * (xp2 + x2)
		a03 += dxy * ys * (yp2 + y2)
		a21 += dxy * (xp2*(3*yp+y) + 2*x*xp*ys + x2*(yp+3*y))
		a12 += dxy * (yp2*(3*xp+x) + 2*y*yp*xs + y2*(xp+3*x))
		prev = cur
	}
	if math.Abs(a00) <= 1e-12 {
		return Moments{}
	}

	sign := 1.0
	if a00 < 0 {
		sign = -1
	}
	m := Moments{
		M00: sign * a00 / 2,
		M10: sign * a10 / 6,
		M01: sign * a01 / 6,
		M20: sign * a20 / 12,
		M11: sign * a11 / 24,
		M02: sign * a02 / 12,
		M30: sign * a30 / 20,
		M21: sign * a21 / 60,
		M12: sign * a12 / 60,
		M03: sign * a03 / 20,
	}

	cx := m.M10 / m.M00
	cy := m.M01 / m.M00
	m.Mu20 = m.M20 - m.M10*cx
	m.Mu11 = m.M11 - m.M10*cy
	m.Mu02 = m.M02 - m.M01*cy
	m.Mu30 = m.M30 - cx*(3*m.Mu20+cx*m.M10)
	m.Mu21 = m.M21 - cx*(2*m.Mu11+cx*m.M01) - cy*m.Mu20
	m.Mu12 = m.M12 - cy*(2*m.Mu11+cy*m.M10) - cx*m.Mu02
	m.Mu03 = m.M03 - cy*(3*m.Mu02+cy*m.M01)

	inv := 1 / m.M00
	s2 := inv * inv
	s3 := s2 * math.Sqrt(inv)
	m.Nu20 = m.Mu20 * s2
	m.Nu11 = m.Mu11 * s2
	m.Nu02 = m.Mu02 * s2
	m.Nu30 = m.Mu30 * s3
	m.Nu21 = m.Mu21 * s3
	m.Nu12 = m.Mu12 * s3
	m.Nu03 = m.Mu03 * s3
	return m
}
