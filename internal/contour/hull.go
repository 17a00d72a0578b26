package contour

import (
	"slices"

	"github.com/paulmach/orb"
)

// ConvexHull returns the convex hull of the ring's vertices as a ring in
// counter-clockwise order (y up), using Andrew's monotone chain.
// Collinear points on the hull are dropped.
func ConvexHull(r orb.Ring) orb.Ring {
	pts := slices.Clone([]orb.Point(r))
	if len(pts) > 1 && r.Closed() {
		pts = pts[:len(pts)-1]
	}
	slices.SortFunc(pts, func(a, b orb.Point) int {
		if a[0] != b[0] {
			if a[0] < b[0] {
				return -1
			}
			return 1
		}
		switch {
		case a[1] < b[1]:
			return -1
		case a[1] > b[1]:
			return 1
		}
		return 0
	})
	pts = slices.Compact(pts)
	if len(pts) < 3 {
		return orb.Ring(pts)
	}

	hull := make([]orb.Point, 0, 2*len(pts))
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return orb.Ring(hull[:len(hull)-1])
}

func cross(o, a, b orb.Point) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}
