// Package profile rasterizes drawn paths and samples intensity profiles
// along them.
package profile

import (
	"image"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Bresenham returns the pixels of the line from p0 to p1, both included,
// one pixel per step along the dominant axis. The error term starts at
// half the dominant delta and is kept doubled to stay in integers.
func Bresenham(p0, p1 image.Point) []image.Point {
	dx, dy := abs(p1.X-p0.X), abs(p1.Y-p0.Y)
	sx, sy := sign(p1.X-p0.X), sign(p1.Y-p0.Y)

	n := dx
	if dy > n {
		n = dy
	}
	pts := make([]image.Point, 0, n+1)

	x, y := p0.X, p0.Y
	if dx > dy {
		err := dx
		for x != p1.X {
			pts = append(pts, image.Pt(x, y))
			err -= 2 * dy
			if err < 0 {
				y += sy
				err += 2 * dx
			}
			x += sx
		}
	} else {
		err := dy
		for y != p1.Y {
			pts = append(pts, image.Pt(x, y))
			err -= 2 * dx
			if err < 0 {
				x += sx
				err += 2 * dy
			}
			y += sy
		}
	}
	return append(pts, image.Pt(x, y))
}

// Path is a polyline drawn by the user, kept as the ordered pixels of its
// rasterized segments.
type Path struct {
	vertices []image.Point
	pixels   []image.Point
}

// NewPath starts a path at p.
func NewPath(p image.Point) *Path {
	return &Path{
		vertices: []image.Point{p},
		pixels:   []image.Point{p},
	}
}

// PathThrough rasterizes the polyline through vertices.
func PathThrough(vertices ...image.Point) *Path {
	if len(vertices) == 0 {
		return &Path{}
	}
	p := NewPath(vertices[0])
	for _, v := range vertices[1:] {
		p.Extend(v)
	}
	return p
}

// Extend appends the segment from the last vertex to p. The joint pixel is
// not repeated.
func (p *Path) Extend(to image.Point) {
	if len(p.vertices) == 0 {
		p.vertices = append(p.vertices, to)
		p.pixels = append(p.pixels, to)
		return
	}
	last := p.vertices[len(p.vertices)-1]
	p.vertices = append(p.vertices, to)
	p.pixels = append(p.pixels, Bresenham(last, to)[1:]...)
}

// Len returns the number of rasterized pixels.
func (p *Path) Len() int { return len(p.pixels) }

// Points returns the rasterized pixels as (x, y).
func (p *Path) Points() []image.Point {
	return append([]image.Point(nil), p.pixels...)
}

// RowCol returns the rasterized pixels as (row, col) pairs.
func (p *Path) RowCol() [][2]int {
	out := make([][2]int, len(p.pixels))
	for i, pt := range p.pixels {
		out[i] = [2]int{pt.Y, pt.X}
	}
	return out
}

// LineString returns the drawn vertices as a polyline in pixel space.
func (p *Path) LineString() orb.LineString {
	ls := make(orb.LineString, len(p.vertices))
	for i, v := range p.vertices {
		ls[i] = orb.Point{float64(v.X), float64(v.Y)}
	}
	return ls
}

// Length is the euclidean length of the drawn polyline.
func (p *Path) Length() float64 {
	return planar.Length(p.LineString())
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	default:
		return 0
	}
}
