// Package contour extracts region boundaries from binary images and
// computes shape descriptors for them.
package contour

import (
	"fmt"
	"image"

	"github.com/MeKo-Tech/imagelab/internal/pixel"
	"github.com/paulmach/orb"
)

// Contour is the outer boundary of one 8-connected foreground region.
type Contour struct {
	// Ring holds the boundary vertices in pixel coordinates, clockwise on
	// screen, without a repeated closing point. Runs of equal steps are
	// compressed to their end points.
	Ring orb.Ring
	// Pixels is the number of pixels of the region.
	Pixels int
	// Start is the topmost, leftmost pixel of the region.
	Start image.Point
}

// clockwise on screen (rows grow downwards): E, SE, S, SW, W, NW, N, NE
var (
	ndx = [8]int{1, 1, 0, -1, -1, -1, 0, 1}
	ndy = [8]int{0, 1, 1, 1, 0, -1, -1, -1}
)

// Trace returns the outer contour of every 8-connected region of non-zero
// pixels, ordered by the raster position of each region's first pixel.
// Holes are not traced.
func Trace(b *pixel.Buffer) ([]Contour, error) {
	if b.Mode() == pixel.Color {
		return nil, fmt.Errorf("%w: contours need a grayscale or binary image", pixel.ErrUnsupportedMode)
	}
	labels, sizes := label(b)
	w, h := b.Width(), b.Height()

	out := make([]Contour, 0, len(sizes))
	seen := make([]bool, len(sizes)+1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			l := labels[y*w+x]
			if l == 0 || seen[l] {
				continue
			}
			seen[l] = true
			pts := traceMoore(labels, w, h, l, image.Pt(x, y))
			out = append(out, Contour{
				Ring:   compress(pts),
				Pixels: sizes[l-1],
				Start:  image.Pt(x, y),
			})
		}
	}
	return out, nil
}

// label assigns 8-connected component ids starting at 1 and returns the
// label image together with the size of each component.
func label(b *pixel.Buffer) ([]int, []int) {
	w, h := b.Width(), b.Height()
	labels := make([]int, w*h)
	var sizes []int
	queue := make([]int, 0, 64)

	for i := range labels {
		if labels[i] != 0 || b.Gray(i%w, i/w) == 0 {
			continue
		}
		id := len(sizes) + 1
		labels[i] = id
		queue = append(queue[:0], i)
		n := 0
		for len(queue) > 0 {
			j := queue[0]
			queue = queue[1:]
			n++
			cx, cy := j%w, j/w
			for d := 0; d < 8; d++ {
				nx, ny := cx+ndx[d], cy+ndy[d]
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				k := ny*w + nx
				if labels[k] == 0 && b.Gray(nx, ny) != 0 {
					labels[k] = id
					queue = append(queue, k)
				}
			}
		}
		sizes = append(sizes, n)
	}
	return labels, sizes
}

// traceMoore follows the boundary of component id clockwise from start,
// which must be its first pixel in raster order. Tracing stops when the
// walk is about to repeat its first move out of start.
func traceMoore(labels []int, w, h, id int, start image.Point) []image.Point {
	is := func(x, y int) bool {
		return x >= 0 && y >= 0 && x < w && y < h && labels[y*w+x] == id
	}

	pts := []image.Point{start}
	c := start
	back := image.Pt(start.X-1, start.Y)
	var second image.Point

	limit := 4*w*h + 8
	for step := 0; step < limit; step++ {
		d := dirIndex(back.X-c.X, back.Y-c.Y)
		prev := back
		found := false
		var next image.Point
		for k := 1; k <= 8; k++ {
			i := (d + k) % 8
			t := image.Pt(c.X+ndx[i], c.Y+ndy[i])
			if is(t.X, t.Y) {
				next, found = t, true
				break
			}
			prev = t
		}
		if !found {
			// isolated pixel
			break
		}
		if step == 0 {
			second = next
		} else if c == start && next == second {
			break
		}
		c, back = next, prev
		pts = append(pts, c)
	}

	// the walk closes on start; the ring does not repeat it
	if n := len(pts); n > 1 && pts[n-1] == start {
		pts = pts[:n-1]
	}
	return pts
}

func dirIndex(dx, dy int) int {
	for i := 0; i < 8; i++ {
		if ndx[i] == dx && ndy[i] == dy {
			return i
		}
	}
	return 0
}

// compress keeps only the points where the step direction changes, the
// way a simple chain approximation does. Direction reversals are kept so
// one pixel wide strokes retain both ends.
func compress(pts []image.Point) orb.Ring {
	n := len(pts)
	if n <= 2 {
		ring := make(orb.Ring, n)
		for i, p := range pts {
			ring[i] = orb.Point{float64(p.X), float64(p.Y)}
		}
		return ring
	}

	ring := make(orb.Ring, 0, n)
	for i, p := range pts {
		prev := pts[(i-1+n)%n]
		next := pts[(i+1)%n]
		if p.Sub(prev) == next.Sub(p) {
			continue
		}
		ring = append(ring, orb.Point{float64(p.X), float64(p.Y)})
	}
	if len(ring) == 0 {
		// every step equal; cannot happen on a closed walk but keep the start
		ring = append(ring, orb.Point{float64(pts[0].X), float64(pts[0].Y)})
	}
	return ring
}
