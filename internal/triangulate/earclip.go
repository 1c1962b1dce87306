// Package triangulate splits simple polygon footprints into triangles.
package triangulate

import (
	"errors"
	"fmt"

	"github.com/osm3d/pitchmark/internal/geo"
	"github.com/osm3d/pitchmark/pkg/core"
)

// ErrNotSimple is returned when ear clipping cannot make progress, which
// happens when the boundary self-intersects.
var ErrNotSimple = errors.New("footprint boundary is not a simple polygon")

// Ring triangulates a simple polygon by ear clipping and lifts the result
// to the given elevation. The ring may wind either way; output triangles
// are counterclockwise seen from above. A ring enclosing no area fails
// with geo.ErrDegenerateFootprint.
func Ring(ring core.Ring, elevation float64) ([]core.TriangleXYZ, error) {
	if err := geo.ValidateRing(ring); err != nil {
		return nil, err
	}

	verts := dedupe(ring)
	if len(verts) < 3 {
		return nil, geo.ErrDegenerateFootprint
	}

	area := geo.RingArea(verts)
	if area == 0 {
		return nil, geo.ErrDegenerateFootprint
	}
	if area < 0 {
		reverse(verts)
	}

	triangles := make([]core.TriangleXYZ, 0, len(verts)-2)
	remaining := verts
	for len(remaining) > 3 {
		ear := findEar(remaining)
		if ear < 0 {
			return nil, fmt.Errorf("triangulating %d vertices: %w", len(verts), ErrNotSimple)
		}
		n := len(remaining)
		triangles = append(triangles, lift(
			remaining[(ear+n-1)%n], remaining[ear], remaining[(ear+1)%n], elevation))
		remaining = append(remaining[:ear], remaining[ear+1:]...)
	}
	triangles = append(triangles, lift(remaining[0], remaining[1], remaining[2], elevation))

	return triangles, nil
}

// findEar returns the index of a clippable vertex: convex, with no other
// remaining vertex inside or on its triangle. Returns -1 when none exists.
func findEar(verts core.Ring) int {
	n := len(verts)
	for i := 0; i < n; i++ {
		p := verts[(i+n-1)%n]
		c := verts[i]
		nx := verts[(i+1)%n]

		if cross(p, c, nx) <= 0 {
			continue // reflex or collinear corner
		}

		blocked := false
		for j := 0; j < n; j++ {
			v := verts[j]
			if v == p || v == c || v == nx {
				continue
			}
			if inTriangle(v, p, c, nx) {
				blocked = true
				break
			}
		}
		if !blocked {
			return i
		}
	}
	return -1
}

// cross returns the z component of (a-o) x (b-o).
func cross(o, a, b core.Position2D) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// inTriangle reports whether pt lies inside triangle abc or on its
// boundary. The triangle is counterclockwise.
func inTriangle(pt, a, b, c core.Position2D) bool {
	return cross(a, b, pt) >= 0 && cross(b, c, pt) >= 0 && cross(c, a, pt) >= 0
}

func lift(a, b, c core.Position2D, z float64) core.TriangleXYZ {
	return core.TriangleXYZ{A: a.At(z), B: b.At(z), C: c.At(z)}
}

// dedupe drops consecutive duplicate vertices, including a closing vertex
// equal to the first.
func dedupe(ring core.Ring) core.Ring {
	out := make(core.Ring, 0, len(ring))
	for _, p := range ring {
		if len(out) > 0 && p == out[len(out)-1] {
			continue
		}
		out = append(out, p)
	}
	if len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	return out
}

func reverse(r core.Ring) {
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
}
