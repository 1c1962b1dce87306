package geo

import (
	"math"
	"sort"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/osm3d/pitchmark/pkg/core"
)

// OrientedRect is a rectangle of arbitrary orientation, stored as its four
// corners in ring order so that consecutive edges are perpendicular.
type OrientedRect [4]geom.XY

// MinimumBoundingRect computes the minimum-area oriented rectangle
// enclosing the ring. The smallest such rectangle shares an edge direction
// with some edge of the convex hull, so rotating calipers over the hull
// edges finds it. Collinear input returns ErrDegenerateFootprint.
func MinimumBoundingRect(r core.Ring) (OrientedRect, error) {
	pts := make([]geom.XY, len(r))
	for i, p := range r {
		pts[i] = geom.XY{X: p.X, Y: p.Y}
	}

	hull := convexHull(pts)
	if len(hull) < 3 {
		return OrientedRect{}, ErrDegenerateFootprint
	}

	best := math.Inf(1)
	var rect OrientedRect
	for i := range hull {
		edge := hull[(i+1)%len(hull)].Sub(hull[i])
		length := edge.Length()
		if length == 0 {
			continue
		}
		dir := edge.Scale(1 / length)
		norm := geom.XY{X: -dir.Y, Y: dir.X}

		minD, maxD := math.Inf(1), math.Inf(-1)
		minN, maxN := math.Inf(1), math.Inf(-1)
		for _, p := range hull {
			d := p.Dot(dir)
			n := p.Dot(norm)
			minD = math.Min(minD, d)
			maxD = math.Max(maxD, d)
			minN = math.Min(minN, n)
			maxN = math.Max(maxN, n)
		}

		area := (maxD - minD) * (maxN - minN)
		if area < best {
			best = area
			corner := func(d, n float64) geom.XY {
				return dir.Scale(d).Add(norm.Scale(n))
			}
			rect = OrientedRect{
				corner(minD, minN),
				corner(maxD, minN),
				corner(maxD, maxN),
				corner(minD, maxN),
			}
		}
	}
	return rect, nil
}

// convexHull returns the convex hull in counterclockwise order using the
// monotone chain construction. Collinear points along the hull are dropped,
// so fully collinear input yields fewer than three points.
func convexHull(pts []geom.XY) []geom.XY {
	sorted := append([]geom.XY(nil), pts...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].X != sorted[j].X {
			return sorted[i].X < sorted[j].X
		}
		return sorted[i].Y < sorted[j].Y
	})

	uniq := make([]geom.XY, 0, len(sorted))
	for i, p := range sorted {
		if i > 0 && p == sorted[i-1] {
			continue
		}
		uniq = append(uniq, p)
	}
	if len(uniq) < 3 {
		return uniq
	}

	cross := func(o, a, b geom.XY) float64 {
		return a.Sub(o).Cross(b.Sub(o))
	}

	var lower []geom.XY
	for _, p := range uniq {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}

	var upper []geom.XY
	for i := len(uniq) - 1; i >= 0; i-- {
		p := uniq[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}

	// drop each chain's last point, it repeats the other chain's first
	return append(lower[:len(lower)-1], upper[:len(upper)-1]...)
}
