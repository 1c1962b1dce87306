package geo

import (
	"errors"
	"math"
	"testing"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/osm3d/pitchmark/pkg/core"
)

// rectSides returns the two side lengths of the rectangle.
func rectSides(r OrientedRect) (float64, float64) {
	return r[1].Sub(r[0]).Length(), r[2].Sub(r[1]).Length()
}

func rectArea(r OrientedRect) float64 {
	a, b := rectSides(r)
	return a * b
}

// assertRectangular fails the test unless consecutive edges are
// perpendicular and opposite edges match.
func assertRectangular(t *testing.T, r OrientedRect) {
	t.Helper()
	for i := 0; i < 4; i++ {
		e1 := r[(i+1)%4].Sub(r[i])
		e2 := r[(i+2)%4].Sub(r[(i+1)%4])
		if dot := e1.Dot(e2); math.Abs(dot) > 1e-9 {
			t.Errorf("edges %d and %d not perpendicular, dot=%g", i, i+1, dot)
		}
	}
}

// assertContains fails the test unless every ring vertex lies inside the
// rectangle, within tolerance.
func assertContains(t *testing.T, r OrientedRect, ring core.Ring) {
	t.Helper()
	dir := r[1].Sub(r[0])
	norm := r[3].Sub(r[0])
	dlen := dir.Length()
	nlen := norm.Length()
	for i, p := range ring {
		v := geom.XY{X: p.X, Y: p.Y}.Sub(r[0])
		d := v.Dot(dir) / dlen
		n := v.Dot(norm) / nlen
		if d < -1e-9 || d > dlen+1e-9 || n < -1e-9 || n > nlen+1e-9 {
			t.Errorf("vertex %d (%f, %f) outside rectangle", i, p.X, p.Y)
		}
	}
}

func TestMinimumBoundingRect_AxisAligned(t *testing.T) {
	ring := core.Ring{{X: 0, Y: 0}, {X: 3, Y: 0}, {X: 3, Y: 2}, {X: 0, Y: 2}}

	rect, err := MinimumBoundingRect(ring)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertRectangular(t, rect)
	assertContains(t, rect, ring)
	if got := rectArea(rect); math.Abs(got-6) > 1e-9 {
		t.Errorf("expected area 6, got %f", got)
	}
	a, b := rectSides(rect)
	long, short := math.Max(a, b), math.Min(a, b)
	if math.Abs(long-3) > 1e-9 || math.Abs(short-2) > 1e-9 {
		t.Errorf("expected sides 3 and 2, got %f and %f", a, b)
	}
}

func TestMinimumBoundingRect_Rotated(t *testing.T) {
	// A 10x4 rectangle rotated by 30 degrees must come back with the
	// same side lengths regardless of orientation.
	sin, cos := math.Sin(math.Pi/6), math.Cos(math.Pi/6)
	rot := func(x, y float64) core.Position2D {
		return core.Position2D{X: x*cos - y*sin, Y: x*sin + y*cos}
	}
	ring := core.Ring{rot(0, 0), rot(10, 0), rot(10, 4), rot(0, 4)}

	rect, err := MinimumBoundingRect(ring)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertRectangular(t, rect)
	assertContains(t, rect, ring)
	a, b := rectSides(rect)
	long, short := math.Max(a, b), math.Min(a, b)
	if math.Abs(long-10) > 1e-9 || math.Abs(short-4) > 1e-9 {
		t.Errorf("expected sides 10 and 4, got %f and %f", a, b)
	}
}

func TestMinimumBoundingRect_DiamondNeedsRotation(t *testing.T) {
	// The axis-aligned bounding box of this diamond has area 100; the
	// minimum oriented rectangle aligns with the diamond edges at area 50.
	ring := core.Ring{{X: 0, Y: 0}, {X: 5, Y: 5}, {X: 10, Y: 0}, {X: 5, Y: -5}}

	rect, err := MinimumBoundingRect(ring)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertRectangular(t, rect)
	assertContains(t, rect, ring)
	if got := rectArea(rect); math.Abs(got-50) > 1e-9 {
		t.Errorf("expected area 50, got %f", got)
	}
}

func TestMinimumBoundingRect_ConcaveRing(t *testing.T) {
	// L-shape; the hull dominates, the notch must not matter.
	ring := core.Ring{
		{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 2},
		{X: 2, Y: 2}, {X: 2, Y: 4}, {X: 0, Y: 4},
	}

	rect, err := MinimumBoundingRect(ring)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertRectangular(t, rect)
	assertContains(t, rect, ring)
	if got := rectArea(rect); math.Abs(got-16) > 1e-9 {
		t.Errorf("expected area 16, got %f", got)
	}
}

func TestMinimumBoundingRect_Collinear(t *testing.T) {
	ring := core.Ring{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 3}}

	_, err := MinimumBoundingRect(ring)
	if err == nil {
		t.Fatal("expected error for collinear input")
	}
	if !errors.Is(err, ErrDegenerateFootprint) {
		t.Errorf("expected ErrDegenerateFootprint, got %v", err)
	}
}

func TestMinimumBoundingRect_TooFewDistinct(t *testing.T) {
	ring := core.Ring{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 0}}

	_, err := MinimumBoundingRect(ring)
	if !errors.Is(err, ErrDegenerateFootprint) {
		t.Errorf("expected ErrDegenerateFootprint, got %v", err)
	}
}

func TestConvexHull_DropsInteriorPoints(t *testing.T) {
	pts := []geom.XY{
		{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 4}, {X: 0, Y: 4},
		{X: 2, Y: 2}, {X: 1, Y: 3}, // interior
		{X: 2, Y: 0},               // on an edge
	}

	hull := convexHull(pts)
	if len(hull) != 4 {
		t.Fatalf("expected 4 hull points, got %d", len(hull))
	}
	for _, p := range hull {
		if p.X != 0 && p.X != 4 || p.Y != 0 && p.Y != 4 {
			t.Errorf("unexpected hull point (%f, %f)", p.X, p.Y)
		}
	}
}
