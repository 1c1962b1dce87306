package pitch

import (
	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/osm3d/pitchmark/internal/geo"
)

// markingMargin shrinks the fitted rectangle so markings keep a small
// distance from the footprint boundary.
const markingMargin = 0.95

// Frame is a fitted marking frame: the origin corner plus the two axis
// vectors spanning it. The axes are perpendicular and their lengths are
// the final, regulation-clamped side lengths.
type Frame struct {
	Origin    geom.XY
	LongAxis  geom.XY
	ShortAxis geom.XY
}

// LongLength returns the length of the long frame side in meters.
func (f Frame) LongLength() float64 {
	return f.LongAxis.Length()
}

// ShortLength returns the length of the short frame side in meters.
func (f Frame) ShortLength() float64 {
	return f.ShortAxis.Length()
}

// Corners returns the frame corners in ring order starting at the origin.
func (f Frame) Corners() [4]geom.XY {
	return [4]geom.XY{
		f.Origin,
		f.Origin.Add(f.LongAxis),
		f.Origin.Add(f.LongAxis).Add(f.ShortAxis),
		f.Origin.Add(f.ShortAxis),
	}
}

// SolveFrame fits a marking frame into the bounding rectangle under the
// sport's constraints. The longer rectangle side becomes the long axis; a
// square resolves to the second edge pair. Both sides shrink by the
// marking margin, then clamp to the regulation range, and the kept frame
// is centered by moving the origin half the removed length along each
// axis. ok is false when a side falls below the regulation minimum, which
// is the normal outcome for undersized footprints, not an error.
func SolveFrame(rect geo.OrientedRect, c Constraints) (Frame, bool) {
	d01 := rect[1].Sub(rect[0])
	d12 := rect[2].Sub(rect[1])

	var longAxis, shortAxis geom.XY
	if d01.Length() > d12.Length() {
		longAxis, shortAxis = d01, d12
	} else {
		longAxis, shortAxis = d12, d01
	}
	origin := rect[0]

	longLen, ok := clampSide(longAxis.Length()*markingMargin, c.MinLongSide, c.MaxLongSide)
	if !ok {
		return Frame{}, false
	}
	shortLen, ok := clampSide(shortAxis.Length()*markingMargin, c.MinShortSide, c.MaxShortSide)
	if !ok {
		return Frame{}, false
	}

	origin = origin.
		Add(longAxis.Scale((longAxis.Length() - longLen) / 2 / longAxis.Length())).
		Add(shortAxis.Scale((shortAxis.Length() - shortLen) / 2 / shortAxis.Length()))

	return Frame{
		Origin:    origin,
		LongAxis:  longAxis.Scale(longLen / longAxis.Length()),
		ShortAxis: shortAxis.Scale(shortLen / shortAxis.Length()),
	}, true
}

// clampSide keeps a side length inside [min, max]: the exact bounds are
// inclusive, above max clamps, below min rejects.
func clampSide(length, min, max float64) (float64, bool) {
	if length < min {
		return 0, false
	}
	if length > max {
		return max, true
	}
	return length, true
}
