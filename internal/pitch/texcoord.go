package pitch

import (
	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/osm3d/pitchmark/pkg/core"
)

// TexCoords maps world-space vertices into the frame's unit square. Each
// point is projected onto the horizontal plane, taken relative to the
// origin corner, and resolved into signed per-axis coordinates normalized
// by the axis lengths. U follows the short axis and V the long axis, so
// the origin maps to (0,0) and the diagonally opposite corner to (1,1).
// Points outside the frame map outside [0,1] without clamping.
//
// One output per input, order preserving. The mapping assumes the frame
// axes are perpendicular, which SolveFrame guarantees.
func (f Frame) TexCoords(points []core.Position3D) []core.TexCoord {
	longSq := f.LongAxis.Dot(f.LongAxis)
	shortSq := f.ShortAxis.Dot(f.ShortAxis)

	coords := make([]core.TexCoord, len(points))
	for i, p := range points {
		v := geom.XY{X: p.X, Y: p.Y}.Sub(f.Origin)
		coords[i] = core.TexCoord{
			U: v.Dot(f.ShortAxis) / shortSq,
			V: v.Dot(f.LongAxis) / longSq,
		}
	}
	return coords
}
