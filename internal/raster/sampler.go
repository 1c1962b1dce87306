package raster

import (
	"math"

	"github.com/osm3d/pitchmark/pkg/render"
)

// A Sampler resolves texture coordinates to an RGBA color. Samplers stand
// in for the texture files named by materials, so previews render without
// an asset directory.
type Sampler func(u, v float64) (r, g, b, a uint8)

// Marking proportions assume the common 105 x 68 m full-size pitch; frames
// with another aspect ratio render slightly distorted. The line width is
// generous so markings survive coarse preview resolutions.
const (
	regLength    = 105.0
	regWidth     = 68.0
	halfLine     = 0.6
	centerRadius = 9.15
)

var (
	turf       = [4]uint8{44, 112, 48, 255}
	lineWhite  = [4]uint8{245, 245, 245, 255}
	grassLight = [4]uint8{92, 140, 70, 255}
	grassDark  = [4]uint8{80, 126, 62, 255}
	neutral    = [4]uint8{160, 160, 170, 255}
)

// SamplerFor picks the sampler matching a material name. Materials without
// a procedural counterpart render as a flat neutral fill.
func SamplerFor(mat render.Material) Sampler {
	switch mat.Name {
	case "pitch_soccer":
		return SoccerMarkings
	case "grass":
		return GrassTile
	default:
		return func(u, v float64) (uint8, uint8, uint8, uint8) {
			return neutral[0], neutral[1], neutral[2], neutral[3]
		}
	}
}

// SoccerMarkings draws soccer markings in frame space: touchlines and goal
// lines along the unit square edges, the halfway line and the center
// circle. Coordinates outside the frame render as plain turf.
func SoccerMarkings(u, v float64) (uint8, uint8, uint8, uint8) {
	if u < 0 || u > 1 || v < 0 || v > 1 {
		return turf[0], turf[1], turf[2], turf[3]
	}

	// Signed meters from the pitch center. U spans the short axis.
	du := (u - 0.5) * regWidth
	dv := (v - 0.5) * regLength

	onLine := regWidth/2-math.Abs(du) < halfLine || // touchlines
		regLength/2-math.Abs(dv) < halfLine || // goal lines
		math.Abs(dv) < halfLine || // halfway line
		math.Abs(math.Hypot(du, dv)-centerRadius) < halfLine // center circle

	if onLine {
		return lineWhite[0], lineWhite[1], lineWhite[2], lineWhite[3]
	}
	return turf[0], turf[1], turf[2], turf[3]
}

// GrassTile draws a two-tone checker so tiling repeats stay visible. UVs
// wrap like a repeating texture.
func GrassTile(u, v float64) (uint8, uint8, uint8, uint8) {
	u = wrap(u)
	v = wrap(v)
	if (u < 0.5) != (v < 0.5) {
		return grassDark[0], grassDark[1], grassDark[2], grassDark[3]
	}
	return grassLight[0], grassLight[1], grassLight[2], grassLight[3]
}

// wrap folds a texture coordinate into [0, 1).
func wrap(t float64) float64 {
	t = t - float64(int(t))
	if t < 0 {
		t += 1.0
	}
	return t
}
