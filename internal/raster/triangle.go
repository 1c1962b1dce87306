package raster

import (
	"math"

	"github.com/osm3d/pitchmark/pkg/core"
)

// RasterizeTriangle fills one screen-space triangle, interpolating texture
// coordinates barycentrically and resolving colors through the sampler.
// Both winding orders are accepted.
//
// This is the hot path: no allocations in the pixel loop.
func RasterizeTriangle(fb *FrameBuffer, x, y [3]float64, uv [3]core.TexCoord, sample Sampler) {
	x0, y0 := x[0], y[0]
	x1, y1 := x[1], y[1]
	x2, y2 := x[2], y[2]

	// Bounding box clamped to the buffer
	minX := int(math.Min(math.Min(x0, x1), x2))
	maxX := int(math.Max(math.Max(x0, x1), x2)) + 1
	minY := int(math.Min(math.Min(y0, y1), y2))
	maxY := int(math.Max(math.Max(y0, y1), y2)) + 1

	if minX < 0 {
		minX = 0
	}
	if maxX >= fb.Width {
		maxX = fb.Width - 1
	}
	if minY < 0 {
		minY = 0
	}
	if maxY >= fb.Height {
		maxY = fb.Height - 1
	}
	if minX >= maxX || minY >= maxY {
		return
	}

	// Barycentric setup
	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if det > -1e-8 && det < 1e-8 {
		return
	}
	invDet := 1.0 / det

	// Precompute edge deltas
	dy12 := y1 - y2
	dx21 := x2 - x1
	dy20 := y2 - y0
	dx02 := x0 - x2

	u0, v0 := uv[0].U, uv[0].V
	u1, v1 := uv[1].U, uv[1].V
	u2, v2 := uv[2].U, uv[2].V

	for sy := minY; sy <= maxY; sy++ {
		dsy := float64(sy) - y2
		rowOff := sy * fb.Width
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) - x2
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1.0 - w0 - w1

			// The small negative tolerance closes seams between
			// adjacent triangles of one footprint.
			if w0 < -0.001 || w1 < -0.001 || w2 < -0.001 {
				continue
			}

			u := w0*u0 + w1*u1 + w2*u2
			v := w0*v0 + w1*v1 + w2*v2

			cr, cg, cb, ca := sample(u, v)
			if ca < 8 {
				continue
			}

			i := (rowOff + sx) * 4
			fb.Color[i] = cr
			fb.Color[i+1] = cg
			fb.Color[i+2] = cb
			fb.Color[i+3] = ca
		}
	}
}
