// Package raster is the reference rendering backend: it rasterizes
// recorded draw calls into a top-down image for visual verification.
package raster

import (
	"image"
	"math"

	"github.com/osm3d/pitchmark/pkg/core"
	"github.com/osm3d/pitchmark/pkg/render"
)

// margin keeps rendered geometry away from the image border, in pixels.
const margin = 16

// Render rasterizes draw calls into a top-down view, north up. The world
// bounding box of all triangles is centered and fitted into a size x size
// image, preserving aspect ratio. Calls composite in submission order.
func Render(calls []render.DrawCall, size int) *image.NRGBA {
	if size < 4*margin {
		size = 4 * margin
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, call := range calls {
		for _, tri := range call.Triangles {
			for _, p := range tri.Vertices() {
				minX = math.Min(minX, p.X)
				maxX = math.Max(maxX, p.X)
				minY = math.Min(minY, p.Y)
				maxY = math.Max(maxY, p.Y)
			}
		}
	}
	if minX > maxX {
		return image.NewNRGBA(image.Rect(0, 0, size, size))
	}

	centerX := (minX + maxX) / 2
	centerY := (minY + maxY) / 2
	span := math.Max(maxX-minX, maxY-minY)
	if span < 0.001 {
		span = 0.001
	}
	scale := float64(size-2*margin) / span
	half := float64(size) / 2

	fb := NewFrameBuffer(size, size)

	for _, call := range calls {
		// The recorder guarantees three coordinates per triangle, a
		// decoded scene may not.
		if len(call.TexCoords) < 3*len(call.Triangles) {
			continue
		}
		sample := SamplerFor(call.Material)
		for i, tri := range call.Triangles {
			var x, y [3]float64
			var uv [3]core.TexCoord
			for k, p := range tri.Vertices() {
				// World +Y is north and points up in the image.
				x[k] = (p.X-centerX)*scale + half
				y[k] = (centerY-p.Y)*scale + half
				uv[k] = call.TexCoords[3*i+k]
			}
			RasterizeTriangle(fb, x, y, uv, sample)
		}
	}

	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	copy(img.Pix, fb.Color)
	return img
}
