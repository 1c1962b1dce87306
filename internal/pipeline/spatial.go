package pipeline

import (
	"math"

	"github.com/dhconnelly/rtreego"

	"github.com/osm3d/pitchmark/pkg/core"
)

// footprintEntry indexes one rendered pitch by its bounding box so later
// areas can be checked for overlap.
type footprintEntry struct {
	id   int64
	rect rtreego.Rect
}

// Bounds implements the rtreego.Spatial interface
func (e *footprintEntry) Bounds() rtreego.Rect {
	return e.rect
}

// footprintRect converts a ring's axis-aligned bounding box to an rtreego
// rectangle.
func footprintRect(ring core.Ring) (rtreego.Rect, error) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range ring {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	return rtreego.NewRect(
		rtreego.Point{minX, minY},
		[]float64{maxX - minX, maxY - minY},
	)
}
