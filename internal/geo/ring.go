package geo

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/osm3d/pitchmark/pkg/core"
)

// ParseRing parses a JSON array of coordinates into a core.Ring.
// Input format: "[[x1,y1],[x2,y2],...]". A closing vertex equal to the
// first is dropped.
func ParseRing(input string) (core.Ring, error) {
	var coords [][]float64
	if err := json.Unmarshal([]byte(input), &coords); err != nil {
		return nil, fmt.Errorf("failed to parse ring JSON: %w", err)
	}

	ring := make(core.Ring, 0, len(coords))
	for i, coord := range coords {
		if len(coord) < 2 {
			return nil, fmt.Errorf("coordinate %d has insufficient values", i)
		}
		ring = append(ring, core.Position2D{X: coord[0], Y: coord[1]})
	}
	ring = dropClosingVertex(ring)

	if err := ValidateRing(ring); err != nil {
		return nil, err
	}
	return ring, nil
}

// RingFromOrb converts an orb ring (closed, per the GeoJSON convention)
// into a core.Ring with the closing vertex dropped.
func RingFromOrb(r orb.Ring) core.Ring {
	ring := make(core.Ring, 0, len(r))
	for _, p := range r {
		ring = append(ring, core.Position2D{X: p[0], Y: p[1]})
	}
	return dropClosingVertex(ring)
}

func dropClosingVertex(r core.Ring) core.Ring {
	if len(r) > 1 && r[0] == r[len(r)-1] {
		return r[:len(r)-1]
	}
	return r
}

// ValidateRing checks that a ring has at least three distinct vertices.
// Footprints failing this carry no geometry and are rejected outright
// rather than repaired.
func ValidateRing(r core.Ring) error {
	distinct := make(map[core.Position2D]struct{}, len(r))
	for _, p := range r {
		distinct[p] = struct{}{}
	}
	if len(distinct) < 3 {
		return ErrDegenerateFootprint
	}
	return nil
}

// RingArea returns the signed area of the ring, positive for
// counterclockwise winding.
func RingArea(r core.Ring) float64 {
	if len(r) < 3 {
		return 0
	}
	var sum float64
	for i, p := range r {
		q := r[(i+1)%len(r)]
		sum += p.X*q.Y - q.X*p.Y
	}
	return sum / 2
}

// RingPerimeter returns the length of the closed ring boundary.
func RingPerimeter(r core.Ring) float64 {
	if len(r) < 2 {
		return 0
	}
	flat := make([]float64, 0, (len(r)+1)*2)
	for _, p := range r {
		flat = append(flat, p.X, p.Y)
	}
	flat = append(flat, r[0].X, r[0].Y)
	seq := geom.NewSequence(flat, geom.DimXY)
	return geom.NewLineString(seq).Length()
}
