package geo

import (
	"errors"
	"math"

	"github.com/osm3d/pitchmark/pkg/core"
	"github.com/wroge/wgs84"
)

// PROJECTION
// Footprints arrive as EPSG:4326 lon/lat. All pitch math needs true meters,
// so rings are projected to EPSG:3857 and rescaled by cos(lat) of a local
// anchor, which removes the Mercator stretch at footprint scale.

// ErrDegenerateFootprint is returned when a footprint has fewer than three
// distinct vertices or enclosing it yields no area.
var ErrDegenerateFootprint = errors.New("degenerate footprint")

// LocalRef anchors a local metric frame near a footprint. Project and
// Unproject convert between EPSG:4326 coordinates and meters relative to
// the anchor.
type LocalRef struct {
	OriginX float64 `json:"originX"` // 3857 easting of the anchor
	OriginY float64 `json:"originY"` // 3857 northing of the anchor
	Scale   float64 `json:"scale"`   // cos of the anchor latitude
}

// NewLocalRef anchors a reference at the given 4326 coordinate.
func NewLocalRef(lon, lat float64) LocalRef {
	epsg := wgs84.EPSG()
	f := epsg.Transform(4326, 3857)
	x, y, _ := f(lon, lat, 0)
	return LocalRef{
		OriginX: x,
		OriginY: y,
		Scale:   math.Cos(lat * math.Pi / 180),
	}
}

// Project converts a 4326 coordinate to local meters.
func (r LocalRef) Project(lon, lat float64) core.Position2D {
	epsg := wgs84.EPSG()
	f := epsg.Transform(4326, 3857)
	x, y, _ := f(lon, lat, 0)
	return core.Position2D{
		X: (x - r.OriginX) * r.Scale,
		Y: (y - r.OriginY) * r.Scale,
	}
}

// Unproject converts local meters back to a 4326 coordinate.
func (r LocalRef) Unproject(p core.Position2D) (lon, lat float64) {
	epsg := wgs84.EPSG()
	f := epsg.Transform(3857, 4326)
	lon, lat, _ = f(p.X/r.Scale+r.OriginX, p.Y/r.Scale+r.OriginY, 0)
	return lon, lat
}

// ProjectRing projects a 4326 lon/lat ring into local meters, anchored at
// the ring's first vertex. The returned reference converts results back to
// lon/lat.
func ProjectRing(lonlat core.Ring) (core.Ring, LocalRef, error) {
	if len(lonlat) == 0 {
		return nil, LocalRef{}, ErrDegenerateFootprint
	}
	ref := NewLocalRef(lonlat[0].X, lonlat[0].Y)
	projected := make(core.Ring, len(lonlat))
	for i, p := range lonlat {
		projected[i] = ref.Project(p.X, p.Y)
	}
	return projected, ref, nil
}
