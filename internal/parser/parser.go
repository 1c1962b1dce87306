// Package parser converts GeoJSON documents into map areas.
package parser

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/osm3d/pitchmark/internal/geo"
	"github.com/osm3d/pitchmark/pkg/core"
)

// Parser provides GeoJSON -> []core.Area conversion.
// It has zero external dependencies beyond a logger.
type Parser struct {
	logger *slog.Logger

	// Static config set at creation time. projected marks inputs whose
	// coordinates are already metric; everything else is treated as
	// EPSG:4326 lon/lat and projected into a shared local frame.
	projected bool

	skipped int
}

// NewParser creates a new parser with only a logger dependency
func NewParser(logger *slog.Logger, projected bool) *Parser {
	return &Parser{
		logger:    logger,
		projected: projected,
	}
}

// Skipped returns how many malformed features the last parse dropped.
func (p *Parser) Skipped() int {
	return p.skipped
}

// ParseFile reads a GeoJSON file and converts it.
func (p *Parser) ParseFile(path string) ([]core.Area, *geo.LocalRef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("error reading input file: %w", err)
	}
	return p.Parse(data)
}

// Parse converts a GeoJSON FeatureCollection into areas. Feature properties
// become tags, polygon outer rings become footprints. Unprojected inputs
// share one local metric frame anchored at the first polygon vertex; the
// returned reference converts frame corners back to lon/lat, and is nil for
// projected inputs.
//
// Malformed features (non-area geometry, degenerate rings) are counted and
// skipped, never fatal: one bad OSM way must not sink a whole extract.
func (p *Parser) Parse(data []byte) ([]core.Area, *geo.LocalRef, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, nil, fmt.Errorf("error unmarshalling feature collection: %w", err)
	}

	p.skipped = 0
	areas := make([]core.Area, 0, len(fc.Features))

	var ref *geo.LocalRef
	for i, feature := range fc.Features {
		ring, ok := outerRing(feature.Geometry)
		if !ok {
			p.skipped++
			p.logger.Debug("Skipping feature without area geometry",
				"index", i, "type", geometryType(feature.Geometry))
			continue
		}

		footprint := geo.RingFromOrb(ring)
		if !p.projected {
			if ref == nil {
				anchor := geo.NewLocalRef(ring[0][0], ring[0][1])
				ref = &anchor
			}
			for j, v := range footprint {
				footprint[j] = ref.Project(v.X, v.Y)
			}
		}

		if err := geo.ValidateRing(footprint); err != nil {
			p.skipped++
			p.logger.Debug("Skipping feature with degenerate footprint",
				"index", i, "error", err)
			continue
		}

		area := core.Area{
			ID:        featureID(feature, i),
			Tags:      tagsFromProperties(feature.Properties),
			Footprint: footprint,
		}
		if ele, err := strconv.ParseFloat(area.Tags.Value("ele"), 64); err == nil {
			area.Elevation = ele
		}

		areas = append(areas, area)
	}

	p.logger.Debug("Parsed feature collection",
		"features", len(fc.Features),
		"areas", len(areas),
		"skipped", p.skipped,
	)
	return areas, ref, nil
}

// outerRing extracts the outer boundary of an area geometry. MultiPolygons
// contribute their first polygon; OSM pitches are single rings in practice.
func outerRing(g orb.Geometry) (orb.Ring, bool) {
	switch geom := g.(type) {
	case orb.Polygon:
		if len(geom) > 0 && len(geom[0]) > 0 {
			return geom[0], true
		}
	case orb.MultiPolygon:
		if len(geom) > 0 && len(geom[0]) > 0 && len(geom[0][0]) > 0 {
			return geom[0][0], true
		}
	}
	return nil, false
}

func geometryType(g orb.Geometry) string {
	if g == nil {
		return "none"
	}
	return g.GeoJSONType()
}

// featureID resolves a numeric area ID from the feature ID or the OSM id
// properties ("way/123", "relation/45"). Features without any usable ID get
// their ordinal position so results stay attributable.
func featureID(feature *geojson.Feature, index int) int64 {
	switch id := feature.ID.(type) {
	case float64:
		return int64(id)
	case int:
		return int64(id)
	case int64:
		return id
	case string:
		if v, ok := parseOSMID(id); ok {
			return v
		}
	}

	for _, key := range []string{"@id", "id", "osm_id"} {
		switch v := feature.Properties[key].(type) {
		case float64:
			return int64(v)
		case string:
			if parsed, ok := parseOSMID(v); ok {
				return parsed
			}
		}
	}
	return int64(index + 1)
}

// parseOSMID parses "123" or OSM export forms like "way/123".
func parseOSMID(s string) (int64, bool) {
	if idx := strings.LastIndexByte(s, '/'); idx >= 0 {
		s = s[idx+1:]
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// tagsFromProperties converts GeoJSON properties to OSM-style tags. Meta
// keys ("@id") are dropped, non-string values are rendered the way OSM tag
// values spell them.
func tagsFromProperties(props geojson.Properties) core.Tags {
	tags := make(core.Tags, len(props))
	for key, value := range props {
		if strings.HasPrefix(key, "@") {
			continue
		}
		switch v := value.(type) {
		case string:
			tags[key] = v
		case float64:
			tags[key] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			if v {
				tags[key] = "yes"
			} else {
				tags[key] = "no"
			}
		}
	}
	return tags
}
