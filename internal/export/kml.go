// Package export writes inspection artifacts for processed batches.
package export

import (
	"fmt"
	"image/color"
	"io"
	"os"

	kml "github.com/twpayne/go-kml/v2"

	"github.com/osm3d/pitchmark/internal/geo"
	"github.com/osm3d/pitchmark/internal/pipeline"
	"github.com/osm3d/pitchmark/internal/pitch"
	"github.com/osm3d/pitchmark/pkg/core"
)

// WriteKML renders every fitted marking frame as a lon/lat polygon so a
// batch can be inspected in GIS tooling. ref is the local reference the
// footprints were projected with; results without a fitted frame produce
// no placemark.
func WriteKML(w io.Writer, results []pipeline.Result, ref geo.LocalRef) error {
	doc := kml.Document(
		kml.Name("pitchmark marking frames"),
		kml.SharedStyle("frame",
			kml.LineStyle(
				kml.Color(color.RGBA{R: 0x00, G: 0xff, B: 0x40, A: 0xff}),
				kml.Width(2),
			),
			kml.PolyStyle(
				kml.Fill(false),
			),
		),
	)

	for _, res := range results {
		if res.Err != nil || res.State != pitch.StateFitted {
			continue
		}
		doc.Add(framePlacemark(res, ref))
	}

	return kml.KML(doc).WriteIndent(w, "", "  ")
}

// WriteKMLFile writes the frame document to path.
func WriteKMLFile(path string, results []pipeline.Result, ref geo.LocalRef) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create kml file: %w", err)
	}
	defer f.Close()

	return WriteKML(f, results, ref)
}

func framePlacemark(res pipeline.Result, ref geo.LocalRef) kml.Element {
	corners := res.Frame.Corners()
	coords := make([]kml.Coordinate, 0, len(corners)+1)
	for _, c := range corners {
		lon, lat := ref.Unproject(core.Position2D{X: c.X, Y: c.Y})
		coords = append(coords, kml.Coordinate{Lon: lon, Lat: lat})
	}
	// KML linear rings are explicitly closed
	coords = append(coords, coords[0])

	return kml.Placemark(
		kml.Name(fmt.Sprintf("area %d", res.AreaID)),
		kml.Description(fmt.Sprintf("%s, %.1f x %.1f m",
			res.Sport, res.Frame.LongLength(), res.Frame.ShortLength())),
		kml.StyleURL("#frame"),
		kml.Polygon(
			kml.OuterBoundaryIs(
				kml.LinearRing(
					kml.Coordinates(coords...),
				),
			),
		),
	)
}
