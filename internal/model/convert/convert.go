// Package convert provides functions to convert pipeline results to GORM catalog models
package convert

import (
	"encoding/json"
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"

	"github.com/osm3d/pitchmark/internal/model"
	"github.com/osm3d/pitchmark/internal/pipeline"
	"github.com/osm3d/pitchmark/internal/pitch"
	"github.com/osm3d/pitchmark/pkg/core"
)

// xyToPoint converts a projected geom.XY to a geom.Point column value
func xyToPoint(v geom.XY) geom.Point {
	return geom.NewPoint(geom.Coordinates{XY: v})
}

// cornersToJSON converts frame corners to datatypes.JSON for DB storage.
func cornersToJSON(corners [4]geom.XY) datatypes.JSON {
	positions := make([]core.Position2D, len(corners))
	for i, c := range corners {
		positions[i] = core.Position2D{X: c.X, Y: c.Y}
	}
	data, _ := json.Marshal(positions)
	return datatypes.JSON(data)
}

// ResultToRecord converts a pipeline.Result to a GORM model.FrameRecord.
// Frame geometry columns stay zero unless the frame was fitted.
func ResultToRecord(res pipeline.Result, at time.Time) model.FrameRecord {
	rec := model.FrameRecord{
		Time:        at,
		AreaID:      res.AreaID,
		Sport:       res.Sport,
		State:       res.State.String(),
		Corners:     datatypes.JSON("[]"),
		VertexCount: res.Vertices,
	}
	if res.Err != nil {
		rec.ErrorText = res.Err.Error()
	}
	if res.State != pitch.StateFitted {
		return rec
	}

	rec.Origin = xyToPoint(res.Frame.Origin)
	rec.LongAxisX = res.Frame.LongAxis.X
	rec.LongAxisY = res.Frame.LongAxis.Y
	rec.ShortAxisX = res.Frame.ShortAxis.X
	rec.ShortAxisY = res.Frame.ShortAxis.Y
	rec.LongLength = res.Frame.LongLength()
	rec.ShortLength = res.Frame.ShortLength()
	rec.Corners = cornersToJSON(res.Frame.Corners())
	return rec
}

// RecordCorners parses the corner JSON column back into positions.
func RecordCorners(rec model.FrameRecord) ([]core.Position2D, error) {
	var corners []core.Position2D
	if err := json.Unmarshal(rec.Corners, &corners); err != nil {
		return nil, err
	}
	return corners, nil
}

// SummaryToTotals converts a pipeline.Summary to batch totals columns.
func SummaryToTotals(sum pipeline.Summary) model.BatchTotals {
	return model.BatchTotals{
		Areas:    uint32(sum.Total),
		Fitted:   uint32(sum.Fitted),
		Fallback: uint32(sum.Fallback),
		Skipped:  uint32(sum.Skipped),
		Failed:   uint32(sum.Failed),
	}
}
