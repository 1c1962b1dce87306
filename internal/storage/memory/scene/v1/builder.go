package v1

import (
	"time"

	"github.com/osm3d/pitchmark/internal/pipeline"
	"github.com/osm3d/pitchmark/internal/pitch"
	"github.com/osm3d/pitchmark/pkg/core"
	"github.com/osm3d/pitchmark/pkg/render"
)

// SceneData contains all the data needed to build an export
type SceneData struct {
	Info    core.SceneInfo
	Results []pipeline.Result
	Calls   []render.DrawCall
	EndTime time.Time
}

// Build creates an Export from one processed batch. Skipped areas count in
// the summary but produce no frame entry; they contribute nothing to the
// scene.
func Build(data *SceneData) Export {
	export := Export{
		FormatVersion: FormatVersion,
		Tool:          data.Info.Tool,
		ToolVersion:   data.Info.ToolVersion,
		Source:        data.Info.Source,
		Tag:           data.Info.Tag,
		StartTime:     data.Info.StartTime,
		Summary:       toSummary(pipeline.Summarize(data.Results)),
		Frames:        make([]Frame, 0, len(data.Results)),
		DrawCalls:     data.Calls,
	}
	if export.DrawCalls == nil {
		export.DrawCalls = make([]render.DrawCall, 0)
	}
	if !data.Info.StartTime.IsZero() && data.EndTime.After(data.Info.StartTime) {
		export.DurationSec = data.EndTime.Sub(data.Info.StartTime).Seconds()
	}

	for _, res := range data.Results {
		if res.Skipped {
			continue
		}
		export.Frames = append(export.Frames, toFrame(res))
	}

	return export
}

func toSummary(sum pipeline.Summary) Summary {
	return Summary{
		Total:    sum.Total,
		Fitted:   sum.Fitted,
		Fallback: sum.Fallback,
		Skipped:  sum.Skipped,
		Failed:   sum.Failed,
	}
}

func toFrame(res pipeline.Result) Frame {
	f := Frame{
		AreaID: res.AreaID,
		Sport:  res.Sport,
		State:  res.State.String(),
	}
	if res.Err != nil {
		f.Error = res.Err.Error()
		return f
	}
	if res.State != pitch.StateFitted {
		return f
	}

	f.Origin = core.Position2D{X: res.Frame.Origin.X, Y: res.Frame.Origin.Y}
	f.LongAxis = core.Position2D{X: res.Frame.LongAxis.X, Y: res.Frame.LongAxis.Y}
	f.ShortAxis = core.Position2D{X: res.Frame.ShortAxis.X, Y: res.Frame.ShortAxis.Y}
	f.LongLength = res.Frame.LongLength()
	f.ShortLength = res.Frame.ShortLength()

	corners := res.Frame.Corners()
	f.Corners = make([]core.Position2D, 0, len(corners))
	for _, c := range corners {
		f.Corners = append(f.Corners, core.Position2D{X: c.X, Y: c.Y})
	}
	return f
}
