// Package v1 contains the v1 scene artifact format for processed batches.
// Consumers place the frames as marking decals and feed the draw calls to
// their own render backend.
package v1

import (
	"time"

	"github.com/osm3d/pitchmark/pkg/core"
	"github.com/osm3d/pitchmark/pkg/render"
)

// FormatVersion is stamped into every v1 export.
const FormatVersion = 1

// Export is the root JSON document for v1 scene artifacts
type Export struct {
	FormatVersion int               `json:"formatVersion"`
	Tool          string            `json:"tool"`
	ToolVersion   string            `json:"toolVersion"`
	Source        string            `json:"source"`
	Tag           string            `json:"tag,omitempty"`
	StartTime     time.Time         `json:"startTime"`
	DurationSec   float64           `json:"durationSec"`
	Summary       Summary           `json:"summary"`
	Frames        []Frame           `json:"frames"`
	DrawCalls     []render.DrawCall `json:"drawCalls"`
}

// Summary carries the batch outcome counts
type Summary struct {
	Total    int `json:"total"`
	Fitted   int `json:"fitted"`
	Fallback int `json:"fallback"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Frame is one recognized pitch in the scene. The axis and corner fields
// are only present for fitted frames.
type Frame struct {
	AreaID      int64             `json:"areaId"`
	Sport       string            `json:"sport,omitempty"`
	State       string            `json:"state"`
	Origin      core.Position2D   `json:"origin"`
	LongAxis    core.Position2D   `json:"longAxis"`
	ShortAxis   core.Position2D   `json:"shortAxis"`
	LongLength  float64           `json:"longLength"`
	ShortLength float64           `json:"shortLength"`
	Corners     []core.Position2D `json:"corners,omitempty"`
	Error       string            `json:"error,omitempty"`
}
