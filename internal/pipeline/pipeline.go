// Package pipeline orchestrates pitch rendering across map areas.
package pipeline

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/dhconnelly/rtreego"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/osm3d/pitchmark/internal/geo"
	"github.com/osm3d/pitchmark/internal/material"
	"github.com/osm3d/pitchmark/internal/pitch"
	"github.com/osm3d/pitchmark/pkg/core"
	"github.com/osm3d/pitchmark/pkg/render"
)

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Result describes how one area was handled. Frame is only meaningful
// when State is pitch.StateFitted.
type Result struct {
	AreaID   int64
	Sport    string
	State    pitch.State
	Frame    pitch.Frame
	Vertices int  // footprint ring size
	Skipped  bool // tags did not describe a known pitch
	Err      error
}

// Summary counts outcomes across a batch.
type Summary struct {
	Total    int
	Fitted   int
	Fallback int
	Skipped  int
	Failed   int
}

// Service classifies map areas, renders the recognized pitches to a
// target and tracks outcomes. Rendered footprints go into a spatial index
// so overlapping pitches are flagged. Process may be called from multiple
// goroutines as long as the render target tolerates that.
type Service struct {
	table     pitch.Table
	materials *material.Registry
	target    render.Target
	logger    Logger

	// OTEL metrics
	processed metric.Int64Counter
	fitted    metric.Int64Counter
	fallbacks metric.Int64Counter
	rejected  metric.Int64Counter

	mu    sync.Mutex
	index *rtreego.Rtree
}

// New creates a Service rendering to the given target.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(table pitch.Table, materials *material.Registry, target render.Target, logger Logger) (*Service, error) {
	s := &Service{
		table:     table,
		materials: materials,
		target:    target,
		logger:    logger,
		index:     rtreego.NewTree(2, 25, 50),
	}

	m := otel.Meter("github.com/osm3d/pitchmark/internal/pipeline")

	var err error

	s.processed, err = m.Int64Counter(
		"pitch.areas.processed",
		metric.WithDescription("Total map areas examined"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}

	s.fitted, err = m.Int64Counter(
		"pitch.frames.fitted",
		metric.WithDescription("Pitches rendered with a fitted marking frame"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating fitted counter: %w", err)
	}

	s.fallbacks, err = m.Int64Counter(
		"pitch.frames.fallback",
		metric.WithDescription("Pitches rendered with the fallback material"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating fallback counter: %w", err)
	}

	s.rejected, err = m.Int64Counter(
		"pitch.footprints.rejected",
		metric.WithDescription("Pitch areas rejected as invalid input"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating rejected counter: %w", err)
	}

	return s, nil
}

// Process classifies one area and renders it when it is a known pitch.
// Unrecognized areas are skipped silently; invalid footprints return an
// error.
func (s *Service) Process(area core.Area) (Result, error) {
	s.processed.Add(context.Background(), 1)
	res := Result{AreaID: area.ID, Vertices: len(area.Footprint)}

	r, ok := pitch.Build(area, s.table, s.materials)
	if !ok {
		res.Skipped = true
		s.logger.Debug("skipping area", "area", area.ID, "reason", "not a recognized pitch")
		return res, nil
	}
	res.Sport = r.Constraints.Sport
	sportAttr := attribute.String("sport", res.Sport)

	s.logger.Debug("rendering pitch",
		"area", area.ID,
		"sport", res.Sport,
		"vertices", len(area.Footprint),
		"surface", math.Abs(geo.RingArea(area.Footprint)),
		"perimeter", geo.RingPerimeter(area.Footprint),
	)

	outcome, err := r.RenderTo(s.target)
	if err != nil {
		s.rejected.Add(context.Background(), 1, metric.WithAttributes(sportAttr))
		s.logger.Error("render failed", "area", area.ID, "error", err)
		res.Err = err
		return res, err
	}

	res.State = outcome.State
	res.Frame = outcome.Frame

	switch outcome.State {
	case pitch.StateFitted:
		s.fitted.Add(context.Background(), 1, metric.WithAttributes(sportAttr))
		s.logger.Info("fitted marking frame",
			"area", area.ID,
			"sport", res.Sport,
			"long", outcome.Frame.LongLength(),
			"short", outcome.Frame.ShortLength(),
		)
	case pitch.StateFallback:
		s.fallbacks.Add(context.Background(), 1, metric.WithAttributes(sportAttr))
		s.logger.Info("no frame fits, drawing fallback surface",
			"area", area.ID,
			"sport", res.Sport,
		)
	}

	s.remember(area)
	return res, nil
}

// Summarize tallies outcomes for a set of results.
func Summarize(results []Result) Summary {
	var sum Summary
	for _, res := range results {
		sum.Total++
		switch {
		case res.Err != nil:
			sum.Failed++
		case res.Skipped:
			sum.Skipped++
		case res.State == pitch.StateFitted:
			sum.Fitted++
		case res.State == pitch.StateFallback:
			sum.Fallback++
		}
	}
	return sum
}

// ProcessAll renders a batch in order and returns per-area results with a
// summary. Failures and skips do not stop the batch.
func (s *Service) ProcessAll(areas []core.Area) ([]Result, Summary) {
	results := make([]Result, 0, len(areas))
	for _, area := range areas {
		res, _ := s.Process(area)
		results = append(results, res)
	}

	sum := Summarize(results)
	s.logger.Info("batch complete",
		"total", sum.Total,
		"fitted", sum.Fitted,
		"fallback", sum.Fallback,
		"skipped", sum.Skipped,
		"failed", sum.Failed,
	)
	return results, sum
}

// remember indexes a rendered footprint and flags earlier pitches whose
// bounding boxes overlap it. Shared boundaries between neighboring pitches
// are common on OSM, so this stays a warning, not an error.
func (s *Service) remember(area core.Area) {
	rect, err := footprintRect(area.Footprint)
	if err != nil {
		s.logger.Debug("footprint not indexable", "area", area.ID, "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, hit := range s.index.SearchIntersect(rect) {
		if other, ok := hit.(*footprintEntry); ok {
			s.logger.Info("pitch footprints overlap",
				"area", area.ID,
				"overlaps", other.id,
			)
		}
	}
	s.index.Insert(&footprintEntry{id: area.ID, rect: rect})
}
