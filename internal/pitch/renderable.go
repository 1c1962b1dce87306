package pitch

import (
	"fmt"

	"github.com/osm3d/pitchmark/internal/geo"
	"github.com/osm3d/pitchmark/internal/material"
	"github.com/osm3d/pitchmark/internal/triangulate"
	"github.com/osm3d/pitchmark/pkg/core"
	"github.com/osm3d/pitchmark/pkg/render"
)

// State describes which rendering style a render request resolved to.
type State int

const (
	StateNotFitted State = iota // no frame resolved yet
	StateFitted                 // marking frame found, marking material
	StateFallback               // no frame fits, plain fallback material
)

func (s State) String() string {
	switch s {
	case StateFitted:
		return "fitted"
	case StateFallback:
		return "fallback"
	default:
		return "not-fitted"
	}
}

// FitFunc computes an oriented bounding rectangle for a footprint.
type FitFunc func(core.Ring) (geo.OrientedRect, error)

// Triangulator splits a footprint into triangles lifted to the given
// elevation.
type Triangulator func(ring core.Ring, elevation float64) ([]core.TriangleXYZ, error)

// Renderable draws one pitch area. It holds no state between render
// requests: every RenderTo resolves the frame from scratch, so footprint
// edits between requests are picked up.
type Renderable struct {
	Area        core.Area
	Constraints Constraints
	Materials   *material.Registry
	Fit         FitFunc
	Triangulate Triangulator
}

// Outcome reports how a render request resolved. Frame is only meaningful
// when State is StateFitted.
type Outcome struct {
	State State
	Frame Frame
}

// Build classifies an area and constructs its renderable with the default
// collaborators. ok is false when the tags do not describe a pitch with a
// sport present in the table.
func Build(area core.Area, table Table, materials *material.Registry) (*Renderable, bool) {
	c, ok := table.ForTags(area.Tags)
	if !ok {
		return nil, false
	}
	return &Renderable{
		Area:        area,
		Constraints: c,
		Materials:   materials,
		Fit:         geo.MinimumBoundingRect,
		Triangulate: triangulate.Ring,
	}, true
}

// GroundState reports how the pitch sits against the terrain. Pitches are
// always flush with the ground.
func (r *Renderable) GroundState() core.GroundState {
	return core.GroundOn
}

// RenderTo emits the pitch to the target as exactly one draw call in one
// of two styles: a fitted frame draws the sport's marking material with
// frame texture coordinates, otherwise the fallback material with the
// global planar mapping. Degenerate footprints fail with an error before
// anything is drawn; a footprint too small for regulation markings is not
// an error.
func (r *Renderable) RenderTo(target render.Target) (Outcome, error) {
	if err := geo.ValidateRing(r.Area.Footprint); err != nil {
		return Outcome{}, fmt.Errorf("area %d: %w", r.Area.ID, err)
	}

	triangles, err := r.Triangulate(r.Area.Footprint, r.Area.Elevation)
	if err != nil {
		return Outcome{}, fmt.Errorf("area %d: triangulate: %w", r.Area.ID, err)
	}

	rect, err := r.Fit(r.Area.Footprint)
	if err != nil {
		return Outcome{}, fmt.Errorf("area %d: bounding rectangle: %w", r.Area.ID, err)
	}

	verts := flattenVertices(triangles)

	frame, ok := SolveFrame(rect, r.Constraints)
	if !ok {
		mat, err := r.lookup(r.Constraints.FallbackMaterial)
		if err != nil {
			return Outcome{}, err
		}
		if err := target.DrawTriangles(mat, triangles, render.GlobalPlanarUV(mat)(verts)); err != nil {
			return Outcome{}, fmt.Errorf("area %d: draw: %w", r.Area.ID, err)
		}
		return Outcome{State: StateFallback}, nil
	}

	mat, err := r.lookup(r.Constraints.Material)
	if err != nil {
		return Outcome{}, err
	}
	if err := target.DrawTriangles(mat, triangles, frame.TexCoords(verts)); err != nil {
		return Outcome{}, fmt.Errorf("area %d: draw: %w", r.Area.ID, err)
	}
	return Outcome{State: StateFitted, Frame: frame}, nil
}

func (r *Renderable) lookup(name string) (render.Material, error) {
	mat, ok := r.Materials.Get(name)
	if !ok {
		return render.Material{}, fmt.Errorf("area %d: material %q not registered", r.Area.ID, name)
	}
	return mat, nil
}

// flattenVertices lists triangle corners A, B, C per triangle, matching
// the draw call's per-vertex texture coordinate layout.
func flattenVertices(tris []core.TriangleXYZ) []core.Position3D {
	verts := make([]core.Position3D, 0, len(tris)*3)
	for _, t := range tris {
		verts = append(verts, t.A, t.B, t.C)
	}
	return verts
}
