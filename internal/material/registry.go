// Package material names the surface finishes pitches are drawn with.
package material

import (
	"sort"
	"sync"

	"github.com/osm3d/pitchmark/pkg/render"
)

// builtins covers the finishes the built-in sport table references.
// Texture world sizes only matter for materials drawn with the global
// planar mapping; marking textures span their whole frame instead.
var builtins = []render.Material{
	{Name: "pitch_soccer", Texture: "textures/pitch_soccer.png"},
	{Name: "grass", Texture: "textures/grass.png", TexWorldWidth: 4, TexWorldHeight: 4},
}

// Registry maps material names to their definitions. Lookups happen on
// every render request, possibly from several goroutines, so access is
// locked.
type Registry struct {
	m         sync.Mutex
	materials map[string]render.Material
}

// NewRegistry returns a registry seeded with the built-in materials.
func NewRegistry() *Registry {
	r := &Registry{
		materials: make(map[string]render.Material, len(builtins)),
	}
	for _, mat := range builtins {
		r.materials[mat.Name] = mat
	}
	return r
}

func (r *Registry) Get(name string) (render.Material, bool) {
	r.m.Lock()
	defer r.m.Unlock()
	mat, ok := r.materials[name]
	return mat, ok
}

// Add registers a material, replacing any existing definition of the
// same name.
func (r *Registry) Add(mat render.Material) {
	r.m.Lock()
	defer r.m.Unlock()
	r.materials[mat.Name] = mat
}

// Names returns the registered material names in sorted order.
func (r *Registry) Names() []string {
	r.m.Lock()
	defer r.m.Unlock()
	names := make([]string, 0, len(r.materials))
	for name := range r.materials {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reset restores the built-in set.
func (r *Registry) Reset() {
	r.m.Lock()
	defer r.m.Unlock()
	r.materials = make(map[string]render.Material, len(builtins))
	for _, mat := range builtins {
		r.materials[mat.Name] = mat
	}
}
