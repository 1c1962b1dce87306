// Package pitch fits regulation marking frames into sports pitch
// footprints and maps marking textures onto them.
package pitch

import (
	"fmt"
	"sort"

	"github.com/osm3d/pitchmark/pkg/core"
)

// Constraints holds the regulation marking dimensions for one sport, in
// meters, plus the material names drawn for it.
type Constraints struct {
	Sport            string
	MinLongSide      float64
	MaxLongSide      float64
	MinShortSide     float64
	MaxShortSide     float64
	Material         string // marking material when a frame fits
	FallbackMaterial string // plain surface when none does
}

func (c Constraints) complete() bool {
	return c.MinLongSide > 0 && c.MaxLongSide > 0 &&
		c.MinShortSide > 0 && c.MaxShortSide > 0 &&
		c.Material != "" && c.FallbackMaterial != ""
}

func (c Constraints) validate() error {
	if c.MinLongSide > c.MaxLongSide {
		return fmt.Errorf("sport %q: minLongSide %g exceeds maxLongSide %g",
			c.Sport, c.MinLongSide, c.MaxLongSide)
	}
	if c.MinShortSide > c.MaxShortSide {
		return fmt.Errorf("sport %q: minShortSide %g exceeds maxShortSide %g",
			c.Sport, c.MinShortSide, c.MaxShortSide)
	}
	return nil
}

// builtin regulation sizes. FIFA allows 90-120 m touchlines and 45-90 m
// goal lines.
var builtin = map[string]Constraints{
	"soccer": {
		Sport:            "soccer",
		MinLongSide:      90,
		MaxLongSide:      120,
		MinShortSide:     45,
		MaxShortSide:     90,
		Material:         "pitch_soccer",
		FallbackMaterial: "grass",
	},
}

// Table maps sport tag values to their marking constraints. Adding a sport
// is a data change: a complete Constraints entry, no new code.
type Table struct {
	sports map[string]Constraints
}

// DefaultTable returns the built-in sports.
func DefaultTable() Table {
	t := Table{sports: make(map[string]Constraints, len(builtin))}
	for name, c := range builtin {
		t.sports[name] = c
	}
	return t
}

// NewTable returns the built-in table with overrides applied on top.
// Overriding an existing sport replaces only the non-zero fields; a new
// sport must be complete, since rendering it needs dimensions and
// materials.
func NewTable(overrides map[string]Constraints) (Table, error) {
	t := DefaultTable()
	for name, o := range overrides {
		o.Sport = name
		base, ok := t.sports[name]
		if !ok {
			if !o.complete() {
				return Table{}, fmt.Errorf("sport %q: override for an unknown sport must define all dimensions and materials", name)
			}
			base = o
		} else {
			base = merge(base, o)
		}
		if err := base.validate(); err != nil {
			return Table{}, err
		}
		t.sports[name] = base
	}
	return t, nil
}

func merge(base, o Constraints) Constraints {
	if o.MinLongSide > 0 {
		base.MinLongSide = o.MinLongSide
	}
	if o.MaxLongSide > 0 {
		base.MaxLongSide = o.MaxLongSide
	}
	if o.MinShortSide > 0 {
		base.MinShortSide = o.MinShortSide
	}
	if o.MaxShortSide > 0 {
		base.MaxShortSide = o.MaxShortSide
	}
	if o.Material != "" {
		base.Material = o.Material
	}
	if o.FallbackMaterial != "" {
		base.FallbackMaterial = o.FallbackMaterial
	}
	return base
}

// Lookup returns the constraints for a sport tag value.
func (t Table) Lookup(sport string) (Constraints, bool) {
	c, ok := t.sports[sport]
	return c, ok
}

// ForTags classifies an area: it must be tagged leisure=pitch with a sport
// present in the table. Everything else is not a pitch and is skipped, not
// an error.
func (t Table) ForTags(tags core.Tags) (Constraints, bool) {
	if !tags.Has("leisure", "pitch") {
		return Constraints{}, false
	}
	return t.Lookup(tags.Value("sport"))
}

// Sports returns the known sport names in sorted order.
func (t Table) Sports() []string {
	names := make([]string, 0, len(t.sports))
	for name := range t.sports {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
