package pitch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osm3d/pitchmark/pkg/core"
)

func TestDefaultTable_Soccer(t *testing.T) {
	c, ok := DefaultTable().Lookup("soccer")

	require.True(t, ok)
	assert.Equal(t, 90.0, c.MinLongSide)
	assert.Equal(t, 120.0, c.MaxLongSide)
	assert.Equal(t, 45.0, c.MinShortSide)
	assert.Equal(t, 90.0, c.MaxShortSide)
	assert.Equal(t, "pitch_soccer", c.Material)
	assert.Equal(t, "grass", c.FallbackMaterial)
}

func TestTable_ForTags(t *testing.T) {
	table := DefaultTable()

	tests := []struct {
		name string
		tags core.Tags
		want bool
	}{
		{
			name: "soccer pitch",
			tags: core.Tags{"leisure": "pitch", "sport": "soccer"},
			want: true,
		},
		{
			name: "extra tags do not matter",
			tags: core.Tags{"leisure": "pitch", "sport": "soccer", "surface": "grass", "name": "Stadion"},
			want: true,
		},
		{
			name: "not a pitch",
			tags: core.Tags{"leisure": "park", "sport": "soccer"},
			want: false,
		},
		{
			name: "no leisure tag",
			tags: core.Tags{"sport": "soccer"},
			want: false,
		},
		{
			name: "unknown sport",
			tags: core.Tags{"leisure": "pitch", "sport": "cricket"},
			want: false,
		},
		{
			name: "no sport tag",
			tags: core.Tags{"leisure": "pitch"},
			want: false,
		},
		{
			name: "nil tags",
			tags: nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := table.ForTags(tt.tags)
			assert.Equal(t, tt.want, ok)
			if tt.want {
				assert.Equal(t, "soccer", c.Sport)
			}
		})
	}
}

func TestNewTable_MergesOverrides(t *testing.T) {
	table, err := NewTable(map[string]Constraints{
		"soccer": {MinLongSide: 100, Material: "pitch_soccer_worn"},
	})
	require.NoError(t, err)

	c, ok := table.Lookup("soccer")
	require.True(t, ok)
	assert.Equal(t, 100.0, c.MinLongSide, "overridden")
	assert.Equal(t, 120.0, c.MaxLongSide, "kept from built-in")
	assert.Equal(t, "pitch_soccer_worn", c.Material, "overridden")
	assert.Equal(t, "grass", c.FallbackMaterial, "kept from built-in")
}

func TestNewTable_AddsCompleteSport(t *testing.T) {
	table, err := NewTable(map[string]Constraints{
		"basketball": {
			MinLongSide:      20,
			MaxLongSide:      28,
			MinShortSide:     11,
			MaxShortSide:     15,
			Material:         "pitch_basketball",
			FallbackMaterial: "asphalt",
		},
	})
	require.NoError(t, err)

	c, ok := table.Lookup("basketball")
	require.True(t, ok)
	assert.Equal(t, "basketball", c.Sport)
	assert.Equal(t, 28.0, c.MaxLongSide)

	assert.Equal(t, []string{"basketball", "soccer"}, table.Sports())
}

func TestNewTable_RejectsIncompleteNewSport(t *testing.T) {
	_, err := NewTable(map[string]Constraints{
		"basketball": {MinLongSide: 20, MaxLongSide: 28},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "basketball")
}

func TestNewTable_RejectsInvertedRange(t *testing.T) {
	_, err := NewTable(map[string]Constraints{
		"soccer": {MinLongSide: 130}, // above the built-in max of 120
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "minLongSide")
}

func TestNewTable_EmptyOverrides(t *testing.T) {
	table, err := NewTable(nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"soccer"}, table.Sports())
}
