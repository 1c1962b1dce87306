package pitch

import (
	"math"
	"testing"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osm3d/pitchmark/pkg/core"
)

func TestTexCoords_FrameCornersMapToUnitSquare(t *testing.T) {
	f := Frame{
		Origin:    geom.XY{X: 15, Y: 1.5},
		LongAxis:  geom.XY{X: 120, Y: 0},
		ShortAxis: geom.XY{X: 0, Y: 57},
	}

	corners := f.Corners()
	pts := make([]core.Position3D, 0, 4)
	for _, c := range corners {
		pts = append(pts, core.Position3D{X: c.X, Y: c.Y})
	}

	coords := f.TexCoords(pts)
	require.Len(t, coords, 4)

	// origin -> (0,0); +long -> (0,1); +long+short -> (1,1); +short -> (1,0)
	want := []core.TexCoord{{U: 0, V: 0}, {U: 0, V: 1}, {U: 1, V: 1}, {U: 1, V: 0}}
	for i := range want {
		assert.InDelta(t, want[i].U, coords[i].U, 1e-9, "corner %d U", i)
		assert.InDelta(t, want[i].V, coords[i].V, 1e-9, "corner %d V", i)
	}
}

func TestTexCoords_CenterMapsToHalf(t *testing.T) {
	f := Frame{
		Origin:    geom.XY{X: 0, Y: 0},
		LongAxis:  geom.XY{X: 100, Y: 0},
		ShortAxis: geom.XY{X: 0, Y: 50},
	}

	coords := f.TexCoords([]core.Position3D{{X: 50, Y: 25}})
	assert.InDelta(t, 0.5, coords[0].U, 1e-9)
	assert.InDelta(t, 0.5, coords[0].V, 1e-9)
}

func TestTexCoords_ElevationIgnored(t *testing.T) {
	f := Frame{
		Origin:    geom.XY{X: 0, Y: 0},
		LongAxis:  geom.XY{X: 100, Y: 0},
		ShortAxis: geom.XY{X: 0, Y: 50},
	}

	flat := f.TexCoords([]core.Position3D{{X: 30, Y: 20, Z: 0}})
	high := f.TexCoords([]core.Position3D{{X: 30, Y: 20, Z: 250}})
	assert.Equal(t, flat, high)
}

func TestTexCoords_OutsidePointsUnclamped(t *testing.T) {
	f := Frame{
		Origin:    geom.XY{X: 0, Y: 0},
		LongAxis:  geom.XY{X: 100, Y: 0},
		ShortAxis: geom.XY{X: 0, Y: 50},
	}

	coords := f.TexCoords([]core.Position3D{
		{X: -10, Y: 25},  // before the long axis start
		{X: 150, Y: 25},  // past the long axis end
		{X: 50, Y: -5},   // below the short axis
	})

	assert.InDelta(t, -0.1, coords[0].V, 1e-9)
	assert.InDelta(t, 1.5, coords[1].V, 1e-9)
	assert.InDelta(t, -0.1, coords[2].U, 1e-9)
}

func TestTexCoords_RotatedFrame(t *testing.T) {
	// A frame rotated 30 degrees must still map its corners to the unit
	// square and its center to (0.5, 0.5).
	sin, cos := math.Sin(math.Pi/6), math.Cos(math.Pi/6)
	rot := func(x, y float64) geom.XY {
		return geom.XY{X: x*cos - y*sin, Y: x*sin + y*cos}
	}

	f := Frame{
		Origin:    rot(15, 1.5),
		LongAxis:  rot(120, 0),
		ShortAxis: rot(0, 57),
	}

	center := f.Origin.Add(f.LongAxis.Scale(0.5)).Add(f.ShortAxis.Scale(0.5))
	far := f.Origin.Add(f.LongAxis).Add(f.ShortAxis)

	coords := f.TexCoords([]core.Position3D{
		{X: f.Origin.X, Y: f.Origin.Y},
		{X: center.X, Y: center.Y},
		{X: far.X, Y: far.Y},
	})

	assert.InDelta(t, 0, coords[0].U, 1e-9)
	assert.InDelta(t, 0, coords[0].V, 1e-9)
	assert.InDelta(t, 0.5, coords[1].U, 1e-9)
	assert.InDelta(t, 0.5, coords[1].V, 1e-9)
	assert.InDelta(t, 1, coords[2].U, 1e-9)
	assert.InDelta(t, 1, coords[2].V, 1e-9)
}

func TestTexCoords_OrderPreserving(t *testing.T) {
	f := Frame{
		Origin:    geom.XY{X: 0, Y: 0},
		LongAxis:  geom.XY{X: 100, Y: 0},
		ShortAxis: geom.XY{X: 0, Y: 50},
	}

	pts := []core.Position3D{
		{X: 10, Y: 10}, {X: 20, Y: 20}, {X: 30, Y: 30}, {X: 10, Y: 10},
	}
	coords := f.TexCoords(pts)

	require.Len(t, coords, len(pts))
	assert.Equal(t, coords[0], coords[3], "same input point must map identically")
	assert.NotEqual(t, coords[0], coords[1])
}
