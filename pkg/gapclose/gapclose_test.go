package gapclose_test

import (
	"testing"

	"github.com/chazu/bimzone/pkg/gapclose"
	"github.com/chazu/bimzone/pkg/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func v(x, y, z float64) geom.Vec { return geom.Vec{X: x, Y: y, Z: z} }

func box(t *testing.T, min, max geom.Vec) geom.Polyface {
	t.Helper()
	faces, err := geom.BoxFaces(min, max)
	require.NoError(t, err)
	return geom.NewPolyface(faces, 0.01)
}

func TestCloseMeetsHalfway(t *testing.T) {
	rooms := []geom.Polyface{
		box(t, v(0, 0, 0), v(4, 3, 3)),
		box(t, v(0, 3.2, 0), v(4, 6, 3)),
	}
	closed, err := gapclose.Close(rooms, 0.5, 0.01)
	require.NoError(t, err)
	require.Len(t, closed, 2)

	a, b := closed[0].Bounds(), closed[1].Bounds()
	assert.InDelta(t, 3.1, a.Max.Y, 1e-9)
	assert.InDelta(t, 3.1, b.Min.Y, 1e-9)
	assert.InDelta(t, 0, a.Min.Y, 1e-9)
	assert.InDelta(t, 6, b.Max.Y, 1e-9)
	assert.True(t, closed[0].IsSolid())
	assert.InDelta(t, 4*3.1*3, closed[0].Volume(), 1e-9)

	// The inputs are untouched.
	assert.InDelta(t, 3, rooms[0].Bounds().Max.Y, 1e-9)
}

func TestCloseIgnoresDistantRooms(t *testing.T) {
	rooms := []geom.Polyface{
		box(t, v(0, 0, 0), v(4, 3, 3)),
		box(t, v(0, 4, 0), v(4, 6, 3)),
	}
	closed, err := gapclose.Close(rooms, 0.5, 0.01)
	require.NoError(t, err)
	assert.Equal(t, rooms[0].Vertices(), closed[0].Vertices())
	assert.Equal(t, rooms[1].Vertices(), closed[1].Vertices())
}

func TestCloseProbesOffCenter(t *testing.T) {
	// B only covers the eastern part of A's north wall, so the ray from the
	// wall center misses it.
	rooms := []geom.Polyface{
		box(t, v(0, 0, 0), v(4, 3, 3)),
		box(t, v(2.5, 3.2, 0), v(6, 6, 3)),
	}
	closed, err := gapclose.Close(rooms, 0.5, 0.01)
	require.NoError(t, err)
	assert.InDelta(t, 3.1, closed[0].Bounds().Max.Y, 1e-9)
}
