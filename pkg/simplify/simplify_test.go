package simplify_test

import (
	"testing"

	"github.com/chazu/bimzone/pkg/config"
	"github.com/chazu/bimzone/pkg/geom"
	"github.com/chazu/bimzone/pkg/simplify"
	"github.com/pkg/errors"
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

// rectY is an axis-aligned rectangle in the plane y = const.
func rectY(t *testing.T, x0, x1, y, z0, z1 float64) geom.Face {
	t.Helper()
	f, err := geom.NewFace([]geom.Vec{v(x0, y, z0), v(x1, y, z0), v(x1, y, z1), v(x0, y, z1)})
	require.NoError(t, err)
	return f
}

func TestWindowLargestFace(t *testing.T) {
	tol := config.DefaultTolerances()
	window := box(t, v(1, -0.12, 1), v(2, -0.08, 2))
	opening := box(t, v(1, -0.2, 1), v(2, 0, 2))

	res, err := simplify.Window(window, opening, tol)
	require.NoError(t, err)
	assert.False(t, res.Fallback)
	assert.InDelta(t, 1.0, res.Face.Area(), 1e-9)
	assert.InDelta(t, 1.0, abs(res.Face.Normal().Y), 1e-9)
}

func TestWindowWithoutFacesUsesOpening(t *testing.T) {
	tol := config.DefaultTolerances()
	opening := box(t, v(1, -0.2, 1), v(2, 0, 2))

	res, err := simplify.Window(geom.Polyface{}, opening, tol)
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.InDelta(t, -0.1, res.Face.Center().Y, 1e-9)
}

func TestDoorSlab(t *testing.T) {
	tol := config.DefaultTolerances()
	door := box(t, v(0, 0, 0), v(0.9, 0.05, 2.1))
	opening := box(t, v(0, -0.1, 0), v(0.9, 0.15, 2.1))

	res, err := simplify.Door(door, opening, tol)
	require.NoError(t, err)
	assert.False(t, res.Fallback, res.Reason)
	assert.InDelta(t, 0.9*2.1, res.Face.Area(), 1e-9)
	assert.LessOrEqual(t, geom.Dist(res.Face.Center(), door.Center()), tol.CentroidDrift)
}

func TestDoorPanelTie(t *testing.T) {
	tol := config.DefaultTolerances()
	// Four equal 0.4 m² panels, none reaching the area threshold on its own.
	door := geom.NewPolyface([]geom.Face{
		rectY(t, 0, 0.5, 0, 0, 0.8),
		rectY(t, 0.5, 1, 0, 0, 0.8),
		rectY(t, 0, 0.5, 0, 0.8, 1.6),
		rectY(t, 0.5, 1, 0, 0.8, 1.6),
	}, tol.Linear)
	opening := box(t, v(0, -0.1, 0), v(1, 0.1, 1.6))

	res, err := simplify.Door(door, opening, tol)
	require.NoError(t, err)
	assert.False(t, res.Fallback, res.Reason)
	assert.InDelta(t, 1.6, res.Face.Area(), 1e-9)
	assert.Len(t, res.Face.Vertices(), 4)

	tol.PanelTieCount = 0
	res, err = simplify.Door(door, opening, tol)
	require.NoError(t, err)
	assert.True(t, res.Fallback)
}

func TestDoorDriftFallsBackToOpening(t *testing.T) {
	tol := config.DefaultTolerances()
	// A 2 m² panel plus a 0.4 m² leaf 1.8 m behind it pulls the door center
	// 0.3 m away from the panel.
	leaf, err := geom.NewFace([]geom.Vec{v(0, 1.6, 1), v(1, 1.6, 1), v(1, 2, 1), v(0, 2, 1)})
	require.NoError(t, err)
	door := geom.NewPolyface([]geom.Face{rectY(t, 0, 1, 0, 0, 2), leaf}, tol.Linear)
	require.InDelta(t, 0.3, geom.Dist(v(0.5, 0, 1), door.Center()), 1e-9)

	opening := box(t, v(0, -0.1, 0), v(1, 0.1, 2))
	res, err := simplify.Door(door, opening, tol)
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.NotEmpty(t, res.Reason)

	want, err := simplify.OpeningFallback(opening)
	require.NoError(t, err)
	assert.Equal(t, want.Vertices(), res.Face.Vertices())
	assert.InDelta(t, 0, geom.Dist(res.Face.Center(), opening.Center()), 1e-9)
}

func TestDoorIsIdempotent(t *testing.T) {
	tol := config.DefaultTolerances()
	door := box(t, v(0, 0, 0), v(0.9, 0.05, 2.1))
	opening := box(t, v(0, -0.1, 0), v(0.9, 0.15, 2.1))

	first, err := simplify.Door(door, opening, tol)
	require.NoError(t, err)
	second, err := simplify.Door(door, opening, tol)
	require.NoError(t, err)
	assert.Equal(t, first.Face.Vertices(), second.Face.Vertices())
	assert.Equal(t, first.Face.Normal(), second.Face.Normal())
}

func TestDegenerateWithoutOpening(t *testing.T) {
	tol := config.DefaultTolerances()
	small := geom.NewPolyface([]geom.Face{rectY(t, 0, 0.2, 0, 0, 0.2)}, tol.Linear)

	_, err := simplify.Door(small, geom.Polyface{}, tol)
	require.Error(t, err)
	assert.Equal(t, simplify.ErrDegenerate, errors.Cause(err))
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
