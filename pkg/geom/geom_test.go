package geom_test

import (
	"math"
	"testing"

	"github.com/chazu/bimzone/pkg/geom"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 0.01

var angTol = math.Pi / 180

func v(x, y, z float64) geom.Vec { return geom.Vec{X: x, Y: y, Z: z} }

func square(x0, y0, x1, y1, z float64) geom.Face {
	return lo.Must(geom.NewFace([]geom.Vec{v(x0, y0, z), v(x1, y0, z), v(x1, y1, z), v(x0, y1, z)}))
}

func unitBox(t *testing.T) []geom.Face {
	t.Helper()
	faces, err := geom.BoxFaces(v(0, 0, 0), v(1, 1, 1))
	require.NoError(t, err)
	return faces
}

// ---------------------------------------------------------------------------
// Face
// ---------------------------------------------------------------------------

func TestNewFaceDerivedProperties(t *testing.T) {
	f := square(0, 0, 2, 1, 3)
	assert.InDelta(t, 2.0, f.Area(), 1e-9)
	assert.InDelta(t, 0, geom.Dist(f.Center(), v(1, 0.5, 3)), 1e-9)
	assert.InDelta(t, 0, geom.Dist(f.Normal(), v(0, 0, 1)), 1e-9)
}

func TestNewFaceDropsClosingVertex(t *testing.T) {
	f, err := geom.NewFace([]geom.Vec{v(0, 0, 0), v(1, 0, 0), v(1, 1, 0), v(0, 0, 0)})
	require.NoError(t, err)
	assert.Len(t, f.Vertices(), 3)
	assert.InDelta(t, 0.5, f.Area(), 1e-9)
}

func TestNewFaceDegenerate(t *testing.T) {
	tests := []struct {
		name string
		pts  []geom.Vec
	}{
		{"too few", []geom.Vec{v(0, 0, 0), v(1, 0, 0)}},
		{"collinear", []geom.Vec{v(0, 0, 0), v(1, 0, 0), v(2, 0, 0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := geom.NewFace(tt.pts)
			require.Error(t, err)
			assert.Equal(t, geom.ErrDegenerate, errors.Cause(err))
		})
	}
}

func TestFaceFlipMoveScale(t *testing.T) {
	f := square(0, 0, 1, 1, 0)

	flipped := f.Flip()
	assert.InDelta(t, -1, flipped.Normal().Z, 1e-9)
	assert.InDelta(t, f.Area(), flipped.Area(), 1e-9)

	moved := f.Move(v(0, 0, 2))
	assert.InDelta(t, 2, moved.Center().Z, 1e-9)
	assert.InDelta(t, 2, moved.Plane().O.Z, 1e-9)

	scaled := f.Scale(0.5, f.Center())
	assert.InDelta(t, 0.25, scaled.Area(), 1e-9)
	assert.InDelta(t, 0, geom.Dist(scaled.Center(), f.Center()), 1e-9)
}

func TestFaceIntersectRay(t *testing.T) {
	f := square(0, 0, 1, 1, 0)
	tests := []struct {
		name string
		ray  geom.Ray
		hit  bool
	}{
		{"through center", geom.Ray{Origin: v(0.5, 0.5, 1), Dir: v(0, 0, -1)}, true},
		{"outside polygon", geom.Ray{Origin: v(2, 2, 1), Dir: v(0, 0, -1)}, false},
		{"pointing away", geom.Ray{Origin: v(0.5, 0.5, 1), Dir: v(0, 0, 1)}, false},
		{"parallel", geom.Ray{Origin: v(0.5, 0.5, 1), Dir: v(1, 0, 0)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := f.IntersectRay(tt.ray, tol)
			assert.Equal(t, tt.hit, ok)
		})
	}
}

func TestFaceIsSubFace(t *testing.T) {
	host := square(0, 0, 4, 3, 0)
	lshape := lo.Must(geom.NewFace([]geom.Vec{
		v(0, 0, 0), v(2, 0, 0), v(2, 1, 0), v(1, 1, 0), v(1, 2, 0), v(0, 2, 0),
	}))
	crossing := lo.Must(geom.NewFace([]geom.Vec{v(0.2, 0.2, 0), v(1.8, 0.5, 0), v(0.5, 1.8, 0)}))

	tests := []struct {
		name string
		host geom.Face
		sub  geom.Face
		want bool
	}{
		{"inside", host, square(1, 1, 2, 2, 0), true},
		{"opposite winding", host, square(1, 1, 2, 2, 0).Flip(), true},
		{"touching boundary", host, square(0, 0, 1, 1, 0), true},
		{"partly outside", host, square(3, 2, 5, 4, 0), false},
		{"offset plane", host, square(1, 1, 2, 2, 0.05), false},
		{"inside L", lshape, square(0.2, 0.2, 0.8, 1.8, 0), true},
		{"across L notch", lshape, crossing, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.host.IsSubFace(tt.sub, tol, angTol))
		})
	}
}

func TestFaceTriangles(t *testing.T) {
	tests := []struct {
		name  string
		face  geom.Face
		count int
	}{
		{"square", square(0, 0, 1, 1, 0), 2},
		{"L shape", lo.Must(geom.NewFace([]geom.Vec{
			v(0, 0, 0), v(2, 0, 0), v(2, 1, 0), v(1, 1, 0), v(1, 2, 0), v(0, 2, 0),
		})), 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tris := tt.face.Triangles()
			require.Len(t, tris, tt.count)
			area := lo.SumBy(tris, func(tr [3]geom.Vec) float64 {
				n := tr[1].Sub(tr[0]).Cross(tr[2].Sub(tr[0]))
				assert.Greater(t, n.Dot(tt.face.Normal()), 0.0, "triangle winding")
				return n.Length() / 2
			})
			assert.InDelta(t, tt.face.Area(), area, 1e-9)
		})
	}
}

func TestFaceRemoveCollinear(t *testing.T) {
	f := lo.Must(geom.NewFace([]geom.Vec{v(0, 0, 0), v(1, 0, 0), v(2, 0, 0), v(2, 1, 0), v(0, 1, 0)}))
	clean, err := f.RemoveCollinear(tol)
	require.NoError(t, err)
	assert.Len(t, clean.Vertices(), 4)
	assert.InDelta(t, 2, clean.Area(), 1e-9)
}

// ---------------------------------------------------------------------------
// Plane
// ---------------------------------------------------------------------------

func TestPlaneDistances(t *testing.T) {
	p, err := geom.NewPlane(v(0, 0, 2), v(0, 0, 1))
	require.NoError(t, err)

	assert.InDelta(t, 2, p.SignedDistance(v(5, 5, 3)), 1e-9)
	assert.InDelta(t, 2, p.DistanceToPoint(v(5, 5, -1)), 1e-9)
	assert.True(t, p.IsPointAbove(v(0, 0, 1.5)))
	assert.False(t, p.IsPointAbove(v(0, 0, 0.5)))
	assert.InDelta(t, 0, geom.Dist(p.ClosestPoint(v(3, 4, 7)), v(3, 4, 1)), 1e-9)

	_, err = geom.NewPlane(v(0, 0, 0), v(0, 0, 0))
	assert.Equal(t, geom.ErrDegenerate, errors.Cause(err))
}

func TestPlaneIntersectAndCoplanar(t *testing.T) {
	xy := lo.Must(geom.NewPlane(v(0, 0, 1), v(0, 0, 0)))
	raised := lo.Must(geom.NewPlane(v(0, 0, -1), v(1, 1, 0.005)))
	xz := lo.Must(geom.NewPlane(v(0, 1, 0), v(0, 2, 0)))

	_, _, ok := xy.IntersectPlane(raised, angTol)
	assert.False(t, ok, "parallel planes do not intersect")
	assert.True(t, xy.IsCoplanar(raised, tol, angTol))
	assert.False(t, xy.IsCoplanar(raised, 0.001, angTol))

	origin, dir, ok := xy.IntersectPlane(xz, angTol)
	require.True(t, ok)
	assert.InDelta(t, 1, math.Abs(dir.X), 1e-9)
	assert.InDelta(t, 0, xy.DistanceToPoint(origin), 1e-9)
	assert.InDelta(t, 0, xz.DistanceToPoint(origin), 1e-9)
}

// ---------------------------------------------------------------------------
// Polyface
// ---------------------------------------------------------------------------

func TestPolyfaceBox(t *testing.T) {
	pf := geom.NewPolyface(unitBox(t), tol)
	assert.True(t, pf.IsSolid())
	assert.Len(t, pf.Vertices(), 8)
	assert.Empty(t, pf.NakedEdges())
	assert.InDelta(t, 1, pf.Volume(), 1e-9)
	assert.InDelta(t, 0, geom.Dist(pf.Center(), v(0.5, 0.5, 0.5)), 1e-9)
	assert.True(t, pf.ContainsPoint(v(0.5, 0.5, 0.5), tol))
	assert.False(t, pf.ContainsPoint(v(1.5, 0.5, 0.5), tol))
}

func TestPolyfaceOpenBox(t *testing.T) {
	pf := geom.NewPolyface(unitBox(t)[1:], tol)
	assert.False(t, pf.IsSolid())
	assert.Len(t, pf.NakedEdges(), 4)
}

func TestPolyfaceNormalizedFlipsInvertedSolid(t *testing.T) {
	inverted := lo.Map(unitBox(t), func(f geom.Face, _ int) geom.Face { return f.Flip() })
	pf := geom.NewPolyface(inverted, tol)
	require.True(t, pf.IsSolid())
	assert.InDelta(t, -1, pf.Volume(), 1e-9)
	assert.InDelta(t, 1, pf.Normalized(tol).Volume(), 1e-9)
}

func TestOutwardFaces(t *testing.T) {
	faces := unitBox(t)
	faces[0] = faces[0].Flip()
	faces[3] = faces[3].Flip()
	center := v(0.5, 0.5, 0.5)
	for i, f := range geom.OutwardFaces(faces, tol) {
		assert.Greater(t, f.Normal().Dot(f.Center().Sub(center)), 0.0, "face %d points inward", i)
	}
}

func TestPolyfaceMergeCoplanar(t *testing.T) {
	pf := geom.NewPolyface([]geom.Face{square(0, 0, 1, 1, 0), square(1, 0, 2, 1, 0)}, tol)
	naked := pf.NakedEdges()
	assert.Len(t, naked, 6)

	lines := geom.JoinSegments(naked, tol)
	require.Len(t, lines, 1)
	require.True(t, lines[0].Closed)

	merged, err := geom.NewFace(lines[0].Points)
	require.NoError(t, err)
	merged, err = merged.RemoveCollinear(tol)
	require.NoError(t, err)
	assert.Len(t, merged.Vertices(), 4)
	assert.InDelta(t, 2, merged.Area(), 1e-9)
	assert.InDelta(t, 1, merged.Normal().Z, 1e-9)
}

func TestPolyfaceMoveVertices(t *testing.T) {
	pf := geom.NewPolyface(unitBox(t), tol)
	moves := map[int]geom.Vec{}
	for i, p := range pf.Vertices() {
		if p.Z > 0.5 {
			moves[i] = v(0, 0, 1)
		}
	}
	moved, err := pf.MoveVertices(moves, tol)
	require.NoError(t, err)
	assert.True(t, moved.IsSolid())
	assert.InDelta(t, 2, moved.Volume(), 1e-9)

	_, err = pf.MoveVertices(map[int]geom.Vec{99: v(1, 0, 0)}, tol)
	assert.Error(t, err)
}

func TestPolyfaceIntersectRay(t *testing.T) {
	pf := geom.NewPolyface(unitBox(t), tol)
	d, ok := pf.IntersectRay(geom.Ray{Origin: v(0.5, 0.5, -1), Dir: v(0, 0, 1)}, tol)
	require.True(t, ok)
	assert.InDelta(t, 1, d, 1e-9)

	_, ok = pf.IntersectRay(geom.Ray{Origin: v(0.5, 0.5, -1), Dir: v(0, 0, -1)}, tol)
	assert.False(t, ok)
}

// ---------------------------------------------------------------------------
// Polylines and triangles
// ---------------------------------------------------------------------------

func TestJoinSegments(t *testing.T) {
	segs := []geom.Segment{
		{A: v(0, 0, 0), B: v(1, 0, 0)},
		{A: v(0, 1, 0), B: v(1, 1, 0)}, // reversed orientation
		{A: v(5, 5, 0), B: v(6, 5, 0)}, // separate open run
		{A: v(1, 0, 0), B: v(1, 1, 0)},
		{A: v(0, 1, 0), B: v(0, 0, 0)},
	}
	lines := geom.JoinSegments(segs, tol)
	require.Len(t, lines, 2)
	assert.True(t, lines[0].Closed)
	assert.Len(t, lines[0].Points, 4)
	assert.False(t, lines[1].Closed)
}

func TestColliderSphereQueries(t *testing.T) {
	c := geom.NewCollider([][3]geom.Vec{{v(0, 0, 0), v(2, 0, 0), v(0, 2, 0)}})
	require.NotNil(t, c)
	assert.True(t, c.SphereCollision(geom.Coord(v(0.5, 0.5, 0.4)), 0.5))
	// The hypotenuse is sqrt(2) away from (2, 2, 0).
	assert.False(t, c.SphereCollision(geom.Coord(v(2, 2, 0)), 1.4))
	assert.True(t, c.SphereCollision(geom.Coord(v(2, 2, 0)), 1.5))
	assert.Nil(t, geom.NewCollider(nil))
}

// prism extrudes a counter-clockwise ring in the XY plane to height h with
// outward faces.
func prism(t *testing.T, h float64, ring ...geom.Vec) []geom.Face {
	t.Helper()
	top := lo.Map(ring, func(p geom.Vec, _ int) geom.Vec { return v(p.X, p.Y, h) })
	faces := []geom.Face{lo.Must(geom.NewFace(lo.Reverse(append([]geom.Vec(nil), ring...)))), lo.Must(geom.NewFace(top))}
	for i := range ring {
		a, b := ring[i], ring[(i+1)%len(ring)]
		faces = append(faces, lo.Must(geom.NewFace([]geom.Vec{a, b, v(b.X, b.Y, h), v(a.X, a.Y, h)})))
	}
	return faces
}

func TestConcavePolyface(t *testing.T) {
	faces := prism(t, 1, v(0, 0, 0), v(2, 0, 0), v(2, 1, 0), v(1, 1, 0), v(1, 2, 0), v(0, 2, 0))
	pf := geom.NewPolyface(faces, tol)
	require.True(t, pf.IsSolid())
	assert.InDelta(t, 3, pf.Volume(), 1e-9)

	assert.True(t, pf.ContainsPoint(v(0.5, 1.5, 0.5), tol))
	assert.True(t, pf.ContainsPoint(v(1.5, 0.5, 0.5), tol))
	assert.False(t, pf.ContainsPoint(v(1.5, 1.5, 0.5), tol), "notch is outside")
	assert.True(t, pf.ContainsPoint(v(1, 1.5, 0.5), tol), "boundary within tol")

	// The ray from inside the notch leaves through the inner corner walls.
	d, ok := pf.IntersectRay(geom.Ray{Origin: v(1.5, 1.5, 0.5), Dir: v(-1, 0, 0)}, tol)
	require.True(t, ok)
	assert.InDelta(t, 0.5, d, 1e-9)

	flipped := append([]geom.Face(nil), faces...)
	for _, i := range []int{0, 3, 6} {
		flipped[i] = flipped[i].Flip()
	}
	for i, f := range geom.OutwardFaces(flipped, tol) {
		assert.Equal(t, faces[i].Normal(), f.Normal(), "face %d", i)
	}
}
