package geom

import (
	"sort"

	"github.com/samber/lo"
	"github.com/unixpickle/model3d/model3d"
)

// Coord converts a vector into a model3d coordinate.
func Coord(v Vec) model3d.Coord3D {
	return model3d.Coord3D{X: v.X, Y: v.Y, Z: v.Z}
}

// FromCoord converts a model3d coordinate into a vector.
func FromCoord(c model3d.Coord3D) Vec {
	return Vec{X: c.X, Y: c.Y, Z: c.Z}
}

// MeshTriangle converts a triangle into a model3d triangle.
func MeshTriangle(t [3]Vec) *model3d.Triangle {
	return &model3d.Triangle{Coord(t[0]), Coord(t[1]), Coord(t[2])}
}

// NewCollider indexes triangles for ray and sphere queries. It returns nil
// when there are no triangles.
func NewCollider(tris [][3]Vec) model3d.Collider {
	if len(tris) == 0 {
		return nil
	}
	mesh := model3d.NewMesh()
	for _, t := range tris {
		mesh.Add(MeshTriangle(t))
	}
	return model3d.MeshToCollider(mesh)
}

// facesCollider indexes the triangles of every face.
func facesCollider(faces []Face) model3d.Collider {
	return NewCollider(lo.FlatMap(faces, func(f Face, _ int) [][3]Vec { return f.Triangles() }))
}

// rayHits returns the distances along r of every collision farther than
// tol from the origin, sorted and with hits closer than tol to the previous
// one merged. A ray through a shared edge hits each neighbouring triangle
// once; the merge counts it as one crossing.
func rayHits(c model3d.Collider, r Ray, tol float64) []float64 {
	if c == nil {
		return nil
	}
	dir, ok := Unit(r.Dir)
	if !ok {
		return nil
	}
	var hits []float64
	c.RayCollisions(&model3d.Ray{Origin: Coord(r.Origin), Direction: Coord(dir)}, func(rc model3d.RayCollision) {
		if rc.Scale > tol {
			hits = append(hits, rc.Scale)
		}
	})
	sort.Float64s(hits)
	return lo.Filter(hits, func(d float64, i int) bool { return i == 0 || d-hits[i-1] > tol })
}
