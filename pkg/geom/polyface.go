package geom

import (
	"github.com/deadsy/sdfx/sdf"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/unixpickle/model3d/model3d"
)

// Polyface is a set of faces sharing welded vertices. When every edge is
// shared by exactly two faces it bounds a closed solid. Ray and
// containment queries run against a model3d collider over the face
// triangles.
type Polyface struct {
	vertices []Vec
	faces    [][]int
	geoms    []Face
	edges    map[edgeKey][]int
	solid    bool
	collider model3d.Collider
}

type edgeKey struct{ a, b int }

func newEdgeKey(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// NewPolyface welds the face vertices that lie within tol of each other and
// derives edge adjacency. Faces that collapse after welding are dropped.
func NewPolyface(faces []Face, tol float64) Polyface {
	p := Polyface{edges: make(map[edgeKey][]int)}
	for _, f := range faces {
		var idx []int
		for _, v := range f.vertices {
			i := p.weld(v, tol)
			if len(idx) > 0 && idx[len(idx)-1] == i {
				continue
			}
			idx = append(idx, i)
		}
		if len(idx) > 1 && idx[0] == idx[len(idx)-1] {
			idx = idx[:len(idx)-1]
		}
		if len(lo.Uniq(idx)) < 3 {
			continue
		}
		p.faces = append(p.faces, idx)
		p.geoms = append(p.geoms, f)
	}
	for fi, idx := range p.faces {
		for i := range idx {
			k := newEdgeKey(idx[i], idx[(i+1)%len(idx)])
			p.edges[k] = append(p.edges[k], fi)
		}
	}
	p.solid = len(p.faces) >= 4
	for _, owners := range p.edges {
		if len(owners) != 2 {
			p.solid = false
			break
		}
	}
	p.collider = facesCollider(p.geoms)
	return p
}

func (p *Polyface) weld(v Vec, tol float64) int {
	for i, w := range p.vertices {
		if Dist(v, w) <= tol {
			return i
		}
	}
	p.vertices = append(p.vertices, v)
	return len(p.vertices) - 1
}

// Faces returns the member faces in insertion order.
func (p Polyface) Faces() []Face {
	return append([]Face(nil), p.geoms...)
}

// Vertices returns the welded vertex list.
func (p Polyface) Vertices() []Vec {
	return append([]Vec(nil), p.vertices...)
}

// FaceIndices returns, per face, the indices into Vertices.
func (p Polyface) FaceIndices() [][]int {
	return lo.Map(p.faces, func(idx []int, _ int) []int { return append([]int(nil), idx...) })
}

// IsEmpty reports whether the polyface has no faces.
func (p Polyface) IsEmpty() bool { return len(p.geoms) == 0 }

// IsSolid reports whether the faces close a volume.
func (p Polyface) IsSolid() bool { return p.solid }

// Area returns the total surface area.
func (p Polyface) Area() float64 {
	return lo.SumBy(p.geoms, func(f Face) float64 { return f.area })
}

// Center returns the area-weighted centroid of the face centroids.
func (p Polyface) Center() Vec {
	var c Vec
	total := p.Area()
	if total < epsilon {
		return c
	}
	for _, f := range p.geoms {
		c = c.Add(f.center.MulScalar(f.area))
	}
	return c.MulScalar(1 / total)
}

// Bounds returns the axis-aligned box of all vertices.
func (p Polyface) Bounds() sdf.Box3 {
	return Bounds(p.vertices...)
}

// Volume returns the signed enclosed volume. It is negative when the faces
// of a closed polyface point inward.
func (p Polyface) Volume() float64 {
	var v float64
	for _, f := range p.geoms {
		for _, t := range f.Triangles() {
			v += t[0].Dot(t[1].Cross(t[2])) / 6
		}
	}
	return v
}

// NakedEdges returns edges used by exactly one face, ordered by the face
// that owns them and in that face's winding.
func (p Polyface) NakedEdges() []Segment {
	var out []Segment
	for _, idx := range p.faces {
		for i := range idx {
			a, b := idx[i], idx[(i+1)%len(idx)]
			if len(p.edges[newEdgeKey(a, b)]) == 1 {
				out = append(out, Segment{A: p.vertices[a], B: p.vertices[b]})
			}
		}
	}
	return out
}

// IntersectRay returns the distance to the nearest face hit by r, ignoring
// hits closer than tol to the ray origin.
func (p Polyface) IntersectRay(r Ray, tol float64) (float64, bool) {
	hits := rayHits(p.collider, r, tol)
	if len(hits) == 0 {
		return 0, false
	}
	return hits[0], true
}

// ContainsPoint reports whether pt is inside the closed polyface or within
// tol of its boundary. Interior points are found by the parity of the
// crossings of a ray cast upward and slightly tilted to avoid edges.
func (p Polyface) ContainsPoint(pt Vec, tol float64) bool {
	if !p.solid || p.collider == nil {
		return false
	}
	for _, f := range p.geoms {
		if f.ContainsPoint(pt, tol) {
			return true
		}
	}
	if !model3d.InBounds(p.collider, Coord(pt)) {
		return false
	}
	return len(rayHits(p.collider, Ray{Origin: pt, Dir: Vec{X: 0.0123, Y: 0.0457, Z: 1}}, tol))%2 == 1
}

// MoveVertices returns a copy with the given vertices displaced; faces that
// share a vertex move together.
func (p Polyface) MoveVertices(moves map[int]Vec, tol float64) (Polyface, error) {
	vs := p.Vertices()
	for i, d := range moves {
		if i < 0 || i >= len(vs) {
			return Polyface{}, errors.Errorf("geom: vertex index %d out of range", i)
		}
		vs[i] = vs[i].Add(d)
	}
	faces := make([]Face, 0, len(p.faces))
	for _, idx := range p.faces {
		f, err := NewFace(lo.Map(idx, func(i int, _ int) Vec { return vs[i] }))
		if err != nil {
			return Polyface{}, errors.Wrap(err, "geom: moved face")
		}
		faces = append(faces, f)
	}
	return NewPolyface(faces, tol), nil
}

// Normalized returns the polyface with outward-pointing faces. A closed
// polyface is flipped as a whole when its volume is negative; an open one
// is repaired face by face with OutwardFaces.
func (p Polyface) Normalized(tol float64) Polyface {
	if p.solid {
		if p.Volume() >= 0 {
			return p
		}
		return NewPolyface(lo.Map(p.geoms, func(f Face, _ int) Face { return f.Flip() }), tol)
	}
	return NewPolyface(OutwardFaces(p.geoms, tol), tol)
}

// OutwardFaces flips every face whose normal points into the volume the
// faces enclose: a ray cast from the face center along its normal crosses
// the other faces an odd number of times.
func OutwardFaces(faces []Face, tol float64) []Face {
	c := facesCollider(faces)
	out := make([]Face, len(faces))
	for i, f := range faces {
		if len(rayHits(c, Ray{Origin: f.center, Dir: f.plane.N}, tol))%2 == 1 {
			out[i] = f.Flip()
			continue
		}
		out[i] = f
	}
	return out
}
