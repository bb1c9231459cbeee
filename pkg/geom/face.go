package geom

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/unixpickle/model3d/model3d"
)

// Face is a planar polygon. Its normal follows the vertex winding
// (counter-clockwise when viewed from the side the normal points to).
// Faces are values; every transform returns a new Face.
type Face struct {
	vertices []Vec
	plane    Plane
	area     float64
	center   Vec
}

// NewFace builds a face from an ordered boundary. A repeated closing vertex
// is dropped. Fewer than three vertices or a zero area is ErrDegenerate.
func NewFace(vertices []Vec) (Face, error) {
	vs := append([]Vec(nil), vertices...)
	if len(vs) > 1 && Dist(vs[0], vs[len(vs)-1]) < epsilon {
		vs = vs[:len(vs)-1]
	}
	if len(vs) < 3 {
		return Face{}, errors.Wrapf(ErrDegenerate, "face has %d vertices", len(vs))
	}

	// Newell's method: robust normal for any simple planar polygon.
	var n Vec
	for i := range vs {
		n = n.Add(vs[i].Cross(vs[(i+1)%len(vs)]))
	}
	area := n.Length() / 2
	unit, ok := Unit(n)
	if !ok || area < epsilon {
		return Face{}, errors.Wrap(ErrDegenerate, "face has zero area")
	}

	// Area-weighted centroid of a fan; signed areas keep concave rings right.
	var c Vec
	var total float64
	for i := 1; i+1 < len(vs); i++ {
		a := vs[i].Sub(vs[0]).Cross(vs[i+1].Sub(vs[0])).Dot(unit) / 2
		tc := vs[0].Add(vs[i]).Add(vs[i+1]).MulScalar(1.0 / 3)
		c = c.Add(tc.MulScalar(a))
		total += a
	}
	if total < epsilon {
		return Face{}, errors.Wrap(ErrDegenerate, "face has zero area")
	}
	c = c.MulScalar(1 / total)

	return Face{
		vertices: vs,
		plane:    Plane{O: c, N: unit},
		area:     area,
		center:   c,
	}, nil
}

// Vertices returns a copy of the boundary.
func (f Face) Vertices() []Vec {
	return append([]Vec(nil), f.vertices...)
}

// Plane returns the face plane, with its origin at the centroid.
func (f Face) Plane() Plane { return f.plane }

// Normal returns the unit normal.
func (f Face) Normal() Vec { return f.plane.N }

// Area returns the polygon area.
func (f Face) Area() float64 { return f.area }

// Center returns the area-weighted centroid.
func (f Face) Center() Vec { return f.center }

// IsZero reports whether f is the zero Face.
func (f Face) IsZero() bool { return len(f.vertices) == 0 }

// Flip reverses the winding and therefore the normal.
func (f Face) Flip() Face {
	vs := lo.Reverse(f.Vertices())
	return Face{
		vertices: vs,
		plane:    f.plane.Flip(),
		area:     f.area,
		center:   f.center,
	}
}

// Move translates the face by v.
func (f Face) Move(v Vec) Face {
	return Face{
		vertices: lo.Map(f.vertices, func(p Vec, _ int) Vec { return p.Add(v) }),
		plane:    Plane{O: f.plane.O.Add(v), N: f.plane.N},
		area:     f.area,
		center:   f.center.Add(v),
	}
}

// Scale scales the face uniformly about origin by a positive factor.
func (f Face) Scale(factor float64, origin Vec) Face {
	scale := func(p Vec) Vec { return origin.Add(p.Sub(origin).MulScalar(factor)) }
	return Face{
		vertices: lo.Map(f.vertices, func(p Vec, _ int) Vec { return scale(p) }),
		plane:    Plane{O: scale(f.plane.O), N: f.plane.N},
		area:     f.area * factor * factor,
		center:   scale(f.center),
	}
}

// ProjectOnto flattens every vertex orthogonally onto p. The result keeps
// the original winding relative to p's normal.
func (f Face) ProjectOnto(p Plane) (Face, error) {
	return NewFace(lo.Map(f.vertices, func(v Vec, _ int) Vec { return p.ClosestPoint(v) }))
}

// Edges returns the boundary segments in winding order.
func (f Face) Edges() []Segment {
	out := make([]Segment, len(f.vertices))
	for i := range f.vertices {
		out[i] = Segment{A: f.vertices[i], B: f.vertices[(i+1)%len(f.vertices)]}
	}
	return out
}

// ContainsPoint reports whether pt lies on the face plane (within tol) and
// inside or on the boundary of the polygon.
func (f Face) ContainsPoint(pt Vec, tol float64) bool {
	if f.plane.DistanceToPoint(pt) > tol {
		return false
	}
	ring := f.plane.toLocal(f.vertices)
	p := f.plane.toLocal([]Vec{pt})[0]
	return containsPoint2(p, ring, tol)
}

// IntersectRay returns where r hits the polygon.
func (f Face) IntersectRay(r Ray, tol float64) (Vec, bool) {
	hit, _, ok := f.plane.IntersectRay(r)
	if !ok {
		return Vec{}, false
	}
	if !f.ContainsPoint(hit, tol) {
		return Vec{}, false
	}
	return hit, true
}

// IsSubFace reports whether sub is coplanar with f and lies entirely within
// f's boundary: every vertex inside (boundary within tol counts) and no
// edge of sub properly crossing an edge of f.
func (f Face) IsSubFace(sub Face, tol, angTol float64) bool {
	if sub.IsZero() || f.IsZero() {
		return false
	}
	if !f.plane.IsCoplanar(sub.plane, tol, angTol) {
		return false
	}
	for _, v := range sub.vertices {
		if f.plane.DistanceToPoint(v) > tol {
			return false
		}
	}
	host := f.plane.toLocal(f.vertices)
	inner := f.plane.toLocal(sub.vertices)
	for _, p := range inner {
		if !containsPoint2(p, host, tol) {
			return false
		}
	}
	for i := range inner {
		a, b := inner[i], inner[(i+1)%len(inner)]
		for j := range host {
			if segmentsCross2(a, b, host[j], host[(j+1)%len(host)], tol) {
				return false
			}
		}
	}
	return true
}

// Triangles splits the polygon into triangles that keep its winding.
func (f Face) Triangles() (tris [][3]Vec) {
	if len(f.vertices) == 3 {
		return [][3]Vec{{f.vertices[0], f.vertices[1], f.vertices[2]}}
	}
	// Rings the triangulator rejects are fanned.
	defer func() {
		if r := recover(); r != nil {
			tris = f.fan()
		}
	}()
	ring := lo.Map(f.vertices, func(v Vec, _ int) model3d.Coord3D { return Coord(v) })
	return lo.Map(model3d.TriangulateFace(ring), func(t *model3d.Triangle, _ int) [3]Vec {
		out := [3]Vec{FromCoord(t[0]), FromCoord(t[1]), FromCoord(t[2])}
		if out[1].Sub(out[0]).Cross(out[2].Sub(out[0])).Dot(f.plane.N) < 0 {
			out[1], out[2] = out[2], out[1]
		}
		return out
	})
}

func (f Face) fan() [][3]Vec {
	var out [][3]Vec
	for i := 1; i+1 < len(f.vertices); i++ {
		out = append(out, [3]Vec{f.vertices[0], f.vertices[i], f.vertices[i+1]})
	}
	return out
}

// RemoveCollinear drops vertices lying within tol of the line through their
// neighbours.
func (f Face) RemoveCollinear(tol float64) (Face, error) {
	vs := f.vertices
	for changed := true; changed && len(vs) > 3; {
		changed = false
		for i := range vs {
			prev := vs[(i+len(vs)-1)%len(vs)]
			next := vs[(i+1)%len(vs)]
			if distToLine(vs[i], prev, next) <= tol {
				vs = append(append([]Vec(nil), vs[:i]...), vs[i+1:]...)
				changed = true
				break
			}
		}
	}
	return NewFace(vs)
}

func distToLine(p, a, b Vec) float64 {
	d, ok := Unit(b.Sub(a))
	if !ok {
		return Dist(p, a)
	}
	return p.Sub(a).Cross(d).Length()
}
