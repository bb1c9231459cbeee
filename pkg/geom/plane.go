package geom

import (
	"math"

	"github.com/pkg/errors"
)

// Plane is an infinite plane through O with unit normal N.
type Plane struct {
	O Vec
	N Vec
}

// NewPlane builds a plane from a normal (normalized here) and an origin.
func NewPlane(normal, origin Vec) (Plane, error) {
	n, ok := Unit(normal)
	if !ok {
		return Plane{}, errors.Wrap(ErrDegenerate, "plane normal has zero length")
	}
	return Plane{O: origin, N: n}, nil
}

// SignedDistance is positive on the side the normal points to.
func (p Plane) SignedDistance(pt Vec) float64 {
	return pt.Sub(p.O).Dot(p.N)
}

// DistanceToPoint returns the unsigned distance from pt to the plane.
func (p Plane) DistanceToPoint(pt Vec) float64 {
	return math.Abs(p.SignedDistance(pt))
}

// ClosestPoint returns the orthogonal projection of pt on the plane.
func (p Plane) ClosestPoint(pt Vec) Vec {
	return pt.Sub(p.N.MulScalar(p.SignedDistance(pt)))
}

// IsPointAbove reports whether pt lies strictly on the positive side.
func (p Plane) IsPointAbove(pt Vec) bool {
	return p.SignedDistance(pt) > 0
}

// Flip returns the plane with its normal reversed.
func (p Plane) Flip() Plane {
	return Plane{O: p.O, N: p.N.Neg()}
}

// IsParallel reports whether the normals agree, in either direction,
// within angTol radians.
func (p Plane) IsParallel(o Plane, angTol float64) bool {
	a := AngleBetween(p.N, o.N)
	return a <= angTol || math.Pi-a <= angTol
}

// IntersectPlane returns the line where two planes meet. ok is false when
// the planes are parallel within angTol, including coincident planes.
func (p Plane) IntersectPlane(o Plane, angTol float64) (origin, dir Vec, ok bool) {
	if p.IsParallel(o, angTol) {
		return Vec{}, Vec{}, false
	}
	d, _ := Unit(p.N.Cross(o.N))
	// Point on both planes closest to the world origin along the line.
	d1 := p.N.Dot(p.O)
	d2 := o.N.Dot(o.O)
	n1n2 := p.N.Dot(o.N)
	det := 1 - n1n2*n1n2
	c1 := (d1 - d2*n1n2) / det
	c2 := (d2 - d1*n1n2) / det
	return p.N.MulScalar(c1).Add(o.N.MulScalar(c2)), d, true
}

// IsCoplanar reports whether both planes describe the same surface: normals
// parallel within angTol and each origin within tol of the other plane.
// Opposite normals count as coplanar.
func (p Plane) IsCoplanar(o Plane, tol, angTol float64) bool {
	if !p.IsParallel(o, angTol) {
		return false
	}
	return o.DistanceToPoint(p.O) <= tol && p.DistanceToPoint(o.O) <= tol
}

// IntersectRay returns where r crosses the plane. Rays parallel to the plane
// and hits behind the ray origin report ok == false.
func (p Plane) IntersectRay(r Ray) (hit Vec, t float64, ok bool) {
	denom := p.N.Dot(r.Dir)
	if math.Abs(denom) < epsilon {
		return Vec{}, 0, false
	}
	t = p.O.Sub(r.Origin).Dot(p.N) / denom
	if t < 0 {
		return Vec{}, t, false
	}
	return r.Origin.Add(r.Dir.MulScalar(t)), t, true
}

// basis returns two unit vectors spanning the plane such that x × y = N.
func (p Plane) basis() (x, y Vec) {
	ref := Vec{X: 0, Y: 0, Z: 1}
	if math.Abs(p.N.Z) > 0.9 {
		ref = Vec{X: 1, Y: 0, Z: 0}
	}
	x, _ = Unit(ref.Cross(p.N))
	y = p.N.Cross(x)
	return x, y
}

// toLocal maps pts into 2D coordinates on the plane.
func (p Plane) toLocal(pts []Vec) []point2 {
	x, y := p.basis()
	out := make([]point2, len(pts))
	for i, pt := range pts {
		d := pt.Sub(p.O)
		out[i] = point2{d.Dot(x), d.Dot(y)}
	}
	return out
}
