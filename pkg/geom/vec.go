package geom

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/pkg/errors"
)

// Vec is a point or direction in 3D space.
type Vec = v3.Vec

// ErrDegenerate is returned when a polygon, plane or polyface has no usable
// extent (fewer than three distinct vertices, zero area, zero normal).
var ErrDegenerate = errors.New("geom: degenerate geometry")

// epsilon guards divisions and normalizations. It is far below any
// modelling tolerance.
const epsilon = 1e-12

// Dist returns the euclidean distance between a and b.
func Dist(a, b Vec) float64 {
	return a.Sub(b).Length()
}

// Unit returns v scaled to length one. ok is false for a zero vector.
func Unit(v Vec) (u Vec, ok bool) {
	l := v.Length()
	if l < epsilon {
		return Vec{}, false
	}
	return v.MulScalar(1 / l), true
}

// AngleBetween returns the angle in radians between two directions.
func AngleBetween(a, b Vec) float64 {
	la, lb := a.Length(), b.Length()
	if la < epsilon || lb < epsilon {
		return 0
	}
	c := a.Dot(b) / (la * lb)
	return math.Acos(math.Max(-1, math.Min(1, c)))
}

// Bounds returns the axis-aligned box enclosing pts.
func Bounds(pts ...Vec) sdf.Box3 {
	if len(pts) == 0 {
		return sdf.Box3{}
	}
	bb := sdf.Box3{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		bb = bb.Include(p)
	}
	return bb
}

// Segment is a straight line segment between two points.
type Segment struct {
	A, B Vec
}

// Length returns the segment length.
func (s Segment) Length() float64 {
	return Dist(s.A, s.B)
}

// Ray is a half-line starting at Origin heading along Dir.
type Ray struct {
	Origin Vec
	Dir    Vec
}
