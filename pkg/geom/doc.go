// Package geom provides the planar polygon and polyface primitives used to
// simplify building elements and project openings onto room boundaries.
//
// Vectors are sdfx v3.Vec values. All comparisons take an explicit linear
// tolerance (length units) and, where orientation matters, an angular
// tolerance in radians.
package geom
