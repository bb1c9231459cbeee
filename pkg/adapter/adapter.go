// Package adapter turns kernel shapes into geom faces and polyfaces. It is
// the only place the pipeline touches raw kernel geometry.
package adapter

import (
	"github.com/chazu/bimzone/pkg/geom"
	"github.com/chazu/bimzone/pkg/kernel"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Brep extracts solids in world coordinates without triangulation. This is
// the setting used for openings, windows, doors and rooms.
var Brep = kernel.Settings{WorldCoords: true, Brep: true}

// Mesh extracts triangulated world geometry, as used for the spatial index
// and context elements.
var Mesh = kernel.Settings{WorldCoords: true}

// Faces returns the planar faces of an element's shape. Polygons that
// collapse to zero area are dropped; an element with no usable face
// returns kernel.ErrNoGeometry.
func Faces(doc kernel.Document, e kernel.Element, s kernel.Settings) ([]geom.Face, error) {
	shape, err := doc.Shape(e, s)
	if err != nil {
		return nil, errors.Wrapf(err, "adapter: shape of %s %s", e.Kind, e.GUID)
	}
	faces := lo.FilterMap(shape.Faces(), func(p kernel.Polygon, _ int) (geom.Face, bool) {
		f, err := geom.NewFace(p)
		return f, err == nil
	})
	if len(faces) == 0 {
		return nil, errors.Wrapf(kernel.ErrNoGeometry, "adapter: %s %s has no usable faces", e.Kind, e.GUID)
	}
	return faces, nil
}

// Polyface builds an outward-oriented polyface for an element. A closed
// shell with inverted winding is flipped as a whole; an open one is
// repaired face by face.
func Polyface(doc kernel.Document, e kernel.Element, s kernel.Settings, tol float64) (geom.Polyface, error) {
	faces, err := Faces(doc, e, s)
	if err != nil {
		return geom.Polyface{}, err
	}
	return geom.NewPolyface(faces, tol).Normalized(tol), nil
}

// Triangles returns the element's mesh-quality triangles.
func Triangles(doc kernel.Document, e kernel.Element) ([][3]geom.Vec, error) {
	faces, err := Faces(doc, e, Mesh)
	if err != nil {
		return nil, err
	}
	return lo.FlatMap(faces, func(f geom.Face, _ int) [][3]geom.Vec { return f.Triangles() }), nil
}
