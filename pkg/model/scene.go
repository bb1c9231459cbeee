package model

import (
	"github.com/chazu/bimzone/pkg/geom"
	"github.com/chazu/bimzone/pkg/kernel"
	"github.com/chazu/bimzone/pkg/kernel/scene"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// ToScene writes the model back as a building scene: every room becomes a
// space bounded by its faces, every aperture a window, every door a door
// and every shade a one-face element of the kind it was made from. Node
// GUIDs are the model identifiers and apertures and doors fill no opening,
// so reconverting the scene reproduces only the rooms and shades.
func ToScene(m *Model) *scene.Scene {
	s := scene.New(m.Name)
	panel := func(kind kernel.ElementKind, id, name string, f geom.Face) {
		s.Add(&scene.Node{
			GUID:      id,
			Kind:      kind.String(),
			Name:      name,
			Placement: scene.FromVec(f.Center()),
			Faces:     scene.FacesFromFaces([]geom.Face{f}),
		})
	}

	for _, r := range m.Rooms {
		faces := lo.Map(r.Faces, func(f Face, _ int) geom.Face { return f.Geometry })
		s.Add(&scene.Node{
			GUID:      r.Identifier,
			Kind:      kernel.KindSpace.String(),
			Name:      r.DisplayName,
			Placement: scene.FromVec(roomOrigin(faces)),
			Faces:     scene.FacesFromFaces(faces),
		})
	}
	for _, r := range m.Rooms {
		for _, f := range r.Faces {
			for _, a := range f.Apertures {
				panel(kernel.KindWindow, a.Identifier, a.DisplayName, a.Geometry)
			}
			for _, d := range f.Doors {
				panel(kernel.KindDoor, d.Identifier, d.DisplayName, d.Geometry)
			}
		}
	}
	for _, a := range m.OrphanedApertures {
		panel(kernel.KindWindow, a.Identifier, a.DisplayName, a.Geometry)
	}
	for _, d := range m.OrphanedDoors {
		panel(kernel.KindDoor, d.Identifier, d.DisplayName, d.Geometry)
	}
	for _, sh := range append(append([]Shade(nil), m.Shades...), m.OrphanedFaces...) {
		panel(shadeElementKind(sh.Kind), sh.Identifier, sh.SourceGUID, sh.Geometry)
	}
	return s
}

// SaveScene writes the model as a scene file; the extension picks the
// format.
func SaveScene(path string, m *Model) error {
	return errors.Wrap(scene.Save(path, ToScene(m)), "model: save scene")
}

func shadeElementKind(k ShadeKind) kernel.ElementKind {
	switch k {
	case ShadeColumn:
		return kernel.KindColumn
	case ShadeContext:
		return kernel.KindWall
	}
	return kernel.KindSlab
}

// roomOrigin is the bottom center of the faces' bounding box.
func roomOrigin(faces []geom.Face) geom.Vec {
	pts := lo.FlatMap(faces, func(f geom.Face, _ int) []geom.Vec { return f.Vertices() })
	if len(pts) == 0 {
		return geom.Vec{}
	}
	b := geom.Bounds(pts...)
	c := b.Center()
	return geom.Vec{X: c.X, Y: c.Y, Z: b.Min.Z}
}
