// Package tessellate walks a converted model and produces triangle meshes
// using a kernel mesher. One mesh is produced per room, sub-face and shade.
package tessellate

import (
	"fmt"

	"github.com/chazu/bimzone/pkg/geom"
	"github.com/chazu/bimzone/pkg/kernel"
	"github.com/chazu/bimzone/pkg/kernel/sdfx"
	"github.com/chazu/bimzone/pkg/model"
	"github.com/samber/lo"
)

// Mesh categories.
const (
	CategoryRoom     = "room"
	CategoryAperture = "aperture"
	CategoryDoor     = "door"
	CategoryShade    = "shade"
	CategoryFace     = "face"
)

// part is one named polygon set awaiting triangulation.
type part struct {
	name     string
	category string
	faces    []geom.Face
}

// Tessellate produces one mesh per room (its boundary faces), per aperture
// and door (embedded or orphaned), per shade and per context face. The
// tessellator is read-only and never mutates the model.
func Tessellate(m *model.Model, k kernel.Mesher) ([]*kernel.Mesh, error) {
	if m == nil {
		return nil, nil
	}

	var meshes []*kernel.Mesh
	for _, p := range parts(m) {
		mesh, err := k.ToMesh(p.name, polygons(p.faces))
		if err != nil {
			return nil, fmt.Errorf("tessellate: ToMesh failed for %s: %w", p.name, err)
		}
		mesh.Category = p.category
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}

// Triangles returns every triangle of the model in mesh order.
func Triangles(m *model.Model, k kernel.Mesher) ([]kernel.Triangle, error) {
	var out []kernel.Triangle
	for _, p := range parts(m) {
		tris, err := k.Triangulate(polygons(p.faces))
		if err != nil {
			return nil, fmt.Errorf("tessellate: triangulate %s: %w", p.name, err)
		}
		out = append(out, tris...)
	}
	return out, nil
}

// SaveSTL writes the whole model as one binary STL file.
func SaveSTL(path string, m *model.Model) error {
	tris, err := Triangles(m, sdfx.New())
	if err != nil {
		return err
	}
	return sdfx.SaveSTL(path, tris)
}

func parts(m *model.Model) []part {
	var out []part
	for _, r := range m.Rooms {
		out = append(out, part{
			name:     r.Identifier,
			category: CategoryRoom,
			faces:    lo.Map(r.Faces, func(f model.Face, _ int) geom.Face { return f.Geometry }),
		})
		for _, f := range r.Faces {
			for _, a := range f.Apertures {
				out = append(out, part{a.Identifier, CategoryAperture, []geom.Face{a.Geometry}})
			}
			for _, d := range f.Doors {
				out = append(out, part{d.Identifier, CategoryDoor, []geom.Face{d.Geometry}})
			}
		}
	}
	for _, a := range m.OrphanedApertures {
		out = append(out, part{a.Identifier, CategoryAperture, []geom.Face{a.Geometry}})
	}
	for _, d := range m.OrphanedDoors {
		out = append(out, part{d.Identifier, CategoryDoor, []geom.Face{d.Geometry}})
	}
	for _, s := range m.Shades {
		out = append(out, part{s.Identifier, CategoryShade, []geom.Face{s.Geometry}})
	}
	for _, s := range m.OrphanedFaces {
		out = append(out, part{s.Identifier, CategoryFace, []geom.Face{s.Geometry}})
	}
	return out
}

func polygons(faces []geom.Face) []kernel.Polygon {
	return lo.Map(faces, func(f geom.Face, _ int) kernel.Polygon { return kernel.Polygon(f.Vertices()) })
}
