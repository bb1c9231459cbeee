// Package sdfx implements the kernel.Mesher interface with the
// github.com/deadsy/sdfx geometry types, and writes STL files through the
// sdfx renderer.
package sdfx

import (
	"github.com/chazu/bimzone/pkg/geom"
	"github.com/chazu/bimzone/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Compile-time interface check.
var _ kernel.Mesher = (*SdfxMesher)(nil)

// SdfxMesher triangulates planar polygons.
type SdfxMesher struct{}

// New returns a new SdfxMesher.
func New() *SdfxMesher {
	return &SdfxMesher{}
}

// Triangulate splits each polygon into triangles keeping its winding.
// Degenerate polygons are an error so callers never lose faces silently.
func (m *SdfxMesher) Triangulate(polys []kernel.Polygon) ([]kernel.Triangle, error) {
	var out []kernel.Triangle
	for i, p := range polys {
		f, err := geom.NewFace(p)
		if err != nil {
			return nil, errors.Wrapf(err, "sdfx: polygon %d", i)
		}
		for _, t := range f.Triangles() {
			out = append(out, kernel.Triangle(t))
		}
	}
	return out, nil
}

// ToMesh converts polygons to a flat render mesh with per-face normals.
func (m *SdfxMesher) ToMesh(name string, polys []kernel.Polygon) (*kernel.Mesh, error) {
	tris, err := m.Triangulate(polys)
	if err != nil {
		return nil, err
	}
	triangles := toTriangle3(tris)

	numVerts := len(triangles) * 3
	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		// Compute face normal.
		n := tri.Normal()
		nx := float32(n.X)
		ny := float32(n.Y)
		nz := float32(n.Z)

		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
		Name:     name,
	}, nil
}

// Bounds returns the box enclosing all triangles.
func Bounds(tris []kernel.Triangle) sdf.Box3 {
	pts := lo.FlatMap(tris, func(t kernel.Triangle, _ int) []geom.Vec { return t[:] })
	return geom.Bounds(pts...)
}

// SaveSTL writes the triangles as a binary STL file.
func SaveSTL(path string, tris []kernel.Triangle) error {
	if len(tris) == 0 {
		return errors.New("sdfx: no triangles to write")
	}
	if err := render.SaveSTL(path, toTriangle3(tris)); err != nil {
		return errors.Wrapf(err, "sdfx: write %s", path)
	}
	return nil
}

func toTriangle3(tris []kernel.Triangle) []*sdf.Triangle3 {
	return lo.Map(tris, func(t kernel.Triangle, _ int) *sdf.Triangle3 {
		st := sdf.Triangle3(t)
		return &st
	})
}
