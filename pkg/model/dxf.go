package model

import (
	"github.com/chazu/bimzone/pkg/geom"
	"github.com/pkg/errors"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
)

// DXF layer names, one per output category.
const (
	LayerRooms             = "ROOMS"
	LayerApertures         = "APERTURES"
	LayerDoors             = "DOORS"
	LayerOrphanedApertures = "ORPHANED_APERTURES"
	LayerOrphanedDoors     = "ORPHANED_DOORS"
	LayerShades            = "SHADES"
	LayerContext           = "CONTEXT"
)

var dxfLayers = []struct {
	name  string
	color color.ColorNumber
}{
	{LayerRooms, color.White},
	{LayerApertures, color.Cyan},
	{LayerDoors, color.Yellow},
	{LayerOrphanedApertures, color.Blue},
	{LayerOrphanedDoors, color.Magenta},
	{LayerShades, color.Green},
	{LayerContext, color.Red},
}

// SaveDXF writes every polygon of the model as 3DFACE entities, one layer
// per category. Polygons with more than four vertices are triangulated.
func SaveDXF(path string, m *Model) error {
	d := dxf.NewDrawing()
	for _, l := range dxfLayers {
		if _, err := d.AddLayer(l.name, l.color, dxf.DefaultLineType, false); err != nil {
			return errors.Wrapf(err, "model: dxf layer %s", l.name)
		}
	}

	var faces, apertures, doors []geom.Face
	for _, r := range m.Rooms {
		for _, f := range r.Faces {
			faces = append(faces, f.Geometry)
			for _, a := range f.Apertures {
				apertures = append(apertures, a.Geometry)
			}
			for _, dr := range f.Doors {
				doors = append(doors, dr.Geometry)
			}
		}
	}
	groups := []struct {
		layer string
		faces []geom.Face
	}{
		{LayerRooms, faces},
		{LayerApertures, apertures},
		{LayerDoors, doors},
		{LayerOrphanedApertures, apertureGeometry(m.OrphanedApertures)},
		{LayerOrphanedDoors, doorGeometry(m.OrphanedDoors)},
		{LayerShades, shadeGeometry(m.Shades)},
		{LayerContext, shadeGeometry(m.OrphanedFaces)},
	}
	for _, g := range groups {
		if err := d.ChangeLayer(g.layer); err != nil {
			return errors.Wrapf(err, "model: dxf layer %s", g.layer)
		}
		for _, f := range g.faces {
			for _, quad := range dxfQuads(f) {
				if _, err := d.ThreeDFace(quad); err != nil {
					return errors.Wrap(err, "model: dxf 3dface")
				}
			}
		}
	}
	return errors.Wrapf(d.SaveAs(path), "model: write %s", path)
}

// dxfQuads splits a face into 3DFACE corner lists of three or four points.
func dxfQuads(f geom.Face) [][][]float64 {
	pt := func(v geom.Vec) []float64 { return []float64{v.X, v.Y, v.Z} }
	vs := f.Vertices()
	if len(vs) <= 4 {
		quad := make([][]float64, len(vs))
		for i, v := range vs {
			quad[i] = pt(v)
		}
		return [][][]float64{quad}
	}
	var out [][][]float64
	for _, t := range f.Triangles() {
		out = append(out, [][]float64{pt(t[0]), pt(t[1]), pt(t[2])})
	}
	return out
}
