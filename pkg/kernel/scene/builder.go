package scene

import (
	"github.com/chazu/bimzone/pkg/geom"
	"github.com/chazu/bimzone/pkg/kernel"
	"github.com/samber/lo"
)

// BoxNode builds a node whose geometry is the axis-aligned box min..max.
// The placement defaults to the box center projected to its bottom face,
// which is where building kernels put an opening's origin.
func BoxNode(guid string, kind kernel.ElementKind, min, max geom.Vec) (*Node, error) {
	faces, err := geom.BoxFaces(min, max)
	if err != nil {
		return nil, err
	}
	return &Node{
		GUID:      guid,
		Kind:      kind.String(),
		Placement: [3]float64{(min.X + max.X) / 2, (min.Y + max.Y) / 2, min.Z},
		Faces:     FacesFromFaces(faces),
	}, nil
}

// FacesFromFaces converts geometry faces into node face records.
func FacesFromFaces(faces []geom.Face) [][][3]float64 {
	return FacesFromPolygons(lo.Map(faces, func(f geom.Face, _ int) kernel.Polygon { return f.Vertices() }))
}
