// Package scene is a file-backed kernel.Document. A scene lists building
// elements with their placement, opening relation and boundary polygons in
// file units; it is read from JSON or msgpack and never mutated by the
// conversion pipeline.
package scene

import (
	"github.com/chazu/bimzone/pkg/kernel"
	"github.com/chazu/bimzone/pkg/kernel/sdfx"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Node is one element record.
type Node struct {
	GUID           string         `json:"guid"`
	Kind           string         `json:"kind"`
	Name           string         `json:"name,omitempty"`
	PredefinedType string         `json:"predefined_type,omitempty"`
	Placement      [3]float64     `json:"placement"`
	Fills          string         `json:"fills,omitempty"`
	Faces          [][][3]float64 `json:"faces"`
}

// Scene is an ordered element collection.
type Scene struct {
	Title string `json:"name"`
	// Scale converts file units to meters. Zero means meters.
	Scale float64 `json:"unit_scale,omitempty"`
	Nodes []*Node `json:"elements"`

	index  map[string]int
	mesher kernel.Mesher
}

// Compile-time interface check.
var _ kernel.Document = (*Scene)(nil)

// New creates an empty scene in meters.
func New(title string) *Scene {
	s := &Scene{Title: title, Nodes: []*Node{}}
	s.reindex()
	return s
}

// Add appends a node. It does not check for duplicates; Validate does.
func (s *Scene) Add(n *Node) {
	if s.index == nil {
		s.reindex()
	}
	s.Nodes = append(s.Nodes, n)
	if _, ok := s.index[n.GUID]; !ok {
		s.index[n.GUID] = len(s.Nodes) - 1
	}
}

// Lookup returns the first node with the given GUID, or nil.
func (s *Scene) Lookup(guid string) *Node {
	i, ok := s.index[guid]
	if !ok {
		return nil
	}
	return s.Nodes[i]
}

// Len returns the number of nodes.
func (s *Scene) Len() int {
	return len(s.Nodes)
}

func (s *Scene) reindex() {
	s.index = make(map[string]int, len(s.Nodes))
	for i, n := range s.Nodes {
		if _, ok := s.index[n.GUID]; !ok {
			s.index[n.GUID] = i
		}
	}
	if s.mesher == nil {
		s.mesher = sdfx.New()
	}
}

// ---------------------------------------------------------------------------
// kernel.Document
// ---------------------------------------------------------------------------

// Name identifies the model.
func (s *Scene) Name() string { return s.Title }

// UnitScale converts file units to meters.
func (s *Scene) UnitScale() float64 {
	if s.Scale == 0 {
		return 1
	}
	return s.Scale
}

// Elements returns nodes of the given kinds in file order. Nodes with an
// unknown kind are skipped; Validate reports them.
func (s *Scene) Elements(kinds ...kernel.ElementKind) []kernel.Element {
	out := []kernel.Element{}
	for _, n := range s.Nodes {
		e, err := n.element()
		if err != nil {
			continue
		}
		if len(kinds) == 0 || lo.Contains(kinds, e.Kind) {
			out = append(out, e)
		}
	}
	return out
}

// Element looks up an element by GUID.
func (s *Scene) Element(guid string) (kernel.Element, bool) {
	n := s.Lookup(guid)
	if n == nil {
		return kernel.Element{}, false
	}
	e, err := n.element()
	if err != nil {
		return kernel.Element{}, false
	}
	return e, true
}

// FilledOpening resolves the opening a window or door fills.
func (s *Scene) FilledOpening(e kernel.Element) (kernel.Element, error) {
	if e.Fills == "" {
		return kernel.Element{}, errors.Wrapf(kernel.ErrNoFilledVoid, "%s %s", e.Kind, e.GUID)
	}
	o, ok := s.Element(e.Fills)
	if !ok {
		return kernel.Element{}, errors.Wrapf(kernel.ErrUnknownElement, "opening %s filled by %s", e.Fills, e.GUID)
	}
	if o.Kind != kernel.KindOpening {
		return kernel.Element{}, errors.Wrapf(kernel.ErrNoFilledVoid, "%s fills %s which is a %s", e.GUID, o.GUID, o.Kind)
	}
	return o, nil
}

// Shape extracts an element's polygons in meters. Brep returns the stored
// faces; otherwise they are triangulated.
func (s *Scene) Shape(e kernel.Element, settings kernel.Settings) (kernel.Shape, error) {
	n := s.Lookup(e.GUID)
	if n == nil {
		return nil, errors.Wrap(kernel.ErrUnknownElement, e.GUID)
	}
	if len(n.Faces) == 0 {
		return nil, errors.Wrapf(kernel.ErrNoGeometry, "%s %s", e.Kind, e.GUID)
	}

	scale := s.UnitScale()
	origin := toVec(n.Placement)
	polys := make([]kernel.Polygon, 0, len(n.Faces))
	for _, f := range n.Faces {
		poly := make(kernel.Polygon, len(f))
		for i, p := range f {
			v := toVec(p)
			if !settings.WorldCoords {
				v = v.Sub(origin)
			}
			poly[i] = v.MulScalar(scale)
		}
		polys = append(polys, poly)
	}

	if !settings.Brep {
		tris, err := s.mesher.Triangulate(polys)
		if err != nil {
			return nil, errors.Wrapf(err, "triangulate %s", e.GUID)
		}
		polys = lo.Map(tris, func(t kernel.Triangle, _ int) kernel.Polygon { return kernel.Polygon(t[:]) })
	}
	return &shape{guid: e.GUID, faces: polys}, nil
}

type shape struct {
	guid  string
	faces []kernel.Polygon
}

func (s *shape) GUID() string             { return s.guid }
func (s *shape) Faces() []kernel.Polygon { return s.faces }

func (n *Node) element() (kernel.Element, error) {
	k, err := kernel.ParseElementKind(n.Kind)
	if err != nil {
		return kernel.Element{}, err
	}
	return kernel.Element{
		GUID:           n.GUID,
		Kind:           k,
		Name:           n.Name,
		PredefinedType: n.PredefinedType,
		Placement:      toVec(n.Placement),
		Fills:          n.Fills,
	}, nil
}

func toVec(p [3]float64) v3.Vec {
	return v3.Vec{X: p[0], Y: p[1], Z: p[2]}
}

// FromVec converts a vector into a node coordinate.
func FromVec(v v3.Vec) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

// FacesFromPolygons converts polygons into node face records.
func FacesFromPolygons(polys []kernel.Polygon) [][][3]float64 {
	return lo.Map(polys, func(p kernel.Polygon, _ int) [][3]float64 {
		return lo.Map(p, func(v v3.Vec, _ int) [3]float64 { return FromVec(v) })
	})
}
