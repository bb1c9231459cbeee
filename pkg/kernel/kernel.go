// Package kernel defines the abstract BIM geometry kernel interface.
// Implementations (scene files, the Lisp scene engine) load a building
// document and hand out per-element planar polygons behind this interface,
// so the conversion pipeline never depends on a file format.
package kernel

import (
	"fmt"
	"strings"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/pkg/errors"
)

var (
	// ErrNoFilledVoid is returned when a window or door has no opening
	// relation.
	ErrNoFilledVoid = errors.New("kernel: element does not fill an opening")
	// ErrUnknownElement is returned for GUIDs missing from the document.
	ErrUnknownElement = errors.New("kernel: unknown element")
	// ErrNoGeometry is returned for elements without a shape.
	ErrNoGeometry = errors.New("kernel: element has no geometry")
)

// ElementKind enumerates the building elements the pipeline understands.
type ElementKind int

const (
	KindSpace   ElementKind = iota // enclosed room or zone
	KindWindow                     // glazed opening filler
	KindDoor                       // door opening filler
	KindSlab                       // floor, roof or landing slab
	KindWall                       // wall solid, exported as context
	KindOpening                    // void cut into a host wall or slab
	KindColumn                     // column, exported as shade
)

var kindNames = [...]string{"space", "window", "door", "slab", "wall", "opening", "column"}

func (k ElementKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("ElementKind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseElementKind maps a case-insensitive kind name to its ElementKind.
func ParseElementKind(s string) (ElementKind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range kindNames {
		if n == name {
			return ElementKind(i), nil
		}
	}
	return 0, errors.Errorf("kernel: unknown element kind %q", s)
}

// Element is a read-only handle to one building object.
type Element struct {
	GUID           string
	Kind           ElementKind
	Name           string
	PredefinedType string
	// Placement is the object placement origin in file units. For openings
	// it is nominally the midpoint of the bottom edge.
	Placement v3.Vec
	// Fills is the GUID of the opening a window or door fills.
	Fills string
}

// Polygon is a planar face boundary in order, without a closing vertex.
type Polygon []v3.Vec

// Settings selects how a shape is extracted.
type Settings struct {
	// WorldCoords returns coordinates in the world frame rather than
	// relative to the element placement.
	WorldCoords bool
	// Brep returns the precise boundary faces. When false the faces are
	// triangulated.
	Brep bool
}

// Shape is the extracted geometry of one element, in meters.
type Shape interface {
	GUID() string
	Faces() []Polygon
}

// Document is a loaded building model. Implementations must be safe for
// concurrent readers.
type Document interface {
	// Name identifies the model.
	Name() string
	// Elements returns the elements of the given kinds in document order.
	// With no kinds, every element is returned.
	Elements(kinds ...ElementKind) []Element
	// Element looks up an element by GUID.
	Element(guid string) (Element, bool)
	// Shape extracts the element geometry.
	Shape(e Element, s Settings) (Shape, error)
	// UnitScale converts file length units to meters.
	UnitScale() float64
	// FilledOpening resolves the opening a window or door fills.
	FilledOpening(e Element) (Element, error)
}

// Kernel loads documents from disk.
type Kernel interface {
	Load(path string) (Document, error)
}

// Triangle is one mesh triangle with counter-clockwise winding.
type Triangle [3]v3.Vec

// Mesher turns polygons into triangles and render meshes.
type Mesher interface {
	Triangulate(polys []Polygon) ([]Triangle, error)
	ToMesh(name string, polys []Polygon) (*Mesh, error)
}
