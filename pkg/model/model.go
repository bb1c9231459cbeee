// Package model holds the simplified room/aperture/shade model produced by
// the pipeline and writes it out as JSON or DXF.
package model

import (
	"fmt"
	"math"

	"github.com/chazu/bimzone/pkg/geom"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// FaceType classifies a room face by its orientation.
type FaceType int

const (
	FaceWall FaceType = iota
	FaceFloor
	FaceRoofCeiling
)

func (t FaceType) String() string {
	switch t {
	case FaceWall:
		return "Wall"
	case FaceFloor:
		return "Floor"
	case FaceRoofCeiling:
		return "RoofCeiling"
	}
	return fmt.Sprintf("FaceType(%d)", int(t))
}

// typingAngle is the cone around ±Z inside which a face counts as
// horizontal.
const typingAngle = 30 * math.Pi / 180

// TypeFromNormal classifies an outward normal: up is a roof or ceiling,
// down is a floor, anything else a wall.
func TypeFromNormal(n geom.Vec) FaceType {
	a := geom.AngleBetween(n, geom.Vec{X: 0, Y: 0, Z: 1})
	switch {
	case a <= typingAngle:
		return FaceRoofCeiling
	case a >= math.Pi-typingAngle:
		return FaceFloor
	}
	return FaceWall
}

// idNamespace seeds every identifier, so the same source GUID always maps
// to the same model identifier.
var idNamespace = uuid.MustParse("0b5f9a3e-6c2d-4f1a-8e7b-93d4c5a61f20")

// ID derives a readable, stable identifier such as "Aperture_1a2b3c4d".
func ID(prefix string, parts ...string) string {
	seed := prefix
	for _, p := range parts {
		seed += "/" + p
	}
	u := uuid.NewSHA1(idNamespace, []byte(seed))
	return fmt.Sprintf("%s_%s", prefix, u.String()[:8])
}

// Aperture is a window panel; Door is a door panel. Both are either
// children of a room face or orphaned at model level.
type Aperture struct {
	Identifier  string
	DisplayName string
	SourceGUID  string
	Geometry    geom.Face
}

// Door is a door panel.
type Door struct {
	Identifier  string
	DisplayName string
	SourceGUID  string
	Geometry    geom.Face
}

// Face is one boundary face of a room.
type Face struct {
	Identifier string
	Type       FaceType
	Geometry   geom.Face
	Apertures  []Aperture
	Doors      []Door
}

// Room is a closed zone built from a space element.
type Room struct {
	Identifier  string
	DisplayName string
	SourceGUID  string
	Story       string
	Faces       []Face
}

// ShadeKind records what a shade was made from.
type ShadeKind string

const (
	ShadeSlab    ShadeKind = "slab"
	ShadeColumn  ShadeKind = "column"
	ShadeContext ShadeKind = "wall"
)

// Shade is a standalone context polygon.
type Shade struct {
	Identifier string
	SourceGUID string
	Kind       ShadeKind
	Geometry   geom.Face
}

// Model is the converted building.
type Model struct {
	Name              string
	Rooms             []*Room
	OrphanedApertures []Aperture
	OrphanedDoors     []Door
	Shades            []Shade
	// OrphanedFaces are context faces from walls.
	OrphanedFaces []Shade
}

// New returns an empty model.
func New(name string) *Model {
	return &Model{Name: name}
}

// NewRoom builds a room from the outward faces of a space and types each
// face from its normal.
func NewRoom(guid, name string, faces []geom.Face) *Room {
	r := &Room{
		Identifier:  ID("Room", guid),
		DisplayName: name,
		SourceGUID:  guid,
	}
	if r.DisplayName == "" {
		r.DisplayName = guid
	}
	r.Faces = lo.Map(faces, func(f geom.Face, i int) Face {
		return Face{
			Identifier: ID("Face", guid, fmt.Sprint(i)),
			Type:       TypeFromNormal(f.Normal()),
			Geometry:   f,
		}
	})
	return r
}

// Room looks up a room by source GUID.
func (m *Model) Room(guid string) *Room {
	r, _ := lo.Find(m.Rooms, func(r *Room) bool { return r.SourceGUID == guid })
	return r
}

// MinZ is the lowest vertex height of the room.
func (r *Room) MinZ() float64 {
	z := math.Inf(1)
	for _, f := range r.Faces {
		for _, v := range f.Geometry.Vertices() {
			z = math.Min(z, v.Z)
		}
	}
	return z
}

// Counts summarises the model contents.
type Counts struct {
	Rooms             int
	Apertures         int
	Doors             int
	OrphanedApertures int
	OrphanedDoors     int
	Shades            int
	OrphanedFaces     int
}

// Counts tallies rooms, embedded and orphaned children, and context.
func (m *Model) Counts() Counts {
	c := Counts{
		Rooms:             len(m.Rooms),
		OrphanedApertures: len(m.OrphanedApertures),
		OrphanedDoors:     len(m.OrphanedDoors),
		Shades:            len(m.Shades),
		OrphanedFaces:     len(m.OrphanedFaces),
	}
	for _, r := range m.Rooms {
		for _, f := range r.Faces {
			c.Apertures += len(f.Apertures)
			c.Doors += len(f.Doors)
		}
	}
	return c
}

func apertureGeometry(as []Aperture) []geom.Face {
	return lo.Map(as, func(a Aperture, _ int) geom.Face { return a.Geometry })
}

func doorGeometry(ds []Door) []geom.Face {
	return lo.Map(ds, func(d Door, _ int) geom.Face { return d.Geometry })
}

func shadeGeometry(ss []Shade) []geom.Face {
	return lo.Map(ss, func(s Shade, _ int) geom.Face { return s.Geometry })
}
