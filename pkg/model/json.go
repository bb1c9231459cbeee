package model

import (
	"io"
	"os"

	"github.com/chazu/bimzone/pkg/geom"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/ugorji/go/codec"
)

// Document is the serialized form of a Model, loosely following the
// Honeybee JSON schema.
type Document struct {
	Type              string       `json:"type"`
	Identifier        string       `json:"identifier"`
	Units             string       `json:"units"`
	Rooms             []RoomDoc    `json:"rooms"`
	OrphanedApertures []SubFaceDoc `json:"orphaned_apertures,omitempty"`
	OrphanedDoors     []SubFaceDoc `json:"orphaned_doors,omitempty"`
	Shades            []ShadeDoc   `json:"orphaned_shades,omitempty"`
	OrphanedFaces     []ShadeDoc   `json:"orphaned_faces,omitempty"`
}

// RoomDoc is a serialized room.
type RoomDoc struct {
	Type        string    `json:"type"`
	Identifier  string    `json:"identifier"`
	DisplayName string    `json:"display_name"`
	Story       string    `json:"story,omitempty"`
	SourceGUID  string    `json:"source_guid"`
	Faces       []FaceDoc `json:"faces"`
}

// FaceDoc is a serialized room face.
type FaceDoc struct {
	Type       string       `json:"type"`
	Identifier string       `json:"identifier"`
	FaceType   string       `json:"face_type"`
	Geometry   Face3D       `json:"geometry"`
	Apertures  []SubFaceDoc `json:"apertures,omitempty"`
	Doors      []SubFaceDoc `json:"doors,omitempty"`
}

// SubFaceDoc is a serialized aperture or door.
type SubFaceDoc struct {
	Type        string `json:"type"`
	Identifier  string `json:"identifier"`
	DisplayName string `json:"display_name,omitempty"`
	SourceGUID  string `json:"source_guid"`
	Geometry    Face3D `json:"geometry"`
}

// ShadeDoc is a serialized shade or context face.
type ShadeDoc struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
	SourceGUID string `json:"source_guid"`
	Source     string `json:"source"`
	Geometry   Face3D `json:"geometry"`
}

// Face3D is a planar polygon boundary.
type Face3D struct {
	Type     string       `json:"type"`
	Boundary [][3]float64 `json:"boundary"`
}

func face3D(f geom.Face) Face3D {
	return Face3D{
		Type: "Face3D",
		Boundary: lo.Map(f.Vertices(), func(v geom.Vec, _ int) [3]float64 {
			return [3]float64{v.X, v.Y, v.Z}
		}),
	}
}

func apertureDoc(a Aperture) SubFaceDoc {
	return SubFaceDoc{Type: "Aperture", Identifier: a.Identifier, DisplayName: a.DisplayName, SourceGUID: a.SourceGUID, Geometry: face3D(a.Geometry)}
}

func doorDoc(d Door) SubFaceDoc {
	return SubFaceDoc{Type: "Door", Identifier: d.Identifier, DisplayName: d.DisplayName, SourceGUID: d.SourceGUID, Geometry: face3D(d.Geometry)}
}

func shadeDoc(s Shade) ShadeDoc {
	return ShadeDoc{Type: "Shade", Identifier: s.Identifier, SourceGUID: s.SourceGUID, Source: string(s.Kind), Geometry: face3D(s.Geometry)}
}

// ToDocument converts the model to its serialized form.
func ToDocument(m *Model) Document {
	return Document{
		Type:       "Model",
		Identifier: m.Name,
		Units:      "Meters",
		Rooms: lo.Map(m.Rooms, func(r *Room, _ int) RoomDoc {
			return RoomDoc{
				Type:        "Room",
				Identifier:  r.Identifier,
				DisplayName: r.DisplayName,
				Story:       r.Story,
				SourceGUID:  r.SourceGUID,
				Faces: lo.Map(r.Faces, func(f Face, _ int) FaceDoc {
					return FaceDoc{
						Type:       "Face",
						Identifier: f.Identifier,
						FaceType:   f.Type.String(),
						Geometry:   face3D(f.Geometry),
						Apertures:  lo.Map(f.Apertures, func(a Aperture, _ int) SubFaceDoc { return apertureDoc(a) }),
						Doors:      lo.Map(f.Doors, func(d Door, _ int) SubFaceDoc { return doorDoc(d) }),
					}
				}),
			}
		}),
		OrphanedApertures: lo.Map(m.OrphanedApertures, func(a Aperture, _ int) SubFaceDoc { return apertureDoc(a) }),
		OrphanedDoors:     lo.Map(m.OrphanedDoors, func(d Door, _ int) SubFaceDoc { return doorDoc(d) }),
		Shades:            lo.Map(m.Shades, func(s Shade, _ int) ShadeDoc { return shadeDoc(s) }),
		OrphanedFaces:     lo.Map(m.OrphanedFaces, func(s Shade, _ int) ShadeDoc { return shadeDoc(s) }),
	}
}

func jsonHandle() *codec.JsonHandle {
	h := &codec.JsonHandle{}
	h.Indent = 2
	return h
}

// WriteJSON encodes the model.
func WriteJSON(w io.Writer, m *Model) error {
	doc := ToDocument(m)
	return errors.Wrap(codec.NewEncoder(w, jsonHandle()).Encode(&doc), "model: encode json")
}

// ReadJSON decodes a document written by WriteJSON.
func ReadJSON(r io.Reader) (*Document, error) {
	doc := &Document{}
	if err := codec.NewDecoder(r, jsonHandle()).Decode(doc); err != nil {
		return nil, errors.Wrap(err, "model: decode json")
	}
	return doc, nil
}

// SaveJSON writes the model to path.
func SaveJSON(path string, m *Model) error {
	fh, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "model: create")
	}
	if err := WriteJSON(fh, m); err != nil {
		fh.Close()
		return err
	}
	return errors.Wrap(fh.Close(), "model: close")
}
