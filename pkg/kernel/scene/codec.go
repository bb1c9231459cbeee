package scene

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/bimzone/pkg/kernel"
	"github.com/pkg/errors"
	"github.com/ugorji/go/codec"
)

// Format is a scene serialization.
type Format int

const (
	FormatJSON Format = iota
	FormatMsgpack
)

// FormatForPath picks the serialization from a file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".msgpack", ".mpk":
		return FormatMsgpack, nil
	}
	return 0, errors.Errorf("scene: unsupported file extension %q", filepath.Ext(path))
}

func handle(f Format) codec.Handle {
	switch f {
	case FormatMsgpack:
		h := &codec.MsgpackHandle{}
		h.WriteExt = true
		return h
	default:
		h := &codec.JsonHandle{}
		h.Indent = 2
		return h
	}
}

// Decode reads a scene.
func Decode(r io.Reader, f Format) (*Scene, error) {
	s := &Scene{}
	if err := codec.NewDecoder(r, handle(f)).Decode(s); err != nil {
		return nil, errors.Wrap(err, "scene: decode")
	}
	if s.Nodes == nil {
		s.Nodes = []*Node{}
	}
	s.reindex()
	return s, nil
}

// Encode writes a scene.
func Encode(w io.Writer, s *Scene, f Format) error {
	return errors.Wrap(codec.NewEncoder(w, handle(f)).Encode(s), "scene: encode")
}

// Load reads a scene file, choosing the format from its extension.
func Load(path string) (*Scene, error) {
	f, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "scene: open")
	}
	defer fh.Close()
	s, err := Decode(fh, f)
	if err != nil {
		return nil, errors.Wrapf(err, "scene: %s", path)
	}
	if s.Title == "" {
		s.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

// Save writes a scene file, choosing the format from its extension.
func Save(path string, s *Scene) error {
	f, err := FormatForPath(path)
	if err != nil {
		return err
	}
	fh, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "scene: create")
	}
	if err := Encode(fh, s, f); err != nil {
		fh.Close()
		return err
	}
	return errors.Wrap(fh.Close(), "scene: close")
}

// Kernel loads scene files as kernel documents.
type Kernel struct{}

// Compile-time interface check.
var _ kernel.Kernel = Kernel{}

// Load implements kernel.Kernel.
func (Kernel) Load(path string) (kernel.Document, error) {
	s, err := Load(path)
	if err != nil {
		return nil, err
	}
	return s, nil
}
