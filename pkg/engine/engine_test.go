package engine

import (
	"strings"
	"sync"
	"testing"

	"github.com/chazu/bimzone/pkg/kernel"
)

// storey declares one of every element kind around a single room.
const storey = `
(scene-name "Storey")
(space "room" (box (vec3 0 0 0) (vec3 5 4 3)) :name "Office")
(wall "wall-s" (box (vec3 0 -0.25 0) (vec3 5 0 3)))
(slab "floor" (box (vec3 0 -0.25 -0.2) (vec3 5 4 0)))
(column "pillar" (box (vec3 6 6 0) (vec3 6.3 6.3 3)))
(def op1 (opening "void-w" (box (vec3 1 -0.25 0.9) (vec3 2.2 0 2.1))))
(window "glass" (box (vec3 1 -0.15 0.9) (vec3 2.2 -0.1 2.1)) :fills op1)
(def op2 (opening "void-d" (box (vec3 3 -0.25 0) (vec3 4 0 2.1))))
(door "entry" (box (vec3 3 -0.17 0) (vec3 4 -0.08 2.1)) :fills op2)
`

func TestEvaluateBuildsEveryKind(t *testing.T) {
	s, evalErrs, err := NewEngine().Evaluate(storey)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if s.Name() != "Storey" {
		t.Errorf("name = %q, want Storey", s.Name())
	}

	want := map[string]kernel.ElementKind{
		"room":   kernel.KindSpace,
		"wall-s": kernel.KindWall,
		"floor":  kernel.KindSlab,
		"pillar": kernel.KindColumn,
		"void-w": kernel.KindOpening,
		"glass":  kernel.KindWindow,
		"void-d": kernel.KindOpening,
		"entry":  kernel.KindDoor,
	}
	if s.Len() != len(want) {
		t.Fatalf("expected %d elements, got %d", len(want), s.Len())
	}
	for guid, kind := range want {
		e, ok := s.Element(guid)
		if !ok {
			t.Errorf("missing element %s", guid)
			continue
		}
		if e.Kind != kind {
			t.Errorf("%s kind = %s, want %s", guid, e.Kind, kind)
		}
	}

	openers := s.Elements(kernel.KindWindow, kernel.KindDoor)
	if len(openers) != 2 || openers[0].GUID != "glass" || openers[1].GUID != "entry" {
		t.Fatalf("expected glass then entry, got %v", openers)
	}
	for _, e := range openers {
		op, err := s.FilledOpening(e)
		if err != nil {
			t.Errorf("%s: %v", e.GUID, err)
			continue
		}
		if !strings.HasPrefix(op.GUID, "void-") {
			t.Errorf("%s fills %s", e.GUID, op.GUID)
		}
	}
}

func TestEvaluateShapes(t *testing.T) {
	s, _, err := NewEngine().Evaluate(storey)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	room, _ := s.Element("room")

	brep, err := s.Shape(room, kernel.Settings{WorldCoords: true, Brep: true})
	if err != nil {
		t.Fatalf("Shape: %v", err)
	}
	if len(brep.Faces()) != 6 {
		t.Errorf("expected 6 boundary faces, got %d", len(brep.Faces()))
	}
	for _, f := range brep.Faces() {
		if len(f) != 4 {
			t.Errorf("expected quads, got %d vertices", len(f))
		}
	}

	mesh, err := s.Shape(room, kernel.Settings{WorldCoords: true})
	if err != nil {
		t.Fatalf("Shape: %v", err)
	}
	if len(mesh.Faces()) != 12 {
		t.Errorf("expected 12 triangles, got %d", len(mesh.Faces()))
	}

	glass, _ := s.Element("glass")
	shape, err := s.Shape(glass, kernel.Settings{WorldCoords: true, Brep: true})
	if err != nil {
		t.Fatalf("Shape: %v", err)
	}
	for _, f := range shape.Faces() {
		for _, p := range f {
			if p.Y < -0.15-1e-9 || p.Y > -0.1+1e-9 {
				t.Errorf("window vertex %v outside its box", p)
			}
		}
	}
}

func TestEvaluateStartsFromEmptyScene(t *testing.T) {
	eng := NewEngine()
	if _, _, err := eng.Evaluate(storey); err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	s, evalErrs, err := eng.Evaluate(`(slab "roof" (box (vec3 0 0 3) (vec3 5 4 3.2)))`)
	if err != nil || len(evalErrs) > 0 {
		t.Fatalf("evaluate: %v %v", err, evalErrs)
	}
	if s.Len() != 1 || s.Lookup("roof") == nil {
		t.Errorf("expected only the roof slab, got %d nodes", s.Len())
	}
	if s.Title != "" {
		t.Errorf("title %q leaked from the previous run", s.Title)
	}
}

func TestEvaluateBlankSources(t *testing.T) {
	for _, src := range []string{"", "  \n\t", "; nothing here\n"} {
		s, evalErrs, err := NewEngine().Evaluate(src)
		if err != nil || len(evalErrs) > 0 {
			t.Fatalf("%q: %v %v", src, err, evalErrs)
		}
		if s == nil || s.Len() != 0 {
			t.Errorf("%q: expected an empty scene", src)
		}
	}
}

func TestEvaluateBrokenScript(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"unclosed element", "(space \"a\" (box (vec3 0 0 0) (vec3 1 1 1)))\n(space \"b\" (box (vec3 0 0 0)"},
		{"unknown opening", `(window "w" (box (vec3 0 0 0) (vec3 1 1 1)) :fills no-such-void)`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, evalErrs, err := NewEngine().Evaluate(tt.source)
			if err != nil {
				t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
			}
			if s != nil {
				t.Fatal("a failing script must not return a partial scene")
			}
			if len(evalErrs) == 0 || evalErrs[0].Message == "" {
				t.Fatalf("expected a described eval error, got %v", evalErrs)
			}
		})
	}
}

func TestEvalErrorFormat(t *testing.T) {
	if got := (EvalError{Line: 3, Message: "bad box"}).Error(); got != "line 3: bad box" {
		t.Errorf("got %q", got)
	}
	if got := (EvalError{Message: "bad box"}).Error(); got != "bad box" {
		t.Errorf("got %q", got)
	}
}

func TestParseZygomysError(t *testing.T) {
	tests := []struct {
		msg      string
		wantLine int
		wantMsg  string
	}{
		{"Error on line 5: unexpected token\n", 5, "unexpected token"},
		{"line 12: box needs two corners", 12, "box needs two corners"},
		{"window requires a geometry", 0, "window requires a geometry"},
	}
	for _, tt := range tests {
		errs := parseZygomysError(errString(tt.msg))
		if len(errs) != 1 {
			t.Fatalf("%q: expected one error, got %v", tt.msg, errs)
		}
		if errs[0].Line != tt.wantLine || errs[0].Message != tt.wantMsg {
			t.Errorf("%q: got line %d %q", tt.msg, errs[0].Line, errs[0].Message)
		}
	}
}

func TestStaleResultIsDiscarded(t *testing.T) {
	var mu sync.Mutex
	gen := uint64(2)
	ch := make(chan evalResult, 1)
	ch <- evalResult{}

	if _, _, err := waitWithTimeout(ch, 1, &mu, &gen); err == nil || !strings.Contains(err.Error(), "superseded") {
		t.Errorf("expected superseded error, got %v", err)
	}
}

type errString string

func (e errString) Error() string { return string(e) }
