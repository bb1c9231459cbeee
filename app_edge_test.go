package main

import (
	"strings"
	"testing"

	"github.com/chazu/bimzone/pkg/config"
	"github.com/chazu/bimzone/pkg/tessellate"
)

// ---------------------------------------------------------------------------
// 1. Empty script: empty string -> 0 meshes, 0 errors, non-nil slices.
// ---------------------------------------------------------------------------

func TestE2EEmptySourceExtended(t *testing.T) {
	app := NewApp(nil)
	result := app.Evaluate("", config.Default())

	if len(result.Errors) != 0 {
		t.Errorf("expected 0 errors for empty source, got %d", len(result.Errors))
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes for empty source, got %d", len(result.Meshes))
	}
	if len(result.Warnings) != 0 {
		t.Errorf("expected 0 warnings for empty source, got %d", len(result.Warnings))
	}
	// JSON should serialize as [] not null.
	if result.Meshes == nil {
		t.Error("Meshes should be non-nil empty slice, got nil")
	}
	if result.Errors == nil {
		t.Error("Errors should be non-nil empty slice, got nil")
	}
	if result.Warnings == nil {
		t.Error("Warnings should be non-nil empty slice, got nil")
	}
}

// ---------------------------------------------------------------------------
// 2. Syntax errors carry a message and produce no meshes.
// ---------------------------------------------------------------------------

func TestE2ESyntaxErrorWithLineInfo(t *testing.T) {
	app := NewApp(nil)

	source := "(+ 1 2)\n(space \"room\""
	result := app.Evaluate(source, config.Default())

	if len(result.Errors) == 0 {
		t.Fatal("expected at least one eval error for unmatched parens")
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes on syntax error, got %d", len(result.Meshes))
	}
	if result.Errors[0].Message == "" {
		t.Error("syntax error should have a non-empty message")
	}
}

// ---------------------------------------------------------------------------
// 3. Undefined symbol used as an opening reference.
// ---------------------------------------------------------------------------

func TestE2EUndefinedOpeningReference(t *testing.T) {
	app := NewApp(nil)
	source := `
(space "room" (box (vec3 0 0 0) (vec3 4 3 3)))
(window "w" (box (vec3 1 -0.12 1) (vec3 2 -0.08 2)) :fills missing-void)
`
	result := app.Evaluate(source, config.Default())
	if len(result.Errors) == 0 {
		t.Fatal("expected an error for an undefined symbol")
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes, got %d", len(result.Meshes))
	}
}

// ---------------------------------------------------------------------------
// 4. A dangling fills GUID is a blocking validation error.
// ---------------------------------------------------------------------------

func TestE2EDanglingFills(t *testing.T) {
	app := NewApp(nil)
	source := `
(space "room" (box (vec3 0 0 0) (vec3 4 3 3)))
(window "w" (box (vec3 1 -0.12 1) (vec3 2 -0.08 2)) :fills "no-such-void")
`
	result := app.Evaluate(source, config.Default())
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 error, got %v", result.Errors)
	}
	if !strings.Contains(result.Errors[0].Message, "no-such-void") {
		t.Errorf("error should name the missing opening: %q", result.Errors[0].Message)
	}
}

// ---------------------------------------------------------------------------
// 5. A window without an opening relation is skipped with warnings.
// ---------------------------------------------------------------------------

func TestE2EWindowWithoutOpening(t *testing.T) {
	app := NewApp(nil)
	source := `
(space "room" (box (vec3 0 0 0) (vec3 4 3 3)))
(window "w" (box (vec3 1 -0.12 1) (vec3 2 -0.08 2)))
`
	result := app.Evaluate(source, config.Default())
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	// One from validation, one from the skipped conversion.
	if len(result.Warnings) != 2 {
		t.Errorf("expected 2 warnings, got %v", result.Warnings)
	}
	if result.Counts.Apertures+result.Counts.OrphanedApertures != 0 {
		t.Errorf("skipped window must produce no aperture: %+v", result.Counts)
	}
	if len(result.Meshes) != 1 {
		t.Errorf("expected only the room mesh, got %d", len(result.Meshes))
	}
}

// ---------------------------------------------------------------------------
// 6. Zero and inverted boxes are eval errors.
// ---------------------------------------------------------------------------

func TestE2EZeroDimensionBox(t *testing.T) {
	app := NewApp(nil)
	result := app.Evaluate(`(space "flat" (box (vec3 0 0 0) (vec3 4 3 0)))`, config.Default())
	if len(result.Errors) == 0 {
		t.Error("expected an error for a zero-height box")
	}
}

func TestE2EInvertedBox(t *testing.T) {
	app := NewApp(nil)
	result := app.Evaluate(`(space "inv" (box (vec3 4 3 3) (vec3 0 0 0)))`, config.Default())
	if len(result.Errors) == 0 {
		t.Error("expected an error for an inverted box")
	}
}

// ---------------------------------------------------------------------------
// 7. Rapid sequential evaluation: no panics.
// ---------------------------------------------------------------------------

func TestE2ERapidEvaluation(t *testing.T) {
	// zygomys keeps global state that is not safe for concurrent sandbox
	// creation; the engine mutex serializes calls anyway.
	app := NewApp(nil)

	sources := []string{
		`(space "a" (box (vec3 0 0 0) (vec3 1 1 1)))`,
		`(space "b" (box (vec3 0 0 0) (vec3 2 2 2)))`,
		`(+ 1 2)`,
		``,
		`(space "c" (box (vec3 0 0 0)`,
		`(slab "d" (box (vec3 0 0 3) (vec3 4 4 3.2)))`,
		`(+ 100 200)`,
		``,
	}

	for i, source := range sources {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("iteration %d panicked: %v", i, r)
				}
			}()
			_ = app.Evaluate(source, config.Default())
		}()
	}
}

// ---------------------------------------------------------------------------
// 8. Comments and whitespace only.
// ---------------------------------------------------------------------------

func TestE2ECommentsOnly(t *testing.T) {
	app := NewApp(nil)
	for _, source := range []string{
		"; just a comment",
		"; first\n; second\n",
		"   \n\t\n  ",
		"\n  ; indented comment\n\n",
	} {
		result := app.Evaluate(source, config.Default())
		if len(result.Errors) != 0 {
			t.Errorf("%q: unexpected errors %v", source, result.Errors)
		}
		if len(result.Meshes) != 0 {
			t.Errorf("%q: expected 0 meshes, got %d", source, len(result.Meshes))
		}
	}
}

// ---------------------------------------------------------------------------
// 9. Arithmetic in coordinates.
// ---------------------------------------------------------------------------

func TestE2EArithmeticCoordinates(t *testing.T) {
	app := NewApp(nil)
	source := `
(def width 4.0)
(def depth (* 0.75 width))
(def height (/ 9 3))
(space "room" (box (vec3 0 0 0) (vec3 width depth height)))
(def op (opening "void" (box (vec3 1 (- 0 0.2) 1) (vec3 (+ 1 1) 0 2))))
(window "w" (box (vec3 1 -0.12 1) (vec3 2 -0.08 2)) :fills op)
`
	result := app.Evaluate(source, config.Default())
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.Counts.Apertures != 1 {
		t.Errorf("expected the window to embed, got %+v", result.Counts)
	}
}

// ---------------------------------------------------------------------------
// 10. Millimetre scripts convert to the same model as metre scripts.
// ---------------------------------------------------------------------------

func TestE2EUnitScale(t *testing.T) {
	app := NewApp(nil)
	source := `
(units 0.001)
(space "room" (box (vec3 0 0 0) (vec3 4000 3000 3000)))
(def op (opening "void" (box (vec3 1000 -200 1000) (vec3 2000 0 2000))))
(window "w" (box (vec3 1000 -120 1000) (vec3 2000 -80 2000)) :fills op)
`
	result := app.Evaluate(source, config.Default())
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.Counts.Apertures != 1 {
		t.Errorf("expected the window to embed, got %+v", result.Counts)
	}
}

// ---------------------------------------------------------------------------
// 11. Non-embedding mode orphans every opening.
// ---------------------------------------------------------------------------

func TestE2ENoEmbed(t *testing.T) {
	app := NewApp(nil)
	cfg := config.Default()
	cfg.Embed = false

	source := `
(space "room" (box (vec3 0 0 0) (vec3 4 3 3)))
(def op (opening "void" (box (vec3 1 -0.2 1) (vec3 2 0 2))))
(window "w" (box (vec3 1 -0.12 1) (vec3 2 -0.08 2)) :fills op)
`
	result := app.Evaluate(source, cfg)
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.Counts.Apertures != 0 || result.Counts.OrphanedApertures != 1 {
		t.Errorf("expected one orphaned aperture, got %+v", result.Counts)
	}
}

// ---------------------------------------------------------------------------
// 12. Every category has a color.
// ---------------------------------------------------------------------------

func TestE2EColorPerCategory(t *testing.T) {
	for _, cat := range []string{
		tessellate.CategoryRoom,
		tessellate.CategoryAperture,
		tessellate.CategoryDoor,
		tessellate.CategoryShade,
		tessellate.CategoryFace,
	} {
		if colorPalette[cat] == "" {
			t.Errorf("category %s has no color", cat)
		}
	}
}
