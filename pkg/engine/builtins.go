package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/bimzone/pkg/geom"
	"github.com/chazu/bimzone/pkg/kernel"
	"github.com/chazu/bimzone/pkg/kernel/scene"
	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms scene Lisp source code before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: scene-name -> scene_name
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps a geom.Vec.
type sexpVec3 struct {
	vec geom.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpGeometry carries a set of planar faces between builtins, in file units.
type sexpGeometry struct {
	faces []geom.Face
}

func (g *sexpGeometry) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(geometry %d faces)", len(g.faces))
}
func (g *sexpGeometry) Type() *zygo.RegisteredType { return nil }

// sexpElementRef is returned by the element builtins so scripts can bind
// an element and pass it to :fills.
type sexpElementRef struct {
	guid string
	kind kernel.ElementKind
}

func (r *sexpElementRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%s %q)", r.kind, r.guid)
}
func (r *sexpElementRef) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts a Vec from a sexpVec3.
func toVec3(s zygo.Sexp) (geom.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return geom.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toGeometry extracts faces from a sexpGeometry.
func toGeometry(s zygo.Sexp) ([]geom.Face, error) {
	if g, ok := s.(*sexpGeometry); ok {
		return g.faces, nil
	}
	return nil, fmt.Errorf("expected geometry, got %T (%s)", s, s.SexpString(nil))
}

// toGUID accepts either an element reference or a plain GUID string.
func toGUID(s zygo.Sexp) (string, error) {
	switch v := s.(type) {
	case *sexpElementRef:
		return v.guid, nil
	case *zygo.SexpStr:
		if !strings.HasPrefix(v.S, kwPrefix) {
			return v.S, nil
		}
	}
	return "", fmt.Errorf("expected element or guid string, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// ---------------------------------------------------------------------------
// Scene builder
// ---------------------------------------------------------------------------

// guidNamespace seeds the name-based UUIDs minted for anonymous elements.
var guidNamespace = uuid.MustParse("6f1c0d8e-3a52-4b7e-9d41-2f0b8e6a9c17")

// builder accumulates elements while a script runs. Anonymous GUIDs are
// derived from a per-evaluation counter so the same script always yields
// the same scene.
type builder struct {
	scene   *scene.Scene
	counter int
}

func newBuilder() *builder {
	return &builder{scene: scene.New("")}
}

func (b *builder) nextGUID(kind kernel.ElementKind) string {
	b.counter++
	return uuid.NewSHA1(guidNamespace, []byte(fmt.Sprintf("%s/%d", kind, b.counter))).String()
}

// elementKinds are the element constructors exposed to scripts.
var elementKinds = []kernel.ElementKind{
	kernel.KindSpace,
	kernel.KindOpening,
	kernel.KindWindow,
	kernel.KindDoor,
	kernel.KindSlab,
	kernel.KindWall,
	kernel.KindColumn,
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs all scene DSL builtins into a zygomys environment.
// The builtins populate the builder's scene during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, b *builder) {

	// -----------------------------------------------------------------------
	// (scene-name "Two rooms")
	// -----------------------------------------------------------------------
	env.AddFunction("scene_name", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("scene-name requires exactly one string")
		}
		s, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("scene-name: %w", err)
		}
		b.scene.Title = s
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (units 0.001)  ; millimetres
	// -----------------------------------------------------------------------
	env.AddFunction("units", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("units requires exactly one number")
		}
		f, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("units: %w", err)
		}
		if f <= 0 {
			return zygo.SexpNull, fmt.Errorf("units: scale must be positive, got %g", f)
		}
		b.scene.Scale = f
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (vec3 x y z)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var xyz [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: argument %d: %w", i+1, err)
			}
			xyz[i] = f
		}
		return &sexpVec3{vec: geom.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]}}, nil
	})

	// -----------------------------------------------------------------------
	// (box (vec3 0 0 0) (vec3 4 3 3))  or  (box :min ... :max ...)
	// -----------------------------------------------------------------------
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		corners := pa.positional
		if v, ok := pa.kw["min"]; ok {
			corners = append([]zygo.Sexp{v}, corners...)
		}
		if v, ok := pa.kw["max"]; ok {
			corners = append(corners, v)
		}
		if len(corners) != 2 {
			return zygo.SexpNull, fmt.Errorf("box requires a min and a max corner")
		}
		minV, err := toVec3(corners[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box: min: %w", err)
		}
		maxV, err := toVec3(corners[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box: max: %w", err)
		}
		faces, err := geom.BoxFaces(minV, maxV)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box: %w", err)
		}
		return &sexpGeometry{faces: faces}, nil
	})

	// -----------------------------------------------------------------------
	// (face v1 v2 v3 ...)  or  (face [v1 v2 v3])
	// -----------------------------------------------------------------------
	env.AddFunction("face", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		items := args
		if len(args) == 1 {
			l, err := sexpListToSlice(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("face: %w", err)
			}
			items = l
		}
		pts := make([]geom.Vec, 0, len(items))
		for i, a := range items {
			p, err := toVec3(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("face: vertex %d: %w", i+1, err)
			}
			pts = append(pts, p)
		}
		f, err := geom.NewFace(pts)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("face: %w", err)
		}
		return &sexpGeometry{faces: []geom.Face{f}}, nil
	})

	// -----------------------------------------------------------------------
	// (polyface g1 g2 ...)
	// -----------------------------------------------------------------------
	env.AddFunction("polyface", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		var faces []geom.Face
		for i, a := range args {
			g, err := toGeometry(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("polyface: argument %d: %w", i+1, err)
			}
			faces = append(faces, g...)
		}
		if len(faces) == 0 {
			return zygo.SexpNull, fmt.Errorf("polyface requires at least one face")
		}
		return &sexpGeometry{faces: faces}, nil
	})

	// -----------------------------------------------------------------------
	// (move geometry (vec3 dx dy dz))
	// -----------------------------------------------------------------------
	env.AddFunction("move", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("move requires a geometry and an offset")
		}
		g, err := toGeometry(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("move: %w", err)
		}
		d, err := toVec3(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("move: offset: %w", err)
		}
		moved := lo.Map(g, func(f geom.Face, _ int) geom.Face { return f.Move(d) })
		return &sexpGeometry{faces: moved}, nil
	})

	// -----------------------------------------------------------------------
	// (flip geometry)
	// -----------------------------------------------------------------------
	env.AddFunction("flip", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("flip requires exactly one geometry")
		}
		g, err := toGeometry(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("flip: %w", err)
		}
		flipped := lo.Map(g, func(f geom.Face, _ int) geom.Face { return f.Flip() })
		return &sexpGeometry{faces: flipped}, nil
	})

	// -----------------------------------------------------------------------
	// (space "guid" geometry :name "Living" :at (vec3 ...))
	// (window geometry :fills opening-ref)
	// -----------------------------------------------------------------------
	for _, kind := range elementKinds {
		env.AddFunction(kind.String(), elementBuiltin(b, kind))
	}
}

// elementBuiltin returns the constructor for one element kind. The GUID
// is optional; when absent a deterministic one is minted.
func elementBuiltin(b *builder, kind kernel.ElementKind) zygo.ZlispUserFunction {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)

		var guid string
		var faces []geom.Face
		for i, a := range pa.positional {
			switch v := a.(type) {
			case *zygo.SexpStr:
				if guid != "" {
					return zygo.SexpNull, fmt.Errorf("%s: argument %d: guid given twice", kind, i+1)
				}
				guid = v.S
			case *sexpGeometry:
				faces = append(faces, v.faces...)
			default:
				return zygo.SexpNull, fmt.Errorf("%s: argument %d: expected guid or geometry, got %T", kind, i+1, a)
			}
		}
		if len(faces) == 0 {
			return zygo.SexpNull, fmt.Errorf("%s requires a geometry", kind)
		}
		if guid == "" {
			guid = b.nextGUID(kind)
		}
		if b.scene.Lookup(guid) != nil {
			return zygo.SexpNull, fmt.Errorf("%s: duplicate guid %q", kind, guid)
		}

		bounds := geom.Bounds(lo.FlatMap(faces, func(f geom.Face, _ int) []geom.Vec { return f.Vertices() })...)
		node := &scene.Node{
			GUID:      guid,
			Kind:      kind.String(),
			Placement: [3]float64{(bounds.Min.X + bounds.Max.X) / 2, (bounds.Min.Y + bounds.Max.Y) / 2, bounds.Min.Z},
			Faces:     scene.FacesFromFaces(faces),
		}

		if v, ok := pa.kw["name"]; ok {
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: name: %w", kind, err)
			}
			node.Name = s
		}
		if v, ok := pa.kw["type"]; ok {
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: type: %w", kind, err)
			}
			node.PredefinedType = s
		}
		if v, ok := pa.kw["at"]; ok {
			p, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: at: %w", kind, err)
			}
			node.Placement = scene.FromVec(p)
		}
		if v, ok := pa.kw["fills"]; ok {
			target, err := toGUID(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: fills: %w", kind, err)
			}
			node.Fills = target
		}

		b.scene.Add(node)
		return &sexpElementRef{guid: guid, kind: kind}, nil
	}
}
