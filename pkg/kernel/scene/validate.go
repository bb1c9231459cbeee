package scene

import (
	"fmt"

	"github.com/chazu/bimzone/pkg/geom"
	"github.com/chazu/bimzone/pkg/kernel"
	"github.com/samber/lo"
)

// ValidationSeverity indicates whether a finding makes the scene unusable
// or only costs the affected element.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // scene is rejected
	SeverityWarning                           // element will be skipped or degraded
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	GUID     string             // offending element (empty if scene-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.GUID == "" {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] element %s: %s", e.Severity, e.GUID, e.Message)
}

// ValidationResult bundles blocking errors and advisory warnings.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// OK reports whether the scene has no blocking errors.
func (r ValidationResult) OK() bool { return len(r.Errors) == 0 }

// Validate runs every structural and geometric check. It is read-only.
func Validate(s *Scene, tol float64) ValidationResult {
	var all []ValidationError
	all = append(all, validateUnits(s)...)
	all = append(all, validateGUIDs(s)...)
	all = append(all, validateKinds(s)...)
	all = append(all, validateFills(s)...)
	all = append(all, validateFaces(s, tol)...)

	errs, warns := lo.FilterReject(all, func(e ValidationError, _ int) bool {
		return e.Severity == SeverityError
	})
	return ValidationResult{Errors: errs, Warnings: warns}
}

func validateUnits(s *Scene) []ValidationError {
	if s.Scale < 0 {
		return []ValidationError{{
			Message:  fmt.Sprintf("unit scale %v must be positive", s.Scale),
			Severity: SeverityError,
		}}
	}
	return nil
}

func validateGUIDs(s *Scene) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)
	for i, n := range s.Nodes {
		if n.GUID == "" {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("element %d has no GUID", i),
				Severity: SeverityError,
			})
			continue
		}
		if seen[n.GUID] {
			errs = append(errs, ValidationError{
				GUID:     n.GUID,
				Message:  "duplicate GUID",
				Severity: SeverityError,
			})
		}
		seen[n.GUID] = true
	}
	return errs
}

func validateKinds(s *Scene) []ValidationError {
	var errs []ValidationError
	for _, n := range s.Nodes {
		if _, err := kernel.ParseElementKind(n.Kind); err != nil {
			errs = append(errs, ValidationError{
				GUID:     n.GUID,
				Message:  fmt.Sprintf("unknown kind %q", n.Kind),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

func validateFills(s *Scene) []ValidationError {
	var errs []ValidationError
	for _, n := range s.Nodes {
		k, err := kernel.ParseElementKind(n.Kind)
		if err != nil {
			continue
		}
		filler := k == kernel.KindWindow || k == kernel.KindDoor
		switch {
		case filler && n.Fills == "":
			errs = append(errs, ValidationError{
				GUID:     n.GUID,
				Message:  fmt.Sprintf("%s fills no opening and will be skipped", k),
				Severity: SeverityWarning,
			})
		case filler:
			target := s.Lookup(n.Fills)
			if target == nil {
				errs = append(errs, ValidationError{
					GUID:     n.GUID,
					Message:  fmt.Sprintf("fills unknown element %q", n.Fills),
					Severity: SeverityError,
				})
				continue
			}
			if tk, err := kernel.ParseElementKind(target.Kind); err == nil && tk != kernel.KindOpening {
				errs = append(errs, ValidationError{
					GUID:     n.GUID,
					Message:  fmt.Sprintf("fills %s which is a %s, not an opening", n.Fills, tk),
					Severity: SeverityError,
				})
			}
		case n.Fills != "":
			errs = append(errs, ValidationError{
				GUID:     n.GUID,
				Message:  fmt.Sprintf("%s cannot fill an opening; relation ignored", k),
				Severity: SeverityWarning,
			})
		}
	}
	return errs
}

func validateFaces(s *Scene, tol float64) []ValidationError {
	var errs []ValidationError
	for _, n := range s.Nodes {
		if len(n.Faces) == 0 {
			errs = append(errs, ValidationError{
				GUID:     n.GUID,
				Message:  "element has no faces",
				Severity: SeverityWarning,
			})
			continue
		}
		for i, f := range n.Faces {
			face, err := geom.NewFace(lo.Map(f, func(p [3]float64, _ int) geom.Vec { return toVec(p) }))
			if err != nil {
				errs = append(errs, ValidationError{
					GUID:     n.GUID,
					Message:  fmt.Sprintf("face %d is degenerate: %v", i, err),
					Severity: SeverityError,
				})
				continue
			}
			for j, p := range f {
				// File units; the tolerance is in meters.
				if d := face.Plane().DistanceToPoint(toVec(p)) * s.UnitScale(); d > tol {
					errs = append(errs, ValidationError{
						GUID:     n.GUID,
						Message:  fmt.Sprintf("face %d vertex %d is %.4f off the face plane", i, j, d),
						Severity: SeverityWarning,
					})
					break
				}
			}
		}
	}
	return errs
}
