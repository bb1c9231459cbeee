// Package simplify reduces a window or door solid to the single planar
// panel that represents it in the zone model.
package simplify

import (
	"sort"

	"github.com/chazu/bimzone/pkg/config"
	"github.com/chazu/bimzone/pkg/geom"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// ErrDegenerate is returned when neither the element nor its opening
// yields a usable panel.
var ErrDegenerate = errors.New("simplify: no usable panel")

// Result is a simplified panel. Fallback is set when the panel came from
// the opening void rather than the element itself; Reason says why.
type Result struct {
	Face     geom.Face
	Fallback bool
	Reason   string
}

// Window picks the largest face of the window solid. An empty window falls
// back to the opening.
func Window(window, opening geom.Polyface, tol config.Tolerances) (Result, error) {
	faces := byAreaDesc(window.Faces())
	if len(faces) == 0 {
		return fallback(opening, "window has no faces")
	}
	return Result{Face: faces[0]}, nil
}

// Door merges the coplanar large faces of a door solid into one panel.
//
// When at least PanelTieCount faces share the largest area they are the
// panel candidates (paneled doors); otherwise every face of at least
// tol.Area is. Candidates coplanar with the first one are merged and the
// first closed boundary of the merge becomes the panel. A panel whose
// center drifts more than tol.CentroidDrift from the door's center is
// rejected in favour of the opening.
func Door(door, opening geom.Polyface, tol config.Tolerances) (Result, error) {
	faces := byAreaDesc(door.Faces())
	if len(faces) == 0 {
		return fallback(opening, "door has no faces")
	}

	candidates := panelCandidates(faces, tol)
	if len(candidates) == 0 {
		return fallback(opening, "no face reaches the panel area")
	}

	ref := candidates[0].Plane()
	selected := lo.Filter(candidates, func(f geom.Face, _ int) bool {
		return ref.DistanceToPoint(f.Center()) < tol.Linear
	})

	panel, ok := mergeBoundary(selected, tol.Linear)
	if !ok {
		return fallback(opening, "merged faces have no closed boundary")
	}
	if geom.Dist(panel.Center(), door.Center()) > tol.CentroidDrift {
		return fallback(opening, "merged panel drifts from the door center")
	}
	return Result{Face: panel}, nil
}

// OpeningFallback moves the largest face of the opening void to the
// void's center.
func OpeningFallback(opening geom.Polyface) (geom.Face, error) {
	faces := byAreaDesc(opening.Faces())
	if len(faces) == 0 {
		return geom.Face{}, errors.Wrap(ErrDegenerate, "opening has no faces")
	}
	f := faces[0]
	return f.Move(opening.Center().Sub(f.Center())), nil
}

func fallback(opening geom.Polyface, reason string) (Result, error) {
	f, err := OpeningFallback(opening)
	if err != nil {
		return Result{}, errors.Wrap(err, reason)
	}
	return Result{Face: f, Fallback: true, Reason: reason}, nil
}

// panelCandidates returns the faces tied within tol.AreaTie for the
// largest area when there are at least tol.PanelTieCount of them, and
// otherwise every face reaching tol.Area.
func panelCandidates(sorted []geom.Face, tol config.Tolerances) []geom.Face {
	maxArea := sorted[0].Area()
	tied := lo.Filter(sorted, func(f geom.Face, _ int) bool {
		return maxArea-f.Area() <= tol.AreaTie
	})
	if tol.PanelTieCount > 0 && len(tied) >= tol.PanelTieCount {
		return tied
	}
	return lo.Filter(sorted, func(f geom.Face, _ int) bool { return f.Area() >= tol.Area })
}

// mergeBoundary welds faces into one polyface and rebuilds a face from its
// first closed naked-edge loop.
func mergeBoundary(faces []geom.Face, tol float64) (geom.Face, bool) {
	if len(faces) == 1 {
		return faces[0], true
	}
	merged := geom.NewPolyface(faces, tol)
	loops := lo.Filter(geom.JoinSegments(merged.NakedEdges(), tol), func(p geom.Polyline, _ int) bool {
		return p.Closed
	})
	if len(loops) == 0 {
		return geom.Face{}, false
	}
	f, err := geom.NewFace(loops[0].Points)
	if err != nil {
		return geom.Face{}, false
	}
	if g, err := f.RemoveCollinear(tol); err == nil {
		f = g
	}
	return f, true
}

func byAreaDesc(faces []geom.Face) []geom.Face {
	out := append([]geom.Face(nil), faces...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Area() > out[j].Area() })
	return out
}
