// Package pipeline converts a building document into a room model.
//
// Spaces become rooms. Every window and door then moves through a fixed
// sequence of states (extracted, simplified, spaces resolved, projected)
// and ends in exactly one of embedded, orphaned or skipped. Slabs and
// columns become shades and walls become context faces.
package pipeline

import (
	"fmt"

	"github.com/chazu/bimzone/pkg/adapter"
	"github.com/chazu/bimzone/pkg/config"
	"github.com/chazu/bimzone/pkg/gapclose"
	"github.com/chazu/bimzone/pkg/geom"
	"github.com/chazu/bimzone/pkg/kernel"
	"github.com/chazu/bimzone/pkg/model"
	"github.com/chazu/bimzone/pkg/project"
	"github.com/chazu/bimzone/pkg/simplify"
	"github.com/chazu/bimzone/pkg/spatial"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// Outcome records how far one window or door got.
type Outcome struct {
	GUID  string
	Kind  kernel.ElementKind
	State State
	// Failure is the failure kind of a skipped element; Reason is the
	// full error text.
	Failure string
	Reason  string
	// Fallback is set when the panel came from the opening void rather
	// than the element's own faces.
	Fallback bool
	Spaces   []string
	// Host is the GUID of the room owning the chosen face, HostFace its
	// index among the room faces.
	Host     string
	HostFace int
	Stage    project.Stage
}

// Report lists the outcomes in document order.
type Report struct {
	Outcomes []Outcome
}

// Counts tallies outcomes by terminal state.
func (r *Report) Counts() map[State]int {
	counts := map[State]int{}
	for _, o := range r.Outcomes {
		counts[o.State]++
	}
	return counts
}

// Skipped returns the outcomes that produced no output.
func (r *Report) Skipped() []Outcome {
	return lo.Filter(r.Outcomes, func(o Outcome, _ int) bool { return o.State == StateSkipped })
}

// processed is a finished opening: its outcome plus the panel to emit.
type processed struct {
	outcome Outcome
	name    string
	panel   geom.Face
}

type extractedSpace struct {
	element kernel.Element
	space   spatial.Space
	err     error
}

// Run converts doc. Per-element failures are logged and recorded in the
// report; only configuration and whole-model geometry errors abort.
func Run(doc kernel.Document, cfg config.Config, log logrus.FieldLogger) (*model.Model, *Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	if log == nil {
		log = config.DiscardLogger()
	}
	log = config.NamedLogger(log, "pipeline")
	tol := cfg.Tolerances

	m := model.New(doc.Name())
	spaces := extractSpaces(doc, cfg, log)

	solids := lo.Map(spaces, func(s spatial.Space, _ int) geom.Polyface { return s.Solid })
	if cfg.CloseGaps {
		closed, err := gapclose.Close(solids, cfg.GapDistance, tol.Linear)
		if err != nil {
			return nil, nil, errors.Wrap(err, "pipeline: close gaps")
		}
		solids = closed
	}

	hosts := make(map[string]project.HostSpace, len(spaces))
	for i, s := range spaces {
		e, _ := doc.Element(s.GUID)
		room := model.NewRoom(s.GUID, e.Name, solids[i].Faces())
		m.Rooms = append(m.Rooms, room)
		hosts[s.GUID] = project.HostSpace{
			GUID:  s.GUID,
			Faces: lo.Map(room.Faces, func(f model.Face, _ int) geom.Face { return f.Geometry }),
		}
	}
	AssignStoreys(m.Rooms, cfg.StoreyTolerance)

	index, err := spatial.NewIndex(spaces, tol.Linear)
	if err != nil {
		return nil, nil, errors.Wrap(err, "pipeline: spatial index")
	}
	log.WithFields(logrus.Fields{"rooms": len(m.Rooms)}).Debug("Rooms built")

	openings := doc.Elements(kernel.KindWindow, kernel.KindDoor)
	results := parallelMap(cfg.Workers, len(openings), func(i int) processed {
		return processOpening(doc, openings[i], index, hosts, cfg)
	}, func(i int, err error) processed {
		e := openings[i]
		return processed{
			outcome: Outcome{GUID: e.GUID, Kind: e.Kind, State: StateSkipped, Failure: classify(err), Reason: err.Error()},
			name:    e.Name,
		}
	})

	report := &Report{Outcomes: make([]Outcome, 0, len(results))}
	for _, res := range results {
		collect(m, res, log)
		report.Outcomes = append(report.Outcomes, res.outcome)
	}

	addContext(doc, m, cfg, log)

	log.WithFields(logrus.Fields{
		"embedded": report.Counts()[StateEmbedded],
		"orphaned": report.Counts()[StateOrphaned],
		"skipped":  report.Counts()[StateSkipped],
	}).Info("Conversion finished")
	return m, report, nil
}

// extractSpaces reads every space solid on the worker pool. Spaces that
// cannot be read are logged and left out.
func extractSpaces(doc kernel.Document, cfg config.Config, log logrus.FieldLogger) []spatial.Space {
	elements := doc.Elements(kernel.KindSpace)
	extracted := parallelMap(cfg.Workers, len(elements), func(i int) extractedSpace {
		e := elements[i]
		solid, err := adapter.Polyface(doc, e, adapter.Brep, cfg.Tolerances.Linear)
		if err != nil {
			return extractedSpace{element: e, err: err}
		}
		tris, err := adapter.Triangles(doc, e)
		if err != nil {
			return extractedSpace{element: e, err: err}
		}
		return extractedSpace{element: e, space: spatial.Space{GUID: e.GUID, Solid: solid, Triangles: tris}}
	}, func(i int, err error) extractedSpace {
		return extractedSpace{element: elements[i], err: err}
	})

	var spaces []spatial.Space
	for _, x := range extracted {
		if x.err != nil {
			log.WithFields(logrus.Fields{"guid": x.element.GUID, "kind": x.element.Kind}).
				WithError(x.err).Warn("Space dropped")
			continue
		}
		if !x.space.Solid.IsSolid() {
			log.WithField("guid", x.element.GUID).Warn("Space is not a closed solid")
		}
		spaces = append(spaces, x.space)
	}
	return spaces
}

// processOpening walks one window or door through the state machine. A
// panic inside it is recovered by the pool and skips only this element.
func processOpening(doc kernel.Document, e kernel.Element, index *spatial.Index,
	hosts map[string]project.HostSpace, cfg config.Config) (res processed) {
	tol := cfg.Tolerances
	res.outcome = Outcome{GUID: e.GUID, Kind: e.Kind, State: StateExtracted}
	res.name = e.Name
	if res.name == "" {
		res.name = e.GUID
	}

	skip := func(err error) processed {
		res.outcome.State = StateSkipped
		res.outcome.Failure = classify(err)
		res.outcome.Reason = err.Error()
		res.panel = geom.Face{}
		return res
	}
	opening, err := doc.FilledOpening(e)
	if err != nil {
		return skip(err)
	}
	void, err := adapter.Polyface(doc, opening, adapter.Brep, tol.Linear)
	if err != nil {
		return skip(err)
	}
	// An element without usable faces still gets a panel from the void.
	solid, err := adapter.Polyface(doc, e, adapter.Brep, tol.Linear)
	if err != nil {
		solid = geom.Polyface{}
	}

	var simple simplify.Result
	switch e.Kind {
	case kernel.KindWindow:
		simple, err = simplify.Window(solid, void, tol)
	case kernel.KindDoor:
		simple, err = simplify.Door(solid, void, tol)
	default:
		err = errors.Errorf("pipeline: %s is not an opening filler", e.Kind)
	}
	if err != nil {
		return skip(err)
	}
	res.outcome.State = StateSimplified
	res.outcome.Fallback = simple.Fallback

	placement := opening.Placement.MulScalar(doc.UnitScale())
	found, err := index.Resolve(void, placement, tol.SearchRadius)
	if err != nil {
		return skip(err)
	}
	res.outcome.State = StateSpacesResolved
	res.outcome.Spaces = lo.Map(found, func(s *spatial.Space, _ int) string { return s.GUID })

	candidates := lo.Map(found, func(s *spatial.Space, _ int) project.HostSpace { return hosts[s.GUID] })
	p, err := project.Project(e.Kind, simple.Face, candidates, tol, cfg.Embed)
	if err != nil {
		return skip(err)
	}
	res.outcome.State = StateProjected
	res.outcome.Host = candidates[p.Host.Space].GUID
	res.outcome.HostFace = p.Host.Face
	res.outcome.Stage = p.Stage
	res.panel = p.Moved

	if p.Embedded {
		res.outcome.State = StateEmbedded
	} else {
		res.outcome.State = StateOrphaned
	}
	return res
}

// collect adds a finished opening to the model.
func collect(m *model.Model, res processed, log logrus.FieldLogger) {
	o := res.outcome
	fields := logrus.Fields{"guid": o.GUID, "kind": o.Kind, "state": o.State}

	switch o.State {
	case StateEmbedded:
		room := m.Room(o.Host)
		if room == nil || o.HostFace >= len(room.Faces) {
			log.WithFields(fields).Error("Host face vanished")
			return
		}
		face := &room.Faces[o.HostFace]
		switch o.Kind {
		case kernel.KindWindow:
			face.Apertures = append(face.Apertures, newAperture(res))
		case kernel.KindDoor:
			face.Doors = append(face.Doors, newDoor(res))
		}
		log.WithFields(fields).WithField("room", o.Host).Debug("Opening embedded")
	case StateOrphaned:
		switch o.Kind {
		case kernel.KindWindow:
			m.OrphanedApertures = append(m.OrphanedApertures, newAperture(res))
		case kernel.KindDoor:
			m.OrphanedDoors = append(m.OrphanedDoors, newDoor(res))
		}
		log.WithFields(fields).Debug("Opening orphaned")
	case StateSkipped:
		log.WithFields(fields).WithFields(logrus.Fields{
			"failure": o.Failure,
			"reason":  o.Reason,
		}).Warn("Opening skipped")
	default:
		log.WithFields(fields).Error("Opening stopped before a terminal state")
	}
}

func newAperture(res processed) model.Aperture {
	return model.Aperture{
		Identifier:  model.ID("Aperture", res.outcome.GUID),
		DisplayName: res.name,
		SourceGUID:  res.outcome.GUID,
		Geometry:    res.panel,
	}
}

func newDoor(res processed) model.Door {
	return model.Door{
		Identifier:  model.ID("Door", res.outcome.GUID),
		DisplayName: res.name,
		SourceGUID:  res.outcome.GUID,
		Geometry:    res.panel,
	}
}

// contextFaces reads the faces of one context element. Slab and column
// solids are normalized outward first so the slab flip does not depend on
// the source winding; walls are kept as mesh triangles.
func contextFaces(doc kernel.Document, e kernel.Element, tol float64) ([]geom.Face, error) {
	if e.Kind == kernel.KindWall {
		return adapter.Faces(doc, e, adapter.Mesh)
	}
	solid, err := adapter.Polyface(doc, e, adapter.Brep, tol)
	if err != nil {
		return nil, err
	}
	return solid.Faces(), nil
}

// addContext turns slabs and columns into shades and walls into context
// faces. Slab faces are flipped so they face into the rooms below.
func addContext(doc kernel.Document, m *model.Model, cfg config.Config, log logrus.FieldLogger) {
	elements := doc.Elements(kernel.KindSlab, kernel.KindColumn, kernel.KindWall)
	shades := parallelMap(cfg.Workers, len(elements), func(i int) []model.Shade {
		e := elements[i]
		var kind model.ShadeKind
		switch e.Kind {
		case kernel.KindSlab:
			kind = model.ShadeSlab
		case kernel.KindColumn:
			kind = model.ShadeColumn
		case kernel.KindWall:
			kind = model.ShadeContext
		default:
			return nil
		}
		faces, err := contextFaces(doc, e, cfg.Tolerances.Linear)
		if err != nil {
			log.WithFields(logrus.Fields{"guid": e.GUID, "kind": e.Kind}).WithError(err).Warn("Context element dropped")
			return nil
		}
		return lo.Map(faces, func(f geom.Face, j int) model.Shade {
			if kind == model.ShadeSlab {
				f = f.Flip()
			}
			return model.Shade{
				Identifier: model.ID("Shade", e.GUID, fmt.Sprint(j)),
				SourceGUID: e.GUID,
				Kind:       kind,
				Geometry:   f,
			}
		})
	}, func(i int, err error) []model.Shade {
		e := elements[i]
		log.WithFields(logrus.Fields{"guid": e.GUID, "kind": e.Kind}).WithError(err).Error("Context element failed")
		return nil
	})

	for i, ss := range shades {
		if elements[i].Kind == kernel.KindWall {
			m.OrphanedFaces = append(m.OrphanedFaces, ss...)
		} else {
			m.Shades = append(m.Shades, ss...)
		}
	}
}
