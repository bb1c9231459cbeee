// Package project snaps a simplified opening panel onto a face of the room
// that hosts it and decides whether the result can be embedded in that
// face.
package project

import (
	"math"
	"sort"

	"github.com/chazu/bimzone/pkg/config"
	"github.com/chazu/bimzone/pkg/geom"
	"github.com/chazu/bimzone/pkg/kernel"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// ErrNoHostFace is returned when no face of the candidate rooms can host
// the panel.
var ErrNoHostFace = errors.New("project: no host face")

// HostSpace is a candidate room and its boundary faces.
type HostSpace struct {
	GUID  string
	Faces []geom.Face
}

// Stage records which move put the panel into the host plane.
type Stage int

const (
	// StagePrimary moved the centroid to its closest point on the host plane.
	StagePrimary Stage = iota
	// StageSecondary moved along the reversed panel normal.
	StageSecondary
	// StageProjected flattened the vertices onto the host plane.
	StageProjected
)

func (s Stage) String() string {
	switch s {
	case StagePrimary:
		return "primary"
	case StageSecondary:
		return "secondary"
	case StageProjected:
		return "projected"
	}
	return "unknown"
}

// Host identifies the chosen face: Space indexes the candidate list and
// Face indexes that space's faces.
type Host struct {
	Space int
	Face  int
	Geom  geom.Face
}

// Projection is the outcome of snapping one panel.
type Projection struct {
	Host     Host
	Moved    geom.Face
	Stage    Stage
	Embedded bool
}

// Project selects the host face for a window or door panel, moves the
// panel into its plane and, when embed is set, tests whether it fits
// inside the host face.
func Project(kind kernel.ElementKind, panel geom.Face, spaces []HostSpace, tol config.Tolerances, embed bool) (Projection, error) {
	var host Host
	var err error
	switch kind {
	case kernel.KindWindow:
		host, err = SelectWindowHost(panel, spaces, tol)
	case kernel.KindDoor:
		host, err = SelectDoorHost(panel, spaces, tol)
	default:
		return Projection{}, errors.Errorf("project: %s is not a window or door", kind)
	}
	if err != nil {
		return Projection{}, err
	}

	moved, stage, err := Move(Orient(panel, host.Geom), host.Geom, tol)
	if err != nil {
		return Projection{}, err
	}
	p := Projection{Host: host, Moved: moved, Stage: stage}
	if embed && Embeds(moved, host.Geom, tol) {
		p.Embedded = true
		if moved.Normal().Dot(host.Geom.Normal()) < 0 {
			p.Moved = moved.Flip()
		}
	}
	return p, nil
}

// SelectWindowHost picks, across every candidate room, the face parallel
// to the panel whose plane is nearest the panel centroid. Plane distances
// within tol.Linear are tied and broken by centroid distance, then by
// candidate order.
func SelectWindowHost(panel geom.Face, spaces []HostSpace, tol config.Tolerances) (Host, error) {
	c := panel.Center()
	var hosts []Host
	for si, s := range spaces {
		for fi, f := range s.Faces {
			if panel.Plane().IsParallel(f.Plane(), tol.Angle) {
				hosts = append(hosts, Host{Space: si, Face: fi, Geom: f})
			}
		}
	}
	if len(hosts) == 0 {
		return Host{}, errors.Wrap(ErrNoHostFace, "no face parallel to window")
	}
	return lo.MinBy(hosts, func(a, b Host) bool {
		da, db := planeDistance(a.Geom, c), planeDistance(b.Geom, c)
		if math.Abs(da-db) > tol.Linear {
			return da < db
		}
		return geom.Dist(a.Geom.Center(), c) < geom.Dist(b.Geom.Center(), c)-tol.Linear
	}), nil
}

// SelectDoorHost picks the door's host face. With one room, faces are
// walked nearest plane first and the first one hit by the ray from the
// panel centroid towards its plane wins. With two rooms, each room's
// nearest face competes and the larger one wins, the first room on ties.
func SelectDoorHost(panel geom.Face, spaces []HostSpace, tol config.Tolerances) (Host, error) {
	c := panel.Center()
	switch len(spaces) {
	case 0:
		return Host{}, errors.Wrap(ErrNoHostFace, "no candidate space")
	case 1:
		hosts := byPlaneDistance(0, spaces[0].Faces, c)
		for _, h := range hosts {
			if facesPoint(h.Geom, c, tol.Linear) {
				return h, nil
			}
		}
		return Host{}, errors.Wrap(ErrNoHostFace, "no face hit by the door ray")
	}

	var best Host
	found := false
	for si, s := range spaces {
		hosts := byPlaneDistance(si, s.Faces, c)
		if len(hosts) == 0 {
			continue
		}
		if !found || hosts[0].Geom.Area() > best.Geom.Area()+tol.Linear {
			best, found = hosts[0], true
		}
	}
	if !found {
		return Host{}, errors.Wrap(ErrNoHostFace, "candidate spaces have no faces")
	}
	return best, nil
}

// Orient flips the panel when the host center lies on the positive side
// of its plane, so that the panel's reversed normal points at the host.
func Orient(panel, host geom.Face) geom.Face {
	if panel.Plane().IsPointAbove(host.Center()) {
		return panel.Flip()
	}
	return panel
}

// Move translates the panel into the host plane. The centroid is first
// moved to its closest point on the plane; when that leaves any vertex
// off the plane it is moved along its reversed normal by the centroid's
// distance to the plane instead; when neither lands every vertex within
// tol.Linear of the plane, the vertices are projected onto it. The result
// is always coplanar with the host.
func Move(panel, host geom.Face, tol config.Tolerances) (geom.Face, Stage, error) {
	hp := host.Plane()
	c := panel.Center()

	moved := panel.Move(hp.ClosestPoint(c).Sub(c))
	if onPlane(moved, hp, tol.Linear) {
		return moved, StagePrimary, nil
	}

	if n, ok := geom.Unit(panel.Normal().Neg()); ok {
		moved = panel.Move(n.MulScalar(hp.DistanceToPoint(c)))
		if onPlane(moved, hp, tol.Linear) {
			return moved, StageSecondary, nil
		}
	}

	flat, err := panel.ProjectOnto(hp)
	if err != nil {
		return geom.Face{}, StageProjected, errors.Wrap(ErrNoHostFace, "panel is edge-on to the host plane")
	}
	return flat, StageProjected, nil
}

// Embeds reports whether the moved panel, shrunk by tol.EmbedScale about
// its center, lies inside the host face.
func Embeds(moved, host geom.Face, tol config.Tolerances) bool {
	shrunk := moved.Scale(tol.EmbedScale, moved.Center())
	return host.IsSubFace(shrunk, tol.Linear, tol.Angle)
}

// onPlane reports whether every vertex of f lies within tol of p.
func onPlane(f geom.Face, p geom.Plane, tol float64) bool {
	return lo.EveryBy(f.Vertices(), func(v geom.Vec) bool { return p.DistanceToPoint(v) <= tol })
}

func planeDistance(f geom.Face, p geom.Vec) float64 {
	return f.Plane().DistanceToPoint(p)
}

// byPlaneDistance returns the faces sorted by the distance from p to
// their planes, stable on ties.
func byPlaneDistance(space int, faces []geom.Face, p geom.Vec) []Host {
	hosts := make([]Host, len(faces))
	for i, f := range faces {
		hosts[i] = Host{Space: space, Face: i, Geom: f}
	}
	sort.SliceStable(hosts, func(i, j int) bool {
		return planeDistance(hosts[i].Geom, p) < planeDistance(hosts[j].Geom, p)
	})
	return hosts
}

// facesPoint reports whether the ray from p to its closest point on the
// face plane lands inside the face. A point already on the plane is
// tested directly.
func facesPoint(f geom.Face, p geom.Vec, tol float64) bool {
	cp := f.Plane().ClosestPoint(p)
	dir := cp.Sub(p)
	if dir.Length() <= tol {
		return f.ContainsPoint(cp, tol)
	}
	_, ok := f.IntersectRay(geom.Ray{Origin: p, Dir: dir}, tol)
	return ok
}
