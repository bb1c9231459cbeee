// Package gapclose removes the wall-thickness gap between neighbouring
// rooms by pushing each room face halfway towards the room it faces.
package gapclose

import (
	"github.com/chazu/bimzone/pkg/geom"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Close returns moved copies of rooms. For every outward face a ray is cast
// from its center along its normal; if it reaches another room within
// distance, the face's vertices move half the hit distance along the
// normal. When the center ray misses, points halfway between the center
// and each vertex are tried in turn. Every room is tested against the
// unmoved neighbours, so the result does not depend on room order.
func Close(rooms []geom.Polyface, distance, tol float64) ([]geom.Polyface, error) {
	out := make([]geom.Polyface, len(rooms))
	for i, room := range rooms {
		moves := map[int]geom.Vec{}
		indices := room.FaceIndices()
		for fi, f := range room.Faces() {
			d, ok := gapAlong(f, rooms, i, distance, tol)
			if !ok {
				continue
			}
			step := f.Normal().MulScalar(d / 2)
			for _, vi := range lo.Uniq(indices[fi]) {
				moves[vi] = moves[vi].Add(step)
			}
		}
		if len(moves) == 0 {
			out[i] = room
			continue
		}
		moved, err := room.MoveVertices(moves, tol)
		if err != nil {
			return nil, errors.Wrapf(err, "gapclose: room %d", i)
		}
		out[i] = moved
	}
	return out, nil
}

// gapAlong returns the distance from the face to the nearest other room
// along the face normal, probing the center first.
func gapAlong(f geom.Face, rooms []geom.Polyface, self int, distance, tol float64) (float64, bool) {
	probes := []geom.Vec{f.Center()}
	for _, v := range f.Vertices() {
		probes = append(probes, f.Center().Add(v).MulScalar(0.5))
	}
	for _, p := range probes {
		r := geom.Ray{Origin: p, Dir: f.Normal()}
		best, found := 0.0, false
		for j, other := range rooms {
			if j == self {
				continue
			}
			d, ok := other.IntersectRay(r, tol)
			if ok && d <= distance && (!found || d < best) {
				best, found = d, true
			}
		}
		if found {
			return best, true
		}
	}
	return 0, false
}
