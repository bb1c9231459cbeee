// Package spatial finds the rooms adjacent to an opening. Room triangles
// and room bounds are stored in an R-tree; candidates from the tree are
// refined by model3d sphere-triangle collisions or point-in-solid tests.
package spatial

import (
	"math"
	"sort"

	"github.com/chazu/bimzone/pkg/geom"
	"github.com/deadsy/sdfx/sdf"
	"github.com/dhconnelly/rtreego"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/unixpickle/model3d/model3d"
)

var (
	// ErrNoSpaces is returned when no room lies within the search radius.
	ErrNoSpaces = errors.New("spatial: no space near opening")
	// ErrTooManySpaces is returned when more than two rooms qualify.
	ErrTooManySpaces = errors.New("spatial: more than two spaces near opening")
)

// minExtent pads flat boxes; rtreego rejects zero-length sides.
const minExtent = 1e-9

// Space is a room as seen by the index: its closed solid and its
// mesh-quality triangles.
type Space struct {
	GUID      string
	Solid     geom.Polyface
	Triangles [][3]geom.Vec
}

// Index answers "which rooms are within r of this point".
type Index struct {
	spaces []*Space
	tree   *rtreego.Rtree
	tol    float64
}

// triangleEntry is one room triangle in the tree.
type triangleEntry struct {
	space int
	tri   *model3d.Triangle
	rect  rtreego.Rect
}

func (e *triangleEntry) Bounds() rtreego.Rect { return e.rect }

// volumeEntry is the bounding box of one room, used for containment.
type volumeEntry struct {
	space int
	rect  rtreego.Rect
}

func (e *volumeEntry) Bounds() rtreego.Rect { return e.rect }

// NewIndex builds the tree once; the index is read-only afterwards and
// safe for concurrent queries.
func NewIndex(spaces []Space, tol float64) (*Index, error) {
	idx := &Index{tol: tol}
	var objs []rtreego.Spatial
	for i := range spaces {
		s := spaces[i]
		idx.spaces = append(idx.spaces, &s)

		if !s.Solid.IsEmpty() {
			rect, err := boxRect(s.Solid.Bounds())
			if err != nil {
				return nil, errors.Wrapf(err, "spatial: bounds of space %s", s.GUID)
			}
			objs = append(objs, &volumeEntry{space: i, rect: rect})
		}
		for _, t := range s.Triangles {
			rect, err := boxRect(geom.Bounds(t[0], t[1], t[2]))
			if err != nil {
				return nil, errors.Wrapf(err, "spatial: triangle of space %s", s.GUID)
			}
			objs = append(objs, &triangleEntry{space: i, tri: geom.MeshTriangle(t), rect: rect})
		}
	}
	idx.tree = rtreego.NewTree(3, 25, 50, objs...)
	return idx, nil
}

// Len returns the number of indexed spaces.
func (x *Index) Len() int { return len(x.spaces) }

// Query returns the spaces with a triangle within radius of p, or whose
// solid contains p, in the order they were indexed.
func (x *Index) Query(p geom.Vec, radius float64) []*Space {
	r := math.Max(radius, minExtent)
	probe, err := rtreego.NewRect(
		rtreego.Point{p.X - r, p.Y - r, p.Z - r},
		[]float64{2 * r, 2 * r, 2 * r},
	)
	if err != nil {
		return nil
	}

	center := geom.Coord(p)
	hit := map[int]bool{}
	for _, obj := range x.tree.SearchIntersect(probe) {
		switch e := obj.(type) {
		case *triangleEntry:
			if hit[e.space] {
				continue
			}
			if e.tri.SphereCollision(center, radius) {
				hit[e.space] = true
			}
		case *volumeEntry:
			if !hit[e.space] && x.spaces[e.space].Solid.ContainsPoint(p, x.tol) {
				hit[e.space] = true
			}
		}
	}

	keys := lo.Keys(hit)
	sort.Ints(keys)
	return lo.Map(keys, func(i int, _ int) *Space { return x.spaces[i] })
}

// Nearest probes at the front-face center of the opening and retries at
// the placement point when the first probe finds nothing. placement must
// already be in meters.
func (x *Index) Nearest(opening geom.Polyface, placement geom.Vec, radius float64) []*Space {
	if probe, ok := FrontFaceCenter(opening, placement); ok {
		if found := x.Query(probe, radius); len(found) > 0 {
			return found
		}
	}
	return x.Query(placement, radius)
}

// Resolve is Nearest with the cardinality policy applied: one or two
// spaces are returned, zero and more than two are errors.
func (x *Index) Resolve(opening geom.Polyface, placement geom.Vec, radius float64) ([]*Space, error) {
	found := x.Nearest(opening, placement, radius)
	switch n := len(found); {
	case n == 0:
		return nil, ErrNoSpaces
	case n > 2:
		return found, errors.Wrapf(ErrTooManySpaces, "%d spaces", n)
	}
	return found, nil
}

// FrontFaceCenter returns the center of whichever of the opening's two
// largest faces lies nearer to placement. Placement points sit on the
// opening's bottom edge; the face center sits in free space beside the
// wall.
func FrontFaceCenter(opening geom.Polyface, placement geom.Vec) (geom.Vec, bool) {
	faces := opening.Faces()
	if len(faces) == 0 {
		return placement, false
	}
	sort.SliceStable(faces, func(i, j int) bool { return faces[i].Area() > faces[j].Area() })
	if len(faces) > 2 {
		faces = faces[:2]
	}
	best := lo.MinBy(faces, func(a, b geom.Face) bool {
		return a.Plane().DistanceToPoint(placement) < b.Plane().DistanceToPoint(placement)
	})
	return best.Center(), true
}

func boxRect(bb sdf.Box3) (rtreego.Rect, error) {
	size := bb.Max.Sub(bb.Min)
	return rtreego.NewRect(
		rtreego.Point{bb.Min.X, bb.Min.Y, bb.Min.Z},
		[]float64{math.Max(size.X, minExtent), math.Max(size.Y, minExtent), math.Max(size.Z, minExtent)},
	)
}
