package geom

import "math"

// point2 is a point in a plane's local coordinates.
type point2 struct {
	x, y float64
}

func (a point2) sub(b point2) point2 { return point2{a.x - b.x, a.y - b.y} }

func cross2(a, b point2) float64 { return a.x*b.y - a.y*b.x }

// distToSegment2 returns the distance from p to segment ab.
func distToSegment2(p, a, b point2) float64 {
	ab := b.sub(a)
	l2 := ab.x*ab.x + ab.y*ab.y
	t := 0.0
	if l2 > epsilon {
		ap := p.sub(a)
		t = math.Max(0, math.Min(1, (ap.x*ab.x+ap.y*ab.y)/l2))
	}
	q := point2{a.x + ab.x*t, a.y + ab.y*t}
	return math.Hypot(p.x-q.x, p.y-q.y)
}

// onBoundary2 reports whether p is within tol of any ring edge.
func onBoundary2(p point2, ring []point2, tol float64) bool {
	for i := range ring {
		if distToSegment2(p, ring[i], ring[(i+1)%len(ring)]) <= tol {
			return true
		}
	}
	return false
}

// insideRing2 is the crossing-number test; boundary points are ambiguous.
func insideRing2(p point2, ring []point2) bool {
	in := false
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		a, b := ring[i], ring[j]
		if (a.y > p.y) != (b.y > p.y) {
			x := (b.x-a.x)*(p.y-a.y)/(b.y-a.y) + a.x
			if p.x < x {
				in = !in
			}
		}
	}
	return in
}

// containsPoint2 treats points within tol of the boundary as inside.
func containsPoint2(p point2, ring []point2, tol float64) bool {
	return onBoundary2(p, ring, tol) || insideRing2(p, ring)
}

// segmentsCross2 reports a proper crossing of ab and cd: the segments pass
// through each other rather than touching within tol.
func segmentsCross2(a, b, c, d point2, tol float64) bool {
	d1 := cross2(b.sub(a), c.sub(a))
	d2 := cross2(b.sub(a), d.sub(a))
	d3 := cross2(d.sub(c), a.sub(c))
	d4 := cross2(d.sub(c), b.sub(c))
	lab := math.Hypot(b.x-a.x, b.y-a.y)
	lcd := math.Hypot(d.x-c.x, d.y-c.y)
	if lab < epsilon || lcd < epsilon {
		return false
	}
	// Normalize the orientation tests to distances so tol applies.
	d1, d2 = d1/lab, d2/lab
	d3, d4 = d3/lcd, d4/lcd
	return ((d1 > tol && d2 < -tol) || (d1 < -tol && d2 > tol)) &&
		((d3 > tol && d4 < -tol) || (d3 < -tol && d4 > tol))
}
