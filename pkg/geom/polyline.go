package geom

// Polyline is an ordered run of points. Closed polylines do not repeat their
// first point at the end.
type Polyline struct {
	Points []Vec
	Closed bool
}

// JoinSegments chains segments whose endpoints meet within tol. Chains are
// grown from the first unused segment in input order, so the result order
// follows the input order.
func JoinSegments(segs []Segment, tol float64) []Polyline {
	used := make([]bool, len(segs))
	var out []Polyline
	for start := range segs {
		if used[start] {
			continue
		}
		used[start] = true
		pts := []Vec{segs[start].A, segs[start].B}
		closed := false
		for {
			end := pts[len(pts)-1]
			if len(pts) > 2 && Dist(end, pts[0]) <= tol {
				pts = pts[:len(pts)-1]
				closed = true
				break
			}
			next := -1
			var to Vec
			for i, s := range segs {
				if used[i] {
					continue
				}
				if Dist(s.A, end) <= tol {
					next, to = i, s.B
					break
				}
				if Dist(s.B, end) <= tol {
					next, to = i, s.A
					break
				}
			}
			if next < 0 {
				break
			}
			used[next] = true
			pts = append(pts, to)
		}
		out = append(out, Polyline{Points: pts, Closed: closed})
	}
	return out
}
