package geom

import "github.com/pkg/errors"

// BoxFaces returns the six outward-facing faces of the axis-aligned box
// spanning min and max, ordered bottom, top, front (-Y), back, left (-X),
// right.
func BoxFaces(min, max Vec) ([]Face, error) {
	if max.X-min.X <= 0 || max.Y-min.Y <= 0 || max.Z-min.Z <= 0 {
		return nil, errors.Wrapf(ErrDegenerate, "box extent %v..%v", min, max)
	}
	x0, y0, z0 := min.X, min.Y, min.Z
	x1, y1, z1 := max.X, max.Y, max.Z
	rings := [][]Vec{
		{{X: x0, Y: y0, Z: z0}, {X: x0, Y: y1, Z: z0}, {X: x1, Y: y1, Z: z0}, {X: x1, Y: y0, Z: z0}},
		{{X: x0, Y: y0, Z: z1}, {X: x1, Y: y0, Z: z1}, {X: x1, Y: y1, Z: z1}, {X: x0, Y: y1, Z: z1}},
		{{X: x0, Y: y0, Z: z0}, {X: x1, Y: y0, Z: z0}, {X: x1, Y: y0, Z: z1}, {X: x0, Y: y0, Z: z1}},
		{{X: x0, Y: y1, Z: z0}, {X: x0, Y: y1, Z: z1}, {X: x1, Y: y1, Z: z1}, {X: x1, Y: y1, Z: z0}},
		{{X: x0, Y: y0, Z: z0}, {X: x0, Y: y0, Z: z1}, {X: x0, Y: y1, Z: z1}, {X: x0, Y: y1, Z: z0}},
		{{X: x1, Y: y0, Z: z0}, {X: x1, Y: y1, Z: z0}, {X: x1, Y: y1, Z: z1}, {X: x1, Y: y0, Z: z1}},
	}
	faces := make([]Face, 0, len(rings))
	for _, r := range rings {
		f, err := NewFace(r)
		if err != nil {
			return nil, err
		}
		faces = append(faces, f)
	}
	return faces, nil
}
