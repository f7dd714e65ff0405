package pointcloud

import (
	"gonum.org/v1/gonum/mat"
)

// CellHit identifies the hexahedral cell containing a query point together
// with the point's natural coordinates inside it.
type CellHit struct {
	// I, J, K is the lowest-index corner of the cell.
	I, J, K int

	// R, S, T are the natural coordinates of the query point within the
	// cell, each in [0, 1].
	R, S, T float64
}

// Natural-coordinate tolerance: points this far outside the unit cube are
// still accepted so that probe points on shared cell faces are never lost to
// round-off.
const cellTolerance = 1e-8

// LocateCell finds the structured cell whose bounds contain p. Cells are the
// hexahedra spanned by the eight samples at (i..i+1, j..j+1, k..k+1) of the
// source grid, so the query only makes sense for structured clouds.
//
// The search starts from the sample nearest to p and tests the cells around
// it, inverting each cell's trilinear map to natural coordinates. A point
// outside the cloud's domain finds no cell and returns false.
func (c *Cloud) LocateCell(p [3]float64) (CellHit, bool) {
	nx, ny, nz := c.Size[0], c.Size[1], c.Size[2]
	if nx < 2 || ny < 2 || nz < 2 {
		return CellHit{}, false
	}

	nearest, _ := c.Nearest(p)
	if nearest < 0 {
		return CellHit{}, false
	}
	i0 := nearest % nx
	j0 := (nearest / nx) % ny
	k0 := nearest / (nx * ny)

	// Cells incident to the nearest sample first, then one ring further out
	// for points that fall just across a warped cell boundary.
	for ring := 1; ring <= 2; ring++ {
		for dk := -ring; dk < ring; dk++ {
			for dj := -ring; dj < ring; dj++ {
				for di := -ring; di < ring; di++ {
					if ring == 2 && di > -2 && di < 1 && dj > -2 && dj < 1 && dk > -2 && dk < 1 {
						continue // already tested in the inner ring
					}
					i, j, k := i0+di, j0+dj, k0+dk
					if i < 0 || i > nx-2 || j < 0 || j > ny-2 || k < 0 || k > nz-2 {
						continue
					}
					if hit, ok := c.evaluateCell(i, j, k, p); ok {
						return hit, true
					}
				}
			}
		}
	}

	return CellHit{}, false
}

// InterpolateCell blends the cell's eight corner values with the trilinear
// shape functions at the hit's natural coordinates.
func (c *Cloud) InterpolateCell(hit CellHit) float64 {
	nx, ny := c.Size[0], c.Size[1]
	r, s, t := hit.R, hit.S, hit.T

	value := 0.0
	for m := 0; m < 8; m++ {
		di, dj, dk := m&1, (m>>1)&1, (m>>2)&1
		w := shape1(r, di) * shape1(s, dj) * shape1(t, dk)
		idx := ((hit.K+dk)*ny+hit.J+dj)*nx + hit.I + di
		value += w * c.Values[idx]
	}
	return value
}

func shape1(u float64, corner int) float64 {
	if corner == 0 {
		return 1 - u
	}
	return u
}

// evaluateCell inverts the trilinear map of the cell at (i, j, k) for p. The
// inversion is a Newton iteration on the shape-function expansion; it
// converges in a handful of steps for any non-degenerate hexahedron.
func (c *Cloud) evaluateCell(i, j, k int, p [3]float64) (CellHit, bool) {
	nx, ny := c.Size[0], c.Size[1]

	var corners [8][3]float64
	for m := 0; m < 8; m++ {
		di, dj, dk := m&1, (m>>1)&1, (m>>2)&1
		corners[m] = c.Points[((k+dk)*ny+j+dj)*nx+i+di]
	}

	r, s, t := 0.5, 0.5, 0.5
	jac := mat.NewDense(3, 3, nil)
	res := mat.NewVecDense(3, nil)
	var delta mat.VecDense

	for iter := 0; iter < 20; iter++ {
		var pos, dr, ds, dt [3]float64
		for m := 0; m < 8; m++ {
			di, dj, dk := m&1, (m>>1)&1, (m>>2)&1
			wr, ws, wt := shape1(r, di), shape1(s, dj), shape1(t, dk)
			gr, gs, gt := grad1(di), grad1(dj), grad1(dk)
			for a := 0; a < 3; a++ {
				pos[a] += wr * ws * wt * corners[m][a]
				dr[a] += gr * ws * wt * corners[m][a]
				ds[a] += wr * gs * wt * corners[m][a]
				dt[a] += wr * ws * gt * corners[m][a]
			}
		}

		norm := 0.0
		for a := 0; a < 3; a++ {
			res.SetVec(a, pos[a]-p[a])
			norm += (pos[a] - p[a]) * (pos[a] - p[a])
			jac.Set(a, 0, dr[a])
			jac.Set(a, 1, ds[a])
			jac.Set(a, 2, dt[a])
		}
		if norm < 1e-24 {
			break
		}

		if err := delta.SolveVec(jac, res); err != nil {
			return CellHit{}, false
		}
		r -= delta.AtVec(0)
		s -= delta.AtVec(1)
		t -= delta.AtVec(2)

		// A diverging iterate cannot come back inside the cell.
		if r < -1 || r > 2 || s < -1 || s > 2 || t < -1 || t > 2 {
			return CellHit{}, false
		}
	}

	if r < -cellTolerance || r > 1+cellTolerance ||
		s < -cellTolerance || s > 1+cellTolerance ||
		t < -cellTolerance || t > 1+cellTolerance {
		return CellHit{}, false
	}

	return CellHit{
		I: i, J: j, K: k,
		R: clamp01(r), S: clamp01(s), T: clamp01(t),
	}, true
}

func grad1(corner int) float64 {
	if corner == 0 {
		return -1
	}
	return 1
}

func clamp01(u float64) float64 {
	if u < 0 {
		return 0
	}
	if u > 1 {
		return 1
	}
	return u
}
