// Package geometry provides the coordinate mappings between image index space
// and physical space. Cartesian volumes use an affine mapping built from
// origin, spacing and direction; curvilinear acquisitions (e.g. a phased-array
// sector scan) use a non-affine mapping with an analytic or Newton-iterated
// inverse.
package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Mapping is a bidirectional mapping between continuous index coordinates and
// physical coordinates.
//
// IndexToPhysical maps a (possibly fractional) index to a physical position.
// PhysicalToIndex inverts the mapping; the boolean reports whether the inverse
// is defined at the given physical point. Index coordinates returned by
// PhysicalToIndex are continuous and may lie outside the sampled extent of a
// volume; bounds checking is the caller's concern.
type Mapping interface {
	IndexToPhysical(idx [3]float64) [3]float64
	PhysicalToIndex(p [3]float64) ([3]float64, bool)
}

// Affine maps index space to physical space by
//
//	p = origin + direction * diag(spacing) * idx
//
// where the columns of the direction matrix are the physical orientations of
// the index axes.
type Affine struct {
	origin [3]float64
	fwd    *mat.Dense
	inv    *mat.Dense
}

// NewAffine builds an affine mapping from an origin, per-axis spacing and a
// 3x3 direction matrix. The direction matrix must be invertible; for the
// orthonormal matrices used by image grids this always holds.
func NewAffine(origin [3]float64, spacing [3]float64, direction [3][3]float64) (*Affine, error) {
	fwd := mat.NewDense(3, 3, nil)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			fwd.Set(r, c, direction[r][c]*spacing[c])
		}
	}

	inv := mat.NewDense(3, 3, nil)
	if err := inv.Inverse(fwd); err != nil {
		return nil, fmt.Errorf("geometry: direction/spacing matrix is not invertible: %w", err)
	}

	return &Affine{origin: origin, fwd: fwd, inv: inv}, nil
}

// IndexToPhysical maps a continuous index to its physical position.
func (a *Affine) IndexToPhysical(idx [3]float64) [3]float64 {
	var p [3]float64
	for r := 0; r < 3; r++ {
		p[r] = a.origin[r]
		for c := 0; c < 3; c++ {
			p[r] += a.fwd.At(r, c) * idx[c]
		}
	}
	return p
}

// PhysicalToIndex maps a physical position back to continuous index
// coordinates. An affine mapping is defined everywhere, so the boolean is
// always true.
func (a *Affine) PhysicalToIndex(p [3]float64) ([3]float64, bool) {
	var d [3]float64
	for r := 0; r < 3; r++ {
		d[r] = p[r] - a.origin[r]
	}
	var idx [3]float64
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			idx[r] += a.inv.At(r, c) * d[c]
		}
	}
	return idx, true
}

// InvertNewton inverts an index-to-physical function numerically. It runs a
// Newton iteration with a finite-difference Jacobian starting from guess and
// returns the index coordinates whose image is target. The boolean reports
// convergence.
//
// Mappings with an analytic inverse should use it directly; this exists for
// custom curvilinear mappings where only the forward function is known.
func InvertNewton(forward func([3]float64) [3]float64, target, guess [3]float64) ([3]float64, bool) {
	const (
		maxIterations = 50
		tolerance     = 1e-10
		step          = 1e-6
	)

	idx := guess
	jac := mat.NewDense(3, 3, nil)
	res := mat.NewVecDense(3, nil)
	var delta mat.VecDense

	for iter := 0; iter < maxIterations; iter++ {
		p := forward(idx)
		norm := 0.0
		for r := 0; r < 3; r++ {
			res.SetVec(r, p[r]-target[r])
			norm += (p[r] - target[r]) * (p[r] - target[r])
		}
		if math.Sqrt(norm) < tolerance {
			return idx, true
		}

		// Central-difference Jacobian of the forward mapping.
		for c := 0; c < 3; c++ {
			plus, minus := idx, idx
			plus[c] += step
			minus[c] -= step
			pp := forward(plus)
			pm := forward(minus)
			for r := 0; r < 3; r++ {
				jac.Set(r, c, (pp[r]-pm[r])/(2*step))
			}
		}

		if err := delta.SolveVec(jac, res); err != nil {
			return idx, false
		}
		for r := 0; r < 3; r++ {
			idx[r] -= delta.AtVec(r)
		}
	}

	// Accept a late convergence on the final iterate.
	p := forward(idx)
	norm := 0.0
	for r := 0; r < 3; r++ {
		norm += (p[r] - target[r]) * (p[r] - target[r])
	}
	return idx, math.Sqrt(norm) < tolerance
}
