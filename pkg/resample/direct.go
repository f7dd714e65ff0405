package resample

import (
	"fmt"
	"math"

	"scanconvert3d/pkg/volume"
)

// Value assigned to output points that map outside the input's domain.
const outsideValue = 0.0

// Support radius of the Lanczos-windowed sinc kernel.
const sincRadius = 3

// resampleDirect evaluates the input's continuous interpolation function at
// every output lattice position. The output-to-physical map is the grid's
// affine; the physical-to-input-index map inverts the input's own, possibly
// curvilinear, mapping.
func resampleDirect(input *volume.Volume, grid volume.Grid, method Method, progress ProgressCallback, workers int) (*volume.Volume, error) {
	var interpolate func(in *volume.Volume, cidx [3]float64) float64
	switch method {
	case ITKNearestNeighbor:
		interpolate = interpolateNearest
	case ITKLinear:
		interpolate = interpolateLinear
	case ITKWindowedSinc:
		interpolate = interpolateWindowedSinc
	default:
		// Unreachable through the dispatcher; kept so a future family
		// split cannot silently misroute.
		return nil, fmt.Errorf("unsupported method %s in direct resampler", method)
	}

	mapping, err := input.IndexMapping()
	if err != nil {
		return nil, err
	}

	out := volume.New(grid)
	progress.report(0, 0, fmt.Sprintf("Resampling %d voxels with %s...", grid.NumVoxels(), method))

	forEachSlice(grid.Size[2], workers, progress, func(k int) {
		for j := 0; j < grid.Size[1]; j++ {
			for i := 0; i < grid.Size[0]; i++ {
				pos := grid.PointPosition(float64(i), float64(j), float64(k))
				cidx, ok := mapping.PhysicalToIndex(pos)
				if !ok {
					out.SetAt(i, j, k, outsideValue)
					continue
				}
				out.SetAt(i, j, k, interpolate(input, cidx))
			}
		}
	})

	return out, nil
}

// Slack for continuous indices that land a rounding error outside the sampled
// extent; inverting the input mapping is not exact in floating point.
const domainTolerance = 1e-9

// insideDomain reports whether a continuous index lies within the sampled
// extent of the volume.
func insideDomain(v *volume.Volume, cidx [3]float64) bool {
	for a := 0; a < 3; a++ {
		if cidx[a] < -domainTolerance || cidx[a] > float64(v.Grid.Size[a]-1)+domainTolerance {
			return false
		}
	}
	return true
}

// interpolateNearest returns the sample at the rounded index. The domain cut
// is the same as for the other direct methods: indices outside the sampled
// extent yield the outside value, with no half-voxel slack from rounding.
func interpolateNearest(v *volume.Volume, cidx [3]float64) float64 {
	if !insideDomain(v, cidx) {
		return outsideValue
	}
	i := clampIndex(int(math.Round(cidx[0])), v.Grid.Size[0])
	j := clampIndex(int(math.Round(cidx[1])), v.Grid.Size[1])
	k := clampIndex(int(math.Round(cidx[2])), v.Grid.Size[2])
	return v.At(i, j, k)
}

// interpolateLinear blends the eight samples surrounding the continuous
// index.
func interpolateLinear(v *volume.Volume, cidx [3]float64) float64 {
	if !insideDomain(v, cidx) {
		return outsideValue
	}

	var lo [3]int
	var frac [3]float64
	for a := 0; a < 3; a++ {
		c := math.Min(math.Max(cidx[a], 0), float64(v.Grid.Size[a]-1))
		f := math.Floor(c)
		lo[a] = int(f)
		frac[a] = c - f
		// Exactly on the far face: blend from the last cell.
		if lo[a] >= v.Grid.Size[a]-1 {
			lo[a] = v.Grid.Size[a] - 1
			frac[a] = 0
		}
	}

	value := 0.0
	for m := 0; m < 8; m++ {
		di, dj, dk := m&1, (m>>1)&1, (m>>2)&1
		w := blend(frac[0], di) * blend(frac[1], dj) * blend(frac[2], dk)
		if w == 0 {
			continue
		}
		value += w * v.At(clampIndex(lo[0]+di, v.Grid.Size[0]), clampIndex(lo[1]+dj, v.Grid.Size[1]), clampIndex(lo[2]+dk, v.Grid.Size[2]))
	}
	return value
}

func blend(frac float64, corner int) float64 {
	if corner == 0 {
		return 1 - frac
	}
	return frac
}

func clampIndex(i, size int) int {
	if i < 0 {
		return 0
	}
	if i >= size {
		return size - 1
	}
	return i
}

// interpolateWindowedSinc evaluates a Lanczos-windowed sinc of radius 3 over
// the neighborhood of the continuous index. Indices past the boundary are
// clamped, and the weights are renormalized so constant regions pass through
// unchanged. No anti-ringing clamp is applied near sharp edges.
func interpolateWindowedSinc(v *volume.Volume, cidx [3]float64) float64 {
	if !insideDomain(v, cidx) {
		return outsideValue
	}

	var lo, hi [3]int
	for a := 0; a < 3; a++ {
		lo[a] = int(math.Ceil(cidx[a] - sincRadius))
		hi[a] = int(math.Floor(cidx[a] + sincRadius))
	}

	value := 0.0
	weightSum := 0.0
	for k := lo[2]; k <= hi[2]; k++ {
		wk := lanczos(cidx[2] - float64(k))
		if wk == 0 {
			continue
		}
		for j := lo[1]; j <= hi[1]; j++ {
			wjk := wk * lanczos(cidx[1]-float64(j))
			if wjk == 0 {
				continue
			}
			for i := lo[0]; i <= hi[0]; i++ {
				w := wjk * lanczos(cidx[0]-float64(i))
				if w == 0 {
					continue
				}
				value += w * v.At(clampIndex(i, v.Grid.Size[0]), clampIndex(j, v.Grid.Size[1]), clampIndex(k, v.Grid.Size[2]))
				weightSum += w
			}
		}
	}

	if weightSum == 0 {
		return outsideValue
	}
	return value / weightSum
}

// lanczos is the Lanczos windowed sinc kernel with support |x| < sincRadius.
func lanczos(x float64) float64 {
	if x == 0 {
		return 1
	}
	if x < -sincRadius || x > sincRadius {
		return 0
	}
	px := math.Pi * x
	return sincRadius * math.Sin(px) * math.Sin(px/sincRadius) / (px * px)
}
