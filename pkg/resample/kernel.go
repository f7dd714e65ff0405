package resample

import (
	"fmt"
	"math"

	"scanconvert3d/pkg/pointcloud"
	"scanconvert3d/pkg/volume"
)

// KernelType tags one of the scattered-data interpolation kernels.
type KernelType int

const (
	GaussianKernel KernelType = iota
	LinearKernel
	ShepardKernel
	VoronoiKernel
)

// Kernel configures scattered-data interpolation: the kernel law, its
// footprint radius, and the value assigned where no sample qualifies.
// Voronoi assignment ignores the radius.
type Kernel struct {
	Type      KernelType
	Radius    float64
	NullValue float64
}

// Gaussian sharpness. Weights fall as exp(-(2d/r)^2), near zero at the
// footprint edge.
const gaussianSharpness = 2.0

// Shepard inverse-distance exponent.
const shepardPower = 2

// Distances below this are treated as a coincident sample.
const coincidentDistance = 1e-12

// resampleKernel converts the input to an unstructured point cloud, then
// combines, for every output lattice position, the cloud samples within the
// kernel radius. The radius is derived once from the output spacing:
// 1.1 times its largest component.
func resampleKernel(input *volume.Volume, grid volume.Grid, method Method, progress ProgressCallback, workers int) (*volume.Volume, error) {
	var kind KernelType
	switch method {
	case VTKGaussianKernel:
		kind = GaussianKernel
	case VTKLinearKernel:
		kind = LinearKernel
	case VTKShepardKernel:
		kind = ShepardKernel
	case VTKVoronoiKernel:
		kind = VoronoiKernel
	default:
		// Unreachable through the dispatcher.
		return nil, fmt.Errorf("unexpected interpolation kernel for method %s", method)
	}

	maxSpacing := 0.0
	for a := 0; a < 3; a++ {
		maxSpacing = math.Max(maxSpacing, grid.Spacing[a])
	}
	kernel := Kernel{
		Type:      kind,
		Radius:    1.1 * maxSpacing,
		NullValue: 0.0,
	}

	mapping, err := input.IndexMapping()
	if err != nil {
		return nil, err
	}

	progress.report(0, 0, "Converting input to a point cloud...")
	cloud := pointcloud.FromVolume(input, mapping, workers)

	out := volume.New(grid)
	progress.report(0, 0, fmt.Sprintf("Interpolating %d points with the %s kernel (radius %.3f)...",
		grid.NumVoxels(), method, kernel.Radius))

	forEachSlice(grid.Size[2], workers, progress, func(k int) {
		for j := 0; j < grid.Size[1]; j++ {
			for i := 0; i < grid.Size[0]; i++ {
				pos := grid.PointPosition(float64(i), float64(j), float64(k))
				out.SetAt(i, j, k, kernel.Evaluate(cloud, pos))
			}
		}
	})

	return out, nil
}

// Evaluate interpolates the cloud at a physical position per the kernel law.
// It returns the kernel's null value when no sample qualifies.
func (k Kernel) Evaluate(cloud *pointcloud.Cloud, pos [3]float64) float64 {
	if k.Type == VoronoiKernel {
		// Nearest-sample assignment, no radius bound. Ties between
		// equidistant samples resolve to whichever the tree visits
		// first; the choice is not stable across builds.
		nearest, _ := cloud.Nearest(pos)
		if nearest < 0 {
			return k.NullValue
		}
		return cloud.Values[nearest]
	}

	neighbors := cloud.WithinRadius(pos, k.Radius)
	if len(neighbors) == 0 {
		return k.NullValue
	}

	weightSum := 0.0
	valueSum := 0.0
	for _, nb := range neighbors {
		var w float64
		switch k.Type {
		case GaussianKernel:
			u := gaussianSharpness * nb.Dist / k.Radius
			w = math.Exp(-u * u)
		case LinearKernel:
			w = 1 - nb.Dist/k.Radius
		case ShepardKernel:
			// Inverse distance is singular at d = 0; a coincident
			// sample wins outright.
			if nb.Dist < coincidentDistance {
				return cloud.Values[nb.Index]
			}
			w = 1 / math.Pow(nb.Dist, shepardPower)
		}
		weightSum += w
		valueSum += w * cloud.Values[nb.Index]
	}

	if weightSum == 0 {
		return k.NullValue
	}
	return valueSum / weightSum
}
