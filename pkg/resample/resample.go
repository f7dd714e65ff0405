// Package resample converts a volume sampled on a curvilinear acquisition
// grid into a uniform Cartesian volume. The caller picks one of eight
// methods; the dispatcher routes to one of three resampler families, all of
// which receive the same output grid descriptor.
package resample

import (
	"fmt"
	"runtime"
	"sync"

	"scanconvert3d/pkg/volume"
)

// Resample scan-converts input onto the Cartesian lattice described by grid
// using the given method, reporting milestones to progress. It uses one
// worker per CPU; see ResampleParallel to control the worker count.
//
// The output volume is fully populated on success: every lattice point holds
// an interpolated value or the method's out-of-domain default. On failure no
// volume is returned.
func Resample(input *volume.Volume, grid volume.Grid, method Method, progress ProgressCallback) (*volume.Volume, error) {
	return ResampleParallel(input, grid, method, progress, runtime.NumCPU())
}

// ResampleByName is Resample with the method given by name. Unrecognized
// names fall back to ITKLinear, as documented on ParseMethod.
func ResampleByName(input *volume.Volume, grid volume.Grid, methodName string, progress ProgressCallback) (*volume.Volume, error) {
	return Resample(input, grid, ParseMethod(methodName), progress)
}

// ResampleParallel is Resample with an explicit worker count
// (workers <= 0 selects one per CPU).
func ResampleParallel(input *volume.Volume, grid volume.Grid, method Method, progress ProgressCallback, workers int) (*volume.Volume, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	switch method {
	case ITKNearestNeighbor, ITKLinear, ITKWindowedSinc:
		return resampleDirect(input, grid, method, progress, workers)
	case VTKProbeFilter:
		return resampleProbe(input, grid, progress, workers)
	case VTKGaussianKernel, VTKLinearKernel, VTKShepardKernel, VTKVoronoiKernel:
		return resampleKernel(input, grid, method, progress, workers)
	default:
		return nil, fmt.Errorf("unsupported resampling method %d", int(method))
	}
}

// forEachSlice runs fn for every output z slice, fanning the slice range out
// across workers goroutines and reporting per-slice progress. fn must write
// only to its own slice of the output.
func forEachSlice(numSlices, workers int, progress ProgressCallback, fn func(k int)) {
	if numSlices <= 0 {
		return
	}
	if workers > numSlices {
		workers = numSlices
	}

	slicesPerWorker := (numSlices + workers - 1) / workers

	var wg sync.WaitGroup
	var progressMutex sync.Mutex
	completed := 0

	for w := 0; w < workers; w++ {
		start := w * slicesPerWorker
		end := start + slicesPerWorker
		if end > numSlices {
			end = numSlices
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for k := start; k < end; k++ {
				fn(k)

				progressMutex.Lock()
				completed++
				done := completed
				progressMutex.Unlock()
				progress.report(done, numSlices, "")
			}
		}(start, end)
	}

	wg.Wait()
}
