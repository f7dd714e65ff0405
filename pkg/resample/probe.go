package resample

import (
	"fmt"

	"scanconvert3d/pkg/pointcloud"
	"scanconvert3d/pkg/volume"
)

// resampleProbe converts the input to a structured point set preserving the
// acquisition grid's adjacency, then probes it at every output lattice
// position: locate the hexahedral source cell containing the probe point and
// blend its corner values with the cell's shape functions.
//
// Probe points outside the source's domain keep the default value. The output
// grid's direction matrix is applied when placing probe points, so an
// oriented grid behaves the same here as in the direct resampler.
func resampleProbe(input *volume.Volume, grid volume.Grid, progress ProgressCallback, workers int) (*volume.Volume, error) {
	mapping, err := input.IndexMapping()
	if err != nil {
		return nil, err
	}

	progress.report(0, 0, "Converting input to a structured point set...")
	cloud := pointcloud.FromVolume(input, mapping, workers)

	out := volume.New(grid)
	progress.report(0, 0, fmt.Sprintf("Probing %d points...", grid.NumVoxels()))

	forEachSlice(grid.Size[2], workers, progress, func(k int) {
		for j := 0; j < grid.Size[1]; j++ {
			for i := 0; i < grid.Size[0]; i++ {
				pos := grid.PointPosition(float64(i), float64(j), float64(k))
				hit, ok := cloud.LocateCell(pos)
				if !ok {
					continue // leave the default value
				}
				out.SetAt(i, j, k, cloud.InterpolateCell(hit))
			}
		}
	})

	return out, nil
}
