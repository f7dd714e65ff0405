// Package volume holds the data model shared by every resampler: the Grid
// descriptor of a Cartesian lattice and the Volume of scalar samples living on
// it (or, for curvilinear acquisitions, indexed by it).
package volume

import (
	"scanconvert3d/pkg/geometry"
)

// Grid describes a uniform Cartesian lattice: voxel counts, physical spacing
// between neighboring voxels, the physical position of voxel (0,0,0) and the
// orientation of the index axes.
//
// Invariants: Size[i] >= 0 and Spacing[i] > 0. Positive spacing is a
// documented precondition and is not validated here.
type Grid struct {
	Size      [3]int
	Spacing   [3]float64
	Origin    [3]float64
	Direction [3][3]float64
}

// DefaultDirection returns the identity orientation.
func DefaultDirection() [3][3]float64 {
	return [3][3]float64{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
}

// NumVoxels returns the total number of lattice points.
func (g Grid) NumVoxels() int {
	return g.Size[0] * g.Size[1] * g.Size[2]
}

// PointPosition returns the physical position of the (possibly fractional)
// lattice index (i, j, k):
//
//	p = origin + direction * diag(spacing) * (i, j, k)
//
// with the columns of the direction matrix giving the axis orientations.
func (g Grid) PointPosition(i, j, k float64) [3]float64 {
	idx := [3]float64{i, j, k}
	var p [3]float64
	for r := 0; r < 3; r++ {
		p[r] = g.Origin[r]
		for c := 0; c < 3; c++ {
			p[r] += g.Direction[r][c] * g.Spacing[c] * idx[c]
		}
	}
	return p
}

// Mapping returns the grid's own affine index-to-physical mapping.
func (g Grid) Mapping() (geometry.Mapping, error) {
	return geometry.NewAffine(g.Origin, g.Spacing, g.Direction)
}

// Volume is a 3D array of scalar samples indexed by the grid, stored in
// row-major order with the x index varying fastest.
//
// A Cartesian volume leaves Mapping nil and is positioned by its Grid. A
// curvilinear volume carries the non-affine mapping of its acquisition
// geometry; its Grid then only describes the index extent and nominal sample
// separations.
type Volume struct {
	Grid    Grid
	Data    []float64
	Mapping geometry.Mapping
}

// New allocates a zero-filled volume on the given grid.
func New(grid Grid) *Volume {
	return &Volume{
		Grid: grid,
		Data: make([]float64, grid.NumVoxels()),
	}
}

// VoxelIndex returns the linear data index of voxel (i, j, k).
func (v *Volume) VoxelIndex(i, j, k int) int {
	return (k*v.Grid.Size[1]+j)*v.Grid.Size[0] + i
}

// Contains reports whether (i, j, k) lies inside the sampled extent.
func (v *Volume) Contains(i, j, k int) bool {
	return i >= 0 && i < v.Grid.Size[0] &&
		j >= 0 && j < v.Grid.Size[1] &&
		k >= 0 && k < v.Grid.Size[2]
}

// At returns the sample at voxel (i, j, k).
func (v *Volume) At(i, j, k int) float64 {
	return v.Data[v.VoxelIndex(i, j, k)]
}

// SetAt stores a sample at voxel (i, j, k).
func (v *Volume) SetAt(i, j, k int, value float64) {
	v.Data[v.VoxelIndex(i, j, k)] = value
}

// IndexMapping returns the volume's index-to-physical mapping, falling back to
// the grid's own affine mapping for Cartesian volumes.
func (v *Volume) IndexMapping() (geometry.Mapping, error) {
	if v.Mapping != nil {
		return v.Mapping, nil
	}
	return v.Grid.Mapping()
}
