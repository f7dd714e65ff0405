// Package pointcloud converts a volume into an explicit set of
// (position, value) samples and answers the spatial queries the resamplers
// need: nearest sample, samples within a radius, and location of the
// structured cell containing a point.
//
// Clouds follow a build-then-query discipline: conversion may run on several
// goroutines, but once built a cloud is immutable and safe for concurrent
// queries.
package pointcloud

import (
	"math"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/spatial/kdtree"

	"scanconvert3d/pkg/geometry"
	"scanconvert3d/pkg/volume"
)

// Sample is one cloud entry: a physical position plus the linear index of the
// source voxel it came from.
type Sample struct {
	X, Y, Z float64
	Index   int
}

// Compare implements the kdtree.Comparable interface.
func (s Sample) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(Sample)
	switch d {
	case 0:
		return s.X - q.X
	case 1:
		return s.Y - q.Y
	case 2:
		return s.Z - q.Z
	default:
		panic("illegal dimension")
	}
}

// Dims returns the number of dimensions for the KD-tree.
func (s Sample) Dims() int { return 3 }

// Distance returns the squared Euclidean distance between two samples.
func (s Sample) Distance(c kdtree.Comparable) float64 {
	q := c.(Sample)
	dx := s.X - q.X
	dy := s.Y - q.Y
	dz := s.Z - q.Z
	return dx*dx + dy*dy + dz*dz
}

// samples is a collection of Sample that satisfies kdtree.Interface.
type samples []Sample

func (p samples) Index(i int) kdtree.Comparable         { return p[i] }
func (p samples) Len() int                              { return len(p) }
func (p samples) Slice(start, end int) kdtree.Interface { return p[start:end] }

func (p samples) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(samplePlane{samples: p, Dim: d}, kdtree.MedianOfRandoms(samplePlane{samples: p, Dim: d}, 100))
}

// samplePlane implements sort.Interface and kdtree.SortSlicer for samples.
type samplePlane struct {
	samples
	kdtree.Dim
}

func (p samplePlane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.samples[i].X < p.samples[j].X
	case 1:
		return p.samples[i].Y < p.samples[j].Y
	case 2:
		return p.samples[i].Z < p.samples[j].Z
	default:
		panic("illegal dimension")
	}
}

func (p samplePlane) Slice(start, end int) kdtree.SortSlicer {
	return samplePlane{samples: p.samples[start:end], Dim: p.Dim}
}

func (p samplePlane) Swap(i, j int) {
	p.samples[i], p.samples[j] = p.samples[j], p.samples[i]
}

// Neighbor is one result of a radius query.
type Neighbor struct {
	// Index is the linear voxel index of the sample in the source volume.
	Index int

	// Dist is the Euclidean distance from the query point to the sample.
	Dist float64
}

// Cloud is the point-set representation of a volume: one positioned sample
// per voxel, in voxel order, plus a KD-tree over the positions.
type Cloud struct {
	// Points holds the physical position of every voxel, in voxel order.
	Points [][3]float64

	// Values references the source volume's scalars, in voxel order.
	Values []float64

	// Size is the structured extent inherited from the source volume.
	Size [3]int

	tree *kdtree.Tree
}

// FromVolume converts a volume into a point cloud using the given
// index-to-physical mapping. Conversion is an order-independent map over
// voxels and fans out across z slices on up to workers goroutines
// (workers <= 0 selects one per CPU).
func FromVolume(v *volume.Volume, m geometry.Mapping, workers int) *Cloud {
	size := v.Grid.Size
	n := size[0] * size[1] * size[2]

	c := &Cloud{
		Points: make([][3]float64, n),
		Values: v.Data,
		Size:   size,
	}

	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > size[2] {
		workers = size[2]
	}
	if workers < 1 {
		workers = 1
	}

	slicesPerWorker := (size[2] + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		startZ := w * slicesPerWorker
		endZ := startZ + slicesPerWorker
		if endZ > size[2] {
			endZ = size[2]
		}
		if startZ >= endZ {
			continue
		}

		wg.Add(1)
		go func(startZ, endZ int) {
			defer wg.Done()
			for k := startZ; k < endZ; k++ {
				for j := 0; j < size[1]; j++ {
					for i := 0; i < size[0]; i++ {
						idx := (k*size[1]+j)*size[0] + i
						c.Points[idx] = m.IndexToPhysical([3]float64{float64(i), float64(j), float64(k)})
					}
				}
			}
		}(startZ, endZ)
	}
	wg.Wait()

	if n > 0 {
		set := make(samples, n)
		for i, p := range c.Points {
			set[i] = Sample{X: p[0], Y: p[1], Z: p[2], Index: i}
		}
		c.tree = kdtree.New(set, true)
	}

	return c
}

// Nearest returns the voxel index of the sample closest to p and its
// Euclidean distance. An empty cloud returns index -1.
func (c *Cloud) Nearest(p [3]float64) (int, float64) {
	if c.tree == nil {
		return -1, 0
	}
	got, dist := c.tree.Nearest(Sample{X: p[0], Y: p[1], Z: p[2], Index: -1})
	if got == nil {
		return -1, 0
	}
	return got.(Sample).Index, math.Sqrt(dist)
}

// WithinRadius returns every sample whose distance from p is at most r.
func (c *Cloud) WithinRadius(p [3]float64, r float64) []Neighbor {
	if c.tree == nil || r <= 0 {
		return nil
	}

	// The keeper and Sample.Distance both work in squared distance.
	keeper := kdtree.NewDistKeeper(r * r)
	c.tree.NearestSet(keeper, Sample{X: p[0], Y: p[1], Z: p[2], Index: -1})

	neighbors := make([]Neighbor, 0, keeper.Len())
	for _, item := range keeper.Heap {
		if item.Comparable == nil {
			continue
		}
		if item.Dist > r*r {
			continue
		}
		neighbors = append(neighbors, Neighbor{
			Index: item.Comparable.(Sample).Index,
			Dist:  math.Sqrt(item.Dist),
		})
	}
	return neighbors
}

