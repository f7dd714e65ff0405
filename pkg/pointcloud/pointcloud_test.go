package pointcloud

import (
	"math"
	"sort"
	"testing"

	"scanconvert3d/pkg/geometry"
	"scanconvert3d/pkg/volume"
)

func cartesianVolume(t *testing.T, size [3]int, spacing, origin [3]float64) (*volume.Volume, geometry.Mapping) {
	t.Helper()
	v := volume.New(volume.Grid{
		Size:      size,
		Spacing:   spacing,
		Origin:    origin,
		Direction: volume.DefaultDirection(),
	})
	m, err := v.IndexMapping()
	if err != nil {
		t.Fatalf("IndexMapping failed: %v", err)
	}
	return v, m
}

// TestFromVolumePositions verifies that conversion emits one positioned
// sample per voxel, in voxel order.
func TestFromVolumePositions(t *testing.T) {
	v, m := cartesianVolume(t, [3]int{3, 3, 3}, [3]float64{1, 2, 3}, [3]float64{10, 0, 0})
	for i := range v.Data {
		v.Data[i] = float64(i)
	}

	cloud := FromVolume(v, m, 2)

	if got, want := len(cloud.Points), 27; got != want {
		t.Fatalf("cloud has %d points, want %d", got, want)
	}
	for k := 0; k < 3; k++ {
		for j := 0; j < 3; j++ {
			for i := 0; i < 3; i++ {
				idx := v.VoxelIndex(i, j, k)
				want := [3]float64{10 + float64(i), 2 * float64(j), 3 * float64(k)}
				for a := 0; a < 3; a++ {
					if math.Abs(cloud.Points[idx][a]-want[a]) > 1e-12 {
						t.Fatalf("point %d axis %d = %f, want %f", idx, a, cloud.Points[idx][a], want[a])
					}
				}
				if cloud.Values[idx] != float64(idx) {
					t.Fatalf("value %d = %f, want %d", idx, cloud.Values[idx], idx)
				}
			}
		}
	}
}

// TestNearest verifies nearest-sample lookup.
func TestNearest(t *testing.T) {
	v, m := cartesianVolume(t, [3]int{4, 4, 4}, [3]float64{1, 1, 1}, [3]float64{0, 0, 0})
	cloud := FromVolume(v, m, 1)

	idx, dist := cloud.Nearest([3]float64{1.2, 1.9, 0.2})
	if want := v.VoxelIndex(1, 2, 0); idx != want {
		t.Errorf("Nearest index = %d, want %d", idx, want)
	}
	wantDist := math.Sqrt(0.2*0.2 + 0.1*0.1 + 0.2*0.2)
	if math.Abs(dist-wantDist) > 1e-12 {
		t.Errorf("Nearest distance = %f, want %f", dist, wantDist)
	}
}

// TestWithinRadiusMatchesBruteForce cross-checks the KD-tree radius query
// against a direct scan of all samples.
func TestWithinRadiusMatchesBruteForce(t *testing.T) {
	v, m := cartesianVolume(t, [3]int{5, 5, 5}, [3]float64{1, 1, 1}, [3]float64{0, 0, 0})
	cloud := FromVolume(v, m, 3)

	queries := [][3]float64{
		{2.2, 1.7, 3.1},
		{0, 0, 0},
		{4.5, 4.5, 4.5},
		{-2, -2, -2}, // far outside: empty result
	}
	radius := 1.5

	for _, q := range queries {
		var want []int
		for idx, p := range cloud.Points {
			dx, dy, dz := p[0]-q[0], p[1]-q[1], p[2]-q[2]
			if math.Sqrt(dx*dx+dy*dy+dz*dz) <= radius {
				want = append(want, idx)
			}
		}

		got := make([]int, 0)
		for _, nb := range cloud.WithinRadius(q, radius) {
			got = append(got, nb.Index)
			if nb.Dist > radius {
				t.Errorf("query %v returned sample %d at distance %f > %f", q, nb.Index, nb.Dist, radius)
			}
		}

		sort.Ints(got)
		sort.Ints(want)
		if len(got) != len(want) {
			t.Fatalf("query %v returned %d samples, want %d", q, len(got), len(want))
		}
		for i := range got {
			if got[i] != want[i] {
				t.Fatalf("query %v result %v, want %v", q, got, want)
			}
		}
	}
}

// TestLocateCellRegularGrid verifies cell location and natural coordinates on
// an axis-aligned unit grid.
func TestLocateCellRegularGrid(t *testing.T) {
	v, m := cartesianVolume(t, [3]int{4, 4, 4}, [3]float64{1, 1, 1}, [3]float64{0, 0, 0})
	cloud := FromVolume(v, m, 1)

	hit, ok := cloud.LocateCell([3]float64{1.25, 2.5, 0.75})
	if !ok {
		t.Fatal("LocateCell missed an interior point")
	}
	if hit.I != 1 || hit.J != 2 || hit.K != 0 {
		t.Errorf("cell origin = (%d,%d,%d), want (1,2,0)", hit.I, hit.J, hit.K)
	}
	for name, got := range map[string][2]float64{
		"R": {hit.R, 0.25}, "S": {hit.S, 0.5}, "T": {hit.T, 0.75},
	} {
		if math.Abs(got[0]-got[1]) > 1e-9 {
			t.Errorf("%s = %f, want %f", name, got[0], got[1])
		}
	}
}

// TestLocateCellOutsideDomain verifies that points beyond the grid find no
// cell.
func TestLocateCellOutsideDomain(t *testing.T) {
	v, m := cartesianVolume(t, [3]int{4, 4, 4}, [3]float64{1, 1, 1}, [3]float64{0, 0, 0})
	cloud := FromVolume(v, m, 1)

	for _, q := range [][3]float64{
		{-1, -1, -1},
		{3.5, 1, 1},
		{1, 1, 100},
	} {
		if _, ok := cloud.LocateCell(q); ok {
			t.Errorf("LocateCell claimed to contain outside point %v", q)
		}
	}
}

// TestInterpolateCellAffineField verifies that shape-function interpolation
// is exact for a field that is affine in physical coordinates, including on a
// warped (sector) grid.
func TestInterpolateCellAffineField(t *testing.T) {
	affine := func(p [3]float64) float64 { return 2*p[0] - 3*p[1] + 0.5*p[2] + 1 }

	sector := &geometry.PhasedArraySector{
		Size:                       [3]int{9, 7, 10},
		AzimuthAngularSeparation:   0.1,
		ElevationAngularSeparation: 0.1,
		RadiusSampleSize:           1,
		FirstSampleDistance:        5,
	}
	v := volume.New(volume.Grid{
		Size:      sector.Size,
		Spacing:   [3]float64{1, 1, 1},
		Direction: volume.DefaultDirection(),
	})
	v.Mapping = sector

	cloud := FromVolume(v, sector, 2)
	for idx, p := range cloud.Points {
		v.Data[idx] = affine(p)
	}

	// Probe at warped positions strictly inside the sector.
	for _, idx := range [][3]float64{
		{4.3, 3.6, 2.5},
		{1.5, 1.5, 8.5},
		{6.9, 2.1, 0.4},
	} {
		p := sector.IndexToPhysical(idx)
		hit, ok := cloud.LocateCell(p)
		if !ok {
			t.Fatalf("LocateCell missed interior sector point %v", p)
		}
		got := cloud.InterpolateCell(hit)
		if want := affine(p); math.Abs(got-want) > 1e-9 {
			t.Errorf("interpolated %f at %v, want %f", got, p, want)
		}
	}
}

// TestEmptyCloud verifies that queries on an empty cloud degrade gracefully.
func TestEmptyCloud(t *testing.T) {
	v, m := cartesianVolume(t, [3]int{0, 0, 0}, [3]float64{1, 1, 1}, [3]float64{0, 0, 0})
	cloud := FromVolume(v, m, 1)

	if idx, _ := cloud.Nearest([3]float64{0, 0, 0}); idx != -1 {
		t.Errorf("Nearest on empty cloud = %d, want -1", idx)
	}
	if nbs := cloud.WithinRadius([3]float64{0, 0, 0}, 10); len(nbs) != 0 {
		t.Errorf("WithinRadius on empty cloud returned %d samples", len(nbs))
	}
	if _, ok := cloud.LocateCell([3]float64{0, 0, 0}); ok {
		t.Error("LocateCell on empty cloud reported a hit")
	}
}
