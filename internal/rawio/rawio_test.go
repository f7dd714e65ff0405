package rawio

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"

	"scanconvert3d/pkg/geometry"
	"scanconvert3d/pkg/volume"
)

// TestWriteReadRoundTrip verifies a Cartesian volume survives a write/read
// cycle with its geometry and voxels intact.
func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.vol")

	v := volume.New(volume.Grid{
		Size:      [3]int{3, 2, 2},
		Spacing:   [3]float64{0.5, 1, 2},
		Origin:    [3]float64{-1, 0, 3},
		Direction: volume.DefaultDirection(),
	})
	for i := range v.Data {
		v.Data[i] = float64(i) * 1.5
	}

	if err := WriteVolume(path, v); err != nil {
		t.Fatalf("WriteVolume failed: %v", err)
	}

	got, err := ReadVolume(path)
	if err != nil {
		t.Fatalf("ReadVolume failed: %v", err)
	}

	if got.Grid != v.Grid {
		t.Errorf("grid = %+v, want %+v", got.Grid, v.Grid)
	}
	if got.Mapping != nil {
		t.Error("Cartesian volume should have no explicit mapping")
	}
	for i := range v.Data {
		if got.Data[i] != v.Data[i] {
			t.Fatalf("voxel %d = %f, want %f", i, got.Data[i], v.Data[i])
		}
	}
}

// TestReadSectorVolume verifies a sector header attaches the phased-array
// mapping.
func TestReadSectorVolume(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sector.vol")

	header := Header{
		Size:             [3]int{2, 2, 2},
		Spacing:          [3]float64{1, 1, 1},
		CoordinateSystem: CoordinateSector,
		Sector: &SectorParams{
			AzimuthAngularSeparation:   0.1,
			ElevationAngularSeparation: 0.1,
			RadiusSampleSize:           0.5,
			FirstSampleDistance:        10,
		},
	}
	headerData, err := yaml.Marshal(&header)
	if err != nil {
		t.Fatalf("failed to marshal header: %v", err)
	}
	if err := os.WriteFile(HeaderPath(path), headerData, 0644); err != nil {
		t.Fatalf("failed to write header: %v", err)
	}
	// 8 float64 voxels of zeros.
	if err := os.WriteFile(path, make([]byte, 8*8), 0644); err != nil {
		t.Fatalf("failed to write voxel data: %v", err)
	}

	v, err := ReadVolume(path)
	if err != nil {
		t.Fatalf("ReadVolume failed: %v", err)
	}

	sector, ok := v.Mapping.(*geometry.PhasedArraySector)
	if !ok {
		t.Fatalf("mapping is %T, want *geometry.PhasedArraySector", v.Mapping)
	}
	if sector.FirstSampleDistance != 10 {
		t.Errorf("firstSampleDistance = %f, want 10", sector.FirstSampleDistance)
	}
	if sector.Size != v.Grid.Size {
		t.Errorf("sector size %v does not match grid size %v", sector.Size, v.Grid.Size)
	}
}

// TestReadUnknownCoordinateSystem verifies unknown coordinate systems are
// rejected.
func TestReadUnknownCoordinateSystem(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.vol")

	headerData := []byte("size: [1, 1, 1]\nspacing: [1, 1, 1]\ncoordinateSystem: polar\n")
	if err := os.WriteFile(HeaderPath(path), headerData, 0644); err != nil {
		t.Fatalf("failed to write header: %v", err)
	}
	if err := os.WriteFile(path, make([]byte, 8), 0644); err != nil {
		t.Fatalf("failed to write voxel data: %v", err)
	}

	if _, err := ReadVolume(path); err == nil {
		t.Error("expected an error for an unknown coordinate system")
	}
}

// TestWriteRejectsMappedVolume verifies curvilinear volumes cannot be
// written back out.
func TestWriteRejectsMappedVolume(t *testing.T) {
	v := volume.New(volume.Grid{
		Size:      [3]int{1, 1, 1},
		Spacing:   [3]float64{1, 1, 1},
		Direction: volume.DefaultDirection(),
	})
	v.Mapping = &geometry.PhasedArraySector{Size: v.Grid.Size}

	if err := WriteVolume(filepath.Join(t.TempDir(), "x.vol"), v); err == nil {
		t.Error("expected an error writing a mapped volume")
	}
}

// TestMissingHeader verifies a data file without its sidecar fails cleanly.
func TestMissingHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orphan.vol")
	if err := os.WriteFile(path, make([]byte, 8), 0644); err != nil {
		t.Fatalf("failed to write voxel data: %v", err)
	}
	if _, err := ReadVolume(path); err == nil {
		t.Error("expected an error for a missing header")
	}
}
