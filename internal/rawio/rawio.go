// Package rawio reads and writes volumes as raw little-endian float64 voxel
// files with a YAML sidecar header describing the geometry. It is the file
// surface the command-line driver uses to populate resampling calls; the
// resampling core never touches it.
package rawio

import (
	"encoding/binary"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"scanconvert3d/pkg/geometry"
	"scanconvert3d/pkg/volume"
)

// Coordinate system names accepted in headers.
const (
	CoordinateCartesian = "cartesian"
	CoordinateSector    = "sector"
)

// SectorParams holds the phased-array geometry of a sector acquisition.
type SectorParams struct {
	// AzimuthAngularSeparation is the angle in radians between neighboring
	// azimuth samples
	AzimuthAngularSeparation float64 `yaml:"azimuthAngularSeparation"`

	// ElevationAngularSeparation is the angle in radians between neighboring
	// elevation samples
	ElevationAngularSeparation float64 `yaml:"elevationAngularSeparation"`

	// RadiusSampleSize is the physical distance between radius samples
	RadiusSampleSize float64 `yaml:"radiusSampleSize"`

	// FirstSampleDistance is the radius of the first sample along the beam
	FirstSampleDistance float64 `yaml:"firstSampleDistance"`
}

// Header is the YAML sidecar describing a raw volume file.
type Header struct {
	// Size is the voxel count along each axis
	Size [3]int `yaml:"size"`

	// Spacing is the physical (or nominal, for sector volumes) distance
	// between adjacent samples
	Spacing [3]float64 `yaml:"spacing"`

	// Origin is the physical position of voxel (0,0,0); ignored for sector
	// volumes, whose apex sits at the physical origin
	Origin [3]float64 `yaml:"origin"`

	// Direction is the axis orientation; all zero means identity
	Direction [3][3]float64 `yaml:"direction"`

	// CoordinateSystem is "cartesian" or "sector"
	CoordinateSystem string `yaml:"coordinateSystem"`

	// Sector carries the acquisition geometry when CoordinateSystem is
	// "sector"
	Sector *SectorParams `yaml:"sector,omitempty"`
}

// HeaderPath returns the sidecar path for a voxel data path.
func HeaderPath(dataPath string) string {
	return dataPath + ".yaml"
}

// ReadVolume loads the voxel file at dataPath and its YAML sidecar
// (dataPath + ".yaml"), returning a positioned volume. Sector headers attach
// the phased-array mapping to the volume.
func ReadVolume(dataPath string) (*volume.Volume, error) {
	headerData, err := os.ReadFile(HeaderPath(dataPath))
	if err != nil {
		return nil, fmt.Errorf("error reading volume header: %w", err)
	}

	var header Header
	if err := yaml.Unmarshal(headerData, &header); err != nil {
		return nil, fmt.Errorf("error parsing volume header: %w", err)
	}

	v, err := header.newVolume()
	if err != nil {
		return nil, err
	}

	file, err := os.Open(dataPath)
	if err != nil {
		return nil, fmt.Errorf("error opening volume data: %w", err)
	}
	defer file.Close()

	if err := binary.Read(file, binary.LittleEndian, v.Data); err != nil {
		return nil, fmt.Errorf("error reading %d voxels from %s: %w", len(v.Data), dataPath, err)
	}

	return v, nil
}

// WriteVolume stores a volume as a raw voxel file plus YAML sidecar. Only
// Cartesian volumes are written; resampled outputs always are.
func WriteVolume(dataPath string, v *volume.Volume) error {
	if v.Mapping != nil {
		return fmt.Errorf("only Cartesian volumes can be written, got a mapped volume")
	}

	header := Header{
		Size:             v.Grid.Size,
		Spacing:          v.Grid.Spacing,
		Origin:           v.Grid.Origin,
		Direction:        v.Grid.Direction,
		CoordinateSystem: CoordinateCartesian,
	}

	headerData, err := yaml.Marshal(&header)
	if err != nil {
		return fmt.Errorf("error marshaling volume header: %w", err)
	}
	if err := os.WriteFile(HeaderPath(dataPath), headerData, 0644); err != nil {
		return fmt.Errorf("error writing volume header: %w", err)
	}

	file, err := os.Create(dataPath)
	if err != nil {
		return fmt.Errorf("error creating volume data file: %w", err)
	}
	defer file.Close()

	if err := binary.Write(file, binary.LittleEndian, v.Data); err != nil {
		return fmt.Errorf("error writing voxels to %s: %w", dataPath, err)
	}

	return nil
}

// newVolume allocates the volume a header describes.
func (h *Header) newVolume() (*volume.Volume, error) {
	for a := 0; a < 3; a++ {
		if h.Size[a] < 0 {
			return nil, fmt.Errorf("invalid volume size %v", h.Size)
		}
	}

	grid := volume.Grid{
		Size:      h.Size,
		Spacing:   h.Spacing,
		Origin:    h.Origin,
		Direction: h.Direction,
	}
	if isZeroMatrix(h.Direction) {
		grid.Direction = volume.DefaultDirection()
	}
	v := volume.New(grid)

	switch h.CoordinateSystem {
	case "", CoordinateCartesian:
		// Positioned by the grid itself.
	case CoordinateSector:
		if h.Sector == nil {
			return nil, fmt.Errorf("sector volume header is missing sector parameters")
		}
		v.Mapping = &geometry.PhasedArraySector{
			Size:                       h.Size,
			AzimuthAngularSeparation:   h.Sector.AzimuthAngularSeparation,
			ElevationAngularSeparation: h.Sector.ElevationAngularSeparation,
			RadiusSampleSize:           h.Sector.RadiusSampleSize,
			FirstSampleDistance:        h.Sector.FirstSampleDistance,
		}
	default:
		return nil, fmt.Errorf("unknown coordinate system %q", h.CoordinateSystem)
	}

	return v, nil
}

func isZeroMatrix(m [3][3]float64) bool {
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			if m[r][c] != 0 {
				return false
			}
		}
	}
	return true
}
