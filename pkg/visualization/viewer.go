// Package visualization exports 2D slice images of a resampled volume for
// visual inspection of scan-conversion results.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/tiff"

	"scanconvert3d/pkg/volume"
)

// Viewer extracts and saves grayscale slice images of a volume. Voxel values
// are windowed to the volume's min/max range once at construction.
type Viewer struct {
	vol *volume.Volume

	// window limits mapping voxel values to gray levels
	min float64
	max float64
}

// NewViewer creates a viewer over a volume.
func NewViewer(v *volume.Volume) *Viewer {
	viewer := &Viewer{vol: v, min: math.Inf(1), max: math.Inf(-1)}
	for _, value := range v.Data {
		if value < viewer.min {
			viewer.min = value
		}
		if value > viewer.max {
			viewer.max = value
		}
	}
	if viewer.min > viewer.max {
		// Empty volume; any window works.
		viewer.min, viewer.max = 0, 1
	}
	return viewer
}

// gray16 windows a voxel value into the 16-bit gray range.
func (v *Viewer) gray16(value float64) color.Gray16 {
	if v.max == v.min {
		return color.Gray16{Y: 0}
	}
	scaled := (value - v.min) / (v.max - v.min) * 65535
	return color.Gray16{Y: uint16(math.Max(0, math.Min(65535, scaled)))}
}

// ExtractSlice extracts a 2D slice from the volume along the specified axis.
func (v *Viewer) ExtractSlice(axis string, position int) (image.Image, error) {
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}

	size := v.vol.Grid.Size
	var img *image.Gray16

	switch axis {
	case "x", "X":
		// Extract slice along YZ plane
		if position >= size[0] {
			return nil, fmt.Errorf("position %d exceeds width %d", position, size[0])
		}

		img = image.NewGray16(image.Rect(0, 0, size[2], size[1]))
		for y := 0; y < size[1]; y++ {
			for z := 0; z < size[2]; z++ {
				img.SetGray16(z, y, v.gray16(v.vol.At(position, y, z)))
			}
		}

	case "y", "Y":
		// Extract slice along XZ plane
		if position >= size[1] {
			return nil, fmt.Errorf("position %d exceeds height %d", position, size[1])
		}

		img = image.NewGray16(image.Rect(0, 0, size[0], size[2]))
		for z := 0; z < size[2]; z++ {
			for x := 0; x < size[0]; x++ {
				img.SetGray16(x, z, v.gray16(v.vol.At(x, position, z)))
			}
		}

	case "z", "Z":
		// Extract slice along XY plane
		if position >= size[2] {
			return nil, fmt.Errorf("position %d exceeds depth %d", position, size[2])
		}

		img = image.NewGray16(image.Rect(0, 0, size[0], size[1]))
		for y := 0; y < size[1]; y++ {
			for x := 0; x < size[0]; x++ {
				img.SetGray16(x, y, v.gray16(v.vol.At(x, y, position)))
			}
		}

	default:
		return nil, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	return img, nil
}

// SaveSlice saves an extracted slice as a JPEG image
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
}

// SaveSliceTIFF16 saves an extracted slice as a 16-bit grayscale TIFF, which
// preserves the full windowed dynamic range for downstream tools.
func (v *Viewer) SaveSliceTIFF16(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return tiff.Encode(file, img, &tiff.Options{Compression: tiff.Deflate})
}

// SaveSliceSequence extracts and saves a sequence of slices along the
// specified axis, as JPEG or 16-bit TIFF depending on format ("jpeg" or
// "tiff").
func (v *Viewer) SaveSliceSequence(axis, outputDir, format string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	var maxPos int
	switch axis {
	case "x", "X":
		maxPos = v.vol.Grid.Size[0]
	case "y", "Y":
		maxPos = v.vol.Grid.Size[1]
	case "z", "Z":
		maxPos = v.vol.Grid.Size[2]
	default:
		return fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	for pos := 0; pos < maxPos; pos++ {
		img, err := v.ExtractSlice(axis, pos)
		if err != nil {
			return err
		}

		var filename string
		switch format {
		case "", "jpeg", "jpg":
			filename = filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.jpg", axis, pos))
			err = v.SaveSlice(img, filename)
		case "tiff", "tif":
			filename = filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.tif", axis, pos))
			err = v.SaveSliceTIFF16(img, filename)
		default:
			return fmt.Errorf("invalid format: %s (must be jpeg or tiff)", format)
		}
		if err != nil {
			return err
		}
	}

	return nil
}
