package geometry

import "math"

// PhasedArraySector maps the index space of a phased-array 3D acquisition to
// physical space. Index axis 0 sweeps azimuth, axis 1 sweeps elevation and
// axis 2 samples along the beam radius, so the sampled volume is a spherical
// sector (the familiar fan shape of an ultrasound scan).
//
// The transducer sits at the physical origin, the beam axis points along +z:
//
//	x = r * cos(elevation) * sin(azimuth)
//	y = r * sin(elevation)
//	z = r * cos(elevation) * cos(azimuth)
//
// Azimuth and elevation are centered on the middle of their index ranges.
type PhasedArraySector struct {
	// Size is the voxel count along azimuth, elevation and radius.
	Size [3]int

	// AzimuthAngularSeparation is the angle in radians between two
	// neighboring azimuth samples.
	AzimuthAngularSeparation float64

	// ElevationAngularSeparation is the angle in radians between two
	// neighboring elevation samples.
	ElevationAngularSeparation float64

	// RadiusSampleSize is the physical distance between two radius samples.
	RadiusSampleSize float64

	// FirstSampleDistance is the radius of the first sample along the beam.
	FirstSampleDistance float64
}

// IndexToPhysical maps a continuous sector index to physical coordinates.
func (s *PhasedArraySector) IndexToPhysical(idx [3]float64) [3]float64 {
	azimuth := (idx[0] - float64(s.Size[0]-1)/2) * s.AzimuthAngularSeparation
	elevation := (idx[1] - float64(s.Size[1]-1)/2) * s.ElevationAngularSeparation
	radius := idx[2]*s.RadiusSampleSize + s.FirstSampleDistance

	cosElevation := math.Cos(elevation)
	return [3]float64{
		radius * cosElevation * math.Sin(azimuth),
		radius * math.Sin(elevation),
		radius * cosElevation * math.Cos(azimuth),
	}
}

// PhysicalToIndex maps a physical point back to continuous sector indices.
// The inverse is undefined at the transducer apex (radius zero), where the
// angles are degenerate; there the boolean is false.
func (s *PhasedArraySector) PhysicalToIndex(p [3]float64) ([3]float64, bool) {
	radius := math.Sqrt(p[0]*p[0] + p[1]*p[1] + p[2]*p[2])
	if radius == 0 {
		return [3]float64{}, false
	}

	azimuth := math.Atan2(p[0], p[2])
	elevation := math.Atan2(p[1], math.Sqrt(p[0]*p[0]+p[2]*p[2]))

	return [3]float64{
		azimuth/s.AzimuthAngularSeparation + float64(s.Size[0]-1)/2,
		elevation/s.ElevationAngularSeparation + float64(s.Size[1]-1)/2,
		(radius - s.FirstSampleDistance) / s.RadiusSampleSize,
	}, true
}
