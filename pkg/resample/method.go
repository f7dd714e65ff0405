package resample

// Method selects one of the eight scan-conversion resampling strategies.
// The three families trade accuracy, smoothness and cost: direct structured
// interpolation (ITK-prefixed methods), cell probing of a structured point
// set (VTKProbeFilter), and radius-limited kernel interpolation of an
// unstructured point cloud (the VTK kernel methods).
type Method int

const (
	ITKNearestNeighbor Method = iota
	ITKLinear
	ITKWindowedSinc
	VTKProbeFilter
	VTKGaussianKernel
	VTKLinearKernel
	VTKShepardKernel
	VTKVoronoiKernel
)

var methodNames = map[Method]string{
	ITKNearestNeighbor: "ITKNearestNeighbor",
	ITKLinear:          "ITKLinear",
	ITKWindowedSinc:    "ITKWindowedSinc",
	VTKProbeFilter:     "VTKProbeFilter",
	VTKGaussianKernel:  "VTKGaussianKernel",
	VTKLinearKernel:    "VTKLinearKernel",
	VTKShepardKernel:   "VTKShepardKernel",
	VTKVoronoiKernel:   "VTKVoronoiKernel",
}

// ParseMethod maps a method name to its Method value. An unrecognized name
// resolves to ITKLinear; callers relying on strict validation should compare
// the parsed method's String against the input first. The permissive default
// matches long-standing behavior that existing configurations depend on.
func ParseMethod(name string) Method {
	for m, n := range methodNames {
		if n == name {
			return m
		}
	}
	return ITKLinear
}

// String returns the method's canonical name.
func (m Method) String() string {
	if n, ok := methodNames[m]; ok {
		return n
	}
	return "Unknown"
}
