package rt

// BuildParameters controls the adaptive subdivision used by the
// triangulation builder.
type BuildParameters struct {
	// MaxApproxError bounds the relative error between the steerable
	// reconstruction and the true pixel density before a triangle is
	// further subdivided.
	MaxApproxError float64
	// MinSubdivLevel/MaxSubdivLevel bound how many times a triangle
	// may (must, on the low end) be split from the base icosahedron.
	MinSubdivLevel int
	MaxSubdivLevel int
	// OversamplingFactor scales how many interior lattice samples are
	// taken per triangle when estimating density.
	OversamplingFactor float64
	// MaxTriangleSpan forces a triangle that spans more than this
	// many radians of a lat-long image's angular extent to be
	// pre-split before error estimation, so a single huge triangle
	// can't hide a bright, spatially small feature.
	MaxTriangleSpan float64
}

// DefaultBuildParameters returns the standard configuration.
func DefaultBuildParameters() BuildParameters {
	return BuildParameters{
		MaxApproxError:     0.1,
		MinSubdivLevel:     5,
		MaxSubdivLevel:     7,
		OversamplingFactor: 0.7,
		MaxTriangleSpan:    1.1,
	}
}

// resolve fills zero-valued fields with the reference defaults,
// mirroring camera.go's ApplyPreset-over-explicit-fields idiom.
func (p BuildParameters) resolve() BuildParameters {
	d := DefaultBuildParameters()
	if p.MaxApproxError <= 0 {
		p.MaxApproxError = d.MaxApproxError
	}
	if p.MinSubdivLevel <= 0 {
		p.MinSubdivLevel = d.MinSubdivLevel
	}
	if p.MaxSubdivLevel <= 0 {
		p.MaxSubdivLevel = d.MaxSubdivLevel
	}
	if p.OversamplingFactor <= 0 {
		p.OversamplingFactor = d.OversamplingFactor
	}
	if p.MaxTriangleSpan <= 0 {
		p.MaxTriangleSpan = d.MaxTriangleSpan
	}
	return p
}

// Equal reports whether two parameter sets match exactly, used by the
// persistence layer to reject a cache built under different settings.
func (p BuildParameters) Equal(o BuildParameters) bool {
	return p.MaxApproxError == o.MaxApproxError &&
		p.MinSubdivLevel == o.MinSubdivLevel &&
		p.MaxSubdivLevel == o.MaxSubdivLevel &&
		p.OversamplingFactor == o.OversamplingFactor &&
		p.MaxTriangleSpan == o.MaxTriangleSpan
}
