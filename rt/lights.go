package rt

import "math"

// LightType tags a Light's sampling strategy.
type LightType string

const (
	LightTypePoint    LightType = "point"
	LightTypeArea     LightType = "area"
	LightTypeInfinite LightType = "infinite"
)

// LightSample is one draw toward a light: a direction, its incoming
// radiance, solid-angle PDF (+Inf for a Dirac/point light), distance
// to the sampled point, and the light's pick probability (filled in
// by the LightPicker, not the Light itself).
type LightSample struct {
	Dir      Vec3
	Radiance Spectrum
	PDFw     float64
	Distance float64
	PickProb float64
}

// Light is a direct-illumination-sampleable emitter.
type Light interface {
	Type() LightType
	// Sample draws a direction from point toward the light.
	Sample(point, shadingNormal Vec3, rng *RNG) LightSample
	// PDF evaluates the solid-angle density of having sampled
	// direction from point toward this light.
	PDF(point, shadingNormal, direction Vec3) float64
	// Emit returns this light's radiance along ray when it is the
	// background/miss light; zero for finite lights that the ray
	// does not actually hit (those are resolved via scene
	// intersection, not this method).
	Emit(ray Ray) Spectrum
}

// PointLight is a Dirac delta light: PDFw is always +Inf, matching
// spec's LightSample encoding for Dirac lights, so the MIS combiner
// takes the no-MIS branch for it.
type PointLight struct {
	Position Point3
	Intensity Spectrum // radiant intensity (W/sr)
}

func (l *PointLight) Type() LightType { return LightTypePoint }

func (l *PointLight) Sample(point, _ Vec3, _ *RNG) LightSample {
	toLight := l.Position.Sub(point)
	dist := toLight.Len()
	if dist < 1e-9 {
		return LightSample{}
	}
	dir := toLight.Div(dist)
	radiance := l.Intensity.Div(dist * dist)
	return LightSample{Dir: dir, Radiance: radiance, PDFw: math.Inf(1), Distance: dist}
}

func (l *PointLight) PDF(_, _, _ Vec3) float64 { return 0 }
func (l *PointLight) Emit(_ Ray) Spectrum      { return Spectrum{} }

// AreaLight wraps a one-sided emissive Quad, reusing its own
// solid-angle PDF/sampling logic (quad.go SamplePoint/Area/PdfValue).
type AreaLight struct {
	Quad     *Quad
	Emission Spectrum
}

func (l *AreaLight) Type() LightType { return LightTypeArea }

func (l *AreaLight) Sample(point, _ Vec3, _ *RNG) LightSample {
	p := l.Quad.SamplePoint()
	toLight := p.Sub(point)
	dist := toLight.Len()
	if dist < 1e-9 {
		return LightSample{}
	}
	dir := toLight.Div(dist)
	pdf := l.Quad.PdfValue(point, dir)
	if pdf <= 0 {
		return LightSample{}
	}
	return LightSample{Dir: dir, Radiance: l.Emission, PDFw: pdf, Distance: dist}
}

func (l *AreaLight) PDF(point, _, direction Vec3) float64 {
	return l.Quad.PdfValue(point, direction)
}

func (l *AreaLight) Emit(_ Ray) Spectrum { return Spectrum{} }

// InfiniteLight wraps the steerable environment Sampler,
// exposing it through the Light interface so the picker treats it
// uniformly alongside finite lights.
type InfiniteLight struct {
	Sampler *Sampler
}

func (l *InfiniteLight) Type() LightType { return LightTypeInfinite }

func (l *InfiniteLight) Sample(point, shadingNormal Vec3, rng *RNG) LightSample {
	s := l.Sampler.Sample(shadingNormal, true, true, rng)
	if s.PDF <= 0 {
		return LightSample{}
	}
	return LightSample{Dir: s.Dir, Radiance: s.Radiance, PDFw: s.PDF, Distance: math.Inf(1)}
}

func (l *InfiniteLight) PDF(point, shadingNormal, direction Vec3) float64 {
	return l.Sampler.PDF(shadingNormal, direction, true, true)
}

func (l *InfiniteLight) Emit(ray Ray) Spectrum {
	return l.Sampler.Env.Eval(ray.Direction())
}
