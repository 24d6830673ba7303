package rt

import "math"

// estimationRounds is the fixed round count for the environment
// light's two-strategy MIS contribution estimate.
const estimationRounds = 10

// SampleContext is the per-worker, per-shading-point cache of light
// contribution estimates. A fresh context is built once per shading
// point and
// reused by both Pick and Probability so they agree on S and each Ei.
type SampleContext struct {
	estimates []float64
	total     float64
}

// LightPicker chooses among the scene's lights in proportion to a
// per-light contribution estimate.
type LightPicker struct {
	Lights     []Light
	envDist    map[*InfiniteLight]*envDistribution
	matToLight map[Material]*AreaLight
}

// NewLightPicker builds a picker over lights, precomputing the
// secondary EM-sampling distribution for any infinite lights present
// and a material->AreaLight index so a BSDF-sampled ray that happens
// to hit an emissive quad can be traced back to its Light for MIS.
func NewLightPicker(lights []Light) *LightPicker {
	lp := &LightPicker{
		Lights:     lights,
		envDist:    make(map[*InfiniteLight]*envDistribution),
		matToLight: make(map[Material]*AreaLight),
	}
	for _, l := range lights {
		switch v := l.(type) {
		case *InfiniteLight:
			lp.envDist[v] = buildEnvDistribution(v.Sampler.Env)
		case *AreaLight:
			lp.matToLight[v.Quad.mat] = v
		}
	}
	return lp
}

// Prepare computes and caches each light's contribution estimate at
// the given shading point, for the given outgoing geometry.
func (lp *LightPicker) Prepare(point, normal, wo Vec3, mat PDFEvaluator, rng *RNG) *SampleContext {
	ctx := &SampleContext{estimates: make([]float64, len(lp.Lights))}
	for i, l := range lp.Lights {
		e := lp.estimateContribution(l, point, normal, wo, mat, rng)
		ctx.estimates[i] = e
		ctx.total += e
	}
	return ctx
}

// estimateContribution returns a scalar E_i approximating the
// light's contribution to the reflected radiance at point. Finite
// lights use a cheap closed-form estimate; the environment light
// runs the two-strategy (cosine-hemisphere + EM-luminance) MIS
// estimate.
func (lp *LightPicker) estimateContribution(l Light, point, normal, wo Vec3, mat PDFEvaluator, rng *RNG) float64 {
	switch inf := l.(type) {
	case *InfiniteLight:
		return lp.estimateInfinite(inf, point, normal, wo, mat, rng)
	default:
		s := l.Sample(point, normal, rng)
		if s.PDFw <= 0 || math.IsInf(s.PDFw, 1) {
			// Dirac lights have no meaningful finite-density
			// estimate; approximate their pull by the luminance of
			// their incident radiance (intensity over squared distance).
			return Luminance(s.Radiance)
		}
		cos := math.Max(0, Dot(normal, s.Dir))
		return Luminance(s.Radiance) * cos / s.PDFw
	}
}

func (lp *LightPicker) estimateInfinite(inf *InfiniteLight, point, normal, wo Vec3, mat PDFEvaluator, rng *RNG) float64 {
	dist := lp.envDist[inf]
	frame := NewFrame(normal)

	var sum float64
	for i := 0; i < estimationRounds; i++ {
		// Strategy A: cosine-weighted hemisphere sample.
		{
			u1, u2 := rng.Vec2()
			local := cosineHemisphereSample(u1, u2)
			dir := frame.ToWorld(local)
			pdfCos := local.Z / math.Pi
			pdfEm := dist.pdf(dir)
			if pdfCos > pdfEpsilon {
				radiance := Luminance(inf.Sampler.Env.Eval(dir))
				cos := math.Max(0, Dot(normal, dir))
				w := balanceWeight(pdfCos, pdfEm)
				sum += radiance * cos * w / pdfCos
			}
		}
		// Strategy B: EM-luminance sample.
		{
			u1, u2 := rng.Vec2()
			dir, pdfEm := dist.sample(u1, u2)
			cos := Dot(normal, dir)
			if cos > 0 && pdfEm > pdfEpsilon {
				pdfCos := cos / math.Pi
				radiance := Luminance(inf.Sampler.Env.Eval(dir))
				w := balanceWeight(pdfEm, pdfCos)
				sum += radiance * cos * w / pdfEm
			}
		}
	}
	return sum / estimationRounds
}

func cosineHemisphereSample(u1, u2 float64) Vec3 {
	r := math.Sqrt(u1)
	phi := 2 * math.Pi * u2
	x := r * math.Cos(phi)
	y := r * math.Sin(phi)
	z := math.Sqrt(math.Max(0, 1-u1))
	return Vec3{X: x, Y: y, Z: z}
}

func balanceWeight(pdfA, pdfB float64) float64 {
	if pdfA+pdfB <= 0 {
		return 0
	}
	return pdfA / (pdfA + pdfB)
}

// Pick chooses one light with probability proportional to its cached
// estimate, falling back to uniform choice if every estimate is zero
// Returns the light, its index, and its pick
// probability (needed by the MIS combiner).
func (lp *LightPicker) Pick(ctx *SampleContext, u float64) (Light, int, float64) {
	n := len(lp.Lights)
	if n == 0 {
		return nil, -1, 0
	}
	if ctx.total <= 0 {
		idx := int(u * float64(n))
		if idx >= n {
			idx = n - 1
		}
		return lp.Lights[idx], idx, 1.0 / float64(n)
	}
	target := u * ctx.total
	var running float64
	for i, e := range ctx.estimates {
		running += e
		if target <= running {
			return lp.Lights[i], i, e / ctx.total
		}
	}
	last := n - 1
	return lp.Lights[last], last, ctx.estimates[last] / ctx.total
}

// Probability returns the probability that index i would have been
// picked from ctx, using the identical fallback rule Pick uses so the
// MIS combiner's p_light*p_pick term is self-consistent.
func (lp *LightPicker) Probability(ctx *SampleContext, i int) float64 {
	n := len(lp.Lights)
	if n == 0 || i < 0 || i >= n {
		return 0
	}
	if ctx.total <= 0 {
		return 1.0 / float64(n)
	}
	return ctx.estimates[i] / ctx.total
}

// infiniteLight returns the scene's environment light, if any, for the
// BSDF-sampling branch's background lookup.
func (lp *LightPicker) infiniteLight() *InfiniteLight {
	for _, l := range lp.Lights {
		if inf, ok := l.(*InfiniteLight); ok {
			return inf
		}
	}
	return nil
}

// indexOf returns l's position in Lights, or -1 if absent.
func (lp *LightPicker) indexOf(l Light) int {
	for i, x := range lp.Lights {
		if x == l {
			return i
		}
	}
	return -1
}

// areaLightFor returns the AreaLight wrapping mat, if any was
// registered at picker construction time.
func (lp *LightPicker) areaLightFor(mat Material) *AreaLight {
	return lp.matToLight[mat]
}
