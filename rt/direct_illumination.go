package rt

import "math"

// HeuristicKind selects how the MIS estimator folds two PDFs into a
// weight: the balance heuristic or the power heuristic with
// exponent 2.
type HeuristicKind int

const (
	BalanceHeuristic HeuristicKind = iota
	PowerHeuristic2
)

func misWeight(kind HeuristicKind, pdfA, pdfB float64) float64 {
	if pdfA <= pdfEpsilon {
		return 0
	}
	switch kind {
	case PowerHeuristic2:
		a, b := pdfA*pdfA, pdfB*pdfB
		if a+b <= 0 {
			return 0
		}
		return a / (a + b)
	default:
		if pdfA+pdfB <= 0 {
			return 0
		}
		return pdfA / (pdfA + pdfB)
	}
}

// DirectIllumination is the MIS direct-illumination estimator:
// a pure function of (point, frame, outgoing direction, material,
// scene, RNG) with no mutable state besides the RNG it's handed. It
// replaces camera.go's single-strategy sampleLight with the later,
// MIS-aware, side-flipping behaviour named in the reference
// implementation (the Open Question resolved in DESIGN.md).
type DirectIllumination struct {
	Picker    *LightPicker
	Heuristic HeuristicKind
}

// Estimate combines one light sample and one BSDF sample at a
// scattering event:
// point with shading normal, viewed from wo (pointing back toward the
// camera/previous vertex), with material mat, against world for
// visibility/emitter lookups. Emission (step 3) is the caller's
// responsibility, exactly as it already is in RayColor. world is
// passed per-call (not stored) so concurrent callers sharing one
// DirectIllumination never race on a mutable field.
func (di *DirectIllumination) Estimate(point, normal, wo Vec3, mat Material, world Hittable, rng *RNG) Spectrum {
	if di.Picker == nil || len(di.Picker.Lights) == 0 {
		return Spectrum{}
	}

	var result Spectrum

	// --- Light sampling branch ---
	brdf, canNEE := mat.(BRDFEvaluator)
	props, hasProps := mat.(MaterialInfo)
	nee := canNEE && (!hasProps || props.Properties().CanUseNEE)

	ctx := di.Picker.Prepare(point, normal, wo, asPDFEvaluator(mat), rng)
	if nee {
		u := rng.Float64()
		light, _, pickProb := di.Picker.Pick(ctx, u)
		if light != nil && pickProb > 0 {
			ls := light.Sample(point, normal, rng)
			if !IsZero(ls.Radiance) && ls.Dir != (Vec3{}) {
				cos := Dot(normal, ls.Dir)
				if cos > 0 && di.unoccluded(world, point, ls.Dir, ls.Distance) {
					fr := brdf.Eval(ls.Dir, wo, normal)
					if math.IsInf(ls.PDFw, 1) {
						// Dirac light: no MIS.
						contribution := fr.Mult(ls.Radiance).Scale(cos / pickProb)
						result = result.Add(contribution)
					} else if ls.PDFw > pdfEpsilon {
						pBSDF := 0.0
						if pe, ok := mat.(PDFEvaluator); ok {
							pBSDF = pe.PDF(ls.Dir, wo, normal)
						}
						pdfA := ls.PDFw * pickProb
						w := misWeight(di.Heuristic, pdfA, pBSDF)
						if pdfA > pdfEpsilon {
							contribution := fr.Mult(ls.Radiance).Scale(cos * w / pdfA)
							result = result.Add(contribution)
						}
					}
				}
			}
		}
	}

	// --- BSDF sampling branch ---
	var attenuation Color
	var scattered Ray
	r := NewRay(point, wo.Neg(), 0)
	if mat.Scatter(r, &HitRecord{P: point, Normal: normal}, &attenuation, &scattered) {
		wi := scattered.Direction().Unit()
		pBSDF := 0.0
		if pe, ok := mat.(PDFEvaluator); ok {
			pBSDF = pe.PDF(wi, wo, normal)
		}
		if pBSDF > pdfEpsilon {
			// attenuation already carries f_r(wi,wo)*cos/pBSDF for the
			// material's own sampling strategy (Lambertian/Metal/
			// Isotropic Scatter all bake that cancellation in), so the
			// MIS weight is applied directly with no further pBSDF
			// division.
			emitted, pLight, pickProb, hit := di.traceForEmitter(world, point, wi, normal, ctx)
			if hit && !IsZero(emitted) {
				// When the light-sampling branch never ran for this
				// material (nee is false), BSDF sampling is the only
				// strategy in play and must keep full weight; splitting
				// against a strategy that never fires loses energy.
				w := 1.0
				if nee {
					w = misWeight(di.Heuristic, pBSDF, pLight*pickProb)
				}
				result = result.Add(attenuation.Mult(emitted).Scale(w))
			} else if !hit {
				// Ray escaped to the background / infinite light.
				if env := di.Picker.infiniteLight(); env != nil {
					emitted := env.Emit(NewRay(point, wi, 0))
					if !IsZero(emitted) {
						w := 1.0
						if nee {
							pLight := env.PDF(point, normal, wi)
							envIdx := di.Picker.indexOf(env)
							pickProb := di.Picker.Probability(ctx, envIdx)
							w = misWeight(di.Heuristic, pBSDF, pLight*pickProb)
						}
						result = result.Add(attenuation.Mult(emitted).Scale(w))
					}
				}
			}
		}
	}

	return result
}

func asPDFEvaluator(mat Material) PDFEvaluator {
	if pe, ok := mat.(PDFEvaluator); ok {
		return pe
	}
	return nil
}

// unoccluded casts a shadow ray from point toward dir, stopping just
// short of maxDist (infinite for environment/background lights).
func (di *DirectIllumination) unoccluded(world Hittable, point, dir Vec3, maxDist float64) bool {
	limit := maxDist - 1e-3
	if math.IsInf(maxDist, 1) || limit <= 0 {
		limit = math.Inf(1)
	}
	shadowRay := NewRay(point, dir, 0)
	rec := &HitRecord{}
	return !world.Hit(shadowRay, NewInterval(0.001, limit), rec)
}

// traceForEmitter follows a BSDF-sampled ray to its first hit and, if
// that surface is itself emissive, returns its emission plus the
// light-sampling PDF/pick-probability an NEE sample of that same
// light would have had (for the MIS weight). hit reports whether the
// scene was hit at all (false means the ray escaped to the
// background, handled separately by the caller).
func (di *DirectIllumination) traceForEmitter(world Hittable, point, wi, normal Vec3, ctx *SampleContext) (emitted Spectrum, pLight, pickProb float64, hit bool) {
	rec := &HitRecord{}
	ray := NewRay(point, wi, 0)
	if !world.Hit(ray, NewInterval(0.001, math.Inf(1)), rec) {
		return Spectrum{}, 0, 0, false
	}
	emission := rec.Mat.Emitted(rec.U, rec.V, rec.P)
	if IsZero(emission) {
		return Spectrum{}, 0, 0, true
	}
	al := di.Picker.areaLightFor(rec.Mat)
	if al == nil {
		// Emissive surface with no registered Light (e.g. a quad used
		// only decoratively): MIS weight collapses to pure BSDF
		// sampling since no NEE strategy could have produced it.
		return emission, 0, 0, true
	}
	idx := di.Picker.indexOf(al)
	pLight = al.PDF(point, normal, wi)
	pickProb = di.Picker.Probability(ctx, idx)
	return emission, pLight, pickProb, true
}
