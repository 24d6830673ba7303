package rt

import "math"

// Sampler is the environment-sampler façade: it owns the
// immutable VertexStorage + Tree built over an EnvImage and exposes
// direction sampling and PDF evaluation steered by a shading normal.
// Constructed once during initialization and shared by reference
// across all rendering workers.
type Sampler struct {
	Env       *EnvImage
	VS        *VertexStorage
	Tree      *Tree
	triangles []*TriangleNode // flat leaf list, for PDF point-location queries
}

// NewSampler builds a fresh triangulation and aggregation tree over env.
func NewSampler(env *EnvImage, params BuildParameters) *Sampler {
	vs, committed := BuildTriangulation(env, params)
	tree := BuildAggregationTree(vs, committed)
	return &Sampler{Env: env, VS: vs, Tree: tree, triangles: collectLeaves(tree.Root)}
}

// NewSamplerFromParts wraps an already-loaded VertexStorage/Tree pair
// (the persistence layer's Load result) into a usable Sampler.
func NewSamplerFromParts(env *EnvImage, vs *VertexStorage, tree *Tree) *Sampler {
	return &Sampler{Env: env, VS: vs, Tree: tree, triangles: collectLeaves(tree.Root)}
}

func collectLeaves(n Node) []*TriangleNode {
	if n.isTriangleNode() {
		return []*TriangleNode{n.(*TriangleNode)}
	}
	s := n.(*SetNode)
	return append(collectLeaves(s.Left), collectLeaves(s.Right)...)
}

// EnvSample is the result of sampling the environment sampler: a
// direction, its radiance, and the PDF with respect to solid angle.
type EnvSample struct {
	Dir    Vec3
	Radiance Spectrum
	PDF    float64
}

const pdfEpsilon = 1e-9

// Sample draws one direction steered by the clamped-cosine lobe
// around normal. sampleFront/sampleBack select which
// hemisphere(s) of normal participate; at least one must be true.
func (s *Sampler) Sample(normal Vec3, sampleFront, sampleBack bool, rng *RNG) EnvSample {
	frontCoeffs := GenerateClampedCosine(normal, true)
	backCoeffs := GenerateClampedCosine(normal.Neg(), true)

	var coeffs SteerableValue
	var sideNormal Vec3
	sideWeight := 1.0

	switch {
	case sampleFront && sampleBack:
		iFront := math.Max(0, Dot9(s.Tree.Root.nodeWeight(), frontCoeffs))
		iBack := math.Max(0, Dot9(s.Tree.Root.nodeWeight(), backCoeffs))
		total := iFront + iBack
		if total <= 0 {
			coeffs, sideNormal = frontCoeffs, normal
			sideWeight = 0.5
		} else {
			u := rng.Float64()
			if u*total < iFront {
				coeffs, sideNormal = frontCoeffs, normal
				sideWeight = iFront / total
			} else {
				coeffs, sideNormal = backCoeffs, normal.Neg()
				sideWeight = iBack / total
			}
		}
	case sampleFront:
		coeffs, sideNormal = frontCoeffs, normal
	case sampleBack:
		coeffs, sideNormal = backCoeffs, normal.Neg()
	default:
		return EnvSample{}
	}

	rootIntegral := Dot9(s.Tree.Root.nodeWeight(), coeffs)
	u1 := rng.Float64()
	tri, residual := s.Tree.Pick(coeffs, u1)
	a, b, c := TriangleVertexValues(s.VS, tri, coeffs)
	u2, u3 := residual, rng.Float64()
	alpha, beta, value := SampleTriangleBarycentric(u2, u3, a, b, c)
	omega := SampleTriangleDirection(s.VS, tri, alpha, beta)

	// Some samples point below the horizon; they get flipped to the
	// upper hemisphere, so the density folds in both the direct and
	// the flipped-origin branch. value is the density at the drawn
	// point itself, which is cheaper than re-locating omega's
	// triangle and identical by construction.
	var pdf float64
	if rootIntegral > 0 {
		pdf = value/rootIntegral + s.basePDF(omega.Neg(), coeffs, rootIntegral)
	}
	pdf *= sideWeight

	if Dot(omega, sideNormal) < 0 {
		omega = omega.Neg()
	}

	if pdf < pdfEpsilon {
		return EnvSample{}
	}
	return EnvSample{Dir: omega, Radiance: s.Env.Eval(omega), PDF: pdf}
}

// basePDF evaluates f(w)/I, the un-flipped density of the piecewise
// linear distribution the tree/triangle samplers draw from.
func (s *Sampler) basePDF(omega Vec3, coeffs SteerableValue, rootIntegral float64) float64 {
	if rootIntegral <= 0 {
		return 0
	}
	return s.densityAt(omega, coeffs) / rootIntegral
}

// pdfWHemisphere evaluates the density of a single hemisphere
// strategy at dir: zero below sideNormal's horizon (flipping means no
// sample ever lands there), otherwise f(w)/I + f(-w)/I so the
// below-horizon mass that got reflected onto dir is counted;
// sampling and PDF queries must agree exactly.
func (s *Sampler) pdfWHemisphere(dir, sideNormal Vec3, coeffs SteerableValue) float64 {
	if Dot(dir, sideNormal) < 0 {
		return 0
	}
	rootIntegral := Dot9(s.Tree.Root.nodeWeight(), coeffs)
	if rootIntegral <= 0 {
		return 0
	}
	return s.basePDF(dir, coeffs, rootIntegral) + s.basePDF(dir.Neg(), coeffs, rootIntegral)
}

// densityAt locates the committed triangle containing dir and
// evaluates the linear clamped-cosine-weighted density there.
func (s *Sampler) densityAt(dir Vec3, coeffs SteerableValue) float64 {
	dir = dir.Unit()
	for _, tri := range s.triangles {
		if alpha, beta, gamma, ok := barycentricOnSphere(s.VS, tri, dir); ok {
			a, b, c := TriangleVertexValues(s.VS, tri, coeffs)
			return a*alpha + b*beta + c*gamma
		}
	}
	return 0
}

// barycentricOnSphere projects dir (through the origin) onto the
// plane of tri and returns its barycentric coordinates there, with ok
// false if dir does not land inside the triangle.
func barycentricOnSphere(vs *VertexStorage, tri *TriangleNode, dir Vec3) (alpha, beta, gamma float64, ok bool) {
	p0 := vs.Get(tri.V0).Dir
	p1 := vs.Get(tri.V1).Dir
	p2 := vs.Get(tri.V2).Dir

	normal := Cross(p1.Sub(p0), p2.Sub(p0))
	denom := Dot(normal, dir)
	if denom == 0 {
		return 0, 0, 0, false
	}
	t := Dot(normal, p0) / denom
	if t <= 0 {
		return 0, 0, 0, false
	}
	hit := dir.Scale(t)

	v0 := p1.Sub(p0)
	v1 := p2.Sub(p0)
	v2 := hit.Sub(p0)
	d00 := Dot(v0, v0)
	d01 := Dot(v0, v1)
	d11 := Dot(v1, v1)
	d20 := Dot(v2, v0)
	d21 := Dot(v2, v1)
	det := d00*d11 - d01*d01
	if det == 0 {
		return 0, 0, 0, false
	}
	beta = (d11*d20 - d01*d21) / det
	gamma2 := (d00*d21 - d01*d20) / det
	alpha0 := 1 - beta - gamma2

	const eps = -1e-6
	if alpha0 < eps || beta < eps || gamma2 < eps {
		return 0, 0, 0, false
	}
	return alpha0, beta, gamma2, true
}

// PDF evaluates the probability density of direction dir having been
// produced by Sample with the given normal and side flags, so
// BSDF-sampled hits of the environment can be weighted in the MIS
// combiner.
func (s *Sampler) PDF(normal, dir Vec3, sampleFront, sampleBack bool) float64 {
	frontCoeffs := GenerateClampedCosine(normal, true)
	backCoeffs := GenerateClampedCosine(normal.Neg(), true)

	switch {
	case sampleFront && sampleBack:
		iFront := math.Max(0, Dot9(s.Tree.Root.nodeWeight(), frontCoeffs))
		iBack := math.Max(0, Dot9(s.Tree.Root.nodeWeight(), backCoeffs))
		total := iFront + iBack
		if total <= 0 {
			return 0
		}
		// Flipping confines each side's samples to its own
		// hemisphere, so exactly one side can have produced dir.
		if Dot(dir, normal) >= 0 {
			return s.pdfWHemisphere(dir, normal, frontCoeffs) * (iFront / total)
		}
		return s.pdfWHemisphere(dir, normal.Neg(), backCoeffs) * (iBack / total)
	case sampleFront:
		return s.pdfWHemisphere(dir, normal, frontCoeffs)
	case sampleBack:
		return s.pdfWHemisphere(dir, normal.Neg(), backCoeffs)
	default:
		return 0
	}
}
