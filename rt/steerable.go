package rt

import "math"

// SteerableValue is a 9-coefficient order-2 spherical-harmonic tuple
// (the "steerable" representation): one DC band, three linear bands,
// five quadratic bands. Every weight, density and coefficient carried
// by the triangulation/tree is a SteerableValue.
type SteerableValue struct {
	C [9]float64
}

// Dot is the inner product of two steerable values, used both to
// evaluate a reconstructed function at a sampled basis (dot with a
// per-pixel SH basis) and to project the environment's irradiance
// coefficients against a candidate normal's clamped-cosine lobe.
func Dot9(a, b SteerableValue) float64 {
	var s float64
	for i := range a.C {
		s += a.C[i] * b.C[i]
	}
	return s
}

func (a SteerableValue) Add(b SteerableValue) SteerableValue {
	var r SteerableValue
	for i := range r.C {
		r.C[i] = a.C[i] + b.C[i]
	}
	return r
}

func (a SteerableValue) Sub(b SteerableValue) SteerableValue {
	var r SteerableValue
	for i := range r.C {
		r.C[i] = a.C[i] - b.C[i]
	}
	return r
}

func (a SteerableValue) Scale(t float64) SteerableValue {
	var r SteerableValue
	for i := range r.C {
		r.C[i] = a.C[i] * t
	}
	return r
}

// EqualsDelta reports approximate equality, used by reconstruction
// tolerance tests.
func (a SteerableValue) EqualsDelta(b SteerableValue, eps float64) bool {
	for i := range a.C {
		if math.Abs(a.C[i]-b.C[i]) > eps {
			return false
		}
	}
	return true
}

// Ramamoorthi-Hanrahan real spherical-harmonic basis constants
// ("An Efficient Representation for Irradiance Environment Maps").
const (
	shC0 = 0.282095 // Y00
	shC1 = 0.488603 // Y1{-1,0,1}
	shC2 = 1.092548 // Y2{-2,-1,1}
	shC3 = 0.315392 // Y20
	shC4 = 0.546274 // Y2{-2,2}
)

// GenerateSphericalHarmonic evaluates the 9 real SH basis functions
// at direction dir and scales the result by mulFactor, producing the
// steerable "basis value" used to splat a single environment sample
// into the running integral during triangulation-density estimation.
func GenerateSphericalHarmonic(dir Vec3, mulFactor float64) SteerableValue {
	x, y, z := dir.X, dir.Y, dir.Z
	var v SteerableValue
	v.C[0] = shC0
	v.C[1] = shC1 * y
	v.C[2] = shC1 * z
	v.C[3] = shC1 * x
	v.C[4] = shC2 * x * y
	v.C[5] = shC2 * y * z
	v.C[6] = shC3 * (3*z*z - 1)
	v.C[7] = shC2 * x * z
	v.C[8] = shC4 * (x*x - y*y)
	return v.Scale(mulFactor)
}

// Clamped-cosine SH projection constants (Ramamoorthi-Hanrahan table 1).
const (
	ccA0 = 0.886227 // pi * A0 consolidated with c4 below
	ccC1 = 0.429043
	ccC2 = 0.511644
	ccC3 = 0.743125
	ccC4 = 0.886227
	ccC5 = 0.247708
	// ccCompensation: the paper derives 0.09 as the DC bump needed to
	// keep the reconstructed clamped-cosine lobe non-negative almost
	// everywhere; in practice that undercompensates (visible negative
	// lobes survive), so 0.15 is used instead.
	ccCompensation = 0.15
)

// GenerateClampedCosine produces the 9 SH coefficients of the
// clamped-cosine lobe max(dot(w, normal), 0) around the given unit
// normal. When compensate is true a constant DC bias is folded into
// the zeroth coefficient so the reconstructed lobe stays
// non-negative almost everywhere (needed before these coefficients
// are dotted against an always-nonnegative environment value).
func GenerateClampedCosine(normal Vec3, compensate bool) SteerableValue {
	x, y, z := normal.X, normal.Y, normal.Z
	var v SteerableValue
	v.C[0] = ccC4
	v.C[1] = 2 * ccC2 * y
	v.C[2] = 2 * ccC2 * z
	v.C[3] = 2 * ccC2 * x
	v.C[4] = 2 * ccC1 * x * y
	v.C[5] = 2 * ccC1 * y * z
	v.C[6] = ccC3*z*z - ccC5
	v.C[7] = 2 * ccC1 * x * z
	v.C[8] = ccC1 * (x*x - y*y)
	if compensate {
		v.C[0] += ccCompensation
	}
	return v
}
