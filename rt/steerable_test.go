package rt

import (
	"math"
	"testing"
)

func TestSteerableValueAlgebra(t *testing.T) {
	var a, b SteerableValue
	for i := 0; i < 9; i++ {
		a.C[i] = float64(i + 1)
		b.C[i] = float64(2 * i)
	}
	sum := a.Add(b)
	diff := sum.Sub(b)
	if !diff.EqualsDelta(a, 1e-12) {
		t.Errorf("add/sub do not invert: %v vs %v", diff, a)
	}
	scaled := a.Scale(3)
	for i := 0; i < 9; i++ {
		if scaled.C[i] != 3*a.C[i] {
			t.Errorf("scale: coefficient %d is %g, want %g", i, scaled.C[i], 3*a.C[i])
		}
	}
	var dot float64
	for i := 0; i < 9; i++ {
		dot += a.C[i] * b.C[i]
	}
	if math.Abs(Dot9(a, b)-dot) > 1e-12 {
		t.Errorf("Dot9 = %g, want %g", Dot9(a, b), dot)
	}
}

func TestSphericalHarmonicDCTerm(t *testing.T) {
	rng := NewRNG(11)
	for i := 0; i < 100; i++ {
		dir := rng.UnitVector()
		y := GenerateSphericalHarmonic(dir, 1.0)
		if math.Abs(y.C[0]-shC0) > 1e-12 {
			t.Errorf("Y00 at %v is %g, want %g", dir, y.C[0], shC0)
		}
	}
}

func TestSphericalHarmonicScaling(t *testing.T) {
	dir := Vec3{X: 0.3, Y: -0.5, Z: 0.81}.Unit()
	y1 := GenerateSphericalHarmonic(dir, 1.0)
	y2 := GenerateSphericalHarmonic(dir, 2.5)
	if !y2.EqualsDelta(y1.Scale(2.5), 1e-12) {
		t.Errorf("mulFactor does not scale linearly: %v vs %v", y2, y1.Scale(2.5))
	}
}

// reconstructClampedCos evaluates the order-2 SH reconstruction of
// max(dot(normal, dir), 0) at dir.
func reconstructClampedCos(normal, dir Vec3, compensate bool) float64 {
	return Dot9(GenerateSphericalHarmonic(dir, 1.0), GenerateClampedCosine(normal, compensate))
}

func TestClampedCosineReconstructionAlongAxis(t *testing.T) {
	// Along the normal itself the order-2 reconstruction is 17/16.
	n := Vec3{Z: 1}
	got := reconstructClampedCos(n, n, false)
	if math.Abs(got-1.0625) > 1e-6 {
		t.Errorf("reconstruction at normal = %g, want 1.0625", got)
	}
	// At the antipode it is 1/16.
	got = reconstructClampedCos(n, n.Neg(), false)
	if math.Abs(got-0.0625) > 1e-6 {
		t.Errorf("reconstruction at antipode = %g, want 0.0625", got)
	}
}

func TestClampedCosineReconstructionBounds(t *testing.T) {
	rng := NewRNG(23)
	for i := 0; i < 20000; i++ {
		n := rng.UnitVector()
		dir := rng.UnitVector()
		trueVal := math.Max(0, Dot(n, dir))

		uncomp := reconstructClampedCos(n, dir, false)
		if uncomp < -0.04 || uncomp > 1.07 {
			t.Fatalf("uncompensated reconstruction %g out of [-0.04, 1.07] (n=%v dir=%v)", uncomp, n, dir)
		}
		comp := reconstructClampedCos(n, dir, true)
		if comp < 0 || comp > 1.105 {
			t.Fatalf("compensated reconstruction %g out of [0, 1.105] (n=%v dir=%v)", comp, n, dir)
		}

		if trueVal == 0 {
			if uncomp > 0.095 {
				t.Fatalf("uncompensated reconstruction %g > 0.095 in the zero region", uncomp)
			}
			if comp > 0.138 {
				t.Fatalf("compensated reconstruction %g > 0.138 in the zero region", comp)
			}
		}
	}
}

func TestClampedCosineCompensationIsDCOnly(t *testing.T) {
	n := Vec3{X: 0.48, Y: 0.6, Z: 0.64}.Unit()
	plain := GenerateClampedCosine(n, false)
	comp := GenerateClampedCosine(n, true)
	if math.Abs(comp.C[0]-plain.C[0]-ccCompensation) > 1e-12 {
		t.Errorf("DC difference %g, want %g", comp.C[0]-plain.C[0], ccCompensation)
	}
	for i := 1; i < 9; i++ {
		if comp.C[i] != plain.C[i] {
			t.Errorf("coefficient %d changed by compensation", i)
		}
	}
}

func TestClampedCosineIntegralAgainstBasis(t *testing.T) {
	// Monte Carlo check that <Y(w)*L, C(n)> integrates L*max(n.w,0)
	// for a constant L: the integral over the sphere of the clamped
	// cosine is pi.
	n := Vec3{X: 0.26, Y: -0.93, Z: 0.26}.Unit()
	coeffs := GenerateClampedCosine(n, false)

	rng := NewRNG(37)
	const samples = 200000
	var sum float64
	for i := 0; i < samples; i++ {
		dir := rng.UnitVector()
		sum += Dot9(GenerateSphericalHarmonic(dir, 1.0), coeffs)
	}
	integral := sum / samples * 4 * math.Pi
	if math.Abs(integral-math.Pi) > 0.05 {
		t.Errorf("integral of reconstructed clamped cosine = %g, want %g", integral, math.Pi)
	}
}
