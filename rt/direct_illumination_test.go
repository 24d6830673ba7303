package rt

import (
	"math"
	"testing"
)

func TestMISWeightsSumToOne(t *testing.T) {
	rng := NewRNG(173)
	for _, kind := range []HeuristicKind{BalanceHeuristic, PowerHeuristic2} {
		for i := 0; i < 10000; i++ {
			a := rng.Float64()*10 + 1e-6
			b := rng.Float64()*10 + 1e-6
			sum := misWeight(kind, a, b) + misWeight(kind, b, a)
			if math.Abs(sum-1) > 1e-4 {
				t.Fatalf("heuristic %d: weights for (%g,%g) sum to %g", kind, a, b, sum)
			}
		}
	}
}

func TestMISWeightZeroPDF(t *testing.T) {
	if w := misWeight(BalanceHeuristic, 0, 1); w != 0 {
		t.Errorf("zero own pdf yields weight %g, want 0", w)
	}
	if w := misWeight(BalanceHeuristic, 1, 0); w != 1 {
		t.Errorf("zero competitor pdf yields weight %g, want 1", w)
	}
}

func newTestEstimator(t *testing.T, radiance Spectrum) (*DirectIllumination, *HittableList) {
	t.Helper()
	env := NewConstEnvImage(8, 4, radiance)
	inf := &InfiniteLight{Sampler: NewSampler(env, flatParams(1))}
	picker := NewLightPicker([]Light{inf})
	world := NewHittableList()
	return &DirectIllumination{Picker: picker, Heuristic: BalanceHeuristic}, world
}

func TestEstimatePositiveUnderWhiteEnvironment(t *testing.T) {
	di, world := newTestEstimator(t, Spectrum{X: 1, Y: 1, Z: 1})
	mat := NewLambertian(Color{X: 0.5, Y: 0.5, Z: 0.5})
	rng := NewRNG(179)

	var sum Spectrum
	const n = 2000
	for i := 0; i < n; i++ {
		c := di.Estimate(Point3{}, Vec3{Y: 1}, Vec3{X: 0, Y: 1, Z: 0}, mat, world, rng)
		if math.IsNaN(c.X) || math.IsNaN(c.Y) || math.IsNaN(c.Z) {
			t.Fatalf("NaN contribution at sample %d", i)
		}
		if math.IsInf(c.X, 0) || math.IsInf(c.Y, 0) || math.IsInf(c.Z, 0) {
			t.Fatalf("infinite contribution at sample %d", i)
		}
		sum = sum.Add(c)
	}
	mean := sum.Div(n)
	if Luminance(mean) <= 0 {
		t.Fatal("white environment produced zero direct illumination")
	}
	// A Lambertian with albedo 0.5 under L=1 reflects about 0.5.
	if Luminance(mean) < 0.2 || Luminance(mean) > 1.0 {
		t.Errorf("mean direct illumination %g, expect ~0.5", Luminance(mean))
	}
}

func TestEstimateZeroUnderBlackEnvironment(t *testing.T) {
	di, world := newTestEstimator(t, Spectrum{})
	mat := NewLambertian(Color{X: 0.5, Y: 0.5, Z: 0.5})
	rng := NewRNG(181)

	for i := 0; i < 200; i++ {
		c := di.Estimate(Point3{}, Vec3{Y: 1}, Vec3{Y: 1}, mat, world, rng)
		if Luminance(c) != 0 {
			t.Fatalf("black environment produced contribution %v", c)
		}
	}
}

func TestEstimateOcclusionBlocksLightSamples(t *testing.T) {
	di, world := newTestEstimator(t, Spectrum{X: 1, Y: 1, Z: 1})
	// A large enclosing sphere occludes every direction.
	world.Add(NewSphere(Point3{}, 10, NewLambertian(Color{X: 0, Y: 0, Z: 0})))
	mat := NewLambertian(Color{X: 0.5, Y: 0.5, Z: 0.5})
	rng := NewRNG(191)

	var sum Spectrum
	const n = 500
	for i := 0; i < n; i++ {
		c := di.Estimate(Point3{}, Vec3{Y: 1}, Vec3{Y: 1}, mat, world, rng)
		sum = sum.Add(c)
	}
	if Luminance(sum) != 0 {
		t.Errorf("occluded shading point still received %g", Luminance(sum.Div(n)))
	}
}

func TestEstimateDiracLightNoMIS(t *testing.T) {
	point := &PointLight{Position: Point3{Y: 3}, Intensity: Spectrum{X: 9, Y: 9, Z: 9}}
	picker := NewLightPicker([]Light{point})
	di := &DirectIllumination{Picker: picker, Heuristic: BalanceHeuristic}
	world := NewHittableList()
	mat := NewLambertian(Color{X: 1, Y: 1, Z: 1})
	rng := NewRNG(193)

	// One light, unoccluded, straight overhead: the light branch is
	// deterministic: f_r * L * cos / p_pick = (1/pi) * (9/9) * 1.
	c := di.Estimate(Point3{}, Vec3{Y: 1}, Vec3{Y: 1}, mat, world, rng)
	want := 1.0 / math.Pi
	if math.Abs(c.X-want) > 1e-9 {
		t.Errorf("Dirac contribution %g, want %g", c.X, want)
	}
}

func TestEstimateNoNEEMaterialKeepsFullWeight(t *testing.T) {
	// Glossy metal disables next-event estimation but still reports a
	// finite pdf; with only the BSDF strategy in play its samples
	// must keep full weight, not be split against a light sample that
	// was never drawn.
	di, world := newTestEstimator(t, Spectrum{X: 1, Y: 1, Z: 1})
	albedo := Color{X: 0.8, Y: 0.8, Z: 0.8}
	mat := NewMetal(albedo, 0.3)
	rng := NewRNG(227)

	var sum Spectrum
	nonzero := 0
	const n = 2000
	for i := 0; i < n; i++ {
		c := di.Estimate(Point3{}, Vec3{Y: 1}, Vec3{Y: 1}, mat, world, rng)
		if IsZero(c) {
			continue
		}
		nonzero++
		// Unoccluded unit-radiance environment: the only possible
		// contribution is attenuation * L * 1.
		if c.Sub(albedo).Len() > 1e-12 {
			t.Fatalf("no-NEE sample %d contributed %v, want %v undiscounted", i, c, albedo)
		}
		sum = sum.Add(c)
	}
	if nonzero == 0 {
		t.Fatal("glossy metal never produced a BSDF sample")
	}
	mean := sum.Div(n)
	if Luminance(mean) < 0.5*Luminance(albedo) {
		t.Errorf("mean contribution %g, expect near %g", Luminance(mean), Luminance(albedo))
	}
}

func TestEstimateIsotropicKeepsFullWeight(t *testing.T) {
	di, world := newTestEstimator(t, Spectrum{X: 1, Y: 1, Z: 1})
	albedo := Color{X: 0.6, Y: 0.6, Z: 0.6}
	mat := NewIsotropicFromColor(albedo)
	rng := NewRNG(229)

	nonzero := 0
	for i := 0; i < 500; i++ {
		c := di.Estimate(Point3{}, Vec3{Y: 1}, Vec3{Y: 1}, mat, world, rng)
		if IsZero(c) {
			continue
		}
		nonzero++
		if c.Sub(albedo).Len() > 1e-12 {
			t.Fatalf("isotropic sample %d contributed %v, want %v undiscounted", i, c, albedo)
		}
	}
	if nonzero == 0 {
		t.Fatal("isotropic material never produced a BSDF sample")
	}
}
