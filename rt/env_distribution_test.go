package rt

import (
	"math"
	"testing"
)

func TestEnvDistributionSamplePDFAgreement(t *testing.T) {
	env := NewConstEnvImage(8, 4, Spectrum{})
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			env.pixels[y*8+x] = Spectrum{X: float64(1 + x + y)}
		}
	}
	dist := buildEnvDistribution(env)

	rng := NewRNG(131)
	for i := 0; i < 10000; i++ {
		u1, u2 := rng.Vec2()
		dir, pdf := dist.sample(u1, u2)
		if math.Abs(dir.Len()-1) > 1e-9 {
			t.Fatalf("sampled direction %v not unit", dir)
		}
		if pdf <= 0 {
			t.Fatalf("sampled pdf %g", pdf)
		}
		if q := dist.pdf(dir); math.Abs(q-pdf) > 1e-9*pdf {
			t.Fatalf("sample pdf %g, queried pdf %g", pdf, q)
		}
	}
}

func TestEnvDistributionPDFIntegratesToOne(t *testing.T) {
	env := NewConstEnvImage(8, 4, Spectrum{})
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			env.pixels[y*8+x] = Spectrum{X: float64(1 + 3*x), Y: float64(1 + y)}
		}
	}
	dist := buildEnvDistribution(env)

	rng := NewRNG(137)
	const samples = 200000
	var sum float64
	for i := 0; i < samples; i++ {
		sum += dist.pdf(rng.UnitVector())
	}
	integral := sum / samples * 4 * math.Pi
	if math.Abs(integral-1) > 0.05 {
		t.Errorf("pdf integrates to %g, want 1", integral)
	}
}

func TestEnvDistributionPrefersBrightRows(t *testing.T) {
	env := NewConstEnvImage(8, 4, Spectrum{X: 0.01, Y: 0.01, Z: 0.01})
	// Make one equatorial row much brighter.
	for x := 0; x < 8; x++ {
		env.pixels[1*8+x] = Spectrum{X: 10, Y: 10, Z: 10}
	}
	dist := buildEnvDistribution(env)

	rng := NewRNG(139)
	bright := 0
	const n = 10000
	for i := 0; i < n; i++ {
		u1, u2 := rng.Vec2()
		dir, _ := dist.sample(u1, u2)
		_, v := DirectionToLatLong(dir)
		if int(v*4) == 1 {
			bright++
		}
	}
	if float64(bright)/n < 0.9 {
		t.Errorf("only %d of %d samples hit the bright row", bright, n)
	}
}

func TestEnvDistributionZeroPowerFallback(t *testing.T) {
	env := NewConstEnvImage(4, 2, Spectrum{})
	dist := buildEnvDistribution(env)

	dir, pdf := dist.sample(0.3, 0.7)
	if math.Abs(dir.Len()-1) > 1e-9 {
		t.Fatalf("fallback direction %v not unit", dir)
	}
	want := 1.0 / (4 * math.Pi)
	if math.Abs(pdf-want) > 1e-12 {
		t.Errorf("fallback pdf %g, want %g", pdf, want)
	}
}
