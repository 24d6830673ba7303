package rt

import (
	"math"
	"testing"
)

func TestConstEnvImageEval(t *testing.T) {
	radiance := Spectrum{X: 0.5, Y: 1.0, Z: 2.0}
	env := NewConstEnvImage(8, 4, radiance)

	rng := NewRNG(3)
	for i := 0; i < 500; i++ {
		dir := rng.UnitVector()
		got := env.Eval(dir)
		if got.Sub(radiance).Len() > 1e-12 {
			t.Fatalf("Eval(%v) = %v, want %v", dir, got, radiance)
		}
	}
}

func TestSinglePixelEnvImage(t *testing.T) {
	radiance := Spectrum{X: 3, Y: 3, Z: 3}
	env := NewSinglePixelEnvImage(radiance)
	if env.Width() != 1 || env.Height() != 1 {
		t.Fatalf("dimensions %dx%d, want 1x1", env.Width(), env.Height())
	}
	for _, dir := range []Vec3{{X: 1}, {Y: 1}, {Z: -1}, {X: -0.7, Y: 0.7}} {
		got := env.Eval(dir.Unit())
		if got.Sub(radiance).Len() > 1e-12 {
			t.Errorf("Eval(%v) = %v, want %v", dir, got, radiance)
		}
	}
}

func TestEnvImageScale(t *testing.T) {
	env := NewConstEnvImage(4, 2, Spectrum{X: 1, Y: 1, Z: 1})
	env.scale = 2.5
	got := env.Eval(Vec3{Y: 1})
	want := Spectrum{X: 2.5, Y: 2.5, Z: 2.5}
	if got.Sub(want).Len() > 1e-12 {
		t.Errorf("scaled Eval = %v, want %v", got, want)
	}
}

func TestEnvImageRotateU(t *testing.T) {
	env := NewConstEnvImage(4, 1, Spectrum{})
	for x := 0; x < 4; x++ {
		env.pixels[x] = Spectrum{X: float64(x)}
	}

	// A half-turn rotation swaps columns two apart.
	plain := env.EvalUV(0.125, 0.5)
	env.rotateU = 0.5
	rotated := env.EvalUV(0.625, 0.5)
	if plain.Sub(rotated).Len() > 1e-12 {
		t.Errorf("rotate_u=0.5 half turn: %v vs %v", plain, rotated)
	}
}

func TestEnvImageHorizontalWrap(t *testing.T) {
	env := NewConstEnvImage(4, 1, Spectrum{})
	for x := 0; x < 4; x++ {
		env.pixels[x] = Spectrum{X: float64(x)}
	}
	// Pixel centers evaluate exactly; u=0 sits between columns 3 and
	// 0 and must blend across the wrap, not clamp.
	atCenter := env.EvalUV(0.125, 0.5)
	if math.Abs(atCenter.X-0) > 1e-12 {
		t.Errorf("pixel-center eval = %g, want 0", atCenter.X)
	}
	atSeam := env.EvalUV(0, 0.5)
	want := (3.0 + 0.0) / 2
	if math.Abs(atSeam.X-want) > 1e-12 {
		t.Errorf("seam eval = %g, want %g", atSeam.X, want)
	}
}

func TestEnvImagePoleWrapsToAntipodalColumn(t *testing.T) {
	env := NewConstEnvImage(8, 4, Spectrum{})
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			env.pixels[y*8+x] = Spectrum{X: float64(y*8 + x)}
		}
	}

	// Stepping past the top pole lands on the top row shifted by
	// half the width, not on a clamped copy of the same column.
	for x := 0; x < 8; x++ {
		got := env.sampleAt(x, -1)
		want := env.At((x+4)%8, 0)
		if got != want {
			t.Errorf("sampleAt(%d,-1) = %v, want %v", x, got, want)
		}
	}
	// Same across the bottom pole.
	for x := 0; x < 8; x++ {
		got := env.sampleAt(x, 4)
		want := env.At((x+4)%8, 3)
		if got != want {
			t.Errorf("sampleAt(%d,4) = %v, want %v", x, got, want)
		}
	}
}

func TestLoadEnvImageMissingFile(t *testing.T) {
	if _, err := LoadEnvImage("no-such-environment.hdr"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestEnvImageFilterModeRecorded(t *testing.T) {
	env := NewConstEnvImage(4, 2, Spectrum{X: 1, Y: 1, Z: 1})
	if !env.Bilinear() {
		t.Fatal("images default to bilinear lookup")
	}
	env.SetBilinear(false)
	if env.Bilinear() {
		t.Fatal("SetBilinear(false) not recorded")
	}
}

func TestEnvImageNearestFilterSnapsToTexel(t *testing.T) {
	env := NewConstEnvImage(4, 1, Spectrum{})
	for x := 0; x < 4; x++ {
		env.pixels[x] = Spectrum{X: float64(x)}
	}
	env.SetBilinear(false)

	// Anywhere inside a texel's footprint returns that texel exactly;
	// the seam at u=0 belongs to column 0, with no blend against
	// column 3.
	for x := 0; x < 4; x++ {
		for _, du := range []float64{0.01, 0.125, 0.24} {
			u := float64(x)/4 + du
			got := env.EvalUV(u, 0.5)
			if got.X != float64(x) {
				t.Fatalf("nearest EvalUV(%g) = %g, want texel %d", u, got.X, x)
			}
		}
	}
	if got := env.EvalUV(0, 0.5); got.X != 0 {
		t.Errorf("nearest seam eval = %g, want texel 0 unblended", got.X)
	}
}

func TestEnvImageNearestFilterAppliesScaleAndRotate(t *testing.T) {
	env := NewConstEnvImage(4, 1, Spectrum{})
	for x := 0; x < 4; x++ {
		env.pixels[x] = Spectrum{X: float64(x)}
	}
	env.SetBilinear(false)
	env.scale = 3
	env.rotateU = 0.25

	// rotate_u shifts lookups one column; scale multiplies the texel.
	got := env.EvalUV(0.125, 0.5)
	if got.X != 1*3 {
		t.Errorf("nearest rotated/scaled eval = %g, want 3", got.X)
	}
}

func TestEnvImageNearestFilterWrapsPoles(t *testing.T) {
	env := NewConstEnvImage(8, 4, Spectrum{})
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			env.pixels[y*8+x] = Spectrum{X: float64(y*8 + x)}
		}
	}
	env.SetBilinear(false)

	// v slightly past the bottom pole reflects into the bottom row's
	// antipodal column, same as the bilinear taps do.
	got := env.EvalUV(0.0625, 1.1)
	want := env.At((0+4)%8, 3)
	if got != want {
		t.Errorf("nearest past-pole eval = %v, want %v", got, want)
	}
}
