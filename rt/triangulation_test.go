package rt

import (
	"math"
	"testing"
)

// flatParams builds a fast fixed-depth triangulation configuration
// for tests: every face is split exactly level times.
func flatParams(level int) BuildParameters {
	return BuildParameters{
		MaxApproxError:     0.1,
		MinSubdivLevel:     level,
		MaxSubdivLevel:     level,
		OversamplingFactor: 0.7,
		MaxTriangleSpan:    1.1,
	}
}

func TestTriangulationFixedDepthCounts(t *testing.T) {
	env := NewConstEnvImage(8, 4, Spectrum{X: 1, Y: 1, Z: 1})
	vs, committed := BuildTriangulation(env, flatParams(2))

	wantTriangles := 20 * 4 * 4
	if len(committed) != wantTriangles {
		t.Fatalf("committed %d triangles, want %d", len(committed), wantTriangles)
	}
	for _, tri := range committed {
		if tri.SubdivLevel != 2 {
			t.Fatalf("triangle at level %d, want 2", tri.SubdivLevel)
		}
		if int(tri.V0) >= vs.Len() || int(tri.V1) >= vs.Len() || int(tri.V2) >= vs.Len() {
			t.Fatalf("triangle references vertex out of range")
		}
	}
}

func TestTriangulationConstImageStopsAtMinLevel(t *testing.T) {
	// A featureless image is matched exactly by the linear
	// approximation, so refinement must stop at MinSubdivLevel even
	// when MaxSubdivLevel allows going deeper.
	env := NewConstEnvImage(16, 8, Spectrum{X: 1, Y: 1, Z: 1})
	params := BuildParameters{
		MaxApproxError:     0.1,
		MinSubdivLevel:     1,
		MaxSubdivLevel:     3,
		OversamplingFactor: 0.7,
		MaxTriangleSpan:    1.1,
	}
	_, committed := BuildTriangulation(env, params)
	for _, tri := range committed {
		if tri.SubdivLevel != 1 {
			t.Fatalf("triangle at level %d, want 1 (no refinement needed)", tri.SubdivLevel)
		}
	}
}

func TestTriangulationCoversSphere(t *testing.T) {
	env := NewConstEnvImage(8, 4, Spectrum{X: 1, Y: 1, Z: 1})
	vs, committed := BuildTriangulation(env, flatParams(1))

	var sum float64
	for _, tri := range committed {
		sum += SphericalTriangleSolidAngle(
			vs.Get(tri.V0).Dir, vs.Get(tri.V1).Dir, vs.Get(tri.V2).Dir)
	}
	if math.Abs(sum-4*math.Pi) > 1e-6 {
		t.Errorf("committed triangles cover %g sr, want %g", sum, 4*math.Pi)
	}

	// Every direction lands in at least one committed triangle.
	tree := BuildAggregationTree(vs, committed)
	sampler := NewSamplerFromParts(env, vs, tree)
	rng := NewRNG(17)
	for i := 0; i < 2000; i++ {
		dir := rng.UnitVector()
		found := 0
		for _, leaf := range sampler.triangles {
			if _, _, _, ok := barycentricOnSphere(vs, leaf, dir); ok {
				found++
			}
		}
		if found == 0 {
			t.Fatalf("direction %v not covered by any triangle", dir)
		}
	}
}

func TestTriangulationVertexWeights(t *testing.T) {
	env := NewConstEnvImage(8, 4, Spectrum{X: 0.25, Y: 0.5, Z: 2.0})
	vs, _ := BuildTriangulation(env, flatParams(1))

	for i := 0; i < vs.Len(); i++ {
		v := vs.Get(VertexIndex(i))
		if math.Abs(v.Dir.Len()-1) > 1e-12 {
			t.Fatalf("vertex %d direction not unit: %v", i, v.Dir)
		}
		want := GenerateSphericalHarmonic(v.Dir, 1.0).Scale(Luminance(env.Eval(v.Dir)))
		if !v.Weight.EqualsDelta(want, 1e-12) {
			t.Fatalf("vertex %d weight %v, want %v", i, v.Weight, want)
		}
	}
}

func TestTriangulationRefinesBrightFeature(t *testing.T) {
	// A single very bright pixel in an otherwise dark image forces
	// subdivision past the minimum level somewhere.
	env := NewConstEnvImage(64, 32, Spectrum{X: 0.05, Y: 0.05, Z: 0.05})
	env.pixels[10*64+7] = Spectrum{X: 50, Y: 50, Z: 50}

	params := BuildParameters{
		MaxApproxError:     0.1,
		MinSubdivLevel:     1,
		MaxSubdivLevel:     4,
		OversamplingFactor: 0.7,
		MaxTriangleSpan:    1.1,
	}
	_, committed := BuildTriangulation(env, params)
	deepest := uint32(0)
	for _, tri := range committed {
		if tri.SubdivLevel > deepest {
			deepest = tri.SubdivLevel
		}
	}
	if deepest <= 1 {
		t.Errorf("bright feature did not trigger refinement (deepest level %d)", deepest)
	}
}
