package rt

import (
	"math"
	"testing"
)

func TestSampleTriangleBarycentricStaysInside(t *testing.T) {
	rng := NewRNG(61)
	for i := 0; i < 50000; i++ {
		a := rng.Float64() * 4
		b := rng.Float64() * 4
		c := rng.Float64() * 4
		u, v := rng.Vec2()

		alpha, beta, value := SampleTriangleBarycentric(u, v, a, b, c)
		gamma := 1 - alpha - beta

		const eps = 1e-6
		if alpha < -eps || beta < -eps || gamma < -eps {
			t.Fatalf("barycentric (%g,%g,%g) outside triangle for values (%g,%g,%g) sample (%g,%g)",
				alpha, beta, gamma, a, b, c, u, v)
		}
		want := a*alpha + b*beta + c*gamma
		if math.Abs(value-want) > 1e-9 {
			t.Fatalf("returned density %g, want interpolated %g", value, want)
		}
		if value < -eps {
			t.Fatalf("negative density %g", value)
		}
	}
}

func TestSampleTriangleUniformMarginal(t *testing.T) {
	// With equal vertex values the first barycentric coordinate has
	// density 2(1-alpha): its CDF inverse is alpha = 1-sqrt(u).
	for _, u := range []float64{0.05, 0.25, 0.5, 0.75, 0.95} {
		alpha, _, _ := SampleTriangleBarycentric(u, 0.5, 1, 1, 1)
		want := 1 - math.Sqrt(u)
		if math.Abs(alpha-want) > 1e-3 {
			t.Errorf("uniform marginal at u=%g: alpha=%g, want %g", u, alpha, want)
		}
	}
}

func TestSampleTriangleDirectionOnSphereAndInCone(t *testing.T) {
	env := NewConstEnvImage(4, 2, Spectrum{X: 1, Y: 1, Z: 1})
	vs, committed := BuildTriangulation(env, flatParams(1))
	tree := BuildAggregationTree(vs, committed)
	leaves := collectLeaves(tree.Root)

	rng := NewRNG(71)
	for i := 0; i < 20000; i++ {
		leaf := leaves[int(rng.Float64()*float64(len(leaves)))%len(leaves)]
		u, v := rng.Vec2()
		alpha, beta, _ := SampleTriangleBarycentric(u, v, 1, 2, 3)
		dir := SampleTriangleDirection(vs, leaf, alpha, beta)

		if math.Abs(dir.Len()-1) > 1e-9 {
			t.Fatalf("sample %v not on unit sphere", dir)
		}
		// The direction must stay inside the cone spanned by the
		// triangle: on the outward side of the triangle's plane.
		p0 := vs.Get(leaf.V0).Dir
		p1 := vs.Get(leaf.V1).Dir
		p2 := vs.Get(leaf.V2).Dir
		normal := Cross(p1.Sub(p0), p2.Sub(p0))
		if Dot(normal, p0) < 0 {
			normal = normal.Neg()
		}
		if Dot(normal, dir) <= 0 {
			t.Fatalf("sample %v not in positive halfspace of triangle", dir)
		}
	}
}

func TestBarycentricRoundTrip(t *testing.T) {
	env := NewConstEnvImage(4, 2, Spectrum{X: 1, Y: 1, Z: 1})
	vs, committed := BuildTriangulation(env, flatParams(1))
	tree := BuildAggregationTree(vs, committed)
	leaves := collectLeaves(tree.Root)

	rng := NewRNG(83)
	for i := 0; i < 5000; i++ {
		leaf := leaves[int(rng.Float64()*float64(len(leaves)))%len(leaves)]
		// Random interior barycentric coordinates.
		a := rng.Float64()
		b := rng.Float64() * (1 - a)

		dir := SampleTriangleDirection(vs, leaf, a, b)
		alpha, beta, gamma, ok := barycentricOnSphere(vs, leaf, dir)
		if !ok {
			t.Fatalf("interior point %v not located in its own triangle", dir)
		}
		if math.Abs(alpha-a) > 1e-9 || math.Abs(beta-b) > 1e-9 || math.Abs(gamma-(1-a-b)) > 1e-9 {
			t.Fatalf("round trip (%g,%g) -> (%g,%g,%g)", a, b, alpha, beta, gamma)
		}
	}
}

func TestTriangleVertexValuesClampNegative(t *testing.T) {
	env := NewConstEnvImage(4, 2, Spectrum{X: 1, Y: 1, Z: 1})
	vs, committed := BuildTriangulation(env, flatParams(1))
	tree := BuildAggregationTree(vs, committed)

	// An uncompensated lobe goes slightly negative on the far side;
	// vertex values fed to the bilinear sampler must not.
	coeffs := GenerateClampedCosine(Vec3{Z: 1}, false)
	for _, leaf := range collectLeaves(tree.Root) {
		a, b, c := TriangleVertexValues(vs, leaf, coeffs)
		if a < 0 || b < 0 || c < 0 {
			t.Fatalf("negative vertex value (%g,%g,%g)", a, b, c)
		}
	}
}
