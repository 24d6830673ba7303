package rt

import (
	"math"
	"testing"
)

func TestIcosahedronVerticesAreUnit(t *testing.T) {
	for i, v := range icosahedronVertices {
		if math.Abs(v.Len()-1.0) > 1e-12 {
			t.Errorf("vertex %d has length %g, want 1", i, v.Len())
		}
	}
}

func TestIcosahedronEdgeLengths(t *testing.T) {
	// Circumradius-1 icosahedron edge length.
	want := 4.0 / math.Sqrt(10+2*math.Sqrt(5))

	type edge struct{ a, b int }
	seen := make(map[edge]bool)
	for _, f := range icosahedronFaces {
		pairs := [3]edge{{f[0], f[1]}, {f[1], f[2]}, {f[2], f[0]}}
		for _, e := range pairs {
			if e.a > e.b {
				e.a, e.b = e.b, e.a
			}
			seen[e] = true
		}
	}
	if len(seen) != 30 {
		t.Fatalf("got %d unique edges, want 30", len(seen))
	}
	for e := range seen {
		got := icosahedronVertices[e.a].Sub(icosahedronVertices[e.b]).Len()
		if math.Abs(got-want) > 1e-12 {
			t.Errorf("edge %v has length %g, want %g", e, got, want)
		}
	}
}

func TestIcosahedronFacesUniqueAndOutward(t *testing.T) {
	seen := make(map[[3]int]bool)
	for _, f := range icosahedronFaces {
		key := f
		// Canonical rotation-invariant key.
		for key[0] != min(key[0], min(key[1], key[2])) {
			key = [3]int{key[1], key[2], key[0]}
		}
		if seen[key] {
			t.Errorf("duplicate face %v", f)
		}
		seen[key] = true

		v0 := icosahedronVertices[f[0]]
		v1 := icosahedronVertices[f[1]]
		v2 := icosahedronVertices[f[2]]
		normal := Cross(v1.Sub(v0), v2.Sub(v0))
		centroid := v0.Add(v1).Add(v2).Div(3)
		if Dot(normal, centroid) <= 0 {
			t.Errorf("face %v normal points inward", f)
		}
	}
	if len(seen) != 20 {
		t.Fatalf("got %d unique faces, want 20", len(seen))
	}
}

func TestLatLongRoundTrip(t *testing.T) {
	rng := NewRNG(7)
	for i := 0; i < 1000; i++ {
		dir := rng.UnitVector()
		u, v := DirectionToLatLong(dir)
		if u < 0 || u >= 1 || v < 0 || v > 1 {
			t.Fatalf("uv (%g,%g) out of range for %v", u, v, dir)
		}
		back := LatLongToDirection(u, v)
		if back.Sub(dir).Len() > 1e-9 {
			t.Errorf("round trip %v -> (%g,%g) -> %v", dir, u, v, back)
		}
	}
}

func TestSphericalTriangleSolidAngleOctant(t *testing.T) {
	// One octant of the sphere subtends exactly pi/2 steradians.
	a := Vec3{X: 1}
	b := Vec3{Y: 1}
	c := Vec3{Z: 1}
	got := SphericalTriangleSolidAngle(a, b, c)
	if math.Abs(got-math.Pi/2) > 1e-12 {
		t.Errorf("octant solid angle %g, want %g", got, math.Pi/2)
	}
}

func TestSphericalTriangleSolidAngleSphereCover(t *testing.T) {
	// The 20 icosahedron faces together cover the whole sphere.
	var sum float64
	for _, f := range icosahedronFaces {
		sum += SphericalTriangleSolidAngle(
			icosahedronVertices[f[0]],
			icosahedronVertices[f[1]],
			icosahedronVertices[f[2]])
	}
	if math.Abs(sum-4*math.Pi) > 1e-9 {
		t.Errorf("icosahedron faces cover %g sr, want %g", sum, 4*math.Pi)
	}
}
