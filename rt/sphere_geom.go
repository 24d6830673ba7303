package rt

import "math"

// DirectionToLatLong converts a unit direction to the (u,v) lat-long
// coordinates used to index an EnvImage, following the convention
// phi = -(u - 0.5) * 2*pi, theta = v * pi (phi measured from +X
// toward +Z, theta from the +Y pole).
func DirectionToLatLong(dir Vec3) (u, v float64) {
	d := dir.Unit()
	theta := math.Acos(Clamp(d.Y, -1, 1))
	phi := math.Atan2(d.Z, d.X)
	u = 0.5 - phi/(2*math.Pi)
	v = theta / math.Pi
	if u < 0 {
		u += 1
	}
	if u >= 1 {
		u -= 1
	}
	return u, v
}

// LatLongToDirection is the inverse of DirectionToLatLong.
func LatLongToDirection(u, v float64) Vec3 {
	phi := -(u - 0.5) * 2 * math.Pi
	theta := v * math.Pi
	sinTheta := math.Sin(theta)
	return Vec3{
		X: sinTheta * math.Cos(phi),
		Y: math.Cos(theta),
		Z: sinTheta * math.Sin(phi),
	}
}

// SphericalTriangleSolidAngle returns the solid angle subtended by a
// spherical triangle with unit-vector vertices, via Van Oosterom and
// Strackee's tangent formula (numerically stable for small triangles,
// unlike the direct L'Huilier form).
func SphericalTriangleSolidAngle(a, b, c Vec3) float64 {
	numer := math.Abs(Dot(a, Cross(b, c)))
	denom := 1 + Dot(a, b) + Dot(b, c) + Dot(c, a)
	if denom <= 0 {
		// Triangle larger than a hemisphere as seen from the origin;
		// fall back to the unsigned half-turn branch.
		return 2 * math.Pi
	}
	return 2 * math.Atan2(numer, denom)
}

// icosahedron vertices: the regular unit icosahedron used as the
// triangulation builder's initial 20-triangle coarse mesh.
// Golden-ratio construction.
var icosahedronVertices = func() [12]Vec3 {
	const phi = 1.6180339887498948482045868343656

	raw := [12]Vec3{
		{-1, phi, 0}, {1, phi, 0}, {-1, -phi, 0}, {1, -phi, 0},
		{0, -1, phi}, {0, 1, phi}, {0, -1, -phi}, {0, 1, -phi},
		{phi, 0, -1}, {phi, 0, 1}, {-phi, 0, -1}, {-phi, 0, 1},
	}
	var out [12]Vec3
	for i, v := range raw {
		out[i] = v.Unit()
	}
	return out
}()

// icosahedronFaces: 20 counter-clockwise (outward-facing) index triples.
var icosahedronFaces = [20][3]int{
	{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
	{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
	{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
	{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
}
