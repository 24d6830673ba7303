package rt

import "math"

// envDistribution is a row/column luminance CDF over an EnvImage,
// giving a second, simpler importance-sampling strategy for the
// environment (simple row/column sampling of the map),
// distinct from the steerable tree. It inverts a marginal row CDF and
// per-row conditional CDFs over this repo's lat-long convention
// (sphere_geom.go).
type envDistribution struct {
	width, height int
	marginalCDF   []float64
	conditional   [][]float64
	totalPower    float64
}

func buildEnvDistribution(env *EnvImage) *envDistribution {
	w, h := env.Width(), env.Height()
	d := &envDistribution{width: w, height: h, marginalCDF: make([]float64, h+1), conditional: make([][]float64, h)}

	rowSums := make([]float64, h)
	for y := 0; y < h; y++ {
		v := (float64(y) + 0.5) / float64(h)
		sinTheta := math.Sin(v * math.Pi)

		d.conditional[y] = make([]float64, w+1)
		for x := 0; x < w; x++ {
			lum := Luminance(env.At(x, y)) * sinTheta
			if lum < 0 {
				lum = 0
			}
			rowSums[y] += lum
			d.conditional[y][x+1] = d.conditional[y][x] + lum
		}
		if rowSums[y] > 0 {
			for x := 0; x <= w; x++ {
				d.conditional[y][x] /= rowSums[y]
			}
		}
		d.totalPower += rowSums[y]
	}

	d.marginalCDF[0] = 0
	for y := 0; y < h; y++ {
		d.marginalCDF[y+1] = d.marginalCDF[y] + rowSums[y]
	}
	if d.totalPower > 0 {
		for y := 0; y <= h; y++ {
			d.marginalCDF[y] /= d.totalPower
		}
	}
	return d
}

func searchCDF(cdf []float64, u float64) int {
	lo, hi := 0, len(cdf)-1
	for lo < hi-1 {
		mid := (lo + hi) / 2
		if cdf[mid] <= u {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo
}

// sample draws a direction proportional to sin(theta)-weighted
// luminance and returns its direction and solid-angle PDF.
func (d *envDistribution) sample(u1, u2 float64) (dir Vec3, pdf float64) {
	if d.totalPower <= 0 || d.height == 0 || d.width == 0 {
		return RandomUnitVectorDeterministic(u1, u2), 1.0 / (4 * math.Pi)
	}
	y := searchCDF(d.marginalCDF, u1)
	x := searchCDF(d.conditional[y], u2)

	v := (float64(y) + 0.5) / float64(d.height)
	uu := (float64(x) + 0.5) / float64(d.width)
	dir = LatLongToDirection(uu, v)
	return dir, d.pdf(dir)
}

// pdf evaluates the solid-angle density of direction dir under this
// distribution, used both when this strategy contributes a MIS
// sample and when the other strategy's sample needs this density.
func (d *envDistribution) pdf(dir Vec3) float64 {
	if d.totalPower <= 0 {
		return 1.0 / (4 * math.Pi)
	}
	u, v := DirectionToLatLong(dir)
	x := int(u * float64(d.width))
	y := int(v * float64(d.height))
	if x < 0 {
		x = 0
	}
	if x >= d.width {
		x = d.width - 1
	}
	if y < 0 {
		y = 0
	}
	if y >= d.height {
		y = d.height - 1
	}
	pixelPDF := (d.conditional[y][x+1] - d.conditional[y][x]) * (d.marginalCDF[y+1] - d.marginalCDF[y])
	sinTheta := math.Sin(v * math.Pi)
	if sinTheta <= 0 {
		return 0
	}
	// Jacobian from (u,v) unit-square measure to solid angle: dOmega = sinTheta * dTheta * dPhi
	// = sinTheta * pi * 2*pi * du*dv; pixel area in (u,v) is 1/(W*H).
	solidAnglePerPixel := sinTheta * math.Pi * 2 * math.Pi / (float64(d.width) * float64(d.height))
	if solidAnglePerPixel <= 0 {
		return 0
	}
	return pixelPDF / solidAnglePerPixel
}

// RandomUnitVectorDeterministic maps two uniform samples to a
// uniformly distributed direction without consuming an RNG, used as
// the distribution's degenerate (zero-power) fallback.
func RandomUnitVectorDeterministic(u1, u2 float64) Vec3 {
	z := 1 - 2*u1
	r := math.Sqrt(math.Max(0, 1-z*z))
	phi := 2 * math.Pi * u2
	return Vec3{X: r * math.Cos(phi), Y: z, Z: r * math.Sin(phi)}
}
