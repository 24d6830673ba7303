package rt

import "math"

// triWork is one entry on the triangulation builder's worklist: a
// candidate triangle (by vertex index) awaiting a refine/commit
// decision.
type triWork struct {
	v0, v1, v2 VertexIndex
	level      uint32
}

// CommittedTriangle is a triangle accepted by the refinement loop,
// ready to be wrapped into a TriangleNode by the aggregation tree.
type CommittedTriangle struct {
	V0, V1, V2  VertexIndex
	SubdivLevel uint32
}

// BuildTriangulation performs the adaptive geodesic subdivision of
// the sphere: starting from the unit icosahedron, it refines each face
// until the piecewise-linear luminance approximation matches the
// environment image within tolerance, subject to the min/max subdiv
// bounds. Returns the backing vertex storage and the flat list of
// committed (non-overlapping, sphere-covering) triangles.
func BuildTriangulation(env *EnvImage, params BuildParameters) (*VertexStorage, []CommittedTriangle) {
	params = params.resolve()
	vs := NewVertexStorage(4096)

	newVertex := func(dir Vec3) VertexIndex {
		dir = dir.Unit()
		l := env.Eval(dir)
		w := GenerateSphericalHarmonic(dir, 1.0).Scale(Luminance(l))
		return vs.Add(Vertex{Dir: dir, Weight: w})
	}

	idx := make([]VertexIndex, 12)
	for i, v := range icosahedronVertices {
		idx[i] = newVertex(v)
	}

	var worklist []triWork
	for _, f := range icosahedronFaces {
		worklist = append(worklist, triWork{v0: idx[f[0]], v1: idx[f[1]], v2: idx[f[2]], level: 0})
	}

	var committed []CommittedTriangle
	b := &triBuilder{vs: vs, env: env, params: params, newVertex: newVertex}

	for len(worklist) > 0 {
		n := len(worklist) - 1
		w := worklist[n]
		worklist = worklist[:n]

		if b.shouldSubdivide(w) {
			children := b.subdivide(w)
			worklist = append(worklist, children...)
		} else {
			committed = append(committed, CommittedTriangle{V0: w.v0, V1: w.v1, V2: w.v2, SubdivLevel: w.level})
		}
	}

	return vs, committed
}

type triBuilder struct {
	vs        *VertexStorage
	env       *EnvImage
	params    BuildParameters
	newVertex func(Vec3) VertexIndex
}

func (b *triBuilder) shouldSubdivide(w triWork) bool {
	if w.level < uint32(b.params.MinSubdivLevel) {
		return true
	}
	if w.level >= uint32(b.params.MaxSubdivLevel) {
		return false
	}

	v0 := b.vs.Get(w.v0).Dir
	v1 := b.vs.Get(w.v1).Dir
	v2 := b.vs.Get(w.v2).Dir

	minSin, maxSin, centroidLen := b.densitySamplePoints(v0, v1, v2)

	W := float64(b.env.Width())
	H := float64(b.env.Height())
	poleClamp := math.Sin(math.Pi / (2 * H))
	if minSin < poleClamp {
		minSin = poleClamp
	}
	if maxSin < poleClamp {
		maxSin = poleClamp
	}

	avgEdgeLenSq := avgEdgeLengthSquared(v0, v1, v2)

	samplesAt := func(sinTheta float64) float64 {
		dTheta := math.Pi / H
		dPhi := sinTheta * 2 * math.Pi / W
		halfStep := math.Min(dTheta, dPhi) / 2
		step := math.Tan(halfStep) * centroidLen
		if step <= 0 {
			return math.Inf(1)
		}
		return avgEdgeLenSq / (step * step) * (b.params.OversamplingFactor / 2)
	}

	sMin := samplesAt(minSin)
	sMax := samplesAt(maxSin)
	maxSamples := math.Max(sMin, sMax)
	minSamples := math.Min(sMin, sMax)
	if minSamples <= 0 {
		minSamples = 1e-9
	}

	if maxSamples/minSamples > b.params.MaxTriangleSpan && maxSamples > 32 {
		// Span too uneven to trust a single error estimate: split
		// into four and let each child answer independently.
		mid01 := midpointDir(v0, v1)
		mid12 := midpointDir(v1, v2)
		mid20 := midpointDir(v2, v0)
		decisions := []bool{
			b.shouldSubdivideTri(v0, mid01, mid20, w.level),
			b.shouldSubdivideTri(mid01, v1, mid12, w.level),
			b.shouldSubdivideTri(mid20, mid12, v2, w.level),
			b.shouldSubdivideTri(mid01, mid12, mid20, w.level),
		}
		for _, d := range decisions {
			if d {
				return true
			}
		}
		return false
	}

	N := int(math.Ceil(maxSamples))
	if N < 1 {
		N = 1
	}
	return b.sampleErrorExceeds(v0, v1, v2, N)
}

// shouldSubdivideTri re-runs the density/error test on an explicit
// triangle (used for the four-way pre-split branch, which tests
// virtual sub-triangles without committing new vertices).
func (b *triBuilder) shouldSubdivideTri(v0, v1, v2 Vec3, level uint32) bool {
	minSin, maxSin, centroidLen := b.densitySamplePoints(v0, v1, v2)
	W := float64(b.env.Width())
	H := float64(b.env.Height())
	poleClamp := math.Sin(math.Pi / (2 * H))
	if minSin < poleClamp {
		minSin = poleClamp
	}
	if maxSin < poleClamp {
		maxSin = poleClamp
	}
	avgEdgeLenSq := avgEdgeLengthSquared(v0, v1, v2)
	samplesAt := func(sinTheta float64) float64 {
		dTheta := math.Pi / H
		dPhi := sinTheta * 2 * math.Pi / W
		halfStep := math.Min(dTheta, dPhi) / 2
		step := math.Tan(halfStep) * centroidLen
		if step <= 0 {
			return math.Inf(1)
		}
		return avgEdgeLenSq / (step * step) * (b.params.OversamplingFactor / 2)
	}
	maxSamples := math.Max(samplesAt(minSin), samplesAt(maxSin))
	N := int(math.Ceil(maxSamples))
	if N < 1 {
		N = 1
	}
	return b.sampleErrorExceeds(v0, v1, v2, N)
}

func (b *triBuilder) sampleErrorExceeds(v0, v1, v2 Vec3, N int) bool {
	l0 := Luminance(b.env.Eval(v0))
	l1 := Luminance(b.env.Eval(v1))
	l2 := Luminance(b.env.Eval(v2))

	for i := 0; i <= N; i++ {
		for j := 0; j <= N; j++ {
			fn := float64(N)
			alpha := (float64(i) / fn) * (float64(i) / fn)
			beta := (float64(j) / fn) * (1 - alpha)
			gamma := 1 - alpha - beta

			approx := l0*alpha + l1*beta + l2*gamma
			dir := v0.Scale(alpha).Add(v1.Scale(beta)).Add(v2.Scale(gamma)).Unit()
			trueVal := Luminance(b.env.Eval(dir))

			if math.Abs(approx-trueVal) > math.Max(b.params.MaxApproxError*trueVal, 0.001) {
				return true
			}
		}
	}
	return false
}

func (b *triBuilder) densitySamplePoints(v0, v1, v2 Vec3) (minSin, maxSin, centroidLen float64) {
	mid01 := midpointDir(v0, v1)
	mid12 := midpointDir(v1, v2)
	mid20 := midpointDir(v2, v0)
	centroidRaw := v0.Add(v1).Add(v2).Div(3)
	centroid := centroidRaw.Unit()

	pts := []Vec3{v0, v1, v2, mid01, mid12, mid20, centroid}
	minSin = math.Inf(1)
	maxSin = math.Inf(-1)
	for _, p := range pts {
		theta := math.Acos(Clamp(p.Y, -1, 1))
		s := math.Sin(theta)
		if s < minSin {
			minSin = s
		}
		if s > maxSin {
			maxSin = s
		}
	}
	return minSin, maxSin, centroidRaw.Len()
}

func avgEdgeLengthSquared(v0, v1, v2 Vec3) float64 {
	e0 := v1.Sub(v0).Len()
	e1 := v2.Sub(v1).Len()
	e2 := v0.Sub(v2).Len()
	avg := (e0 + e1 + e2) / 3
	return avg * avg
}

func midpointDir(a, b Vec3) Vec3 {
	return a.Add(b).Div(2).Unit()
}

// subdivide splits a worklist entry into four children at level+1,
// adding three new edge-midpoint vertices. Edge midpoints are not
// deduplicated across adjacent
// triangles: each triangle owns its own midpoint vertices. This
// over-allocates vertices relative to a half-edge-sharing mesh but
// keeps the builder a simple worklist instead of requiring an edge
// map; the build runs once at startup so the extra vertices are
// cheap.
func (b *triBuilder) subdivide(w triWork) []triWork {
	v0 := b.vs.Get(w.v0).Dir
	v1 := b.vs.Get(w.v1).Dir
	v2 := b.vs.Get(w.v2).Dir

	m01 := b.newVertex(midpointDir(v0, v1))
	m12 := b.newVertex(midpointDir(v1, v2))
	m20 := b.newVertex(midpointDir(v2, v0))

	lvl := w.level + 1
	return []triWork{
		{v0: w.v0, v1: m01, v2: m20, level: lvl},
		{v0: m01, v1: w.v1, v2: m12, level: lvl},
		{v0: m20, v1: m12, v2: w.v2, level: lvl},
		{v0: m01, v1: m12, v2: m20, level: lvl},
	}
}
