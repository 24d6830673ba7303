package rt

import (
	"math"
	"testing"
)

func buildTestTree(t *testing.T, level int) (*VertexStorage, []CommittedTriangle, *Tree) {
	t.Helper()
	env := NewConstEnvImage(4, 2, Spectrum{X: 1, Y: 1, Z: 1})
	vs, committed := BuildTriangulation(env, flatParams(level))
	return vs, committed, BuildAggregationTree(vs, committed)
}

func TestSetNodeWeightsAreChildSums(t *testing.T) {
	_, _, tree := buildTestTree(t, 2)

	var check func(n Node)
	check = func(n Node) {
		set, ok := n.(*SetNode)
		if !ok {
			return
		}
		sum := set.Left.nodeWeight().Add(set.Right.nodeWeight())
		if !set.Weight.EqualsDelta(sum, 1e-4) {
			t.Fatalf("set node weight %v != child sum %v", set.Weight, sum)
		}
		check(set.Left)
		check(set.Right)
	}
	check(tree.Root)
}

func TestTreeLeafCountAndDepth(t *testing.T) {
	_, committed, tree := buildTestTree(t, 1)
	if got := tree.leafCount(tree.Root); got != len(committed) {
		t.Fatalf("tree has %d leaves, want %d", got, len(committed))
	}

	// Balanced pairing keeps the depth logarithmic.
	var maxDepth func(n Node) int
	maxDepth = func(n Node) int {
		set, ok := n.(*SetNode)
		if !ok {
			return 1
		}
		return 1 + max(maxDepth(set.Left), maxDepth(set.Right))
	}
	depth := maxDepth(tree.Root)
	limit := int(math.Ceil(math.Log2(float64(len(committed))))) + 1
	if depth > limit {
		t.Errorf("tree depth %d exceeds %d for %d leaves", depth, limit, len(committed))
	}
}

func TestTriangleNodeWeightInvariant(t *testing.T) {
	vs, committed, tree := buildTestTree(t, 1)
	leaves := collectLeaves(tree.Root)
	if len(leaves) != len(committed) {
		t.Fatalf("leaf count %d, want %d", len(leaves), len(committed))
	}
	for _, leaf := range leaves {
		p0 := vs.Get(leaf.V0)
		p1 := vs.Get(leaf.V1)
		p2 := vs.Get(leaf.V2)
		area := 0.5 * Cross(p1.Dir.Sub(p0.Dir), p2.Dir.Sub(p0.Dir)).Len()
		want := p0.Weight.Add(p1.Weight).Add(p2.Weight).Scale(area / 3)
		if !leaf.Weight.EqualsDelta(want, 1e-12) {
			t.Fatalf("leaf weight %v, want %v", leaf.Weight, want)
		}
	}
}

func TestTreePickResidualStaysUniformRange(t *testing.T) {
	_, _, tree := buildTestTree(t, 1)
	coeffs := GenerateClampedCosine(Vec3{Z: 1}, true)
	rng := NewRNG(5)
	for i := 0; i < 10000; i++ {
		leaf, residual := tree.Pick(coeffs, rng.Float64())
		if leaf == nil {
			t.Fatal("Pick returned nil leaf")
		}
		if residual < 0 || residual >= 1 {
			t.Fatalf("residual %g out of [0,1)", residual)
		}
	}
}

func TestTreePickZeroIntegralFallsBackToUniform(t *testing.T) {
	_, _, tree := buildTestTree(t, 1)
	var zero SteerableValue
	counts := make(map[*TriangleNode]int)
	rng := NewRNG(29)
	const n = 20000
	for i := 0; i < n; i++ {
		leaf, _ := tree.Pick(zero, rng.Float64())
		counts[leaf]++
	}
	leaves := collectLeaves(tree.Root)
	if len(counts) != len(leaves) {
		t.Fatalf("uniform fallback reached %d of %d leaves", len(counts), len(leaves))
	}
}

func TestTreePickFrequenciesMatchIntegrals(t *testing.T) {
	_, _, tree := buildTestTree(t, 1)
	leaves := collectLeaves(tree.Root)
	coeffs := GenerateClampedCosine(Vec3{X: 0.3, Y: 0.8, Z: 0.52}.Unit(), true)

	counts := make(map[*TriangleNode]int)
	rng := NewRNG(41)
	const draws = 800000
	for i := 0; i < draws; i++ {
		leaf, _ := tree.Pick(coeffs, rng.Float64())
		counts[leaf]++
	}

	var tv float64
	for _, leaf := range leaves {
		p := tree.PDF(coeffs, leaf)
		freq := float64(counts[leaf]) / draws
		if math.Abs(freq-p) > 0.01 {
			t.Errorf("leaf frequency %g deviates from integral share %g by more than 0.01", freq, p)
		}
		tv += math.Abs(freq - p)
	}
	// Total variation distance between the empirical and the exact
	// selection distribution.
	if tv > 0.03 {
		t.Errorf("total variation %g too large", tv)
	}
}

func TestTreeEveryLeafReachableUnderRandomNormals(t *testing.T) {
	_, _, tree := buildTestTree(t, 1)
	leaves := collectLeaves(tree.Root)

	counts := make(map[*TriangleNode]int)
	rng := NewRNG(53)
	draws := 100 * len(leaves)
	for i := 0; i < draws; i++ {
		coeffs := GenerateClampedCosine(rng.UnitVector(), true)
		leaf, _ := tree.Pick(coeffs, rng.Float64())
		counts[leaf]++
	}
	for i, leaf := range leaves {
		if counts[leaf] == 0 {
			t.Errorf("leaf %d never sampled in %d draws", i, draws)
		}
	}
}

func TestTreePDFSumsToOne(t *testing.T) {
	_, _, tree := buildTestTree(t, 1)
	leaves := collectLeaves(tree.Root)
	coeffs := GenerateClampedCosine(Vec3{Y: 1}, true)
	var sum float64
	for _, leaf := range leaves {
		sum += tree.PDF(coeffs, leaf)
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("leaf probabilities sum to %g, want 1", sum)
	}
}
