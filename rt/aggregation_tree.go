package rt

import "math"

// Node is the tagged union of the aggregation tree: every node is
// either a SetNode (two children) or a TriangleNode (leaf); the tree
// is built bottom-up by pairing.
type Node interface {
	nodeWeight() SteerableValue
	isTriangleNode() bool
}

// TriangleNode is a leaf of the aggregation tree: a committed
// triangle plus its precomputed steerable weight.
type TriangleNode struct {
	V0, V1, V2  VertexIndex
	Weight      SteerableValue
	SubdivLevel uint32
}

func (t *TriangleNode) nodeWeight() SteerableValue { return t.Weight }
func (t *TriangleNode) isTriangleNode() bool        { return true }

// SetNode is an internal aggregation-tree node with exactly two
// children, carrying the componentwise sum of their weights.
type SetNode struct {
	Left, Right Node
	Weight      SteerableValue
}

func (s *SetNode) nodeWeight() SteerableValue { return s.Weight }
func (s *SetNode) isTriangleNode() bool        { return false }

// Tree is the balanced binary aggregation tree over a triangulation's
// committed triangles.
type Tree struct {
	Root Node
}

// triangleWeight computes the invariant weight for a committed
// triangle: planar area times the average of its three vertices'
// Y*L weights.
func triangleWeight(vs *VertexStorage, t CommittedTriangle) SteerableValue {
	p0 := vs.Get(t.V0).Dir
	p1 := vs.Get(t.V1).Dir
	p2 := vs.Get(t.V2).Dir
	area := 0.5 * Cross(p1.Sub(p0), p2.Sub(p0)).Len()

	sum := vs.Get(t.V0).Weight.Add(vs.Get(t.V1).Weight).Add(vs.Get(t.V2).Weight)
	return sum.Scale(area / 3)
}

// BuildAggregationTree builds the balanced bottom-up tree over the
// committed triangle list, bottom to top: repeatedly pair adjacent
// entries, carrying an odd tail forward unpaired by one round.
func BuildAggregationTree(vs *VertexStorage, triangles []CommittedTriangle) *Tree {
	if len(triangles) == 0 {
		return &Tree{Root: &TriangleNode{}}
	}

	level := make([]Node, len(triangles))
	for i, t := range triangles {
		level[i] = &TriangleNode{V0: t.V0, V1: t.V1, V2: t.V2, Weight: triangleWeight(vs, t), SubdivLevel: t.SubdivLevel}
	}

	for len(level) > 1 {
		var next []Node
		i := 0
		for ; i+1 < len(level); i += 2 {
			left, right := level[i], level[i+1]
			next = append(next, &SetNode{Left: left, Right: right, Weight: left.nodeWeight().Add(right.nodeWeight())})
		}
		if i < len(level) {
			next = append(next, level[i])
		}
		level = next
	}

	return &Tree{Root: level[0]}
}

// Pick descends the tree proportionally to the clamped-cosine
// integral of each subtree against coeffs. Returns the
// selected triangle leaf and the rescaled uniform residual, still
// distributed uniformly on [0,1).
func (t *Tree) Pick(coeffs SteerableValue, u float64) (*TriangleNode, float64) {
	node := t.Root
	for {
		if node.isTriangleNode() {
			return node.(*TriangleNode), u
		}
		set := node.(*SetNode)
		integralTotal := Dot9(set.Weight, coeffs)
		integralLeft := Dot9(set.Left.nodeWeight(), coeffs)

		if integralTotal <= 0 {
			// Degenerate subtree: fall back to uniform choice so
			// every leaf stays reachable even when the clamped-cosine
			// lobe evaluates to exactly zero on both children.
			if u < 0.5 {
				node = set.Left
				u *= 2
			} else {
				node = set.Right
				u = (u - 0.5) * 2
			}
			continue
		}

		if u*integralTotal < integralLeft {
			node = set.Left
			u = u * integralTotal / integralLeft
		} else {
			remaining := integralTotal - integralLeft
			node = set.Right
			if remaining <= 0 {
				u = 0
			} else {
				u = (u*integralTotal - integralLeft) / remaining
			}
		}
		u = Clamp(u, 0, math.Nextafter(1, 0))
	}
}

// PDF returns the discrete probability that Pick selects the given
// triangle under coeffs; used to cross-check Pick's implied
// distribution in tests.
func (t *Tree) PDF(coeffs SteerableValue, target *TriangleNode) float64 {
	rootIntegral := Dot9(t.Root.nodeWeight(), coeffs)
	if rootIntegral <= 0 {
		return t.uniformLeafProbability()
	}
	return t.pdfRec(t.Root, coeffs, target, rootIntegral)
}

func (t *Tree) pdfRec(node Node, coeffs SteerableValue, target *TriangleNode, rootIntegral float64) float64 {
	if node.isTriangleNode() {
		if node.(*TriangleNode) == target {
			return Dot9(node.nodeWeight(), coeffs) / rootIntegral
		}
		return 0
	}
	set := node.(*SetNode)
	return t.pdfRec(set.Left, coeffs, target, rootIntegral) + t.pdfRec(set.Right, coeffs, target, rootIntegral)
}

func (t *Tree) uniformLeafProbability() float64 {
	n := t.leafCount(t.Root)
	if n == 0 {
		return 0
	}
	return 1.0 / float64(n)
}

func (t *Tree) leafCount(node Node) int {
	if node.isTriangleNode() {
		return 1
	}
	set := node.(*SetNode)
	return t.leafCount(set.Left) + t.leafCount(set.Right)
}
