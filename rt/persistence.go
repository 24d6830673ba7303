package rt

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// formatHeader is the on-disk magic string identifying a steerable
// sampler cache file and its format version.
const formatHeader = "Environment Map Steerable Sampler Data, format ver. 1.1"

// CachePath derives the save path for a built sampler from the
// source image path and its build parameters, so a later run with
// different parameters or filtering mode misses the cache instead of
// silently loading stale data.
func CachePath(envPath string, params BuildParameters, bilinear bool) string {
	filterTag := "nearest"
	if bilinear {
		filterTag = "bilinear"
	}
	return fmt.Sprintf("%s.%s.me%g.mn%d.mx%d.os%g.sp%g.sst", envPath, filterTag,
		params.MaxApproxError, params.MinSubdivLevel, params.MaxSubdivLevel,
		params.OversamplingFactor, params.MaxTriangleSpan)
}

// Save writes the vertex storage and aggregation tree to path in the
// cache binary layout.
func Save(path string, vs *VertexStorage, tree *Tree, params BuildParameters) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create cache %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)

	if err := writeString(w, formatHeader); err != nil {
		return err
	}

	if err := writeAll(w,
		float32(params.MaxApproxError),
		uint32(params.MinSubdivLevel),
		uint32(params.MaxSubdivLevel),
		float32(params.MaxTriangleSpan),
		float32(params.OversamplingFactor),
	); err != nil {
		return err
	}

	if err := binary.Write(w, binary.LittleEndian, uint32(vs.Len())); err != nil {
		return err
	}
	for i := 0; i < vs.Len(); i++ {
		v := vs.Get(VertexIndex(i))
		if err := writeVertex(w, v); err != nil {
			return err
		}
	}

	setCount, triCount := countNodes(tree.Root)
	if err := writeAll(w, uint32(setCount), uint32(triCount)); err != nil {
		return err
	}

	if err := writeNode(w, tree.Root); err != nil {
		return err
	}

	return w.Flush()
}

// Load reads a cache file, validating it against expectedParams
// header mismatch, parameter divergence, truncation,
// trailing bytes, and set/triangle count drift are all rejected.
func Load(path string, expectedParams BuildParameters) (*VertexStorage, *Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open cache %s: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)

	header, err := readString(r)
	if err != nil {
		return nil, nil, fmt.Errorf("read cache header: %w", err)
	}
	if header != formatHeader {
		return nil, nil, fmt.Errorf("cache %s: header mismatch (got %q)", path, header)
	}

	var maxErr, maxSpan, oversamp float32
	var minSub, maxSub uint32
	if err := readAll(r, &maxErr, &minSub, &maxSub, &maxSpan, &oversamp); err != nil {
		return nil, nil, fmt.Errorf("read cache params: %w", err)
	}
	// Float parameters live on disk at float32 precision, so the
	// comparison happens there too.
	expected := expectedParams.resolve()
	if maxErr != float32(expected.MaxApproxError) ||
		int(minSub) != expected.MinSubdivLevel ||
		int(maxSub) != expected.MaxSubdivLevel ||
		maxSpan != float32(expected.MaxTriangleSpan) ||
		oversamp != float32(expected.OversamplingFactor) {
		return nil, nil, fmt.Errorf("cache %s: build parameter divergence", path)
	}

	var vertexCount uint32
	if err := binary.Read(r, binary.LittleEndian, &vertexCount); err != nil {
		return nil, nil, fmt.Errorf("read vertex count: %w", err)
	}

	vs := NewVertexStorage(int(vertexCount))
	for i := uint32(0); i < vertexCount; i++ {
		v, err := readVertex(r)
		if err != nil {
			return nil, nil, fmt.Errorf("read vertex %d: %w", i, err)
		}
		vs.Add(v)
	}

	var setCount, triCount uint32
	if err := readAll(r, &setCount, &triCount); err != nil {
		return nil, nil, fmt.Errorf("read node counts: %w", err)
	}

	root, err := readNode(r, vs)
	if err != nil {
		return nil, nil, fmt.Errorf("read tree: %w", err)
	}

	actualSet, actualTri := countNodes(root)
	if uint32(actualSet) != setCount || uint32(actualTri) != triCount {
		return nil, nil, fmt.Errorf("cache %s: node count mismatch (header %d/%d, actual %d/%d)",
			path, setCount, triCount, actualSet, actualTri)
	}

	// Any bytes remaining indicate a corrupt or foreign-format file.
	trailing := make([]byte, 1)
	if n, err := r.Read(trailing); n > 0 || err == nil {
		return nil, nil, fmt.Errorf("cache %s: trailing bytes after tree data", path)
	} else if err != io.EOF {
		return nil, nil, fmt.Errorf("cache %s: error checking for trailing bytes: %w", path, err)
	}

	return vs, &Tree{Root: root}, nil
}

func countNodes(n Node) (setCount, triCount int) {
	if n.isTriangleNode() {
		return 0, 1
	}
	s := n.(*SetNode)
	ls, lt := countNodes(s.Left)
	rs, rt := countNodes(s.Right)
	return ls + rs + 1, lt + rt
}

func writeNode(w io.Writer, n Node) error {
	if n.isTriangleNode() {
		t := n.(*TriangleNode)
		if err := writeAll(w, uint8(1), t.SubdivLevel, uint32(t.V0), uint32(t.V1), uint32(t.V2)); err != nil {
			return err
		}
		return nil
	}
	s := n.(*SetNode)
	if err := writeAll(w, uint8(0)); err != nil {
		return err
	}
	if err := writeNode(w, s.Left); err != nil {
		return err
	}
	return writeNode(w, s.Right)
}

func readNode(r io.Reader, vs *VertexStorage) (Node, error) {
	var tag uint8
	if err := binary.Read(r, binary.LittleEndian, &tag); err != nil {
		return nil, err
	}
	if tag == 1 {
		var level, v0, v1, v2 uint32
		if err := readAll(r, &level, &v0, &v1, &v2); err != nil {
			return nil, err
		}
		ct := CommittedTriangle{V0: VertexIndex(v0), V1: VertexIndex(v1), V2: VertexIndex(v2), SubdivLevel: level}
		return &TriangleNode{V0: ct.V0, V1: ct.V1, V2: ct.V2, SubdivLevel: level, Weight: triangleWeight(vs, ct)}, nil
	}
	left, err := readNode(r, vs)
	if err != nil {
		return nil, err
	}
	right, err := readNode(r, vs)
	if err != nil {
		return nil, err
	}
	return &SetNode{Left: left, Right: right, Weight: left.nodeWeight().Add(right.nodeWeight())}, nil
}

func writeVertex(w io.Writer, v Vertex) error {
	if err := writeAll(w, float32(v.Dir.X), float32(v.Dir.Y), float32(v.Dir.Z)); err != nil {
		return err
	}
	vals := make([]float32, 9)
	for i, c := range v.Weight.C {
		vals[i] = float32(c)
	}
	return binary.Write(w, binary.LittleEndian, vals)
}

func readVertex(r io.Reader) (Vertex, error) {
	var x, y, z float32
	if err := readAll(r, &x, &y, &z); err != nil {
		return Vertex{}, err
	}
	vals := make([]float32, 9)
	if err := binary.Read(r, binary.LittleEndian, vals); err != nil {
		return Vertex{}, err
	}
	var sv SteerableValue
	for i, v := range vals {
		sv.C[i] = float64(v)
	}
	return Vertex{Dir: Vec3{X: float64(x), Y: float64(y), Z: float64(z)}, Weight: sv}, nil
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func writeAll(w io.Writer, vals ...any) error {
	for _, v := range vals {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	return nil
}

func readAll(r io.Reader, ptrs ...any) error {
	for _, p := range ptrs {
		if err := binary.Read(r, binary.LittleEndian, p); err != nil {
			return err
		}
	}
	return nil
}
