package stl

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"testing"
)

// makeBinarySTL builds a binary STL from triangles given as
// [nx ny nz x0 y0 z0 x1 y1 z1 x2 y2 z2].
func makeBinarySTL(count uint32, tris ...[12]float32) []byte {
	var buf bytes.Buffer
	buf.Write(make([]byte, 80))
	binary.Write(&buf, binary.LittleEndian, count)
	for _, tri := range tris {
		binary.Write(&buf, binary.LittleEndian, tri)
		buf.Write([]byte{0, 0}) // attribute byte count
	}
	return buf.Bytes()
}

func flatTriangle() [12]float32 {
	// Counter-clockwise in the XY plane, normal +Z
	return [12]float32{
		0, 0, 1,
		0, 0, 0,
		1, 0, 0,
		0, 1, 0,
	}
}

func TestParseBinary(t *testing.T) {
	mesh, err := Parse(makeBinarySTL(1, flatTriangle()))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if got := mesh.TriangleCount(); got != 1 {
		t.Errorf("TriangleCount() = %d, want 1", got)
	}
	if len(mesh.Vertices) != len(mesh.Normals) {
		t.Errorf("vertices/normals length mismatch: %d vs %d", len(mesh.Vertices), len(mesh.Normals))
	}
	if len(mesh.Vertices)%9 != 0 {
		t.Errorf("vertex array length %d not a multiple of 9", len(mesh.Vertices))
	}

	// Facet normal is duplicated to all three vertices
	for v := 0; v < 3; v++ {
		if mesh.Normals[v*3] != 0 || mesh.Normals[v*3+1] != 0 || mesh.Normals[v*3+2] != 1 {
			t.Errorf("vertex %d normal = (%f, %f, %f), want (0, 0, 1)",
				v, mesh.Normals[v*3], mesh.Normals[v*3+1], mesh.Normals[v*3+2])
		}
	}
}

func TestParseBinaryErrors(t *testing.T) {
	nan := [12]float32{0, 0, 1, float32(math.NaN()), 0, 0, 1, 0, 0, 0, 1, 0}

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{
			name:    "short header",
			data:    make([]byte, 40),
			wantErr: ErrTruncatedSTL,
		},
		{
			name:    "empty data",
			data:    nil,
			wantErr: ErrTruncatedSTL,
		},
		{
			name:    "declared count exceeds data",
			data:    makeBinarySTL(3, flatTriangle()),
			wantErr: ErrTruncatedSTL,
		},
		{
			name:    "non-finite coordinate",
			data:    makeBinarySTL(1, nan),
			wantErr: ErrNotFinite,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.data)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Parse() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseBinaryZeroTriangles(t *testing.T) {
	mesh, err := Parse(makeBinarySTL(0))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if mesh.TriangleCount() != 0 {
		t.Errorf("TriangleCount() = %d, want 0", mesh.TriangleCount())
	}
}

func TestParseBinaryIgnoresTrailingBytes(t *testing.T) {
	data := append(makeBinarySTL(1, flatTriangle()), 0xde, 0xad, 0xbe, 0xef)
	mesh, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if mesh.TriangleCount() != 1 {
		t.Errorf("TriangleCount() = %d, want 1", mesh.TriangleCount())
	}
}

func TestParseBinaryRecomputesZeroNormal(t *testing.T) {
	tri := flatTriangle()
	tri[0], tri[1], tri[2] = 0, 0, 0

	mesh, err := Parse(makeBinarySTL(1, tri))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	// Right-handed winding in the XY plane gives +Z
	if mesh.Normals[2] < 0.999 {
		t.Errorf("recomputed normal Z = %f, want ~1", mesh.Normals[2])
	}
}

func TestParseBinaryNormalizesNormals(t *testing.T) {
	tri := flatTriangle()
	tri[2] = 10 // stored as (0, 0, 10)

	mesh, err := Parse(makeBinarySTL(1, tri))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if mesh.Normals[2] != 1 {
		t.Errorf("normal Z = %f, want 1 after normalization", mesh.Normals[2])
	}
}

const asciiTriangle = `solid test
  facet normal 0 0 1
    outer loop
      vertex 0 0 0
      vertex 1 0 0
      vertex 0 1 0
    endloop
  endfacet
endsolid test
`

func TestParseASCII(t *testing.T) {
	mesh, err := Parse([]byte(asciiTriangle))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if mesh.TriangleCount() != 1 {
		t.Errorf("TriangleCount() = %d, want 1", mesh.TriangleCount())
	}
	if mesh.Vertices[3] != 1 {
		t.Errorf("second vertex X = %f, want 1", mesh.Vertices[3])
	}
}

func TestParseASCIILeadingWhitespace(t *testing.T) {
	mesh, err := Parse([]byte("\n\t  " + asciiTriangle))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if mesh.TriangleCount() != 1 {
		t.Errorf("TriangleCount() = %d, want 1", mesh.TriangleCount())
	}
}

func TestParseASCIIErrors(t *testing.T) {
	tests := []struct {
		name    string
		mangle  func(string) string
		wantErr error
	}{
		{
			name:    "missing endsolid",
			mangle:  func(s string) string { return strings.Replace(s, "endsolid test\n", "", 1) },
			wantErr: ErrTruncatedSTL,
		},
		{
			name:    "missing outer loop",
			mangle:  func(s string) string { return strings.Replace(s, "outer loop", "inner loop", 1) },
			wantErr: ErrBadFacet,
		},
		{
			name:    "bad vertex count",
			mangle:  func(s string) string { return strings.Replace(s, "vertex 0 1 0\n", "", 1) },
			wantErr: ErrBadFacet,
		},
		{
			name:    "bad number",
			mangle:  func(s string) string { return strings.Replace(s, "vertex 1 0 0", "vertex x 0 0", 1) },
			wantErr: ErrBadFacet,
		},
		{
			name:    "non-finite vertex",
			mangle:  func(s string) string { return strings.Replace(s, "vertex 1 0 0", "vertex Inf 0 0", 1) },
			wantErr: ErrBadFacet,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.mangle(asciiTriangle)))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Parse() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRead(t *testing.T) {
	mesh, err := Read(strings.NewReader(asciiTriangle))
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if mesh.TriangleCount() != 1 {
		t.Errorf("TriangleCount() = %d, want 1", mesh.TriangleCount())
	}
}
