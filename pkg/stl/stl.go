// Package stl parses STL (stereolithography) triangle-mesh files.
//
// Both encodings of the format are supported: the 84-byte-header binary
// variant and the "solid"/"endsolid" text variant. Vertices are kept in
// triangle order with the facet normal duplicated per vertex, ready for
// non-indexed flat-shaded rendering.
package stl

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// STL format errors.
var (
	ErrTruncatedSTL = errors.New("truncated STL data")
	ErrBadFacet     = errors.New("malformed STL facet")
	ErrNotFinite    = errors.New("non-finite STL coordinate")
)

const (
	// binaryHeaderSize is the free-form header plus the triangle count field.
	binaryHeaderSize = 80 + 4

	// triangleRecordSize is normal (12) + three vertices (36) + attribute (2).
	triangleRecordSize = 50
)

// Mesh is a triangle soup as stored in an STL file.
//
// Vertices holds x,y,z triples in triangle order; Normals is the parallel
// array of facet normals, one copy per vertex. Both slices always have the
// same length, a multiple of nine floats (three vertices per triangle).
type Mesh struct {
	Vertices []float32
	Normals  []float32
}

// TriangleCount returns the number of triangles in the mesh.
func (m *Mesh) TriangleCount() int {
	return len(m.Vertices) / 9
}

// Parse parses STL data from a byte slice.
//
// The text variant is detected by a leading "solid" keyword (surrounding
// whitespace ignored); anything else is treated as binary.
func Parse(data []byte) (*Mesh, error) {
	if isASCII(data) {
		return parseASCII(data)
	}
	return parseBinary(data)
}

// Read reads a complete STL stream and parses it.
func Read(r io.Reader) (*Mesh, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading STL stream: %w", err)
	}
	return Parse(data)
}

// ParseFile parses an STL file from disk.
func ParseFile(path string) (*Mesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading STL file: %w", err)
	}
	return Parse(data)
}

// isASCII reports whether the data starts with the text-variant keyword.
func isASCII(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("solid"))
}

// parseBinary parses the binary STL variant. The declared triangle count is
// authoritative: the parse fails if fewer records remain in the data, and
// trailing bytes beyond the declared count are ignored.
func parseBinary(data []byte) (*Mesh, error) {
	if len(data) < binaryHeaderSize {
		return nil, fmt.Errorf("%w: %d byte header, need %d", ErrTruncatedSTL, len(data), binaryHeaderSize)
	}

	count := binary.LittleEndian.Uint32(data[80:84])
	body := data[binaryHeaderSize:]
	if uint64(len(body)) < uint64(count)*triangleRecordSize {
		return nil, fmt.Errorf("%w: %d triangles declared, %d bytes remain", ErrTruncatedSTL, count, len(body))
	}

	mesh := &Mesh{
		Vertices: make([]float32, 0, count*9),
		Normals:  make([]float32, 0, count*9),
	}

	for i := uint32(0); i < count; i++ {
		rec := body[i*triangleRecordSize:]

		var tri [12]float32 // normal + three vertices
		for j := range tri {
			bits := binary.LittleEndian.Uint32(rec[j*4:])
			v := math.Float32frombits(bits)
			if notFinite(v) {
				return nil, fmt.Errorf("%w: triangle %d", ErrNotFinite, i)
			}
			tri[j] = v
		}

		appendTriangle(mesh, tri)
	}

	return mesh, nil
}

// parseASCII parses the text STL variant, tolerant of surrounding whitespace.
func parseASCII(data []byte) (*Mesh, error) {
	mesh := &Mesh{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	line := 0
	next := func() ([]string, bool) {
		for sc.Scan() {
			line++
			fields := strings.Fields(sc.Text())
			if len(fields) > 0 {
				return fields, true
			}
		}
		return nil, false
	}

	fields, ok := next()
	if !ok || fields[0] != "solid" {
		return nil, fmt.Errorf("%w: missing solid header", ErrBadFacet)
	}

	for {
		fields, ok = next()
		if !ok {
			return nil, fmt.Errorf("%w: missing endsolid", ErrTruncatedSTL)
		}
		if fields[0] == "endsolid" {
			return mesh, nil
		}

		// facet normal nx ny nz
		if len(fields) != 5 || fields[0] != "facet" || fields[1] != "normal" {
			return nil, fmt.Errorf("%w: line %d: expected facet normal", ErrBadFacet, line)
		}
		var tri [12]float32
		if err := parseFloats(fields[2:], tri[0:3]); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrBadFacet, line, err)
		}

		if fields, ok = next(); !ok || len(fields) != 2 || fields[0] != "outer" || fields[1] != "loop" {
			return nil, fmt.Errorf("%w: line %d: expected outer loop", ErrBadFacet, line)
		}

		for v := 0; v < 3; v++ {
			fields, ok = next()
			if !ok || len(fields) != 4 || fields[0] != "vertex" {
				return nil, fmt.Errorf("%w: line %d: expected vertex", ErrBadFacet, line)
			}
			if err := parseFloats(fields[1:], tri[3+v*3:6+v*3]); err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrBadFacet, line, err)
			}
		}

		if fields, ok = next(); !ok || fields[0] != "endloop" {
			return nil, fmt.Errorf("%w: line %d: expected endloop", ErrBadFacet, line)
		}
		if fields, ok = next(); !ok || fields[0] != "endfacet" {
			return nil, fmt.Errorf("%w: line %d: expected endfacet", ErrBadFacet, line)
		}

		appendTriangle(mesh, tri)
	}
}

// parseFloats parses fields into dst and rejects non-finite values.
func parseFloats(fields []string, dst []float32) error {
	for i := range dst {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return fmt.Errorf("bad number %q", fields[i])
		}
		v := float32(f)
		if notFinite(v) {
			return errors.New("non-finite value")
		}
		dst[i] = v
	}
	return nil
}

// appendTriangle adds one facet to the mesh, duplicating the facet normal to
// each vertex for flat shading. A zero normal (permitted by the format) is
// recomputed from the right-handed vertex winding.
func appendTriangle(mesh *Mesh, tri [12]float32) {
	n := normalize(tri[0], tri[1], tri[2])
	if n == [3]float32{} {
		n = facetNormal(tri[3:12])
	}

	mesh.Vertices = append(mesh.Vertices, tri[3:12]...)
	for v := 0; v < 3; v++ {
		mesh.Normals = append(mesh.Normals, n[0], n[1], n[2])
	}
}

// facetNormal derives a unit normal from three vertices with right-handed
// winding. Degenerate facets yield the zero normal.
func facetNormal(v []float32) [3]float32 {
	ux, uy, uz := v[3]-v[0], v[4]-v[1], v[5]-v[2]
	wx, wy, wz := v[6]-v[0], v[7]-v[1], v[8]-v[2]
	return normalize(uy*wz-uz*wy, uz*wx-ux*wz, ux*wy-uy*wx)
}

func normalize(x, y, z float32) [3]float32 {
	l := float32(math.Sqrt(float64(x*x + y*y + z*z)))
	if l == 0 {
		return [3]float32{}
	}
	return [3]float32{x / l, y / l, z / l}
}

func notFinite(v float32) bool {
	f := float64(v)
	return math.IsNaN(f) || math.IsInf(f, 0)
}
