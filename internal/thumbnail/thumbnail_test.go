package thumbnail

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/stlthumb/internal/config"
	"github.com/Faultbox/stlthumb/internal/engine/render"
	"github.com/Faultbox/stlthumb/pkg/stl"
)

// cubeSTL builds a binary STL of a unit cube: 12 triangles with
// right-handed winding and zero normals (the loader recomputes them).
func cubeSTL() []byte {
	quads := [][4][3]float32{
		{{1, 0, 0}, {1, 1, 0}, {1, 1, 1}, {1, 0, 1}}, // +X
		{{0, 0, 0}, {0, 0, 1}, {0, 1, 1}, {0, 1, 0}}, // -X
		{{0, 1, 0}, {0, 1, 1}, {1, 1, 1}, {1, 1, 0}}, // +Y
		{{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}}, // -Y
		{{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1}}, // +Z
		{{0, 0, 0}, {0, 1, 0}, {1, 1, 0}, {1, 0, 0}}, // -Z
	}

	var buf bytes.Buffer
	buf.Write(make([]byte, 80))
	binary.Write(&buf, binary.LittleEndian, uint32(len(quads)*2))
	for _, q := range quads {
		for _, tri := range [][3][3]float32{{q[0], q[1], q[2]}, {q[0], q[2], q[3]}} {
			binary.Write(&buf, binary.LittleEndian, [3]float32{}) // normal
			binary.Write(&buf, binary.LittleEndian, tri)
			buf.Write([]byte{0, 0})
		}
	}
	return buf.Bytes()
}

// testConfig returns a small headless config.
func testConfig(w, h int) *config.Config {
	cfg := config.Default()
	cfg.Render.Width = w
	cfg.Render.Height = h
	cfg.Render.Visible = false
	return cfg
}

// renderOrSkip skips the test when no GL context is available (headless CI).
func renderOrSkip(t *testing.T, cfg *config.Config, mesh *stl.Mesh) *image.NRGBA {
	t.Helper()
	img, err := Render(cfg, mesh)
	if errors.Is(err, render.ErrGraphicsInit) {
		t.Skipf("no GL context available: %v", err)
	}
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	return img
}

func TestRenderCube(t *testing.T) {
	mesh, err := stl.Parse(cubeSTL())
	if err != nil {
		t.Fatalf("parsing cube: %v", err)
	}
	if mesh.TriangleCount() != 12 {
		t.Fatalf("cube has %d triangles, want 12", mesh.TriangleCount())
	}

	cfg := testConfig(1024, 768)
	img := renderOrSkip(t, cfg, mesh)

	if img.Bounds().Dx() != 1024 || img.Bounds().Dy() != 768 {
		t.Fatalf("bounds = %v, want 1024x768", img.Bounds())
	}
	if len(img.Pix) != 1024*768*4 {
		t.Fatalf("Pix length = %d, want %d", len(img.Pix), 1024*768*4)
	}

	// The cube must cover at least one fully opaque pixel
	opaque := 0
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] == 255 {
			opaque++
		}
	}
	if opaque == 0 {
		t.Error("expected at least one opaque pixel from the rendered cube")
	}

	// Corners stay at the transparent background
	for _, pt := range [][2]int{{0, 0}, {1023, 0}, {0, 767}, {1023, 767}} {
		c := img.NRGBAAt(pt[0], pt[1])
		if c.A != 0 {
			t.Errorf("corner (%d, %d) alpha = %d, want background 0", pt[0], pt[1], c.A)
		}
	}
}

func TestRenderEmptyMeshIsBackground(t *testing.T) {
	cfg := testConfig(64, 48)
	cfg.Render.Background = [4]float32{1, 0, 0, 1}

	img := renderOrSkip(t, cfg, &stl.Mesh{})

	// No geometry: every pixel is the clear color, and the flat image
	// passes through the antialias stage untouched
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			c := img.NRGBAAt(x, y)
			if c.R != 255 || c.G != 0 || c.B != 0 || c.A != 255 {
				t.Fatalf("pixel (%d, %d) = %v, want opaque red background", x, y, c)
			}
		}
	}
}

func TestRenderDeterministic(t *testing.T) {
	mesh, err := stl.Parse(cubeSTL())
	if err != nil {
		t.Fatalf("parsing cube: %v", err)
	}

	cfg := testConfig(128, 96)
	first := renderOrSkip(t, cfg, mesh)
	second := renderOrSkip(t, cfg, mesh)

	// Same mesh, config and GPU: equal within a small per-channel tolerance
	const tolerance = 3
	for i := range first.Pix {
		d := int(first.Pix[i]) - int(second.Pix[i])
		if d < -tolerance || d > tolerance {
			t.Fatalf("pixel byte %d differs beyond tolerance: %d vs %d", i, first.Pix[i], second.Pix[i])
		}
	}
}

func TestRenderSupersample(t *testing.T) {
	mesh, err := stl.Parse(cubeSTL())
	if err != nil {
		t.Fatalf("parsing cube: %v", err)
	}

	cfg := testConfig(64, 48)
	cfg.Render.Supersample = 2
	img := renderOrSkip(t, cfg, mesh)

	// Output keeps the configured size regardless of the render scale
	if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 48 {
		t.Fatalf("bounds = %v, want 64x48", img.Bounds())
	}
}

func TestRenderFileTruncatedSTL(t *testing.T) {
	// Declared count exceeds the available bytes; parsing fails before
	// any GPU resource is allocated, so this runs headless too
	data := cubeSTL()
	path := filepath.Join(t.TempDir(), "broken.stl")
	if err := os.WriteFile(path, data[:len(data)-30], 0o644); err != nil {
		t.Fatalf("writing test file: %v", err)
	}

	cfg := testConfig(64, 48)
	cfg.STLPath = path

	_, err := RenderFile(cfg)
	if !errors.Is(err, stl.ErrTruncatedSTL) {
		t.Errorf("RenderFile() error = %v, want ErrTruncatedSTL", err)
	}
}

func TestRenderFileMissing(t *testing.T) {
	cfg := testConfig(64, 48)
	cfg.STLPath = filepath.Join(t.TempDir(), "missing.stl")

	_, err := RenderFile(cfg)
	if err == nil {
		t.Error("expected error for missing input file")
	}
	if errors.Is(err, render.ErrGraphicsInit) {
		t.Error("missing file must be a data error, not a graphics error")
	}
}
