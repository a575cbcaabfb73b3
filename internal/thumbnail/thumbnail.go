// Package thumbnail runs the full mesh-to-image pipeline: parse, normalize,
// render offscreen, antialias, read back. Each stage completes before the
// next begins and all GPU resources live only for one invocation.
package thumbnail

import (
	"fmt"
	"image"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/stlthumb/internal/config"
	"github.com/Faultbox/stlthumb/internal/engine/capture"
	"github.com/Faultbox/stlthumb/internal/engine/framebuffer"
	"github.com/Faultbox/stlthumb/internal/engine/fxaa"
	"github.com/Faultbox/stlthumb/internal/engine/geometry"
	"github.com/Faultbox/stlthumb/internal/engine/render"
	"github.com/Faultbox/stlthumb/internal/engine/window"
	"github.com/Faultbox/stlthumb/internal/logger"
	"github.com/Faultbox/stlthumb/internal/postprocess"
	"github.com/Faultbox/stlthumb/pkg/math"
	"github.com/Faultbox/stlthumb/pkg/stl"
)

// previewInterval is the event-poll cadence of the optional preview loop.
const previewInterval = 10 * time.Millisecond

// RenderFile parses an STL file and renders its thumbnail. The mesh is
// parsed before any GPU resource is touched, so malformed input never
// allocates a context.
func RenderFile(cfg *config.Config) (*image.NRGBA, error) {
	mesh, err := stl.ParseFile(cfg.STLPath)
	if err != nil {
		return nil, fmt.Errorf("loading mesh: %w", err)
	}
	logger.Info("mesh loaded",
		zap.String("file", cfg.STLPath),
		zap.Int("triangles", mesh.TriangleCount()),
	)
	return Render(cfg, mesh)
}

// Render renders a parsed mesh into a top-left-origin RGBA image of the
// configured size. On any failure no image is produced.
func Render(cfg *config.Config, mesh *stl.Mesh) (*image.NRGBA, error) {
	// Supersampling renders larger and downsamples at the end
	rw := cfg.Render.Width * cfg.Render.Supersample
	rh := cfg.Render.Height * cfg.Render.Supersample

	bounds, model := geometry.Normalize(mesh)
	logger.Debug("mesh normalized",
		zap.Any("min", bounds.Min),
		zap.Any("max", bounds.Max),
		zap.Float32("maxDimension", bounds.MaxDimension()),
	)

	win, err := window.New(window.Config{
		Title:   "stlthumb",
		Width:   cfg.Render.Width,
		Height:  cfg.Render.Height,
		Visible: cfg.Render.Visible,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", render.ErrGraphicsInit, err)
	}
	defer win.Close()

	pipeline, err := render.New(render.Config{
		Width:      int32(rw),
		Height:     int32(rh),
		Background: cfg.Render.Background,
		Camera: render.Camera{
			Eye:    math.Vec3{X: cfg.Camera.Eye[0], Y: cfg.Camera.Eye[1], Z: cfg.Camera.Eye[2]},
			Target: math.Vec3{},
			Up:     math.Vec3{Z: 1},
			FovDeg: cfg.Camera.FovDeg,
			Near:   cfg.Camera.Near,
			Far:    cfg.Camera.Far,
		},
		Material: render.Material{
			Ambient:  cfg.Material.Ambient,
			Diffuse:  cfg.Material.Diffuse,
			Specular: cfg.Material.Specular,
			LightDir: cfg.Material.LightDir,
		},
	}, mesh)
	if err != nil {
		return nil, err
	}
	defer pipeline.Destroy()

	pipeline.Draw(model)

	aa, err := fxaa.New()
	if err != nil {
		return nil, err
	}
	defer aa.Destroy()

	final, err := framebuffer.NewColor(int32(rw), int32(rh))
	if err != nil {
		return nil, fmt.Errorf("%w: final target: %v", render.ErrGraphicsInit, err)
	}
	defer final.Destroy()

	aa.Apply(pipeline.Target().ColorTexture(), final)

	pixels, err := final.ReadPixels()
	if err != nil {
		return nil, fmt.Errorf("reading back pixels: %w", err)
	}
	img, err := capture.Image(pixels, rw, rh)
	if err != nil {
		return nil, fmt.Errorf("converting pixels: %w", err)
	}

	if cfg.Render.Supersample > 1 {
		img = postprocess.Downsample(img, cfg.Render.Width, cfg.Render.Height)
	}

	if cfg.Render.Visible {
		preview(win, final)
	}

	return img, nil
}

// preview blits the finished render to the visible window until it is
// closed. This loop has no effect on the thumbnail; the pixels were read
// back before it starts.
func preview(win *window.Window, fb *framebuffer.Framebuffer) {
	logger.Info("preview open, close the window to exit")
	for {
		if win.PollClose() {
			return
		}
		w, h := win.Size()
		fb.BlitToScreen(int32(w), int32(h))
		win.SwapBuffers()
		time.Sleep(previewInterval)
	}
}
