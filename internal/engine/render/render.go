// Package render owns the GPU side of the thumbnail pipeline: GL state,
// the lit-mesh shader program, geometry buffers, and the offscreen scene
// pass. One Pipeline serves one render invocation.
package render

import (
	"errors"
	"fmt"
	gomath "math"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/stlthumb/internal/engine/framebuffer"
	"github.com/Faultbox/stlthumb/internal/engine/render/shaders"
	"github.com/Faultbox/stlthumb/internal/engine/shader"
	"github.com/Faultbox/stlthumb/internal/logger"
	"github.com/Faultbox/stlthumb/pkg/math"
	"github.com/Faultbox/stlthumb/pkg/stl"
)

// ErrGraphicsInit marks unrecoverable environment problems: no usable GL
// context, shader compile/link failure, or incomplete framebuffers. Callers
// use it to distinguish "fix your environment" from bad input data.
var ErrGraphicsInit = errors.New("graphics init")

// Camera is the fixed viewpoint the mesh is framed for.
type Camera struct {
	Eye    math.Vec3
	Target math.Vec3
	Up     math.Vec3
	FovDeg float32
	Near   float32
	Far    float32
}

// ViewMatrix returns the look-at view matrix for this camera.
func (c Camera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Eye, c.Target, c.Up)
}

// ProjectionMatrix returns the perspective projection for the given output
// aspect ratio (width/height).
func (c Camera) ProjectionMatrix(aspect float32) math.Mat4 {
	fov := c.FovDeg * gomath.Pi / 180.0
	return math.Perspective(fov, aspect, c.Near, c.Far)
}

// Material holds the lighting colors and the directional light.
type Material struct {
	Ambient  [3]float32
	Diffuse  [3]float32
	Specular [3]float32
	LightDir [3]float32
}

// Config holds everything one render invocation needs besides the mesh.
type Config struct {
	Width      int32
	Height     int32
	Background [4]float32
	Camera     Camera
	Material   Material
}

// Pipeline renders a mesh into an offscreen color+depth target.
type Pipeline struct {
	cfg Config

	program uint32
	vao     uint32
	vboPos  uint32
	vboNorm uint32

	locModel      int32
	locView       int32
	locProjection int32
	locLightDir   int32
	locAmbient    int32
	locDiffuse    int32
	locSpecular   int32

	vertexCount int32
	target      *framebuffer.Framebuffer
}

// New initializes GL, compiles the mesh shader, uploads the mesh geometry
// and creates the scene target. Must be called after a GL context exists
// on the current thread.
func New(cfg Config, mesh *stl.Mesh) (*Pipeline, error) {
	p := &Pipeline{cfg: cfg}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("%w: loading GL functions: %v", ErrGraphicsInit, err)
	}

	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("glsl", gl.GoStr(gl.GetString(gl.SHADING_LANGUAGE_VERSION))),
		zap.String("vendor", gl.GoStr(gl.GetString(gl.VENDOR))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	program, err := shader.CompileProgram(shaders.ModelVertexShader, shaders.ModelFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("%w: model shader: %v", ErrGraphicsInit, err)
	}
	p.program = program

	p.locModel = shader.GetUniform(program, "uModel")
	p.locView = shader.GetUniform(program, "uView")
	p.locProjection = shader.GetUniform(program, "uProjection")
	p.locLightDir = shader.GetUniform(program, "uLightDir")
	p.locAmbient = shader.GetUniform(program, "uAmbient")
	p.locDiffuse = shader.GetUniform(program, "uDiffuse")
	p.locSpecular = shader.GetUniform(program, "uSpecular")

	p.uploadMesh(mesh)

	p.target, err = framebuffer.New(cfg.Width, cfg.Height)
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("%w: scene target: %v", ErrGraphicsInit, err)
	}

	return p, nil
}

// uploadMesh sends the flat vertex and normal arrays to the GPU as a
// non-indexed triangle list. STL vertices are already in triangle order,
// so no index buffer is needed.
func (p *Pipeline) uploadMesh(mesh *stl.Mesh) {
	p.vertexCount = int32(len(mesh.Vertices) / 3)

	gl.GenVertexArrays(1, &p.vao)
	gl.BindVertexArray(p.vao)

	gl.GenBuffers(1, &p.vboPos)
	gl.BindBuffer(gl.ARRAY_BUFFER, p.vboPos)
	if len(mesh.Vertices) > 0 {
		gl.BufferData(gl.ARRAY_BUFFER, len(mesh.Vertices)*4, unsafe.Pointer(&mesh.Vertices[0]), gl.STATIC_DRAW)
	}
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 0, nil)
	gl.EnableVertexAttribArray(0)

	gl.GenBuffers(1, &p.vboNorm)
	gl.BindBuffer(gl.ARRAY_BUFFER, p.vboNorm)
	if len(mesh.Normals) > 0 {
		gl.BufferData(gl.ARRAY_BUFFER, len(mesh.Normals)*4, unsafe.Pointer(&mesh.Normals[0]), gl.STATIC_DRAW)
	}
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, 0, nil)
	gl.EnableVertexAttribArray(1)

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)

	logger.Debug("mesh uploaded", zap.Int32("vertices", p.vertexCount))
}

// Draw renders the lit mesh with the given model transform into the scene
// target. Depth test and clockwise backface culling follow the STL
// right-handed winding convention.
func (p *Pipeline) Draw(model math.Mat4) {
	view := p.cfg.Camera.ViewMatrix()
	projection := p.cfg.Camera.ProjectionMatrix(float32(p.cfg.Width) / float32(p.cfg.Height))

	logger.Debug("matrices",
		zap.Any("model", model),
		zap.Any("view", view),
		zap.Any("projection", projection),
	)

	p.target.Bind()
	defer p.target.Unbind()

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.CULL_FACE)
	gl.FrontFace(gl.CCW)
	gl.CullFace(gl.BACK)

	bg := p.cfg.Background
	p.target.Clear(bg[0], bg[1], bg[2], bg[3])

	gl.UseProgram(p.program)
	gl.UniformMatrix4fv(p.locModel, 1, false, model.Ptr())
	gl.UniformMatrix4fv(p.locView, 1, false, view.Ptr())
	gl.UniformMatrix4fv(p.locProjection, 1, false, projection.Ptr())

	m := p.cfg.Material
	gl.Uniform3f(p.locLightDir, m.LightDir[0], m.LightDir[1], m.LightDir[2])
	gl.Uniform3f(p.locAmbient, m.Ambient[0], m.Ambient[1], m.Ambient[2])
	gl.Uniform3f(p.locDiffuse, m.Diffuse[0], m.Diffuse[1], m.Diffuse[2])
	gl.Uniform3f(p.locSpecular, m.Specular[0], m.Specular[1], m.Specular[2])

	gl.BindVertexArray(p.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, p.vertexCount)
	gl.BindVertexArray(0)

	gl.Disable(gl.CULL_FACE)
}

// Target returns the scene's offscreen color+depth target.
func (p *Pipeline) Target() *framebuffer.Framebuffer {
	return p.target
}

// Destroy releases all GPU resources held by the pipeline.
func (p *Pipeline) Destroy() {
	if p.vao != 0 {
		gl.DeleteVertexArrays(1, &p.vao)
		p.vao = 0
	}
	if p.vboPos != 0 {
		gl.DeleteBuffers(1, &p.vboPos)
		p.vboPos = 0
	}
	if p.vboNorm != 0 {
		gl.DeleteBuffers(1, &p.vboNorm)
		p.vboNorm = 0
	}
	if p.program != 0 {
		gl.DeleteProgram(p.program)
		p.program = 0
	}
	if p.target != nil {
		p.target.Destroy()
		p.target = nil
	}
}
