// Package fxaa implements the full-screen antialiasing post-process.
//
// The pass samples the completed scene color texture, detects edges by
// local luma contrast and blends along the edge direction. It reads only
// from its source texture and writes into a separate color-only target;
// the source is never mutated.
package fxaa

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/stlthumb/internal/engine/framebuffer"
	"github.com/Faultbox/stlthumb/internal/engine/render"
	"github.com/Faultbox/stlthumb/internal/engine/render/shaders"
	"github.com/Faultbox/stlthumb/internal/engine/shader"
)

// quadVertices is a full-screen quad as two triangles: x, y, u, v.
var quadVertices = []float32{
	-1, -1, 0, 0,
	1, -1, 1, 0,
	1, 1, 1, 1,

	-1, -1, 0, 0,
	1, 1, 1, 1,
	-1, 1, 0, 1,
}

// Pass holds the antialias shader and its full-screen geometry.
type Pass struct {
	program uint32
	vao     uint32
	vbo     uint32

	locTexture     int32
	locInverseSize int32
}

// New compiles the antialias program and uploads the quad geometry.
func New() (*Pass, error) {
	program, err := shader.CompileProgram(shaders.FxaaVertexShader, shaders.FxaaFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("%w: fxaa shader: %v", render.ErrGraphicsInit, err)
	}

	p := &Pass{program: program}
	p.locTexture = shader.GetUniform(program, "uTexture")
	p.locInverseSize = shader.GetUniform(program, "uInverseSize")

	gl.GenVertexArrays(1, &p.vao)
	gl.BindVertexArray(p.vao)

	gl.GenBuffers(1, &p.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, p.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(quadVertices)*4, unsafe.Pointer(&quadVertices[0]), gl.STATIC_DRAW)

	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 4*4, nil)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(1, 2, gl.FLOAT, false, 4*4, unsafe.Pointer(uintptr(2*4)))
	gl.EnableVertexAttribArray(1)

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)

	return p, nil
}

// Apply draws the antialiased version of sourceColor into dst. Both must
// have the same dimensions.
func (p *Pass) Apply(sourceColor uint32, dst *framebuffer.Framebuffer) {
	width, height := dst.Size()

	dst.Bind()
	defer dst.Unbind()

	// Post-process only; the scene pass owns depth
	gl.Disable(gl.DEPTH_TEST)

	gl.UseProgram(p.program)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, sourceColor)
	gl.Uniform1i(p.locTexture, 0)
	gl.Uniform2f(p.locInverseSize, 1.0/float32(width), 1.0/float32(height))

	gl.BindVertexArray(p.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, int32(len(quadVertices)/4))
	gl.BindVertexArray(0)

	gl.BindTexture(gl.TEXTURE_2D, 0)
}

// Destroy releases the pass's GPU resources.
func (p *Pass) Destroy() {
	if p.vao != 0 {
		gl.DeleteVertexArrays(1, &p.vao)
		p.vao = 0
	}
	if p.vbo != 0 {
		gl.DeleteBuffers(1, &p.vbo)
		p.vbo = 0
	}
	if p.program != 0 {
		gl.DeleteProgram(p.program)
		p.program = 0
	}
}
