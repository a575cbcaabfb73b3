// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// ModelVertexShader is the vertex shader for lit mesh rendering.
//
//go:embed model.vert
var ModelVertexShader string

// ModelFragmentShader is the fragment shader for lit mesh rendering.
//
//go:embed model.frag
var ModelFragmentShader string

// FxaaVertexShader is the vertex shader for the full-screen antialias pass.
//
//go:embed fxaa.vert
var FxaaVertexShader string

// FxaaFragmentShader is the fragment shader for the full-screen antialias pass.
//
//go:embed fxaa.frag
var FxaaFragmentShader string
