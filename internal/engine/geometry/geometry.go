// Package geometry computes mesh bounds and the model transform that fits a
// mesh into the fixed camera's view volume.
package geometry

import (
	"github.com/Faultbox/stlthumb/pkg/math"
	"github.com/Faultbox/stlthumb/pkg/stl"
)

// TargetExtent is the normalized size the largest bounding-box dimension is
// scaled to. The fixed camera frames a volume of roughly this extent around
// the origin.
const TargetExtent = 2.0

// BoundingBox is an axis-aligned box around a mesh.
type BoundingBox struct {
	Min, Max math.Vec3
}

// Center returns the box midpoint.
func (b BoundingBox) Center() math.Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// MaxDimension returns the largest edge length of the box.
func (b BoundingBox) MaxDimension() float32 {
	d := b.Max.Sub(b.Min)
	max := d.X
	if d.Y > max {
		max = d.Y
	}
	if d.Z > max {
		max = d.Z
	}
	return max
}

// Bounds computes the bounding box of a mesh in a single pass over its
// vertices. An empty mesh yields the zero box.
func Bounds(mesh *stl.Mesh) BoundingBox {
	var b BoundingBox
	if len(mesh.Vertices) == 0 {
		return b
	}

	b.Min = math.Vec3{X: mesh.Vertices[0], Y: mesh.Vertices[1], Z: mesh.Vertices[2]}
	b.Max = b.Min

	for i := 3; i+2 < len(mesh.Vertices); i += 3 {
		x, y, z := mesh.Vertices[i], mesh.Vertices[i+1], mesh.Vertices[i+2]
		if x < b.Min.X {
			b.Min.X = x
		}
		if x > b.Max.X {
			b.Max.X = x
		}
		if y < b.Min.Y {
			b.Min.Y = y
		}
		if y > b.Max.Y {
			b.Max.Y = y
		}
		if z < b.Min.Z {
			b.Min.Z = z
		}
		if z > b.Max.Z {
			b.Max.Z = z
		}
	}
	return b
}

// FitTransform returns the model matrix that centers the box on the origin
// and uniformly scales its largest dimension to extent. A degenerate box
// (zero extent on every axis) keeps scale 1 so a point mesh still renders.
func FitTransform(b BoundingBox, extent float32) math.Mat4 {
	scale := float32(1.0)
	if dim := b.MaxDimension(); dim > 0 {
		scale = extent / dim
	}

	c := b.Center()
	return math.Scale(scale, scale, scale).Mul(math.Translate(-c.X, -c.Y, -c.Z))
}

// Normalize is the convenience form used by the pipeline: bounds plus the
// fit transform at the default extent.
func Normalize(mesh *stl.Mesh) (BoundingBox, math.Mat4) {
	b := Bounds(mesh)
	return b, FitTransform(b, TargetExtent)
}
