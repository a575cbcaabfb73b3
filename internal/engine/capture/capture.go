// Package capture converts GL pixel readbacks into CPU-side images.
//
// OpenGL reads pixels with a bottom-left origin while image formats expect
// top-left, so the rows are flipped explicitly here. Keeping the flip as a
// tested conversion step avoids the usual silent origin-convention bugs.
package capture

import (
	"errors"
	"fmt"
	"image"
)

// ErrReadback indicates the pixel buffer does not match the expected
// RGBA8 width*height contract.
var ErrReadback = errors.New("pixel readback mismatch")

// FlipVertical returns a copy of pixels with rows in reverse order,
// converting between bottom-left and top-left origin conventions.
func FlipVertical(pixels []byte, width, height int) ([]byte, error) {
	if len(pixels) != width*height*4 {
		return nil, fmt.Errorf("%w: got %d bytes, want %d (%dx%d RGBA)",
			ErrReadback, len(pixels), width*height*4, width, height)
	}

	flipped := make([]byte, len(pixels))
	rowSize := width * 4
	for y := 0; y < height; y++ {
		src := (height - 1 - y) * rowSize
		dst := y * rowSize
		copy(flipped[dst:dst+rowSize], pixels[src:src+rowSize])
	}
	return flipped, nil
}

// Image wraps a bottom-left-origin RGBA8 readback as a top-left-origin
// image, flipping rows during the copy.
func Image(pixels []byte, width, height int) (*image.NRGBA, error) {
	if len(pixels) != width*height*4 {
		return nil, fmt.Errorf("%w: got %d bytes, want %d (%dx%d RGBA)",
			ErrReadback, len(pixels), width*height*4, width, height)
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	rowSize := width * 4
	for y := 0; y < height; y++ {
		src := (height - 1 - y) * rowSize
		dst := y * img.Stride
		copy(img.Pix[dst:dst+rowSize], pixels[src:src+rowSize])
	}
	return img, nil
}
