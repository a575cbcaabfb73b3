// Package encode writes the final thumbnail image to disk or stdout.
package encode

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
)

// Write encodes img to path, choosing the format by file extension:
// ".webp" for WebP, anything else for PNG. An empty path writes PNG to
// stdout so the thumbnailer can be used in a pipe.
func Write(img image.Image, path string) error {
	if path == "" {
		return encodePNG(os.Stdout, img)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".webp":
		if err := nativewebp.Encode(f, img, nil); err != nil {
			return fmt.Errorf("encoding WebP: %w", err)
		}
	default:
		if err := encodePNG(f, img); err != nil {
			return err
		}
	}

	return f.Close()
}

func encodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encoding PNG: %w", err)
	}
	return nil
}
