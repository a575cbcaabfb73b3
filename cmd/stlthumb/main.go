// Package main is the entry point for the stlthumb thumbnail generator.
package main

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/stlthumb/internal/config"
	"github.com/Faultbox/stlthumb/internal/encode"
	"github.com/Faultbox/stlthumb/internal/engine/render"
	"github.com/Faultbox/stlthumb/internal/logger"
	"github.com/Faultbox/stlthumb/internal/thumbnail"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Usage: stlthumb [flags] <input.stl> [output image]\nError: %v\n", err)
		os.Exit(2)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.LogFile)
	defer logger.Sync()

	img, err := thumbnail.RenderFile(cfg)
	if err != nil {
		// Environment problems (no GPU, shader failure) are not input problems
		if errors.Is(err, render.ErrGraphicsInit) {
			logger.Error("graphics environment unusable", zap.Error(err))
		} else {
			logger.Error("rendering failed", zap.Error(err))
		}
		os.Exit(1)
	}

	if err := encode.Write(img, cfg.ImgPath); err != nil {
		logger.Error("writing output image", zap.Error(err))
		os.Exit(1)
	}

	out := cfg.ImgPath
	if out == "" {
		out = "(stdout)"
	}
	logger.Info("thumbnail written",
		zap.String("output", out),
		zap.Int("width", cfg.Render.Width),
		zap.Int("height", cfg.Render.Height),
	)
}
