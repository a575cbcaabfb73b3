// Package config handles thumbnailer configuration loading and management.
package config

import "fmt"

// Config holds all thumbnailer settings.
type Config struct {
	Render   RenderConfig   `yaml:"render"`
	Camera   CameraConfig   `yaml:"camera"`
	Material MaterialConfig `yaml:"material"`
	Logging  LoggingConfig  `yaml:"logging"`

	// STLPath is the input mesh file. ImgPath is the output image; empty
	// means encode to stdout. Both come from positional arguments, not YAML.
	STLPath string `yaml:"-"`
	ImgPath string `yaml:"-"`
}

// RenderConfig holds offscreen target and post-process settings.
type RenderConfig struct {
	Width      int        `yaml:"width"`
	Height     int        `yaml:"height"`
	Background [4]float32 `yaml:"background"` // RGBA, alpha 0 gives transparent thumbnails

	// Supersample renders at an integer multiple of the output size and
	// downsamples on the CPU. 1 disables it.
	Supersample int `yaml:"supersample"`

	// Visible shows a preview window after rendering and blocks until it
	// is closed. Thumbnail output is identical either way.
	Visible bool `yaml:"visible"`
}

// CameraConfig holds the fixed camera. The camera always looks at the
// origin with +Z up; the mesh is normalized into its view volume.
type CameraConfig struct {
	Eye    [3]float32 `yaml:"eye"`
	FovDeg float32    `yaml:"fov_deg"`
	Near   float32    `yaml:"near"`
	Far    float32    `yaml:"far"`
}

// MaterialConfig holds lighting colors and the directional light.
type MaterialConfig struct {
	Ambient  [3]float32 `yaml:"ambient"`
	Diffuse  [3]float32 `yaml:"diffuse"`
	Specular [3]float32 `yaml:"specular"`
	LightDir [3]float32 `yaml:"light_dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with the stock thumbnail look.
func Default() *Config {
	return &Config{
		Render: RenderConfig{
			Width:       1024,
			Height:      768,
			Background:  [4]float32{1.0, 1.0, 1.0, 0.0},
			Supersample: 1,
			Visible:     false,
		},
		Camera: CameraConfig{
			Eye:    [3]float32{2.0, -4.0, 2.0},
			FovDeg: 30.0,
			Near:   0.1,
			Far:    1024.0,
		},
		Material: MaterialConfig{
			Ambient:  [3]float32{0.0, 0.0, 0.4},
			Diffuse:  [3]float32{0.0, 0.5, 1.0},
			Specular: [3]float32{1.0, 1.0, 1.0},
			LightDir: [3]float32{-1.1, 0.4, 1.0},
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks settings that would break the render targets.
func (c *Config) Validate() error {
	if c.Render.Width < 1 || c.Render.Height < 1 {
		return fmt.Errorf("output size %dx%d: dimensions must be positive", c.Render.Width, c.Render.Height)
	}
	if c.Render.Supersample < 1 {
		return fmt.Errorf("supersample factor %d: must be at least 1", c.Render.Supersample)
	}
	if c.STLPath == "" {
		return fmt.Errorf("no input STL file given")
	}
	return nil
}
