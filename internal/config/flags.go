package config

import "flag"

var (
	flagConfig      = flag.String("config", "", "Path to config file")
	flagWidth       = flag.Int("width", 0, "Output image width in pixels")
	flagHeight      = flag.Int("height", 0, "Output image height in pixels")
	flagSupersample = flag.Int("supersample", 0, "Render at N times the output size and downsample")
	flagVisible     = flag.Bool("visible", false, "Show a preview window until closed")
	flagDebug       = flag.Bool("debug", false, "Enable debug logging")
	flagLogFile     = flag.String("log-file", "", "Write logs to this file")
)

// ParseFlags parses command-line flags. Call this early in main().
// Usage: stlthumb [flags] <input.stl> [output image]
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via -config.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag and positional-argument overrides to the config.
func applyFlags(cfg *Config) {
	if *flagWidth > 0 {
		cfg.Render.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Render.Height = *flagHeight
	}
	if *flagSupersample > 0 {
		cfg.Render.Supersample = *flagSupersample
	}
	if *flagVisible {
		cfg.Render.Visible = true
	}
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}

	if flag.NArg() > 0 {
		cfg.STLPath = flag.Arg(0)
	}
	if flag.NArg() > 1 {
		cfg.ImgPath = flag.Arg(1)
	}
}
