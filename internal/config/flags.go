package config

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
)

var (
	flagConfig  = flag.String("config", "", "Path to config file")
	flagDebug   = flag.Bool("debug", false, "Enable debug logging")
	flagSeed    = flag.Int64("seed", -1, "Noise seed (negative = from config)")
	flagBackend = flag.String("backend", "", "Noise backend: cpu, gather or gl")
	flagWorkers = flag.Int("workers", -1, "Worker goroutines (0 = GOMAXPROCS, negative = from config)")
	flagOut     = flag.String("out", "", "Output directory")
	flagWidth   = flag.Int("width", 0, "Height texture width")
	flagHeight  = flag.Int("height", 0, "Height texture height")
	flagLevels  = flag.String("levels", "", "Noise levels as start-end, e.g. 3-7")
)

// ParseFlags parses command-line flags from args, normally the arguments
// after the subcommand.
func ParseFlags(args []string) error {
	return flag.CommandLine.Parse(args)
}

// Args returns the arguments left after flag parsing.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) error {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagSeed >= 0 {
		cfg.Noise.Seed = uint64(*flagSeed)
	}
	if *flagBackend != "" {
		cfg.Noise.Backend = *flagBackend
	}
	if *flagWorkers >= 0 {
		cfg.Noise.Workers = *flagWorkers
		cfg.Mesh.Workers = *flagWorkers
	}
	if *flagOut != "" {
		cfg.Output.Dir = *flagOut
	}
	if *flagWidth > 0 {
		cfg.Noise.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Noise.Height = *flagHeight
	}
	if *flagLevels != "" {
		start, end, err := parseLevels(*flagLevels)
		if err != nil {
			return err
		}
		cfg.Noise.StartLevel, cfg.Noise.EndLevel = start, end
	}
	return nil
}

// parseLevels parses "start-end" or a single level.
func parseLevels(s string) (start, end int, err error) {
	lo, hi, found := strings.Cut(s, "-")
	if start, err = strconv.Atoi(strings.TrimSpace(lo)); err != nil {
		return 0, 0, fmt.Errorf("%w: levels %q", ErrInvalidConfig, s)
	}
	if !found {
		return start, start, nil
	}
	if end, err = strconv.Atoi(strings.TrimSpace(hi)); err != nil {
		return 0, 0, fmt.Errorf("%w: levels %q", ErrInvalidConfig, s)
	}
	return start, end, nil
}
