// torusgen generates seamless torus meshes and height textures.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	_ "github.com/griffinteller/torus-terrain/internal/accel/glcompute"
	"github.com/griffinteller/torus-terrain/internal/config"
	"github.com/griffinteller/torus-terrain/internal/logger"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	var cmd func(*config.Config, []string) error
	switch command {
	case "mesh":
		cmd = cmdMesh
	case "terrain":
		cmd = cmdTerrain
	case "noise":
		cmd = cmdNoise
	case "shader":
		cmd = cmdShader
	case "info":
		cmd = cmdInfo
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err := run(command, cmd, os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(name string, cmd func(*config.Config, []string) error, args []string) error {
	if err := config.ParseFlags(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile, name); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Sync()

	logger.Debug("config loaded",
		zap.Float64("aspect_ratio", cfg.Shape.AspectRatio),
		zap.String("backend", cfg.Noise.Backend),
		zap.Uint64("seed", cfg.Noise.Seed))

	if err := cmd(cfg, config.Args()); err != nil {
		logger.Error("command failed", zap.Error(err))
		return err
	}
	return nil
}

func printUsage() {
	fmt.Println(`torusgen - seamless torus mesh and terrain generator

Usage:
  torusgen <command> [options] [args]

Commands:
  mesh                Write a closed torus mesh (OBJ)
  terrain             Write a displaced torus split into quad meshes (OBJ per quad)
  noise               Write a seamless height texture (THF or TIFF)
  shader              Write the gather kernel as WGSL and SPIR-V
  info [file.thf]     Show the tessellation plan, or describe a height file

Options:
  -config <path>      Config file (default ./config.yaml or the user config dir)
  -debug              Enable debug logging
  -seed <n>           Noise seed
  -backend <name>     Noise backend: cpu, gather or gl
  -workers <n>        Worker goroutines (0 = all CPUs)
  -out <dir>          Output directory
  -width, -height     Height texture size
  -levels <a-b>       Noise levels, e.g. 3-7

Examples:
  torusgen mesh -out build
  torusgen noise -seed 7 -width 1024 -height 512 -levels 3-8
  torusgen terrain -backend gl
  torusgen info build/torus.thf`)
}
