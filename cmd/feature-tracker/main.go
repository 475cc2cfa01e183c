package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/ironsheep/feature-tracker/internal/config"
	"github.com/ironsheep/feature-tracker/internal/feature"
	"github.com/ironsheep/feature-tracker/internal/logger"
	"github.com/ironsheep/feature-tracker/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// defaultLimit is the keypoint cap applied by -limit when no explicit cap is set.
const defaultLimit = 50

func main() {
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cmd := "run"
	args := os.Args[1:]
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}

	var err error
	switch cmd {
	case "run":
		err = runCommand(args, os.Stdout)
	case "sweep":
		err = sweepCommand(args, os.Stdout)
	case "serve":
		err = serveCommand(args)
	case "version", "--version", "-v":
		printVersion(os.Stdout)
		return
	case "help", "--help", "-h":
		printUsage(os.Stdout)
		return
	default:
		printUsage(os.Stderr)
		os.Exit(2)
	}

	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Printf("feature-tracker %s: %v", cmd, err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps error categories to distinct process exit codes.
func exitCode(err error) int {
	switch {
	case errors.Is(err, feature.ErrUnsupportedStrategy):
		return 3
	case errors.Is(err, feature.ErrIncompatibleDescriptor):
		return 4
	case errors.Is(err, feature.ErrInvalidInput):
		return 2
	default:
		return 1
	}
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "feature-tracker %s\n", Version)
	fmt.Fprintf(w, "  Build time: %s\n", BuildTime)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "feature-tracker - sliding-window keypoint tracking over image sequences")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: feature-tracker <command> [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  run       Track keypoints through the configured sequence (default)")
	fmt.Fprintln(w, "  sweep     Run every detector/descriptor combination and compare them")
	fmt.Fprintln(w, "  serve     Expose the tracker as MCP tools over stdin/stdout")
	fmt.Fprintln(w, "  version   Print version information")
	fmt.Fprintln(w, "  help      Print this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'feature-tracker <command> -h' for the options of a command.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables (also read from .env):")
	fmt.Fprintln(w, "  TRACKER_DETECTOR, TRACKER_DESCRIPTOR, TRACKER_METRIC, TRACKER_SELECTOR,")
	fmt.Fprintln(w, "  TRACKER_RATIO, TRACKER_BUFFER, TRACKER_ROI, TRACKER_KEYPOINT_CAP,")
	fmt.Fprintln(w, "  TRACKER_VISUALIZE, TRACKER_IMAGE_DIR, TRACKER_IMAGE_PREFIX, TRACKER_IMAGE_EXT,")
	fmt.Fprintln(w, "  TRACKER_START, TRACKER_END, TRACKER_FILL_WIDTH, TRACKER_OUTPUT_DIR,")
	fmt.Fprintln(w, "  TRACKER_LOG_LEVEL=debug|info|warning|error")
}

func serveCommand(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	envFile := fs.String("env", ".env", "optional .env file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		return err
	}
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("%w: %v", feature.ErrInvalidInput, err)
	}

	// stdout carries the protocol, so logs stay on stderr
	l := logger.New(os.Stderr, level)
	l.Info("feature-tracker MCP server %s (built %s, commit %s)", Version, BuildTime, GitCommit)

	return server.New(l, Version).Run()
}
