package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ironsheep/feature-tracker/internal/config"
	"github.com/ironsheep/feature-tracker/internal/description"
	"github.com/ironsheep/feature-tracker/internal/detection"
	"github.com/ironsheep/feature-tracker/internal/feature"
	"github.com/ironsheep/feature-tracker/internal/logger"
	"github.com/ironsheep/feature-tracker/internal/report"
	"github.com/ironsheep/feature-tracker/internal/tracking"
	"github.com/ironsheep/feature-tracker/internal/visual"
)

// options are the command-line settings shared by run and sweep. Every
// flag defaults to the value loaded from the environment.
type options struct {
	cfg   *config.Config
	roi   string
	limit bool
	plot  string
	log   *logger.Logger
}

// parseOptions loads the environment configuration and applies the flags
// on top of it.
func parseOptions(name string, args []string, stderr io.Writer) (*options, error) {
	envFile := ".env"
	for i, a := range args {
		switch {
		case (a == "-env" || a == "--env") && i+1 < len(args):
			envFile = args[i+1]
		case strings.HasPrefix(a, "-env="), strings.HasPrefix(a, "--env="):
			envFile = a[strings.Index(a, "=")+1:]
		}
	}
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}

	roi := "none"
	if cfg.ROI != nil {
		roi = cfg.ROI.String()
	}
	o := &options{cfg: cfg}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.String("env", envFile, "optional .env file")
	fs.StringVar(&cfg.Detector, "detector", cfg.Detector, "detector strategy")
	fs.StringVar(&cfg.Descriptor, "descriptor", cfg.Descriptor, "descriptor strategy")
	fs.StringVar(&cfg.Metric, "metric", cfg.Metric, "binary or float (derived from the descriptor when empty)")
	fs.StringVar(&cfg.Selector, "selector", cfg.Selector, "nn or knn-ratio")
	fs.Float64Var(&cfg.Ratio, "ratio", cfg.Ratio, "knn-ratio distance threshold")
	fs.IntVar(&cfg.Buffer, "buffer", cfg.Buffer, "frame buffer capacity")
	fs.StringVar(&o.roi, "roi", roi, "region of interest x,y,w,h or none")
	fs.IntVar(&cfg.KeypointCap, "cap", cfg.KeypointCap, "keep only the N strongest keypoints (0 = all)")
	fs.BoolVar(&o.limit, "limit", false, fmt.Sprintf("cap keypoints at %d unless -cap is set", defaultLimit))
	fs.BoolVar(&cfg.Visualize, "visualize", cfg.Visualize, "render and show each matched pair")
	fs.StringVar(&cfg.ImageDir, "dir", cfg.ImageDir, "image directory")
	fs.StringVar(&cfg.ImagePrefix, "prefix", cfg.ImagePrefix, "image file prefix")
	fs.StringVar(&cfg.ImageExt, "ext", cfg.ImageExt, "image file extension")
	fs.IntVar(&cfg.Start, "start", cfg.Start, "first image index")
	fs.IntVar(&cfg.End, "end", cfg.End, "last image index (inclusive)")
	fs.IntVar(&cfg.FillWidth, "fill", cfg.FillWidth, "zero padding width of the index")
	fs.StringVar(&cfg.OutputDir, "out", cfg.OutputDir, "output directory for renderings and charts")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warning or error")
	fs.StringVar(&o.plot, "plot", "", "write a keypoint/match chart to this file (.png, .svg, .pdf)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.ROI, err = config.ParseROI(o.roi); err != nil {
		return nil, err
	}
	if o.limit && cfg.KeypointCap == 0 {
		cfg.KeypointCap = defaultLimit
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level, _ := logger.ParseLevel(cfg.LogLevel)
	o.log = logger.New(stderr, level)
	return o, nil
}

func runCommand(args []string, stdout io.Writer) error {
	o, err := parseOptions("run", args, os.Stderr)
	if err != nil {
		return err
	}
	cfg := o.cfg

	opts := []tracking.Option{tracking.WithLogger(o.log)}
	if cfg.Visualize {
		if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", cfg.OutputDir, err)
		}
		opts = append(opts, tracking.WithVisualizer(visual.NewSink(cfg.OutputDir)))
	}

	p, err := tracking.New(cfg.Pipeline(), opts...)
	if err != nil {
		return err
	}
	o.log.Info("tracking %s/%s over frames %d..%d in %s (roi %s, cap %d)",
		p.Detector(), p.Descriptor(), cfg.Start, cfg.End, cfg.ImageDir, o.roi, cfg.KeypointCap)

	summary, err := p.Run(cfg.Sequence())
	if err != nil {
		return err
	}
	if len(summary.Frames) == 0 {
		return fmt.Errorf("%w: no frame of %s could be processed", feature.ErrEmptyInput, cfg.ImageDir)
	}

	frames, keypoints, matches := summary.Totals()
	o.log.Info("processed %d frames: %d keypoints, %d matches, %d skipped, %d pair errors",
		frames, keypoints, matches, len(summary.Skipped), summary.PairErrors)

	if err := report.WriteTable(stdout, []report.Row{report.RowFromSummary(summary)}); err != nil {
		return err
	}
	return writePlot(o, []*tracking.Summary{summary})
}

// sweepCommand runs every detector against every descriptor on the same
// sequence. Combinations that cannot be configured are listed as failed
// rather than aborting the sweep.
func sweepCommand(args []string, stdout io.Writer) error {
	o, err := parseOptions("sweep", args, os.Stderr)
	if err != nil {
		return err
	}
	base := o.cfg.Pipeline()
	// the metric follows each descriptor
	base.Metric = ""

	var (
		rows      []report.Row
		summaries []*tracking.Summary
	)
	for _, det := range detection.Names() {
		for _, desc := range description.Names() {
			cfg := base
			cfg.Detector, cfg.Descriptor = det, desc

			p, err := tracking.New(cfg, tracking.WithLogger(o.log))
			if err != nil {
				o.log.Warning("skipping %s/%s: %v", det, desc, err)
				rows = append(rows, report.Row{Detector: det, Descriptor: desc, Failed: err.Error()})
				continue
			}

			summary, err := p.Run(o.cfg.Sequence())
			if err != nil {
				if !errors.Is(err, feature.ErrUnsupportedStrategy) {
					return err
				}
				rows = append(rows, report.Row{Detector: det, Descriptor: desc, Failed: err.Error()})
				continue
			}
			rows = append(rows, report.RowFromSummary(summary))
			summaries = append(summaries, summary)
		}
	}

	if err := report.WriteTable(stdout, rows); err != nil {
		return err
	}
	return writePlot(o, summaries)
}

func writePlot(o *options, summaries []*tracking.Summary) error {
	if o.plot == "" {
		return nil
	}
	path := o.plot
	if !filepath.IsAbs(path) && filepath.Dir(path) == "." {
		if err := os.MkdirAll(o.cfg.OutputDir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", o.cfg.OutputDir, err)
		}
		path = filepath.Join(o.cfg.OutputDir, path)
	}
	if err := report.SavePlot(summaries, path); err != nil {
		return err
	}
	o.log.Info("chart written to %s", path)
	return nil
}
