package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"movieslicer/internal/cli"
	"movieslicer/internal/models"
	"movieslicer/pkg/config"
	"movieslicer/pkg/reslice"
)

// options holds the command line flags
type options struct {
	configPath string
	input      string
	outputDir  string
	stride     int
	layout     string
	order      string
	workDir    string
	workers    int
	verbose    bool
}

func newOptions(fs *flag.FlagSet) *options {
	o := &options{}
	fs.StringVar(&o.configPath, "config", "config.yaml", "YAML configuration file (defaults are used if it does not exist)")
	fs.StringVar(&o.input, "input", "*.tif", "Directory of image stacks or a glob pattern")
	fs.StringVar(&o.outputDir, "out", ".", "Root directory for the resliced output")
	fs.IntVar(&o.stride, "dx", 1, "Column stride")
	fs.StringVar(&o.layout, "layout", "slices", "Output layout: slices (one file per column) or combined")
	fs.StringVar(&o.order, "order", "lexical", "Processing order: lexical or numeric")
	fs.StringVar(&o.workDir, "work-dir", reslice.DefaultWorkDir, "Subfolder for combined stacks")
	fs.IntVar(&o.workers, "workers", 0, "Number of files processed in parallel (default: from config)")
	fs.BoolVar(&o.verbose, "v", false, "Verbose logging")
	return o
}

// apply copies the flags set on fs over the config file values
func (o *options) apply(cfg *config.Config, fs *flag.FlagSet) {
	set := cli.SetFlags(fs)
	if set["input"] {
		cfg.Reslice.Input = o.input
	}
	if set["out"] {
		cfg.Reslice.OutputDir = o.outputDir
	}
	if set["dx"] {
		cfg.Reslice.Stride = o.stride
	}
	if set["layout"] {
		cfg.Reslice.Layout = o.layout
	}
	if set["order"] {
		cfg.Reslice.Order = o.order
	}
	if set["work-dir"] {
		cfg.Reslice.WorkDir = o.workDir
	}
	if set["workers"] {
		cfg.Processing.NumCores = o.workers
	}
	if set["v"] {
		cfg.Output.Verbose = o.verbose
	}
}

func main() {
	// Parse command line arguments
	opts := newOptions(flag.CommandLine)
	flag.Parse()

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		cli.SetupLogging(os.Stderr, opts.verbose)
		cli.Fatal(err, "failed to load config")
	}

	// Command line flags override the config file
	opts.apply(cfg, flag.CommandLine)
	cli.SetupLogging(os.Stderr, cfg.Output.Verbose)

	if err := cfg.Validate(); err != nil {
		cli.Fatal(err, "invalid configuration")
	}

	// Validate already accepted both names
	outLayout, _ := models.ParseLayout(cfg.Reslice.Layout)
	outOrder, _ := models.ParseOrder(cfg.Reslice.Order)

	params := &reslice.Params{
		Input:     cfg.Reslice.Input,
		OutputDir: cfg.Reslice.OutputDir,
		Stride:    cfg.Reslice.Stride,
		Layout:    outLayout,
		Order:     outOrder,
		WorkDir:   cfg.Reslice.WorkDir,
		Workers:   cfg.Processing.NumCores,
	}

	startTime := time.Now()
	results, err := reslice.NewReslicer(params).Process(context.Background())
	if err != nil {
		cli.Fatal(err, "reslicing failed")
	}

	written := 0
	for _, res := range results {
		written += len(res.Outputs)
		fmt.Printf("%s: %d slices\n", res.Source, res.Pages)
	}

	log.Info().
		Int("sources", len(results)).
		Int("files", written).
		Stringer("layout", params.Layout).
		Dur("elapsed", time.Since(startTime)).
		Msg("reslicing completed")
}
