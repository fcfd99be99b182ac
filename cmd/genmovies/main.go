package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"movieslicer/internal/cli"
	"movieslicer/pkg/config"
	"movieslicer/pkg/synthesis"
)

// options holds the command line flags
type options struct {
	configPath     string
	writeConfig    string
	outputDir      string
	numMovies      int
	numFrames      int
	numOscillators int
	size           int
	seed           uint64
	full           bool
	workers        int
	verbose        bool
}

func newOptions(fs *flag.FlagSet) *options {
	o := &options{}
	fs.StringVar(&o.configPath, "config", "config.yaml", "YAML configuration file (defaults are used if it does not exist)")
	fs.StringVar(&o.writeConfig, "write-config", "", "Write the default configuration to this path and exit")
	fs.StringVar(&o.outputDir, "out", ".", "Directory the movies are written to")
	fs.IntVar(&o.numMovies, "movies", 100, "Number of movies to generate")
	fs.IntVar(&o.numFrames, "frames", 100, "Number of frames per movie")
	fs.IntVar(&o.numOscillators, "oscillators", 100, "Number of oscillating circles per movie")
	fs.IntVar(&o.size, "size", 256, "Frame width and height in pixels")
	fs.Uint64Var(&o.seed, "seed", 1, "Random seed")
	fs.BoolVar(&o.full, "full", false, "Draw full sinusoids instead of single circles")
	fs.IntVar(&o.workers, "workers", 0, "Number of movies generated in parallel (default: from config)")
	fs.BoolVar(&o.verbose, "v", false, "Verbose logging")
	return o
}

// apply copies the flags set on fs over the config file values
func (o *options) apply(cfg *config.Config, fs *flag.FlagSet) {
	set := cli.SetFlags(fs)
	if set["out"] {
		cfg.Synthesis.OutputDir = o.outputDir
	}
	if set["movies"] {
		cfg.Synthesis.NumMovies = o.numMovies
	}
	if set["frames"] {
		cfg.Synthesis.NumFrames = o.numFrames
	}
	if set["oscillators"] {
		cfg.Synthesis.NumOscillators = o.numOscillators
	}
	if set["size"] {
		cfg.Synthesis.Width = o.size
		cfg.Synthesis.Height = o.size
	}
	if set["seed"] {
		cfg.Synthesis.Seed = o.seed
	}
	if set["full"] {
		cfg.Synthesis.FullSinusoids = o.full
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

	cli.SetupLogging(os.Stderr, opts.verbose)

	if opts.writeConfig != "" {
		if err := config.CreateDefaultConfigFile(opts.writeConfig); err != nil {
			cli.Fatal(err, "failed to write config")
		}
		fmt.Printf("Default configuration written to: %s\n", opts.writeConfig)
		return
	}

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		cli.Fatal(err, "failed to load config")
	}

	// Command line flags override the config file
	opts.apply(cfg, flag.CommandLine)
	cli.SetupLogging(os.Stderr, cfg.Output.Verbose)

	if err := cfg.Validate(); err != nil {
		cli.Fatal(err, "invalid configuration")
	}

	params := &synthesis.Params{
		OutputDir:      cfg.Synthesis.OutputDir,
		NumMovies:      cfg.Synthesis.NumMovies,
		NumFrames:      cfg.Synthesis.NumFrames,
		NumOscillators: cfg.Synthesis.NumOscillators,
		Height:         cfg.Synthesis.Height,
		Width:          cfg.Synthesis.Width,
		FrequencyRange: cfg.Synthesis.FrequencyRange,
		AmplitudeRange: cfg.Synthesis.AmplitudeRange,
		FullSinusoids:  cfg.Synthesis.FullSinusoids,
		Seed:           cfg.Synthesis.Seed,
		Workers:        cfg.Processing.NumCores,
	}
	if cfg.Output.Progress {
		params.Progress = os.Stdout
	}

	startTime := time.Now()
	paths, err := synthesis.NewSynthesizer(params).Process(context.Background())
	if err != nil {
		cli.Fatal(err, "synthesis failed")
	}

	log.Info().
		Int("movies", len(paths)).
		Str("dir", params.OutputDir).
		Dur("elapsed", time.Since(startTime)).
		Msg("synthesis completed")
}
