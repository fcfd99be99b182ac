// Package synthesis generates synthetic movies of circles that oscillate
// along randomized sinusoids.
package synthesis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"

	"movieslicer/internal/fsutil"
	"movieslicer/internal/models"
	"movieslicer/pkg/metrics"
	"movieslicer/pkg/tiffstack"
)

// Params holds the synthesis parameters
type Params struct {
	// OutputDir is the directory the movie files are written to
	OutputDir string

	// NumMovies is the number of movies generated per run
	NumMovies int

	// NumFrames is the number of frames of every movie
	NumFrames int

	// NumOscillators is the number of moving circles per movie
	NumOscillators int

	// Height and Width are the frame dimensions in pixels
	Height int
	Width  int

	// FrequencyRange and AmplitudeRange bound the uniform draws of the
	// oscillator parameters
	FrequencyRange models.Range
	AmplitudeRange models.Range

	// FullSinusoids draws every oscillator as a full sampled curve
	FullSinusoids bool

	// Seed makes a run reproducible. Movie i draws from a source seeded with
	// a SplitMix64 mix of Seed and i, so every movie can be regenerated on its
	// own and runs with neighbouring seeds share no movies.
	Seed uint64

	// Workers bounds the number of movies generated concurrently
	Workers int

	// Progress receives one line per movie, in movie order: one mark per
	// frame, ':' on every 10th frame and '-' otherwise, then the movie index.
	// Nil discards the marks.
	Progress io.Writer
}

// Validate checks the parameters for values that cannot produce a movie
func (p *Params) Validate() error {
	switch {
	case p.NumMovies < 0:
		return fmt.Errorf("number of movies must be non-negative, got %d", p.NumMovies)
	case p.NumFrames <= 0:
		return fmt.Errorf("number of frames must be positive, got %d", p.NumFrames)
	case p.NumOscillators < 0:
		return fmt.Errorf("number of oscillators must be non-negative, got %d", p.NumOscillators)
	case p.Height <= 0 || p.Width <= 0:
		return fmt.Errorf("frame size must be positive, got %dx%d", p.Width, p.Height)
	case p.FrequencyRange.Min > p.FrequencyRange.Max:
		return errors.New("frequency range is inverted")
	case p.AmplitudeRange.Min > p.AmplitudeRange.Max:
		return errors.New("amplitude range is inverted")
	}
	return nil
}

// progress writes the mark lines of concurrent movies. A finished line is
// held back until every movie before it has been written.
type progress struct {
	mu      sync.Mutex
	w       io.Writer
	next    int
	pending map[int]string
}

func frameMark(t int) byte {
	if t%10 == 0 {
		return ':'
	}
	return '-'
}

func (p *progress) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.next = 0
	p.pending = make(map[int]string)
}

// done queues the marks of movie index and flushes every line that is due
func (p *progress) done(index int, marks string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending[index] = fmt.Sprintf("%s - %03d\n", marks, index)
	for {
		line, ok := p.pending[p.next]
		if !ok {
			return
		}
		io.WriteString(p.w, line)
		delete(p.pending, p.next)
		p.next++
	}
}

// Synthesizer generates batches of oscillating-circle movies
type Synthesizer struct {
	params   *Params
	renderer *Renderer
	progress *progress
}

// NewSynthesizer creates a synthesizer for the given parameters
func NewSynthesizer(params *Params) *Synthesizer {
	w := params.Progress
	if w == nil {
		w = io.Discard
	}
	return &Synthesizer{
		params:   params,
		renderer: NewRenderer(params.Height, params.Width, params.FullSinusoids),
		progress: &progress{w: w, pending: make(map[int]string)},
	}
}

// MovieName returns the file name of movie index
func MovieName(index int) string {
	return fmt.Sprintf("movie_%03d.tif", index)
}

// splitMix64 is one step of the SplitMix64 generator
func splitMix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ z>>30) * 0xbf58476d1ce4e5b9
	z = (z ^ z>>27) * 0x94d049bb133111eb
	return z ^ z>>31
}

// movieSeed derives the source seed of movie index from the run seed
func movieSeed(seed uint64, index int) uint64 {
	return splitMix64(splitMix64(seed) + uint64(index))
}

// Oscillators returns the oscillators of movie index. The draw is
// deterministic for a given seed.
func (s *Synthesizer) Oscillators(index int) []models.Oscillator {
	src := rand.NewSource(movieSeed(s.params.Seed, index))
	return SampleOscillators(s.params.NumOscillators, s.params.Height, s.params.Width,
		s.params.FrequencyRange, s.params.AmplitudeRange, src)
}

// GenerateMovie renders all frames of movie index into a stack
func (s *Synthesizer) GenerateMovie(index int) (*models.Stack, error) {
	oscs := s.Oscillators(index)

	movie := models.NewStack(s.params.NumFrames, s.params.Height, s.params.Width)
	marks := make([]byte, 0, s.params.NumFrames)
	for t := 0; t < s.params.NumFrames; t++ {
		frame := s.renderer.RenderFrame(oscs, t)
		if err := movie.SetFrame(t, frame); err != nil {
			return nil, fmt.Errorf("frame %d: %w", t, err)
		}
		marks = append(marks, frameMark(t))
	}
	s.progress.done(index, string(marks))

	return movie, nil
}

// Process generates all movies and writes each to OutputDir as an ImageJ
// time series. It returns the written paths in movie order.
func (s *Synthesizer) Process(ctx context.Context) ([]string, error) {
	if err := s.params.Validate(); err != nil {
		return nil, err
	}
	if err := fsutil.EnsureDir(s.params.OutputDir); err != nil {
		return nil, err
	}

	s.progress.reset()

	logger := log.With().Str("run", uuid.New().String()).Logger()
	logger.Info().
		Int("movies", s.params.NumMovies).
		Int("frames", s.params.NumFrames).
		Int("oscillators", s.params.NumOscillators).
		Int("width", s.params.Width).
		Int("height", s.params.Height).
		Bool("full", s.params.FullSinusoids).
		Uint64("seed", s.params.Seed).
		Msg("generating movies")

	workers := s.params.Workers
	if workers < 1 {
		workers = 1
	}

	paths := make([]string, s.params.NumMovies)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < s.params.NumMovies; i++ {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			movie, err := s.GenerateMovie(i)
			if err != nil {
				return fmt.Errorf("failed to generate movie %d: %w", i, err)
			}

			path := filepath.Join(s.params.OutputDir, MovieName(i))
			if err := tiffstack.WriteFile(path, movie, &tiffstack.Options{ImageJ: true}); err != nil {
				return fmt.Errorf("failed to write movie %d: %w", i, err)
			}
			paths[i] = path

			if e := logger.Debug(); e.Enabled() {
				sum := metrics.Summarize(movie)
				e.Str("file", path).
					Float64("coverage", sum.Coverage).
					Float64("entropy", sum.Entropy).
					Msg("movie written")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return paths, nil
}
