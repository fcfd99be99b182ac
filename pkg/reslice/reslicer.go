package reslice

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"movieslicer/internal/fsutil"
	"movieslicer/internal/models"
	"movieslicer/pkg/metrics"
	"movieslicer/pkg/tiffstack"
)

// DefaultWorkDir is the subfolder combined stacks are written to
const DefaultWorkDir = "resliced"

// Params holds the reslicing parameters
type Params struct {
	// Input is a directory holding *.tif stacks or a glob pattern
	Input string

	// OutputDir is the root every output is written below
	OutputDir string

	// Stride is the column step dx
	Stride int

	// Layout selects one file per slice or one combined stack per source
	Layout models.Layout

	// Order is the processing order of the inputs. Combined outputs are
	// numbered in this order.
	Order models.Order

	// WorkDir is the subfolder of OutputDir for combined stacks
	WorkDir string

	// Workers bounds the number of files processed concurrently
	Workers int
}

// Result describes the outputs written for one source stack
type Result struct {
	Source  string
	Outputs []string
	Pages   int
}

// Reslicer runs the reslicing batch
type Reslicer struct {
	params *Params
}

// NewReslicer creates a reslicer for the given parameters
func NewReslicer(params *Params) *Reslicer {
	return &Reslicer{params: params}
}

// SourceName returns the name of the per-source folder: the base name of
// path up to its first dot
func SourceName(path string) string {
	base := filepath.Base(path)
	if i := strings.Index(base, "."); i >= 0 {
		return base[:i]
	}
	return base
}

// SliceName returns the file name of slice i in the per-slice layout
func SliceName(i int) string {
	return fmt.Sprintf("slice_%d.tif", i)
}

// CombinedName returns the file name of the i-th combined stack
func CombinedName(i int) string {
	return fmt.Sprintf("resliced_%03d.tif", i)
}

func isStack(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".tif" || ext == ".tiff"
}

// Inputs lists the source stacks in processing order
func (r *Reslicer) Inputs() ([]string, error) {
	var files []string

	info, err := os.Stat(r.params.Input)
	if err == nil && info.IsDir() {
		entries, err := os.ReadDir(r.params.Input)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if !e.IsDir() && isStack(e.Name()) {
				files = append(files, filepath.Join(r.params.Input, e.Name()))
			}
		}
	} else {
		matches, err := filepath.Glob(r.params.Input)
		if err != nil {
			return nil, fmt.Errorf("invalid input pattern %q: %w", r.params.Input, err)
		}
		for _, m := range matches {
			if info, err := os.Stat(m); err == nil && !info.IsDir() {
				files = append(files, m)
			}
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no image stacks found for %q", r.params.Input)
	}

	sortInputs(files, r.params.Order)
	return files, nil
}

func sortInputs(files []string, order models.Order) {
	if order == models.Numeric {
		sort.SliceStable(files, func(i, j int) bool {
			numI := extractNumber(files[i])
			numJ := extractNumber(files[j])
			if numI != numJ {
				return numI < numJ
			}
			return files[i] < files[j]
		})
		return
	}
	sort.Strings(files)
}

// extractNumber extracts the numeric part from a filename
func extractNumber(filename string) int {
	base := filepath.Base(filename)
	var digits strings.Builder
	for _, c := range base {
		if c >= '0' && c <= '9' {
			digits.WriteRune(c)
		}
	}

	if digits.Len() > 0 {
		if num, err := strconv.Atoi(digits.String()); err == nil {
			return num
		}
	}
	return 0
}

// Process reslices every input. Files are independent and processed with up
// to Workers at a time; the first failure stops the batch.
func (r *Reslicer) Process(ctx context.Context) ([]Result, error) {
	if r.params.Stride < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidStride, r.params.Stride)
	}

	inputs, err := r.Inputs()
	if err != nil {
		return nil, err
	}

	workDir := r.params.WorkDir
	if workDir == "" {
		workDir = DefaultWorkDir
	}
	if r.params.Layout == models.Combined {
		if err := fsutil.EnsureDir(filepath.Join(r.params.OutputDir, workDir)); err != nil {
			return nil, err
		}
	}

	logger := log.With().Str("run", uuid.New().String()).Logger()
	logger.Info().
		Int("files", len(inputs)).
		Int("stride", r.params.Stride).
		Stringer("layout", r.params.Layout).
		Stringer("order", r.params.Order).
		Msg("reslicing stacks")

	workers := r.params.Workers
	if workers < 1 {
		workers = 1
	}

	results := make([]Result, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, src := range inputs {
		if gctx.Err() != nil {
			break
		}
		i, src := i, src
		g.Go(func() error {
			res, err := r.processFile(logger, src, i, workDir)
			if err != nil {
				return fmt.Errorf("failed to reslice %s: %w", src, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

func (r *Reslicer) processFile(logger zerolog.Logger, src string, index int, workDir string) (Result, error) {
	res := Result{Source: src}

	movie, err := tiffstack.ReadFile(src)
	if err != nil {
		return res, err
	}

	slices, err := Reslice(movie, r.params.Stride)
	if err != nil {
		return res, err
	}
	res.Pages = slices.Pages

	if slices.Pages == 0 {
		logger.Warn().
			Str("file", src).
			Int("width", movie.Width).
			Int("stride", r.params.Stride).
			Msg("stride exceeds width, nothing to write")
		return res, nil
	}

	switch r.params.Layout {
	case models.Combined:
		path := filepath.Join(r.params.OutputDir, workDir, CombinedName(index))
		if err := tiffstack.WriteFile(path, slices, nil); err != nil {
			return res, err
		}
		res.Outputs = append(res.Outputs, path)

	default:
		folder := filepath.Join(r.params.OutputDir, SourceName(src))
		if err := fsutil.EnsureDir(folder); err != nil {
			return res, err
		}
		for k := 0; k < slices.Pages; k++ {
			path := filepath.Join(folder, SliceName(k))
			if err := tiffstack.WritePage(path, slices, k); err != nil {
				return res, err
			}
			res.Outputs = append(res.Outputs, path)
		}
	}

	if e := logger.Debug(); e.Enabled() {
		sum := metrics.Summarize(slices)
		e.Str("file", src).
			Int("pages", slices.Pages).
			Int("rows", slices.Height).
			Int("cols", slices.Width).
			Float64("mean", sum.Mean).
			Float64("coverage", sum.Coverage).
			Msg("stack resliced")
	}

	return res, nil
}
