package reslice

import (
	"bytes"
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"

	"movieslicer/internal/models"
	"movieslicer/pkg/tiffstack"
)

// movie builds a (T, Y, X) stack whose samples encode their coordinates
func movie(frames, height, width int) *models.Stack {
	s := models.NewStack(frames, height, width)
	for t := 0; t < frames; t++ {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				s.Set(t, y, x, uint16(100*t+10*y+x))
			}
		}
	}
	return s
}

func TestReslice(t *testing.T) {
	in := movie(4, 3, 5)

	out, err := Reslice(in, 1)
	require.NoError(t, err)

	assert.Equal(t, 5, out.Pages)
	assert.Equal(t, 4, out.Height)
	assert.Equal(t, 3, out.Width)
	require.NoError(t, out.Validate())

	for x := 0; x < in.Width; x++ {
		for ti := 0; ti < in.Pages; ti++ {
			for y := 0; y < in.Height; y++ {
				assert.Equal(t, in.At(ti, y, x), out.At(x, ti, y))
			}
		}
	}
}

func TestReslice_Stride(t *testing.T) {
	type test struct {
		width   int
		dx      int
		columns []int
	}

	tests := map[string]test{
		"divides":      {width: 10, dx: 2, columns: []int{0, 2, 4, 6, 8}},
		"remainder":    {width: 10, dx: 3, columns: []int{0, 3, 6}},
		"whole-width":  {width: 10, dx: 10, columns: []int{0}},
		"beyond-width": {width: 10, dx: 11, columns: nil},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			in := movie(3, 2, tt.width)

			out, err := Reslice(in, tt.dx)
			require.NoError(t, err)
			require.Equal(t, len(tt.columns), out.Pages)

			for k, x := range tt.columns {
				for ti := 0; ti < in.Pages; ti++ {
					for y := 0; y < in.Height; y++ {
						assert.Equal(t, in.At(ti, y, x), out.At(k, ti, y))
					}
				}
			}
		})
	}
}

func TestReslice_KeepsEncoding(t *testing.T) {
	in := movie(2, 2, 2)
	in.BitsPerSample = 8
	in.Signed = true

	out, err := Reslice(in, 1)
	require.NoError(t, err)
	assert.Equal(t, 8, out.BitsPerSample)
	assert.True(t, out.Signed)
}

func TestReslice_InvalidStride(t *testing.T) {
	for _, dx := range []int{0, -1} {
		_, err := Reslice(movie(1, 1, 4), dx)
		assert.True(t, errors.Is(err, ErrInvalidStride))
	}
}

func TestNames(t *testing.T) {
	assert.Equal(t, "movie_001", SourceName("/data/movie_001.tif"))
	assert.Equal(t, "stack", SourceName("stack.ome.tif"))
	assert.Equal(t, "plain", SourceName("plain"))
	assert.Equal(t, "slice_12.tif", SliceName(12))
	assert.Equal(t, "resliced_004.tif", CombinedName(4))
}

func writeMovies(t *testing.T, dir string, names ...string) map[string]*models.Stack {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))

	movies := make(map[string]*models.Stack)
	for i, name := range names {
		m := movie(3, 4, 6+i)
		require.NoError(t, tiffstack.WriteFile(filepath.Join(dir, name), m, &tiffstack.Options{ImageJ: true}))
		movies[name] = m
	}
	return movies
}

func TestProcess_PerSlice(t *testing.T) {
	in := filepath.Join(t.TempDir(), "in")
	out := t.TempDir()
	movies := writeMovies(t, in, "movie_000.tif", "movie_001.tif")

	r := NewReslicer(&Params{
		Input:     in,
		OutputDir: out,
		Stride:    2,
		Layout:    models.PerSlice,
		Workers:   2,
	})
	results, err := r.Process(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)

	for _, res := range results {
		name := filepath.Base(res.Source)
		m := movies[name]
		require.Equal(t, m.Width/2, res.Pages)
		require.Len(t, res.Outputs, res.Pages)

		for k, path := range res.Outputs {
			assert.Equal(t, filepath.Join(out, SourceName(name), SliceName(k)), path)

			slice, err := tiffstack.ReadFile(path)
			require.NoError(t, err)
			require.Equal(t, 1, slice.Pages)
			assert.Equal(t, m.Pages, slice.Height)
			assert.Equal(t, m.Height, slice.Width)
			for ti := 0; ti < m.Pages; ti++ {
				for y := 0; y < m.Height; y++ {
					assert.Equal(t, m.At(ti, y, 2*k), slice.At(0, ti, y))
				}
			}
		}
	}
}

func TestProcess_Combined(t *testing.T) {
	in := filepath.Join(t.TempDir(), "in")
	out := t.TempDir()
	movies := writeMovies(t, in, "movie_10.tif", "movie_9.tif", "movie_2.tif")

	r := NewReslicer(&Params{
		Input:     filepath.Join(in, "*.tif"),
		OutputDir: out,
		Stride:    1,
		Layout:    models.Combined,
		Order:     models.Numeric,
		Workers:   1,
	})
	results, err := r.Process(context.Background())
	require.NoError(t, err)

	order := []string{"movie_2.tif", "movie_9.tif", "movie_10.tif"}
	require.Len(t, results, len(order))
	for i, res := range results {
		assert.Equal(t, order[i], filepath.Base(res.Source))
		require.Equal(t, []string{filepath.Join(out, DefaultWorkDir, CombinedName(i))}, res.Outputs)

		got, err := tiffstack.ReadFile(res.Outputs[0])
		require.NoError(t, err)

		want, err := Reslice(movies[order[i]], 1)
		require.NoError(t, err)
		assert.Equal(t, want.Pages, got.Pages)
		assert.Equal(t, want.Data, got.Data)
	}
}

func TestProcess_ExistingOutputDirs(t *testing.T) {
	in := filepath.Join(t.TempDir(), "in")
	out := t.TempDir()
	writeMovies(t, in, "movie_000.tif")
	require.NoError(t, os.MkdirAll(filepath.Join(out, "movie_000"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(out, "custom"), 0755))

	for _, layout := range []models.Layout{models.PerSlice, models.Combined} {
		r := NewReslicer(&Params{Input: in, OutputDir: out, Stride: 1, Layout: layout, WorkDir: "custom"})
		results, err := r.Process(context.Background())
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.NotEmpty(t, results[0].Outputs)
	}
	assert.FileExists(t, filepath.Join(out, "custom", CombinedName(0)))
}

func TestProcess_StrideBeyondWidth(t *testing.T) {
	in := filepath.Join(t.TempDir(), "in")
	writeMovies(t, in, "movie_000.tif")

	r := NewReslicer(&Params{Input: in, OutputDir: t.TempDir(), Stride: 50, Layout: models.Combined})
	results, err := r.Process(context.Background())
	require.NoError(t, err)
	assert.Zero(t, results[0].Pages)
	assert.Empty(t, results[0].Outputs)
}

func TestProcess_DebugSummary(t *testing.T) {
	in := filepath.Join(t.TempDir(), "in")
	writeMovies(t, in, "movie_000.tif", "movie_001.tif")

	var out bytes.Buffer
	defer func(l zerolog.Logger, lvl zerolog.Level) {
		log.Logger = l
		zerolog.SetGlobalLevel(lvl)
	}(log.Logger, zerolog.GlobalLevel())
	log.Logger = zerolog.New(&out)

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	_, err := NewReslicer(&Params{Input: in, OutputDir: t.TempDir(), Stride: 1}).Process(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, out.String(), "stack resliced")

	out.Reset()
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	_, err = NewReslicer(&Params{Input: in, OutputDir: t.TempDir(), Stride: 1}).Process(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out.String(), "stack resliced"))
	assert.Contains(t, out.String(), `"mean":`)
}

func TestProcess_CompressedInput(t *testing.T) {
	in := t.TempDir()
	src := image.NewGray(image.Rect(0, 0, 6, 4))
	for i := range src.Pix {
		src.Pix[i] = uint8(i)
	}
	file, err := os.Create(filepath.Join(in, "plane.tif"))
	require.NoError(t, err)
	require.NoError(t, tiff.Encode(file, src, &tiff.Options{Compression: tiff.Deflate}))
	require.NoError(t, file.Close())

	out := t.TempDir()
	results, err := NewReslicer(&Params{Input: in, OutputDir: out, Stride: 3, Layout: models.Combined}).Process(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 2, results[0].Pages)

	got, err := tiffstack.ReadFile(results[0].Outputs[0])
	require.NoError(t, err)
	// page k is column 3k of the single frame, one row per source row
	for k := 0; k < 2; k++ {
		for y := 0; y < 4; y++ {
			assert.Equal(t, uint16(y*6+3*k), got.At(k, 0, y))
		}
	}
}

func TestProcess_Errors(t *testing.T) {
	in := filepath.Join(t.TempDir(), "in")
	writeMovies(t, in, "movie_000.tif")

	_, err := NewReslicer(&Params{Input: in, OutputDir: t.TempDir(), Stride: 0}).Process(context.Background())
	assert.ErrorIs(t, err, ErrInvalidStride)

	_, err = NewReslicer(&Params{Input: filepath.Join(t.TempDir(), "*.tif"), Stride: 1}).Process(context.Background())
	assert.Error(t, err)

	// a corrupt stack aborts the whole batch
	require.NoError(t, os.WriteFile(filepath.Join(in, "movie_001.tif"), []byte("broken"), 0644))
	_, err = NewReslicer(&Params{Input: in, OutputDir: t.TempDir(), Stride: 1}).Process(context.Background())
	var fe tiffstack.FormatError
	assert.ErrorAs(t, err, &fe)
}

func TestInputs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b_2.tif", "a_10.TIFF", "c_1.tif", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.tif"), 0755))

	files, err := NewReslicer(&Params{Input: dir}).Inputs()
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a_10.TIFF"),
		filepath.Join(dir, "b_2.tif"),
		filepath.Join(dir, "c_1.tif"),
	}, files)

	files, err = NewReslicer(&Params{Input: dir, Order: models.Numeric}).Inputs()
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "c_1.tif"),
		filepath.Join(dir, "b_2.tif"),
		filepath.Join(dir, "a_10.TIFF"),
	}, files)

	files, err = NewReslicer(&Params{Input: filepath.Join(dir, "*_1*")}).Inputs()
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a_10.TIFF"),
		filepath.Join(dir, "c_1.tif"),
	}, files)

	_, err = NewReslicer(&Params{Input: "[bad"}).Inputs()
	assert.Error(t, err)
}
