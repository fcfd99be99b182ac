// Package reslice reorders (time, y, x) image stacks into per-column
// (x, time, y) slices and writes them back to disk.
package reslice

import (
	"errors"
	"fmt"

	"movieslicer/internal/models"
)

// ErrInvalidStride is returned for a column stride below 1
var ErrInvalidStride = errors.New("reslice: stride must be at least 1")

// Reslice moves the column axis of s to the page position. Page k of the
// result holds column k*dx of every input page, one input page per row:
//
//	out[k][t][y] = s[t][y][k*dx]
//
// The result has s.Width/dx pages; trailing columns that do not fill a whole
// stride are dropped.
func Reslice(s *models.Stack, dx int) (*models.Stack, error) {
	if dx < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidStride, dx)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	pages := s.Width / dx
	out := &models.Stack{
		Data:          make([]uint16, pages*s.Pages*s.Height),
		Pages:         pages,
		Height:        s.Pages,
		Width:         s.Height,
		BitsPerSample: s.BitsPerSample,
		Signed:        s.Signed,
	}

	i := 0
	for k := 0; k < pages; k++ {
		x := k * dx
		for t := 0; t < s.Pages; t++ {
			for y := 0; y < s.Height; y++ {
				out.Data[i] = s.At(t, y, x)
				i++
			}
		}
	}

	return out, nil
}
