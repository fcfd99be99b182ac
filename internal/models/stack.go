package models

import (
	"fmt"
	"image"
	"image/color"
)

// Frame is a single 2-D grid of intensities, one time sample of a movie
type Frame struct {
	// Pix holds the intensities in row-major order
	Pix []uint16

	// Width and Height are the dimensions of the frame in pixels
	Width  int
	Height int
}

// NewFrame creates a zeroed frame of the given size
func NewFrame(height, width int) *Frame {
	return &Frame{
		Pix:    make([]uint16, height*width),
		Width:  width,
		Height: height,
	}
}

// In reports whether (row, col) lies inside the frame
func (f *Frame) In(row, col int) bool {
	return row >= 0 && row < f.Height && col >= 0 && col < f.Width
}

// At returns the intensity at (row, col), or 0 outside the frame
func (f *Frame) At(row, col int) uint16 {
	if !f.In(row, col) {
		return 0
	}
	return f.Pix[row*f.Width+col]
}

// Set writes value at (row, col). Writes outside the frame are dropped and
// reported as false.
func (f *Frame) Set(row, col int, value uint16) bool {
	if !f.In(row, col) {
		return false
	}
	f.Pix[row*f.Width+col] = value
	return true
}

// Stack is a dense 3-D array of same-shaped pages. A synthesized movie is a
// stack whose pages are time samples; a resliced stack has one page per
// sampled column.
type Stack struct {
	// Data is the stack data as a 1D array in page, row, column order
	Data []uint16

	// Pages is the number of pages (the outermost axis)
	Pages int

	// Height is the number of rows in each page
	Height int

	// Width is the number of columns in each page
	Width int

	// BitsPerSample is the stored sample size, 8 or 16
	BitsPerSample int

	// Signed marks two's complement samples. Data keeps the raw bits.
	Signed bool

	// Description is the free-form image description carried by the file
	Description string
}

// NewStack allocates a zeroed 16-bit unsigned stack
func NewStack(pages, height, width int) *Stack {
	return &Stack{
		Data:          make([]uint16, pages*height*width),
		Pages:         pages,
		Height:        height,
		Width:         width,
		BitsPerSample: 16,
	}
}

// Index returns the position of (page, row, col) in Data
func (s *Stack) Index(page, row, col int) int {
	return (page*s.Height+row)*s.Width + col
}

// At returns the sample at (page, row, col)
func (s *Stack) At(page, row, col int) uint16 {
	return s.Data[s.Index(page, row, col)]
}

// Set writes the sample at (page, row, col)
func (s *Stack) Set(page, row, col int, value uint16) {
	s.Data[s.Index(page, row, col)] = value
}

// Page returns the samples of one page. The returned slice aliases Data.
func (s *Stack) Page(page int) []uint16 {
	size := s.Height * s.Width
	return s.Data[page*size : (page+1)*size]
}

// SetFrame copies a frame into the given page
func (s *Stack) SetFrame(page int, f *Frame) error {
	if page < 0 || page >= s.Pages {
		return fmt.Errorf("page %d out of range [0, %d)", page, s.Pages)
	}
	if f.Width != s.Width || f.Height != s.Height {
		return fmt.Errorf("frame is %dx%d, stack pages are %dx%d", f.Width, f.Height, s.Width, s.Height)
	}
	copy(s.Page(page), f.Pix)
	return nil
}

// Frame returns a copy of one page as a frame
func (s *Stack) Frame(page int) *Frame {
	f := NewFrame(s.Height, s.Width)
	copy(f.Pix, s.Page(page))
	return f
}

// Validate checks that the dimensions agree with the data length and that
// the sample encoding is one we can store
func (s *Stack) Validate() error {
	if s.Pages < 0 || s.Height < 0 || s.Width < 0 {
		return fmt.Errorf("negative stack dimensions %dx%dx%d", s.Pages, s.Height, s.Width)
	}
	if len(s.Data) != s.Pages*s.Height*s.Width {
		return fmt.Errorf("stack data has %d samples, want %d", len(s.Data), s.Pages*s.Height*s.Width)
	}
	if s.BitsPerSample != 8 && s.BitsPerSample != 16 {
		return fmt.Errorf("unsupported bits per sample %d", s.BitsPerSample)
	}
	return nil
}

// PageImage converts one page to a grayscale image
func (s *Stack) PageImage(page int) image.Image {
	rect := image.Rect(0, 0, s.Width, s.Height)
	pix := s.Page(page)

	if s.BitsPerSample == 8 {
		img := image.NewGray(rect)
		for y := 0; y < s.Height; y++ {
			for x := 0; x < s.Width; x++ {
				img.SetGray(x, y, color.Gray{Y: uint8(pix[y*s.Width+x])})
			}
		}
		return img
	}

	img := image.NewGray16(rect)
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			img.SetGray16(x, y, color.Gray16{Y: pix[y*s.Width+x]})
		}
	}
	return img
}
