package tiffstack

import (
	"bytes"
	"fmt"
	"image"

	"github.com/chai2010/tiff"

	"movieslicer/internal/models"
)

// decodeBlocks decodes a stack with compressed or tiled pages. all lists
// every directory of the file in order, head is the first full-resolution
// page. The pixels come back already mapped onto the BlackIsZero scale.
func (d *decoder) decodeBlocks(all []*page, head *page) (s *models.Stack, err error) {
	defer func() {
		if r := recover(); r != nil {
			s, err = nil, FormatError(fmt.Sprintf("corrupt page data: %v", r))
		}
	}()

	imgs, _, err := tiff.DecodeAll(bytes.NewReader(d.buf))
	if err != nil {
		return nil, FormatError(err.Error())
	}
	if len(imgs) != len(all) {
		return nil, FormatError(fmt.Sprintf("found %d images in %d directories", len(imgs), len(all)))
	}

	s = &models.Stack{
		Height:        head.height,
		Width:         head.width,
		BitsPerSample: head.bitsPerSample,
		Signed:        head.sampleFormat == sfSigned,
		Description:   head.description,
	}
	size := head.width * head.height
	for i, pg := range all {
		if pg.subfileType&1 != 0 {
			continue
		}
		if pg.width != head.width || pg.height != head.height ||
			pg.bitsPerSample != head.bitsPerSample || pg.sampleFormat != head.sampleFormat {
			return nil, FormatError(fmt.Sprintf("page %d differs in shape or sample format from page 0", s.Pages))
		}
		if len(imgs[i]) == 0 {
			return nil, FormatError(fmt.Sprintf("page %d has no image", s.Pages))
		}

		s.Data = append(s.Data, make([]uint16, size)...)
		if err := grayInto(s.Data[s.Pages*size:], head.width, imgs[i][0]); err != nil {
			return nil, fmt.Errorf("page %d: %w", s.Pages, err)
		}
		s.Pages++
	}
	return s, nil
}

// grayInto copies the samples of a grayscale image into dst, row by row
func grayInto(dst []uint16, width int, m image.Image) error {
	b := m.Bounds()
	if b.Dx()*b.Dy() != len(dst) || b.Dx() != width {
		return FormatError(fmt.Sprintf("decoded image is %dx%d", b.Dx(), b.Dy()))
	}

	switch img := m.(type) {
	case *image.Gray:
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				dst[y*width+x] = uint16(img.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			}
		}
	case *image.Gray16:
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				dst[y*width+x] = img.Gray16At(b.Min.X+x, b.Min.Y+y).Y
			}
		}
	default:
		return UnsupportedError(fmt.Sprintf("decoded %T page", m))
	}
	return nil
}
