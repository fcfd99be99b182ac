package tiffstack

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"golang.org/x/image/tiff"

	"movieslicer/internal/models"
)

var enc = binary.LittleEndian

// Options are the encoding parameters
type Options struct {
	// ImageJ replaces the stack description with an ImageJ hyperstack
	// description on the first page
	ImageJ bool
}

type ifdEntry struct {
	tag      uint16
	datatype uint16
	count    uint32
	value    uint32
}

// layout holds the byte offsets of every part of the file, fixed before
// anything is written
type layout struct {
	desc       []byte
	descOffset uint32
	pageBytes  int
	data       []uint32
	ifd        []uint32
	size       int64
}

func align(n int64) int64 {
	return n + n&1
}

func entryCount(page int, desc []byte) int {
	n := 11
	if page == 0 && len(desc) > 0 {
		n++
	}
	return n
}

func plan(s *models.Stack, desc string) (*layout, error) {
	l := &layout{
		pageBytes: s.Height * s.Width * s.BitsPerSample / 8,
		data:      make([]uint32, s.Pages),
		ifd:       make([]uint32, s.Pages),
	}
	if desc != "" {
		l.desc = append([]byte(desc), 0)
	}

	off := int64(8)
	l.descOffset = uint32(off)
	off = align(off + int64(len(l.desc)))
	for p := 0; p < s.Pages; p++ {
		l.data[p] = uint32(off)
		off = align(off + int64(l.pageBytes))
		l.ifd[p] = uint32(off)
		off += int64(2 + entryCount(p, l.desc)*ifdLen + 4)
		if off > math.MaxUint32 {
			return nil, errors.New("tiffstack: stack too large for a classic TIFF file")
		}
	}
	l.size = off
	return l, nil
}

func (l *layout) entries(s *models.Stack, page int) []ifdEntry {
	sampleFormat := uint32(sfUnsigned)
	if s.Signed {
		sampleFormat = sfSigned
	}
	entries := []ifdEntry{
		{tNewSubfileType, dtLong, 1, 0},
		{tImageWidth, dtLong, 1, uint32(s.Width)},
		{tImageLength, dtLong, 1, uint32(s.Height)},
		{tBitsPerSample, dtShort, 1, uint32(s.BitsPerSample)},
		{tCompression, dtShort, 1, cNone},
		{tPhotometric, dtShort, 1, pBlackIsZero},
	}
	if page == 0 && len(l.desc) > 0 {
		entries = append(entries, ifdEntry{tImageDescription, dtASCII, uint32(len(l.desc)), l.descOffset})
	}
	return append(entries,
		ifdEntry{tStripOffsets, dtLong, 1, l.data[page]},
		ifdEntry{tSamplesPerPixel, dtShort, 1, 1},
		ifdEntry{tRowsPerStrip, dtLong, 1, uint32(s.Height)},
		ifdEntry{tStripByteCounts, dtLong, 1, uint32(l.pageBytes)},
		ifdEntry{tSampleFormat, dtShort, 1, sampleFormat},
	)
}

// countingWriter tracks the file offset so padding can be derived from it
type countingWriter struct {
	w   *bufio.Writer
	n   int64
	buf [ifdLen]byte
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

func (cw *countingWriter) pad(to int64) error {
	for cw.n < to {
		if err := cw.w.WriteByte(0); err != nil {
			return err
		}
		cw.n++
	}
	return nil
}

func (cw *countingWriter) writeIFD(entries []ifdEntry, next uint32) error {
	var n [2]byte
	enc.PutUint16(n[:], uint16(len(entries)))
	if _, err := cw.Write(n[:]); err != nil {
		return err
	}
	for _, e := range entries {
		b := cw.buf[:]
		enc.PutUint16(b[0:2], e.tag)
		enc.PutUint16(b[2:4], e.datatype)
		enc.PutUint32(b[4:8], e.count)
		// inline values are left justified
		clear(b[8:12])
		if e.datatype == dtShort && e.count == 1 {
			enc.PutUint16(b[8:10], uint16(e.value))
		} else {
			enc.PutUint32(b[8:12], e.value)
		}
		if _, err := cw.Write(b); err != nil {
			return err
		}
	}
	var tail [4]byte
	enc.PutUint32(tail[:], next)
	_, err := cw.Write(tail[:])
	return err
}

func (cw *countingWriter) writePage(s *models.Stack, page int) error {
	pix := s.Page(page)
	if s.BitsPerSample == 8 {
		row := make([]byte, s.Width)
		for r := 0; r < s.Height; r++ {
			for c := 0; c < s.Width; c++ {
				row[c] = uint8(pix[r*s.Width+c])
			}
			if _, err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	}

	row := make([]byte, 2*s.Width)
	for r := 0; r < s.Height; r++ {
		for c := 0; c < s.Width; c++ {
			enc.PutUint16(row[2*c:], pix[r*s.Width+c])
		}
		if _, err := cw.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Encode writes the stack to w as a little-endian multi-page TIFF with one
// uncompressed strip and one IFD per page.
func Encode(w io.Writer, s *models.Stack, opts *Options) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("tiffstack: %w", err)
	}
	if s.Pages == 0 || s.Height == 0 || s.Width == 0 {
		return errors.New("tiffstack: cannot encode an empty stack")
	}

	desc := s.Description
	if opts != nil && opts.ImageJ {
		desc = ImageJDescription(s)
	}

	l, err := plan(s, desc)
	if err != nil {
		return err
	}

	cw := &countingWriter{w: bufio.NewWriter(w)}
	header := []byte(leHeader + "\x00\x00\x00\x00")
	enc.PutUint32(header[4:], l.ifd[0])
	if _, err := cw.Write(header); err != nil {
		return err
	}
	if _, err := cw.Write(l.desc); err != nil {
		return err
	}

	for p := 0; p < s.Pages; p++ {
		if err := cw.pad(int64(l.data[p])); err != nil {
			return err
		}
		if err := cw.writePage(s, p); err != nil {
			return err
		}
		if err := cw.pad(int64(l.ifd[p])); err != nil {
			return err
		}
		var next uint32
		if p+1 < s.Pages {
			next = l.ifd[p+1]
		}
		if err := cw.writeIFD(l.entries(s, p), next); err != nil {
			return err
		}
	}

	if cw.n != l.size {
		return fmt.Errorf("tiffstack: wrote %d bytes, planned %d", cw.n, l.size)
	}
	return cw.w.Flush()
}

// WriteFile encodes the stack into the named file
func WriteFile(path string, s *models.Stack, opts *Options) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := Encode(file, s, opts); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return file.Close()
}

// WritePage saves a single page as its own TIFF file. Unsigned pages go
// through the baseline encoder of golang.org/x/image/tiff; signed samples
// need the SampleFormat tag, which that encoder never writes.
func WritePage(path string, s *models.Stack, page int) error {
	if page < 0 || page >= s.Pages {
		return fmt.Errorf("page %d out of range [0, %d)", page, s.Pages)
	}

	if s.Signed {
		single := &models.Stack{
			Data:          s.Page(page),
			Pages:         1,
			Height:        s.Height,
			Width:         s.Width,
			BitsPerSample: s.BitsPerSample,
			Signed:        true,
		}
		return WriteFile(path, single, nil)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := tiff.Encode(file, s.PageImage(page), &tiff.Options{Compression: tiff.Uncompressed}); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return file.Close()
}
