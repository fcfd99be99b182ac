package tiffstack

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"movieslicer/internal/models"
)

// page describes one image file directory
type page struct {
	width, height int
	bitsPerSample int
	sampleFormat  int
	compression   int
	photometric   int
	samples       int
	planar        int
	subfileType   int
	tiled         bool
	description   string
	stripOffsets  []uint32
	stripCounts   []uint32
}

type decoder struct {
	buf []byte
	bo  binary.ByteOrder
}

// entry returns the raw value bytes of the IFD entry starting at p
func (d *decoder) entry(p []byte) (datatype uint16, count uint32, raw []byte, err error) {
	datatype = d.bo.Uint16(p[2:4])
	count = d.bo.Uint32(p[4:8])
	size, ok := lengths[datatype]
	if !ok {
		// unknown types are skipped by the caller
		return datatype, count, nil, nil
	}
	n := int64(count) * int64(size)
	if n <= 4 {
		return datatype, count, p[8 : 8+n], nil
	}
	off := int64(d.bo.Uint32(p[8:12]))
	if off+n > int64(len(d.buf)) {
		return 0, 0, nil, FormatError("IFD entry points past the end of the file")
	}
	return datatype, count, d.buf[off : off+n], nil
}

func (d *decoder) uints(p []byte) ([]uint32, error) {
	datatype, count, raw, err := d.entry(p)
	if err != nil {
		return nil, err
	}
	if datatype != dtByte && datatype != dtShort && datatype != dtLong {
		return nil, UnsupportedError(fmt.Sprintf("data type %d for tag %d", datatype, d.bo.Uint16(p[0:2])))
	}
	vals := make([]uint32, count)
	switch datatype {
	case dtByte:
		for i := range vals {
			vals[i] = uint32(raw[i])
		}
	case dtShort:
		for i := range vals {
			vals[i] = uint32(d.bo.Uint16(raw[2*i:]))
		}
	case dtLong:
		for i := range vals {
			vals[i] = d.bo.Uint32(raw[4*i:])
		}
	}
	return vals, nil
}

func (d *decoder) first(p []byte) (int, error) {
	vals, err := d.uints(p)
	if err != nil {
		return 0, err
	}
	if len(vals) == 0 {
		return 0, FormatError("empty IFD value")
	}
	return int(vals[0]), nil
}

// parseIFD reads the directory at off and returns it with the offset of the
// next directory
func (d *decoder) parseIFD(off int64) (*page, int64, error) {
	if off+2 > int64(len(d.buf)) {
		return nil, 0, FormatError("IFD offset past the end of the file")
	}
	n := int64(d.bo.Uint16(d.buf[off : off+2]))
	end := off + 2 + n*ifdLen
	if end+4 > int64(len(d.buf)) {
		return nil, 0, FormatError("IFD entries past the end of the file")
	}

	pg := &page{
		compression:  cNone,
		photometric:  pBlackIsZero,
		samples:      1,
		planar:       1,
		sampleFormat: sfUnsigned,
	}
	for i := int64(0); i < n; i++ {
		p := d.buf[off+2+i*ifdLen : off+2+(i+1)*ifdLen]
		var err error
		switch d.bo.Uint16(p[0:2]) {
		case tNewSubfileType:
			pg.subfileType, err = d.first(p)
		case tImageWidth:
			pg.width, err = d.first(p)
		case tImageLength:
			pg.height, err = d.first(p)
		case tBitsPerSample:
			var bps []uint32
			bps, err = d.uints(p)
			if err == nil && len(bps) > 0 {
				pg.bitsPerSample = int(bps[0])
			}
		case tCompression:
			pg.compression, err = d.first(p)
		case tPhotometric:
			pg.photometric, err = d.first(p)
		case tSamplesPerPixel:
			pg.samples, err = d.first(p)
		case tPlanarConfig:
			pg.planar, err = d.first(p)
		case tTileWidth:
			pg.tiled = true
		case tSampleFormat:
			pg.sampleFormat, err = d.first(p)
		case tStripOffsets:
			pg.stripOffsets, err = d.uints(p)
		case tStripByteCounts:
			pg.stripCounts, err = d.uints(p)
		case tImageDescription:
			var raw []byte
			_, _, raw, err = d.entry(p)
			pg.description = strings.TrimRight(string(raw), "\x00")
		}
		if err != nil {
			return nil, 0, err
		}
	}
	return pg, int64(d.bo.Uint32(d.buf[end : end+4])), nil
}

// packed reports whether the pixel data of pg is compressed or tiled
func (pg *page) packed() bool {
	return pg.compression != cNone || pg.tiled
}

// check validates pg against a file of size bytes
func (pg *page) check(size int) error {
	if pg.width <= 0 || pg.height <= 0 {
		return FormatError("missing image dimensions")
	}
	if pg.width > maxDimension || pg.height > maxDimension {
		return FormatError(fmt.Sprintf("image dimensions %dx%d out of range", pg.width, pg.height))
	}
	if pg.samples != 1 {
		return UnsupportedError(fmt.Sprintf("%d samples per pixel", pg.samples))
	}
	if pg.bitsPerSample != 8 && pg.bitsPerSample != 16 {
		return UnsupportedError(fmt.Sprintf("%d bits per sample", pg.bitsPerSample))
	}
	if pg.sampleFormat != sfUnsigned && pg.sampleFormat != sfSigned {
		return UnsupportedError(fmt.Sprintf("sample format %d", pg.sampleFormat))
	}
	if pg.photometric != pBlackIsZero && pg.photometric != pWhiteIsZero {
		return UnsupportedError(fmt.Sprintf("photometric interpretation %d", pg.photometric))
	}
	if pg.packed() {
		if pg.bytes() > int64(size)*maxExpansion {
			return FormatError(fmt.Sprintf("%dx%d page cannot be packed into the file", pg.width, pg.height))
		}
		return nil
	}
	if len(pg.stripOffsets) == 0 || len(pg.stripOffsets) != len(pg.stripCounts) {
		return FormatError("inconsistent strip offsets and byte counts")
	}
	if pg.bytes() > int64(size) {
		return FormatError(fmt.Sprintf("%dx%d page larger than the file", pg.width, pg.height))
	}
	return nil
}

func (pg *page) bytes() int64 {
	return int64(pg.width) * int64(pg.height) * int64(pg.bitsPerSample) / 8
}

// contiguous reports whether the strips of pg follow each other without gaps
func (pg *page) contiguous() bool {
	for i := 1; i < len(pg.stripOffsets); i++ {
		if pg.stripOffsets[i] != pg.stripOffsets[i-1]+pg.stripCounts[i-1] {
			return false
		}
	}
	return true
}

// pixels gathers the strips of pg
func (d *decoder) pixels(pg *page) ([]byte, error) {
	want := int(pg.bytes())
	out := make([]byte, 0, want)
	for i, off := range pg.stripOffsets {
		end := int64(off) + int64(pg.stripCounts[i])
		if end > int64(len(d.buf)) {
			return nil, FormatError("strip past the end of the file")
		}
		out = append(out, d.buf[off:end]...)
	}
	if len(out) < want {
		return nil, FormatError(fmt.Sprintf("page holds %d bytes, want %d", len(out), want))
	}
	return out[:want], nil
}

func (d *decoder) samples(dst []uint16, raw []byte, bits int) {
	if bits == 8 {
		for i := range dst {
			dst[i] = uint16(raw[i])
		}
		return
	}
	for i := range dst {
		dst[i] = d.bo.Uint16(raw[2*i:])
	}
}

// Decode reads a multi-page TIFF stack. All pages must share the shape and
// sample encoding of the first one; reduced-resolution pages are skipped.
// ImageJ files that store a single IFD followed by contiguous page data are
// expanded to the number of images named in their description.
func Decode(r io.Reader) (*models.Stack, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return decode(buf)
}

func decode(buf []byte) (*models.Stack, error) {
	if len(buf) < 8 {
		return nil, FormatError("header too short")
	}
	d := &decoder{buf: buf}
	switch string(buf[0:4]) {
	case leHeader:
		d.bo = binary.LittleEndian
	case beHeader:
		d.bo = binary.BigEndian
	default:
		if string(buf[0:2]) == "II" || string(buf[0:2]) == "MM" {
			return nil, UnsupportedError("BigTIFF")
		}
		return nil, FormatError("malformed header")
	}

	var all, pages []*page
	packed := false
	seen := make(map[int64]bool)
	for off := int64(d.bo.Uint32(buf[4:8])); off != 0; {
		if seen[off] {
			return nil, FormatError("IFD chain loops")
		}
		seen[off] = true

		pg, next, err := d.parseIFD(off)
		if err != nil {
			return nil, err
		}
		off = next
		all = append(all, pg)
		if pg.subfileType&1 != 0 {
			continue
		}
		if err := pg.check(len(buf)); err != nil {
			return nil, err
		}
		packed = packed || pg.packed()
		pages = append(pages, pg)
	}
	if len(pages) == 0 {
		return nil, FormatError("no image directories")
	}

	head := pages[0]
	if packed {
		return d.decodeBlocks(all, head)
	}
	s := &models.Stack{
		Height:        head.height,
		Width:         head.width,
		BitsPerSample: head.bitsPerSample,
		Signed:        head.sampleFormat == sfSigned,
		Description:   head.description,
	}

	size := head.width * head.height
	if n := imageCount(head.description); len(pages) == 1 && n > 1 && head.contiguous() {
		start := int64(head.stripOffsets[0])
		if start > int64(len(buf)) || int64(n) > (int64(len(buf))-start)/head.bytes() {
			return nil, FormatError(fmt.Sprintf("ImageJ data for %d images past the end of the file", n))
		}
		end := start + int64(n)*head.bytes()
		s.Pages = n
		s.Data = make([]uint16, n*size)
		d.samples(s.Data, buf[start:end], head.bitsPerSample)
	} else {
		s.Pages = len(pages)
		s.Data = make([]uint16, len(pages)*size)
		for i, pg := range pages {
			if pg.width != head.width || pg.height != head.height ||
				pg.bitsPerSample != head.bitsPerSample || pg.sampleFormat != head.sampleFormat {
				return nil, FormatError(fmt.Sprintf("page %d differs in shape or sample format from page 0", i))
			}
			raw, err := d.pixels(pg)
			if err != nil {
				return nil, fmt.Errorf("page %d: %w", i, err)
			}
			d.samples(s.Data[i*size:(i+1)*size], raw, pg.bitsPerSample)
		}
	}

	if head.photometric == pWhiteIsZero {
		invert(s)
	}
	return s, nil
}

// invert maps WhiteIsZero samples onto the BlackIsZero scale
func invert(s *models.Stack) {
	maxVal := uint16(int(1)<<s.BitsPerSample - 1)
	for i, v := range s.Data {
		s.Data[i] = maxVal - v
	}
}

// ReadFile decodes the named stack file
func ReadFile(path string) (*models.Stack, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	s, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return s, nil
}
