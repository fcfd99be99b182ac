// Package tiffstack reads and writes multi-page grayscale TIFF files, the
// on-disk format shared by the movie synthesizer and the reslicer.
//
// Only the subset needed for dense numeric stacks is supported: one sample per
// pixel, 8 or 16 bits, unsigned or signed integers. Uncompressed strips are
// read directly; compressed and tiled pages are decoded with
// github.com/chai2010/tiff. Files written here carry one IFD per page,
// uncompressed, and, on request, an ImageJ hyperstack description on the
// first page so common microscopy viewers open them as a time series.
package tiffstack

// A FormatError reports that the input is not a valid TIFF image.
type FormatError string

func (e FormatError) Error() string {
	return "tiffstack: invalid format: " + string(e)
}

// An UnsupportedError reports that the input uses a valid but unimplemented
// feature.
type UnsupportedError string

func (e UnsupportedError) Error() string {
	return "tiffstack: unsupported feature: " + string(e)
}

const (
	leHeader = "II\x2A\x00"
	beHeader = "MM\x00\x2A"

	ifdLen = 12

	// maxDimension bounds the width and height of a page
	maxDimension = 1 << 20

	// maxExpansion bounds the ratio of decoded to packed bytes. LZW codes
	// are at least 9 bits and expand to at most 4096 bytes.
	maxExpansion = 4096
)

// Field types
const (
	dtByte     = 1
	dtASCII    = 2
	dtShort    = 3
	dtLong     = 4
	dtRational = 5
	dtSByte    = 6
	dtUndef    = 7
	dtSShort   = 8
	dtSLong    = 9
	dtSRat     = 10
	dtFloat    = 11
	dtDouble   = 12
)

var lengths = map[uint16]int{
	dtByte:     1,
	dtASCII:    1,
	dtShort:    2,
	dtLong:     4,
	dtRational: 8,
	dtSByte:    1,
	dtUndef:    1,
	dtSShort:   2,
	dtSLong:    4,
	dtSRat:     8,
	dtFloat:    4,
	dtDouble:   8,
}

// Tags
const (
	tNewSubfileType   = 254
	tImageWidth       = 256
	tImageLength      = 257
	tBitsPerSample    = 258
	tCompression      = 259
	tPhotometric      = 262
	tImageDescription = 270
	tStripOffsets     = 273
	tSamplesPerPixel  = 277
	tRowsPerStrip     = 278
	tStripByteCounts  = 279
	tPlanarConfig     = 284
	tTileWidth        = 322
	tSampleFormat     = 339
)

const (
	cNone = 1

	pWhiteIsZero = 0
	pBlackIsZero = 1

	sfUnsigned = 1
	sfSigned   = 2
)
