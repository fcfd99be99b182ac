package models

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrame_Set(t *testing.T) {
	f := NewFrame(4, 6)

	assert.True(t, f.Set(3, 5, 7))
	assert.Equal(t, uint16(7), f.At(3, 5))
	assert.Equal(t, uint16(7), f.Pix[3*6+5])

	for _, p := range [][2]int{{-1, 0}, {0, -1}, {4, 0}, {0, 6}} {
		assert.False(t, f.Set(p[0], p[1], 1), "point %v", p)
		assert.Equal(t, uint16(0), f.At(p[0], p[1]))
	}
}

func TestStack_Layout(t *testing.T) {
	s := NewStack(3, 2, 4)
	require.NoError(t, s.Validate())

	for p := 0; p < 3; p++ {
		for r := 0; r < 2; r++ {
			for c := 0; c < 4; c++ {
				s.Set(p, r, c, uint16(100*p+10*r+c))
			}
		}
	}

	assert.Equal(t, uint16(213), s.At(2, 1, 3))
	assert.Equal(t, []uint16{100, 101, 102, 103, 110, 111, 112, 113}, s.Page(1))

	f := s.Frame(2)
	assert.Equal(t, uint16(213), f.At(1, 3))
	f.Set(1, 3, 0)
	assert.Equal(t, uint16(213), s.At(2, 1, 3), "frame must be a copy")
}

func TestStack_SetFrame(t *testing.T) {
	s := NewStack(2, 2, 2)
	f := NewFrame(2, 2)
	f.Set(1, 0, 9)

	require.NoError(t, s.SetFrame(1, f))
	assert.Equal(t, uint16(9), s.At(1, 1, 0))

	assert.Error(t, s.SetFrame(2, f))
	assert.Error(t, s.SetFrame(0, NewFrame(3, 2)))
}

func TestStack_Validate(t *testing.T) {
	s := NewStack(1, 2, 2)
	s.Data = s.Data[:3]
	assert.Error(t, s.Validate())

	s = NewStack(1, 2, 2)
	s.BitsPerSample = 12
	assert.Error(t, s.Validate())
}

func TestStack_PageImage(t *testing.T) {
	s := NewStack(1, 2, 3)
	s.Set(0, 1, 2, 500)

	img, ok := s.PageImage(0).(*image.Gray16)
	require.True(t, ok)
	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())
	assert.Equal(t, uint16(500), img.Gray16At(2, 1).Y)

	s.BitsPerSample = 8
	s.Set(0, 1, 2, 200)
	gray, ok := s.PageImage(0).(*image.Gray)
	require.True(t, ok)
	assert.Equal(t, uint8(200), gray.GrayAt(2, 1).Y)
}

func TestLayout_String(t *testing.T) {
	assert.Equal(t, "slices", PerSlice.String())
	assert.Equal(t, "combined", Combined.String())
	assert.Equal(t, "unknown", Layout(9).String())
}

func TestParseLayout(t *testing.T) {
	for name, want := range map[string]Layout{"": PerSlice, "slices": PerSlice, "Combined": Combined} {
		got, err := ParseLayout(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseLayout("stacked")
	assert.Error(t, err)
}

func TestParseOrder(t *testing.T) {
	for name, want := range map[string]Order{"": Lexical, "lexical": Lexical, " numeric ": Numeric} {
		got, err := ParseOrder(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, "numeric", Numeric.String())

	_, err := ParseOrder("random")
	assert.Error(t, err)
}
