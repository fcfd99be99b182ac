package synthesis

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"movieslicer/internal/models"
)

const (
	// OnValue is the intensity of drawn pixels
	OnValue uint16 = 1

	// PointRadius is the circle radius in point mode
	PointRadius = 2.5

	// CurveRadius is the radius of every sample along a full sinusoid
	CurveRadius = 1.5

	// curveSamplesPerPixel is the sampling density along the frame diagonal
	curveSamplesPerPixel = 10
)

// DrawFilledCircle sets every frame pixel within radius of center to value
// and returns the number of pixels written. Pixels outside the frame are
// dropped; overlapping circles overwrite instead of summing.
func DrawFilledCircle(f *models.Frame, center Point, radius float64, value uint16) int {
	extent := int(math.Ceil(radius))
	r2 := radius * radius

	written := 0
	for row := center.Row - extent; row <= center.Row+extent; row++ {
		for col := center.Col - extent; col <= center.Col+extent; col++ {
			dr := float64(row - center.Row)
			dc := float64(col - center.Col)
			if dr*dr+dc*dc > r2 {
				continue
			}
			if f.Set(row, col, value) {
				written++
			}
		}
	}
	return written
}

// Renderer draws the frames of one movie
type Renderer struct {
	height, width int
	full          bool

	// dists are the sample positions along the travel direction in
	// full-sinusoid mode
	dists []float64
}

// NewRenderer creates a renderer for height x width frames. With full set,
// every oscillator is drawn as a sampled sinusoid across the whole frame
// instead of a single circle.
func NewRenderer(height, width int, full bool) *Renderer {
	r := &Renderer{height: height, width: width, full: full}
	if full {
		diagonal := int(math.Sqrt(float64(height*height + width*width)))
		n := diagonal * curveSamplesPerPixel
		if n >= 2 {
			r.dists = floats.Span(make([]float64, n), -float64(diagonal), float64(diagonal))
		}
	}
	return r
}

// RenderFrame draws all oscillators at frame t into a new frame
func (r *Renderer) RenderFrame(oscs []models.Oscillator, t int) *models.Frame {
	f := models.NewFrame(r.height, r.width)
	for _, o := range oscs {
		if r.full {
			r.drawSinusoid(f, o, t)
			continue
		}
		c := Center(o, t)
		if f.In(c.Row, c.Col) {
			DrawFilledCircle(f, c, PointRadius, OnValue)
		}
	}
	return f
}

// drawSinusoid samples the curve of o along its travel direction and draws a
// small circle at every sample that lands inside the frame
func (r *Renderer) drawSinusoid(f *models.Frame, o models.Oscillator, t int) {
	phase := Phase(o, t)
	cos, sin := math.Cos(o.Direction), math.Sin(o.Direction)

	for _, dist := range r.dists {
		base := Point{
			Row: round(o.Row + dist*cos),
			Col: round(o.Col + dist*sin),
		}
		offset := round(o.Amplitude * math.Sin(o.Frequency*dist+phase))
		p := displace(base, offset, o.Direction)
		if f.In(p.Row, p.Col) {
			DrawFilledCircle(f, p, CurveRadius, OnValue)
		}
	}
}
