package synthesis

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"movieslicer/internal/models"
)

// Point is an integer pixel position, Row along the first frame axis
type Point struct {
	Row, Col int
}

// SampleOscillators draws n oscillators for a height x width frame. Each
// parameter is drawn for all oscillators before the next one: frequencies,
// amplitudes, phases, directions, row offsets, then column offsets.
func SampleOscillators(n, height, width int, frequency, amplitude models.Range, src rand.Source) []models.Oscillator {
	draw := func(lo, hi float64) []float64 {
		u := distuv.Uniform{Min: lo, Max: hi, Src: src}
		values := make([]float64, n)
		for i := range values {
			values[i] = u.Rand()
		}
		return values
	}

	frequencies := draw(frequency.Min, frequency.Max)
	amplitudes := draw(amplitude.Min, amplitude.Max)
	phases := draw(0, 2*math.Pi)
	directions := draw(0, 2*math.Pi)
	rows := draw(0, float64(height))
	cols := draw(0, float64(width))

	oscs := make([]models.Oscillator, n)
	for i := range oscs {
		oscs[i] = models.Oscillator{
			Frequency: frequencies[i],
			Amplitude: amplitudes[i],
			Phase:     phases[i],
			Direction: directions[i],
			Row:       rows[i],
			Col:       cols[i],
		}
	}
	return oscs
}

// Phase returns the phase of o at frame t
func Phase(o models.Oscillator, t int) float64 {
	return o.Phase + float64(t)*o.Frequency
}

// OrthogonalDistance is the rounded displacement of the moving circle at
// frame t: A * sin(F * phase(t))
func OrthogonalDistance(o models.Oscillator, t int) int {
	return round(o.Amplitude * math.Sin(o.Frequency*Phase(o, t)))
}

// BasePoint is the rest position of the moving circle, one unit from the
// spawn offset along the travel direction
func BasePoint(o models.Oscillator) Point {
	return Point{
		Row: round(o.Row + math.Cos(o.Direction)),
		Col: round(o.Col + math.Sin(o.Direction)),
	}
}

// Center returns the circle center of o at frame t in point mode
func Center(o models.Oscillator, t int) Point {
	return displace(BasePoint(o), OrthogonalDistance(o, t), o.Direction)
}

// displace moves p by dist pixels perpendicular to direction
func displace(p Point, dist int, direction float64) Point {
	orthogonal := direction + math.Pi/2
	return Point{
		Row: round(float64(p.Row) + float64(dist)*math.Cos(orthogonal)),
		Col: round(float64(p.Col) + float64(dist)*math.Sin(orthogonal)),
	}
}

// round rounds half to even
func round(v float64) int {
	return int(math.RoundToEven(v))
}
