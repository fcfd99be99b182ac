package models

// Range is a closed interval used for uniform sampling
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Oscillator is one moving-circle source of a synthetic movie. Its parameters
// are drawn once per movie and stay fixed across all frames.
type Oscillator struct {
	// Frequency is the angular step per frame
	Frequency float64

	// Amplitude is the peak orthogonal displacement in pixels
	Amplitude float64

	// Phase is the phase offset at frame 0
	Phase float64

	// Direction is the travel direction in radians. Displacement happens
	// along Direction + pi/2.
	Direction float64

	// Row and Col are the spawn offset inside the frame
	Row float64
	Col float64
}
