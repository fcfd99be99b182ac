// Package metrics computes summary statistics over image stacks. The batch
// tools log a Summary for every stack they write so a run can be checked at a
// glance without opening the files.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"movieslicer/internal/models"
)

// Summary holds the statistics of one stack
type Summary struct {
	// Mean and StdDev of all samples
	Mean   float64
	StdDev float64

	// Min and Max sample values
	Min uint16
	Max uint16

	// Coverage is the fraction of non-zero samples. For a synthesized movie
	// it is the share of pixels covered by circles.
	Coverage float64

	// Entropy is the Shannon entropy of the sample histogram in bits
	Entropy float64

	// PageCoverage is the coverage of each page
	PageCoverage []float64
}

// Summarize computes the statistics of s
func Summarize(s *models.Stack) Summary {
	var sum Summary
	n := len(s.Data)
	if n == 0 {
		return sum
	}

	values := make([]float64, n)
	for i, v := range s.Data {
		values[i] = float64(v)
	}
	sum.Mean, sum.StdDev = stat.MeanStdDev(values, nil)
	if n == 1 {
		sum.StdDev = 0
	}
	sum.Min, sum.Max = findMinMax(s.Data)
	sum.Entropy = calculateEntropy(s.Data)

	size := s.Height * s.Width
	sum.PageCoverage = make([]float64, s.Pages)
	nonZero := 0
	for p := 0; p < s.Pages; p++ {
		count := 0
		for _, v := range s.Data[p*size : (p+1)*size] {
			if v != 0 {
				count++
			}
		}
		nonZero += count
		if size > 0 {
			sum.PageCoverage[p] = float64(count) / float64(size)
		}
	}
	sum.Coverage = float64(nonZero) / float64(n)

	return sum
}

// IsBinary reports whether every sample of s is either 0 or on
func IsBinary(s *models.Stack, on uint16) bool {
	for _, v := range s.Data {
		if v != 0 && v != on {
			return false
		}
	}
	return true
}

// findMinMax returns the minimum and maximum values in a slice
func findMinMax(data []uint16) (min, max uint16) {
	if len(data) == 0 {
		return 0, 0
	}

	min = data[0]
	max = data[0]
	for _, v := range data {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// calculateEntropy computes the Shannon entropy of the exact sample values
func calculateEntropy(data []uint16) float64 {
	n := len(data)
	if n == 0 {
		return 0
	}

	hist := make(map[uint16]float64)
	for _, v := range data {
		hist[v]++
	}

	entropy := 0.0
	for _, count := range hist {
		p := count / float64(n)
		entropy -= p * math.Log2(p)
	}
	return entropy
}
