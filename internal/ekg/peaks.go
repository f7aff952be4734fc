package ekg

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

const (
	DefaultMinDistance = 200
	DefaultMinHeight   = 0.5
)

var (
	ErrInvalidPeakDistance = errors.New("peak distance must be positive")
	ErrInvalidPeakHeight   = errors.New("peak height must be a number")
)

// PeakParams configures R-peak detection.
type PeakParams struct {
	MinDistance int     `json:"min_distance" yaml:"min_distance"` // samples between accepted peaks
	MinHeight   float64 `json:"min_height" yaml:"min_height"`     // mV
}

// DefaultPeakParams returns the detection parameters used when none are given.
func DefaultPeakParams() PeakParams {
	return PeakParams{MinDistance: DefaultMinDistance, MinHeight: DefaultMinHeight}
}

// Validate rejects parameters that would silently change detection.
func (p PeakParams) Validate() error {
	if p.MinDistance <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidPeakDistance, p.MinDistance)
	}
	if math.IsNaN(p.MinHeight) {
		return ErrInvalidPeakHeight
	}
	return nil
}

// DetectPeaks returns the indices of R-peaks in amplitude, strictly increasing.
//
// A candidate is a sample strictly greater than both neighbours with amplitude
// of at least MinHeight. Candidates are then accepted from the highest down
// (earliest index first on equal amplitude); each accepted peak suppresses
// every remaining candidate less than MinDistance samples away.
func DetectPeaks(amplitude []float64, p PeakParams) ([]int, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	candidates := localMaxima(amplitude, p.MinHeight)
	if len(candidates) == 0 {
		return []int{}, nil
	}
	if p.MinDistance == 1 {
		return candidates, nil
	}

	// Positions into candidates, highest amplitude first.
	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return amplitude[candidates[order[a]]] > amplitude[candidates[order[b]]]
	})

	keep := make([]bool, len(candidates))
	for i := range keep {
		keep[i] = true
	}
	for _, c := range order {
		if !keep[c] {
			continue
		}
		for j := c - 1; j >= 0 && candidates[c]-candidates[j] < p.MinDistance; j-- {
			keep[j] = false
		}
		for j := c + 1; j < len(candidates) && candidates[j]-candidates[c] < p.MinDistance; j++ {
			keep[j] = false
		}
	}

	peaks := make([]int, 0, len(candidates))
	for i, idx := range candidates {
		if keep[i] {
			peaks = append(peaks, idx)
		}
	}
	return peaks, nil
}

// localMaxima returns the indices strictly greater than both neighbours and
// at least minHeight. Plateaus never qualify.
func localMaxima(amplitude []float64, minHeight float64) []int {
	var out []int
	for i := 1; i < len(amplitude)-1; i++ {
		v := amplitude[i]
		if v > amplitude[i-1] && v > amplitude[i+1] && v >= minHeight {
			out = append(out, i)
		}
	}
	return out
}
