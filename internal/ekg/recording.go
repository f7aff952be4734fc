// Package ekg implements single-lead EKG analysis: R-peak detection,
// heart-rate statistics, anomaly flags and the instantaneous heart-rate series.
package ekg

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidRecording is returned when amplitude and time columns cannot form a recording.
var ErrInvalidRecording = errors.New("invalid recording")

// Recording is one decoded EKG recording: amplitude in millivolts and
// elapsed time in milliseconds, sample by sample.
type Recording struct {
	Amplitude []float64 `json:"amplitude_mv"`
	TimeMS    []float64 `json:"time_ms"`
}

// NewRecording validates the two columns and wraps them. The slices are not copied.
func NewRecording(amplitude, timeMS []float64) (*Recording, error) {
	if len(amplitude) == 0 {
		return nil, fmt.Errorf("%w: no samples", ErrInvalidRecording)
	}
	if len(amplitude) != len(timeMS) {
		return nil, fmt.Errorf("%w: %d amplitude values but %d timestamps",
			ErrInvalidRecording, len(amplitude), len(timeMS))
	}
	for i := range timeMS {
		if math.IsNaN(timeMS[i]) || math.IsNaN(amplitude[i]) {
			return nil, fmt.Errorf("%w: NaN at sample %d", ErrInvalidRecording, i)
		}
		if i > 0 && timeMS[i] < timeMS[i-1] {
			return nil, fmt.Errorf("%w: time decreases at sample %d (%g < %g)",
				ErrInvalidRecording, i, timeMS[i], timeMS[i-1])
		}
	}
	return &Recording{Amplitude: amplitude, TimeMS: timeMS}, nil
}

// Len returns the number of samples.
func (r *Recording) Len() int { return len(r.Amplitude) }

// Slice returns the sub-recording [from, to). It shares memory with r.
func (r *Recording) Slice(from, to int) *Recording {
	return &Recording{Amplitude: r.Amplitude[from:to], TimeMS: r.TimeMS[from:to]}
}

// DurationMin is the span between the first and last timestamp in minutes,
// rounded to 2 decimals. It does not depend on peaks.
func (r *Recording) DurationMin() float64 {
	if r.Len() == 0 {
		return 0
	}
	return round((r.TimeMS[r.Len()-1]-r.TimeMS[0])/60000, 2)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
