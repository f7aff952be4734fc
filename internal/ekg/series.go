package ekg

import "sort"

// SmoothingWindow is the trailing moving-average length of HRSeries.Smoothed.
const SmoothingWindow = 5

// HRSeries is the instantaneous heart rate, one entry per RR interval.
// TimeS is the time of the later peak of each pair, in seconds.
type HRSeries struct {
	TimeS    []float64 `json:"time_s"`
	BPM      []float64 `json:"hr_bpm"`
	Smoothed []float64 `json:"hr_bpm_smoothed"`
}

// Len returns the number of entries.
func (s HRSeries) Len() int { return len(s.TimeS) }

// Empty reports whether there was too little data for a trace.
func (s HRSeries) Empty() bool { return len(s.TimeS) == 0 }

// InstantaneousHR builds the series from a recording and its peaks.
// Fewer than two peaks yields an empty series.
func InstantaneousHR(rec *Recording, peaks []int) HRSeries {
	if len(peaks) < 2 {
		return HRSeries{TimeS: []float64{}, BPM: []float64{}, Smoothed: []float64{}}
	}
	n := len(peaks) - 1
	s := HRSeries{
		TimeS: make([]float64, n),
		BPM:   make([]float64, n),
	}
	for i := 1; i < len(peaks); i++ {
		later := rec.TimeMS[peaks[i]]
		s.BPM[i-1] = bpm(later - rec.TimeMS[peaks[i-1]])
		s.TimeS[i-1] = later / 1000
	}
	s.Smoothed = trailingMean(s.BPM, SmoothingWindow)
	return s
}

// trailingMean averages each value with up to window-1 predecessors.
func trailingMean(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		from := i - window + 1
		if from < 0 {
			from = 0
		}
		sum := 0.0
		for _, v := range values[from : i+1] {
			sum += v
		}
		out[i] = sum / float64(i+1-from)
	}
	return out
}

// Between returns the contiguous entries with startS <= TimeS <= endS.
// The result shares memory with s; nothing is recomputed.
func (s HRSeries) Between(startS, endS float64) HRSeries {
	lo := sort.SearchFloat64s(s.TimeS, startS)
	hi := sort.Search(len(s.TimeS), func(i int) bool { return s.TimeS[i] > endS })
	if hi < lo {
		hi = lo
	}
	return HRSeries{
		TimeS:    s.TimeS[lo:hi],
		BPM:      s.BPM[lo:hi],
		Smoothed: s.Smoothed[lo:hi],
	}
}
