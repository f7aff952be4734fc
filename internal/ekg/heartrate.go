package ekg

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// HeartRateSummary holds the aggregate heart-rate statistics of a recording.
//
// When Sufficient is false fewer than two peaks were found and the bpm fields
// carry the 0 sentinel; 0 is never a measured heart rate.
type HeartRateSummary struct {
	AverageBPM  float64 `json:"average_bpm"`
	MinBPM      float64 `json:"min_bpm"`
	MaxBPM      float64 `json:"max_bpm"`
	DurationMin float64 `json:"duration_min"`
	PeakCount   int     `json:"peak_count"`
	Sufficient  bool    `json:"sufficient"`
}

// RRIntervals returns the time between consecutive peaks in milliseconds.
func RRIntervals(timeMS []float64, peaks []int) []float64 {
	if len(peaks) < 2 {
		return []float64{}
	}
	rr := make([]float64, len(peaks)-1)
	for i := 1; i < len(peaks); i++ {
		rr[i-1] = timeMS[peaks[i]] - timeMS[peaks[i-1]]
	}
	return rr
}

// Summarize derives the summary from a recording and its peaks.
func Summarize(rec *Recording, peaks []int) HeartRateSummary {
	rr := RRIntervals(rec.TimeMS, peaks)
	s := HeartRateSummary{
		DurationMin: rec.DurationMin(),
		PeakCount:   len(peaks),
		Sufficient:  len(peaks) >= 2,
	}
	if !s.Sufficient {
		return s
	}
	s.AverageBPM = averageBPM(rr)
	s.MinBPM = minBPM(rr)
	s.MaxBPM = maxBPM(rr)
	return s
}

// averageBPM is 60000 / mean RR, rounded to one decimal.
func averageBPM(rr []float64) float64 {
	if len(rr) == 0 {
		return 0
	}
	return round(bpm(stat.Mean(rr, nil)), 1)
}

// minBPM comes from the longest RR interval.
func minBPM(rr []float64) float64 {
	if len(rr) == 0 {
		return 0
	}
	return round(bpm(floats.Max(rr)), 1)
}

// maxBPM comes from the shortest RR interval.
func maxBPM(rr []float64) float64 {
	if len(rr) == 0 {
		return 0
	}
	return round(bpm(floats.Min(rr)), 1)
}

func bpm(rrMS float64) float64 {
	if rrMS <= 0 {
		return 0
	}
	return 60000 / rrMS
}
