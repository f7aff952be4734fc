package ekg

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Warnings produced by Classify, in evaluation order.
const (
	WarnTachycardia     = "tachycardia suspected"
	WarnBradycardia     = "bradycardia suspected"
	WarnHighPeakHR      = "very high peak heart rate"
	WarnLowMinimumHR    = "very low minimum heart rate"
	WarnIrregularRhythm = "irregular rhythm (high RR variability)"
)

const (
	tachycardiaBPM    = 100
	bradycardiaBPM    = 50
	highPeakBPM       = 160
	lowMinimumBPM     = 40
	// Inclusive: RR 500,500,500,700 has a sample SD of exactly 100 ms and must warn.
	irregularRRStdDev = 100 // ms
)

// Classify returns the warnings raised by a summary and its RR intervals.
// The order is fixed; an empty result means no anomalies. An insufficient
// summary never raises warnings since its zeros are sentinels.
//
// Rates are compared unrounded, computed from rr; the rounded summary
// values are for reporting only.
func Classify(s HeartRateSummary, rr []float64) []string {
	warnings := []string{}
	if !s.Sufficient || len(rr) == 0 {
		return warnings
	}

	avg := bpm(stat.Mean(rr, nil))
	lowest := bpm(floats.Max(rr))
	highest := bpm(floats.Min(rr))

	if avg > tachycardiaBPM {
		warnings = append(warnings, WarnTachycardia)
	} else if avg < bradycardiaBPM {
		warnings = append(warnings, WarnBradycardia)
	}
	if highest > highPeakBPM {
		warnings = append(warnings, WarnHighPeakHR)
	}
	if lowest < lowMinimumBPM {
		warnings = append(warnings, WarnLowMinimumHR)
	}
	if len(rr) >= 2 && RRStdDev(rr) >= irregularRRStdDev {
		warnings = append(warnings, WarnIrregularRhythm)
	}
	return warnings
}

// RRStdDev is the sample standard deviation of the RR intervals in ms.
// It is 0 for fewer than two intervals.
func RRStdDev(rr []float64) float64 {
	if len(rr) < 2 {
		return 0
	}
	return stat.StdDev(rr, nil)
}
