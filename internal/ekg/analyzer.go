package ekg

// PeakPoint is one detected peak for plotting.
type PeakPoint struct {
	Index       int     `json:"index"`
	TimeS       float64 `json:"time_s"`
	AmplitudeMV float64 `json:"amplitude_mv"`
}

// Analyzer analyzes one recording. Peak detection runs at most once per
// parameter set and every derived statistic reads the cached peaks.
//
// An Analyzer is not safe for concurrent use; analyzers of different
// recordings share nothing.
type Analyzer struct {
	rec    *Recording
	params PeakParams
	peaks  []int
	cached bool
}

// NewAnalyzer returns an analyzer over rec. rec must not be modified afterwards.
func NewAnalyzer(rec *Recording) *Analyzer {
	return &Analyzer{rec: rec}
}

// Recording returns the analyzed recording.
func (a *Analyzer) Recording() *Recording { return a.rec }

// DetectPeaks runs detection with p and replaces the cached peaks.
// On error the previous cache is left untouched.
func (a *Analyzer) DetectPeaks(p PeakParams) ([]int, error) {
	if a.cached && p == a.params {
		return a.Peaks(), nil
	}
	peaks, err := DetectPeaks(a.rec.Amplitude, p)
	if err != nil {
		return nil, err
	}
	a.peaks, a.params, a.cached = peaks, p, true
	return a.Peaks(), nil
}

// Peaks returns a copy of the cached peaks, detecting them with the default
// parameters first if needed.
func (a *Analyzer) Peaks() []int {
	a.ensurePeaks()
	out := make([]int, len(a.peaks))
	copy(out, a.peaks)
	return out
}

// Params returns the parameters of the cached peaks.
func (a *Analyzer) Params() PeakParams {
	a.ensurePeaks()
	return a.params
}

// Sufficient reports whether at least two peaks exist, i.e. whether the
// heart-rate values are measurements rather than 0 sentinels.
func (a *Analyzer) Sufficient() bool {
	a.ensurePeaks()
	return len(a.peaks) >= 2
}

func (a *Analyzer) ensurePeaks() {
	if a.cached {
		return
	}
	// Default parameters always validate.
	peaks, _ := DetectPeaks(a.rec.Amplitude, DefaultPeakParams())
	a.peaks, a.params, a.cached = peaks, DefaultPeakParams(), true
}

// RRIntervals returns the RR intervals of the cached peaks in ms.
func (a *Analyzer) RRIntervals() []float64 {
	a.ensurePeaks()
	return RRIntervals(a.rec.TimeMS, a.peaks)
}

// AverageBPM returns 60000 / mean RR, or 0 with fewer than two peaks.
func (a *Analyzer) AverageBPM() float64 { return averageBPM(a.RRIntervals()) }

// MinBPM returns the heart rate of the longest RR interval, or 0.
func (a *Analyzer) MinBPM() float64 { return minBPM(a.RRIntervals()) }

// MaxBPM returns the heart rate of the shortest RR interval, or 0.
func (a *Analyzer) MaxBPM() float64 { return maxBPM(a.RRIntervals()) }

// DurationMin returns the recording length in minutes.
func (a *Analyzer) DurationMin() float64 { return a.rec.DurationMin() }

// Summary returns all aggregate statistics at once.
func (a *Analyzer) Summary() HeartRateSummary {
	a.ensurePeaks()
	return Summarize(a.rec, a.peaks)
}

// Anomalies classifies the current summary.
func (a *Analyzer) Anomalies() []string {
	return Classify(a.Summary(), a.RRIntervals())
}

// InstantaneousHR returns the per-beat heart-rate series.
func (a *Analyzer) InstantaneousHR() HRSeries {
	a.ensurePeaks()
	return InstantaneousHR(a.rec, a.peaks)
}

// PeakOverlay returns the peaks as (time, amplitude) points.
func (a *Analyzer) PeakOverlay() []PeakPoint {
	a.ensurePeaks()
	out := make([]PeakPoint, len(a.peaks))
	for i, idx := range a.peaks {
		out[i] = PeakPoint{
			Index:       idx,
			TimeS:       a.rec.TimeMS[idx] / 1000,
			AmplitudeMV: a.rec.Amplitude[idx],
		}
	}
	return out
}
