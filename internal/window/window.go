// Package window splits EKG recordings into contiguous time windows.
package window

import (
	"math"
	"sort"
	"time"

	"github.com/rcliao/ekg-analyzer/internal/ekg"
)

const (
	DefaultLength    = time.Minute
	DefaultMinLength = 10 * time.Second
	// StripLength is the leading window shown in strip plots.
	StripLength = 10 * time.Second
)

// Options configures windowing.
type Options struct {
	Length    time.Duration
	MinLength time.Duration // shorter tails are merged into the previous window
}

// DefaultOptions returns default windowing options.
func DefaultOptions() Options {
	return Options{
		Length:    DefaultLength,
		MinLength: DefaultMinLength,
	}
}

// Segment is a window [StartIndex, EndIndex) of a recording.
type Segment struct {
	StartIndex int     `json:"start_index"`
	EndIndex   int     `json:"end_index"`
	StartMS    float64 `json:"start_ms"`
	EndMS      float64 `json:"end_ms"`
}

// Len returns the number of samples in the segment.
func (s Segment) Len() int { return s.EndIndex - s.StartIndex }

// Split cuts rec into windows of opts.Length measured from the first
// timestamp. A recording shorter than one window yields a single segment.
func Split(rec *ekg.Recording, opts Options) []Segment {
	if opts.Length < time.Millisecond {
		opts = DefaultOptions()
	}
	n := rec.Len()
	if n == 0 {
		return nil
	}

	step := float64(opts.Length.Milliseconds())
	origin := rec.TimeMS[0]

	var segs []Segment
	start := 0
	for start < n {
		k := math.Floor((rec.TimeMS[start]-origin)/step) + 1
		bound := origin + k*step
		end := start + sort.Search(n-start, func(i int) bool { return rec.TimeMS[start+i] >= bound })
		segs = append(segs, segment(rec, start, end))
		start = end
	}

	// Merge a short tail into its predecessor.
	if k := len(segs); k > 1 {
		tail := segs[k-1]
		if time.Duration(tail.EndMS-tail.StartMS)*time.Millisecond < opts.MinLength {
			segs[k-2] = segment(rec, segs[k-2].StartIndex, tail.EndIndex)
			segs = segs[:k-1]
		}
	}
	return segs
}

// Head returns the leading window of length d.
func Head(rec *ekg.Recording, d time.Duration) Segment {
	if rec.Len() == 0 {
		return Segment{}
	}
	bound := rec.TimeMS[0] + float64(d.Milliseconds())
	end := sort.Search(rec.Len(), func(i int) bool { return rec.TimeMS[i] > bound })
	if end == 0 {
		end = 1
	}
	return segment(rec, 0, end)
}

func segment(rec *ekg.Recording, start, end int) Segment {
	return Segment{
		StartIndex: start,
		EndIndex:   end,
		StartMS:    rec.TimeMS[start],
		EndMS:      rec.TimeMS[end-1],
	}
}

// Summary is the heart-rate summary of one window.
type Summary struct {
	Segment
	ekg.HeartRateSummary
	Anomalies []string `json:"anomalies"`
}

// Summarize analyzes every segment independently with params.
func Summarize(rec *ekg.Recording, segs []Segment, params ekg.PeakParams) ([]Summary, error) {
	out := make([]Summary, 0, len(segs))
	for _, s := range segs {
		a := ekg.NewAnalyzer(rec.Slice(s.StartIndex, s.EndIndex))
		if _, err := a.DetectPeaks(params); err != nil {
			return nil, err
		}
		out = append(out, Summary{
			Segment:          s,
			HeartRateSummary: a.Summary(),
			Anomalies:        a.Anomalies(),
		})
	}
	return out, nil
}
