// Package plot renders EKG strips and heart-rate trends as PNG charts.
package plot

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/rcliao/ekg-analyzer/internal/ekg"
	"github.com/rcliao/ekg-analyzer/internal/window"
)

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = errors.New("not enough data to plot")

// Options controls chart size and the strip window.
type Options struct {
	Width  int
	Height int
	Window time.Duration // strip length, from the first sample
	Title  string
}

// DefaultOptions returns a 1200x400 chart over a 10 s strip.
func DefaultOptions() Options {
	return Options{Width: 1200, Height: 400, Window: window.StripLength}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	if o.Window <= 0 {
		o.Window = d.Window
	}
	return o
}

var (
	traceColor = drawing.Color{R: 0, G: 116, B: 217, A: 255}
	peakColor  = drawing.ColorRed
)

// Strip draws the leading window of rec with the given peaks marked.
// Time is shown in seconds relative to the first sample.
func Strip(w io.Writer, rec *ekg.Recording, peaks []int, opts Options) error {
	opts = opts.withDefaults()

	head := window.Head(rec, opts.Window)
	if head.Len() < 2 {
		return ErrNoData
	}
	origin := rec.TimeMS[0]

	xs := make([]float64, head.Len())
	ys := make([]float64, head.Len())
	lo, hi := rec.Amplitude[0], rec.Amplitude[0]
	for j := range xs {
		i := head.StartIndex + j
		xs[j] = (rec.TimeMS[i] - origin) / 1000
		ys[j] = rec.Amplitude[i]
		lo = min(lo, ys[j])
		hi = max(hi, ys[j])
	}

	var px, py []float64
	for _, p := range peaks {
		if p >= head.StartIndex && p < head.EndIndex {
			px = append(px, xs[p-head.StartIndex])
			py = append(py, ys[p-head.StartIndex])
		}
	}

	series := []chart.Series{
		chart.ContinuousSeries{
			Name:    "EKG",
			XValues: xs,
			YValues: ys,
			Style:   chart.Style{StrokeColor: traceColor, StrokeWidth: 1},
		},
	}
	if len(px) > 0 {
		series = append(series, chart.ContinuousSeries{
			Name:    "R-peaks",
			XValues: px,
			YValues: py,
			Style: chart.Style{
				StrokeWidth: chart.Disabled,
				DotWidth:    4,
				DotColor:    peakColor,
			},
		})
	}

	graph := chart.Chart{
		Title:  opts.Title,
		Width:  opts.Width,
		Height: opts.Height,
		XAxis:  chart.XAxis{Name: "Time (s)"},
		YAxis:  chart.YAxis{Name: "Amplitude (mV)", Range: yRange(lo, hi)},
		Series: series,
	}
	return render(w, graph)
}

// HeartRate draws the instantaneous heart rate of s and its moving average.
func HeartRate(w io.Writer, s ekg.HRSeries, opts Options) error {
	opts = opts.withDefaults()
	if s.Len() < 2 {
		return ErrNoData
	}

	lo, hi := s.BPM[0], s.BPM[0]
	for _, v := range s.BPM {
		lo = min(lo, v)
		hi = max(hi, v)
	}

	graph := chart.Chart{
		Title:  opts.Title,
		Width:  opts.Width,
		Height: opts.Height,
		XAxis:  chart.XAxis{Name: "Time (s)"},
		YAxis:  chart.YAxis{Name: "Heart rate (bpm)", Range: yRange(lo, hi)},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "HR",
				XValues: s.TimeS,
				YValues: s.BPM,
				Style:   chart.Style{StrokeColor: drawing.ColorBlack.WithAlpha(80), StrokeWidth: 1},
			},
			chart.ContinuousSeries{
				Name:    "HR (moving average)",
				XValues: s.TimeS,
				YValues: s.Smoothed,
				Style:   chart.Style{StrokeColor: peakColor, StrokeWidth: 2},
			},
		},
	}
	return render(w, graph)
}

// yRange pads flat traces so the chart never gets a zero-height range.
func yRange(lo, hi float64) *chart.ContinuousRange {
	if lo == hi {
		lo, hi = lo-1, hi+1
	}
	return &chart.ContinuousRange{Min: lo, Max: hi}
}

func render(w io.Writer, graph chart.Chart) error {
	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
