// Package report runs the analysis of a recording and formats the result
// for a patient's test.
package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rcliao/ekg-analyzer/internal/ekg"
	"github.com/rcliao/ekg-analyzer/internal/model"
	"github.com/rcliao/ekg-analyzer/internal/window"
)

// Result is the analysis of one recording.
type Result struct {
	Params    ekg.PeakParams       `json:"params"`
	Summary   ekg.HeartRateSummary `json:"summary"`
	Anomalies []string             `json:"anomalies"`
	Segments  []window.Summary     `json:"segments,omitempty"`
}

// Analyze detects peaks with params and summarizes the recording. A
// positive segment length additionally summarizes each window.
func Analyze(a *ekg.Analyzer, params ekg.PeakParams, segment time.Duration) (Result, error) {
	if _, err := a.DetectPeaks(params); err != nil {
		return Result{}, err
	}
	res := Result{
		Params:    params,
		Summary:   a.Summary(),
		Anomalies: a.Anomalies(),
	}
	if segment > 0 {
		opts := window.DefaultOptions()
		opts.Length = segment
		if opts.MinLength > segment {
			opts.MinLength = segment / 2
		}
		segs, err := window.Summarize(a.Recording(), window.Split(a.Recording(), opts), params)
		if err != nil {
			return Result{}, err
		}
		res.Segments = segs
	}
	return res, nil
}

// Report is the printable result of a patient's test.
type Report struct {
	Patient model.Profile `json:"patient"`
	Test    model.Test    `json:"test"`
	Result
}

// New assembles a report; age and maximum heart rate are computed as of now.
func New(p model.Patient, t model.Test, res Result, now time.Time) Report {
	p.Tests = nil
	return Report{Patient: model.NewProfile(p, now), Test: t, Result: res}
}

// WriteText writes the report as aligned plain text.
func (r Report) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	s := r.Summary

	fmt.Fprintf(tw, "EKG report\n\n")
	if r.Patient.Username != "" {
		fmt.Fprintf(tw, "Patient:\t%s (%s)\n", r.Patient.Name(), r.Patient.Username)
	}
	if r.Patient.BirthYear > 0 {
		fmt.Fprintf(tw, "Birth year:\t%d (age %d, max HR %d bpm)\n", r.Patient.BirthYear, r.Patient.Age, r.Patient.MaxHeartRate)
	}
	if r.Test.Date != "" {
		fmt.Fprintf(tw, "Test date:\t%s\n", r.Test.Date)
	}
	fmt.Fprintf(tw, "Recording:\t%s\n", r.Test.ResultPath)
	fmt.Fprintf(tw, "Duration:\t%.2f min\n", s.DurationMin)
	fmt.Fprintf(tw, "Peaks:\t%d (distance %d, height %g mV)\n", s.PeakCount, r.Params.MinDistance, r.Params.MinHeight)
	if s.Sufficient {
		fmt.Fprintf(tw, "Heart rate:\tavg %.1f, min %.1f, max %.1f bpm\n", s.AverageBPM, s.MinBPM, s.MaxBPM)
	} else {
		fmt.Fprintf(tw, "Heart rate:\tnot enough peaks\n")
	}
	if len(r.Anomalies) == 0 {
		fmt.Fprintf(tw, "Findings:\tnone\n")
	} else {
		fmt.Fprintf(tw, "Findings:\t%s\n", strings.Join(r.Anomalies, "; "))
	}
	if r.Test.Comment != "" {
		fmt.Fprintf(tw, "Comment:\t%s\n", r.Test.Comment)
	}

	if len(r.Segments) > 0 {
		fmt.Fprintf(tw, "\nFrom\tTo\tAvg\tMin\tMax\tFindings\n")
		for _, seg := range r.Segments {
			fmt.Fprintf(tw, "%.1fs\t%.1fs\t%.1f\t%.1f\t%.1f\t%s\n",
				seg.StartMS/1000, seg.EndMS/1000, seg.AverageBPM, seg.MinBPM, seg.MaxBPM,
				strings.Join(seg.Anomalies, "; "))
		}
	}
	return tw.Flush()
}
