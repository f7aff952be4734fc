package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rcliao/ekg-analyzer/internal/ekg"
	"github.com/rcliao/ekg-analyzer/internal/model"
)

// beatsAt returns a 1 ms recording with one spike per RR interval.
func beatsAt(t *testing.T, rrMS ...int) *ekg.Recording {
	t.Helper()
	n := 10
	for _, rr := range rrMS {
		n += rr
	}
	n += 10
	amp := make([]float64, n)
	ts := make([]float64, n)
	for i := range ts {
		ts[i] = float64(i)
	}
	p := 10
	amp[p] = 1
	for _, rr := range rrMS {
		p += rr
		amp[p] = 1
	}
	rec, err := ekg.NewRecording(amp, ts)
	if err != nil {
		t.Fatal(err)
	}
	return rec
}

func TestAnalyze(t *testing.T) {
	rec := beatsAt(t, 500, 500, 500, 500)
	res, err := Analyze(ekg.NewAnalyzer(rec), ekg.DefaultPeakParams(), 0)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if res.Summary.AverageBPM != 120 {
		t.Errorf("expected 120 bpm, got %v", res.Summary.AverageBPM)
	}
	if len(res.Anomalies) != 1 || res.Anomalies[0] != ekg.WarnTachycardia {
		t.Errorf("expected tachycardia, got %v", res.Anomalies)
	}
	if res.Segments != nil {
		t.Error("expected no segments without a segment length")
	}

	if _, err := Analyze(ekg.NewAnalyzer(rec), ekg.PeakParams{MinDistance: -1}, 0); err == nil {
		t.Error("expected invalid params to fail")
	}
}

func TestAnalyze_Segments(t *testing.T) {
	rr := make([]int, 20)
	for i := range rr {
		rr[i] = 1000
	}
	rec := beatsAt(t, rr...)
	res, err := Analyze(ekg.NewAnalyzer(rec), ekg.DefaultPeakParams(), 10*time.Second)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(res.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(res.Segments))
	}
	for i, s := range res.Segments {
		if s.AverageBPM != 60 {
			t.Errorf("segment %d: expected 60 bpm, got %v", i, s.AverageBPM)
		}
	}
}

func TestWriteText(t *testing.T) {
	now := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	rec := beatsAt(t, 500, 500, 500, 500)
	res, _ := Analyze(ekg.NewAnalyzer(rec), ekg.DefaultPeakParams(), 0)

	p := model.Patient{Firstname: "Julian", Lastname: "Huber", Username: "julian.huber", BirthYear: 1996}
	tst := model.Test{Date: "2026-10-01", ResultPath: "data/ekg.txt", Comment: "after stairs"}
	r := New(p, tst, res, now)

	if r.Patient.Age != 30 || r.Patient.MaxHeartRate != 190 {
		t.Errorf("unexpected profile %+v", r.Patient)
	}

	var buf bytes.Buffer
	if err := r.WriteText(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Julian Huber (julian.huber)",
		"age 30, max HR 190 bpm",
		"2026-10-01",
		"avg 120.0, min 120.0, max 120.0 bpm",
		ekg.WarnTachycardia,
		"after stairs",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected report to contain %q:\n%s", want, out)
		}
	}
}

func TestWriteText_Insufficient(t *testing.T) {
	rec := beatsAt(t)
	res, _ := Analyze(ekg.NewAnalyzer(rec), ekg.DefaultPeakParams(), 0)
	r := New(model.Patient{Firstname: "A", Lastname: "B"}, model.Test{}, res, time.Now())

	var buf bytes.Buffer
	r.WriteText(&buf)
	if !strings.Contains(buf.String(), "not enough peaks") || !strings.Contains(buf.String(), "none\n") {
		t.Errorf("unexpected report:\n%s", buf.String())
	}
}
