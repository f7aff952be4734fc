package ekg

import (
	"math"
	"reflect"
	"testing"
)

func TestInstantaneousHR(t *testing.T) {
	a := NewAnalyzer(beats(600, 500, 750, 600, 1000, 400))
	s := a.InstantaneousHR()

	if s.Len() != 6 {
		t.Fatalf("expected 6 entries, got %d", s.Len())
	}
	wantTime := []float64{0.6, 1.1, 1.85, 2.45, 3.45, 3.85}
	for i, v := range wantTime {
		if math.Abs(s.TimeS[i]-v) > 1e-9 {
			t.Errorf("time[%d]: expected %v (later peak), got %v", i, v, s.TimeS[i])
		}
	}
	wantBPM := []float64{100, 120, 80, 100, 60, 150}
	if !reflect.DeepEqual(s.BPM, wantBPM) {
		t.Errorf("expected bpm %v, got %v", wantBPM, s.BPM)
	}

	wantSmoothed := []float64{
		100,
		110,
		100,
		100,
		92,
		(120 + 80 + 100 + 60 + 150) / 5.0,
	}
	for i, v := range wantSmoothed {
		if math.Abs(s.Smoothed[i]-v) > 1e-9 {
			t.Errorf("smoothed[%d]: expected %v, got %v", i, v, s.Smoothed[i])
		}
	}
}

func TestInstantaneousHR_Insufficient(t *testing.T) {
	s := NewAnalyzer(beats()).InstantaneousHR()
	if !s.Empty() || s.TimeS == nil {
		t.Errorf("expected empty non-nil series, got %+v", s)
	}
}

func TestHRSeries_Between(t *testing.T) {
	s := NewAnalyzer(beats(600, 500, 750, 600, 1000, 400)).InstantaneousHR()

	tests := []struct {
		name       string
		start, end float64
		want       []float64
	}{
		{"all", 0, 10, s.TimeS},
		{"inner inclusive", 1.1, 2.45, []float64{1.1, 1.85, 2.45}},
		{"between samples", 1.2, 3.0, []float64{1.85, 2.45}},
		{"empty range", 5, 6, []float64{}},
		{"inverted", 3, 1, []float64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := s.Between(tt.start, tt.end)
			if v.Len() != len(tt.want) {
				t.Fatalf("expected %d entries, got %v", len(tt.want), v.TimeS)
			}
			for i := range tt.want {
				if math.Abs(v.TimeS[i]-tt.want[i]) > 1e-9 {
					t.Errorf("entry %d: expected %v, got %v", i, tt.want[i], v.TimeS[i])
				}
			}
			if len(v.BPM) != v.Len() || len(v.Smoothed) != v.Len() {
				t.Error("view columns have different lengths")
			}
		})
	}
}

func TestHRSeries_BetweenIsView(t *testing.T) {
	s := NewAnalyzer(beats(600, 600, 600)).InstantaneousHR()
	v := s.Between(1, 2)
	if v.Len() == 0 {
		t.Fatal("expected entries")
	}
	if &v.BPM[0] != &s.BPM[1] {
		t.Error("expected Between to share the underlying arrays")
	}
}
