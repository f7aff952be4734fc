package window

import (
	"testing"
	"time"

	"github.com/rcliao/ekg-analyzer/internal/ekg"
)

// ramp returns n samples spaced stepMS apart, starting at originMS.
func ramp(n int, stepMS, originMS float64) *ekg.Recording {
	amp := make([]float64, n)
	ts := make([]float64, n)
	for i := range ts {
		ts[i] = originMS + float64(i)*stepMS
	}
	rec, _ := ekg.NewRecording(amp, ts)
	return rec
}

func TestSplit_Even(t *testing.T) {
	rec := ramp(3000, 10, 500) // 30 s
	segs := Split(rec, Options{Length: 10 * time.Second, MinLength: time.Second})
	if len(segs) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segs))
	}
	for i, s := range segs {
		if s.Len() != 1000 {
			t.Errorf("segment %d: expected 1000 samples, got %d", i, s.Len())
		}
	}
	if segs[1].StartIndex != segs[0].EndIndex {
		t.Error("segments are not contiguous")
	}
	if segs[1].StartMS != 10500 {
		t.Errorf("expected second window at 10500 ms, got %v", segs[1].StartMS)
	}
}

func TestSplit_MergesShortTail(t *testing.T) {
	rec := ramp(2050, 10, 0) // 20.5 s
	segs := Split(rec, Options{Length: 10 * time.Second, MinLength: 2 * time.Second})
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segs))
	}
	if segs[1].EndIndex != rec.Len() {
		t.Errorf("expected last segment to reach the end, got %d", segs[1].EndIndex)
	}
}

func TestSplit_ShortRecording(t *testing.T) {
	rec := ramp(10, 10, 0)
	segs := Split(rec, DefaultOptions())
	if len(segs) != 1 || segs[0].Len() != 10 {
		t.Errorf("expected one segment of 10, got %+v", segs)
	}
}

func TestSplit_Gap(t *testing.T) {
	rec, _ := ekg.NewRecording(make([]float64, 4), []float64{0, 1000, 95000, 96000})
	segs := Split(rec, Options{Length: 10 * time.Second})
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %+v", segs)
	}
	if segs[1].StartIndex != 2 {
		t.Errorf("expected second segment to start after the gap, got %+v", segs[1])
	}
}

func TestHead(t *testing.T) {
	rec := ramp(3000, 10, 200)
	h := Head(rec, StripLength)
	if h.StartIndex != 0 || h.EndIndex != 1001 {
		t.Errorf("expected [0, 1001), got [%d, %d)", h.StartIndex, h.EndIndex)
	}
	if h.EndMS != 10200 {
		t.Errorf("expected head to end at 10200 ms, got %v", h.EndMS)
	}
}

func TestSummarize(t *testing.T) {
	// 1 ms grid, 20 s, a beat every 600 ms in the first half and every
	// 1000 ms in the second.
	n := 20000
	amp := make([]float64, n)
	ts := make([]float64, n)
	for i := range ts {
		ts[i] = float64(i)
	}
	for p := 5; p < 10000; p += 600 {
		amp[p] = 1
	}
	for p := 10005; p < n-1; p += 1000 {
		amp[p] = 1
	}
	rec, _ := ekg.NewRecording(amp, ts)

	segs := Split(rec, Options{Length: 10 * time.Second})
	sums, err := Summarize(rec, segs, ekg.DefaultPeakParams())
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if len(sums) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(sums))
	}
	if sums[0].AverageBPM != 100 {
		t.Errorf("first window: expected 100 bpm, got %v", sums[0].AverageBPM)
	}
	if sums[1].AverageBPM != 60 {
		t.Errorf("second window: expected 60 bpm, got %v", sums[1].AverageBPM)
	}

	if _, err := Summarize(rec, segs, ekg.PeakParams{MinDistance: 0}); err == nil {
		t.Error("expected invalid params to be rejected")
	}
}
