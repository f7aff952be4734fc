package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rcliao/ekg-analyzer/internal/ekg"
	"github.com/rcliao/ekg-analyzer/internal/model"
	"github.com/rcliao/ekg-analyzer/internal/plot"
	"github.com/rcliao/ekg-analyzer/internal/report"
	"github.com/rcliao/ekg-analyzer/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// recordingText is a 1 ms recording with a beat every 500 ms.
func recordingText(beats int) string {
	var b strings.Builder
	n := 10 + beats*500
	for i := 0; i < n; i++ {
		v := "0"
		if i%500 == 10 {
			v = "1.2"
		}
		b.WriteString(v + "\t" + strconv.Itoa(i) + "\n")
	}
	return b.String()
}

type fixture struct {
	router  *gin.Engine
	patient *model.Patient
	test    *model.Test
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	s, err := store.NewSQLiteStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	path := filepath.Join(dir, "ekg.txt")
	if err := os.WriteFile(path, []byte(recordingText(20)), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	p, _ := s.AddPatient(ctx, store.AddPatientParams{Firstname: "Julian", Lastname: "Huber", BirthYear: 1996})
	tst, err := s.AddTest(ctx, store.AddTestParams{Patient: p.ID, Date: "2026-10-01", ResultPath: path})
	if err != nil {
		t.Fatalf("add test: %v", err)
	}

	h := NewHandler(s, ekg.DefaultPeakParams(), plot.Options{Width: 400, Height: 200}, zap.NewNop())
	return fixture{router: NewRouter(h), patient: p, test: tst}
}

func (f fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/api/v1/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestPatients(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/v1/patients", "")
	var list []model.Patient
	decode(t, w, &list)
	if len(list) != 1 || list[0].Username != "julian.huber" {
		t.Errorf("unexpected list %+v", list)
	}

	w = f.do(t, http.MethodGet, "/api/v1/patients?q=nobody", "")
	decode(t, w, &list)
	if len(list) != 0 {
		t.Errorf("expected empty search result, got %+v", list)
	}

	w = f.do(t, http.MethodGet, "/api/v1/patients/julian.huber", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var prof model.Profile
	decode(t, w, &prof)
	if prof.ID != f.patient.ID || len(prof.Tests) != 1 || prof.MaxHeartRate != 220-prof.Age {
		t.Errorf("unexpected profile %+v", prof)
	}

	w = f.do(t, http.MethodGet, "/api/v1/patients/nobody", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	var errBody ErrorResponse
	decode(t, w, &errBody)
	if errBody.Error == "" {
		t.Error("expected error message")
	}
}

func TestPatients_InvalidLimit(t *testing.T) {
	f := newFixture(t)
	for _, target := range []string{
		"/api/v1/patients?limit=-1",
		"/api/v1/patients?q=julian&limit=-1",
		"/api/v1/patients?limit=ten",
	} {
		w := f.do(t, http.MethodGet, target, "")
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", target, w.Code)
		}
	}

	w := f.do(t, http.MethodGet, "/api/v1/patients?q=julian&limit=1", "")
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 for a positive limit, got %d", w.Code)
	}
}

func TestAnalysis(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/v1/tests/"+f.test.ID+"/analysis", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp AnalysisResponse
	decode(t, w, &resp)
	if resp.Summary.AverageBPM != 120 || resp.Summary.PeakCount != 20 {
		t.Errorf("unexpected summary %+v", resp.Summary)
	}
	if len(resp.Peaks) != 20 || resp.Peaks[0].AmplitudeMV != 1.2 {
		t.Errorf("unexpected peaks %+v", resp.Peaks)
	}
	if len(resp.Anomalies) != 1 || resp.Anomalies[0] != ekg.WarnTachycardia {
		t.Errorf("unexpected anomalies %v", resp.Anomalies)
	}

	// Above every peak: nothing detected.
	w = f.do(t, http.MethodGet, "/api/v1/tests/"+f.test.ID+"/analysis?height=2", "")
	decode(t, w, &resp)
	if resp.Summary.Sufficient || resp.Summary.AverageBPM != 0 || len(resp.Anomalies) != 0 {
		t.Errorf("expected insufficient analysis, got %+v", resp)
	}
}

func TestAnalysis_BadParams(t *testing.T) {
	f := newFixture(t)
	for _, q := range []string{"distance=0", "distance=abc", "height=NaN", "height=x"} {
		w := f.do(t, http.MethodGet, "/api/v1/tests/"+f.test.ID+"/analysis?"+q, "")
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", q, w.Code)
		}
	}

	w := f.do(t, http.MethodGet, "/api/v1/tests/missing/analysis", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown test, got %d", w.Code)
	}
}

func TestHeartRate(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/v1/tests/"+f.test.ID+"/hr", "")
	var all HRResponse
	decode(t, w, &all)
	if all.Len() != 19 {
		t.Fatalf("expected 19 samples, got %d", all.Len())
	}

	w = f.do(t, http.MethodGet, "/api/v1/tests/"+f.test.ID+"/hr?start=2&end=4", "")
	var part HRResponse
	decode(t, w, &part)
	for i, ts := range part.TimeS {
		if ts < 2 || ts > 4 {
			t.Errorf("sample %d at %v outside [2, 4]", i, ts)
		}
		if part.BPM[i] != 120 {
			t.Errorf("expected 120 bpm, got %v", part.BPM[i])
		}
	}
	if part.Len() != 4 {
		t.Errorf("expected 4 samples in range, got %d", part.Len())
	}

	w = f.do(t, http.MethodGet, "/api/v1/tests/"+f.test.ID+"/hr?start=abc", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestReport(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/api/v1/tests/"+f.test.ID+"/report", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var r report.Report
	decode(t, w, &r)
	if r.Patient.Username != "julian.huber" || r.Test.Date != "2026-10-01" || r.Summary.AverageBPM != 120 {
		t.Errorf("unexpected report %+v", r)
	}
}

func TestPlots(t *testing.T) {
	f := newFixture(t)
	for _, kind := range []string{"strip", "hr"} {
		w := f.do(t, http.MethodGet, "/api/v1/tests/"+f.test.ID+"/plot/"+kind, "")
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", kind, w.Code)
			continue
		}
		if ct := w.Header().Get("Content-Type"); ct != "image/png" {
			t.Errorf("%s: expected image/png, got %q", kind, ct)
		}
	}
}

func TestAnalyze(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/analyze", recordingText(5))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var res report.Result
	decode(t, w, &res)
	if res.Summary.AverageBPM != 120 || res.Params != ekg.DefaultPeakParams() {
		t.Errorf("unexpected result %+v", res)
	}

	w = f.do(t, http.MethodPost, "/api/v1/analyze", "0.1,0\n")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed body, got %d", w.Code)
	}
	w = f.do(t, http.MethodPost, "/api/v1/analyze", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty body, got %d", w.Code)
	}
}
