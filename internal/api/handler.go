// Package api serves patients, tests and analyses over HTTP.
package api

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rcliao/ekg-analyzer/internal/ekg"
	"github.com/rcliao/ekg-analyzer/internal/loader"
	"github.com/rcliao/ekg-analyzer/internal/model"
	"github.com/rcliao/ekg-analyzer/internal/plot"
	"github.com/rcliao/ekg-analyzer/internal/report"
	"github.com/rcliao/ekg-analyzer/internal/store"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Handler answers API requests from a store.
type Handler struct {
	store    store.Store
	defaults ekg.PeakParams
	plot     plot.Options
	log      *zap.Logger
	now      func() time.Time
}

// NewHandler creates a handler; defaults apply when a request sets no
// detection parameters.
func NewHandler(s store.Store, defaults ekg.PeakParams, plotOpts plot.Options, log *zap.Logger) *Handler {
	return &Handler{store: s, defaults: defaults, plot: plotOpts, log: log, now: time.Now}
}

// AnalysisResponse is a test analysis with the detected peaks.
type AnalysisResponse struct {
	TestID string `json:"test_id"`
	report.Result
	Peaks []ekg.PeakPoint `json:"peaks"`
}

// HRResponse is the heart-rate series of a test.
type HRResponse struct {
	TestID string `json:"test_id"`
	ekg.HRSeries
}

// Health reports that the service is up.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": h.now().UTC(),
	})
}

// ListPatients lists patients, filtered by ?q= when given.
func (h *Handler) ListPatients(c *gin.Context) {
	limit, err := intQuery(c, "limit", 0)
	if err == nil && limit < 0 {
		err = fmt.Errorf("limit must not be negative, got %d", limit)
	}
	if err != nil {
		badRequest(c, "invalid limit", err)
		return
	}

	var patients []model.Patient
	if q := c.Query("q"); q != "" {
		patients, err = h.store.SearchPatients(c.Request.Context(), store.SearchParams{Query: q, Limit: limit})
	} else {
		patients, err = h.store.ListPatients(c.Request.Context(), store.ListParams{Limit: limit})
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	if patients == nil {
		patients = []model.Patient{}
	}
	c.JSON(http.StatusOK, patients)
}

// GetPatient returns a patient with tests, age and maximum heart rate.
func (h *Handler) GetPatient(c *gin.Context) {
	p, err := h.store.GetPatient(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewProfile(*p, h.now()))
}

// Analysis analyzes the recording of a test.
func (h *Handler) Analysis(c *gin.Context) {
	params, ok := h.peakParams(c)
	if !ok {
		return
	}
	a, ok := h.testAnalyzer(c)
	if !ok {
		return
	}
	res, err := report.Analyze(a, params, 0)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, AnalysisResponse{TestID: c.Param("id"), Result: res, Peaks: a.PeakOverlay()})
}

// Report returns the full report of a test.
func (h *Handler) Report(c *gin.Context) {
	params, ok := h.peakParams(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	t, err := h.store.GetTest(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	p, err := h.store.GetPatient(ctx, t.PatientID)
	if err != nil {
		h.fail(c, err)
		return
	}
	rec, err := loader.Load(t.ResultPath)
	if err != nil {
		h.fail(c, err)
		return
	}
	res, err := report.Analyze(ekg.NewAnalyzer(rec), params, 0)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report.New(*p, *t, res, h.now()))
}

// HeartRate returns the instantaneous heart rate of a test, limited to
// ?start= and ?end= seconds when given.
func (h *Handler) HeartRate(c *gin.Context) {
	series, ok := h.series(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, HRResponse{TestID: c.Param("id"), HRSeries: series})
}

// StripPlot renders the leading strip of a test as PNG.
func (h *Handler) StripPlot(c *gin.Context) {
	params, ok := h.peakParams(c)
	if !ok {
		return
	}
	a, ok := h.testAnalyzer(c)
	if !ok {
		return
	}
	peaks, err := a.DetectPeaks(params)
	if err != nil {
		h.fail(c, err)
		return
	}
	var buf bytes.Buffer
	if err := plot.Strip(&buf, a.Recording(), peaks, h.plot); err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// HeartRatePlot renders the heart-rate trend of a test as PNG.
func (h *Handler) HeartRatePlot(c *gin.Context) {
	series, ok := h.series(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := plot.HeartRate(&buf, series, h.plot); err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// Analyze analyzes a recording posted as tab-separated text.
func (h *Handler) Analyze(c *gin.Context) {
	params, ok := h.peakParams(c)
	if !ok {
		return
	}
	rec, err := loader.Parse(c.Request.Body)
	if err != nil {
		badRequest(c, "invalid recording", err)
		return
	}
	res, err := report.Analyze(ekg.NewAnalyzer(rec), params, 0)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) series(c *gin.Context) (ekg.HRSeries, bool) {
	params, ok := h.peakParams(c)
	if !ok {
		return ekg.HRSeries{}, false
	}
	start, err := floatQuery(c, "start", math.Inf(-1))
	if err != nil || math.IsNaN(start) {
		badRequest(c, "invalid start", errOr(err, "start is not a number"))
		return ekg.HRSeries{}, false
	}
	end, err := floatQuery(c, "end", math.Inf(1))
	if err != nil || math.IsNaN(end) {
		badRequest(c, "invalid end", errOr(err, "end is not a number"))
		return ekg.HRSeries{}, false
	}

	a, ok := h.testAnalyzer(c)
	if !ok {
		return ekg.HRSeries{}, false
	}
	if _, err := a.DetectPeaks(params); err != nil {
		h.fail(c, err)
		return ekg.HRSeries{}, false
	}
	series := a.InstantaneousHR().Between(start, end)
	return series, true
}

// testAnalyzer loads the recording of the test named by :id.
func (h *Handler) testAnalyzer(c *gin.Context) (*ekg.Analyzer, bool) {
	t, err := h.store.GetTest(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	rec, err := loader.Load(t.ResultPath)
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return ekg.NewAnalyzer(rec), true
}

// peakParams reads ?distance= and ?height= over the handler defaults.
func (h *Handler) peakParams(c *gin.Context) (ekg.PeakParams, bool) {
	p := h.defaults
	var err error
	if p.MinDistance, err = intQuery(c, "distance", p.MinDistance); err != nil {
		badRequest(c, "invalid distance", err)
		return p, false
	}
	if p.MinHeight, err = floatQuery(c, "height", p.MinHeight); err != nil {
		badRequest(c, "invalid height", err)
		return p, false
	}
	if err := p.Validate(); err != nil {
		badRequest(c, "invalid peak parameters", err)
		return p, false
	}
	return p, true
}

// fail maps err to a status code and writes the error body.
func (h *Handler) fail(c *gin.Context, err error) {
	var parseErr *loader.ParseError
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Details: err.Error()})
	case errors.Is(err, os.ErrNotExist):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "recording file not found", Details: err.Error()})
	case errors.Is(err, ekg.ErrInvalidPeakDistance), errors.Is(err, ekg.ErrInvalidPeakHeight):
		badRequest(c, "invalid peak parameters", err)
	case errors.Is(err, plot.ErrNoData):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "nothing to plot", Details: err.Error()})
	case errors.As(err, &parseErr), errors.Is(err, loader.ErrEmpty), errors.Is(err, ekg.ErrInvalidRecording):
		h.log.Warn("stored recording is invalid", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "invalid recording", Details: err.Error()})
	default:
		h.log.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error", Details: err.Error()})
	}
}

func errOr(err error, msg string) error {
	if err != nil {
		return err
	}
	return errors.New(msg)
}

func badRequest(c *gin.Context, msg string, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg, Details: err.Error()})
}

func intQuery(c *gin.Context, key string, def int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func floatQuery(c *gin.Context, key string, def float64) (float64, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	return strconv.ParseFloat(v, 64)
}
