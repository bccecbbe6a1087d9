package webserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spboyer/splitlab/internal/engine"
	"github.com/spboyer/splitlab/internal/models"
)

func newTestController(t *testing.T) *engine.Controller {
	t.Helper()
	ctrl, err := engine.New(&models.ExperimentSpec{
		Name:           "hero-copy",
		Variants:       []string{"control", "treatment"},
		TrafficSplit:   0.5,
		MinSampleSize:  10,
		MaxDurationSec: 3600,
	})
	require.NoError(t, err)
	return ctrl
}

func newTestServer(t *testing.T, ctrl *engine.Controller) http.Handler {
	t.Helper()
	srv, err := New(Config{
		Port:       0,
		NoBrowser:  true,
		Controller: ctrl,
	})
	require.NoError(t, err)
	return srv.Handler()
}

func TestNewRequiresController(t *testing.T) {
	_, err := New(Config{NoBrowser: true})
	require.Error(t, err)
}

func TestHealthEndpoint(t *testing.T) {
	handler := newTestServer(t, newTestController(t))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	err := json.Unmarshal(rec.Body.Bytes(), &body)
	require.NoError(t, err)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "hero-copy", body["experiment"])
	assert.Equal(t, string(engine.StateAwaitingAssignment), body["state"])
}

func TestMetricsEndpoint(t *testing.T) {
	ctrl := newTestController(t)
	_, err := ctrl.EnterExperiment("user-1")
	require.NoError(t, err)
	_, err = ctrl.EnterExperiment("user-2")
	require.NoError(t, err)

	handler := newTestServer(t, ctrl)

	req := httptest.NewRequest(http.MethodGet, "/api/metrics", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]models.VariantMetrics
	err = json.Unmarshal(rec.Body.Bytes(), &body)
	require.NoError(t, err)
	require.Contains(t, body, "control")
	require.Contains(t, body, "treatment")

	var impressions int64
	for _, m := range body {
		impressions += m.Impressions
	}
	assert.Equal(t, int64(2), impressions)
}

func TestSignificanceEndpoint(t *testing.T) {
	handler := newTestServer(t, newTestController(t))

	req := httptest.NewRequest(http.MethodGet, "/api/significance", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body models.SignificanceResult
	err := json.Unmarshal(rec.Body.Bytes(), &body)
	require.NoError(t, err)
	assert.Equal(t, 0.0, body.Confidence)
	assert.Empty(t, body.Winner)
}

func TestResultEndpoint(t *testing.T) {
	ctrl := newTestController(t)
	handler := newTestServer(t, ctrl)

	// Still running: no result yet.
	req := httptest.NewRequest(http.MethodGet, "/api/result", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	ctrl.Abort()

	req = httptest.NewRequest(http.MethodGet, "/api/result", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	var result models.ExperimentResult
	err := json.Unmarshal(rec.Body.Bytes(), &result)
	require.NoError(t, err)
	assert.Equal(t, "hero-copy", result.Name)
	assert.Equal(t, models.CompletionAborted, result.Reason)
}

func TestReportEndpointWhileRunning(t *testing.T) {
	ctrl := newTestController(t)
	_, err := ctrl.EnterExperiment("user-1")
	require.NoError(t, err)

	handler := newTestServer(t, ctrl)

	req := httptest.NewRequest(http.MethodGet, "/report", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "hero-copy")
}

func TestReportEndpointAfterCompletion(t *testing.T) {
	ctrl := newTestController(t)
	ctrl.Abort()

	handler := newTestServer(t, ctrl)

	req := httptest.NewRequest(http.MethodGet, "/report", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hero-copy")
}

func TestIndexPage(t *testing.T) {
	handler := newTestServer(t, newTestController(t))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "splitlab")
	assert.Contains(t, rec.Body.String(), "hero-copy")
}

func TestUnknownAPIEndpointReturnsNotImplemented(t *testing.T) {
	handler := newTestServer(t, newTestController(t))

	req := httptest.NewRequest(http.MethodGet, "/api/nothing", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}
