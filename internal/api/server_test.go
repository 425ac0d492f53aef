// SPDX-License-Identifier: Apache-2.0

package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardioproj/cardio-mcp/internal/history"
	"github.com/cardioproj/cardio-mcp/internal/report"
	"github.com/cardioproj/cardio-mcp/internal/risk"
	"github.com/cardioproj/cardio-mcp/internal/schema"
)

func newTestServer(t *testing.T, store *history.Store) *Server {
	t.Helper()
	reg, err := schema.Default()
	require.NoError(t, err)
	return NewServer(report.NewParser(reg), risk.NewScorer(), store, zerolog.Nop())
}

func newTestStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.NewStore(filepath.Join(t.TempDir(), "predictions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func validPatient() risk.PatientData {
	return risk.PatientData{
		Age:          54,
		Sex:          1,
		RestingBP:    140,
		Cholesterol:  250,
		MaxHeartRate: 150,
		OldPeak:      1.2,
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, false, body["history_enabled"])
	assert.Equal(t, Version, body["version"])
}

func TestModelInfoEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/model-info", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	weights, ok := body["ensemble_weights"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 0.40, weights["gradient"], 1e-9)
	assert.InDelta(t, 0.35, weights["forest"], 1e-9)
	assert.InDelta(t, 0.25, weights["network"], 1e-9)
}

func TestPredictEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/predict", validPatient(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Contains(t, body, "risk_score")
	assert.Contains(t, body, "risk_level")
	assert.Contains(t, body, "confidence")
}

func TestPredictEndpointRejectsMalformedJSON(t *testing.T) {
	srv := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/predict", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPredictEndpointRejectsOutOfRangePatient(t *testing.T) {
	srv := newTestServer(t, nil)

	patient := validPatient()
	patient.Age = 200
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/predict", patient, nil)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "age")
}

// Predictions carrying an X-User-Id header land in the history store and are
// readable back through /history.
func TestPredictPersistsHistory(t *testing.T) {
	store := newTestStore(t)
	srv := newTestServer(t, store)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/predict", validPatient(),
		map[string]string{"X-User-Id": "user-7"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv.Handler(), http.MethodGet, "/history/user-7", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, float64(1), body["count"])
	assert.Equal(t, "user-7", body["user_id"])
}

func TestBatchPredictEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/batch-predict",
		[]risk.PatientData{validPatient(), validPatient()}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, float64(2), body["count"])

	invalid := validPatient()
	invalid.Sex = 3
	rec = doJSON(t, srv.Handler(), http.MethodPost, "/batch-predict",
		[]risk.PatientData{invalid}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestParseReportEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/parse-report",
		map[string]string{"text": "Age: 45\nCholesterol: 230", "source_id": "doc-1"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "doc-1", body["source_id"])
	assert.Equal(t, float64(2), body["parsedCount"])
	assert.Equal(t, float64(0), body["unknownCount"])

	form, ok := body["formData"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 45.0, form["age"])
	assert.Equal(t, 230.0, form["cholesterol"])
}

func TestParseReportEndpointRequiresText(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/parse-report",
		map[string]string{"source_id": "doc-1"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryEndpoint(t *testing.T) {
	store := newTestStore(t)
	srv := newTestServer(t, store)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/history/nobody", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(0), body["count"])

	rec = doJSON(t, srv.Handler(), http.MethodGet, "/history/nobody?limit=abc", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryEndpointDisabledWithoutStore(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/history/user-1", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
