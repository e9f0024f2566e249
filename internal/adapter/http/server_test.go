package http_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/wildebeast/forecast-gateway/internal/adapter/http"
	"github.com/wildebeast/forecast-gateway/internal/domain"
	"github.com/wildebeast/forecast-gateway/internal/observability"
)

type mockHandler struct {
	result   domain.ForecastResult
	err      error
	question string
}

func (m *mockHandler) Forecast(_ context.Context, question string) (domain.ForecastResult, error) {
	m.question = question
	if m.err != nil {
		return domain.ForecastResult{}, m.err
	}
	return m.result, nil
}

func newTestServer(h *mockHandler) *httpadapter.Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return httpadapter.NewServer(":0", h, 30*time.Second, observability.NewMetricsForTesting(), logger)
}

func postForecast(srv *httpadapter.Server, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/forecast", strings.NewReader(body))
	srv.ServeHTTP(rec, req)
	return rec
}

func TestForecastReturnsCanonicalResult(t *testing.T) {
	handler := &mockHandler{result: domain.ForecastResult{
		FinalProbability:    0.73,
		ConfidenceRangeLow:  0.68,
		ConfidenceRangeHigh: 0.82,
		BaselineValue:       0.70,
		TerrainAdjustments:  []domain.AdjustmentDetail{{FactorName: "X", AdjustmentPercentage: 5.2}},
		FullExplanation:     "looks good",
	}}
	srv := newTestServer(handler)

	rec := postForecast(srv, `{"question": "will the herd cross?"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "will the herd cross?", handler.question)
	assert.JSONEq(t, `{
		"final_probability": 0.73,
		"confidence_range_low": 0.68,
		"confidence_range_high": 0.82,
		"baseline_value": 0.70,
		"terrain_adjustments": [{"factor_name": "X", "adjustment_percentage": 5.2}],
		"full_explanation": "looks good"
	}`, rec.Body.String())
}

func TestForecastRejectsMissingQuestion(t *testing.T) {
	srv := newTestServer(&mockHandler{})

	for _, body := range []string{`{}`, `{"question": ""}`, `{"question": "   "}`, `not json`} {
		rec := postForecast(srv, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body=%s", body)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), "body=%s", body)
		assert.Equal(t, "validation_error", resp["error"])
		assert.NotEmpty(t, resp["message"])
	}
}

func TestForecastMapsUpstreamErrorTo500(t *testing.T) {
	srv := newTestServer(&mockHandler{err: &domain.Error{
		Kind:           domain.ErrForecastService,
		Message:        "model warming up",
		UpstreamStatus: http.StatusServiceUnavailable,
	}})

	rec := postForecast(srv, `{"question": "q"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "forecast_service_error", resp["error"])
	assert.Equal(t, "model warming up", resp["message"])
	assert.Equal(t, float64(http.StatusServiceUnavailable), resp["status_code"])
}

func TestForecastMapsTimeoutTo504(t *testing.T) {
	srv := newTestServer(&mockHandler{err: &domain.Error{
		Kind:           domain.ErrTimeout,
		Message:        "request to forecast service timed out after 30s; the service may be overloaded",
		TimeoutSeconds: 30,
	}})

	rec := postForecast(srv, `{"question": "q"}`)

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "timeout_error", resp["error"])
	assert.Equal(t, float64(30), resp["timeout_seconds"])
}

func TestForecastMapsTransportFailureTo503(t *testing.T) {
	srv := newTestServer(&mockHandler{err: &domain.Error{
		Kind:    domain.ErrUnavailable,
		Message: "failed to connect to forecast service: dial tcp: connection refused",
	}})

	rec := postForecast(srv, `{"question": "q"}`)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "service_unavailable", resp["error"])
	assert.Contains(t, resp["message"], "connection refused")
}

func TestForecastWrapsUnclassifiedErrorAsInternal(t *testing.T) {
	srv := newTestServer(&mockHandler{err: assert.AnError})

	rec := postForecast(srv, `{"question": "q"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "internal_error", resp["error"])
	assert.Contains(t, resp["message"], "unexpected error")
}

func TestHealthReturns200(t *testing.T) {
	srv := newTestServer(&mockHandler{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "forecast-gateway", body["service"])
}

func TestRootListsEndpoints(t *testing.T) {
	srv := newTestServer(&mockHandler{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Service   string            `json:"service"`
		Status    string            `json:"status"`
		Endpoints map[string]string `json:"endpoints"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "forecast-gateway", body.Service)
	assert.Equal(t, "operational", body.Status)
	assert.Equal(t, "/api/v1/forecast", body.Endpoints["forecast"])
	assert.Equal(t, "/health", body.Endpoints["health"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(&mockHandler{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestForecastGetIsNotAllowed(t *testing.T) {
	srv := newTestServer(&mockHandler{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/forecast", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
