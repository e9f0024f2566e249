package upstream

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wildebeast/forecast-gateway/internal/config"
	"github.com/wildebeast/forecast-gateway/internal/domain"
	"github.com/wildebeast/forecast-gateway/internal/observability"
)

const testToken = "test-render-token"

func testClient(baseURL string) *Client {
	return &Client{
		token:       testToken,
		authScheme:  config.AuthSchemeAPIKey,
		questionKey: config.QuestionKeyQuestion,
		baseURL:     baseURL,
		timeout:     5 * time.Second,
		httpClient:  &http.Client{Timeout: 5 * time.Second},
		metrics:     observability.NewMetricsForTesting(),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestClient_Forecast_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, testToken, r.Header.Get("X-Api-Key"))
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Will the herd cross the Mara river?", body["question"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"final_probability": 0.73}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	payload, err := c.Forecast(context.Background(), "Will the herd cross the Mara river?")
	require.NoError(t, err)
	assert.JSONEq(t, `{"final_probability": 0.73}`, string(payload))
}

func TestClient_Forecast_BearerSchemeAndMessageKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer "+testToken, r.Header.Get("Authorization"))
		assert.Empty(t, r.Header.Get("X-Api-Key"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "any question", body["message"])

		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.authScheme = config.AuthSchemeBearer
	c.questionKey = config.QuestionKeyMessage

	_, err := c.Forecast(context.Background(), "any question")
	require.NoError(t, err)
}

func TestClient_Forecast_Non200IsForecastServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"detail": "model warming up"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Forecast(context.Background(), "q")
	require.Error(t, err)

	var classified *domain.Error
	require.ErrorAs(t, err, &classified)
	assert.Equal(t, domain.ErrForecastService, classified.Kind)
	assert.Equal(t, http.StatusServiceUnavailable, classified.UpstreamStatus)
	assert.Equal(t, "model warming up", classified.Message)
}

func TestClient_Forecast_TimeoutIsClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.timeout = 50 * time.Millisecond
	c.httpClient = &http.Client{Timeout: 50 * time.Millisecond}

	_, err := c.Forecast(context.Background(), "q")
	require.Error(t, err)

	var classified *domain.Error
	require.ErrorAs(t, err, &classified)
	assert.Equal(t, domain.ErrTimeout, classified.Kind)
	assert.InDelta(t, 0.05, classified.TimeoutSeconds, 1e-9)
	assert.Contains(t, classified.Message, "overloaded")
	assert.Contains(t, classified.Message, "50ms")
}

func TestClient_Forecast_ConnectionRefusedIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	srv.Close() // nothing listens anymore

	c := testClient(srv.URL)
	_, err := c.Forecast(context.Background(), "q")
	require.Error(t, err)

	var classified *domain.Error
	require.ErrorAs(t, err, &classified)
	assert.Equal(t, domain.ErrUnavailable, classified.Kind)
	assert.Contains(t, classified.Message, "failed to connect to forecast service")
}

func TestExtractUpstreamMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"error field wins", `{"error": "bad thing", "message": "ignored", "detail": "ignored"}`, "bad thing"},
		{"message before detail", `{"message": "try later", "detail": "ignored"}`, "try later"},
		{"detail as fallback field", `{"detail": "quota exceeded"}`, "quota exceeded"},
		{"non-string field stringified", `{"detail": {"code": 42}}`, "map[code:42]"},
		{"no known fields stringifies body", `{"status": "down"}`, `{"status":"down"}`},
		{"plain text body", `upstream exploded`, "upstream exploded"},
		{"empty body falls back to status", ``, "forecast service request failed with status code 502"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractUpstreamMessage([]byte(tt.body), 502))
		})
	}
}
