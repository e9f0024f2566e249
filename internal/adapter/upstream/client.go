// Package upstream implements the outbound client for the Wildebeast
// forecast service, including transport error classification.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/wildebeast/forecast-gateway/internal/config"
	"github.com/wildebeast/forecast-gateway/internal/domain"
	"github.com/wildebeast/forecast-gateway/internal/observability"
)

// Client implements domain.Forecaster against the Wildebeast HTTP API.
// It issues exactly one POST per call with no retries; the fixed timeout
// lives on the embedded http.Client so it bounds every call the same way.
type Client struct {
	token       string
	authScheme  string
	questionKey string
	baseURL     string
	timeout     time.Duration
	httpClient  *http.Client
	metrics     *observability.Metrics
	logger      *slog.Logger
}

// NewClient creates a forecast service client from config.
func NewClient(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		token:       cfg.UpstreamToken,
		authScheme:  cfg.UpstreamAuthScheme,
		questionKey: cfg.UpstreamQuestionKey,
		baseURL:     cfg.UpstreamURL,
		timeout:     cfg.UpstreamTimeout,
		httpClient: &http.Client{
			Timeout: cfg.UpstreamTimeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// Forecast posts the question to the forecast service and returns the raw
// response body on HTTP 200. Every failure comes back as a classified
// *domain.Error.
func (c *Client) Forecast(ctx context.Context, question string) ([]byte, error) {
	body, err := json.Marshal(map[string]string{c.questionKey: question})
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setCredential(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.UpstreamDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		classified := c.classifyTransport(err)
		c.logger.Warn("forecast service call failed", "kind", classified.Kind, "error", err)
		return nil, classified
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues("transport").Inc()
		return nil, &domain.Error{
			Kind:    domain.ErrUnavailable,
			Message: "failed to read forecast service response: " + err.Error(),
		}
	}

	if resp.StatusCode != http.StatusOK {
		c.metrics.UpstreamRequests.WithLabelValues("http_error").Inc()
		c.logger.Warn("forecast service returned error status", "status", resp.StatusCode)
		return nil, &domain.Error{
			Kind:           domain.ErrForecastService,
			Message:        extractUpstreamMessage(payload, resp.StatusCode),
			UpstreamStatus: resp.StatusCode,
		}
	}

	c.metrics.UpstreamRequests.WithLabelValues("success").Inc()
	return payload, nil
}

// setCredential attaches the pre-shared secret using the configured scheme.
func (c *Client) setCredential(req *http.Request) {
	if c.authScheme == config.AuthSchemeBearer {
		req.Header.Set("Authorization", "Bearer "+c.token)
		return
	}
	req.Header.Set("X-Api-Key", c.token)
}

// classifyTransport maps a failed Do call to the error taxonomy: timeouts
// become timeout_error, everything that failed before a response becomes
// service_unavailable.
func (c *Client) classifyTransport(err error) *domain.Error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		c.metrics.UpstreamRequests.WithLabelValues("timeout").Inc()
		return &domain.Error{
			Kind: domain.ErrTimeout,
			Message: fmt.Sprintf(
				"request to forecast service timed out after %s; the service may be overloaded", c.timeout),
			TimeoutSeconds: c.timeout.Seconds(),
		}
	}
	c.metrics.UpstreamRequests.WithLabelValues("transport").Inc()
	return &domain.Error{
		Kind:    domain.ErrUnavailable,
		Message: "failed to connect to forecast service: " + err.Error(),
	}
}

// extractUpstreamMessage pulls a human-readable error out of a non-200
// body, best effort: the "error", "message", and "detail" fields in that
// priority order, then the stringified JSON body, then the raw text.
func extractUpstreamMessage(body []byte, status int) string {
	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err == nil {
		for _, key := range []string{"error", "message", "detail"} {
			v, ok := decoded[key]
			if !ok || v == nil {
				continue
			}
			if s, ok := v.(string); ok {
				if s != "" {
					return s
				}
				continue
			}
			return fmt.Sprintf("%v", v)
		}
		if stringified, err := json.Marshal(decoded); err == nil {
			return string(stringified)
		}
	}

	if text := bytes.TrimSpace(body); len(text) > 0 {
		return string(text)
	}
	return fmt.Sprintf("forecast service request failed with status code %d", status)
}
