package domain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// ForecastQuestion is the inbound request body. Question is the only field
// and must be non-empty; the gateway does not inspect its content.
type ForecastQuestion struct {
	Question string `json:"question"`
}

// AdjustmentDetail is a named factor that shifted the baseline probability.
// AdjustmentPercentage is a signed percentage point (5.2 means +5.2pp),
// not a fraction.
type AdjustmentDetail struct {
	FactorName           string  `json:"factor_name"`
	AdjustmentPercentage float64 `json:"adjustment_percentage"`
}

// ForecastResult is the canonical response the gateway guarantees to its
// callers regardless of which upstream shape produced it. The four
// probability fields are always fractions in [0, 1]. TerrainAdjustments
// preserves upstream order and is never null in JSON.
type ForecastResult struct {
	FinalProbability    float64            `json:"final_probability"`
	ConfidenceRangeLow  float64            `json:"confidence_range_low"`
	ConfidenceRangeHigh float64            `json:"confidence_range_high"`
	BaselineValue       float64            `json:"baseline_value"`
	TerrainAdjustments  []AdjustmentDetail `json:"terrain_adjustments"`
	FullExplanation     string             `json:"full_explanation"`
}

// Forecaster obtains a raw forecast payload for a question. Implementations
// return the upstream response body on HTTP 200 and a classified *Error on
// any failure.
type Forecaster interface {
	Forecast(ctx context.Context, question string) ([]byte, error)
}

// AuditRecord captures one answered forecast for the optional audit stream.
type AuditRecord struct {
	ID         string         `json:"id"`
	Question   string         `json:"question"`
	Result     ForecastResult `json:"result"`
	AnsweredAt time.Time      `json:"answered_at"`
}

// AuditPublisher emits answered forecasts to an external sink.
type AuditPublisher interface {
	Publish(ctx context.Context, rec AuditRecord) error
}

// NewAuditRecord builds an audit record for an answered question, stamped
// with the package clock.
func NewAuditRecord(question string, result ForecastResult) AuditRecord {
	return AuditRecord{
		ID:         auditID(question),
		Question:   question,
		Result:     result,
		AnsweredAt: clock.Now().UTC(),
	}
}

// auditID derives a deterministic short ID from the question text, so audit
// consumers can group repeat questions by key without coordination.
func auditID(question string) string {
	hash := sha256.Sum256([]byte(question))
	return "forecast-" + hex.EncodeToString(hash[:8])
}
