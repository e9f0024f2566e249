package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// defaultWindowDelta is the half-width of the confidence window derived when
// the upstream range is missing or malformed.
const defaultWindowDelta = 0.05

// unknownFactor is the fallback name for adjustments without a label.
const unknownFactor = "Unknown"

// NormalizeForecast converts an upstream 200 payload of either known shape
// into the canonical ForecastResult. It never fails: garbage input degrades
// field by field to neutral values, per the fallback rules in the package
// documentation.
func NormalizeForecast(payload []byte) ForecastResult {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		fields = nil
	}

	if nested, ok := fields["response"]; ok {
		return normalizeNested(nested, fields["rationale"])
	}
	return normalizeFlat(fields)
}

// normalizeFlat handles payloads that already use canonical field names.
// Well-formed input passes through untouched apart from clamping.
func normalizeFlat(fields map[string]json.RawMessage) ForecastResult {
	probability, _ := fractionValue(fields["final_probability"])

	low, okLow := fractionValue(fields["confidence_range_low"])
	high, okHigh := fractionValue(fields["confidence_range_high"])
	if !okLow || !okHigh {
		low, high = defaultWindow(probability)
	}

	baseline, ok := fractionValue(fields["baseline_value"])
	if !ok {
		baseline = probability
	}

	explanation, _ := stringValue(fields["full_explanation"])

	return ForecastResult{
		FinalProbability:    clamp01(probability),
		ConfidenceRangeLow:  clamp01(low),
		ConfidenceRangeHigh: clamp01(high),
		BaselineValue:       clamp01(baseline),
		TerrainAdjustments:  flatAdjustments(fields["terrain_adjustments"]),
		FullExplanation:     explanation,
	}
}

// normalizeNested handles the older shape: fields under "response" with a
// sibling "rationale", values percentage-encoded as strings.
func normalizeNested(nested, rationale json.RawMessage) ForecastResult {
	var resp map[string]json.RawMessage
	if err := json.Unmarshal(nested, &resp); err != nil {
		resp = nil
	}

	probability, _ := fractionValue(resp["final_probability"])

	low, high, ok := parseRange(resp["confidence_range"])
	if !ok {
		low, high = defaultWindow(probability)
	}

	baseline, ok := fractionValue(resp["baseline"])
	if !ok {
		baseline = probability
	}

	explanation, _ := stringValue(rationale)

	return ForecastResult{
		FinalProbability:    clamp01(probability),
		ConfidenceRangeLow:  clamp01(low),
		ConfidenceRangeHigh: clamp01(high),
		BaselineValue:       clamp01(baseline),
		TerrainAdjustments:  nestedAdjustments(resp["adjustments"]),
		FullExplanation:     explanation,
	}
}

// fractionValue interprets a JSON value as a probability fraction.
// Numbers are fractions as-is; strings are percentages ("73%" or "73")
// divided by 100. Returns false when the value is absent or unparseable.
func fractionValue(raw json.RawMessage) (float64, bool) {
	if isAbsent(raw) {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	v, ok := parsePercentNumber(s)
	if !ok {
		return 0, false
	}
	return v / 100, true
}

// stringValue decodes a JSON string, returning false for absent or
// non-string values.
func stringValue(raw json.RawMessage) (string, bool) {
	if isAbsent(raw) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// isAbsent reports whether a field is missing or explicitly null. JSON null
// unmarshals into scalars without error, so it needs its own check to count
// as "missing" for fallback purposes.
func isAbsent(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// parsePercentNumber parses a percentage-encoded string: optional leading
// "+", optional trailing "%". Returns the numeric value without dividing
// by 100.
func parsePercentNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimPrefix(s, "+")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseRange splits a "68%-82%" style range on its single "-" separator.
// Returns false when the field is missing, has no separator, or either
// side fails to parse.
func parseRange(raw json.RawMessage) (float64, float64, bool) {
	s, ok := stringValue(raw)
	if !ok {
		return 0, 0, false
	}
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	low, okLow := parsePercentNumber(parts[0])
	high, okHigh := parsePercentNumber(parts[1])
	if !okLow || !okHigh {
		return 0, 0, false
	}
	return low / 100, high / 100, true
}

// defaultWindow derives a ±5pp confidence window around the probability,
// clipped to [0, 1].
func defaultWindow(probability float64) (float64, float64) {
	return max(0, probability-defaultWindowDelta), min(1, probability+defaultWindowDelta)
}

// flatAdjustments decodes a canonical terrain_adjustments list. A list that
// does not decode yields an empty (non-nil) slice.
func flatAdjustments(raw json.RawMessage) []AdjustmentDetail {
	adjustments := make([]AdjustmentDetail, 0)
	if len(raw) == 0 {
		return adjustments
	}
	var decoded []AdjustmentDetail
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return adjustments
	}
	for _, a := range decoded {
		if a.FactorName == "" {
			a.FactorName = unknownFactor
		}
		adjustments = append(adjustments, a)
	}
	return adjustments
}

// nestedAdjustments decodes the older {label, impact} list. Malformed
// entries never abort the list: they zero-default, preserving order and
// length so callers still see every factor the upstream reported.
func nestedAdjustments(raw json.RawMessage) []AdjustmentDetail {
	adjustments := make([]AdjustmentDetail, 0)
	if len(raw) == 0 {
		return adjustments
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return adjustments
	}

	for _, entry := range entries {
		var decoded struct {
			Label  string `json:"label"`
			Impact string `json:"impact"`
		}
		// Entries that fail to decode fall through with zero values.
		_ = json.Unmarshal(entry, &decoded)

		name := decoded.Label
		if name == "" {
			name = unknownFactor
		}
		// Impact stays a percentage point: "+5.2%" → 5.2, not 0.052.
		impact, _ := parsePercentNumber(decoded.Impact)

		adjustments = append(adjustments, AdjustmentDetail{
			FactorName:           name,
			AdjustmentPercentage: impact,
		})
	}
	return adjustments
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
