// Package domain models the canonical forecast schema and the rules for
// deriving it from the Wildebeast forecast API.
//
// # Upstream Contract
//
// The Wildebeast API has shipped two incompatible response shapes across
// versions, so the gateway treats the payload as untrusted and normalizes
// defensively rather than binding to one schema.
//
// Flat shape (newer deployments):
//
//	{
//	  "final_probability": 0.73,
//	  "confidence_range_low": 0.68,
//	  "confidence_range_high": 0.82,
//	  "baseline_value": 0.70,
//	  "terrain_adjustments": [{"factor_name": "X", "adjustment_percentage": 5.2}],
//	  "full_explanation": "..."
//	}
//
// Nested shape (older deployments):
//
//	{
//	  "response": {
//	    "final_probability": "73%",
//	    "confidence_range": "68%-82%",
//	    "baseline": "70%",
//	    "adjustments": [{"label": "X", "impact": "+5.2%"}]
//	  },
//	  "rationale": "..."
//	}
//
// # Value Encoding
//
// JSON numbers are fractions and pass through untouched. JSON strings are
// percentage-encoded: a trailing "%" and a leading "+" are stripped, the
// remainder is parsed as a float and divided by 100. Adjustment impacts are
// the one deliberate exception: they are stored as percentage points and
// never divided by 100, in either encoding.
//
// # Fallbacks
//
// Once the upstream answered 200, a malformed payload must never fail the
// request. Every field parse has an explicit neutral fallback:
//
//	final_probability  →  0.0
//	confidence_range   →  [max(0, p-0.05), min(1, p+0.05)]
//	baseline           →  final_probability (assume no adjustment)
//	adjustment entry   →  {factor_name: "Unknown", adjustment_percentage: 0}
//	rationale          →  ""
//
// All four probability-like outputs are clamped to [0, 1] regardless of
// what the upstream sent.
package domain
