// Package model defines the core domain types used throughout the application.
package model

// Confidence is the qualitative trust level attached to a classification.
type Confidence string

// Confidence levels.
const (
	// ConfidenceHigh is reserved for deterministic rule matches.
	ConfidenceHigh Confidence = "high"
	// ConfidenceMedium is the default for model-derived results that
	// don't report their own confidence.
	ConfidenceMedium Confidence = "medium"
	// ConfidenceLow marks results produced by a failure fallback.
	ConfidenceLow Confidence = "low"
)

// CategoryOther is the universal fallback category. It is always a legal
// category value regardless of the configured category set.
const CategoryOther = "other"

// ClassificationResult is the output of every classification path.
// Category is never empty: it is either a member of the configured
// category set or CategoryOther.
type ClassificationResult struct {
	RecipientOrPayer *string    `json:"recipient_or_payer"`
	Category         string     `json:"category"`
	Confidence       Confidence `json:"confidence"`
}

// DefaultResult returns the low-confidence fallback used whenever a
// backend call or response parse fails.
func DefaultResult() ClassificationResult {
	return ClassificationResult{
		Category:   CategoryOther,
		Confidence: ConfidenceLow,
	}
}
