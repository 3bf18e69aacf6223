package classifier

import (
	"encoding/json"
	"strings"

	"github.com/tallyfold/tallyfold/internal/model"
)

// rawResult is the JSON shape the backend is asked to produce. Pointer
// fields distinguish absent from empty.
type rawResult struct {
	Category         *string `json:"category"`
	RecipientOrPayer *string `json:"recipient_or_payer"`
	Confidence       *string `json:"confidence"`
}

// parseResponse turns raw model output into a ClassificationResult.
// Tolerates markdown code fences and prose around the JSON object. Any
// unrecoverable shape problem yields the default result.
func (c *Classifier) parseResponse(raw string) model.ClassificationResult {
	payload := extractJSON(stripFences(raw), '{', '}')
	if payload == "" {
		c.logger.Warn("no JSON object found in backend response")
		return model.DefaultResult()
	}

	var parsed rawResult
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		c.logger.Warn("failed to decode backend response", "error", err)
		return model.DefaultResult()
	}

	return c.normalize(parsed)
}

// parseBatchResponse turns raw model output into exactly expected
// results. Short arrays are padded with defaults and long ones
// truncated, so the batch length invariant holds unconditionally.
func (c *Classifier) parseBatchResponse(raw string, expected int) []model.ClassificationResult {
	defaults := func() []model.ClassificationResult {
		results := make([]model.ClassificationResult, expected)
		for i := range results {
			results[i] = model.DefaultResult()
		}
		return results
	}

	payload := extractJSON(stripFences(raw), '[', ']')
	if payload == "" {
		c.logger.Warn("no JSON array found in batch response", "expected", expected)
		return defaults()
	}

	var parsed []rawResult
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		c.logger.Warn("failed to decode batch response", "error", err, "expected", expected)
		return defaults()
	}

	if len(parsed) != expected {
		c.logger.Warn("batch response length mismatch",
			"expected", expected,
			"got", len(parsed))
	}

	results := make([]model.ClassificationResult, 0, expected)
	for i := 0; i < expected && i < len(parsed); i++ {
		results = append(results, c.normalize(parsed[i]))
	}
	for len(results) < expected {
		results = append(results, model.DefaultResult())
	}
	return results
}

// normalize applies the field validation rules: category membership,
// "null"-string coercion, and confidence defaulting.
func (c *Classifier) normalize(parsed rawResult) model.ClassificationResult {
	result := model.ClassificationResult{
		Category:   model.CategoryOther,
		Confidence: model.ConfidenceMedium,
	}

	if parsed.Category != nil {
		if _, ok := c.categorySet[*parsed.Category]; ok {
			result.Category = *parsed.Category
		}
	}

	if parsed.RecipientOrPayer != nil {
		// Models sometimes emit the string "null" instead of JSON null.
		// Empty strings are treated the same way: a recipient with no
		// content carries no information.
		if !strings.EqualFold(*parsed.RecipientOrPayer, "null") && *parsed.RecipientOrPayer != "" {
			value := *parsed.RecipientOrPayer
			result.RecipientOrPayer = &value
		}
	}

	if parsed.Confidence != nil {
		switch model.Confidence(strings.ToLower(*parsed.Confidence)) {
		case model.ConfidenceHigh:
			result.Confidence = model.ConfidenceHigh
		case model.ConfidenceMedium:
			result.Confidence = model.ConfidenceMedium
		case model.ConfidenceLow:
			result.Confidence = model.ConfidenceLow
		}
	}

	return result
}

// stripFences removes a wrapping markdown code fence, with or without a
// language tag.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	// Drop the language tag on the opening fence line, if any.
	if i := strings.IndexByte(s, '\n'); i >= 0 && len(strings.TrimSpace(s[:i])) <= 8 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// extractJSON returns the first balanced open..close span in s, skipping
// matching inside JSON string literals. Empty when no balanced span
// exists.
func extractJSON(s string, open, close byte) string {
	start := strings.IndexByte(s, open)
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		ch := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
