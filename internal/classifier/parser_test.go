package classifier

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tallyfold/tallyfold/internal/model"
)

func newParserClassifier(t *testing.T) *Classifier {
	t.Helper()

	c := New(&mockClient{}, Config{
		Categories: []string{"groceries", "fuel", "medical", "salary", "subscriptions", "other"},
	}, slog.Default())
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		wantRecipient  *string
		name           string
		raw            string
		wantCategory   string
		wantConfidence model.Confidence
	}{
		{
			name:           "valid json",
			raw:            `{"category": "groceries", "recipient_or_payer": "Woolworths", "confidence": "high"}`,
			wantCategory:   "groceries",
			wantRecipient:  strPtr("Woolworths"),
			wantConfidence: model.ConfidenceHigh,
		},
		{
			name:           "json wrapped in markdown fence",
			raw:            "```json\n{\"category\": \"fuel\", \"recipient_or_payer\": null, \"confidence\": \"medium\"}\n```",
			wantCategory:   "fuel",
			wantConfidence: model.ConfidenceMedium,
		},
		{
			name:           "bare fence without language tag",
			raw:            "```\n{\"category\": \"fuel\", \"recipient_or_payer\": null, \"confidence\": \"medium\"}\n```",
			wantCategory:   "fuel",
			wantConfidence: model.ConfidenceMedium,
		},
		{
			name:           "json surrounded by prose",
			raw:            `Here is the result: {"category": "medical", "recipient_or_payer": "Dr Smith", "confidence": "high"} Hope this helps!`,
			wantCategory:   "medical",
			wantRecipient:  strPtr("Dr Smith"),
			wantConfidence: model.ConfidenceHigh,
		},
		{
			name:           "not json at all",
			raw:            "This is not valid JSON",
			wantCategory:   "other",
			wantConfidence: model.ConfidenceLow,
		},
		{
			name:           "empty response",
			raw:            "",
			wantCategory:   "other",
			wantConfidence: model.ConfidenceLow,
		},
		{
			name:           "truncated json",
			raw:            `{"category": "fuel", "recipient_or_payer`,
			wantCategory:   "other",
			wantConfidence: model.ConfidenceLow,
		},
		{
			name:           "invalid category coerced to other",
			raw:            `{"category": "invalid_category", "recipient_or_payer": null, "confidence": "high"}`,
			wantCategory:   "other",
			wantConfidence: model.ConfidenceHigh,
		},
		{
			name:           "missing category",
			raw:            `{"recipient_or_payer": "Somebody", "confidence": "high"}`,
			wantCategory:   "other",
			wantRecipient:  strPtr("Somebody"),
			wantConfidence: model.ConfidenceHigh,
		},
		{
			name:           "string null recipient coerced to absent",
			raw:            `{"category": "fuel", "recipient_or_payer": "null", "confidence": "high"}`,
			wantCategory:   "fuel",
			wantConfidence: model.ConfidenceHigh,
		},
		{
			name:           "empty string recipient coerced to absent",
			raw:            `{"category": "fuel", "recipient_or_payer": "", "confidence": "high"}`,
			wantCategory:   "fuel",
			wantConfidence: model.ConfidenceHigh,
		},
		{
			name:           "missing confidence defaults to medium",
			raw:            `{"category": "fuel", "recipient_or_payer": null}`,
			wantCategory:   "fuel",
			wantConfidence: model.ConfidenceMedium,
		},
		{
			name:           "unrecognized confidence defaults to medium",
			raw:            `{"category": "fuel", "recipient_or_payer": null, "confidence": "very sure"}`,
			wantCategory:   "fuel",
			wantConfidence: model.ConfidenceMedium,
		},
		{
			name:           "brace inside string literal",
			raw:            `{"category": "fuel", "recipient_or_payer": "ACME {Group}", "confidence": "high"}`,
			wantCategory:   "fuel",
			wantRecipient:  strPtr("ACME {Group}"),
			wantConfidence: model.ConfidenceHigh,
		},
	}

	c := newParserClassifier(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := c.parseResponse(tt.raw)

			assert.Equal(t, tt.wantCategory, result.Category)
			assert.Equal(t, tt.wantConfidence, result.Confidence)
			if tt.wantRecipient == nil {
				assert.Nil(t, result.RecipientOrPayer)
			} else {
				require.NotNil(t, result.RecipientOrPayer)
				assert.Equal(t, *tt.wantRecipient, *result.RecipientOrPayer)
			}
		})
	}
}

func TestParseBatchResponse(t *testing.T) {
	c := newParserClassifier(t)

	t.Run("valid array", func(t *testing.T) {
		raw := `[{"category": "groceries", "recipient_or_payer": "Shop"}, {"category": "fuel", "recipient_or_payer": null}]`
		results := c.parseBatchResponse(raw, 2)

		require.Len(t, results, 2)
		assert.Equal(t, "groceries", results[0].Category)
		require.NotNil(t, results[0].RecipientOrPayer)
		assert.Equal(t, "Shop", *results[0].RecipientOrPayer)
		assert.Equal(t, "fuel", results[1].Category)
		assert.Nil(t, results[1].RecipientOrPayer)
	})

	t.Run("array wrapped in markdown fence", func(t *testing.T) {
		raw := "```json\n[{\"category\": \"fuel\", \"recipient_or_payer\": null}]\n```"
		results := c.parseBatchResponse(raw, 1)

		require.Len(t, results, 1)
		assert.Equal(t, "fuel", results[0].Category)
	})

	t.Run("invalid json yields defaults", func(t *testing.T) {
		results := c.parseBatchResponse("not json", 3)

		require.Len(t, results, 3)
		for _, r := range results {
			assert.Equal(t, "other", r.Category)
			assert.Equal(t, model.ConfidenceLow, r.Confidence)
		}
	})

	t.Run("short array padded with defaults", func(t *testing.T) {
		raw := `[{"category": "fuel", "recipient_or_payer": null}]`
		results := c.parseBatchResponse(raw, 3)

		require.Len(t, results, 3)
		assert.Equal(t, "fuel", results[0].Category)
		assert.Equal(t, "other", results[1].Category)
		assert.Equal(t, model.ConfidenceLow, results[1].Confidence)
		assert.Equal(t, "other", results[2].Category)
	})

	t.Run("long array truncated", func(t *testing.T) {
		raw := `[{"category": "fuel", "recipient_or_payer": null}, {"category": "groceries", "recipient_or_payer": null}, {"category": "other", "recipient_or_payer": null}]`
		results := c.parseBatchResponse(raw, 2)

		require.Len(t, results, 2)
		assert.Equal(t, "fuel", results[0].Category)
		assert.Equal(t, "groceries", results[1].Category)
	})

	t.Run("invalid category defaults to other", func(t *testing.T) {
		raw := `[{"category": "invalid_cat", "recipient_or_payer": null}]`
		results := c.parseBatchResponse(raw, 1)

		require.Len(t, results, 1)
		assert.Equal(t, "other", results[0].Category)
	})

	t.Run("string null recipient coerced to absent", func(t *testing.T) {
		raw := `[{"category": "fuel", "recipient_or_payer": "null"}]`
		results := c.parseBatchResponse(raw, 1)

		require.Len(t, results, 1)
		assert.Nil(t, results[0].RecipientOrPayer)
	})

	t.Run("object instead of array yields defaults", func(t *testing.T) {
		results := c.parseBatchResponse(`{"category": "fuel"}`, 2)

		require.Len(t, results, 2)
		for _, r := range results {
			assert.Equal(t, "other", r.Category)
			assert.Equal(t, model.ConfidenceLow, r.Confidence)
		}
	})

	t.Run("array surrounded by prose", func(t *testing.T) {
		raw := `Sure! Here are the classifications: [{"category": "fuel", "recipient_or_payer": null}] Let me know if you need anything else.`
		results := c.parseBatchResponse(raw, 1)

		require.Len(t, results, 1)
		assert.Equal(t, "fuel", results[0].Category)
	})
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fence", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounding whitespace", "  ```json\n{\"a\": 1}\n```  ", `{"a": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripFences(tt.in))
		})
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		open  byte
		close byte
		want  string
	}{
		{"bare object", `{"a": 1}`, '{', '}', `{"a": 1}`},
		{"nested object", `x {"a": {"b": 2}} y`, '{', '}', `{"a": {"b": 2}}`},
		{"close brace in string", `{"a": "}"}`, '{', '}', `{"a": "}"}`},
		{"escaped quote in string", `{"a": "say \"hi\""}`, '{', '}', `{"a": "say \"hi\""}`},
		{"array", `noise [1, 2, [3]] trailing`, '[', ']', `[1, 2, [3]]`},
		{"unbalanced", `{"a": 1`, '{', '}', ``},
		{"missing", `no json`, '{', '}', ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.in, tt.open, tt.close))
		})
	}
}

func strPtr(s string) *string { return &s }
