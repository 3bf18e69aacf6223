package classifier

import (
	"fmt"
	"strings"

	"github.com/tallyfold/tallyfold/internal/model"
)

// buildPrompt creates the single-transaction classification prompt.
func (c *Classifier) buildPrompt(description string, amount float64) string {
	return fmt.Sprintf(`Classify this bank transaction into one of the allowed categories.

Transaction:
Description: %s
Amount: %.2f (negative = money out, positive = money in)

Allowed categories:
%s
Respond with ONLY a JSON object in this exact format:
{"category": "<one of the allowed categories>", "recipient_or_payer": "<counterparty name or null>", "confidence": "<high|medium|low>"}

Use the category "other" if none of the allowed categories fit.`,
		description,
		amount,
		c.categoryList())
}

// buildBatchPrompt creates the combined prompt for one chunk of
// transactions. The response must be a JSON array in the same order as
// the numbered list.
func (c *Classifier) buildBatchPrompt(txns []model.ClassifyInput) string {
	var list strings.Builder
	for i, txn := range txns {
		fmt.Fprintf(&list, "%d. Description: %s | Amount: %.2f\n", i+1, txn.Description, txn.Amount)
	}

	return fmt.Sprintf(`Classify each of these %d bank transactions into one of the allowed categories.

Transactions:
%s
Allowed categories:
%s
Respond with ONLY a JSON array containing exactly %d objects, one per transaction, in the same order as listed:
[{"category": "<one of the allowed categories>", "recipient_or_payer": "<counterparty name or null>"}, ...]

Use the category "other" if none of the allowed categories fit.`,
		len(txns),
		list.String(),
		c.categoryList(),
		len(txns))
}

func (c *Classifier) categoryList() string {
	var sb strings.Builder
	for _, cat := range c.categories {
		fmt.Fprintf(&sb, "- %s\n", cat)
	}
	if _, ok := c.categorySet[model.CategoryOther]; ok && !contains(c.categories, model.CategoryOther) {
		fmt.Fprintf(&sb, "- %s\n", model.CategoryOther)
	}
	return sb.String()
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
