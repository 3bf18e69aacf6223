// Package rules implements the deterministic rule table consulted before
// any model call. Matching is case-insensitive and tolerant of statement
// text whose internal whitespace was lost during PDF extraction.
package rules

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tallyfold/tallyfold/internal/model"
)

// Matcher evaluates an ordered rule table against transaction
// descriptions. It is immutable after construction and safe for
// concurrent use.
type Matcher struct {
	rules []model.Rule
}

// NewMatcher creates a matcher over the given rules. Table order
// determines match priority: the first matching rule wins.
func NewMatcher(tableRules []model.Rule) *Matcher {
	rs := make([]model.Rule, len(tableRules))
	copy(rs, tableRules)
	return &Matcher{rules: rs}
}

// Rules returns a copy of the configured rule table.
func (m *Matcher) Rules() []model.Rule {
	rs := make([]model.Rule, len(m.rules))
	copy(rs, m.rules)
	return rs
}

// Match returns the category of the first rule whose pattern occurs in
// description, or ok=false when no rule matches.
func (m *Matcher) Match(description string) (string, bool) {
	desc := strings.ToLower(description)

	for _, rule := range m.rules {
		if matchesPattern(desc, strings.ToLower(rule.Pattern)) {
			return rule.Category, true
		}
	}
	return "", false
}

// matchesPattern reports whether pattern occurs in desc. Both arguments
// must already be lower-cased.
//
// A leading or trailing space on the pattern requires a word boundary on
// that side of the match: the occurrence must be preceded (followed) by
// whitespace or sit at the start (end) of the description. Patterns
// without boundary markers additionally fall back to a comparison with
// all whitespace stripped from both sides, so that "Google One" still
// matches "POSPurchaseGoogleOne12345". Boundary-marked patterns skip
// that fallback: once spaces are gone a boundary cannot be honored, and
// a "dr " rule must not fire inside "withdrawal".
func matchesPattern(desc, pattern string) bool {
	boundStart := strings.HasPrefix(pattern, " ")
	boundEnd := strings.HasSuffix(pattern, " ")
	core := strings.TrimSpace(pattern)
	if core == "" {
		return false
	}

	if boundStart || boundEnd {
		return containsBounded(desc, core, boundStart, boundEnd)
	}

	if strings.Contains(desc, core) {
		return true
	}
	return strings.Contains(stripSpace(desc), stripSpace(core))
}

// containsBounded searches desc for core, honoring boundary requirements
// on either side. It walks every occurrence: an interior hit that fails
// the boundary check must not mask a later hit that passes it.
func containsBounded(desc, core string, boundStart, boundEnd bool) bool {
	for from := 0; ; {
		i := strings.Index(desc[from:], core)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(core)

		startOK := !boundStart || start == 0 || spaceBefore(desc, start)
		endOK := !boundEnd || end == len(desc) || spaceAfter(desc, end)
		if startOK && endOK {
			return true
		}
		from = start + 1
	}
}

// spaceBefore reports whether the rune ending at byte offset i is
// whitespace. Decoding a full rune matters: the trailing byte of a
// multi-byte character such as "à" would otherwise read as U+00A0.
func spaceBefore(s string, i int) bool {
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return unicode.IsSpace(r)
}

func spaceAfter(s string, i int) bool {
	r, _ := utf8.DecodeRuneInString(s[i:])
	return unicode.IsSpace(r)
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
