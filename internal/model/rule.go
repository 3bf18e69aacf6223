package model

// Rule maps a short text pattern to a spending category. Rules are
// operator-authored configuration: the category is trusted verbatim and is
// not checked against the configured category set. A leading or trailing
// space in Pattern requires a word boundary on that side of the match.
type Rule struct {
	Pattern  string `json:"pattern"  mapstructure:"pattern"`
	Category string `json:"category" mapstructure:"category"`
}
