package models

import "time"

// MatchType is how a rule pattern is compared with a description.
type MatchType string

const (
	MatchContains   MatchType = "CONTAINS"
	MatchStartsWith MatchType = "STARTS_WITH"
	MatchEndsWith   MatchType = "ENDS_WITH"
	MatchExact      MatchType = "EXACT"
	MatchRegex      MatchType = "REGEX"
)

// Valid reports whether m is one of the known match modes.
func (m MatchType) Valid() bool {
	switch m {
	case MatchContains, MatchStartsWith, MatchEndsWith, MatchExact, MatchRegex:
		return true
	}
	return false
}

// Category is a spending category owned by a family.
type Category struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Active bool   `json:"active" yaml:"active"`
}

// CategoryRule maps a description pattern to a category.
type CategoryRule struct {
	ID         string    `json:"id" yaml:"id"`
	CategoryID string    `json:"categoryId" yaml:"categoryId"`
	Pattern    string    `json:"pattern" yaml:"pattern"`
	MatchType  MatchType `json:"matchType" yaml:"matchType"`
	Channel    string    `json:"channel,omitempty" yaml:"channel,omitempty"` // optional filter
	Priority   int       `json:"priority" yaml:"priority"`
	Enabled    bool      `json:"enabled" yaml:"enabled"`
	CreatedAt  time.Time `json:"createdAt" yaml:"createdAt"`
}

// FamilyConfig is the snapshot of a family's categories and rules used
// for one categorization call.
type FamilyConfig struct {
	Categories []Category     `json:"categories" yaml:"categories"`
	Rules      []CategoryRule `json:"rules" yaml:"rules"`
}

// MatchSource records which stage of categorization decided.
type MatchSource string

const (
	SourceRule MatchSource = "RULE"
	SourceHint MatchSource = "HINT"
	SourceNone MatchSource = "NONE"
)

// CategorizeResult is the decision for one transaction.
type CategorizeResult struct {
	CategoryID  string // empty when Source is SourceNone
	Source      MatchSource
	Explanation string
}
