package model

// RuleSource identifies the namespace a rule was loaded from
type RuleSource string

const (
	SourceHouse  RuleSource = "house"  // organization-specific overrides, outrank the manual
	SourceManual RuleSource = "manual" // general style manual
)

// Rule is a single style rule record. Immutable once loaded; the id is
// unique within its source namespace.
type Rule struct {
	ID      string     `json:"id" yaml:"id"`
	Source  RuleSource `json:"source" yaml:"-"`
	Title   string     `json:"title" yaml:"title"`
	Section string     `json:"section,omitempty" yaml:"section"`
	Text    string     `json:"text" yaml:"text"`
	Tags    []string   `json:"tags,omitempty" yaml:"tags"`
}

// RuleMatch is one retrieval hit. Produced fresh per retrieval call,
// never cached across citations.
type RuleMatch struct {
	RuleID string     `json:"rule_id"`
	Source RuleSource `json:"source"`
	Score  int        `json:"score"`
}
