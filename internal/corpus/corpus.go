// Package corpus loads and indexes the versioned style-rule corpus. The
// corpus is immutable after Load returns and is safe to share across
// concurrent readers without locking.
package corpus

import (
	"fmt"

	"github.com/ruleproof/ruleproof/internal/model"
)

// LoadError reports a malformed or internally inconsistent corpus file.
// Corpus integrity is a load-time invariant, so this error is fatal at
// startup rather than recovered at runtime.
type LoadError struct {
	Path   string
	Reason string
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("rule corpus load: %s", e.Reason)
	}
	return fmt.Sprintf("rule corpus load %s: %s", e.Path, e.Reason)
}

// Corpus holds both rule namespaces plus the inverted index built at load
// time.
type Corpus struct {
	version string

	house  map[string]model.Rule
	manual map[string]model.Rule

	// id order is fixed at load so every scan is deterministic
	houseIDs  []string
	manualIDs []string

	index *Index
}

// Version returns the corpus version string, if the file carried one.
func (c *Corpus) Version() string { return c.version }

// Get returns the rule with the given id in the given namespace. O(1).
func (c *Corpus) Get(id string, source model.RuleSource) (model.Rule, bool) {
	rule, ok := c.namespace(source)[id]
	return rule, ok
}

// Size returns the number of rules in a namespace.
func (c *Corpus) Size(source model.RuleSource) int {
	return len(c.namespace(source))
}

// IDs returns the rule ids of a namespace in ascending order.
func (c *Corpus) IDs(source model.RuleSource) []string {
	if source == model.SourceHouse {
		return c.houseIDs
	}
	return c.manualIDs
}

// Index returns the read-only inverted index.
func (c *Corpus) Index() *Index { return c.index }

func (c *Corpus) namespace(source model.RuleSource) map[string]model.Rule {
	if source == model.SourceHouse {
		return c.house
	}
	return c.manual
}
