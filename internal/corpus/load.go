package corpus

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/ruleproof/ruleproof/internal/model"
)

// corpusFile is the on-disk shape: one document, two top-level collections.
type corpusFile struct {
	Version string       `yaml:"version"`
	House   []model.Rule `yaml:"house"`
	Manual  []model.Rule `yaml:"manual"`
}

// Load parses a corpus file, validates every record, and builds the
// inverted index. It fails fast on missing required fields or duplicate ids
// within a namespace.
func Load(path string) (*Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Reason: err.Error()}
	}
	c, err := Parse(data)
	if err != nil {
		if le, ok := err.(*LoadError); ok {
			le.Path = path
		}
		return nil, err
	}
	return c, nil
}

// Parse builds a Corpus from raw YAML. Split out from Load so tests and the
// corpus lint command can feed bytes directly.
func Parse(data []byte) (*Corpus, error) {
	var file corpusFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, &LoadError{Reason: fmt.Sprintf("parse yaml: %v", err)}
	}
	if len(file.House) == 0 && len(file.Manual) == 0 {
		return nil, &LoadError{Reason: "no rules in either namespace"}
	}

	c := &Corpus{
		version: file.Version,
		house:   make(map[string]model.Rule, len(file.House)),
		manual:  make(map[string]model.Rule, len(file.Manual)),
	}

	if err := c.addAll(file.House, model.SourceHouse); err != nil {
		return nil, err
	}
	if err := c.addAll(file.Manual, model.SourceManual); err != nil {
		return nil, err
	}

	c.houseIDs = sortedIDs(c.house)
	c.manualIDs = sortedIDs(c.manual)
	c.index = buildIndex(c)

	return c, nil
}

func (c *Corpus) addAll(rules []model.Rule, source model.RuleSource) error {
	ns := c.namespace(source)
	for i, rule := range rules {
		switch {
		case rule.ID == "":
			return &LoadError{Reason: fmt.Sprintf("%s rule #%d: missing id", source, i+1)}
		case rule.Title == "":
			return &LoadError{Reason: fmt.Sprintf("%s rule %q: missing title", source, rule.ID)}
		case rule.Text == "":
			return &LoadError{Reason: fmt.Sprintf("%s rule %q: missing text", source, rule.ID)}
		}
		if _, dup := ns[rule.ID]; dup {
			return &LoadError{Reason: fmt.Sprintf("%s rule %q: duplicate id", source, rule.ID)}
		}
		rule.Source = source
		ns[rule.ID] = rule
	}
	return nil
}

func sortedIDs(rules map[string]model.Rule) []string {
	ids := make([]string, 0, len(rules))
	for id := range rules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
