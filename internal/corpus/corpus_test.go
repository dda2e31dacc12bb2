package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruleproof/ruleproof/internal/model"
)

const validCorpus = `
version: "2026.1"
house:
  - id: "1.1"
    title: Quotation marks
    section: Typography
    text: Use curly quotation marks in all citations and quoted material.
    tags: [quotation, typography]
  - id: "1.2"
    title: Case name connectors
    section: Cases
    text: A non-breaking space precedes the v. connector in case names.
    tags: [case, spacing]
manual:
  - id: "10.1"
    title: Reporter citations
    section: Cases
    text: Cite cases by volume, reporter abbreviation, and first page.
    tags: [case, reporter]
`

func writeCorpus(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Valid(t *testing.T) {
	c, err := Load(writeCorpus(t, validCorpus))
	require.NoError(t, err)

	assert.Equal(t, "2026.1", c.Version())
	assert.Equal(t, 2, c.Size(model.SourceHouse))
	assert.Equal(t, 1, c.Size(model.SourceManual))

	rule, ok := c.Get("1.2", model.SourceHouse)
	require.True(t, ok)
	assert.Equal(t, model.SourceHouse, rule.Source)
	assert.Equal(t, "Case name connectors", rule.Title)

	_, ok = c.Get("1.2", model.SourceManual)
	assert.False(t, ok, "house id must not leak into the manual namespace")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	var le *LoadError
	require.ErrorAs(t, err, &le)
}

func TestParse_MissingRequiredFields(t *testing.T) {
	cases := map[string]string{
		"missing id":    "house:\n  - title: T\n    text: body\n",
		"missing title": "house:\n  - id: \"1\"\n    text: body\n",
		"missing text":  "house:\n  - id: \"1\"\n    title: T\n",
		"empty corpus":  "version: \"1\"\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(content))
			var le *LoadError
			require.ErrorAs(t, err, &le)
		})
	}
}

func TestParse_DuplicateIDWithinNamespace(t *testing.T) {
	content := `
house:
  - {id: "1.1", title: A, text: first}
  - {id: "1.1", title: B, text: second}
`
	_, err := Parse([]byte(content))
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Contains(t, le.Error(), "duplicate id")
}

func TestParse_SameIDAcrossNamespacesAllowed(t *testing.T) {
	content := `
house:
  - {id: "1.1", title: A, text: house body}
manual:
  - {id: "1.1", title: B, text: manual body}
`
	c, err := Parse([]byte(content))
	require.NoError(t, err)
	h, _ := c.Get("1.1", model.SourceHouse)
	m, _ := c.Get("1.1", model.SourceManual)
	assert.Equal(t, "house body", h.Text)
	assert.Equal(t, "manual body", m.Text)
}

func TestIndex_Lookup(t *testing.T) {
	c, err := Parse([]byte(validCorpus))
	require.NoError(t, err)

	keys := c.Index().Lookup("quotation")
	require.Len(t, keys, 1)
	assert.Equal(t, RuleKey{Source: model.SourceHouse, ID: "1.1"}, keys[0])

	// "case" appears in house 1.2 (tags) and manual 10.1; house first.
	keys = c.Index().Lookup("case")
	require.Len(t, keys, 2)
	assert.Equal(t, model.SourceHouse, keys[0].Source)
	assert.Equal(t, model.SourceManual, keys[1].Source)

	assert.Empty(t, c.Index().Lookup("nonexistent"))
}

func TestTokenize(t *testing.T) {
	terms := Tokenize("The court's Non-Breaking space, § 12(b)", true)
	assert.Equal(t, []string{"court", "non", "breaking", "space", "12"}, terms)

	// broadened pass keeps stopwords and short tokens
	broad := Tokenize("the b c", false)
	assert.Equal(t, []string{"the", "b", "c"}, broad)
}
