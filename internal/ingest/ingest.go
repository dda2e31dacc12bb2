// Package ingest reads footnotes out of source documents. It accepts plain
// text with numbered footnote markers and HTML footnote sections; anything
// else is treated as one footnote per paragraph.
package ingest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/ruleproof/ruleproof/internal/model"
)

// markerPat matches a footnote marker at the start of a line: "12.", "12)",
// "12:", or "[12]".
var markerPat = regexp.MustCompile(`^\s*\[?(\d{1,4})[.):\]]\s+(\S.*)$`)

// FromFile reads footnotes from a document, dispatching on extension.
func FromFile(path string) ([]model.Footnote, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return FromHTML(f)
	default:
		return FromText(f)
	}
}

// FromText parses numbered footnotes from plain text. A line beginning with
// a footnote marker starts a new footnote; following unmarked lines belong
// to it. When the input carries no markers at all, each blank-line-separated
// paragraph becomes a footnote, numbered by position.
func FromText(r io.Reader) ([]model.Footnote, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	marked := false
	for _, line := range lines {
		if markerPat.MatchString(line) {
			marked = true
			break
		}
	}
	if !marked {
		return byParagraph(lines), nil
	}

	var notes []model.Footnote
	var current *model.Footnote

	for _, line := range lines {
		if m := markerPat.FindStringSubmatch(line); m != nil {
			num, _ := strconv.Atoi(m[1])
			if current != nil {
				notes = append(notes, *current)
			}
			current = &model.Footnote{Num: num, Text: strings.TrimSpace(m[2])}
			continue
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || current == nil {
			continue // prologue before the first marker is not a footnote
		}
		current.Text += " " + trimmed
	}
	if current != nil {
		notes = append(notes, *current)
	}
	return notes, nil
}

func byParagraph(lines []string) []model.Footnote {
	var notes []model.Footnote
	var buf []string

	flush := func() {
		if len(buf) == 0 {
			return
		}
		notes = append(notes, model.Footnote{
			Num:  len(notes) + 1,
			Text: strings.Join(buf, " "),
		})
		buf = buf[:0]
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			flush()
			continue
		}
		buf = append(buf, trimmed)
	}
	flush()
	return notes
}
