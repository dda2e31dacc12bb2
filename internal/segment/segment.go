package segment

import (
	"strings"
	"unicode"

	"github.com/ruleproof/ruleproof/internal/model"
)

// separator splits citations only when it occurs at quote depth 0 and
// bracket depth 0.
const separator = ';'

// depthTracker tracks quotation and bracket nesting across a rune scan.
// Curly quotes are paired by glyph (open increments, close decrements)
// instead of toggled, so apostrophes inside quoted text never open a
// phantom span. Straight single quotes are treated as apostrophes: legal
// text quotes with double or curly glyphs, and a contraction must not
// swallow the rest of the footnote.
type depthTracker struct {
	straightDouble bool
	curlyDouble    int
	curlySingle    int
	brackets       int
}

func (d *depthTracker) observe(prev, r, next rune) {
	switch r {
	case '"':
		d.straightDouble = !d.straightDouble
	case '“': // left curly double
		d.curlyDouble++
	case '”': // right curly double
		if d.curlyDouble > 0 {
			d.curlyDouble--
		}
	case '‘': // left curly single
		d.curlySingle++
	case '’': // right curly single, also the curly apostrophe
		if d.curlySingle > 0 && !(unicode.IsLetter(prev) && unicode.IsLetter(next)) {
			d.curlySingle--
		}
	case '(', '[':
		d.brackets++
	case ')', ']':
		if d.brackets > 0 {
			d.brackets--
		}
	}
}

func (d *depthTracker) topLevel() bool {
	return !d.straightDouble && d.curlyDouble == 0 && d.curlySingle == 0 && d.brackets == 0
}

// Split divides raw footnote text on top-level separators and trims each
// piece. Empty pieces are dropped, so a trailing separator leaves no trace
// and irregular spacing around separators is normalized away. An
// unterminated quote or bracket is not an error: depth simply never returns
// to zero, so the remainder is emitted as the final segment.
func Split(raw string) []string {
	var segments []string
	var tracker depthTracker

	runes := []rune(raw)
	start := 0
	for i, r := range runes {
		var prev, next rune
		if i > 0 {
			prev = runes[i-1]
		}
		if i+1 < len(runes) {
			next = runes[i+1]
		}

		if r == separator && tracker.topLevel() {
			if piece := strings.TrimSpace(string(runes[start:i])); piece != "" {
				segments = append(segments, piece)
			}
			start = i + 1
			continue
		}
		tracker.observe(prev, r, next)
	}

	if piece := strings.TrimSpace(string(runes[start:])); piece != "" {
		segments = append(segments, piece)
	}

	return segments
}

// Segment splits raw footnote text into ordered, classified citation units.
func Segment(raw string, footnoteNum int) []model.Citation {
	pieces := Split(raw)
	citations := make([]model.Citation, 0, len(pieces))
	for i, piece := range pieces {
		citations = append(citations, model.Citation{
			FootnoteNum: footnoteNum,
			CitationNum: i + 1,
			FullText:    piece,
			Kind:        Classify(piece),
		})
	}
	return citations
}

// Rejoin reverses Split for canonical input only: text whose segments are
// separated by "; " with no trailing separator round-trips exactly. Anything
// Split normalizes away, such as a trailing separator or extra spacing, is
// not reproduced.
func Rejoin(segments []string) string {
	return strings.Join(segments, string(separator)+" ")
}
