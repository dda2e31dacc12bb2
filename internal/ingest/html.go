package ingest

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/ruleproof/ruleproof/internal/model"
)

// fnIDPat pulls a footnote number out of attributes like id="fn12" or
// id="footnote-12".
var fnIDPat = regexp.MustCompile(`(?i)(?:fn|footnote)[-_]?(\d{1,4})`)

// FromHTML parses footnotes from an HTML document. Elements whose id or
// class marks them as footnotes are read individually; a document without
// any marked footnotes falls back to the plain-text parser over its visible
// text.
func FromHTML(r io.Reader) ([]model.Footnote, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	nodes := footnoteNodes(doc)
	if len(nodes) == 0 {
		return FromText(strings.NewReader(visibleText(doc)))
	}

	notes := make([]model.Footnote, 0, len(nodes))
	next := 1
	for _, n := range nodes {
		num := numberFromAttrs(n)
		text := strings.TrimSpace(visibleText(n))

		// the rendered text may repeat the marker
		if m := markerPat.FindStringSubmatch(text); m != nil {
			if num == 0 {
				num, _ = strconv.Atoi(m[1])
			}
			text = strings.TrimSpace(m[2])
		}
		if num == 0 {
			num = next
		}
		if text == "" {
			continue
		}

		notes = append(notes, model.Footnote{Num: num, Text: text})
		next = num + 1
	}
	return notes, nil
}

// footnoteNodes collects the innermost elements marked as footnotes. List
// items under a marked list count as one footnote each.
func footnoteNodes(doc *html.Node) []*html.Node {
	var nodes []*html.Node

	var walk func(n *html.Node, inFootnoteList bool)
	walk = func(n *html.Node, inFootnoteList bool) {
		if n.Type == html.ElementNode {
			switch {
			case inFootnoteList && n.Data == "li":
				nodes = append(nodes, n)
				return
			case markedAsFootnote(n) && (n.Data == "ol" || n.Data == "ul"):
				inFootnoteList = true
			case markedAsFootnote(n) && (n.Data == "li" || n.Data == "p" || n.Data == "div" || n.Data == "span"):
				nodes = append(nodes, n)
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, inFootnoteList)
		}
	}
	walk(doc, false)
	return nodes
}

func markedAsFootnote(n *html.Node) bool {
	for _, attr := range n.Attr {
		if attr.Key != "id" && attr.Key != "class" {
			continue
		}
		val := strings.ToLower(attr.Val)
		if strings.Contains(val, "footnote") || fnIDPat.MatchString(attr.Val) {
			return true
		}
	}
	return false
}

func numberFromAttrs(n *html.Node) int {
	for _, attr := range n.Attr {
		if attr.Key != "id" && attr.Key != "name" {
			continue
		}
		if m := fnIDPat.FindStringSubmatch(attr.Val); m != nil {
			num, _ := strconv.Atoi(m[1])
			return num
		}
	}
	return 0
}

// visibleText extracts text nodes, skipping script, style, noscript and
// iframe subtrees.
func visibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if buf.Len() > 0 {
					buf.WriteString(" ")
				}
				buf.WriteString(text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return buf.String()
}
