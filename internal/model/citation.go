package model

import "fmt"

// CitationKind categorizes a citation segment
type CitationKind string

const (
	KindCase         CitationKind = "case"            // reported court decision
	KindStatute      CitationKind = "statute"         // statutory provision
	KindArticle      CitationKind = "article"         // journal or law review article
	KindBook         CitationKind = "book"            // book or treatise
	KindSupra        CitationKind = "supra-reference" // short-form pointing back to a full citation
	KindID           CitationKind = "id-reference"    // id. short form for the immediately preceding source
	KindWeb          CitationKind = "web"             // web source
	KindUnclassified CitationKind = "unclassified"
)

// Citation is one individually-addressable citation unit inside a footnote.
// Created by the segmenter; never mutated after creation.
type Citation struct {
	FootnoteNum int          `json:"footnote_num"`
	CitationNum int          `json:"citation_num"` // 1-based position within the footnote
	FullText    string       `json:"full_text"`
	Kind        CitationKind `json:"kind"`
}

// Ref returns the stable identifier used by checkpoints and reports.
func (c Citation) Ref() string {
	return fmt.Sprintf("fn%d.c%d", c.FootnoteNum, c.CitationNum)
}

// Footnote is one numbered footnote as read from a source document, before
// segmentation into citations.
type Footnote struct {
	Num  int    `json:"num"`
	Text string `json:"text"`
}
