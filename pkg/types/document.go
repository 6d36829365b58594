// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Article is a raw news article as handed over by the scraper, before
// candidate extraction.
type Article struct {
	// ID identifies the article within its source file (e.g. "articles.csv:12").
	ID string `json:"id" yaml:"id"`

	// Title is the article headline, when known.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// URL is the article source URL, when known.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Content is the article body text.
	Content string `json:"content" yaml:"content"`
}

// Document is one article's text together with its candidate phrases,
// keyed by category label (e.g. "VULN"). It is immutable once loaded.
type Document struct {
	// ID identifies the document for diagnostics and provenance.
	ID string `json:"id" yaml:"id"`

	// Text is the document body. All offsets produced while tagging the
	// document are byte offsets into this string.
	Text string `json:"text" yaml:"text"`

	// Phrases holds the raw candidate phrases per category. Values may
	// contain duplicates, blanks or short entries; they are normalized
	// before matching.
	Phrases map[string][]string `json:"phrases" yaml:"phrases"`
}

// Sentence is a trimmed slice of a document with its absolute start offset.
type Sentence struct {
	Text  string `json:"text" yaml:"text"`
	Start int    `json:"start" yaml:"start"`
}

// End returns the absolute end offset of the sentence (exclusive).
func (s Sentence) End() int {
	return s.Start + len(s.Text)
}

// Token is an atomic unit of a sentence with absolute [Start, End) offsets.
type Token struct {
	Text  string `json:"text" yaml:"text"`
	Start int    `json:"start" yaml:"start"`
	End   int    `json:"end" yaml:"end"`
}

// Span is an absolute character range in a document matched to one category.
type Span struct {
	Start    int    `json:"start" yaml:"start"`
	End      int    `json:"end" yaml:"end"`
	Category string `json:"category" yaml:"category"`
}

// Overlaps reports whether the span shares at least one position with
// the range [start, end).
func (s Span) Overlaps(start, end int) bool {
	return !(end <= s.Start || start >= s.End)
}
