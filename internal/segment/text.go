// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package segment

import (
	"iter"

	"github.com/dlclark/regexp2"
)

// Text is a document prepared for regexp2 matching. regexp2 reports
// positions in runes; Text maps them back to byte offsets.
type Text struct {
	s     string
	runes []rune
	offs  []int
}

// NewText wraps s. The rune index is built on first use.
func NewText(s string) *Text {
	return &Text{s: s}
}

// String returns the wrapped text.
func (t *Text) String() string { return t.s }

func (t *Text) index() {
	if t.runes != nil {
		return
	}
	t.runes = make([]rune, 0, len(t.s))
	t.offs = make([]int, 0, len(t.s)+1)
	for i, r := range t.s {
		t.runes = append(t.runes, r)
		t.offs = append(t.offs, i)
	}
	t.offs = append(t.offs, len(t.s))
}

// Bytes converts a rune index and length to a [start, end) byte range.
func (t *Text) Bytes(index, length int) (int, int) {
	t.index()
	return t.offs[index], t.offs[index+length]
}

// Matches yields the successive non-overlapping matches of re in t, left
// to right. Assertions such as \b see the whole text, not just the
// unmatched rest.
func (t *Text) Matches(re *regexp2.Regexp) iter.Seq[*regexp2.Match] {
	return func(yield func(*regexp2.Match) bool) {
		t.index()
		m, err := re.FindRunesMatch(t.runes)
		for ; m != nil && err == nil; m, err = re.FindNextMatch(m) {
			if !yield(m) {
				return
			}
		}
	}
}
