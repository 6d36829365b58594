// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package span locates the occurrences of candidate phrases in document
// text and turns them into non-overlapping category spans.
package span

import (
	"iter"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
	gocache "github.com/patrickmn/go-cache"

	"github.com/pdiddy/ner-corpus/internal/phrase"
	"github.com/pdiddy/ner-corpus/internal/segment"
	"github.com/pdiddy/ner-corpus/pkg/types"
)

// MatchMode selects how a phrase is searched for.
type MatchMode int

const (
	// ModeSubstring matches the phrase exactly, case-sensitively, anywhere.
	ModeSubstring MatchMode = iota

	// ModeBoundary matches the phrase case-insensitively and only where both
	// ends sit on a word boundary.
	ModeBoundary
)

func (m MatchMode) String() string {
	if m == ModeBoundary {
		return "boundary"
	}
	return "substring"
}

// Mode returns the match mode for p: boundary-aware when p contains an
// ASCII letter or digit, plain substring otherwise. Substring mode lets a
// Korean noun match when a particle is attached to it.
func Mode(p string) MatchMode {
	for i := 0; i < len(p); i++ {
		switch c := p[i]; {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
			return ModeBoundary
		}
	}
	return ModeSubstring
}

// CompileBoundary compiles a case-insensitive pattern matching the literal
// p only between Unicode word boundaries.
func CompileBoundary(p string) (*regexp2.Regexp, error) {
	return regexp2.Compile(`\b`+regexp2.Escape(p)+`\b`, regexp2.IgnoreCase)
}

const (
	patternTTL     = 30 * time.Minute
	patternCleanup = time.Hour
)

// Finder finds phrase spans. Compiled case-insensitive patterns are cached
// and shared, so one Finder should serve every document and worker. A
// Finder is safe for concurrent use.
type Finder struct {
	patterns *gocache.Cache
}

// NewFinder creates a Finder with an empty pattern cache.
func NewFinder() *Finder {
	return &Finder{patterns: gocache.New(patternTTL, patternCleanup)}
}

// pattern returns the compiled boundary pattern for p.
func (f *Finder) pattern(p string) (*regexp2.Regexp, error) {
	if v, ok := f.patterns.Get(p); ok {
		return v.(*regexp2.Regexp), nil
	}
	re, err := CompileBoundary(p)
	if err != nil {
		return nil, err
	}
	f.patterns.SetDefault(p, re)
	return re, nil
}

// CachedPatterns returns the number of compiled patterns held.
func (f *Finder) CachedPatterns() int {
	return f.patterns.ItemCount()
}

// Find returns the spans of category in text. Phrases are tried in the
// given order, which should be longest first (see phrase.Normalize): each
// occurrence is accepted only when none of its bytes is claimed by an
// earlier acceptance, so the returned spans never overlap. The result is
// ordered by start offset.
func (f *Finder) Find(text string, phrases []string, category string) []types.Span {
	if text == "" || len(phrases) == 0 {
		return nil
	}
	t := segment.NewText(text)
	occupied := make([]bool, len(text))
	var spans []types.Span
	for _, p := range phrases {
		if utf8.RuneCountInString(p) < phrase.MinRunes {
			continue
		}
		for s, e := range f.scan(t, p) {
			if slices.Contains(occupied[s:e], true) {
				continue
			}
			for i := s; i < e; i++ {
				occupied[i] = true
			}
			spans = append(spans, types.Span{Start: s, End: e, Category: category})
		}
	}
	slices.SortFunc(spans, func(a, b types.Span) int { return a.Start - b.Start })
	return spans
}

// Occurrences returns every non-overlapping occurrence of p in text under
// p's match mode, without any claim bookkeeping. The spans carry no
// category.
func (f *Finder) Occurrences(text, p string) []types.Span {
	var out []types.Span
	if utf8.RuneCountInString(p) < phrase.MinRunes {
		return out
	}
	for s, e := range f.scan(segment.NewText(text), p) {
		out = append(out, types.Span{Start: s, End: e})
	}
	return out
}

// Contains reports whether p occurs in t under its match mode.
func (f *Finder) Contains(t *segment.Text, p string) bool {
	for range f.scan(t, p) {
		return true
	}
	return false
}

// scan yields the [start, end) byte offsets of the occurrences of p, left
// to right, each search resuming where the previous occurrence ended.
func (f *Finder) scan(t *segment.Text, p string) iter.Seq2[int, int] {
	if p == "" {
		return func(func(int, int) bool) {}
	}
	text := t.String()
	if Mode(p) == ModeSubstring {
		return func(yield func(int, int) bool) {
			pos := 0
			for pos < len(text) {
				i := strings.Index(text[pos:], p)
				if i < 0 {
					return
				}
				i += pos
				if !yield(i, i+len(p)) {
					return
				}
				pos = i + len(p)
			}
		}
	}

	re, err := f.pattern(p)
	if err != nil {
		return func(func(int, int) bool) {}
	}
	return func(yield func(int, int) bool) {
		for m := range t.Matches(re) {
			if m.Length == 0 {
				continue
			}
			if !yield(t.Bytes(m.Index, m.Length)) {
				return
			}
		}
	}
}
