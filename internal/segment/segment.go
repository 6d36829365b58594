// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package segment splits document text into sentences and sentences into
// tokens, keeping every piece anchored to its absolute byte offset in the
// document.
package segment

import (
	"fmt"
	"iter"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dlclark/regexp2"

	"github.com/pdiddy/ner-corpus/pkg/types"
)

// DefaultTerminators are the sentence delimiters used when none are
// configured: runs of terminal punctuation, runs of newlines, and the
// Korean declarative ending followed by a period.
var DefaultTerminators = []string{`[.?!]+`, `\n+`, `다\.`}

// Segmenter splits text into sentences. It is safe for concurrent use.
type Segmenter struct {
	re *regexp2.Regexp
}

// New compiles a Segmenter for the given terminator alternatives. Each
// terminator is a regular expression; an empty list uses
// DefaultTerminators.
func New(terminators []string) (*Segmenter, error) {
	if len(terminators) == 0 {
		terminators = DefaultTerminators
	}
	for _, t := range terminators {
		if t == "" {
			return nil, fmt.Errorf("empty sentence terminator")
		}
	}
	expr := `(?s)(.+?)(?:` + strings.Join(terminators, "|") + `)\s*`
	re, err := regexp2.Compile(expr, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("compiling sentence terminators: %w", err)
	}
	return &Segmenter{re: re}, nil
}

var defaultSegmenter = func() *Segmenter {
	s, err := New(nil)
	if err != nil {
		panic(err)
	}
	return s
}()

// Default returns the Segmenter for DefaultTerminators.
func Default() *Segmenter { return defaultSegmenter }

// Sentences yields the sentences of text in order. Each sentence is
// trimmed of surrounding whitespace and its Start is the byte offset of its
// first non-space character, so text[s.Start:s.End()] == s.Text. Text that
// follows the last delimiter is yielded as a final sentence. Blank pieces
// are skipped. The sequence can be ranged over more than once.
func (g *Segmenter) Sentences(text string) iter.Seq[types.Sentence] {
	return func(yield func(types.Sentence) bool) {
		t := NewText(text)
		pos := 0
		for m := range t.Matches(g.re) {
			start, end := t.Bytes(m.Index, m.Length)
			if s, ok := trimmed(text, start, end); ok && !yield(s) {
				return
			}
			pos = end
		}
		if pos < len(text) {
			if s, ok := trimmed(text, pos, len(text)); ok {
				yield(s)
			}
		}
	}
}

// Split collects Sentences into a slice.
func (g *Segmenter) Split(text string) []types.Sentence {
	var out []types.Sentence
	for s := range g.Sentences(text) {
		out = append(out, s)
	}
	return out
}

// trimmed returns text[start:end] without surrounding whitespace, anchored
// at its first non-space byte.
func trimmed(text string, start, end int) (types.Sentence, bool) {
	seg := text[start:end]
	lead := len(seg) - len(strings.TrimLeftFunc(seg, unicode.IsSpace))
	body := strings.TrimRightFunc(seg[lead:], unicode.IsSpace)
	if body == "" {
		return types.Sentence{}, false
	}
	return types.Sentence{Text: body, Start: start + lead}, true
}

// IsWordRune reports whether r belongs to a word: a letter, a number, a
// combining mark or the underscore.
func IsWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsMark(r)
}

// IsSpaceRune reports whether r separates tokens and is never part of one.
func IsSpaceRune(r rune) bool {
	return unicode.IsSpace(r) || unicode.In(r, unicode.Z)
}

// Tokens yields the tokens of s: maximal runs of word runes, and single
// runes that are neither word runes nor whitespace. Offsets are absolute,
// so the document text satisfies text[t.Start:t.End] == t.Text.
func Tokens(s types.Sentence) iter.Seq[types.Token] {
	return func(yield func(types.Token) bool) {
		text := s.Text
		i := 0
		for i < len(text) {
			r, size := utf8.DecodeRuneInString(text[i:])
			switch {
			case IsSpaceRune(r):
				i += size
				continue
			case IsWordRune(r):
				j := i + size
				for j < len(text) {
					r2, sz := utf8.DecodeRuneInString(text[j:])
					if !IsWordRune(r2) {
						break
					}
					j += sz
				}
				if !yield(types.Token{Text: text[i:j], Start: s.Start + i, End: s.Start + j}) {
					return
				}
				i = j
			default:
				if !yield(types.Token{Text: text[i : i+size], Start: s.Start + i, End: s.Start + i + size}) {
					return
				}
				i += size
			}
		}
	}
}

// Tokenize collects Tokens into a slice.
func Tokenize(s types.Sentence) []types.Token {
	var out []types.Token
	for t := range Tokens(s) {
		out = append(out, t)
	}
	return out
}
