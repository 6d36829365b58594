// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package phrase cleans the candidate phrase lists attached to documents
// before they are matched against document text.
package phrase

import (
	"cmp"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MinRunes is the shortest phrase, in characters, that is ever matched.
const MinRunes = 2

// Normalize turns a raw candidate list into a clean one: non-string
// entries are dropped, strings are trimmed, entries shorter than MinRunes
// are removed, duplicates are collapsed, and the result is ordered by
// descending character length so longer phrases claim text first. Ties are
// broken by ascending byte order, which keeps the output deterministic.
func Normalize(raw []any) []string {
	return normalize(raw, false)
}

// NormalizeNFC is Normalize with each phrase converted to Unicode NFC
// first. Use it when document text is NFC-normalized too, otherwise the
// composed and decomposed forms of the same word never match.
func NormalizeNFC(raw []any) []string {
	return normalize(raw, true)
}

// Strings is Normalize for a list that is already typed.
func Strings(raw []string) []string {
	items := make([]any, len(raw))
	for i, s := range raw {
		items[i] = s
	}
	return Normalize(items)
}

func normalize(raw []any, nfc bool) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if nfc {
			s = norm.NFC.String(s)
		}
		if utf8.RuneCountInString(s) < MinRunes {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	slices.SortFunc(out, func(a, b string) int {
		if c := cmp.Compare(utf8.RuneCountInString(b), utf8.RuneCountInString(a)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	return out
}
