// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bio

import (
	"strings"

	"github.com/pdiddy/ner-corpus/pkg/types"
)

// Mention is an entity recovered from a labeled sequence.
type Mention struct {
	Category string `json:"category" yaml:"category"`

	// Text is the mention's tokens joined by single spaces.
	Text string `json:"text" yaml:"text"`

	// First and Last are the token indexes of the mention, inclusive.
	First int `json:"first" yaml:"first"`
	Last  int `json:"last" yaml:"last"`
}

// Decode recovers the entity mentions of seq. B- opens a mention, an I- of
// the same category extends it, an I- of another category closes the open
// mention and is itself discarded, and O closes the open mention.
func Decode(seq types.TaggedSequence) []Mention {
	var (
		out   []Mention
		cur   Mention
		words []string
		open  bool
	)
	flush := func() {
		if open && len(words) > 0 {
			cur.Text = strings.TrimSpace(strings.Join(words, " "))
			if cur.Text != "" {
				out = append(out, cur)
			}
		}
		open, words = false, nil
	}

	for i, t := range seq.Tokens {
		prefix, cat := Parse(t.Label)
		switch {
		case prefix == PrefixBegin:
			flush()
			cur = Mention{Category: cat, First: i, Last: i}
			words = []string{t.Token}
			open = true
		case prefix == PrefixInside && open && cat == cur.Category:
			words = append(words, t.Token)
			cur.Last = i
		default:
			flush()
		}
	}
	flush()
	return out
}

// Group collects mention texts per category, in mention order.
func Group(mentions []Mention) map[string][]string {
	out := make(map[string][]string)
	for _, m := range mentions {
		out[m.Category] = append(out[m.Category], m.Text)
	}
	return out
}
