// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package bio assigns BIO labels to tokens from category spans and turns
// labeled tokens back into entity mentions.
package bio

import (
	"github.com/pdiddy/ner-corpus/pkg/types"
)

// Resolver labels tokens. When spans of several categories overlap a token
// the category that comes first in the priority order wins. A high
// priority span can therefore cut a longer lower priority mention short;
// this is the intended trade-off.
type Resolver struct {
	priority []string
}

// NewResolver returns a Resolver for the given priority order, highest
// first. Categories not in priority are never consulted.
func NewResolver(priority []string) *Resolver {
	return &Resolver{priority: append([]string(nil), priority...)}
}

// Priority returns the resolver's category order.
func (r *Resolver) Priority() []string {
	return append([]string(nil), r.priority...)
}

// Resolve returns one label per token, in token order. A token overlapping
// a span of the winning category gets B-<category> when it starts where
// the span starts and I-<category> otherwise; tokens outside every span get
// O. Within one category the earliest-starting overlapping span decides.
func (r *Resolver) Resolve(tokens []types.Token, spans map[string][]types.Span) types.TaggedSequence {
	seq := types.TaggedSequence{Tokens: make([]types.TaggedToken, len(tokens))}
	if len(tokens) > 0 {
		seq.Offset = tokens[0].Start
	}
	for i, tok := range tokens {
		seq.Tokens[i] = types.TaggedToken{Token: tok.Text, Label: r.label(tok, spans)}
	}
	return seq
}

func (r *Resolver) label(tok types.Token, spans map[string][]types.Span) string {
	for _, cat := range r.priority {
		hit, ok := earliest(spans[cat], tok)
		if !ok {
			continue
		}
		if tok.Start == hit.Start {
			return Begin(cat)
		}
		return Inside(cat)
	}
	return types.LabelOutside
}

func earliest(spans []types.Span, tok types.Token) (types.Span, bool) {
	var best types.Span
	found := false
	for _, s := range spans {
		if !s.Overlaps(tok.Start, tok.End) {
			continue
		}
		if !found || s.Start < best.Start {
			best, found = s, true
		}
	}
	return best, found
}

// Within returns the spans that overlap [start, end), in their original
// order.
func Within(spans []types.Span, start, end int) []types.Span {
	var out []types.Span
	for _, s := range spans {
		if s.Overlaps(start, end) {
			out = append(out, s)
		}
	}
	return out
}
