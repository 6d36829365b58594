// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/pdiddy/ner-corpus/internal/segment"
	"github.com/pdiddy/ner-corpus/internal/span"
	"github.com/pdiddy/ner-corpus/pkg/types"
)

// pattern is a compiled PatternRule. Boundary requirements are compiled
// into the expression as \b assertions.
type pattern struct {
	re *regexp2.Regexp
}

// compilePattern compiles p in RE2 compatibility mode, so \d and \w keep
// their ASCII meaning while \b follows Unicode word characters.
func compilePattern(p types.PatternRule) (pattern, error) {
	expr := "(?:" + p.Expr + ")"
	switch p.Boundary {
	case types.BoundaryNone:
	case types.BoundaryStart:
		expr = `\b` + expr
	case types.BoundaryBoth:
		expr = `\b` + expr + `\b`
	default:
		return pattern{}, fmt.Errorf("unknown boundary %q", p.Boundary)
	}
	re, err := regexp2.Compile(expr, regexp2.RE2)
	if err != nil {
		return pattern{}, fmt.Errorf("compiling %q: %w", p.Expr, err)
	}
	return pattern{re: re}, nil
}

// rule is a compiled CategoryRule.
type rule struct {
	category string
	keywords []string
	patterns []pattern
}

// Extractor finds candidate phrases for each category of a rule set. It is
// safe for concurrent use.
type Extractor struct {
	rules  []rule
	finder *span.Finder
}

// NewExtractor compiles rules. A nil finder gets a private one.
func NewExtractor(rules []types.CategoryRule, finder *span.Finder) (*Extractor, error) {
	if finder == nil {
		finder = span.NewFinder()
	}
	ex := &Extractor{finder: finder}
	seen := make(map[string]bool, len(rules))
	for _, r := range rules {
		if r.Category == "" {
			return nil, fmt.Errorf("rule without category")
		}
		if seen[r.Category] {
			return nil, fmt.Errorf("duplicate rule for category %q", r.Category)
		}
		seen[r.Category] = true

		cr := rule{category: r.Category, keywords: r.Keywords}
		for _, p := range r.Patterns {
			cp, err := compilePattern(p)
			if err != nil {
				return nil, fmt.Errorf("category %s: %w", r.Category, err)
			}
			cr.patterns = append(cr.patterns, cp)
		}
		ex.rules = append(ex.rules, cr)
	}
	return ex, nil
}

// Categories returns the rule categories in rule order.
func (ex *Extractor) Categories() []string {
	out := make([]string, len(ex.rules))
	for i, r := range ex.rules {
		out[i] = r.category
	}
	return out
}

// Candidates returns the candidate phrases of every category found in
// text. Each list is sorted and free of duplicates; categories without
// candidates are absent.
func (ex *Extractor) Candidates(text string) map[string][]string {
	t := segment.NewText(text)
	out := make(map[string][]string, len(ex.rules))
	for _, r := range ex.rules {
		var cands []string
		for _, p := range r.patterns {
			cands = append(cands, p.matches(t)...)
		}
		for _, kw := range r.keywords {
			if ex.finder.Contains(t, kw) {
				cands = append(cands, kw)
			}
		}
		if len(cands) == 0 {
			continue
		}
		slices.Sort(cands)
		out[r.category] = slices.Compact(cands)
	}
	return out
}

// matches returns the pattern's candidates in t, left to right. When the
// expression has a capture group, group 1 is the candidate.
func (p pattern) matches(t *segment.Text) []string {
	var out []string
	text := t.String()
	for m := range t.Matches(p.re) {
		if m.Length == 0 {
			continue
		}
		idx, n := m.Index, m.Length
		if g := m.GroupByNumber(1); g != nil && len(g.Captures) > 0 {
			idx, n = g.Index, g.Length
		}
		s, e := t.Bytes(idx, n)
		if c := strings.TrimSpace(text[s:e]); c != "" {
			out = append(out, c)
		}
	}
	return out
}
