// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package phrase

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"go.yaml.in/yaml/v3"
)

// ParseList parses a category list serialized into a single table cell.
// It accepts JSON arrays and Python-style list literals such as
//
//	['CVE-2024-1234', "취약점", None, nan]
//
// Quoted items become strings. Unquoted items (None, nan, null, numbers,
// bare words) become nil so that Normalize drops them. A blank cell, "nan"
// and "[]" yield an empty list. Anything that is not a list is an error.
func ParseList(cell string) ([]any, error) {
	cell = strings.TrimSpace(cell)
	switch strings.ToLower(cell) {
	case "", "nan", "none", "null", "[]":
		return []any{}, nil
	}

	var root yaml.Node
	if err := yaml.Unmarshal([]byte(cell), &root); err != nil {
		return nil, fmt.Errorf("parsing list %q: %w", abbreviate(cell), err)
	}
	node := &root
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		node = node.Content[0]
	}
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("parsing list %q: not a list", abbreviate(cell))
	}

	out := make([]any, 0, len(node.Content))
	for _, item := range node.Content {
		out = append(out, scalarValue(item))
	}
	return out, nil
}

// scalarValue returns the string held by a quoted scalar and nil for
// everything else.
func scalarValue(n *yaml.Node) any {
	if n.Kind != yaml.ScalarNode {
		return nil
	}
	if n.Style&(yaml.SingleQuotedStyle|yaml.DoubleQuotedStyle) == 0 {
		return nil
	}
	return n.Value
}

// Coerce converts a decoded category value into a raw list for Normalize.
// Strings are parsed with ParseList.
func Coerce(v any) ([]any, error) {
	switch val := v.(type) {
	case nil:
		return []any{}, nil
	case []any:
		return val, nil
	case []string:
		out := make([]any, len(val))
		for i, s := range val {
			out[i] = s
		}
		return out, nil
	case string:
		return ParseList(val)
	default:
		return nil, fmt.Errorf("unsupported list value of type %T", v)
	}
}

func abbreviate(s string) string {
	const limit = 40
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
