// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bio

import (
	"fmt"
	"strings"

	"github.com/pdiddy/ner-corpus/pkg/types"
)

// Label prefixes.
const (
	PrefixBegin  = "B-"
	PrefixInside = "I-"
)

// Begin returns the label of the first token of a category mention.
func Begin(category string) string { return PrefixBegin + category }

// Inside returns the label of a continuation token of a category mention.
func Inside(category string) string { return PrefixInside + category }

// Parse splits a label into its prefix and category. The outside label and
// malformed labels return an empty prefix.
func Parse(label string) (prefix, category string) {
	switch {
	case strings.HasPrefix(label, PrefixBegin) && len(label) > len(PrefixBegin):
		return PrefixBegin, label[len(PrefixBegin):]
	case strings.HasPrefix(label, PrefixInside) && len(label) > len(PrefixInside):
		return PrefixInside, label[len(PrefixInside):]
	}
	return "", ""
}

// Vocabulary is the ordered tag set O, B-c1, I-c1, B-c2, I-c2, ... for a
// list of categories. A label's position is its class id.
type Vocabulary struct {
	labels []string
	ids    map[string]int
}

// NewVocabulary builds the vocabulary for categories in the given order.
// Duplicate categories are listed once.
func NewVocabulary(categories []string) *Vocabulary {
	v := &Vocabulary{
		labels: []string{types.LabelOutside},
		ids:    map[string]int{types.LabelOutside: 0},
	}
	for _, c := range categories {
		if _, ok := v.ids[Begin(c)]; ok {
			continue
		}
		for _, l := range []string{Begin(c), Inside(c)} {
			v.ids[l] = len(v.labels)
			v.labels = append(v.labels, l)
		}
	}
	return v
}

// Labels returns a copy of the ordered label list.
func (v *Vocabulary) Labels() []string {
	return append([]string(nil), v.labels...)
}

// Len returns the number of labels.
func (v *Vocabulary) Len() int { return len(v.labels) }

// ID returns the class id of label.
func (v *Vocabulary) ID(label string) (int, bool) {
	id, ok := v.ids[label]
	return id, ok
}

// Label returns the label with class id.
func (v *Vocabulary) Label(id int) (string, bool) {
	if id < 0 || id >= len(v.labels) {
		return "", false
	}
	return v.labels[id], true
}

// IDs maps labels to class ids.
func (v *Vocabulary) IDs(labels []string) ([]int, error) {
	out := make([]int, len(labels))
	for i, l := range labels {
		id, ok := v.ids[l]
		if !ok {
			return nil, fmt.Errorf("label %q not in vocabulary", l)
		}
		out[i] = id
	}
	return out, nil
}

// FromIDs maps class ids back to labels.
func (v *Vocabulary) FromIDs(ids []int) ([]string, error) {
	out := make([]string, len(ids))
	for i, id := range ids {
		l, ok := v.Label(id)
		if !ok {
			return nil, fmt.Errorf("class id %d out of range [0,%d)", id, len(v.labels))
		}
		out[i] = l
	}
	return out, nil
}
