// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// LabelOutside is the tag for tokens outside any entity mention.
const LabelOutside = "O"

// TaggedToken pairs a token with its BIO label.
type TaggedToken struct {
	Token string `json:"token" yaml:"token"`
	Label string `json:"label" yaml:"label"`
}

// TaggedSequence is one labeled sentence.
type TaggedSequence struct {
	// DocumentID links the sequence back to its source document.
	DocumentID string `json:"document_id,omitempty" yaml:"document_id,omitempty"`

	// Offset is the absolute start offset of the sentence in its document.
	Offset int `json:"offset" yaml:"offset"`

	// Tokens holds one entry per token in sentence order.
	Tokens []TaggedToken `json:"tokens" yaml:"tokens"`
}

// HasEntity reports whether at least one token carries a non-O label.
func (s TaggedSequence) HasEntity() bool {
	for _, t := range s.Tokens {
		if t.Label != LabelOutside {
			return true
		}
	}
	return false
}

// Words returns the token texts in order.
func (s TaggedSequence) Words() []string {
	out := make([]string, len(s.Tokens))
	for i, t := range s.Tokens {
		out[i] = t.Token
	}
	return out
}

// Labels returns the token labels in order.
func (s TaggedSequence) Labels() []string {
	out := make([]string, len(s.Tokens))
	for i, t := range s.Tokens {
		out[i] = t.Label
	}
	return out
}

// Split names a corpus partition.
type Split string

const (
	SplitTrain      Split = "train"
	SplitValidation Split = "validation"
	SplitTest       Split = "test"
)

// Splits lists the partitions in output order.
var Splits = []Split{SplitTrain, SplitValidation, SplitTest}

// Corpus is the final labeled dataset: three disjoint partitions plus the
// tag vocabulary used to label them. It is written once and not mutated.
type Corpus struct {
	// Labels is the ordered tag vocabulary; a label's index is its class id.
	Labels []string `json:"labels" yaml:"labels"`

	Train      []TaggedSequence `json:"train" yaml:"train"`
	Validation []TaggedSequence `json:"validation" yaml:"validation"`
	Test       []TaggedSequence `json:"test" yaml:"test"`
}

// Partition returns the sequences of the named split, or nil for an
// unknown split.
func (c *Corpus) Partition(s Split) []TaggedSequence {
	switch s {
	case SplitTrain:
		return c.Train
	case SplitValidation:
		return c.Validation
	case SplitTest:
		return c.Test
	}
	return nil
}

// Size returns the total number of sequences across all partitions.
func (c *Corpus) Size() int {
	return len(c.Train) + len(c.Validation) + len(c.Test)
}
