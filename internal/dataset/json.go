// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdiddy/ner-corpus/pkg/types"
)

// File is the JSON layout of dataset.json: the label vocabulary plus, per
// split, parallel token and class-id arrays.
type File struct {
	Labels     []string  `json:"labels"`
	Train      SplitData `json:"train"`
	Validation SplitData `json:"validation"`
	Test       SplitData `json:"test"`
}

// SplitData holds one partition. Tokens[i] and NERTags[i] describe the
// same sequence; DocumentIDs and Offsets trace it back to its source.
type SplitData struct {
	Tokens      [][]string `json:"tokens"`
	NERTags     [][]int    `json:"ner_tags"`
	DocumentIDs []string   `json:"document_ids,omitempty"`
	Offsets     []int      `json:"offsets,omitempty"`
}

func (f *File) split(s types.Split) *SplitData {
	switch s {
	case types.SplitTrain:
		return &f.Train
	case types.SplitValidation:
		return &f.Validation
	}
	return &f.Test
}

func toFile(c types.Corpus, ids map[string]int) File {
	f := File{Labels: c.Labels}
	for _, split := range types.Splits {
		seqs := c.Partition(split)
		sd := SplitData{
			Tokens:      make([][]string, len(seqs)),
			NERTags:     make([][]int, len(seqs)),
			DocumentIDs: make([]string, len(seqs)),
			Offsets:     make([]int, len(seqs)),
		}
		for i, seq := range seqs {
			sd.Tokens[i] = seq.Words()
			tags := make([]int, len(seq.Tokens))
			for j, t := range seq.Tokens {
				tags[j] = ids[t.Label]
			}
			sd.NERTags[i] = tags
			sd.DocumentIDs[i] = seq.DocumentID
			sd.Offsets[i] = seq.Offset
		}
		*f.split(split) = sd
	}
	return f
}

// ReadJSON loads dataset.json from dir back into a corpus.
func ReadJSON(dir string) (types.Corpus, error) {
	path := filepath.Join(dir, JSONFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Corpus{}, fmt.Errorf("reading %s: %w", path, err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return types.Corpus{}, fmt.Errorf("parsing %s: %w", path, err)
	}

	c := types.Corpus{Labels: f.Labels}
	for _, split := range types.Splits {
		seqs, err := fromSplit(f.split(split), f.Labels)
		if err != nil {
			return types.Corpus{}, fmt.Errorf("%s: %s split: %w", path, split, err)
		}
		switch split {
		case types.SplitTrain:
			c.Train = seqs
		case types.SplitValidation:
			c.Validation = seqs
		case types.SplitTest:
			c.Test = seqs
		}
	}
	return c, nil
}

func fromSplit(sd *SplitData, labels []string) ([]types.TaggedSequence, error) {
	if len(sd.Tokens) != len(sd.NERTags) {
		return nil, fmt.Errorf("%d token rows but %d tag rows", len(sd.Tokens), len(sd.NERTags))
	}
	seqs := make([]types.TaggedSequence, len(sd.Tokens))
	for i, toks := range sd.Tokens {
		tags := sd.NERTags[i]
		if len(toks) != len(tags) {
			return nil, fmt.Errorf("sequence %d: %d tokens but %d tags", i, len(toks), len(tags))
		}
		seq := types.TaggedSequence{Tokens: make([]types.TaggedToken, len(toks))}
		for j, tok := range toks {
			id := tags[j]
			if id < 0 || id >= len(labels) {
				return nil, fmt.Errorf("sequence %d: class id %d out of range", i, id)
			}
			seq.Tokens[j] = types.TaggedToken{Token: tok, Label: labels[id]}
		}
		if i < len(sd.DocumentIDs) {
			seq.DocumentID = sd.DocumentIDs[i]
		}
		if i < len(sd.Offsets) {
			seq.Offset = sd.Offsets[i]
		}
		seqs[i] = seq
	}
	return seqs, nil
}
