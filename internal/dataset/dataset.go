// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dataset writes an assembled corpus to disk in the formats used for
// model training and review, and reads the JSON form back.
package dataset

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/pdiddy/ner-corpus/pkg/types"
)

// Output formats accepted by Write.
const (
	FormatCoNLL   = "conll"
	FormatJSON    = "json"
	FormatCSV     = "csv"
	FormatPreview = "preview"
)

// File names inside the dataset directory.
const (
	LabelsFile  = "labels.json"
	JSONFile    = "dataset.json"
	PreviewFile = "ner_preview.csv"
)

// PreviewSequences is the number of train sequences in the preview file.
const PreviewSequences = 30

// utf8BOM prefixes CSV outputs so spreadsheet tools detect the encoding.
const utf8BOM = "\ufeff"

// Formats lists every supported format in write order.
var Formats = []string{FormatCoNLL, FormatJSON, FormatCSV, FormatPreview}

// Write stores c under dir in each of the requested formats. labels.json
// is always written. An unknown format fails before anything is written.
// Every label used by a sequence must appear in c.Labels.
func Write(dir string, c types.Corpus, formats []string) ([]string, error) {
	for _, f := range formats {
		if !slices.Contains(Formats, f) {
			return nil, fmt.Errorf("unknown dataset format %q (want one of %s)", f, strings.Join(Formats, ", "))
		}
	}
	ids, err := labelIndex(c)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating dataset directory: %w", err)
	}

	var written []string
	record := func(name string, err error) error {
		if err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
		written = append(written, filepath.Join(dir, name))
		return nil
	}

	if err := record(LabelsFile, writeJSONFile(filepath.Join(dir, LabelsFile), c.Labels)); err != nil {
		return written, err
	}
	for _, f := range Formats {
		if !slices.Contains(formats, f) {
			continue
		}
		switch f {
		case FormatCoNLL:
			for _, split := range types.Splits {
				name := CoNLLFile(split)
				if err := record(name, writeCoNLL(filepath.Join(dir, name), c.Partition(split))); err != nil {
					return written, err
				}
			}
		case FormatJSON:
			if err := record(JSONFile, writeJSONFile(filepath.Join(dir, JSONFile), toFile(c, ids))); err != nil {
				return written, err
			}
		case FormatCSV:
			for _, split := range types.Splits {
				name := CSVFile(split)
				if err := record(name, writeTagCSV(filepath.Join(dir, name), c.Partition(split), ids)); err != nil {
					return written, err
				}
			}
		case FormatPreview:
			if err := record(PreviewFile, writePreview(filepath.Join(dir, PreviewFile), c.Train)); err != nil {
				return written, err
			}
		}
	}
	return written, nil
}

// CoNLLFile returns the CoNLL file name of a split.
func CoNLLFile(s types.Split) string { return string(s) + ".conll" }

// CSVFile returns the token/tag CSV file name of a split.
func CSVFile(s types.Split) string { return "ner_" + string(s) + ".csv" }

func labelIndex(c types.Corpus) (map[string]int, error) {
	ids := make(map[string]int, len(c.Labels))
	for i, l := range c.Labels {
		if _, dup := ids[l]; dup {
			return nil, fmt.Errorf("duplicate label %q", l)
		}
		ids[l] = i
	}
	for _, split := range types.Splits {
		for _, seq := range c.Partition(split) {
			for _, t := range seq.Tokens {
				if _, ok := ids[t.Label]; !ok {
					return nil, fmt.Errorf("%s sequence of %s uses label %q outside the vocabulary", split, seq.DocumentID, t.Label)
				}
			}
		}
	}
	return ids, nil
}

// writeCoNLL writes one "token label" line per token and a blank line after
// each sequence.
func writeCoNLL(path string, seqs []types.TaggedSequence) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for _, seq := range seqs {
		for _, t := range seq.Tokens {
			fmt.Fprintf(w, "%s %s\n", t.Token, t.Label)
		}
		w.WriteString("\n")
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeTagCSV writes a single token_tag_sequence column; each row is the
// sequence's tokens interleaved with their class ids.
func writeTagCSV(path string, seqs []types.TaggedSequence, ids map[string]int) error {
	return writeCSV(path, func(w *csv.Writer) error {
		if err := w.Write([]string{"token_tag_sequence"}); err != nil {
			return err
		}
		for _, seq := range seqs {
			parts := make([]string, 0, 2*len(seq.Tokens))
			for _, t := range seq.Tokens {
				parts = append(parts, t.Token, strconv.Itoa(ids[t.Label]))
			}
			if err := w.Write([]string{strings.Join(parts, " ")}); err != nil {
				return err
			}
		}
		return nil
	})
}

// writePreview writes the first PreviewSequences train sequences as
// token,label rows with an empty row after each sequence.
func writePreview(path string, train []types.TaggedSequence) error {
	return writeCSV(path, func(w *csv.Writer) error {
		if err := w.Write([]string{"token", "label"}); err != nil {
			return err
		}
		for _, seq := range train[:min(len(train), PreviewSequences)] {
			for _, t := range seq.Tokens {
				if err := w.Write([]string{t.Token, t.Label}); err != nil {
					return err
				}
			}
			if err := w.Write([]string{"", ""}); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeCSV(path string, fill func(*csv.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(utf8BOM); err != nil {
		f.Close()
		return err
	}
	w := csv.NewWriter(f)
	if err := fill(w); err != nil {
		f.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
