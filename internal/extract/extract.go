// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract finds candidate entity phrases in raw articles with
// per-category keyword dictionaries and regular expressions, and writes the
// preprocessed documents consumed by the corpus build.
package extract

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/ner-corpus/internal/logging"
	"github.com/pdiddy/ner-corpus/internal/metrics"
	"github.com/pdiddy/ner-corpus/pkg/types"
)

// BatchSummary holds counts from a batch extraction run.
type BatchSummary struct {
	Extracted int
	Skipped   int
	Failed    int
}

// Total returns the number of input files processed.
func (s BatchSummary) Total() int {
	return s.Extracted + s.Skipped + s.Failed
}

// HasFailures reports whether any input file failed.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

// Runner runs the extraction stage over a directory of raw article files.
type Runner struct {
	Extractor *Extractor
	Logger    logging.Logger
	Metrics   *metrics.Recorder
}

// ExtractAll processes every *.csv and *.jsonl file in cfg.RawDir and
// writes one <name>.yaml file of documents per input to cfg.OutputDir.
// Inputs whose output is newer than the input are skipped. A failing file
// is reported and counted; it does not stop the batch.
func (r *Runner) ExtractAll(ctx context.Context, cfg types.ExtractionConfig, w io.Writer) (BatchSummary, error) {
	logger := logging.OrNop(r.Logger)

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return BatchSummary{}, fmt.Errorf("creating output directory: %w", err)
	}
	entries, err := os.ReadDir(cfg.RawDir)
	if err != nil {
		return BatchSummary{}, fmt.Errorf("reading raw directory %s: %w", cfg.RawDir, err)
	}

	var summary BatchSummary
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if entry.IsDir() || (ext != ".csv" && ext != ".jsonl") {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		inPath := filepath.Join(cfg.RawDir, entry.Name())
		outPath := filepath.Join(cfg.OutputDir, name+".yaml")

		changed, err := hasChanged(inPath, outPath)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", entry.Name(), err)
			summary.Failed++
			continue
		}
		if !changed {
			fmt.Fprintf(w, "skipped %s\n", entry.Name())
			summary.Skipped++
			continue
		}

		fmt.Fprintf(w, "extracting %s\n", entry.Name())
		docs, err := r.ExtractFile(inPath)
		if err != nil {
			logger.Error("extraction failed", logging.String("file", inPath), logging.Err(err))
			fmt.Fprintf(w, "failed  %s: %v\n", entry.Name(), err)
			summary.Failed++
			continue
		}
		if err := writeDocuments(outPath, docs); err != nil {
			fmt.Fprintf(w, "failed  %s: write error: %v\n", entry.Name(), err)
			summary.Failed++
			continue
		}

		fmt.Fprintf(w, "extracted %s (%d documents)\n", entry.Name(), len(docs))
		summary.Extracted++
	}
	return summary, nil
}

// ExtractFile reads the raw articles of path and returns one document per
// article with non-blank content.
func (r *Runner) ExtractFile(path string) ([]types.Document, error) {
	logger := logging.OrNop(r.Logger)
	articles, err := ReadArticles(path, func(line int, err error) {
		logger.Warn("skipping malformed article",
			logging.String("file", path), logging.Int("line", line), logging.Err(err))
		r.Metrics.Article("failed")
	})
	if err != nil {
		return nil, err
	}
	docs := make([]types.Document, 0, len(articles))
	for _, a := range articles {
		text := strings.TrimSpace(a.Content)
		if text == "" {
			r.Metrics.Article("empty")
			continue
		}
		docs = append(docs, types.Document{
			ID:      a.ID,
			Text:    text,
			Phrases: r.Extractor.Candidates(text),
		})
		r.Metrics.Article("extracted")
	}
	return docs, nil
}

// SkipFunc is told about a record that could not be decoded and was left
// out. line is the 1-based row or line number in the input.
type SkipFunc func(line int, err error)

// ReadArticles reads raw articles from a CSV file with a content column
// (and optional id, title and url columns) or a JSON Lines file of
// articles. Articles without an id get "<file>:<row>". Malformed records
// are passed to skip, which may be nil, and the rest of the file is kept.
func ReadArticles(path string, skip SkipFunc) ([]types.Article, error) {
	if skip == nil {
		skip = func(int, error) {}
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	base := filepath.Base(path)
	var articles []types.Article
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		articles, err = readArticlesCSV(f, skip)
	case ".jsonl":
		articles, err = readArticlesJSONL(f, skip)
	default:
		return nil, fmt.Errorf("unsupported article file %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	for i := range articles {
		if articles[i].ID == "" {
			articles[i].ID = fmt.Sprintf("%s:%d", base, i+1)
		}
	}
	return articles, nil
}

func readArticlesCSV(rd io.Reader, skip SkipFunc) ([]types.Article, error) {
	cr := csv.NewReader(rd)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	if _, ok := col["content"]; !ok {
		return nil, fmt.Errorf("no content column")
	}
	get := func(rec []string, name string) string {
		if i, ok := col[name]; ok && i < len(rec) {
			return rec[i]
		}
		return ""
	}

	var out []types.Article
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				skip(row, err)
				continue
			}
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		out = append(out, types.Article{
			ID:      strings.TrimSpace(get(rec, "id")),
			Title:   get(rec, "title"),
			URL:     get(rec, "url"),
			Content: get(rec, "content"),
		})
	}
	return out, nil
}

func readArticlesJSONL(rd io.Reader, skip SkipFunc) ([]types.Article, error) {
	sc := bufio.NewScanner(rd)
	sc.Buffer(make([]byte, 0, 64*1024), 16<<20)

	var out []types.Article
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		var a types.Article
		if err := json.Unmarshal([]byte(raw), &a); err != nil {
			skip(line, err)
			continue
		}
		out = append(out, a)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scanning: %w", err)
	}
	return out, nil
}

// hasChanged reports whether the input file is newer than the output file.
// Returns true if the output does not exist or the input is more recent.
func hasChanged(inPath, outPath string) (bool, error) {
	inInfo, err := os.Stat(inPath)
	if err != nil {
		return false, fmt.Errorf("stat input %s: %w", inPath, err)
	}

	outInfo, err := os.Stat(outPath)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, fmt.Errorf("stat output %s: %w", outPath, err)
	}

	return inInfo.ModTime().After(outInfo.ModTime()), nil
}

// writeDocuments marshals the documents to a YAML file.
func writeDocuments(path string, docs []types.Document) error {
	data, err := yaml.Marshal(docs)
	if err != nil {
		return fmt.Errorf("marshaling documents: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
