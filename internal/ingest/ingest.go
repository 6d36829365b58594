// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ingest loads preprocessed documents (text plus candidate phrases
// per category) from CSV, JSON Lines and YAML files.
package ingest

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.yaml.in/yaml/v3"
	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/ner-corpus/internal/logging"
	"github.com/pdiddy/ner-corpus/internal/phrase"
	"github.com/pdiddy/ner-corpus/pkg/types"
)

// Supported input formats.
const (
	FormatCSV   = "csv"
	FormatJSONL = "jsonl"
	FormatYAML  = "yaml"
)

// textColumns are the CSV headers accepted for document text, in order of
// preference.
var textColumns = []string{"clean_text", "text", "content"}

// maxLine bounds a single JSON Lines record.
const maxLine = 16 << 20

// Reader loads documents. Category values that cannot be parsed are logged
// and treated as empty lists; they never fail a read.
type Reader struct {
	categories []string
	nfc        bool
	logger     logging.Logger
}

// NewReader returns a Reader that keeps the phrases of categories. When nfc
// is set, document text and phrases are converted to Unicode NFC so that
// offsets refer to the normalized text.
func NewReader(categories []string, nfc bool, logger logging.Logger) *Reader {
	return &Reader{
		categories: append([]string(nil), categories...),
		nfc:        nfc,
		logger:     logging.OrNop(logger),
	}
}

// FormatOf returns the input format implied by path's extension, or "" if
// the extension is not supported.
func FormatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV
	case ".jsonl", ".ndjson":
		return FormatJSONL
	case ".yaml", ".yml":
		return FormatYAML
	}
	return ""
}

// ReadPath reads a single file, or every supported file of a directory in
// lexical order.
func (r *Reader) ReadPath(path string) ([]types.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading input %s: %w", path, err)
	}
	if !info.IsDir() {
		return r.ReadFile(path)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("reading input directory %s: %w", path, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && FormatOf(e.Name()) != "" {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)

	var docs []types.Document
	for _, name := range names {
		d, err := r.ReadFile(filepath.Join(path, name))
		if err != nil {
			return nil, err
		}
		docs = append(docs, d...)
	}
	return docs, nil
}

// ReadFile reads one file in the format implied by its extension.
func (r *Reader) ReadFile(path string) ([]types.Document, error) {
	format := FormatOf(path)
	if format == "" {
		return nil, fmt.Errorf("unsupported input file %s", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	docs, err := r.Read(f, format, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return docs, nil
}

// Read decodes documents from rd. name prefixes generated document IDs.
func (r *Reader) Read(rd io.Reader, format, name string) ([]types.Document, error) {
	switch format {
	case FormatCSV:
		return r.readCSV(rd, name)
	case FormatJSONL:
		return r.readJSONL(rd, name)
	case FormatYAML:
		return r.readYAML(rd, name)
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

func (r *Reader) readCSV(rd io.Reader, name string) ([]types.Document, error) {
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
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}

	textCol := -1
	for _, c := range textColumns {
		if i, ok := col[c]; ok {
			textCol = i
			break
		}
	}
	if textCol < 0 {
		return nil, fmt.Errorf("no text column (want one of %s)", strings.Join(textColumns, ", "))
	}
	idCol, hasID := col["id"]

	cell := func(rec []string, i int) string {
		if i < len(rec) {
			return rec[i]
		}
		return ""
	}

	var docs []types.Document
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				r.logger.Warn("skipping malformed record",
					logging.String("file", name), logging.Int("line", perr.Line), logging.Err(err))
				continue
			}
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		id := fmt.Sprintf("%s:%d", name, row)
		if hasID {
			if v := strings.TrimSpace(cell(rec, idCol)); v != "" {
				id = v
			}
		}
		values := make(map[string]any, len(r.categories))
		for _, cat := range r.categories {
			if i, ok := col[cat]; ok {
				values[cat] = cell(rec, i)
			}
		}
		docs = append(docs, r.document(id, cell(rec, textCol), values))
	}
	return docs, nil
}

// record is the JSON and YAML shape of a document.
type record struct {
	ID      string         `json:"id" yaml:"id"`
	Text    string         `json:"text" yaml:"text"`
	Content string         `json:"content" yaml:"content"`
	Phrases map[string]any `json:"phrases" yaml:"phrases"`
}

func (rec record) body() string {
	if rec.Text != "" {
		return rec.Text
	}
	return rec.Content
}

func (r *Reader) readJSONL(rd io.Reader, name string) ([]types.Document, error) {
	sc := bufio.NewScanner(rd)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)

	var docs []types.Document
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		var rec record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			r.logger.Warn("skipping malformed record",
				logging.String("file", name), logging.Int("line", line), logging.Err(err))
			continue
		}
		id := rec.ID
		if id == "" {
			id = fmt.Sprintf("%s:%d", name, line)
		}
		docs = append(docs, r.document(id, rec.body(), rec.Phrases))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scanning: %w", err)
	}
	return docs, nil
}

func (r *Reader) readYAML(rd io.Reader, name string) ([]types.Document, error) {
	var nodes []yaml.Node
	if err := yaml.NewDecoder(rd).Decode(&nodes); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decoding yaml: %w", err)
	}
	docs := make([]types.Document, 0, len(nodes))
	for i := range nodes {
		var rec record
		if err := nodes[i].Decode(&rec); err != nil {
			r.logger.Warn("skipping malformed record",
				logging.String("file", name), logging.Int("line", nodes[i].Line), logging.Err(err))
			continue
		}
		id := rec.ID
		if id == "" {
			id = fmt.Sprintf("%s:%d", name, i+1)
		}
		docs = append(docs, r.document(id, rec.body(), rec.Phrases))
	}
	return docs, nil
}

// document builds a Document, coercing each category value into a list of
// strings. Bad values are logged and replaced by an empty list.
func (r *Reader) document(id, text string, values map[string]any) types.Document {
	if r.nfc {
		text = norm.NFC.String(text)
	}
	doc := types.Document{ID: id, Text: text, Phrases: make(map[string][]string, len(r.categories))}
	for _, cat := range r.categories {
		v, ok := values[cat]
		if !ok {
			continue
		}
		items, err := phrase.Coerce(v)
		if err != nil {
			r.logger.Warn("unparseable category list, using empty list",
				logging.String("document", id), logging.String("category", cat), logging.Err(err))
			continue
		}
		var out []string
		for _, it := range items {
			s, ok := it.(string)
			if !ok {
				continue
			}
			if r.nfc {
				s = norm.NFC.String(s)
			}
			out = append(out, s)
		}
		if len(out) > 0 {
			doc.Phrases[cat] = out
		}
	}
	return doc
}
