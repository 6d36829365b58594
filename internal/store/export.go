// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
)

// ExportEntry holds an indexed sequence in its export form.
type ExportEntry struct {
	ID         string          `json:"id" yaml:"id"`
	BuildID    string          `json:"build_id" yaml:"build_id"`
	Split      string          `json:"split" yaml:"split"`
	DocumentID string          `json:"document_id,omitempty" yaml:"document_id,omitempty"`
	Offset     int             `json:"offset" yaml:"offset"`
	Text       string          `json:"text" yaml:"text"`
	Labels     []string        `json:"labels" yaml:"labels,flow"`
	Mentions   []ExportMention `json:"mentions,omitempty" yaml:"mentions,omitempty"`
}

// ExportMention is a decoded entity in an export entry.
type ExportMention struct {
	Category string `json:"category" yaml:"category"`
	Text     string `json:"text" yaml:"text"`
}

const exportLimit = 1000000

// ExportYAML writes matching sequences to index/export.yaml. It supports
// the same filters as Retrieve.
func (s *Store) ExportYAML(ctx context.Context, opts QueryOptions) error {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(filepath.Join(s.dir, "export.yaml"), data, 0o644)
}

// ExportJSON writes matching sequences to index/export.json. It supports
// the same filters as Retrieve.
func (s *Store) ExportJSON(ctx context.Context, opts QueryOptions) error {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(filepath.Join(s.dir, "export.json"), data, 0o644)
}

func (s *Store) exportEntries(ctx context.Context, opts QueryOptions) ([]ExportEntry, error) {
	opts.MaxResults = exportLimit
	results, err := s.Retrieve(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	entries := make([]ExportEntry, len(results))
	for i, r := range results {
		entries[i] = ExportEntry{
			ID:         r.ID,
			BuildID:    r.BuildID,
			Split:      string(r.Split),
			DocumentID: r.DocumentID,
			Offset:     r.Offset,
			Text:       strings.Join(r.Tokens, " "),
			Labels:     r.Labels,
		}
		for _, m := range r.Mentions {
			entries[i].Mentions = append(entries[i].Mentions, ExportMention{Category: m.Category, Text: m.Text})
		}
	}

	return entries, nil
}
