// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/ner-corpus/internal/bio"
	"github.com/pdiddy/ner-corpus/pkg/types"
)

// QueryOptions holds parameters for index queries.
type QueryOptions struct {
	// Query is an FTS5 full-text search over the sequence tokens.
	Query string

	// Category keeps sequences with at least one mention of the category.
	Category string

	// Entity keeps sequences with a mention of this text, ignoring case.
	Entity string

	// Split filters by partition.
	Split types.Split

	// BuildID filters by build.
	BuildID string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Category == "" && q.Entity == "" && q.Split == "" && q.BuildID == ""
}

// QueryResult is an indexed sequence with its decoded mentions.
type QueryResult struct {
	ID         string        `json:"id" yaml:"id"`
	BuildID    string        `json:"build_id" yaml:"build_id"`
	Split      types.Split   `json:"split" yaml:"split"`
	Position   int           `json:"position" yaml:"position"`
	DocumentID string        `json:"document_id,omitempty" yaml:"document_id,omitempty"`
	Offset     int           `json:"offset" yaml:"offset"`
	Tokens     []string      `json:"tokens" yaml:"tokens"`
	Labels     []string      `json:"labels" yaml:"labels"`
	Mentions   []bio.Mention `json:"mentions,omitempty" yaml:"mentions,omitempty"`
}

// Sequence rebuilds the tagged sequence of the result.
func (r QueryResult) Sequence() types.TaggedSequence {
	seq := types.TaggedSequence{DocumentID: r.DocumentID, Offset: r.Offset}
	for i, tok := range r.Tokens {
		label := types.LabelOutside
		if i < len(r.Labels) {
			label = r.Labels[i]
		}
		seq.Tokens = append(seq.Tokens, types.TaggedToken{Token: tok, Label: label})
	}
	return seq
}

// Retrieve queries the index with optional full-text search and
// structured filters. Results are ranked by relevance for full-text
// queries, otherwise sorted by build, split and position.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT q.id, q.build_id, q.split, q.position, q.document_id, q.start_offset,
				q.tokens, q.labels, sequences_fts.rank
			FROM sequences_fts
			JOIN sequences q ON q.rowid = sequences_fts.rowid
			WHERE sequences_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT q.id, q.build_id, q.split, q.position, q.document_id, q.start_offset,
				q.tokens, q.labels, 0 AS rank
			FROM sequences q
			WHERE 1=1`)
	}

	if opts.BuildID != "" {
		qb.WriteString(` AND q.build_id = ?`)
		args = append(args, opts.BuildID)
	}
	if opts.Split != "" {
		qb.WriteString(` AND q.split = ?`)
		args = append(args, string(opts.Split))
	}
	if opts.Category != "" {
		qb.WriteString(` AND EXISTS (SELECT 1 FROM mentions m WHERE m.sequence_id = q.id AND m.category = ?)`)
		args = append(args, opts.Category)
	}
	if opts.Entity != "" {
		qb.WriteString(` AND EXISTS (SELECT 1 FROM mentions m WHERE m.sequence_id = q.id AND m.text = ? COLLATE NOCASE)`)
		args = append(args, opts.Entity)
	}

	if useFTS {
		qb.WriteString(` ORDER BY sequences_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY q.build_id, CASE q.split WHEN 'train' THEN 0 WHEN 'validation' THEN 1 ELSE 2 END, q.position`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		var (
			qr         QueryResult
			split      string
			docID      sql.NullString
			offset     sql.NullInt64
			tokensJSON string
			labelsJSON string
			rank       float64
		)
		if err := rows.Scan(
			&qr.ID, &qr.BuildID, &split, &qr.Position, &docID, &offset,
			&tokensJSON, &labelsJSON, &rank,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		qr.Split = types.Split(split)
		qr.DocumentID = docID.String
		qr.Offset = int(offset.Int64)
		json.Unmarshal([]byte(tokensJSON), &qr.Tokens)
		json.Unmarshal([]byte(labelsJSON), &qr.Labels)
		qr.Mentions = bio.Decode(qr.Sequence())

		results = append(results, qr)
	}

	return results, rows.Err()
}

// Stats summarizes one build: sequences per split, tokens per label and
// mentions per category.
type Stats struct {
	BuildID   string         `json:"build_id" yaml:"build_id"`
	Sequences map[string]int `json:"sequences" yaml:"sequences"`
	Labels    map[string]int `json:"labels" yaml:"labels"`
	Mentions  map[string]int `json:"mentions" yaml:"mentions"`
}

// Stats returns the counts of buildID. An empty id uses the latest build.
func (s *Store) Stats(ctx context.Context, buildID string) (Stats, error) {
	if buildID == "" {
		id, err := s.LatestBuild(ctx)
		if err != nil {
			return Stats{}, err
		}
		buildID = id
	}

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM builds WHERE id = ?`, buildID).Scan(&n); err != nil {
		return Stats{}, fmt.Errorf("looking up build: %w", err)
	}
	if n == 0 {
		return Stats{}, fmt.Errorf("build %s not found", buildID)
	}

	st := Stats{BuildID: buildID}
	var err error
	if st.Sequences, err = s.countBy(ctx,
		`SELECT split, count(*) FROM sequences WHERE build_id = ? GROUP BY split`, buildID); err != nil {
		return Stats{}, fmt.Errorf("counting sequences: %w", err)
	}
	if st.Labels, err = s.countBy(ctx,
		`SELECT j.value, count(*) FROM sequences q, json_each(q.labels) j
		 WHERE q.build_id = ? GROUP BY j.value`, buildID); err != nil {
		return Stats{}, fmt.Errorf("counting labels: %w", err)
	}
	if st.Mentions, err = s.countBy(ctx,
		`SELECT m.category, count(*) FROM mentions m JOIN sequences q ON q.id = m.sequence_id
		 WHERE q.build_id = ? GROUP BY m.category`, buildID); err != nil {
		return Stats{}, fmt.Errorf("counting mentions: %w", err)
	}
	return st, nil
}

func (s *Store) countBy(ctx context.Context, query string, args ...any) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var (
			key string
			n   int
		)
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		out[key] = n
	}
	return out, rows.Err()
}
