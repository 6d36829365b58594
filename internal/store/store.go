// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store indexes built corpora in SQLite so that labeled sequences
// can be searched by text, entity and category.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/ner-corpus/internal/bio"
	"github.com/pdiddy/ner-corpus/internal/corpus"
	"github.com/pdiddy/ner-corpus/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "corpus.db"
)

// buildNamespace scopes build ids derived from corpus fingerprints.
var buildNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/pdiddy/ner-corpus/builds"))

// Store manages the corpus index database.
type Store struct {
	db         *sql.DB
	dir        string
	maxResults int
}

// NewStore opens or creates the index database at
// DatasetDir/index/corpus.db and creates the schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.DatasetDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, dir: dbDir, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Dir returns the index directory that holds the database and exports.
func (s *Store) Dir() string { return s.dir }

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS builds (
			id TEXT PRIMARY KEY,
			fingerprint TEXT NOT NULL UNIQUE,
			source TEXT,
			seed INTEGER,
			labels TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sequences (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			build_id TEXT NOT NULL REFERENCES builds(id) ON DELETE CASCADE,
			split TEXT NOT NULL,
			position INTEGER NOT NULL,
			document_id TEXT,
			start_offset INTEGER,
			tokens TEXT NOT NULL,
			labels TEXT NOT NULL,
			text TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sequences_build_split ON sequences(build_id, split, position)`,
		`CREATE TABLE IF NOT EXISTS mentions (
			sequence_id TEXT NOT NULL REFERENCES sequences(id) ON DELETE CASCADE,
			category TEXT NOT NULL,
			text TEXT NOT NULL,
			first_token INTEGER NOT NULL,
			last_token INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_mentions_sequence ON mentions(sequence_id)`,
		`CREATE INDEX IF NOT EXISTS idx_mentions_category ON mentions(category)`,
		`CREATE INDEX IF NOT EXISTS idx_mentions_text ON mentions(text COLLATE NOCASE)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='sequences_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE sequences_fts USING fts5(text, content=sequences, content_rowid=rowid)`,
			`CREATE TRIGGER sequences_ai AFTER INSERT ON sequences BEGIN
				INSERT INTO sequences_fts(rowid, text) VALUES (new.rowid, new.text);
			END`,
			`CREATE TRIGGER sequences_ad AFTER DELETE ON sequences BEGIN
				INSERT INTO sequences_fts(sequences_fts, rowid, text) VALUES('delete', old.rowid, old.text);
			END`,
			`CREATE TRIGGER sequences_au AFTER UPDATE ON sequences BEGIN
				INSERT INTO sequences_fts(sequences_fts, rowid, text) VALUES('delete', old.rowid, old.text);
				INSERT INTO sequences_fts(rowid, text) VALUES (new.rowid, new.text);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// BuildInfo describes where a corpus came from.
type BuildInfo struct {
	// Source is the input path the corpus was built from.
	Source string

	// Seed is the shuffle seed of the build.
	Seed int64

	// Fingerprint identifies the corpus content. Empty computes it.
	Fingerprint string

	// CreatedAt defaults to the ingest time.
	CreatedAt time.Time
}

// BuildID returns the stable build id of a corpus fingerprint.
func BuildID(fingerprint string) string {
	return uuid.NewSHA1(buildNamespace, []byte(fingerprint)).String()
}

// IngestSummary holds counts from an index run.
type IngestSummary struct {
	BuildID   string
	Sequences int
	Mentions  int

	// Skipped is set when the build was already indexed.
	Skipped bool
}

// Ingest indexes every sequence of c under a build id derived from its
// fingerprint. A corpus that is already indexed is skipped. On success it
// refreshes export.yaml.
func (s *Store) Ingest(ctx context.Context, c types.Corpus, info BuildInfo, w io.Writer) (IngestSummary, error) {
	if info.Fingerprint == "" {
		info.Fingerprint = corpus.Fingerprint(c)
	}
	if info.CreatedAt.IsZero() {
		info.CreatedAt = time.Now()
	}
	summary := IngestSummary{BuildID: BuildID(info.Fingerprint)}

	var existing int
	if err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM builds WHERE id = ?`, summary.BuildID,
	).Scan(&existing); err != nil {
		return summary, fmt.Errorf("checking build: %w", err)
	}
	if existing > 0 {
		fmt.Fprintf(w, "skipped %s (already indexed)\n", summary.BuildID)
		summary.Skipped = true
		return summary, nil
	}

	fmt.Fprintf(w, "indexing %s (%d sequences)\n", summary.BuildID, c.Size())
	if err := s.ingestBuild(ctx, c, info, &summary); err != nil {
		return summary, err
	}
	fmt.Fprintf(w, "\nsequences: %d, mentions: %d\n", summary.Sequences, summary.Mentions)

	if err := s.ExportYAML(ctx, QueryOptions{BuildID: summary.BuildID}); err != nil {
		fmt.Fprintf(w, "warning: export.yaml write failed: %v\n", err)
	}
	return summary, nil
}

func (s *Store) ingestBuild(ctx context.Context, c types.Corpus, info BuildInfo, summary *IngestSummary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	labelsJSON, _ := json.Marshal(c.Labels)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO builds (id, fingerprint, source, seed, labels, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		summary.BuildID, info.Fingerprint, info.Source, info.Seed, string(labelsJSON),
		info.CreatedAt.UnixNano(),
	); err != nil {
		return fmt.Errorf("inserting build: %w", err)
	}

	seqStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO sequences (id, build_id, split, position, document_id, start_offset, tokens, labels, text)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing sequence insert: %w", err)
	}
	defer seqStmt.Close()

	mentionStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO mentions (sequence_id, category, text, first_token, last_token) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing mention insert: %w", err)
	}
	defer mentionStmt.Close()

	for _, split := range types.Splits {
		for i, seq := range c.Partition(split) {
			if err := ctx.Err(); err != nil {
				return err
			}
			id := sequenceID(summary.BuildID, split, i)
			words := seq.Words()
			tokensJSON, _ := json.Marshal(words)
			seqLabelsJSON, _ := json.Marshal(seq.Labels())
			if _, err := seqStmt.ExecContext(ctx,
				id, summary.BuildID, string(split), i, seq.DocumentID, seq.Offset,
				string(tokensJSON), string(seqLabelsJSON), strings.Join(words, " "),
			); err != nil {
				return fmt.Errorf("inserting sequence %s: %w", id, err)
			}
			summary.Sequences++

			for _, m := range bio.Decode(seq) {
				if _, err := mentionStmt.ExecContext(ctx, id, m.Category, m.Text, m.First, m.Last); err != nil {
					return fmt.Errorf("inserting mention of %s: %w", id, err)
				}
				summary.Mentions++
			}
		}
	}

	return tx.Commit()
}

func sequenceID(buildID string, split types.Split, position int) string {
	return fmt.Sprintf("%s/%s/%d", buildID, split, position)
}

// BuildRecord is an indexed build.
type BuildRecord struct {
	ID          string    `json:"id" yaml:"id"`
	Fingerprint string    `json:"fingerprint" yaml:"fingerprint"`
	Source      string    `json:"source" yaml:"source"`
	Seed        int64     `json:"seed" yaml:"seed"`
	Labels      []string  `json:"labels" yaml:"labels"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// Builds lists indexed builds, newest first.
func (s *Store) Builds(ctx context.Context) ([]BuildRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, fingerprint, source, seed, labels, created_at FROM builds ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("listing builds: %w", err)
	}
	defer rows.Close()

	var out []BuildRecord
	for rows.Next() {
		var (
			b          BuildRecord
			source     sql.NullString
			labelsJSON string
			created    int64
		)
		if err := rows.Scan(&b.ID, &b.Fingerprint, &source, &b.Seed, &labelsJSON, &created); err != nil {
			return nil, fmt.Errorf("scanning build: %w", err)
		}
		b.Source = source.String
		json.Unmarshal([]byte(labelsJSON), &b.Labels)
		b.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, b)
	}
	return out, rows.Err()
}

// LatestBuild returns the id of the most recently indexed build.
func (s *Store) LatestBuild(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM builds ORDER BY created_at DESC, id LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("no builds indexed")
	}
	if err != nil {
		return "", fmt.Errorf("looking up latest build: %w", err)
	}
	return id, nil
}
