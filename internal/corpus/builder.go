// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package corpus turns documents with candidate phrases into a BIO-tagged,
// partitioned corpus.
//
// Each document is labeled on its own: its phrases are normalized, found in
// the text as category spans, and every sentence is tokenized and labeled
// against the spans that fall inside it. Documents share no mutable state,
// so the build fans out over a bounded worker group and merges results in
// document order.
package corpus

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/ner-corpus/internal/bio"
	"github.com/pdiddy/ner-corpus/internal/logging"
	"github.com/pdiddy/ner-corpus/internal/metrics"
	"github.com/pdiddy/ner-corpus/internal/phrase"
	"github.com/pdiddy/ner-corpus/internal/segment"
	"github.com/pdiddy/ner-corpus/internal/span"
	"github.com/pdiddy/ner-corpus/pkg/types"
)

// BuildSummary reports the results of a corpus build.
type BuildSummary struct {
	Documents int // documents labeled
	Skipped   int // documents without text
	Sentences int // sentences segmented
	Sequences int // tagged sequences produced
	Retained  int // sequences with at least one entity
	Dropped   int // all-O sequences removed by the filter
	Spans     map[string]int
}

// Total returns the number of documents seen.
func (s BuildSummary) Total() int {
	return s.Documents + s.Skipped
}

// Builder labels documents. It is safe for concurrent use.
type Builder struct {
	categories []string
	nfc        bool
	workers    int
	split      types.SplitConfig

	segmenter *segment.Segmenter
	finder    *span.Finder
	resolver  *bio.Resolver
	vocab     *bio.Vocabulary

	logger  logging.Logger
	metrics *metrics.Recorder
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the diagnostic logger.
func WithLogger(l logging.Logger) Option {
	return func(b *Builder) { b.logger = logging.OrNop(l) }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Recorder) Option {
	return func(b *Builder) { b.metrics = m }
}

// WithFinder shares a span finder, and with it the compiled pattern cache.
func WithFinder(f *span.Finder) Option {
	return func(b *Builder) {
		if f != nil {
			b.finder = f
		}
	}
}

// NewBuilder validates cfg and returns a Builder for it.
func NewBuilder(cfg types.CorpusConfig, opts ...Option) (*Builder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid corpus config: %w", err)
	}
	seg, err := segment.New(cfg.SentenceTerminators)
	if err != nil {
		return nil, err
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	b := &Builder{
		categories: append([]string(nil), cfg.Categories...),
		nfc:        cfg.NormalizeUnicode,
		workers:    workers,
		split:      cfg.Split,
		segmenter:  seg,
		finder:     span.NewFinder(),
		resolver:   bio.NewResolver(cfg.EffectivePriority()),
		vocab:      bio.NewVocabulary(cfg.Categories),
		logger:     logging.NewNopLogger(),
	}
	for _, o := range opts {
		o(b)
	}
	return b, nil
}

// Vocabulary returns the label vocabulary of the configured categories.
func (b *Builder) Vocabulary() *bio.Vocabulary { return b.vocab }

// docResult is the per-document output merged by Label.
type docResult struct {
	seqs      []types.TaggedSequence
	sentences int
	spans     map[string]int
	skipped   bool
}

// Tag labels a single document and returns one sequence per sentence, in
// sentence order. A document with blank text yields nothing.
func (b *Builder) Tag(doc types.Document) []types.TaggedSequence {
	return b.tag(doc).seqs
}

func (b *Builder) tag(doc types.Document) docResult {
	if strings.TrimSpace(doc.Text) == "" {
		return docResult{skipped: true}
	}

	spans := make(map[string][]types.Span, len(b.categories))
	counts := make(map[string]int, len(b.categories))
	for _, cat := range b.categories {
		phrases := b.normalize(doc.Phrases[cat])
		found := b.finder.Find(doc.Text, phrases, cat)
		if len(found) > 0 {
			spans[cat] = found
			counts[cat] = len(found)
		}
	}

	res := docResult{spans: counts}
	local := make(map[string][]types.Span, len(spans))
	for s := range b.segmenter.Sentences(doc.Text) {
		res.sentences++
		tokens := segment.Tokenize(s)
		if len(tokens) == 0 {
			continue
		}
		clear(local)
		for cat, sp := range spans {
			if in := bio.Within(sp, s.Start, s.End()); len(in) > 0 {
				local[cat] = in
			}
		}
		seq := b.resolver.Resolve(tokens, local)
		seq.DocumentID = doc.ID
		seq.Offset = s.Start
		res.seqs = append(res.seqs, seq)
	}
	return res
}

func (b *Builder) normalize(raw []string) []string {
	items := make([]any, len(raw))
	for i, s := range raw {
		items[i] = s
	}
	if b.nfc {
		return phrase.NormalizeNFC(items)
	}
	return phrase.Normalize(items)
}

// Label tags every document and returns the sequences in document order,
// then sentence order. The output does not depend on the number of
// workers. Label stops early and returns ctx.Err() when ctx is cancelled.
func (b *Builder) Label(ctx context.Context, docs []types.Document) ([]types.TaggedSequence, BuildSummary, error) {
	results := make([]docResult, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			results[i] = b.tag(docs[i])
			if results[i].skipped {
				b.logger.Debug("skipping document without text", logging.String("document", docs[i].ID))
				b.metrics.DocumentSkipped()
				return nil
			}
			b.metrics.DocumentProcessed(time.Since(start))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, BuildSummary{}, err
	}

	summary := BuildSummary{Spans: make(map[string]int)}
	var seqs []types.TaggedSequence
	for _, r := range results {
		if r.skipped {
			summary.Skipped++
			continue
		}
		summary.Documents++
		summary.Sentences += r.sentences
		for cat, n := range r.spans {
			summary.Spans[cat] += n
		}
		seqs = append(seqs, r.seqs...)
	}
	summary.Sequences = len(seqs)

	b.metrics.Sentences(summary.Sentences)
	for cat, n := range summary.Spans {
		b.metrics.Spans(cat, n)
	}
	return seqs, summary, nil
}

// Build labels docs and assembles the corpus from the resulting sequences.
func (b *Builder) Build(ctx context.Context, docs []types.Document) (types.Corpus, BuildSummary, error) {
	seqs, summary, err := b.Label(ctx, docs)
	if err != nil {
		return types.Corpus{}, summary, err
	}
	c := Assemble(seqs, b.split, b.vocab.Labels())
	summary.Retained = c.Size()
	summary.Dropped = summary.Sequences - summary.Retained

	b.metrics.Sequences(summary.Retained, summary.Dropped)
	for _, split := range types.Splits {
		for _, seq := range c.Partition(split) {
			b.metrics.Labels(seq.Labels())
		}
	}
	b.logger.Info("corpus built",
		logging.Int("documents", summary.Documents),
		logging.Int("skipped", summary.Skipped),
		logging.Int("retained", summary.Retained),
		logging.Int("dropped", summary.Dropped))
	return c, summary, nil
}
