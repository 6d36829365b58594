// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pdiddy/ner-corpus/internal/logging"
	"github.com/pdiddy/ner-corpus/internal/metrics"
	"github.com/pdiddy/ner-corpus/pkg/types"
)

func testConfig(workers int) types.CorpusConfig {
	cfg := types.DefaultConfig().Corpus
	cfg.Workers = workers
	return cfg
}

func sampleDocs(n int) []types.Document {
	templates := []struct {
		text    string
		phrases map[string][]string
	}{
		{
			text: "APT 그룹이 제로데이 취약점을 악용했다. 피해 규모는 아직 알려지지 않았다.",
			phrases: map[string][]string{
				"VULN":   {"제로데이 취약점", "취약점"},
				"ATTACK": {"악용"},
			},
		},
		{
			text: "IT 기업의 ITSM 서버에 트로이목마가 설치됐다.\n보안팀은 제로 트러스트 도입을 검토 중이다.",
			phrases: map[string][]string{
				"ORG":      {"IT"},
				"ATTACK":   {"트로이목마"},
				"STRATEGY": {"제로 트러스트"},
			},
		},
		{
			text: "Microsoft가 Exchange Server 보안 업데이트를 발표했다. 오늘 날씨는 맑다.",
			phrases: map[string][]string{
				"ORG":  {"Microsoft"},
				"PROD": {"Exchange Server"},
			},
		},
		{
			text:    "   ",
			phrases: map[string][]string{"VULN": {"취약점"}},
		},
	}
	docs := make([]types.Document, n)
	for i := range docs {
		tpl := templates[i%len(templates)]
		docs[i] = types.Document{ID: fmt.Sprintf("doc-%03d", i), Text: tpl.text, Phrases: tpl.phrases}
	}
	return docs
}

func TestTag(t *testing.T) {
	b, err := NewBuilder(testConfig(1))
	require.NoError(t, err)

	seqs := b.Tag(sampleDocs(1)[0])
	require.Len(t, seqs, 2)
	assert.Equal(t, "doc-000", seqs[0].DocumentID)
	assert.Equal(t, 0, seqs[0].Offset)
	assert.Equal(t, []string{"O", "O", "B-VULN", "I-VULN", "B-ATTACK", "O"}, seqs[0].Labels())
	assert.False(t, seqs[1].HasEntity())

	text := sampleDocs(1)[0].Text
	assert.Equal(t, seqs[1].Tokens[0].Token, text[seqs[1].Offset:seqs[1].Offset+len(seqs[1].Tokens[0].Token)])
}

func TestTagBlankDocument(t *testing.T) {
	b, err := NewBuilder(testConfig(1))
	require.NoError(t, err)
	assert.Empty(t, b.Tag(types.Document{ID: "blank", Text: " \n "}))
}

func TestTagPriority(t *testing.T) {
	cfg := testConfig(1)
	cfg.Priority = []string{"ATTACK", "VULN"}
	b, err := NewBuilder(cfg)
	require.NoError(t, err)

	doc := types.Document{ID: "p", Text: "랜섬웨어 취약점 공격", Phrases: map[string][]string{
		"VULN":   {"랜섬웨어 취약점"},
		"ATTACK": {"취약점 공격"},
	}}
	seqs := b.Tag(doc)
	require.Len(t, seqs, 1)
	assert.Equal(t, []string{"B-VULN", "B-ATTACK", "I-ATTACK"}, seqs[0].Labels())
}

func TestLabelSummary(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	rec := metrics.NewRecorder("")
	b, err := NewBuilder(testConfig(2),
		WithLogger(logging.NewLoggerFromCore(core)), WithMetrics(rec))
	require.NoError(t, err)

	seqs, summary, err := b.Label(context.Background(), sampleDocs(4))
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Documents)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 4, summary.Total())
	assert.Equal(t, 6, summary.Sentences)
	assert.Equal(t, 6, summary.Sequences)
	assert.Len(t, seqs, 6)
	assert.Equal(t, 1, summary.Spans["VULN"])
	assert.Equal(t, 2, summary.Spans["ATTACK"])
	// "Microsoft가" has no word boundary after the name.
	assert.Equal(t, 1, summary.Spans["ORG"])

	skipped := logs.FilterMessage("skipping document without text").All()
	require.Len(t, skipped, 1)
	assert.Equal(t, "doc-003", skipped[0].ContextMap()["document"])

	expected := `
# HELP ner_corpus_sentences_total Sentences segmented from document text.
# TYPE ner_corpus_sentences_total counter
ner_corpus_sentences_total 6
`
	assert.NoError(t, testutil.GatherAndCompare(rec.Registry(), strings.NewReader(expected), "ner_corpus_sentences_total"))
}

func TestParallelMatchesSequential(t *testing.T) {
	docs := sampleDocs(64)

	seq, err := NewBuilder(testConfig(1))
	require.NoError(t, err)
	par, err := NewBuilder(testConfig(8))
	require.NoError(t, err)

	want, _, err := seq.Build(context.Background(), docs)
	require.NoError(t, err)
	got, _, err := par.Build(context.Background(), docs)
	require.NoError(t, err)

	assert.Equal(t, want, got)
	assert.Equal(t, Fingerprint(want), Fingerprint(got))
}

func TestBuildIdempotent(t *testing.T) {
	b, err := NewBuilder(testConfig(4))
	require.NoError(t, err)
	docs := sampleDocs(40)

	first, _, err := b.Build(context.Background(), docs)
	require.NoError(t, err)
	second, _, err := b.Build(context.Background(), docs)
	require.NoError(t, err)
	assert.Equal(t, Fingerprint(first), Fingerprint(second))
}

func TestBuildFilterAndSplit(t *testing.T) {
	b, err := NewBuilder(testConfig(4))
	require.NoError(t, err)

	c, summary, err := b.Build(context.Background(), sampleDocs(40))
	require.NoError(t, err)

	// 30 documents with text, two sentences each; one sentence in three
	// of those carries no entity.
	assert.Equal(t, 60, summary.Sequences)
	assert.Equal(t, 40, summary.Retained)
	assert.Equal(t, 20, summary.Dropped)
	assert.Equal(t, 40, c.Size())
	assert.Len(t, c.Train, 32)
	assert.Len(t, c.Validation, 4)
	assert.Len(t, c.Test, 4)
	assert.Equal(t, b.Vocabulary().Labels(), c.Labels)

	for _, split := range types.Splits {
		for _, s := range c.Partition(split) {
			assert.True(t, s.HasEntity())
		}
	}
}

func TestBuildCancelled(t *testing.T) {
	b, err := NewBuilder(testConfig(2))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err = b.Build(ctx, sampleDocs(10))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewBuilderInvalid(t *testing.T) {
	cfg := testConfig(1)
	cfg.Priority = []string{"NOPE"}
	_, err := NewBuilder(cfg)
	assert.Error(t, err)

	cfg = testConfig(1)
	cfg.SentenceTerminators = []string{"("}
	_, err = NewBuilder(cfg)
	assert.Error(t, err)
}

func seqWith(id string, label string) types.TaggedSequence {
	return types.TaggedSequence{DocumentID: id, Tokens: []types.TaggedToken{{Token: id, Label: label}}}
}

func TestAssemble(t *testing.T) {
	var seqs []types.TaggedSequence
	for i := range 25 {
		label := "B-ORG"
		if i%5 == 0 {
			label = "O"
		}
		seqs = append(seqs, seqWith(fmt.Sprintf("s%02d", i), label))
	}
	cfg := types.SplitConfig{Seed: 42, TrainRatio: 0.8, ValidationRatio: 0.1}

	c := Assemble(seqs, cfg, []string{"O", "B-ORG", "I-ORG"})
	assert.Equal(t, 20, c.Size())
	assert.Len(t, c.Train, 16)
	assert.Len(t, c.Validation, 2)
	assert.Len(t, c.Test, 2)

	seen := make(map[string]bool)
	for _, split := range types.Splits {
		for _, s := range c.Partition(split) {
			assert.False(t, seen[s.DocumentID], "sequence in two partitions")
			seen[s.DocumentID] = true
		}
	}
	assert.Len(t, seen, 20)

	assert.Equal(t, c, Assemble(seqs, cfg, []string{"O", "B-ORG", "I-ORG"}))
	assert.Equal(t, "s00", seqs[0].DocumentID, "input untouched")

	cfg.Seed = 7
	assert.NotEqual(t, Fingerprint(c), Fingerprint(Assemble(seqs, cfg, []string{"O", "B-ORG", "I-ORG"})))
}

func TestAssembleSmall(t *testing.T) {
	cfg := types.SplitConfig{Seed: 42, TrainRatio: 0.8, ValidationRatio: 0.1}

	c := Assemble(nil, cfg, nil)
	assert.Equal(t, 0, c.Size())

	c = Assemble([]types.TaggedSequence{seqWith("a", "B-ORG"), seqWith("b", "B-ORG")}, cfg, nil)
	assert.Len(t, c.Train, 1)
	assert.Empty(t, c.Validation)
	assert.Len(t, c.Test, 1)
}

func TestFingerprint(t *testing.T) {
	c := types.Corpus{Labels: []string{"O"}, Train: []types.TaggedSequence{seqWith("a", "O")}}
	other := c
	other.Test = other.Train
	other.Train = nil

	assert.Len(t, Fingerprint(c), 64)
	assert.Equal(t, Fingerprint(c), Fingerprint(c))
	assert.NotEqual(t, Fingerprint(c), Fingerprint(other))
}
