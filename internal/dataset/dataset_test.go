// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dataset

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/ner-corpus/pkg/types"
)

func seq(doc string, offset int, pairs ...string) types.TaggedSequence {
	s := types.TaggedSequence{DocumentID: doc, Offset: offset}
	for i := 0; i+1 < len(pairs); i += 2 {
		s.Tokens = append(s.Tokens, types.TaggedToken{Token: pairs[i], Label: pairs[i+1]})
	}
	return s
}

func sampleCorpus() types.Corpus {
	return types.Corpus{
		Labels: []string{"O", "B-ORG", "I-ORG", "B-VULN", "I-VULN"},
		Train: []types.TaggedSequence{
			seq("d1", 0, "안랩", "B-ORG", "이", "O", "발표", "O"),
			seq("d2", 12, "제로데이", "B-VULN", "취약점", "I-VULN"),
		},
		Validation: []types.TaggedSequence{
			seq("d3", 4, "Microsoft", "B-ORG", "Exchange", "O"),
		},
		Test: []types.TaggedSequence{
			seq("d4", 0, "취약점", "B-VULN", ",", "O"),
		},
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestWriteAllFormats(t *testing.T) {
	dir := t.TempDir()
	written, err := Write(dir, sampleCorpus(), Formats)
	require.NoError(t, err)
	assert.Len(t, written, 1+3+1+3+1)
	assert.Equal(t, filepath.Join(dir, LabelsFile), written[0])
	for _, p := range written {
		assert.FileExists(t, p)
	}

	var labels []string
	require.NoError(t, json.Unmarshal([]byte(readFile(t, filepath.Join(dir, LabelsFile))), &labels))
	assert.Equal(t, sampleCorpus().Labels, labels)
}

func TestWriteLabelsOnly(t *testing.T) {
	dir := t.TempDir()
	written, err := Write(dir, sampleCorpus(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, LabelsFile)}, written)
	assert.NoFileExists(t, filepath.Join(dir, JSONFile))
}

func TestWriteCoNLL(t *testing.T) {
	dir := t.TempDir()
	_, err := Write(dir, sampleCorpus(), []string{FormatCoNLL})
	require.NoError(t, err)

	assert.Equal(t, "안랩 B-ORG\n이 O\n발표 O\n\n제로데이 B-VULN\n취약점 I-VULN\n\n",
		readFile(t, filepath.Join(dir, "train.conll")))
	assert.Equal(t, "Microsoft B-ORG\nExchange O\n\n",
		readFile(t, filepath.Join(dir, "validation.conll")))
	assert.Equal(t, "취약점 B-VULN\n, O\n\n", readFile(t, filepath.Join(dir, "test.conll")))
}

func TestWriteCSV(t *testing.T) {
	dir := t.TempDir()
	_, err := Write(dir, sampleCorpus(), []string{FormatCSV})
	require.NoError(t, err)

	raw := readFile(t, filepath.Join(dir, "ner_train.csv"))
	require.True(t, strings.HasPrefix(raw, "\ufeff"), "csv output starts with a byte order mark")

	rows, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(raw, "\ufeff"))).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"token_tag_sequence"},
		{"안랩 1 이 0 발표 0"},
		{"제로데이 3 취약점 4"},
	}, rows)
	assert.FileExists(t, filepath.Join(dir, "ner_validation.csv"))
	assert.FileExists(t, filepath.Join(dir, "ner_test.csv"))
}

func TestWritePreview(t *testing.T) {
	c := sampleCorpus()
	for i := 0; i < 40; i++ {
		c.Train = append(c.Train, seq("extra", i, "x", "O"))
	}
	dir := t.TempDir()
	_, err := Write(dir, c, []string{FormatPreview})
	require.NoError(t, err)

	raw := strings.TrimPrefix(readFile(t, filepath.Join(dir, PreviewFile)), "\ufeff")
	rows, err := csv.NewReader(strings.NewReader(raw)).ReadAll()
	require.NoError(t, err)

	assert.Equal(t, []string{"token", "label"}, rows[0])
	assert.Equal(t, []string{"안랩", "B-ORG"}, rows[1])
	assert.Equal(t, []string{"", ""}, rows[4])

	// Header, 3+2 tokens for the first two sequences, 28 single-token
	// sequences, and one separator per sequence.
	assert.Len(t, rows, 1+5+28+PreviewSequences)
}

func TestWriteErrors(t *testing.T) {
	tests := []struct {
		name    string
		corpus  types.Corpus
		formats []string
		want    string
	}{
		{"unknown format", sampleCorpus(), []string{"parquet"}, "unknown dataset format"},
		{"label outside vocabulary", types.Corpus{
			Labels: []string{"O"},
			Train:  []types.TaggedSequence{seq("d", 0, "x", "B-ORG")},
		}, nil, "outside the vocabulary"},
		{"duplicate label", types.Corpus{Labels: []string{"O", "O"}}, nil, "duplicate label"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "out")
			_, err := Write(dir, tt.corpus, tt.formats)
			assert.ErrorContains(t, err, tt.want)
			assert.NoDirExists(t, dir)
		})
	}
}

func TestJSONRoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := sampleCorpus()
	_, err := Write(dir, want, []string{FormatJSON})
	require.NoError(t, err)

	var f File
	require.NoError(t, json.Unmarshal([]byte(readFile(t, filepath.Join(dir, JSONFile))), &f))
	assert.Equal(t, [][]int{{1, 0, 0}, {3, 4}}, f.Train.NERTags)
	assert.Equal(t, [][]string{{"Microsoft", "Exchange"}}, f.Validation.Tokens)

	got, err := ReadJSON(dir)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestReadJSONErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"malformed", "{", "parsing"},
		{"row mismatch", `{"labels":["O"],"train":{"tokens":[["a"]],"ner_tags":[]}}`, "1 token rows but 0 tag rows"},
		{"length mismatch", `{"labels":["O"],"train":{"tokens":[["a","b"]],"ner_tags":[[0]]}}`, "2 tokens but 1 tags"},
		{"id out of range", `{"labels":["O"],"test":{"tokens":[["a"]],"ner_tags":[[3]]}}`, "class id 3 out of range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, JSONFile), []byte(tt.content), 0o644))
			_, err := ReadJSON(dir)
			assert.ErrorContains(t, err, tt.want)
		})
	}

	_, err := ReadJSON(t.TempDir())
	assert.Error(t, err)
}
