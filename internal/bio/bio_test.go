// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/ner-corpus/internal/phrase"
	"github.com/pdiddy/ner-corpus/internal/segment"
	"github.com/pdiddy/ner-corpus/internal/span"
	"github.com/pdiddy/ner-corpus/pkg/types"
)

func TestVocabulary(t *testing.T) {
	v := NewVocabulary([]string{"ORG", "VULN", "ORG"})
	assert.Equal(t, []string{"O", "B-ORG", "I-ORG", "B-VULN", "I-VULN"}, v.Labels())
	assert.Equal(t, 5, v.Len())

	id, ok := v.ID("I-VULN")
	require.True(t, ok)
	assert.Equal(t, 4, id)

	l, ok := v.Label(1)
	require.True(t, ok)
	assert.Equal(t, "B-ORG", l)

	_, ok = v.Label(5)
	assert.False(t, ok)
	_, ok = v.ID("B-PROD")
	assert.False(t, ok)

	ids, err := v.IDs([]string{"O", "B-VULN", "I-VULN"})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3, 4}, ids)

	back, err := v.FromIDs(ids)
	require.NoError(t, err)
	assert.Equal(t, []string{"O", "B-VULN", "I-VULN"}, back)

	_, err = v.IDs([]string{"B-EVT"})
	assert.Error(t, err)
	_, err = v.FromIDs([]int{-1})
	assert.Error(t, err)
}

func TestVocabularyLabelsIsCopy(t *testing.T) {
	v := NewVocabulary([]string{"ORG"})
	labels := v.Labels()
	labels[0] = "X"
	assert.Equal(t, "O", v.Labels()[0])
}

func TestParse(t *testing.T) {
	tests := []struct {
		label, prefix, category string
	}{
		{"B-ORG", PrefixBegin, "ORG"},
		{"I-ATTACK", PrefixInside, "ATTACK"},
		{"O", "", ""},
		{"B-", "", ""},
		{"X-ORG", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			p, c := Parse(tt.label)
			assert.Equal(t, tt.prefix, p)
			assert.Equal(t, tt.category, c)
		})
	}
}

func tok(text string, start int) types.Token {
	return types.Token{Text: text, Start: start, End: start + len(text)}
}

func TestResolve(t *testing.T) {
	// "ab cd ef" with tokens at 0, 3, 6
	tokens := []types.Token{tok("ab", 0), tok("cd", 3), tok("ef", 6)}

	tests := []struct {
		name     string
		priority []string
		spans    map[string][]types.Span
		want     []string
	}{
		{
			name:     "no spans",
			priority: []string{"ORG"},
			spans:    nil,
			want:     []string{"O", "O", "O"},
		},
		{
			name:     "multi token span",
			priority: []string{"ORG"},
			spans:    map[string][]types.Span{"ORG": {{Start: 0, End: 5, Category: "ORG"}}},
			want:     []string{"B-ORG", "I-ORG", "O"},
		},
		{
			name:     "span starting inside token gives inside label",
			priority: []string{"ORG"},
			spans:    map[string][]types.Span{"ORG": {{Start: 4, End: 8, Category: "ORG"}}},
			want:     []string{"O", "I-ORG", "I-ORG"},
		},
		{
			name:     "priority decides overlap",
			priority: []string{"VULN", "ORG"},
			spans: map[string][]types.Span{
				"ORG":  {{Start: 0, End: 8, Category: "ORG"}},
				"VULN": {{Start: 3, End: 5, Category: "VULN"}},
			},
			want: []string{"B-ORG", "B-VULN", "I-ORG"},
		},
		{
			name:     "unlisted category ignored",
			priority: []string{"VULN"},
			spans:    map[string][]types.Span{"ORG": {{Start: 0, End: 2, Category: "ORG"}}},
			want:     []string{"O", "O", "O"},
		},
		{
			name:     "earliest span in category",
			priority: []string{"ATTACK"},
			spans: map[string][]types.Span{"ATTACK": {
				{Start: 4, End: 5, Category: "ATTACK"},
				{Start: 3, End: 4, Category: "ATTACK"},
			}},
			want: []string{"O", "B-ATTACK", "O"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq := NewResolver(tt.priority).Resolve(tokens, tt.spans)
			assert.Equal(t, tt.want, seq.Labels())
			assert.Equal(t, []string{"ab", "cd", "ef"}, seq.Words())
			assert.Equal(t, 0, seq.Offset)
		})
	}
}

func TestResolveDeterministic(t *testing.T) {
	tokens := []types.Token{tok("ab", 0), tok("cd", 3)}
	spans := map[string][]types.Span{
		"ORG":    {{Start: 0, End: 5}},
		"ATTACK": {{Start: 0, End: 2}},
		"VULN":   {{Start: 3, End: 5}},
	}
	r := NewResolver([]string{"VULN", "ATTACK", "ORG"})
	first := r.Resolve(tokens, spans)
	for range 20 {
		assert.Equal(t, first, r.Resolve(tokens, spans))
	}
	assert.Equal(t, []string{"B-ATTACK", "B-VULN"}, first.Labels())
}

func TestWithin(t *testing.T) {
	spans := []types.Span{{Start: 0, End: 3}, {Start: 5, End: 9}, {Start: 12, End: 14}}
	assert.Equal(t, []types.Span{{Start: 5, End: 9}}, Within(spans, 4, 10))
	assert.Equal(t, []types.Span{{Start: 0, End: 3}, {Start: 5, End: 9}}, Within(spans, 2, 6))
	assert.Empty(t, Within(spans, 3, 5))
	assert.Empty(t, Within(nil, 0, 100))
}

func TestPriority(t *testing.T) {
	in := []string{"VULN", "ORG"}
	r := NewResolver(in)
	in[0] = "X"
	assert.Equal(t, []string{"VULN", "ORG"}, r.Priority())
}

// tagSentence runs the full labeling path over one sentence of text.
func tagSentence(t *testing.T, text string, phrases map[string][]string, priority []string) types.TaggedSequence {
	t.Helper()
	f := span.NewFinder()
	spans := make(map[string][]types.Span)
	for cat, raw := range phrases {
		spans[cat] = f.Find(text, phrase.Strings(raw), cat)
	}
	sents := segment.Default().Split(text)
	require.Len(t, sents, 1)
	s := sents[0]
	local := make(map[string][]types.Span)
	for cat, sp := range spans {
		local[cat] = Within(sp, s.Start, s.End())
	}
	return NewResolver(priority).Resolve(segment.Tokenize(s), local)
}

func TestResolveZeroDayScenario(t *testing.T) {
	seq := tagSentence(t, "APT 그룹이 제로데이 취약점을 악용했다.", map[string][]string{
		"VULN":   {"제로데이 취약점", "취약점"},
		"ATTACK": {"악용"},
	}, []string{"VULN", "ATTACK", "PROD", "EVT", "ORG", "STRATEGY"})

	assert.Equal(t, []string{"APT", "그룹이", "제로데이", "취약점을", "악용했다", "."}, seq.Words())
	assert.Equal(t, []string{"O", "O", "B-VULN", "I-VULN", "B-ATTACK", "O"}, seq.Labels())
}

func TestResolveITScenario(t *testing.T) {
	seq := tagSentence(t, "IT 기업의 ITSM 서버에 트로이목마가 설치됐다", map[string][]string{
		"ORG":    {"IT"},
		"ATTACK": {"트로이목마"},
	}, []string{"ATTACK", "ORG"})

	assert.Equal(t, []string{"IT", "기업의", "ITSM", "서버에", "트로이목마가", "설치됐다"}, seq.Words())
	assert.Equal(t, []string{"B-ORG", "O", "O", "O", "B-ATTACK", "O"}, seq.Labels())
}

func TestResolveLongestMatch(t *testing.T) {
	seq := tagSentence(t, "보안 취약점이 발견됐다.", map[string][]string{
		"VULN": {"취약점", "보안 취약점"},
	}, []string{"VULN"})

	assert.Equal(t, []string{"B-VULN", "I-VULN", "O", "O"}, seq.Labels())
}

func TestDecode(t *testing.T) {
	seq := func(pairs ...string) types.TaggedSequence {
		var s types.TaggedSequence
		for i := 0; i < len(pairs); i += 2 {
			s.Tokens = append(s.Tokens, types.TaggedToken{Token: pairs[i], Label: pairs[i+1]})
		}
		return s
	}

	tests := []struct {
		name string
		seq  types.TaggedSequence
		want []Mention
	}{
		{
			name: "empty",
			seq:  seq(),
			want: nil,
		},
		{
			name: "single and multi token",
			seq:  seq("랜섬웨어", "B-ATTACK", "공격", "I-ATTACK", "으로", "O", "Microsoft", "B-ORG"),
			want: []Mention{
				{Category: "ATTACK", Text: "랜섬웨어 공격", First: 0, Last: 1},
				{Category: "ORG", Text: "Microsoft", First: 3, Last: 3},
			},
		},
		{
			name: "adjacent begins",
			seq:  seq("A", "B-ORG", "B", "B-ORG"),
			want: []Mention{
				{Category: "ORG", Text: "A", First: 0, Last: 0},
				{Category: "ORG", Text: "B", First: 1, Last: 1},
			},
		},
		{
			name: "mismatched inside closes and is dropped",
			seq:  seq("제로데이", "B-VULN", "악용", "I-ATTACK", "취약점", "I-VULN"),
			want: []Mention{{Category: "VULN", Text: "제로데이", First: 0, Last: 0}},
		},
		{
			name: "orphan inside ignored",
			seq:  seq("x", "I-ORG", "y", "O"),
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decode(tt.seq))
		})
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	seq := tagSentence(t, "APT 그룹이 제로데이 취약점을 악용했다.", map[string][]string{
		"VULN":   {"제로데이 취약점"},
		"ATTACK": {"악용"},
	}, []string{"VULN", "ATTACK"})

	got := Group(Decode(seq))
	assert.Equal(t, map[string][]string{
		"VULN":   {"제로데이 취약점을"},
		"ATTACK": {"악용했다"},
	}, got)
}
