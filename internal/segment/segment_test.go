// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package segment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/ner-corpus/pkg/types"
)

func TestSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []types.Sentence
	}{
		{
			name: "empty",
			text: "",
			want: nil,
		},
		{
			name: "blank",
			text: " \n\t ",
			want: nil,
		},
		{
			name: "no delimiter",
			text: "  hello world  ",
			want: []types.Sentence{{Text: "hello world", Start: 2}},
		},
		{
			name: "punctuation and newlines",
			text: "  First one. Second!\n\nThird",
			want: []types.Sentence{
				{Text: "First one.", Start: 2},
				{Text: "Second!", Start: 13},
				{Text: "Third", Start: 22},
			},
		},
		{
			name: "punctuation run",
			text: "Really?! Yes.",
			want: []types.Sentence{
				{Text: "Really?!", Start: 0},
				{Text: "Yes.", Start: 9},
			},
		},
		{
			name: "korean ending",
			text: "공격이 발생했다. 피해는 없다",
			want: []types.Sentence{
				{Text: "공격이 발생했다.", Start: 0},
				{Text: "피해는 없다", Start: len("공격이 발생했다. ")},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Default().Split(tt.text)
			assert.Equal(t, tt.want, got)
			for _, s := range got {
				assert.Equal(t, s.Text, tt.text[s.Start:s.End()])
			}
		})
	}
}

func TestSentencesRestartable(t *testing.T) {
	seq := Default().Sentences("One. Two. Three.")
	var first, second []string
	for s := range seq {
		first = append(first, s.Text)
	}
	for s := range seq {
		second = append(second, s.Text)
	}
	assert.Equal(t, []string{"One.", "Two.", "Three."}, first)
	assert.Equal(t, first, second)
}

func TestSentencesEarlyStop(t *testing.T) {
	n := 0
	for range Default().Sentences("a. b. c. d.") {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestNewCustomTerminators(t *testing.T) {
	g, err := New([]string{`;`})
	require.NoError(t, err)
	got := g.Split("left; right. still right")
	require.Len(t, got, 2)
	assert.Equal(t, "left;", got[0].Text)
	assert.Equal(t, "right. still right", got[1].Text)
}

func TestNewInvalidTerminators(t *testing.T) {
	_, err := New([]string{`[`})
	assert.Error(t, err)

	_, err = New([]string{`\.`, ""})
	assert.Error(t, err)
}

func TestTokens(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "korean sentence", text: "APT 그룹이 제로데이 취약점을 악용했다.", want: []string{"APT", "그룹이", "제로데이", "취약점을", "악용했다", "."}},
		{name: "punctuation is split", text: "C++ 2.0", want: []string{"C", "+", "+", "2", ".", "0"}},
		{name: "underscore joins", text: "foo_bar baz", want: []string{"foo_bar", "baz"}},
		{name: "unicode spaces", text: "a\u00a0b\u3000c", want: []string{"a", "b", "c"}},
		{name: "combining mark stays in word", text: "cafe\u0301 ok", want: []string{"cafe\u0301", "ok"}},
		{name: "cve id", text: "CVE-2024-1234", want: []string{"CVE", "-", "2024", "-", "1234"}},
		{name: "empty", text: "", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const offset = 17
			doc := strings.Repeat(" ", offset) + tt.text
			s := types.Sentence{Text: tt.text, Start: offset}

			var words []string
			prevEnd := offset
			for _, tok := range Tokenize(s) {
				words = append(words, tok.Text)
				assert.Equal(t, tok.Text, doc[tok.Start:tok.End])
				assert.GreaterOrEqual(t, tok.Start, prevEnd, "tokens ordered and disjoint")
				prevEnd = tok.End
			}
			assert.Equal(t, tt.want, words)
		})
	}
}

func TestTokensCoverNonSpace(t *testing.T) {
	text := "보안 업체 'A사'는 6일(현지시간) 새 취약점을 공개했다!"
	s := types.Sentence{Text: text}
	covered := make([]bool, len(text))
	for tok := range Tokens(s) {
		for i := tok.Start; i < tok.End; i++ {
			covered[i] = true
		}
	}
	for i, r := range text {
		if IsSpaceRune(r) {
			assert.False(t, covered[i], "space at %d emitted", i)
		} else {
			assert.True(t, covered[i], "rune %q at %d not covered", r, i)
		}
	}
}

func TestIsWordRune(t *testing.T) {
	for _, r := range "a가Z9_\u0301\u0663" {
		assert.True(t, IsWordRune(r), "%q", r)
	}
	for _, r := range " .-'\"(" {
		assert.False(t, IsWordRune(r), "%q", r)
	}
}

func TestText(t *testing.T) {
	text := NewText("보안 IT\xff기업")
	assert.Equal(t, "보안 IT\xff기업", text.String())

	s, e := text.Bytes(0, 2)
	assert.Equal(t, "보안", text.String()[s:e])
	s, e = text.Bytes(3, 2)
	assert.Equal(t, "IT", text.String()[s:e])
	s, e = text.Bytes(6, 2)
	assert.Equal(t, "기업", text.String()[s:e], "an invalid byte counts as one rune")
	s, e = text.Bytes(8, 0)
	assert.Equal(t, len(text.String()), s)
	assert.Equal(t, s, e)
}
