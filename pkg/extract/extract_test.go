package extract

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/lexindex/pkg/analyzer"
	"github.com/japaniel/lexindex/pkg/language"
)

func texts(toks []Token) []string {
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = t.Text
	}
	return out
}

func keys(toks []Token) []string {
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = t.Key
	}
	return out
}

func TestExtractElisionAndMinLetters(t *testing.T) {
	e := New(nil, nil)

	toks := e.Extract("L'uomo e l’acqua, don't 'quoted' x.", "it")
	assert.Equal(t, []string{"L'uomo", "l’acqua", "don't", "quoted"}, texts(toks))
	assert.Equal(t, "l'uomo", toks[0].Key)
	for i, tok := range toks {
		assert.Equal(t, i, tok.Position)
	}
}

func TestExtractEmpty(t *testing.T) {
	e := New(nil, nil)
	assert.Empty(t, e.Extract("", "en"))
	assert.Empty(t, e.Extract("... 123 !! -- 42", "en"))
	assert.Empty(t, e.Extract("a", "en"))
}

func TestExtractKeepsOffsets(t *testing.T) {
	e := New(nil, nil)
	text := "the cat sat. The cats sat again."
	toks := e.Extract(text, "en")
	require.Len(t, toks, 7)
	for _, tok := range toks {
		assert.Equal(t, tok.Text, text[tok.Offset:tok.Offset+len(tok.Text)])
	}
	assert.Equal(t, []string{"the", "cat", "sat", "the", "cats", "sat", "again"}, keys(toks))
	assert.Equal(t, "The", toks[3].Text, "surface keeps its case")
}

func TestExtractProperNounMajority(t *testing.T) {
	e := New(nil, nil)
	toks := e.Extract("We met Anna today. Then Anna left with Bob, and Bob said hi to anna.", "en")

	byText := map[string]Token{}
	for _, tok := range toks {
		byText[tok.Text] = tok
	}
	assert.True(t, byText["Anna"].Proper)
	assert.Equal(t, "Anna", byText["Anna"].Key)
	assert.True(t, byText["anna"].Proper, "all spellings share the proper key")
	assert.Equal(t, "Anna", byText["anna"].Key)
	assert.True(t, byText["Bob"].Proper)

	assert.False(t, byText["We"].Proper, "sentence-initial capitals are not evidence")
	assert.Equal(t, "we", byText["We"].Key)
	assert.Equal(t, "then", byText["Then"].Key)
}

func TestExtractGermanNounsAreNotProper(t *testing.T) {
	e := New(nil, nil)
	toks := e.Extract("Der Hund sieht den Hund im Garten.", "de")
	for _, tok := range toks {
		assert.False(t, tok.Proper, tok.Text)
	}
	assert.Equal(t, "hund", toks[1].Key)
}

type splitAnalyzer struct{ single bool }

func (s splitAnalyzer) Supports(lang string) bool           { return lang == "it" }
func (s splitAnalyzer) Lemma(string, string) (string, bool) { return "", false }
func (s splitAnalyzer) IsProperNoun(string, string) bool    { return false }
func (s splitAnalyzer) SingleToken(text, lang string) bool {
	return s.single && !strings.Contains(text, " ")
}

func TestExtractSplitRepair(t *testing.T) {
	text := "Il libro fu pubbl icato ieri."

	toks := New(nil, nil).Extract(text, "it")
	assert.Equal(t, []string{"Il", "libro", "fu", "pubblicato", "ieri"}, texts(toks))
	assert.Equal(t, 3, toks[3].Position)
	assert.Equal(t, 4, toks[4].Position)

	toks = New(nil, splitAnalyzer{single: true}).Extract(text, "it")
	assert.Contains(t, texts(toks), "pubblicato")

	toks = New(nil, splitAnalyzer{single: false}).Extract(text, "it")
	assert.Equal(t, []string{"Il", "libro", "fu", "pubbl", "icato", "ieri"}, texts(toks),
		"an analyzer that rejects the merge keeps the pieces")

	toks = New(nil, nil).Extract("pubbl, icato", "it")
	assert.Len(t, toks, 2, "punctuation between pieces blocks the merge")
}

func TestScanAndFinalizeAcrossChapters(t *testing.T) {
	e := New(language.NewRegistry(nil), nil)
	ch0 := e.Scan(0, "Chapter one text.", "en")
	ch1 := e.Scan(1, "Chapter two text.", "en")
	require.Equal(t, 0, ch1[0].Position, "scan positions are chapter local")

	toks := e.Finalize(append(ch0, ch1...), "en")
	require.Len(t, toks, 6)
	for i, tok := range toks {
		assert.Equal(t, i, tok.Position)
	}
	assert.Equal(t, 1, toks[3].Chapter)
	assert.Equal(t, "chapter", toks[3].Key)
}

func TestExtractJapanese(t *testing.T) {
	ja, err := analyzer.NewJapanese()
	require.NoError(t, err)

	toks := New(nil, ja).Extract("猫が走った。", "ja")
	require.NotEmpty(t, toks)
	assert.Equal(t, "猫", toks[0].Text)

	var bases []string
	for _, tok := range toks {
		bases = append(bases, tok.Base)
		assert.NotEqual(t, "。", tok.Text)
	}
	assert.Contains(t, bases, "走る")
}

func TestExtractJapaneseWithoutDictionary(t *testing.T) {
	failed := analyzer.NewLazy(func() (analyzer.Analyzer, error) {
		return nil, errors.New("dictionary unavailable")
	}, "ja")
	text := "猫が走った。犬も走った。"

	want := texts(New(nil, nil).Extract(text, "ja"))
	require.NotEmpty(t, want)

	got := New(nil, failed).Extract(text, "ja")
	assert.Equal(t, want, texts(got), "a failed analyzer falls back to the rune scanner")
	assert.Error(t, failed.Err())

	// Later chapters skip the analyzer altogether.
	assert.Equal(t, want, texts(New(nil, failed).Extract(text, "ja")))
}

func TestSnippet(t *testing.T) {
	text := "Once upon a time there was a small cat that sat on a very old mat in the kitchen."
	off := strings.Index(text, "cat")

	got := Snippet(text, off, 3, 20)
	assert.Contains(t, got, "cat")
	assert.False(t, strings.HasPrefix(got, " "))
	assert.LessOrEqual(t, len(got), 3+40)
	assert.Equal(t, "there was a small cat that sat on a very", got)

	assert.Equal(t, "hello world", Snippet("hello\n\n  world", 0, 5, 60))
	assert.Equal(t, "", Snippet("abc", 10, 1, 5))
}
