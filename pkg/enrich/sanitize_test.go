package enrich

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/lexindex/pkg/freq"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		lemma     string
		want      string
		ok        bool
	}{
		{"plain", "cat", "gatto", "cat", true},
		{"whitespace and punctuation", "  the   cat. ", "gatto", "the cat", true},
		{"echo of lemma", "Gatto", "gatto", "", false},
		{"empty", "  ", "gatto", "", false},
		{"bracketed note", "[uncountable] milk", "latte", "", false},
		{"marker", "plural: cats", "gatti", "", false},
		{"form-of", "form of andare", "vado", "", false},
		{"no letters", "123 !", "tre", "", false},
		{"too long for short lemma", "a house that is very big", "casa", "", false},
		{"long is fine for long lemma", "a house that is very big", "palazzone", "a house that is very big", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Sanitize(tt.candidate, tt.lemma, "en", nil)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitizeChecksTargetFrequency(t *testing.T) {
	l, err := freq.Load(strings.NewReader("cat 4.9\nzymurgy 1.2\n"), "en")
	require.NoError(t, err)
	o := freq.NewSet(l)

	_, ok := Sanitize("cat", "gatto", "en", o)
	assert.True(t, ok)
	_, ok = Sanitize("zymurgy", "zimurgia", "en", o)
	assert.False(t, ok, "rare in the target language")
	_, ok = Sanitize("qwzx", "gatto", "en", o)
	assert.False(t, ok, "unknown to a loaded list")
	_, ok = Sanitize("the cat", "gatto", "en", o)
	assert.True(t, ok, "phrases are not frequency checked")
	_, ok = Sanitize("chat", "gatto", "fr", o)
	assert.True(t, ok, "no list for the target")
}

func TestSanitizeDefinition(t *testing.T) {
	d, ok := SanitizeDefinition("a small  domesticated carnivorous mammal; a house cat", "cat")
	assert.True(t, ok)
	assert.Equal(t, "a small domesticated carnivorous mammal; a house cat", d)

	_, ok = SanitizeDefinition("cat", "cat")
	assert.False(t, ok)
	_, ok = SanitizeDefinition("plural of cat", "cats")
	assert.True(t, ok)
	_, ok = SanitizeDefinition("form of cat", "cats")
	assert.False(t, ok)
}

func TestNormalizePOS(t *testing.T) {
	tests := map[string]string{
		"noun":   "NOUN",
		" Verb ": "VERB",
		"adj-i":  "ADJ",
		"v5r":    "VERB",
		"vs-i":   "VERB",
		"adj-no": "ADJ",
		"name":   "PROPN",
		"":       "",
		"foo":    "FOO",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizePOS(in), in)
	}
}

func TestMergeGrammar(t *testing.T) {
	got := MergeGrammar(map[string]string{"gender": "masculine"},
		map[string]string{"gender": "feminine", "number": "singular", "root": "gatt", "suffixes": "-o"})
	assert.Equal(t, map[string]string{"gender": "masculine", "number": "singular"}, got)
}
