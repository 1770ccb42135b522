// Package enrich attaches translations, definitions and grammar to lemmas
// by querying a chain of lexical sources.
package enrich

import (
	"context"
	"strings"

	"github.com/japaniel/lexindex/pkg/db"
)

// Request identifies a lookup: a lemma in the Source language, translated
// into Target.
type Request struct {
	Lemma  string
	Source string
	Target string
}

// Result is the lexical information found for a lemma.
type Result struct {
	Translation string
	Definition  string
	POS         string
	Grammar     map[string]string
	// Source names the source that supplied the translation or definition.
	Source string
}

// Found reports whether the result carries a translation or a definition.
func (r Result) Found() bool {
	return r.Translation != "" || r.Definition != ""
}

// Complete reports whether both translation and definition are set.
func (r Result) Complete() bool {
	return r.Translation != "" && r.Definition != ""
}

// Enrichment converts r to the store's representation.
func (r Result) Enrichment() db.Enrichment {
	return db.Enrichment{
		Translation: r.Translation,
		Definition:  r.Definition,
		POS:         r.POS,
		Grammar:     r.Grammar,
		Source:      r.Source,
	}
}

// Source is one lexical or translation backend. Lookup returns nil, nil
// when the word is unknown to the source.
type Source interface {
	Name() string
	Lookup(ctx context.Context, word, src, dst string) (*Result, error)
}

// MergeGrammar returns dst with empty keys filled from src. Breakdown keys
// (root, affixes, inflections, forms) are dropped.
func MergeGrammar(dst, src map[string]string) map[string]string {
	return map[string]string(db.Grammar(dst).Merge(src))
}

var posTags = map[string]string{
	"noun":          "NOUN",
	"n":             "NOUN",
	"proper noun":   "PROPN",
	"name":          "PROPN",
	"propn":         "PROPN",
	"verb":          "VERB",
	"v":             "VERB",
	"aux":           "AUX",
	"auxiliary":     "AUX",
	"adjective":     "ADJ",
	"adj":           "ADJ",
	"adj-i":         "ADJ",
	"adj-na":        "ADJ",
	"adverb":        "ADV",
	"adv":           "ADV",
	"pronoun":       "PRON",
	"pron":          "PRON",
	"preposition":   "ADP",
	"prep":          "ADP",
	"postposition":  "ADP",
	"prt":           "ADP",
	"article":       "DET",
	"determiner":    "DET",
	"det":           "DET",
	"conjunction":   "CCONJ",
	"conj":          "CCONJ",
	"interjection":  "INTJ",
	"intj":          "INTJ",
	"int":           "INTJ",
	"numeral":       "NUM",
	"num":           "NUM",
	"particle":      "PART",
	"contraction":   "X",
	"phrase":        "X",
	"prefix":        "X",
	"suffix":        "X",
	"abbreviation":  "X",
	"symbol":        "SYM",
	"punctuation":   "PUNCT",
	"subordinating": "SCONJ",
}

// NormalizePOS maps a source-specific part of speech to a universal tag.
// Unknown values are returned upper-cased.
func NormalizePOS(pos string) string {
	p := strings.ToLower(strings.TrimSpace(pos))
	if p == "" {
		return ""
	}
	if tag, ok := posTags[p]; ok {
		return tag
	}
	// JMdict verb classes: v1, v5r, vs-i...
	if strings.HasPrefix(p, "v1") || strings.HasPrefix(p, "v5") || strings.HasPrefix(p, "vs") || strings.HasPrefix(p, "vk") {
		return "VERB"
	}
	if strings.HasPrefix(p, "adj") {
		return "ADJ"
	}
	return strings.ToUpper(p)
}
