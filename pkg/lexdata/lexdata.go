// Package lexdata loads structured dictionary data (wiktextract/kaikki
// JSONL dumps and JMdict-simplified) into in-memory indexes.
package lexdata

import (
	"sort"
	"strings"
	"sync"
)

// Entry is one dictionary entry for one part of speech.
type Entry struct {
	Word string
	POS  string
	// Glosses are definitions written in the dictionary's gloss language.
	Glosses []string
	// Translations maps a language code to translated words.
	Translations map[string][]string
	// FormOf is the lemma when every sense of the entry is an inflected form.
	FormOf string
	order  int
}

// Definition joins the first few glosses.
func (e Entry) Definition() string {
	g := e.Glosses
	if len(g) > 3 {
		g = g[:3]
	}
	return strings.Join(g, "; ")
}

// Index maps words to entries. It is read concurrently by the enrichment
// workers and written only while loading.
type Index struct {
	// Lang is the language of the headwords.
	Lang string
	// GlossLang is the language the glosses are written in.
	GlossLang string
	Name      string

	mu    sync.RWMutex
	words map[string][]Entry
	n     int
}

// NewIndex returns an empty index.
func NewIndex(name, lang, glossLang string) *Index {
	return &Index{Name: name, Lang: lang, GlossLang: glossLang, words: make(map[string][]Entry)}
}

// Add indexes e under each of keys (lowercased).
func (ix *Index) Add(e Entry, keys ...string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	e.order = ix.n
	ix.n++
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		ix.words[k] = append(ix.words[k], e)
	}
}

// Lookup returns the entries for word in load order.
func (ix *Index) Lookup(word string) []Entry {
	if ix == nil {
		return nil
	}
	ix.mu.RLock()
	found := ix.words[strings.ToLower(strings.TrimSpace(word))]
	ix.mu.RUnlock()
	out := make([]Entry, len(found))
	copy(out, found)
	sort.SliceStable(out, func(i, j int) bool { return out[i].order < out[j].order })
	return out
}

// Resolve looks word up and follows one inflection link to its lemma when
// the word itself only has form-of senses.
func (ix *Index) Resolve(word string) []Entry {
	entries := ix.Lookup(word)
	var direct []Entry
	lemma := ""
	for _, e := range entries {
		if len(e.Glosses) > 0 {
			direct = append(direct, e)
		} else if e.FormOf != "" && lemma == "" {
			lemma = e.FormOf
		}
	}
	if len(direct) > 0 || lemma == "" || strings.EqualFold(lemma, word) {
		return direct
	}
	var out []Entry
	for _, e := range ix.Lookup(lemma) {
		if len(e.Glosses) > 0 {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of distinct headword keys.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.words)
}
