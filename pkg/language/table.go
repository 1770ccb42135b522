package language

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// ending rewrites a word suffix. onlyAfter and notAfter constrain the last
// rune of the remaining stem.
type ending struct {
	from, to  string
	onlyAfter string
	notAfter  string
}

// genderEnding maps a noun/adjective ending to gender and number.
type genderEnding struct {
	suffix, gender, number string
}

// article carries the grammar of a function word.
type article struct {
	definite       bool
	gender, number string
}

// table is the data-driven core shared by the language implementations.
type table struct {
	code            string
	minLetters      int
	segmented       bool
	caseMarksProper bool

	infinitives      []string
	reflexives       []string
	minInfinitive    int
	shortInfinitives map[string]bool
	minStem          int

	clitics       []string
	cliticRepairs []string
	conjugations  []ending

	plurals   []ending
	pluralsOn bool
	// invariant words are never rewritten by any heuristic.
	invariant map[string]bool

	articles     map[string]article
	prepositions map[string]bool
	conjunctions map[string]bool
	pronouns     map[string]bool
	genders      []genderEnding

	split SplitTable
}

// finish sorts the suffix tables longest first so the most specific rule wins.
func (t *table) finish() *table {
	sort.SliceStable(t.clitics, func(i, j int) bool {
		return len(t.clitics[i]) > len(t.clitics[j])
	})
	byFrom := func(es []ending) {
		sort.SliceStable(es, func(i, j int) bool {
			return len(es[i].from) > len(es[j].from)
		})
	}
	byFrom(t.conjugations)
	byFrom(t.plurals)
	if t.minLetters == 0 {
		t.minLetters = 2
	}
	if t.minStem == 0 {
		t.minStem = 3
	}
	return t
}

func (t *table) Code() string           { return t.code }
func (t *table) MinLetters() int        { return t.minLetters }
func (t *table) Segmented() bool        { return t.segmented }
func (t *table) CaseMarksProper() bool  { return t.caseMarksProper }
func (t *table) SplitTable() SplitTable { return t.split }

func (t *table) LooksLikeInfinitive(word string) bool {
	if word == "" {
		return false
	}
	for _, e := range t.infinitives {
		if strings.HasSuffix(word, e) && word != e {
			return true
		}
	}
	return false
}

func (t *table) IsReflexive(word string) bool {
	for _, e := range t.reflexives {
		if strings.HasSuffix(word, e) && utf8.RuneCountInString(word) > len(e)+1 {
			return true
		}
	}
	return false
}

// acceptInfinitive is the gate every heuristic verb candidate must pass.
func (t *table) acceptInfinitive(cand string) bool {
	if !t.LooksLikeInfinitive(cand) {
		return false
	}
	if t.shortInfinitives[cand] {
		return true
	}
	return utf8.RuneCountInString(cand) >= t.minInfinitive
}

// frozen reports whether word must be left as is.
func (t *table) frozen(word string) bool {
	return t.invariant[word] || t.isArticle(word) || t.prepositions[word] ||
		t.conjunctions[word] || t.pronouns[word]
}

func (t *table) StripClitic(word string) (string, bool) {
	if utf8.RuneCountInString(word) < 4 || t.frozen(word) {
		return "", false
	}
	for _, c := range t.clitics {
		if !strings.HasSuffix(word, c) {
			continue
		}
		stem := strings.TrimSuffix(word, c)
		if utf8.RuneCountInString(stem) < t.minStem {
			continue
		}
		for _, r := range t.cliticRepairs {
			if cand := stem + r; t.acceptInfinitive(cand) {
				return cand, true
			}
		}
	}
	return "", false
}

func (t *table) Deconjugate(word string) (string, bool) {
	if t.frozen(word) {
		return "", false
	}
	for _, e := range t.conjugations {
		if !strings.HasSuffix(word, e.from) {
			continue
		}
		stem := strings.TrimSuffix(word, e.from)
		if utf8.RuneCountInString(stem) < t.minStem {
			continue
		}
		if cand := stem + e.to; t.acceptInfinitive(cand) {
			return cand, true
		}
	}
	return "", false
}

func (t *table) Singularize(word string) (string, bool) {
	if !t.pluralsOn || t.frozen(word) || utf8.RuneCountInString(word) <= 3 {
		return "", false
	}
	for _, e := range t.plurals {
		if !strings.HasSuffix(word, e.from) {
			continue
		}
		stem := strings.TrimSuffix(word, e.from)
		if utf8.RuneCountInString(stem) < 2 {
			continue
		}
		last, _ := utf8.DecodeLastRuneInString(stem)
		if e.onlyAfter != "" && !strings.ContainsRune(e.onlyAfter, last) {
			continue
		}
		if e.notAfter != "" && strings.ContainsRune(e.notAfter, last) {
			continue
		}
		return stem + e.to, true
	}
	return "", false
}

func (t *table) Grammar(word string) map[string]string {
	g := make(map[string]string)
	switch {
	case word == "":
	case t.isArticle(word):
		a := t.articles[word]
		g["type"] = "article"
		g["definite"] = fmt.Sprint(a.definite)
		if a.gender != "" {
			g["gender"] = a.gender
		}
		if a.number != "" {
			g["number"] = a.number
		}
	case t.prepositions[word]:
		g["type"] = "preposition"
	case t.conjunctions[word]:
		g["type"] = "conjunction"
	case t.pronouns[word]:
		g["type"] = "pronoun"
	case t.LooksLikeInfinitive(word):
		g["type"] = "verb"
		g["form"] = "infinitive"
		for i, e := range t.infinitives {
			if strings.HasSuffix(word, e) {
				g["conjugation"] = fmt.Sprintf("%s (-%s)", ordinal(i+1), e)
				break
			}
		}
		if t.IsReflexive(word) {
			g["reflexive"] = "true"
		}
	default:
		for _, ge := range t.genders {
			if strings.HasSuffix(word, ge.suffix) {
				g["type"] = "noun/adjective"
				g["gender"] = ge.gender
				g["number"] = ge.number
				break
			}
		}
	}
	return g
}

func (t *table) isArticle(word string) bool {
	_, ok := t.articles[word]
	return ok
}

func (t *table) POS(word string) string {
	switch {
	case word == "":
		return ""
	case t.isArticle(word):
		return "DET"
	case t.prepositions[word]:
		return "ADP"
	case t.conjunctions[word]:
		return "CCONJ"
	case t.pronouns[word]:
		return "PRON"
	case t.LooksLikeInfinitive(word):
		return "VERB"
	default:
		return "NOUN"
	}
}

func ordinal(n int) string {
	switch n {
	case 1:
		return "1st"
	case 2:
		return "2nd"
	case 3:
		return "3rd"
	default:
		return fmt.Sprintf("%dth", n)
	}
}

func set(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// suffixed expands a list of stems into from/to endings sharing the same target.
func suffixed(to string, from ...string) []ending {
	out := make([]ending, len(from))
	for i, f := range from {
		out[i] = ending{from: f, to: to}
	}
	return out
}

func newNeutral(code string) Rules {
	return (&table{code: code, caseMarksProper: true}).finish()
}
