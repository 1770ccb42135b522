// Package canon groups (surface form, lemma) pairs into lemma groups and
// picks the display form of each group.
package canon

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/japaniel/lexindex/pkg/language"
)

const (
	// DefaultFormCap bounds the forms recorded per group.
	DefaultFormCap = 10
	// DefaultSampleCap bounds the occurrence samples per group.
	DefaultSampleCap = 20
)

// reserved are grammatical category names that must never be stored as
// vocabulary unless they occur in the text themselves.
var reserved = map[string]bool{
	"article": true, "preposition": true, "conjunction": true, "pronoun": true,
	"adverb": true, "adjective": true, "noun": true, "verb": true,
	"determiner": true, "interjection": true, "particle": true, "numeral": true,
}

// IsReserved reports whether s is a grammatical category name.
func IsReserved(s string) bool { return reserved[strings.ToLower(s)] }

// Entry is one normalized token.
type Entry struct {
	// Form is the grouping key of the token (lowercased surface).
	Form string
	// Surface is the text as written, kept for samples.
	Surface  string
	Lemma    string
	Position int
	Chapter  int
	Offset   int
	Proper   bool
}

// FormCount is a surface form and how often it occurred.
type FormCount struct {
	Form  string `json:"form"`
	Count int    `json:"count"`
}

// Sample is one occurrence kept for display.
type Sample struct {
	Position int
	Chapter  int
	Offset   int
	Surface  string
}

// Group is every occurrence of one lemma in a document.
type Group struct {
	Lemma     string
	Display   string
	Language  string
	Forms     []FormCount
	Frequency int
	Samples   []Sample
	POS       string
	Grammar   map[string]string
	Proper    bool
}

// Canonicalizer builds lemma groups.
type Canonicalizer struct {
	rules     *language.Registry
	sampleCap int
	formCap   int
}

// New returns a Canonicalizer. Non-positive caps use the defaults.
func New(rules *language.Registry, sampleCap int) *Canonicalizer {
	if rules == nil {
		rules = language.NewRegistry(nil)
	}
	if sampleCap <= 0 {
		sampleCap = DefaultSampleCap
	}
	return &Canonicalizer{rules: rules, sampleCap: sampleCap, formCap: DefaultFormCap}
}

// Group returns one group per lemma, most frequent first, ties by lemma.
func (c *Canonicalizer) Group(lang string, entries []Entry) []Group {
	rules := c.rules.Get(lang)

	byLemma := make(map[string][]Entry)
	var order []string
	for _, e := range entries {
		if e.Lemma == "" {
			continue
		}
		if _, ok := byLemma[e.Lemma]; !ok {
			order = append(order, e.Lemma)
		}
		byLemma[e.Lemma] = append(byLemma[e.Lemma], e)
	}

	// The identity of a group can differ from its normalized lemma, so two
	// groups may land on the same identity and have to be merged.
	byIdentity := make(map[string][]Entry)
	var ids []string
	for _, lemma := range order {
		es := byLemma[lemma]
		id := identity(lemma, rankForms(lemma, es, rules))
		if _, ok := byIdentity[id]; !ok {
			ids = append(ids, id)
		}
		byIdentity[id] = append(byIdentity[id], es...)
	}

	groups := make([]Group, 0, len(ids))
	for _, id := range ids {
		groups = append(groups, c.build(id, lang, byIdentity[id], rules))
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Frequency != groups[j].Frequency {
			return groups[i].Frequency > groups[j].Frequency
		}
		return groups[i].Lemma < groups[j].Lemma
	})
	return groups
}

func (c *Canonicalizer) build(lemma, lang string, es []Entry, rules language.Rules) Group {
	forms := rankForms(lemma, es, rules)
	g := Group{
		Lemma:     lemma,
		Display:   forms[0].Form,
		Language:  lang,
		Frequency: len(es),
	}
	if len(forms) > c.formCap {
		forms = forms[:c.formCap]
	}
	g.Forms = forms

	sorted := make([]Entry, len(es))
	copy(sorted, es)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })
	for _, e := range SampleEvenly(sorted, c.sampleCap) {
		g.Samples = append(g.Samples, Sample{Position: e.Position, Chapter: e.Chapter, Offset: e.Offset, Surface: e.Surface})
	}

	proper := 0
	for _, e := range es {
		if e.Proper {
			proper++
		}
	}
	if proper*2 > len(es) {
		g.Proper = true
		g.POS = "PROPN"
		g.Grammar = map[string]string{"type": "proper noun"}
		return g
	}
	g.POS = rules.POS(lemma)
	g.Grammar = rules.Grammar(lemma)
	return g
}

// rankForms counts the forms of a group and orders them: the lemma itself
// first, then infinitive-shaped forms, then the rest; each tier by
// descending count and then text.
func rankForms(lemma string, es []Entry, rules language.Rules) []FormCount {
	counts := make(map[string]int)
	for _, e := range es {
		counts[e.Form]++
	}
	forms := make([]FormCount, 0, len(counts))
	for f, n := range counts {
		forms = append(forms, FormCount{Form: f, Count: n})
	}
	tier := func(f string) int {
		switch {
		case f == lemma:
			return 0
		case rules.LooksLikeInfinitive(f) && !rules.IsReflexive(f):
			return 1
		default:
			return 2
		}
	}
	sort.Slice(forms, func(i, j int) bool {
		ti, tj := tier(forms[i].Form), tier(forms[j].Form)
		if ti != tj {
			return ti < tj
		}
		if forms[i].Count != forms[j].Count {
			return forms[i].Count > forms[j].Count
		}
		return forms[i].Form < forms[j].Form
	})
	return forms
}

// identity returns the stored lemma text of a group. The normalized lemma
// is kept unless it is a category name or a truncated prefix of the forms
// that does not occur itself.
func identity(lemma string, forms []FormCount) string {
	display := forms[0].Form
	if display == lemma {
		return lemma
	}
	for _, f := range forms {
		if f.Form == lemma {
			return lemma
		}
	}
	if IsReserved(lemma) {
		return display
	}
	if truncated(lemma, forms) {
		return display
	}
	return lemma
}

func truncated(lemma string, forms []FormCount) bool {
	longest := ""
	for _, f := range forms {
		if !strings.HasPrefix(f.Form, lemma) {
			return false
		}
		if utf8.RuneCountInString(f.Form) > utf8.RuneCountInString(longest) {
			longest = f.Form
		}
	}
	return utf8.RuneCountInString(lemma)*2 <= utf8.RuneCountInString(longest)
}

// SampleEvenly picks at most n items spread evenly over items, always including
// the first one. The input order is preserved.
func SampleEvenly[T any](items []T, n int) []T {
	if n <= 0 {
		return nil
	}
	if len(items) <= n {
		out := make([]T, len(items))
		copy(out, items)
		return out
	}
	out := make([]T, 0, n)
	step := float64(len(items)) / float64(n)
	for i := 0; i < n; i++ {
		out = append(out, items[int(float64(i)*step)])
	}
	return out
}
