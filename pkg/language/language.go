// Package language holds the per-language heuristics used by extraction,
// normalization and canonicalization. Each supported language implements
// Rules once; callers pick an implementation from a Registry built at
// startup instead of branching on language codes.
package language

import (
	"sort"
	"strings"
	"sync"
)

// Rules is the strategy interface for one language.
type Rules interface {
	// Code returns the ISO 639-1 code of the language.
	Code() string
	// MinLetters is the minimum number of letters a token needs to be kept.
	MinLetters() int
	// Segmented reports whether text has no word separators and must be
	// segmented by a morphological analyzer.
	Segmented() bool
	// CaseMarksProper reports whether capitalization is evidence of a proper noun.
	CaseMarksProper() bool

	// LooksLikeInfinitive reports whether word ends in one of the language's
	// canonical verb endings.
	LooksLikeInfinitive(word string) bool
	// IsReflexive reports whether word is a reflexive infinitive.
	IsReflexive(word string) bool
	// StripClitic removes attached pronoun clitics and returns the infinitive.
	StripClitic(word string) (string, bool)
	// Deconjugate maps a conjugated ending to the infinitive.
	Deconjugate(word string) (string, bool)
	// Singularize maps a plural noun ending to the singular. It returns false
	// when plural normalization is disabled for the language.
	Singularize(word string) (string, bool)

	// SplitTable returns the split-word repair table.
	SplitTable() SplitTable
	// Grammar returns heuristic grammar attributes for a lemma.
	Grammar(word string) map[string]string
	// POS returns a heuristic universal part-of-speech tag for a lemma.
	POS(word string) string
}

// SplitTable describes the tokens that upstream text extraction tends to
// break in two.
type SplitTable struct {
	// Pairs are known (head, tail) splits.
	Pairs [][2]string
	// Prefixes and Continuations form the generic pattern: a token ending in
	// one of Prefixes followed by a token starting with one of Continuations.
	Prefixes      []string
	Continuations []string
	MinLen        int
	MaxLen        int
}

// Empty reports whether the table can never produce a merge.
func (s SplitTable) Empty() bool {
	return len(s.Pairs) == 0 && (len(s.Prefixes) == 0 || len(s.Continuations) == 0)
}

// Match reports whether head followed by tail should be merged.
// Both arguments are expected lowercased.
func (s SplitTable) Match(head, tail string) bool {
	if s.Empty() {
		return false
	}
	n := len([]rune(head)) + len([]rune(tail))
	if n < s.MinLen || n > s.MaxLen {
		return false
	}
	for _, p := range s.Pairs {
		if strings.HasSuffix(head, p[0]) && strings.HasPrefix(tail, p[1]) {
			return true
		}
	}
	for _, p := range s.Prefixes {
		if !strings.HasSuffix(head, p) {
			continue
		}
		for _, c := range s.Continuations {
			if strings.HasPrefix(tail, c) {
				return true
			}
		}
	}
	return false
}

// Options configures a Rules implementation.
type Options struct {
	// Plurals enables plural-to-singular normalization.
	Plurals bool
}

// DefaultPlurals lists the languages with plural normalization enabled by
// default. Italian and German plurals are left alone because their vowel
// and -en plurals collide with too many singular forms.
var DefaultPlurals = map[string]bool{"en": true, "es": true, "fr": true}

var builtins = map[string]func(Options) Rules{
	"en": newEnglish,
	"it": newItalian,
	"es": newSpanish,
	"fr": newFrench,
	"de": newGerman,
	"ja": newJapanese,
}

// Registry maps language codes to Rules.
type Registry struct {
	mu    sync.RWMutex
	rules map[string]Rules
}

// NewRegistry builds a registry with every built-in language. plurals holds
// the per-language plural switch; a nil map means DefaultPlurals.
func NewRegistry(plurals map[string]bool) *Registry {
	if plurals == nil {
		plurals = DefaultPlurals
	}
	r := &Registry{rules: make(map[string]Rules, len(builtins))}
	for code, build := range builtins {
		r.rules[code] = build(Options{Plurals: plurals[code]})
	}
	return r
}

// Register adds or replaces the rules for rules.Code().
func (r *Registry) Register(rules Rules) {
	r.mu.Lock()
	r.rules[Normalize(rules.Code())] = rules
	r.mu.Unlock()
}

// Get returns the rules for code. Unknown languages get a neutral rule set
// that applies no heuristics.
func (r *Registry) Get(code string) Rules {
	code = Normalize(code)
	r.mu.RLock()
	rules, ok := r.rules[code]
	r.mu.RUnlock()
	if ok {
		return rules
	}
	return newNeutral(code)
}

// Supported reports whether code has dedicated rules.
func (r *Registry) Supported(code string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rules[Normalize(code)]
	return ok
}

// Languages returns the registered codes in sorted order.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.rules))
	for code := range r.rules {
		out = append(out, code)
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Normalize lowercases a language tag and keeps only the primary subtag,
// so "pt-BR" and "PT" both become "pt".
func Normalize(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if i := strings.IndexAny(code, "-_"); i > 0 {
		code = code[:i]
	}
	return code
}
