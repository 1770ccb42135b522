// Package normalize maps surface tokens to lemmas.
//
// An optional analyzer is consulted first. Without one, or when it returns
// something that is not a usable lemma, a per-language heuristic chain is
// applied: an accent-stripped extra candidate, clitic stripping,
// conjugated endings, and finally plural endings when the language has
// plural normalization turned on. Results are memoized in an injected cache.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/japaniel/lexindex/pkg/analyzer"
	"github.com/japaniel/lexindex/pkg/cache"
	"github.com/japaniel/lexindex/pkg/language"
)

// Source tags where a lemma came from.
type Source int

const (
	// SourceSurface means no rule applied and the token is its own lemma.
	SourceSurface Source = iota
	// SourceHeuristic means a language rule produced the lemma.
	SourceHeuristic
	// SourceAnalyzer means the morphological analyzer produced the lemma.
	SourceAnalyzer
)

func (s Source) String() string {
	switch s {
	case SourceAnalyzer:
		return "analyzer"
	case SourceHeuristic:
		return "heuristic"
	default:
		return "surface"
	}
}

// Result is the outcome of normalizing one token.
type Result struct {
	Lemma  string
	Source Source
}

// maxPasses bounds the fixpoint iteration.
const maxPasses = 4

// Normalizer is safe for concurrent use as long as its cache is.
type Normalizer struct {
	rules    *language.Registry
	analyzer analyzer.Analyzer
	cache    cache.Store[Result]
}

// New returns a Normalizer. a may be nil; a nil cache gets a private map.
func New(rules *language.Registry, a analyzer.Analyzer, c cache.Store[Result]) *Normalizer {
	if rules == nil {
		rules = language.NewRegistry(nil)
	}
	if c == nil {
		c = cache.NewMap[Result]()
	}
	return &Normalizer{rules: rules, analyzer: a, cache: c}
}

func cacheKey(lang, token string) string { return lang + "|" + token }

// Normalize returns the lemma of token in lang. The token is lowercased
// first. Normalizing a returned lemma returns it unchanged.
func (n *Normalizer) Normalize(token, lang string) Result {
	lang = language.Normalize(lang)
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" {
		return Result{}
	}
	if r, ok := n.cache.Get(cacheKey(lang, token)); ok {
		return r
	}

	rules := n.rules.Get(lang)
	res := Result{Lemma: token, Source: SourceSurface}
	seen := map[string]bool{token: true}
	fixed := false
	for pass := 0; pass < maxPasses; pass++ {
		step := n.once(res.Lemma, lang, rules)
		if step.Lemma == res.Lemma {
			fixed = true
			break
		}
		if seen[step.Lemma] {
			break
		}
		seen[step.Lemma] = true
		if step.Source > res.Source {
			res.Source = step.Source
		}
		res.Lemma = step.Lemma
	}

	n.cache.Set(cacheKey(lang, token), res)
	// A fixpoint lemma normalizes to itself as a surface form, whatever
	// token led to it.
	if fixed && res.Lemma != token {
		n.cache.Set(cacheKey(lang, res.Lemma), Result{Lemma: res.Lemma, Source: SourceSurface})
	}
	return res
}

// once applies a single round of analyzer and heuristics.
func (n *Normalizer) once(token, lang string, rules language.Rules) Result {
	var fromAnalyzer string
	if a := analyzer.For(n.analyzer, lang); a != nil {
		if l, ok := a.Lemma(token, lang); ok {
			l = strings.ToLower(strings.TrimSpace(l))
			if l != "" && !strings.ContainsFunc(l, unicode.IsSpace) {
				if rules.LooksLikeInfinitive(l) {
					return Result{Lemma: l, Source: SourceAnalyzer}
				}
				fromAnalyzer = l
			}
		}
	}

	if rules.LooksLikeInfinitive(token) {
		return Result{Lemma: token, Source: SourceSurface}
	}

	candidates := []string{token}
	if stripped := StripDiacritics(token); stripped != token {
		candidates = append(candidates, stripped)
	}
	for _, c := range candidates {
		if v, ok := rules.StripClitic(c); ok {
			return Result{Lemma: v, Source: SourceHeuristic}
		}
	}
	for _, c := range candidates {
		if v, ok := rules.Deconjugate(c); ok {
			return Result{Lemma: v, Source: SourceHeuristic}
		}
	}

	if fromAnalyzer != "" {
		return Result{Lemma: fromAnalyzer, Source: SourceAnalyzer}
	}
	if v, ok := rules.Singularize(token); ok {
		return Result{Lemma: v, Source: SourceHeuristic}
	}
	return Result{Lemma: token, Source: SourceSurface}
}

// StripDiacritics removes combining marks: "città" becomes "citta".
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
