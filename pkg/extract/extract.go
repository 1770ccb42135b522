// Package extract turns raw text into ordered surface tokens.
//
// Extraction runs in two steps so the ingestion pipeline can scan chapters
// in parallel: Scan produces the raw tokens of one chapter, Finalize
// numbers the tokens of the whole document and decides which keys are
// proper nouns. Extract does both for a single piece of text.
package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/japaniel/lexindex/pkg/analyzer"
	"github.com/japaniel/lexindex/pkg/language"
)

// Token is one surface word.
type Token struct {
	// Text is the surface form as written.
	Text string
	// Key is the grouping key: the lowercased text, or the preferred
	// capitalized spelling for proper nouns.
	Key string
	// Base is the analyzer's base form when the chapter was segmented.
	Base string
	// Position is the ordinal index of the token in the document.
	Position int
	// Offset is the byte offset of Text in its chapter.
	Offset  int
	Chapter int
	Proper  bool
	// sentenceStart marks tokens whose capitalization says nothing.
	sentenceStart bool
	taggedProper  bool
}

// Extractor is safe for concurrent use.
type Extractor struct {
	rules    *language.Registry
	analyzer analyzer.Analyzer
}

// New returns an Extractor. a may be nil.
func New(rules *language.Registry, a analyzer.Analyzer) *Extractor {
	if rules == nil {
		rules = language.NewRegistry(nil)
	}
	return &Extractor{rules: rules, analyzer: a}
}

// Extract returns the tokens of text. Text without letters yields an
// empty slice.
func (e *Extractor) Extract(text, lang string) []Token {
	return e.Finalize(e.Scan(0, text, lang), lang)
}

// Scan tokenizes one chapter and repairs split words. Positions are local
// to the chapter until Finalize renumbers them.
func (e *Extractor) Scan(chapter int, text, lang string) []Token {
	rules := e.rules.Get(lang)
	var toks []Token
	segmented := false
	if seg := analyzer.SegmenterFor(e.analyzer, rules.Code()); rules.Segmented() && seg != nil {
		toks, segmented = e.segment(seg, text, rules)
	}
	// An analyzer that produced nothing (for example a dictionary that
	// failed to load) leaves the text to the rune scanner.
	if !segmented {
		toks = e.repairSplits(text, scanWords(text, rules.MinLetters()), rules)
	}
	for i := range toks {
		toks[i].Chapter = chapter
		toks[i].Position = i
	}
	return toks
}

// segment reports false when the segmenter returned nothing for text that
// has content.
func (e *Extractor) segment(seg analyzer.Segmenter, text string, rules language.Rules) ([]Token, bool) {
	segs := seg.Segment(text, rules.Code())
	if len(segs) == 0 && strings.TrimSpace(text) != "" {
		return nil, false
	}
	var out []Token
	for _, s := range segs {
		if letterCount(s.Surface) < rules.MinLetters() {
			continue
		}
		out = append(out, Token{
			Text:         s.Surface,
			Base:         s.Base,
			Offset:       s.Offset,
			taggedProper: s.Proper,
		})
	}
	return out, true
}

// scanWords splits text on rune classes. Letters, digits and combining
// marks make up words; an apostrophe is kept only between two letters.
func scanWords(text string, minLetters int) []Token {
	var out []Token
	start := -1
	boundary := true
	emit := func(end int) {
		if start < 0 {
			return
		}
		w := text[start:end]
		if letterCount(w) >= minLetters {
			out = append(out, Token{Text: w, Offset: start, sentenceStart: boundary})
		}
		boundary = false
		start = -1
	}

	for i, r := range text {
		switch {
		case isWordRune(r):
			if start < 0 {
				start = i
			}
		case isApostrophe(r) && start >= 0 && prevIsLetter(text, i) && nextIsLetter(text, i+utf8.RuneLen(r)):
			// elision or contraction
		default:
			emit(i)
			if isSentenceEnd(r) {
				boundary = true
			}
		}
	}
	emit(len(text))
	return out
}

// repairSplits merges adjacent tokens separated only by whitespace when the
// language's split table says they are one broken word.
func (e *Extractor) repairSplits(text string, toks []Token, rules language.Rules) []Token {
	table := rules.SplitTable()
	if table.Empty() || len(toks) < 2 {
		return toks
	}
	a := analyzer.For(e.analyzer, rules.Code())
	out := make([]Token, 0, len(toks))
	for i := 0; i < len(toks); i++ {
		cur := toks[i]
		if i+1 < len(toks) {
			next := toks[i+1]
			gap := text[cur.Offset+len(cur.Text) : next.Offset]
			if gap != "" && strings.TrimSpace(gap) == "" &&
				table.Match(strings.ToLower(cur.Text), strings.ToLower(next.Text)) {
				merged := cur.Text + next.Text
				if a == nil || a.SingleToken(merged, rules.Code()) {
					cur.Text = merged
					out = append(out, cur)
					i++
					continue
				}
			}
		}
		out = append(out, cur)
	}
	return out
}

// Finalize numbers tokens across the whole document and assigns grouping
// keys. A key is a proper noun when the analyzer tags it, or when more than
// half of its occurrences outside sentence starts are capitalized and the
// language treats capitalization as evidence.
func (e *Extractor) Finalize(toks []Token, lang string) []Token {
	rules := e.rules.Get(lang)
	a := analyzer.For(e.analyzer, rules.Code())

	type stat struct {
		informative, capitalized int
		tagged                   bool
		spellings                map[string]int
	}
	stats := make(map[string]*stat)
	for _, t := range toks {
		lower := strings.ToLower(t.Text)
		s := stats[lower]
		if s == nil {
			s = &stat{spellings: make(map[string]int)}
			stats[lower] = s
		}
		if t.taggedProper {
			s.tagged = true
		}
		if !isCapitalized(t.Text) {
			if !t.sentenceStart {
				s.informative++
			}
			continue
		}
		s.spellings[t.Text]++
		if !t.sentenceStart {
			s.informative++
			s.capitalized++
		}
	}

	type keyInfo struct {
		key    string
		proper bool
	}
	keys := make(map[string]keyInfo, len(stats))
	for lower, s := range stats {
		best := preferredSpelling(s.spellings)
		proper := s.tagged
		if !proper && rules.CaseMarksProper() && s.informative > 0 && s.capitalized*2 > s.informative {
			proper = true
		}
		if !proper && a != nil && best != "" && !rules.Segmented() {
			proper = a.IsProperNoun(best, rules.Code())
		}
		switch {
		case proper && best != "":
			keys[lower] = keyInfo{best, true}
		default:
			keys[lower] = keyInfo{lower, proper}
		}
	}

	out := make([]Token, len(toks))
	for i, t := range toks {
		lower := strings.ToLower(t.Text)
		k := keys[lower]
		t.Key, t.Proper = k.key, k.proper
		t.Position = i
		out[i] = t
	}
	return out
}

func preferredSpelling(spellings map[string]int) string {
	best, n := "", 0
	for s, c := range spellings {
		if c > n || (c == n && s < best) {
			best, n = s, c
		}
	}
	return best
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r)
}

func isApostrophe(r rune) bool { return r == '\'' || r == '’' }

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '…', '。', '\n':
		return true
	}
	return false
}

func prevIsLetter(text string, i int) bool {
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return unicode.IsLetter(r)
}

func nextIsLetter(text string, i int) bool {
	if i >= len(text) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return unicode.IsLetter(r)
}

func isCapitalized(w string) bool {
	r, _ := utf8.DecodeRuneInString(w)
	return unicode.IsUpper(r)
}

func letterCount(w string) int {
	n := 0
	for _, r := range w {
		if unicode.IsLetter(r) {
			n++
		}
	}
	return n
}
