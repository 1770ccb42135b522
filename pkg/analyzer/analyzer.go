// Package analyzer defines the optional morphological analyzer used by the
// extractor and the normalizer. No analyzer at all is a valid configuration:
// every caller has a heuristic fallback.
package analyzer

// Analyzer reports lemmas and token properties for the languages it supports.
type Analyzer interface {
	// Supports reports whether lang is handled by this analyzer.
	Supports(lang string) bool
	// Lemma returns the dictionary form of a single token. ok is false when
	// the analyzer cannot produce a single-token lemma.
	Lemma(token, lang string) (lemma string, ok bool)
	// IsProperNoun reports whether the analyzer tags token as a proper noun.
	IsProperNoun(token, lang string) bool
	// SingleToken reports whether text is recognized as exactly one token.
	SingleToken(text, lang string) bool
}

// Segment is one token produced by a Segmenter.
type Segment struct {
	Surface string
	Base    string
	// Offset is the byte offset of Surface in the segmented text.
	Offset int
	POS    string
	Proper bool
}

// Segmenter splits text without word separators into tokens.
type Segmenter interface {
	Segment(text, lang string) []Segment
}

// Multi dispatches to the first analyzer that supports a language.
type Multi []Analyzer

// Supports reports whether any member supports lang.
func (m Multi) Supports(lang string) bool {
	return m.pick(lang) != nil
}

func (m Multi) pick(lang string) Analyzer {
	for _, a := range m {
		if a != nil && a.Supports(lang) {
			return a
		}
	}
	return nil
}

func (m Multi) Lemma(token, lang string) (string, bool) {
	if a := m.pick(lang); a != nil {
		return a.Lemma(token, lang)
	}
	return "", false
}

func (m Multi) IsProperNoun(token, lang string) bool {
	if a := m.pick(lang); a != nil {
		return a.IsProperNoun(token, lang)
	}
	return false
}

func (m Multi) SingleToken(text, lang string) bool {
	if a := m.pick(lang); a != nil {
		return a.SingleToken(text, lang)
	}
	return false
}

// Segment uses the first supporting member that is also a Segmenter.
func (m Multi) Segment(text, lang string) []Segment {
	for _, a := range m {
		if a == nil || !a.Supports(lang) {
			continue
		}
		if s, ok := a.(Segmenter); ok {
			return s.Segment(text, lang)
		}
	}
	return nil
}

// For returns a usable analyzer for lang or nil, so callers can treat
// "not configured" and "does not support this language" the same way.
func For(a Analyzer, lang string) Analyzer {
	if a == nil || !a.Supports(lang) {
		return nil
	}
	return a
}

// SegmenterFor returns a Segmenter for lang or nil.
func SegmenterFor(a Analyzer, lang string) Segmenter {
	if For(a, lang) == nil {
		return nil
	}
	if m, ok := a.(Multi); ok {
		for _, member := range m {
			if s := SegmenterFor(member, lang); s != nil {
				return s
			}
		}
		return nil
	}
	s, _ := a.(Segmenter)
	return s
}
