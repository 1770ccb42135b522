package analyzer

import (
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// Kagome IPA feature layout:
// 0: part of speech, 1..3: sub-POS, 4: conjugation type, 5: conjugation
// form, 6: base form, 7: reading, 8: pronunciation.
const (
	featPOS    = 0
	featSubPOS = 1
	featBase   = 6
)

// posProper is the IPA sub-POS for proper nouns (固有名詞).
const posProper = "固有名詞"

// Japanese is an Analyzer and Segmenter for Japanese backed by kagome and
// the IPA dictionary.
type Japanese struct {
	t *tokenizer.Tokenizer
}

// NewJapanese creates a new tokenizer instance.
func NewJapanese() (*Japanese, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, err
	}
	return &Japanese{t: t}, nil
}

func (j *Japanese) Supports(lang string) bool { return lang == "ja" }

// Segment breaks text into tokens with base forms. Whitespace-only tokens
// are dropped.
func (j *Japanese) Segment(text, lang string) []Segment {
	if lang != "ja" {
		return nil
	}
	var out []Segment
	for _, tok := range j.t.Tokenize(text) {
		if tok.Class == tokenizer.DUMMY || strings.TrimSpace(tok.Surface) == "" {
			continue
		}
		features := tok.Features()
		out = append(out, Segment{
			Surface: tok.Surface,
			Base:    baseForm(tok.Surface, features),
			Offset:  tok.Position,
			POS:     feature(features, featPOS),
			Proper:  feature(features, featSubPOS) == posProper,
		})
	}
	return out
}

func (j *Japanese) Lemma(token, lang string) (string, bool) {
	segs := j.Segment(token, lang)
	if len(segs) != 1 {
		return "", false
	}
	return segs[0].Base, true
}

func (j *Japanese) IsProperNoun(token, lang string) bool {
	segs := j.Segment(token, lang)
	return len(segs) == 1 && segs[0].Proper
}

func (j *Japanese) SingleToken(text, lang string) bool {
	return len(j.Segment(text, lang)) == 1
}

func baseForm(surface string, features []string) string {
	if b := feature(features, featBase); b != "" {
		return b
	}
	return surface
}

func feature(features []string, i int) string {
	if i < len(features) && features[i] != "*" {
		return features[i]
	}
	return ""
}
