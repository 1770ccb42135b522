package lexdata

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// JMdictEntry matches the structure of jmdict-simplified entries.
type JMdictEntry struct {
	ID    string          `json:"id"`
	Kanji []JMdictElement `json:"kanji"`
	Kana  []JMdictElement `json:"kana"`
	Sense []JMdictSense   `json:"sense"`
}

type JMdictElement struct {
	Text   string   `json:"text"`
	Common bool     `json:"common"`
	Tags   []string `json:"tags"`
}

type JMdictSense struct {
	PartOfSpeech []string      `json:"partOfSpeech"`
	Gloss        []JMdictGloss `json:"gloss"`
}

type JMdictGloss struct {
	Text string `json:"text"`
	Lang string `json:"lang"` // defaults to 'eng' if missing
}

// DecodeJMdict reads either the release wrapper { "words": [...] } or a
// bare array of entries.
func DecodeJMdict(r io.ReadSeeker) ([]JMdictEntry, error) {
	var wrapped struct {
		Words []JMdictEntry `json:"words"`
	}
	if err := json.NewDecoder(r).Decode(&wrapped); err == nil && len(wrapped.Words) > 0 {
		return wrapped.Words, nil
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	var entries []JMdictEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to parse dictionary as object or array: %w", err)
	}
	return entries, nil
}

// LoadJMdictFile loads path and builds its index.
func LoadJMdictFile(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	entries, err := DecodeJMdict(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return NewJMdictIndex(entries), nil
}

// NewJMdictIndex indexes entries by every kanji and kana writing, and by
// the hiragana spelling of katakana writings.
func NewJMdictIndex(entries []JMdictEntry) *Index {
	ix := NewIndex("jmdict", "ja", "en")
	for _, je := range entries {
		e := Entry{Word: headword(je), Translations: map[string][]string{}}
		for _, s := range je.Sense {
			if e.POS == "" && len(s.PartOfSpeech) > 0 {
				e.POS = s.PartOfSpeech[0]
			}
			for _, g := range s.Gloss {
				if g.Lang != "" && g.Lang != "eng" {
					continue
				}
				e.Glosses = append(e.Glosses, g.Text)
			}
		}
		if len(e.Glosses) == 0 {
			continue
		}
		e.Translations["en"] = e.Glosses

		var keys []string
		for _, k := range je.Kanji {
			keys = append(keys, k.Text)
		}
		for _, k := range je.Kana {
			keys = append(keys, k.Text, ToHiragana(k.Text))
		}
		ix.Add(e, keys...)
	}
	return ix
}

func headword(je JMdictEntry) string {
	if len(je.Kanji) > 0 {
		return je.Kanji[0].Text
	}
	if len(je.Kana) > 0 {
		return je.Kana[0].Text
	}
	return ""
}

// ToHiragana converts Katakana to Hiragana.
func ToHiragana(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		if r >= 0x30A1 && r <= 0x30F6 {
			runes[i] = r - 0x60
		}
	}
	return string(runes)
}
