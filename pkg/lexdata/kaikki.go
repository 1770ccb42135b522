package lexdata

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// maxLineSize is the scanner buffer for one JSONL line (16 MB).
const maxLineSize = 16 << 20

// Stats holds loader statistics for logging.
type Stats struct {
	TotalLines     int
	MalformedLines int
	OtherLangLines int
	Entries        int
}

// kaikkiEntry mirrors the wiktextract JSONL structure (only fields we need).
type kaikkiEntry struct {
	Word     string        `json:"word"`
	POS      string        `json:"pos"`
	Lang     string        `json:"lang"`
	LangCode string        `json:"lang_code"`
	Senses   []kaikkiSense `json:"senses"`
}

type kaikkiSense struct {
	Glosses      []string            `json:"glosses"`
	Tags         []string            `json:"tags"`
	FormOf       []kaikkiForm        `json:"form_of"`
	Translations []kaikkiTranslation `json:"translations"`
}

type kaikkiForm struct {
	Word string `json:"word"`
}

type kaikkiTranslation struct {
	Code string `json:"code"`
	Word string `json:"word"`
}

// LoadKaikki streams a wiktextract dump extracted from the English
// Wiktionary and indexes the entries whose language code is lang.
// Malformed lines are counted and skipped.
func LoadKaikki(r io.Reader, lang string) (*Index, Stats, error) {
	ix := NewIndex("kaikki", lang, "en")
	var stats Stats

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		stats.TotalLines++
		line := sc.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		var ke kaikkiEntry
		if err := json.Unmarshal(line, &ke); err != nil {
			stats.MalformedLines++
			continue
		}
		if ke.LangCode != "" && ke.LangCode != lang {
			stats.OtherLangLines++
			continue
		}
		e, ok := buildEntry(&ke)
		if !ok {
			continue
		}
		ix.Add(e, ke.Word)
		stats.Entries++
	}
	if err := sc.Err(); err != nil {
		return nil, stats, fmt.Errorf("scanner error: %w", err)
	}
	return ix, stats, nil
}

// LoadKaikkiFile opens path and calls LoadKaikki.
func LoadKaikkiFile(path, lang string) (*Index, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	return LoadKaikki(f, lang)
}

func buildEntry(ke *kaikkiEntry) (Entry, bool) {
	e := Entry{Word: ke.Word, POS: ke.POS, Translations: make(map[string][]string)}
	for _, s := range ke.Senses {
		if len(s.FormOf) > 0 {
			if e.FormOf == "" {
				e.FormOf = s.FormOf[0].Word
			}
			continue
		}
		if len(s.Glosses) > 0 {
			// The last gloss is the most specific one for nested senses.
			g := strings.TrimSpace(s.Glosses[len(s.Glosses)-1])
			if g != "" {
				e.Glosses = append(e.Glosses, g)
			}
		}
		for _, t := range s.Translations {
			if t.Code == "" || t.Word == "" {
				continue
			}
			e.Translations[t.Code] = append(e.Translations[t.Code], t.Word)
		}
	}
	if len(e.Glosses) == 0 && e.FormOf == "" && len(e.Translations) == 0 {
		return Entry{}, false
	}
	return e, true
}
