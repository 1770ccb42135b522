package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// DefaultFreeDictionaryURL is the public Free Dictionary API for English.
const DefaultFreeDictionaryURL = "https://api.dictionaryapi.dev/api/v2/entries/en"

// FreeDictionary fetches English definitions from the Free Dictionary API.
type FreeDictionary struct {
	httpSource
}

// NewFreeDictionary returns a FreeDictionary source.
func NewFreeDictionary(baseURL string, logger *slog.Logger) *FreeDictionary {
	if baseURL == "" {
		baseURL = DefaultFreeDictionaryURL
	}
	return &FreeDictionary{httpSource: newHTTPSource("freedict", baseURL, logger)}
}

type apiEntry struct {
	Word     string       `json:"word"`
	Meanings []apiMeaning `json:"meanings"`
}

type apiMeaning struct {
	PartOfSpeech string          `json:"partOfSpeech"`
	Definitions  []apiDefinition `json:"definitions"`
}

type apiDefinition struct {
	Definition string `json:"definition"`
	Example    string `json:"example"`
}

// Lookup returns the definitions of an English word. Other source
// languages are not served.
func (f *FreeDictionary) Lookup(ctx context.Context, word, src, dst string) (*Result, error) {
	if src != "en" {
		return nil, nil
	}
	reqURL := f.baseURL + "/" + url.PathEscape(strings.ToLower(word))

	f.log.DebugContext(ctx, "freedict request", slog.String("word", word))

	resp, err := f.doWithRetry(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	}, word)
	if err != nil {
		return nil, fmt.Errorf("freedict: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("freedict: unexpected status %d", resp.StatusCode)
	}

	var entries []apiEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("freedict: decode json: %w", err)
	}
	if len(entries) == 0 || len(entries[0].Meanings) == 0 {
		return nil, nil
	}

	m := entries[0].Meanings[0]
	var defs []string
	for _, d := range m.Definitions {
		if d.Definition != "" {
			defs = append(defs, d.Definition)
		}
		if len(defs) == 3 {
			break
		}
	}
	if len(defs) == 0 {
		return nil, nil
	}
	res := &Result{Definition: strings.Join(defs, "; "), POS: m.PartOfSpeech, Source: f.name}
	if dst == "en" {
		res.Translation = res.Definition
	}
	return res, nil
}
