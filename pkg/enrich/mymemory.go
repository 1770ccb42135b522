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

// DefaultMyMemoryURL is the public MyMemory endpoint.
const DefaultMyMemoryURL = "https://api.mymemory.translated.net/get"

// MyMemory translates single words with the MyMemory API.
type MyMemory struct {
	httpSource
}

// NewMyMemory returns a MyMemory source. An empty baseURL uses the public API.
func NewMyMemory(baseURL string, logger *slog.Logger) *MyMemory {
	if baseURL == "" {
		baseURL = DefaultMyMemoryURL
	}
	return &MyMemory{httpSource: newHTTPSource("mymemory", baseURL, logger)}
}

type myMemoryResponse struct {
	ResponseData struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
	ResponseStatus any `json:"responseStatus"`
}

// Lookup translates word from src to dst.
func (m *MyMemory) Lookup(ctx context.Context, word, src, dst string) (*Result, error) {
	if src == dst {
		return nil, nil
	}
	q := url.Values{}
	q.Set("q", word)
	q.Set("langpair", src+"|"+dst)
	reqURL := m.baseURL + "?" + q.Encode()

	m.log.DebugContext(ctx, "mymemory request", slog.String("word", word))

	resp, err := m.doWithRetry(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	}, word)
	if err != nil {
		return nil, fmt.Errorf("mymemory: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mymemory: unexpected status %d", resp.StatusCode)
	}

	var body myMemoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("mymemory: decode json: %w", err)
	}
	t := strings.TrimSpace(body.ResponseData.TranslatedText)
	if t == "" || strings.HasPrefix(strings.ToUpper(t), "MYMEMORY WARNING") {
		return nil, nil
	}
	return &Result{Translation: t, Definition: t, Source: m.name}, nil
}
