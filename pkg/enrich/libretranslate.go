package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

// DefaultLibreTranslateURL is the public LibreTranslate endpoint.
const DefaultLibreTranslateURL = "https://libretranslate.com/translate"

// LibreTranslate translates single words with a LibreTranslate server.
type LibreTranslate struct {
	httpSource
}

// NewLibreTranslate returns a LibreTranslate source.
func NewLibreTranslate(baseURL string, logger *slog.Logger) *LibreTranslate {
	if baseURL == "" {
		baseURL = DefaultLibreTranslateURL
	}
	return &LibreTranslate{httpSource: newHTTPSource("libretranslate", baseURL, logger)}
}

type libreRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
}

type libreResponse struct {
	TranslatedText string `json:"translatedText"`
	Error          string `json:"error"`
}

// Lookup translates word from src to dst.
func (l *LibreTranslate) Lookup(ctx context.Context, word, src, dst string) (*Result, error) {
	if src == dst {
		return nil, nil
	}
	payload, err := json.Marshal(libreRequest{Q: word, Source: src, Target: dst, Format: "text"})
	if err != nil {
		return nil, err
	}

	resp, err := l.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}, word)
	if err != nil {
		return nil, fmt.Errorf("libretranslate: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("libretranslate: unexpected status %d", resp.StatusCode)
	}

	var body libreResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("libretranslate: decode json: %w", err)
	}
	if body.Error != "" {
		return nil, fmt.Errorf("libretranslate: %s", body.Error)
	}
	t := strings.TrimSpace(body.TranslatedText)
	if t == "" {
		return nil, nil
	}
	return &Result{Translation: t, Source: l.name}, nil
}
