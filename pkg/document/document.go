// Package document loads the text of files and web articles for ingestion.
package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-shiori/go-readability"
)

// MaxBodySize bounds the bytes read from a URL or file.
const MaxBodySize = 10 * 1024 * 1024

// ErrTooLarge is returned for sources above MaxBodySize.
var ErrTooLarge = errors.New("document exceeds size limit")

// Source is a loaded document before it is stored.
type Source struct {
	Title  string
	Author string
	Site   string
	Origin string
	Text   string
}

// Loader reads documents from the local filesystem or over HTTP.
type Loader struct {
	Client *http.Client
	log    *slog.Logger
}

// NewLoader returns a Loader with a 30s HTTP timeout.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		Client: &http.Client{Timeout: 30 * time.Second},
		log:    logger.With("component", "document.loader"),
	}
}

// Load reads origin, an http(s) URL or a file path. HTML goes through
// readability; anything else is read as plain text.
func (l *Loader) Load(ctx context.Context, origin string) (*Source, error) {
	if strings.HasPrefix(origin, "http://") || strings.HasPrefix(origin, "https://") {
		return l.fetch(ctx, origin)
	}
	return l.readFile(origin)
}

func (l *Loader) fetch(ctx context.Context, rawURL string) (*Source, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	setBrowserHeaders(req)

	l.log.InfoContext(ctx, "fetching document", slog.String("url", rawURL))
	resp, err := l.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}
	if resp.ContentLength > MaxBodySize {
		return nil, fmt.Errorf("fetch %s: content-length %d: %w", rawURL, resp.ContentLength, ErrTooLarge)
	}
	body, err := readLimited(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}

	src, err := fromHTML(body, parsedURL)
	if err != nil {
		return nil, err
	}
	src.Origin = rawURL
	if src.Title == "" {
		src.Title = parsedURL.Host + parsedURL.Path
	}
	return src, nil
}

// Mimic a desktop browser; some sites answer 403 to bare clients.
func setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,it;q=0.8,ja;q=0.7")
	req.Header.Set("Referer", "https://www.google.com/")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
}

func (l *Loader) readFile(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()

	body, err := readLimited(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	name := filepath.Base(path)
	title := strings.TrimSuffix(name, filepath.Ext(name))

	var src *Source
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm", ".xhtml":
		src, err = fromHTML(body, &url.URL{Scheme: "file", Path: path})
		if err != nil {
			return nil, err
		}
	default:
		src = &Source{Text: Sanitize(string(body))}
	}
	src.Origin = path
	if src.Title == "" {
		src.Title = title
	}
	return src, nil
}

// readLimited reads r up to MaxBodySize. A body that fills the limit is
// rejected rather than silently truncated.
func readLimited(r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, MaxBodySize+1))
	if err != nil {
		return nil, err
	}
	if len(body) > MaxBodySize {
		return nil, ErrTooLarge
	}
	return body, nil
}

func fromHTML(body []byte, pageURL *url.URL) (*Source, error) {
	article, err := readability.FromReader(bytes.NewReader(SanitizeRuby(body)), pageURL)
	if err != nil {
		return nil, fmt.Errorf("extract article: %w", err)
	}
	return &Source{
		Title:  strings.TrimSpace(article.Title),
		Author: strings.TrimSpace(article.Byline),
		Site:   article.SiteName,
		Text:   Sanitize(article.TextContent),
	}, nil
}

var (
	reRT = regexp.MustCompile(`(?si)<rt\b[^>]*>.*?</rt>`)
	reRP = regexp.MustCompile(`(?si)<rp\b[^>]*>.*?</rp>`)
)

// SanitizeRuby removes ruby text (<rt>) and ruby parentheses (<rp>) from
// HTML so furigana is not extracted next to its base text.
func SanitizeRuby(content []byte) []byte {
	cleaned := reRT.ReplaceAll(content, nil)
	return reRP.ReplaceAll(cleaned, nil)
}

// Sanitize drops invalid UTF-8 and control characters other than newline
// and tab, and normalizes line endings.
func Sanitize(text string) string {
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "")
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case r == '\r' || r == '\f' || r == '\v':
			return '\n'
		case r == utf8.RuneError, r == '\uFEFF':
			return -1
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, text)
}
