package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// retryDelay is the pause before the single retry of a failed request.
var retryDelay = 500 * time.Millisecond

// httpSource holds what the HTTP-backed sources share.
type httpSource struct {
	name       string
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

func newHTTPSource(name, baseURL string, logger *slog.Logger) httpSource {
	if logger == nil {
		logger = slog.Default()
	}
	return httpSource{
		name:       name,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        logger.With("adapter", name),
	}
}

// Name returns the source tag stored on lemmas.
func (s httpSource) Name() string { return s.name }

// doWithRetry executes the request with a single retry on 5xx or network
// errors. newReq is called once per attempt so request bodies can be rebuilt.
func (s httpSource) doWithRetry(ctx context.Context, newReq func() (*http.Request, error), word string) (*http.Response, error) {
	req, err := newReq()
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", s.name, err)
	}
	resp, err := s.httpClient.Do(req)

	shouldRetry := err != nil || (resp != nil && resp.StatusCode >= 500)
	if !shouldRetry {
		return resp, err
	}

	// Don't retry if context is already cancelled.
	if ctx.Err() != nil {
		return resp, err
	}

	reason := "network error"
	if err == nil && resp != nil {
		reason = fmt.Sprintf("status %d", resp.StatusCode)
	}
	s.log.WarnContext(ctx, s.name+" retry", slog.String("word", word), slog.String("reason", reason))

	// Close body from the failed attempt before retrying.
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(retryDelay):
	}

	req, err = newReq()
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", s.name, err)
	}
	return s.httpClient.Do(req)
}
