package enrich

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"github.com/japaniel/lexindex/pkg/db"
	"github.com/japaniel/lexindex/pkg/lexdata"
)

// StoreSource answers from lemma rows that were enriched earlier.
type StoreSource struct {
	ex db.DBExecutor
}

// NewStoreSource returns a source reading the lemmas table.
func NewStoreSource(ex db.DBExecutor) *StoreSource {
	return &StoreSource{ex: ex}
}

func (s *StoreSource) Name() string { return "store" }

// Lookup returns the stored enrichment of word in src. Rows without a
// definition count as unknown.
func (s *StoreSource) Lookup(ctx context.Context, word, src, dst string) (*Result, error) {
	l, err := db.LemmaByText(ctx, s.ex, word, src)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if l.Definition == "" {
		return nil, nil
	}
	return &Result{
		Translation: l.Translation,
		Definition:  l.Definition,
		POS:         l.POS,
		Grammar:     l.Grammar,
		Source:      l.Source,
	}, nil
}

// IndexSource answers from an in-memory dictionary index.
type IndexSource struct {
	ix *lexdata.Index
}

// NewIndexSource wraps ix.
func NewIndexSource(ix *lexdata.Index) *IndexSource {
	return &IndexSource{ix: ix}
}

func (s *IndexSource) Name() string { return s.ix.Name }

// Lookup returns the first entry of word with glosses. Inflected-form
// entries are followed to their lemma.
func (s *IndexSource) Lookup(_ context.Context, word, src, dst string) (*Result, error) {
	if src != s.ix.Lang {
		return nil, nil
	}
	entries := s.ix.Resolve(word)
	if len(entries) == 0 && src == "ja" {
		entries = s.ix.Resolve(lexdata.ToHiragana(word))
	}
	for _, e := range entries {
		if len(e.Glosses) == 0 {
			continue
		}
		res := &Result{Definition: e.Definition(), POS: e.POS, Source: s.ix.Name}
		switch {
		case dst == s.ix.GlossLang:
			res.Translation = e.Glosses[0]
		case len(e.Translations[dst]) > 0:
			res.Translation = e.Translations[dst][0]
		}
		return res, nil
	}
	return nil, nil
}

// Limited wraps a remote source with a fixed inter-call delay and a
// per-call timeout.
type Limited struct {
	src     Source
	limiter *rate.Limiter
	timeout time.Duration
}

// NewLimited allows one call to src per delay, each bounded by timeout.
func NewLimited(src Source, delay, timeout time.Duration) *Limited {
	lim := rate.NewLimiter(rate.Inf, 1)
	if delay > 0 {
		lim = rate.NewLimiter(rate.Every(delay), 1)
	}
	return &Limited{src: src, limiter: lim, timeout: timeout}
}

func (l *Limited) Name() string { return l.src.Name() }

// Lookup waits for the limiter and calls the wrapped source.
func (l *Limited) Lookup(ctx context.Context, word, src, dst string) (*Result, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	return l.src.Lookup(ctx, word, src, dst)
}
