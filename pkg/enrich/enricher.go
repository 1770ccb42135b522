package enrich

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/japaniel/lexindex/pkg/db"
	"github.com/japaniel/lexindex/pkg/ingest"
)

// DefaultInlineConcurrency bounds the concurrent lookups of an inline batch.
const DefaultInlineConcurrency = 4

// Enricher resolves lemmas and writes the results back to the store.
type Enricher struct {
	ex       db.DBExecutor
	resolver *Resolver
	pool     *ingest.WorkerPool
	target   string
	log      *slog.Logger

	mu     sync.Mutex
	queued map[int64]bool
}

// NewEnricher returns an Enricher. pool runs background batches and may be
// nil, in which case lemmas beyond the inline bound are left for
// read-time enrichment.
func NewEnricher(ex db.DBExecutor, r *Resolver, pool *ingest.WorkerPool, target string, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{
		ex:       ex,
		resolver: r,
		pool:     pool,
		target:   target,
		log:      logger.With("component", "enrich.enricher"),
		queued:   make(map[int64]bool),
	}
}

// Target returns the default translation language.
func (e *Enricher) Target() string { return e.target }

// EnrichLemma resolves one lemma into target and fills its empty fields.
// An empty target means the default one. It reports whether the row
// changed.
func (e *Enricher) EnrichLemma(ctx context.Context, l db.Lemma, target string) (bool, error) {
	if target == "" {
		target = e.target
	}
	res, err := e.resolver.Resolve(ctx, Request{Lemma: l.Lemma, Source: l.Language, Target: target})
	if err != nil {
		return false, err
	}
	if !res.Found() && res.POS == "" && len(res.Grammar) == 0 {
		return false, nil
	}
	return db.UpdateLemmaEnrichment(ctx, e.ex, l.ID, res.Enrichment())
}

// EnrichBatch enriches the first inline lemmas into target before returning
// and queues the rest on the background pool. Lemmas already waiting in the
// background are not queued again. It returns how many lemmas changed
// inline. Failures of single lemmas are logged.
func (e *Enricher) EnrichBatch(ctx context.Context, lemmas []db.Lemma, target string, inline int) (int, error) {
	if inline < 0 {
		inline = 0
	}
	if inline > len(lemmas) {
		inline = len(lemmas)
	}
	now, later := lemmas[:inline], lemmas[inline:]

	var changed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(DefaultInlineConcurrency)
	for _, l := range now {
		g.Go(func() error {
			ok, err := e.EnrichLemma(gctx, l, target)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				e.log.WarnContext(gctx, "enrich lemma failed", slog.String("lemma", l.Lemma), slog.String("error", err.Error()))
				return nil
			}
			if ok {
				changed.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(changed.Load()), err
	}

	if len(later) > 0 && e.pool != nil {
		batch := e.claim(later)
		if len(batch) == 0 {
			return int(changed.Load()), nil
		}
		task := uuid.NewString()
		err := e.pool.SubmitCtx(ctx, func(ctx context.Context) error {
			defer e.release(batch)
			log := e.log.With("task", task)
			log.InfoContext(ctx, "background enrichment started", slog.Int("lemmas", len(batch)))
			n := 0
			for _, l := range batch {
				ok, err := e.EnrichLemma(ctx, l, target)
				if err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					log.WarnContext(ctx, "enrich lemma failed", slog.String("lemma", l.Lemma), slog.String("error", err.Error()))
					continue
				}
				if ok {
					n++
				}
			}
			log.InfoContext(ctx, "background enrichment finished", slog.Int("changed", n))
			return nil
		})
		if err != nil {
			e.release(batch)
			e.log.WarnContext(ctx, "background enrichment not queued", slog.Int("lemmas", len(batch)), slog.String("error", err.Error()))
		}
	}
	return int(changed.Load()), nil
}

// claim marks the lemmas not yet queued and returns them.
func (e *Enricher) claim(lemmas []db.Lemma) []db.Lemma {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []db.Lemma
	for _, l := range lemmas {
		if e.queued[l.ID] {
			continue
		}
		e.queued[l.ID] = true
		out = append(out, l)
	}
	return out
}

func (e *Enricher) release(lemmas []db.Lemma) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, l := range lemmas {
		delete(e.queued, l.ID)
	}
}

// Queued returns how many lemmas wait for background enrichment.
func (e *Enricher) Queued() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queued)
}
