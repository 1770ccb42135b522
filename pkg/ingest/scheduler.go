package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	"github.com/japaniel/lexindex/pkg/db"
)

// Runner processes one stored document.
type Runner interface {
	Run(ctx context.Context, docID string) error
}

// Scheduler runs documents in the background on a WorkerPool. Callers
// submit a document id and poll its status.
type Scheduler struct {
	conn   *sql.DB
	runner Runner
	pool   *WorkerPool
	log    *slog.Logger

	mu     sync.Mutex
	queued map[string]bool
}

// NewScheduler returns a Scheduler processing up to workers documents at
// once.
func NewScheduler(conn *sql.DB, runner Runner, workers int, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		conn:   conn,
		runner: runner,
		pool:   NewWorkerPool(workers, 64),
		log:    logger.With("component", "ingest.scheduler"),
		queued: make(map[string]bool),
	}
	s.pool.OnError = func(err error) {
		s.log.Error("document job failed", slog.String("error", err.Error()))
	}
	return s
}

// Start launches the workers. They stop when ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	s.pool.Start(ctx)
}

// Submit queues docID. A document already queued or running is not queued
// twice. It returns once the job is accepted, not when it finishes.
func (s *Scheduler) Submit(ctx context.Context, docID string) error {
	s.mu.Lock()
	if s.queued[docID] {
		s.mu.Unlock()
		s.log.DebugContext(ctx, "document already queued", slog.String("document", docID))
		return nil
	}
	s.queued[docID] = true
	s.mu.Unlock()

	err := s.pool.SubmitCtx(ctx, func(ctx context.Context) error {
		defer s.release(docID)
		if err := s.runner.Run(ctx, docID); err != nil {
			return fmt.Errorf("document %s: %w", docID, err)
		}
		return nil
	})
	if err != nil {
		s.release(docID)
		return fmt.Errorf("queue document %s: %w", docID, err)
	}
	s.log.InfoContext(ctx, "document queued", slog.String("document", docID))
	return nil
}

func (s *Scheduler) release(docID string) {
	s.mu.Lock()
	delete(s.queued, docID)
	s.mu.Unlock()
}

// Resume queues every document left pending or processing by an earlier
// run and returns how many were queued.
func (s *Scheduler) Resume(ctx context.Context) (int, error) {
	var ids []string
	for _, st := range []db.DocumentStatus{db.DocumentProcessing, db.DocumentPending} {
		found, err := db.DocumentsByStatus(ctx, s.conn, st)
		if err != nil {
			return 0, err
		}
		ids = append(ids, found...)
	}
	for i, id := range ids {
		if err := s.Submit(ctx, id); err != nil {
			return i, err
		}
	}
	if len(ids) > 0 {
		s.log.InfoContext(ctx, "resumed documents", slog.Int("count", len(ids)))
	}
	return len(ids), nil
}

// Close stops accepting documents and waits for queued ones to finish.
func (s *Scheduler) Close() {
	s.pool.Close()
}
