package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/japaniel/lexindex/pkg/analyzer"
	"github.com/japaniel/lexindex/pkg/canon"
	"github.com/japaniel/lexindex/pkg/db"
	"github.com/japaniel/lexindex/pkg/document"
	"github.com/japaniel/lexindex/pkg/extract"
	"github.com/japaniel/lexindex/pkg/freq"
	"github.com/japaniel/lexindex/pkg/language"
	"github.com/japaniel/lexindex/pkg/normalize"
)

// WorkerPoolInterface abstracts the worker pool so tests can inject failing implementations.
type WorkerPoolInterface interface {
	Start(ctx context.Context)
	Submit(Job) error
	// SubmitCtx attempts to enqueue a job but returns promptly if ctx is canceled.
	SubmitCtx(ctx context.Context, job Job) error
	Close()
}

// Enricher fills translations and definitions of freshly ingested lemmas.
// target is the document's translation language.
type Enricher interface {
	EnrichBatch(ctx context.Context, lemmas []db.Lemma, target string, inline int) (int, error)
}

// Pipeline turns a stored document into lemma, document_lemma and
// occurrence rows.
type Pipeline struct {
	DB         *sql.DB
	Rules      *language.Registry
	Extractor  *extract.Extractor
	Normalizer *normalize.Normalizer
	// Oracle supplies source-language frequencies for difficulty. May be nil.
	Oracle freq.Oracle
	// Enricher is optional. When set, up to EnrichInline lemmas are
	// enriched before the run completes.
	Enricher     Enricher
	EnrichInline int

	BatchSize     int
	FlushInterval time.Duration
	OccurrenceCap int
	SampleCap     int
	SnippetRadius int
	// Workers is the number of concurrent chapter analyzers.
	Workers int

	Logger *slog.Logger
	// OnProgress is called with the number of persisted lemmas and the total.
	OnProgress func(current, total int)

	// PoolFactory allows tests to inject custom worker pool implementations.
	PoolFactory func(workers, queue int) WorkerPoolInterface
	// Split cuts a document into chapters.
	Split func(text string) []string
}

// NewPipeline creates a Pipeline with default settings. a may be nil.
func NewPipeline(conn *sql.DB, rules *language.Registry, a analyzer.Analyzer) *Pipeline {
	if rules == nil {
		rules = language.NewRegistry(nil)
	}
	return &Pipeline{
		DB:            conn,
		Rules:         rules,
		Extractor:     extract.New(rules, a),
		Normalizer:    normalize.New(rules, a, nil),
		EnrichInline:  10,
		BatchSize:     100,
		FlushInterval: 500 * time.Millisecond,
		OccurrenceCap: canon.DefaultSampleCap,
		SampleCap:     canon.DefaultSampleCap,
		SnippetRadius: extract.DefaultSnippetRadius,
		Workers:       4,
		Logger:        slog.Default(),
		Split:         document.SplitChapters,
	}
}

// analyzedChapter holds the result of scanning a chapter before reordering.
type analyzedChapter struct {
	Index  int
	Tokens []extract.Token
	Error  error
}

// Run processes the document. Status moves to processing, then to
// completed or failed; a failure is also returned.
func (p *Pipeline) Run(ctx context.Context, docID string) (err error) {
	log := p.logger().With("document", docID)
	doc, err := db.GetDocument(ctx, p.DB, docID)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}

	defer func() {
		if err == nil {
			return
		}
		// Record the failure even when ctx was cancelled.
		if serr := db.SetDocumentStatus(context.WithoutCancel(ctx), p.DB, docID, db.DocumentFailed, err.Error()); serr != nil {
			log.Error("failed to record document failure", slog.String("error", serr.Error()))
		}
		log.Error("document processing failed", slog.String("error", err.Error()))
	}()

	if err := db.SetDocumentStatus(ctx, p.DB, docID, db.DocumentProcessing, ""); err != nil {
		return err
	}
	if err := db.ResetDocumentVocabulary(ctx, p.DB, docID); err != nil {
		return err
	}

	content, err := db.DocumentContent(ctx, p.DB, docID)
	if err != nil {
		return fmt.Errorf("load content: %w", err)
	}
	lang := language.Normalize(doc.Language)
	chapters := p.split(content)

	start := time.Now()
	tokens, err := p.analyze(ctx, chapters, lang)
	if err != nil {
		return err
	}
	groups := p.group(tokens, lang)
	log.Info("document analyzed",
		slog.Int("chapters", len(chapters)),
		slog.Int("words", len(tokens)),
		slog.Int("lemmas", len(groups)),
		slog.Duration("elapsed", time.Since(start)))

	if err := db.SetDocumentTotals(ctx, p.DB, docID, len(tokens), len(groups)); err != nil {
		return err
	}

	fresh, err := p.persist(ctx, docID, lang, chapters, groups, log)
	if err != nil {
		return err
	}

	if p.Enricher != nil && p.EnrichInline > 0 && len(fresh) > 0 {
		p.enrichNew(ctx, fresh, doc.TargetLanguage, log)
	}

	if err := db.SetDocumentStatus(ctx, p.DB, docID, db.DocumentCompleted, ""); err != nil {
		return err
	}
	log.Info("document completed", slog.Duration("elapsed", time.Since(start)))
	return nil
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger.With("component", "ingest.pipeline")
}

func (p *Pipeline) split(text string) []string {
	if p.Split != nil {
		return p.Split(text)
	}
	return []string{text}
}

// analyze scans chapters concurrently and returns the document's tokens in
// chapter order with proper nouns resolved across the whole document.
func (p *Pipeline) analyze(ctx context.Context, chapters []string, lang string) ([]extract.Token, error) {
	workers := max(p.Workers, 1)
	var wp WorkerPoolInterface
	if p.PoolFactory != nil {
		wp = p.PoolFactory(workers, workers*2)
	} else {
		wp = NewWorkerPool(workers, workers*2)
	}
	resultCh := make(chan analyzedChapter, workers*2)
	doneCh := make(chan error, 1)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	wp.Start(ctx)

	ordered := make([][]extract.Token, len(chapters))
	go func() {
		defer close(doneCh)
		buffer := make(map[int]analyzedChapter)
		nextIdx := 0
		for res := range resultCh {
			if res.Error != nil {
				cancel()
				doneCh <- res.Error
				// Drain so producers never block.
				for range resultCh {
				}
				return
			}
			buffer[res.Index] = res
			for {
				item, ok := buffer[nextIdx]
				if !ok {
					break
				}
				delete(buffer, nextIdx)
				ordered[nextIdx] = item.Tokens
				nextIdx++
			}
		}
		if nextIdx < len(chapters) {
			if err := ctx.Err(); err != nil {
				doneCh <- err
				return
			}
			doneCh <- fmt.Errorf("analyzed %d of %d chapters", nextIdx, len(chapters))
			return
		}
		doneCh <- nil
	}()

	var submitErr error
Loop:
	for i, text := range chapters {
		idx, chapter := i, text
		job := func(ctx context.Context) error {
			res := analyzedChapter{Index: idx}
			if err := ctx.Err(); err != nil {
				res.Error = err
			} else {
				res.Tokens = p.Extractor.Scan(idx, chapter, lang)
				p.warm(res.Tokens, lang)
			}
			select {
			case resultCh <- res:
			case <-ctx.Done():
			}
			return nil
		}
		if err := wp.SubmitCtx(ctx, job); err != nil {
			if errors.Is(err, ctx.Err()) || errors.Is(err, ErrPoolClosed) {
				break Loop
			}
			submitErr = err
			cancel()
			break Loop
		}
	}

	wp.Close()
	close(resultCh)
	consumerErr := <-doneCh
	if submitErr != nil {
		return nil, submitErr
	}
	if consumerErr != nil {
		return nil, consumerErr
	}

	var all []extract.Token
	for _, toks := range ordered {
		all = append(all, toks...)
	}
	return p.Extractor.Finalize(all, lang), nil
}

// warm normalizes the lowercase spellings of a chapter so the sequential
// grouping pass mostly hits the cache.
func (p *Pipeline) warm(toks []extract.Token, lang string) {
	for _, t := range toks {
		p.Normalizer.Normalize(normInput(t), lang)
	}
}

func normInput(t extract.Token) string {
	if t.Base != "" {
		return t.Base
	}
	if t.Key != "" {
		return t.Key
	}
	return strings.ToLower(t.Text)
}

func (p *Pipeline) group(tokens []extract.Token, lang string) []canon.Group {
	entries := make([]canon.Entry, 0, len(tokens))
	for _, t := range tokens {
		e := canon.Entry{
			Form:     t.Key,
			Surface:  t.Text,
			Position: t.Position,
			Chapter:  t.Chapter,
			Offset:   t.Offset,
			Proper:   t.Proper,
		}
		if t.Proper {
			e.Lemma = t.Key
		} else {
			e.Lemma = p.Normalizer.Normalize(normInput(t), lang).Lemma
		}
		entries = append(entries, e)
	}
	return canon.New(p.Rules, p.SampleCap).Group(lang, entries)
}

// persist writes every group through a BatchWriter and returns the ids of
// lemmas created by this run, most frequent first.
func (p *Pipeline) persist(ctx context.Context, docID, lang string, chapters []string, groups []canon.Group, log *slog.Logger) ([]int64, error) {
	bw := NewBatchWriter(p.DB, p.BatchSize, p.FlushInterval)
	var batchErr error
	var batchErrMu sync.Mutex
	bw.OnError = func(e error) {
		batchErrMu.Lock()
		if batchErr == nil {
			batchErr = e
		}
		batchErrMu.Unlock()
	}

	total := len(groups)
	var (
		processed atomic.Int64
		skipped   atomic.Int64
		freshMu   sync.Mutex
		fresh     []int64
	)

	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			_ = bw.Close()
			return nil, err
		}
		group := g
		err := bw.Submit(func(ctx context.Context, tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, "SAVEPOINT lemma"); err != nil {
				return err
			}
			id, inserted, err := p.writeGroup(ctx, tx, docID, lang, chapters, group)
			if err != nil {
				if _, rerr := tx.ExecContext(ctx, "ROLLBACK TO lemma"); rerr != nil {
					return fmt.Errorf("rollback lemma %q: %w", group.Lemma, rerr)
				}
				skipped.Add(1)
				log.Warn("skipping lemma", slog.String("lemma", group.Lemma), slog.String("error", err.Error()))
			} else if inserted {
				freshMu.Lock()
				fresh = append(fresh, id)
				freshMu.Unlock()
			}
			if _, err := tx.ExecContext(ctx, "RELEASE lemma"); err != nil {
				return err
			}
			if err := db.UpdateDocumentProgress(ctx, tx, docID, 1); err != nil {
				return err
			}
			n := int(processed.Add(1))
			if p.OnProgress != nil && (n%max(p.BatchSize, 1) == 0 || n == total) {
				p.OnProgress(n, total)
			}
			return nil
		})
		if err != nil {
			_ = bw.Close()
			return nil, err
		}
	}

	closeErr := bw.Close()
	batchErrMu.Lock()
	defer batchErrMu.Unlock()
	if batchErr != nil {
		return nil, batchErr
	}
	if closeErr != nil {
		return nil, closeErr
	}
	if n := skipped.Load(); n > 0 {
		log.Warn("lemmas skipped", slog.Int64("count", n))
	}
	return fresh, nil
}

func (p *Pipeline) writeGroup(ctx context.Context, tx *sql.Tx, docID, lang string, chapters []string, g canon.Group) (int64, bool, error) {
	id, inserted, err := db.UpsertLemma(ctx, tx, db.LemmaInput{
		Lemma:      g.Lemma,
		Language:   lang,
		POS:        g.POS,
		Grammar:    g.Grammar,
		Frequency:  g.Frequency,
		Difficulty: freq.Difficulty(g.Lemma, lang, p.Oracle),
	})
	if err != nil {
		return 0, false, err
	}

	forms := make([]db.Form, len(g.Forms))
	for i, f := range g.Forms {
		forms[i] = db.Form{Form: f.Form, Count: f.Count}
	}
	if err := db.UpsertDocumentLemma(ctx, tx, db.DocumentLemma{
		DocumentID: docID,
		LemmaID:    id,
		Display:    g.Display,
		Frequency:  g.Frequency,
		Forms:      forms,
	}); err != nil {
		return 0, false, err
	}

	for _, s := range g.Samples {
		var snippet string
		if s.Chapter >= 0 && s.Chapter < len(chapters) {
			snippet = extract.Snippet(chapters[s.Chapter], s.Offset, len(s.Surface), p.SnippetRadius)
		}
		if _, err := db.InsertOccurrence(ctx, tx, db.Occurrence{
			DocumentID: docID,
			LemmaID:    id,
			Position:   s.Position,
			Chapter:    s.Chapter,
			Surface:    s.Surface,
			Context:    snippet,
		}, p.OccurrenceCap); err != nil {
			return 0, false, err
		}
	}
	return id, inserted, nil
}

func (p *Pipeline) enrichNew(ctx context.Context, fresh []int64, target string, log *slog.Logger) {
	n := min(p.EnrichInline, len(fresh))
	lemmas := make([]db.Lemma, 0, n)
	for _, id := range fresh[:n] {
		l, err := db.GetLemma(ctx, p.DB, id)
		if err != nil {
			log.Warn("load lemma for enrichment", slog.Int64("lemma_id", id), slog.String("error", err.Error()))
			continue
		}
		lemmas = append(lemmas, *l)
	}
	changed, err := p.Enricher.EnrichBatch(ctx, lemmas, target, len(lemmas))
	if err != nil {
		log.Warn("inline enrichment interrupted", slog.String("error", err.Error()))
		return
	}
	log.Info("inline enrichment done", slog.Int("lemmas", len(lemmas)), slog.Int("changed", changed))
}
