package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"

	"github.com/japaniel/lexindex/pkg/analyzer"
	"github.com/japaniel/lexindex/pkg/cache"
	"github.com/japaniel/lexindex/pkg/config"
	"github.com/japaniel/lexindex/pkg/db"
	"github.com/japaniel/lexindex/pkg/document"
	"github.com/japaniel/lexindex/pkg/enrich"
	"github.com/japaniel/lexindex/pkg/freq"
	"github.com/japaniel/lexindex/pkg/ingest"
	"github.com/japaniel/lexindex/pkg/language"
	"github.com/japaniel/lexindex/pkg/lexdata"
	"github.com/japaniel/lexindex/pkg/normalize"
	"github.com/japaniel/lexindex/pkg/vocab"
)

// resultCacheSize bounds the enrichment results kept in memory.
const resultCacheSize = 50000

// app holds the wired components of one CLI invocation.
type app struct {
	cfg  *config.Config
	conn *sql.DB
	log  *slog.Logger

	rules    *language.Registry
	analyzer analyzer.Analyzer
	oracle   freq.Oracle

	enrichPool *ingest.WorkerPool
	enricher   *enrich.Enricher
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	conn, err := db.Open(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	a := &app{
		cfg:      cfg,
		conn:     conn,
		log:      logger,
		rules:    language.NewRegistry(cfg.Languages.PluralFlags()),
		analyzer: analyzer.NewLazyJapanese(),
	}

	set, err := freq.LoadSet(cfg.Enrich.FrequencyFiles)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("load frequency lists: %w", err)
	}
	a.oracle = set
	return a, nil
}

// close waits for background enrichment and closes the database.
func (a *app) close() error {
	if a.enrichPool != nil {
		a.log.Debug("waiting for background enrichment")
		a.enrichPool.Close()
	}
	return a.conn.Close()
}

// sources builds the enrichment chain: stored results, local dictionaries,
// then the rate-limited remote services unless offline.
func (a *app) sources(ctx context.Context) []enrich.Source {
	cfg := a.cfg.Enrich
	chain := []enrich.Source{enrich.NewStoreSource(a.conn)}

	langs := make([]string, 0, len(cfg.KaikkiFiles))
	for lang := range cfg.KaikkiFiles {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	for _, lang := range langs {
		path := cfg.KaikkiFiles[lang]
		ix, stats, err := lexdata.LoadKaikkiFile(path, language.Normalize(lang))
		if err != nil {
			a.log.WarnContext(ctx, "kaikki dictionary unavailable", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		a.log.InfoContext(ctx, "kaikki dictionary loaded", slog.String("lang", lang),
			slog.Int("entries", stats.Entries), slog.Int("malformed", stats.MalformedLines))
		chain = append(chain, enrich.NewIndexSource(ix))
	}

	if cfg.JMdictPath != "" {
		if ix, err := a.loadJMdict(ctx, cfg.JMdictPath); err != nil {
			a.log.WarnContext(ctx, "jmdict unavailable", slog.String("path", cfg.JMdictPath), slog.String("error", err.Error()))
		} else {
			chain = append(chain, enrich.NewIndexSource(ix))
		}
	}

	if cfg.Offline {
		return chain
	}
	for _, s := range []enrich.Source{
		enrich.NewFreeDictionary(cfg.FreeDictionaryURL, a.log),
		enrich.NewMyMemory(cfg.MyMemoryURL, a.log),
		enrich.NewLibreTranslate(cfg.LibreTranslateURL, a.log),
	} {
		chain = append(chain, enrich.NewLimited(s, cfg.Delay, cfg.Timeout))
	}
	return chain
}

func (a *app) loadJMdict(ctx context.Context, path string) (*lexdata.Index, error) {
	if !a.cfg.Enrich.Offline {
		if err := lexdata.NewDownloader(a.log).Ensure(ctx, path); err != nil {
			return nil, err
		}
	}
	return lexdata.LoadJMdictFile(path)
}

// getEnricher builds the enricher and its background pool on first use.
func (a *app) getEnricher(ctx context.Context) (*enrich.Enricher, error) {
	if a.enricher != nil {
		return a.enricher, nil
	}
	results, err := cache.NewLRU[enrich.Result](resultCacheSize)
	if err != nil {
		return nil, err
	}
	resolver := enrich.NewResolver(a.sources(ctx),
		enrich.WithCache(results),
		enrich.WithRules(a.rules),
		enrich.WithOracle(a.oracle),
		enrich.WithLogger(a.log),
	)

	a.enrichPool = ingest.NewWorkerPool(a.cfg.Enrich.BackgroundWorkers, 64)
	a.enrichPool.OnError = func(err error) {
		a.log.Warn("background enrichment failed", slog.String("error", err.Error()))
	}
	a.enrichPool.Start(context.WithoutCancel(ctx))
	a.enricher = enrich.NewEnricher(a.conn, resolver, a.enrichPool, a.cfg.Enrich.TargetLanguage, a.log)
	return a.enricher, nil
}

func (a *app) pipeline(ctx context.Context) (*ingest.Pipeline, error) {
	lemmas, err := cache.NewLRU[normalize.Result](a.cfg.Ingest.NormalizeCache)
	if err != nil {
		return nil, err
	}
	p := ingest.NewPipeline(a.conn, a.rules, a.analyzer)
	p.Normalizer = normalize.New(a.rules, a.analyzer, lemmas)
	p.Oracle = a.oracle
	p.BatchSize = a.cfg.Ingest.BatchSize
	p.FlushInterval = a.cfg.Ingest.FlushInterval
	p.OccurrenceCap = a.cfg.Ingest.OccurrenceCap
	p.Workers = a.cfg.Ingest.ChapterWorkers
	p.Logger = a.log
	p.Split = document.SplitChapters

	if a.cfg.Enrich.Inline > 0 {
		e, err := a.getEnricher(ctx)
		if err != nil {
			return nil, err
		}
		p.Enricher = e
		p.EnrichInline = a.cfg.Enrich.Inline
	}
	return p, nil
}

func (a *app) scheduler(ctx context.Context) (*ingest.Scheduler, error) {
	p, err := a.pipeline(ctx)
	if err != nil {
		return nil, err
	}
	s := ingest.NewScheduler(a.conn, p, a.cfg.Ingest.DocumentWorkers, a.log)
	s.Start(ctx)
	return s, nil
}

func (a *app) vocab(ctx context.Context, enrichOnRead bool) (*vocab.Service, error) {
	if !enrichOnRead {
		return vocab.New(a.conn, nil, a.log), nil
	}
	e, err := a.getEnricher(ctx)
	if err != nil {
		return nil, err
	}
	s := vocab.New(a.conn, e, a.log)
	s.Inline = a.cfg.Enrich.Inline
	return s, nil
}
