// Package vocab is the read side of the index: paged vocabulary lists,
// lemma details, document progress and learning status updates.
package vocab

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/japaniel/lexindex/pkg/db"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
	// DefaultInline is how many lemmas of a page are enriched before the
	// page is returned.
	DefaultInline = 10
	// DefaultOccurrences bounds the occurrences returned by LemmaDetail.
	DefaultOccurrences = 20
	// MaxBulkStatus bounds one SetStatuses call.
	MaxBulkStatus = 500
)

var (
	ErrInvalidStatus = db.ErrInvalidStatus
	ErrInvalidSort   = errors.New("invalid sort order")
	ErrNotFound      = db.ErrNotFound
	ErrTooMany       = fmt.Errorf("too many status updates (max %d)", MaxBulkStatus)
)

// Enricher fills lemmas that have no definition yet. An empty target
// means the enricher's default language.
type Enricher interface {
	EnrichBatch(ctx context.Context, lemmas []db.Lemma, target string, inline int) (int, error)
}

// Filter selects one page of a document's vocabulary.
type Filter struct {
	// Status is a learning status or alias; empty lists every lemma.
	Status string
	// Sort is frequency (default), alpha or random.
	Sort string
	// Seed keeps random order stable across pages.
	Seed   int64
	Limit  int
	Offset int
}

// Page is one page of a vocabulary list.
type Page struct {
	DocumentID string
	Items      []db.VocabEntry
	Total      int
	Limit      int
	Offset     int
	Sort       db.SortOrder
	Status     db.LearningStatus
}

// Usage is how a lemma appears in one document.
type Usage struct {
	DocumentID string
	Display    string
	Frequency  int
	Forms      []db.Form
}

// Detail is everything known about a lemma.
type Detail struct {
	Lemma       db.Lemma
	Status      db.LearningStatus
	Documents   []Usage
	Occurrences []db.Occurrence
}

// Progress is the processing state of a document.
type Progress struct {
	ID              string
	Title           string
	Language        string
	Status          db.DocumentStatus
	Percent         float64
	TotalWords      int
	UniqueLemmas    int
	ProcessedLemmas int
	Error           string
	UpdatedAt       time.Time
	CompletedAt     *time.Time
}

// Service answers vocabulary queries.
type Service struct {
	conn     *sql.DB
	enricher Enricher
	log      *slog.Logger

	// Inline is how many unenriched lemmas of a list are enriched before
	// returning; the rest go to the enricher's background queue.
	Inline int
	// Occurrences bounds the samples of LemmaDetail.
	Occurrences int
}

// New returns a Service. enricher may be nil to disable enrichment on read.
func New(conn *sql.DB, enricher Enricher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		conn:        conn,
		enricher:    enricher,
		log:         logger.With("component", "vocab"),
		Inline:      DefaultInline,
		Occurrences: DefaultOccurrences,
	}
}

// ParseSort maps a sort name to its order. Empty means frequency.
func ParseSort(s string) (db.SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "frequency", "freq":
		return db.SortFrequency, nil
	case "alpha", "alphabetical":
		return db.SortAlpha, nil
	case "random":
		return db.SortRandom, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSort, s)
}

func clampLimit(n int) int {
	switch {
	case n <= 0:
		return DefaultLimit
	case n > MaxLimit:
		return MaxLimit
	}
	return n
}

// ListLemmas returns one page of a document's lemmas. Lemmas still missing
// a definition are enriched on the way out. Partial results are returned
// while the document is processing.
func (s *Service) ListLemmas(ctx context.Context, docID string, f Filter) (*Page, error) {
	doc, err := db.GetDocument(ctx, s.conn, docID)
	if err != nil {
		return nil, err
	}
	sort, err := ParseSort(f.Sort)
	if err != nil {
		return nil, err
	}
	var status db.LearningStatus
	if strings.TrimSpace(f.Status) != "" {
		if status, err = db.ParseLearningStatus(f.Status); err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, f.Status)
		}
	}
	page := &Page{
		DocumentID: docID,
		Limit:      clampLimit(f.Limit),
		Offset:     max(f.Offset, 0),
		Sort:       sort,
		Status:     status,
	}

	items, total, err := db.ListDocumentLemmas(ctx, s.conn, db.ListFilter{
		DocumentID: docID,
		Status:     status,
		Sort:       sort,
		Seed:       f.Seed,
		Limit:      page.Limit,
		Offset:     page.Offset,
	})
	if err != nil {
		return nil, err
	}
	page.Items, page.Total = items, total
	s.enrichPage(ctx, page.Items, doc.TargetLanguage)
	return page, nil
}

// enrichPage enriches the unenriched lemmas of items and refreshes the ones
// enriched inline.
func (s *Service) enrichPage(ctx context.Context, items []db.VocabEntry, target string) {
	if s.enricher == nil {
		return
	}
	var missing []db.Lemma
	index := make(map[int64]int)
	for i, it := range items {
		if it.Definition == "" {
			missing = append(missing, it.Lemma)
			index[it.ID] = i
		}
	}
	if len(missing) == 0 {
		return
	}
	inline := min(s.Inline, len(missing))
	n, err := s.enricher.EnrichBatch(ctx, missing, target, inline)
	if err != nil {
		s.log.WarnContext(ctx, "enrichment on read interrupted", slog.String("error", err.Error()))
	}
	if n == 0 {
		return
	}
	for _, l := range missing[:inline] {
		fresh, err := db.GetLemma(ctx, s.conn, l.ID)
		if err != nil {
			s.log.WarnContext(ctx, "reload enriched lemma", slog.Int64("lemma_id", l.ID), slog.String("error", err.Error()))
			continue
		}
		items[index[l.ID]].Lemma = *fresh
	}
}

// LemmaDetail returns a lemma with its learning status, per-document forms
// and sampled occurrences. An unenriched lemma is enriched first.
func (s *Service) LemmaDetail(ctx context.Context, id int64) (*Detail, error) {
	l, err := db.GetLemma(ctx, s.conn, id)
	if err != nil {
		return nil, err
	}
	links, err := db.LemmaDocuments(ctx, s.conn, id)
	if err != nil {
		return nil, err
	}
	if l.Definition == "" && s.enricher != nil {
		n, err := s.enricher.EnrichBatch(ctx, []db.Lemma{*l}, s.detailTarget(ctx, links), 1)
		if err != nil {
			s.log.WarnContext(ctx, "enrichment on read interrupted", slog.String("error", err.Error()))
		}
		if n > 0 {
			if l, err = db.GetLemma(ctx, s.conn, id); err != nil {
				return nil, err
			}
		}
	}

	status, err := db.GetLemmaStatus(ctx, s.conn, id)
	if err != nil {
		return nil, err
	}
	occ, err := db.Occurrences(ctx, s.conn, id, "", s.Occurrences)
	if err != nil {
		return nil, err
	}

	d := &Detail{Lemma: *l, Status: status, Occurrences: occ}
	for _, dl := range links {
		d.Documents = append(d.Documents, Usage{
			DocumentID: dl.DocumentID,
			Display:    dl.Display,
			Frequency:  dl.Frequency,
			Forms:      dl.Forms,
		})
	}
	return d, nil
}

// detailTarget is the translation language of the lemma's most frequent
// document, or "" when it has none.
func (s *Service) detailTarget(ctx context.Context, links []db.DocumentLemma) string {
	if len(links) == 0 {
		return ""
	}
	doc, err := db.GetDocument(ctx, s.conn, links[0].DocumentID)
	if err != nil {
		return ""
	}
	return doc.TargetLanguage
}

// DocumentStatus returns the processing state and progress of a document.
func (s *Service) DocumentStatus(ctx context.Context, docID string) (*Progress, error) {
	d, err := db.GetDocument(ctx, s.conn, docID)
	if err != nil {
		return nil, err
	}
	return progressOf(*d), nil
}

// Documents returns the progress of every document, newest first.
func (s *Service) Documents(ctx context.Context) ([]Progress, error) {
	docs, err := db.ListDocuments(ctx, s.conn)
	if err != nil {
		return nil, err
	}
	out := make([]Progress, len(docs))
	for i, d := range docs {
		out[i] = *progressOf(d)
	}
	return out, nil
}

func progressOf(d db.Document) *Progress {
	return &Progress{
		ID:              d.ID,
		Title:           d.Title,
		Language:        d.Language,
		Status:          d.Status,
		Percent:         d.Progress(),
		TotalWords:      d.TotalWords,
		UniqueLemmas:    d.UniqueLemmas,
		ProcessedLemmas: d.ProcessedLemmas,
		Error:           d.Error,
		UpdatedAt:       d.UpdatedAt,
		CompletedAt:     d.CompletedAt,
	}
}

// SetStatus records the learning status of a lemma. Aliases such as
// "learned" and "unknown" are accepted.
func (s *Service) SetStatus(ctx context.Context, lemmaID int64, status string) (db.LearningStatus, error) {
	st, err := db.ParseLearningStatus(status)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if err := db.SetLemmaStatus(ctx, s.conn, lemmaID, st); err != nil {
		return "", err
	}
	return st, nil
}

// SetStatuses applies several status updates in one transaction. Unknown
// lemmas are skipped; it returns how many were written.
func (s *Service) SetStatuses(ctx context.Context, updates map[int64]string) (int, error) {
	if len(updates) > MaxBulkStatus {
		return 0, ErrTooMany
	}
	parsed := make(map[int64]db.LearningStatus, len(updates))
	for id, raw := range updates {
		st, err := db.ParseLearningStatus(raw)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
		}
		parsed[id] = st
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	n := 0
	for id, st := range parsed {
		err := db.SetLemmaStatus(ctx, tx, id, st)
		if errors.Is(err, db.ErrNotFound) {
			continue
		}
		if err != nil {
			return 0, err
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}
