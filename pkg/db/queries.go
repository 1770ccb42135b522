package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
)

// SortOrder selects the ordering of a vocabulary list.
type SortOrder string

const (
	SortFrequency SortOrder = "frequency"
	SortAlpha     SortOrder = "alpha"
	SortRandom    SortOrder = "random"
)

// ListFilter selects and pages the lemmas of a document.
type ListFilter struct {
	DocumentID string
	// Status filters by learning status; empty means all.
	Status LearningStatus
	Sort   SortOrder
	// Seed makes SortRandom stable across pages.
	Seed   int64
	Limit  int
	Offset int
}

func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)
}

func applyStatus(q squirrel.SelectBuilder, status LearningStatus) squirrel.SelectBuilder {
	switch status {
	case "":
		return q
	case StatusNew:
		return q.Where(squirrel.Or{
			squirrel.Eq{"ls.status": nil},
			squirrel.Eq{"ls.status": string(StatusNew)},
		})
	default:
		return q.Where(squirrel.Eq{"ls.status": string(status)})
	}
}

// ListDocumentLemmas returns one page of a document's vocabulary and the
// total number of rows matching the filter.
func ListDocumentLemmas(ctx context.Context, db DBExecutor, f ListFilter) ([]VocabEntry, int, error) {
	base := builder().
		Select().
		From("document_lemmas dl").
		Join("lemmas l ON l.id = dl.lemma_id").
		LeftJoin("lemma_status ls ON ls.lemma_id = l.id").
		Where(squirrel.Eq{"dl.document_id": f.DocumentID})
	base = applyStatus(base, f.Status)

	countSQL, countArgs, err := base.Columns("COUNT(*)").ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count lemmas: %w", err)
	}

	q := base.Columns(
		"l.id", "l.lemma", "l.language", "l.pos", "l.translation", "l.definition", "l.grammar",
		"l.frequency", "l.difficulty", "l.source", "l.created_at", "l.updated_at",
		"dl.display", "dl.frequency", "dl.forms", "COALESCE(ls.status, 'new')",
	)
	switch f.Sort {
	case SortAlpha:
		q = q.OrderBy("l.lemma ASC", "l.id ASC")
	case SortRandom:
		q = q.OrderByClause("((l.id + ?) * 1103515245) % 2147483647, l.id", f.Seed)
	default:
		q = q.OrderBy("dl.frequency DESC", "l.lemma ASC")
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list lemmas: %w", err)
	}
	defer rows.Close()

	var out []VocabEntry
	for rows.Next() {
		var (
			v                VocabEntry
			created, updated string
			forms, status    string
		)
		err := rows.Scan(&v.ID, &v.Lemma.Lemma, &v.Language, &v.POS, &v.Translation, &v.Definition, &v.Grammar,
			&v.Frequency, &v.Difficulty, &v.Source, &created, &updated,
			&v.Display, &v.DocFrequency, &forms, &status)
		if err != nil {
			return nil, 0, err
		}
		v.CreatedAt = parseTime(created)
		v.UpdatedAt = parseTime(updated)
		v.Status = LearningStatus(status)
		if err := json.Unmarshal([]byte(forms), &v.Forms); err != nil {
			return nil, 0, fmt.Errorf("decode forms of %q: %w", v.Lemma.Lemma, err)
		}
		out = append(out, v)
	}
	return out, total, rows.Err()
}

// GetDocumentLemma returns the link between a document and a lemma.
func GetDocumentLemma(ctx context.Context, db DBExecutor, docID string, lemmaID int64) (*DocumentLemma, error) {
	query, args, err := builder().
		Select("document_id", "lemma_id", "display", "frequency", "forms").
		From("document_lemmas").
		Where(squirrel.Eq{"document_id": docID, "lemma_id": lemmaID}).
		ToSql()
	if err != nil {
		return nil, err
	}
	var (
		dl    DocumentLemma
		forms string
	)
	err = db.QueryRowContext(ctx, query, args...).Scan(&dl.DocumentID, &dl.LemmaID, &dl.Display, &dl.Frequency, &forms)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(forms), &dl.Forms); err != nil {
		return nil, err
	}
	return &dl, nil
}

// LemmaDocuments returns every document link of a lemma, most frequent
// first.
func LemmaDocuments(ctx context.Context, db DBExecutor, lemmaID int64) ([]DocumentLemma, error) {
	query, args, err := builder().
		Select("document_id", "lemma_id", "display", "frequency", "forms").
		From("document_lemmas").
		Where(squirrel.Eq{"lemma_id": lemmaID}).
		OrderBy("frequency DESC", "document_id").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("lemma documents: %w", err)
	}
	defer rows.Close()
	var out []DocumentLemma
	for rows.Next() {
		var (
			dl    DocumentLemma
			forms string
		)
		if err := rows.Scan(&dl.DocumentID, &dl.LemmaID, &dl.Display, &dl.Frequency, &forms); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(forms), &dl.Forms); err != nil {
			return nil, fmt.Errorf("decode forms: %w", err)
		}
		out = append(out, dl)
	}
	return out, rows.Err()
}

// Occurrences returns up to limit occurrences of a lemma in document order.
// An empty docID spans all documents.
func Occurrences(ctx context.Context, db DBExecutor, lemmaID int64, docID string, limit int) ([]Occurrence, error) {
	q := builder().
		Select("id", "document_id", "lemma_id", "position", "chapter", "surface", "context").
		From("occurrences").
		Where(squirrel.Eq{"lemma_id": lemmaID}).
		OrderBy("document_id", "position")
	if docID != "" {
		q = q.Where(squirrel.Eq{"document_id": docID})
	}
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list occurrences: %w", err)
	}
	defer rows.Close()
	var out []Occurrence
	for rows.Next() {
		var o Occurrence
		if err := rows.Scan(&o.ID, &o.DocumentID, &o.LemmaID, &o.Position, &o.Chapter, &o.Surface, &o.Context); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// CountOccurrences returns how many occurrences of a lemma a document stores.
func CountOccurrences(ctx context.Context, db DBExecutor, docID string, lemmaID int64) (int, error) {
	query, args, err := builder().
		Select("COUNT(*)").
		From("occurrences").
		Where(squirrel.Eq{"document_id": docID, "lemma_id": lemmaID}).
		ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	err = db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

// LemmasNeedingEnrichment returns lemmas without a definition, most frequent
// first. With a docID only that document's lemmas are considered.
func LemmasNeedingEnrichment(ctx context.Context, db DBExecutor, docID string, limit int) ([]Lemma, error) {
	q := builder().
		Select("l.id", "l.lemma", "l.language", "l.pos", "l.translation", "l.definition", "l.grammar",
			"l.frequency", "l.difficulty", "l.source", "l.created_at", "l.updated_at").
		From("lemmas l").
		Where(squirrel.Eq{"l.definition": ""})
	if docID != "" {
		q = q.Join("document_lemmas dl ON dl.lemma_id = l.id").
			Where(squirrel.Eq{"dl.document_id": docID}).
			OrderBy("dl.frequency DESC", "l.id")
	} else {
		q = q.OrderBy("l.frequency DESC", "l.id")
	}
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("lemmas needing enrichment: %w", err)
	}
	defer rows.Close()
	var out []Lemma
	for rows.Next() {
		l, err := scanLemma(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}
