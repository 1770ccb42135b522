package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// isUniqueConstraintErr returns true when the error indicates a unique/constraint violation
func isUniqueConstraintErr(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "unique") || strings.Contains(s, "constraint failed")
}

const lemmaColumns = `id, lemma, language, pos, translation, definition, grammar, frequency, difficulty, source, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLemma(row rowScanner) (*Lemma, error) {
	var (
		l                Lemma
		created, updated string
	)
	err := row.Scan(&l.ID, &l.Lemma, &l.Language, &l.POS, &l.Translation, &l.Definition,
		&l.Grammar, &l.Frequency, &l.Difficulty, &l.Source, &created, &updated)
	if err != nil {
		return nil, err
	}
	l.CreatedAt = parseTime(created)
	l.UpdatedAt = parseTime(updated)
	return &l, nil
}

// LemmaByText returns the lemma row for (lemma, language).
func LemmaByText(ctx context.Context, db DBExecutor, lemma, language string) (*Lemma, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+lemmaColumns+` FROM lemmas WHERE lemma = ? AND language = ?`,
		strings.TrimSpace(lemma), language)
	l, err := scanLemma(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get lemma %q: %w", lemma, err)
	}
	return l, nil
}

// GetLemma returns the lemma row with the given id.
func GetLemma(ctx context.Context, db DBExecutor, id int64) (*Lemma, error) {
	row := db.QueryRowContext(ctx, `SELECT `+lemmaColumns+` FROM lemmas WHERE id = ?`, id)
	l, err := scanLemma(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get lemma %d: %w", id, err)
	}
	return l, nil
}

// UpsertLemma inserts a lemma or merges in into the existing row for
// (lemma, language). Non-empty fields only fill empty slots, grammar keys
// are added without overwriting and frequency keeps the larger value.
// It returns the row id and whether a new row was created.
func UpsertLemma(ctx context.Context, db DBExecutor, in LemmaInput) (int64, bool, error) {
	lemma := strings.TrimSpace(in.Lemma)
	if lemma == "" {
		return 0, false, fmt.Errorf("lemma must be non-empty")
	}
	if in.Language == "" {
		return 0, false, fmt.Errorf("language must be non-empty")
	}

	const maxRetries = 3

	for attempt := 0; attempt < maxRetries; attempt++ {
		cur, err := LemmaByText(ctx, db, lemma, in.Language)
		if err == nil {
			return cur.ID, false, mergeLemma(ctx, db, cur, in)
		}
		if !errors.Is(err, ErrNotFound) {
			return 0, false, err
		}

		ts := now()
		res, err := db.ExecContext(ctx,
			`INSERT INTO lemmas (lemma, language, pos, translation, definition, grammar, frequency, difficulty, source, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			lemma, in.Language, in.POS, in.Translation, in.Definition, Grammar{}.Merge(in.Grammar),
			in.Frequency, in.Difficulty, in.Source, ts, ts,
		)
		if err != nil {
			// Another writer inserted the same lemma; merge into its row.
			if isUniqueConstraintErr(err) {
				continue
			}
			return 0, false, fmt.Errorf("insert lemma: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, false, fmt.Errorf("get last insert id: %w", err)
		}
		return id, true, nil
	}
	return 0, false, fmt.Errorf("failed to upsert lemma %q after %d attempts", lemma, maxRetries)
}

func mergeLemma(ctx context.Context, db DBExecutor, cur *Lemma, in LemmaInput) error {
	next := *cur
	next.POS = fill(cur.POS, in.POS)
	next.Translation = fill(cur.Translation, in.Translation)
	next.Definition = fill(cur.Definition, in.Definition)
	next.Source = fill(cur.Source, in.Source)
	next.Grammar = cur.Grammar.Merge(in.Grammar)
	next.Frequency = max(cur.Frequency, in.Frequency)
	if next.Difficulty == 0 {
		next.Difficulty = in.Difficulty
	}
	if next.POS == cur.POS && next.Translation == cur.Translation && next.Definition == cur.Definition &&
		next.Source == cur.Source && next.Grammar.Equal(cur.Grammar) &&
		next.Frequency == cur.Frequency && next.Difficulty == cur.Difficulty {
		return nil
	}
	_, err := db.ExecContext(ctx,
		`UPDATE lemmas SET pos = ?, translation = ?, definition = ?, grammar = ?, frequency = ?, difficulty = ?, source = ?, updated_at = ?
		 WHERE id = ?`,
		next.POS, next.Translation, next.Definition, next.Grammar, next.Frequency, next.Difficulty, next.Source, now(), cur.ID,
	)
	if err != nil {
		return fmt.Errorf("update lemma %d: %w", cur.ID, err)
	}
	return nil
}

func fill(cur, in string) string {
	if cur != "" {
		return cur
	}
	return strings.TrimSpace(in)
}

// UpdateLemmaEnrichment fills the empty lexical fields of a lemma. It
// reports whether anything changed.
func UpdateLemmaEnrichment(ctx context.Context, db DBExecutor, id int64, e Enrichment) (bool, error) {
	cur, err := GetLemma(ctx, db, id)
	if err != nil {
		return false, err
	}
	before := *cur
	in := LemmaInput{
		POS:         e.POS,
		Translation: e.Translation,
		Definition:  e.Definition,
		Grammar:     e.Grammar,
		Source:      e.Source,
		Frequency:   cur.Frequency,
	}
	if err := mergeLemma(ctx, db, cur, in); err != nil {
		return false, err
	}
	after, err := GetLemma(ctx, db, id)
	if err != nil {
		return false, err
	}
	changed := after.POS != before.POS || after.Translation != before.Translation ||
		after.Definition != before.Definition || !after.Grammar.Equal(before.Grammar)
	return changed, nil
}

// InsertOccurrence stores an occurrence unless the document already holds
// limit occurrences of the lemma or the position is already recorded.
// limit <= 0 disables the cap. It reports whether a row was written.
func InsertOccurrence(ctx context.Context, db DBExecutor, o Occurrence, limit int) (bool, error) {
	if limit <= 0 {
		limit = int(^uint32(0) >> 1)
	}
	res, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO occurrences (document_id, lemma_id, position, chapter, surface, context)
		 SELECT ?, ?, ?, ?, ?, ?
		 WHERE (SELECT COUNT(*) FROM occurrences WHERE document_id = ? AND lemma_id = ?) < ?`,
		o.DocumentID, o.LemmaID, o.Position, o.Chapter, o.Surface, o.Context,
		o.DocumentID, o.LemmaID, limit,
	)
	if err != nil {
		return false, fmt.Errorf("insert occurrence: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpsertDocumentLemma records the lemma's per-document frequency, display
// form and form breakdown.
func UpsertDocumentLemma(ctx context.Context, db DBExecutor, dl DocumentLemma) error {
	forms := dl.Forms
	if forms == nil {
		forms = []Form{}
	}
	b, err := json.Marshal(forms)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO document_lemmas (document_id, lemma_id, display, frequency, forms)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(document_id, lemma_id) DO UPDATE SET
		   display = excluded.display,
		   frequency = excluded.frequency,
		   forms = excluded.forms`,
		dl.DocumentID, dl.LemmaID, dl.Display, dl.Frequency, string(b),
	)
	if err != nil {
		return fmt.Errorf("upsert document lemma: %w", err)
	}
	return nil
}

// SetLemmaStatus records the learning status of a lemma.
func SetLemmaStatus(ctx context.Context, db DBExecutor, lemmaID int64, status LearningStatus) error {
	if _, err := ParseLearningStatus(string(status)); err != nil {
		return err
	}
	if _, err := GetLemma(ctx, db, lemmaID); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO lemma_status (lemma_id, status, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(lemma_id) DO UPDATE SET status = excluded.status, updated_at = excluded.updated_at`,
		lemmaID, string(status), now(),
	)
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	return nil
}

// GetLemmaStatus returns the learning status of a lemma, "new" if unset.
func GetLemmaStatus(ctx context.Context, db DBExecutor, lemmaID int64) (LearningStatus, error) {
	var s string
	err := db.QueryRowContext(ctx, `SELECT status FROM lemma_status WHERE lemma_id = ?`, lemmaID).Scan(&s)
	if errors.Is(err, sql.ErrNoRows) {
		return StatusNew, nil
	}
	if err != nil {
		return "", err
	}
	return LearningStatus(s), nil
}
