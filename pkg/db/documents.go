package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
)

const documentColumns = `id, title, author, origin, language, target_language, status, total_words,
	unique_lemmas, total_lemmas, processed_lemmas, error, created_at, updated_at, completed_at`

func scanDocument(row rowScanner) (*Document, error) {
	var (
		d                Document
		status           string
		created, updated string
		completed        sql.NullString
	)
	err := row.Scan(&d.ID, &d.Title, &d.Author, &d.Origin, &d.Language, &d.TargetLanguage, &status,
		&d.TotalWords, &d.UniqueLemmas, &d.TotalLemmas, &d.ProcessedLemmas, &d.Error,
		&created, &updated, &completed)
	if err != nil {
		return nil, err
	}
	d.Status = DocumentStatus(status)
	d.CreatedAt = parseTime(created)
	d.UpdatedAt = parseTime(updated)
	if completed.Valid {
		t := parseTime(completed.String)
		d.CompletedAt = &t
	}
	return &d, nil
}

// CreateDocument stores a new pending document and returns its id. A ULID
// is assigned when d.ID is empty.
func CreateDocument(ctx context.Context, db DBExecutor, d Document) (string, error) {
	if strings.TrimSpace(d.Language) == "" {
		return "", fmt.Errorf("language must be non-empty")
	}
	if d.ID == "" {
		d.ID = ulid.Make().String()
	}
	if d.TargetLanguage == "" {
		d.TargetLanguage = "en"
	}
	ts := now()
	_, err := db.ExecContext(ctx,
		`INSERT INTO documents (id, title, author, origin, language, target_language, content, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Title, d.Author, d.Origin, d.Language, d.TargetLanguage, d.Content, string(DocumentPending), ts, ts,
	)
	if err != nil {
		return "", fmt.Errorf("insert document: %w", err)
	}
	return d.ID, nil
}

// GetDocument returns the document metadata without its content.
func GetDocument(ctx context.Context, db DBExecutor, id string) (*Document, error) {
	row := db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}
	return d, nil
}

// DocumentContent returns the stored text of a document.
func DocumentContent(ctx context.Context, db DBExecutor, id string) (string, error) {
	var content string
	err := db.QueryRowContext(ctx, `SELECT content FROM documents WHERE id = ?`, id).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return content, err
}

// ListDocuments returns all documents, newest first.
func ListDocuments(ctx context.Context, db DBExecutor) ([]Document, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+documentColumns+` FROM documents ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// DocumentsByStatus returns the ids of documents in the given state, oldest first.
func DocumentsByStatus(ctx context.Context, db DBExecutor, status DocumentStatus) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT id FROM documents WHERE status = ? ORDER BY created_at, id`, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SetDocumentStatus moves a document to status. errMsg is stored for
// failed documents and cleared otherwise.
func SetDocumentStatus(ctx context.Context, db DBExecutor, id string, status DocumentStatus, errMsg string) error {
	if status != DocumentFailed {
		errMsg = ""
	}
	var completed any
	ts := now()
	if status == DocumentCompleted {
		completed = ts
	}
	res, err := db.ExecContext(ctx,
		`UPDATE documents SET status = ?, error = ?, completed_at = ?, updated_at = ? WHERE id = ?`,
		string(status), errMsg, completed, ts, id,
	)
	if err != nil {
		return fmt.Errorf("set document status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetDocumentTotals records the word and lemma counts computed for a document
// and resets the processed counter.
func SetDocumentTotals(ctx context.Context, db DBExecutor, id string, totalWords, uniqueLemmas int) error {
	_, err := db.ExecContext(ctx,
		`UPDATE documents SET total_words = ?, unique_lemmas = ?, total_lemmas = ?, processed_lemmas = 0, updated_at = ?
		 WHERE id = ?`,
		totalWords, uniqueLemmas, uniqueLemmas, now(), id,
	)
	if err != nil {
		return fmt.Errorf("set document totals: %w", err)
	}
	return nil
}

// UpdateDocumentProgress increments the processed lemma counter by delta,
// never past the total.
func UpdateDocumentProgress(ctx context.Context, db DBExecutor, id string, delta int) error {
	_, err := db.ExecContext(ctx,
		`UPDATE documents SET processed_lemmas = MIN(total_lemmas, processed_lemmas + ?), updated_at = ? WHERE id = ?`,
		delta, now(), id,
	)
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return nil
}

// ResetDocumentVocabulary removes the occurrences and lemma links of a
// document so it can be processed again. Shared lemma rows are kept.
func ResetDocumentVocabulary(ctx context.Context, db DBExecutor, id string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM occurrences WHERE document_id = ?`, id); err != nil {
		return fmt.Errorf("reset occurrences: %w", err)
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM document_lemmas WHERE document_id = ?`, id); err != nil {
		return fmt.Errorf("reset document lemmas: %w", err)
	}
	_, err := db.ExecContext(ctx,
		`UPDATE documents SET total_words = 0, unique_lemmas = 0, total_lemmas = 0, processed_lemmas = 0, updated_at = ? WHERE id = ?`,
		now(), id)
	return err
}
