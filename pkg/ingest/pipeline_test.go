package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/lexindex/pkg/db"
	"github.com/japaniel/lexindex/pkg/language"
)

func setupPipelineDB(t testing.TB) *sql.DB {
	t.Helper()
	conn, err := sql.Open(db.DriverMattn, db.DSN(db.DriverMattn, ":memory:"))
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	require.NoError(t, db.InitDB(conn))
	t.Cleanup(func() { conn.Close() })
	return conn
}

func createDoc(t testing.TB, conn *sql.DB, lang, content string) string {
	t.Helper()
	id, err := db.CreateDocument(context.Background(), conn, db.Document{Title: "test", Language: lang, Content: content})
	require.NoError(t, err)
	return id
}

func vocabulary(t *testing.T, conn *sql.DB, docID string) map[string]int {
	t.Helper()
	entries, _, err := db.ListDocumentLemmas(context.Background(), conn, db.ListFilter{DocumentID: docID})
	require.NoError(t, err)
	out := make(map[string]int, len(entries))
	for _, e := range entries {
		out[e.Lemma.Lemma] = e.DocFrequency
	}
	return out
}

func TestPipelineGroupsPlurals(t *testing.T) {
	conn := setupPipelineDB(t)
	ctx := context.Background()
	docID := createDoc(t, conn, "en", "the cat sat. The cats sat again.")

	p := NewPipeline(conn, language.NewRegistry(map[string]bool{"en": true}), nil)
	require.NoError(t, p.Run(ctx, docID))

	assert.Equal(t, map[string]int{"the": 2, "cat": 2, "sat": 2, "again": 1}, vocabulary(t, conn, docID))

	l, err := db.LemmaByText(ctx, conn, "cat", "en")
	require.NoError(t, err)
	dl, err := db.GetDocumentLemma(ctx, conn, docID, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "cat", dl.Display)
	assert.ElementsMatch(t, []db.Form{{Form: "cat", Count: 1}, {Form: "cats", Count: 1}}, dl.Forms)

	occ, err := db.Occurrences(ctx, conn, l.ID, docID, 0)
	require.NoError(t, err)
	require.Len(t, occ, 2)
	assert.Equal(t, 1, occ[0].Position)
	assert.Equal(t, "cats", occ[1].Surface)
	assert.Contains(t, occ[1].Context, "cats")

	doc, err := db.GetDocument(ctx, conn, docID)
	require.NoError(t, err)
	assert.Equal(t, db.DocumentCompleted, doc.Status)
	assert.Equal(t, 7, doc.TotalWords)
	assert.Equal(t, 4, doc.UniqueLemmas)
	assert.Equal(t, 4, doc.ProcessedLemmas)
	assert.NotNil(t, doc.CompletedAt)
	assert.Equal(t, float64(100), doc.Progress())
}

func TestPipelineWithoutPlurals(t *testing.T) {
	conn := setupPipelineDB(t)
	docID := createDoc(t, conn, "en", "the cat sat. The cats sat again.")

	p := NewPipeline(conn, language.NewRegistry(map[string]bool{}), nil)
	require.NoError(t, p.Run(context.Background(), docID))

	assert.Equal(t, map[string]int{"the": 2, "cat": 1, "cats": 1, "sat": 2, "again": 1}, vocabulary(t, conn, docID))
}

func TestPipelineDeterministic(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= 12; i++ {
		fmt.Fprintf(&b, "Chapter %d\nThe cats walked home and the dog watched them. Anna saw %d birds.\n\n", i, i)
	}
	text := b.String()

	run := func() map[string]int {
		conn := setupPipelineDB(t)
		docID := createDoc(t, conn, "en", text)
		p := NewPipeline(conn, nil, nil)
		p.Workers = 4
		p.BatchSize = 3
		require.NoError(t, p.Run(context.Background(), docID))
		return vocabulary(t, conn, docID)
	}

	first := run()
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, run())
	}
	assert.Equal(t, 12, first["anna"]+first["Anna"])
}

func TestPipelineRerunIsIdempotent(t *testing.T) {
	conn := setupPipelineDB(t)
	ctx := context.Background()
	docID := createDoc(t, conn, "en", "the cat sat. The cats sat again.")

	p := NewPipeline(conn, nil, nil)
	require.NoError(t, p.Run(ctx, docID))
	want := vocabulary(t, conn, docID)
	require.NoError(t, p.Run(ctx, docID))
	assert.Equal(t, want, vocabulary(t, conn, docID))

	l, err := db.LemmaByText(ctx, conn, "cat", "en")
	require.NoError(t, err)
	assert.Equal(t, 2, l.Frequency)
	n, err := db.CountOccurrences(ctx, conn, docID, l.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var lemmas int
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM lemmas`).Scan(&lemmas))
	assert.Equal(t, 4, lemmas)
}

func TestPipelineSharesLemmasAcrossDocuments(t *testing.T) {
	conn := setupPipelineDB(t)
	ctx := context.Background()
	first := createDoc(t, conn, "en", "the cat sat")
	second := createDoc(t, conn, "en", "a cat ran")

	p := NewPipeline(conn, nil, nil)
	require.NoError(t, p.Run(ctx, first))
	require.NoError(t, p.Run(ctx, second))

	l, err := db.LemmaByText(ctx, conn, "cat", "en")
	require.NoError(t, err)
	occ, err := db.Occurrences(ctx, conn, l.ID, "", 0)
	require.NoError(t, err)
	require.Len(t, occ, 2)
	assert.ElementsMatch(t, []string{first, second}, []string{occ[0].DocumentID, occ[1].DocumentID})
}

func TestPipelineOccurrenceCap(t *testing.T) {
	conn := setupPipelineDB(t)
	ctx := context.Background()
	docID := createDoc(t, conn, "en", strings.Repeat("cat ", 500))

	p := NewPipeline(conn, nil, nil)
	p.SampleCap = 100
	p.OccurrenceCap = 20
	require.NoError(t, p.Run(ctx, docID))

	l, err := db.LemmaByText(ctx, conn, "cat", "en")
	require.NoError(t, err)
	assert.Equal(t, 500, l.Frequency)
	n, err := db.CountOccurrences(ctx, conn, docID, l.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, n)
	assert.Equal(t, map[string]int{"cat": 500}, vocabulary(t, conn, docID))
}

func TestPipelineEmptyDocument(t *testing.T) {
	conn := setupPipelineDB(t)
	ctx := context.Background()
	docID := createDoc(t, conn, "en", "... 42 !!")

	require.NoError(t, NewPipeline(conn, nil, nil).Run(ctx, docID))

	doc, err := db.GetDocument(ctx, conn, docID)
	require.NoError(t, err)
	assert.Equal(t, db.DocumentCompleted, doc.Status)
	assert.Zero(t, doc.UniqueLemmas)
	assert.Empty(t, vocabulary(t, conn, docID))
}

func TestPipelineMissingDocument(t *testing.T) {
	conn := setupPipelineDB(t)
	err := NewPipeline(conn, nil, nil).Run(context.Background(), "01HZZZZZZZZZZZZZZZZZZZZZZZ")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

type failingPool struct{}

func (failingPool) Start(context.Context)                {}
func (failingPool) Submit(Job) error                     { return errors.New("boom") }
func (failingPool) SubmitCtx(context.Context, Job) error { return errors.New("boom") }
func (failingPool) Close()                               {}

func TestPipelineSubmitErrorMarksFailed(t *testing.T) {
	conn := setupPipelineDB(t)
	ctx := context.Background()
	docID := createDoc(t, conn, "en", "the cat sat")

	p := NewPipeline(conn, nil, nil)
	p.PoolFactory = func(workers, queue int) WorkerPoolInterface { return failingPool{} }
	err := p.Run(ctx, docID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	doc, err := db.GetDocument(ctx, conn, docID)
	require.NoError(t, err)
	assert.Equal(t, db.DocumentFailed, doc.Status)
	assert.Contains(t, doc.Error, "boom")
	assert.Nil(t, doc.CompletedAt)
}

func TestPipelineCancelled(t *testing.T) {
	conn := setupPipelineDB(t)
	docID := createDoc(t, conn, "en", "the cat sat")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, NewPipeline(conn, nil, nil).Run(ctx, docID), context.Canceled)
}

func TestPipelineReportsProgress(t *testing.T) {
	conn := setupPipelineDB(t)
	docID := createDoc(t, conn, "en", "one two three four five six seven")

	var mu sync.Mutex
	var calls [][2]int
	p := NewPipeline(conn, nil, nil)
	p.BatchSize = 2
	p.OnProgress = func(current, total int) {
		mu.Lock()
		calls = append(calls, [2]int{current, total})
		mu.Unlock()
	}
	require.NoError(t, p.Run(context.Background(), docID))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, [][2]int{{2, 7}, {4, 7}, {6, 7}, {7, 7}}, calls)
}

type fakeEnricher struct {
	mu     sync.Mutex
	lemmas []string
	target string
	inline int
}

func (f *fakeEnricher) EnrichBatch(_ context.Context, lemmas []db.Lemma, target string, inline int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range lemmas {
		f.lemmas = append(f.lemmas, l.Lemma)
	}
	f.target = target
	f.inline = inline
	return len(lemmas), nil
}

func TestPipelineEnrichesNewLemmasInline(t *testing.T) {
	conn := setupPipelineDB(t)
	ctx := context.Background()
	docID, err := db.CreateDocument(ctx, conn, db.Document{
		Title:          "test",
		Language:       "en",
		TargetLanguage: "fr",
		Content:        "the cat sat. The cats sat again.",
	})
	require.NoError(t, err)

	fe := &fakeEnricher{}
	p := NewPipeline(conn, nil, nil)
	p.Enricher = fe
	p.EnrichInline = 2
	require.NoError(t, p.Run(ctx, docID))
	assert.Equal(t, []string{"cat", "sat"}, fe.lemmas, "most frequent first")
	assert.Equal(t, 2, fe.inline)
	assert.Equal(t, "fr", fe.target, "the document's translation language")

	// Lemmas that already exist are not enriched again.
	fe.lemmas = nil
	require.NoError(t, p.Run(ctx, docID))
	assert.Empty(t, fe.lemmas)
}

func TestPipelineSkipsFailingLemma(t *testing.T) {
	conn := setupPipelineDB(t)
	ctx := context.Background()
	_, err := conn.ExecContext(ctx, `CREATE TRIGGER reject_sat BEFORE INSERT ON lemmas
		WHEN NEW.lemma = 'sat' BEGIN SELECT RAISE(ABORT, 'rejected'); END`)
	require.NoError(t, err)
	docID := createDoc(t, conn, "en", "The cat sat. The cats sat again.")

	p := NewPipeline(conn, language.NewRegistry(map[string]bool{"en": true}), nil)
	require.NoError(t, p.Run(ctx, docID))

	doc, err := db.GetDocument(ctx, conn, docID)
	require.NoError(t, err)
	assert.Equal(t, db.DocumentCompleted, doc.Status)
	assert.Equal(t, 4, doc.TotalLemmas)
	assert.Equal(t, 4, doc.ProcessedLemmas)
	assert.Equal(t, float64(100), doc.Progress())
	assert.Equal(t, map[string]int{"the": 2, "cat": 2, "again": 1}, vocabulary(t, conn, docID))
}
