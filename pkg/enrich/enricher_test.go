package enrich

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/lexindex/pkg/db"
	"github.com/japaniel/lexindex/pkg/ingest"
)

func seedLemmas(t *testing.T, ex db.DBExecutor, words ...string) []db.Lemma {
	t.Helper()
	ctx := context.Background()
	out := make([]db.Lemma, 0, len(words))
	for _, w := range words {
		id, _, err := db.UpsertLemma(ctx, ex, db.LemmaInput{Lemma: w, Language: "it"})
		require.NoError(t, err)
		l, err := db.GetLemma(ctx, ex, id)
		require.NoError(t, err)
		out = append(out, *l)
	}
	return out
}

func italianSource() *fakeSource {
	return &fakeSource{name: "kaikki-it", results: map[string]*Result{
		"casa":  {Translation: "house", Definition: "house; home", POS: "noun"},
		"gatto": {Translation: "cat", Definition: "cat", POS: "noun"},
		"cane":  {Translation: "dog", Definition: "dog", POS: "noun"},
	}}
}

func TestEnrichLemma(t *testing.T) {
	conn := setupDB(t)
	ctx := context.Background()
	lemmas := seedLemmas(t, conn, "casa", "zzzz")

	e := NewEnricher(conn, NewResolver([]Source{italianSource()}), nil, "en", nil)
	assert.Equal(t, "en", e.Target())

	changed, err := e.EnrichLemma(ctx, lemmas[0], "")
	require.NoError(t, err)
	assert.True(t, changed)

	l, err := db.GetLemma(ctx, conn, lemmas[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "house", l.Translation)
	assert.Equal(t, "house; home", l.Definition)
	assert.Equal(t, "NOUN", l.POS)
	assert.Equal(t, "kaikki-it", l.Source)

	changed, err = e.EnrichLemma(ctx, *l, "")
	require.NoError(t, err)
	assert.False(t, changed, "nothing new to write")

	changed, err = e.EnrichLemma(ctx, lemmas[1], "")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestEnrichBatchInlineAndBackground(t *testing.T) {
	conn := setupDB(t)
	ctx := context.Background()
	lemmas := seedLemmas(t, conn, "casa", "gatto", "cane")

	pool := ingest.NewWorkerPool(1, 4)
	pool.Start(ctx)
	e := NewEnricher(conn, NewResolver([]Source{italianSource()}), pool, "en", nil)

	n, err := e.EnrichBatch(ctx, lemmas, "", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	l, err := db.GetLemma(ctx, conn, lemmas[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "house", l.Translation, "inline lemma is written before return")

	pool.Close()
	for i, want := range []string{"house", "cat", "dog"} {
		l, err := db.GetLemma(ctx, conn, lemmas[i].ID)
		require.NoError(t, err)
		assert.Equal(t, want, l.Translation)
	}
}

func TestEnrichBatchWithoutPool(t *testing.T) {
	conn := setupDB(t)
	ctx := context.Background()
	lemmas := seedLemmas(t, conn, "casa", "gatto", "cane")

	e := NewEnricher(conn, NewResolver([]Source{italianSource()}), nil, "en", nil)
	n, err := e.EnrichBatch(ctx, lemmas, "", 10)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = e.EnrichBatch(ctx, lemmas[:1], "", 0)
	require.NoError(t, err)
	assert.Zero(t, n)
}

// targetSource translates casa into the requested language.
type targetSource struct{}

func (targetSource) Name() string { return "targets" }

func (targetSource) Lookup(_ context.Context, word, _, dst string) (*Result, error) {
	if word != "casa" {
		return nil, nil
	}
	tr := map[string]string{"en": "house", "fr": "maison", "de": "Haus"}[dst]
	if tr == "" {
		return nil, nil
	}
	return &Result{Translation: tr, Definition: "casa (" + dst + ")"}, nil
}

func TestEnrichBatchTarget(t *testing.T) {
	conn := setupDB(t)
	ctx := context.Background()
	lemmas := seedLemmas(t, conn, "casa")

	e := NewEnricher(conn, NewResolver([]Source{targetSource{}}), nil, "en", nil)
	n, err := e.EnrichBatch(ctx, lemmas, "fr", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	l, err := db.GetLemma(ctx, conn, lemmas[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "maison", l.Translation)

	// An empty target falls back to the enricher's default.
	conn2 := setupDB(t)
	other := seedLemmas(t, conn2, "casa")
	e2 := NewEnricher(conn2, NewResolver([]Source{targetSource{}}), nil, "de", nil)
	changed, err := e2.EnrichLemma(ctx, other[0], "")
	require.NoError(t, err)
	assert.True(t, changed)
	l, err = db.GetLemma(ctx, conn2, other[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Haus", l.Translation)
}

func TestEnrichBatchDoesNotQueueTwice(t *testing.T) {
	conn := setupDB(t)
	ctx := context.Background()
	lemmas := seedLemmas(t, conn, "aaaa", "bbbb")

	src := &fakeSource{name: "empty"}
	pool := ingest.NewWorkerPool(1, 4)
	e := NewEnricher(conn, NewResolver([]Source{src}), pool, "en", nil)

	for i := 0; i < 3; i++ {
		_, err := e.EnrichBatch(ctx, lemmas, "", 0)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, e.Queued())

	pool.Start(ctx)
	pool.Close()
	assert.Equal(t, 2, src.count(), "each lemma looked up once")
	assert.Zero(t, e.Queued())
}
