package document

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articleHTML = `<!DOCTYPE html>
<html><head><title>Il gatto</title></head>
<body>
<nav>Home | About</nav>
<article>
<h1>Il gatto</h1>
<p>Il gatto dorme sul divano. Il gatto sogna una casa grande con molte finestre e un giardino pieno di fiori.</p>
<p>La casa del gatto è bella e tranquilla, e ogni mattina il sole entra dalle finestre aperte.</p>
<p>Nel pomeriggio il gatto guarda gli uccelli nel giardino e aspetta che qualcuno torni a casa.</p>
<p>La sera il gatto mangia, poi si siede vicino alla porta, ascolta i rumori della strada e alla fine si addormenta di nuovo sul divano morbido.</p>
<p>Quando piove il gatto resta in casa, cammina da una stanza all'altra e guarda le gocce che scendono lente sui vetri delle finestre.</p>
</article>
</body></html>`

func TestSanitizeRuby(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple", "<ruby>漢字<rt>かんじ</rt></ruby>", "<ruby>漢字</ruby>"},
		{"with rp", "<ruby>漢字<rp>(</rp><rt>かんじ</rt><rp>)</rp></ruby>", "<ruby>漢字</ruby>"},
		{"multiple", "<ruby>私<rt>わたし</rt></ruby>は<ruby>猫<rt>ねこ</rt></ruby>である", "<ruby>私</ruby>は<ruby>猫</ruby>である"},
		{"attributes", "<ruby class='x'>漢字<rt class='reading'>かんじ</rt></ruby>", "<ruby class='x'>漢字</ruby>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(SanitizeRuby([]byte(tt.input))))
		})
	}
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "ab\ncd\te", Sanitize("a\x00b\r\ncd\te\x07"))
	assert.Equal(t, "caffè", Sanitize("caff\xffè"))
	assert.Equal(t, "x", Sanitize("\ufeffx"))
	assert.Equal(t, "", Sanitize(""))
}

func TestSplitChapters(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, SplitChapters(""))
		assert.Empty(t, SplitChapters(" \n\n\t"))
	})

	t.Run("single paragraph", func(t *testing.T) {
		assert.Equal(t, []string{"the cat sat."}, SplitChapters("the cat sat."))
	})

	t.Run("headings", func(t *testing.T) {
		text := "Chapter 1\nThe cat sat.\n\nIt slept.\n\nChapter 2\nThe dog ran.\n"
		got := SplitChapters(text)
		require.Len(t, got, 2)
		assert.Equal(t, "Chapter 1\nThe cat sat.\n\nIt slept.\n\n", got[0])
		assert.Equal(t, "Chapter 2\nThe dog ran.\n", got[1])
		assert.Equal(t, text, strings.Join(got, ""))
	})

	t.Run("size bound", func(t *testing.T) {
		para := strings.Repeat("parola ", 1000) + "\n\n"
		text := strings.Repeat(para, 6)
		got := SplitChapters(text)
		assert.Greater(t, len(got), 1)
		assert.Equal(t, text, strings.Join(got, ""))
		for _, c := range got[:len(got)-1] {
			assert.GreaterOrEqual(t, len(c), ChapterSize)
		}
	})
}

func TestLoadTextFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "racconto.txt")
	require.NoError(t, os.WriteFile(path, []byte("Il gatto dorme.\r\nLa casa\x00 è bella."), 0o644))

	src, err := NewLoader(nil).Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "racconto", src.Title)
	assert.Equal(t, path, src.Origin)
	assert.Equal(t, "Il gatto dorme.\nLa casa è bella.", src.Text)
}

func TestLoadHTMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gatto.html")
	require.NoError(t, os.WriteFile(path, []byte(articleHTML), 0o644))

	src, err := NewLoader(nil).Load(context.Background(), path)
	require.NoError(t, err)
	assert.Contains(t, src.Text, "Il gatto dorme sul divano")
	assert.NotContains(t, src.Text, "<p>")
	assert.NotEmpty(t, src.Title)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader(nil).Load(context.Background(), filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestLoadURL(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(articleHTML))
	}))
	defer srv.Close()

	src, err := NewLoader(nil).Load(context.Background(), srv.URL+"/gatto")
	require.NoError(t, err)
	assert.Contains(t, gotUA, "Mozilla/5.0")
	assert.Equal(t, srv.URL+"/gatto", src.Origin)
	assert.Contains(t, src.Text, "La casa del gatto")
}

func TestLoadURLStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewLoader(nil).Load(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestLoadURLTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chunk := []byte(strings.Repeat("a", 1024*1024))
		for i := 0; i <= MaxBodySize/len(chunk); i++ {
			if _, err := w.Write(chunk); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	_, err := NewLoader(nil).Load(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrTooLarge)
}
