// Package freq loads word frequency lists and derives difficulty scores.
//
// Frequencies are kept on the Zipf scale: log10 of occurrences per billion
// words, so 1 is very rare and 7 is a handful of function words.
package freq

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"
)

// maxZipf is the largest value accepted as an already Zipf-scaled entry.
// Lists with larger values are treated as raw counts.
const maxZipf = 8.0

// Oracle answers frequency questions. A Set is the usual implementation.
type Oracle interface {
	Zipf(word, lang string) (float64, bool)
	Has(lang string) bool
}

// List is the frequency list of one language.
type List struct {
	Lang string
	zipf map[string]float64
}

// Load reads "word value" lines. Values may be Zipf scores or raw counts;
// counts are converted. Blank lines and lines starting with # are skipped.
func Load(r io.Reader, lang string) (*List, error) {
	raw := make(map[string]float64)
	var total float64
	counts := false

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: expected word and value", line)
		}
		v, err := strconv.ParseFloat(fields[len(fields)-1], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		word := strings.ToLower(strings.Join(fields[:len(fields)-1], " "))
		raw[word] += v
		total += v
		if v > maxZipf {
			counts = true
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	l := &List{Lang: lang, zipf: raw}
	if counts && total > 0 {
		for w, c := range raw {
			l.zipf[w] = math.Log10(c / total * 1e9)
		}
	}
	return l, nil
}

// LoadFile loads a list from path.
func LoadFile(path, lang string) (*List, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	l, err := Load(f, lang)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}

// Zipf returns the score of word; unknown words report false.
func (l *List) Zipf(word string) (float64, bool) {
	z, ok := l.zipf[strings.ToLower(word)]
	return z, ok
}

// Len returns the number of words in the list.
func (l *List) Len() int { return len(l.zipf) }

// Set holds the lists of several languages.
type Set struct {
	mu    sync.RWMutex
	lists map[string]*List
}

// NewSet returns a Set containing lists.
func NewSet(lists ...*List) *Set {
	s := &Set{lists: make(map[string]*List)}
	for _, l := range lists {
		s.Add(l)
	}
	return s
}

// LoadSet loads one list per language from files (language code to path).
func LoadSet(files map[string]string) (*Set, error) {
	s := NewSet()
	for lang, path := range files {
		l, err := LoadFile(path, lang)
		if err != nil {
			return nil, err
		}
		s.Add(l)
	}
	return s, nil
}

func (s *Set) Add(l *List) {
	s.mu.Lock()
	s.lists[l.Lang] = l
	s.mu.Unlock()
}

func (s *Set) Has(lang string) bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.lists[lang]
	return ok
}

// Zipf returns the score of word in lang. Words missing from a loaded list
// score 0; a missing list reports false.
func (s *Set) Zipf(word, lang string) (float64, bool) {
	if s == nil {
		return 0, false
	}
	s.mu.RLock()
	l, ok := s.lists[lang]
	s.mu.RUnlock()
	if !ok {
		return 0, false
	}
	z, _ := l.Zipf(word)
	return z, true
}

// Difficulty rates word from 1 (easy) to 5 (hard). Frequent words are
// easy; long words and words without a frequency list fall back to a
// length estimate.
func Difficulty(word, lang string, o Oracle) int {
	n := utf8.RuneCountInString(word)
	if o == nil || !o.Has(lang) {
		return lengthDifficulty(n)
	}
	z, _ := o.Zipf(word, lang)
	z = math.Max(1, math.Min(7, z))
	ease := (z - 1) / 6
	score := 5 - 4*ease
	if n > 10 {
		score += 0.5
	}
	if n > 14 {
		score += 0.5
	}
	return clamp(int(math.Round(score)))
}

func lengthDifficulty(n int) int {
	switch {
	case n <= 4:
		return 1
	case n <= 6:
		return 2
	case n <= 8:
		return 3
	case n <= 11:
		return 4
	default:
		return 5
	}
}

func clamp(d int) int {
	if d < 1 {
		return 1
	}
	if d > 5 {
		return 5
	}
	return d
}
