package analyzer

import (
	"errors"
	"slices"
	"sync"
	"sync/atomic"
)

var errNoAnalyzer = errors.New("analyzer: loader returned no analyzer")

// Lazy builds an analyzer on first use by one of langs. Loading the kagome
// dictionary is slow, so commands that never touch Japanese skip it.
type Lazy struct {
	langs  []string
	load   func() (Analyzer, error)
	once   sync.Once
	a      Analyzer
	failed atomic.Bool

	mu  sync.Mutex
	err error
}

// NewLazy returns an analyzer for langs that calls load once, when first
// needed. After a failed load it supports no language, so callers fall back
// to their heuristics.
func NewLazy(load func() (Analyzer, error), langs ...string) *Lazy {
	return &Lazy{langs: langs, load: load}
}

// NewLazyJapanese defers NewJapanese.
func NewLazyJapanese() *Lazy {
	return NewLazy(func() (Analyzer, error) {
		j, err := NewJapanese()
		if err != nil {
			return nil, err
		}
		return j, nil
	}, "ja")
}

func (l *Lazy) get() Analyzer {
	l.once.Do(func() {
		a, err := l.load()
		if err == nil && a == nil {
			err = errNoAnalyzer
		}
		if err != nil {
			l.mu.Lock()
			l.err = err
			l.mu.Unlock()
			l.failed.Store(true)
			return
		}
		l.a = a
	})
	return l.a
}

// Err returns the load error. It is nil until a load has been attempted
// and does not trigger one.
func (l *Lazy) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Supports answers without loading. It turns false once a load has failed.
func (l *Lazy) Supports(lang string) bool {
	return !l.failed.Load() && slices.Contains(l.langs, lang)
}

func (l *Lazy) Lemma(token, lang string) (string, bool) {
	if !l.Supports(lang) || l.get() == nil {
		return "", false
	}
	return l.a.Lemma(token, lang)
}

func (l *Lazy) IsProperNoun(token, lang string) bool {
	return l.Supports(lang) && l.get() != nil && l.a.IsProperNoun(token, lang)
}

func (l *Lazy) SingleToken(text, lang string) bool {
	return l.Supports(lang) && l.get() != nil && l.a.SingleToken(text, lang)
}

// Segment returns nil when the analyzer is unavailable or cannot segment.
func (l *Lazy) Segment(text, lang string) []Segment {
	if !l.Supports(lang) || l.get() == nil {
		return nil
	}
	if s, ok := l.a.(Segmenter); ok {
		return s.Segment(text, lang)
	}
	return nil
}
