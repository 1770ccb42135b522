package analyzer

import (
	"strings"
	"testing"
)

type fakeAnalyzer struct {
	lang   string
	lemmas map[string]string
}

func (f fakeAnalyzer) Supports(lang string) bool { return lang == f.lang }

func (f fakeAnalyzer) Lemma(token, _ string) (string, bool) {
	l, ok := f.lemmas[token]
	return l, ok
}

func (f fakeAnalyzer) IsProperNoun(token, _ string) bool { return strings.HasPrefix(token, "Ro") }

func (f fakeAnalyzer) SingleToken(text, _ string) bool { return !strings.Contains(text, " ") }

func TestMultiDispatch(t *testing.T) {
	m := Multi{
		fakeAnalyzer{lang: "it", lemmas: map[string]string{"parlavano": "parlare"}},
		fakeAnalyzer{lang: "es", lemmas: map[string]string{"hablaban": "hablar"}},
	}

	if got, ok := m.Lemma("parlavano", "it"); !ok || got != "parlare" {
		t.Fatalf("it lemma: got %q %v", got, ok)
	}
	if got, ok := m.Lemma("hablaban", "es"); !ok || got != "hablar" {
		t.Fatalf("es lemma: got %q %v", got, ok)
	}
	if _, ok := m.Lemma("parlavano", "fr"); ok {
		t.Fatal("fr is not supported")
	}
	if !m.IsProperNoun("Roma", "it") || m.IsProperNoun("Roma", "de") {
		t.Fatal("proper noun dispatch wrong")
	}
	if For(m, "de") != nil {
		t.Fatal("For should return nil for an unsupported language")
	}
	if For(nil, "it") != nil {
		t.Fatal("For(nil) should be nil")
	}
	if SegmenterFor(m, "it") != nil {
		t.Fatal("fake analyzers are not segmenters")
	}
}

func TestJapaneseSegment(t *testing.T) {
	ja, err := NewJapanese()
	if err != nil {
		t.Fatalf("NewJapanese: %v", err)
	}

	segs := ja.Segment("猫が走った。", "ja")
	if len(segs) == 0 {
		t.Fatal("no segments")
	}
	var bases []string
	for _, s := range segs {
		bases = append(bases, s.Base)
	}
	joined := strings.Join(bases, "|")
	if !strings.Contains(joined, "走る") {
		t.Errorf("expected base form 走る among %v", bases)
	}
	if segs[0].Surface != "猫" || segs[0].Offset != 0 {
		t.Errorf("first segment: %+v", segs[0])
	}

	if ja.Segment("cat", "en") != nil {
		t.Error("segmenting a non-Japanese language should return nil")
	}
	if SegmenterFor(Multi{ja}, "ja") == nil {
		t.Error("expected a segmenter for ja through Multi")
	}
}

func TestJapaneseLemma(t *testing.T) {
	ja, err := NewJapanese()
	if err != nil {
		t.Fatalf("NewJapanese: %v", err)
	}
	if got, ok := ja.Lemma("食べ", "ja"); !ok || got != "食べる" {
		t.Errorf("Lemma(食べ) = %q, %v", got, ok)
	}
	if !ja.SingleToken("東京", "ja") {
		t.Error("東京 should be a single token")
	}
	if !ja.IsProperNoun("東京", "ja") {
		t.Error("東京 should be a proper noun")
	}
}
