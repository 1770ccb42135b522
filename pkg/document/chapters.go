package document

import (
	"regexp"
	"strings"
)

// ChapterSize is the byte size above which paragraphs start a new chapter.
const ChapterSize = 16 * 1024

var reHeading = regexp.MustCompile(`(?i)^\s*(chapter|capitolo|cap\.|chapitre|kapitel|cap[ií]tulo|part|parte)\b|^\s*第.{1,6}[章話回]`)

// SplitChapters cuts text at paragraph boundaries. A new chapter starts at
// a heading line or once the current one exceeds ChapterSize. Every
// chapter is a substring of text; blank text yields no chapters.
func SplitChapters(text string) []string {
	if strings.TrimSpace(text) == "" {
		return []string{}
	}

	var chapters []string
	start := 0
	emit := func(end int) {
		if strings.TrimSpace(text[start:end]) != "" {
			chapters = append(chapters, text[start:end])
		}
		start = end
	}

	for i := 0; i < len(text); {
		nl := strings.IndexByte(text[i:], '\n')
		if nl < 0 {
			break
		}
		lineEnd := i + nl + 1
		next := lineEnd
		// A blank line ends a paragraph.
		j := next
		for j < len(text) && (text[j] == ' ' || text[j] == '\t') {
			j++
		}
		if j < len(text) && text[j] == '\n' {
			para := j + 1
			if para-start >= ChapterSize || startsHeading(text[para:]) {
				emit(para)
			}
			next = para
		}
		i = next
	}
	emit(len(text))
	return chapters
}

func startsHeading(rest string) bool {
	line := rest
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		line = rest[:nl]
	}
	return len(line) < 80 && reHeading.MatchString(line)
}
