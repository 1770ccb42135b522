package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultSnippetRadius is the number of bytes of context kept on each side
// of an occurrence.
const DefaultSnippetRadius = 60

// Snippet returns the text around text[offset:offset+length], cut on word
// boundaries with whitespace collapsed.
func Snippet(text string, offset, length, radius int) string {
	if offset < 0 || offset > len(text) {
		return ""
	}
	end := offset + length
	if end > len(text) {
		end = len(text)
	}
	from := offset - radius
	if from < 0 {
		from = 0
	}
	to := end + radius
	if to > len(text) {
		to = len(text)
	}
	for from > 0 && !utf8.RuneStart(text[from]) {
		from++
	}
	for to < len(text) && !utf8.RuneStart(text[to]) {
		to--
	}

	// Drop the partial word at each edge.
	if from > 0 {
		if i := strings.IndexFunc(text[from:offset], unicode.IsSpace); i >= 0 {
			from += i
		}
	}
	if to < len(text) {
		if i := strings.LastIndexFunc(text[end:to], unicode.IsSpace); i >= 0 {
			to = end + i
		}
	}
	return strings.Join(strings.Fields(text[from:to]), " ")
}
