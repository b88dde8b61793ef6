// Package chunker splits extracted document text into token-bounded,
// overlapping chunks suitable for embedding and retrieval.
package chunker

import (
	"regexp"
	"strings"

	"document-qa/internal/models"
)

var (
	sentenceEnd = regexp.MustCompile(`[.!?]+\s+`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// Clean normalizes extracted text: NUL bytes become spaces and runs of
// whitespace collapse to a single space.
func Clean(s string) string {
	s = strings.ReplaceAll(s, "\x00", " ")
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// Split turns extracted segments into an ordered sentence sequence. Sentences
// keep their source page and get a monotonically increasing position index.
// Joining the sentences of one segment with single spaces reconstructs the
// cleaned segment text, so no characters are dropped or duplicated.
func Split(segments []models.Segment) []models.Sentence {
	var out []models.Sentence
	idx := 0
	for _, seg := range segments {
		text := Clean(seg.Text)
		if text == "" {
			continue
		}
		start := 0
		for _, b := range sentenceEnd.FindAllStringIndex(text, -1) {
			sent := strings.TrimSpace(text[start:b[1]])
			if sent != "" {
				out = append(out, models.Sentence{Text: sent, Page: seg.Page, Index: idx})
				idx++
			}
			start = b[1]
		}
		if rest := strings.TrimSpace(text[start:]); rest != "" {
			out = append(out, models.Sentence{Text: rest, Page: seg.Page, Index: idx})
			idx++
		}
	}
	return out
}
