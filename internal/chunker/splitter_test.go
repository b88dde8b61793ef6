package chunker

import (
	"strings"
	"testing"

	"document-qa/internal/models"
)

func TestSplitReconstructs(t *testing.T) {
	text := "First sentence. Second one! Is this third? Trailing fragment without punctuation"
	sents := Split([]models.Segment{{Text: text, Page: 0}})
	if len(sents) != 4 {
		t.Fatalf("expected 4 sentences, got %d: %v", len(sents), sents)
	}
	var parts []string
	for i, s := range sents {
		if s.Index != i {
			t.Errorf("sentence %d has index %d", i, s.Index)
		}
		parts = append(parts, s.Text)
	}
	if got := strings.Join(parts, " "); got != text {
		t.Errorf("reconstruction mismatch:\n got %q\nwant %q", got, text)
	}
}

func TestSplitKeepsPages(t *testing.T) {
	segs := []models.Segment{
		{Text: "Page one a. Page one b.", Page: 1},
		{Text: "Page two.", Page: 2},
	}
	sents := Split(segs)
	if len(sents) != 3 {
		t.Fatalf("expected 3 sentences, got %d", len(sents))
	}
	wantPages := []int{1, 1, 2}
	for i, s := range sents {
		if s.Page != wantPages[i] {
			t.Errorf("sentence %d page = %d, want %d", i, s.Page, wantPages[i])
		}
		if s.Index != i {
			t.Errorf("sentence %d index = %d", i, s.Index)
		}
	}
}

func TestSplitEmpty(t *testing.T) {
	if sents := Split(nil); len(sents) != 0 {
		t.Errorf("nil segments: got %d sentences", len(sents))
	}
	if sents := Split([]models.Segment{{Text: "   \n\t "}}); len(sents) != 0 {
		t.Errorf("whitespace segment: got %d sentences", len(sents))
	}
}

func TestSplitCollapsesWhitespace(t *testing.T) {
	sents := Split([]models.Segment{{Text: "One\n\nsentence  here.   Second\tone."}})
	if len(sents) != 2 {
		t.Fatalf("expected 2 sentences, got %d", len(sents))
	}
	if sents[0].Text != "One sentence here." {
		t.Errorf("sentence 0 = %q", sents[0].Text)
	}
	if sents[1].Text != "Second one." {
		t.Errorf("sentence 1 = %q", sents[1].Text)
	}
}

func TestClean(t *testing.T) {
	if got := Clean(" a \x00 b  c "); got != "a b c" {
		t.Errorf("Clean = %q", got)
	}
}
