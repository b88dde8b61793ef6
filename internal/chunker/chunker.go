package chunker

import (
	"fmt"
	"strings"

	"document-qa/internal/models"
	"document-qa/internal/tokenizer"
)

const (
	DefaultChunkTokens   = 2000
	DefaultOverlapTokens = 200
)

// Builder turns a document's sentence sequence into chunks. Every chunk,
// including its filename prefix, stays within the token budget, and every
// chunk after the first repeats the trailing overlap tokens of its
// predecessor. Builders hold no per-document state; Build is re-entrant.
type Builder struct {
	tok     tokenizer.Tokenizer
	budget  int
	overlap int
}

func NewBuilder(tok tokenizer.Tokenizer, budget, overlap int) (*Builder, error) {
	if budget <= 0 {
		return nil, &models.ChunkingError{Reason: fmt.Sprintf("token budget must be positive, got %d", budget)}
	}
	if overlap < 0 || overlap >= budget {
		return nil, &models.ChunkingError{Reason: fmt.Sprintf("overlap %d must be in [0, budget %d)", overlap, budget)}
	}
	return &Builder{tok: tok, budget: budget, overlap: overlap}, nil
}

// Build produces the ordered chunks of one document. fileName is prepended to
// every chunk and counted against the budget. An empty document yields zero
// chunks and no error.
//
// The buffer's token sequence is cached as sentences are appended, so the
// overlap carried across a chunk boundary is sliced from raw tokens instead
// of re-tokenizing source text. Overlap never crosses a document boundary
// because Build is called per document.
func (b *Builder) Build(fileName string, sentences []models.Sentence) ([]models.Chunk, error) {
	prefix := fileName + ": "
	budget := b.budget - b.tok.Count(prefix)
	if budget <= b.overlap {
		return nil, &models.ChunkingError{
			Reason: fmt.Sprintf("file name %q leaves %d tokens of budget, need more than the %d token overlap", fileName, budget, b.overlap),
		}
	}

	var (
		chunks   []models.Chunk
		bufText  strings.Builder
		bufToks  []int
		bufPage  int
		lastPage int
		// fresh is false while the buffer holds only seeded overlap; such a
		// buffer is never flushed as a chunk of its own.
		fresh bool
	)

	emit := func(content string, page int) {
		n := len(chunks) + 1
		if page == 0 {
			page = n
		}
		chunks = append(chunks, models.Chunk{
			FileName:    fileName,
			ChunkNumber: n,
			PageNumber:  page,
			Text:        prefix + content,
		})
	}

	// seed restarts the buffer with the trailing overlap of the given token
	// sequence, keeping at most room tokens so the next sentence still fits.
	seed := func(toks []int, page int, room int) {
		n := b.overlap
		if n > len(toks) {
			n = len(toks)
		}
		if n > room {
			n = room
		}
		bufText.Reset()
		bufToks = nil
		bufPage = page
		fresh = false
		if n > 0 {
			tail := toks[len(toks)-n:]
			bufText.WriteString(b.tok.Decode(tail))
			bufToks = append(bufToks, tail...)
		}
	}

	for _, s := range sentences {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		toks := b.tok.Encode(text)

		// A single sentence over the budget is split mid-sentence by raw
		// token count, sliding by budget-overlap so consecutive fragments
		// share the overlap.
		if len(toks) > budget {
			if fresh && bufText.Len() > 0 {
				emit(bufText.String(), bufPage)
			}
			step := budget - b.overlap
			var window []int
			for start := 0; start < len(toks); start += step {
				end := start + budget
				if end > len(toks) {
					end = len(toks)
				}
				window = toks[start:end]
				if frag := strings.TrimSpace(b.tok.Decode(window)); frag != "" {
					emit(frag, s.Page)
				}
				if end == len(toks) {
					break
				}
			}
			seed(window, s.Page, budget)
			lastPage = s.Page
			continue
		}

		joined := text
		joinToks := toks
		if len(bufToks) > 0 {
			joined = " " + text
			joinToks = b.tok.Encode(joined)
		}

		if len(bufToks)+len(joinToks) > budget {
			if fresh {
				flushed := make([]int, len(bufToks))
				copy(flushed, bufToks)
				emit(bufText.String(), bufPage)
				// Leave room for the sentence plus its separator; when the
				// sentence is near the budget this shortens the overlap
				// rather than overflowing or looping.
				seed(flushed, lastPage, budget-len(toks)-1)
			} else {
				// Overlap-only buffer: trim it to fit instead of emitting a
				// chunk with no new content.
				seed(bufToks, bufPage, budget-len(toks)-1)
			}
			if len(bufToks) > 0 {
				joined = " " + text
				joinToks = b.tok.Encode(joined)
			} else {
				joined = text
				joinToks = toks
			}
		}

		bufText.WriteString(joined)
		bufToks = append(bufToks, joinToks...)
		if bufText.Len() == len(joined) {
			bufPage = s.Page
		}
		fresh = true
		lastPage = s.Page
	}

	if fresh && bufText.Len() > 0 {
		emit(bufText.String(), bufPage)
	}
	return chunks, nil
}
