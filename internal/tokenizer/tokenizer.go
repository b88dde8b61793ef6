// Package tokenizer adapts a BPE tokenizer for token counting and
// token-bounded text slicing.
package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"document-qa/internal/models"
)

const DefaultEncoding = "cl100k_base"

// Tokenizer converts text to and from a token sequence. Implementations must
// be deterministic, and Decode(Encode(s)) must reproduce s for the substrings
// the chunker slices.
type Tokenizer interface {
	Count(text string) int
	Encode(text string) []int
	Decode(tokens []int) string
}

// Tiktoken wraps a tiktoken BPE encoding.
type Tiktoken struct {
	encoding *tiktoken.Tiktoken
}

// New loads the named encoding (cl100k_base for OpenAI embedding and chat
// models).
func New(encoding string) (*Tiktoken, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, &models.TokenizationError{Err: fmt.Errorf("load encoding %q: %w", encoding, err)}
	}
	return &Tiktoken{encoding: enc}, nil
}

func (t *Tiktoken) Count(text string) int {
	return len(t.encoding.Encode(text, nil, nil))
}

func (t *Tiktoken) Encode(text string) []int {
	return t.encoding.Encode(text, nil, nil)
}

func (t *Tiktoken) Decode(tokens []int) string {
	return t.encoding.Decode(tokens)
}
