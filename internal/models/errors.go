package models

import "fmt"

// ChunkingError reports invalid chunker settings or input. An empty document
// is not a ChunkingError; it produces zero chunks.
type ChunkingError struct {
	Reason string
}

func (e *ChunkingError) Error() string {
	return "chunking: " + e.Reason
}

// TokenizationError wraps a tokenizer failure on a text fragment. It is fatal
// for the document being chunked and leaves other documents untouched.
type TokenizationError struct {
	Err error
}

func (e *TokenizationError) Error() string {
	return "tokenization failed: " + e.Err.Error()
}

func (e *TokenizationError) Unwrap() error { return e.Err }

// RetrievalError wraps a vector store or query-embedding failure. No answer
// is attempted when retrieval fails.
type RetrievalError struct {
	Err error
}

func (e *RetrievalError) Error() string {
	return "retrieval failed: " + e.Err.Error()
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// AnswerGenerationError wraps a completion endpoint failure. No history entry
// is written when generation fails.
type AnswerGenerationError struct {
	Err error
}

func (e *AnswerGenerationError) Error() string {
	return "answer generation failed: " + e.Err.Error()
}

func (e *AnswerGenerationError) Unwrap() error { return e.Err }

// DeletionError reports a partial or total failure removing a file's vectors.
type DeletionError struct {
	Removed int
	Failed  int
	Err     error
}

func (e *DeletionError) Error() string {
	return fmt.Sprintf("vector deletion failed: removed %d, failed %d: %v", e.Removed, e.Failed, e.Err)
}

func (e *DeletionError) Unwrap() error { return e.Err }
