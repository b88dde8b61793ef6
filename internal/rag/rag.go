// Package rag answers questions grounded on retrieved chunks: it embeds the
// question, retrieves the most similar chunks, assembles a grounded prompt,
// and runs a single completion.
package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"document-qa/internal/models"
)

const DefaultTopK = 6

// QueryEmbedder embeds a question for retrieval.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorSearcher retrieves the topK most similar chunks for an embedding.
type VectorSearcher interface {
	Query(ctx context.Context, embedding []float32, topK int) ([]models.ContextItem, error)
}

// Completer runs one synchronous completion.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// RAG holds the collaborators of the question-answering pipeline. It keeps no
// state across calls.
type RAG struct {
	embedder QueryEmbedder
	store    VectorSearcher
	llm      Completer
	topK     int
}

func NewRAG(embedder QueryEmbedder, store VectorSearcher, llm Completer, topK int) *RAG {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &RAG{embedder: embedder, store: store, llm: llm, topK: topK}
}

// Retrieve embeds the question and returns the top context items, rank 1
// first. An empty knowledge base yields zero items; store failures surface as
// RetrievalError.
func (r *RAG) Retrieve(ctx context.Context, question string) ([]models.ContextItem, error) {
	embedding, err := r.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, &models.RetrievalError{Err: fmt.Errorf("embed question: %w", err)}
	}
	items, err := r.store.Query(ctx, embedding, r.topK)
	if err != nil {
		return nil, &models.RetrievalError{Err: err}
	}
	return items, nil
}

// BuildContextBlock formats retrieved items in rank order, each tagged with
// its provenance. With zero items it returns the explicit empty marker; the
// completion call is still made.
func BuildContextBlock(items []models.ContextItem) string {
	if len(items) == 0 {
		return models.EmptyContextMarker
	}
	var sb strings.Builder
	for _, item := range items {
		fmt.Fprintf(&sb, models.ContextItemFormat,
			item.Rank, item.FileName, item.PageNumber, item.ChunkNumber, item.Text)
		sb.WriteByte('\n')
	}
	return strings.TrimSpace(sb.String())
}

// BuildPrompt returns the system and user messages for a grounded answer.
func BuildPrompt(question string, items []models.ContextItem) (system, user string) {
	return models.GroundedSystemPrompt,
		fmt.Sprintf(models.GroundedUserTemplate, question, BuildContextBlock(items))
}

// Answer runs the full pipeline for one question. Completion failures surface
// as AnswerGenerationError and must not be persisted by callers.
func (r *RAG) Answer(ctx context.Context, question string) (*models.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, errors.New("question is empty")
	}

	items, err := r.Retrieve(ctx, question)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		log.Warn().Str("question", question).Msg("answering with 0 context items")
	}

	system, user := BuildPrompt(question, items)
	text, err := r.llm.Complete(ctx, system, user)
	if err != nil {
		return nil, &models.AnswerGenerationError{Err: err}
	}

	return &models.Answer{Question: question, Text: text, Context: items}, nil
}
