// Package embedding creates text embeddings through langchaingo against an
// OpenAI-compatible endpoint or a local ollama server.
package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"document-qa/internal/config"
	"document-qa/internal/models"
)

// NewEmbedder builds an embedder for the configured provider.
func NewEmbedder(cfg *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	switch cfg.Provider {
	case "ollama":
		llm, err := ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("init ollama embedder: %w", err)
		}
		return embeddings.NewEmbedder(llm, embeddings.WithBatchSize(cfg.BatchSize))
	case "", "openai":
		llm, err := openai.New(
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
			openai.WithEmbeddingModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("init openai embedder: %w", err)
		}
		return embeddings.NewEmbedder(llm, embeddings.WithBatchSize(cfg.BatchSize))
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}
}

// DocumentEmbedder embeds a batch of texts, preserving order.
type DocumentEmbedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbedChunks embeds every chunk's text in batches, preserving order. The
// strings sent here are exactly the chunks' embedded_text.
func EmbedChunks(ctx context.Context, embedder DocumentEmbedder, chunks []models.Chunk) ([][]float32, error) {
	if len(chunks) == 0 {
		log.Info().Msg("no chunks to embed")
		return nil, nil
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedding count mismatch: got %d for %d chunks", len(vectors), len(chunks))
	}
	return vectors, nil
}

// EmbedQuery embeds a single question for retrieval.
func EmbedQuery(ctx context.Context, embedder *embeddings.EmbedderImpl, question string) ([]float32, error) {
	return embedder.EmbedQuery(ctx, question)
}
