// Package ingest runs the document pipeline: extract text, split sentences,
// build chunks, embed them, and store vectors plus a registry record.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"document-qa/internal/chunker"
	"document-qa/internal/db"
	"document-qa/internal/embedding"
	"document-qa/internal/helper"
	"document-qa/internal/models"
	"document-qa/internal/parser"
)

// VectorStore is the slice of the vector database the pipeline needs.
type VectorStore interface {
	Add(ctx context.Context, fileID string, chunks []models.Chunk, embeddings [][]float32) error
	DeleteFile(ctx context.Context, fileID string, expected int) error
}

// Registry persists file records.
type Registry interface {
	InsertFile(ctx context.Context, file *db.File) error
	GetFile(ctx context.Context, id string) (*db.File, error)
	FileNameTaken(ctx context.Context, fileName string) (bool, error)
	DeleteFile(ctx context.Context, id string) error
}

// Ingestor wires the pipeline's collaborators. It keeps no state between
// calls; separate documents may be ingested concurrently.
type Ingestor struct {
	builder  *chunker.Builder
	embedder embedding.DocumentEmbedder
	vectors  VectorStore
	registry Registry
}

func NewIngestor(builder *chunker.Builder, embedder embedding.DocumentEmbedder, vectors VectorStore, registry Registry) *Ingestor {
	return &Ingestor{builder: builder, embedder: embedder, vectors: vectors, registry: registry}
}

// Result reports what one ingestion produced.
type Result struct {
	FileID    string `json:"file_id"`
	FileName  string `json:"file_name"`
	FileType  string `json:"file_type"`
	NumPages  int    `json:"num_pages"`
	NumChunks int    `json:"num_chunks"`
}

// IngestFile extracts, chunks, embeds, and stores the document saved at
// storagePath under the user-chosen fileName. An empty document is recorded
// with zero chunks rather than failing. On a registry failure the vector
// inserts are rolled back.
func (in *Ingestor) IngestFile(ctx context.Context, storagePath, fileName, originalFilename string) (*Result, error) {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return nil, fmt.Errorf("file name is required")
	}
	taken, err := in.registry.FileNameTaken(ctx, fileName)
	if err != nil {
		return nil, fmt.Errorf("check file name: %w", err)
	}
	if taken {
		return nil, fmt.Errorf("file name %q is already in use", fileName)
	}

	segments, numPages, err := parser.Extract(storagePath)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	sentences := chunker.Split(segments)
	chunks, err := in.builder.Build(fileName, sentences)
	if err != nil {
		return nil, err
	}
	log.Info().Str("file_name", fileName).Int("sentences", len(sentences)).
		Int("chunks", len(chunks)).Msg("chunked document")

	fileID, err := helper.GenerateUUID()
	if err != nil {
		return nil, err
	}

	if len(chunks) > 0 {
		vectors, err := embedding.EmbedChunks(ctx, in.embedder, chunks)
		if err != nil {
			return nil, fmt.Errorf("embed chunks: %w", err)
		}
		if err := in.vectors.Add(ctx, fileID, chunks, vectors); err != nil {
			return nil, fmt.Errorf("store vectors: %w", err)
		}
	}

	stat, err := os.Stat(storagePath)
	if err != nil {
		return nil, err
	}
	ext := strings.ToLower(filepath.Ext(storagePath))
	record := &db.File{
		ID:               fileID,
		FileName:         fileName,
		OriginalFilename: originalFilename,
		FileType:         strings.TrimPrefix(ext, "."),
		StoragePath:      storagePath,
		SizeBytes:        stat.Size(),
		NumPages:         numPages,
		NumChunks:        len(chunks),
	}
	if err := in.registry.InsertFile(ctx, record); err != nil {
		if len(chunks) > 0 {
			if derr := in.vectors.DeleteFile(ctx, fileID, len(chunks)); derr != nil {
				log.Error().Err(derr).Str("file_id", fileID).Msg("rollback of vector inserts failed")
			}
		}
		return nil, fmt.Errorf("record file: %w", err)
	}

	return &Result{
		FileID:    fileID,
		FileName:  fileName,
		FileType:  record.FileType,
		NumPages:  numPages,
		NumChunks: len(chunks),
	}, nil
}

// DeleteFile removes a file's vectors, its stored upload, and its registry
// record. A vector shortfall surfaces as a DeletionError before the registry
// record is touched, so the failure stays visible.
func (in *Ingestor) DeleteFile(ctx context.Context, fileID string) error {
	file, err := in.registry.GetFile(ctx, fileID)
	if err != nil {
		return fmt.Errorf("file not found: %w", err)
	}
	if file.NumChunks > 0 {
		if err := in.vectors.DeleteFile(ctx, fileID, file.NumChunks); err != nil {
			return err
		}
	}
	if err := os.Remove(file.StoragePath); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("path", file.StoragePath).Msg("could not remove stored upload")
	}
	return in.registry.DeleteFile(ctx, fileID)
}
