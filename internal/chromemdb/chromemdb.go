// Package chromemdb wraps the chromem-go vector database for chunk storage
// and similarity search.
package chromemdb

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strconv"

	"github.com/philippgille/chromem-go"

	"document-qa/internal/chunker"
	"document-qa/internal/models"
)

// Store encapsulates one chromem collection of chunk vectors.
type Store struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// NewStore opens a persistent database at dbPath (or an in-memory one when
// inMemory is set) and creates the collection if needed.
func NewStore(dbPath, collectionName string, inMemory bool) (*Store, error) {
	var db *chromem.DB
	var err error
	if inMemory {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(dbPath, false)
		if err != nil {
			return nil, fmt.Errorf("failed to open vector database: %w", err)
		}
	}
	collection, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %w", err)
	}
	return &Store{db: db, collection: collection}, nil
}

// Add upserts a document's chunks with their precomputed embeddings. Vector
// IDs are "<fileID>:<chunkNumber>" so a file's vectors can be removed as a
// unit.
func (s *Store) Add(ctx context.Context, fileID string, chunks []models.Chunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("chunk/embedding count mismatch: %d vs %d", len(chunks), len(embeddings))
	}
	docs := make([]chromem.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = chromem.Document{
			ID:        fmt.Sprintf("%s:%d", fileID, c.ChunkNumber),
			Content:   c.Text,
			Metadata:  chunker.Metadata(fileID, c),
			Embedding: embeddings[i],
		}
	}
	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	return nil
}

// Query returns up to topK context items for the query embedding, most
// similar first. Ties are broken by ascending chunk number within a file,
// then by file name, so retrieval order is deterministic. An empty collection
// yields zero items and no error.
func (s *Store) Query(ctx context.Context, queryEmbedding []float32, topK int) ([]models.ContextItem, error) {
	n := topK
	if count := s.collection.Count(); n > count {
		n = count
	}
	if n <= 0 {
		return nil, nil
	}

	results, err := s.collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: queryEmbedding,
		NResults:       n,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}

	items := make([]models.ContextItem, 0, len(results))
	for _, r := range results {
		items = append(items, models.ContextItem{
			FileName:    r.Metadata[chunker.MetaFileName],
			ChunkNumber: atoi(r.Metadata[chunker.MetaChunkNumber]),
			PageNumber:  atoi(r.Metadata[chunker.MetaPageNumber]),
			Text:        r.Metadata[chunker.MetaEmbeddedText],
			Score:       r.Similarity,
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.FileName == b.FileName {
			return a.ChunkNumber < b.ChunkNumber
		}
		return a.FileName < b.FileName
	})
	for i := range items {
		items[i].Rank = i + 1
	}
	return items, nil
}

// DeleteFile removes all vectors whose file_id matches. expected is the
// number of chunks recorded for the file; a shortfall is reported as a
// DeletionError with removed/failed counts.
func (s *Store) DeleteFile(ctx context.Context, fileID string, expected int) error {
	before := s.collection.Count()
	err := s.collection.Delete(ctx, map[string]string{chunker.MetaFileID: fileID}, nil)
	removed := before - s.collection.Count()
	if err != nil {
		return &models.DeletionError{Removed: removed, Failed: expected - removed, Err: err}
	}
	if removed < expected {
		return &models.DeletionError{
			Removed: removed,
			Failed:  expected - removed,
			Err:     fmt.Errorf("expected %d vectors for file %s, removed %d", expected, fileID, removed),
		}
	}
	return nil
}

// Count returns the number of stored vectors.
func (s *Store) Count() int {
	return s.collection.Count()
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
