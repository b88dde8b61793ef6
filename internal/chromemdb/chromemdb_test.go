package chromemdb

import (
	"context"
	"errors"
	"testing"

	"document-qa/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore("", "test_chunks", true)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func chunk(file string, n, page int) models.Chunk {
	return models.Chunk{FileName: file, ChunkNumber: n, PageNumber: page, Text: file + ": chunk body"}
}

func TestQueryEmptyStore(t *testing.T) {
	s := newTestStore(t)
	items, err := s.Query(context.Background(), []float32{1, 0, 0}, 6)
	if err != nil {
		t.Fatalf("empty knowledge base is not an error: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected zero items, got %d", len(items))
	}
}

func TestQueryRankingAndTieBreak(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Identical embeddings force a similarity tie; order must fall back to
	// chunk number within a file, then file name.
	err := s.Add(ctx, "file-a", []models.Chunk{chunk("a.txt", 1, 1), chunk("a.txt", 2, 2)},
		[][]float32{{1, 0, 0}, {1, 0, 0}})
	if err != nil {
		t.Fatal(err)
	}
	err = s.Add(ctx, "file-b", []models.Chunk{chunk("b.txt", 1, 1)},
		[][]float32{{1, 0, 0}})
	if err != nil {
		t.Fatal(err)
	}
	err = s.Add(ctx, "file-c", []models.Chunk{chunk("c.txt", 1, 1)},
		[][]float32{{0, 1, 0}})
	if err != nil {
		t.Fatal(err)
	}

	items, err := s.Query(ctx, []float32{1, 0, 0}, 6)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 4 {
		t.Fatalf("expected all 4 items (topK clamped), got %d", len(items))
	}
	want := []struct {
		file  string
		chunk int
	}{
		{"a.txt", 1}, {"a.txt", 2}, {"b.txt", 1}, {"c.txt", 1},
	}
	for i, w := range want {
		if items[i].FileName != w.file || items[i].ChunkNumber != w.chunk {
			t.Errorf("rank %d = %s#%d, want %s#%d", i+1, items[i].FileName, items[i].ChunkNumber, w.file, w.chunk)
		}
		if items[i].Rank != i+1 {
			t.Errorf("item %d rank = %d", i, items[i].Rank)
		}
	}
	if items[0].Score <= items[3].Score {
		t.Errorf("dissimilar chunk should rank last: %v", items)
	}
}

func TestQueryTopKLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	chunks := make([]models.Chunk, 10)
	embeddings := make([][]float32, 10)
	for i := range chunks {
		chunks[i] = chunk("big.pdf", i+1, i+1)
		// distinct but comparable directions
		embeddings[i] = []float32{1, float32(i) / 100, 0}
	}
	if err := s.Add(ctx, "file-big", chunks, embeddings); err != nil {
		t.Fatal(err)
	}

	items, err := s.Query(ctx, []float32{1, 0, 0}, 6)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 6 {
		t.Errorf("expected at most 6 items, got %d", len(items))
	}
	for i := 1; i < len(items); i++ {
		if items[i].Score > items[i-1].Score {
			t.Errorf("items not in descending similarity order at %d", i)
		}
	}
}

func TestDeleteFile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Add(ctx, "file-a", []models.Chunk{chunk("a.txt", 1, 1)}, [][]float32{{1, 0, 0}}); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(ctx, "file-b", []models.Chunk{chunk("b.txt", 1, 1)}, [][]float32{{0, 1, 0}}); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteFile(ctx, "file-a", 1); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if s.Count() != 1 {
		t.Errorf("expected 1 vector left, got %d", s.Count())
	}
	items, err := s.Query(ctx, []float32{0, 1, 0}, 6)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].FileName != "b.txt" {
		t.Errorf("other file's retrieval changed: %v", items)
	}
}

func TestDeleteFileShortfall(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Add(ctx, "file-a", []models.Chunk{chunk("a.txt", 1, 1)}, [][]float32{{1, 0, 0}}); err != nil {
		t.Fatal(err)
	}
	err := s.DeleteFile(ctx, "file-a", 3)
	var derr *models.DeletionError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DeletionError, got %v", err)
	}
	if derr.Removed != 1 || derr.Failed != 2 {
		t.Errorf("removed=%d failed=%d", derr.Removed, derr.Failed)
	}
}
