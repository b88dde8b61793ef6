package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"document-qa/internal/chunker"
	"document-qa/internal/db"
	"document-qa/internal/models"
)

// wordTok counts one token per space-separated word piece.
type wordTok struct{ pieces []string }

func (w *wordTok) Encode(text string) []int {
	var toks []int
	for i, f := range strings.Split(text, " ") {
		piece := f
		if i > 0 {
			piece = " " + f
		}
		if piece == "" {
			continue
		}
		w.pieces = append(w.pieces, piece)
		toks = append(toks, len(w.pieces)-1)
	}
	return toks
}

func (w *wordTok) Decode(toks []int) string {
	var sb strings.Builder
	for _, t := range toks {
		sb.WriteString(w.pieces[t])
	}
	return sb.String()
}

func (w *wordTok) Count(text string) int { return len(w.Encode(text)) }

type fakeEmbedder struct{ err error }

func (f *fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

type fakeVectors struct {
	added   map[string][]models.Chunk
	deleted []string
	addErr  error
}

func newFakeVectors() *fakeVectors { return &fakeVectors{added: map[string][]models.Chunk{}} }

func (f *fakeVectors) Add(_ context.Context, fileID string, chunks []models.Chunk, embeddings [][]float32) error {
	if f.addErr != nil {
		return f.addErr
	}
	if len(chunks) != len(embeddings) {
		return errors.New("count mismatch")
	}
	f.added[fileID] = chunks
	return nil
}

func (f *fakeVectors) DeleteFile(_ context.Context, fileID string, _ int) error {
	f.deleted = append(f.deleted, fileID)
	delete(f.added, fileID)
	return nil
}

type fakeRegistry struct {
	files     map[string]*db.File
	insertErr error
}

func newFakeRegistry() *fakeRegistry { return &fakeRegistry{files: map[string]*db.File{}} }

func (f *fakeRegistry) InsertFile(_ context.Context, file *db.File) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.files[file.ID] = file
	return nil
}

func (f *fakeRegistry) GetFile(_ context.Context, id string) (*db.File, error) {
	file, ok := f.files[id]
	if !ok {
		return nil, errors.New("no rows")
	}
	return file, nil
}

func (f *fakeRegistry) FileNameTaken(_ context.Context, name string) (bool, error) {
	for _, file := range f.files {
		if file.FileName == name {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRegistry) DeleteFile(_ context.Context, id string) error {
	delete(f.files, id)
	return nil
}

func newTestIngestor(t *testing.T, vectors *fakeVectors, registry *fakeRegistry) *Ingestor {
	t.Helper()
	builder, err := chunker.NewBuilder(&wordTok{}, 20, 3)
	if err != nil {
		t.Fatal(err)
	}
	return NewIngestor(builder, &fakeEmbedder{}, vectors, registry)
}

func writeDoc(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestIngestFile(t *testing.T) {
	vectors := newFakeVectors()
	registry := newFakeRegistry()
	in := newTestIngestor(t, vectors, registry)

	path := writeDoc(t, "report.txt", "First sentence here. Second sentence follows. Third one closes.")
	res, err := in.IngestFile(context.Background(), path, "Quarterly Report", "report.txt")
	if err != nil {
		t.Fatal(err)
	}
	if res.NumChunks == 0 {
		t.Fatal("expected chunks")
	}
	if res.FileType != "txt" || res.NumPages != 0 {
		t.Errorf("result = %+v", res)
	}
	stored, ok := vectors.added[res.FileID]
	if !ok {
		t.Fatal("vectors not stored")
	}
	for _, c := range stored {
		if !strings.HasPrefix(c.Text, "Quarterly Report: ") {
			t.Errorf("chunk missing display-name prefix: %q", c.Text)
		}
	}
	record, err := registry.GetFile(context.Background(), res.FileID)
	if err != nil {
		t.Fatal(err)
	}
	if record.NumChunks != res.NumChunks || record.FileName != "Quarterly Report" {
		t.Errorf("record = %+v", record)
	}
}

func TestIngestFileEmptyDocument(t *testing.T) {
	vectors := newFakeVectors()
	registry := newFakeRegistry()
	in := newTestIngestor(t, vectors, registry)

	path := writeDoc(t, "empty.txt", "   \n ")
	res, err := in.IngestFile(context.Background(), path, "Empty", "empty.txt")
	if err != nil {
		t.Fatalf("empty document is reported, not an error: %v", err)
	}
	if res.NumChunks != 0 {
		t.Errorf("expected zero chunks, got %d", res.NumChunks)
	}
	if len(vectors.added) != 0 {
		t.Error("no vectors should be stored for an empty document")
	}
	if _, err := registry.GetFile(context.Background(), res.FileID); err != nil {
		t.Error("empty document should still be recorded")
	}
}

func TestIngestFileNameConflict(t *testing.T) {
	vectors := newFakeVectors()
	registry := newFakeRegistry()
	in := newTestIngestor(t, vectors, registry)

	path := writeDoc(t, "a.txt", "Some text.")
	if _, err := in.IngestFile(context.Background(), path, "Doc", "a.txt"); err != nil {
		t.Fatal(err)
	}
	path2 := writeDoc(t, "b.txt", "Other text.")
	if _, err := in.IngestFile(context.Background(), path2, "Doc", "b.txt"); err == nil {
		t.Error("duplicate display name must be rejected")
	}
}

func TestIngestFileRegistryFailureRollsBack(t *testing.T) {
	vectors := newFakeVectors()
	registry := newFakeRegistry()
	registry.insertErr = errors.New("db down")
	in := newTestIngestor(t, vectors, registry)

	path := writeDoc(t, "doc.txt", "Some text to chunk.")
	if _, err := in.IngestFile(context.Background(), path, "Doc", "doc.txt"); err == nil {
		t.Fatal("expected error")
	}
	if len(vectors.added) != 0 {
		t.Error("vector inserts must be rolled back on registry failure")
	}
	if len(vectors.deleted) == 0 {
		t.Error("rollback delete was not issued")
	}
}

func TestDeleteFile(t *testing.T) {
	vectors := newFakeVectors()
	registry := newFakeRegistry()
	in := newTestIngestor(t, vectors, registry)

	path := writeDoc(t, "doc.txt", "Some text to chunk and then delete.")
	res, err := in.IngestFile(context.Background(), path, "Doc", "doc.txt")
	if err != nil {
		t.Fatal(err)
	}
	if err := in.DeleteFile(context.Background(), res.FileID); err != nil {
		t.Fatal(err)
	}
	if len(vectors.added) != 0 {
		t.Error("vectors not removed")
	}
	if _, err := registry.GetFile(context.Background(), res.FileID); err == nil {
		t.Error("registry record not removed")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("stored upload not removed")
	}
}
