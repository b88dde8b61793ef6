package chunker

import (
	"strconv"

	"document-qa/internal/models"
)

// Metadata keys stored with every vector.
const (
	MetaFileName     = "file_name"
	MetaChunkNumber  = "chunk_number"
	MetaPageNumber   = "page_number"
	MetaEmbeddedText = "embedded_text"
	MetaFileID       = "file_id"
)

// Metadata annotates a chunk for the vector store. embedded_text is the exact
// string sent for embedding, so later display matches what was embedded.
func Metadata(fileID string, c models.Chunk) map[string]string {
	return map[string]string{
		MetaFileID:       fileID,
		MetaFileName:     c.FileName,
		MetaChunkNumber:  strconv.Itoa(c.ChunkNumber),
		MetaPageNumber:   strconv.Itoa(c.PageNumber),
		MetaEmbeddedText: c.Text,
	}
}
