package models

// Segment is a span of extracted document text together with the page it came
// from. Page is 0 for formats that have no page numbers (txt, docx, md).
type Segment struct {
	Text string
	Page int
}

// Sentence is a contiguous span of segment text. Sentences are never mutated
// after extraction.
type Sentence struct {
	Text  string
	Page  int
	Index int
}

// Chunk is the unit of embedding and retrieval. Text carries the filename
// prefix and is byte-for-byte the string sent to the embedding endpoint.
type Chunk struct {
	FileName    string
	ChunkNumber int
	PageNumber  int
	Text        string
}

// ContextItem is one retrieved chunk with its similarity rank. Rank 1 is the
// most similar. Items only live as part of an answer or a history entry.
type ContextItem struct {
	Rank        int     `json:"rank"`
	FileName    string  `json:"file_name"`
	ChunkNumber int     `json:"chunk_number"`
	PageNumber  int     `json:"page_number"`
	Text        string  `json:"text"`
	Score       float32 `json:"score"`
}

// Answer is the result of one question: the generated text plus the context
// items it was grounded on.
type Answer struct {
	Question string        `json:"question"`
	Text     string        `json:"answer"`
	Context  []ContextItem `json:"context"`
}
