package commonModels

import "time"

// Page is one unit of extracted text. Pages are produced by the loader and
// dropped once they have been chunked.
type Page struct {
	Number  int    `json:"page_num"`
	Content string `json:"content"`
	Source  string `json:"source"`
}

type Document struct {
	Id          string    `json:"source_doc_id"`
	Source      string    `json:"source"`
	ContentType DocType   `json:"content_type"`
	LoadedAt    time.Time `json:"loaded_at"`
	Pages       []Page    `json:"pages"`
}

// Chunk is immutable once the chunker returns it.
type Chunk struct {
	Id                  string `json:"chunk_id"`
	Content             string `json:"content"`
	PageNum             int    `json:"page_num"`
	Source              string `json:"source"`
	ChunkPageOrder      int    `json:"chunk_order"`
	Offset              int    `json:"offset"`
	OverlapWithPrevious int    `json:"overlap_with_previous"`
	// Seq is the position of the chunk in the whole document. The vector store
	// renumbers it across all ingestions and breaks similarity ties with it.
	Seq        int       `json:"seq"`
	IngestedAt time.Time `json:"ingested_at"`
}

// ScoredChunk is a search hit as returned by a vector index.
type ScoredChunk struct {
	Chunk Chunk
	Score float32
}

type DocType string

var PDF DocType = "PDF"
var DOCX DocType = "DOCX"
var TXT DocType = "TXT"
var ERR DocType = "ERROR"
