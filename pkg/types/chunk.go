package types

import (
	sq "github.com/Masterminds/squirrel"
	"github.com/pgvector/pgvector-go"
)

// Chunk is one ordered segment of a document, the unit of retrieval.
// Chunks are owned by their document: re-ingestion replaces the whole
// set atomically, deletion removes them with the document.
type Chunk struct {
	ID          string `json:"id" db:"id"`
	TenantID    string `json:"tenant_id" db:"tenant_id"`
	CourseID    string `json:"course_id" db:"course_id"`
	DocumentID  string `json:"document_id" db:"document_id"`
	Seq         int    `json:"seq" db:"seq"`
	StartOffset int    `json:"start_offset" db:"start_offset"`
	EndOffset   int    `json:"end_offset" db:"end_offset"`
	Content     string `json:"content" db:"content"`
	TokenCount  int    `json:"token_count" db:"token_count"`
	CreatedAt   int64  `json:"created_at" db:"created_at"`
}

// Vector is the embedding row backing a chunk. It lives in a per-tenant
// partition table, see VectorPartitionTable.
type Vector struct {
	ID         string          `json:"id" db:"id"` // chunk id
	TenantID   string          `json:"tenant_id" db:"tenant_id"`
	CourseID   string          `json:"course_id" db:"course_id"`
	DocumentID string          `json:"document_id" db:"document_id"`
	Embedding  pgvector.Vector `json:"embedding" db:"embedding"`
	Dimension  int             `json:"dimension" db:"dimension"`
	CreatedAt  int64           `json:"created_at" db:"created_at"`
}

// QueryResult is one vector match, cos is cosine similarity in [0,1].
type QueryResult struct {
	ID         string  `json:"id" db:"id"`
	DocumentID string  `json:"document_id" db:"document_id"`
	Cos        float64 `json:"cos" db:"cos"`
}

type GetVectorsOptions struct {
	CourseID   string
	DocumentID string
}

func (opts GetVectorsOptions) Apply(query *sq.SelectBuilder) {
	if opts.CourseID != "" {
		*query = query.Where(sq.Eq{"course_id": opts.CourseID})
	}
	if opts.DocumentID != "" {
		*query = query.Where(sq.Eq{"document_id": opts.DocumentID})
	}
}

// RankedChunk is a retrieved chunk joined with its similarity score.
type RankedChunk struct {
	Chunk
	Score float64 `json:"score"`
}
