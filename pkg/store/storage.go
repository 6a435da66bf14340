package store

import (
	"context"
	"fmt"

	"github.com/lumen-fi/advisor/pkg/common"
)

// StoreUnavailableError reports a failed storage write. Reads degrade to
// empty results instead; writes surface this error so ingestion can report
// partial or failed runs.
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("store unavailable during %s: %v", e.Op, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}

// ChunkMatch is one scored result of a vector query. Text is the original
// chunk text stored alongside the vector, so retrieval never needs a second
// lookup.
type ChunkMatch struct {
	Text           string
	SourceDocument string
	Score          float64
}

// GraphExport is the renderable form of one graph batch.
type GraphExport struct {
	GraphID string                `json:"graph_id"`
	Nodes   []common.Entity       `json:"nodes"`
	Edges   []common.Relationship `json:"edges"`
}

// VectorStorage persists chunk embeddings and serves similarity queries.
// All operations are owner-scoped; a query never returns another owner's
// chunks.
type VectorStorage interface {
	// UpsertChunks stores the chunks with their embeddings and returns how
	// many were written. chunks and embeddings must align by index.
	UpsertChunks(ctx context.Context, chunks []common.Chunk, embeddings [][]float32) (int, error)

	// QueryChunks returns the topK most similar chunks of the owner,
	// ordered by descending score.
	QueryChunks(ctx context.Context, embedding []float32, ownerID string, topK int) ([]ChunkMatch, error)
}

// GraphStorage persists extraction batches as a knowledge graph and serves
// fact queries over it.
type GraphStorage interface {
	// WriteBatch stores one extraction batch under a fresh graph id, which
	// it returns. Entity IDs are unique within the batch; nodes merge by id
	// within the graph.
	WriteBatch(ctx context.Context, entities []common.Entity, relationships []common.Relationship, ownerID string) (string, error)

	// QueryFacts returns facts whose endpoints match any of the terms
	// (case-insensitive substring), deduplicated by triple with the first
	// occurrence winning, truncated to limit after deduplication.
	QueryFacts(ctx context.Context, terms []string, ownerID string, limit int) ([]common.Fact, error)

	// ExportBatch returns the nodes and edges of one graph batch for
	// external rendering.
	ExportBatch(ctx context.Context, graphID string) (*GraphExport, error)
}

// ProfileStorage persists user profiles. Get returns (nil, nil) for an
// unknown user; the caller owns default creation.
type ProfileStorage interface {
	Get(ctx context.Context, userID string) (*common.UserProfile, error)
	Put(ctx context.Context, profile *common.UserProfile) error
}
