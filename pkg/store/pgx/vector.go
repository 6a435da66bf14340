package pgx

import (
	"context"
	"fmt"

	pgxv5 "github.com/jackc/pgx/v5"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/pgvector/pgvector-go"

	"github.com/lumen-fi/advisor/pkg/common"
	"github.com/lumen-fi/advisor/pkg/store"
)

const upsertBatchSize = 100

// UpsertChunks replaces the stored chunks of each (owner, document) pair
// covered by the input and inserts the new ones in batches. It returns the
// number of chunks written.
func (s *Storage) UpsertChunks(
	ctx context.Context,
	chunks []common.Chunk,
	embeddings [][]float32,
) (int, error) {
	if len(chunks) != len(embeddings) {
		return 0, &store.StoreUnavailableError{
			Op:  "upsert chunks",
			Err: fmt.Errorf("chunk/embedding count mismatch: %d vs %d", len(chunks), len(embeddings)),
		}
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return 0, &store.StoreUnavailableError{Op: "upsert chunks", Err: err}
	}
	defer tx.Rollback(ctx)

	// re-ingesting a document replaces its previous chunks
	documents := map[[2]string]struct{}{}
	for _, c := range chunks {
		documents[[2]string{c.OwnerID, c.SourceDocument}] = struct{}{}
	}
	for doc := range documents {
		_, err := tx.Exec(ctx,
			`DELETE FROM chunks WHERE owner_id = $1 AND source_document = $2`,
			doc[0], doc[1],
		)
		if err != nil {
			return 0, &store.StoreUnavailableError{Op: "upsert chunks", Err: err}
		}
	}

	err = store.ChunkRange(len(chunks), upsertBatchSize, func(start, end int) error {
		batch := &pgxv5.Batch{}
		for i := start; i < end; i++ {
			recordID, err := gonanoid.New()
			if err != nil {
				return err
			}
			batch.Queue(
				`INSERT INTO chunks (record_id, owner_id, source_document, chunk_index, text, embedding)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				fmt.Sprintf("chunk_%s_%d_%s", chunks[i].OwnerID, chunks[i].Index, recordID),
				chunks[i].OwnerID,
				chunks[i].SourceDocument,
				chunks[i].Index,
				chunks[i].Text,
				pgvector.NewVector(embeddings[i]),
			)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return 0, &store.StoreUnavailableError{Op: "upsert chunks", Err: err}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, &store.StoreUnavailableError{Op: "upsert chunks", Err: err}
	}
	return len(chunks), nil
}

// QueryChunks returns the owner's topK most similar chunks by cosine
// distance, best first.
func (s *Storage) QueryChunks(
	ctx context.Context,
	embedding []float32,
	ownerID string,
	topK int,
) ([]store.ChunkMatch, error) {
	rows, err := s.conn.Query(ctx,
		`SELECT text, source_document, 1 - (embedding <=> $1) AS score
		 FROM chunks
		 WHERE owner_id = $2
		 ORDER BY embedding <=> $1
		 LIMIT $3`,
		pgvector.NewVector(embedding), ownerID, topK,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []store.ChunkMatch
	for rows.Next() {
		var m store.ChunkMatch
		if err := rows.Scan(&m.Text, &m.SourceDocument, &m.Score); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}
