package advisor

import (
	"context"
	"fmt"
	"sync"

	"github.com/lumen-fi/advisor/pkg/common"
	"github.com/lumen-fi/advisor/pkg/logger"
	"github.com/lumen-fi/advisor/pkg/store"
)

const embedBatchSize = 100

// ProcessDocument ingests one document for one owner: partition, chunk,
// then two independent branches over the chunks (embed and store vectors;
// extract and store the graph batch). Either branch may fail alone, which
// yields a partial result. A summary is always returned, including for
// failed runs.
func (c *Client) ProcessDocument(ctx context.Context, path, ownerID string) common.IngestResult {
	result := common.IngestResult{DocumentPath: path}

	elements, err := c.registry.Partition(ctx, path)
	if err != nil {
		result.Status = common.IngestStatusError
		result.Message = fmt.Sprintf("failed to process document: %v", err)
		return result
	}

	chunks, err := c.chunker.Chunk(elements, path, ownerID)
	if err != nil {
		result.Status = common.IngestStatusError
		result.Message = fmt.Sprintf("failed to process document: %v", err)
		return result
	}
	if len(chunks) == 0 {
		result.Status = common.IngestStatusError
		result.Message = "document contained no usable text"
		return result
	}
	result.ChunksProcessed = len(chunks)

	var wg sync.WaitGroup
	var vectorErr, graphErr error
	wg.Add(2)

	go func() {
		defer wg.Done()
		vectorErr = c.storeEmbeddings(ctx, chunks)
	}()
	go func() {
		defer wg.Done()
		entities, relationships, err := c.extractor.Extract(ctx, chunks, ownerID)
		if err != nil {
			graphErr = err
			return
		}
		result.EntitiesExtracted = len(entities)
		result.RelationshipsExtracted = len(relationships)
		if len(entities) == 0 {
			return
		}
		graphID, err := c.graph.WriteBatch(ctx, entities, relationships, ownerID)
		if err != nil {
			graphErr = err
			return
		}
		result.KnowledgeGraphID = graphID
	}()
	wg.Wait()

	switch {
	case vectorErr != nil && graphErr != nil:
		result.Status = common.IngestStatusError
		result.Message = fmt.Sprintf("embedding and extraction failed: %v; %v", vectorErr, graphErr)
	case vectorErr != nil:
		result.Status = common.IngestStatusPartial
		result.Message = fmt.Sprintf("embeddings not stored: %v", vectorErr)
	case graphErr != nil:
		result.Status = common.IngestStatusPartial
		result.Message = fmt.Sprintf("knowledge graph not stored: %v", graphErr)
	default:
		result.Status = common.IngestStatusOK
	}

	if result.Status != common.IngestStatusOK {
		logger.Warn("[Advisor] Document ingestion degraded",
			"path", path, "status", result.Status, "message", result.Message)
	} else {
		logger.Info("[Advisor] Document ingested",
			"path", path, "chunks", result.ChunksProcessed,
			"entities", result.EntitiesExtracted, "graph_id", result.KnowledgeGraphID)
	}
	return result
}

// storeEmbeddings embeds the chunks in pooled batches and upserts them.
func (c *Client) storeEmbeddings(ctx context.Context, chunks []common.Chunk) error {
	embeddings := make([][]float32, len(chunks))

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	err := store.ChunkRange(len(chunks), embedBatchSize, func(start, end int) error {
		wg.Add(1)
		return c.pool.Submit(func() {
			defer wg.Done()

			inputs := make([][]byte, end-start)
			for i := start; i < end; i++ {
				inputs[i-start] = []byte(chunks[i].Text)
			}
			batch, err := c.gateway.GenerateEmbeddings(ctx, inputs)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			copy(embeddings[start:end], batch)
		})
	})
	if err != nil {
		// submission failed; the batch never ran
		wg.Done()
		wg.Wait()
		return err
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}

	_, err = c.vector.UpsertChunks(ctx, chunks, embeddings)
	return err
}
