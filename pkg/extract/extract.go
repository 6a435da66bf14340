package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/lumen-fi/advisor/pkg/ai"
	"github.com/lumen-fi/advisor/pkg/common"
	"github.com/lumen-fi/advisor/pkg/logger"
)

// ExtractionError reports a failed extraction pass. Ingestion maps it to a
// partial result: embeddings may already be stored when extraction fails.
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("entity extraction failed: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

const (
	// factSampleChunks bounds the model-assisted fact pass to the head of
	// the document.
	factSampleChunks = 5

	// maxPairEntities caps co-occurrence pair generation per chunk. A
	// dense chunk otherwise produces a quadratic edge blowup.
	maxPairEntities = 10
)

// Extractor derives graph entities and relationships from chunks: a
// deterministic tagging pass per chunk plus one model-assisted fact pass
// over the document head. The fact pass is best-effort; its failure
// degrades extraction instead of failing it.
type Extractor struct {
	tagger *Tagger
	client ai.AdvisorAIClient
}

// NewExtractor creates an Extractor using the given generation client for
// the fact pass. A nil client disables the fact pass.
func NewExtractor(client ai.AdvisorAIClient) *Extractor {
	return &Extractor{
		tagger: NewTagger(),
		client: client,
	}
}

// Extract runs both passes over the chunks. Entity IDs are unique within
// the returned batch; relationships reference them by ID. Co-occurrence
// edges connect entities of the same chunk (i<j), fact edges connect the
// two entities of one extracted fact.
func (e *Extractor) Extract(
	ctx context.Context,
	chunks []common.Chunk,
	ownerID string,
) ([]common.Entity, []common.Relationship, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, &ExtractionError{Err: err}
	}

	var entities []common.Entity
	var relationships []common.Relationship

	for _, chunk := range chunks {
		mentions := e.tagger.Tag(chunk.Text)

		chunkEntities := make([]common.Entity, 0, len(mentions))
		for _, m := range mentions {
			entity := common.Entity{
				ID:         fmt.Sprintf("entity_%d", len(entities)),
				Text:       m.Text,
				Type:       m.Type,
				ChunkIndex: chunk.Index,
				OwnerID:    ownerID,
			}
			entities = append(entities, entity)
			chunkEntities = append(chunkEntities, entity)
		}

		pairLimit := len(chunkEntities)
		if pairLimit > maxPairEntities {
			pairLimit = maxPairEntities
		}
		for i := 0; i < pairLimit; i++ {
			for j := i + 1; j < pairLimit; j++ {
				relationships = append(relationships, common.Relationship{
					SourceID: chunkEntities[i].ID,
					TargetID: chunkEntities[j].ID,
					Type:     common.RelationCoOccurrence,
					Context:  chunk.Text,
					OwnerID:  ownerID,
				})
			}
		}
	}

	if len(entities) > 0 && e.client != nil {
		factEntities, factRelationships := e.extractFacts(ctx, chunks, len(entities), ownerID)
		entities = append(entities, factEntities...)
		relationships = append(relationships, factRelationships...)
	}

	return entities, relationships, nil
}

// extractFacts runs the model-assisted pass over the first chunks. Any
// failure (generation, decoding) yields no facts; the tagged entities stand
// on their own.
func (e *Extractor) extractFacts(
	ctx context.Context,
	chunks []common.Chunk,
	nextID int,
	ownerID string,
) ([]common.Entity, []common.Relationship) {
	sample := chunks
	if len(sample) > factSampleChunks {
		sample = sample[:factSampleChunks]
	}
	texts := make([]string, len(sample))
	for i, c := range sample {
		texts[i] = c.Text
	}
	combined := strings.Join(texts, " ")

	prompt := fmt.Sprintf(ai.FactExtractPrompt, combined)
	response, err := e.client.GenerateCompletion(ctx, prompt)
	if err != nil {
		logger.Warn("[Extract] Fact pass generation failed, continuing without facts", "err", err)
		return nil, nil
	}

	var facts []common.Fact
	if err := ai.UnmarshalFlexible(response, &facts); err != nil {
		logger.Warn("[Extract] Fact pass returned undecodable JSON, continuing without facts", "err", err)
		return nil, nil
	}

	var entities []common.Entity
	var relationships []common.Relationship
	for _, fact := range facts {
		if fact.Entity1 == "" || fact.Entity2 == "" || fact.Relationship == "" {
			continue
		}

		source := common.Entity{
			ID:         fmt.Sprintf("entity_%d", nextID),
			Text:       fact.Entity1,
			Type:       common.EntityTypeLLMExtracted,
			ChunkIndex: common.LLMChunkIndex,
			OwnerID:    ownerID,
		}
		nextID++
		target := common.Entity{
			ID:         fmt.Sprintf("entity_%d", nextID),
			Text:       fact.Entity2,
			Type:       common.EntityTypeLLMExtracted,
			ChunkIndex: common.LLMChunkIndex,
			OwnerID:    ownerID,
		}
		nextID++

		entities = append(entities, source, target)
		relationships = append(relationships, common.Relationship{
			SourceID: source.ID,
			TargetID: target.ID,
			Type:     fact.Relationship,
			Context:  "LLM extracted fact",
			Value:    fact.Value,
			OwnerID:  ownerID,
		})
	}
	return entities, relationships
}
