package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lumen-fi/advisor/pkg/ai/mock"
	"github.com/lumen-fi/advisor/pkg/common"
)

func chunkOf(text string, index int) common.Chunk {
	return common.Chunk{
		Text:           text,
		SourceDocument: "report.txt",
		OwnerID:        "user-1",
		Index:          index,
	}
}

func TestExtractCoOccurrencePairs(t *testing.T) {
	client := mock.NewMockAIClient()
	client.CompletionFunc = func(ctx context.Context, prompt string) (string, error) {
		return "[]", nil
	}

	chunks := []common.Chunk{
		chunkOf("Apple reported $10 billion in Q3 2024.", 0),
	}

	entities, relationships, err := NewExtractor(client).Extract(context.Background(), chunks, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entities) != 3 {
		t.Fatalf("expected 3 entities, got %d: %v", len(entities), entities)
	}
	// 3 entities in one chunk yield 3 i<j pairs
	if len(relationships) != 3 {
		t.Fatalf("expected 3 co-occurrence edges, got %d", len(relationships))
	}
	seen := map[string]bool{}
	for _, r := range relationships {
		if r.Type != common.RelationCoOccurrence {
			t.Fatalf("unexpected edge type %q", r.Type)
		}
		if r.Context != chunks[0].Text {
			t.Fatalf("edge context must be the chunk text, got %q", r.Context)
		}
		key := r.SourceID + "->" + r.TargetID
		if seen[key] {
			t.Fatalf("duplicate edge %s", key)
		}
		seen[key] = true
	}
}

func TestExtractPairCap(t *testing.T) {
	client := mock.NewMockAIClient()
	client.CompletionFunc = func(ctx context.Context, prompt string) (string, error) {
		return "[]", nil
	}

	// 12 money mentions in one chunk; pairs are generated over the first 10
	parts := make([]string, 12)
	for i := range parts {
		parts[i] = "$100 million"
	}
	chunks := []common.Chunk{chunkOf(strings.Join(parts, " and "), 0)}

	entities, relationships, err := NewExtractor(client).Extract(context.Background(), chunks, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entities) != 12 {
		t.Fatalf("expected 12 entities, got %d", len(entities))
	}
	if len(relationships) != 45 {
		t.Fatalf("expected 45 capped pairs, got %d", len(relationships))
	}
}

func TestExtractFactPass(t *testing.T) {
	client := mock.NewMockAIClient()
	client.CompletionFunc = func(ctx context.Context, prompt string) (string, error) {
		return `Here you go:
[{"entity1": "Apple", "relationship": "reported", "entity2": "revenue", "value": "$365.8 billion"}]`, nil
	}

	chunks := []common.Chunk{chunkOf("Apple reported $365.8 billion in revenue.", 0)}

	entities, relationships, err := NewExtractor(client).Extract(context.Background(), chunks, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var factEdge *common.Relationship
	for i := range relationships {
		if relationships[i].Type == "reported" {
			factEdge = &relationships[i]
		}
	}
	if factEdge == nil {
		t.Fatalf("fact edge not found in %v", relationships)
	}
	if factEdge.Value != "$365.8 billion" {
		t.Fatalf("unexpected fact value %q", factEdge.Value)
	}

	llmEntities := 0
	for _, e := range entities {
		if e.Type == common.EntityTypeLLMExtracted {
			llmEntities++
			if e.ChunkIndex != common.LLMChunkIndex {
				t.Fatalf("fact entity must carry the sentinel chunk index, got %d", e.ChunkIndex)
			}
		}
	}
	if llmEntities != 2 {
		t.Fatalf("expected 2 fact entities, got %d", llmEntities)
	}
}

func TestExtractFactPassDegrades(t *testing.T) {
	client := mock.NewMockAIClient()
	client.CompletionFunc = func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("provider down")
	}

	chunks := []common.Chunk{chunkOf("Apple reported $10 billion.", 0)}

	entities, relationships, err := NewExtractor(client).Extract(context.Background(), chunks, "user-1")
	if err != nil {
		t.Fatalf("fact pass failure must not fail extraction: %v", err)
	}
	for _, e := range entities {
		if e.Type == common.EntityTypeLLMExtracted {
			t.Fatalf("no fact entities expected, got %v", e)
		}
	}
	if len(entities) == 0 {
		t.Fatal("tagged entities must survive a failed fact pass")
	}
	_ = relationships
}

func TestExtractSkipsFactPassWithoutEntities(t *testing.T) {
	client := mock.NewMockAIClient()
	chunks := []common.Chunk{chunkOf("plain prose with nothing taggable here", 0)}

	entities, relationships, err := NewExtractor(client).Extract(context.Background(), chunks, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entities) != 0 || len(relationships) != 0 {
		t.Fatalf("expected empty extraction, got %d entities %d edges", len(entities), len(relationships))
	}
	if client.CompletionCalls() != 0 {
		t.Fatalf("fact pass must be skipped when tagging found nothing, got %d calls", client.CompletionCalls())
	}
}
