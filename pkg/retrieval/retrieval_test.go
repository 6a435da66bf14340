package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lumen-fi/advisor/pkg/ai/mock"
	"github.com/lumen-fi/advisor/pkg/common"
	"github.com/lumen-fi/advisor/pkg/store/memory"
)

func seedStores(t *testing.T) (*memory.Storage, *mock.MockAIClient) {
	t.Helper()
	storage := memory.NewStorage()
	client := mock.NewMockAIClient()
	ctx := context.Background()

	chunks := []common.Chunk{
		{Text: "Apple reported record revenue.", OwnerID: "u", SourceDocument: "a.txt", Index: 0},
		{Text: "Bond yields rose sharply.", OwnerID: "u", SourceDocument: "a.txt", Index: 1},
		{Text: "Apple reported record revenue.", OwnerID: "u", SourceDocument: "b.txt", Index: 0},
	}
	embeddings := make([][]float32, len(chunks))
	for i, c := range chunks {
		vec, err := client.GenerateEmbedding(ctx, []byte(c.Text))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		embeddings[i] = vec
	}
	if _, err := storage.UpsertChunks(ctx, chunks, embeddings); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entities := []common.Entity{
		{ID: "entity_0", Text: "Apple", Type: common.EntityTypeOrg, OwnerID: "u"},
		{ID: "entity_1", Text: "revenue", Type: common.EntityTypeLLMExtracted, OwnerID: "u"},
	}
	relationships := []common.Relationship{
		{SourceID: "entity_0", TargetID: "entity_1", Type: "reported", Value: "$365.8 billion", OwnerID: "u"},
	}
	if _, err := storage.WriteBatch(ctx, entities, relationships, "u"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return storage, client
}

func TestRetrieveFusesBothBranches(t *testing.T) {
	storage, client := seedStores(t)
	client.CompletionFunc = func(ctx context.Context, prompt string) (string, error) {
		return "Apple, revenue", nil
	}

	o := NewOrchestrator(client, storage, storage)
	bundle, err := o.Retrieve(context.Background(), "How is Apple doing?", "u", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// duplicate chunk text collapses to one context
	if len(bundle.VectorContexts) != 2 {
		t.Fatalf("expected 2 deduplicated contexts, got %d: %v", len(bundle.VectorContexts), bundle.VectorContexts)
	}
	for _, c := range bundle.VectorContexts {
		if strings.TrimSpace(c) == "" {
			t.Fatal("empty context in bundle")
		}
	}

	if len(bundle.GraphFacts) != 1 {
		t.Fatalf("expected 1 fact, got %d: %v", len(bundle.GraphFacts), bundle.GraphFacts)
	}
	if bundle.GraphFacts[0].Entity1 != "Apple" {
		t.Fatalf("unexpected fact: %+v", bundle.GraphFacts[0])
	}
}

func TestRetrieveHonorsCallerTopK(t *testing.T) {
	storage, client := seedStores(t)
	client.CompletionFunc = func(ctx context.Context, prompt string) (string, error) {
		return "Apple, revenue", nil
	}

	o := NewOrchestrator(client, storage, storage)
	bundle, err := o.Retrieve(context.Background(), "How is Apple doing?", "u", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bundle.VectorContexts) != 1 {
		t.Fatalf("expected 1 context with top_k 1, got %d: %v", len(bundle.VectorContexts), bundle.VectorContexts)
	}
	if len(bundle.GraphFacts) > 1 {
		t.Fatalf("expected at most 1 fact with top_k 1, got %v", bundle.GraphFacts)
	}
}

func TestRetrieveDegradesGraphBranchAlone(t *testing.T) {
	storage, client := seedStores(t)
	client.CompletionFunc = func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("provider down")
	}

	o := NewOrchestrator(client, storage, storage)
	bundle, err := o.Retrieve(context.Background(), "How is Apple doing?", "u", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bundle.VectorContexts) == 0 {
		t.Fatal("vector branch must survive a failed graph branch")
	}
	if len(bundle.GraphFacts) != 0 {
		t.Fatalf("expected empty graph branch, got %v", bundle.GraphFacts)
	}
}

func TestRetrieveDegradesVectorBranchAlone(t *testing.T) {
	storage, client := seedStores(t)
	client.CompletionFunc = func(ctx context.Context, prompt string) (string, error) {
		return "apple", nil
	}
	client.EmbeddingFunc = func(ctx context.Context, input []byte) ([]float32, error) {
		return nil, errors.New("embedding provider down")
	}

	o := NewOrchestrator(client, storage, storage)
	bundle, err := o.Retrieve(context.Background(), "How is Apple doing?", "u", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bundle.VectorContexts) != 0 {
		t.Fatalf("expected empty vector branch, got %v", bundle.VectorContexts)
	}
	if len(bundle.GraphFacts) != 1 {
		t.Fatalf("graph branch must survive a failed vector branch, got %v", bundle.GraphFacts)
	}
}

func TestRetrieveNoUsableSearchTerms(t *testing.T) {
	storage, client := seedStores(t)
	client.CompletionFunc = func(ctx context.Context, prompt string) (string, error) {
		return " , ,  ", nil
	}

	o := NewOrchestrator(client, storage, storage)
	bundle, err := o.Retrieve(context.Background(), "hmm", "u", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bundle.GraphFacts) != 0 {
		t.Fatalf("expected empty graph branch without terms, got %v", bundle.GraphFacts)
	}
}

func TestRetrieveOwnerScoped(t *testing.T) {
	storage, client := seedStores(t)
	client.CompletionFunc = func(ctx context.Context, prompt string) (string, error) {
		return "apple", nil
	}

	o := NewOrchestrator(client, storage, storage)
	bundle, err := o.Retrieve(context.Background(), "How is Apple doing?", "someone-else", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bundle.VectorContexts) != 0 || len(bundle.GraphFacts) != 0 {
		t.Fatalf("owner isolation violated: %+v", bundle)
	}
}
