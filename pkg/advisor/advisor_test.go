package advisor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	oai "github.com/openai/openai-go/v3"

	"github.com/lumen-fi/advisor/pkg/ai"
	"github.com/lumen-fi/advisor/pkg/ai/mock"
	"github.com/lumen-fi/advisor/pkg/common"
	"github.com/lumen-fi/advisor/pkg/profile"
	"github.com/lumen-fi/advisor/pkg/store/memory"
)

// scriptedCompletion answers each pipeline prompt by its task marker.
func scriptedCompletion(ctx context.Context, prompt string) (string, error) {
	switch {
	case strings.Contains(prompt, "extracts factual financial relationships"):
		return `[{"entity1": "Apple", "relationship": "reported", "entity2": "revenue", "value": "$365.8 billion"}]`, nil
	case strings.Contains(prompt, "identifies the key financial entities"):
		return "revenue, Apple", nil
	case strings.Contains(prompt, "extract financial preferences"):
		return `{"risk_tolerance": "", "financial_goals": [], "preferences": {"sustainability": -1.0, "technology": -1.0, "healthcare": -1.0}}`, nil
	default:
		return "Based on your moderate risk tolerance, consider a diversified approach.", nil
	}
}

func newTestClient(t *testing.T, primary ai.AdvisorAIClient) (*Client, *memory.Storage) {
	t.Helper()

	storage := memory.NewStorage()
	gateway := ai.NewFailover(ai.NewFailoverParams{
		Primary:     primary,
		BackoffBase: time.Millisecond,
	})
	client, err := NewClient(NewClientParams{
		Gateway:  gateway,
		Vector:   storage,
		Graph:    storage,
		Profiles: profile.NewManager(storage, gateway),
	})
	if err != nil {
		t.Fatalf("failed to build client: %v", err)
	}
	t.Cleanup(client.Close)
	return client, storage
}

func writeReport(t *testing.T) string {
	t.Helper()
	paragraphs := []string{
		"Apple reported revenue of $365.8 billion for the fiscal year, driven by strong services growth and resilient hardware demand across all regions.",
		"Bond yields rose by 1.5% over the quarter as markets priced in tighter policy, weighing on long-duration fixed income portfolios held by institutions.",
		"Analysts expect technology spending in Europe to keep expanding through Q4 2025, with enterprise software budgets growing despite macro uncertainty.",
	}
	path := filepath.Join(t.TempDir(), "report.txt")
	if err := os.WriteFile(path, []byte(strings.Join(paragraphs, "\n\n")), 0o600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func TestIngestBuildsGraphAndServesFacts(t *testing.T) {
	mockAI := mock.NewMockAIClient()
	mockAI.CompletionFunc = scriptedCompletion
	client, storage := newTestClient(t, mockAI)
	ctx := context.Background()

	result := client.ProcessDocument(ctx, writeReport(t), "u1")
	if result.Status != common.IngestStatusOK {
		t.Fatalf("unexpected status %s: %s", result.Status, result.Message)
	}
	if result.ChunksProcessed != 3 {
		t.Fatalf("expected 3 chunks, got %d", result.ChunksProcessed)
	}
	if result.KnowledgeGraphID == "" {
		t.Fatal("expected a graph id")
	}

	export, err := storage.ExportBatch(ctx, result.KnowledgeGraphID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var money, org int
	for _, node := range export.Nodes {
		switch node.Type {
		case common.EntityTypeMoney:
			money++
		case common.EntityTypeOrg:
			org++
		}
	}
	if money == 0 || org == 0 {
		t.Fatalf("expected MONEY and ORG entities, got money=%d org=%d", money, org)
	}

	facts, err := storage.QueryFacts(ctx, []string{"revenue"}, "u1", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, f := range facts {
		if strings.Contains(f.Entity1, "Apple") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a fact with entity1 containing Apple, got %v", facts)
	}
}

func TestAnswerWithoutDocumentsFallsBackToProfile(t *testing.T) {
	mockAI := mock.NewMockAIClient()
	mockAI.CompletionFunc = scriptedCompletion
	client, storage := newTestClient(t, mockAI)
	ctx := context.Background()

	response, err := client.Advise(ctx, Request{
		Query:   "What is compound interest?",
		OwnerID: "u2",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if response.Answer == "" {
		t.Fatal("expected an answer")
	}
	if response.Ingest != nil {
		t.Fatalf("no ingestion expected, got %+v", response.Ingest)
	}

	stored, err := storage.Get(ctx, "u2")
	if err != nil || stored == nil {
		t.Fatalf("profile not persisted: %v %v", stored, err)
	}
	if len(stored.InteractionHistory) != 1 {
		t.Fatalf("expected 1 recorded interaction, got %d", len(stored.InteractionHistory))
	}
	if stored.InteractionHistory[0].Query != "What is compound interest?" {
		t.Fatalf("unexpected recorded query %q", stored.InteractionHistory[0].Query)
	}
}

func TestRateLimitedGatewayYieldsApology(t *testing.T) {
	mockAI := mock.NewMockAIClient()
	mockAI.CompletionFunc = func(ctx context.Context, prompt string) (string, error) {
		return "", &oai.Error{StatusCode: 429}
	}
	client, _ := newTestClient(t, mockAI)

	response, err := client.Advise(context.Background(), Request{
		Query:   "Should I rebalance?",
		OwnerID: "u3",
	})
	if err != nil {
		t.Fatalf("a dead gateway must not raise past the pipeline: %v", err)
	}
	if response.Answer != ai.ApologyMessage {
		t.Fatalf("got %q, want the fixed apology", response.Answer)
	}
}

func TestIngestThenAnswer(t *testing.T) {
	mockAI := mock.NewMockAIClient()
	mockAI.CompletionFunc = scriptedCompletion
	client, _ := newTestClient(t, mockAI)
	path := writeReport(t)

	response, err := client.Advise(context.Background(), Request{
		Query:        "How did Apple perform?",
		OwnerID:      "u4",
		DocumentPath: &path,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if response.Ingest == nil || response.Ingest.Status != common.IngestStatusOK {
		t.Fatalf("unexpected ingest result: %+v", response.Ingest)
	}
	if response.Answer == "" {
		t.Fatal("expected an answer after ingestion")
	}
}

func TestIngestUnsupportedDocumentReportsError(t *testing.T) {
	mockAI := mock.NewMockAIClient()
	mockAI.CompletionFunc = scriptedCompletion
	client, _ := newTestClient(t, mockAI)

	result := client.ProcessDocument(context.Background(), "statement.xyz", "u5")
	if result.Status != common.IngestStatusError {
		t.Fatalf("expected error status, got %s", result.Status)
	}
	if result.Message == "" {
		t.Fatal("expected a failure message")
	}
}

func TestAdviseValidation(t *testing.T) {
	mockAI := mock.NewMockAIClient()
	client, _ := newTestClient(t, mockAI)

	_, err := client.Advise(context.Background(), Request{Query: "hi"})
	if err == nil {
		t.Fatal("expected validation error for missing owner")
	}
	_, err = client.Advise(context.Background(), Request{OwnerID: "u"})
	if err == nil {
		t.Fatal("expected validation error for empty request")
	}
}
