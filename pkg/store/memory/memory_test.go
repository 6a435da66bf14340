package memory

import (
	"context"
	"testing"

	"github.com/lumen-fi/advisor/pkg/common"
)

func TestQueryChunksOwnerIsolation(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()

	chunks := []common.Chunk{
		{Text: "alice's bond report", OwnerID: "alice", SourceDocument: "a.txt", Index: 0},
		{Text: "bob's equity report", OwnerID: "bob", SourceDocument: "b.txt", Index: 0},
	}
	embeddings := [][]float32{{1, 0}, {1, 0}}
	if _, err := s.UpsertChunks(ctx, chunks, embeddings); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	matches, err := s.QueryChunks(ctx, []float32{1, 0}, "alice", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].Text != "alice's bond report" {
		t.Fatalf("owner isolation violated: %q", matches[0].Text)
	}
}

func TestQueryChunksRankingAndTopK(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()

	chunks := []common.Chunk{
		{Text: "close", OwnerID: "u", Index: 0},
		{Text: "far", OwnerID: "u", Index: 1},
		{Text: "middle", OwnerID: "u", Index: 2},
	}
	embeddings := [][]float32{{1, 0}, {0, 1}, {1, 1}}
	if _, err := s.UpsertChunks(ctx, chunks, embeddings); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	matches, err := s.QueryChunks(ctx, []float32{1, 0}, "u", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].Text != "close" || matches[1].Text != "middle" {
		t.Fatalf("unexpected ranking: %v", matches)
	}
}

func TestUpsertChunksMismatch(t *testing.T) {
	s := NewStorage()
	_, err := s.UpsertChunks(context.Background(), []common.Chunk{{Text: "x"}}, nil)
	if err == nil {
		t.Fatal("expected error for mismatched input lengths")
	}
}

func TestGraphWriteAndQueryFacts(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()

	entities := []common.Entity{
		{ID: "entity_0", Text: "Apple", Type: common.EntityTypeOrg, OwnerID: "u"},
		{ID: "entity_1", Text: "revenue", Type: common.EntityTypeLLMExtracted, OwnerID: "u"},
	}
	relationships := []common.Relationship{
		{SourceID: "entity_0", TargetID: "entity_1", Type: "reported", Value: "$365.8 billion", Context: "LLM extracted fact", OwnerID: "u"},
		{SourceID: "entity_0", TargetID: "entity_1", Type: "reported", Value: "other value", Context: "duplicate", OwnerID: "u"},
	}

	graphID, err := s.WriteBatch(ctx, entities, relationships, "u")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if graphID == "" {
		t.Fatal("expected non-empty graph id")
	}

	facts, err := s.QueryFacts(ctx, []string{"apple"}, "u", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(facts) != 1 {
		t.Fatalf("duplicate triples must collapse, got %d facts", len(facts))
	}
	if facts[0].Value != "$365.8 billion" {
		t.Fatalf("first occurrence must win, got %q", facts[0].Value)
	}

	// another owner sees nothing
	other, err := s.QueryFacts(ctx, []string{"apple"}, "someone-else", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("owner isolation violated: %v", other)
	}
}

func TestExportBatch(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()

	entities := []common.Entity{{ID: "entity_0", Text: "Apple", OwnerID: "u"}}
	graphID, err := s.WriteBatch(ctx, entities, nil, "u")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	export, err := s.ExportBatch(ctx, graphID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(export.Nodes) != 1 || export.Nodes[0].GraphID != graphID {
		t.Fatalf("unexpected export: %+v", export)
	}

	if _, err := s.ExportBatch(ctx, "missing"); err == nil {
		t.Fatal("expected error for unknown graph id")
	}
}

func TestProfileRoundTrip(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()

	got, err := s.Get(ctx, "unknown")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil profile for unknown user, got %+v", got)
	}

	profile := common.DefaultProfile("u")
	profile.RiskTolerance = "aggressive"
	if err := s.Put(ctx, profile); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := s.Get(ctx, "u")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded == nil || loaded.RiskTolerance != "aggressive" {
		t.Fatalf("unexpected profile: %+v", loaded)
	}
}

func TestProfileClonesDoNotShareState(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()

	stored := common.DefaultProfile("u")
	stored.InteractionHistory = []common.Interaction{{Query: "original"}}
	if err := s.Put(ctx, stored); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// mutating the profile handed to Put must not reach the store
	stored.Preferences["technology"] = 0.99
	stored.FinancialGoals[0] = "changed"
	stored.InteractionHistory[0].Query = "changed"

	first, err := s.Get(ctx, "u")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Preferences["technology"] != 0.5 {
		t.Fatalf("store shares the Preferences map with the caller: %v", first.Preferences)
	}
	if first.FinancialGoals[0] != "retirement" {
		t.Fatalf("store shares the FinancialGoals slice with the caller: %v", first.FinancialGoals)
	}
	if first.InteractionHistory[0].Query != "original" {
		t.Fatalf("store shares the InteractionHistory slice with the caller: %v", first.InteractionHistory)
	}

	// mutating a loaded profile without Put must not change stored state
	first.Preferences["technology"] = 0.99
	first.FinancialGoals[0] = "changed"
	first.InteractionHistory[0].Query = "changed"

	second, err := s.Get(ctx, "u")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Preferences["technology"] != 0.5 {
		t.Fatalf("stored profile mutated through a returned copy: %v", second.Preferences)
	}
	if second.FinancialGoals[0] != "retirement" {
		t.Fatalf("stored goals mutated through a returned copy: %v", second.FinancialGoals)
	}
	if second.InteractionHistory[0].Query != "original" {
		t.Fatalf("stored history mutated through a returned copy: %v", second.InteractionHistory)
	}
}
