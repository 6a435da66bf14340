package retrieval

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/lumen-fi/advisor/pkg/ai"
	"github.com/lumen-fi/advisor/pkg/common"
	"github.com/lumen-fi/advisor/pkg/logger"
	"github.com/lumen-fi/advisor/pkg/store"
)

// DefaultTopK bounds both retrieval branches when the caller passes no
// limit: vector matches fetched and graph facts kept after deduplication.
const DefaultTopK = 50

// Orchestrator fuses vector and graph retrieval into one evidence bundle.
// The two branches run concurrently and degrade independently: a failed
// branch contributes an empty slice, never an error.
type Orchestrator struct {
	client ai.AdvisorAIClient
	vector store.VectorStorage
	graph  store.GraphStorage
}

// NewOrchestrator creates a retrieval orchestrator over the given stores.
func NewOrchestrator(
	client ai.AdvisorAIClient,
	vector store.VectorStorage,
	graph store.GraphStorage,
) *Orchestrator {
	return &Orchestrator{
		client: client,
		vector: vector,
		graph:  graph,
	}
}

// Retrieve returns the owner-scoped evidence for one query, each branch
// bounded by topK (<= 0 means DefaultTopK). The bundle is never nil; both
// slices may be empty when nothing relevant is stored or both branches
// degraded.
func (o *Orchestrator) Retrieve(
	ctx context.Context,
	query string,
	ownerID string,
	topK int,
) (*common.EvidenceBundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	bundle := &common.EvidenceBundle{
		VectorContexts: []string{},
		GraphFacts:     []common.Fact{},
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		bundle.VectorContexts = o.vectorBranch(ctx, query, ownerID, topK)
	}()
	go func() {
		defer wg.Done()
		bundle.GraphFacts = o.graphBranch(ctx, query, ownerID, topK)
	}()

	wg.Wait()
	return bundle, nil
}

// vectorBranch embeds the query and returns deduplicated chunk texts in
// relevance order.
func (o *Orchestrator) vectorBranch(ctx context.Context, query, ownerID string, topK int) []string {
	embedding, err := o.client.GenerateEmbedding(ctx, []byte(query))
	if err != nil {
		logger.Warn("[Retrieval] Query embedding failed, vector branch empty", "err", err)
		return []string{}
	}

	matches, err := o.vector.QueryChunks(ctx, embedding, ownerID, topK)
	if err != nil {
		logger.Warn("[Retrieval] Vector query failed, vector branch empty", "err", err)
		return []string{}
	}

	seen := make(map[string]struct{}, len(matches))
	contexts := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m.Text]; ok {
			continue
		}
		seen[m.Text] = struct{}{}
		contexts = append(contexts, m.Text)
	}
	return contexts
}

// graphBranch derives search terms from the query and returns matching
// facts. No usable terms is an empty branch, not an error.
func (o *Orchestrator) graphBranch(ctx context.Context, query, ownerID string, topK int) []common.Fact {
	terms := o.deriveSearchTerms(ctx, query)
	if len(terms) == 0 {
		return []common.Fact{}
	}

	facts, err := o.graph.QueryFacts(ctx, terms, ownerID, topK)
	if err != nil {
		logger.Warn("[Retrieval] Graph query failed, graph branch empty", "err", err)
		return []common.Fact{}
	}
	if facts == nil {
		facts = []common.Fact{}
	}
	return facts
}

// deriveSearchTerms asks the model for the query's key financial terms,
// normalized to lowercase.
func (o *Orchestrator) deriveSearchTerms(ctx context.Context, query string) []string {
	prompt := fmt.Sprintf(ai.SearchTermsPrompt, query)
	response, err := o.client.GenerateCompletion(ctx, prompt)
	if err != nil {
		logger.Warn("[Retrieval] Search term derivation failed, graph branch empty", "err", err)
		return nil
	}

	parts := strings.Split(response, ",")
	terms := make([]string, 0, len(parts))
	for _, p := range parts {
		term := strings.ToLower(strings.TrimSpace(p))
		if term == "" {
			continue
		}
		terms = append(terms, term)
	}
	return store.DedupeStrings(terms)
}
