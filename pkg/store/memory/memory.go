package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lumen-fi/advisor/pkg/common"
	"github.com/lumen-fi/advisor/pkg/store"
)

// Storage is an in-memory implementation of the storage interfaces, used in
// tests and local development. All operations are safe for concurrent use.
type Storage struct {
	mu sync.RWMutex

	vectors  []vectorRecord
	graphs   map[string]*store.GraphExport
	profiles map[string]*common.UserProfile

	graphSeq int
}

type vectorRecord struct {
	chunk     common.Chunk
	embedding []float32
}

// NewStorage creates an empty in-memory store.
func NewStorage() *Storage {
	return &Storage{
		graphs:   map[string]*store.GraphExport{},
		profiles: map[string]*common.UserProfile{},
	}
}

// UpsertChunks stores the chunks with their embeddings.
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

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range chunks {
		s.vectors = append(s.vectors, vectorRecord{
			chunk:     chunks[i],
			embedding: embeddings[i],
		})
	}
	return len(chunks), nil
}

// QueryChunks returns the owner's topK most similar chunks by cosine
// similarity.
func (s *Storage) QueryChunks(
	ctx context.Context,
	embedding []float32,
	ownerID string,
	topK int,
) ([]store.ChunkMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]store.ChunkMatch, 0, topK)
	for _, rec := range s.vectors {
		if rec.chunk.OwnerID != ownerID {
			continue
		}
		matches = append(matches, store.ChunkMatch{
			Text:           rec.chunk.Text,
			SourceDocument: rec.chunk.SourceDocument,
			Score:          cosine(embedding, rec.embedding),
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// WriteBatch stores one extraction batch under a fresh graph id.
func (s *Storage) WriteBatch(
	ctx context.Context,
	entities []common.Entity,
	relationships []common.Relationship,
	ownerID string,
) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.graphSeq++
	graphID := fmt.Sprintf("%s_%s_%d", ownerID, time.Now().Format("20060102150405"), s.graphSeq)

	export := &store.GraphExport{GraphID: graphID}
	seen := map[string]struct{}{}
	for _, e := range entities {
		if _, ok := seen[e.ID]; ok {
			continue
		}
		seen[e.ID] = struct{}{}
		e.GraphID = graphID
		export.Nodes = append(export.Nodes, e)
	}
	for _, r := range relationships {
		r.GraphID = graphID
		export.Edges = append(export.Edges, r)
	}
	s.graphs[graphID] = export
	return graphID, nil
}

// QueryFacts returns facts whose endpoints match any term, deduplicated by
// triple with the first occurrence winning.
func (s *Storage) QueryFacts(
	ctx context.Context,
	terms []string,
	ownerID string,
	limit int,
) ([]common.Fact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	graphIDs := make([]string, 0, len(s.graphs))
	for id := range s.graphs {
		graphIDs = append(graphIDs, id)
	}
	sort.Strings(graphIDs)

	var facts []common.Fact
	for _, term := range terms {
		lower := strings.ToLower(strings.TrimSpace(term))
		if lower == "" {
			continue
		}
		for _, id := range graphIDs {
			g := s.graphs[id]
			for _, edge := range g.Edges {
				if edge.OwnerID != ownerID {
					continue
				}
				source, target, ok := resolveEndpoints(g, edge)
				if !ok {
					continue
				}
				if !strings.Contains(strings.ToLower(source), lower) &&
					!strings.Contains(strings.ToLower(target), lower) {
					continue
				}
				facts = append(facts, common.Fact{
					Entity1:      source,
					Relationship: edge.Type,
					Entity2:      target,
					Value:        edge.Value,
					Context:      edge.Context,
				})
			}
		}
	}

	facts = store.DedupeFactsFirstWins(facts)
	if limit > 0 && len(facts) > limit {
		facts = facts[:limit]
	}
	return facts, nil
}

func resolveEndpoints(g *store.GraphExport, edge common.Relationship) (string, string, bool) {
	var source, target string
	for _, n := range g.Nodes {
		if n.ID == edge.SourceID {
			source = n.Text
		}
		if n.ID == edge.TargetID {
			target = n.Text
		}
	}
	if source == "" || target == "" {
		return "", "", false
	}
	return source, target, true
}

// ExportBatch returns the stored batch, or an error for an unknown id.
func (s *Storage) ExportBatch(ctx context.Context, graphID string) (*store.GraphExport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	export, ok := s.graphs[graphID]
	if !ok {
		return nil, fmt.Errorf("unknown graph id %q", graphID)
	}
	return export, nil
}

// Get returns the stored profile, or (nil, nil) for an unknown user.
func (s *Storage) Get(ctx context.Context, userID string) (*common.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[userID]
	if !ok {
		return nil, nil
	}
	return cloneProfile(profile), nil
}

// Put stores the profile.
func (s *Storage) Put(ctx context.Context, profile *common.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles[profile.UserID] = cloneProfile(profile)
	return nil
}

// cloneProfile copies the profile including its maps and slices, so callers
// and the store never share mutable state.
func cloneProfile(profile *common.UserProfile) *common.UserProfile {
	clone := *profile
	if profile.FinancialGoals != nil {
		clone.FinancialGoals = append([]string(nil), profile.FinancialGoals...)
	}
	if profile.Preferences != nil {
		clone.Preferences = make(map[string]float64, len(profile.Preferences))
		for k, v := range profile.Preferences {
			clone.Preferences[k] = v
		}
	}
	if profile.InteractionHistory != nil {
		clone.InteractionHistory = append([]common.Interaction(nil), profile.InteractionHistory...)
	}
	return &clone
}

func cosine(a, b []float32) float64 {
	n := min(len(a), len(b))
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
