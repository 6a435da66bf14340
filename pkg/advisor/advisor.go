package advisor

import (
	"context"
	"fmt"

	"github.com/panjf2000/ants/v2"

	"github.com/lumen-fi/advisor/pkg/ai"
	"github.com/lumen-fi/advisor/pkg/chunker"
	"github.com/lumen-fi/advisor/pkg/extract"
	"github.com/lumen-fi/advisor/pkg/loader"
	"github.com/lumen-fi/advisor/pkg/profile"
	"github.com/lumen-fi/advisor/pkg/retrieval"
	"github.com/lumen-fi/advisor/pkg/store"
)

// Gateway is the generation surface the advisor needs: the raw client
// methods plus the never-failing Complete used for user-facing text.
type Gateway interface {
	ai.AdvisorAIClient
	Complete(ctx context.Context, prompt string, opts ...ai.GenerateOption) string
}

// Client drives the advisory pipelines: document ingestion and
// personalized, evidence-grounded answering.
type Client struct {
	registry  *loader.Registry
	chunker   *chunker.Chunker
	extractor *extract.Extractor
	retriever *retrieval.Orchestrator
	profiles  *profile.Manager
	gateway   Gateway
	vector    store.VectorStorage
	graph     store.GraphStorage
	pool      *ants.Pool
}

// NewClientParams carries the dependencies for a Client. Registry is
// optional; when nil a text/PDF default registry is built.
type NewClientParams struct {
	Registry *loader.Registry
	Gateway  Gateway
	Vector   store.VectorStorage
	Graph    store.GraphStorage
	Profiles *profile.Manager

	// PoolSize bounds concurrent embedding batches during ingestion.
	// Zero means 4.
	PoolSize int
}

// NewClient wires an advisor Client from its dependencies.
func NewClient(params NewClientParams) (*Client, error) {
	if params.Gateway == nil {
		return nil, fmt.Errorf("gateway is required")
	}
	if params.Vector == nil || params.Graph == nil {
		return nil, fmt.Errorf("vector and graph storage are required")
	}
	if params.Profiles == nil {
		return nil, fmt.Errorf("profile manager is required")
	}

	registry := params.Registry
	if registry == nil {
		registry = loader.NewRegistry()
		text := loader.NewTextPartitioner()
		registry.Register(".txt", text)
		registry.Register(".md", text)
	}

	poolSize := params.PoolSize
	if poolSize <= 0 {
		poolSize = 4
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}

	return &Client{
		registry:  registry,
		chunker:   chunker.New(),
		extractor: extract.NewExtractor(params.Gateway),
		retriever: retrieval.NewOrchestrator(params.Gateway, params.Vector, params.Graph),
		profiles:  params.Profiles,
		gateway:   params.Gateway,
		vector:    params.Vector,
		graph:     params.Graph,
		pool:      pool,
	}, nil
}

// Close releases the ingestion worker pool.
func (c *Client) Close() {
	c.pool.Release()
}
