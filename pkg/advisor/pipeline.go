package advisor

import (
	"context"
	"fmt"

	"github.com/lumen-fi/advisor/pkg/common"
)

// Request is one advisory call. DocumentPath present means
// ingest-then-answer; absent means answer-only. An empty Query with a
// DocumentPath ingests without answering.
type Request struct {
	Query        string  `json:"query"`
	OwnerID      string  `json:"owner_id"`
	DocumentPath *string `json:"document_path,omitempty"`

	// TopK bounds each retrieval branch; <= 0 falls back to the default.
	TopK int `json:"top_k,omitempty"`
}

// Response is the advisory result. Ingest is set when a document was
// processed; Answer is empty for ingest-only requests.
type Response struct {
	Answer string               `json:"answer,omitempty"`
	Ingest *common.IngestResult `json:"ingest,omitempty"`
}

// StageError annotates a pipeline failure with the stage it came from.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Advise runs the full pipeline for one request: optional ingestion, then
// retrieval and grounded response. Stages run in strict order; ingestion
// problems are reported in the result, not raised, so a degraded ingest
// still yields an answer.
func (c *Client) Advise(ctx context.Context, req Request) (*Response, error) {
	if req.OwnerID == "" {
		return nil, &StageError{Stage: "validate", Err: fmt.Errorf("owner id is required")}
	}
	if req.Query == "" && req.DocumentPath == nil {
		return nil, &StageError{Stage: "validate", Err: fmt.Errorf("query or document path is required")}
	}

	response := &Response{}

	if req.DocumentPath != nil {
		result := c.ProcessDocument(ctx, *req.DocumentPath, req.OwnerID)
		response.Ingest = &result
	}

	if req.Query == "" {
		return response, nil
	}

	evidence, err := c.retriever.Retrieve(ctx, req.Query, req.OwnerID, req.TopK)
	if err != nil {
		return nil, &StageError{Stage: "retrieve", Err: err}
	}

	answer, err := c.Respond(ctx, req.Query, req.OwnerID, evidence)
	if err != nil {
		return nil, &StageError{Stage: "respond", Err: err}
	}
	response.Answer = answer
	return response, nil
}
