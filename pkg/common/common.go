package common

import "time"

// EntityType classifies an extracted entity. The tagger only emits types
// from this whitelist; anything else found in a chunk is dropped.
type EntityType string

const (
	EntityTypeMoney        EntityType = "MONEY"
	EntityTypeOrg          EntityType = "ORG"
	EntityTypePercent      EntityType = "PERCENT"
	EntityTypeDate         EntityType = "DATE"
	EntityTypeProduct      EntityType = "PRODUCT"
	EntityTypeQuantity     EntityType = "QUANTITY"
	EntityTypeLocation     EntityType = "LOCATION"
	EntityTypeLLMExtracted EntityType = "LLM_EXTRACTED"
)

// RelationCoOccurrence is the type stamped on edges asserting only that two
// entities appeared in the same chunk.
const RelationCoOccurrence = "co-occurrence"

// LLMChunkIndex marks entities that were produced by the model-assisted fact
// pass rather than by the tagger, and therefore have no source chunk.
const LLMChunkIndex = -1

// Chunk is a bounded-size text segment derived from a source document.
// Chunks are immutable once created; one embedding and zero or more
// entities derive from each chunk.
type Chunk struct {
	Text           string `json:"text"`
	SourceDocument string `json:"source_document"`
	OwnerID        string `json:"owner_id"`
	Index          int    `json:"index"`
}

// Entity is a node in the knowledge graph. Its ID is unique within the
// graph batch it was extracted in.
type Entity struct {
	ID         string     `json:"id"`
	Text       string     `json:"text"`
	Type       EntityType `json:"type"`
	ChunkIndex int        `json:"chunk_index"`
	OwnerID    string     `json:"owner_id"`
	GraphID    string     `json:"graph_id"`
}

// Relationship is a directed edge between two entities of the same
// extraction pass. Co-occurrence edges carry the chunk text as context;
// fact edges carry the model's relationship type and optional value.
type Relationship struct {
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
	Type     string `json:"type"`
	Context  string `json:"context"`
	Value    string `json:"value"`
	OwnerID  string `json:"owner_id"`
	GraphID  string `json:"graph_id"`
}

// Fact is a resolved graph edge returned by a fact query, with entity ids
// replaced by their display text.
type Fact struct {
	Entity1      string `json:"entity1"`
	Relationship string `json:"relationship"`
	Entity2      string `json:"entity2"`
	Value        string `json:"value"`
	Context      string `json:"context"`
}

// Key returns the deduplication key for a fact. Two facts with the same
// key are considered duplicates regardless of differing value or context;
// the first occurrence wins.
func (f Fact) Key() [3]string {
	return [3]string{f.Entity1, f.Relationship, f.Entity2}
}

// EvidenceBundle is the fused, deduplicated retrieval result for one query.
// VectorContexts preserve the backend's relevance ranking and contain no
// exact-text duplicates; GraphFacts preserve first-seen order and contain
// no duplicate (entity1, relationship, entity2) triples.
type EvidenceBundle struct {
	VectorContexts []string `json:"vector_contexts"`
	GraphFacts     []Fact   `json:"graph_facts"`
}

// Interaction is one answered query in a user's history.
type Interaction struct {
	Query           string    `json:"query"`
	Timestamp       time.Time `json:"timestamp"`
	ResponseSummary string    `json:"response_summary"`
}

// MaxInteractionHistory bounds the profile's interaction history; the
// oldest entries are evicted first.
const MaxInteractionHistory = 20

// UserProfile is the durable per-user preference and goal state. It is
// default-created on first access and updated after every answered query.
// Preference scores always stay within [0,1].
type UserProfile struct {
	UserID             string             `json:"user_id"`
	RiskTolerance      string             `json:"risk_tolerance"`
	FinancialGoals     []string           `json:"financial_goals"`
	InvestmentHorizon  string             `json:"investment_horizon"`
	Preferences        map[string]float64 `json:"preferences"`
	InteractionHistory []Interaction      `json:"interaction_history"`
}

// DefaultProfile returns the profile created on a user's first access.
func DefaultProfile(userID string) *UserProfile {
	return &UserProfile{
		UserID:            userID,
		RiskTolerance:     "moderate",
		FinancialGoals:    []string{"retirement", "investment"},
		InvestmentHorizon: "long-term",
		Preferences: map[string]float64{
			"sustainability": 0.5,
			"technology":     0.5,
			"healthcare":     0.5,
		},
		InteractionHistory: []Interaction{},
	}
}

// IngestStatus reports the terminal state of a document-processing run.
type IngestStatus string

const (
	IngestStatusOK      IngestStatus = "ok"
	IngestStatusPartial IngestStatus = "partial"
	IngestStatusError   IngestStatus = "error"
)

// IngestResult is the processing summary returned by every ingestion run,
// including failed ones.
type IngestResult struct {
	DocumentPath           string       `json:"document_path"`
	Status                 IngestStatus `json:"status"`
	Message                string       `json:"message,omitempty"`
	ChunksProcessed        int          `json:"chunks_processed"`
	EntitiesExtracted      int          `json:"entities_extracted"`
	RelationshipsExtracted int          `json:"relationships_extracted"`
	KnowledgeGraphID       string       `json:"knowledge_graph_id,omitempty"`
}
