package openai

import (
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// AdvisorOpenAIClient talks to OpenAI-compatible endpoints for the chat and
// embedding tasks of the advisor. Separate clients are kept for embeddings
// and chat so the two can point at different providers.
//
// An AdvisorOpenAIClient should be created using NewAdvisorOpenAIClient.
type AdvisorOpenAIClient struct {
	embeddingModel string
	chatModel      string
	dimensions     int
	timeoutSec     int

	ChatClient      *openai.Client
	EmbeddingClient *openai.Client
}

// NewAdvisorOpenAIClientParams defines the configuration parameters for
// creating a new AdvisorOpenAIClient.
//
// EmbeddingModel and ChatModel name the models used for the two task kinds.
// Dimensions fixes the embedding vector length for the process lifetime;
// shorter provider vectors are zero-padded and longer ones truncated.
// TimeoutSec bounds every request; zero applies the 60s default.
type NewAdvisorOpenAIClientParams struct {
	EmbeddingModel string
	ChatModel      string
	Dimensions     int
	TimeoutSec     int

	EmbeddingURL string
	EmbeddingKey string
	ChatURL      string
	ChatKey      string
}

const defaultDimensions = 768
const defaultTimeoutSec = 60

// NewAdvisorOpenAIClient creates and returns a new AdvisorOpenAIClient
// configured with the provided parameters.
//
// Example:
//
//	params := openai.NewAdvisorOpenAIClientParams{
//		EmbeddingModel: "text-embedding-3-small",
//		ChatModel:      "gpt-4o-mini",
//		EmbeddingKey:   os.Getenv("OPENAI_API_KEY"),
//		ChatKey:        os.Getenv("OPENAI_API_KEY"),
//	}
//	client := openai.NewAdvisorOpenAIClient(params)
func NewAdvisorOpenAIClient(
	params NewAdvisorOpenAIClientParams,
) *AdvisorOpenAIClient {
	dimensions := params.Dimensions
	if dimensions <= 0 {
		dimensions = defaultDimensions
	}
	timeoutSec := params.TimeoutSec
	if timeoutSec <= 0 {
		timeoutSec = defaultTimeoutSec
	}

	return &AdvisorOpenAIClient{
		embeddingModel: params.EmbeddingModel,
		chatModel:      params.ChatModel,
		dimensions:     dimensions,
		timeoutSec:     timeoutSec,

		ChatClient:      newOpenaiClient(params.ChatURL, params.ChatKey),
		EmbeddingClient: newOpenaiClient(params.EmbeddingURL, params.EmbeddingKey),
	}
}

func newOpenaiClient(
	baseURL string,
	apiKey string,
) *openai.Client {
	if apiKey == "" {
		return nil
	}
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}

	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(options...)

	return &client
}
