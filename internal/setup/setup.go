package setup

import (
	"github.com/lumen-fi/advisor/internal/util"
	"github.com/lumen-fi/advisor/pkg/ai"
	oll "github.com/lumen-fi/advisor/pkg/ai/ollama"
	oai "github.com/lumen-fi/advisor/pkg/ai/openai"
	"github.com/lumen-fi/advisor/pkg/loader"
	"github.com/lumen-fi/advisor/pkg/loader/pdf"
	"github.com/lumen-fi/advisor/pkg/logger"
)

// NewGateway builds the generation gateway from the environment: the
// primary provider per AI_ADAPTER, wrapped with retry, circuit breaking
// and an optional Ollama fallback (AI_FALLBACK_URL).
func NewGateway() *ai.Failover {
	adapter := util.GetEnvString("AI_ADAPTER", "openai")

	var primary ai.AdvisorAIClient
	switch adapter {
	case "ollama":
		client, err := oll.NewAdvisorOllamaClient(oll.NewAdvisorOllamaClientParams{
			EmbeddingModel: util.GetEnv("AI_EMBED_MODEL"),
			ChatModel:      util.GetEnv("AI_CHAT_MODEL"),
			Dimensions:     int(util.GetEnvNumeric("AI_EMBED_DIMENSIONS", 768)),

			BaseURL: util.GetEnv("AI_CHAT_URL"),
			ApiKey:  util.GetEnv("AI_CHAT_KEY"),
		})
		if err != nil {
			logger.Fatal("Could not create Ollama client", "err", err)
		}
		primary = client
	default:
		primary = oai.NewAdvisorOpenAIClient(oai.NewAdvisorOpenAIClientParams{
			EmbeddingModel: util.GetEnv("AI_EMBED_MODEL"),
			ChatModel:      util.GetEnv("AI_CHAT_MODEL"),
			Dimensions:     int(util.GetEnvNumeric("AI_EMBED_DIMENSIONS", 768)),

			EmbeddingURL: util.GetEnv("AI_EMBED_URL"),
			EmbeddingKey: util.GetEnv("AI_EMBED_KEY"),
			ChatURL:      util.GetEnv("AI_CHAT_URL"),
			ChatKey:      util.GetEnv("AI_CHAT_KEY"),
		})
	}

	var fallback ai.AdvisorAIClient
	if fallbackURL := util.GetEnvString("AI_FALLBACK_URL", ""); fallbackURL != "" {
		client, err := oll.NewAdvisorOllamaClient(oll.NewAdvisorOllamaClientParams{
			EmbeddingModel: util.GetEnv("AI_EMBED_MODEL"),
			ChatModel:      util.GetEnvString("AI_FALLBACK_MODEL", util.GetEnv("AI_CHAT_MODEL")),
			Dimensions:     int(util.GetEnvNumeric("AI_EMBED_DIMENSIONS", 768)),

			BaseURL: fallbackURL,
			ApiKey:  util.GetEnvString("AI_FALLBACK_KEY", ""),
		})
		if err != nil {
			logger.Fatal("Could not create fallback client", "err", err)
		}
		fallback = client
	}

	return ai.NewFailover(ai.NewFailoverParams{
		Primary:  primary,
		Fallback: fallback,
	})
}

// NewPartitionerRegistry builds the document partitioner routing for the
// supported file types.
func NewPartitionerRegistry() *loader.Registry {
	registry := loader.NewRegistry()

	text := loader.NewTextPartitioner()
	registry.Register(".txt", text)
	registry.Register(".md", text)
	registry.Register(".pdf", pdf.NewPDFPartitioner())

	return registry
}
