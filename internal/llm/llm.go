// File path: internal/llm/llm.go
package llm

import (
	"os"
	"strings"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/common"
	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/llm/providers"
)

type Message = providers.Message

type Provider = providers.Provider

// NewProvider selects a provider from the environment: OpenAI when an API
// key is configured, a local Ollama server when OLLAMA_HOST is set, and the
// deterministic local stub otherwise. embedModel overrides the embedding
// model name for remote providers.
func NewProvider(embedModel string) Provider {
	logger := common.Logger()
	if apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); apiKey != "" {
		opts := []option.RequestOption{option.WithAPIKey(apiKey)}
		if endpoint := strings.TrimSpace(os.Getenv("OPENAI_ENDPOINT")); endpoint != "" {
			logger.Info("llm: configuring OpenAI client with custom endpoint", "endpoint", endpoint)
			opts = append(opts, option.WithBaseURL(endpoint))
		}
		client := openai.NewClient(opts...)
		logger.Info("llm: OpenAI provider selected")
		return providers.NewOpenAIProvider(client, embedModel)
	}
	if host := strings.TrimSpace(os.Getenv("OLLAMA_HOST")); host != "" {
		provider, err := providers.NewOllamaProvider(host, strings.TrimSpace(os.Getenv("OLLAMA_MODEL")))
		if err == nil {
			logger.Info("llm: ollama provider selected", "host", host)
			return provider
		}
		logger.Warn("llm: ollama provider unavailable; falling back to local", "error", err)
	}
	logger.Warn("llm: no model credentials configured; using deterministic local provider")
	return providers.NewLocalProvider()
}
