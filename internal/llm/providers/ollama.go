// File path: internal/llm/providers/ollama.go
package providers

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/schema"

	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/common"
)

// OllamaProvider serves chat and embeddings from a local Ollama server via
// langchaingo. Used when no OpenAI credentials are configured.
type OllamaProvider struct {
	model *ollama.LLM
	name  string
}

func NewOllamaProvider(serverURL, modelName string) (*OllamaProvider, error) {
	if modelName == "" {
		modelName = "llama3"
	}
	opts := []ollama.Option{ollama.WithModel(modelName)}
	if serverURL != "" {
		opts = append(opts, ollama.WithServerURL(serverURL))
	}
	model, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("init ollama provider: %w", err)
	}
	common.Logger().Info("llm: ollama provider configured", "model", modelName, "server", serverURL)
	return &OllamaProvider{model: model, name: modelName}, nil
}

func (o *OllamaProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	content := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		role := schema.ChatMessageTypeHuman
		switch msg.Role {
		case "system":
			role = schema.ChatMessageTypeSystem
		case "assistant":
			role = schema.ChatMessageTypeAI
		}
		content = append(content, llms.TextParts(role, msg.Content))
	}
	// Temperature zero keeps replays deterministic.
	resp, err := o.model.GenerateContent(ctx, content, llms.WithTemperature(0))
	if err != nil {
		common.Logger().Error("llm: ollama chat failed", "error", err)
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return resp.Choices[0].Content, nil
}

func (o *OllamaProvider) Embed(ctx context.Context, input []string) ([][]float32, error) {
	if len(input) == 0 {
		return nil, nil
	}
	vectors, err := o.model.CreateEmbedding(ctx, input)
	if err != nil {
		common.Logger().Error("llm: ollama embedding failed", "error", err)
		return nil, err
	}
	return vectors, nil
}

func (o *OllamaProvider) Name() string {
	return "ollama"
}
