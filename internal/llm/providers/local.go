// File path: internal/llm/providers/local.go
package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/semantic"
)

// LocalProvider is a deterministic offline stand-in: chat echoes the last
// message and embeddings come from the token-hash embedder. It keeps the
// core fully functional without any external model.
type LocalProvider struct {
	embedder *semantic.HashEmbedder
}

func NewLocalProvider() *LocalProvider {
	return &LocalProvider{embedder: semantic.NewHashEmbedder(0)}
}

func (l *LocalProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("no messages provided")
	}
	last := messages[len(messages)-1].Content
	return "[local] " + strings.TrimSpace(last), nil
}

func (l *LocalProvider) Embed(ctx context.Context, input []string) ([][]float32, error) {
	return l.embedder.Embed(ctx, input)
}

func (l *LocalProvider) Name() string {
	return "local"
}
