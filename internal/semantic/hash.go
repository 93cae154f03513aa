// File path: internal/semantic/hash.go
package semantic

import (
	"context"
	"hash/fnv"
	"math"
)

// HashEmbedder produces deterministic token-hash vectors. It stands in for
// a real embedding model in tests and when no provider is configured; the
// vectors carry no semantics beyond lexical overlap, which is enough for
// catalog-sized corpora.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder returns a hash embedder with the given dimensionality.
// Zero or negative selects the default of 256.
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = 256
	}
	return &HashEmbedder{dim: dim}
}

func (h *HashEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = h.embedOne(text)
	}
	return out, nil
}

func (h *HashEmbedder) embedOne(text string) []float32 {
	vec := make([]float32, h.dim)
	for _, token := range Tokens(text) {
		hasher := fnv.New64a()
		_, _ = hasher.Write([]byte(token))
		sum := hasher.Sum64()
		bucket := int(sum % uint64(h.dim))
		sign := float32(1)
		if (sum>>32)&1 == 1 {
			sign = -1
		}
		vec[bucket] += sign
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec
}
