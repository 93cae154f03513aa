// File path: internal/semantic/index.go
package semantic

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/catalog"
	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/common"
)

// Embedder is the narrow contract the index needs from an embedding model.
// Any implementation (remote service, local model, deterministic hash for
// tests) is acceptable.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Document is the immutable per-column sentence the index is built from.
type Document struct {
	Dataset string
	Column  string
	Text    string
}

// Hit is one ranked (dataset, column) candidate.
type Hit struct {
	Dataset string
	Column  string
	Score   float64
}

// Index is an in-memory dense-vector nearest-neighbor index over per-column
// description sentences. It is immutable after Build.
type Index struct {
	docs     []Document
	vectors  [][]float32
	embedder Embedder
	floor    float64
}

const defaultFloor = 0.35

// BuildDocuments derives one semantic document per catalog column.
func BuildDocuments(reg *catalog.Registry) []Document {
	var docs []Document
	for _, entry := range reg.Entries() {
		for _, col := range entry.Columns {
			desc := col.Description
			if desc == "" {
				desc = fmt.Sprintf("valores do tipo %s", col.Type)
			}
			text := fmt.Sprintf(
				"Column '%s' in '%s' holds %s. The dataset is described as: %s",
				col.Name, entry.DatasetName, desc, entry.Description,
			)
			docs = append(docs, Document{Dataset: entry.DatasetName, Column: col.Name, Text: text})
		}
	}
	return docs
}

// Build embeds one document per catalog column and returns the index. The
// floor argument discards weak hits at search time; zero selects the
// default of 0.35.
func Build(ctx context.Context, reg *catalog.Registry, embedder Embedder, floor float64) (*Index, error) {
	if embedder == nil {
		return nil, fmt.Errorf("semantic: embedder required")
	}
	if floor <= 0 {
		floor = defaultFloor
	}
	docs := BuildDocuments(reg)
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Text
	}
	vectors, err := embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("semantic: embed documents: %w", err)
	}
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("semantic: embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}
	common.Logger().Info("semantic: index built", "documents", len(docs), "floor", floor)
	return &Index{docs: docs, vectors: vectors, embedder: embedder, floor: floor}, nil
}

// Search returns at most k (dataset, column) hits whose similarity to the
// text exceeds the floor, sorted by descending score with ties broken by
// dataset then column name. An empty result means no confident binding.
func (ix *Index) Search(ctx context.Context, text string, k int) ([]Hit, error) {
	if ix == nil || len(ix.docs) == 0 {
		return nil, nil
	}
	if k <= 0 {
		k = 3
	}
	queryVecs, err := ix.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("semantic: embed query: %w", err)
	}
	if len(queryVecs) == 0 {
		return nil, nil
	}
	query := queryVecs[0]
	hits := make([]Hit, 0, len(ix.docs))
	for i, doc := range ix.docs {
		score := similarity(query, ix.vectors[i])
		if score < ix.floor {
			continue
		}
		hits = append(hits, Hit{Dataset: doc.Dataset, Column: doc.Column, Score: score})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if hits[i].Dataset != hits[j].Dataset {
			return hits[i].Dataset < hits[j].Dataset
		}
		return hits[i].Column < hits[j].Column
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// similarity maps cosine distance onto [0,1] monotonically. Negative
// cosine carries no binding signal and is clamped to zero so the floor
// behaves the same for signed and positive-space embeddings.
func similarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if cos <= 0 {
		return 0
	}
	if cos > 1 {
		return 1
	}
	return cos
}
