// Package embedding provides text embedding providers and a query cache.
package embedding

import (
	"context"
	"strconv"
)

// Embedder produces vector embeddings for text.
// Implementations must return vectors of Dimensions() length for every input.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	ModelName() string
	Close() error
}

// Signature identifies the vector space e produces: its model name and configured dimension.
// Vectors from embedders with different signatures must never share an index.
func Signature(e Embedder) string {
	return e.ModelName() + "/" + strconv.Itoa(e.Dimensions())
}

// embedEach implements EmbedBatch in terms of Embed.
func embedEach(ctx context.Context, e Embedder, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}
