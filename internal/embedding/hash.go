package embedding

import (
	"context"
	"hash/fnv"

	"github.com/BiradarScripts/Djaan/internal/textnorm"
	"github.com/BiradarScripts/Djaan/pkg/utils"
)

const (
	DefaultHashDimensions = 384

	wordWeight    = 0.7
	trigramWeight = 0.3
	trigramSize   = 3
)

// HashEmbedder is a deterministic, offline embedder. Each word and character trigram
// is hashed into a bucket; texts sharing vocabulary get a high cosine similarity.
type HashEmbedder struct {
	dimensions int
}

// NewHashEmbedder returns an embedder producing vectors of the given dimensions.
func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = DefaultHashDimensions
	}
	return &HashEmbedder{dimensions: dimensions}
}

// Embed returns the unit-length bag-of-words vector for text. Text without words yields a zero vector.
func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	emb := make([]float32, e.dimensions)
	for _, word := range textnorm.Words(text) {
		emb[bucket(word, e.dimensions)] += wordWeight
		runes := []rune(word)
		for i := 0; i+trigramSize <= len(runes); i++ {
			emb[bucket(string(runes[i:i+trigramSize]), e.dimensions)] += trigramWeight
		}
	}
	utils.NormalizeL2(emb)
	return emb, nil
}

// EmbedBatch calls Embed for each text.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedEach(ctx, e, texts)
}

// Dimensions returns the embedding dimension.
func (e *HashEmbedder) Dimensions() int {
	return e.dimensions
}

// ModelName identifies the hashing scheme.
func (e *HashEmbedder) ModelName() string {
	return "hash-bow-v1"
}

// Close is a no-op for HashEmbedder.
func (e *HashEmbedder) Close() error {
	return nil
}

func bucket(token string, dims int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(token))
	return int(h.Sum32() % uint32(dims))
}
