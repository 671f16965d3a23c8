package embed

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`[A-Za-z_][\w]*|\d+`)

// HashEmbedder is the deterministic fallback: a hashed bag-of-words vector.
// Identical input always produces identical output, and the dimensionality
// matches whatever the remote provider would have returned.
type HashEmbedder struct {
	dimension int
}

// NewHashEmbedder creates a HashEmbedder producing vectors of the given
// dimension.
func NewHashEmbedder(dimension int) *HashEmbedder {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &HashEmbedder{dimension: dimension}
}

// Dimension returns the vector length this embedder produces.
func (h *HashEmbedder) Dimension() int { return h.dimension }

// Embed never fails and ignores the context; it exists to satisfy the
// Embedder interface.
func (h *HashEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = h.vector(t)
	}
	return out, nil
}

func (h *HashEmbedder) vector(text string) []float32 {
	vec := make([]float32, h.dimension)
	words := tokenPattern.FindAllString(strings.ToLower(text), -1)
	for _, w := range words {
		hasher := fnv.New32a()
		hasher.Write([]byte(w))
		sum := hasher.Sum32()
		idx := int(sum % uint32(h.dimension))
		// Sign from a second bit of the hash spreads mass around zero so
		// unrelated texts do not all point the same way.
		if sum&0x80000000 != 0 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}
	return normalize(vec)
}

func normalize(vec []float32) []float32 {
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}
