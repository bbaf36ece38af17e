package global

import (
	"math"

	"github.com/mnemosyne/mnemosyne/internal/indexutil"
	"github.com/mnemosyne/mnemosyne/pkg/types"
)

// VectorDimension is GlobalLayer's default fixed vector dimension.
const VectorDimension = 100

// Embed derives a deterministic fixed-dimension vector from content:
// tokens are hashed into the vector's dimensions with a normalized
// frequency, so the same content always yields the same vector without
// any ML/embedding-model dependency.
func Embed(content string, dims int) []float64 {
	vec := make([]float64, dims)
	tokens := indexutil.Tokenize(content)
	if len(tokens) == 0 {
		return vec
	}
	for _, tok := range tokens {
		h := indexutil.ContentHash32(tok)
		vec[int(h)%dims] += 1.0
	}
	n := float64(len(tokens))
	for i := range vec {
		vec[i] /= n
	}
	return normalize(vec)
}

func normalize(vec []float64) []float64 {
	var sumSq float64
	for _, v := range vec {
		sumSq += v * v
	}
	norm := math.Sqrt(sumSq)
	if norm == 0 {
		return vec
	}
	out := make([]float64, len(vec))
	for i, v := range vec {
		out[i] = v / norm
	}
	return out
}

// CosineSimilarity returns the cosine similarity of two equal-length
// vectors in [-1, 1]; zero vectors yield 0.
func CosineSimilarity(a, b []float64) float64 {
	var dot, magA, magB float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// ContentSimilarity stands in for a real vector index: no external
// embedding service is wired into the core, so relationship detection,
// autolink, and conflict detection all fall back to this deterministic
// hashed-bag-of-words embedding when no dedicated similarity source is
// configured.
func ContentSimilarity(a, b types.MemoryItem) float64 {
	return CosineSimilarity(
		Embed(a.Content, VectorDimension),
		Embed(b.Content, VectorDimension),
	)
}
