package analysis

import (
	"math"
	"regexp"
	"strings"
)

// EmbeddingDim is the fixed dimensionality of conversation embeddings.
const EmbeddingDim = 50

// EmbeddingModel tags persisted vectors with the generator that produced
// them, so a future model swap can tell old rows apart.
const EmbeddingModel = "simple-v1"

var nonWordRe = regexp.MustCompile(`\W+`)

// ConversationText flattens a transcript into the "role: content" line form
// the embedding is computed over.
func ConversationText(msgs []Message) string {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, m.Role+": "+m.Content)
	}
	return strings.Join(lines, "\n")
}

// GenerateEmbedding projects text onto a fixed-length vector: lowercase
// tokens longer than two characters are counted, each distinct word lands in
// the bucket given by its character-code sum modulo the dimension, and
// colliding words accumulate. The result is L2-normalized, or all-zero when
// no token qualifies. It is a coarse bag-of-words projection, not a semantic
// embedding; the only contract callers rely on is determinism, fixed length,
// and unit (or zero) norm.
func GenerateEmbedding(text string) []float32 {
	vec := make([]float32, EmbeddingDim)

	words := nonWordRe.Split(strings.ToLower(text), -1)
	counts := make(map[string]int)
	total := 0
	for _, w := range words {
		if len(w) <= 2 {
			continue
		}
		counts[w]++
		total++
	}
	if total == 0 {
		return vec
	}

	for w, n := range counts {
		sum := 0
		for _, r := range w {
			sum += int(r)
		}
		vec[sum%EmbeddingDim] += float32(n) / float32(total)
	}

	var mag float64
	for _, v := range vec {
		mag += float64(v) * float64(v)
	}
	mag = math.Sqrt(mag)
	if mag == 0 {
		return vec
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / mag)
	}
	return vec
}
