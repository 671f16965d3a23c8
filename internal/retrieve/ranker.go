package retrieve

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/weaverhq/weaver/internal/embed"
)

// Scoring weights. Exact-name and lexical signals compensate for the
// weakness of embeddings (especially the hashed fallback) on identifiers.
const (
	exactNameBonus   = 0.35
	cosineWeight     = 0.45
	lexicalWeight    = 0.20
	defaultTopChunks = 10
)

var wordPattern = regexp.MustCompile(`[A-Za-z_][\w]*`)

// Match is one ranked retrieval result.
type Match struct {
	Chunk Chunk
	Score float64
}

// Search embeds the query and ranks a project's chunks by combined
// exact-name, cosine, and lexical-overlap score. A missing index returns an
// empty, error-free result.
func (ix *Indexer) Search(ctx context.Context, projectID, query string, topK int) []Match {
	index, ok := ix.indexes.Get(projectID)
	if !ok || len(index.Chunks) == 0 {
		return nil
	}
	if topK <= 0 {
		topK = defaultTopChunks
	}

	var queryVec []float32
	if vecs, err := ix.embedder.Embed(ctx, []string{query}); err == nil && len(vecs) == 1 {
		queryVec = vecs[0]
	}

	queryWords := significantWords(query)

	matches := make([]Match, 0, len(index.Chunks))
	for id, c := range index.Chunks {
		score := scoreChunk(c, query, queryWords, queryVec, index.Vectors[id])
		if score <= 0 {
			continue
		}
		matches = append(matches, Match{Chunk: c, Score: score})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Chunk.ID < matches[j].Chunk.ID
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches
}

func scoreChunk(c Chunk, query string, queryWords map[string]bool, queryVec, chunkVec []float32) float64 {
	var score float64

	if c.Name != "" && nameMatches(query, c.Name) {
		score += exactNameBonus
	}

	if len(queryVec) > 0 && len(chunkVec) > 0 {
		sim := embed.Cosine(queryVec, chunkVec)
		if sim > 0 {
			score += cosineWeight * sim
		}
	}

	score += lexicalWeight * lexicalOverlap(queryWords, c.Content)
	return score
}

// nameMatches reports a case-insensitive whole-word hit of the chunk name
// in the query.
func nameMatches(query, name string) bool {
	lowerName := strings.ToLower(name)
	for _, w := range wordPattern.FindAllString(strings.ToLower(query), -1) {
		if w == lowerName {
			return true
		}
	}
	return false
}

// lexicalOverlap is the fraction of significant query words present in the
// chunk body.
func lexicalOverlap(queryWords map[string]bool, body string) float64 {
	if len(queryWords) == 0 {
		return 0
	}
	bodyWords := make(map[string]bool)
	for _, w := range wordPattern.FindAllString(strings.ToLower(body), -1) {
		bodyWords[w] = true
	}
	hits := 0
	for w := range queryWords {
		if bodyWords[w] {
			hits++
		}
	}
	return float64(hits) / float64(len(queryWords))
}

var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "but": true, "by": true, "for": true, "from": true, "in": true,
	"is": true, "it": true, "of": true, "on": true, "or": true, "that": true,
	"the": true, "this": true, "to": true, "with": true, "you": true,
	"i": true, "we": true, "me": true, "my": true, "our": true, "your": true,
	"please": true, "should": true, "would": true, "could": true, "can": true,
	"will": true, "make": true, "want": true, "need": true, "have": true,
}

// significantWords returns the lowercase non-stopword tokens of text.
func significantWords(text string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if len(w) < 3 || stopWords[w] {
			continue
		}
		out[w] = true
	}
	return out
}
