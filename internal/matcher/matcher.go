package matcher

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"

	"brandforge/internal/core"
	"brandforge/internal/llm"
	"brandforge/internal/logger"
)

// SimilarityThreshold is the minimum cosine similarity for a candidate to
// be suggested at all.
const SimilarityThreshold = 0.75

// Query is the post content affiliate products are ranked against.
type Query struct {
	Title   string
	Content string
	Tags    []string
}

// Matcher ranks affiliate product candidates against post content by
// embedding similarity. Suggestion is best-effort: every failure degrades
// to an empty result instead of propagating, so it can never block the
// caller's primary workflow.
type Matcher struct {
	embedder llm.Embedder
}

// New creates a matcher over the given embedder.
func New(embedder llm.Embedder) *Matcher {
	return &Matcher{embedder: embedder}
}

// Suggest returns the topN candidates most similar to the query, best
// first. The query and all candidates are embedded in one batched request,
// the query tagged as a retrieval query and every candidate as a document.
// Candidates below SimilarityThreshold are dropped; survivors are ordered
// by similarity, then clicks, then rating (a missing rating counts as 0).
func (m *Matcher) Suggest(ctx context.Context, query Query, candidates []core.AffiliateLink, topN int) []core.AffiliateLink {
	if len(candidates) == 0 || topN <= 0 {
		return nil
	}

	texts := make([]string, 0, len(candidates)+1)
	taskTypes := make([]llm.TaskType, 0, len(candidates)+1)
	texts = append(texts, queryText(query))
	taskTypes = append(taskTypes, llm.TaskTypeQuery)
	for _, candidate := range candidates {
		texts = append(texts, candidateText(candidate))
		taskTypes = append(taskTypes, llm.TaskTypeDocument)
	}

	vectors, err := m.embedder.EmbedBatch(ctx, texts, taskTypes)
	if err != nil {
		logger.Warn("embedding request failed, skipping product suggestions", "error", err.Error())
		return nil
	}
	if len(vectors) != len(texts) {
		logger.Warn("embedding response size mismatch, skipping product suggestions", "got", len(vectors), "want", len(texts))
		return nil
	}

	queryVector := vectors[0]
	type scored struct {
		link       core.AffiliateLink
		similarity float64
	}
	var results []scored
	for i, candidate := range candidates {
		similarity := CosineSimilarity(queryVector, vectors[i+1])
		if similarity >= SimilarityThreshold {
			results = append(results, scored{link: candidate, similarity: similarity})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].similarity != results[j].similarity {
			return results[i].similarity > results[j].similarity
		}
		if results[i].link.Clicks != results[j].link.Clicks {
			return results[i].link.Clicks > results[j].link.Clicks
		}
		return ratingOrZero(results[i].link) > ratingOrZero(results[j].link)
	})

	if len(results) > topN {
		results = results[:topN]
	}
	out := make([]core.AffiliateLink, len(results))
	for i, r := range results {
		out[i] = r.link
	}
	return out
}

// CosineSimilarity is dot(a,b) / (|a|*|b|), or 0 when either vector is
// empty, the lengths differ, or either norm is zero.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

func queryText(query Query) string {
	parts := []string{query.Title, query.Content}
	parts = append(parts, query.Tags...)
	return joinNonEmpty(parts)
}

func candidateText(link core.AffiliateLink) string {
	parts := []string{link.Name, link.Provider, link.Description}
	parts = append(parts, link.Features...)
	parts = append(parts, link.UseCases...)
	parts = append(parts, link.Reviews)
	if link.Rating != nil {
		parts = append(parts, "rated "+strconv.FormatFloat(*link.Rating, 'f', -1, 64)+" stars")
	}
	return joinNonEmpty(parts)
}

func ratingOrZero(link core.AffiliateLink) float64 {
	if link.Rating == nil {
		return 0
	}
	return *link.Rating
}

func joinNonEmpty(parts []string) string {
	var kept []string
	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			kept = append(kept, strings.TrimSpace(part))
		}
	}
	return strings.Join(kept, "\n")
}
