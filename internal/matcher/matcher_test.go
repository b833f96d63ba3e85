package matcher

import (
	"context"
	"errors"
	"math"
	"testing"

	"brandforge/internal/core"
	"brandforge/internal/llm"
)

// fakeEmbedder returns canned vectors keyed by input text and records the
// batches it served.
type fakeEmbedder struct {
	vectors map[string][]float64
	batches [][]llm.TaskType
	err     error
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string, taskTypes []llm.TaskType) ([][]float64, error) {
	f.batches = append(f.batches, taskTypes)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float64, len(texts))
	for i, text := range texts {
		out[i] = f.vectors[text]
	}
	return out, nil
}

func rating(v float64) *float64 { return &v }

func TestCosineSimilarity(t *testing.T) {
	a := []float64{1, 2, 3}
	b := []float64{3, 2, 1}

	if got := CosineSimilarity(a, a); math.Abs(got-1) > 1e-9 {
		t.Errorf("sim(a,a) = %v, want 1", got)
	}
	if CosineSimilarity(a, b) != CosineSimilarity(b, a) {
		t.Error("cosine similarity must be symmetric")
	}
	if got := CosineSimilarity(a, b); got < -1 || got > 1 {
		t.Errorf("sim out of bounds: %v", got)
	}
	if got := CosineSimilarity([]float64{1, -1}, []float64{1, 1}); math.Abs(got) > 1e-9 {
		t.Errorf("orthogonal vectors should score 0, got %v", got)
	}

	// Degenerate inputs are defined as 0.
	if CosineSimilarity(nil, a) != 0 {
		t.Error("empty vector should score 0")
	}
	if CosineSimilarity([]float64{1, 2}, []float64{1, 2, 3}) != 0 {
		t.Error("mismatched lengths should score 0")
	}
	if CosineSimilarity([]float64{0, 0}, []float64{1, 2}) != 0 {
		t.Error("zero norm should score 0")
	}
}

func TestSuggest_FiltersSortsAndTruncates(t *testing.T) {
	query := Query{Title: "Morning skincare routine"}
	links := []core.AffiliateLink{
		{ID: "low", Name: "Tripod"},
		{ID: "tied-few-clicks", Name: "Serum A", Clicks: 10, Rating: rating(4.0)},
		{ID: "tied-many-clicks", Name: "Serum B", Clicks: 90},
		{ID: "best", Name: "Sunscreen"},
	}
	embedder := &fakeEmbedder{vectors: map[string][]float64{
		queryText(query):           {1, 0},
		candidateText(links[0]):    {0, 1},          // similarity 0 -> filtered
		candidateText(links[1]):    {0.8, 0.6},      // similarity 0.8
		candidateText(links[2]):    {0.8, 0.6},      // similarity 0.8, more clicks
		candidateText(links[3]):    {1, 0.0000001},  // similarity ~1
	}}

	got := New(embedder).Suggest(context.Background(), query, links, 2)
	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want 2", len(got))
	}
	if got[0].ID != "best" {
		t.Errorf("got[0] = %s, want best", got[0].ID)
	}
	if got[1].ID != "tied-many-clicks" {
		t.Errorf("got[1] = %s, want the click tiebreaker to win", got[1].ID)
	}
}

func TestSuggest_SingleBatchedRequest(t *testing.T) {
	query := Query{Title: "q"}
	links := []core.AffiliateLink{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}}
	embedder := &fakeEmbedder{vectors: map[string][]float64{}}

	New(embedder).Suggest(context.Background(), query, links, 5)

	if len(embedder.batches) != 1 {
		t.Fatalf("embedding requests = %d, want exactly one batch", len(embedder.batches))
	}
	taskTypes := embedder.batches[0]
	if len(taskTypes) != 3 {
		t.Fatalf("batch size = %d, want query + 2 candidates", len(taskTypes))
	}
	if taskTypes[0] != llm.TaskTypeQuery {
		t.Error("first entry must be tagged as the query")
	}
	for i, taskType := range taskTypes[1:] {
		if taskType != llm.TaskTypeDocument {
			t.Errorf("candidate %d tagged %q, want document", i, taskType)
		}
	}
}

func TestSuggest_RatingBreaksRemainingTies(t *testing.T) {
	query := Query{Title: "q"}
	links := []core.AffiliateLink{
		{ID: "unrated", Name: "A", Clicks: 5},
		{ID: "rated", Name: "B", Clicks: 5, Rating: rating(4.5)},
	}
	embedder := &fakeEmbedder{vectors: map[string][]float64{
		queryText(query):        {1, 0},
		candidateText(links[0]): {1, 0},
		candidateText(links[1]): {1, 0},
	}}

	got := New(embedder).Suggest(context.Background(), query, links, 2)
	if len(got) != 2 || got[0].ID != "rated" {
		t.Errorf("got = %v, want the rated link first (missing rating counts as 0)", got)
	}
}

func TestSuggest_NeverReturnsBelowThreshold(t *testing.T) {
	query := Query{Title: "q"}
	links := []core.AffiliateLink{{ID: "meh", Name: "A"}}
	embedder := &fakeEmbedder{vectors: map[string][]float64{
		queryText(query):        {1, 0},
		candidateText(links[0]): {0.74, math.Sqrt(1 - 0.74*0.74)}, // similarity 0.74
	}}

	if got := New(embedder).Suggest(context.Background(), query, links, 5); len(got) != 0 {
		t.Errorf("got = %v, want no candidates below the 0.75 threshold", got)
	}
}

func TestSuggest_EmbeddingFailureDegradesToEmpty(t *testing.T) {
	embedder := &fakeEmbedder{err: errors.New("503 backend unavailable")}
	got := New(embedder).Suggest(context.Background(), Query{Title: "q"}, []core.AffiliateLink{{ID: "a"}}, 3)
	if got != nil {
		t.Errorf("got = %v, want empty result on embedding failure", got)
	}
}

func TestSuggest_EmptyInputs(t *testing.T) {
	embedder := &fakeEmbedder{}
	if got := New(embedder).Suggest(context.Background(), Query{}, nil, 3); got != nil {
		t.Error("no candidates should yield no suggestions without an embedding call")
	}
	if len(embedder.batches) != 0 {
		t.Error("no embedding request should be issued for zero candidates")
	}
}
