// Package prefilter narrows a large article set down to the top K by
// semantic similarity to the company profile, before the expensive
// relevance-scoring stage. The pre-filter fails soft: if the embedding
// service is unavailable the input passes through unchanged and the result
// is flagged degraded.
package prefilter

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/jonathan/post-pilot/internal/types"
)

// DefaultBatchSize bounds the number of texts per embedding call.
const DefaultBatchSize = 100

// Embedder is the slice of the LLM client the pre-filter needs.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Result holds the pre-filter output.
type Result struct {
	Articles []types.Article
	Total    int  // input count before filtering
	Degraded bool // true when the embedding service failed and filtering was skipped
}

// PreFilter ranks articles by cosine similarity to a profile embedding.
type PreFilter struct {
	embedder  Embedder
	topK      int
	batchSize int
}

// New builds a PreFilter.
func New(embedder Embedder, topK int) *PreFilter {
	return &PreFilter{
		embedder:  embedder,
		topK:      topK,
		batchSize: DefaultBatchSize,
	}
}

// Filter returns the top K articles most similar to the profile. Articles
// without embeddings are embedded lazily in bounded batches. Ties are
// broken by recency, newer first.
func (p *PreFilter) Filter(ctx context.Context, articles []types.Article, profile *types.CompanyProfile) (*Result, error) {
	total := len(articles)
	if total == 0 {
		return &Result{Articles: nil, Total: 0}, nil
	}
	// Nothing to trim.
	if total <= p.topK {
		return &Result{Articles: articles, Total: total}, nil
	}

	profileVec, err := p.embedProfile(ctx, profile)
	if err != nil {
		// Degrade to a no-op rather than aborting the run.
		return &Result{Articles: articles, Total: total, Degraded: true}, nil
	}

	embedded, err := p.ensureEmbeddings(ctx, articles)
	if err != nil {
		return &Result{Articles: articles, Total: total, Degraded: true}, nil
	}

	type scored struct {
		article    types.Article
		similarity float64
	}
	scoredArticles := make([]scored, 0, len(embedded))
	for _, a := range embedded {
		scoredArticles = append(scoredArticles, scored{
			article:    a,
			similarity: CosineSimilarity(profileVec, a.Embedding),
		})
	}

	sort.SliceStable(scoredArticles, func(i, j int) bool {
		if scoredArticles[i].similarity != scoredArticles[j].similarity {
			return scoredArticles[i].similarity > scoredArticles[j].similarity
		}
		return scoredArticles[i].article.PublishedAt.After(scoredArticles[j].article.PublishedAt)
	})

	top := make([]types.Article, 0, p.topK)
	for i := 0; i < p.topK && i < len(scoredArticles); i++ {
		top = append(top, scoredArticles[i].article)
	}
	return &Result{Articles: top, Total: total}, nil
}

func (p *PreFilter) embedProfile(ctx context.Context, profile *types.CompanyProfile) ([]float32, error) {
	vecs, err := p.embedder.EmbedBatch(ctx, []string{profile.EmbeddingText()})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("expected 1 profile embedding, got %d", len(vecs))
	}
	return vecs[0], nil
}

// ensureEmbeddings fills in missing article embeddings in bounded batches.
// Articles that already carry an embedding are not re-embedded.
func (p *PreFilter) ensureEmbeddings(ctx context.Context, articles []types.Article) ([]types.Article, error) {
	out := make([]types.Article, len(articles))
	copy(out, articles)

	var missing []int
	for i, a := range out {
		if len(a.Embedding) == 0 {
			missing = append(missing, i)
		}
	}

	for start := 0; start < len(missing); start += p.batchSize {
		end := start + p.batchSize
		if end > len(missing) {
			end = len(missing)
		}
		batch := missing[start:end]

		texts := make([]string, len(batch))
		for bi, idx := range batch {
			texts[bi] = embeddingText(out[idx])
		}

		vecs, err := p.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, err
		}
		if len(vecs) != len(batch) {
			return nil, fmt.Errorf("embedding count mismatch: got %d for %d articles", len(vecs), len(batch))
		}
		for bi, idx := range batch {
			out[idx].Embedding = vecs[bi]
		}
	}
	return out, nil
}

// embeddingText combines title and a truncated summary for richer context.
func embeddingText(a types.Article) string {
	summary := a.Summary
	if len(summary) > 500 {
		summary = summary[:500]
	}
	if summary == "" {
		return a.Title
	}
	return a.Title + " " + summary
}

// CosineSimilarity computes the cosine similarity of two vectors.
// Mismatched lengths or zero vectors yield 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
