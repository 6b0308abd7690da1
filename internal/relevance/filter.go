package relevance

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/post-pilot/internal/types"
)

// maxConcurrentScores bounds simultaneous scoring calls so a large article
// set does not trip provider rate limits.
const maxConcurrentScores = 8

// Filter runs the relevance scorer over all articles concurrently and keeps
// the best ones.
type Filter struct {
	scorer     *Scorer
	threshold  float64
	maxResults int
}

// NewFilter builds a Filter.
func NewFilter(scorer *Scorer, threshold float64, maxResults int) *Filter {
	return &Filter{scorer: scorer, threshold: threshold, maxResults: maxResults}
}

// Result carries the surviving articles plus per-batch diagnostics.
type Result struct {
	Articles []types.ScoredArticle
	Scored   int // calls that returned a usable score
	Failed   int // calls that errored and were excluded
}

// Filter scores every article concurrently. A failed call is recorded as
// score 0 with a "scoring failed" rationale and excluded; it never aborts
// the batch. If no article clears the threshold, the single highest-scoring
// article is returned so downstream stages always have input when any
// article exists at all.
func (f *Filter) Filter(ctx context.Context, articles []types.Article, profile *types.CompanyProfile) (*Result, error) {
	if len(articles) == 0 {
		return &Result{}, nil
	}

	// Each goroutine writes only its own slot; failed units stay nil.
	scored := make([]*types.ScoredArticle, len(articles))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentScores)
	for i, article := range articles {
		g.Go(func() error {
			result, err := f.scorer.Score(gCtx, article, profile)
			if err != nil {
				// One bad unit must never cancel its siblings.
				return nil
			}
			scored[i] = result
			return nil
		})
	}
	_ = g.Wait() // units never return errors

	res := &Result{}
	usable := make([]types.ScoredArticle, 0, len(scored))
	for _, s := range scored {
		if s == nil {
			res.Failed++
			continue
		}
		res.Scored++
		usable = append(usable, *s)
	}
	sort.SliceStable(usable, func(i, j int) bool {
		return usable[i].RelevanceScore > usable[j].RelevanceScore
	})

	above := make([]types.ScoredArticle, 0, len(usable))
	for _, s := range usable {
		if s.RelevanceScore >= f.threshold {
			above = append(above, s)
		}
	}

	if len(above) == 0 {
		if len(usable) == 0 {
			return res, nil
		}
		// Nothing cleared the threshold; hand downstream the best we have.
		res.Articles = usable[:1]
		return res, nil
	}

	if len(above) > f.maxResults {
		above = above[:f.maxResults]
	}
	res.Articles = above
	return res, nil
}
