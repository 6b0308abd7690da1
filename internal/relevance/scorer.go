// Package relevance scores articles against the company profile with
// fast-tier LLM calls and filters them to the most promising few.
package relevance

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/post-pilot/internal/llm"
	"github.com/jonathan/post-pilot/internal/prompts"
	"github.com/jonathan/post-pilot/internal/types"
)

// JSONGenerator is the slice of the LLM client the scorer needs.
type JSONGenerator interface {
	GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
}

// Scorer scores a single article for relevance to the company profile.
type Scorer struct {
	client JSONGenerator
}

// NewScorer builds a Scorer.
func NewScorer(client JSONGenerator) *Scorer {
	return &Scorer{client: client}
}

// scoreResponse is the expected JSON shape from the scoring model.
type scoreResponse struct {
	RelevanceScore    float64 `json:"relevance_score"`
	RelevanceReason   string  `json:"relevance_reason"`
	SuggestedAngle    string  `json:"suggested_angle"`
	CompanyConnection string  `json:"company_connection"`
	TargetICP         string  `json:"target_icp"`
}

// Score evaluates one article. A malformed response is retried once before
// the unit is treated as failed.
func (s *Scorer) Score(ctx context.Context, article types.Article, profile *types.CompanyProfile) (*types.ScoredArticle, error) {
	prompt := buildScoringPrompt(article, profile)

	resp, err := s.scoreOnce(ctx, prompt)
	if err != nil {
		// One local retry covers transient malformed output.
		resp, err = s.scoreOnce(ctx, prompt)
		if err != nil {
			return nil, err
		}
	}

	score := resp.RelevanceScore
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	return &types.ScoredArticle{
		Article:           article,
		RelevanceScore:    score,
		Rationale:         resp.RelevanceReason,
		SuggestedAngle:    resp.SuggestedAngle,
		CompanyConnection: resp.CompanyConnection,
		TargetAudience:    resp.TargetICP,
	}, nil
}

func (s *Scorer) scoreOnce(ctx context.Context, prompt string) (*scoreResponse, error) {
	raw, err := s.client.GenerateJSON(ctx, prompt, llm.TierFast)
	if err != nil {
		return nil, fmt.Errorf("relevance scoring call failed: %w", err)
	}

	var resp scoreResponse
	if err := llm.DecodeJSON(raw, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func buildScoringPrompt(article types.Article, profile *types.CompanyProfile) string {
	summary := article.Summary
	if len(summary) > 600 {
		summary = summary[:600]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Evaluate this news article for %s's social media content.\n\n", profile.Name)
	sb.WriteString(profile.FilterPrompt())
	sb.WriteString("\nARTICLE TO EVALUATE:\n")
	fmt.Fprintf(&sb, "Title: %s\n", article.Title)
	fmt.Fprintf(&sb, "Summary: %s\n", summary)
	fmt.Fprintf(&sb, "Source: %s\n", article.Source)
	sb.WriteString(prompts.MustGet("relevance.json", "task"))
	return sb.String()
}
