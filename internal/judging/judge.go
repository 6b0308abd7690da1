// Package judging scores validated variants against a fixed rubric and
// selects the winning post.
package judging

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jonathan/post-pilot/internal/llm"
	"github.com/jonathan/post-pilot/internal/schemas"
	"github.com/jonathan/post-pilot/internal/types"
)

// ErrNoValidVariants is returned when every variant failed validation and
// nothing is left to judge.
var ErrNoValidVariants = errors.New("no validated variants to judge")

// Penalties used for the locally derived anti-slop component. The model is
// never asked to re-score what the validator already measured.
const (
	violationPenalty = 0.25
	warningPenalty   = 0.10
)

// JSONGenerator is the slice of the LLM client the judge needs.
type JSONGenerator interface {
	GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
}

// Judgment is the outcome of one judging pass.
type Judgment struct {
	Winner      types.Variant
	WinnerScore types.JudgeScore
	AllScores   []types.JudgeScore
	Fallback    bool
}

// Judge scores variants in one batched model call.
type Judge struct {
	gen     JSONGenerator
	profile *types.CompanyProfile
}

func NewJudge(gen JSONGenerator, profile *types.CompanyProfile) *Judge {
	return &Judge{gen: gen, profile: profile}
}

type judgeResponse struct {
	Scores []struct {
		VariantID       string  `json:"variant_id"`
		HookStrength    float64 `json:"hook_strength"`
		Distinctiveness float64 `json:"distinctiveness"`
		Relevance       float64 `json:"relevance"`
		PersonaFit      float64 `json:"persona_fit"`
		Rationale       string  `json:"rationale"`
	} `json:"scores"`
}

// Judge scores every variant that passed validation and returns the winner.
// Variants without a passing validation result are never sent to the model.
// Ties on weighted total break toward the earliest-generated variant.
func (j *Judge) Judge(ctx context.Context, article types.ScoredArticle, variants []types.Variant) (*Judgment, error) {
	judgeable := make([]types.Variant, 0, len(variants))
	for _, v := range variants {
		if v.Validation != nil && v.Validation.Passed {
			judgeable = append(judgeable, v)
		}
	}
	if len(judgeable) == 0 {
		return nil, ErrNoValidVariants
	}
	// Earliest first so index order below matches generation order.
	sort.SliceStable(judgeable, func(a, b int) bool {
		return judgeable[a].Sequence < judgeable[b].Sequence
	})

	resp, err := j.scoreBatch(ctx, article, judgeable)
	if err != nil {
		// A judge that cannot produce scores still has to produce a
		// winner; neutral scores keep the run alive.
		return j.fallback(judgeable), nil
	}

	modelScores := make(map[string]types.JudgeScore, len(resp.Scores))
	for _, s := range resp.Scores {
		modelScores[s.VariantID] = types.JudgeScore{
			VariantID:       s.VariantID,
			HookStrength:    types.Clamp01(s.HookStrength / 10),
			Distinctiveness: types.Clamp01(s.Distinctiveness / 10),
			Relevance:       types.Clamp01(s.Relevance / 10),
			PersonaFit:      types.Clamp01(s.PersonaFit / 10),
			Rationale:       s.Rationale,
		}
	}

	judgment := &Judgment{AllScores: make([]types.JudgeScore, 0, len(judgeable))}
	winnerIdx := -1
	for i, v := range judgeable {
		score, ok := modelScores[v.ID]
		if !ok {
			// Model skipped this variant; neutral midpoint.
			score = neutralScore(v.ID)
		}
		score.AntiSlop = antiSlopComponent(v.Validation)
		score.WeightedTotal = score.ComputeWeightedTotal()
		judgment.AllScores = append(judgment.AllScores, score)

		if winnerIdx < 0 || score.WeightedTotal > judgment.AllScores[winnerIdx].WeightedTotal {
			winnerIdx = i
		}
	}

	judgment.Winner = judgeable[winnerIdx]
	judgment.WinnerScore = judgment.AllScores[winnerIdx]
	return judgment, nil
}

// scoreBatch sends all variants in a single call, retrying once on
// malformed output.
func (j *Judge) scoreBatch(ctx context.Context, article types.ScoredArticle, variants []types.Variant) (*judgeResponse, error) {
	prompt := j.buildPrompt(article, variants)

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		raw, err := j.gen.GenerateJSON(ctx, prompt, llm.TierCapable)
		if err != nil {
			return nil, err
		}

		cleaned := llm.CleanJSONBlock(raw)
		if err := schemas.ValidateJudgeResponse(cleaned); err != nil {
			lastErr = err
			continue
		}

		var resp judgeResponse
		if err := llm.DecodeJSON(cleaned, &resp); err != nil {
			lastErr = err
			continue
		}
		return &resp, nil
	}
	return nil, fmt.Errorf("malformed judge response after retry: %w", lastErr)
}

// fallback selects the earliest variant with neutral scores when the model
// response is unusable.
func (j *Judge) fallback(judgeable []types.Variant) *Judgment {
	scores := make([]types.JudgeScore, 0, len(judgeable))
	for _, v := range judgeable {
		score := neutralScore(v.ID)
		score.AntiSlop = antiSlopComponent(v.Validation)
		score.WeightedTotal = score.ComputeWeightedTotal()
		scores = append(scores, score)
	}
	return &Judgment{
		Winner:      judgeable[0],
		WinnerScore: scores[0],
		AllScores:   scores,
		Fallback:    true,
	}
}

func neutralScore(variantID string) types.JudgeScore {
	return types.JudgeScore{
		VariantID:       variantID,
		HookStrength:    0.5,
		Distinctiveness: 0.5,
		Relevance:       0.5,
		PersonaFit:      0.5,
		Rationale:       "no model score for this variant",
	}
}

// antiSlopComponent derives the anti-slop score from the validator result
// already attached to the variant. Judged variants carry zero violations,
// so warnings are what differentiates them.
func antiSlopComponent(result *types.ValidationResult) float64 {
	if result == nil {
		return 0
	}
	penalty := violationPenalty*float64(len(result.Violations)) +
		warningPenalty*float64(len(result.Warnings))
	return types.Clamp01(1 - penalty)
}
