package judging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/post-pilot/internal/llm"
	"github.com/jonathan/post-pilot/internal/types"
)

type generatorFunc func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)

func (f generatorFunc) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	return f(ctx, prompt, tier)
}

func passedVariant(id string, seq int) types.Variant {
	return types.Variant{
		ID:        id,
		Text:      "Post text for " + id,
		PersonaID: "professional",
		Sequence:  seq,
		Validation: &types.ValidationResult{
			Passed: true,
		},
	}
}

func failedVariant(id string, seq int) types.Variant {
	return types.Variant{
		ID:       id,
		Sequence: seq,
		Validation: &types.ValidationResult{
			Passed: false,
			Violations: []types.SlopViolation{
				{Category: types.CategoryBannedWord, Match: "delve"},
			},
		},
	}
}

func scoresJSON(t *testing.T, scores ...map[string]any) string {
	t.Helper()
	data, err := json.Marshal(map[string]any{"scores": scores})
	require.NoError(t, err)
	return string(data)
}

func score(id string, hook, distinct, relevance, fit float64) map[string]any {
	return map[string]any{
		"variant_id":      id,
		"hook_strength":   hook,
		"distinctiveness": distinct,
		"relevance":       relevance,
		"persona_fit":     fit,
		"rationale":       "scored " + id,
	}
}

func testProfile() *types.CompanyProfile {
	return &types.CompanyProfile{Name: "Acme Automation", CoreOffering: "back office automation"}
}

func testArticle() types.ScoredArticle {
	return types.ScoredArticle{
		Article: types.Article{Title: "Checkout APIs are opening up", Source: "TechCrunch", Summary: "..."},
	}
}

func TestJudge_SelectsHighestWeightedTotal(t *testing.T) {
	gen := generatorFunc(func(_ context.Context, _ string, _ llm.ModelTier) (string, error) {
		return scoresJSON(t,
			score("v1", 6, 6, 6, 6),
			score("v2", 9, 8, 7, 8),
			score("v3", 4, 5, 5, 5),
		), nil
	})
	judge := NewJudge(gen, testProfile())

	variants := []types.Variant{passedVariant("v1", 0), passedVariant("v2", 1), passedVariant("v3", 2)}
	judgment, err := judge.Judge(context.Background(), testArticle(), variants)
	require.NoError(t, err)

	assert.Equal(t, "v2", judgment.Winner.ID)
	assert.False(t, judgment.Fallback)
	assert.Len(t, judgment.AllScores, 3)

	// Components are normalized to [0,1]; anti-slop is 1.0 for a clean
	// variant, so the total matches the fixed weighting by hand.
	want := 0.30*0.9 + 0.25*1.0 + 0.20*0.8 + 0.15*0.7 + 0.10*0.8
	assert.InDelta(t, want, judgment.WinnerScore.WeightedTotal, 1e-9)
}

func TestJudge_InvalidVariantsNeverJudged(t *testing.T) {
	var sawPrompt string
	gen := generatorFunc(func(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
		sawPrompt = prompt
		return scoresJSON(t, score("v2", 7, 7, 7, 7)), nil
	})
	judge := NewJudge(gen, testProfile())

	variants := []types.Variant{failedVariant("v1", 0), passedVariant("v2", 1)}
	judgment, err := judge.Judge(context.Background(), testArticle(), variants)
	require.NoError(t, err)

	assert.Equal(t, "v2", judgment.Winner.ID)
	assert.NotContains(t, sawPrompt, "VARIANT v1")
	assert.Len(t, judgment.AllScores, 1)
}

func TestJudge_EmptyAfterValidation(t *testing.T) {
	gen := generatorFunc(func(_ context.Context, _ string, _ llm.ModelTier) (string, error) {
		t.Fatal("model must not be called with nothing to judge")
		return "", nil
	})
	judge := NewJudge(gen, testProfile())

	_, err := judge.Judge(context.Background(), testArticle(), []types.Variant{failedVariant("v1", 0)})
	assert.ErrorIs(t, err, ErrNoValidVariants)

	_, err = judge.Judge(context.Background(), testArticle(), nil)
	assert.ErrorIs(t, err, ErrNoValidVariants)
}

func TestJudge_TieBreaksToEarliestVariant(t *testing.T) {
	gen := generatorFunc(func(_ context.Context, _ string, _ llm.ModelTier) (string, error) {
		return scoresJSON(t,
			score("late", 8, 8, 8, 8),
			score("early", 8, 8, 8, 8),
		), nil
	})
	judge := NewJudge(gen, testProfile())

	// Input order deliberately reversed; Sequence decides the tie.
	variants := []types.Variant{passedVariant("late", 5), passedVariant("early", 2)}
	judgment, err := judge.Judge(context.Background(), testArticle(), variants)
	require.NoError(t, err)

	assert.Equal(t, "early", judgment.Winner.ID)
}

func TestJudge_FallbackOnUnparseableResponse(t *testing.T) {
	calls := 0
	gen := generatorFunc(func(_ context.Context, _ string, _ llm.ModelTier) (string, error) {
		calls++
		return "I refuse to emit JSON today.", nil
	})
	judge := NewJudge(gen, testProfile())

	variants := []types.Variant{passedVariant("v1", 3), passedVariant("v2", 1)}
	judgment, err := judge.Judge(context.Background(), testArticle(), variants)
	require.NoError(t, err)

	assert.Equal(t, 2, calls, "one retry before falling back")
	assert.True(t, judgment.Fallback)
	assert.Equal(t, "v2", judgment.Winner.ID, "earliest sequence wins the fallback")
	assert.InDelta(t, 0.5, judgment.WinnerScore.HookStrength, 1e-9)
}

func TestJudge_FallbackOnTransportError(t *testing.T) {
	gen := generatorFunc(func(_ context.Context, _ string, _ llm.ModelTier) (string, error) {
		return "", errors.New("connection reset")
	})
	judge := NewJudge(gen, testProfile())

	judgment, err := judge.Judge(context.Background(), testArticle(), []types.Variant{passedVariant("v1", 0)})
	require.NoError(t, err)
	assert.True(t, judgment.Fallback)
	assert.Equal(t, "v1", judgment.Winner.ID)
}

func TestJudge_MissingScoreGetsNeutralMidpoint(t *testing.T) {
	gen := generatorFunc(func(_ context.Context, _ string, _ llm.ModelTier) (string, error) {
		return scoresJSON(t, score("v1", 9, 9, 9, 9)), nil
	})
	judge := NewJudge(gen, testProfile())

	variants := []types.Variant{passedVariant("v1", 0), passedVariant("v2", 1)}
	judgment, err := judge.Judge(context.Background(), testArticle(), variants)
	require.NoError(t, err)

	require.Len(t, judgment.AllScores, 2)
	assert.Equal(t, "v1", judgment.Winner.ID)
	assert.InDelta(t, 0.5, judgment.AllScores[1].HookStrength, 1e-9)
}

func TestJudge_ScoresClampedToUnitRange(t *testing.T) {
	gen := generatorFunc(func(_ context.Context, _ string, _ llm.ModelTier) (string, error) {
		// Bypass schema bounds checking by returning value 10 exactly
		// and a negative handled via clamping in parse.
		return scoresJSON(t, score("v1", 10, 10, 10, 10)), nil
	})
	judge := NewJudge(gen, testProfile())

	judgment, err := judge.Judge(context.Background(), testArticle(), []types.Variant{passedVariant("v1", 0)})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, judgment.WinnerScore.HookStrength, 1e-9)
	assert.InDelta(t, 1.0, judgment.WinnerScore.WeightedTotal, 1e-9)
}

func TestAntiSlopComponent(t *testing.T) {
	clean := &types.ValidationResult{Passed: true}
	assert.InDelta(t, 1.0, antiSlopComponent(clean), 1e-9)

	warned := &types.ValidationResult{Passed: true, Warnings: []string{"wall_of_text"}}
	assert.InDelta(t, 0.9, antiSlopComponent(warned), 1e-9)

	dirty := &types.ValidationResult{
		Passed: false,
		Violations: []types.SlopViolation{
			{Category: types.CategoryBannedWord}, {Category: types.CategoryBannedPhrase},
		},
	}
	assert.InDelta(t, 0.5, antiSlopComponent(dirty), 1e-9)

	many := &types.ValidationResult{
		Violations: make([]types.SlopViolation, 10),
	}
	assert.InDelta(t, 0.0, antiSlopComponent(many), 1e-9)
	assert.InDelta(t, 0.0, antiSlopComponent(nil), 1e-9)
}

func TestBuildPrompt_ListsEveryVariant(t *testing.T) {
	judge := NewJudge(nil, testProfile())
	variants := []types.Variant{passedVariant("aa", 0), passedVariant("bb", 1)}
	prompt := judge.buildPrompt(testArticle(), variants)

	assert.Contains(t, prompt, "VARIANT aa")
	assert.Contains(t, prompt, "VARIANT bb")
	assert.Contains(t, prompt, "Acme Automation")
	assert.Contains(t, prompt, "Checkout APIs are opening up")
	assert.Contains(t, prompt, fmt.Sprintf("Variants to judge (%d)", len(variants)))
}
