package generation

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/post-pilot/internal/config"
	"github.com/jonathan/post-pilot/internal/creativity"
	"github.com/jonathan/post-pilot/internal/llm"
	"github.com/jonathan/post-pilot/internal/types"
)

type fakeGenerator struct {
	respond func(prompt string, call int64) (string, error)
	calls   atomic.Int64
}

func (f *fakeGenerator) GenerateJSON(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	call := f.calls.Add(1)
	return f.respond(prompt, call)
}

func (f *fakeGenerator) GetModel(llm.ModelTier) string { return "fake-model" }

func variantsJSON(texts ...string) string {
	var sb strings.Builder
	sb.WriteString(`{"variants": [`)
	for i, text := range texts {
		if i > 0 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, `{"text": %q, "what_makes_it_different": "route %d"}`, text, i)
	}
	sb.WriteString(`]}`)
	return sb.String()
}

func testPersonas() []types.Persona {
	return []types.Persona{
		{ID: "professional", Name: "The Operator", VoiceTraits: []string{"direct"}},
		{ID: "witty", Name: "The Dry Observer"},
		{ID: "ai_meta", Name: "The Builder"},
	}
}

func testCreativityConfig() *config.CreativityConfig {
	return &config.CreativityConfig{
		MaxResampleAttempts: 10,
		HookPatterns: []config.HookPattern{
			{Name: "contrarian_take", Weight: 3},
			{Name: "specific_number", Weight: 3},
			{Name: "quiet_observation", Weight: 1},
		},
		Frameworks: []config.Framework{
			{Name: "problem_agitate_solve", Weight: 2},
			{Name: "myth_bust", Weight: 1},
		},
		ContentAngles: []config.ContentAngle{
			{Name: "efficiency", KeyMessage: "hours reclaimed", Weight: 1},
		},
	}
}

func testPool(t *testing.T, gen JSONGenerator) *Pool {
	t.Helper()
	engine := creativity.NewEngine(testCreativityConfig(), 42)
	validator := creativity.NewValidator(config.AntiSlopConfig{})
	profile := &types.CompanyProfile{
		Name:         "Acme Automation",
		Tagline:      "ops on autopilot",
		CoreOffering: "e-commerce back office automation",
	}
	return NewPool(gen, engine, profile, validator)
}

func testArticle() types.ScoredArticle {
	return types.ScoredArticle{
		Article: types.Article{
			ID:      "a1",
			Title:   "Shopify opens its checkout to external agents",
			Source:  "TechCrunch",
			Summary: "A new API lets third parties drive checkout flows.",
		},
		RelevanceScore: 0.85,
		SuggestedAngle: "what this means for ops teams",
	}
}

func TestAssignUnits_Distribution(t *testing.T) {
	pool := testPool(t, &fakeGenerator{})

	units, err := pool.AssignUnits(testPersonas(), 7)
	require.NoError(t, err)
	require.Len(t, units, 7)

	perPersona := make(map[string]int)
	for i, unit := range units {
		assert.Equal(t, i, unit.ID)
		assert.Equal(t, unit.Persona.ID, unit.Context.PersonaID)
		perPersona[unit.Persona.ID]++
	}
	for id, count := range perPersona {
		assert.GreaterOrEqual(t, count, 2, "persona %s under-assigned", id)
	}
}

func TestAssignUnits_NoPersonas(t *testing.T) {
	pool := testPool(t, &fakeGenerator{})
	_, err := pool.AssignUnits(nil, 7)
	assert.Error(t, err)
}

func TestRun_CollectsVariantsAcrossUnits(t *testing.T) {
	gen := &fakeGenerator{
		respond: func(string, int64) (string, error) {
			return variantsJSON("First take on the story.", "Second take on the story."), nil
		},
	}
	pool := testPool(t, gen)
	units, err := pool.AssignUnits(testPersonas(), 3)
	require.NoError(t, err)

	result, err := pool.Run(context.Background(), testArticle(), units)
	require.NoError(t, err)
	assert.Empty(t, result.Failed)
	assert.Len(t, result.Variants, 6)

	for i, v := range result.Variants {
		assert.Equal(t, i, v.Sequence)
		assert.NotEmpty(t, v.ID)
		assert.Equal(t, "fake-model", v.Metadata.Model)
		assert.NotEmpty(t, v.PersonaID)
	}
	// Sequence follows unit order, not completion order.
	assert.Equal(t, 0, result.Variants[0].Metadata.GeneratorID)
	assert.Equal(t, 2, result.Variants[5].Metadata.GeneratorID)
}

func TestRun_ToleratesPartialFailure(t *testing.T) {
	gen := &fakeGenerator{
		respond: func(prompt string, _ int64) (string, error) {
			if strings.Contains(prompt, "The Dry Observer") {
				return "", fmt.Errorf("model overloaded")
			}
			return variantsJSON("Take one.", "Take two."), nil
		},
	}
	pool := testPool(t, gen)
	units, err := pool.AssignUnits(testPersonas(), 3)
	require.NoError(t, err)

	result, err := pool.Run(context.Background(), testArticle(), units)
	require.NoError(t, err)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "witty", result.Failed[0].PersonaID)
	assert.Len(t, result.Variants, 4)
}

func TestRun_AllUnitsFail(t *testing.T) {
	gen := &fakeGenerator{
		respond: func(string, int64) (string, error) {
			return "", fmt.Errorf("model overloaded")
		},
	}
	pool := testPool(t, gen)
	units, err := pool.AssignUnits(testPersonas(), 3)
	require.NoError(t, err)

	_, err = pool.Run(context.Background(), testArticle(), units)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 3 generation units failed")
}

func TestRun_TruncatesExcessVariants(t *testing.T) {
	gen := &fakeGenerator{
		respond: func(string, int64) (string, error) {
			return variantsJSON("v1", "v2", "v3", "v4", "v5", "v6"), nil
		},
	}
	pool := testPool(t, gen)
	units, err := pool.AssignUnits(testPersonas()[:1], 1)
	require.NoError(t, err)

	result, err := pool.Run(context.Background(), testArticle(), units)
	require.NoError(t, err)
	assert.Len(t, result.Variants, maxVariantsPerUnit)
}

func TestRun_RetriesMalformedResponseOnce(t *testing.T) {
	gen := &fakeGenerator{
		respond: func(_ string, call int64) (string, error) {
			if call == 1 {
				return "here are your posts: enjoy!", nil
			}
			return "```json\n" + variantsJSON("Clean take.", "Other take.") + "\n```", nil
		},
	}
	pool := testPool(t, gen)
	units, err := pool.AssignUnits(testPersonas()[:1], 1)
	require.NoError(t, err)

	result, err := pool.Run(context.Background(), testArticle(), units)
	require.NoError(t, err)
	assert.Len(t, result.Variants, 2)
	assert.EqualValues(t, 2, gen.calls.Load())
}

func TestRun_MalformedTwiceFailsUnit(t *testing.T) {
	gen := &fakeGenerator{
		respond: func(string, int64) (string, error) {
			return "not json", nil
		},
	}
	pool := testPool(t, gen)
	units, err := pool.AssignUnits(testPersonas()[:1], 1)
	require.NoError(t, err)

	_, err = pool.Run(context.Background(), testArticle(), units)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed generator response")
}

func TestBuildPrompt_ContainsAllSections(t *testing.T) {
	pool := testPool(t, &fakeGenerator{})
	units, err := pool.AssignUnits(testPersonas()[:1], 1)
	require.NoError(t, err)

	prompt := pool.buildPrompt(testArticle(), units[0])
	assert.Contains(t, prompt, "Acme Automation")
	assert.Contains(t, prompt, "The Operator")
	assert.Contains(t, prompt, units[0].Context.HookPattern)
	assert.Contains(t, prompt, "Shopify opens its checkout")
	assert.Contains(t, prompt, "Banned patterns")
	assert.Contains(t, prompt, "delve")
}
