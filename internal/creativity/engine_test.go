package creativity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/post-pilot/internal/config"
	"github.com/jonathan/post-pilot/internal/types"
)

func engineConfig(hooks, frameworks int) *config.CreativityConfig {
	cfg := &config.CreativityConfig{
		MaxResampleAttempts: 10,
		StyleReferences: config.StyleReferences{
			Enabled:     true,
			Probability: 0.5,
			Authors: []config.StyleAuthor{
				{Name: "Direct operator", Style: "short sentences", UseFor: []string{"professional"}},
			},
		},
		Wildcards: config.Wildcards{
			Probability: 0.4,
			Constraints: []string{"mention a weekday", "no adjectives in line one"},
		},
		ContentAngles: []config.ContentAngle{
			{Name: "efficiency", KeyMessage: "hours reclaimed", Weight: 1},
		},
	}
	for i := 0; i < hooks; i++ {
		cfg.HookPatterns = append(cfg.HookPatterns, config.HookPattern{
			Name:   string(rune('a' + i)),
			Weight: 1,
		})
	}
	for i := 0; i < frameworks; i++ {
		cfg.Frameworks = append(cfg.Frameworks, config.Framework{
			Name:   string(rune('A' + i)),
			Weight: 1,
		})
	}
	return cfg
}

func TestGenerate_ExactCount(t *testing.T) {
	engine := NewEngine(engineConfig(5, 4), 42)

	contexts, err := engine.Generate("professional", 7)
	require.NoError(t, err)
	assert.Len(t, contexts, 7)
	for _, ctx := range contexts {
		assert.Equal(t, "professional", ctx.PersonaID)
		assert.NotEmpty(t, ctx.HookPattern)
		assert.NotEmpty(t, ctx.Framework)
		assert.Equal(t, "hours reclaimed", ctx.ContentAngle)
	}
}

func TestGenerate_UniqueWithinCapacity(t *testing.T) {
	// 5x4 = 20 combinations, asking for 8: no duplicates expected.
	cfg := engineConfig(5, 4)
	cfg.MaxResampleAttempts = 1000
	engine := NewEngine(cfg, 7)

	contexts, err := engine.Generate("professional", 8)
	require.NoError(t, err)

	seen := make(map[types.ContextKey]bool)
	for _, ctx := range contexts {
		assert.False(t, seen[ctx.Key()], "duplicate combination %+v", ctx.Key())
		seen[ctx.Key()] = true
	}
}

func TestGenerate_TerminatesBeyondCombinationSpace(t *testing.T) {
	// Only 3 combinations but 5 contexts requested: controlled repetition,
	// never an infinite loop.
	engine := NewEngine(engineConfig(3, 1), 11)

	contexts, err := engine.Generate("professional", 5)
	require.NoError(t, err)
	require.Len(t, contexts, 5)

	seen := make(map[types.ContextKey]int)
	for _, ctx := range contexts {
		seen[ctx.Key()]++
	}
	repeated := false
	for _, count := range seen {
		if count > 1 {
			repeated = true
		}
	}
	assert.True(t, repeated, "expected at least one repeated tuple")
}

func TestGenerate_HistorySpansCalls(t *testing.T) {
	cfg := engineConfig(4, 3)
	cfg.MaxResampleAttempts = 1000
	engine := NewEngine(cfg, 3)

	first, err := engine.Generate("professional", 4)
	require.NoError(t, err)
	second, err := engine.Generate("professional", 4)
	require.NoError(t, err)

	seen := make(map[types.ContextKey]bool)
	for _, ctx := range first {
		seen[ctx.Key()] = true
	}
	// 12 combinations, 8 drawn: the second batch should avoid the first.
	for _, ctx := range second {
		assert.False(t, seen[ctx.Key()], "second call repeated %+v", ctx.Key())
	}
}

func TestGenerate_FixedSeedReproducible(t *testing.T) {
	a, err := NewEngine(engineConfig(5, 4), 99).Generate("professional", 6)
	require.NoError(t, err)
	b, err := NewEngine(engineConfig(5, 4), 99).Generate("professional", 6)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestGenerate_OptionalDimensionsAreAbsentNotEmpty(t *testing.T) {
	engine := NewEngine(engineConfig(5, 4), 13)

	contexts, err := engine.Generate("professional", 50)
	require.NoError(t, err)

	sawStyle, sawNoStyle := false, false
	sawWildcard, sawNoWildcard := false, false
	for _, ctx := range contexts {
		if ctx.StyleReference != nil {
			assert.NotEmpty(t, *ctx.StyleReference)
			sawStyle = true
		} else {
			sawNoStyle = true
		}
		if ctx.Wildcard != nil {
			assert.NotEmpty(t, *ctx.Wildcard)
			sawWildcard = true
		} else {
			sawNoWildcard = true
		}
	}
	// With p=0.5 and p=0.4 over 50 draws both outcomes should appear.
	assert.True(t, sawStyle && sawNoStyle)
	assert.True(t, sawWildcard && sawNoWildcard)
}

func TestGenerate_StyleReferenceRespectsPersona(t *testing.T) {
	engine := NewEngine(engineConfig(5, 4), 29)

	// The only configured author is restricted to "professional".
	contexts, err := engine.Generate("witty", 30)
	require.NoError(t, err)
	for _, ctx := range contexts {
		assert.Nil(t, ctx.StyleReference)
	}
}

func TestGenerate_WeightedSelectionFavorsHeavyOptions(t *testing.T) {
	cfg := engineConfig(2, 1)
	cfg.HookPatterns[0].Weight = 9
	cfg.HookPatterns[1].Weight = 1
	cfg.MaxResampleAttempts = 0 // raw draws, no uniqueness pressure

	engine := NewEngine(cfg, 314)
	counts := make(map[string]int)
	contexts, err := engine.Generate("professional", 200)
	require.NoError(t, err)
	for _, ctx := range contexts {
		counts[ctx.HookPattern]++
	}

	assert.Greater(t, counts["a"], counts["b"]*3, "weight-9 hook should dominate weight-1 hook: %+v", counts)
}

func TestGenerate_ZeroRequest(t *testing.T) {
	engine := NewEngine(engineConfig(2, 2), 1)
	contexts, err := engine.Generate("professional", 0)
	require.NoError(t, err)
	assert.Empty(t, contexts)
}
