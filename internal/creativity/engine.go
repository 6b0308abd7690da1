package creativity

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/jonathan/post-pilot/internal/config"
	"github.com/jonathan/post-pilot/internal/types"
)

// Engine produces creativity contexts for generation units: weighted draws
// over the configured hook, framework, and angle tables, with optional
// style and wildcard dimensions.
//
// An Engine is scoped to a single run. Its combination history lives on the
// engine, not in process globals, so concurrent runs never interfere.
type Engine struct {
	cfg *config.CreativityConfig
	rng *rand.Rand

	mu      sync.Mutex
	history map[types.ContextKey]bool
}

// NewEngine builds an Engine. A zero seed draws one from the clock; tests
// pass a fixed seed to get exact draws.
func NewEngine(cfg *config.CreativityConfig, seed int64) *Engine {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Engine{
		cfg:     cfg,
		rng:     rand.New(rand.NewSource(seed)),
		history: make(map[types.ContextKey]bool),
	}
}

// Generate returns n contexts for the given persona. Each draw is checked
// against the engine's history on its (hook, framework, persona) tuple and
// resampled up to the configured retry budget; when retries exhaust the
// collision is accepted so the call always terminates with exactly n
// contexts.
func (e *Engine) Generate(personaID string, n int) ([]types.CreativityContext, error) {
	if n <= 0 {
		return nil, nil
	}
	if len(e.cfg.HookPatterns) == 0 || len(e.cfg.Frameworks) == 0 {
		return nil, fmt.Errorf("creativity config has no hook patterns or frameworks")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	contexts := make([]types.CreativityContext, 0, n)
	for i := 0; i < n; i++ {
		ctx := e.draw(personaID)
		for attempt := 0; attempt < e.cfg.MaxResampleAttempts && e.history[ctx.Key()]; attempt++ {
			ctx = e.draw(personaID)
		}
		e.history[ctx.Key()] = true
		contexts = append(contexts, ctx)
	}
	return contexts, nil
}

// draw builds one context without consulting history.
func (e *Engine) draw(personaID string) types.CreativityContext {
	hook := e.pickHook()
	framework := e.pickFramework()
	angle := e.pickAngle()

	ctx := types.CreativityContext{
		PersonaID:     personaID,
		HookPattern:   hook.Name,
		HookGuidance:  hook.Description,
		Framework:     framework.Name,
		FrameworkDesc: framework.Description,
		ContentAngle:  angle.KeyMessage,
		Seed:          e.rng.Int63(),
	}

	if ref := e.pickStyleReference(personaID); ref != "" {
		ctx.StyleReference = &ref
	}
	if wc := e.pickWildcard(); wc != "" {
		ctx.Wildcard = &wc
	}
	return ctx
}

func (e *Engine) pickHook() config.HookPattern {
	weights := make([]float64, len(e.cfg.HookPatterns))
	for i, h := range e.cfg.HookPatterns {
		weights[i] = h.Weight
	}
	return e.cfg.HookPatterns[e.weightedIndex(weights)]
}

func (e *Engine) pickFramework() config.Framework {
	weights := make([]float64, len(e.cfg.Frameworks))
	for i, f := range e.cfg.Frameworks {
		weights[i] = f.Weight
	}
	return e.cfg.Frameworks[e.weightedIndex(weights)]
}

func (e *Engine) pickAngle() config.ContentAngle {
	weights := make([]float64, len(e.cfg.ContentAngles))
	for i, a := range e.cfg.ContentAngles {
		weights[i] = a.Weight
	}
	return e.cfg.ContentAngles[e.weightedIndex(weights)]
}

// pickStyleReference returns a rendered style influence, or "" when the
// dimension is not drawn or no author fits the persona.
func (e *Engine) pickStyleReference(personaID string) string {
	refs := e.cfg.StyleReferences
	if !refs.Enabled || len(refs.Authors) == 0 {
		return ""
	}
	if e.rng.Float64() >= refs.Probability {
		return ""
	}

	var valid []config.StyleAuthor
	for _, a := range refs.Authors {
		for _, p := range a.UseFor {
			if p == personaID {
				valid = append(valid, a)
				break
			}
		}
	}
	if len(valid) == 0 {
		return ""
	}

	author := valid[e.rng.Intn(len(valid))]
	return fmt.Sprintf("Write with influence from %s: %s", author.Name, author.Style)
}

// pickWildcard returns a wildcard constraint, or "" when not drawn.
func (e *Engine) pickWildcard() string {
	wc := e.cfg.Wildcards
	if len(wc.Constraints) == 0 {
		return ""
	}
	if e.rng.Float64() >= wc.Probability {
		return ""
	}
	return wc.Constraints[e.rng.Intn(len(wc.Constraints))]
}

// weightedIndex performs cumulative-weight sampling over the weight table.
func (e *Engine) weightedIndex(weights []float64) int {
	var total float64
	for _, w := range weights {
		total += w
	}
	target := e.rng.Float64() * total
	var cumulative float64
	for i, w := range weights {
		cumulative += w
		if target < cumulative {
			return i
		}
	}
	return len(weights) - 1
}

// CombinationSpace returns the number of distinct (hook, framework) pairs
// available for one persona. Useful for sizing pools relative to variety.
func (e *Engine) CombinationSpace() int {
	return len(e.cfg.HookPatterns) * len(e.cfg.Frameworks)
}
