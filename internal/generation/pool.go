// Package generation runs the concurrent generator pool: each unit pairs a
// persona with a creativity context and produces several candidate post
// variants from the selected article in a single model call.
package generation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/post-pilot/internal/creativity"
	"github.com/jonathan/post-pilot/internal/llm"
	"github.com/jonathan/post-pilot/internal/schemas"
	"github.com/jonathan/post-pilot/internal/types"
)

const (
	// defaultUnitTimeout bounds one generator call. A stuck unit must not
	// stall the whole pool.
	defaultUnitTimeout = 120 * time.Second

	minVariantsPerUnit = 2
	maxVariantsPerUnit = 4
)

// JSONGenerator is the slice of the LLM client the pool needs.
type JSONGenerator interface {
	GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
	GetModel(tier llm.ModelTier) string
}

// Unit is one generation assignment: a persona plus the creativity context
// it draws from.
type Unit struct {
	ID      int
	Persona types.Persona
	Context types.CreativityContext
}

// UnitError records a failed generation unit. Unit failures are tolerated
// as long as at least one unit produces variants.
type UnitError struct {
	UnitID    int
	PersonaID string
	Err       error
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("generation unit %d (persona %s): %v", e.UnitID, e.PersonaID, e.Err)
}

func (e *UnitError) Unwrap() error {
	return e.Err
}

// Result bundles pool output with per-unit diagnostics.
type Result struct {
	Variants []types.Variant
	Failed   []*UnitError
}

// Pool fans generation units out concurrently.
type Pool struct {
	gen         JSONGenerator
	engine      *creativity.Engine
	profile     *types.CompanyProfile
	slopRules   string
	unitTimeout time.Duration
}

// NewPool builds a Pool. The validator contributes the banned-pattern
// digest injected into every generation prompt.
func NewPool(gen JSONGenerator, engine *creativity.Engine, profile *types.CompanyProfile, validator *creativity.Validator) *Pool {
	return &Pool{
		gen:         gen,
		engine:      engine,
		profile:     profile,
		slopRules:   validator.RulesForPrompt(),
		unitTimeout: defaultUnitTimeout,
	}
}

// WithUnitTimeout overrides the per-unit deadline. Used by tests.
func (p *Pool) WithUnitTimeout(d time.Duration) *Pool {
	p.unitTimeout = d
	return p
}

// AssignUnits distributes n units across the personas and draws a creativity
// context for each.
func (p *Pool) AssignUnits(personas []types.Persona, n int) ([]Unit, error) {
	if len(personas) == 0 {
		return nil, fmt.Errorf("no personas configured")
	}

	// Round-robin keeps the split balanced: with n at least twice the
	// persona count every persona lands at least two units.
	counts := make([]int, len(personas))
	for k := 0; k < n; k++ {
		counts[k%len(personas)]++
	}

	units := make([]Unit, 0, n)
	for i, persona := range personas {
		if counts[i] == 0 {
			continue
		}
		contexts, err := p.engine.Generate(persona.ID, counts[i])
		if err != nil {
			return nil, fmt.Errorf("drawing contexts for persona %s: %w", persona.ID, err)
		}
		for _, cctx := range contexts {
			units = append(units, Unit{ID: len(units), Persona: persona, Context: cctx})
		}
	}
	return units, nil
}

// Run executes all units concurrently against the article. Individual unit
// failures are collected, not propagated; Run errors only when every unit
// fails or the pool is empty.
func (p *Pool) Run(ctx context.Context, article types.ScoredArticle, units []Unit) (*Result, error) {
	if len(units) == 0 {
		return nil, fmt.Errorf("generator pool has no units")
	}

	variantsByUnit := make([][]types.Variant, len(units))
	failures := make([]*UnitError, len(units))

	// Each goroutine writes only its own slot, so no lock is needed.
	g, gctx := errgroup.WithContext(ctx)
	for i, unit := range units {
		i, unit := i, unit
		g.Go(func() error {
			variants, err := p.runUnit(gctx, article, unit)
			if err != nil {
				failures[i] = &UnitError{UnitID: unit.ID, PersonaID: unit.Persona.ID, Err: err}
				return nil
			}
			variantsByUnit[i] = variants
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{}
	for _, fe := range failures {
		if fe != nil {
			result.Failed = append(result.Failed, fe)
		}
	}
	for _, vs := range variantsByUnit {
		result.Variants = append(result.Variants, vs...)
	}
	if len(result.Variants) == 0 {
		return nil, fmt.Errorf("all %d generation units failed, first: %w", len(units), result.Failed[0])
	}

	// Sequence numbers reflect (unit, variant) order, which is stable
	// regardless of goroutine completion order.
	sort.SliceStable(result.Variants, func(a, b int) bool {
		if result.Variants[a].Metadata.GeneratorID != result.Variants[b].Metadata.GeneratorID {
			return result.Variants[a].Metadata.GeneratorID < result.Variants[b].Metadata.GeneratorID
		}
		return result.Variants[a].Sequence < result.Variants[b].Sequence
	})
	for i := range result.Variants {
		result.Variants[i].Sequence = i
	}
	return result, nil
}

type unitResponse struct {
	Variants []struct {
		Text                 string `json:"text"`
		WhatMakesItDifferent string `json:"what_makes_it_different"`
	} `json:"variants"`
}

// runUnit performs one generation call with a local retry on malformed
// output.
func (p *Pool) runUnit(ctx context.Context, article types.ScoredArticle, unit Unit) ([]types.Variant, error) {
	uctx, cancel := context.WithTimeout(ctx, p.unitTimeout)
	defer cancel()

	prompt := p.buildPrompt(article, unit)
	start := time.Now()

	resp, err := p.generateValidated(uctx, prompt)
	if err != nil {
		return nil, err
	}

	if len(resp.Variants) > maxVariantsPerUnit {
		resp.Variants = resp.Variants[:maxVariantsPerUnit]
	}

	elapsed := time.Since(start).Milliseconds()
	variants := make([]types.Variant, 0, len(resp.Variants))
	for i, rv := range resp.Variants {
		variants = append(variants, types.Variant{
			ID:        uuid.NewString(),
			Text:      rv.Text,
			PersonaID: unit.Persona.ID,
			Context:   unit.Context,
			Metadata: types.GenerationMetadata{
				GeneratorID: unit.ID,
				Model:       p.gen.GetModel(llm.TierCapable),
				DurationMS:  elapsed,
			},
			Distinguisher: rv.WhatMakesItDifferent,
			Sequence:      i,
		})
	}
	return variants, nil
}

// generateValidated calls the model and checks the raw response against the
// generator schema, retrying once on malformed output.
func (p *Pool) generateValidated(ctx context.Context, prompt string) (*unitResponse, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		raw, err := p.gen.GenerateJSON(ctx, prompt, llm.TierCapable)
		if err != nil {
			return nil, err
		}

		cleaned := llm.CleanJSONBlock(raw)
		if err := schemas.ValidateGeneratorResponse(cleaned); err != nil {
			lastErr = err
			continue
		}

		var resp unitResponse
		if err := llm.DecodeJSON(cleaned, &resp); err != nil {
			lastErr = err
			continue
		}
		return &resp, nil
	}
	return nil, fmt.Errorf("malformed generator response after retry: %w", lastErr)
}
