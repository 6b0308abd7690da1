package types

// Rubric weights for the judge. The weighted total formula is fixed and
// reproduced verbatim in WeightedTotal.
const (
	WeightHookStrength    = 0.30
	WeightAntiSlop        = 0.25
	WeightDistinctiveness = 0.20
	WeightRelevance       = 0.15
	WeightPersonaFit      = 0.10
)

// JudgeScore is the rubric breakdown for one variant. All components are
// normalized to [0,1] before weighting.
type JudgeScore struct {
	VariantID       string  `json:"variant_id"`
	HookStrength    float64 `json:"hook_strength"`
	AntiSlop        float64 `json:"anti_slop"`
	Distinctiveness float64 `json:"distinctiveness"`
	Relevance       float64 `json:"relevance"`
	PersonaFit      float64 `json:"persona_fit"`
	WeightedTotal   float64 `json:"weighted_total"`
	Rationale       string  `json:"rationale"`
}

// ComputeWeightedTotal computes the fixed weighted sum over the score components.
func (s JudgeScore) ComputeWeightedTotal() float64 {
	return WeightHookStrength*s.HookStrength +
		WeightAntiSlop*s.AntiSlop +
		WeightDistinctiveness*s.Distinctiveness +
		WeightRelevance*s.Relevance +
		WeightPersonaFit*s.PersonaFit
}

// Clamp01 limits a score component to the [0,1] range.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
