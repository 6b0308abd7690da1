package types

import (
	"fmt"
	"strings"
)

// CompanyProfile is the target-audience profile that relevance scoring and
// generation write toward. Loaded once at process start and never mutated.
type CompanyProfile struct {
	Name             string   `json:"name" yaml:"name" validate:"required"`
	Tagline          string   `json:"tagline" yaml:"tagline"`
	CoreOffering     string   `json:"core_offering" yaml:"core_offering" validate:"required"`
	Differentiator   string   `json:"differentiator" yaml:"differentiator"`
	TargetAudience   []string `json:"target_audience" yaml:"target_audience"`
	KeyServices      []string `json:"key_services" yaml:"key_services"`
	ProofPoints      []string `json:"proof_points" yaml:"proof_points"`
	PainPoints       []string `json:"pain_points_solved" yaml:"pain_points_solved"`
	IndustryKeywords []string `json:"industry_keywords" yaml:"industry_keywords"`
}

// FilterPrompt renders the profile for relevance-scoring prompts.
func (p *CompanyProfile) FilterPrompt() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s\n", p.Name, p.Tagline)
	fmt.Fprintf(&sb, "- %s\n", p.CoreOffering)
	if p.Differentiator != "" {
		fmt.Fprintf(&sb, "- Differentiator: %s\n", p.Differentiator)
	}
	if len(p.TargetAudience) > 0 {
		sb.WriteString("\nTarget audience profiles:\n")
		for i, a := range p.TargetAudience {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, a)
		}
	}
	if len(p.PainPoints) > 0 {
		sb.WriteString("\nKey pain points we solve:\n")
		for _, pain := range p.PainPoints {
			fmt.Fprintf(&sb, "- %s\n", pain)
		}
	}
	return sb.String()
}

// GeneratorPrompt renders the profile for generation prompts.
func (p *CompanyProfile) GeneratorPrompt() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Company: %s\n", p.Name)
	fmt.Fprintf(&sb, "Tagline: %s\n", p.Tagline)
	fmt.Fprintf(&sb, "Core Offering: %s\n", p.CoreOffering)
	fmt.Fprintf(&sb, "Differentiator: %s\n", p.Differentiator)
	fmt.Fprintf(&sb, "Target Audience: %s\n", strings.Join(p.TargetAudience, ", "))
	fmt.Fprintf(&sb, "Key Services: %s\n", strings.Join(p.KeyServices, ", "))
	fmt.Fprintf(&sb, "Proof Points: %s\n", strings.Join(p.ProofPoints, ", "))
	return sb.String()
}

// EmbeddingText builds the text representation of the profile used for the
// embedding pre-filter. Pain points and keywords carry most of the
// relevance signal, so they are included verbatim.
func (p *CompanyProfile) EmbeddingText() string {
	parts := []string{p.Name, p.Tagline, p.CoreOffering, p.Differentiator}
	parts = append(parts, p.TargetAudience...)
	parts = append(parts, p.PainPoints...)
	parts = append(parts, p.IndustryKeywords...)
	nonEmpty := parts[:0]
	for _, s := range parts {
		if s != "" {
			nonEmpty = append(nonEmpty, s)
		}
	}
	return strings.Join(nonEmpty, " ")
}

// Persona is one authorial voice available to the generator pool.
type Persona struct {
	ID             string   `json:"id" yaml:"id" validate:"required"`
	Name           string   `json:"name" yaml:"name" validate:"required"`
	VoiceTraits    []string `json:"voice_traits" yaml:"voice_traits"`
	Relationship   string   `json:"relationship_to_reader" yaml:"relationship_to_reader"`
	AntiPatterns   []string `json:"anti_patterns" yaml:"anti_patterns"`
	ExampleOpeners []string `json:"example_openers" yaml:"example_openers"`
}
