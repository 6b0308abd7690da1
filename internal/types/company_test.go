package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testProfile() *CompanyProfile {
	return &CompanyProfile{
		Name:             "Acme Automation",
		Tagline:          "Ops on autopilot",
		CoreOffering:     "Workflow automation for e-commerce",
		Differentiator:   "Process discovery before building",
		TargetAudience:   []string{"Struggling operators", "Growing shops"},
		KeyServices:      []string{"Order processing", "Inventory sync"},
		ProofPoints:      []string{"2-4 weeks to production"},
		PainPoints:       []string{"Manual data entry", "Inventory sync failures"},
		IndustryKeywords: []string{"automation", "e-commerce"},
	}
}

func TestFilterPrompt(t *testing.T) {
	prompt := testProfile().FilterPrompt()

	assert.Contains(t, prompt, "Acme Automation: Ops on autopilot")
	assert.Contains(t, prompt, "1. Struggling operators")
	assert.Contains(t, prompt, "2. Growing shops")
	assert.Contains(t, prompt, "- Manual data entry")
}

func TestGeneratorPrompt(t *testing.T) {
	prompt := testProfile().GeneratorPrompt()

	assert.Contains(t, prompt, "Company: Acme Automation")
	assert.Contains(t, prompt, "Key Services: Order processing, Inventory sync")
	assert.Contains(t, prompt, "Proof Points: 2-4 weeks to production")
}

func TestEmbeddingText(t *testing.T) {
	p := testProfile()
	p.Differentiator = ""

	text := p.EmbeddingText()
	assert.Contains(t, text, "Acme Automation")
	assert.Contains(t, text, "Inventory sync failures")
	assert.Contains(t, text, "e-commerce")
	assert.NotContains(t, text, "  ") // empty fields are dropped, not joined
}
