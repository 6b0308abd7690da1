package generation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jonathan/post-pilot/internal/prompts"
	"github.com/jonathan/post-pilot/internal/types"
)

// buildPrompt assembles the generation prompt for one unit: company
// context, persona voice, the creativity draw, the source article, and the
// banned-pattern digest.
func (p *Pool) buildPrompt(article types.ScoredArticle, unit Unit) string {
	var sb strings.Builder

	sb.WriteString(prompts.MustGet("generation.json", "role"))

	sb.WriteString("## Company\n")
	sb.WriteString(p.profile.GeneratorPrompt())
	sb.WriteString("\n")

	persona := unit.Persona
	sb.WriteString("## Persona\n")
	fmt.Fprintf(&sb, "Name: %s\n", persona.Name)
	if len(persona.VoiceTraits) > 0 {
		fmt.Fprintf(&sb, "Voice: %s\n", strings.Join(persona.VoiceTraits, "; "))
	}
	if persona.Relationship != "" {
		fmt.Fprintf(&sb, "Relationship to reader: %s\n", persona.Relationship)
	}
	if len(persona.AntiPatterns) > 0 {
		fmt.Fprintf(&sb, "Never: %s\n", strings.Join(persona.AntiPatterns, "; "))
	}
	if len(persona.ExampleOpeners) > 0 {
		sb.WriteString("Example openers in this voice:\n")
		for _, opener := range persona.ExampleOpeners {
			fmt.Fprintf(&sb, "- %s\n", opener)
		}
	}
	sb.WriteString("\n")

	cctx := unit.Context
	sb.WriteString("## Creative direction\n")
	fmt.Fprintf(&sb, "Hook pattern: %s", cctx.HookPattern)
	if cctx.HookGuidance != "" {
		fmt.Fprintf(&sb, " (%s)", cctx.HookGuidance)
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Structure: %s", cctx.Framework)
	if cctx.FrameworkDesc != "" {
		fmt.Fprintf(&sb, " (%s)", cctx.FrameworkDesc)
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Content angle: %s\n", cctx.ContentAngle)
	if cctx.StyleReference != nil {
		fmt.Fprintf(&sb, "Style: %s\n", *cctx.StyleReference)
	}
	if cctx.Wildcard != nil {
		fmt.Fprintf(&sb, "Extra constraint: %s\n", *cctx.Wildcard)
	}
	sb.WriteString("\n")

	sb.WriteString("## Article\n")
	fmt.Fprintf(&sb, "Title: %s\n", article.Article.Title)
	fmt.Fprintf(&sb, "Source: %s\n", article.Article.Source)
	fmt.Fprintf(&sb, "Summary: %s\n", article.Article.Summary)
	if article.SuggestedAngle != "" {
		fmt.Fprintf(&sb, "Suggested angle: %s\n", article.SuggestedAngle)
	}
	if article.CompanyConnection != "" {
		fmt.Fprintf(&sb, "Company connection: %s\n", article.CompanyConnection)
	}
	sb.WriteString("\n")

	sb.WriteString(prompts.MustGet("generation.json", "banned-intro"))
	sb.WriteString(p.slopRules)
	sb.WriteString("\n")

	sb.WriteString(prompts.Format(prompts.MustGet("generation.json", "output-contract"), map[string]string{
		"Min": strconv.Itoa(minVariantsPerUnit),
		"Max": strconv.Itoa(maxVariantsPerUnit),
	}))

	return sb.String()
}
