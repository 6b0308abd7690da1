package judging

import (
	"fmt"
	"strings"

	"github.com/jonathan/post-pilot/internal/prompts"
	"github.com/jonathan/post-pilot/internal/types"
)

// buildPrompt lays out every variant with its identity and creative lineage
// so the model can score all of them in one pass.
func (j *Judge) buildPrompt(article types.ScoredArticle, variants []types.Variant) string {
	var sb strings.Builder

	sb.WriteString(prompts.MustGet("judging.json", "role"))
	sb.WriteString(prompts.Format(prompts.MustGet("judging.json", "criteria"), map[string]string{
		"Company": j.profile.Name,
	}))

	sb.WriteString("## Company\n")
	sb.WriteString(j.profile.FilterPrompt())
	sb.WriteString("\n")

	sb.WriteString("## News context\n")
	fmt.Fprintf(&sb, "%s (%s)\n%s\n\n", article.Article.Title, article.Article.Source, article.Article.Summary)

	fmt.Fprintf(&sb, "## Variants to judge (%d)\n", len(variants))
	for _, v := range variants {
		fmt.Fprintf(&sb, "\n=== VARIANT %s ===\n", v.ID)
		fmt.Fprintf(&sb, "Persona: %s\n", v.PersonaID)
		fmt.Fprintf(&sb, "Hook pattern: %s\n", v.Context.HookPattern)
		fmt.Fprintf(&sb, "Framework: %s\n", v.Context.Framework)
		fmt.Fprintf(&sb, "CONTENT:\n%s\n", v.Text)
	}

	sb.WriteString(prompts.MustGet("judging.json", "output-contract"))

	return sb.String()
}
