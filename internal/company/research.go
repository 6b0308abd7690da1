// Package company builds the company profile that relevance scoring and
// generation write toward, either from a configured file or extracted live
// from the company's own site.
package company

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/post-pilot/internal/fetch"
	"github.com/jonathan/post-pilot/internal/llm"
	"github.com/jonathan/post-pilot/internal/prompts"
	"github.com/jonathan/post-pilot/internal/types"
)

// maxPageChars bounds how much page text goes into the extraction prompt.
const maxPageChars = 8000

// JSONGenerator is the slice of the LLM client the researcher needs.
type JSONGenerator interface {
	GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
}

// Researcher extracts a structured company profile from a seed URL.
type Researcher struct {
	gen      JSONGenerator
	opts     *fetch.Options
	maxPages int
}

func NewResearcher(gen JSONGenerator) *Researcher {
	return &Researcher{gen: gen, opts: fetch.DefaultOptions(), maxPages: 3}
}

// WithMaxPages bounds how many site pages one research crawl may fetch.
func (r *Researcher) WithMaxPages(n int) *Researcher {
	r.maxPages = n
	return r
}

// FromURL crawls the seed page plus its most promising same-host pages and
// asks the fast model tier to produce a structured profile from the combined
// text.
func (r *Researcher) FromURL(ctx context.Context, seedURL string) (*types.CompanyProfile, error) {
	pages, err := crawlCorpus(ctx, seedURL, r.opts, r.maxPages)
	if err != nil {
		return nil, fmt.Errorf("failed to research company site: %w", err)
	}

	text := pages.Text
	if len(text) > maxPageChars {
		text = text[:maxPageChars]
	}

	profile, err := r.extract(ctx, seedURL, text)
	if err != nil {
		return nil, err
	}
	if profile.Name == "" || profile.CoreOffering == "" {
		return nil, fmt.Errorf("extracted profile from %s is missing name or core offering", seedURL)
	}
	return profile, nil
}

// extract runs the structured extraction call with one retry on malformed
// output.
func (r *Researcher) extract(ctx context.Context, seedURL, text string) (*types.CompanyProfile, error) {
	prompt := buildExtractionPrompt(seedURL, text)

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		raw, err := r.gen.GenerateJSON(ctx, prompt, llm.TierFast)
		if err != nil {
			return nil, fmt.Errorf("company extraction call failed: %w", err)
		}

		var profile types.CompanyProfile
		if err := llm.DecodeJSON(raw, &profile); err != nil {
			lastErr = err
			continue
		}
		return &profile, nil
	}
	return nil, fmt.Errorf("malformed company extraction after retry: %w", lastErr)
}

func buildExtractionPrompt(seedURL, text string) string {
	var sb strings.Builder
	sb.WriteString(prompts.MustGet("company.json", "extract-role"))
	fmt.Fprintf(&sb, "URL: %s\n\nPAGE TEXT:\n%s\n\n", seedURL, text)
	sb.WriteString(prompts.MustGet("company.json", "extract-contract"))
	return sb.String()
}
