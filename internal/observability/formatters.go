// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/post-pilot/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintScoredArticles outputs the relevance-filtered articles with scores.
func (p *Printer) PrintScoredArticles(articles []types.ScoredArticle) {
	if len(articles) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Articles above threshold: %d\n\n", len(articles)))

	count := min(len(articles), maxItemsToShow)
	for i := 0; i < count; i++ {
		a := articles[i]
		title := a.Article.Title
		if len(title) > 44 {
			title = title[:41] + "..."
		}
		sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, title))
		sb.WriteString(fmt.Sprintf("    Score: %.2f  (%s)\n", a.RelevanceScore, a.Article.Source))
		if i < count-1 {
			sb.WriteString("\n")
		}
	}
	if len(articles) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more\n", len(articles)-maxItemsToShow))
	}

	p.printBox("RELEVANT ARTICLES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintValidationSummary outputs how the variants fared against the
// anti-slop tables.
func (p *Printer) PrintValidationSummary(variants []types.Variant) {
	if len(variants) == 0 {
		return
	}

	passed, failed := 0, 0
	byCategory := make(map[string]int)
	for _, v := range variants {
		if v.Validation == nil {
			continue
		}
		if v.Validation.Passed {
			passed++
			continue
		}
		failed++
		for _, violation := range v.Validation.Violations {
			byCategory[violation.Category]++
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Passed: %d   Failed: %d\n", passed, failed))
	if len(byCategory) > 0 {
		sb.WriteString("\nViolations by category:\n")
		for _, category := range []string{types.CategoryBannedWord, types.CategoryBannedPhrase, types.CategoryStructuralPattern} {
			if n := byCategory[category]; n > 0 {
				sb.WriteString(fmt.Sprintf("  • %-20s %d\n", category, n))
			}
		}
	}

	p.printBox("ANTI-SLOP VALIDATION", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintWinner outputs the winning variant and its rubric breakdown.
func (p *Printer) PrintWinner(winner types.Variant, score types.JudgeScore) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Persona:   %s\n", winner.PersonaID))
	sb.WriteString(fmt.Sprintf("Hook:      %s\n", winner.Context.HookPattern))
	sb.WriteString(fmt.Sprintf("Framework: %s\n\n", winner.Context.Framework))
	sb.WriteString(fmt.Sprintf("Hook Strength:    %.2f\n", score.HookStrength))
	sb.WriteString(fmt.Sprintf("Anti-Slop:        %.2f\n", score.AntiSlop))
	sb.WriteString(fmt.Sprintf("Distinctiveness:  %.2f\n", score.Distinctiveness))
	sb.WriteString(fmt.Sprintf("Relevance:        %.2f\n", score.Relevance))
	sb.WriteString(fmt.Sprintf("Persona Fit:      %.2f\n", score.PersonaFit))
	sb.WriteString(fmt.Sprintf("Weighted Total:   %.3f", score.WeightedTotal))

	p.printBox("WINNING POST", sb.String())
}

// PrintStageTimings outputs the per-stage timing breakdown.
func (p *Printer) PrintStageTimings(timings []types.StageTiming) {
	if len(timings) == 0 {
		return
	}

	var sb strings.Builder
	for _, t := range timings {
		marker := ""
		if t.Degraded {
			marker = "  (degraded)"
		}
		sb.WriteString(fmt.Sprintf("%-14s %6dms  %d → %d%s\n", t.Stage, t.Duration.Milliseconds(), t.InputSize, t.OutputSize, marker))
	}

	p.printBox("STAGE TIMINGS", strings.TrimSuffix(sb.String(), "\n"))
}
