// Package output writes the artifacts of a completed run: the winning post
// in JSON and Markdown plus the full variant and execution logs.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonathan/post-pilot/internal/types"
)

const runDirLayout = "2006-01-02_15-04-05"

// Writer persists run artifacts under a base directory, one timestamped
// subdirectory per run.
type Writer struct {
	baseDir string
}

func NewWriter(baseDir string) *Writer {
	return &Writer{baseDir: baseDir}
}

// SaveRun writes all artifacts for one run and returns the run directory.
// Files written: winner.json, winner.md, all_variants.json, run_log.json,
// news_input.json.
func (w *Writer) SaveRun(result *types.RunResult) (string, error) {
	runDir := filepath.Join(w.baseDir, result.StartedAt.Format(runDirLayout))
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create run directory: %w", err)
	}

	files := map[string]any{
		"winner.json":       w.winnerDocument(result),
		"all_variants.json": result.AllVariants,
		"run_log.json":      w.runLog(result),
		"news_input.json":   result.Source,
	}
	for name, doc := range files {
		if err := writeJSON(filepath.Join(runDir, name), doc); err != nil {
			return "", err
		}
	}

	md := w.winnerMarkdown(result)
	if err := os.WriteFile(filepath.Join(runDir, "winner.md"), []byte(md), 0o644); err != nil {
		return "", fmt.Errorf("failed to write winner.md: %w", err)
	}

	return runDir, nil
}

func writeJSON(path string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

type winnerDocument struct {
	GeneratedAt time.Time        `json:"generated_at"`
	RunID       string           `json:"run_id"`
	NewsSource  newsSource       `json:"news_source"`
	Winner      types.Variant    `json:"winner"`
	Scores      types.JudgeScore `json:"scores"`
}

type newsSource struct {
	Title          string  `json:"title"`
	Source         string  `json:"source"`
	URL            string  `json:"url"`
	RelevanceScore float64 `json:"relevance_score"`
	Rationale      string  `json:"rationale"`
}

func (w *Writer) winnerDocument(result *types.RunResult) winnerDocument {
	return winnerDocument{
		GeneratedAt: result.StartedAt,
		RunID:       result.RunID,
		NewsSource: newsSource{
			Title:          result.Source.Article.Title,
			Source:         result.Source.Article.Source,
			URL:            result.Source.Article.URL,
			RelevanceScore: result.Source.RelevanceScore,
			Rationale:      result.Source.Rationale,
		},
		Winner: result.Winner,
		Scores: result.WinnerScore,
	}
}

type runLog struct {
	RunID     string             `json:"run_id"`
	StartedAt time.Time          `json:"started_at"`
	Stats     types.RunStats     `json:"stats"`
	Stages    []stageLogEntry    `json:"stages"`
	AllScores []types.JudgeScore `json:"all_scores"`
}

type stageLogEntry struct {
	Stage      string `json:"stage"`
	DurationMS int64  `json:"duration_ms"`
	InputSize  int    `json:"input_size"`
	OutputSize int    `json:"output_size"`
	Degraded   bool   `json:"degraded,omitempty"`
	Note       string `json:"note,omitempty"`
}

func (w *Writer) runLog(result *types.RunResult) runLog {
	stages := make([]stageLogEntry, 0, len(result.Timings))
	for _, t := range result.Timings {
		stages = append(stages, stageLogEntry{
			Stage:      t.Stage,
			DurationMS: t.Duration.Milliseconds(),
			InputSize:  t.InputSize,
			OutputSize: t.OutputSize,
			Degraded:   t.Degraded,
			Note:       t.Note,
		})
	}
	return runLog{
		RunID:     result.RunID,
		StartedAt: result.StartedAt,
		Stats:     result.Stats,
		Stages:    stages,
		AllScores: result.AllScores,
	}
}

// winnerMarkdown renders the human-readable summary.
func (w *Writer) winnerMarkdown(result *types.RunResult) string {
	var sb strings.Builder
	score := result.WinnerScore
	winner := result.Winner
	source := result.Source

	fmt.Fprintf(&sb, "# Post - %s\n\n", result.StartedAt.Format("2006-01-02 15:04"))

	sb.WriteString("## News Source\n\n")
	fmt.Fprintf(&sb, "**Title:** %s\n", source.Article.Title)
	fmt.Fprintf(&sb, "**Source:** %s\n", source.Article.Source)
	fmt.Fprintf(&sb, "**Link:** %s\n\n", source.Article.URL)
	fmt.Fprintf(&sb, "**Relevance:** %.0f%% - %s\n", source.RelevanceScore*100, source.Rationale)
	if source.SuggestedAngle != "" {
		fmt.Fprintf(&sb, "**Suggested Angle:** %s\n", source.SuggestedAngle)
	}

	sb.WriteString("\n---\n\n## Winning Post\n\n")
	fmt.Fprintf(&sb, "**Persona:** %s\n", winner.PersonaID)
	fmt.Fprintf(&sb, "**Hook Pattern:** %s\n", winner.Context.HookPattern)
	fmt.Fprintf(&sb, "**Framework:** %s\n\n", winner.Context.Framework)
	sb.WriteString("```\n")
	sb.WriteString(winner.Text)
	sb.WriteString("\n```\n")

	sb.WriteString("\n## Scores\n\n")
	sb.WriteString("| Criterion | Score |\n|-----------|-------|\n")
	fmt.Fprintf(&sb, "| Hook Strength | %.2f |\n", score.HookStrength)
	fmt.Fprintf(&sb, "| Anti-Slop | %.2f |\n", score.AntiSlop)
	fmt.Fprintf(&sb, "| Distinctiveness | %.2f |\n", score.Distinctiveness)
	fmt.Fprintf(&sb, "| Relevance | %.2f |\n", score.Relevance)
	fmt.Fprintf(&sb, "| Persona Fit | %.2f |\n", score.PersonaFit)
	fmt.Fprintf(&sb, "| **Weighted Total** | **%.3f** |\n", score.WeightedTotal)
	if score.Rationale != "" {
		fmt.Fprintf(&sb, "\n## Judge Rationale\n\n%s\n", score.Rationale)
	}

	fmt.Fprintf(&sb, "\n---\n\nRun `%s`: %d variants from %d generators, %d judged.\n",
		result.RunID, result.Stats.TotalVariants, result.Stats.TotalGenerators, result.Stats.JudgedVariants)

	return sb.String()
}
