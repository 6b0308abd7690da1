package types

import "time"

// StageTiming records how long one pipeline stage took and what flowed
// through it.
type StageTiming struct {
	Stage      string        `json:"stage"`
	Duration   time.Duration `json:"duration"`
	InputSize  int           `json:"input_size"`
	OutputSize int           `json:"output_size"`
	Degraded   bool          `json:"degraded,omitempty"`
	Note       string        `json:"note,omitempty"`
}

// RunStats summarizes a pipeline run for diagnostics.
type RunStats struct {
	TotalGenerators    int            `json:"total_generators"`
	GenerationErrors   int            `json:"generation_errors"`
	TotalVariants      int            `json:"total_variants"`
	SlopViolations     int            `json:"slop_violations"`
	JudgedVariants     int            `json:"judged_variants"`
	VariantsPerPersona map[string]int `json:"variants_per_persona"`
	Duration           time.Duration  `json:"duration"`
}

// RunResult is the final bundle assembled once per run by the orchestrator
// and handed to the output formatter.
type RunResult struct {
	RunID       string        `json:"run_id"`
	StartedAt   time.Time     `json:"started_at"`
	Source      ScoredArticle `json:"source"`
	Winner      Variant       `json:"winner"`
	WinnerScore JudgeScore    `json:"winner_score"`
	AllScores   []JudgeScore  `json:"all_scores"`
	AllVariants []Variant     `json:"all_variants"`
	Timings     []StageTiming `json:"timing_breakdown"`
	Stats       RunStats      `json:"stats"`
}
