// Package pipeline provides the high-level orchestration for one post
// generation run: fetch, pre-filter, relevance filter, generation,
// validation, judging, and output.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/post-pilot/internal/company"
	"github.com/jonathan/post-pilot/internal/config"
	"github.com/jonathan/post-pilot/internal/creativity"
	"github.com/jonathan/post-pilot/internal/db"
	"github.com/jonathan/post-pilot/internal/feeds"
	"github.com/jonathan/post-pilot/internal/generation"
	"github.com/jonathan/post-pilot/internal/judging"
	"github.com/jonathan/post-pilot/internal/llm"
	"github.com/jonathan/post-pilot/internal/observability"
	"github.com/jonathan/post-pilot/internal/output"
	"github.com/jonathan/post-pilot/internal/prefilter"
	"github.com/jonathan/post-pilot/internal/relevance"
	"github.com/jonathan/post-pilot/internal/types"
)

// DefaultRunTimeout is the global deadline for one full run.
const DefaultRunTimeout = 10 * time.Minute

// ProgressEvent represents a progress update during pipeline execution.
type ProgressEvent struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
	RunID   string `json:"run_id,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs.
type ProgressCallback func(event ProgressEvent)

// Orchestrator wires the pipeline stages together for one run at a time.
type Orchestrator struct {
	cfg        *config.Config
	client     llm.Client
	seedURL    string
	runTimeout time.Duration
	onProgress ProgressCallback
	printer    *observability.Printer
}

// New builds an Orchestrator over a loaded configuration and an LLM client.
func New(cfg *config.Config, client llm.Client) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		client:     client,
		runTimeout: DefaultRunTimeout,
		printer:    observability.NewPrinter(os.Stdout),
	}
}

// WithCompanySeed makes the run extract the company profile live from the
// given URL instead of the configured profile file.
func (o *Orchestrator) WithCompanySeed(url string) *Orchestrator {
	o.seedURL = url
	return o
}

// WithProgress registers a progress callback.
func (o *Orchestrator) WithProgress(cb ProgressCallback) *Orchestrator {
	o.onProgress = cb
	return o
}

// WithRunTimeout overrides the global run deadline.
func (o *Orchestrator) WithRunTimeout(d time.Duration) *Orchestrator {
	o.runTimeout = d
	return o
}

func (o *Orchestrator) emit(runID, stage, message string) {
	if o.onProgress != nil {
		o.onProgress(ProgressEvent{Stage: stage, Message: message, RunID: runID})
	}
}

// Run executes the full pipeline and returns the result plus the directory
// the artifacts were written to.
func (o *Orchestrator) Run(ctx context.Context) (*types.RunResult, string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.runTimeout)
	defer cancel()

	runID := uuid.NewString()
	startedAt := time.Now()
	var timings []types.StageTiming

	// Load tables once per run.
	creativityCfg, err := config.LoadCreativity(o.cfg.CreativityPath)
	if err != nil {
		return nil, "", err
	}
	personas, err := config.LoadPersonas(o.cfg.PersonasPath)
	if err != nil {
		return nil, "", err
	}
	profile, err := o.loadProfile(ctx)
	if err != nil {
		return nil, "", err
	}

	// Optional persistence; the run continues without it.
	var database *db.DB
	var dbRunID uuid.UUID
	if o.cfg.DatabaseURL != "" {
		database, err = db.Connect(ctx, o.cfg.DatabaseURL)
		if err != nil {
			fmt.Printf("Warning: Failed to connect to database: %v\n", err)
			fmt.Printf("Continuing without database persistence...\n")
			database = nil
		} else {
			defer database.Close()
			dbRunID, err = database.CreateRun(ctx, profile.Name, "", "")
			if err != nil {
				fmt.Printf("Warning: Failed to create database run: %v\n", err)
			} else {
				runID = dbRunID.String()
			}
		}
	}

	// Stage 1: fetch articles from configured feeds.
	fmt.Printf("Step 1/6: Fetching articles...\n")
	articles, timing, err := o.fetchArticles(ctx)
	if err != nil {
		return nil, "", err
	}
	timings = append(timings, timing)
	o.emit(runID, "fetch", fmt.Sprintf("Fetched %d articles", len(articles)))
	o.saveArtifact(ctx, database, dbRunID, db.StepFeedFetch, db.CategoryIngestion, articles)

	// Stage 2: embedding pre-filter, fail-soft.
	fmt.Printf("Step 2/6: Pre-filtering %d articles...\n", len(articles))
	articles, timing = o.prefilterArticles(ctx, articles, profile)
	timings = append(timings, timing)
	o.emit(runID, "prefilter", fmt.Sprintf("Kept %d articles", len(articles)))
	o.saveArtifact(ctx, database, dbRunID, db.StepPrefilter, db.CategorySelection, articles)

	// Stage 3: relevance scoring.
	fmt.Printf("Step 3/6: Scoring relevance for %d articles...\n", len(articles))
	stageStart := time.Now()
	filter := relevance.NewFilter(relevance.NewScorer(o.client), o.cfg.RelevanceThreshold, o.cfg.MaxArticles)
	relevanceResult, err := filter.Filter(ctx, articles, profile)
	if err != nil {
		return nil, "", err
	}
	if len(relevanceResult.Articles) == 0 {
		return nil, "", &EmptyStageError{Stage: "relevance", Message: "no articles scored as relevant"}
	}
	timings = append(timings, types.StageTiming{
		Stage:      "relevance",
		Duration:   time.Since(stageStart),
		InputSize:  len(articles),
		OutputSize: len(relevanceResult.Articles),
	})
	if o.cfg.Verbose {
		o.printer.PrintScoredArticles(relevanceResult.Articles)
	}
	o.emit(runID, "relevance", fmt.Sprintf("%d articles above threshold", len(relevanceResult.Articles)))
	o.saveArtifact(ctx, database, dbRunID, db.StepRelevance, db.CategorySelection, relevanceResult.Articles)

	source := relevanceResult.Articles[0]

	// Stage 4: creativity draws plus the generator pool.
	fmt.Printf("Step 4/6: Generating variants with %d units...\n", o.cfg.Generators)
	stageStart = time.Now()
	engine := creativity.NewEngine(creativityCfg, o.cfg.Seed)
	validator := creativity.NewValidator(creativityCfg.AntiSlop)
	pool := generation.NewPool(o.client, engine, profile, validator)

	units, err := pool.AssignUnits(personas, o.cfg.Generators)
	if err != nil {
		return nil, "", err
	}
	genResult, err := pool.Run(ctx, source, units)
	if err != nil {
		return nil, "", &EmptyStageError{Stage: "generation", Message: err.Error()}
	}
	for _, fe := range genResult.Failed {
		fmt.Printf("Warning: %v\n", fe)
	}
	timings = append(timings, types.StageTiming{
		Stage:      "generation",
		Duration:   time.Since(stageStart),
		InputSize:  len(units),
		OutputSize: len(genResult.Variants),
	})
	o.emit(runID, "generation", fmt.Sprintf("%d variants from %d units", len(genResult.Variants), len(units)))
	o.saveArtifact(ctx, database, dbRunID, db.StepVariants, db.CategoryGeneration, genResult.Variants)

	// Stage 5: deterministic anti-slop validation.
	fmt.Printf("Step 5/6: Validating %d variants...\n", len(genResult.Variants))
	stageStart = time.Now()
	variants := genResult.Variants
	for i := range variants {
		result := validator.Validate(variants[i].Text)
		variants[i].Validation = &result
	}
	timings = append(timings, types.StageTiming{
		Stage:      "validation",
		Duration:   time.Since(stageStart),
		InputSize:  len(variants),
		OutputSize: countPassed(variants),
	})
	if o.cfg.Verbose {
		o.printer.PrintValidationSummary(variants)
	}
	o.emit(runID, "validation", fmt.Sprintf("%d of %d variants clean", countPassed(variants), len(variants)))
	o.saveArtifact(ctx, database, dbRunID, db.StepValidation, db.CategoryGeneration, variants)

	// Stage 6: judge and select the winner.
	fmt.Printf("Step 6/6: Judging %d variants...\n", countPassed(variants))
	stageStart = time.Now()
	judge := judging.NewJudge(o.client, profile)
	judgment, err := judge.Judge(ctx, source, variants)
	if err != nil {
		if errors.Is(err, judging.ErrNoValidVariants) {
			return nil, "", &EmptyStageError{Stage: "judge", Message: "every variant failed validation"}
		}
		return nil, "", err
	}
	timings = append(timings, types.StageTiming{
		Stage:      "judge",
		Duration:   time.Since(stageStart),
		InputSize:  countPassed(variants),
		OutputSize: 1,
		Note:       judgeNote(judgment),
	})
	o.emit(runID, "judge", fmt.Sprintf("Winner %s with %.3f", judgment.Winner.ID, judgment.WinnerScore.WeightedTotal))

	result := o.assembleResult(runID, startedAt, source, variants, genResult, judgment, timings)
	o.saveArtifact(ctx, database, dbRunID, db.StepJudgment, db.CategoryJudging, judgment.AllScores)
	o.saveArtifact(ctx, database, dbRunID, db.StepWinner, db.CategoryJudging, result.Winner)
	o.saveArtifact(ctx, database, dbRunID, db.StepRunLog, db.CategoryJudging, result.Stats)

	runDir, err := output.NewWriter(o.cfg.OutputDir).SaveRun(result)
	if err != nil {
		return nil, "", err
	}

	if o.cfg.Verbose {
		o.printer.PrintWinner(result.Winner, result.WinnerScore)
		o.printer.PrintStageTimings(result.Timings)
	}
	if database != nil && dbRunID != uuid.Nil {
		if err := database.CompleteRun(ctx, dbRunID, "completed"); err != nil {
			fmt.Printf("Warning: Failed to complete database run: %v\n", err)
		}
	}

	return result, runDir, nil
}

// loadProfile prefers live extraction from the seed URL, falling back to
// the configured profile file with a warning.
func (o *Orchestrator) loadProfile(ctx context.Context) (*types.CompanyProfile, error) {
	if o.seedURL != "" {
		profile, err := company.NewResearcher(o.client).FromURL(ctx, o.seedURL)
		if err == nil {
			return profile, nil
		}
		fmt.Printf("Warning: company extraction from %s failed: %v\n", o.seedURL, err)
		fmt.Printf("Falling back to configured company profile...\n")
	}
	return config.LoadCompany(o.cfg.CompanyPath)
}

func (o *Orchestrator) fetchArticles(ctx context.Context) ([]types.Article, types.StageTiming, error) {
	start := time.Now()

	entries, err := feeds.LoadRegistry(o.cfg.FeedsPath)
	if err != nil {
		return nil, types.StageTiming{}, err
	}

	fetcher := feeds.NewFetcher(entries, feeds.Options{
		HoursBack:    o.cfg.HoursBack,
		BlogDaysBack: o.cfg.BlogDaysBack,
		Quick:        o.cfg.Quick,
		IncludeBlogs: o.cfg.IncludeBlogs,
	})
	articles, err := fetcher.FetchAll(ctx)
	if err != nil {
		return nil, types.StageTiming{}, &SourceUnavailableError{Message: "all feeds failed", Cause: err}
	}
	if len(articles) == 0 {
		return nil, types.StageTiming{}, &EmptyStageError{Stage: "fetch", Message: "no articles in the lookback window"}
	}

	return articles, types.StageTiming{
		Stage:      "fetch",
		Duration:   time.Since(start),
		InputSize:  len(entries),
		OutputSize: len(articles),
	}, nil
}

// prefilterArticles never fails the run: on embedding trouble it returns
// the input unchanged and marks the stage degraded.
func (o *Orchestrator) prefilterArticles(ctx context.Context, articles []types.Article, profile *types.CompanyProfile) ([]types.Article, types.StageTiming) {
	start := time.Now()
	timing := types.StageTiming{Stage: "prefilter", InputSize: len(articles)}

	if o.cfg.NoEmbedding {
		timing.Duration = time.Since(start)
		timing.OutputSize = len(articles)
		timing.Note = "disabled"
		return articles, timing
	}

	pre := prefilter.New(o.client, o.cfg.EmbeddingTopK)
	result, err := pre.Filter(ctx, articles, profile)
	timing.Duration = time.Since(start)
	if err != nil {
		// Fail-soft contract: keep all articles.
		timing.OutputSize = len(articles)
		timing.Degraded = true
		timing.Note = err.Error()
		return articles, timing
	}

	timing.OutputSize = len(result.Articles)
	timing.Degraded = result.Degraded
	return result.Articles, timing
}

func (o *Orchestrator) saveArtifact(ctx context.Context, database *db.DB, runID uuid.UUID, step, category string, content any) {
	if database == nil || runID == uuid.Nil {
		return
	}
	if err := database.SaveArtifact(ctx, runID, step, category, content); err != nil {
		fmt.Printf("Warning: Failed to save artifact %s: %v\n", step, err)
	}
}

func (o *Orchestrator) assembleResult(
	runID string,
	startedAt time.Time,
	source types.ScoredArticle,
	variants []types.Variant,
	genResult *generation.Result,
	judgment *judging.Judgment,
	timings []types.StageTiming,
) *types.RunResult {
	perPersona := make(map[string]int)
	slopViolations := 0
	for _, v := range variants {
		perPersona[v.PersonaID]++
		if v.Validation != nil {
			slopViolations += len(v.Validation.Violations)
		}
	}

	return &types.RunResult{
		RunID:       runID,
		StartedAt:   startedAt,
		Source:      source,
		Winner:      judgment.Winner,
		WinnerScore: judgment.WinnerScore,
		AllScores:   judgment.AllScores,
		AllVariants: variants,
		Timings:     timings,
		Stats: types.RunStats{
			TotalGenerators:    o.cfg.Generators,
			GenerationErrors:   len(genResult.Failed),
			TotalVariants:      len(variants),
			SlopViolations:     slopViolations,
			JudgedVariants:     countPassed(variants),
			VariantsPerPersona: perPersona,
			Duration:           time.Since(startedAt),
		},
	}
}

func countPassed(variants []types.Variant) int {
	n := 0
	for _, v := range variants {
		if v.Validation != nil && v.Validation.Passed {
			n++
		}
	}
	return n
}

func judgeNote(judgment *judging.Judgment) string {
	if judgment.Fallback {
		return "fallback selection after unusable judge response"
	}
	return ""
}
