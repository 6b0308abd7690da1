package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/post-pilot/internal/config"
	"github.com/jonathan/post-pilot/internal/llm"
	"github.com/jonathan/post-pilot/internal/pipeline"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the full post generation pipeline end-to-end",
	Long: `Orchestrates the entire post generation process: feed fetch -> embedding pre-filter -> relevance filter -> creative generation -> validation -> judging -> output.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	RunE: runPipelineCmd,
}

var (
	runConfigPath     string
	runFeedsPath      string
	runCreativityPath string
	runPersonasPath   string
	runCompanyPath    string
	runCompanySeed    string
	runOutputDir      string
	runGenerators     int
	runHoursBack      int
	runBlogDaysBack   int
	runEmbeddingTopK  int
	runMaxArticles    int
	runThreshold      float64
	runQuick          bool
	runNoEmbedding    bool
	runIncludeBlogs   bool
	runSeed           int64
	runAPIKey         string
	runDatabaseURL    string
	runVerbose        bool
)

func init() {
	// Config file flag (processed first)
	runCommand.Flags().StringVar(&runConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	runCommand.Flags().StringVar(&runFeedsPath, "feeds", "", "Path to feeds.json (defaults to the embedded registry)")
	runCommand.Flags().StringVar(&runCreativityPath, "creativity", "", "Path to creativity.yaml (defaults to the embedded tables)")
	runCommand.Flags().StringVar(&runPersonasPath, "personas", "", "Path to personas.yaml (defaults to the embedded personas)")
	runCommand.Flags().StringVar(&runCompanyPath, "company", "", "Path to company.yaml (defaults to the embedded profile)")
	runCommand.Flags().StringVarP(&runCompanySeed, "company-seed", "c", "", "Company website URL to research a profile from (overrides --company)")
	runCommand.Flags().StringVarP(&runOutputDir, "output-dir", "o", "", "Directory for run artifacts")
	runCommand.Flags().IntVarP(&runGenerators, "generators", "g", 0, "Number of parallel generation units")
	runCommand.Flags().IntVar(&runHoursBack, "hours-back", 0, "News lookback window in hours")
	runCommand.Flags().IntVar(&runBlogDaysBack, "blog-days-back", 0, "Blog lookback window in days")
	runCommand.Flags().IntVar(&runEmbeddingTopK, "embedding-top-k", 0, "Articles kept by the embedding pre-filter")
	runCommand.Flags().IntVar(&runMaxArticles, "max-articles", 0, "Articles kept by the relevance filter")
	runCommand.Flags().Float64Var(&runThreshold, "relevance-threshold", 0, "Minimum relevance score (0.0-1.0)")
	runCommand.Flags().BoolVar(&runQuick, "quick", false, "Use only the quick-mode feed subset")
	runCommand.Flags().BoolVar(&runNoEmbedding, "no-embedding", false, "Skip the embedding pre-filter")
	runCommand.Flags().BoolVar(&runIncludeBlogs, "include-blogs", false, "Include blog feeds in the fetch")
	runCommand.Flags().Int64Var(&runSeed, "seed", 0, "Creativity engine seed (0 = random)")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print detailed debug information")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	runCommand.Flags().StringVar(&runAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")

	// Database URL for artifact persistence (optional)
	runCommand.Flags().StringVar(&runDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(runCommand)
}

// buildRunConfig merges config file, CLI overrides, and defaults per the
// precedence: flags > config file > built-in defaults.
func buildRunConfig(cmd *cobra.Command) (*config.Config, error) {
	// Step 1: Load config file if provided
	var cfg config.Config
	if runConfigPath != "" {
		loadedCfg, err := config.LoadConfig(runConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loadedCfg
		if runVerbose {
			_, _ = fmt.Fprintf(os.Stdout, "Loaded config from: %s\n", runConfigPath)
		}
	}

	// Step 2: Apply CLI overrides (command-line args take priority)
	// Only override if the flag was explicitly set
	if cmd.Flags().Changed("feeds") {
		cfg.FeedsPath = runFeedsPath
	}
	if cmd.Flags().Changed("creativity") {
		cfg.CreativityPath = runCreativityPath
	}
	if cmd.Flags().Changed("personas") {
		cfg.PersonasPath = runPersonasPath
	}
	if cmd.Flags().Changed("company") {
		cfg.CompanyPath = runCompanyPath
	}
	if cmd.Flags().Changed("output-dir") {
		cfg.OutputDir = runOutputDir
	}
	if cmd.Flags().Changed("generators") {
		cfg.Generators = runGenerators
	}
	if cmd.Flags().Changed("hours-back") {
		cfg.HoursBack = runHoursBack
	}
	if cmd.Flags().Changed("blog-days-back") {
		cfg.BlogDaysBack = runBlogDaysBack
	}
	if cmd.Flags().Changed("embedding-top-k") {
		cfg.EmbeddingTopK = runEmbeddingTopK
	}
	if cmd.Flags().Changed("max-articles") {
		cfg.MaxArticles = runMaxArticles
	}
	if cmd.Flags().Changed("relevance-threshold") {
		cfg.RelevanceThreshold = runThreshold
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = runSeed
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = runAPIKey
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = runDatabaseURL
	}
	if cmd.Flags().Changed("quick") {
		cfg.Quick = runQuick
	}
	if cmd.Flags().Changed("no-embedding") {
		cfg.NoEmbedding = runNoEmbedding
	}
	if cmd.Flags().Changed("include-blogs") {
		cfg.IncludeBlogs = runIncludeBlogs
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = runVerbose
	}

	// Step 3: Apply defaults for unset values
	cfg = cfg.MergeWithDefaults(config.Defaults())

	// Step 4: Validate merged config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Step 5: API Key handling
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}

	// Step 6: Database URL handling (optional, run persists to disk regardless)
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	return &cfg, nil
}

func runPipelineCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := buildRunConfig(cmd)
	if err != nil {
		return err
	}

	client, err := llm.NewClient(ctx, llm.DefaultGeminiConfig(), cfg.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer client.Close()

	orchestrator := pipeline.New(cfg, client)
	if runCompanySeed != "" {
		orchestrator = orchestrator.WithCompanySeed(runCompanySeed)
	}

	result, runDir, err := orchestrator.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("\nDone. Winner (%s, %.3f):\n\n%s\n\nArtifacts: %s\n",
		result.Winner.PersonaID, result.WinnerScore.WeightedTotal, result.Winner.Text, runDir)
	return nil
}
