package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/post-pilot/internal/config"
	"github.com/jonathan/post-pilot/internal/feeds"
	"github.com/jonathan/post-pilot/internal/llm"
	"github.com/jonathan/post-pilot/internal/observability"
	"github.com/jonathan/post-pilot/internal/prefilter"
	"github.com/jonathan/post-pilot/internal/relevance"
)

var newsCommand = &cobra.Command{
	Use:   "news",
	Short: "Fetch and score articles without generating posts",
	Long:  `Runs only the selection half of the pipeline: feed fetch, embedding pre-filter, and relevance scoring. Prints the articles that would feed post generation, newest first by score.`,
	RunE:  runNewsCmd,
}

func init() {
	newsCommand.Flags().StringVar(&runConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	newsCommand.Flags().StringVar(&runFeedsPath, "feeds", "", "Path to feeds.json (defaults to the embedded registry)")
	newsCommand.Flags().StringVar(&runCompanyPath, "company", "", "Path to company.yaml (defaults to the embedded profile)")
	newsCommand.Flags().IntVar(&runHoursBack, "hours-back", 0, "News lookback window in hours")
	newsCommand.Flags().IntVar(&runBlogDaysBack, "blog-days-back", 0, "Blog lookback window in days")
	newsCommand.Flags().IntVar(&runEmbeddingTopK, "embedding-top-k", 0, "Articles kept by the embedding pre-filter")
	newsCommand.Flags().IntVar(&runMaxArticles, "max-articles", 0, "Articles kept by the relevance filter")
	newsCommand.Flags().Float64Var(&runThreshold, "relevance-threshold", 0, "Minimum relevance score (0.0-1.0)")
	newsCommand.Flags().BoolVar(&runQuick, "quick", false, "Use only the quick-mode feed subset")
	newsCommand.Flags().BoolVar(&runNoEmbedding, "no-embedding", false, "Skip the embedding pre-filter")
	newsCommand.Flags().BoolVar(&runIncludeBlogs, "include-blogs", false, "Include blog feeds in the fetch")
	newsCommand.Flags().StringVar(&runAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	newsCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print detailed debug information")

	rootCmd.AddCommand(newsCommand)
}

func runNewsCmd(cmd *cobra.Command, _ []string) error {
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

	profile, err := config.LoadCompany(cfg.CompanyPath)
	if err != nil {
		return err
	}

	entries, err := feeds.LoadRegistry(cfg.FeedsPath)
	if err != nil {
		return err
	}
	fetcher := feeds.NewFetcher(entries, feeds.Options{
		HoursBack:    cfg.HoursBack,
		BlogDaysBack: cfg.BlogDaysBack,
		Quick:        cfg.Quick,
		IncludeBlogs: cfg.IncludeBlogs,
	})

	fmt.Printf("Step 1/3: Fetching articles...\n")
	articles, err := fetcher.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch feeds: %w", err)
	}
	fmt.Printf("Fetched %d articles\n", len(articles))
	if len(articles) == 0 {
		return nil
	}

	if !cfg.NoEmbedding {
		fmt.Printf("Step 2/3: Pre-filtering by embedding similarity...\n")
		preResult, err := prefilter.New(client, cfg.EmbeddingTopK).Filter(ctx, articles, profile)
		if err != nil {
			fmt.Printf("Warning: Embedding pre-filter failed: %v\n", err)
			fmt.Printf("Continuing with all %d articles...\n", len(articles))
		} else {
			articles = preResult.Articles
			fmt.Printf("Kept %d of %d articles\n", len(articles), preResult.Total)
		}
	}

	fmt.Printf("Step 3/3: Scoring relevance...\n")
	filter := relevance.NewFilter(relevance.NewScorer(client), cfg.RelevanceThreshold, cfg.MaxArticles)
	result, err := filter.Filter(ctx, articles, profile)
	if err != nil {
		return err
	}

	printer := observability.NewPrinter(os.Stdout)
	printer.PrintScoredArticles(result.Articles)
	return nil
}
