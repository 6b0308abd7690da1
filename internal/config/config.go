// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the run configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Paths
	FeedsPath      string `json:"feeds,omitempty"`      // Path to feeds.json
	CreativityPath string `json:"creativity,omitempty"` // Path to creativity.yaml
	PersonasPath   string `json:"personas,omitempty"`   // Path to personas.yaml
	CompanyPath    string `json:"company,omitempty"`    // Path to company.yaml
	OutputDir      string `json:"output_dir,omitempty"` // Directory for run artifacts

	// Pipeline sizing
	Generators         int     `json:"generators,omitempty"`          // Number of parallel generation units
	HoursBack          int     `json:"hours_back,omitempty"`          // News lookback window in hours
	BlogDaysBack       int     `json:"blog_days_back,omitempty"`      // Blog lookback window in days
	EmbeddingTopK      int     `json:"embedding_top_k,omitempty"`     // Articles kept by the pre-filter
	MaxArticles        int     `json:"max_articles,omitempty"`        // Articles kept by the relevance filter
	RelevanceThreshold float64 `json:"relevance_threshold,omitempty"` // Minimum relevance score (0.0-1.0)

	// Behavior
	Quick        bool   `json:"quick,omitempty"`         // Use only the quick-mode feed subset
	NoEmbedding  bool   `json:"no_embedding,omitempty"`  // Skip the embedding pre-filter
	IncludeBlogs bool   `json:"include_blogs,omitempty"` // Include blog feeds
	Seed         int64  `json:"seed,omitempty"`          // Creativity engine seed (0 = random)
	APIKey       string `json:"api_key,omitempty"`       // Gemini API key
	DatabaseURL  string `json:"database_url,omitempty"`  // PostgreSQL connection URL
	Verbose      bool   `json:"verbose,omitempty"`       // Print detailed debug information
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Generators < 0 {
		return fmt.Errorf("config error: 'generators' must be non-negative")
	}
	if c.HoursBack < 0 {
		return fmt.Errorf("config error: 'hours_back' must be non-negative")
	}
	if c.RelevanceThreshold < 0 || c.RelevanceThreshold > 1 {
		return fmt.Errorf("config error: 'relevance_threshold' must be in [0,1]")
	}
	if c.EmbeddingTopK < 0 {
		return fmt.Errorf("config error: 'embedding_top_k' must be non-negative")
	}

	for name, path := range map[string]string{
		"feeds":      c.FeedsPath,
		"creativity": c.CreativityPath,
		"personas":   c.PersonasPath,
		"company":    c.CompanyPath,
	} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("config error: %s file not found: %s", name, path)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with zero-valued fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.FeedsPath == "" {
		result.FeedsPath = defaults.FeedsPath
	}
	if result.CreativityPath == "" {
		result.CreativityPath = defaults.CreativityPath
	}
	if result.PersonasPath == "" {
		result.PersonasPath = defaults.PersonasPath
	}
	if result.CompanyPath == "" {
		result.CompanyPath = defaults.CompanyPath
	}
	if result.OutputDir == "" {
		result.OutputDir = defaults.OutputDir
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}

	if result.Generators == 0 {
		result.Generators = defaults.Generators
	}
	if result.HoursBack == 0 {
		result.HoursBack = defaults.HoursBack
	}
	if result.BlogDaysBack == 0 {
		result.BlogDaysBack = defaults.BlogDaysBack
	}
	if result.EmbeddingTopK == 0 {
		result.EmbeddingTopK = defaults.EmbeddingTopK
	}
	if result.MaxArticles == 0 {
		result.MaxArticles = defaults.MaxArticles
	}
	if result.RelevanceThreshold == 0 {
		result.RelevanceThreshold = defaults.RelevanceThreshold
	}
	if result.Seed == 0 {
		result.Seed = defaults.Seed
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// Defaults returns the built-in pipeline defaults. Thresholds and sizes are
// configuration, not fixed law; flags and config files override them.
func Defaults() Config {
	return Config{
		OutputDir:          "output/runs",
		Generators:         7,
		HoursBack:          48,
		BlogDaysBack:       14,
		EmbeddingTopK:      20,
		MaxArticles:        5,
		RelevanceThreshold: 0.6,
	}
}
