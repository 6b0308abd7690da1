// Package main provides the entry point for the PostPilot CLI and API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "post_agent",
	Short: "PostPilot social post generation agent",
	Long:  "PostPilot monitors news and blog feeds, selects the article most relevant to a company, and generates scored social post drafts through a multi-persona pipeline.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
