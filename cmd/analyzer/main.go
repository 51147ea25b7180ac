// Package main provides the resume analyzer command line: one-shot analysis,
// skills cloud rendering, background fetching and the web server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"resume-analyzer-web/internal/shared/config"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "analyzer",
		Short:         "Resume Analyzer client",
		Long:          "Uploads resumes to the analysis service and renders the results as text, JSON or a skills cloud.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "Path to a TOML config file (defaults to $RAV_CONFIG)")
	root.AddCommand(newAnalyzeCmd(), newCloudCmd(), newBackgroundCmd(), newServeCmd())
	return root
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads configuration, honoring the --config flag over $RAV_CONFIG.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.Load()
	}
	return config.LoadFrom(path)
}
