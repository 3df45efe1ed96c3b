// Package main provides the blog_agent CLI: it writes, scores, translates and
// publishes SEO blog articles, and serves the same pipeline over HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/blog-autopilot/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "blog_agent",
	Short: "SEO blog article pipeline",
	Long: `blog_agent turns a topic into a bilingual, SEO-optimized blog article:
research -> draft -> quality score -> improvement loop -> SEO metadata -> translation -> review file -> CMS.

Settings come from blog_agent.yaml (or --config), the environment, and .env.`,
	SilenceUsage: true,
}

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML or JSON config file (defaults to ./blog_agent.yaml when present)")
}

func main() {
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
