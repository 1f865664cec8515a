// Package cli implements the blog admin command line interface.
package cli

import (
	"github.com/spf13/cobra"
)

var (
	apiURL     string
	jsonOutput bool
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "blogctl",
	Short: "Command line client for the blog API",
	Long: `blogctl manages a blog through its REST API: articles, comments,
tags, categories and user administration.

Credentials are stored between invocations, so one "blogctl login" covers
subsequent commands until the session expires or "blogctl logout" runs.

Environment Variables:
  BLOG_API_URL             Backend API URL (default: http://127.0.0.1:8000/api)
  BLOG_STORAGE_BACKEND     Credential storage: file, redis or memory
  BLOG_STORAGE_PATH        Credential file location (file backend)
  REDIS_HOST, REDIS_PORT   Redis endpoint (redis backend)
  LOG_LEVEL                debug, info, warn or error`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Backend API URL (overrides BLOG_API_URL)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
}
