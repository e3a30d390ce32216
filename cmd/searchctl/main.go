// Command searchctl is the control plane CLI for a blue-green reindex
// orchestrator and evaluation harness layered over a full-text search
// engine: it serves the admin+search HTTP API, drives reindex migrations,
// and runs evaluation/benchmark passes, all from the same core packages the
// API uses.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "searchctl",
	Short:   "Control plane and evaluation harness for a full-text search engine",
	Long:    "searchctl drives blue-green reindex migrations, evaluation runs, and performance benchmarks against an external search engine, and serves the admin+search HTTP API.",
	Version: version,
}

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to searchctl.yaml (defaults to ./searchctl.yaml)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(reindexCmd)
	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(benchCmd)
}
