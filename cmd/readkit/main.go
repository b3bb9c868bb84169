package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wudi/readkit/observability"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "readkit",
	Short: "Inspect and render documents through the readkit viewport engine",
	Long: `readkit opens markdown and HTML documents with the same backends and
viewport engine an e-reader frontend would use: inspect a document, walk its
table of contents, search it, or render a screenful to an image file.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func logger() observability.Logger {
	if !verbose {
		return observability.NopLogger{}
	}
	return &observability.TextLogger{W: os.Stderr, Min: observability.LevelDebug}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "readkit: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
}
