package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wudi/readkit/document"
	_ "github.com/wudi/readkit/document/markdown"
)

var tocCmd = &cobra.Command{
	Use:   "toc <file>",
	Short: "Print the table of contents with resolved locations",
	Args:  cobra.ExactArgs(1),
	RunE:  runToc,
}

func init() {
	rootCmd.AddCommand(tocCmd)
}

func runToc(cmd *cobra.Command, args []string) error {
	doc, err := document.Open(args[0])
	if err != nil {
		return err
	}
	toc, ok := doc.Toc()
	if !ok {
		fmt.Println("No table of contents.")
		return nil
	}
	printToc(toc, 0)
	return nil
}

func printToc(entries []document.TocEntry, depth int) {
	for _, e := range entries {
		fmt.Printf("%s%s  @%d\n", strings.Repeat("  ", depth), e.Title, e.Location)
		printToc(e.Children, depth+1)
	}
}
