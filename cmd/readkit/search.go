package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wudi/readkit/document"
	_ "github.com/wudi/readkit/document/markdown"
	"github.com/wudi/readkit/geo"
	"github.com/wudi/readkit/viewport"
)

var searchBackward bool

var searchCmd = &cobra.Command{
	Use:   "search <file> <pattern>",
	Short: "Search a document and list matched pages",
	Long: `Search runs the same streaming background search the reader uses. The
pattern is a regular expression; an all-lowercase pattern matches case
insensitively.`,
	Args: cobra.ExactArgs(2),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().BoolVar(&searchBackward, "backward", false, "Scan from the last page toward the first")
}

func runSearch(cmd *cobra.Command, args []string) error {
	doc, err := document.Open(args[0])
	if err != nil {
		return err
	}

	dir := geo.Forward
	if searchBackward {
		dir = geo.Backward
	}
	engine := viewport.New(document.NewShared(doc), geo.Rect(0, 0, 600, 800),
		viewport.WithLogger(logger()),
		viewport.WithSearchDirection(dir))

	if !engine.StartSearch(args[1]) {
		return fmt.Errorf("invalid pattern %q", args[1])
	}

	for ev := range engine.Events() {
		engine.Apply(ev)
		if n, ok := ev.(viewport.NotifyEvent); ok {
			fmt.Println(n.Message)
		}
		if _, ok := ev.(viewport.SearchEndEvent); ok {
			break
		}
	}
	// Applying the end event may queue a final notification.
	select {
	case ev := <-engine.Events():
		if n, ok := ev.(viewport.NotifyEvent); ok {
			fmt.Println(n.Message)
		}
	default:
	}

	pages, counts := engine.ResultPages()
	_, results, _, _ := engine.SearchInfo()
	for _, loc := range pages {
		fmt.Printf("page %d: %d match(es)\n", loc, counts[loc])
	}
	fmt.Printf("%d result(s) on %d page(s)\n", results, len(pages))
	return nil
}
