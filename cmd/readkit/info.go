package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/wudi/readkit/document"
	_ "github.com/wudi/readkit/document/markdown"
	"github.com/wudi/readkit/metadata"
)

var infoCmd = &cobra.Command{
	Use:   "info <file>",
	Short: "Show document facts: pages, reflowability, fingerprint",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	path := args[0]
	doc, err := document.Open(path)
	if err != nil {
		return err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return err
	}
	fp, err := metadata.FingerprintFile(path)
	if err != nil {
		return err
	}

	fmt.Printf("File:        %s\n", path)
	fmt.Printf("Size:        %s\n", humanize.Bytes(uint64(stat.Size())))
	fmt.Printf("Fingerprint: %s\n", fp)
	fmt.Printf("Pages:       %d\n", doc.PagesCount())
	fmt.Printf("Reflowable:  %v\n", doc.IsReflowable())
	if toc, ok := doc.Toc(); ok {
		fmt.Printf("Chapters:    %d\n", len(document.FlattenToc(toc)))
	}
	fmt.Printf("Formats:     %s\n", strings.Join(document.Formats(), " "))
	return nil
}
