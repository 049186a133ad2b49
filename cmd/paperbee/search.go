// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperbee/internal/digest"
	"github.com/pdiddy/paperbee/internal/report"
	"github.com/pdiddy/paperbee/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Find and process papers without posting them",
	Long: `Search runs the find, resolve, normalize and LLM filter steps of a digest
and prints the resulting records. The sheet and chat channels are not
touched.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Int("since", 1, "search window in days, ending today")
	searchCmd.Flags().String("format", "table", "output format: table, json, csv or csl")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	since, _ := cmd.Flags().GetInt("since")
	formatName, _ := cmd.Flags().GetString("format")
	format, err := report.ParseFormat(formatName)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Interactive = false

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	b, err := digest.Build(ctx, cfg, digest.Options{Logger: logger, SkipSinks: true})
	if err != nil {
		return err
	}
	defer b.Close()

	res, err := b.FindAndProcess(ctx, b.Queries, search.NewWindow(time.Now(), since))
	if err != nil {
		return err
	}
	return report.Write(os.Stdout, format, res.Records)
}
