// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paperbee/internal/digest"
	"github.com/pdiddy/paperbee/internal/report"
	"github.com/pdiddy/paperbee/internal/search"
)

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Run the daily digest and post new papers",
	Long: `Post searches the configured databases for papers from the last --since
days, resolves and normalizes them, applies the LLM and interactive filters
when enabled, inserts unseen papers into the sheet, and posts them to every
enabled chat channel. A failing sink does not stop the others.

Exit status: post exits non-zero when the search or configuration fails,
and also when the run completed but any sink (sheet or chat channel)
failed, after every sink has been tried. The summary on stdout names the
failed sinks.`,
	RunE: runPost,
}

func init() {
	postCmd.Flags().Int("since", 1, "search window in days, ending today")
	postCmd.Flags().Bool("interactive", false, "review each paper on the terminal before posting")
	postCmd.Flags().String("report", "", "write a YAML run report to this path")
	viper.BindPFlag("interactive", postCmd.Flags().Lookup("interactive"))

	rootCmd.AddCommand(postCmd)
}

func runPost(cmd *cobra.Command, args []string) error {
	since, _ := cmd.Flags().GetInt("since")
	reportPath, _ := cmd.Flags().GetString("report")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	b, err := digest.Build(ctx, cfg, digest.Options{Logger: logger, In: os.Stdin, Out: os.Stderr})
	if err != nil {
		return err
	}
	defer b.Close()

	w := search.NewWindow(time.Now(), since)
	res, err := b.Run(ctx, b.Queries, w)
	if err != nil {
		return err
	}
	res.Summary(os.Stdout)

	if reportPath != "" {
		if err := report.WriteRunReport(reportPath, report.NewRunReport(runID, res)); err != nil {
			return err
		}
	}
	if res.HasFailures() {
		return fmt.Errorf("%d sink(s) failed", len(res.SinkErrors))
	}
	return nil
}
