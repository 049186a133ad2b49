// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperbee/internal/report"
	"github.com/pdiddy/paperbee/internal/sheet"
	"github.com/pdiddy/paperbee/pkg/types"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Print the papers recorded in the local ledger",
	Long: `Ledger lists the papers stored in the SQLite ledger configured by
LEDGER_PATH (or --path), newest first.`,
	RunE: runLedger,
}

func init() {
	ledgerCmd.Flags().String("path", "", "ledger database (default: LEDGER_PATH from config)")
	ledgerCmd.Flags().String("format", "table", "output format: table, json, csv or csl")
	ledgerCmd.Flags().Int("limit", 0, "show at most this many papers (0 for all)")

	rootCmd.AddCommand(ledgerCmd)
}

func runLedger(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("path")
	limit, _ := cmd.Flags().GetInt("limit")
	formatName, _ := cmd.Flags().GetString("format")
	format, err := report.ParseFormat(formatName)
	if err != nil {
		return err
	}

	if path == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		path = cfg.Sheet.LedgerPath
	}
	if path == "" {
		return fmt.Errorf("%w: no ledger configured (set LEDGER_PATH or --path)", types.ErrConfig)
	}

	l, err := sheet.OpenLedger(path)
	if err != nil {
		return err
	}
	defer l.Close()

	rows, err := l.ReadRows(context.Background())
	if err != nil {
		return err
	}
	var records []types.Record
	for _, row := range rows[1:] {
		if limit > 0 && len(records) >= limit {
			break
		}
		records = append(records, types.ParseRow(row))
	}
	return report.Write(os.Stdout, format, types.NewRecordSet(records))
}
