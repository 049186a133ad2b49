// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders record sets for people and for other tools:
// a fixed-width table, JSON, CSV with the sheet's column order, and
// CSL-YAML for reference managers.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/paperbee/pkg/types"
)

// Format names an output format.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
	FormatCSL   Format = "csl"
)

// ParseFormat accepts table, json, csv and csl, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON, FormatCSV, FormatCSL:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want table, json, csv or csl)", types.ErrConfig, s)
	}
}

// Write renders rs in format f.
func Write(w io.Writer, f Format, rs types.RecordSet) error {
	switch f {
	case FormatTable:
		Table(w, rs)
		return nil
	case FormatJSON:
		return JSON(w, rs)
	case FormatCSV:
		return CSV(w, rs)
	case FormatCSL:
		return CSL(w, rs)
	default:
		return fmt.Errorf("%w: unknown format %q", types.ErrConfig, f)
	}
}

// Table writes one line per record.
func Table(w io.Writer, rs types.RecordSet) {
	if rs.Len() == 0 {
		fmt.Fprintln(w, "No papers found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-60s  %-8s  %-10s  %s\n", "#", "Title", "Source", "Posted", "Link")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for i, r := range rs.Records {
		fmt.Fprintf(w, "%-4d  %-60s  %-8s  %-10s  %s\n",
			i+1, truncate(r.Title, 60), truncate(r.Source, 8), truncate(r.PostedDate, 10), r.URL)
	}

	preprints := 0
	for _, r := range rs.Records {
		if r.IsPreprint {
			preprints++
		}
	}
	fmt.Fprintf(w, "\n%d papers (%d preprints)\n", rs.Len(), preprints)
}

// JSON writes the record set as indented JSON.
func JSON(w io.Writer, rs types.RecordSet) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rs)
}

// CSV writes a header row and one row per record in column order.
func CSV(w io.Writer, rs types.RecordSet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(types.Columns()); err != nil {
		return err
	}
	if err := cw.WriteAll(rs.Rows()); err != nil {
		return err
	}
	return cw.Error()
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}
