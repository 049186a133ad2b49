// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package publish posts the papers inserted into the sheet to chat
// channels. Every publisher receives sheet rows in column order and groups
// them into preprints and peer-reviewed papers.
package publish

import (
	"context"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/paperbee/pkg/types"
)

// Publisher posts one day's rows to a channel.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, rows [][]string, day string) error
}

// Item is one row reduced to what a chat message shows.
type Item struct {
	Title  string
	Source string
	URL    string
}

// Split separates rows into peer-reviewed papers and preprints, preserving
// order. A row is a preprint when its IsPreprint column is "TRUE". Rows too
// short to carry a source show "Unknown".
func Split(rows [][]string) (papers, preprints []Item) {
	for _, row := range rows {
		if len(row) <= types.IdxTitle {
			continue
		}
		it := Item{Title: row[types.IdxTitle], Source: "Unknown", URL: row[len(row)-1]}
		if len(row) > types.IdxSource {
			it.Source = row[types.IdxSource]
		}
		if row[types.IdxIsPreprint] == "TRUE" {
			preprints = append(preprints, it)
		} else {
			papers = append(papers, it)
		}
	}
	return papers, preprints
}

// SheetLink returns the browser URL of a Google spreadsheet, or "" when no
// spreadsheet is configured.
func SheetLink(spreadsheetID string) string {
	if spreadsheetID == "" {
		return ""
	}
	return "https://docs.google.com/spreadsheets/d/" + spreadsheetID
}

// chunkLines joins lines with newlines into messages shorter than limit
// characters. A single line at or above the limit is cut to fit.
func chunkLines(lines []string, limit int) []string {
	var out []string
	var b strings.Builder
	n := 0
	for _, line := range lines {
		if c := utf8.RuneCountInString(line); c >= limit {
			line = string([]rune(line)[:limit-1])
		}
		c := utf8.RuneCountInString(line)
		sep := 0
		if n > 0 {
			sep = 1
		}
		if n > 0 && n+sep+c >= limit {
			out = append(out, b.String())
			b.Reset()
			n, sep = 0, 0
		}
		if sep == 1 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		n += sep + c
	}
	if n > 0 {
		out = append(out, b.String())
	}
	return out
}

func httpClient(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return http.DefaultClient
}
