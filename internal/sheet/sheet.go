// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sheet keeps the published-papers spreadsheet. Update appends only
// records the sheet does not hold yet, newest first under the header row,
// and returns them for the chat publishers.
package sheet

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/paperbee/pkg/types"
)

// FirstDataRow is the 1-based row below the header where new rows go.
const FirstDataRow = 2

// Store is a table of rows with a header row first.
type Store interface {
	// ReadRows returns every row, header first. An empty sheet returns no rows.
	ReadRows(ctx context.Context) ([][]string, error)

	// InsertRows inserts rows so the first lands at 1-based row index at,
	// shifting existing rows down.
	InsertRows(ctx context.Context, rows [][]string, at int) error
}

// Update inserts the records of rs whose key is not in the store yet and
// returns them in input order. A record's key is its DOI, or its URL when
// the DOI is empty.
func Update(ctx context.Context, store Store, rs types.RecordSet) (types.RecordSet, error) {
	existing, err := store.ReadRows(ctx)
	if err != nil {
		return types.RecordSet{}, fmt.Errorf("reading sheet: %w", err)
	}

	published := publishedKeys(existing)
	var fresh []types.Record
	for _, r := range rs.Records {
		k := recordKey(r)
		if k == "" || published[k] {
			continue
		}
		published[k] = true
		fresh = append(fresh, r)
	}
	out := types.NewRecordSet(fresh)
	if out.Len() == 0 {
		return out, nil
	}

	rows := out.Rows()
	at := FirstDataRow
	if len(existing) == 0 {
		rows = append([][]string{types.Columns()}, rows...)
		at = 1
	}
	if err := store.InsertRows(ctx, rows, at); err != nil {
		return types.RecordSet{}, fmt.Errorf("inserting rows: %w", err)
	}
	return out, nil
}

func recordKey(r types.Record) string {
	if d := strings.TrimSpace(r.DOI); d != "" {
		return "doi:" + strings.ToLower(d)
	}
	if u := strings.TrimSpace(r.URL); u != "" {
		return "url:" + u
	}
	return ""
}

// publishedKeys collects the keys of the data rows, locating the DOI and
// URL columns by header name.
func publishedKeys(rows [][]string) map[string]bool {
	keys := make(map[string]bool)
	if len(rows) == 0 {
		return keys
	}
	doiCol, urlCol := columnIndex(rows[0], types.ColDOI, 0), columnIndex(rows[0], types.ColURL, len(types.Columns())-1)
	for _, row := range rows[1:] {
		r := types.Record{DOI: cell(row, doiCol), URL: cell(row, urlCol)}
		if k := recordKey(r); k != "" {
			keys[k] = true
		}
	}
	return keys
}

func columnIndex(header []string, name string, fallback int) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return fallback
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
