// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package filter

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/paperbee/pkg/types"
)

// Interactive asks a person to keep or drop each record. Answers are read
// line by line: "n" drops the record, "q" keeps it and every remaining
// record, anything else (including an empty line) keeps it.
type Interactive struct {
	In  io.Reader
	Out io.Writer
}

// Filter splits rs into kept and dropped records. End of input keeps the
// remaining records.
func (f *Interactive) Filter(ctx context.Context, rs types.RecordSet) (kept, dropped types.RecordSet) {
	sc := bufio.NewScanner(f.In)
	var keep, drop []types.Record
	keepRest := false

	for i, r := range rs.Records {
		if keepRest || ctx.Err() != nil {
			keep = append(keep, r)
			continue
		}
		fmt.Fprintf(f.Out, "\n[%d/%d] %s\n  source: %s\n  url:    %s\nKeep? [Y/n/q] ", i+1, rs.Len(), r.Title, r.Source, r.URL)
		if !sc.Scan() {
			keepRest = true
			keep = append(keep, r)
			continue
		}
		switch strings.ToLower(strings.TrimSpace(sc.Text())) {
		case "n", "no":
			drop = append(drop, r)
		case "q", "quit":
			keepRest = true
			keep = append(keep, r)
		default:
			keep = append(keep, r)
		}
	}
	fmt.Fprintf(f.Out, "\nkept %d, dropped %d\n", len(keep), len(drop))
	return types.NewRecordSet(keep), types.NewRecordSet(drop)
}
