// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"
	"fmt"
	"time"

	"github.com/pdiddy/paperbee/internal/httputil"
	"github.com/pdiddy/paperbee/internal/ncbi"
)

// maxLookupWait caps the wait between title search attempts.
const maxLookupWait = 2 * time.Second

// minLookupWait is the first retry wait when the client has no pacing.
var minLookupWait = 100 * time.Millisecond

// PubMedLookup finds a DOI by searching PubMed for a title and reading the
// first article's DOI ELocationID.
type PubMedLookup struct {
	NCBI *ncbi.Client

	// Attempts bounds the title searches per lookup (default 3).
	Attempts int
}

// LookupDOI implements Lookup. A title with no PubMed hit, or whose first
// hit has no DOI, returns an empty DOI and a nil error.
func (l *PubMedLookup) LookupDOI(ctx context.Context, title string) (string, error) {
	attempts := l.Attempts
	if attempts <= 0 {
		attempts = 3
	}
	base := l.NCBI.Interval()
	if base <= 0 {
		base = minLookupWait
	}

	var res ncbi.SearchResult
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		res, err = l.NCBI.ESearch(ctx, title, ncbi.SearchParams{})
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if attempt == attempts-1 {
			return "", fmt.Errorf("searching title: %w", err)
		}
		if err := httputil.Sleep(ctx, httputil.Backoff(attempt, base, maxLookupWait)); err != nil {
			return "", err
		}
	}
	if len(res.IDs) == 0 {
		return "", nil
	}

	arts, err := l.NCBI.EFetch(ctx, res.IDs[:1])
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", res.IDs[0], err)
	}
	if len(arts) == 0 {
		return "", nil
	}
	return arts[0].DOI, nil
}
