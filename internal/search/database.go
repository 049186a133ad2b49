// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search gathers raw papers from literature databases. A Searcher
// writes one results file per invocation; the Finder orchestrates the
// unified or split searches of a run, merges their files, and removes the
// files of earlier runs.
package search

import (
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/paperbee/pkg/types"
)

// ErrConfig is types.ErrConfig, re-exported for callers of this package.
var ErrConfig = types.ErrConfig

// DateLayout is the calendar date format used in file names and API paths.
const DateLayout = "2006-01-02"

// Default result caps.
const (
	DefaultLimit            = 1200
	DefaultLimitPerDatabase = 400
)

// Database identifies a literature database.
type Database string

const (
	PubMed  Database = "pubmed"
	ArXiv   Database = "arxiv"
	BioRxiv Database = "biorxiv"
)

// DefaultDatabases is used when the configuration names none.
var DefaultDatabases = []Database{BioRxiv, PubMed}

// ParseDatabases validates names case-insensitively and drops duplicates,
// keeping the first occurrence. An empty list yields DefaultDatabases.
func ParseDatabases(names []string) ([]Database, error) {
	if len(names) == 0 {
		return append([]Database(nil), DefaultDatabases...), nil
	}
	seen := make(map[Database]bool)
	var dbs []Database
	for _, n := range names {
		db := Database(strings.ToLower(strings.TrimSpace(n)))
		switch db {
		case PubMed, ArXiv, BioRxiv:
		default:
			return nil, fmt.Errorf("%w: unknown database %q (want pubmed, arxiv or biorxiv)", ErrConfig, n)
		}
		if seen[db] {
			continue
		}
		seen[db] = true
		dbs = append(dbs, db)
	}
	return dbs, nil
}

// Queries holds the search queries of a run. Unified, when set, is used for
// every database; otherwise BioRxiv and PubMedArxiv are both required.
type Queries struct {
	Unified     string
	BioRxiv     string
	PubMedArxiv string
}

// Split reports whether the queries select split mode.
func (q Queries) Split() bool { return strings.TrimSpace(q.Unified) == "" }

// Validate checks that the queries select a mode.
func (q Queries) Validate() error {
	if !q.Split() {
		return nil
	}
	if strings.TrimSpace(q.BioRxiv) == "" || strings.TrimSpace(q.PubMedArxiv) == "" {
		return fmt.Errorf("%w: either query or both query_biorxiv and query_pubmed_arxiv are required", ErrConfig)
	}
	return nil
}

// Window is the inclusive calendar date range of a search.
type Window struct {
	Since time.Time
	Until time.Time
}

// NewWindow returns the window ending today and starting days earlier.
// days <= 0 means one day.
func NewWindow(today time.Time, days int) Window {
	if days <= 0 {
		days = 1
	}
	until := truncateDay(today)
	return Window{Since: until.AddDate(0, 0, -days), Until: until}
}

// Validate rejects windows whose Since falls after Until.
func (w Window) Validate() error {
	if w.Since.IsZero() || w.Until.IsZero() {
		return fmt.Errorf("%w: search window needs both dates", ErrConfig)
	}
	if truncateDay(w.Since).After(truncateDay(w.Until)) {
		return fmt.Errorf("%w: window since %s is after until %s", ErrConfig,
			w.Since.Format(DateLayout), w.Until.Format(DateLayout))
	}
	return nil
}

// SinceDay and UntilDay format the window bounds as YYYY-MM-DD.
func (w Window) SinceDay() string { return w.Since.Format(DateLayout) }
func (w Window) UntilDay() string { return w.Until.Format(DateLayout) }

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
