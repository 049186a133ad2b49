// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/pdiddy/paperbee/pkg/types"
)

// Finder runs the searches of one digest run and merges their results.
type Finder struct {
	Searcher    Searcher
	RootDir     string
	Databases   []Database
	Limit       int
	PerDatabase int
	Logger      *slog.Logger
}

// FindStats reports what Find merged and dropped.
type FindStats struct {
	Primary     int
	BioRxiv     int
	DupsRemoved int
	Untitled    int
}

// ResultPaths names the results files of a day.
type ResultPaths struct {
	Unified string
	BioRxiv string
	Primary string
}

// Paths returns the results files for day (YYYY-MM-DD) under the root dir.
func (f *Finder) Paths(day string) ResultPaths {
	return ResultPaths{
		Unified: filepath.Join(f.RootDir, day+".json"),
		BioRxiv: filepath.Join(f.RootDir, day+"_biorxiv.json"),
		Primary: filepath.Join(f.RootDir, day+"_pub_arx.json"),
	}
}

// Find searches the requested databases for the window and returns the
// merged raw papers. With a unified query every database is searched at
// once; otherwise the non-bioRxiv databases are searched with the
// PubMed/arXiv query and bioRxiv with its own query. A bioRxiv failure
// degrades to zero bioRxiv papers; a primary failure is returned.
func (f *Finder) Find(ctx context.Context, q Queries, w Window) ([]types.RawPaper, FindStats, error) {
	if err := q.Validate(); err != nil {
		return nil, FindStats{}, err
	}
	if err := w.Validate(); err != nil {
		return nil, FindStats{}, err
	}
	dbs := f.Databases
	if len(dbs) == 0 {
		dbs = DefaultDatabases
	}
	paths := f.Paths(w.UntilDay())

	var stats FindStats
	var papers []types.RawPaper

	if !q.Split() {
		f.logger().Info("searching", "databases", dbs, "mode", "unified")
		if err := f.search(ctx, paths.Unified, q.Unified, w, dbs); err != nil {
			return nil, stats, err
		}
		primary, err := ReadResults(paths.Unified)
		if err != nil {
			return nil, stats, err
		}
		stats.Primary = len(primary)
		papers = primary
	} else {
		var others []Database
		wantBioRxiv := false
		for _, db := range dbs {
			if db == BioRxiv {
				wantBioRxiv = true
				continue
			}
			others = append(others, db)
		}

		if len(others) > 0 {
			f.logger().Info("searching", "databases", others, "mode", "split")
			if err := f.search(ctx, paths.Primary, q.PubMedArxiv, w, others); err != nil {
				return nil, stats, err
			}
			primary, err := ReadResults(paths.Primary)
			if err != nil {
				return nil, stats, err
			}
			stats.Primary = len(primary)
			papers = append(papers, primary...)
		}

		if wantBioRxiv {
			bio, err := f.searchBioRxiv(ctx, paths.BioRxiv, q.BioRxiv, w)
			if err != nil {
				f.logger().Warn("biorxiv search failed, continuing without biorxiv papers", "err", err)
			}
			stats.BioRxiv = len(bio)
			papers = append(papers, bio...)
		}
	}

	var titled []types.RawPaper
	for _, p := range papers {
		if strings.TrimSpace(p.Title) == "" {
			stats.Untitled++
			continue
		}
		titled = append(titled, p)
	}
	if stats.Untitled > 0 {
		f.logger().Warn("dropped papers without title", "count", stats.Untitled)
	}

	merged, removed := deduplicate(titled)
	stats.DupsRemoved = removed
	return merged, stats, nil
}

func (f *Finder) searchBioRxiv(ctx context.Context, path, query string, w Window) ([]types.RawPaper, error) {
	f.logger().Info("searching", "databases", []Database{BioRxiv}, "mode", "split")
	if err := f.search(ctx, path, query, w, []Database{BioRxiv}); err != nil {
		return nil, err
	}
	return ReadResults(path)
}

func (f *Finder) search(ctx context.Context, path, query string, w Window, dbs []Database) error {
	if err := os.MkdirAll(f.RootDir, 0o755); err != nil {
		return fmt.Errorf("creating root dir: %w", err)
	}
	if err := f.Searcher.Search(ctx, path, query, w.Since, w.Until, f.limit(), f.perDatabase(), dbs); err != nil {
		return fmt.Errorf("searching %v: %w", dbs, err)
	}
	return nil
}

// Cleanup removes the results files of day. Missing files are not errors.
func (f *Finder) Cleanup(day string) error {
	paths := f.Paths(day)
	var errs []error
	for _, p := range []string{paths.Unified, paths.BioRxiv, paths.Primary} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("removing %s: %w", p, err))
		}
	}
	return errors.Join(errs...)
}

func (f *Finder) limit() int {
	if f.Limit > 0 {
		return f.Limit
	}
	return DefaultLimit
}

func (f *Finder) perDatabase() int {
	if f.PerDatabase > 0 {
		return f.PerDatabase
	}
	return DefaultLimitPerDatabase
}

func (f *Finder) logger() *slog.Logger {
	if f.Logger == nil {
		return slog.Default()
	}
	return f.Logger
}

// deduplicate merges papers that share a DOI or normalized title. The first
// occurrence wins; later copies only fill its empty fields and add database
// tags.
func deduplicate(papers []types.RawPaper) ([]types.RawPaper, int) {
	seen := make(map[string]int) // dedup key -> index in deduped
	var deduped []types.RawPaper
	removed := 0

	for _, p := range papers {
		doiKey := ""
		if d := normalizeDOI(p.DOI); d != "" {
			doiKey = "doi:" + d
		}
		titleKey := ""
		if t := normalizeTitle(p.Title); t != "" {
			titleKey = "title:" + t
		}

		idx, ok := -1, false
		if doiKey != "" {
			idx, ok = seen[doiKey]
		}
		if !ok && titleKey != "" {
			idx, ok = seen[titleKey]
		}
		if ok {
			mergeInto(&deduped[idx], p)
			removed++
			if doiKey != "" {
				if _, exists := seen[doiKey]; !exists {
					seen[doiKey] = idx
				}
			}
			continue
		}

		idx = len(deduped)
		deduped = append(deduped, p)
		if doiKey != "" {
			seen[doiKey] = idx
		}
		if titleKey != "" {
			seen[titleKey] = idx
		}
	}
	return deduped, removed
}

// mergeInto fills empty fields of dst from src and adds src's database tags.
func mergeInto(dst *types.RawPaper, src types.RawPaper) {
	if dst.Abstract == "" {
		dst.Abstract = src.Abstract
	}
	if dst.Authors.IsZero() {
		dst.Authors = src.Authors
	}
	if dst.PublicationDate == "" {
		dst.PublicationDate = src.PublicationDate
	}
	if dst.URL == "" {
		dst.URL = src.URL
	}
	if len(dst.URLs) == 0 {
		dst.URLs = src.URLs
	}
	if dst.DOI == "" {
		dst.DOI = src.DOI
	}
	if dst.Keywords.IsZero() {
		dst.Keywords = src.Keywords
	}
	if dst.Category == "" {
		dst.Category = src.Category
	}
	for _, db := range src.Databases {
		if !dst.HasDatabase(db) {
			dst.Databases = append(dst.Databases, db)
		}
	}
}

func normalizeDOI(doi string) string {
	d := strings.ToLower(strings.TrimSpace(doi))
	d = strings.TrimPrefix(d, "doi:")
	d = strings.TrimPrefix(d, "https://doi.org/")
	return strings.TrimSpace(d)
}

// normalizeTitle returns a lowercased, punctuation-stripped version of the title.
func normalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
