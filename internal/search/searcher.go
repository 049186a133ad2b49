// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/paperbee/pkg/types"
)

// Searcher runs a search across databases and writes the results to
// outPath as {"papers": [...]}.
type Searcher interface {
	Search(ctx context.Context, outPath, query string, since, until time.Time, limit, perDatabase int, dbs []Database) error
}

// Backend searches a single literature database.
type Backend interface {
	Name() string
	Database() Database
	Search(ctx context.Context, query string, w Window, limit int) ([]types.RawPaper, error)
}

// ResultsFile is the on-disk form of one search.
type ResultsFile struct {
	Papers []types.RawPaper `json:"papers"`
}

// BackendSearcher is the Searcher that queries one Backend per requested
// database, in request order.
type BackendSearcher struct {
	backends map[Database]Backend
	logger   *slog.Logger
}

// NewBackendSearcher registers backends by their database. A later backend
// for the same database replaces an earlier one.
func NewBackendSearcher(logger *slog.Logger, backends ...Backend) *BackendSearcher {
	if logger == nil {
		logger = slog.Default()
	}
	s := &BackendSearcher{backends: make(map[Database]Backend), logger: logger}
	for _, b := range backends {
		s.backends[b.Database()] = b
	}
	return s
}

// Search queries each database, caps each result list at perDatabase and
// the merged list at limit, and writes the results file atomically. A
// failing backend is logged and skipped; Search fails only when every
// requested backend failed.
func (s *BackendSearcher) Search(ctx context.Context, outPath, query string, since, until time.Time, limit, perDatabase int, dbs []Database) error {
	if len(dbs) == 0 {
		return fmt.Errorf("%w: no databases to search", ErrConfig)
	}
	w := Window{Since: since, Until: until}
	if err := w.Validate(); err != nil {
		return err
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if perDatabase <= 0 {
		perDatabase = DefaultLimitPerDatabase
	}

	var all []types.RawPaper
	var errs []error
	for _, db := range dbs {
		b, ok := s.backends[db]
		if !ok {
			return fmt.Errorf("%w: no backend for database %s", ErrConfig, db)
		}
		start := time.Now()
		papers, err := b.Search(ctx, query, w, perDatabase)
		if err != nil {
			s.logger.Warn("backend failed", "backend", b.Name(), "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", b.Name(), err))
			continue
		}
		if len(papers) > perDatabase {
			papers = papers[:perDatabase]
		}
		s.logger.Info("backend done", "backend", b.Name(), "papers", len(papers), "elapsed", time.Since(start).Round(time.Millisecond))
		all = append(all, papers...)
	}
	if len(errs) == len(dbs) {
		return fmt.Errorf("all backends failed: %w", errors.Join(errs...))
	}
	if len(all) > limit {
		all = all[:limit]
	}
	return WriteResults(outPath, all)
}

// WriteResults writes papers to path through a temp file and rename so a
// reader never sees a partial file.
func WriteResults(path string, papers []types.RawPaper) error {
	if papers == nil {
		papers = []types.RawPaper{}
	}
	data, err := json.MarshalIndent(ResultsFile{Papers: papers}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating results directory: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".search-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing results: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// ReadResults reads a results file written by a Searcher.
func ReadResults(path string) ([]types.RawPaper, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading results %s: %w", path, err)
	}
	var rf ResultsFile
	if err := json.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing results %s: %w", path, err)
	}
	return rf.Papers, nil
}

func httpClient(c *http.Client) *http.Client {
	if c == nil {
		return http.DefaultClient
	}
	return c
}
