// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package digest

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/paperbee/internal/filter"
	"github.com/pdiddy/paperbee/internal/ncbi"
	"github.com/pdiddy/paperbee/internal/publish"
	"github.com/pdiddy/paperbee/internal/resolve"
	"github.com/pdiddy/paperbee/internal/search"
	"github.com/pdiddy/paperbee/internal/sheet"
	"github.com/pdiddy/paperbee/pkg/types"
)

const (
	DefaultTimeout   = 45 * time.Second
	DefaultUserAgent = "paperbee/0.1"
)

// Options carries the process-level collaborators that are not part of
// the configuration file.
type Options struct {
	Logger *slog.Logger

	// In and Out serve the interactive filter.
	In  io.Reader
	Out io.Writer

	// SkipSinks leaves the sheet and chat publishers unset, for runs that
	// only print results.
	SkipSinks bool
}

// Built is a Pipeline assembled from configuration plus the queries it
// should run. Close releases the sheet store.
type Built struct {
	*Pipeline
	Queries search.Queries
	closers []func() error
}

// Close releases resources opened by Build.
func (b *Built) Close() error {
	var first error
	for _, c := range b.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Build assembles a Pipeline from cfg. Configuration problems are returned
// wrapped in types.ErrConfig before any network call is made.
func Build(ctx context.Context, cfg types.Config, opts Options) (*Built, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	timeout := cfg.HTTP.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ua := cfg.HTTP.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	client := &http.Client{Timeout: timeout}

	dbs, err := search.ParseDatabases(cfg.Search.Databases)
	if err != nil {
		return nil, err
	}
	queries := search.Queries{
		Unified:     cfg.Search.Query,
		BioRxiv:     cfg.Search.QueryBioRxiv,
		PubMedArxiv: cfg.Search.QueryPubMedArxiv,
	}
	if err := queries.Validate(); err != nil {
		return nil, err
	}

	nc := ncbi.New(
		ncbi.WithAPIKey(cfg.Search.NCBIAPIKey),
		ncbi.WithHTTPClient(client),
		ncbi.WithUserAgent(ua),
	)
	searcher := search.NewBackendSearcher(logger,
		&search.PubMedBackend{NCBI: nc},
		&search.ArxivBackend{Client: client, UserAgent: ua},
		&search.BiorxivBackend{Client: client, UserAgent: ua, Filter: cfg.Search.BioRxivClientFilter, Logger: logger},
	)

	b := &Built{
		Pipeline: &Pipeline{
			Finder: &search.Finder{
				Searcher:    searcher,
				RootDir:     cfg.Search.RootDir,
				Databases:   dbs,
				Limit:       cfg.Search.Limit,
				PerDatabase: cfg.Search.LimitPerDatabase,
				Logger:      logger,
			},
			Resolver: resolve.New(&resolve.PubMedLookup{NCBI: nc}, logger),
			Logger:   logger,
		},
		Queries: queries,
	}

	llm, err := filter.New(cfg.LLM, client, logger)
	if err != nil {
		return nil, err
	}
	if llm != nil {
		b.Filters = append(b.Filters, llm)
	}
	if cfg.Interactive && opts.In != nil && opts.Out != nil {
		b.Filters = append(b.Filters, &filter.Interactive{In: opts.In, Out: opts.Out})
	}

	if opts.SkipSinks {
		return b, nil
	}

	if err := b.buildSinks(ctx, cfg, client, logger); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

func (b *Built) buildSinks(ctx context.Context, cfg types.Config, client *http.Client, logger *slog.Logger) error {
	switch {
	case strings.TrimSpace(cfg.Sheet.LedgerPath) != "":
		l, err := sheet.OpenLedger(cfg.Sheet.LedgerPath)
		if err != nil {
			return err
		}
		b.Sheet = l
		b.closers = append(b.closers, l.Close)
	case cfg.Sheet.SpreadsheetID != "":
		g, err := sheet.NewGoogleSheet(ctx, cfg.Sheet)
		if err != nil {
			return err
		}
		b.Sheet = g
	default:
		logger.Warn("no spreadsheet configured, every processed paper will be posted")
	}

	link := publish.SheetLink(cfg.Sheet.SpreadsheetID)
	switch {
	case cfg.Slack.Enabled && cfg.Slack.Categorized:
		backend, err := filter.NewBackend(cfg.LLM, client)
		if err != nil {
			return err
		}
		cat := filter.NewCategorizer(backend, cfg.Slack.CategoryPrompt, filter.CategoryInterval, logger)
		s, err := publish.NewCategorizedSlack(cfg.Slack, link, cat, client, logger)
		if err != nil {
			return err
		}
		b.Publishers = append(b.Publishers, s)
	case cfg.Slack.Enabled:
		s, err := publish.NewSlack(cfg.Slack, link, client, logger)
		if err != nil {
			return err
		}
		b.Publishers = append(b.Publishers, s)
	}
	if cfg.Telegram.Enabled {
		t, err := publish.NewTelegram(cfg.Telegram, link, client, logger)
		if err != nil {
			return err
		}
		b.Publishers = append(b.Publishers, t)
	}
	if cfg.Zulip.Enabled {
		z, err := publish.NewZulip(cfg.Zulip, link, client, logger)
		if err != nil {
			return err
		}
		b.Publishers = append(b.Publishers, z)
	}
	return nil
}
