// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package digest runs one PaperBee cycle: find papers, resolve their
// links, normalize them into records, filter, record new rows in the
// sheet, and post them to the chat channels.
package digest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/pdiddy/paperbee/internal/normalize"
	"github.com/pdiddy/paperbee/internal/publish"
	"github.com/pdiddy/paperbee/internal/resolve"
	"github.com/pdiddy/paperbee/internal/search"
	"github.com/pdiddy/paperbee/internal/sheet"
	"github.com/pdiddy/paperbee/pkg/types"
)

// RecordFilter drops records from a set. The LLM and interactive filters
// both satisfy it.
type RecordFilter interface {
	Filter(ctx context.Context, rs types.RecordSet) (kept, rejected types.RecordSet)
}

// Pipeline holds the collaborators of a run. Sheet and Publishers are
// optional: without a sheet every processed record is posted.
type Pipeline struct {
	Finder     *search.Finder
	Resolver   *resolve.Resolver
	Filters    []RecordFilter
	Sheet      sheet.Store
	Publishers []publish.Publisher
	Logger     *slog.Logger
}

// Result reports what a run did. SinkErrors maps a sink name ("sheet",
// "slack", ...) to its failure.
type Result struct {
	Window     search.Window
	Find       search.FindStats
	Resolve    resolve.Stats
	Records    types.RecordSet
	Rejected   int
	Published  types.RecordSet
	SinkErrors map[string]error
}

// HasFailures reports whether any sink failed.
func (r *Result) HasFailures() bool {
	return len(r.SinkErrors) > 0
}

// Summary prints a short human-readable report of the run.
func (r *Result) Summary(w io.Writer) {
	fmt.Fprintf(w, "Window: %s to %s\n", r.Window.SinceDay(), r.Window.UntilDay())
	fmt.Fprintf(w, "Found: %d primary, %d bioRxiv (%d duplicates, %d untitled dropped)\n",
		r.Find.Primary, r.Find.BioRxiv, r.Find.DupsRemoved, r.Find.Untitled)
	fmt.Fprintf(w, "Links: %s\n", r.Resolve)
	fmt.Fprintf(w, "Records: %d kept, %d rejected, %d new\n", r.Records.Len(), r.Rejected, r.Published.Len())
	names := make([]string, 0, len(r.SinkErrors))
	for name := range r.SinkErrors {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "failed:  %s (%v)\n", name, r.SinkErrors[name])
	}
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// FindAndProcess searches the window and turns the results into filtered
// records dated with the window's last day.
func (p *Pipeline) FindAndProcess(ctx context.Context, q search.Queries, w search.Window) (*Result, error) {
	res := &Result{Window: w, SinkErrors: make(map[string]error)}

	papers, stats, err := p.Finder.Find(ctx, q, w)
	if err != nil {
		return nil, fmt.Errorf("finding papers: %w", err)
	}
	res.Find = stats
	p.logger().Info("papers found", "count", len(papers), "duplicates", stats.DupsRemoved)

	resolver := p.Resolver
	if resolver == nil {
		resolver = resolve.New(nil, p.logger())
	}
	resolved, rstats := resolver.Resolve(ctx, papers)
	res.Resolve = rstats
	p.logger().Info("links resolved", "with_doi", rstats.WithDOI(), "fallback", rstats.Fallback)

	rs := normalize.Process(resolved, w.UntilDay())
	for _, f := range p.Filters {
		kept, rejected := f.Filter(ctx, rs)
		res.Rejected += rejected.Len()
		rs = kept
	}
	res.Records = rs
	return res, nil
}

// Run performs a full cycle. Sink failures are logged and recorded in the
// result; they do not stop the remaining sinks. When the sheet fails the
// chat channels receive every processed record. The results files of the
// window's first day are removed at the end.
func (p *Pipeline) Run(ctx context.Context, q search.Queries, w search.Window) (*Result, error) {
	res, err := p.FindAndProcess(ctx, q, w)
	if err != nil {
		return nil, err
	}

	res.Published = res.Records
	if p.Sheet != nil {
		fresh, err := sheet.Update(ctx, p.Sheet, res.Records)
		if err != nil {
			p.logger().Error("sheet update failed, posting all records", "err", err)
			res.SinkErrors["sheet"] = err
		} else {
			res.Published = fresh
			p.logger().Info("sheet updated", "inserted", fresh.Len())
		}
	}

	rows := res.Published.Rows()
	for _, pub := range p.Publishers {
		if err := pub.Publish(ctx, rows, w.UntilDay()); err != nil {
			p.logger().Error("publish failed", "publisher", pub.Name(), "err", err)
			res.SinkErrors[pub.Name()] = err
			continue
		}
		p.logger().Info("published", "publisher", pub.Name(), "papers", len(rows))
	}

	if err := p.Finder.Cleanup(w.SinceDay()); err != nil {
		p.logger().Warn("cleanup failed", "day", w.SinceDay(), "err", err)
	}
	return res, nil
}
