// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve assigns every raw paper a canonical link. Rules are tried
// in order and the first that yields a link wins: an existing DOI, a DOI
// found in one of the paper's URLs, a DOI looked up by title in PubMed, and
// finally a fallback link.
package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/pdiddy/paperbee/pkg/types"
)

// DOIBase prefixes a bare DOI to form its resolver link.
const DOIBase = "https://doi.org/"

// maxSearchTitle caps the title used in synthesized search links, in runes.
const maxSearchTitle = 150

// Lookup finds a DOI by paper title. An empty DOI with a nil error means
// no match.
type Lookup interface {
	LookupDOI(ctx context.Context, title string) (string, error)
}

// Stats counts papers per resolution outcome.
type Stats struct {
	Existing     int
	URLExtracted int
	APIFound     int
	Fallback     int
}

// WithDOI returns the number of papers resolved to a DOI link.
func (s Stats) WithDOI() int { return s.Existing + s.URLExtracted + s.APIFound }

// String renders the stats in a single log-friendly line.
func (s Stats) String() string {
	return fmt.Sprintf("existing_doi=%d url_extracted=%d api_found=%d fallback=%d",
		s.Existing, s.URLExtracted, s.APIFound, s.Fallback)
}

func (s *Stats) count(st types.Strategy) {
	switch st {
	case types.StrategyExistingDOI:
		s.Existing++
	case types.StrategyURLExtracted:
		s.URLExtracted++
	case types.StrategyAPIFound:
		s.APIFound++
	default:
		s.Fallback++
	}
}

// rule tries to produce a link for p. ok is false when the rule does not
// apply.
type rule struct {
	strategy types.Strategy
	apply    func(ctx context.Context, p types.RawPaper) (link string, ok bool)
}

// Resolver runs the resolution cascade.
type Resolver struct {
	rules  []rule
	logger *slog.Logger
}

// New returns a Resolver. A nil lookup disables the PubMed title lookup.
func New(lookup Lookup, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{logger: logger}
	r.rules = []rule{
		{types.StrategyExistingDOI, existingDOI},
		{types.StrategyURLExtracted, urlExtracted},
	}
	if lookup != nil {
		r.rules = append(r.rules, rule{types.StrategyAPIFound, r.apiFound(lookup)})
	}
	r.rules = append(r.rules,
		rule{types.StrategyFallbackLink, fallbackLink},
		rule{types.StrategyFallbackSearch, fallbackSearch},
	)
	return r
}

// Resolve assigns a link to every paper. Papers resolved to a DOI come
// first, followed by fallback papers; relative order is kept within each
// group.
func (r *Resolver) Resolve(ctx context.Context, papers []types.RawPaper) ([]types.ResolvedPaper, Stats) {
	var stats Stats
	var withDOI, fallback []types.ResolvedPaper
	for _, p := range papers {
		rp := r.resolveOne(ctx, p)
		stats.count(rp.Strategy)
		if rp.Strategy.HasDOI() {
			withDOI = append(withDOI, rp)
		} else {
			fallback = append(fallback, rp)
		}
	}
	r.logger.Info("resolved identifiers", "papers", len(papers), "with_doi", stats.WithDOI(), "fallback", stats.Fallback)
	return append(withDOI, fallback...), stats
}

func (r *Resolver) resolveOne(ctx context.Context, p types.RawPaper) types.ResolvedPaper {
	for _, ru := range r.rules {
		if link, ok := ru.apply(ctx, p); ok {
			return types.ResolvedPaper{RawPaper: p, ResolvedURL: link, Strategy: ru.strategy}
		}
	}
	// fallbackSearch always applies; unreachable.
	return types.ResolvedPaper{RawPaper: p, Strategy: types.StrategyFallbackSearch}
}

// CleanDOI strips a "doi:" prefix and surrounding whitespace. It returns
// the DOI and whether it starts with "10.".
func CleanDOI(doi string) (string, bool) {
	d := strings.TrimSpace(strings.ReplaceAll(doi, "doi:", ""))
	return d, strings.HasPrefix(d, "10.")
}

func existingDOI(_ context.Context, p types.RawPaper) (string, bool) {
	d, ok := CleanDOI(p.DOI)
	if !ok {
		return "", false
	}
	return DOIBase + d, true
}

// urlExtracted checks each candidate URL in turn: a doi.org link with a
// DOI is used as is, a publisher "/doi/10." link is rewritten to doi.org,
// and a dx.doi.org link is rewritten to doi.org.
func urlExtracted(_ context.Context, p types.RawPaper) (string, bool) {
	for _, u := range p.CandidateURLs() {
		switch {
		case strings.Contains(u, "doi.org") && strings.Contains(u, "/10."):
			return u, true
		case strings.Contains(u, "/doi/10."):
			part := u[strings.LastIndex(u, "/doi/")+len("/doi/"):]
			if strings.HasPrefix(part, "10.") {
				return DOIBase + part, true
			}
		case strings.Contains(u, "dx.doi.org"):
			return strings.Replace(u, "dx.doi.org", "doi.org", 1), true
		}
	}
	return "", false
}

func (r *Resolver) apiFound(lookup Lookup) func(context.Context, types.RawPaper) (string, bool) {
	return func(ctx context.Context, p types.RawPaper) (string, bool) {
		if !p.HasDatabase(types.TagPubMed) {
			return "", false
		}
		doi, err := lookup.LookupDOI(ctx, p.Title)
		if err != nil {
			r.logger.Warn("doi lookup failed", "title", truncate(p.Title, 50), "err", err)
			return "", false
		}
		d, ok := CleanDOI(doi)
		if !ok {
			return "", false
		}
		return DOIBase + d, true
	}
}

func fallbackLink(_ context.Context, p types.RawPaper) (string, bool) {
	for _, u := range p.CandidateURLs() {
		if strings.HasPrefix(u, "http") && !strings.HasPrefix(u, DOIBase) {
			return u, true
		}
	}
	return "", false
}

// searchTemplates map a database tag to its title-search link, in priority
// order.
var searchTemplates = []struct {
	tag  string
	base string
}{
	{types.TagPubMed, "https://pubmed.ncbi.nlm.nih.gov/?term="},
	{types.TagBioRxiv, "https://www.biorxiv.org/search/"},
	{types.TagArXiv, "https://arxiv.org/search/?query="},
}

const scholarSearch = "https://scholar.google.com/scholar?q="

// fallbackSearch synthesizes a title search on the paper's database.
func fallbackSearch(_ context.Context, p types.RawPaper) (string, bool) {
	return SearchLink(p), true
}

// SearchLink returns the title-search link for p.
func SearchLink(p types.RawPaper) string {
	title := strings.NewReplacer("(", "", ")", "").Replace(p.Title)
	if rs := []rune(title); len(rs) > maxSearchTitle {
		title = string(rs[:maxSearchTitle])
	}
	q := url.QueryEscape(title)
	for _, t := range searchTemplates {
		if p.HasDatabaseFold(t.tag) {
			return t.base + q
		}
	}
	return scholarSearch + q
}

func truncate(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n]) + "..."
}
