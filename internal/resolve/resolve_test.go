// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paperbee/pkg/types"
)

// fakeLookup returns canned DOIs by title and records the titles it saw.
type fakeLookup struct {
	dois  map[string]string
	err   error
	calls []string
}

func (f *fakeLookup) LookupDOI(_ context.Context, title string) (string, error) {
	f.calls = append(f.calls, title)
	if f.err != nil {
		return "", f.err
	}
	return f.dois[title], nil
}

func TestExistingDOI(t *testing.T) {
	tests := []struct {
		doi  string
		want string
		ok   bool
	}{
		{"10.1/x", "https://doi.org/10.1/x", true},
		{" doi:10.1/x ", "https://doi.org/10.1/x", true},
		{"doi: 10.1/x", "https://doi.org/10.1/x", true},
		{"11.1/x", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := existingDOI(context.Background(), types.RawPaper{DOI: tt.doi})
		assert.Equal(t, tt.ok, ok, tt.doi)
		assert.Equal(t, tt.want, got, tt.doi)
	}
}

func TestURLExtracted(t *testing.T) {
	tests := []struct {
		name string
		p    types.RawPaper
		want string
		ok   bool
	}{
		{"doi.org link", types.RawPaper{URL: "https://doi.org/10.1/x"}, "https://doi.org/10.1/x", true},
		{"publisher doi path", types.RawPaper{URLs: []string{"https://journals.plos.org/doi/10.1371/journal.pone.1"}},
			"https://doi.org/10.1371/journal.pone.1", true},
		{"dx.doi.org without suffix", types.RawPaper{URLs: []string{"http://dx.doi.org/abc"}}, "http://doi.org/abc", true},
		{"dx.doi.org with doi kept as is", types.RawPaper{URLs: []string{"http://dx.doi.org/10.5/z"}}, "http://dx.doi.org/10.5/z", true},
		{"first matching url wins", types.RawPaper{URLs: []string{
			"https://example.org/x", "https://a.org/doi/10.9/a", "https://doi.org/10.8/b",
		}}, "https://doi.org/10.9/a", true},
		{"no doi", types.RawPaper{URLs: []string{"https://www.biorxiv.org/content/10.2/y"}}, "", false},
		{"no urls", types.RawPaper{}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := urlExtracted(context.Background(), tt.p)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFallbackLink(t *testing.T) {
	got, ok := fallbackLink(context.Background(), types.RawPaper{URLs: []string{
		"ftp://x", "https://doi.org/abc", "https://www.biorxiv.org/content/10.2/y",
	}})
	assert.True(t, ok)
	assert.Equal(t, "https://www.biorxiv.org/content/10.2/y", got)

	_, ok = fallbackLink(context.Background(), types.RawPaper{URLs: []string{"https://doi.org/x"}})
	assert.False(t, ok)
}

func TestSearchLink(t *testing.T) {
	tests := []struct {
		name string
		p    types.RawPaper
		want string
	}{
		{"pubmed", types.RawPaper{Title: "Deep (learning) cells", Databases: []string{"PubMed"}},
			"https://pubmed.ncbi.nlm.nih.gov/?term=Deep+learning+cells"},
		{"biorxiv lowercase tag", types.RawPaper{Title: "A B", Databases: []string{"biorxiv"}},
			"https://www.biorxiv.org/search/A+B"},
		{"arxiv", types.RawPaper{Title: "A&B", Databases: []string{"ArXiv"}},
			"https://arxiv.org/search/?query=A%26B"},
		{"pubmed wins over biorxiv", types.RawPaper{Title: "X", Databases: []string{"bioRxiv", "PubMed"}},
			"https://pubmed.ncbi.nlm.nih.gov/?term=X"},
		{"other", types.RawPaper{Title: "X", Databases: []string{"Scopus"}},
			"https://scholar.google.com/scholar?q=X"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SearchLink(tt.p))
		})
	}
}

func TestSearchLinkTruncatesTitle(t *testing.T) {
	long := ""
	for i := 0; i < 200; i++ {
		long += "a"
	}
	link := SearchLink(types.RawPaper{Title: long})
	assert.Equal(t, "https://scholar.google.com/scholar?q="+long[:150], link)
}

func TestResolveOrdersDOIGroupFirst(t *testing.T) {
	papers := []types.RawPaper{
		{Title: "F1", Databases: []string{"bioRxiv"}, URLs: []string{"https://www.biorxiv.org/content/10.2/y"}},
		{Title: "D1", Databases: []string{"PubMed"}, DOI: "10.1/a"},
		{Title: "F2", Databases: []string{"ArXiv"}},
		{Title: "D2", Databases: []string{"ArXiv"}, URLs: []string{"https://doi.org/10.3/c"}},
		{Title: "D3", Databases: []string{"PubMed"}},
	}
	lookup := &fakeLookup{dois: map[string]string{"D3": "doi:10.4/d"}}
	r := New(lookup, nil)

	out, stats := r.Resolve(context.Background(), papers)
	require.Len(t, out, len(papers))

	var titles []string
	for _, p := range out {
		titles = append(titles, p.Title)
	}
	assert.Equal(t, []string{"D1", "D2", "D3", "F1", "F2"}, titles)
	assert.Equal(t, Stats{Existing: 1, URLExtracted: 1, APIFound: 1, Fallback: 2}, stats)
	assert.Equal(t, 3, stats.WithDOI())

	assert.Equal(t, types.StrategyAPIFound, out[2].Strategy)
	assert.Equal(t, "https://doi.org/10.4/d", out[2].ResolvedURL)
	assert.Equal(t, types.StrategyFallbackLink, out[3].Strategy)
	assert.Equal(t, types.StrategyFallbackSearch, out[4].Strategy)
	assert.Equal(t, "https://arxiv.org/search/?query=F2", out[4].ResolvedURL)

	// Only PubMed papers without an earlier match reach the lookup.
	assert.Equal(t, []string{"D3"}, lookup.calls)
}

func TestResolveLookupFailureFallsBack(t *testing.T) {
	lookup := &fakeLookup{err: errors.New("ncbi down")}
	r := New(lookup, nil)
	out, stats := r.Resolve(context.Background(), []types.RawPaper{
		{Title: "P", Databases: []string{"PubMed"}, URL: "https://pubmed.ncbi.nlm.nih.gov/1/"},
	})
	require.Len(t, out, 1)
	assert.Equal(t, types.StrategyFallbackLink, out[0].Strategy)
	assert.Equal(t, "https://pubmed.ncbi.nlm.nih.gov/1/", out[0].ResolvedURL)
	assert.Equal(t, 1, stats.Fallback)
}

func TestResolveLookupNonDOIRejected(t *testing.T) {
	lookup := &fakeLookup{dois: map[string]string{"P": "S0000-1"}}
	out, _ := New(lookup, nil).Resolve(context.Background(), []types.RawPaper{
		{Title: "P", Databases: []string{"PubMed"}},
	})
	assert.Equal(t, types.StrategyFallbackSearch, out[0].Strategy)
}

func TestResolveWithoutLookup(t *testing.T) {
	out, stats := New(nil, nil).Resolve(context.Background(), []types.RawPaper{
		{Title: "P", Databases: []string{"PubMed"}},
	})
	require.Len(t, out, 1)
	assert.Equal(t, types.StrategyFallbackSearch, out[0].Strategy)
	assert.Equal(t, 1, stats.Fallback)
}

func TestResolveEmpty(t *testing.T) {
	out, stats := New(nil, nil).Resolve(context.Background(), nil)
	assert.Empty(t, out)
	assert.Equal(t, Stats{}, stats)
	assert.Equal(t, "existing_doi=0 url_extracted=0 api_found=0 fallback=0", stats.String())
}
