// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paperbee/internal/resolve"
	"github.com/pdiddy/paperbee/pkg/types"
)

const today = "2024-01-03"

func resolved(p types.RawPaper, link string, s types.Strategy) types.ResolvedPaper {
	return types.ResolvedPaper{RawPaper: p, ResolvedURL: link, Strategy: s}
}

func TestProcessEmpty(t *testing.T) {
	rs := Process(nil, today)
	assert.Equal(t, 0, rs.Len())
	assert.Equal(t, []string{"DOI", "Date", "PostedDate", "IsPreprint", "Title", "Keywords", "Source", "Preprint", "URL"}, rs.Columns)
}

func TestProcessOneRecordPerInput(t *testing.T) {
	in := []types.ResolvedPaper{
		resolved(types.RawPaper{Title: "A", Databases: []string{"PubMed"}}, "https://doi.org/10.1/a", types.StrategyExistingDOI),
		resolved(types.RawPaper{Title: "A", Databases: []string{"PubMed"}}, "https://doi.org/10.1/a", types.StrategyExistingDOI),
		resolved(types.RawPaper{Title: "B"}, "https://x.org/b", types.StrategyFallbackLink),
	}
	rs := Process(in, today)
	require.Equal(t, 3, rs.Len())
	for i, r := range rs.Records {
		assert.Equal(t, in[i].Title, r.Title)
		assert.Equal(t, today, r.Date)
		assert.Equal(t, "", r.Preprint)
	}
}

func TestIsPreprint(t *testing.T) {
	tests := []struct {
		dbs  []string
		want bool
	}{
		{[]string{"PubMed"}, false},
		{[]string{"bioRxiv", "PubMed"}, false},
		{[]string{"bioRxiv"}, true},
		{[]string{"ArXiv"}, true},
		{[]string{"pubmed"}, true},
		{nil, true},
	}
	for _, tt := range tests {
		rs := Process([]types.ResolvedPaper{resolved(types.RawPaper{Title: "T", Databases: tt.dbs}, "u", types.StrategyFallbackLink)}, today)
		assert.Equal(t, tt.want, rs.Records[0].IsPreprint, "%v", tt.dbs)
	}
}

func TestSource(t *testing.T) {
	tests := []struct {
		dbs  []string
		want string
	}{
		{[]string{"ArXiv", "bioRxiv", "PubMed"}, "PubMed"},
		{[]string{"ArXiv", "bioRxiv"}, "bioRxiv"},
		{[]string{"Scopus", "ArXiv"}, "ArXiv"},
		{[]string{"Scopus", "IEEE"}, "Scopus"},
		{nil, "Unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Source(tt.dbs), "%v", tt.dbs)
	}
}

func TestExtractDOI(t *testing.T) {
	tests := []struct {
		name string
		link string
		s    types.Strategy
		want string
	}{
		{"doi link", "https://doi.org/10.1101/2024.01.01.123456", types.StrategyExistingDOI, "10.1101/2024.01.01.123456"},
		{"fallback link with doi", "https://www.biorxiv.org/content/10.2/y", types.StrategyFallbackLink, "10.2/y"},
		{"fallback link without doi", "https://pubmed.ncbi.nlm.nih.gov/1/", types.StrategyFallbackLink, ""},
		{"arxiv october id", "http://arxiv.org/abs/2410.12345v1", types.StrategyFallbackLink, ""},
		{"arxiv pdf link", "https://arxiv.org/pdf/2310.01234", types.StrategyFallbackLink, ""},
		{"search link", "https://scholar.google.com/scholar?q=Version+10.5+released", types.StrategyFallbackSearch, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractDOI(resolved(types.RawPaper{}, tt.link, tt.s)))
		})
	}
}

func TestKeywords(t *testing.T) {
	tests := []struct {
		name string
		in   types.StringOrList
		want string
	}{
		{"quoted list", types.List(`"tag1`, `"tag2`), "tag1, tag2"},
		{"bracket quote", types.List(`["alpha`, `['beta`, `[gamma`, `'delta`), "alpha, beta, gamma, delta"},
		{"short kept", types.List(`["`, `'a`, "ml"), `[", 'a, ml`},
		{"plain list", types.List("ml", "ai"), "ml, ai"},
		{"string", types.String(`["raw", "string"]`), `["raw", "string"]`},
		{"absent", types.StringOrList{}, ""},
		{"empty list", types.List(), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Keywords(tt.in))
		})
	}
}

func TestProcessIsIdempotent(t *testing.T) {
	in := []types.ResolvedPaper{
		resolved(types.RawPaper{Title: "A", Databases: []string{"PubMed"}, Keywords: types.List(`"k`)}, "https://doi.org/10.1/a", types.StrategyExistingDOI),
		resolved(types.RawPaper{Title: "B", Databases: []string{"bioRxiv"}}, "https://x.org/b", types.StrategyFallbackLink),
	}
	first := Process(in, today)
	second := Process(in, today)
	assert.Equal(t, first, second)
	assert.Equal(t, `"k`, in[0].Keywords.Items[0], "input not mutated")
}

// TestEndToEndScenario runs raw papers through the resolver and the
// normalizer the way a digest run does.
func TestEndToEndScenario(t *testing.T) {
	raw := []types.RawPaper{
		{Title: "A", Databases: []string{"PubMed"}, PublicationDate: "2024-01-01",
			Keywords: types.List("ml"), URL: "https://doi.org/10.1/x"},
		{Title: "B", Databases: []string{"bioRxiv"}, PublicationDate: "2024-01-02",
			Keywords: types.String("cancer"), URLs: []string{"https://www.biorxiv.org/content/10.2/y"}},
	}
	papers, _ := resolve.New(nil, nil).Resolve(context.Background(), raw)
	rs := Process(papers, today)
	require.Equal(t, 2, rs.Len())

	a, b := rs.Records[0], rs.Records[1]
	assert.Equal(t, types.Record{
		DOI: "10.1/x", Date: today, PostedDate: "2024-01-01", IsPreprint: false,
		Title: "A", Keywords: "ml", Source: "PubMed", URL: "https://doi.org/10.1/x",
	}, a)
	assert.Equal(t, types.Record{
		DOI: "10.2/y", Date: today, PostedDate: "2024-01-02", IsPreprint: true,
		Title: "B", Keywords: "cancer", Source: "bioRxiv", URL: "https://www.biorxiv.org/content/10.2/y",
	}, b)
	assert.Equal(t, []string{"10.1/x", today, "2024-01-01", "FALSE", "A", "ml", "PubMed", "", "https://doi.org/10.1/x"}, a.Row())
}

func TestDOIGroupPrecedesFallback(t *testing.T) {
	raw := []types.RawPaper{
		{Title: "F1", Databases: []string{"ArXiv"}},
		{Title: "D1", DOI: "10.1/a", Databases: []string{"PubMed"}},
		{Title: "F2", Databases: []string{"bioRxiv"}, URL: "https://www.biorxiv.org/content/x"},
		{Title: "D2", URL: "https://doi.org/10.2/b", Databases: []string{"ArXiv"}},
	}
	papers, _ := resolve.New(nil, nil).Resolve(context.Background(), raw)
	rs := Process(papers, today)
	var titles []string
	for _, r := range rs.Records {
		titles = append(titles, r.Title)
	}
	assert.Equal(t, []string{"D1", "D2", "F1", "F2"}, titles)
}
