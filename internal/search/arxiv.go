// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/paperbee/internal/httputil"
	"github.com/pdiddy/paperbee/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// ArxivBackend queries the arXiv Atom API.
type ArxivBackend struct {
	Client    *http.Client
	UserAgent string
}

// Name returns the backend identifier.
func (b *ArxivBackend) Name() string { return "arxiv" }

// Database returns ArXiv.
func (b *ArxivBackend) Database() Database { return ArXiv }

// Search returns papers submitted within the window that match query.
func (b *ArxivBackend) Search(ctx context.Context, query string, w Window, limit int) ([]types.RawPaper, error) {
	q, err := buildArxivQuery(query, w)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultLimitPerDatabase
	}

	params := url.Values{}
	params.Set("search_query", q)
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(limit))
	params.Set("sortBy", "submittedDate")
	params.Set("sortOrder", "descending")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, arxivAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if b.UserAgent != "" {
		req.Header.Set("User-Agent", b.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, httpClient(b.Client), req, 0)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	var papers []types.RawPaper
	for _, entry := range feed.Entries {
		if extractArxivID(entry.ID) == "" {
			continue
		}
		papers = append(papers, entry.toRawPaper())
	}
	return papers, nil
}

// buildArxivQuery translates the bracketed query and restricts it to the
// submission window.
func buildArxivQuery(query string, w Window) (string, error) {
	toks, err := Tokenize(query)
	if err != nil {
		return "", err
	}
	if len(toks) == 0 {
		return "", fmt.Errorf("%w: empty arXiv query", ErrConfig)
	}
	dates := fmt.Sprintf("submittedDate:[%s0000 TO %s2359]",
		w.Since.Format("20060102"), w.Until.Format("20060102"))
	return "(" + Translate(toks, ArxivDialect) + ") AND " + dates, nil
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID              string        `xml:"id"`
	Title           string        `xml:"title"`
	Summary         string        `xml:"summary"`
	Published       string        `xml:"published"`
	Authors         []arxivAuthor `xml:"author"`
	Links           []arxivLink   `xml:"link"`
	DOI             string        `xml:"http://arxiv.org/schemas/atom doi"`
	PrimaryCategory arxivCategory `xml:"http://arxiv.org/schemas/atom primary_category"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

type arxivLink struct {
	Href  string `xml:"href,attr"`
	Rel   string `xml:"rel,attr"`
	Title string `xml:"title,attr"`
}

type arxivCategory struct {
	Term string `xml:"term,attr"`
}

func (e arxivEntry) toRawPaper() types.RawPaper {
	p := types.RawPaper{
		Title:     collapseSpace(e.Title),
		Abstract:  strings.TrimSpace(e.Summary),
		Databases: []string{types.TagArXiv},
		DOI:       strings.TrimSpace(e.DOI),
		Category:  e.PrimaryCategory.Term,
	}
	if len(e.Published) >= len(DateLayout) {
		p.PublicationDate = e.Published[:len(DateLayout)]
	}

	names := make([]string, 0, len(e.Authors))
	for _, a := range e.Authors {
		names = append(names, strings.TrimSpace(a.Name))
	}
	p.Authors = types.List(names...)

	for _, l := range e.Links {
		if l.Href == "" || l.Title == "pdf" {
			continue
		}
		p.URLs = append(p.URLs, l.Href)
	}
	if len(p.URLs) == 0 {
		p.URLs = []string{strings.TrimSpace(e.ID)}
	}
	return p
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" -> "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := idURL[idx+len(prefix):]

	// Strip version suffix (e.g. "v1", "v2").
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
