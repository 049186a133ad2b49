// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/pdiddy/paperbee/internal/httputil"
	"github.com/pdiddy/paperbee/pkg/types"
)

// biorxivAPIBase is the bioRxiv details endpoint. Declared as a var so
// tests can substitute an httptest server.
var biorxivAPIBase = "https://api.biorxiv.org/details/biorxiv"

// biorxivContentBase prefixes a DOI to form the paper's landing page.
const biorxivContentBase = "https://www.biorxiv.org/content/"

// BiorxivBackend pages through the bioRxiv details API. The API has no
// free-text search, so when Filter is set the query is applied locally as
// a substring match on title, abstract, and category.
type BiorxivBackend struct {
	Client    *http.Client
	UserAgent string
	Filter    bool
	Logger    *slog.Logger
}

// Name returns the backend identifier.
func (b *BiorxivBackend) Name() string { return "biorxiv" }

// Database returns BioRxiv.
func (b *BiorxivBackend) Database() Database { return BioRxiv }

// Search returns up to limit preprints posted within the window.
func (b *BiorxivBackend) Search(ctx context.Context, query string, w Window, limit int) ([]types.RawPaper, error) {
	if limit <= 0 {
		limit = DefaultLimitPerDatabase
	}
	var terms []string
	if b.Filter {
		terms = substringTerms(query)
	}

	var papers []types.RawPaper
	seen, fetched := 0, 0
	for cursor := 0; len(papers) < limit; {
		page, err := b.fetchPage(ctx, w, cursor)
		if err != nil {
			return nil, err
		}
		if len(page.Collection) == 0 {
			break
		}
		for _, rec := range page.Collection {
			fetched++
			p, ok := rec.toRawPaper()
			if !ok {
				continue
			}
			seen++
			if len(terms) > 0 && !matchesAny(p, terms) {
				continue
			}
			papers = append(papers, p)
			if len(papers) == limit {
				break
			}
		}
		cursor += len(page.Collection)
		if total := page.total(); total > 0 && cursor >= total {
			break
		}
	}

	if b.Logger != nil && len(terms) > 0 {
		b.Logger.Info("biorxiv filter", "fetched", fetched, "with_doi", seen, "kept", len(papers))
	}
	return papers, nil
}

func (b *BiorxivBackend) fetchPage(ctx context.Context, w Window, cursor int) (biorxivPage, error) {
	u := fmt.Sprintf("%s/%s/%s/%d", biorxivAPIBase, w.SinceDay(), w.UntilDay(), cursor)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return biorxivPage{}, fmt.Errorf("creating request: %w", err)
	}
	if b.UserAgent != "" {
		req.Header.Set("User-Agent", b.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, httpClient(b.Client), req, 0)
	if err != nil {
		return biorxivPage{}, fmt.Errorf("bioRxiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return biorxivPage{}, fmt.Errorf("bioRxiv API returned HTTP %d", resp.StatusCode)
	}

	var page biorxivPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return biorxivPage{}, fmt.Errorf("parsing bioRxiv response: %w", err)
	}
	return page, nil
}

func matchesAny(p types.RawPaper, terms []string) bool {
	text := strings.ToLower(p.Title + " " + p.Abstract + " " + p.Category)
	for _, t := range terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

// bioRxiv API JSON structures.
type biorxivPage struct {
	Messages   []biorxivMessage `json:"messages"`
	Collection []biorxivRecord  `json:"collection"`
}

type biorxivMessage struct {
	Status string  `json:"status"`
	Cursor flexInt `json:"cursor"`
	Count  flexInt `json:"count"`
	Total  flexInt `json:"total"`
}

func (p biorxivPage) total() int {
	if len(p.Messages) == 0 {
		return 0
	}
	return int(p.Messages[0].Total)
}

type biorxivRecord struct {
	DOI      string `json:"doi"`
	Title    string `json:"title"`
	Authors  string `json:"authors"`
	Date     string `json:"date"`
	Category string `json:"category"`
	Abstract string `json:"abstract"`
}

func (r biorxivRecord) toRawPaper() (types.RawPaper, bool) {
	doi := strings.TrimSpace(r.DOI)
	if doi == "" {
		return types.RawPaper{}, false
	}
	p := types.RawPaper{
		Title:           strings.TrimSpace(r.Title),
		Abstract:        strings.TrimSpace(r.Abstract),
		PublicationDate: r.Date,
		Databases:       []string{types.TagBioRxiv},
		URL:             biorxivContentBase + doi,
		DOI:             doi,
		Category:        r.Category,
	}
	if r.Authors != "" {
		p.Authors = types.String(r.Authors)
	}
	return p, true
}

// flexInt decodes integers the API sends either as numbers or as strings.
type flexInt int

func (n *flexInt) UnmarshalJSON(data []byte) error {
	s := string(bytes.Trim(bytes.TrimSpace(data), `"`))
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("expected integer, got %s", string(data))
	}
	*n = flexInt(v)
	return nil
}
