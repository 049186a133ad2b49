// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ncbi is a rate-limited client for the NCBI E-utilities used by
// the PubMed search backend and the DOI lookup.
package ncbi

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/paperbee/internal/httputil"
)

// DefaultBaseURL is the E-utilities root.
const DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// DefaultTimeout bounds each request.
const DefaultTimeout = 45 * time.Second

// Request rates allowed by NCBI without and with an API key.
const (
	RateAnonymous = 3.0
	RateWithKey   = 10.0
)

// Client is a rate-limited E-utilities client. One Client should be shared
// by every caller in a process so the limit holds globally.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	apiKey     string
	baseURL    string
	userAgent  string
	limit      rate.Limit
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sets the NCBI API key and raises the request rate.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithRate overrides the request rate (for testing).
func WithRate(r rate.Limit) Option {
	return func(c *Client) {
		c.limit = r
	}
}

// New creates a Client paced at 3 requests/s, or 10 with an API key.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.limit == 0 {
		c.limit = RateAnonymous
		if c.apiKey != "" {
			c.limit = RateWithKey
		}
	}
	c.limiter = rate.NewLimiter(c.limit, 1)
	return c
}

// Interval returns the minimum spacing between requests.
func (c *Client) Interval() time.Duration {
	if c.limit == rate.Inf || c.limit <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / float64(c.limit))
}

// SearchParams narrows an esearch call.
type SearchParams struct {
	// DateType is pdat (publication date) or edat (Entrez date).
	DateType string
	MinDate  time.Time
	MaxDate  time.Time
	RetMax   int
}

// SearchResult is the parsed esearch reply.
type SearchResult struct {
	Count int
	IDs   []string
}

// ESearch runs esearch.fcgi against PubMed and returns the matching PMIDs.
func (c *Client) ESearch(ctx context.Context, term string, p SearchParams) (SearchResult, error) {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("term", term)
	params.Set("retmode", "json")
	if p.RetMax > 0 {
		params.Set("retmax", strconv.Itoa(p.RetMax))
	}
	if !p.MinDate.IsZero() && !p.MaxDate.IsZero() {
		dt := p.DateType
		if dt == "" {
			dt = "pdat"
		}
		params.Set("datetype", dt)
		params.Set("mindate", p.MinDate.Format("2006/01/02"))
		params.Set("maxdate", p.MaxDate.Format("2006/01/02"))
	}

	var body struct {
		Result *struct {
			Count  string   `json:"count"`
			IDList []string `json:"idlist"`
		} `json:"esearchresult"`
	}
	if err := c.get(ctx, "esearch.fcgi", params, func(resp *http.Response) error {
		return json.NewDecoder(resp.Body).Decode(&body)
	}); err != nil {
		return SearchResult{}, err
	}
	if body.Result == nil {
		return SearchResult{}, fmt.Errorf("esearch: unexpected response structure")
	}
	n, _ := strconv.Atoi(body.Result.Count)
	return SearchResult{Count: n, IDs: body.Result.IDList}, nil
}

// EFetch fetches PubMed records as XML and parses them into Articles, in
// the order NCBI returns them.
func (c *Client) EFetch(ctx context.Context, ids []string) ([]Article, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("id", strings.Join(ids, ","))
	params.Set("retmode", "xml")

	var set pubmedArticleSet
	if err := c.get(ctx, "efetch.fcgi", params, func(resp *http.Response) error {
		return xml.NewDecoder(resp.Body).Decode(&set)
	}); err != nil {
		return nil, err
	}
	articles := make([]Article, 0, len(set.Articles))
	for _, a := range set.Articles {
		articles = append(articles, a.toArticle())
	}
	return articles, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, decode func(*http.Response) error) error {
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	u := c.baseURL + "/" + endpoint + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.httpClient, req, 0)
	if err != nil {
		return fmt.Errorf("%s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if err := httputil.CheckStatus(resp); err != nil {
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	if err := decode(resp); err != nil {
		return fmt.Errorf("parsing %s response: %w", endpoint, err)
	}
	return nil
}
