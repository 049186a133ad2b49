// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/pdiddy/paperbee/internal/ncbi"
)

func init() {
	minLookupWait = time.Millisecond
}

func newLookup(t *testing.T, h http.HandlerFunc) *PubMedLookup {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return &PubMedLookup{NCBI: ncbi.New(ncbi.WithBaseURL(ts.URL), ncbi.WithHTTPClient(ts.Client()), ncbi.WithRate(rate.Inf))}
}

const fetchWithDOI = `<PubmedArticleSet><PubmedArticle><MedlineCitation><PMID>42</PMID><Article>
<ArticleTitle>T</ArticleTitle><ELocationID EIdType="doi">10.7/found</ELocationID></Article>
</MedlineCitation></PubmedArticle></PubmedArticleSet>`

func TestPubMedLookupFound(t *testing.T) {
	l := newLookup(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/esearch.fcgi":
			assert.Equal(t, "Some title", r.URL.Query().Get("term"))
			fmt.Fprint(w, `{"esearchresult":{"count":"2","idlist":["42","43"]}}`)
		case "/efetch.fcgi":
			assert.Equal(t, "42", r.URL.Query().Get("id"))
			fmt.Fprint(w, fetchWithDOI)
		}
	})
	doi, err := l.LookupDOI(context.Background(), "Some title")
	require.NoError(t, err)
	assert.Equal(t, "10.7/found", doi)
}

func TestPubMedLookupNoHit(t *testing.T) {
	var fetched int32
	l := newLookup(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/efetch.fcgi" {
			atomic.AddInt32(&fetched, 1)
		}
		fmt.Fprint(w, `{"esearchresult":{"count":"0","idlist":[]}}`)
	})
	doi, err := l.LookupDOI(context.Background(), "nothing")
	require.NoError(t, err)
	assert.Equal(t, "", doi)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fetched))
}

func TestPubMedLookupRetriesSearch(t *testing.T) {
	var searches int32
	l := newLookup(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/esearch.fcgi":
			if atomic.AddInt32(&searches, 1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			fmt.Fprint(w, `{"esearchresult":{"count":"1","idlist":["42"]}}`)
		case "/efetch.fcgi":
			fmt.Fprint(w, fetchWithDOI)
		}
	})
	doi, err := l.LookupDOI(context.Background(), "T")
	require.NoError(t, err)
	assert.Equal(t, "10.7/found", doi)
	assert.Equal(t, int32(3), atomic.LoadInt32(&searches))
}

func TestPubMedLookupGivesUp(t *testing.T) {
	var searches int32
	l := newLookup(t, func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&searches, 1)
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err := l.LookupDOI(context.Background(), "T")
	require.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&searches))
}
