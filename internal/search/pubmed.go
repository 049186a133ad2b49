// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"

	"github.com/pdiddy/paperbee/internal/ncbi"
	"github.com/pdiddy/paperbee/pkg/types"
)

// efetchBatch is the number of PMIDs fetched per efetch call.
const efetchBatch = 200

// PubMedBackend searches PubMed through NCBI E-utilities: esearch for the
// PMIDs published within the window, then efetch for the records.
type PubMedBackend struct {
	NCBI *ncbi.Client
}

// Name returns the backend identifier.
func (b *PubMedBackend) Name() string { return "pubmed" }

// Database returns PubMed.
func (b *PubMedBackend) Database() Database { return PubMed }

// Search returns up to limit PubMed records matching query.
func (b *PubMedBackend) Search(ctx context.Context, query string, w Window, limit int) ([]types.RawPaper, error) {
	toks, err := Tokenize(query)
	if err != nil {
		return nil, err
	}
	if len(toks) == 0 {
		return nil, fmt.Errorf("%w: empty PubMed query", ErrConfig)
	}
	if limit <= 0 {
		limit = DefaultLimitPerDatabase
	}

	res, err := b.NCBI.ESearch(ctx, Translate(toks, PubMedDialect), ncbi.SearchParams{
		DateType: "pdat",
		MinDate:  w.Since,
		MaxDate:  w.Until,
		RetMax:   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("pubmed search: %w", err)
	}

	var papers []types.RawPaper
	for start := 0; start < len(res.IDs); start += efetchBatch {
		end := min(start+efetchBatch, len(res.IDs))
		arts, err := b.NCBI.EFetch(ctx, res.IDs[start:end])
		if err != nil {
			return nil, fmt.Errorf("pubmed fetch: %w", err)
		}
		for _, a := range arts {
			papers = append(papers, articleToRawPaper(a))
		}
	}
	return papers, nil
}

func articleToRawPaper(a ncbi.Article) types.RawPaper {
	p := types.RawPaper{
		Title:           a.Title,
		Abstract:        a.Abstract,
		PublicationDate: a.PubDate,
		Databases:       []string{types.TagPubMed},
		URL:             a.URL(),
		DOI:             a.DOI,
	}
	if p.DOI == "" {
		p.DOI = a.ArticleIDDOI
	}
	if len(a.Authors) > 0 {
		p.Authors = types.List(a.Authors...)
	}
	if len(a.Keywords) > 0 {
		p.Keywords = types.List(a.Keywords...)
	}
	return p
}
