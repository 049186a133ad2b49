// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize converts resolved papers into fixed-schema records.
package normalize

import (
	"strings"

	"github.com/pdiddy/paperbee/pkg/types"
)

// Unknown is the Source of a paper without database tags.
const Unknown = "Unknown"

// sourcePriority is the order in which database tags decide a record's
// Source. A paper with none of them takes its first tag.
var sourcePriority = []string{types.TagPubMed, types.TagBioRxiv, types.TagArXiv}

// Process builds one record per paper, in input order. today becomes every
// record's Date. Process has no side effects.
func Process(papers []types.ResolvedPaper, today string) types.RecordSet {
	records := make([]types.Record, 0, len(papers))
	for _, p := range papers {
		records = append(records, toRecord(p, today))
	}
	return types.NewRecordSet(records)
}

func toRecord(p types.ResolvedPaper, today string) types.Record {
	return types.Record{
		DOI:        ExtractDOI(p),
		Date:       today,
		PostedDate: p.PublicationDate,
		IsPreprint: !p.HasDatabase(types.TagPubMed),
		Title:      p.Title,
		Keywords:   Keywords(p.Keywords),
		Source:     Source(p.Databases),
		URL:        p.ResolvedURL,
	}
}

// ExtractDOI returns the resolved link from its first "10." on. A link
// without "10." gives an empty DOI, and so does a synthesized title search,
// whose "10." could only come from the title. A fallback link only yields
// a DOI when "10." starts a path segment, so arXiv IDs such as 2410.12345
// are not mistaken for one.
func ExtractDOI(p types.ResolvedPaper) string {
	switch p.Strategy {
	case types.StrategyFallbackSearch:
		return ""
	case types.StrategyFallbackLink:
		i := strings.Index(p.ResolvedURL, "/10.")
		if i < 0 {
			return ""
		}
		return p.ResolvedURL[i+1:]
	}
	i := strings.Index(p.ResolvedURL, "10.")
	if i < 0 {
		return ""
	}
	return p.ResolvedURL[i:]
}

// Source picks the record's source from its database tags.
func Source(databases []string) string {
	for _, tag := range sourcePriority {
		for _, db := range databases {
			if db == tag {
				return tag
			}
		}
	}
	if len(databases) > 0 {
		return databases[0]
	}
	return Unknown
}

// Keywords renders a keyword field. A list is cleaned of leaked tag
// markers and joined with ", "; a string passes through unchanged.
func Keywords(v types.StringOrList) string {
	switch v.Form {
	case types.FormString:
		return v.Text
	case types.FormList:
		cleaned := make([]string, len(v.Items))
		for i, k := range v.Items {
			cleaned[i] = cleanKeyword(k)
		}
		return strings.Join(cleaned, ", ")
	default:
		return ""
	}
}

// cleanKeyword strips the leading `["` or `['` (two characters) or `[`,
// `"`, `'` (one character) some sources leave on keywords. Keywords of two
// characters or fewer are kept as is.
func cleanKeyword(k string) string {
	if len(k) <= 2 {
		return k
	}
	switch {
	case strings.HasPrefix(k, `["`), strings.HasPrefix(k, `['`):
		return k[2:]
	case strings.HasPrefix(k, "["), strings.HasPrefix(k, `"`), strings.HasPrefix(k, "'"):
		return k[1:]
	}
	return k
}
