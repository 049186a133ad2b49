// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the paperbee pipeline:
// raw papers as returned by source adapters, resolved papers carrying a
// canonical link, and the fixed-schema records consumed by every sink.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Database tags carried in RawPaper.Databases.
const (
	TagPubMed  = "PubMed"
	TagBioRxiv = "bioRxiv"
	TagArXiv   = "ArXiv"
)

// ValueForm records which JSON shape a StringOrList was decoded from.
type ValueForm int

const (
	FormNone ValueForm = iota
	FormString
	FormList
)

// StringOrList holds a field that sources emit either as a single string or
// as a list of strings (authors, keywords). Form tells the two apart so
// downstream code never has to probe the value at runtime.
type StringOrList struct {
	Form  ValueForm
	Text  string
	Items []string
}

// String returns a StringOrList holding a single string.
func String(s string) StringOrList {
	return StringOrList{Form: FormString, Text: s}
}

// List returns a StringOrList holding a list.
func List(items ...string) StringOrList {
	if items == nil {
		items = []string{}
	}
	return StringOrList{Form: FormList, Items: items}
}

// IsZero reports whether no value was present.
func (v StringOrList) IsZero() bool { return v.Form == FormNone }

// Values returns the value as a list: the items of a list, the string as a
// one-element list, or nil when absent.
func (v StringOrList) Values() []string {
	switch v.Form {
	case FormList:
		return v.Items
	case FormString:
		if v.Text == "" {
			return nil
		}
		return []string{v.Text}
	default:
		return nil
	}
}

// UnmarshalJSON accepts a string, a list (non-string elements are rendered
// with fmt), or null. Any other JSON value decodes as absent.
func (v *StringOrList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = StringOrList{}
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = String(s)
		return nil
	case '[':
		var raw []any
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		items := make([]string, 0, len(raw))
		for _, el := range raw {
			if s, ok := el.(string); ok {
				items = append(items, s)
				continue
			}
			items = append(items, fmt.Sprint(el))
		}
		*v = List(items...)
		return nil
	default:
		if !json.Valid(data) {
			return fmt.Errorf("invalid JSON value %s", string(data))
		}
		*v = StringOrList{}
		return nil
	}
}

// MarshalJSON writes the value back in the form it was read.
func (v StringOrList) MarshalJSON() ([]byte, error) {
	switch v.Form {
	case FormString:
		return json.Marshal(v.Text)
	case FormList:
		return json.Marshal(v.Items)
	default:
		return []byte("null"), nil
	}
}

// RawPaper is a paper as returned by a source adapter, before identifier
// resolution and normalization. Adapters fill whichever fields their API
// provides; the JSON names match the search results file.
type RawPaper struct {
	Title           string       `json:"title"`
	Abstract        string       `json:"abstract,omitempty"`
	Authors         StringOrList `json:"authors,omitzero"`
	PublicationDate string       `json:"publication_date,omitempty"`
	Databases       []string     `json:"databases"`
	URL             string       `json:"url,omitempty"`
	URLs            []string     `json:"urls,omitempty"`
	DOI             string       `json:"doi,omitempty"`
	Keywords        StringOrList `json:"keywords,omitzero"`
	Category        string       `json:"category,omitempty"`
}

// HasDatabase reports whether the paper carries the exact database tag.
func (p RawPaper) HasDatabase(tag string) bool {
	for _, db := range p.Databases {
		if db == tag {
			return true
		}
	}
	return false
}

// HasDatabaseFold is HasDatabase with case-insensitive matching.
func (p RawPaper) HasDatabaseFold(tag string) bool {
	for _, db := range p.Databases {
		if strings.EqualFold(db, tag) {
			return true
		}
	}
	return false
}

// CandidateURLs returns URLs in order followed by URL when it is set and
// not already listed.
func (p RawPaper) CandidateURLs() []string {
	out := make([]string, 0, len(p.URLs)+1)
	out = append(out, p.URLs...)
	if p.URL == "" {
		return out
	}
	for _, u := range p.URLs {
		if u == p.URL {
			return out
		}
	}
	return append(out, p.URL)
}

// Strategy names the identifier resolution rule that produced a paper's link.
type Strategy string

const (
	StrategyExistingDOI    Strategy = "existing_doi"
	StrategyURLExtracted   Strategy = "url_extracted"
	StrategyAPIFound       Strategy = "api_found"
	StrategyFallbackLink   Strategy = "fallback_link"
	StrategyFallbackSearch Strategy = "fallback_search"
)

// HasDOI reports whether the strategy yields a proper DOI link.
func (s Strategy) HasDOI() bool {
	switch s {
	case StrategyExistingDOI, StrategyURLExtracted, StrategyAPIFound:
		return true
	default:
		return false
	}
}

// ResolvedPaper is a RawPaper with its canonical link assigned.
type ResolvedPaper struct {
	RawPaper
	ResolvedURL string   `json:"resolved_url"`
	Strategy    Strategy `json:"strategy"`
}
