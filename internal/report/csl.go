// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"io"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paperbee/pkg/types"
)

// CSLItem is a bibliographic entry in CSL-YAML form, consumable by Pandoc
// and reference managers.
type CSLItem struct {
	ID             string   `yaml:"id"`
	Type           string   `yaml:"type"`
	Title          string   `yaml:"title"`
	ContainerTitle string   `yaml:"container-title,omitempty"`
	Issued         *CSLDate `yaml:"issued,omitempty"`
	Accessed       *CSLDate `yaml:"accessed,omitempty"`
	Keyword        string   `yaml:"keyword,omitempty"`
	DOI            string   `yaml:"DOI,omitempty"`
	URL            string   `yaml:"URL"`
}

// CSLDate is a date in CSL date-parts form.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

// CSL writes the records as a CSL-YAML list.
func CSL(w io.Writer, rs types.RecordSet) error {
	items := make([]CSLItem, len(rs.Records))
	for i, r := range rs.Records {
		items[i] = toCSLItem(r)
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(items)
}

// toCSLItem maps a record to CSL. Preprints are typed "article", journal
// papers "article-journal".
func toCSLItem(r types.Record) CSLItem {
	item := CSLItem{
		ID:       r.DOI,
		Type:     "article-journal",
		Title:    r.Title,
		Issued:   parseCSLDate(r.PostedDate),
		Accessed: parseCSLDate(r.Date),
		Keyword:  r.Keywords,
		DOI:      r.DOI,
		URL:      r.URL,
	}
	if item.ID == "" {
		item.ID = r.URL
	}
	if r.IsPreprint {
		item.Type = "article"
	}
	if r.Source != "" && r.Source != "Unknown" {
		item.ContainerTitle = r.Source
	}
	return item
}

// parseCSLDate reads YYYY, YYYY-MM or YYYY-MM-DD (also with "/"
// separators). Anything else yields nil.
func parseCSLDate(s string) *CSLDate {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '/' })
	if len(fields) == 0 || len(fields) > 3 {
		return nil
	}
	parts := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil
		}
		parts = append(parts, n)
	}
	return &CSLDate{DateParts: [][]int{parts}}
}
