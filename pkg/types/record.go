// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Column names of a Record, in wire order. Sheet rows and chat publishers
// index rows by position, so this order must not change.
const (
	ColDOI        = "DOI"
	ColDate       = "Date"
	ColPostedDate = "PostedDate"
	ColIsPreprint = "IsPreprint"
	ColTitle      = "Title"
	ColKeywords   = "Keywords"
	ColSource     = "Source"
	ColPreprint   = "Preprint"
	ColURL        = "URL"
)

// Row indices used by chat publishers.
const (
	IdxIsPreprint = 3
	IdxTitle      = 4
	IdxSource     = 6
)

// Columns returns the canonical column schema in wire order.
func Columns() []string {
	return []string{
		ColDOI, ColDate, ColPostedDate, ColIsPreprint,
		ColTitle, ColKeywords, ColSource, ColPreprint, ColURL,
	}
}

// Record is one normalized paper row.
type Record struct {
	DOI        string `json:"doi" yaml:"doi"`
	Date       string `json:"date" yaml:"date"`
	PostedDate string `json:"posted_date" yaml:"posted_date"`
	IsPreprint bool   `json:"is_preprint" yaml:"is_preprint"`
	Title      string `json:"title" yaml:"title"`
	Keywords   string `json:"keywords" yaml:"keywords"`
	Source     string `json:"source" yaml:"source"`
	// Preprint is reserved for the preprint of a published paper; always empty.
	Preprint string `json:"preprint" yaml:"preprint"`
	URL      string `json:"url" yaml:"url"`
}

// Row renders the record in column order. IsPreprint becomes "TRUE" or "FALSE".
func (r Record) Row() []string {
	preprint := "FALSE"
	if r.IsPreprint {
		preprint = "TRUE"
	}
	return []string{
		r.DOI, r.Date, r.PostedDate, preprint,
		r.Title, r.Keywords, r.Source, r.Preprint, r.URL,
	}
}

// RecordSet is the tabular output of one pipeline run. Columns always holds
// the full schema, even when Records is empty.
type RecordSet struct {
	Columns []string `json:"columns" yaml:"columns"`
	Records []Record `json:"records" yaml:"records"`
}

// NewRecordSet returns a RecordSet with the canonical schema.
func NewRecordSet(records []Record) RecordSet {
	if records == nil {
		records = []Record{}
	}
	return RecordSet{Columns: Columns(), Records: records}
}

// Len returns the number of records.
func (s RecordSet) Len() int { return len(s.Records) }

// Rows renders every record in column order.
func (s RecordSet) Rows() [][]string {
	rows := make([][]string, len(s.Records))
	for i, r := range s.Records {
		rows[i] = r.Row()
	}
	return rows
}

// ParseRow is the inverse of Row. Missing trailing cells read as empty.
func ParseRow(row []string) Record {
	at := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	return Record{
		DOI:        at(0),
		Date:       at(1),
		PostedDate: at(2),
		IsPreprint: at(IdxIsPreprint) == "TRUE",
		Title:      at(IdxTitle),
		Keywords:   at(5),
		Source:     at(IdxSource),
		Preprint:   at(7),
		URL:        at(8),
	}
}
