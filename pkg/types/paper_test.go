// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringOrListUnmarshal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  StringOrList
	}{
		{"string", `"cancer"`, String("cancer")},
		{"list", `["ml","ai"]`, List("ml", "ai")},
		{"mixed list", `["ml",3]`, List("ml", "3")},
		{"null", `null`, StringOrList{}},
		{"empty list", `[]`, List()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got StringOrList
			require.NoError(t, json.Unmarshal([]byte(tt.input), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStringOrListOtherValuesAreAbsent(t *testing.T) {
	for _, in := range []string{`{"k":"v"}`, `42`, `true`} {
		got := String("stale")
		require.NoError(t, json.Unmarshal([]byte(in), &got), in)
		assert.True(t, got.IsZero(), in)
		assert.Nil(t, got.Values(), in)
	}
}

func TestRawPaperDecodeOddKeywords(t *testing.T) {
	var papers []RawPaper
	require.NoError(t, json.Unmarshal([]byte(`[
		{"title":"A","keywords":{"k":"v"},"databases":["PubMed"]},
		{"title":"B","keywords":42,"authors":{"x":1},"databases":["bioRxiv"]}
	]`), &papers))
	require.Len(t, papers, 2)
	assert.True(t, papers[0].Keywords.IsZero())
	assert.True(t, papers[1].Keywords.IsZero())
	assert.True(t, papers[1].Authors.IsZero())
}

func TestRawPaperDecodeMissingFields(t *testing.T) {
	var p RawPaper
	require.NoError(t, json.Unmarshal([]byte(`{"title":"A","databases":["PubMed"]}`), &p))
	assert.True(t, p.Keywords.IsZero())
	assert.True(t, p.Authors.IsZero())
	assert.True(t, p.HasDatabase(TagPubMed))
	assert.False(t, p.HasDatabase("pubmed"))
	assert.True(t, p.HasDatabaseFold("pubmed"))
}

func TestCandidateURLs(t *testing.T) {
	tests := []struct {
		name string
		p    RawPaper
		want []string
	}{
		{"url only", RawPaper{URL: "https://a"}, []string{"https://a"}},
		{"urls then url", RawPaper{URL: "https://b", URLs: []string{"https://a"}}, []string{"https://a", "https://b"}},
		{"url already listed", RawPaper{URL: "https://a", URLs: []string{"https://a"}}, []string{"https://a"}},
		{"none", RawPaper{}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p.CandidateURLs())
		})
	}
}

func TestRecordRow(t *testing.T) {
	r := Record{DOI: "10.1/x", Date: "2024-01-03", PostedDate: "2024-01-01", IsPreprint: true,
		Title: "A", Keywords: "ml", Source: "bioRxiv", URL: "https://doi.org/10.1/x"}
	row := r.Row()
	require.Len(t, row, len(Columns()))
	assert.Equal(t, "TRUE", row[IdxIsPreprint])
	assert.Equal(t, "A", row[IdxTitle])
	assert.Equal(t, "bioRxiv", row[IdxSource])
	assert.Equal(t, "https://doi.org/10.1/x", row[len(row)-1])
	assert.Equal(t, "", row[7])
}

func TestNewRecordSetEmpty(t *testing.T) {
	rs := NewRecordSet(nil)
	assert.Equal(t, []string{"DOI", "Date", "PostedDate", "IsPreprint", "Title", "Keywords", "Source", "Preprint", "URL"}, rs.Columns)
	assert.Equal(t, 0, rs.Len())
	assert.NotNil(t, rs.Records)
	assert.Empty(t, rs.Rows())
}

func TestParseRow(t *testing.T) {
	r := Record{DOI: "10.1/x", Date: "2024-01-03", IsPreprint: true, Title: "A", Source: "bioRxiv", URL: "u"}
	assert.Equal(t, r, ParseRow(r.Row()))
	assert.Equal(t, Record{DOI: "10.1/x", Date: "d"}, ParseRow([]string{"10.1/x", "d"}))
}
