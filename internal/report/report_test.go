// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paperbee/internal/digest"
	"github.com/pdiddy/paperbee/internal/resolve"
	"github.com/pdiddy/paperbee/internal/search"
	"github.com/pdiddy/paperbee/pkg/types"
)

func sampleSet() types.RecordSet {
	return types.NewRecordSet([]types.Record{
		{DOI: "10.1/x", Date: "2024-01-03", PostedDate: "2024-01-01", Title: "A study", Keywords: "ml", Source: "PubMed", URL: "https://doi.org/10.1/x"},
		{Date: "2024-01-03", PostedDate: "2024/01", IsPreprint: true, Title: strings.Repeat("long ", 20), Source: "ArXiv", URL: "https://arxiv.org/abs/1"},
	})
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatTable, "JSON": FormatJSON, " csv ": FormatCSV, "csl": FormatCSL} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("bibtex")
	assert.True(t, errors.Is(err, types.ErrConfig))
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	Table(&buf, sampleSet())
	out := buf.String()
	assert.Contains(t, out, "A study")
	assert.Contains(t, out, "https://doi.org/10.1/x")
	assert.Contains(t, out, "...")
	assert.Contains(t, out, "2 papers (1 preprints)")

	buf.Reset()
	Table(&buf, types.NewRecordSet(nil))
	assert.Equal(t, "No papers found.\n", buf.String())
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, sampleSet()))

	var got types.RecordSet
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, types.Columns(), got.Columns)
	assert.Len(t, got.Records, 2)
}

func TestCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, sampleSet()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, types.Columns(), rows[0])
	assert.Equal(t, "FALSE", rows[1][types.IdxIsPreprint])
	assert.Equal(t, "TRUE", rows[2][types.IdxIsPreprint])
}

func TestCSL(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSL, sampleSet()))

	var items []CSLItem
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &items))
	require.Len(t, items, 2)

	assert.Equal(t, "10.1/x", items[0].ID)
	assert.Equal(t, "article-journal", items[0].Type)
	assert.Equal(t, "PubMed", items[0].ContainerTitle)
	assert.Equal(t, [][]int{{2024, 1, 1}}, items[0].Issued.DateParts)

	assert.Equal(t, "https://arxiv.org/abs/1", items[1].ID, "records without DOI use their URL")
	assert.Equal(t, "article", items[1].Type)
	assert.Equal(t, [][]int{{2024, 1}}, items[1].Issued.DateParts)
	assert.Empty(t, items[1].DOI)
}

func TestParseCSLDate(t *testing.T) {
	assert.Nil(t, parseCSLDate(""))
	assert.Nil(t, parseCSLDate("January 2024"))
	assert.Nil(t, parseCSLDate("2024-01-02-03"))
	assert.Equal(t, [][]int{{2024}}, parseCSLDate("2024").DateParts)
}

func TestRunReport(t *testing.T) {
	until := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	res := &digest.Result{
		Window:     search.Window{Since: until.AddDate(0, 0, -1), Until: until},
		Find:       search.FindStats{Primary: 3, BioRxiv: 1, DupsRemoved: 1},
		Resolve:    resolve.Stats{Existing: 2, Fallback: 1},
		Records:    sampleSet(),
		Rejected:   1,
		Published:  types.NewRecordSet(sampleSet().Records[:1]),
		SinkErrors: map[string]error{"slack": errors.New("channel_not_found")},
	}

	rep := NewRunReport("run-1", res)
	path := filepath.Join(t.TempDir(), "reports", "2024-01-03.yaml")
	require.NoError(t, WriteRunReport(path, rep))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got RunReport
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, rep, got)
	assert.Equal(t, "2024-01-02", got.Since)
	assert.Equal(t, []string{"https://doi.org/10.1/x"}, got.Published)
	assert.Equal(t, "channel_not_found", got.SinkErrors["slack"])
	assert.Equal(t, 2, got.Links.ExistingDOI)
}
