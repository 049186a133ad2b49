// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package digest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paperbee/internal/publish"
	"github.com/pdiddy/paperbee/internal/search"
	"github.com/pdiddy/paperbee/internal/sheet"
	"github.com/pdiddy/paperbee/pkg/types"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeSearcher writes canned papers per database into the results file.
type fakeSearcher struct {
	papers map[search.Database][]types.RawPaper
	fail   bool
}

func (f *fakeSearcher) Search(_ context.Context, outPath, _ string, _, _ time.Time, _, _ int, dbs []search.Database) error {
	if f.fail {
		return errors.New("search down")
	}
	var out []types.RawPaper
	for _, db := range dbs {
		out = append(out, f.papers[db]...)
	}
	return search.WriteResults(outPath, out)
}

type fakePublisher struct {
	name string
	err  error
	rows [][]string
	day  string
}

func (p *fakePublisher) Name() string { return p.name }

func (p *fakePublisher) Publish(_ context.Context, rows [][]string, day string) error {
	p.rows, p.day = rows, day
	return p.err
}

type failingStore struct{}

func (failingStore) ReadRows(context.Context) ([][]string, error) {
	return nil, errors.New("quota exceeded")
}

func (failingStore) InsertRows(context.Context, [][]string, int) error { return nil }

// dropTitled rejects records whose title contains word.
type dropTitled struct{ word string }

func (d dropTitled) Filter(_ context.Context, rs types.RecordSet) (kept, rejected types.RecordSet) {
	var k, r []types.Record
	for _, rec := range rs.Records {
		if strings.Contains(rec.Title, d.word) {
			r = append(r, rec)
		} else {
			k = append(k, rec)
		}
	}
	return types.NewRecordSet(k), types.NewRecordSet(r)
}

func scenarioPapers() map[search.Database][]types.RawPaper {
	return map[search.Database][]types.RawPaper{
		search.PubMed: {{
			Title: "A", Databases: []string{types.TagPubMed}, PublicationDate: "2024-01-01",
			Keywords: types.List("ml"), URL: "https://doi.org/10.1/x",
		}},
		search.BioRxiv: {{
			Title: "B", Databases: []string{types.TagBioRxiv}, PublicationDate: "2024-01-02",
			Keywords: types.String("cancer"), URLs: []string{"https://www.biorxiv.org/content/10.2/y"},
		}},
	}
}

func testWindow() search.Window {
	until := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	return search.Window{Since: until.AddDate(0, 0, -1), Until: until}
}

func newPipeline(t *testing.T, s search.Searcher) *Pipeline {
	t.Helper()
	return &Pipeline{
		Finder: &search.Finder{
			Searcher:  s,
			RootDir:   t.TempDir(),
			Databases: []search.Database{search.PubMed, search.BioRxiv},
			Logger:    quiet,
		},
		Logger: quiet,
	}
}

func TestFindAndProcessScenario(t *testing.T) {
	p := newPipeline(t, &fakeSearcher{papers: scenarioPapers()})

	res, err := p.FindAndProcess(context.Background(), search.Queries{Unified: "[x]"}, testWindow())
	require.NoError(t, err)
	require.Equal(t, 2, res.Records.Len())

	a, b := res.Records.Records[0], res.Records.Records[1]
	assert.Equal(t, "10.1/x", a.DOI)
	assert.Equal(t, "PubMed", a.Source)
	assert.False(t, a.IsPreprint)
	assert.Equal(t, "2024-01-03", a.Date)
	assert.Equal(t, "2024-01-01", a.PostedDate)
	assert.Equal(t, "ml", a.Keywords)

	assert.Equal(t, "10.2/y", b.DOI)
	assert.Equal(t, "bioRxiv", b.Source)
	assert.True(t, b.IsPreprint)
	assert.Equal(t, "cancer", b.Keywords)

	assert.Equal(t, 2, res.Find.Primary)
}

func TestFindAndProcessAppliesFilters(t *testing.T) {
	p := newPipeline(t, &fakeSearcher{papers: scenarioPapers()})
	p.Filters = []RecordFilter{dropTitled{"B"}}

	res, err := p.FindAndProcess(context.Background(), search.Queries{Unified: "[x]"}, testWindow())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Records.Len())
	assert.Equal(t, 1, res.Rejected)
}

func TestFindAndProcessSearchFailure(t *testing.T) {
	p := newPipeline(t, &fakeSearcher{fail: true})

	_, err := p.FindAndProcess(context.Background(), search.Queries{Unified: "[x]"}, testWindow())
	assert.ErrorContains(t, err, "finding papers")
}

func TestRunPublishesOnlyNewRows(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t, &fakeSearcher{papers: scenarioPapers()})
	ledger, err := sheet.OpenLedger(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	defer ledger.Close()
	pub := &fakePublisher{name: "slack"}
	p.Sheet = ledger
	p.Publishers = []publish.Publisher{pub}

	res, err := p.Run(ctx, search.Queries{Unified: "[x]"}, testWindow())
	require.NoError(t, err)
	assert.False(t, res.HasFailures())
	assert.Equal(t, 2, res.Published.Len())
	assert.Len(t, pub.rows, 2)
	assert.Equal(t, "2024-01-03", pub.day)

	res, err = p.Run(ctx, search.Queries{Unified: "[x]"}, testWindow())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Published.Len())
	assert.Empty(t, pub.rows, "second run posts an empty digest")
}

func TestRunSheetFailurePostsEverything(t *testing.T) {
	p := newPipeline(t, &fakeSearcher{papers: scenarioPapers()})
	failing := &fakePublisher{name: "telegram", err: errors.New("bot blocked")}
	ok := &fakePublisher{name: "zulip"}
	p.Sheet = failingStore{}
	p.Publishers = []publish.Publisher{failing, ok}

	res, err := p.Run(context.Background(), search.Queries{Unified: "[x]"}, testWindow())
	require.NoError(t, err)
	assert.True(t, res.HasFailures())
	assert.ErrorContains(t, res.SinkErrors["sheet"], "quota exceeded")
	assert.ErrorContains(t, res.SinkErrors["telegram"], "bot blocked")
	assert.NotContains(t, res.SinkErrors, "zulip")
	assert.Len(t, ok.rows, 2)

	var buf bytes.Buffer
	res.Summary(&buf)
	out := buf.String()
	assert.Contains(t, out, "Window: 2024-01-02 to 2024-01-03")
	assert.Contains(t, out, "failed:  sheet (")
	assert.Contains(t, out, "failed:  telegram (")
	assert.Less(t, strings.Index(out, "sheet"), strings.Index(out, "telegram"))
}

func TestRunCleansUpSinceDay(t *testing.T) {
	p := newPipeline(t, &fakeSearcher{papers: scenarioPapers()})
	w := testWindow()
	old := p.Finder.Paths(w.SinceDay())
	require.NoError(t, os.WriteFile(old.Unified, []byte("[]"), 0o644))
	require.NoError(t, os.WriteFile(old.BioRxiv, []byte("[]"), 0o644))

	_, err := p.Run(context.Background(), search.Queries{Unified: "[x]"}, w)
	require.NoError(t, err)

	_, err = os.Stat(old.Unified)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(old.BioRxiv)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(p.Finder.Paths(w.UntilDay()).Unified)
	assert.NoError(t, err, "today's results stay")
}
