// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package publish

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pdiddy/paperbee/internal/filter"
	"github.com/pdiddy/paperbee/pkg/types"
)

// DefaultGroupName heads a categorized digest when none is configured.
const DefaultGroupName = "Research Papers"

// slackSectionLimit is the longest text Slack accepts in a section block.
const slackSectionLimit = 3000

// Classifier assigns a paper to one of filter.Categories.
type Classifier interface {
	Category(ctx context.Context, title, keywords string) string
}

var categoryHeadings = map[string]string{
	filter.CategoryBioinformatics: "*🧬 Bioinformatics / Computational*",
	filter.CategoryWetlab:         "*🧪 Wetlab*",
	filter.CategoryClinical:       "*🏥 Clinical*",
}

// CategorizedSlack posts one Slack section per research category instead
// of the preprint and paper groups.
type CategorizedSlack struct {
	*Slack
	Classifier Classifier
	GroupName  string
}

// NewCategorizedSlack builds a categorized Slack publisher.
func NewCategorizedSlack(cfg types.SlackConfig, sheetURL string, classifier Classifier, client *http.Client, logger *slog.Logger) (*CategorizedSlack, error) {
	s, err := NewSlack(cfg, sheetURL, client, logger)
	if err != nil {
		return nil, err
	}
	if classifier == nil {
		return nil, fmt.Errorf("%w: categorized slack needs a classifier", types.ErrConfig)
	}
	group := cfg.GroupName
	if group == "" {
		group = DefaultGroupName
	}
	return &CategorizedSlack{Slack: s, Classifier: classifier, GroupName: group}, nil
}

// Publish implements Publisher.
func (c *CategorizedSlack) Publish(ctx context.Context, rows [][]string, day string) error {
	groups := make(map[string][]string)
	total := 0
	for _, row := range rows {
		if len(row) <= types.IdxTitle {
			continue
		}
		r := types.ParseRow(row)
		cat := c.Classifier.Category(ctx, r.Title, r.Keywords)
		if _, ok := categoryHeadings[cat]; !ok {
			cat = filter.CategoryBioinformatics
		}
		groups[cat] = append(groups[cat], categorizedLine(r))
		total++
	}
	c.Logger.Info("categorized papers",
		"total", total,
		"bioinformatics", len(groups[filter.CategoryBioinformatics]),
		"wetlab", len(groups[filter.CategoryWetlab]),
		"clinical", len(groups[filter.CategoryClinical]))

	header := c.GroupName
	if day != "" {
		header += " - " + day
	}
	blocks := []slackBlock{
		{Type: "header", Text: &slackText{Type: "plain_text", Text: "📊 " + header}},
		divider(),
	}
	for i, cat := range filter.Categories {
		if i > 0 {
			blocks = append(blocks, divider())
		}
		blocks = append(blocks, section(categoryHeadings[cat]))
		lines := groups[cat]
		if len(lines) == 0 {
			blocks = append(blocks, section("_No papers in this category today._"))
			continue
		}
		for _, text := range chunkLines(lines, slackSectionLimit) {
			blocks = append(blocks, section(text))
		}
	}
	blocks = append(blocks, divider())
	if c.SheetURL != "" {
		blocks = append(blocks, section(fmt.Sprintf("*View all papers:* <%s|Google Sheet> :books:", c.SheetURL)))
	}
	blocks = append(blocks, slackBlock{Type: "context", Elements: []slackText{{
		Type: "mrkdwn",
		Text: fmt.Sprintf("📈 Total: %d papers | 🧬 %d Bioinformatics | 🧪 %d Wetlab | 🏥 %d Clinical",
			total, len(groups[filter.CategoryBioinformatics]), len(groups[filter.CategoryWetlab]), len(groups[filter.CategoryClinical])),
	}}})

	return c.postBlocks(ctx, blocks, fmt.Sprintf("%s - %d papers", c.GroupName, total))
}

// categorizedLine renders a record as a Slack line, without a link when
// the record has no URL.
func categorizedLine(r types.Record) string {
	source := r.Source
	if source == "" {
		source = "Unknown"
	}
	it := Item{Title: r.Title, Source: source, URL: r.URL}
	if strings.TrimSpace(it.URL) == "" {
		emoji := ":rolled_up_newspaper:"
		if r.IsPreprint {
			emoji = ":pencil:"
		}
		return fmt.Sprintf("%s %s (%s)", emoji, it.Title, it.Source)
	}
	return SlackLine(it, r.IsPreprint)
}
