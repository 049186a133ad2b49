// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/pdiddy/paperbee/internal/httputil"
	"github.com/pdiddy/paperbee/pkg/types"
)

// slackAPIBase is the Slack Web API root. Tests override it.
var slackAPIBase = "https://slack.com/api"

// slackPartDelay separates the parts of a digest split across messages.
var slackPartDelay = 1 * time.Second

const (
	slackMaxBlocks      = 50
	slackBlocksPerPart  = 45
	slackPapersPerBlock = 3

	slackHeader  = "Good morning :coffee: Here are today's papers! Enjoy your reading! :wave:\n"
	slackAppLink = "Posted with `slack-papers-app` <https://github.com/theislab/slack_papers_bot|GitHub>"
)

// Slack posts the digest through chat.postMessage.
type Slack struct {
	Token     string
	ChannelID string
	SheetURL  string
	Client    *http.Client
	Logger    *slog.Logger
}

// NewSlack builds a Slack publisher from its configuration.
func NewSlack(cfg types.SlackConfig, sheetURL string, client *http.Client, logger *slog.Logger) (*Slack, error) {
	if cfg.BotToken == "" || cfg.ChannelID == "" {
		return nil, fmt.Errorf("%w: slack needs bot_token and channel_id", types.ErrConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Slack{Token: cfg.BotToken, ChannelID: cfg.ChannelID, SheetURL: sheetURL, Client: client, Logger: logger}, nil
}

// Name implements Publisher.
func (s *Slack) Name() string { return "slack" }

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackBlock struct {
	Type     string      `json:"type"`
	Text     *slackText  `json:"text,omitempty"`
	Elements []slackText `json:"elements,omitempty"`
}

func section(text string) slackBlock {
	return slackBlock{Type: "section", Text: &slackText{Type: "mrkdwn", Text: text}}
}

func divider() slackBlock { return slackBlock{Type: "divider"} }

// SlackLine renders one item as a Slack mrkdwn link.
func SlackLine(it Item, preprint bool) string {
	emoji := ":rolled_up_newspaper:"
	if preprint {
		emoji = ":pencil:"
	}
	return fmt.Sprintf("%s <%s|%s> (%s)", emoji, it.URL, it.Title, it.Source)
}

// slackBlocks lays out the digest: header, preprints, papers, footer.
func (s *Slack) slackBlocks(papers, preprints []Item, day string) []slackBlock {
	blocks := []slackBlock{section(slackHeader), divider(), section("*Preprints:*:point_down:")}
	blocks = append(blocks, itemSections(preprints, true, "No preprints found today.")...)
	blocks = append(blocks, divider(), section("*Papers:*:point_down:"))
	blocks = append(blocks, itemSections(papers, false, "No papers found today.")...)
	blocks = append(blocks, divider())
	if s.SheetURL != "" {
		blocks = append(blocks, section(fmt.Sprintf("*View all papers:* <%s|Google Sheet> :books:", s.SheetURL)))
	}
	blocks = append(blocks, section("Published on "+day), section(slackAppLink))
	return blocks
}

func itemSections(items []Item, preprint bool, empty string) []slackBlock {
	if len(items) == 0 {
		return []slackBlock{section(empty)}
	}
	var out []slackBlock
	for i := 0; i < len(items); i += slackPapersPerBlock {
		end := min(i+slackPapersPerBlock, len(items))
		var buf bytes.Buffer
		for j, it := range items[i:end] {
			if j > 0 {
				buf.WriteString("\n\n")
			}
			buf.WriteString(SlackLine(it, preprint))
		}
		out = append(out, section(buf.String()))
	}
	return out
}

// Publish implements Publisher.
func (s *Slack) Publish(ctx context.Context, rows [][]string, day string) error {
	papers, preprints := Split(rows)
	return s.postBlocks(ctx, s.slackBlocks(papers, preprints, day), slackHeader)
}

// postBlocks sends blocks as one message, or as several when they exceed
// the block limit. A failed part is logged and the rest still post.
func (s *Slack) postBlocks(ctx context.Context, blocks []slackBlock, text string) error {
	if len(blocks) <= slackMaxBlocks {
		return s.post(ctx, blocks, text)
	}

	s.Logger.Warn("splitting slack digest", "blocks", len(blocks))
	var parts [][]slackBlock
	for i := 0; i < len(blocks); i += slackBlocksPerPart {
		parts = append(parts, blocks[i:min(i+slackBlocksPerPart, len(blocks))])
	}

	var errs []error
	for i, part := range parts {
		partText := text
		if i > 0 {
			head := section(fmt.Sprintf("📄 Papers digest continued (part %d/%d)...", i+1, len(parts)))
			part = append([]slackBlock{head}, part...)
			partText = fmt.Sprintf("Papers digest part %d", i+1)
		}
		if err := s.post(ctx, part, partText); err != nil {
			s.Logger.Error("slack part failed", "part", i+1, "parts", len(parts), "error", err)
			errs = append(errs, fmt.Errorf("part %d: %w", i+1, err))
		}
		if i < len(parts)-1 {
			if err := httputil.Sleep(ctx, slackPartDelay); err != nil {
				return err
			}
		}
	}
	return errors.Join(errs...)
}

func (s *Slack) post(ctx context.Context, blocks []slackBlock, text string) error {
	payload := map[string]any{
		"channel":      s.ChannelID,
		"blocks":       blocks,
		"text":         text,
		"unfurl_links": false,
		"unfurl_media": false,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, slackAPIBase+"/chat.postMessage", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+s.Token)

	resp, err := httputil.DoWithRetry(ctx, httpClient(s.Client), req, 0)
	if err != nil {
		return fmt.Errorf("posting to Slack: %w", err)
	}
	defer resp.Body.Close()
	if err := httputil.CheckStatus(resp); err != nil {
		return fmt.Errorf("slack API error: %w", err)
	}

	var result struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if !result.OK {
		return fmt.Errorf("slack API error: %s", result.Error)
	}
	return nil
}
