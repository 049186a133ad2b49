// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"net/http"

	"github.com/pdiddy/paperbee/internal/httputil"
	"github.com/pdiddy/paperbee/pkg/types"
)

// telegramAPIBase is the Bot API root. Tests override it.
var telegramAPIBase = "https://api.telegram.org"

// telegramLimit is the Bot API message length limit.
const telegramLimit = 4096

// Telegram posts the digest through the Bot API sendMessage method.
type Telegram struct {
	Token    string
	ChatID   string
	SheetURL string
	Client   *http.Client
	Logger   *slog.Logger
}

// NewTelegram builds a Telegram publisher from its configuration.
func NewTelegram(cfg types.TelegramConfig, sheetURL string, client *http.Client, logger *slog.Logger) (*Telegram, error) {
	if cfg.BotToken == "" || cfg.ChannelID == "" {
		return nil, fmt.Errorf("%w: telegram needs bot_token and channel_id", types.ErrConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Telegram{Token: cfg.BotToken, ChatID: cfg.ChannelID, SheetURL: sheetURL, Client: client, Logger: logger}, nil
}

// Name implements Publisher.
func (t *Telegram) Name() string { return "telegram" }

// TelegramLine renders one item as an HTML link.
func TelegramLine(it Item, preprint bool) string {
	emoji := "🗞️"
	if preprint {
		emoji = "✏️"
	}
	return fmt.Sprintf(`%s <a href="%s">%s</a> (%s)`, emoji,
		html.EscapeString(it.URL), html.EscapeString(it.Title), html.EscapeString(it.Source))
}

// Messages renders the digest as HTML messages under the length limit.
func (t *Telegram) Messages(rows [][]string, day string) []string {
	papers, preprints := Split(rows)
	lines := []string{"<b>Good morning ☕ Here are today's papers!</b>", "", "<b>Preprints:</b>"}
	lines = appendItems(lines, preprints, true, "No preprints found today.", TelegramLine)
	lines = append(lines, "", "<b>Papers:</b>")
	lines = appendItems(lines, papers, false, "No papers found today.", TelegramLine)
	lines = append(lines, "")
	if t.SheetURL != "" {
		lines = append(lines, fmt.Sprintf(`<b>View all papers:</b> <a href="%s">Google Sheet</a> 📚`, html.EscapeString(t.SheetURL)))
	}
	lines = append(lines, "Published on "+html.EscapeString(day))
	return chunkLines(lines, telegramLimit)
}

func appendItems(lines []string, items []Item, preprint bool, empty string, render func(Item, bool) string) []string {
	if len(items) == 0 {
		return append(lines, empty)
	}
	for _, it := range items {
		lines = append(lines, render(it, preprint))
	}
	return lines
}

// Publish implements Publisher. It stops at the first failed message so
// the channel never shows a digest with a gap in the middle.
func (t *Telegram) Publish(ctx context.Context, rows [][]string, day string) error {
	msgs := t.Messages(rows, day)
	for i, msg := range msgs {
		if err := t.send(ctx, msg); err != nil {
			return fmt.Errorf("message %d/%d: %w", i+1, len(msgs), err)
		}
		t.Logger.Debug("telegram message sent", "part", i+1, "parts", len(msgs))
	}
	return nil
}

func (t *Telegram) send(ctx context.Context, text string) error {
	payload := map[string]any{
		"chat_id":                  t.ChatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	u := fmt.Sprintf("%s/bot%s/sendMessage", telegramAPIBase, t.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httputil.DoWithRetry(ctx, httpClient(t.Client), req, 0)
	if err != nil {
		return fmt.Errorf("posting to Telegram: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("telegram API error: HTTP %d", resp.StatusCode)
	}
	if !result.OK {
		return fmt.Errorf("telegram API error: %s", result.Description)
	}
	return nil
}
