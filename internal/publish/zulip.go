// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package publish

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/pdiddy/paperbee/internal/httputil"
	"github.com/pdiddy/paperbee/pkg/types"
)

// zulipLimit is the server's message length limit.
const zulipLimit = 10000

// ZulipCredentials are the [api] entries of a zuliprc file.
type ZulipCredentials struct {
	Email string
	Key   string
	Site  string
}

// ReadZuliprc parses a zuliprc file. Only the [api] section is read.
func ReadZuliprc(path string) (ZulipCredentials, error) {
	f, err := os.Open(path)
	if err != nil {
		return ZulipCredentials{}, fmt.Errorf("opening zuliprc: %w", err)
	}
	defer f.Close()

	var creds ZulipCredentials
	section := ""
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.TrimSpace(line[1 : len(line)-1])
			continue
		}
		if section != "api" {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		switch strings.TrimSpace(k) {
		case "email":
			creds.Email = v
		case "key":
			creds.Key = v
		case "site":
			creds.Site = v
		}
	}
	if err := sc.Err(); err != nil {
		return ZulipCredentials{}, fmt.Errorf("reading zuliprc: %w", err)
	}
	if creds.Email == "" || creds.Key == "" || creds.Site == "" {
		return ZulipCredentials{}, fmt.Errorf("%w: zuliprc %s needs email, key and site", types.ErrConfig, path)
	}
	if !strings.Contains(creds.Site, "://") {
		creds.Site = "https://" + creds.Site
	}
	creds.Site = strings.TrimRight(creds.Site, "/")
	return creds, nil
}

// Zulip posts the digest as stream messages.
type Zulip struct {
	Creds    ZulipCredentials
	Stream   string
	Topic    string
	SheetURL string
	Client   *http.Client
	Logger   *slog.Logger
}

// NewZulip builds a Zulip publisher, reading credentials from cfg.PRC.
func NewZulip(cfg types.ZulipConfig, sheetURL string, client *http.Client, logger *slog.Logger) (*Zulip, error) {
	if cfg.PRC == "" || cfg.Stream == "" || cfg.Topic == "" {
		return nil, fmt.Errorf("%w: zulip needs prc, stream and topic", types.ErrConfig)
	}
	creds, err := ReadZuliprc(cfg.PRC)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Zulip{Creds: creds, Stream: cfg.Stream, Topic: cfg.Topic, SheetURL: sheetURL, Client: client, Logger: logger}, nil
}

// Name implements Publisher.
func (z *Zulip) Name() string { return "zulip" }

// ZulipLine renders one item as a Markdown link.
func ZulipLine(it Item, preprint bool) string {
	emoji := ":newspaper:"
	if preprint {
		emoji = ":pencil:"
	}
	return fmt.Sprintf("%s [%s](%s) (%s)", emoji, it.Title, it.URL, it.Source)
}

// Messages renders the digest as Markdown messages under the length limit.
func (z *Zulip) Messages(rows [][]string, day string) []string {
	papers, preprints := Split(rows)
	lines := []string{"Good morning :coffee: Here are today's papers! Enjoy your reading! :wave:", "", "**Preprints:** :point_down:"}
	lines = appendItems(lines, preprints, true, "No preprints found today.", ZulipLine)
	lines = append(lines, "", "**Papers:** :point_down:")
	lines = appendItems(lines, papers, false, "No papers found today.", ZulipLine)
	lines = append(lines, "")
	if z.SheetURL != "" {
		lines = append(lines, fmt.Sprintf("**View all papers:** [Google Sheet](%s) :books:", z.SheetURL))
	}
	lines = append(lines, "Published on "+day)
	return chunkLines(lines, zulipLimit)
}

// Publish implements Publisher.
func (z *Zulip) Publish(ctx context.Context, rows [][]string, day string) error {
	msgs := z.Messages(rows, day)
	for i, msg := range msgs {
		if err := z.send(ctx, msg); err != nil {
			return fmt.Errorf("message %d/%d: %w", i+1, len(msgs), err)
		}
		z.Logger.Debug("zulip message sent", "part", i+1, "parts", len(msgs))
	}
	return nil
}

func (z *Zulip) send(ctx context.Context, content string) error {
	form := url.Values{
		"type":    {"stream"},
		"to":      {z.Stream},
		"topic":   {z.Topic},
		"content": {content},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, z.Creds.Site+"/api/v1/messages", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(z.Creds.Email, z.Creds.Key)

	resp, err := httputil.DoWithRetry(ctx, httpClient(z.Client), req, 0)
	if err != nil {
		return fmt.Errorf("posting to Zulip: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Result string `json:"result"`
		Msg    string `json:"msg"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("zulip API error: HTTP %d", resp.StatusCode)
	}
	if result.Result != "success" {
		return fmt.Errorf("zulip API error: %s", result.Msg)
	}
	return nil
}
