// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sheet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/pdiddy/paperbee/internal/httputil"
	"github.com/pdiddy/paperbee/pkg/types"
)

// sheetsAPIBase is the Google Sheets v4 endpoint. Tests override it.
var sheetsAPIBase = "https://sheets.googleapis.com/v4/spreadsheets"

const (
	sheetsScope      = "https://www.googleapis.com/auth/spreadsheets"
	defaultSheetName = "Papers"
)

// GoogleSheet is a Store backed by one tab of a Google spreadsheet.
type GoogleSheet struct {
	SpreadsheetID string
	SheetName     string

	// Client must attach credentials; NewGoogleSheet builds one from a
	// service-account key.
	Client *http.Client
}

// NewGoogleSheet authenticates with the service-account key in
// cfg.CredentialsJSON, which is either the key itself or a path to it.
func NewGoogleSheet(ctx context.Context, cfg types.SheetConfig) (*GoogleSheet, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("%w: GOOGLE_SPREADSHEET_ID is required", types.ErrConfig)
	}
	key, err := credentialsData(cfg.CredentialsJSON)
	if err != nil {
		return nil, err
	}
	creds, err := google.CredentialsFromJSON(ctx, key, sheetsScope)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing google credentials: %v", types.ErrConfig, err)
	}

	name := cfg.SheetName
	if name == "" {
		name = defaultSheetName
	}
	return &GoogleSheet{
		SpreadsheetID: cfg.SpreadsheetID,
		SheetName:     name,
		Client:        oauth2.NewClient(ctx, creds.TokenSource),
	}, nil
}

func credentialsData(v string) ([]byte, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, fmt.Errorf("%w: GOOGLE_CREDENTIALS_JSON is required", types.ErrConfig)
	}
	if strings.HasPrefix(v, "{") {
		return []byte(v), nil
	}
	data, err := os.ReadFile(v)
	if err != nil {
		return nil, fmt.Errorf("%w: reading google credentials: %v", types.ErrConfig, err)
	}
	return data, nil
}

type valueRange struct {
	Range          string     `json:"range,omitempty"`
	MajorDimension string     `json:"majorDimension,omitempty"`
	Values         [][]string `json:"values"`
}

// ReadRows implements Store.
func (g *GoogleSheet) ReadRows(ctx context.Context) ([][]string, error) {
	u := g.base() + "/values/" + url.PathEscape(g.SheetName)
	var vr valueRange
	if err := g.do(ctx, http.MethodGet, u, nil, &vr); err != nil {
		return nil, fmt.Errorf("reading values: %w", err)
	}
	return vr.Values, nil
}

// InsertRows implements Store. It opens blank rows at the target index and
// writes the values into them.
func (g *GoogleSheet) InsertRows(ctx context.Context, rows [][]string, at int) error {
	if len(rows) == 0 {
		return nil
	}
	if at < 1 {
		return fmt.Errorf("row index %d out of range", at)
	}

	sheetID, err := g.sheetID(ctx)
	if err != nil {
		return err
	}

	insert := map[string]any{
		"requests": []any{map[string]any{
			"insertDimension": map[string]any{
				"range": map[string]any{
					"sheetId":    sheetID,
					"dimension":  "ROWS",
					"startIndex": at - 1,
					"endIndex":   at - 1 + len(rows),
				},
				"inheritFromBefore": false,
			},
		}},
	}
	if err := g.do(ctx, http.MethodPost, g.base()+":batchUpdate", insert, nil); err != nil {
		return fmt.Errorf("inserting rows: %w", err)
	}

	target := fmt.Sprintf("%s!A%d", g.SheetName, at)
	body := valueRange{Range: target, MajorDimension: "ROWS", Values: rows}
	u := g.base() + "/values/" + url.PathEscape(target) + "?valueInputOption=RAW"
	if err := g.do(ctx, http.MethodPut, u, body, nil); err != nil {
		return fmt.Errorf("writing values: %w", err)
	}
	return nil
}

// sheetID resolves the numeric id of the named tab.
func (g *GoogleSheet) sheetID(ctx context.Context) (int64, error) {
	var meta struct {
		Sheets []struct {
			Properties struct {
				SheetID int64  `json:"sheetId"`
				Title   string `json:"title"`
			} `json:"properties"`
		} `json:"sheets"`
	}
	if err := g.do(ctx, http.MethodGet, g.base()+"?fields=sheets.properties", nil, &meta); err != nil {
		return 0, fmt.Errorf("reading spreadsheet metadata: %w", err)
	}
	for _, s := range meta.Sheets {
		if s.Properties.Title == g.SheetName {
			return s.Properties.SheetID, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found in spreadsheet %s", g.SheetName, g.SpreadsheetID)
}

func (g *GoogleSheet) base() string {
	return sheetsAPIBase + "/" + url.PathEscape(g.SpreadsheetID)
}

func (g *GoogleSheet) do(ctx context.Context, method, u string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := httputil.CheckStatus(resp); err != nil {
		return err
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
