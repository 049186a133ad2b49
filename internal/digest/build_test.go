// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package digest

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paperbee/internal/filter"
	"github.com/pdiddy/paperbee/internal/publish"
	"github.com/pdiddy/paperbee/internal/search"
	"github.com/pdiddy/paperbee/internal/sheet"
	"github.com/pdiddy/paperbee/pkg/types"
)

func baseConfig(t *testing.T) types.Config {
	t.Helper()
	var cfg types.Config
	cfg.Search.RootDir = t.TempDir()
	cfg.Search.Query = "[single cell]"
	return cfg
}

func TestBuildConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*types.Config)
	}{
		{"unknown database", func(c *types.Config) { c.Search.Databases = []string{"scopus"} }},
		{"missing split query", func(c *types.Config) { c.Search.Query = ""; c.Search.QueryBioRxiv = "[x]" }},
		{"unknown llm provider", func(c *types.Config) { c.LLM.Enabled = true; c.LLM.Provider = "bard" }},
		{"slack without token", func(c *types.Config) { c.Slack.Enabled = true; c.Slack.ChannelID = "C1" }},
		{"categorized slack with unknown provider", func(c *types.Config) {
			c.Slack = types.SlackConfig{Enabled: true, BotToken: "xoxb", ChannelID: "C1", Categorized: true}
			c.LLM.Provider = "bard"
		}},
		{"sheet without credentials", func(c *types.Config) { c.Sheet.SpreadsheetID = "sid" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig(t)
			tt.mutate(&cfg)
			_, err := Build(context.Background(), cfg, Options{Logger: quiet})
			require.Error(t, err)
			assert.True(t, errors.Is(err, types.ErrConfig), "got %v", err)
		})
	}
}

func TestBuildWithLedgerAndPublishers(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Search.Databases = []string{"PubMed", "arxiv"}
	cfg.Sheet.LedgerPath = filepath.Join(t.TempDir(), "ledger.db")
	cfg.Slack = types.SlackConfig{Enabled: true, BotToken: "xoxb", ChannelID: "C1"}
	cfg.Telegram = types.TelegramConfig{Enabled: false}
	cfg.LLM = types.LLMConfig{Enabled: true, Provider: "ollama"}

	b, err := Build(context.Background(), cfg, Options{Logger: quiet})
	require.NoError(t, err)
	defer b.Close()

	assert.IsType(t, &sheet.SQLiteLedger{}, b.Sheet)
	require.Len(t, b.Publishers, 1)
	assert.Equal(t, "slack", b.Publishers[0].Name())
	require.Len(t, b.Filters, 1)
	assert.IsType(t, &filter.LLMFilter{}, b.Filters[0])
	assert.Equal(t, []search.Database{search.PubMed, search.ArXiv}, b.Finder.Databases)
	assert.Equal(t, "[single cell]", b.Queries.Unified)
}

func TestBuildSkipSinksAndInteractive(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Interactive = true
	cfg.Slack = types.SlackConfig{Enabled: true}

	b, err := Build(context.Background(), cfg, Options{
		Logger:    quiet,
		In:        strings.NewReader(""),
		Out:       &bytes.Buffer{},
		SkipSinks: true,
	})
	require.NoError(t, err)
	defer b.Close()

	assert.Nil(t, b.Sheet)
	assert.Empty(t, b.Publishers)
	require.Len(t, b.Filters, 1)
	assert.IsType(t, &filter.Interactive{}, b.Filters[0])
	assert.Equal(t, search.DefaultDatabases, b.Finder.Databases)
}

func TestBuildCategorizedSlack(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Slack = types.SlackConfig{Enabled: true, BotToken: "xoxb", ChannelID: "C1", Categorized: true, GroupName: "Lab"}
	cfg.LLM = types.LLMConfig{Provider: "ollama"}

	b, err := Build(context.Background(), cfg, Options{Logger: quiet})
	require.NoError(t, err)
	defer b.Close()

	require.Len(t, b.Publishers, 1)
	cs, ok := b.Publishers[0].(*publish.CategorizedSlack)
	require.True(t, ok)
	assert.Equal(t, "slack", cs.Name())
	assert.Equal(t, "Lab", cs.GroupName)
	assert.Empty(t, b.Filters)
}
