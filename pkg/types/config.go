// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout bounds every outbound request.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paperbee/0.1").
	UserAgent string `mapstructure:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for the search stage.
type SearchConfig struct {
	// RootDir holds the per-day search result files.
	RootDir string `mapstructure:"LOCAL_ROOT_DIR" yaml:"LOCAL_ROOT_DIR"`

	// Databases lists the requested databases: pubmed, arxiv, biorxiv.
	Databases []string `mapstructure:"databases" yaml:"databases"`

	// Query searches every requested database. When empty, QueryBioRxiv and
	// QueryPubMedArxiv are both required.
	Query            string `mapstructure:"query" yaml:"query"`
	QueryBioRxiv     string `mapstructure:"query_biorxiv" yaml:"query_biorxiv"`
	QueryPubMedArxiv string `mapstructure:"query_pubmed_arxiv" yaml:"query_pubmed_arxiv"`

	// Limit caps the merged result count (default 1200).
	Limit int `mapstructure:"limit" yaml:"limit"`

	// LimitPerDatabase caps each database's result count (default 400).
	LimitPerDatabase int `mapstructure:"limit_per_database" yaml:"limit_per_database"`

	// NCBIAPIKey raises the NCBI E-utilities rate limit from 3 to 10 requests/s.
	NCBIAPIKey string `mapstructure:"NCBI_API_KEY" yaml:"NCBI_API_KEY"`

	// BioRxivClientFilter applies the query as a substring filter to bioRxiv
	// results, since the bioRxiv API ignores free text.
	BioRxivClientFilter bool `mapstructure:"biorxiv_client_filter" yaml:"biorxiv_client_filter"`
}

// LLMConfig holds settings for the relevance filter.
type LLMConfig struct {
	Enabled bool `mapstructure:"LLM_FILTERING" yaml:"LLM_FILTERING"`

	// Provider is openai, ollama, or anthropic (default openai).
	Provider string `mapstructure:"LLM_PROVIDER" yaml:"LLM_PROVIDER"`

	// Model is the model identifier (default gpt-3.5-turbo).
	Model string `mapstructure:"LANGUAGE_MODEL" yaml:"LANGUAGE_MODEL"`

	// Prompt is the system prompt describing what counts as relevant.
	Prompt string `mapstructure:"FILTERING_PROMPT" yaml:"FILTERING_PROMPT"`

	APIKey  string `mapstructure:"OPENAI_API_KEY" yaml:"OPENAI_API_KEY"`
	BaseURL string `mapstructure:"OPENAI_BASE_URL" yaml:"OPENAI_BASE_URL"`

	// AnthropicAPIKey is used when Provider is anthropic.
	AnthropicAPIKey string `mapstructure:"ANTHROPIC_API_KEY" yaml:"ANTHROPIC_API_KEY"`

	// OllamaHost is the Ollama server (default http://localhost:11434).
	OllamaHost string `mapstructure:"OLLAMA_HOST" yaml:"OLLAMA_HOST"`

	// MinInterval overrides the per-model delay between consecutive calls.
	MinInterval time.Duration `mapstructure:"LLM_MIN_INTERVAL" yaml:"LLM_MIN_INTERVAL"`
}

// SheetConfig holds settings for the spreadsheet sink.
type SheetConfig struct {
	SpreadsheetID   string `mapstructure:"GOOGLE_SPREADSHEET_ID" yaml:"GOOGLE_SPREADSHEET_ID"`
	CredentialsJSON string `mapstructure:"GOOGLE_CREDENTIALS_JSON" yaml:"GOOGLE_CREDENTIALS_JSON"`

	// SheetName is the tab inside the spreadsheet (default "Papers").
	SheetName string `mapstructure:"SHEET_NAME" yaml:"SHEET_NAME"`

	// LedgerPath selects the local SQLite ledger instead of Google Sheets.
	LedgerPath string `mapstructure:"LEDGER_PATH" yaml:"LEDGER_PATH"`
}

// SlackConfig holds settings for the Slack publisher.
type SlackConfig struct {
	Enabled   bool   `mapstructure:"is_posting_on" yaml:"is_posting_on"`
	BotToken  string `mapstructure:"bot_token" yaml:"bot_token"`
	ChannelID string `mapstructure:"channel_id" yaml:"channel_id"`

	// Categorized groups the digest by research area using the LLM
	// settings, instead of by preprint status.
	Categorized    bool   `mapstructure:"categorized" yaml:"categorized"`
	GroupName      string `mapstructure:"group_name" yaml:"group_name"`
	CategoryPrompt string `mapstructure:"category_prompt" yaml:"category_prompt"`
}

// TelegramConfig holds settings for the Telegram publisher.
type TelegramConfig struct {
	Enabled   bool   `mapstructure:"is_posting_on" yaml:"is_posting_on"`
	BotToken  string `mapstructure:"bot_token" yaml:"bot_token"`
	ChannelID string `mapstructure:"channel_id" yaml:"channel_id"`
}

// ZulipConfig holds settings for the Zulip publisher.
type ZulipConfig struct {
	Enabled bool `mapstructure:"is_posting_on" yaml:"is_posting_on"`

	// PRC is the path to a zuliprc file holding email, key, and site.
	PRC    string `mapstructure:"prc" yaml:"prc"`
	Stream string `mapstructure:"stream" yaml:"stream"`
	Topic  string `mapstructure:"topic" yaml:"topic"`
}

// Config groups all settings for one digest run.
type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http" yaml:"http"`
	Search   SearchConfig   `mapstructure:",squash" yaml:",inline"`
	LLM      LLMConfig      `mapstructure:",squash" yaml:",inline"`
	Sheet    SheetConfig    `mapstructure:",squash" yaml:",inline"`
	Slack    SlackConfig    `mapstructure:"SLACK" yaml:"SLACK"`
	Telegram TelegramConfig `mapstructure:"TELEGRAM" yaml:"TELEGRAM"`
	Zulip    ZulipConfig    `mapstructure:"ZULIP" yaml:"ZULIP"`

	// Interactive enables the command-line review step before posting.
	Interactive bool `mapstructure:"interactive" yaml:"interactive"`
}
