// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files
// and from a .env file. Each file in the directory represents one secret: the filename
// is the key name and the file contents (trimmed) are the value.
//
// Supported key files: ncbi-api-key, openai-api-key, anthropic-api-key,
// slack-bot-token, telegram-bot-token, google-credentials-json.
package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/pdiddy/paperbee/pkg/types"
)

// Key file names.
const (
	KeyNCBI              = "ncbi-api-key"
	KeyOpenAI            = "openai-api-key"
	KeyAnthropic         = "anthropic-api-key"
	KeySlackBot          = "slack-bot-token"
	KeyTelegramBot       = "telegram-bot-token"
	KeyGoogleCredentials = "google-credentials-json"
)

// envNames maps each key to the conventional environment variable that
// carries it when no secret file is present.
var envNames = map[string]string{
	KeyNCBI:              "NCBI_API_KEY",
	KeyOpenAI:            "OPENAI_API_KEY",
	KeyAnthropic:         "ANTHROPIC_API_KEY",
	KeySlackBot:          "SLACK_BOT_TOKEN",
	KeyTelegramBot:       "TELEGRAM_BOT_TOKEN",
	KeyGoogleCredentials: "GOOGLE_APPLICATION_CREDENTIALS",
}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged and skipped.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			slog.Warn("could not read secret", "name", name, "err", err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// LoadEnv loads path (typically ".env") into the process environment.
// Variables already set are not overridden and a missing file is not an error.
func LoadEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Lookup returns the value for key from the secrets map, falling back to the
// key's environment variable.
func Lookup(secrets map[string]string, key string) string {
	if v := secrets[key]; v != "" {
		return v
	}
	if env, ok := envNames[key]; ok {
		return strings.TrimSpace(os.Getenv(env))
	}
	return ""
}

// Fill sets empty credential fields of cfg from secrets and the environment.
// Values already present in cfg win.
func Fill(cfg *types.Config, secrets map[string]string) {
	fill(&cfg.Search.NCBIAPIKey, secrets, KeyNCBI)
	fill(&cfg.LLM.APIKey, secrets, KeyOpenAI)
	fill(&cfg.LLM.AnthropicAPIKey, secrets, KeyAnthropic)
	fill(&cfg.Slack.BotToken, secrets, KeySlackBot)
	fill(&cfg.Telegram.BotToken, secrets, KeyTelegramBot)
	fill(&cfg.Sheet.CredentialsJSON, secrets, KeyGoogleCredentials)
}

func fill(dst *string, secrets map[string]string, key string) {
	if *dst != "" {
		return
	}
	*dst = Lookup(secrets, key)
}
