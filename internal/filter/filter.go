// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package filter decides which records reach the digest. The LLM filter
// asks a language model whether each title is relevant; the interactive
// filter asks a person at the terminal.
package filter

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/paperbee/pkg/types"
)

// Backend sends one system and user message pair to a language model and
// returns its reply.
type Backend interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Provider names accepted in configuration.
const (
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
	ProviderAnthropic = "anthropic"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-3.5-turbo"

var (
	acceptWords = []string{"yes", "relevant", "accept", "include", "interesting"}
	rejectWords = []string{"no", "not relevant", "reject", "exclude", "unrelated"}
)

// Decide maps a model reply to accept (true) or reject (false). Accepting
// words are checked first, so "not relevant" still accepts because it
// contains "relevant". Replies matching neither list accept.
func Decide(reply string) bool {
	r := strings.ToLower(reply)
	for _, w := range acceptWords {
		if strings.Contains(r, w) {
			return true
		}
	}
	for _, w := range rejectWords {
		if strings.Contains(r, w) {
			return false
		}
	}
	return true
}

// Message renders the user message for a record.
func Message(title, keywords string) string {
	msg := fmt.Sprintf("Title of the publication: '%s'", title)
	var kws []string
	for _, k := range strings.Split(keywords, ",") {
		if k = strings.TrimSpace(k); k != "" {
			kws = append(kws, k)
		}
	}
	if len(kws) > 0 {
		msg += "\nKeywords: " + strings.Join(kws, ", ")
	}
	return msg
}

// PacingFor returns the minimum interval between calls for a model, sized
// to the provider's published rate limits.
func PacingFor(model string) time.Duration {
	m := strings.ToLower(model)
	switch {
	case strings.Contains(m, "gemini"):
		return 4500 * time.Millisecond
	case strings.Contains(m, "gpt-4"):
		return 3100 * time.Millisecond
	default:
		return 200 * time.Millisecond
	}
}

// LLMFilter asks a Backend about every record, one call at a time.
type LLMFilter struct {
	backend Backend
	prompt  string
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewLLMFilter returns a filter that spaces backend calls at least interval
// apart. A zero interval disables pacing.
func NewLLMFilter(backend Backend, prompt string, interval time.Duration, logger *slog.Logger) *LLMFilter {
	if logger == nil {
		logger = slog.Default()
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &LLMFilter{
		backend: backend,
		prompt:  prompt,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

// New builds the LLM filter described by cfg. It returns nil when
// filtering is disabled.
func New(cfg types.LLMConfig, client *http.Client, logger *slog.Logger) (*LLMFilter, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	backend, err := NewBackend(cfg, client)
	if err != nil {
		return nil, err
	}
	interval := cfg.MinInterval
	if interval <= 0 {
		interval = PacingFor(modelOf(cfg))
	}
	return NewLLMFilter(backend, cfg.Prompt, interval, logger), nil
}

// NewBackend returns the language model client for cfg.Provider.
func NewBackend(cfg types.LLMConfig, client *http.Client) (Backend, error) {
	model := modelOf(cfg)
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderOpenAI:
		return &OpenAIBackend{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL, Model: model, Client: client}, nil
	case ProviderOllama:
		return &OllamaBackend{Host: cfg.OllamaHost, Model: model, Client: client}, nil
	case ProviderAnthropic:
		return &AnthropicBackend{APIKey: cfg.AnthropicAPIKey, Model: model, Client: client}, nil
	default:
		return nil, fmt.Errorf("%w: unknown LLM provider %q (want openai, ollama or anthropic)", types.ErrConfig, cfg.Provider)
	}
}

func modelOf(cfg types.LLMConfig) string {
	if cfg.Model == "" {
		return DefaultModel
	}
	return cfg.Model
}

// Relevant asks the backend about one record. Backend errors and empty
// replies accept.
func (f *LLMFilter) Relevant(ctx context.Context, r types.Record) bool {
	if err := f.limiter.Wait(ctx); err != nil {
		f.logger.Warn("llm pacing interrupted, accepting", "title", r.Title, "err", err)
		return true
	}
	reply, err := f.backend.Complete(ctx, f.prompt, Message(r.Title, r.Keywords))
	if err != nil {
		f.logger.Warn("llm call failed, accepting", "title", r.Title, "err", err)
		return true
	}
	ok := Decide(reply)
	f.logger.Debug("llm decision", "title", r.Title, "accept", ok, "reply", reply)
	return ok
}

// Filter splits rs into accepted and rejected records, both keeping input
// order.
func (f *LLMFilter) Filter(ctx context.Context, rs types.RecordSet) (kept, rejected types.RecordSet) {
	var keep, drop []types.Record
	for _, r := range rs.Records {
		if f.Relevant(ctx, r) {
			keep = append(keep, r)
		} else {
			drop = append(drop, r)
		}
	}
	f.logger.Info("llm filter done", "in", rs.Len(), "kept", len(keep), "rejected", len(drop))
	return types.NewRecordSet(keep), types.NewRecordSet(drop)
}
