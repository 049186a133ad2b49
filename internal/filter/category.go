// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package filter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Research areas a paper can be sorted into, in digest order.
const (
	CategoryBioinformatics = "Bioinformatics"
	CategoryWetlab         = "Wetlab"
	CategoryClinical       = "Clinical"
)

// Categories lists every category in the order the digest shows them.
var Categories = []string{CategoryBioinformatics, CategoryWetlab, CategoryClinical}

// CategoryInterval spaces categorization calls.
const CategoryInterval = 500 * time.Millisecond

// DefaultCategoryPrompt asks for a one-word category.
const DefaultCategoryPrompt = `Categorize this research paper into ONE of these three categories:
1) 'Bioinformatics' - computational methods, algorithms, ML, bioinformatics tools, data analysis
2) 'Wetlab' - experimental techniques, lab methods, molecular biology, cell culture, animal models
3) 'Clinical' - clinical studies, patient cohorts, trials, diagnostics, therapeutics, translational medicine

Answer with ONLY ONE WORD: Bioinformatics, Wetlab, or Clinical.`

// Categorize maps a model reply to a category. Replies naming none of them
// fall back to Bioinformatics and report false.
func Categorize(reply string) (string, bool) {
	r := strings.ToLower(reply)
	switch {
	case strings.Contains(r, "bioinformatics"), strings.Contains(r, "computational"):
		return CategoryBioinformatics, true
	case strings.Contains(r, "wetlab"), strings.Contains(r, "wet lab"):
		return CategoryWetlab, true
	case strings.Contains(r, "clinical"):
		return CategoryClinical, true
	}
	return CategoryBioinformatics, false
}

// Categorizer sorts papers into categories with a language model, one call
// at a time. A nil backend puts every paper in Bioinformatics.
type Categorizer struct {
	backend Backend
	prompt  string
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewCategorizer returns a Categorizer spacing calls at least interval
// apart. An empty prompt uses DefaultCategoryPrompt.
func NewCategorizer(backend Backend, prompt string, interval time.Duration, logger *slog.Logger) *Categorizer {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(prompt) == "" {
		prompt = DefaultCategoryPrompt
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Categorizer{backend: backend, prompt: prompt, limiter: rate.NewLimiter(limit, 1), logger: logger}
}

// Category returns the category of one paper. Backend errors fall back to
// Bioinformatics.
func (c *Categorizer) Category(ctx context.Context, title, keywords string) string {
	if c.backend == nil {
		c.logger.Warn("no llm backend, defaulting category", "title", title)
		return CategoryBioinformatics
	}
	if err := c.limiter.Wait(ctx); err != nil {
		c.logger.Warn("categorization interrupted", "title", title, "err", err)
		return CategoryBioinformatics
	}
	reply, err := c.backend.Complete(ctx, c.prompt, Message(title, keywords))
	if err != nil {
		c.logger.Error("categorization failed", "title", title, "err", err)
		return CategoryBioinformatics
	}
	cat, ok := Categorize(reply)
	if !ok {
		c.logger.Warn("unexpected category reply", "title", title, "reply", reply)
	}
	c.logger.Debug("categorized", "title", title, "category", cat)
	return cat
}
