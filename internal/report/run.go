// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paperbee/internal/digest"
)

// RunReport is the machine-readable record of one digest run.
type RunReport struct {
	RunID      string            `yaml:"run_id,omitempty"`
	Since      string            `yaml:"since"`
	Until      string            `yaml:"until"`
	Found      FoundCounts       `yaml:"found"`
	Links      LinkCounts        `yaml:"links"`
	Kept       int               `yaml:"kept"`
	Rejected   int               `yaml:"rejected"`
	Published  []string          `yaml:"published"`
	SinkErrors map[string]string `yaml:"sink_errors,omitempty"`
}

// FoundCounts mirrors search.FindStats.
type FoundCounts struct {
	Primary     int `yaml:"primary"`
	BioRxiv     int `yaml:"biorxiv"`
	DupsRemoved int `yaml:"duplicates_removed"`
	Untitled    int `yaml:"untitled"`
}

// LinkCounts mirrors resolve.Stats.
type LinkCounts struct {
	ExistingDOI  int `yaml:"existing_doi"`
	URLExtracted int `yaml:"url_extracted"`
	APIFound     int `yaml:"api_found"`
	Fallback     int `yaml:"fallback"`
}

// NewRunReport summarizes res. Published lists the posted links.
func NewRunReport(runID string, res *digest.Result) RunReport {
	rep := RunReport{
		RunID: runID,
		Since: res.Window.SinceDay(),
		Until: res.Window.UntilDay(),
		Found: FoundCounts{
			Primary:     res.Find.Primary,
			BioRxiv:     res.Find.BioRxiv,
			DupsRemoved: res.Find.DupsRemoved,
			Untitled:    res.Find.Untitled,
		},
		Links: LinkCounts{
			ExistingDOI:  res.Resolve.Existing,
			URLExtracted: res.Resolve.URLExtracted,
			APIFound:     res.Resolve.APIFound,
			Fallback:     res.Resolve.Fallback,
		},
		Kept:      res.Records.Len(),
		Rejected:  res.Rejected,
		Published: make([]string, 0, res.Published.Len()),
	}
	for _, r := range res.Published.Records {
		rep.Published = append(rep.Published, r.URL)
	}
	if len(res.SinkErrors) > 0 {
		rep.SinkErrors = make(map[string]string, len(res.SinkErrors))
		for name, err := range res.SinkErrors {
			rep.SinkErrors[name] = err.Error()
		}
	}
	return rep
}

// WriteRunReport writes rep as YAML to path, creating parent directories.
func WriteRunReport(path string, rep RunReport) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	data, err := yaml.Marshal(rep)
	if err != nil {
		return fmt.Errorf("encoding run report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing run report: %w", err)
	}
	return nil
}
