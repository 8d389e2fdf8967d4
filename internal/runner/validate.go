package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/servinagrero/monaco/internal/config"
	"github.com/servinagrero/monaco/internal/ctxlog"
	"github.com/servinagrero/monaco/internal/template"
)

// validate applies the semantic checks that need the whole configuration.
// Name uniqueness and reference existence live in the graph builder; this
// covers the per-job shape rules, iteration sanity and template pairs.
func validate(ctx context.Context, cfg *config.Config) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Validating configuration.", "jobs", len(cfg.Jobs))

	for _, job := range cfg.Jobs {
		if len(job.Steps) == 0 && len(job.Depends) == 0 {
			return fmt.Errorf("job '%s' declares neither steps nor dependencies", job.Name)
		}

		switch job.Iters.Kind {
		case config.IterRange:
			if job.Iters.By <= 0 {
				return fmt.Errorf("job '%s': iteration range 'by' must be positive, got %d", job.Name, job.Iters.By)
			}
		case config.IterFile:
			values, err := loadIterationFile(job.Iters.File, cfg.Dir())
			if err != nil {
				return fmt.Errorf("job '%s': %w", job.Name, err)
			}
			job.Iters.Values = values
		}

		for _, pair := range job.Templates {
			in, _, err := config.ParseArtifact(pair)
			if err != nil {
				return fmt.Errorf("job '%s': %w", job.Name, err)
			}
			if err := checkTemplateInput(in, cfg.Dir()); err != nil {
				return fmt.Errorf("job '%s': %w", job.Name, err)
			}
		}
	}
	return nil
}

// loadIterationFile reads a JSON array of iteration values. A relative path
// resolves against the config directory.
func loadIterationFile(path, dir string) ([]any, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read iteration file: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("iteration file %s is not valid JSON", path)
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, fmt.Errorf("iteration file %s must hold a JSON array", path)
	}
	values, _ := root.Value().([]any)
	return values, nil
}

// checkTemplateInput parses an artifact input ahead of the run when its
// path is static and the file already exists, so structural template errors
// surface before anything executes. Inputs that depend on iteration state
// or appear later are still checked at render time.
func checkTemplateInput(in, dir string) error {
	if strings.Contains(in, "{{") {
		return nil
	}
	path := in
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	if _, err := template.Parse(string(src)); err != nil {
		return fmt.Errorf("template %s: %w", path, err)
	}
	return nil
}
