package loader

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/servinagrero/monaco/internal/config"
	"github.com/servinagrero/monaco/internal/ctxlog"
)

// Loader reads a config file from disk and produces the normalized model.
// It implements the config.Loader interface.
type Loader struct{}

// NewLoader creates a new config file loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads, decodes and normalizes the config file at path. The format is
// chosen by file extension. The returned config carries the canonicalized
// path, so template built-ins stay stable however the file was addressed.
func (l *Loader) Load(ctx context.Context, path string) (*config.Config, error) {
	logger := ctxlog.FromContext(ctx)

	canonical, err := canonicalize(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %s: %w", path, err)
	}
	logger.Debug("Loading config file.", "path", canonical)

	data, err := os.ReadFile(canonical)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	doc, err := decodeFile(canonical, data)
	if err != nil {
		return nil, err
	}

	cfg, err := normalize(doc)
	if err != nil {
		return nil, err
	}
	cfg.Path = canonical

	if cfg.Dotenv {
		l.mergeDotenv(ctx, cfg)
	}
	if err := l.mergePropsFiles(cfg); err != nil {
		return nil, err
	}

	logger.Debug("Config loaded.", "jobs", len(cfg.Jobs))
	return cfg, nil
}

// canonicalize resolves path to an absolute form with symlinks evaluated.
// It fails when the file does not exist.
func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// decodeFile parses raw file contents into an untyped document, choosing the
// parser by the file's extension.
func decodeFile(path string, data []byte) (map[string]any, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return decodeYAML(data)
	case ".toml":
		return decodeTOML(data)
	case ".json":
		return decodeJSON(data)
	case ".hcl":
		return decodeHCL(data, filepath.Base(path))
	default:
		return nil, fmt.Errorf("unsupported config extension '%s' in %s", filepath.Ext(path), filepath.Base(path))
	}
}

// mergeDotenv loads <config dir>/.env beneath the inline global env, so
// inline entries win. A missing or unreadable file only logs a warning.
func (l *Loader) mergeDotenv(ctx context.Context, cfg *config.Config) {
	logger := ctxlog.FromContext(ctx)

	path := filepath.Join(cfg.Dir(), ".env")
	vars, err := godotenv.Read(path)
	if err != nil {
		logger.Warn("Skipping unreadable dotenv file.", "path", path, "error", err)
		return
	}

	if cfg.Env == nil {
		cfg.Env = make(map[string]string, len(vars))
	}
	for key, value := range vars {
		if _, ok := cfg.Env[key]; !ok {
			cfg.Env[key] = value
		}
	}
	logger.Debug("Merged dotenv file.", "path", path, "vars", len(vars))
}

// mergePropsFiles resolves the config-level and per-job props_file
// references. File values overlay the inline props maps.
func (l *Loader) mergePropsFiles(cfg *config.Config) error {
	dir := cfg.Dir()

	merged, err := loadProps(cfg.Props, cfg.PropsFile, dir)
	if err != nil {
		return fmt.Errorf("failed to load props_file: %w", err)
	}
	cfg.Props = merged

	for _, job := range cfg.Jobs {
		merged, err := loadProps(job.Props, job.PropsFile, dir)
		if err != nil {
			return fmt.Errorf("job '%s': failed to load props_file: %w", job.Name, err)
		}
		job.Props = merged
	}
	return nil
}

// loadProps reads a props file and merges it over the inline map. A relative
// path is resolved against the config directory.
func loadProps(inline map[string]any, path, dir string) (map[string]any, error) {
	if path == "" {
		return inline, nil
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := decodeFile(path, data)
	if err != nil {
		return nil, err
	}

	if inline == nil {
		return doc, nil
	}
	merged := maps.Clone(inline)
	maps.Copy(merged, doc)
	return merged, nil
}
