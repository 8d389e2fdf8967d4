package config

import "context"

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads the file at path, translates it into the format-agnostic
	// model and resolves load-time inputs (props files, dotenv). The
	// returned Config carries the canonical absolute path of the file.
	Load(ctx context.Context, path string) (*Config, error)
}
