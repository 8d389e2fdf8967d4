// Package config defines the format-agnostic configuration model for the
// application, along with the Loader interface implemented by the
// format-specific loaders.
//
// The config.Config produced by a loader is the single source of truth for
// the graph, iterate and runner packages. Concrete loaders, one per file
// format, live in internal/loader.
package config
