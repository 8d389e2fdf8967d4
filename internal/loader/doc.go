// Package loader provides the on-disk implementations of the configuration
// loading interface defined in the `config` package. It reads a config file
// in any of the supported formats (YAML, TOML, JSON, HCL), normalizes the
// format-specific document into the shared model, and folds in the side
// files a config may reference: a `.env` file and `props_file` maps.
package loader
