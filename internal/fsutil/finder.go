// Package fsutil provides file system utility functions.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// defaultNames are the config file names probed when the CLI receives no
// explicit path, in priority order.
var defaultNames = []string{
	"monaco.yaml",
	"monaco.yml",
	"monaco.toml",
	"monaco.json",
	"monaco.hcl",
}

// DiscoverConfig probes dir for a default config file and returns the first
// hit. Directories with a matching name are ignored.
func DiscoverConfig(dir string) (string, error) {
	for _, name := range defaultNames {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		return path, nil
	}
	return "", fmt.Errorf("no config file found in %s (looked for %s)", dir, strings.Join(defaultNames, ", "))
}
