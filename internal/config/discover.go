package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// discoverCollections lists the subdirectories of baseDir, sorted by name.
// Hidden directories are skipped.
func discoverCollections(baseDir string) []string {
	if strings.TrimSpace(baseDir) == "" {
		return nil
	}
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		out = append(out, filepath.Join(baseDir, entry.Name()))
	}
	sort.Strings(out)
	return out
}
