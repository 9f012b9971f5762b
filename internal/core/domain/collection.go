package domain

import (
	"path/filepath"
	"strings"
)

// Collection is a named, independently searchable partition of the corpus.
type Collection struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

// CollectionMap maps collection names to storage locations, keeping the
// order in which names were first seen.
type CollectionMap struct {
	names     []string
	locations map[string]string
}

func CollectionName(location string) string {
	trimmed := strings.TrimSpace(location)
	if trimmed == "" {
		return ""
	}
	name := filepath.Base(filepath.Clean(trimmed))
	if name == "." || name == string(filepath.Separator) {
		return trimmed
	}
	return name
}

// NewCollectionMap builds the map from locations. A later location with the
// same name overwrites the earlier one.
func NewCollectionMap(locations []string) CollectionMap {
	m := CollectionMap{locations: make(map[string]string, len(locations))}
	for _, location := range locations {
		name := CollectionName(location)
		if name == "" {
			continue
		}
		if _, seen := m.locations[name]; !seen {
			m.names = append(m.names, name)
		}
		m.locations[name] = strings.TrimSpace(location)
	}
	return m
}

func (m CollectionMap) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

func (m CollectionMap) Location(name string) (string, bool) {
	location, ok := m.locations[name]
	return location, ok
}

func (m CollectionMap) Len() int {
	return len(m.names)
}

func (m CollectionMap) Collections() []Collection {
	out := make([]Collection, 0, len(m.names))
	for _, name := range m.names {
		out = append(out, Collection{Name: name, Location: m.locations[name]})
	}
	return out
}

type CollectionInfo struct {
	Collection
	Description string `json:"description"`
	Available   bool   `json:"available"`
}
