// Package keywords picks the target keywords of an article from a catalog.
package keywords

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
)

// LoadCatalog reads the keyword catalog at path. The file holds either a JSON
// list of keywords or an object of named lists, in which case "default" is
// used, else the first list by key order. A missing file is an empty catalog.
func LoadCatalog(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read keyword catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes catalog contents; see LoadCatalog for the accepted shapes
func ParseCatalog(data []byte) ([]string, error) {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		return dedupe(list), nil
	}

	var sets map[string]json.RawMessage
	if err := json.Unmarshal(data, &sets); err != nil {
		return nil, fmt.Errorf("failed to parse keyword catalog: %w", err)
	}

	if raw, ok := sets["default"]; ok {
		if err := json.Unmarshal(raw, &list); err == nil {
			return dedupe(list), nil
		}
	}

	names := make([]string, 0, len(sets))
	for name := range sets {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := json.Unmarshal(sets[name], &list); err == nil {
			return dedupe(list), nil
		}
	}
	return nil, nil
}
