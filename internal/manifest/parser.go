package manifest

import (
	"encoding/json"
	"fmt"
	"os"
)

// Parse decodes a tools manifest from raw JSON.
func Parse(data []byte) (*File, error) {
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing tools manifest: %w", err)
	}
	return &f, nil
}

// ParseFile reads and decodes the manifest at path.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tools manifest %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}
