// Package dirmeta reads per-directory _meta.json category metadata.
//
// The files are hand-edited, so they are parsed as HuJSON: comments and
// trailing commas are allowed.
package dirmeta

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

// Filename is the metadata file looked up in each category directory.
const Filename = "_meta.json"

// Meta is the optional metadata for a directory-as-category.
type Meta struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Load reads dir/_meta.json. A missing file is not an error and yields a
// zero Meta; a present but malformed file is an error.
func Load(dir string) (Meta, error) {
	var m Meta
	data, err := os.ReadFile(filepath.Join(dir, Filename))
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return m, fmt.Errorf("dirmeta: read %s: %w", dir, err)
	}
	std, err := hujson.Standardize(data)
	if err != nil {
		return m, fmt.Errorf("dirmeta: %s/%s: %w", dir, Filename, err)
	}
	if err := json.Unmarshal(std, &m); err != nil {
		return m, fmt.Errorf("dirmeta: %s/%s: %w", dir, Filename, err)
	}
	return m, nil
}

// LoadAll returns metadata for every top-level subdirectory of root,
// keyed by directory name. Directories without a metadata file are
// omitted.
func LoadAll(root string) (map[string]Meta, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("dirmeta: read root %s: %w", root, err)
	}
	out := make(map[string]Meta)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		m, err := Load(filepath.Join(root, e.Name()))
		if err != nil {
			return nil, err
		}
		if m == (Meta{}) {
			continue
		}
		out[e.Name()] = m
	}
	return out, nil
}
