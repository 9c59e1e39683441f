// Package datafile reads and writes the JSON and Excel files that hold test
// data and environment URLs.
package datafile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kuitang/site-e2e/internal/errs"
)

// ReadJSON decodes the JSON file at path into v.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return errs.Wrap(errs.NotFound, fmt.Sprintf("data file not found: %s", path), err)
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errs.Wrap(errs.InvalidArgument, fmt.Sprintf("invalid JSON in %s: %v", path, err), err)
	}
	return nil
}

// AppendJSON merges entries into the JSON object stored at path, keeping
// existing keys that entries does not override. A missing or unparseable
// file is treated as an empty object.
func AppendJSON(path string, entries map[string]any) error {
	current := map[string]any{}
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &current); err != nil || current == nil {
			current = map[string]any{}
		}
	}
	for k, v := range entries {
		current[k] = v
	}
	return writeJSON(path, current)
}

// OverwriteJSON replaces the file at path with v.
func OverwriteJSON(path string, v any) error {
	return writeJSON(path, v)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// URLs is the environment URL map kept in the urls file. BaseURL is the
// site the suite targets.
type URLs map[string]string

// BaseURL returns the "baseURL" entry.
func (u URLs) BaseURL() string { return u["baseURL"] }

// LoadURLs reads the urls file.
func LoadURLs(path string) (URLs, error) {
	var urls URLs
	if err := ReadJSON(path, &urls); err != nil {
		return nil, err
	}
	return urls, nil
}
