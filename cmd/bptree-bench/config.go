package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailscale/hujson"
)

// fileConfig is the JSONC-format options file bptree-bench reads with
// --config, layered under CLI flags the same way the teacher's tk reads
// .tk.json: defaults, then file, then explicit CLI overrides.
type fileConfig struct {
	Path     string `json:"path,omitempty"`
	PageSize int    `json:"page_size,omitempty"` //nolint:tagliatelle // snake_case for config file
	Count    int    `json:"count,omitempty"`
	Codec    string `json:"codec,omitempty"`
}

// loadFileConfig reads and parses a JSONC config file, tolerating
// comments and trailing commas via hujson.Standardize before handing the
// result to encoding/json.
func loadFileConfig(path string) (fileConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(raw)
	if err != nil {
		return fileConfig{}, fmt.Errorf("parsing config %s: %w", path, err)
	}

	var cfg fileConfig

	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return fileConfig{}, fmt.Errorf("decoding config %s: %w", path, err)
	}

	return cfg, nil
}
