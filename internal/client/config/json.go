package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// parseJson overlays cfg with values from the JSON file at path. The file is
// decoded over the current values, so fields it omits keep their defaults.
func parseJson(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}
