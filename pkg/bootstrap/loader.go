package bootstrap

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

const logPrefix = "bootstrap:loader"

// LoadConfig loads the topology config from file paths or environment.
// Paths are tried in order: any passed in first, then CONNECTOR_BOOTSTRAP_FILE
// from the environment, then the defaults config/connector.json and
// connector.json. The first readable, parseable file wins.
func LoadConfig(paths ...string) (*Config, error) {
	all := make([]string, 0, len(paths)+3)
	for _, p := range paths {
		if p != "" {
			all = append(all, p)
		}
	}
	if envPath := os.Getenv("CONNECTOR_BOOTSTRAP_FILE"); envPath != "" {
		all = append(all, envPath)
	}
	all = append(all, "config/connector.json", "connector.json")

	for _, p := range all {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}

		var cfg Config
		if err := json.Unmarshal(data, &cfg); err != nil {
			slog.Warn(fmt.Sprintf("%s - Failed to parse bootstrap file %s: %v", logPrefix, p, err))
			continue
		}

		slog.Info(fmt.Sprintf("%s - Loaded topology config from %s", logPrefix, p))
		return &cfg, nil
	}

	return nil, fmt.Errorf("%s - no readable topology config found", logPrefix)
}
