package main

import (
	"os"

	"github.com/nashir/pushgate/fields"
)

const defaultConfigPath = "config.yaml"

// loadConfig resolves the config file path (PUSHGATE_CONFIG overrides the
// default) and loads it with env overrides applied.
func loadConfig() (fields.Config, error) {
	path := os.Getenv("PUSHGATE_CONFIG")
	if path == "" {
		path = defaultConfigPath
	}
	return fields.LoadConfig(path)
}
