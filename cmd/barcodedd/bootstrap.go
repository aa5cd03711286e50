package main

import (
	"fmt"
	"strings"

	"barcoded/internal/config"
)

const configEnv = "BARCODED_CONFIG"

func loadConfig(path string) (*config.Config, error) {
	cfg, resolved, exists, err := config.Load(strings.TrimSpace(path))
	if err != nil {
		return nil, err
	}
	if !exists && strings.TrimSpace(path) != "" {
		return nil, fmt.Errorf("config file %s does not exist", resolved)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	return cfg, nil
}
