package config

import (
	"fmt"
	"os"
	"strconv"
)

// Environment overrides, applied after file loading.
const (
	EnvAssets      = "REELFORGE_ASSETS"
	EnvOutput      = "REELFORGE_OUTPUT"
	EnvConcurrency = "REELFORGE_CONCURRENCY"
	EnvProfile     = "REELFORGE_PROFILE"
	EnvQuality     = "REELFORGE_QUALITY"
	EnvSeed        = "REELFORGE_SEED"
)

// ApplyEnv returns a copy of c with environment overrides applied
func (c *Config) ApplyEnv() (*Config, error) {
	out := *c

	if v, ok := os.LookupEnv(EnvAssets); ok && v != "" {
		out.AssetsBasePath = v
	}
	if v, ok := os.LookupEnv(EnvOutput); ok && v != "" {
		out.OutputFolder = v
	}
	if v, ok := os.LookupEnv(EnvProfile); ok && v != "" {
		out.Output.Profile = v
	}
	if v, ok := os.LookupEnv(EnvQuality); ok && v != "" {
		out.Output.Quality = v
	}
	if v, ok := os.LookupEnv(EnvConcurrency); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvConcurrency, err)
		}
		out.Concurrency = n
	}
	if v, ok := os.LookupEnv(EnvSeed); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvSeed, err)
		}
		out.Seed = n
	}

	return &out, nil
}
