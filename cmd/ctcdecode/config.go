// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds the decoding settings of the tool. A YAML file given with
// --config provides defaults; explicitly set flags take precedence.
type Config struct {
	Beam          int     `yaml:"beam"`
	LengthPenalty float64 `yaml:"lenpen"`
	Greedy        bool    `yaml:"greedy"`
	NBest         int     `yaml:"nbest"`
	BatchSize     int     `yaml:"batch_size"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Beam:          5,
		LengthPenalty: 1.0,
		NBest:         1,
		BatchSize:     8,
	}
}

// LoadConfig reads a YAML config file on top of the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config from %q", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing config from %q", path)
	}
	if cfg.Beam <= 0 {
		return nil, errors.Errorf("config %q: beam must be positive, got %d", path, cfg.Beam)
	}
	if cfg.BatchSize <= 0 {
		return nil, errors.Errorf("config %q: batch_size must be positive, got %d", path, cfg.BatchSize)
	}
	return cfg, nil
}
