// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("OverridesDefaults", func(t *testing.T) {
		cfg, err := LoadConfig(writeConfig(t, "beam: 20\nlenpen: 0.5\ngreedy: true\n"))
		require.NoError(t, err)
		assert.Equal(t, 20, cfg.Beam)
		assert.Equal(t, 0.5, cfg.LengthPenalty)
		assert.True(t, cfg.Greedy)
		// Unset keys keep their defaults.
		assert.Equal(t, 1, cfg.NBest)
		assert.Equal(t, 8, cfg.BatchSize)
	})

	t.Run("EmptyFileKeepsDefaults", func(t *testing.T) {
		cfg, err := LoadConfig(writeConfig(t, ""))
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("InvalidBeam", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "beam: 0\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "beam")
	})

	t.Run("InvalidBatchSize", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "batch_size: -1\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "batch_size")
	})

	t.Run("BadYAML", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "beam: [not a number\n"))
		require.Error(t, err)
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})
}
