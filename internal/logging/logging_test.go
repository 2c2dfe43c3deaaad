// SPDX-FileCopyrightText: 2025 The Sysup Authors
// SPDX-License-Identifier: EUPL-1.2

package logging

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunLoggerWritesToFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	logger, err := NewRunLogger(dir, "apt")
	require.NoError(t, err)

	logger.WithField("line", "Get:1 ...").Info("output")
	require.NoError(t, logger.Close())

	content, err := os.ReadFile(logger.Path())
	require.NoError(t, err)
	assert.Contains(t, string(content), "output")
	assert.Contains(t, string(content), "Get:1")
	assert.True(t, strings.HasPrefix(logger.Path(), dir))
}

func TestDefaultDirHonorsXDGCacheHome(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")

	assert.Equal(t, "/tmp/xdg-cache/sysup/logs", DefaultDir())
}

func TestDiscardLoggerIsSafe(t *testing.T) {
	t.Parallel()

	logger := Discard()
	logger.Info("goes nowhere")

	assert.Empty(t, logger.Path())
	require.NoError(t, logger.Close())
}
