// SPDX-FileCopyrightText: 2025 The Sysup Authors
// SPDX-License-Identifier: EUPL-1.2

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Backends)
	assert.False(t, cfg.DryRun)
	assert.Equal(t, DefaultSelfUpdateRepo, cfg.SelfUpdateRepo)
}

func TestLoadParsesFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.toml")
	content := `backends = ["apt", "flatpak"]
dry_run = true
self_update_repo = "someone/fork"
log_dir = "/var/log/sysup"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"apt", "flatpak"}, cfg.Backends)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, "someone/fork", cfg.SelfUpdateRepo)
	assert.Equal(t, "/var/log/sysup", cfg.LogDir)
}

func TestLoadInvalidTOML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("backends = ["), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadEmptyRepoFallsBack(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`self_update_repo = ""`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultSelfUpdateRepo, cfg.SelfUpdateRepo)
}

func TestDefaultPathHonorsXDGConfigHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")

	assert.Equal(t, "/tmp/xdg-config/sysup/config.toml", DefaultPath())
}
