// SPDX-FileCopyrightText: 2025 The Sysup Authors
// SPDX-License-Identifier: EUPL-1.2

package selfupdate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/janderssonse/sysup/internal/domain"
)

// Architecture maps the Go architecture to the release asset naming.
func Architecture() (string, error) {
	switch runtime.GOARCH {
	case "amd64":
		return "x86_64", nil
	case "arm64":
		return "aarch64", nil
	default:
		return "", fmt.Errorf("unsupported architecture %s, supported: x86_64, aarch64", runtime.GOARCH)
	}
}

// AssetName returns the release binary asset name for an architecture.
func AssetName(arch string) string {
	return "sysup-linux-" + arch
}

// CurrentBinaryPath resolves the running executable, following symlinks.
func CurrentBinaryPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}

	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("resolve executable path: %w", err)
	}

	return resolved, nil
}

// CanWrite reports whether the path (or its nearest existing parent) is
// writable by this process.
func CanWrite(path string) bool {
	for {
		if _, err := os.Stat(path); err == nil {
			return unixAccessWritable(path)
		}

		parent := filepath.Dir(path)
		if parent == path {
			return false
		}

		path = parent
	}
}

func unixAccessWritable(path string) bool {
	file, err := os.OpenFile(filepath.Clean(path), os.O_WRONLY, 0)
	if err == nil {
		_ = file.Close()

		return true
	}

	if info, statErr := os.Stat(path); statErr == nil && info.IsDir() {
		// Directories cannot be opened for writing; probe with a temp file.
		probe, probeErr := os.CreateTemp(path, ".sysup-write-probe-*")
		if probeErr != nil {
			return false
		}

		name := probe.Name()
		_ = probe.Close()
		_ = os.Remove(name)

		return true
	}

	return false
}

// Replace swaps currentPath with newPath, keeping a .bak backup of the
// old binary until the move succeeds. When the target is not writable
// the moves run under sudo through the command runner.
func Replace(ctx context.Context, runner domain.CommandRunner, currentPath, newPath string) error {
	if _, err := os.Stat(newPath); err != nil {
		return fmt.Errorf("new binary missing: %w", err)
	}

	if err := os.Chmod(newPath, 0o755); err != nil { //nolint:gosec
		return fmt.Errorf("make new binary executable: %w", err)
	}

	backupPath := currentPath + ".bak"

	if CanWrite(currentPath) {
		return replaceDirect(currentPath, newPath, backupPath)
	}

	return replaceWithSudo(ctx, runner, currentPath, newPath, backupPath)
}

func replaceDirect(currentPath, newPath, backupPath string) error {
	if err := os.Rename(currentPath, backupPath); err != nil {
		return fmt.Errorf("backup current binary: %w", err)
	}

	if err := moveFile(newPath, currentPath); err != nil {
		// Put the old binary back so the install stays usable.
		_ = os.Rename(backupPath, currentPath)

		return fmt.Errorf("install new binary: %w (backup restored)", err)
	}

	_ = os.Remove(backupPath)

	return nil
}

func replaceWithSudo(ctx context.Context, runner domain.CommandRunner, currentPath, newPath, backupPath string) error {
	if err := runner.Execute(ctx, "sudo", "mv", currentPath, backupPath); err != nil {
		return fmt.Errorf("backup current binary: %w", err)
	}

	if err := runner.Execute(ctx, "sudo", "mv", newPath, currentPath); err != nil {
		_ = runner.Execute(ctx, "sudo", "mv", backupPath, currentPath)

		return fmt.Errorf("install new binary: %w (backup restored)", err)
	}

	_ = runner.Execute(ctx, "sudo", "rm", backupPath)

	return nil
}

// moveFile renames src to dst, falling back to copy+remove across
// filesystems (the download lives in a temp dir that may be tmpfs).
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	data, err := os.ReadFile(filepath.Clean(src))
	if err != nil {
		return fmt.Errorf("read %s: %w", src, err)
	}

	if err := os.WriteFile(dst, data, 0o755); err != nil { //nolint:gosec
		return fmt.Errorf("write %s: %w", dst, err)
	}

	return os.Remove(src)
}
