// SPDX-FileCopyrightText: 2025 The Sysup Authors
// SPDX-License-Identifier: EUPL-1.2

package selfupdate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/janderssonse/sysup/internal/domain"
)

// CheckResult describes the outcome of a version check.
type CheckResult struct {
	CurrentVersion  string
	LatestVersion   string
	UpdateAvailable bool
	Release         *Release
}

// Updater orchestrates the self-update flow.
type Updater struct {
	client  *Client
	network domain.NetworkClient
	runner  domain.CommandRunner
	repo    string
}

// New creates an updater for the given owner/repo slug.
func New(repo string, client *Client, network domain.NetworkClient, runner domain.CommandRunner) *Updater {
	return &Updater{client: client, network: network, runner: runner, repo: repo}
}

// CheckForUpdate compares the current version against the latest release.
func (u *Updater) CheckForUpdate(ctx context.Context, currentVersion string) (CheckResult, error) {
	result := CheckResult{CurrentVersion: currentVersion}

	release, err := u.client.LatestRelease(ctx, u.repo)
	if err != nil {
		return result, err
	}

	result.LatestVersion = release.Version()

	if IsNewerVersion(currentVersion, result.LatestVersion) {
		result.UpdateAvailable = true
		result.Release = release
	}

	return result, nil
}

// PerformUpdate downloads, verifies and installs the release binary.
// Progress is reported as (message, fraction) pairs in [0,1].
func (u *Updater) PerformUpdate(ctx context.Context, release *Release, onProgress func(message string, fraction float64)) error {
	report := func(message string, fraction float64) {
		if onProgress != nil {
			onProgress(message, fraction)
		}
	}

	report("Detecting system architecture", 0.05)

	arch, err := Architecture()
	if err != nil {
		return err
	}

	assetName := AssetName(arch)

	report("Finding release assets", 0.10)

	binaryAsset, ok := release.Asset(assetName)
	if !ok {
		return fmt.Errorf("release has no asset %q, architecture %s may be unsupported", assetName, arch)
	}

	checksumAsset, ok := release.Asset(ChecksumManifestName)
	if !ok {
		return fmt.Errorf("release has no %s asset", ChecksumManifestName)
	}

	report("Downloading checksums", 0.20)

	manifest, err := u.client.DownloadText(ctx, checksumAsset.DownloadURL)
	if err != nil {
		return err
	}

	expected, ok := ParseChecksums(manifest)[binaryAsset.Name]
	if !ok {
		return fmt.Errorf("no checksum for %q in %s", binaryAsset.Name, ChecksumManifestName)
	}

	tmpDir, err := os.MkdirTemp("", "sysup-update-*")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}

	defer func() {
		_ = os.RemoveAll(tmpDir)
	}()

	newBinary := filepath.Join(tmpDir, binaryAsset.Name)

	report("Downloading binary", 0.30)

	// The download owns the 0.30 to 0.70 span of the overall flow.
	err = u.network.DownloadFile(ctx, binaryAsset.DownloadURL, newBinary, func(received, total int64) {
		if total <= 0 {
			total = binaryAsset.Size
		}

		if total > 0 {
			fraction := 0.30 + float64(received)/float64(total)*0.40
			report(fmt.Sprintf("Downloading: %s of %s", humanize.Bytes(uint64(received)), humanize.Bytes(uint64(total))), fraction) //nolint:gosec
		}
	})
	if err != nil {
		return fmt.Errorf("download binary: %w", err)
	}

	report("Verifying checksum", 0.75)

	if err := VerifyFile(newBinary, expected); err != nil {
		return err
	}

	currentBinary, err := CurrentBinaryPath()
	if err != nil {
		return err
	}

	report("Replacing binary", 0.85)

	if err := Replace(ctx, u.runner, currentBinary, newBinary); err != nil {
		return err
	}

	report("Update complete", 1.0)

	return nil
}

// IsNewerVersion reports whether latest is strictly newer than current.
// Versions are compared as dotted integers, tolerating a leading "v" and
// ignoring a pre-release suffix; unparseable versions fall back to string
// comparison.
func IsNewerVersion(current, latest string) bool {
	currentParts, okCurrent := versionParts(current)
	latestParts, okLatest := versionParts(latest)

	if !okCurrent || !okLatest {
		return latest > current
	}

	for len(currentParts) < len(latestParts) {
		currentParts = append(currentParts, 0)
	}

	for len(latestParts) < len(currentParts) {
		latestParts = append(latestParts, 0)
	}

	for i := range latestParts {
		if latestParts[i] != currentParts[i] {
			return latestParts[i] > currentParts[i]
		}
	}

	return false
}

func versionParts(version string) ([]int, bool) {
	version = strings.TrimPrefix(strings.TrimSpace(version), "v")
	if idx := strings.IndexAny(version, "-+"); idx >= 0 {
		version = version[:idx]
	}

	if version == "" {
		return nil, false
	}

	fields := strings.Split(version, ".")
	parts := make([]int, 0, len(fields))

	for _, field := range fields {
		n, err := strconv.Atoi(field)
		if err != nil {
			return nil, false
		}

		parts = append(parts, n)
	}

	return parts, true
}
