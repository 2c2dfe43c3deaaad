// SPDX-FileCopyrightText: 2025 The Sysup Authors
// SPDX-License-Identifier: EUPL-1.2

package updaters

import (
	"context"
	"strings"

	"github.com/janderssonse/sysup/internal/domain"
	"github.com/janderssonse/sysup/internal/parse"
	"github.com/janderssonse/sysup/internal/progress"
	"github.com/janderssonse/sysup/internal/stringutil"
)

// FlatpakUpdater orchestrates Flatpak application updates.
type FlatpakUpdater struct {
	runner domain.CommandRunner
	cache  *AvailabilityCache
	logDir string
}

// NewFlatpakUpdater creates the Flatpak backend.
func NewFlatpakUpdater(runner domain.CommandRunner, cache *AvailabilityCache, logDir string) *FlatpakUpdater {
	return &FlatpakUpdater{runner: runner, cache: cache, logDir: logDir}
}

// Name returns the backend name.
func (u *FlatpakUpdater) Name() string {
	return "flatpak"
}

// CheckAvailable reports whether flatpak is installed.
func (u *FlatpakUpdater) CheckAvailable(_ context.Context) bool {
	return u.cache.Available(u.runner, "flatpak")
}

// CheckUpdates lists pending application updates via
// `flatpak remote-ls --updates`, filtering runtime refs.
func (u *FlatpakUpdater) CheckUpdates(ctx context.Context) ([]domain.Package, error) {
	output, err := u.runner.ExecuteWithOutput(ctx, "flatpak", "remote-ls", "--updates")
	if err != nil && output == "" {
		return nil, err
	}

	var packages []domain.Package

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || stringutil.ContainsAny(line, progress.FlatpakSkipPatterns) {
			continue
		}

		// Rows look like: Name  Application-ID  Branch ...
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		ref := fields[1]

		pkg := domain.Package{
			Name:   stringutil.RefDisplayName(ref),
			Status: domain.StatusPending,
		}
		if len(fields) >= 3 {
			pkg.NewVersion = fields[2]
		}

		packages = append(packages, pkg)
	}

	return packages, nil
}

// RunUpdate performs the full update run.
func (u *FlatpakUpdater) RunUpdate(ctx context.Context, sink domain.ProgressSink, dryRun bool) domain.UpdateResult {
	result := newRunResult()

	if dryRun {
		return dryRunResult(result, sink)
	}

	logger := openRunLogger(u.logDir, u.Name())
	defer func() { _ = logger.Close() }()

	tracker := progress.NewFlatpakTracker()
	upgradeSink := progress.NewScaledSink(sink, checkingRangeEnd, upgradeRangeEnd,
		domain.PhaseDownloading, domain.PhaseInstalling).Sink()

	// FLATPAK_TTY_MODE keeps flatpak from emitting interactive repaints
	// that would garble line parsing.
	output, err := runTracked(ctx, u.runner, logger, tracker, upgradeSink,
		[]string{"FLATPAK_TTY_MODE=none"},
		"flatpak", "update", "-y", "--noninteractive")
	if err != nil {
		if ctx.Err() != nil {
			return cancelledResult(result)
		}

		message := lastErrorLine(output)
		if message == "" {
			message = "flatpak update failed"
		}

		return failed(result, message)
	}

	if tracker.IsUpToDate() {
		result.Success = true

		return finish(result)
	}

	result.Packages = parse.FlatpakOutput(output)
	result.Success = true

	reportComplete(sink, "")

	return finish(result)
}
