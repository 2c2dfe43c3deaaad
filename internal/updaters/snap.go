// SPDX-FileCopyrightText: 2025 The Sysup Authors
// SPDX-License-Identifier: EUPL-1.2

package updaters

import (
	"context"
	"strings"

	"github.com/janderssonse/sysup/internal/domain"
	"github.com/janderssonse/sysup/internal/progress"
	"github.com/janderssonse/sysup/internal/stringutil"
)

// SnapUpdater orchestrates snap refreshes. The `snap refresh --list`
// pre-check supplies the pending snap names, which the tracker needs to
// compute a total before the first refresh line arrives.
type SnapUpdater struct {
	runner domain.CommandRunner
	cache  *AvailabilityCache
	logDir string
}

// NewSnapUpdater creates the Snap backend.
func NewSnapUpdater(runner domain.CommandRunner, cache *AvailabilityCache, logDir string) *SnapUpdater {
	return &SnapUpdater{runner: runner, cache: cache, logDir: logDir}
}

// Name returns the backend name.
func (u *SnapUpdater) Name() string {
	return "snap"
}

// CheckAvailable reports whether snap is installed.
func (u *SnapUpdater) CheckAvailable(_ context.Context) bool {
	return u.cache.Available(u.runner, "snap")
}

// CheckUpdates lists pending refreshes, filtering system snaps.
func (u *SnapUpdater) CheckUpdates(ctx context.Context) ([]domain.Package, error) {
	output, err := u.runner.ExecuteWithOutput(ctx, "snap", "refresh", "--list")
	if err != nil && output == "" {
		return nil, err
	}

	installed := u.installedVersions(ctx)

	var packages []domain.Package

	for _, line := range strings.Split(output, "\n") {
		if strings.HasPrefix(line, "Name") || strings.TrimSpace(line) == "" ||
			strings.Contains(line, "All snaps up to date") ||
			stringutil.ContainsAny(line, progress.SnapSkipPatterns) {
			continue
		}

		// Rows look like: Name  Version  Rev  Size  Publisher  Notes
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		packages = append(packages, domain.Package{
			Name:       fields[0],
			NewVersion: fields[1],
			OldVersion: installed[fields[0]],
			Status:     domain.StatusPending,
		})
	}

	return packages, nil
}

// installedVersions maps installed snap names to their versions.
func (u *SnapUpdater) installedVersions(ctx context.Context) map[string]string {
	output, err := u.runner.ExecuteWithOutput(ctx, "snap", "list")
	if err != nil {
		return nil
	}

	versions := make(map[string]string)

	for _, line := range strings.Split(output, "\n") {
		if strings.HasPrefix(line, "Name") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) >= 2 {
			versions[fields[0]] = fields[1]
		}
	}

	return versions
}

// RunUpdate performs the full update run.
func (u *SnapUpdater) RunUpdate(ctx context.Context, sink domain.ProgressSink, dryRun bool) domain.UpdateResult {
	result := newRunResult()

	if dryRun {
		return dryRunResult(result, sink)
	}

	logger := openRunLogger(u.logDir, u.Name())
	defer func() { _ = logger.Close() }()

	pending, err := u.CheckUpdates(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return cancelledResult(result)
		}

		return failed(result, "snap refresh --list failed: "+err.Error())
	}

	if sink != nil {
		sink(domain.ProgressEvent{
			Phase:      domain.PhaseChecking,
			Progress:   checkingRangeEnd,
			TotalItems: len(pending),
			Message:    "Checked for updates",
		})
	}

	if len(pending) == 0 {
		reportComplete(sink, "All snaps up to date")

		result.Success = true

		return finish(result)
	}

	names := make([]string, len(pending))
	for i, pkg := range pending {
		names[i] = pkg.Name
	}

	tracker := progress.NewSnapTracker(names)
	upgradeSink := progress.NewScaledSink(sink, checkingRangeEnd, upgradeRangeEnd,
		domain.PhaseDownloading, domain.PhaseInstalling).Sink()

	output, err := runTracked(ctx, u.runner, logger, tracker, upgradeSink, nil,
		"sudo", "snap", "refresh")
	if err != nil {
		if ctx.Err() != nil {
			return cancelledResult(result)
		}

		message := lastErrorLine(output)
		if message == "" {
			message = "snap refresh failed"
		}

		return failed(result, message)
	}

	for i := range pending {
		pending[i].Status = domain.StatusComplete
	}

	result.Packages = pending
	result.Success = true

	reportComplete(sink, "")

	return finish(result)
}
