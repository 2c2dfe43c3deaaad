// SPDX-FileCopyrightText: 2025 The Sysup Authors
// SPDX-License-Identifier: EUPL-1.2

package updaters

import (
	"context"
	"strings"

	"github.com/janderssonse/sysup/internal/domain"
	"github.com/janderssonse/sysup/internal/progress"
)

// DnfUpdater orchestrates Fedora/RHEL updates, preferring dnf5 when it
// is installed.
type DnfUpdater struct {
	runner domain.CommandRunner
	cache  *AvailabilityCache
	logDir string
}

// NewDnfUpdater creates the DNF backend.
func NewDnfUpdater(runner domain.CommandRunner, cache *AvailabilityCache, logDir string) *DnfUpdater {
	return &DnfUpdater{runner: runner, cache: cache, logDir: logDir}
}

// Name returns the backend name.
func (u *DnfUpdater) Name() string {
	return "dnf"
}

// CheckAvailable reports whether dnf or dnf5 is installed.
func (u *DnfUpdater) CheckAvailable(_ context.Context) bool {
	return u.cache.Available(u.runner, "dnf5") || u.cache.Available(u.runner, "dnf")
}

// command returns the preferred dnf binary.
func (u *DnfUpdater) command() string {
	if u.cache.Available(u.runner, "dnf5") {
		return "dnf5"
	}

	return "dnf"
}

// CheckUpdates lists pending updates via `dnf check-update`. DNF exits
// 100 when updates are available, so a non-nil error with output is not
// a failure.
func (u *DnfUpdater) CheckUpdates(ctx context.Context) ([]domain.Package, error) {
	output, err := u.runner.ExecuteWithOutput(ctx, u.command(), "check-update")
	if err != nil && output == "" {
		return nil, err
	}

	installed := u.installedVersions(ctx)

	var packages []domain.Package

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" ||
			strings.Contains(line, "Last metadata expiration") ||
			strings.Contains(line, "Metadata cache created") {
			continue
		}

		// Rows look like: name.arch  version  repository
		fields := strings.Fields(line)
		if len(fields) < 3 {
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

// installedVersions maps installed package names to their versions.
func (u *DnfUpdater) installedVersions(ctx context.Context) map[string]string {
	output, err := u.runner.ExecuteWithOutput(ctx, u.command(), "list", "installed")
	if err != nil {
		return nil
	}

	versions := make(map[string]string)

	for _, line := range strings.Split(output, "\n") {
		if strings.HasPrefix(line, "Installed Packages") || strings.Contains(line, "Last metadata") {
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
func (u *DnfUpdater) RunUpdate(ctx context.Context, sink domain.ProgressSink, dryRun bool) domain.UpdateResult {
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

		return failed(result, "dnf check-update failed: "+err.Error())
	}

	if sink != nil {
		sink(domain.ProgressEvent{
			Phase:    domain.PhaseChecking,
			Progress: checkingRangeEnd,
			Message:  "Checked for updates",
		})
	}

	tracker := progress.NewDnfTracker()
	upgradeSink := progress.NewScaledSink(sink, checkingRangeEnd, upgradeRangeEnd,
		domain.PhaseDownloading, domain.PhaseInstalling).Sink()

	output, err := runTracked(ctx, u.runner, logger, tracker, upgradeSink, nil,
		"sudo", u.command(), "upgrade", "-y")
	if err != nil {
		if ctx.Err() != nil {
			return cancelledResult(result)
		}

		message := lastErrorLine(output)
		if message == "" {
			message = "dnf upgrade failed"
		}

		return failed(result, message)
	}

	if tracker.IsUpToDate() {
		result.Success = true

		return finish(result)
	}

	for i := range pending {
		pending[i].Status = domain.StatusComplete
	}

	result.Packages = pending
	result.Success = true

	reportComplete(sink, "")

	return finish(result)
}
