// SPDX-FileCopyrightText: 2025 The Sysup Authors
// SPDX-License-Identifier: EUPL-1.2

package updaters

import (
	"context"
	"regexp"

	"github.com/janderssonse/sysup/internal/domain"
	"github.com/janderssonse/sysup/internal/parse"
	"github.com/janderssonse/sysup/internal/progress"
	"github.com/janderssonse/sysup/internal/stringutil"
)

// aptUpgradablePattern matches `apt list --upgradable` rows:
// "package/source version arch [upgradable from: old]".
var aptUpgradablePattern = regexp.MustCompile(`(\S+)/\S+\s+(\S+)\s+\S+\s+\[upgradable from:\s+(\S+)\]`)

// AptUpdater orchestrates Debian/Ubuntu updates. A run is two phases:
// `apt update` tracked by the checking tracker over the first tenth of
// the timeline, then `apt-get full-upgrade` tracked by the upgrade
// tracker over the rest.
type AptUpdater struct {
	runner domain.CommandRunner
	cache  *AvailabilityCache
	logDir string
}

// NewAptUpdater creates the APT backend.
func NewAptUpdater(runner domain.CommandRunner, cache *AvailabilityCache, logDir string) *AptUpdater {
	return &AptUpdater{runner: runner, cache: cache, logDir: logDir}
}

// Name returns the backend name.
func (u *AptUpdater) Name() string {
	return "apt"
}

// CheckAvailable reports whether apt is installed.
func (u *AptUpdater) CheckAvailable(_ context.Context) bool {
	return u.cache.Available(u.runner, "apt")
}

// CheckUpdates refreshes the package lists and returns the upgradable
// packages with their version transitions.
func (u *AptUpdater) CheckUpdates(ctx context.Context) ([]domain.Package, error) {
	_ = u.runner.Execute(ctx, "sudo", "apt", "update")

	output, err := u.runner.ExecuteWithOutput(ctx, "apt", "list", "--upgradable")
	if err != nil && output == "" {
		return nil, err
	}

	var packages []domain.Package

	for _, groups := range aptUpgradablePattern.FindAllStringSubmatch(output, -1) {
		packages = append(packages, domain.Package{
			Name:       stringutil.StripArch(groups[1]),
			NewVersion: groups[2],
			OldVersion: groups[3],
			Status:     domain.StatusPending,
		})
	}

	return packages, nil
}

// RunUpdate performs the full update run.
func (u *AptUpdater) RunUpdate(ctx context.Context, sink domain.ProgressSink, dryRun bool) domain.UpdateResult {
	result := newRunResult()

	if dryRun {
		return dryRunResult(result, sink)
	}

	logger := openRunLogger(u.logDir, u.Name())
	defer func() { _ = logger.Close() }()

	checkSink := progress.NewScaledSink(sink, 0, checkingRangeEnd).Sink()

	if _, err := runTracked(ctx, u.runner, logger, progress.NewAptUpdateTracker(), checkSink, nil, "sudo", "apt", "update"); err != nil {
		if ctx.Err() != nil {
			return cancelledResult(result)
		}

		return failed(result, "apt update failed: "+err.Error())
	}

	upgradeSink := progress.NewScaledSink(sink, checkingRangeEnd, upgradeRangeEnd,
		domain.PhaseDownloading, domain.PhaseInstalling).Sink()
	tracker := progress.NewAptUpgradeTracker()

	output, err := runTracked(ctx, u.runner, logger, tracker, upgradeSink,
		[]string{"DEBIAN_FRONTEND=noninteractive"},
		"sudo", "apt-get", "full-upgrade", "-y")
	if err != nil {
		if ctx.Err() != nil {
			return cancelledResult(result)
		}

		message := lastErrorLine(output)
		if message == "" {
			message = "apt full-upgrade failed"
		}

		return failed(result, message)
	}

	if tracker.IsUpToDate() {
		result.Success = true

		return finish(result)
	}

	result.Packages = parse.AptOutput(output)
	result.Success = true

	reportComplete(sink, "")

	return finish(result)
}
