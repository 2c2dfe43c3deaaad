// SPDX-FileCopyrightText: 2025 The Sysup Authors
// SPDX-License-Identifier: EUPL-1.2

package updaters

import (
	"context"
	"strings"

	"github.com/janderssonse/sysup/internal/domain"
	"github.com/janderssonse/sysup/internal/progress"
)

// PacmanUpdater orchestrates Arch Linux updates, preferring the
// checkupdates helper over `pacman -Qu` because it does not require a
// synced local database.
type PacmanUpdater struct {
	runner domain.CommandRunner
	cache  *AvailabilityCache
	logDir string
}

// NewPacmanUpdater creates the Pacman backend.
func NewPacmanUpdater(runner domain.CommandRunner, cache *AvailabilityCache, logDir string) *PacmanUpdater {
	return &PacmanUpdater{runner: runner, cache: cache, logDir: logDir}
}

// Name returns the backend name.
func (u *PacmanUpdater) Name() string {
	return "pacman"
}

// CheckAvailable reports whether pacman is installed.
func (u *PacmanUpdater) CheckAvailable(_ context.Context) bool {
	return u.cache.Available(u.runner, "pacman")
}

// CheckUpdates lists pending updates. checkupdates rows look like
// "name old -> new"; `pacman -Qu` rows have the same shape.
func (u *PacmanUpdater) CheckUpdates(ctx context.Context) ([]domain.Package, error) {
	var (
		output string
		err    error
	)

	if u.cache.Available(u.runner, "checkupdates") {
		output, err = u.runner.ExecuteWithOutput(ctx, "checkupdates")
	} else {
		output, err = u.runner.ExecuteWithOutput(ctx, "pacman", "-Qu")
	}

	// Both tools exit non-zero when there is nothing to update.
	if err != nil && output == "" {
		return nil, nil
	}

	var packages []domain.Package

	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 4 || fields[2] != "->" {
			continue
		}

		packages = append(packages, domain.Package{
			Name:       fields[0],
			OldVersion: fields[1],
			NewVersion: fields[3],
			Status:     domain.StatusPending,
		})
	}

	return packages, nil
}

// RunUpdate performs the full update run.
func (u *PacmanUpdater) RunUpdate(ctx context.Context, sink domain.ProgressSink, dryRun bool) domain.UpdateResult {
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

		return failed(result, "pacman update check failed: "+err.Error())
	}

	if sink != nil {
		sink(domain.ProgressEvent{
			Phase:      domain.PhaseChecking,
			Progress:   checkingRangeEnd,
			TotalItems: len(pending),
			Message:    "Checked for updates",
		})
	}

	tracker := progress.NewPacmanTracker(len(pending))
	upgradeSink := progress.NewScaledSink(sink, checkingRangeEnd, upgradeRangeEnd,
		domain.PhaseDownloading, domain.PhaseInstalling).Sink()

	output, err := runTracked(ctx, u.runner, logger, tracker, upgradeSink, nil,
		"sudo", "pacman", "-Syu", "--noconfirm", "--color", "never")
	if err != nil {
		if ctx.Err() != nil {
			return cancelledResult(result)
		}

		message := lastErrorLine(output)
		if message == "" {
			message = "pacman upgrade failed"
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
