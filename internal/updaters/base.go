// SPDX-FileCopyrightText: 2025 The Sysup Authors
// SPDX-License-Identifier: EUPL-1.2

// Package updaters implements the per-backend orchestrators. Each backend
// spawns its package manager through the platform command runner, streams
// output lines in order into its tracker, and reports scaled progress to
// the caller's sink. Backends run concurrently; every backend owns its
// own tracker and never shares state with another.
package updaters

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/janderssonse/sysup/internal/domain"
	"github.com/janderssonse/sysup/internal/logging"
	"github.com/janderssonse/sysup/internal/progress"
)

// Progress sub-ranges composed by every backend: the pre-check owns the
// first tenth of the timeline, the actual upgrade the rest.
const (
	checkingRangeEnd = 0.1
	upgradeRangeEnd  = 1.0
)

// AvailabilityCache memoizes command availability probes so concurrent
// backends do not repeat PATH lookups.
type AvailabilityCache struct {
	mu      sync.Mutex
	results map[string]bool
}

// NewAvailabilityCache creates an empty cache.
func NewAvailabilityCache() *AvailabilityCache {
	return &AvailabilityCache{results: make(map[string]bool)}
}

// Available reports whether name exists on this system, probing at most
// once per name.
func (c *AvailabilityCache) Available(runner domain.CommandRunner, name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if result, ok := c.results[name]; ok {
		return result
	}

	result := runner.CommandExists(name)
	c.results[name] = result

	return result
}

// Registry owns the configured backends and their shared availability
// cache.
type Registry struct {
	updaters []domain.Updater
}

// NewRegistry constructs all supported backends against the given runner.
// Probe results are shared through one availability cache.
func NewRegistry(runner domain.CommandRunner, logDir string) *Registry {
	cache := NewAvailabilityCache()

	return &Registry{
		updaters: []domain.Updater{
			NewAptUpdater(runner, cache, logDir),
			NewDnfUpdater(runner, cache, logDir),
			NewFlatpakUpdater(runner, cache, logDir),
			NewSnapUpdater(runner, cache, logDir),
			NewPacmanUpdater(runner, cache, logDir),
		},
	}
}

// All returns every configured backend.
func (r *Registry) All() []domain.Updater {
	return r.updaters
}

// Select returns the named backends, or all of them for an empty list.
func (r *Registry) Select(names []string) ([]domain.Updater, error) {
	if len(names) == 0 {
		return r.updaters, nil
	}

	byName := make(map[string]domain.Updater, len(r.updaters))
	for _, u := range r.updaters {
		byName[u.Name()] = u
	}

	selected := make([]domain.Updater, 0, len(names))

	for _, name := range names {
		u, ok := byName[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unknown backend %q", name)
		}

		selected = append(selected, u)
	}

	return selected, nil
}

// BackendResult pairs a backend name with its terminal result.
type BackendResult struct {
	Backend string
	Result  domain.UpdateResult
}

// RunAll fans out the given backends concurrently and joins their
// results. Events are forwarded to sink tagged with the backend name;
// result order matches the input order.
func RunAll(ctx context.Context, backends []domain.Updater, sink func(backend string, event domain.ProgressEvent), dryRun bool) []BackendResult {
	results := make([]BackendResult, len(backends))

	group, ctx := errgroup.WithContext(ctx)

	for i, backend := range backends {
		group.Go(func() error {
			var backendSink domain.ProgressSink
			if sink != nil {
				backendSink = func(event domain.ProgressEvent) {
					sink(backend.Name(), event)
				}
			}

			results[i] = BackendResult{
				Backend: backend.Name(),
				Result:  backend.RunUpdate(ctx, backendSink, dryRun),
			}

			return nil
		})
	}

	_ = group.Wait()

	return results
}

// runTracked streams a command through a tracker, forwarding events to
// sink and logging every line. The complete output is returned for the
// batch parsers.
func runTracked(ctx context.Context, runner domain.CommandRunner, logger *logging.RunLogger, tracker progress.Tracker, sink domain.ProgressSink, env []string, name string, args ...string) (string, error) {
	var output strings.Builder

	err := runner.StreamLines(ctx, func(line string) {
		output.WriteString(line)
		output.WriteByte('\n')
		logger.Debug(line)

		if event := tracker.ParseLine(line); event != nil && sink != nil {
			sink(*event)
		}
	}, env, name, args...)

	return output.String(), err
}

// lastErrorLine scans output backwards for the most recent error-looking
// line, the way apt and friends bury the actual cause near the end.
func lastErrorLine(output string) string {
	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")

	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}

		if strings.Contains(line, "E:") || strings.Contains(strings.ToLower(line), "error") {
			return line
		}
	}

	return ""
}

// newRunResult starts a result clock.
func newRunResult() domain.UpdateResult {
	return domain.UpdateResult{StartTime: time.Now()}
}

// finish stamps the end time.
func finish(result domain.UpdateResult) domain.UpdateResult {
	result.EndTime = time.Now()

	return result
}

// failed produces a finished failure result.
func failed(result domain.UpdateResult, message string) domain.UpdateResult {
	result.Success = false
	result.ErrorMessage = message

	return finish(result)
}

// cancelledResult reports a cancelled backend as failure, never as
// success with partial packages.
func cancelledResult(result domain.UpdateResult) domain.UpdateResult {
	return failed(result, domain.ErrRunCancelled.Error())
}

// dryRunResult reports a skipped run.
func dryRunResult(result domain.UpdateResult, sink domain.ProgressSink) domain.UpdateResult {
	if sink != nil {
		sink(domain.ProgressEvent{
			Phase:    domain.PhaseComplete,
			Progress: 1.0,
			Message:  "Dry run, nothing executed",
		})
	}

	result.Success = true

	return finish(result)
}

// openRunLogger returns a file logger, falling back to a discard logger
// when the log dir cannot be created.
func openRunLogger(logDir, backend string) *logging.RunLogger {
	logger, err := logging.NewRunLogger(logDir, backend)
	if err != nil {
		return logging.Discard()
	}

	return logger
}

// reportComplete emits the final full-scale completion event.
func reportComplete(sink domain.ProgressSink, message string) {
	if sink != nil {
		sink(domain.ProgressEvent{
			Phase:    domain.PhaseComplete,
			Progress: 1.0,
			Message:  message,
		})
	}
}
