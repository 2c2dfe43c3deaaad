// SPDX-FileCopyrightText: 2025 The Sysup Authors
// SPDX-License-Identifier: EUPL-1.2

package progress

import (
	"regexp"
	"strconv"

	"github.com/janderssonse/sysup/internal/domain"
	"github.com/janderssonse/sysup/internal/stringutil"
)

// SnapSkipPatterns filters base and system snaps that refresh alongside
// applications but should not be surfaced to the user.
var SnapSkipPatterns = []string{"snapd", "core", "bare", "gnome-", "gtk-common-themes"}

// SnapTracker tracks `snap refresh` output. The pending snap names come
// from the `snap refresh --list` pre-check, so the total is known before
// the first line arrives.
type SnapTracker struct {
	rules        []rule
	total        int
	completed    int
	currentSnap  string
	lastProgress float64
	upToDate     bool
	done         bool
}

// NewSnapTracker creates a tracker for one snap refresh run covering the
// given pending snaps.
func NewSnapTracker(pending []string) *SnapTracker {
	t := &SnapTracker{total: len(pending)}

	t.rules = []rule{
		{regexp.MustCompile(`All snaps up to date`), t.handleUpToDate},
		{regexp.MustCompile(`^(\S+)\s+\([^)]+\)\s+(\S+)\s+from\s+.+\s+refreshed`), t.handleRefreshed},
		{regexp.MustCompile(`(?:(\S+)\s+)?(\d+)\s*%`), t.handlePercent},
	}

	return t
}

// ParseLine consumes one line of snap output.
func (t *SnapTracker) ParseLine(line string) *domain.ProgressEvent {
	if t.done {
		return nil
	}

	return dispatch(t.rules, line)
}

// IsUpToDate reports whether snap had nothing to refresh.
func (t *SnapTracker) IsUpToDate() bool {
	return t.upToDate
}

func (t *SnapTracker) handleUpToDate(_ string, _ []string) *domain.ProgressEvent {
	t.upToDate = true
	t.done = true

	return &domain.ProgressEvent{
		Phase:    domain.PhaseComplete,
		Progress: 1.0,
		Message:  "All snaps up to date",
	}
}

func (t *SnapTracker) handleRefreshed(_ string, groups []string) *domain.ProgressEvent {
	name := groups[1]
	if stringutil.ContainsAny(name, SnapSkipPatterns) {
		return nil
	}

	t.completed++
	t.currentSnap = name

	progress := float64(t.completed) / float64(max(t.total, 1))
	if progress > t.lastProgress {
		t.lastProgress = progress
	}

	return &domain.ProgressEvent{
		Phase:          domain.PhaseInstalling,
		Progress:       t.lastProgress,
		TotalItems:     t.total,
		CompletedItems: t.completed,
		CurrentItem:    name,
	}
}

func (t *SnapTracker) handlePercent(_ string, groups []string) *domain.ProgressEvent {
	pct, err := strconv.Atoi(groups[2])
	if err != nil || pct > 100 {
		return nil
	}

	if name := groups[1]; name != "" && !stringutil.ContainsAny(name, SnapSkipPatterns) {
		t.currentSnap = name
	}

	progress := (float64(t.completed) + float64(pct)/100.0) / float64(max(t.total, 1))
	if progress <= t.lastProgress {
		return nil
	}

	t.lastProgress = progress

	return &domain.ProgressEvent{
		Phase:          domain.PhaseDownloading,
		Progress:       progress,
		TotalItems:     t.total,
		CompletedItems: t.completed,
		CurrentItem:    t.currentSnap,
	}
}
