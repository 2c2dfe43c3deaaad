// SPDX-FileCopyrightText: 2025 The Sysup Authors
// SPDX-License-Identifier: EUPL-1.2

package progress

import (
	"regexp"
	"strconv"

	"github.com/janderssonse/sysup/internal/domain"
	"github.com/janderssonse/sysup/internal/stringutil"
)

// FlatpakSkipPatterns filters runtime, locale and extension refs that
// should not count as user-visible applications.
var FlatpakSkipPatterns = []string{"Locale", "Extension", "Platform", "GL.", "Sdk", "Runtime"}

// FlatpakTracker tracks `flatpak update` output. The numbered pre-listing
// establishes the app total; percentage lines advance the download phase
// and action lines drive the install phase.
type FlatpakTracker struct {
	rules        []rule
	totalApps    int
	completed    int
	currentApp   string
	lastProgress float64
	upToDate     bool
	done         bool
}

// NewFlatpakTracker creates a tracker for one flatpak update run.
func NewFlatpakTracker() *FlatpakTracker {
	t := &FlatpakTracker{}

	t.rules = []rule{
		{regexp.MustCompile(`Nothing to do`), t.handleNothingToDo},
		{regexp.MustCompile(`^\s*(\d+)\.\s+(\S+)`), t.handleListing},
		{regexp.MustCompile(`(?:Installing|Updating|Deploying)\s+(\S+)`), t.handleAction},
		{regexp.MustCompile(`(\d+)\s*%`), t.handlePercent},
		{regexp.MustCompile(`(?i)\b(?:done|installed|updated)\b`), t.handleCompletion},
	}

	return t
}

// ParseLine consumes one line of flatpak output.
func (t *FlatpakTracker) ParseLine(line string) *domain.ProgressEvent {
	if t.done {
		return nil
	}

	return dispatch(t.rules, line)
}

// IsUpToDate reports whether flatpak had nothing to update.
func (t *FlatpakTracker) IsUpToDate() bool {
	return t.upToDate
}

func (t *FlatpakTracker) handleNothingToDo(_ string, _ []string) *domain.ProgressEvent {
	t.upToDate = true
	t.done = true

	return &domain.ProgressEvent{
		Phase:    domain.PhaseComplete,
		Progress: 1.0,
		Message:  "Already up to date",
	}
}

func (t *FlatpakTracker) handleListing(_ string, groups []string) *domain.ProgressEvent {
	if !stringutil.ContainsAny(groups[2], FlatpakSkipPatterns) {
		t.totalApps++
	}

	return nil
}

func (t *FlatpakTracker) handleAction(_ string, groups []string) *domain.ProgressEvent {
	ref := groups[1]
	if stringutil.ContainsAny(ref, FlatpakSkipPatterns) {
		return nil
	}

	t.currentApp = stringutil.RefDisplayName(ref)

	progress := (float64(t.completed) + 0.5) / float64(max(t.totalApps, 1))
	if progress <= t.lastProgress {
		return nil
	}

	t.lastProgress = progress

	return &domain.ProgressEvent{
		Phase:          domain.PhaseInstalling,
		Progress:       progress,
		TotalItems:     t.totalApps,
		CompletedItems: t.completed,
		CurrentItem:    t.currentApp,
	}
}

var flatpakDownloadRef = regexp.MustCompile(`(?:Downloading|Fetching)\s+([\w.]+)`)

func (t *FlatpakTracker) handlePercent(line string, groups []string) *domain.ProgressEvent {
	pct, err := strconv.Atoi(groups[1])
	if err != nil || pct > 100 {
		return nil
	}

	if refGroups := flatpakDownloadRef.FindStringSubmatch(line); refGroups != nil {
		t.currentApp = stringutil.RefDisplayName(refGroups[1])
	}

	var progress float64
	if t.totalApps > 0 {
		progress = (float64(t.completed) + float64(pct)/100.0) / float64(t.totalApps)
	} else {
		progress = float64(pct) / 100.0
	}

	if progress <= t.lastProgress {
		return nil
	}

	t.lastProgress = progress

	return &domain.ProgressEvent{
		Phase:          domain.PhaseDownloading,
		Progress:       progress,
		TotalItems:     t.totalApps,
		CompletedItems: t.completed,
		CurrentItem:    t.currentApp,
	}
}

func (t *FlatpakTracker) handleCompletion(line string, _ []string) *domain.ProgressEvent {
	if stringutil.ContainsAny(line, FlatpakSkipPatterns) {
		return nil
	}

	t.completed++

	progress := float64(t.completed) / float64(max(t.totalApps, 1))
	if progress <= t.lastProgress {
		return nil
	}

	t.lastProgress = progress

	return &domain.ProgressEvent{
		Phase:          domain.PhaseInstalling,
		Progress:       progress,
		TotalItems:     t.totalApps,
		CompletedItems: t.completed,
		CurrentItem:    t.currentApp,
	}
}
