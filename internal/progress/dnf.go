// SPDX-FileCopyrightText: 2025 The Sysup Authors
// SPDX-License-Identifier: EUPL-1.2

package progress

import (
	"regexp"
	"strconv"

	"github.com/janderssonse/sysup/internal/domain"
)

// rpmNamePattern strips version/release/arch suffixes from an RPM file
// name, e.g. "kernel-core-6.8.1-1.fc40.x86_64.rpm" -> "kernel-core".
var rpmNamePattern = regexp.MustCompile(`^(.+?)-[0-9]`)

// DnfTracker tracks `dnf upgrade` output. DNF announces its phases with
// literal marker lines, so the tracker is a plain state machine:
// "Downloading Packages:" opens the download half, "Running transaction"
// opens the install half, "Complete!" terminates the run.
type DnfTracker struct {
	rules         []rule
	totalPackages int
	downloadCount int
	lastProgress  float64
	downloading   bool
	installing    bool
	upToDate      bool
	done          bool
}

// NewDnfTracker creates a tracker for one dnf upgrade run.
func NewDnfTracker() *DnfTracker {
	t := &DnfTracker{}

	t.rules = []rule{
		{regexp.MustCompile(`Nothing to do`), t.handleNothingToDo},
		{regexp.MustCompile(`^Complete!`), t.handleComplete},
		{regexp.MustCompile(`^Downloading Packages:`), t.handleDownloadMarker},
		{regexp.MustCompile(`^Running transaction`), t.handleTransactionMarker},
		{regexp.MustCompile(`^\((\d+)/(\d+)\):\s*(\S+).*?(\d+)\s*%`), t.handleDownloadLine},
		{regexp.MustCompile(`^\s*(?:Upgrading|Installing)\s+:\s+(\S+).*?\s(\d+)/(\d+)\s*$`), t.handleInstallLine},
		{regexp.MustCompile(`^Upgraded:`), t.handleUpgradedHeader},
	}

	return t
}

// ParseLine consumes one line of dnf output.
func (t *DnfTracker) ParseLine(line string) *domain.ProgressEvent {
	if t.done {
		return nil
	}

	return dispatch(t.rules, line)
}

// IsUpToDate reports whether dnf had nothing to upgrade.
func (t *DnfTracker) IsUpToDate() bool {
	return t.upToDate
}

func (t *DnfTracker) handleNothingToDo(_ string, _ []string) *domain.ProgressEvent {
	t.upToDate = true
	t.done = true

	return &domain.ProgressEvent{
		Phase:    domain.PhaseComplete,
		Progress: 1.0,
		Message:  "All packages up to date",
	}
}

func (t *DnfTracker) handleComplete(_ string, _ []string) *domain.ProgressEvent {
	t.done = true
	t.lastProgress = 1.0

	return &domain.ProgressEvent{
		Phase:          domain.PhaseComplete,
		Progress:       1.0,
		TotalItems:     t.totalPackages,
		CompletedItems: t.totalPackages,
	}
}

func (t *DnfTracker) handleDownloadMarker(_ string, _ []string) *domain.ProgressEvent {
	t.downloading = true
	t.installing = false

	return &domain.ProgressEvent{
		Phase:    domain.PhaseDownloading,
		Progress: t.lastProgress,
		Message:  "Downloading packages",
	}
}

func (t *DnfTracker) handleTransactionMarker(_ string, _ []string) *domain.ProgressEvent {
	t.downloading = false
	t.installing = true

	if t.lastProgress < 0.5 {
		t.lastProgress = 0.5
	}

	return &domain.ProgressEvent{
		Phase:    domain.PhaseInstalling,
		Progress: t.lastProgress,
		Message:  "Running transaction",
	}
}

func (t *DnfTracker) handleDownloadLine(_ string, groups []string) *domain.ProgressEvent {
	index, err1 := strconv.Atoi(groups[1])
	total, err2 := strconv.Atoi(groups[2])

	if err1 != nil || err2 != nil || total <= 0 {
		return nil
	}

	t.downloadCount = index
	t.totalPackages = total

	progress := float64(index) / float64(total) * 0.5
	if progress <= t.lastProgress {
		return nil
	}

	t.lastProgress = progress

	return &domain.ProgressEvent{
		Phase:          domain.PhaseDownloading,
		Progress:       progress,
		TotalItems:     total,
		CompletedItems: index,
		CurrentItem:    rpmBaseName(groups[3]),
	}
}

func (t *DnfTracker) handleInstallLine(_ string, groups []string) *domain.ProgressEvent {
	index, err1 := strconv.Atoi(groups[2])
	total, err2 := strconv.Atoi(groups[3])

	if err1 != nil || err2 != nil || total <= 0 {
		return nil
	}

	progress := 0.5 + float64(index)/float64(total)*0.5
	if progress <= t.lastProgress {
		return nil
	}

	t.lastProgress = progress

	return &domain.ProgressEvent{
		Phase:          domain.PhaseInstalling,
		Progress:       progress,
		TotalItems:     total,
		CompletedItems: index,
		CurrentItem:    rpmBaseName(groups[1]),
	}
}

func (t *DnfTracker) handleUpgradedHeader(_ string, _ []string) *domain.ProgressEvent {
	// Summary header near the end of the transaction; report state without
	// advancing progress.
	return &domain.ProgressEvent{
		Phase:      domain.PhaseInstalling,
		Progress:   t.lastProgress,
		TotalItems: t.totalPackages,
		Message:    "Verifying upgrades",
	}
}

// rpmBaseName extracts the package name from an RPM file or NEVRA string.
func rpmBaseName(file string) string {
	if groups := rpmNamePattern.FindStringSubmatch(file); groups != nil {
		return groups[1]
	}

	return file
}
