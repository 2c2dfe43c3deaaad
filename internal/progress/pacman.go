// SPDX-FileCopyrightText: 2025 The Sysup Authors
// SPDX-License-Identifier: EUPL-1.2

package progress

import (
	"regexp"
	"strconv"

	"github.com/janderssonse/sysup/internal/domain"
)

// PacmanTracker tracks `pacman -Syu` output. The install phase carries
// explicit (i/n) counters; the download phase is driven by "downloading"
// lines against the pending total from the pre-check.
type PacmanTracker struct {
	rules         []rule
	total         int
	downloadCount int
	lastProgress  float64
	downloading   bool
	upToDate      bool
	done          bool
}

// NewPacmanTracker creates a tracker for one pacman upgrade run covering
// total pending packages (0 when unknown).
func NewPacmanTracker(total int) *PacmanTracker {
	t := &PacmanTracker{total: total}

	t.rules = []rule{
		{regexp.MustCompile(`(?i)there is nothing to do`), t.handleNothingToDo},
		{regexp.MustCompile(`(?i)^\((\d+)/(\d+)\)\s+(?:upgrading|installing|reinstalling)\s+(\S+)`), t.handleInstall},
		{regexp.MustCompile(`(?i)retrieving packages|downloading(?:\s+(\S+))?`), t.handleDownload},
	}

	return t
}

// ParseLine consumes one line of pacman output.
func (t *PacmanTracker) ParseLine(line string) *domain.ProgressEvent {
	if t.done {
		return nil
	}

	return dispatch(t.rules, line)
}

// IsUpToDate reports whether pacman had nothing to upgrade.
func (t *PacmanTracker) IsUpToDate() bool {
	return t.upToDate
}

func (t *PacmanTracker) handleNothingToDo(_ string, _ []string) *domain.ProgressEvent {
	t.upToDate = true
	t.done = true

	return &domain.ProgressEvent{
		Phase:    domain.PhaseComplete,
		Progress: 1.0,
		Message:  "All packages up to date",
	}
}

func (t *PacmanTracker) handleInstall(_ string, groups []string) *domain.ProgressEvent {
	index, err1 := strconv.Atoi(groups[1])
	total, err2 := strconv.Atoi(groups[2])

	if err1 != nil || err2 != nil || total <= 0 {
		return nil
	}

	t.downloading = false

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
		CurrentItem:    groups[3],
	}
}

func (t *PacmanTracker) handleDownload(_ string, groups []string) *domain.ProgressEvent {
	if !t.downloading {
		// First download marker opens the phase.
		t.downloading = true

		return &domain.ProgressEvent{
			Phase:    domain.PhaseDownloading,
			Progress: t.lastProgress,
			Message:  "Downloading packages",
		}
	}

	if groups[1] == "" {
		return nil
	}

	t.downloadCount++

	progress := float64(t.downloadCount) / float64(max(t.total, 1)) * 0.5
	if progress <= t.lastProgress {
		return nil
	}

	t.lastProgress = progress

	return &domain.ProgressEvent{
		Phase:          domain.PhaseDownloading,
		Progress:       progress,
		TotalItems:     t.total,
		CompletedItems: t.downloadCount,
		CurrentItem:    groups[1],
	}
}
