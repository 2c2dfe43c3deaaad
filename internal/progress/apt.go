// SPDX-FileCopyrightText: 2025 The Sysup Authors
// SPDX-License-Identifier: EUPL-1.2

package progress

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/janderssonse/sysup/internal/domain"
	"github.com/janderssonse/sysup/internal/stringutil"
)

// aptArchitectures are the tokens apt may print between the suite and the
// package name on Get: lines.
var aptArchitectures = map[string]struct{}{
	"amd64":   {},
	"arm64":   {},
	"armhf":   {},
	"i386":    {},
	"riscv64": {},
	"ppc64el": {},
	"s390x":   {},
	"all":     {},
}

// aptGetPackageName extracts the package from the tail of a Get: line.
// Apt prints "URI suite/component arch package ..."; short-form mirrors
// and older releases omit the architecture column.
func aptGetPackageName(rest string) string {
	fields := strings.Fields(rest)
	if len(fields) < 3 {
		return ""
	}

	pkg := fields[2]
	if _, isArch := aptArchitectures[pkg]; isArch && len(fields) > 3 {
		pkg = fields[3]
	}

	return stringutil.StripArch(pkg)
}

// Repo count estimate used before the true total is known. APT never
// announces how many sources it will touch, so the denominator grows as
// more repos appear and progress approaches 1.0 asymptotically.
const defaultEstimatedRepos = 10

// checkingProgressCap keeps the checking phase below 100% until the
// process actually exits; the caller signals completion explicitly.
const checkingProgressCap = 0.95

// unknownTotalCap bounds download estimates while the package total is
// still unknown, leaving headroom for the corrected value.
const unknownTotalCap = 0.4

// AptUpdateTracker tracks `apt update` (package-list refresh) output.
// Every Hit:/Get: repo line advances an asymptotic estimator.
type AptUpdateTracker struct {
	rules          []rule
	seenRepos      int
	estimatedRepos int
	lastProgress   float64
	done           bool
}

// NewAptUpdateTracker creates a tracker for one `apt update` run.
func NewAptUpdateTracker() *AptUpdateTracker {
	t := &AptUpdateTracker{
		estimatedRepos: defaultEstimatedRepos,
	}

	t.rules = []rule{
		{regexp.MustCompile(`^(Hit|Get):(\d+)\s`), t.handleRepoLine},
		{regexp.MustCompile(`^Reading package lists`), t.handleReading},
	}

	return t
}

// ParseLine consumes one line of apt update output.
func (t *AptUpdateTracker) ParseLine(line string) *domain.ProgressEvent {
	if t.done {
		return nil
	}

	return dispatch(t.rules, line)
}

func (t *AptUpdateTracker) handleRepoLine(_ string, groups []string) *domain.ProgressEvent {
	t.seenRepos++

	denominator := max(t.estimatedRepos, t.seenRepos+2)
	progress := math.Min(checkingProgressCap, float64(t.seenRepos)/float64(denominator))

	if progress <= t.lastProgress {
		return nil
	}

	t.lastProgress = progress

	message := "Fetching package lists"
	if groups[1] == "Hit" {
		message = "Syncing package sources"
	}

	return &domain.ProgressEvent{
		Phase:          domain.PhaseChecking,
		Progress:       progress,
		CompletedItems: t.seenRepos,
		Message:        message,
	}
}

func (t *AptUpdateTracker) handleReading(_ string, _ []string) *domain.ProgressEvent {
	// Reading package lists comes last; report the current estimate with a
	// clearer message but do not advance.
	return &domain.ProgressEvent{
		Phase:          domain.PhaseChecking,
		Progress:       t.lastProgress,
		CompletedItems: t.seenRepos,
		Message:        "Checking for upgrades",
	}
}

// AptUpgradeTracker tracks `apt-get full-upgrade` output across the
// download and install phases. Downloads map to [0,0.5] of the tracker's
// local scale and installs to [0.5,1.0]; callers rescale the whole thing
// into the run's global timeline.
type AptUpgradeTracker struct {
	rules            []rule
	totalPackages    int
	downloadCount    int
	installCount     int
	unpackCount      int
	pendingDownloads []string
	currentPackage   string
	lastProgress     float64
	usingCache       bool
	upToDate         bool
	done             bool
}

// NewAptUpgradeTracker creates a tracker for one upgrade run.
func NewAptUpgradeTracker() *AptUpgradeTracker {
	t := &AptUpgradeTracker{}

	t.rules = []rule{
		{regexp.MustCompile(`(?i)up to date`), t.handleUpToDate},
		{regexp.MustCompile(`(\d+)\s+upgraded`), t.handleSummary},
		{regexp.MustCompile(`^Get:(\d+)\s+(.+)$`), t.handleGet},
		{regexp.MustCompile(`Unpacking\s+(\S+)`), t.handleUnpacking},
		{regexp.MustCompile(`Setting up\s+(\S+)(?:\s+\(([^)]+)\))?`), t.handleSettingUp},
		{regexp.MustCompile(`Processing triggers for\s+(\S+)`), t.handleTriggers},
	}

	return t
}

// ParseLine consumes one line of apt-get output.
func (t *AptUpgradeTracker) ParseLine(line string) *domain.ProgressEvent {
	if t.done {
		return nil
	}

	return dispatch(t.rules, line)
}

// IsUpToDate reports whether the run short-circuited because the system
// had nothing to upgrade.
func (t *AptUpgradeTracker) IsUpToDate() bool {
	return t.upToDate
}

// advance records progress if it exceeds the last reported value.
func (t *AptUpgradeTracker) advance(progress float64) bool {
	if progress <= t.lastProgress {
		return false
	}

	t.lastProgress = progress

	return true
}

func (t *AptUpgradeTracker) handleUpToDate(_ string, _ []string) *domain.ProgressEvent {
	t.upToDate = true
	t.done = true

	return &domain.ProgressEvent{
		Phase:    domain.PhaseComplete,
		Progress: 1.0,
		Message:  "Already up to date",
	}
}

func (t *AptUpgradeTracker) handleSummary(_ string, groups []string) *domain.ProgressEvent {
	total, err := strconv.Atoi(groups[1])
	if err != nil || total <= 0 {
		return nil
	}

	t.totalPackages = total

	// Downloads may have streamed past before the summary arrived; correct
	// the conservative estimate now that the denominator is known.
	if len(t.pendingDownloads) == 0 || t.downloadCount == 0 {
		return nil
	}

	progress := math.Min(float64(t.downloadCount)/float64(total), 1.0) * 0.5
	if !t.advance(progress) {
		return nil
	}

	return &domain.ProgressEvent{
		Phase:          domain.PhaseDownloading,
		Progress:       progress,
		TotalItems:     total,
		CompletedItems: t.downloadCount,
		CurrentItem:    t.currentPackage,
	}
}

func (t *AptUpgradeTracker) handleGet(_ string, groups []string) *domain.ProgressEvent {
	index, err := strconv.Atoi(groups[1])
	if err != nil {
		return nil
	}

	// The index is authoritative. A repeated or out-of-order line computes
	// a lower value and falls to the monotonic guard; counting it as a new
	// download would overreport.
	t.downloadCount = index

	if name := aptGetPackageName(groups[2]); name != "" {
		t.currentPackage = name
	}

	if t.totalPackages > 0 {
		progress := float64(t.downloadCount) / float64(t.totalPackages) * 0.5
		if !t.advance(progress) {
			return nil
		}

		return &domain.ProgressEvent{
			Phase:          domain.PhaseDownloading,
			Progress:       progress,
			TotalItems:     t.totalPackages,
			CompletedItems: t.downloadCount,
			CurrentItem:    t.currentPackage,
		}
	}

	// Total unknown: buffer the package and report a capped estimate that
	// grows with the observed count but never reaches the phase boundary.
	t.pendingDownloads = append(t.pendingDownloads, t.currentPackage)

	denominator := max(t.downloadCount+2, len(t.pendingDownloads)+2)
	progress := math.Min(unknownTotalCap, float64(t.downloadCount)/float64(denominator))

	if !t.advance(progress) {
		return nil
	}

	return &domain.ProgressEvent{
		Phase:          domain.PhaseDownloading,
		Progress:       progress,
		CompletedItems: t.downloadCount,
		CurrentItem:    t.currentPackage,
	}
}

func (t *AptUpgradeTracker) handleUnpacking(_ string, groups []string) *domain.ProgressEvent {
	t.currentPackage = stringutil.StripArch(groups[1])
	t.unpackCount++

	if t.unpackCount == 1 && t.downloadCount == 0 {
		// No Get: lines at all means the packages were already in the local
		// cache; the unpack sequence stands in for the download half.
		t.usingCache = true
		t.lastProgress = 0
	}

	if !t.usingCache {
		return nil
	}

	var progress float64
	if t.totalPackages > 0 {
		progress = float64(t.unpackCount) / float64(t.totalPackages) * 0.5
	} else {
		progress = math.Min(unknownTotalCap, float64(t.unpackCount)/float64(t.unpackCount+2))
	}

	if !t.advance(progress) {
		return nil
	}

	return &domain.ProgressEvent{
		Phase:          domain.PhaseInstalling,
		Progress:       progress,
		TotalItems:     t.totalPackages,
		CompletedItems: t.unpackCount,
		CurrentItem:    t.currentPackage,
		Message:        "Installing from package cache",
	}
}

func (t *AptUpgradeTracker) handleSettingUp(_ string, groups []string) *domain.ProgressEvent {
	t.installCount++
	t.currentPackage = stringutil.StripArch(groups[1])

	var progress float64
	if t.totalPackages > 0 {
		progress = 0.5 + float64(t.installCount)/float64(t.totalPackages)*0.5
	} else {
		denominator := max(t.installCount+2, t.unpackCount+2)
		progress = 0.5 + float64(t.installCount)/float64(denominator)*0.5
	}

	if !t.advance(progress) {
		return nil
	}

	return &domain.ProgressEvent{
		Phase:          domain.PhaseInstalling,
		Progress:       progress,
		TotalItems:     t.totalPackages,
		CompletedItems: t.installCount,
		CurrentItem:    t.currentPackage,
	}
}

func (t *AptUpgradeTracker) handleTriggers(_ string, groups []string) *domain.ProgressEvent {
	t.currentPackage = stringutil.StripArch(groups[1])

	progress := 0.95 + float64(t.installCount)/float64(max(t.totalPackages, 1))*0.05
	if progress <= t.lastProgress || progress > 1.0 {
		return nil
	}

	t.lastProgress = progress

	return &domain.ProgressEvent{
		Phase:          domain.PhaseInstalling,
		Progress:       math.Min(progress, 0.99),
		TotalItems:     t.totalPackages,
		CompletedItems: t.installCount,
		CurrentItem:    t.currentPackage,
		Message:        "Processing triggers",
	}
}
