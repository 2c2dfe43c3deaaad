// SPDX-FileCopyrightText: 2025 The Sysup Authors
// SPDX-License-Identifier: EUPL-1.2

// Package domain defines the progress event model shared by all backends.
package domain

import "time"

// Phase represents one stage of an update run. The ordering matters for
// progress purposes: Idle < Checking < Downloading < Installing, with
// Complete and Error terminal. A backend may skip Downloading entirely
// when packages install from a local cache.
type Phase int

// Update run phases.
const (
	PhaseIdle Phase = iota
	PhaseChecking
	PhaseDownloading
	PhaseInstalling
	PhaseComplete
	PhaseError
)

// String returns the lowercase phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseChecking:
		return "checking"
	case PhaseDownloading:
		return "downloading"
	case PhaseInstalling:
		return "installing"
	case PhaseComplete:
		return "complete"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// Terminal reports whether the phase ends an update run.
func (p Phase) Terminal() bool {
	return p == PhaseComplete || p == PhaseError
}

// ProgressEvent is emitted by a tracker for each output line that carries
// new progress information. Progress is a fraction in [0,1] within the
// tracker's own scope; callers remap it into the overall run's timeline
// with a ScaledSink. Speed, ETA and Message are optional and empty when
// not applicable.
type ProgressEvent struct {
	Phase          Phase
	Progress       float64
	TotalItems     int // 0 = unknown
	CompletedItems int
	CurrentItem    string
	Speed          string
	ETA            string
	Message        string
}

// ProgressSink receives progress events. Sinks must be fast and must not
// block: trackers call them synchronously on the line-reading path.
type ProgressSink func(ProgressEvent)

// PackageStatus describes where a package is in its transition.
type PackageStatus string

// Package transition states.
const (
	StatusPending     PackageStatus = "pending"
	StatusDownloading PackageStatus = "downloading"
	StatusInstalling  PackageStatus = "installing"
	StatusComplete    PackageStatus = "complete"
	StatusError       PackageStatus = "error"
)

// Package represents one concluded package transition.
type Package struct {
	Name       string
	OldVersion string
	NewVersion string
	Size       string
	Status     PackageStatus
}

// String renders the transition for logs and reports.
func (p Package) String() string {
	if p.OldVersion != "" && p.NewVersion != "" {
		return p.Name + ": " + p.OldVersion + " -> " + p.NewVersion
	}

	return p.Name
}

// UpdateResult is the terminal record for one backend's update run.
type UpdateResult struct {
	Success      bool
	Packages     []Package
	ErrorMessage string
	StartTime    time.Time
	EndTime      time.Time
}

// Duration returns the elapsed wall time of the run.
func (r UpdateResult) Duration() time.Duration {
	if r.EndTime.IsZero() {
		return 0
	}

	return r.EndTime.Sub(r.StartTime)
}
