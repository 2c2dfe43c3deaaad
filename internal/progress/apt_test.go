// SPDX-FileCopyrightText: 2025 The Sysup Authors
// SPDX-License-Identifier: EUPL-1.2

package progress

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janderssonse/sysup/internal/domain"
)

func TestAptUpdateTrackerAsymptoticEstimate(t *testing.T) {
	t.Parallel()

	tracker := NewAptUpdateTracker()

	var last float64

	for i := 1; i <= 30; i++ {
		event := tracker.ParseLine(fmt.Sprintf("Hit:%d http://archive.ubuntu.com/ubuntu noble InRelease", i))
		if event == nil {
			continue
		}

		assert.Equal(t, domain.PhaseChecking, event.Phase)
		assert.Greater(t, event.Progress, last)
		assert.LessOrEqual(t, event.Progress, 0.95)

		last = event.Progress
	}

	// 30 repos seen: the estimator must still be below the cap.
	assert.Positive(t, last)
	assert.LessOrEqual(t, last, 0.95)
}

func TestAptUpdateTrackerIgnoresUnknownLines(t *testing.T) {
	t.Parallel()

	tracker := NewAptUpdateTracker()

	require.Nil(t, tracker.ParseLine("Building dependency tree..."))
	require.Nil(t, tracker.ParseLine(""))
	assert.Equal(t, 0, tracker.seenRepos)
}

func TestAptUpgradeTrackerTotalKnownUpfront(t *testing.T) {
	t.Parallel()

	tracker := NewAptUpgradeTracker()

	require.Nil(t, tracker.ParseLine("5 upgraded, 0 newly installed, 0 to remove and 0 not upgraded."))

	// Five downloads: progress climbs to exactly 0.5 at the fifth Get line.
	var event *domain.ProgressEvent
	for i := 1; i <= 5; i++ {
		event = tracker.ParseLine(fmt.Sprintf("Get:%d http://archive.ubuntu.com/ubuntu noble/main pkg%d 1.0 [10 kB]", i, i))
		require.NotNil(t, event)
		assert.Equal(t, domain.PhaseDownloading, event.Phase)
		assert.InDelta(t, float64(i)/5.0*0.5, event.Progress, 1e-9)
	}

	assert.InDelta(t, 0.5, event.Progress, 1e-9)

	// Five installs: progress reaches exactly 1.0 at the fifth Setting up.
	for i := 1; i <= 5; i++ {
		event = tracker.ParseLine(fmt.Sprintf("Setting up pkg%d (1.0) ...", i))
		require.NotNil(t, event)
		assert.Equal(t, domain.PhaseInstalling, event.Phase)
		assert.InDelta(t, 0.5+float64(i)/5.0*0.5, event.Progress, 1e-9)
	}

	assert.InDelta(t, 1.0, event.Progress, 1e-9)
	assert.Equal(t, 5, event.CompletedItems)
	assert.Equal(t, "pkg5", event.CurrentItem)
}

func TestAptUpgradeTrackerCacheOnlyInstall(t *testing.T) {
	t.Parallel()

	tracker := NewAptUpgradeTracker()

	require.Nil(t, tracker.ParseLine("3 upgraded, 0 newly installed, 0 to remove and 0 not upgraded."))

	// No Get: lines before the first Unpacking: cache mode, unpacks stand
	// in for the download half of the scale.
	var event *domain.ProgressEvent
	for i := 1; i <= 3; i++ {
		event = tracker.ParseLine(fmt.Sprintf("Unpacking pkg%d:amd64 (2.0) over (1.0) ...", i))
		require.NotNil(t, event)
		assert.Equal(t, domain.PhaseInstalling, event.Phase)
	}

	assert.InDelta(t, 0.5, event.Progress, 1e-9)
	assert.Equal(t, "pkg3", event.CurrentItem)
	assert.True(t, tracker.usingCache)
}

func TestAptUpgradeTrackerUpToDateShortCircuit(t *testing.T) {
	t.Parallel()

	tracker := NewAptUpgradeTracker()

	event := tracker.ParseLine("All packages are up to date.")
	require.NotNil(t, event)
	assert.Equal(t, domain.PhaseComplete, event.Phase)
	assert.InDelta(t, 1.0, event.Progress, 1e-9)
	assert.True(t, tracker.IsUpToDate())

	// Post-completion input is ignored entirely.
	assert.Nil(t, tracker.ParseLine("Get:1 http://archive.ubuntu.com/ubuntu noble/main pkg1 1.0 [10 kB]"))
	assert.Nil(t, tracker.ParseLine("Setting up pkg1 (1.0) ..."))
}

func TestAptUpgradeTrackerTotalKnownRecompute(t *testing.T) {
	t.Parallel()

	tracker := NewAptUpgradeTracker()

	// Downloads before the total is known get conservative capped estimates.
	var preCorrection float64

	for i := 1; i <= 3; i++ {
		event := tracker.ParseLine(fmt.Sprintf("Get:%d http://deb.debian.org/debian trixie/main pkg%d 1.0 [10 kB]", i, i))
		if event != nil {
			assert.LessOrEqual(t, event.Progress, 0.4)

			preCorrection = event.Progress
		}
	}

	// The late summary line reveals the total; the corrected value must be
	// strictly greater than the estimate.
	event := tracker.ParseLine("3 upgraded, 0 newly installed, 0 to remove and 0 not upgraded.")
	require.NotNil(t, event)
	assert.Equal(t, domain.PhaseDownloading, event.Phase)
	assert.InDelta(t, 0.5, event.Progress, 1e-9)
	assert.Greater(t, event.Progress, preCorrection)
	assert.Equal(t, 3, event.TotalItems)
}

func TestAptUpgradeTrackerMonotonicity(t *testing.T) {
	t.Parallel()

	tracker := NewAptUpgradeTracker()

	require.Nil(t, tracker.ParseLine("4 upgraded, 0 newly installed, 0 to remove and 0 not upgraded."))

	event := tracker.ParseLine("Get:2 http://archive.ubuntu.com/ubuntu noble/main pkg2 1.0 [10 kB]")
	require.NotNil(t, event)

	// A duplicate of an earlier index computes a lower value and must be
	// suppressed, not counted as a new download.
	assert.Nil(t, tracker.ParseLine("Get:1 http://archive.ubuntu.com/ubuntu noble/main pkg1 1.0 [10 kB]"))

	// The next real index picks up exactly where the stream is, proving
	// the duplicate did not inflate the count.
	event = tracker.ParseLine("Get:3 http://archive.ubuntu.com/ubuntu noble/main pkg3 1.0 [10 kB]")
	require.NotNil(t, event)
	assert.Equal(t, 3, event.CompletedItems)
	assert.InDelta(t, 3.0/4.0*0.5, event.Progress, 1e-9)
}

func TestAptUpgradeTrackerTriggersCappedNearTerminal(t *testing.T) {
	t.Parallel()

	tracker := NewAptUpgradeTracker()

	require.Nil(t, tracker.ParseLine("2 upgraded, 0 newly installed, 0 to remove and 0 not upgraded."))
	require.NotNil(t, tracker.ParseLine("Setting up pkg1:amd64 (1.0) ..."))

	event := tracker.ParseLine("Processing triggers for man-db (2.12.0-1) ...")
	require.NotNil(t, event)
	assert.Equal(t, domain.PhaseInstalling, event.Phase)
	assert.LessOrEqual(t, event.Progress, 0.99)
	assert.Equal(t, "man-db", event.CurrentItem)
}

func TestAptUpgradeTrackerStripsArchSuffix(t *testing.T) {
	t.Parallel()

	tracker := NewAptUpgradeTracker()

	require.Nil(t, tracker.ParseLine("1 upgraded, 0 newly installed, 0 to remove and 0 not upgraded."))

	event := tracker.ParseLine("Get:1 http://archive.ubuntu.com/ubuntu noble/main libc6:amd64 2.39 [3200 kB]")
	require.NotNil(t, event)
	assert.Equal(t, "libc6", event.CurrentItem)
}

func TestAptUpgradeTrackerGetLineWithArchColumn(t *testing.T) {
	t.Parallel()

	tracker := NewAptUpgradeTracker()

	require.Nil(t, tracker.ParseLine("2 upgraded, 0 newly installed, 0 to remove and 0 not upgraded."))

	// Full-form line with the architecture column between suite and
	// package: the package name is reported, never the suite.
	event := tracker.ParseLine("Get:1 http://archive.ubuntu.com/ubuntu jammy-updates/main amd64 libssl3 amd64 3.0.13-0ubuntu1 [1,234 kB]")
	require.NotNil(t, event)
	assert.Equal(t, "libssl3", event.CurrentItem)
	assert.InDelta(t, 0.25, event.Progress, 1e-9)
}

func TestAptGetPackageName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rest string
		want string
	}{
		{
			"arch column present",
			"http://archive.ubuntu.com/ubuntu jammy-updates/main amd64 libssl3 amd64 3.0.13-0ubuntu1 [1,234 kB]",
			"libssl3",
		},
		{
			"short form without arch column",
			"http://archive.ubuntu.com/ubuntu noble/main libc6:amd64 2.39 [3200 kB]",
			"libc6",
		},
		{
			"arch-independent package",
			"http://deb.debian.org/debian trixie/main all ca-certificates 20240203 [158 kB]",
			"ca-certificates",
		},
		{
			"too few fields",
			"http://archive.ubuntu.com/ubuntu noble",
			"",
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, testCase.want, aptGetPackageName(testCase.rest))
		})
	}
}

func TestAptUpgradeTrackerNoOpLineMutatesNothing(t *testing.T) {
	t.Parallel()

	tracker := NewAptUpgradeTracker()

	require.Nil(t, tracker.ParseLine("Reading state information..."))
	assert.Equal(t, 0, tracker.downloadCount)
	assert.Equal(t, 0, tracker.installCount)
	assert.InDelta(t, 0.0, tracker.lastProgress, 1e-9)
}
