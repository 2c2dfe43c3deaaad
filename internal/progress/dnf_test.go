// SPDX-FileCopyrightText: 2025 The Sysup Authors
// SPDX-License-Identifier: EUPL-1.2

package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janderssonse/sysup/internal/domain"
)

func TestDnfTrackerFullRun(t *testing.T) {
	t.Parallel()

	tracker := NewDnfTracker()

	event := tracker.ParseLine("Downloading Packages:")
	require.NotNil(t, event)
	assert.Equal(t, domain.PhaseDownloading, event.Phase)
	assert.InDelta(t, 0.0, event.Progress, 1e-9)

	event = tracker.ParseLine("(1/2): kernel-core-6.8.1-1.fc40.x86_64.rpm   12 MB/s |  48 MB  100%")
	require.NotNil(t, event)
	assert.Equal(t, domain.PhaseDownloading, event.Phase)
	assert.InDelta(t, 0.25, event.Progress, 1e-9)
	assert.Equal(t, "kernel-core", event.CurrentItem)

	event = tracker.ParseLine("(2/2): vim-enhanced-9.1.0-1.fc40.x86_64.rpm  4 MB/s |  2 MB  100%")
	require.NotNil(t, event)
	assert.InDelta(t, 0.5, event.Progress, 1e-9)

	event = tracker.ParseLine("Running transaction")
	require.NotNil(t, event)
	assert.Equal(t, domain.PhaseInstalling, event.Phase)
	assert.InDelta(t, 0.5, event.Progress, 1e-9)

	event = tracker.ParseLine("  Upgrading        : kernel-core-6.8.1-1.fc40.x86_64          1/2")
	require.NotNil(t, event)
	assert.Equal(t, domain.PhaseInstalling, event.Phase)
	assert.InDelta(t, 0.75, event.Progress, 1e-9)
	assert.Equal(t, "kernel-core", event.CurrentItem)

	event = tracker.ParseLine("  Upgrading        : vim-enhanced-9.1.0-1.fc40.x86_64         2/2")
	require.NotNil(t, event)
	assert.InDelta(t, 1.0, event.Progress, 1e-9)

	event = tracker.ParseLine("Complete!")
	require.NotNil(t, event)
	assert.Equal(t, domain.PhaseComplete, event.Phase)
	assert.InDelta(t, 1.0, event.Progress, 1e-9)

	// Terminal: trailing output is ignored.
	assert.Nil(t, tracker.ParseLine("Running transaction"))
}

func TestDnfTrackerNothingToDo(t *testing.T) {
	t.Parallel()

	tracker := NewDnfTracker()

	event := tracker.ParseLine("Nothing to do.")
	require.NotNil(t, event)
	assert.Equal(t, domain.PhaseComplete, event.Phase)
	assert.InDelta(t, 1.0, event.Progress, 1e-9)
	assert.True(t, tracker.IsUpToDate())
}

func TestDnfTrackerUpgradedHeaderDoesNotAdvance(t *testing.T) {
	t.Parallel()

	tracker := NewDnfTracker()

	require.NotNil(t, tracker.ParseLine("Running transaction"))

	event := tracker.ParseLine("Upgraded:")
	require.NotNil(t, event)
	assert.Equal(t, domain.PhaseInstalling, event.Phase)
	assert.InDelta(t, 0.5, event.Progress, 1e-9)
	assert.Equal(t, "Verifying upgrades", event.Message)
}

func TestDnfTrackerTransactionFloorsAtHalf(t *testing.T) {
	t.Parallel()

	tracker := NewDnfTracker()

	// Only one of three downloads was observed before the transaction
	// marker; the marker still raises the floor to 0.5.
	event := tracker.ParseLine("(1/3): bash-5.2.26-1.fc40.x86_64.rpm  1 MB/s | 1 MB  100%")
	require.NotNil(t, event)
	assert.InDelta(t, 1.0/3.0*0.5, event.Progress, 1e-9)

	event = tracker.ParseLine("Running transaction")
	require.NotNil(t, event)
	assert.InDelta(t, 0.5, event.Progress, 1e-9)
}

func TestDnfTrackerIgnoresNoise(t *testing.T) {
	t.Parallel()

	tracker := NewDnfTracker()

	assert.Nil(t, tracker.ParseLine("Last metadata expiration check: 0:12:03 ago."))
	assert.Nil(t, tracker.ParseLine("Dependencies resolved."))
	assert.Nil(t, tracker.ParseLine(""))
}

func TestRpmBaseName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		file string
		want string
	}{
		{"rpm file", "kernel-core-6.8.1-1.fc40.x86_64.rpm", "kernel-core"},
		{"nevra", "vim-enhanced-9.1.0-1.fc40.x86_64", "vim-enhanced"},
		{"no version", "weirdname", "weirdname"},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, testCase.want, rpmBaseName(testCase.file))
		})
	}
}
