// SPDX-FileCopyrightText: 2025 The Sysup Authors
// SPDX-License-Identifier: EUPL-1.2

package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janderssonse/sysup/internal/domain"
)

func TestFlatpakTrackerListingSkipsRuntimes(t *testing.T) {
	t.Parallel()

	tracker := NewFlatpakTracker()

	require.Nil(t, tracker.ParseLine("   1.     org.mozilla.firefox    stable   x86_64   85 MB"))
	require.Nil(t, tracker.ParseLine("   2.     org.freedesktop.Platform.GL.default   23.08   x86_64   120 MB"))
	require.Nil(t, tracker.ParseLine("   3.     org.mozilla.firefox.Locale   stable   x86_64   2 MB"))
	require.Nil(t, tracker.ParseLine("   4.     com.spotify.Client   stable   x86_64   180 MB"))

	assert.Equal(t, 2, tracker.totalApps)
}

func TestFlatpakTrackerDownloadAndInstall(t *testing.T) {
	t.Parallel()

	tracker := NewFlatpakTracker()

	require.Nil(t, tracker.ParseLine("   1.     org.mozilla.firefox    stable   x86_64   85 MB"))
	require.Nil(t, tracker.ParseLine("   2.     com.spotify.Client   stable   x86_64   180 MB"))

	event := tracker.ParseLine("Downloading org.mozilla.firefox 42 %")
	require.NotNil(t, event)
	assert.Equal(t, domain.PhaseDownloading, event.Phase)
	assert.InDelta(t, 0.42/2.0, event.Progress, 1e-9)
	assert.Equal(t, "firefox", event.CurrentItem)

	event = tracker.ParseLine("Updating org.mozilla.firefox")
	require.NotNil(t, event)
	assert.Equal(t, domain.PhaseInstalling, event.Phase)
	assert.InDelta(t, 0.25, event.Progress, 1e-9)

	event = tracker.ParseLine("Installation complete. 1 app installed")
	require.NotNil(t, event)
	assert.Equal(t, domain.PhaseInstalling, event.Phase)
	assert.InDelta(t, 0.5, event.Progress, 1e-9)
	assert.Equal(t, 1, event.CompletedItems)
}

func TestFlatpakTrackerNothingToDo(t *testing.T) {
	t.Parallel()

	tracker := NewFlatpakTracker()

	event := tracker.ParseLine("Nothing to do.")
	require.NotNil(t, event)
	assert.Equal(t, domain.PhaseComplete, event.Phase)
	assert.InDelta(t, 1.0, event.Progress, 1e-9)
	assert.True(t, tracker.IsUpToDate())
	assert.Nil(t, tracker.ParseLine("Updating org.mozilla.firefox"))
}

func TestFlatpakTrackerActionSkipsRuntimeRefs(t *testing.T) {
	t.Parallel()

	tracker := NewFlatpakTracker()

	require.Nil(t, tracker.ParseLine("   1.     org.mozilla.firefox    stable   x86_64   85 MB"))

	assert.Nil(t, tracker.ParseLine("Updating org.freedesktop.Platform.GL.default"))
	assert.Nil(t, tracker.ParseLine("Installing org.gnome.Sdk"))
}

func TestFlatpakTrackerPercentWithoutListing(t *testing.T) {
	t.Parallel()

	tracker := NewFlatpakTracker()

	// With no listing the raw percentage maps directly onto [0,1].
	event := tracker.ParseLine("Fetching com.spotify.Client 30 %")
	require.NotNil(t, event)
	assert.InDelta(t, 0.30, event.Progress, 1e-9)
	assert.Equal(t, "Client", event.CurrentItem)
}

func TestFlatpakTrackerMonotonicPercent(t *testing.T) {
	t.Parallel()

	tracker := NewFlatpakTracker()

	require.NotNil(t, tracker.ParseLine("Downloading org.mozilla.firefox 60 %"))

	// Percent output repaints and can appear to move backwards; those
	// lines are suppressed.
	assert.Nil(t, tracker.ParseLine("Downloading org.mozilla.firefox 40 %"))
}
