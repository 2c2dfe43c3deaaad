// SPDX-FileCopyrightText: 2025 The Sysup Authors
// SPDX-License-Identifier: EUPL-1.2

package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janderssonse/sysup/internal/domain"
)

func TestSnapTrackerRefreshRun(t *testing.T) {
	t.Parallel()

	tracker := NewSnapTracker([]string{"firefox", "spotify"})

	event := tracker.ParseLine("firefox 45 %")
	require.NotNil(t, event)
	assert.Equal(t, domain.PhaseDownloading, event.Phase)
	assert.InDelta(t, 0.45/2.0, event.Progress, 1e-9)
	assert.Equal(t, "firefox", event.CurrentItem)

	event = tracker.ParseLine("firefox (stable) 128.0 from Mozilla refreshed")
	require.NotNil(t, event)
	assert.Equal(t, domain.PhaseInstalling, event.Phase)
	assert.InDelta(t, 0.5, event.Progress, 1e-9)
	assert.Equal(t, 1, event.CompletedItems)

	event = tracker.ParseLine("spotify 80 %")
	require.NotNil(t, event)
	assert.Equal(t, domain.PhaseDownloading, event.Phase)
	assert.InDelta(t, (1.0+0.8)/2.0, event.Progress, 1e-9)
	assert.Equal(t, "spotify", event.CurrentItem)

	event = tracker.ParseLine("spotify (stable) 1.2.31 from Spotify refreshed")
	require.NotNil(t, event)
	assert.InDelta(t, 1.0, event.Progress, 1e-9)
	assert.Equal(t, 2, event.CompletedItems)
}

func TestSnapTrackerUpToDate(t *testing.T) {
	t.Parallel()

	tracker := NewSnapTracker(nil)

	event := tracker.ParseLine("All snaps up to date.")
	require.NotNil(t, event)
	assert.Equal(t, domain.PhaseComplete, event.Phase)
	assert.InDelta(t, 1.0, event.Progress, 1e-9)
	assert.True(t, tracker.IsUpToDate())
	assert.Nil(t, tracker.ParseLine("firefox 50 %"))
}

func TestSnapTrackerSkipsSystemSnaps(t *testing.T) {
	t.Parallel()

	tracker := NewSnapTracker([]string{"firefox"})

	assert.Nil(t, tracker.ParseLine("snapd (latest/stable) 2.63 from Canonical refreshed"))
	assert.Nil(t, tracker.ParseLine("gtk-common-themes (latest/stable) 0.1 from Canonical refreshed"))
	assert.Equal(t, 0, tracker.completed)
}

func TestSnapTrackerPercentKeepsLastAppName(t *testing.T) {
	t.Parallel()

	tracker := NewSnapTracker([]string{"firefox"})

	require.NotNil(t, tracker.ParseLine("firefox 20 %"))

	// A bare percentage with only a system snap name keeps the previous
	// user-visible app as the current item.
	event := tracker.ParseLine("core22 35 %")
	require.NotNil(t, event)
	assert.Equal(t, "firefox", event.CurrentItem)
}

func TestSnapTrackerRejectsOverflowPercent(t *testing.T) {
	t.Parallel()

	tracker := NewSnapTracker([]string{"firefox"})

	assert.Nil(t, tracker.ParseLine("firefox 250 %"))
}
