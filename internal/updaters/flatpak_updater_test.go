// SPDX-FileCopyrightText: 2025 The Sysup Authors
// SPDX-License-Identifier: EUPL-1.2

package updaters

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janderssonse/sysup/internal/domain"
	"github.com/janderssonse/sysup/internal/testutil"
)

func TestFlatpakUpdaterCheckUpdates(t *testing.T) {
	t.Parallel()

	runner := testutil.NewFakeRunner()
	runner.SetOutput("flatpak remote-ls --updates", `Firefox	org.mozilla.firefox	stable
Freedesktop Platform	org.freedesktop.Platform	23.08
Spotify	com.spotify.Client	stable
`)

	updater := NewFlatpakUpdater(runner, NewAvailabilityCache(), t.TempDir())

	packages, err := updater.CheckUpdates(context.Background())
	require.NoError(t, err)

	// The Platform runtime row is filtered out.
	require.Len(t, packages, 2)
	assert.Equal(t, "firefox", packages[0].Name)
	assert.Equal(t, "Client", packages[1].Name)
}

func TestFlatpakUpdaterRunUpdateSuccess(t *testing.T) {
	t.Parallel()

	runner := testutil.NewFakeRunner()
	runner.SetOutput("flatpak update -y --noninteractive", `   1.	org.mozilla.firefox	stable	85.2 MB
Downloading org.mozilla.firefox 50 %
Updating org.mozilla.firefox
Installation complete. 1 app installed
`)

	updater := NewFlatpakUpdater(runner, NewAvailabilityCache(), t.TempDir())

	var events []domain.ProgressEvent

	result := updater.RunUpdate(context.Background(), func(e domain.ProgressEvent) {
		events = append(events, e)
	}, false)

	require.True(t, result.Success)
	require.Len(t, result.Packages, 1)
	assert.Equal(t, "firefox", result.Packages[0].Name)
	assert.Equal(t, "stable", result.Packages[0].NewVersion)

	require.NotEmpty(t, events)

	// Download and install events are scaled above the checking range.
	for _, event := range events[:len(events)-1] {
		assert.GreaterOrEqual(t, event.Progress, 0.1)
		assert.LessOrEqual(t, event.Progress, 1.0)
	}

	last := events[len(events)-1]
	assert.Equal(t, domain.PhaseComplete, last.Phase)
	assert.InDelta(t, 1.0, last.Progress, 1e-9)
}

func TestFlatpakUpdaterRunUpdateNothingToDo(t *testing.T) {
	t.Parallel()

	runner := testutil.NewFakeRunner()
	runner.SetOutput("flatpak update -y --noninteractive", "Looking for updates...\nNothing to do.\n")

	updater := NewFlatpakUpdater(runner, NewAvailabilityCache(), t.TempDir())

	result := updater.RunUpdate(context.Background(), nil, false)
	require.True(t, result.Success)
	assert.Empty(t, result.Packages)
}

func TestFlatpakUpdaterRunUpdateFailure(t *testing.T) {
	t.Parallel()

	runner := testutil.NewFakeRunner()
	runner.SetOutput("flatpak update -y --noninteractive", "error: Unable to connect to system bus\n")
	runner.SetError("flatpak update -y --noninteractive", errors.New("exit status 1"))

	updater := NewFlatpakUpdater(runner, NewAvailabilityCache(), t.TempDir())

	result := updater.RunUpdate(context.Background(), nil, false)
	require.False(t, result.Success)
	assert.Contains(t, result.ErrorMessage, "Unable to connect")
}
