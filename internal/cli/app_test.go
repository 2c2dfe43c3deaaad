// SPDX-FileCopyrightText: 2025 The Sysup Authors
// SPDX-License-Identifier: EUPL-1.2

package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janderssonse/sysup/internal/domain"
	"github.com/janderssonse/sysup/internal/updaters"
)

func TestNewCLIHasAllCommands(t *testing.T) {
	t.Parallel()

	app := NewCLI("1.2.3")

	names := make(map[string]bool)
	for _, cmd := range app.app.Commands {
		names[cmd.Name] = true
	}

	assert.True(t, names["update"])
	assert.True(t, names["check"])
	assert.True(t, names["self-update"])
	assert.True(t, names["version"])
}

func TestExitErrorMessage(t *testing.T) {
	t.Parallel()

	plain := NewExitError(ExitConfigError, "failed to load configuration", nil)
	assert.Equal(t, "failed to load configuration", plain.Error())

	wrapped := NewExitError(ExitNetworkError, "failed to check for updates", errors.New("connection refused"))
	assert.Equal(t, "failed to check for updates: connection refused", wrapped.Error())
	assert.Equal(t, ExitNetworkError, wrapped.Code)
}

func TestParseBackends(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		flag       string
		configured []string
		expected   []string
	}{
		{
			name:       "flag overrides config",
			flag:       "apt,snap",
			configured: []string{"flatpak"},
			expected:   []string{"apt", "snap"},
		},
		{
			name:       "empty flag falls back to config",
			flag:       "",
			configured: []string{"flatpak", "dnf"},
			expected:   []string{"flatpak", "dnf"},
		},
		{
			name:     "whitespace and empty entries are dropped",
			flag:     " apt , ,snap ",
			expected: []string{"apt", "snap"},
		},
		{
			name: "nothing set means all backends",
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, testCase.expected, parseBackends(testCase.flag, testCase.configured))
		})
	}
}

func TestUpdateExitCode(t *testing.T) {
	t.Parallel()

	ok := updaters.BackendResult{Backend: "apt", Result: domain.UpdateResult{Success: true}}
	bad := updaters.BackendResult{Backend: "snap", Result: domain.UpdateResult{Success: false}}

	assert.NoError(t, updateExitCode([]updaters.BackendResult{ok, ok}, false))

	partial := updateExitCode([]updaters.BackendResult{ok, bad}, false)
	require.Error(t, partial)

	exitErr := &ExitError{}
	require.ErrorAs(t, partial, &exitErr)
	assert.Equal(t, ExitWarnings, exitErr.Code)

	total := updateExitCode([]updaters.BackendResult{bad, bad}, false)
	require.ErrorAs(t, total, &exitErr)
	assert.Equal(t, ExitUpdateError, exitErr.Code)

	aborted := updateExitCode([]updaters.BackendResult{ok}, true)
	require.ErrorAs(t, aborted, &exitErr)
	assert.Equal(t, ExitInterruptError, exitErr.Code)
}

func TestPlainPrinterDedupes(t *testing.T) {
	t.Parallel()

	printer := newPlainPrinter()

	printer.sink("apt", domain.ProgressEvent{Phase: domain.PhaseDownloading, Progress: 0.05})
	assert.Equal(t, 5, printer.percent["apt"])

	// Small increments within the same phase do not move the recorded
	// step.
	printer.sink("apt", domain.ProgressEvent{Phase: domain.PhaseDownloading, Progress: 0.08})
	assert.Equal(t, 5, printer.percent["apt"])

	printer.sink("apt", domain.ProgressEvent{Phase: domain.PhaseDownloading, Progress: 0.2})
	assert.Equal(t, 20, printer.percent["apt"])

	printer.sink("apt", domain.ProgressEvent{Phase: domain.PhaseInstalling, Progress: 0.22})
	assert.Equal(t, domain.PhaseInstalling, printer.phase["apt"])
}
