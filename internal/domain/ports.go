// SPDX-FileCopyrightText: 2025 The Sysup Authors
// SPDX-License-Identifier: EUPL-1.2

package domain

import "context"

// Updater defines the interface each package-manager backend implements.
// Implementations own exactly one tracker per run and are not safe for
// concurrent use; the orchestrator gives every backend its own instance.
type Updater interface {
	// Name returns the human-readable backend name.
	Name() string

	// CheckAvailable reports whether the backend's tool exists on this system.
	CheckAvailable(ctx context.Context) bool

	// CheckUpdates lists pending updates without installing anything.
	CheckUpdates(ctx context.Context) ([]Package, error)

	// RunUpdate performs the update, reporting progress through sink.
	RunUpdate(ctx context.Context, sink ProgressSink, dryRun bool) UpdateResult
}

// CommandRunner defines the interface for executing system commands.
type CommandRunner interface {
	// Execute runs a command and waits for it to finish.
	Execute(ctx context.Context, name string, args ...string) error

	// ExecuteWithOutput runs a command and returns its combined output.
	ExecuteWithOutput(ctx context.Context, name string, args ...string) (string, error)

	// StreamLines runs a command and feeds each output line, in arrival
	// order, to onLine. Stdout and stderr are merged. Extra environment
	// entries are appended to the inherited environment.
	StreamLines(ctx context.Context, onLine func(string), env []string, name string, args ...string) error

	// CommandExists checks if a command is available on the system.
	CommandExists(name string) bool
}

// NetworkClient defines the interface for network operations.
type NetworkClient interface {
	// DownloadFile downloads a URL to destPath, reporting received and
	// total byte counts through onProgress (total is 0 when unknown).
	DownloadFile(ctx context.Context, url, destPath string, onProgress func(received, total int64)) error
}
