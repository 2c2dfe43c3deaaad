// SPDX-FileCopyrightText: 2025 The Sysup Authors
// SPDX-License-Identifier: EUPL-1.2

package domain

import "errors"

// Common domain errors.
var (
	// ErrBackendUnavailable indicates the backend's tool is not installed.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrNoOutput indicates a subprocess produced no usable output.
	ErrNoOutput = errors.New("no output from command")
	// ErrRunCancelled indicates the update run was cancelled or timed out.
	ErrRunCancelled = errors.New("update run cancelled")
	// ErrUpdateFailed indicates the underlying tool exited unsuccessfully.
	ErrUpdateFailed = errors.New("update failed")
)
