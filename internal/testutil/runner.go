// SPDX-FileCopyrightText: 2025 The Sysup Authors
// SPDX-License-Identifier: EUPL-1.2

// Package testutil provides shared test doubles.
package testutil

import (
	"context"
	"strings"
	"sync"
)

// FakeRunner implements the domain CommandRunner port for tests. Output
// and errors are keyed by the full command line ("name arg1 arg2 ...").
type FakeRunner struct {
	mu sync.Mutex

	outputs  map[string]string
	errors   map[string]error
	missing  map[string]bool
	executed []string
}

// NewFakeRunner creates an empty fake runner.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{
		outputs: make(map[string]string),
		errors:  make(map[string]error),
		missing: make(map[string]bool),
	}
}

// SetOutput scripts the output for a full command line.
func (f *FakeRunner) SetOutput(command, output string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.outputs[command] = output
}

// SetError scripts an error for a full command line.
func (f *FakeRunner) SetError(command string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.errors[command] = err
}

// SetMissing marks a command name as not installed.
func (f *FakeRunner) SetMissing(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.missing[name] = true
}

// Executed returns the full command lines run so far.
func (f *FakeRunner) Executed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.executed...)
}

// Execute records the command and returns any scripted error.
func (f *FakeRunner) Execute(_ context.Context, name string, args ...string) error {
	key := f.record(name, args)

	f.mu.Lock()
	defer f.mu.Unlock()

	return f.errors[key]
}

// ExecuteWithOutput records the command and returns scripted output.
func (f *FakeRunner) ExecuteWithOutput(_ context.Context, name string, args ...string) (string, error) {
	key := f.record(name, args)

	f.mu.Lock()
	defer f.mu.Unlock()

	return f.outputs[key], f.errors[key]
}

// StreamLines records the command and feeds the scripted output to
// onLine one line at a time, preserving order.
func (f *FakeRunner) StreamLines(ctx context.Context, onLine func(string), _ []string, name string, args ...string) error {
	key := f.record(name, args)

	f.mu.Lock()
	output := f.outputs[key]
	err := f.errors[key]
	f.mu.Unlock()

	for _, line := range strings.Split(output, "\n") {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if line != "" {
			onLine(line)
		}
	}

	if err != nil {
		return err
	}

	return ctx.Err()
}

// CommandExists reports scripted availability, defaulting to installed.
func (f *FakeRunner) CommandExists(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return !f.missing[name]
}

func (f *FakeRunner) record(name string, args []string) string {
	key := name
	if len(args) > 0 {
		key += " " + strings.Join(args, " ")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.executed = append(f.executed, key)

	return key
}
