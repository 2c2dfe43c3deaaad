// SPDX-FileCopyrightText: 2025 The Sysup Authors
// SPDX-License-Identifier: EUPL-1.2

// Package platform provides the adapters that touch the real system:
// command execution and file downloads.
package platform

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// CommandRunner implements the domain CommandRunner port against real
// system commands.
type CommandRunner struct {
	dryRun bool
}

// NewCommandRunner creates a new command runner.
func NewCommandRunner(dryRun bool) *CommandRunner {
	return &CommandRunner{dryRun: dryRun}
}

// Execute runs a command and waits for it to finish.
func (r *CommandRunner) Execute(ctx context.Context, name string, args ...string) error {
	if r.dryRun {
		return nil
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = os.Environ()

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}

	return nil
}

// ExecuteWithOutput runs a command and returns its combined output.
// Non-zero exits still return the captured output so callers can inspect
// tools that signal "updates pending" through their exit code.
func (r *CommandRunner) ExecuteWithOutput(ctx context.Context, name string, args ...string) (string, error) {
	if r.dryRun {
		return "", nil
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = os.Environ()

	output, err := cmd.CombinedOutput()
	if err != nil {
		return string(output), fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}

	return string(output), nil
}

// StreamLines runs a command and feeds each output line, in arrival
// order, to onLine. Stdout and stderr share a single pipe so interleaved
// output keeps its order. Lines are split on both newline and carriage
// return because package managers repaint progress with bare \r.
func (r *CommandRunner) StreamLines(ctx context.Context, onLine func(string), env []string, name string, args ...string) error {
	if r.dryRun {
		return nil
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), env...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}

	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scanner.Split(scanLinesAndReturns)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line != "" {
			onLine(line)
		}
	}

	if err := scanner.Err(); err != nil {
		_ = cmd.Wait()

		return fmt.Errorf("read output of %s: %w", name, err)
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		return fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}

	return nil
}

// CommandExists checks if a command is available on the system.
func (r *CommandRunner) CommandExists(name string) bool {
	_, err := exec.LookPath(name)

	return err == nil
}

// scanLinesAndReturns is a bufio.SplitFunc that treats both \n and \r as
// line terminators, so carriage-return progress repaints become separate
// lines.
func scanLinesAndReturns(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}

	if atEOF {
		return len(data), data, nil
	}

	return 0, nil, nil
}
