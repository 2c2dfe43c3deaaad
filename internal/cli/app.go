// SPDX-FileCopyrightText: 2025 The Sysup Authors
// SPDX-License-Identifier: EUPL-1.2

// Package cli provides the command-line surface of sysup.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/janderssonse/sysup/internal/config"
	"github.com/janderssonse/sysup/internal/console"
)

// Exit codes follow standard Unix conventions for better scripting
// support. Range 0-125 is safe to use (126+ have special meaning in
// shells).
const (
	ExitSuccess         = 0  // Command completed successfully
	ExitGeneralError    = 1  // Generic failure (catch-all)
	ExitUsageError      = 2  // Invalid command line usage
	ExitConfigError     = 3  // Configuration file error
	ExitPermissionError = 4  // Permission denied, need sudo
	ExitNetworkError    = 11 // Download/network failures
	ExitSystemError     = 12 // Disk space, filesystem issues
	ExitInterruptError  = 14 // User interrupted (Ctrl+C or q)
	ExitUpdateError     = 20 // One or more backends failed
	ExitSelfUpdateError = 21 // Self-update failed
	ExitWarnings        = 64 // Completed with warnings
)

// ExitError carries a specific exit code for one failure mode.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

// NewExitError creates an ExitError with the specified code and message.
func NewExitError(code int, message string, err error) *ExitError {
	return &ExitError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

// CLI wires the commands, global flags and configuration together.
type CLI struct {
	app        *cli.Command
	version    string
	verbose    bool
	plain      bool
	configPath string
}

// NewCLI creates the sysup command tree. version is the build-time
// version string shown by the version command and compared during
// self-update.
func NewCLI(version string) *CLI {
	app := &CLI{version: version}

	app.app = &cli.Command{
		Name:    "sysup",
		Usage:   "Update every package manager on the system in one run",
		Version: version,
		Suggest: true,
		Description: `Runs apt, dnf, flatpak, snap and pacman updates concurrently with
live per-backend progress, then prints a joined summary.

Examples:
  sysup update                       # Update all available backends
  sysup update --backends apt,snap   # Only apt and snap
  sysup check                        # List pending updates, change nothing
  sysup self-update                  # Update sysup itself`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "verbose",
				Usage:       "show progress messages to stderr",
				Aliases:     []string{"v"},
				Destination: &app.verbose,
			},
			&cli.BoolFlag{
				Name:        "plain",
				Usage:       "machine-parseable output without styling or TUI",
				Destination: &app.plain,
			},
			&cli.StringFlag{
				Name:        "config",
				Usage:       "path to the config file",
				Aliases:     []string{"c"},
				Destination: &app.configPath,
			},
		},
		Before: func(ctx context.Context, _ *cli.Command) (context.Context, error) {
			console.DefaultOutput.SetMode(app.verbose, app.plain)

			return ctx, nil
		},
		Commands: []*cli.Command{
			app.createUpdateCommand(),
			app.createCheckCommand(),
			app.createSelfUpdateCommand(),
			app.createVersionCommand(),
		},
	}

	return app
}

// Run executes the CLI application.
func (app *CLI) Run(ctx context.Context, args []string) error {
	return app.app.Run(ctx, args)
}

// loadConfig reads the configured or default config file.
func (app *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(app.configPath)
	if err != nil {
		return nil, NewExitError(ExitConfigError, "failed to load configuration", err)
	}

	return cfg, nil
}

func (app *CLI) createVersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Action: func(_ context.Context, _ *cli.Command) error {
			fmt.Fprintf(os.Stdout, "sysup %s\n", app.version)

			return nil
		},
	}
}
