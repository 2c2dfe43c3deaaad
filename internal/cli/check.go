// SPDX-FileCopyrightText: 2025 The Sysup Authors
// SPDX-License-Identifier: EUPL-1.2

package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/janderssonse/sysup/internal/adapters/platform"
	"github.com/janderssonse/sysup/internal/console"
	"github.com/janderssonse/sysup/internal/logging"
	"github.com/janderssonse/sysup/internal/updaters"
)

func (app *CLI) createCheckCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "List pending updates without installing anything",
		Description: `Queries every available backend for pending updates. Nothing is
installed or changed.

Examples:
  sysup check                   # All available backends
  sysup check --backends apt    # Only apt
  sysup check --plain           # Machine-parseable output`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "backends",
				Aliases: []string{"b"},
				Usage:   "comma-separated list of backends to query (default: all available)",
			},
		},
		Action: app.runCheck,
	}
}

func (app *CLI) runCheck(ctx context.Context, cmd *cli.Command) error {
	cfg, err := app.loadConfig()
	if err != nil {
		return err
	}

	runner := platform.NewCommandRunner(false)

	logDir := cfg.LogDir
	if logDir == "" {
		logDir = logging.DefaultDir()
	}

	registry := updaters.NewRegistry(runner, logDir)

	selected, err := registry.Select(parseBackends(cmd.String("backends"), cfg.Backends))
	if err != nil {
		return NewExitError(ExitUsageError, err.Error(), nil)
	}

	backends := availableOf(ctx, selected)
	if len(backends) == 0 {
		return NewExitError(ExitGeneralError, "no requested backend is available on this system", nil)
	}

	plain := app.plain || !console.DefaultOutput.IsTTY(os.Stdout.Fd())
	checked := 0

	for _, backend := range backends {
		pending, err := backend.CheckUpdates(ctx)
		if err != nil {
			console.DefaultOutput.Warningf("%s: check failed: %v", backend.Name(), err)

			continue
		}

		checked++

		if plain {
			console.DefaultOutput.PlainStatus(backend.Name(), fmt.Sprintf("%d pending", len(pending)))

			for _, pkg := range pending {
				console.DefaultOutput.PlainStatus(backend.Name(), pkg.String())
			}

			continue
		}

		header := fmt.Sprintf("%s: %d pending", backend.Name(), len(pending))
		fmt.Fprintln(os.Stdout, console.DefaultOutput.Bold(header))

		for _, pkg := range pending {
			fmt.Fprintf(os.Stdout, "  %s\n", pkg.String())
		}
	}

	if checked == 0 {
		return NewExitError(ExitGeneralError, "every backend check failed", nil)
	}

	return nil
}
