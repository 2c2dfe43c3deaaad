// SPDX-FileCopyrightText: 2025 The Sysup Authors
// SPDX-License-Identifier: EUPL-1.2

package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"

	"github.com/janderssonse/sysup/internal/adapters/platform"
	"github.com/janderssonse/sysup/internal/console"
	"github.com/janderssonse/sysup/internal/selfupdate"
)

func (app *CLI) createSelfUpdateCommand() *cli.Command {
	return &cli.Command{
		Name:  "self-update",
		Usage: "Update sysup to the latest release",
		Description: `Fetches the latest GitHub release, verifies its checksum and replaces
the running binary. A backup of the old binary is kept until the swap
succeeds.

Examples:
  sysup self-update               # Update in place
  sysup self-update --check-only  # Only report whether an update exists`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "check-only",
				Usage: "check for a newer release without installing it",
			},
		},
		Action: app.runSelfUpdate,
	}
}

func (app *CLI) runSelfUpdate(ctx context.Context, cmd *cli.Command) error {
	cfg, err := app.loadConfig()
	if err != nil {
		return err
	}

	updater := selfupdate.New(
		cfg.SelfUpdateRepo,
		selfupdate.NewClient(),
		platform.NewNetworkAdapter(),
		platform.NewCommandRunner(false),
	)

	check, err := updater.CheckForUpdate(ctx, app.version)
	if err != nil {
		return NewExitError(ExitNetworkError, "failed to check for updates", err)
	}

	if !check.UpdateAvailable {
		if app.plain {
			console.DefaultOutput.PlainStatus("self-update", "up-to-date:"+check.CurrentVersion)
		} else {
			console.DefaultOutput.Successf("sysup %s is already the latest version", check.CurrentVersion)
		}

		return nil
	}

	if cmd.Bool("check-only") {
		if app.plain {
			console.DefaultOutput.PlainStatus("self-update", fmt.Sprintf("available:%s->%s", check.CurrentVersion, check.LatestVersion))
		} else {
			fmt.Fprintf(os.Stdout, "Update available: %s -> %s\n", check.CurrentVersion, check.LatestVersion)
			fmt.Fprintf(os.Stdout, "Run 'sysup self-update' to install it.\n")
		}

		return nil
	}

	if err := updater.PerformUpdate(ctx, check.Release, app.selfUpdateProgress()); err != nil {
		return NewExitError(ExitSelfUpdateError, "self-update failed", err)
	}

	if app.plain {
		console.DefaultOutput.PlainStatus("self-update", "updated:"+check.LatestVersion)
	} else {
		console.DefaultOutput.Successf("sysup updated to %s", check.LatestVersion)
	}

	return nil
}

// selfUpdateProgress returns the progress callback for the update flow:
// a terminal bar on a TTY, sparse status lines otherwise.
func (app *CLI) selfUpdateProgress() func(message string, fraction float64) {
	if app.plain || !console.DefaultOutput.IsTTY(os.Stderr.Fd()) {
		lastStep := -1

		return func(message string, fraction float64) {
			// The download reports every chunk; ten-percent steps keep
			// the output bounded.
			step := int(fraction * 10)
			if step == lastStep {
				return
			}

			lastStep = step
			console.DefaultOutput.PlainStatus("self-update", fmt.Sprintf("%s:%d%%", message, int(fraction*100)))
		}
	}

	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Checking for updates"),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionClearOnFinish(),
	)

	return func(message string, fraction float64) {
		bar.Describe(message)
		_ = bar.Set(int(fraction * 100))
	}
}
