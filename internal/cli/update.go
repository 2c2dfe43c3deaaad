// SPDX-FileCopyrightText: 2025 The Sysup Authors
// SPDX-License-Identifier: EUPL-1.2

package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/janderssonse/sysup/internal/adapters/platform"
	"github.com/janderssonse/sysup/internal/console"
	"github.com/janderssonse/sysup/internal/domain"
	"github.com/janderssonse/sysup/internal/logging"
	"github.com/janderssonse/sysup/internal/report"
	"github.com/janderssonse/sysup/internal/tui"
	"github.com/janderssonse/sysup/internal/updaters"
)

// eventBuffer sizes the TUI message channel so backend sinks never block
// on the render loop.
const eventBuffer = 256

func (app *CLI) createUpdateCommand() *cli.Command {
	return &cli.Command{
		Name:  "update",
		Usage: "Run updates on all available package managers",
		Description: `Updates every available backend concurrently. On a terminal a live
progress screen is shown; when piped or with --plain the output is
machine-parseable lines followed by a summary.

Examples:
  sysup update                        # All available backends
  sysup update --backends apt,flatpak # Restrict the run
  sysup update --dry-run              # Show what would run`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "backends",
				Aliases: []string{"b"},
				Usage:   "comma-separated list of backends to run (default: all available)",
			},
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"n"},
				Usage:   "report what would be updated without changing anything",
			},
		},
		Action: app.runUpdate,
	}
}

func (app *CLI) runUpdate(ctx context.Context, cmd *cli.Command) error {
	cfg, err := app.loadConfig()
	if err != nil {
		return err
	}

	dryRun := cmd.Bool("dry-run") || cfg.DryRun
	runner := platform.NewCommandRunner(dryRun)

	logDir := cfg.LogDir
	if logDir == "" {
		logDir = logging.DefaultDir()
	}

	registry := updaters.NewRegistry(runner, logDir)

	requested := parseBackends(cmd.String("backends"), cfg.Backends)

	selected, err := registry.Select(requested)
	if err != nil {
		return NewExitError(ExitUsageError, err.Error(), nil)
	}

	backends := availableOf(ctx, selected)
	for _, missing := range missingOf(ctx, selected) {
		console.DefaultOutput.Warningf("%s is not available on this system, skipping", missing)
	}

	if len(backends) == 0 {
		return NewExitError(ExitGeneralError, "no requested backend is available on this system", nil)
	}

	var results []updaters.BackendResult

	aborted := false

	if app.plain || !console.DefaultOutput.IsTTY(os.Stdout.Fd()) {
		results = app.runPlainUpdate(ctx, backends, dryRun)
	} else {
		results, aborted, err = app.runTUIUpdate(ctx, backends, dryRun)
		if err != nil {
			return NewExitError(ExitGeneralError, "progress screen failed", err)
		}
	}

	app.printSummary(results)

	return updateExitCode(results, aborted)
}

// runTUIUpdate drives the run through the live progress screen. The
// backends fan out on their own goroutine and feed the screen over a
// buffered channel; the final DoneMsg carries the joined results.
func (app *CLI) runTUIUpdate(ctx context.Context, backends []domain.Updater, dryRun bool) ([]updaters.BackendResult, bool, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	msgs := make(chan tea.Msg, eventBuffer)
	names := backendNames(backends)
	model := tui.NewModel(names, msgs, cancel)

	go func() {
		results := updaters.RunAll(ctx, backends, func(backend string, event domain.ProgressEvent) {
			msgs <- tui.EventMsg{Backend: backend, Event: event}
		}, dryRun)

		msgs <- tui.DoneMsg{Results: results}
	}()

	// No tea.WithContext here: cancelling must not kill the screen, it
	// keeps rendering until the backends drain and send DoneMsg.
	final, err := tea.NewProgram(model).Run()
	if err != nil {
		return nil, false, err
	}

	finished, ok := final.(*tui.Model)
	if !ok {
		return nil, false, nil
	}

	return finished.Results(), finished.Aborted(), nil
}

// runPlainUpdate drives the run without a TUI, printing one status line
// per phase transition or ten-percent step.
func (app *CLI) runPlainUpdate(ctx context.Context, backends []domain.Updater, dryRun bool) []updaters.BackendResult {
	printer := newPlainPrinter()

	return updaters.RunAll(ctx, backends, printer.sink, dryRun)
}

func (app *CLI) printSummary(results []updaters.BackendResult) {
	if app.plain || !console.DefaultOutput.IsTTY(os.Stdout.Fd()) {
		fmt.Fprint(os.Stdout, report.RenderPlain(results))

		return
	}

	fmt.Fprint(os.Stdout, report.Render(results))
}

// plainPrinter dedupes progress events down to readable status lines.
// Backends report concurrently, so state is guarded.
type plainPrinter struct {
	mu      sync.Mutex
	phase   map[string]domain.Phase
	percent map[string]int
}

func newPlainPrinter() *plainPrinter {
	return &plainPrinter{
		phase:   make(map[string]domain.Phase),
		percent: make(map[string]int),
	}
}

func (p *plainPrinter) sink(backend string, event domain.ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	percent := int(event.Progress * 100)
	phaseChanged := p.phase[backend] != event.Phase
	stepReached := percent >= p.percent[backend]+10 || percent == 100

	if !phaseChanged && !stepReached {
		return
	}

	p.phase[backend] = event.Phase
	p.percent[backend] = percent

	console.DefaultOutput.PlainStatus(backend, fmt.Sprintf("%s:%d%%", event.Phase, percent))
}

// parseBackends merges the command line flag with the configured
// backends; the flag wins when both are set.
func parseBackends(flag string, configured []string) []string {
	if flag == "" {
		return configured
	}

	parts := strings.Split(flag, ",")
	names := make([]string, 0, len(parts))

	for _, part := range parts {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}

	return names
}

func availableOf(ctx context.Context, backends []domain.Updater) []domain.Updater {
	available := make([]domain.Updater, 0, len(backends))

	for _, backend := range backends {
		if backend.CheckAvailable(ctx) {
			available = append(available, backend)
		}
	}

	return available
}

func missingOf(ctx context.Context, backends []domain.Updater) []string {
	var missing []string

	for _, backend := range backends {
		if !backend.CheckAvailable(ctx) {
			missing = append(missing, backend.Name())
		}
	}

	return missing
}

func backendNames(backends []domain.Updater) []string {
	names := make([]string, len(backends))
	for i, backend := range backends {
		names[i] = backend.Name()
	}

	return names
}

// updateExitCode maps the joined results onto an exit code. A cancelled
// run always reports the interrupt, even when some backends finished.
func updateExitCode(results []updaters.BackendResult, aborted bool) error {
	if aborted {
		return NewExitError(ExitInterruptError, "update run cancelled", nil)
	}

	failures := 0

	for _, result := range results {
		if !result.Result.Success {
			failures++
		}
	}

	switch {
	case failures == 0:
		return nil
	case failures == len(results):
		return NewExitError(ExitUpdateError, "all backends failed to update", nil)
	default:
		return NewExitError(ExitWarnings, fmt.Sprintf("%d of %d backends failed to update", failures, len(results)), nil)
	}
}
