// SPDX-FileCopyrightText: 2025 The Sysup Authors
// SPDX-License-Identifier: EUPL-1.2

// Package progress implements the per-backend line trackers that turn raw
// package-manager output into normalized progress events.
//
// A tracker is constructed fresh for each update run, fed every output
// line in arrival order, and discarded afterwards. Trackers are stateful
// and not safe for concurrent use. Lines that carry no new information,
// or that would move progress backwards, yield nil: the trackers are
// best-effort heuristic parsers over unstructured text and never fail on
// unrecognized input.
package progress

import (
	"regexp"

	"github.com/janderssonse/sysup/internal/domain"
)

// Tracker converts raw output lines into progress events. ParseLine
// returns nil when the line carries no actionable progress information.
// Once a tracker has emitted PhaseComplete it ignores all further input.
type Tracker interface {
	ParseLine(line string) *domain.ProgressEvent
}

// rule pairs a compiled line pattern with its handler. Each tracker keeps
// an ordered rule list evaluated first-match-wins, so overlapping
// patterns resolve deterministically.
type rule struct {
	pattern *regexp.Regexp
	handle  func(line string, groups []string) *domain.ProgressEvent
}

// dispatch runs the first matching rule against line.
func dispatch(rules []rule, line string) *domain.ProgressEvent {
	for _, r := range rules {
		if groups := r.pattern.FindStringSubmatch(line); groups != nil {
			return r.handle(line, groups)
		}
	}

	return nil
}
