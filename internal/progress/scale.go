// SPDX-FileCopyrightText: 2025 The Sysup Authors
// SPDX-License-Identifier: EUPL-1.2

package progress

import "github.com/janderssonse/sysup/internal/domain"

// ScaledSink remaps local [0,1] progress values into a caller-assigned
// sub-range of the overall run's timeline. Only events whose phase is in
// the eligible set are rescaled; everything else passes through
// unchanged. All other event fields are preserved as-is.
//
// An orchestrator composes e.g. checking = [0,0.1] followed by
// downloading+installing = [0.1,1.0] from trackers that each report their
// own independent [0,1] scale.
type ScaledSink struct {
	start  float64
	end    float64
	phases map[domain.Phase]struct{}
	inner  domain.ProgressSink
}

// NewScaledSink wraps inner so that progress for the given phases is
// remapped to [start,end]. With no phases given, every event is rescaled.
func NewScaledSink(inner domain.ProgressSink, start, end float64, phases ...domain.Phase) *ScaledSink {
	s := &ScaledSink{
		start: start,
		end:   end,
		inner: inner,
	}

	if len(phases) > 0 {
		s.phases = make(map[domain.Phase]struct{}, len(phases))
		for _, p := range phases {
			s.phases[p] = struct{}{}
		}
	}

	return s
}

// Report forwards the event, rescaling its progress when eligible.
func (s *ScaledSink) Report(event domain.ProgressEvent) {
	if s.inner == nil {
		return
	}

	if s.eligible(event.Phase) {
		event.Progress = s.start + event.Progress*(s.end-s.start)
	}

	s.inner(event)
}

// Sink returns Report as a plain ProgressSink.
func (s *ScaledSink) Sink() domain.ProgressSink {
	return s.Report
}

func (s *ScaledSink) eligible(phase domain.Phase) bool {
	if s.phases == nil {
		return true
	}

	_, ok := s.phases[phase]

	return ok
}
