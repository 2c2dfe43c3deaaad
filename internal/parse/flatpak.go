// SPDX-FileCopyrightText: 2025 The Sysup Authors
// SPDX-License-Identifier: EUPL-1.2

package parse

import (
	"regexp"
	"strings"

	"github.com/janderssonse/sysup/internal/domain"
	"github.com/janderssonse/sysup/internal/progress"
	"github.com/janderssonse/sysup/internal/stringutil"
)

var (
	flatpakNumberedPattern = regexp.MustCompile(`^\s*\d+\.\s+(\S+)\s+(\S+)(?:\s+(\S+))?`)
	flatpakActionPattern   = regexp.MustCompile(`(?:Updating|Installing)\s+(\S+)`)
)

// FlatpakOutput extracts the updated applications from complete flatpak
// output.
//
// Numbered listing lines carry ref, branch and size; "Updating <ref>" and
// "Installing <ref>" action lines add entries without version info when
// the ref was not already listed. Runtime, locale and extension refs are
// filtered with the same patterns the live tracker uses. Records are
// keyed by full ref, deduplicated preserving first-seen order, and named
// by the ref's display name.
func FlatpakOutput(output string) []domain.Package {
	var (
		packages []domain.Package
		index    = make(map[string]int)
	)

	for _, line := range strings.Split(output, "\n") {
		if stringutil.ContainsAny(line, progress.FlatpakSkipPatterns) {
			continue
		}

		if groups := flatpakNumberedPattern.FindStringSubmatch(line); groups != nil {
			ref := groups[1]

			pkg := domain.Package{
				Name:       stringutil.RefDisplayName(ref),
				NewVersion: groups[2],
				Size:       groups[3],
				Status:     domain.StatusComplete,
			}

			if pos, seen := index[ref]; seen {
				packages[pos] = pkg
			} else {
				index[ref] = len(packages)
				packages = append(packages, pkg)
			}

			continue
		}

		if groups := flatpakActionPattern.FindStringSubmatch(line); groups != nil {
			ref := groups[1]
			if _, seen := index[ref]; seen {
				continue
			}

			index[ref] = len(packages)
			packages = append(packages, domain.Package{
				Name:   stringutil.RefDisplayName(ref),
				Status: domain.StatusComplete,
			})
		}
	}

	return packages
}
