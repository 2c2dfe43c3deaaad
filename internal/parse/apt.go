// SPDX-FileCopyrightText: 2025 The Sysup Authors
// SPDX-License-Identifier: EUPL-1.2

// Package parse implements the batch output parsers. They operate on the
// complete captured text of a finished run and extract the authoritative
// package-change list, independent of the live line trackers.
package parse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/janderssonse/sysup/internal/domain"
	"github.com/janderssonse/sysup/internal/stringutil"
)

var (
	aptUnpackPattern  = regexp.MustCompile(`Unpacking\s+(\S+)\s+\(([^)]+)\)\s+over\s+\(([^)]+)\)`)
	aptSetupPattern   = regexp.MustCompile(`Setting up\s+(\S+)\s+\(([^)]+)\)`)
	aptUpgradePattern = regexp.MustCompile(`(\d+)\s+upgraded`)
	aptSettingUpCount = regexp.MustCompile(`Setting up\s+\S+`)
)

// AptOutput extracts the upgraded packages from complete apt output.
//
// "Unpacking <pkg> (<new>) over (<old>)" lines carry both versions and are
// authoritative; "Setting up <pkg> (<version>)" lines fill in packages
// that were never unpacked but never overwrite an existing record.
// Packages are deduplicated by name with the architecture suffix
// stripped, preserving first-seen order.
func AptOutput(output string) []domain.Package {
	var (
		packages []domain.Package
		index    = make(map[string]int)
	)

	for _, line := range strings.Split(output, "\n") {
		if groups := aptUnpackPattern.FindStringSubmatch(line); groups != nil {
			name := stringutil.StripArch(groups[1])

			pkg := domain.Package{
				Name:       name,
				OldVersion: groups[3],
				NewVersion: groups[2],
				Status:     domain.StatusComplete,
			}

			if pos, seen := index[name]; seen {
				packages[pos] = pkg
			} else {
				index[name] = len(packages)
				packages = append(packages, pkg)
			}

			continue
		}

		if groups := aptSetupPattern.FindStringSubmatch(line); groups != nil {
			name := stringutil.StripArch(groups[1])
			if _, seen := index[name]; seen {
				continue
			}

			index[name] = len(packages)
			packages = append(packages, domain.Package{
				Name:       name,
				NewVersion: groups[2],
				Status:     domain.StatusComplete,
			})
		}
	}

	return packages
}

// CountAptUpgrades returns the number of packages apt reported as
// upgraded, falling back to counting "Setting up" lines when the summary
// line is absent. Up-to-date output counts as zero.
func CountAptUpgrades(output string) int {
	if groups := aptUpgradePattern.FindStringSubmatch(output); groups != nil {
		if count, err := strconv.Atoi(groups[1]); err == nil {
			return count
		}
	}

	if n := len(aptSettingUpCount.FindAllString(output, -1)); n > 0 {
		return n
	}

	return 0
}
