// SPDX-FileCopyrightText: 2025 The Sysup Authors
// SPDX-License-Identifier: EUPL-1.2

// Package stringutil provides string utility functions for Sysup.
package stringutil

import "strings"

// ContainsAny checks if text contains any of the provided substrings.
func ContainsAny(text string, substrings []string) bool {
	for _, substr := range substrings {
		if strings.Contains(text, substr) {
			return true
		}
	}

	return false
}

// StripArch removes an architecture suffix like ":amd64" from a package name.
func StripArch(name string) string {
	if idx := strings.IndexByte(name, ':'); idx >= 0 {
		return name[:idx]
	}

	return name
}

// RefDisplayName extracts a readable name from a reverse-DNS application
// ref such as "org.mozilla.Firefox" (the last dot-separated segment).
func RefDisplayName(ref string) string {
	ref = strings.TrimRight(ref, ".")
	if idx := strings.LastIndexByte(ref, '.'); idx >= 0 {
		return ref[idx+1:]
	}

	return ref
}
