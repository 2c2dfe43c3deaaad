// SPDX-FileCopyrightText: 2025 The Sysup Authors
// SPDX-License-Identifier: EUPL-1.2

package selfupdate

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ChecksumManifestName is the release asset holding the SHA-256 sums.
const ChecksumManifestName = "SHA256SUMS.txt"

// ParseChecksums parses "<hex>  <filename>" manifest lines into a
// filename-to-hash map. Blank lines and # comments are skipped.
func ParseChecksums(content string) map[string]string {
	checksums := make(map[string]string)

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) == 2 {
			checksums[fields[1]] = strings.ToLower(fields[0])
		}
	}

	return checksums
}

// ComputeSHA256 returns the lowercase hex SHA-256 digest of a file.
func ComputeSHA256(path string) (string, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}

	defer func() {
		_ = file.Close()
	}()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}

// VerifyFile checks a file against an expected SHA-256 hash.
func VerifyFile(path, expected string) error {
	actual, err := ComputeSHA256(path)
	if err != nil {
		return err
	}

	if actual != strings.ToLower(expected) {
		return fmt.Errorf("checksum mismatch for %s: expected %s, got %s", filepath.Base(path), expected, actual)
	}

	return nil
}
