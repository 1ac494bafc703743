// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package version resolves the running binary's version string.
package version

import (
	"crypto/sha256"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	// Version is the base semantic version. Populated by the build system
	// (ldflags) or falls back to the value below.
	Version = "0.1.0"

	// Commit is the git short hash of the build.
	Commit = "unknown"

	// Date is the build timestamp.
	Date = "unknown"
)

// BuildID computes the spec's `build4` value: SHA-256 over (path, content)
// of README.md plus every .go source file under root, truncated to 32
// bits mod 10000, zero-padded to 4 digits. Returns ("", err) if root
// cannot be walked (e.g. running from a stripped binary with no source
// tree available) so callers can fall back to Version alone.
func BuildID(root string) (string, error) {
	var seeds []string

	readme := filepath.Join(root, "README.md")
	if _, err := os.Stat(readme); err == nil {
		seeds = append(seeds, readme)
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			switch d.Name() {
			case "_examples", ".git", "vendor":
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(path, ".go") {
			seeds = append(seeds, path)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("walk source tree: %w", err)
	}
	if len(seeds) == 0 {
		return "", fmt.Errorf("no seed files found under %s", root)
	}

	sort.Strings(seeds)

	digest := sha256.New()
	for _, path := range seeds {
		content, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
		digest.Write([]byte(path))
		digest.Write(content)
	}

	sum := digest.Sum(nil)
	buildNum := (uint32(sum[0])<<24 | uint32(sum[1])<<16 | uint32(sum[2])<<8 | uint32(sum[3])) % 10000
	return fmt.Sprintf("%04d", buildNum), nil
}

// AppVersion returns "<base>.<build4>", or just base if the build id
// cannot be computed (e.g. source tree unavailable at runtime).
func AppVersion(root string) string {
	build, err := BuildID(root)
	if err != nil {
		return Version
	}
	return Version + "." + build
}
