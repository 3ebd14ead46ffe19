// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"os"
	"runtime"

	"github.com/bureau-foundation/formparse/lib/digest"
)

// These variables are set via -ldflags at build time, for example:
//
//	go build -ldflags "-X github.com/bureau-foundation/formparse/lib/version.GitCommit=$(git rev-parse --short HEAD)"
var (
	// GitCommit is the short git SHA of the build.
	GitCommit = "unknown"

	// GitDirty indicates whether there were uncommitted changes.
	GitDirty = "false"

	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"

	// Version is the semantic version. This is set manually for releases.
	Version = "0.1.0-dev"
)

// Info returns a formatted version string suitable for --version output.
func Info() string {
	dirty := ""
	if GitDirty == "true" {
		dirty = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", Version, GitCommit, dirty, BuildTime)
}

// Full returns detailed version information including Go version.
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Report is the machine-readable form of the build information.
type Report struct {
	Version   string        `json:"version"`
	Commit    string        `json:"commit"`
	Dirty     bool          `json:"dirty"`
	BuildTime string        `json:"build_time"`
	Go        string        `json:"go"`
	Platform  string        `json:"platform"`
	Binary    string        `json:"binary,omitempty"`
	Digest    digest.Digest `json:"digest,omitzero"`
}

// Current returns the build information of this binary.
func Current() Report {
	return Report{
		Version:   Version,
		Commit:    GitCommit,
		Dirty:     GitDirty == "true",
		BuildTime: BuildTime,
		Go:        runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// SelfDigest returns the digest and absolute path of the running
// binary. On Linux os.Executable reads /proc/self/exe, which names the
// original binary even if it has since been replaced on disk.
func SelfDigest() (digest.Digest, string, error) {
	executable, err := os.Executable()
	if err != nil {
		return digest.Digest{}, "", fmt.Errorf("resolving own executable path: %w", err)
	}
	sum, err := digest.SumFile(executable)
	if err != nil {
		return digest.Digest{}, "", err
	}
	return sum, executable, nil
}
