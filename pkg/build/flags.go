// SPDX-License-Identifier: MIT
//
// Package build carries metadata embedded into the binary at compile time
// via linker flags: application name, build timestamp, Git commit hash and
// semantic version. Used for the CLI version string and startup logging.
package build

import "fmt"

type ldFlags struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// Package-level variables populated by -ldflags during compilation.
// During development they stay empty and Initialize falls back to
// placeholder values.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = &ldFlags{
		Name:        "spectrum",
		Description: "Real-time audio spectrum visualizer",
		Time:        "unknown",
		Commit:      "unknown",
		Version:     "dev",
	}
)

// Initialize copies build information from the ldflags variables into the
// buildFlags struct. Call once early in program startup. Missing flags are
// not fatal; the development placeholders remain.
func Initialize() error {
	if buildName != "" {
		buildFlags.Name = buildName
	}
	if buildTime != "" {
		buildFlags.Time = buildTime
	}
	if buildCommit != "" {
		buildFlags.Commit = buildCommit
	}
	if buildVersion != "" {
		buildFlags.Version = buildVersion
	}
	return nil
}

// GetBuildFlags returns the current build information. Initialize() should
// be called before this function.
func GetBuildFlags() *ldFlags {
	return buildFlags
}

// String returns a one-line human-readable build description.
func (f *ldFlags) String() string {
	return fmt.Sprintf("%s %s (%s, built %s)", f.Name, f.Version, f.Commit, f.Time)
}
