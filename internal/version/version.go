// Package version provides build-time version information.
package version

import "fmt"

// These variables are set at build time using -ldflags
var (
	// Version is the semantic version
	Version = "0.1.0"

	// BuildTime is the UTC time when the binary was built
	BuildTime = "unknown"

	// GitCommit is the git commit hash
	GitCommit = "unknown"
)

// String returns the version with build details, as shown by --version.
func String() string {
	if GitCommit == "unknown" && BuildTime == "unknown" {
		return Version
	}
	return fmt.Sprintf("%s (%s, built %s)", Version, GitCommit, BuildTime)
}

// Banner names app with its semantic version, e.g. "Flow Canvas v0.1.0".
// Build details are left to String.
func Banner(app string) string {
	return fmt.Sprintf("%s v%s", app, Version)
}
