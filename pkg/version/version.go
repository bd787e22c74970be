// Package version holds build-time version information, set via ldflags.
package version

var (
	// Version is the semantic version of this build.
	Version = "unknown"
	// GitCommit is the commit hash this build was produced from.
	GitCommit = "unknown"
)
