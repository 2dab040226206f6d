// Package version holds build information, set by ldflags.
package version

// Version is the build version string.
// Format: vX.Y.Z or vX.Y.Z-dev for development builds.
var Version = "v0.3.0-dev"

// BuildTime is the build timestamp.
var BuildTime = "unknown"
