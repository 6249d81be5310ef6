// Package version carries build metadata injected with -ldflags.
package version

// Name identifies the service in health checks, logs and alerts.
const Name = "card-show-finder-edge"

var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Full returns the version with commit and build time when both are known.
func Full() string {
	if BuildTime == "unknown" || GitCommit == "unknown" {
		return Version
	}
	return Version + " (commit: " + GitCommit + ", built: " + BuildTime + ")"
}

// Info is the build metadata as reported by the health endpoint.
func Info() map[string]string {
	return map[string]string{
		"service":    Name,
		"version":    Version,
		"git_commit": GitCommit,
		"build_time": BuildTime,
	}
}
