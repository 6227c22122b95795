// Package version exposes build information injected through -ldflags.
package version

//nolint:gochecknoglobals // Values are overridden at link time with -ldflags "-X".
var (
	// Version is the semantic version of the build.
	Version = "0.2.0"
	// Commit is the git commit the binary was built from.
	Commit = "none"
	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)

// Short returns the bare version string.
func Short() string {
	return Version
}

// Full returns the version together with commit and build time.
func Full() string {
	return "version: " + Version + ", commit: " + Commit + ", built at: " + BuildTime
}
