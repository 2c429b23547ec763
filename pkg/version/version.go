// Package version reports the configguard build version.
package version

// These variables are set via ldflags during build:
//
//	-X github.com/carverauto/configguard/pkg/version.version=<tag>
//	-X github.com/carverauto/configguard/pkg/version.buildID=<commit>
//
//nolint:gochecknoglobals // These are intentionally global for ldflags injection
var (
	version = "dev"
	buildID = "dev"
)

// GetVersion returns the current version
func GetVersion() string {
	return version
}

// GetBuildID returns the current build ID
func GetBuildID() string {
	return buildID
}

// GetFullVersion returns version with build ID
func GetFullVersion() string {
	return version + " (build: " + buildID + ")"
}
