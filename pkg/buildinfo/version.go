// Package buildinfo exposes the nestflow binary's version, surfaced by
// `nestflow --version` and useful when triaging layout differences
// between engine revisions (no bit-exact reproducibility is promised
// across them).
//
// Variables are set via ldflags during build:
//
//	go build -ldflags "-X github.com/nestflow/nestflow/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/nestflow/nestflow/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/nestflow/nestflow/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package buildinfo

import "fmt"

var (
	// Version is the semantic version (e.g., "v1.2.3"); "dev" for
	// untagged local builds.
	Version = "dev"

	// Commit is the git commit SHA the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// String returns the formatted build information.
func String() string {
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s", Version, Commit, Date)
}

// Template returns the version template wired into the root cobra
// command.
func Template() string {
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
}
