package app

import "fmt"

// Build metadata, set with -ldflags:
//
//	go build -ldflags "-X github.com/heartmarshall/cfp-sync/internal/app.Version=1.2.0" ./cmd/cfp-import
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// BuildVersion returns the version line printed by --version and startup logs.
func BuildVersion() string {
	return fmt.Sprintf("cfp-sync %s (commit %s, built %s)", Version, Commit, BuildTime)
}
