// Package buildinfo carries the version stamped into the finanzas binary.
package buildinfo

import "fmt"

// Set via -ldflags "-X github.com/finanzas-dev/finanzas/internal/buildinfo.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String renders the version line shown by finanzas --version.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}
