// Package version holds the build version, set with
// -ldflags "-X kgraph/internal/version.Version=...".
package version

var Version = "dev"
