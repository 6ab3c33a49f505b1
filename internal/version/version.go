// Package version carries the tool version stamped into builds.
package version

// Version is the foco version string. Release builds override it via
// -ldflags "-X github.com/lawrns/foco/internal/version.Version=...".
var Version = "dev"
