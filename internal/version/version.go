// Package version holds build metadata set through -ldflags.
package version

var (
	AppVersion = "dev"
	BuildTime  = "unknown"
	GitCommit  = "none"
)
