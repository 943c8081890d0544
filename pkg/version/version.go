// Package version holds the build metadata of the v8cov binary.
package version

import "runtime/debug"

// Build metadata, set with -ldflags "-X" at release time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// unknownCommit is the Commit value of a binary built without ldflags.
const unknownCommit = "none"

// InitBinaryVersion fills Commit from the VCS stamp of the build when it
// was not set with ldflags.
func InitBinaryVersion() {
	if Commit != unknownCommit {
		return
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			Commit = setting.Value
		case "vcs.time":
			Date = setting.Value
		}
	}
}

// String returns the one-line version banner.
func String() string {
	return "v8cov " + Version + " (commit: " + Commit + ", built: " + Date + ")"
}
