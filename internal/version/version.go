// Package version reports the netmgr build version.
package version

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// Set at link time:
//
//	go build -ldflags="-X github.com/muurk/netmgr/internal/version.Version=v0.3.0 \
//	                   -X github.com/muurk/netmgr/internal/version.Commit=abc1234"
//
// Unset values fall back to the module's build info.
var (
	Version = ""
	Commit  = ""
)

func init() {
	if info, ok := debug.ReadBuildInfo(); ok {
		fill(info)
	}
	if Version == "" {
		Version = "dev"
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

// fill takes missing values from the main module version and VCS stamps
func fill(info *debug.BuildInfo) {
	if Version == "" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}
	if Commit != "" {
		return
	}

	var revision string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if revision == "" {
		return
	}
	if len(revision) > 7 {
		revision = revision[:7]
	}
	if dirty {
		revision += "-dirty"
	}
	Commit = revision
}

// Full returns the version with its commit
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

// Short returns the version without a leading "v", as advertised over mDNS
func Short() string {
	return strings.TrimPrefix(Version, "v")
}
