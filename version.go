package knorry

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set with -ldflags "-X github.com/cabraviva/knorry.GitCommit=..." when the
// binary is not stamped with VCS data by the go command.
var (
	Version   = "v2.1.0"
	GitCommit string
	BuildDate string
)

// BuildInfo identifies the knorry build linked into the running binary.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
}

// ReadBuildInfo combines the linker-provided values with the VCS settings
// embedded by the go command. Missing fields read "unknown".
func ReadBuildInfo() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		Commit:    GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range bi.Settings {
			switch {
			case setting.Key == "vcs.revision" && info.Commit == "":
				info.Commit = setting.Value
			case setting.Key == "vcs.time" && info.BuildDate == "":
				info.BuildDate = setting.Value
			}
		}
	}
	if info.Commit == "" {
		info.Commit = "unknown"
	}
	if info.BuildDate == "" {
		info.BuildDate = "unknown"
	}
	return info
}

func (b BuildInfo) String() string {
	commit := b.Commit
	if len(commit) > 12 {
		commit = commit[:12]
	}
	return fmt.Sprintf("knorry %s (%s, %s, %s)", b.Version, commit, b.BuildDate, b.GoVersion)
}

// GetVersion returns the one-line version banner.
func GetVersion() string {
	return ReadBuildInfo().String()
}

// GetVersionInfo flattens ReadBuildInfo for log fields.
func GetVersionInfo() map[string]string {
	info := ReadBuildInfo()
	return map[string]string{
		"version":    info.Version,
		"commit":     info.Commit,
		"build_date": info.BuildDate,
		"go_version": info.GoVersion,
	}
}
