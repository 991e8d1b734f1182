// Package version reports build information for the tabstat binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

const (
	unknownValue     = "unknown"
	commitHashLength = 7
)

// Build-time variables set by ldflags
var (
	Version   = "dev"
	BuildDate = unknownValue
	GitCommit = unknownValue
	GoVersion = runtime.Version()
)

// BuildInfo contains build information
type BuildInfo struct {
	Version   string   `json:"version"`
	BuildDate string   `json:"build_date"`
	GitCommit string   `json:"git_commit"`
	GoVersion string   `json:"go_version"`
	Platform  string   `json:"platform"`
	Dirty     bool     `json:"dirty"`
	Module    string   `json:"module,omitempty"`
	Deps      []string `json:"deps,omitempty"`
}

// Info returns the build information of the running binary.
func Info() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		BuildDate: BuildDate,
		GitCommit: GitCommit,
		GoVersion: GoVersion,
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		Dirty:     strings.HasSuffix(GitCommit, "-dirty"),
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		info.Module = bi.Main.Path
		for _, dep := range bi.Deps {
			info.Deps = append(info.Deps, dep.Path+"@"+dep.Version)
		}
		// go build stamps VCS data even without ldflags
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.GitCommit == unknownValue {
					info.GitCommit = s.Value
				}
			case "vcs.modified":
				info.Dirty = info.Dirty || s.Value == "true"
			}
		}
	}

	return info
}

// Short returns the version with the abbreviated commit, e.g. "1.2.0 (a1b2c3d)".
func (b BuildInfo) Short() string {
	if b.GitCommit == unknownValue {
		return b.Version
	}
	commit := b.GitCommit
	if len(commit) > commitHashLength {
		commit = commit[:commitHashLength]
	}
	if b.Dirty {
		commit += ", dirty"
	}
	return fmt.Sprintf("%s (%s)", b.Version, commit)
}

// String returns a multi-line description for the version command.
func (b BuildInfo) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "tabstat %s\n", b.Short())
	if b.BuildDate != unknownValue {
		fmt.Fprintf(&sb, "Build Date: %s\n", b.BuildDate)
	}
	fmt.Fprintf(&sb, "Go Version: %s\n", b.GoVersion)
	fmt.Fprintf(&sb, "Platform: %s\n", b.Platform)
	if !IsRelease() {
		sb.WriteString("Development build\n")
	}
	return sb.String()
}

// IsRelease returns true if this is a release version (not dev or a pre-release)
func IsRelease() bool {
	return Version != "dev" && !strings.Contains(Version, "-")
}
