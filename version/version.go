package version

import (
	"runtime/debug"
	"strings"
)

// ModulePath is the import path of the engine module.
const ModulePath = "github.com/kbukum/flowkit"

// Set at build time with -ldflags.
var (
	Version   = "dev"
	GitCommit = ""
)

// Info describes the running engine build.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	GoVersion string `json:"go_version,omitempty"`
	Dirty     bool   `json:"dirty,omitempty"`
}

// IsRelease reports whether the build carries a clean release version.
func (i Info) IsRelease() bool {
	return i.Version != "dev" && i.Version != "(devel)" && !i.Dirty &&
		!strings.Contains(i.Version, "dirty")
}

// String returns the version with the short commit, if known.
func (i Info) String() string {
	parts := []string{i.Version}
	if i.GitCommit != "" {
		parts = append(parts, i.GitCommit)
	}
	if i.Dirty {
		parts = append(parts, "dirty")
	}
	return strings.Join(parts, "-")
}

// Get returns the engine build information.
func Get() Info {
	bi, _ := debug.ReadBuildInfo()
	return fromBuildInfo(bi)
}

// String is shorthand for Get().String().
func String() string { return Get().String() }

func fromBuildInfo(bi *debug.BuildInfo) Info {
	info := Info{Version: Version, GitCommit: GitCommit}
	if bi == nil {
		return info
	}
	info.GoVersion = bi.GoVersion

	if info.Version == "dev" {
		for _, dep := range bi.Deps {
			if dep.Path == ModulePath && dep.Version != "" {
				info.Version = dep.Version
			}
		}
	}
	if bi.Main.Path != ModulePath {
		return info
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "" {
				info.GitCommit = s.Value[:min(7, len(s.Value))]
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		}
	}
	return info
}
