// Package buildinfo reports which flowplan build is running.
//
// Release builds stamp the variables with ldflags:
//
//	go build -ldflags "-X github.com/matzehuels/flowplan/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/matzehuels/flowplan/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/matzehuels/flowplan/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// Binaries built with "go install" carry no ldflags; for those the module
// version and VCS stamp recorded by the Go toolchain fill the gaps.
package buildinfo

import (
	"fmt"
	"runtime/debug"
	"sync"
)

// Set via ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info is the resolved build identity.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	Go      string `json:"go,omitempty"`
}

var (
	once     sync.Once
	resolved Info
)

// Get returns the ldflags values, completed from the embedded build
// information where they were left at their defaults.
func Get() Info {
	once.Do(func() {
		resolved = Info{Version: Version, Commit: Commit, Date: Date}
		if bi, ok := debug.ReadBuildInfo(); ok {
			resolved = fill(resolved, bi)
		}
	})
	return resolved
}

func fill(info Info, bi *debug.BuildInfo) Info {
	info.Go = bi.GoVersion
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch {
		case s.Key == "vcs.revision" && info.Commit == "none":
			info.Commit = s.Value
		case s.Key == "vcs.time" && info.Date == "unknown":
			info.Date = s.Value
		}
	}
	return info
}

func (i Info) String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", i.Version, short(i.Commit), i.Date)
}

// Template returns the cobra version template.
func Template() string {
	i := Get()
	return fmt.Sprintf("{{.Name}} %s\ncommit: %s\nbuilt:  %s\ngo:     %s\n", i.Version, i.Commit, i.Date, i.Go)
}

func short(commit string) string {
	if len(commit) > 12 {
		return commit[:12]
	}
	return commit
}
