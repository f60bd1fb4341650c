// Package version provides version information.
package version

import (
	"runtime"
	"runtime/debug"
)

// Version is set at build time via -ldflags "-X github.com/pwvkpno/pwvkpno/internal/version.Version=<value>"
var Version = "v0.1.0-dev"

// Info describes the running binary.
type Info struct {
	Version  string
	Revision string
	Modified bool
	Go       string
}

// Current returns Version plus the VCS details stamped by the Go toolchain,
// when present.
func Current() Info {
	info := Info{Version: Version, Go: runtime.Version()}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Revision = s.Value
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

// String formats the info on one line.
func (i Info) String() string {
	s := "pwvkpno " + i.Version
	if i.Revision != "" {
		rev := i.Revision
		if len(rev) > 12 {
			rev = rev[:12]
		}
		s += " (" + rev
		if i.Modified {
			s += "-dirty"
		}
		s += ")"
	}
	return s + " " + i.Go
}
