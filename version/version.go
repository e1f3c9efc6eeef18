// Package version reports how the running binary was built.
package version

import (
	"errors"
	"fmt"
	"runtime/debug"
)

var ErrNoBuildInfo = errors.New("fetching build info failed")

// BuildInfo returns the build information
func BuildInfo() (*debug.BuildInfo, error) {
	bi, ok := debug.ReadBuildInfo()
	if !ok || bi == nil {
		return nil, ErrNoBuildInfo
	}
	return bi, nil
}

// Info is a short summary of the build.
type Info struct {
	Path      string `json:"path"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"` //nolint:tagliatelle
	Revision  string `json:"revision,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
}

// Summary condenses the build information of the binary.
func Summary() (Info, error) {
	bi, err := BuildInfo()
	if err != nil {
		return Info{}, err
	}
	return summarize(bi), nil
}

func summarize(bi *debug.BuildInfo) Info {
	info := Info{
		Path:      bi.Main.Path,
		Version:   bi.Main.Version,
		GoVersion: bi.GoVersion,
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

func (i Info) String() string {
	s := fmt.Sprintf("%s %s (%s)", i.Path, i.Version, i.GoVersion)
	if i.Revision != "" {
		s += " " + i.Revision
		if i.Modified {
			s += "+dirty"
		}
	}
	return s
}
