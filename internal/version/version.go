// Package version reports what build of finanzas is running.
package version

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// Set with -ldflags "-X finanzas/internal/version.Version=..."
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const Name = "finanzas"

// Info is served by /api/version and printed by the version command.
type Info struct {
	Version     string `json:"version"`
	BuildTime   string `json:"buildTime"`
	GoVersion   string `json:"goVersion"`
	VCSRevision string `json:"vcsRevision,omitempty"`
	VCSTime     string `json:"vcsTime,omitempty"`
	VCSModified bool   `json:"vcsModified"`
}

func Get() Info {
	info := Info{Version: Version, BuildTime: BuildTime}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = bi.GoVersion
	settings := make(map[string]string, len(bi.Settings))
	for _, s := range bi.Settings {
		settings[s.Key] = s.Value
	}
	info.VCSRevision = settings["vcs.revision"]
	info.VCSTime = settings["vcs.time"]
	info.VCSModified = settings["vcs.modified"] == "true"
	return info
}

// Short is the name, version and abbreviated commit, e.g. "finanzas 1.2.0 (3f9a1c2e)".
func (i Info) Short() string {
	if i.VCSRevision == "" {
		return Name + " " + i.Version
	}
	rev := i.VCSRevision
	if len(rev) > 8 {
		rev = rev[:8]
	}
	if i.VCSModified {
		rev += "+dirty"
	}
	return fmt.Sprintf("%s %s (%s)", Name, i.Version, rev)
}

func (i Info) String() string {
	lines := []string{i.Short()}
	if i.BuildTime != "unknown" {
		lines = append(lines, "built     "+i.BuildTime)
	}
	if i.VCSTime != "" {
		lines = append(lines, "committed "+i.VCSTime)
	}
	if i.GoVersion != "" {
		lines = append(lines, "go        "+i.GoVersion)
	}
	return strings.Join(lines, "\n")
}

// Check returns a warning for builds that cannot be traced to a commit, or "".
func (i Info) Check() string {
	switch {
	case i.VCSModified:
		return "built from a modified working tree"
	case i.VCSRevision == "" && i.Version == "dev":
		return "development build without version control information"
	}
	return ""
}
