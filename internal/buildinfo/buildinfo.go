// Package buildinfo carries version metadata stamped at link time, e.g.
//
//	go build -ldflags "-X github.com/rapaev95/ephemeris-agpl-service/internal/buildinfo.Commit=$(git rev-parse HEAD)"
package buildinfo

import "fmt"

const (
	Service        = "ephemeris-agpl-service"
	APIVersion     = "v1"
	License        = "AGPL-3.0"
	DefaultRepoURL = "https://github.com/rapaev95/ephemeris-agpl-service"
)

// Set with -ldflags -X.
var (
	Commit    = "unknown"
	Tag       = "dev"
	BuildTime = "unknown"
)

// Info is the build metadata reported by the meta endpoints.
type Info struct {
	Commit    string
	Tag       string
	BuildTime string
	RepoURL   string
}

// Default returns the link-time values.
func Default() Info {
	return Info{Commit: Commit, Tag: Tag, BuildTime: BuildTime, RepoURL: DefaultRepoURL}
}

// SourceRef is the tag, or the commit when running an untagged dev build.
func (i Info) SourceRef() string {
	if i.Tag != "" && i.Tag != "dev" {
		return i.Tag
	}
	return i.Commit
}

// SourceHeader is the X-AGPL-Source value: <repo>@<tag|commit>.
func (i Info) SourceHeader() string {
	return i.RepoURL + "@" + i.SourceRef()
}

// HowToGetSource tells a network user where the running code lives.
func (i Info) HowToGetSource() string {
	return fmt.Sprintf("Open the repository link or use the tag/commit shown. Repository: %s, Tag: %s, Commit: %s",
		i.RepoURL, i.Tag, i.Commit)
}
