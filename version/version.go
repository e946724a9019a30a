package version

import (
	"fmt"
	"strings"
	"sync"
)

const (
	appMajor uint = 0
	appMinor uint = 1
	appPatch uint = 0
)

// buildCharacters are the characters allowed in appBuild
const buildCharacters = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-"

// appBuild is set at link time with
// '-ldflags "-X github.com/topodag/topod/version.appBuild=foo"'.
// A value containing anything outside buildCharacters is ignored.
var appBuild string

var (
	version     string
	versionOnce sync.Once
)

// Version returns the semantic version of topod, with the build metadata
// appended when there is any
func Version() string {
	versionOnce.Do(func() {
		version = fmt.Sprintf("%d.%d.%d", appMajor, appMinor, appPatch)
		if isValidBuild(appBuild) {
			version += "-" + appBuild
		}
	})
	return version
}

func isValidBuild(build string) bool {
	if build == "" {
		return false
	}
	return strings.Trim(build, buildCharacters) == ""
}
