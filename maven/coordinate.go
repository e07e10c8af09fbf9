// Package maven reads version listings and project descriptors from
// repositories that use the Maven directory layout.
//
// Layout:
//
//	<repo>/<group path>/<artifact>/maven-metadata.xml
//	<repo>/<group path>/<artifact>/<version>/<artifact>-<version>.<type>
//
// where the group path is the group id with dots replaced by slashes.
package maven

import (
	"strings"
)

// MetadataFile is the name of the version listing in an artifact directory.
const MetadataFile = "maven-metadata.xml"

// Coordinate identifies an artifact family across versions.
type Coordinate struct {
	GroupID    string
	ArtifactID string
}

// ParseCoordinate parses "groupId:artifactId".
func ParseCoordinate(s string) (Coordinate, bool) {
	g, a, ok := strings.Cut(s, ":")
	if !ok || g == "" || a == "" || strings.Contains(a, ":") {
		return Coordinate{}, false
	}
	return Coordinate{GroupID: g, ArtifactID: a}, true
}

func (c Coordinate) String() string {
	return c.GroupID + ":" + c.ArtifactID
}

// Path returns the artifact directory relative to a repository root,
// without leading or trailing slash.
func (c Coordinate) Path() string {
	return strings.ReplaceAll(c.GroupID, ".", "/") + "/" + c.ArtifactID
}

// NormalizeRepository makes sure a repository URL ends in a slash.
func NormalizeRepository(repo string) string {
	if strings.HasSuffix(repo, "/") {
		return repo
	}
	return repo + "/"
}

// MetadataURL returns the URL of the version listing for c in repo.
func MetadataURL(repo string, c Coordinate) string {
	return NormalizeRepository(repo) + c.Path() + "/" + MetadataFile
}

// VersionURL returns the directory holding the files of one version,
// for example https://repo/net/nowhere/lib/1.23/.
func VersionURL(repo string, c Coordinate, version string) string {
	return NormalizeRepository(repo) + c.Path() + "/" + version + "/"
}

// ArtifactURL returns the URL of one file of a version, for example
// https://repo/net/nowhere/lib/1.23/lib-1.23.pom for type "pom".
func ArtifactURL(repo string, c Coordinate, version, typ string) string {
	return VersionURL(repo, c, version) + c.ArtifactID + "-" + version + "." + typ
}
