package resolver

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jenkinsci/incrementals-tools/errors"
	"github.com/jenkinsci/incrementals-tools/maven"
)

// AbbrevLength is the length of an abbreviated commit hash.
const AbbrevLength = 12

// ArtifactIDPlaceholder may appear in the repository segment of an scm URL.
const ArtifactIDPlaceholder = "${project.artifactId}"

var fullHashPattern = regexp.MustCompile(`^[a-f0-9]{40}$`)

// CommitRef points at a commit on a hosting service.
type CommitRef struct {
	Host  string
	Owner string
	Repo  string
	Hash  string
}

// Abbrev returns the abbreviated hash.
func (c *CommitRef) Abbrev() string {
	if len(c.Hash) <= AbbrevLength {
		return c.Hash
	}
	return c.Hash[:AbbrevLength]
}

// String returns the web URL of the commit.
func (c *CommitRef) String() string {
	return "https://" + c.Host + "/" + c.Owner + "/" + c.Repo + "/commit/" + c.Hash
}

// IsFullHash reports whether s is a full lowercase hex commit hash.
func IsFullHash(s string) bool {
	return fullHashPattern.MatchString(s)
}

// scmURLPattern matches scheme://host/owner/repo[.git][/...] for one host.
func scmURLPattern(host string) *regexp.Regexp {
	return regexp.MustCompile(`^https?://` + regexp.QuoteMeta(host) + `/([^/]+)/([^/]+?)(\.git)?(/.*)?$`)
}

// ParseCommitRef extracts the commit a descriptor was built from.
//
// It returns nil without error when the descriptor does not have exactly
// one scm section, or when its tag is not a full commit hash: such versions
// are not commit-addressed builds. An scm section with other than one url or
// tag, or with a url on none of the given hosts, is malformed.
func ParseCommitRef(project *maven.Project, artifactID string, hosts []string) (*CommitRef, error) {
	if len(project.SCMs) != 1 {
		return nil, nil
	}
	scm := project.SCMs[0]

	if len(scm.URLs) != 1 {
		return nil, malformed(project, "expected one <url> in <scm>, found %d", len(scm.URLs))
	}
	scmURL := scm.URLs[0]

	var ref *CommitRef
	for _, host := range hosts {
		m := scmURLPattern(host).FindStringSubmatch(scmURL)
		if m == nil {
			continue
		}
		ref = &CommitRef{
			Host:  host,
			Owner: m[1],
			Repo:  strings.ReplaceAll(m[2], ArtifactIDPlaceholder, artifactID),
		}
		break
	}
	if ref == nil {
		return nil, malformed(project, "unexpected scm url %s; expecting https://%s/owner/repo format", scmURL, strings.Join(hosts, "|"))
	}

	if len(scm.Tags) != 1 {
		return nil, malformed(project, "expected one <tag> in <scm>, found %d", len(scm.Tags))
	}

	if !IsFullHash(scm.Tags[0]) {
		return nil, nil
	}
	ref.Hash = scm.Tags[0]
	return ref, nil
}

func malformed(project *maven.Project, format string, args ...interface{}) error {
	return &errors.Error{
		Code:    errors.CodeInvalidInput,
		Message: fmt.Sprintf(format, args...),
		Context: map[string]interface{}{"descriptor": project.URL},
	}
}
