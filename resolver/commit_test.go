package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jenkinsci/incrementals-tools/errors"
	"github.com/jenkinsci/incrementals-tools/maven"
)

func TestParseCommitRef(t *testing.T) {
	full := hash("852b473a2b8c")
	hosts := []string{DefaultHost}

	tests := []struct {
		name     string
		project  *maven.Project
		expected *CommitRef
	}{
		{
			name:     "plain",
			project:  commitProject("https://github.com/jenkinsci/git-plugin", full),
			expected: &CommitRef{Host: "github.com", Owner: "jenkinsci", Repo: "git-plugin", Hash: full},
		},
		{
			name:     "dot git and path",
			project:  commitProject("http://github.com/jenkinsci/git-plugin.git/tree/master", full),
			expected: &CommitRef{Host: "github.com", Owner: "jenkinsci", Repo: "git-plugin", Hash: full},
		},
		{
			name:     "artifact placeholder",
			project:  commitProject("https://github.com/jenkinsci/${project.artifactId}-plugin", full),
			expected: &CommitRef{Host: "github.com", Owner: "jenkinsci", Repo: "lib-plugin", Hash: full},
		},
		{
			name:    "no scm",
			project: &maven.Project{},
		},
		{
			name:    "tag is not a hash",
			project: commitProject("https://github.com/jenkinsci/git-plugin", "git-4.0"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := ParseCommitRef(tt.project, "lib", hosts)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ref)
		})
	}
}

func TestParseCommitRef_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		project *maven.Project
	}{
		{"unknown host", commitProject("https://example.com/jenkinsci/git-plugin", hash("aa"))},
		{"scp style", commitProject("git@github.com:jenkinsci/git-plugin.git", hash("aa"))},
		{"owner only", commitProject("https://github.com/jenkinsci", hash("aa"))},
		{"no url", &maven.Project{SCMs: []maven.SCM{{Tags: []string{hash("aa")}}}}},
		{"two urls", &maven.Project{SCMs: []maven.SCM{{URLs: []string{"https://github.com/a/b", "https://github.com/a/b"}, Tags: []string{hash("aa")}}}}},
		{"no tag", &maven.Project{SCMs: []maven.SCM{{URLs: []string{"https://github.com/a/b"}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCommitRef(tt.project, "lib", []string{DefaultHost})
			require.Error(t, err)
			assert.Equal(t, errors.CodeInvalidInput, errors.CodeOf(err))
		})
	}
}

func TestCommitRef(t *testing.T) {
	ref := &CommitRef{Host: "github.com", Owner: "jenkinsci", Repo: "git-plugin", Hash: hash("852b473a2b8c")}
	assert.Equal(t, "852b473a2b8c", ref.Abbrev())
	assert.Equal(t, "https://github.com/jenkinsci/git-plugin/commit/"+hash("852b473a2b8c"), ref.String())

	assert.True(t, IsFullHash(hash("abc")))
	assert.False(t, IsFullHash("abc"))
}
