package changelist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jenkinsci/incrementals-tools/errors"
	"github.com/jenkinsci/incrementals-tools/version"
)

var prereleases = []string{"alpha", "beta", "milestone", "rc", "snapshot"}

func TestSanitize(t *testing.T) {
	tests := []struct {
		hash     string
		expected string
	}{
		{"852b473a2b8c", "852b_473a_2b_8c"},
		{"852b473a2bcb", "852b_473a_2b_cb_"},
		{"0123456789cd", "0123456789cd"},
		{"aabb00000000", "a_a_b_b_00000000"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.hash, func(t *testing.T) {
			sanitized := Sanitize(tt.hash)
			assert.Equal(t, tt.expected, sanitized)
			assert.Equal(t, sanitized, Sanitize(sanitized), "not idempotent")

			canonical := version.Parse(sanitized).Canonical()
			for _, q := range prereleases {
				assert.NotContains(t, canonical, q, "%s read as a prerelease", sanitized)
			}
		})
	}
}

func TestSanitize_RawHashWouldBeQualified(t *testing.T) {
	canonical := version.Parse("852b473a2b8c").Canonical()
	assert.Contains(t, canonical, "beta")
	assert.Contains(t, canonical, "alpha")
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		expected string
		code     errors.ErrorCode
	}{
		{"default", DefaultFormat, "-rc1234.852b_473a_2b_8c", ""},
		{"custom", ".%d.%s-incremental", ".1234.852b_473a_2b_8c-incremental", ""},
		{"count only", "-rc%d", "-rc1234", ""},
		{"count only with suffix", ".%d-incremental", ".1234-incremental", ""},
		{"wrong verb", "-rc%s.%s", "", errors.CodeInvalidConfig},
		{"hash only", "-%s", "", errors.CodeInvalidConfig},
		{"too many verbs", "-rc%d.%s.%s", "", errors.CodeInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Format(tt.format, 1234, "852b473a2b8c")
			if tt.code != "" {
				require.Error(t, err)
				assert.Equal(t, tt.code, errors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestGitHubRepo(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		expected string
	}{
		{"nothing", map[string]string{}, ""},
		{"empty fork", map[string]string{"CHANGE_FORK": ""}, ""},
		{"qualified fork", map[string]string{"CHANGE_FORK": "jglick/build-token-root-plugin"}, "jglick/build-token-root-plugin"},
		{"fork and job", map[string]string{
			"CHANGE_FORK": "jglick",
			"JOB_NAME":    "Plugins/build-token-root-plugin/PR-21",
		}, "jglick/build-token-root-plugin"},
		{"fork without job", map[string]string{"CHANGE_FORK": "jglick"}, ""},
		{"short job", map[string]string{"CHANGE_FORK": "jglick", "JOB_NAME": "PR-21"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GitHubRepo(mapEnv(tt.env)))
		})
	}
}

func mapEnv(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}
