package changelist

import (
	"fmt"
	"strings"

	"github.com/jenkinsci/incrementals-tools/errors"
)

// DefaultFormat renders the count and the sanitized abbreviation.
const DefaultFormat = "-rc%d.%s"

// Sanitize inserts an underscore after every a or b not already followed by
// one, so that version parsers never read hex digits as alpha or beta
// qualifiers. Sanitize is idempotent.
func Sanitize(hash string) string {
	var b strings.Builder
	b.Grow(len(hash) + len(hash)/4)
	for i := 0; i < len(hash); i++ {
		c := hash[i]
		b.WriteByte(c)
		if (c == 'a' || c == 'b') && (i+1 == len(hash) || hash[i+1] != '_') {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Format applies format to count and the sanitized abbreviation. The
// format may consume the count alone, leaving the abbreviation unused.
func Format(format string, count int, abbrev string) (string, error) {
	for _, args := range [][]any{{count, Sanitize(abbrev)}, {count}} {
		if out := fmt.Sprintf(format, args...); !strings.Contains(out, "%!") {
			return out, nil
		}
	}
	return "", errors.Newf(errors.CodeInvalidConfig,
		"changelist format %q must take a count (%%d) and optionally an abbreviated hash (%%s)", format)
}

// GitHubRepo derives owner/repo of a pull request's source from the
// CHANGE_FORK and JOB_NAME variables of a CI build. A bare fork owner is
// combined with the second-to-last JOB_NAME segment, so CHANGE_FORK=jglick
// with JOB_NAME=Plugins/build-token-root-plugin/PR-21 gives
// jglick/build-token-root-plugin. It returns "" when there is not enough
// information.
func GitHubRepo(lookupEnv func(string) (string, bool)) string {
	fork, ok := lookupEnv("CHANGE_FORK")
	if !ok || fork == "" {
		return ""
	}
	if strings.Contains(fork, "/") {
		return fork
	}

	job, ok := lookupEnv("JOB_NAME")
	if !ok {
		return ""
	}
	pieces := strings.Split(strings.TrimRight(job, "/"), "/")
	if len(pieces) < 2 {
		return ""
	}
	return fork + "/" + pieces[len(pieces)-2]
}
