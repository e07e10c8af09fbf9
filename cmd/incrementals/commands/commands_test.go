package commands

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jenkinsci/incrementals-tools/changelist"
	"github.com/jenkinsci/incrementals-tools/cmd/incrementals/internal/clierr"
	"github.com/jenkinsci/incrementals-tools/git"
)

func noEnv(string) (string, bool) { return "", false }

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd(WithLookupEnv(noEnv))
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "incrementals version "+Version+"\n  "+changelist.ExtensionName+":"+Version+"\n", out)
}

func TestRootCmd_BadConfig(t *testing.T) {
	path := writeConfig(t, "branch: [not, a, string]\n")

	_, err := run(t, "find", "org.example:lib", "1.0", "--config", path)
	require.Error(t, err)
	assert.Equal(t, clierr.ExitUsage, clierr.ExitCodeOf(err))
}

const commitHash = "aaaaaaaaaaaa0000000000000000000000000000"

// newRepository serves one artifact with a commit-built version and the
// compare endpoint of the hosting API.
func newRepository(t *testing.T, status string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/releases/org/example/lib/maven-metadata.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<metadata><groupId>org.example</groupId><artifactId>lib</artifactId>
<versioning><versions><version>1.0</version><version>1.1</version><version>1.2-rc3.aaaaaaaaaaaa</version></versions></versioning></metadata>`)
	})
	mux.HandleFunc("/releases/org/example/lib/1.2-rc3.aaaaaaaaaaaa/lib-1.2-rc3.aaaaaaaaaaaa.pom", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<project><scm><url>https://github.com/owner/${project.artifactId}</url><tag>%s</tag></scm></project>`, commitHash)
	})
	mux.HandleFunc("/releases/org/example/lib/1.1/lib-1.1.pom", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<project><scm><url>https://github.com/owner/lib</url><tag>lib-1.1</tag></scm></project>`)
	})
	mux.HandleFunc("/api/repos/owner/lib/compare/"+commitHash+"...main", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":%q}`, status)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFindCmd(t *testing.T) {
	tests := []struct {
		name     string
		status   string
		args     []string
		expected string
	}{
		{
			name:     "commit in branch",
			status:   "ahead",
			args:     []string{"org.example:lib", "1.0"},
			expected: "org.example:lib: 1.0 -> 1.2-rc3.aaaaaaaaaaaa (%s/releases/org/example/lib/1.2-rc3.aaaaaaaaaaaa/)\n",
		},
		{
			name:     "commit not in branch",
			status:   "diverged",
			args:     []string{"org.example:lib", "1.0"},
			expected: "org.example:lib: 1.0 -> 1.1 (%s/releases/org/example/lib/1.1/)\n",
		},
		{
			name:     "up to date",
			status:   "ahead",
			args:     []string{"org.example:lib", "1.2-rc3.aaaaaaaaaaaa"},
			expected: "org.example:lib: no update from 1.2-rc3.aaaaaaaaaaaa\n",
		},
		{
			name:     "snapshot",
			status:   "ahead",
			args:     []string{"org.example:lib", "1.0-SNAPSHOT"},
			expected: "org.example:lib: skipping snapshot version 1.0-SNAPSHOT\n",
		},
		{
			name:     "only incremental",
			status:   "ahead",
			args:     []string{"org.example:lib", "1.0", "--only-incremental"},
			expected: "org.example:lib: skipping version 1.0, not an incremental version\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newRepository(t, tt.status)
			path := writeConfig(t, fmt.Sprintf("repositories: [%q]\nbranch: main\nhosting:\n  apiURL: %q\n", srv.URL+"/releases/", srv.URL+"/api/"))

			out, err := run(t, append(append([]string{"find"}, tt.args...), "--config", path)...)
			require.NoError(t, err)
			expected := tt.expected
			if strings.Contains(expected, "%s") {
				expected = fmt.Sprintf(expected, srv.URL)
			}
			assert.Equal(t, expected, out)
		})
	}
}

func TestFindCmd_Flags(t *testing.T) {
	srv := newRepository(t, "ahead")
	path := writeConfig(t, fmt.Sprintf("repositories: [\"file:///nonexistent/\"]\nbranch: stable\nhosting:\n  apiURL: %q\n", srv.URL+"/api/"))

	out, err := run(t, "find", "org.example:lib", "1.0",
		"--config", path,
		"--repository", srv.URL+"/releases",
		"--branch", "main")
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("org.example:lib: 1.0 -> 1.2-rc3.aaaaaaaaaaaa (%s/releases/org/example/lib/1.2-rc3.aaaaaaaaaaaa/)\n", srv.URL), out)
}

func TestFindCmd_Usage(t *testing.T) {
	path := writeConfig(t, "branch: main\n")

	_, err := run(t, "find", "lib", "1.0", "--config", path)
	assert.Equal(t, clierr.ExitUsage, clierr.ExitCodeOf(err))

	_, err = run(t, "find", "org.example:lib", "--config", path)
	assert.Error(t, err)
}

// newCheckout creates a git checkout with one commit in a temporary directory.
func newCheckout(t *testing.T) (string, string) {
	t.Helper()

	dir := t.TempDir()
	ctx := context.Background()
	repo, err := git.Init(ctx, &git.Options{FS: osfs.New(dir), Workdir: "."})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "pom.xml"), []byte("<project/>"), 0o644))
	require.NoError(t, repo.Add(ctx, "pom.xml"))
	hash, err := repo.Commit(ctx, "Initial commit", git.Signature{
		Name:  "Test User",
		Email: "test@example.com",
		When:  time.Date(2018, 4, 20, 12, 0, 0, 0, time.UTC),
	}, git.CommitOpts{})
	require.NoError(t, err)
	return dir, hash
}

func TestChangelistCmd(t *testing.T) {
	dir, hash := newCheckout(t)
	path := writeConfig(t, "branch: main\n")
	suffix := "-rc1." + changelist.Sanitize(hash[:12])

	out, err := run(t, "changelist", dir, "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "changelist="+suffix+"\nscmTag="+hash+"\n", out)

	out, err = run(t, "changelist", dir, "--config", path, "-D", "changelist.format=.%d.%s")
	require.NoError(t, err)
	assert.Contains(t, out, "changelist=.1."+changelist.Sanitize(hash[:12])+"\n")

	out, err = run(t, "changelist", dir, "--config", path, "-D", "changelist=-SNAPSHOT")
	require.NoError(t, err)
	assert.Equal(t, "changelist=-SNAPSHOT\n", out)

	_, err = run(t, "changelist", dir, "--config", path, "--project", "org.example:lib=1.0"+suffix)
	require.NoError(t, err)

	_, err = run(t, "changelist", dir, "--config", path, "--project", "org.example:lib=1.0-SNAPSHOT")
	assert.Equal(t, clierr.ExitMalformed, clierr.ExitCodeOf(err))
}

func TestChangelistCmd_Dirty(t *testing.T) {
	dir, _ := newCheckout(t)
	path := writeConfig(t, "branch: main\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scratch.txt"), []byte("x"), 0o644))

	_, err := run(t, "changelist", dir, "--config", path)
	require.Error(t, err)
	assert.Equal(t, clierr.ExitDirtyCheckout, clierr.ExitCodeOf(err))
	assert.Contains(t, err.Error(), "scratch.txt")

	out, err := run(t, "changelist", dir, "--config", path, "--ignore-dirt")
	require.NoError(t, err)
	assert.Contains(t, out, "scmTag=")

	ignoring := writeConfig(t, "changelist:\n  ignoreDirt: true\n")
	_, err = run(t, "changelist", dir, "--config", ignoring)
	require.NoError(t, err)
}

func TestChangelistCmd_Usage(t *testing.T) {
	dir, _ := newCheckout(t)
	path := writeConfig(t, "branch: main\n")

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"bad define", []string{"-D", "=x"}, clierr.ExitUsage},
		{"bad project", []string{"--project", "org.example:lib"}, clierr.ExitUsage},
		{"bad status reader", []string{"--git-status", "fast"}, clierr.ExitUsage},
		{"extension too old", []string{"--require-extension-version", "[99,)"}, clierr.ExitMalformed},
		{"invalid range", []string{"--require-extension-version", "[99"}, clierr.ExitUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, append([]string{"changelist", dir, "--config", path}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, tt.code, clierr.ExitCodeOf(err))
		})
	}
}
