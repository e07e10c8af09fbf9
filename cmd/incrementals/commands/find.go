package commands

import (
	"github.com/spf13/cobra"

	"github.com/jenkinsci/incrementals-tools/cmd/incrementals/internal/clierr"
	"github.com/jenkinsci/incrementals-tools/hosting"
	"github.com/jenkinsci/incrementals-tools/maven"
	"github.com/jenkinsci/incrementals-tools/resolver"
	"github.com/jenkinsci/incrementals-tools/version"
)

func newFindCmd(a *app) *cobra.Command {
	var (
		branch          string
		repos           []string
		onlyIncremental bool
	)

	cmd := &cobra.Command{
		Use:   "find <groupId:artifactId> <currentVersion>",
		Short: "Find the newest version safe to adopt from a branch",
		Long: `Search the configured repositories for versions newer than currentVersion.
A version built from a commit is only reported when that commit is part of
the branch; other versions are reported as they are.`,
		Example: `  incrementals find org.jenkins-ci.plugins:git 4.0 --branch master`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			coord, ok := maven.ParseCoordinate(args[0])
			if !ok {
				return clierr.Newf(clierr.ExitUsage, "expected groupId:artifactId, got %q", args[0])
			}
			current := args[1]
			out := cmd.OutOrStdout()

			if version.IsSnapshot(current) {
				printf(out, "%s: skipping snapshot version %s\n", coord, current)
				return nil
			}
			if onlyIncremental && !version.IsIncremental(current) {
				printf(out, "%s: skipping version %s, not an incremental version\n", coord, current)
				return nil
			}

			if branch == "" {
				branch = a.cfg.Branch
			}
			if len(repos) == 0 {
				repos = a.cfg.Repositories
			}

			r, err := a.newResolver()
			if err != nil {
				return err
			}

			found, err := r.Find(cmd.Context(), coord, current, branch, repos)
			if err != nil {
				return err
			}
			if found == nil {
				printf(out, "%s: no update from %s\n", coord, current)
				return nil
			}
			printf(out, "%s: %s -> %s (%s)\n", coord, current, found.Version, found.BaseURL())
			return nil
		},
	}

	cmd.Flags().StringVarP(&branch, "branch", "b", "", "branch candidates must be part of (default from configuration)")
	cmd.Flags().StringSliceVarP(&repos, "repository", "r", nil, "repository URL to search, repeatable (default from configuration)")
	cmd.Flags().BoolVar(&onlyIncremental, "only-incremental", false, "only look for updates of incremental versions")

	return cmd
}

func (a *app) newResolver() (*resolver.Resolver, error) {
	client := maven.NewClient(
		maven.WithTimeout(a.cfg.Timeout),
		maven.WithLogger(a.logger),
	)

	gh, err := hosting.NewGitHub(
		hosting.WithBaseURL(a.cfg.Hosting.APIURL),
		hosting.WithToken(a.cfg.Token(a.lookupEnv)),
		hosting.WithTimeout(a.cfg.Timeout),
		hosting.WithLogger(a.logger),
	)
	if err != nil {
		return nil, err
	}

	return resolver.New(client, client, gh,
		resolver.WithLogger(a.logger),
		resolver.WithHosts(a.cfg.Hosting.Hosts...),
	), nil
}
