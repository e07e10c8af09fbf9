package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/jenkinsci/incrementals-tools/changelist"
	"github.com/jenkinsci/incrementals-tools/cmd/incrementals/internal/clierr"
	"github.com/jenkinsci/incrementals-tools/config"
	"github.com/jenkinsci/incrementals-tools/executor"
	"github.com/jenkinsci/incrementals-tools/git"
	"github.com/jenkinsci/incrementals-tools/lifecycle"
)

func newChangelistCmd(a *app) *cobra.Command {
	var (
		defines        []string
		projects       []string
		ignoreDirt     bool
		statusReader   string
		requireVersion string
	)

	cmd := &cobra.Command{
		Use:   "changelist [dir]",
		Short: "Compute the changelist version suffix of a git checkout",
		Long: `Compute the changelist and scmTag properties for the checkout containing dir
and print them as name=value lines. The checkout must be clean unless
--ignore-dirt is given, and no two commits reachable from HEAD may share an
identifier.`,
		Example: `  incrementals changelist
  incrementals changelist -D changelist.format=.%d.%s --project org.example:lib=1.0-rc12.abc`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			props := map[string]string{
				changelist.PropSetChangelist: "true",
				changelist.PropFormat:        a.cfg.Changelist.Format,
			}
			if ignoreDirt || a.cfg.Changelist.IgnoreDirt {
				props[changelist.PropIgnoreDirt] = "true"
			}
			for _, d := range defines {
				name, value, ok := strings.Cut(d, "=")
				if name == "" {
					return clierr.Newf(clierr.ExitUsage, "invalid property definition %q", d)
				}
				if !ok {
					value = "true"
				}
				props[name] = value
			}

			session := lifecycle.NewSession(dir, props)
			for _, p := range projects {
				id, v, ok := strings.Cut(p, "=")
				if !ok || id == "" || v == "" {
					return clierr.Newf(clierr.ExitUsage, "expected id=version, got %q", p)
				}
				session.Projects = append(session.Projects, lifecycle.Project{ID: id, Version: v})
			}

			ext := changelist.NewExtension(Version)
			ext.Logger = a.logger
			ext.LookupEnv = a.lookupEnv

			if statusReader == "" {
				statusReader = a.cfg.Changelist.StatusReader
			}
			switch statusReader {
			case config.StatusReaderNative:
			case config.StatusReaderCLI:
				ext.StatusReader = func(dir string) git.StatusReader {
					return git.NewCLI(dir, executor.New("git", executor.WithLogger(a.logger)))
				}
			default:
				return clierr.Newf(clierr.ExitUsage, "unknown status reader %q", statusReader)
			}

			reg := lifecycle.NewRegistry(lifecycle.WithLogger(a.logger))
			defer func() { _ = reg.Close() }()

			if err := reg.Register(ext); err != nil {
				return err
			}
			if requireVersion != "" {
				if err := lifecycle.RequireExtensionVersion(reg, changelist.ExtensionName, requireVersion); err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			if err := reg.Start(ctx, session); err != nil {
				return err
			}
			if len(session.Projects) > 0 {
				if err := reg.ProjectsRead(ctx, session); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			for _, name := range []string{changelist.PropChangelist, changelist.PropScmTag, changelist.PropGitHubRepo} {
				if v, ok := session.Property(name); ok {
					printf(out, "%s=%s\n", name, v)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&defines, "define", "D", nil, "set a build property, name=value (repeatable)")
	cmd.Flags().StringArrayVar(&projects, "project", nil, "check that project id=version includes the changelist (repeatable)")
	cmd.Flags().BoolVar(&ignoreDirt, "ignore-dirt", false, "warn instead of failing on a dirty checkout")
	cmd.Flags().StringVar(&statusReader, "git-status", "", "status reader, native or cli (default from configuration)")
	cmd.Flags().StringVar(&requireVersion, "require-extension-version", "", "fail unless this tool's version is in the given range")

	return cmd
}
