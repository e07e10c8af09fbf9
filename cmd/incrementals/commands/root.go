package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jenkinsci/incrementals-tools/changelist"
	"github.com/jenkinsci/incrementals-tools/cmd/incrementals/internal/clierr"
	"github.com/jenkinsci/incrementals-tools/config"
	"github.com/jenkinsci/incrementals-tools/lifecycle"
)

// Version is the tool version, set at build time.
var Version = "0.0.0-dev"

// app carries what every subcommand needs once flags are parsed.
type app struct {
	verbose    bool
	configPath string

	cfg       *config.Config
	logger    *slog.Logger
	lookupEnv func(string) (string, bool)
}

// Option adjusts the root command, mostly for tests.
type Option func(*app)

// WithLookupEnv replaces os.LookupEnv.
func WithLookupEnv(lookup func(string) (string, bool)) Option {
	return func(a *app) {
		a.lookupEnv = lookup
	}
}

// NewRootCmd constructs the root Cobra command.
func NewRootCmd(opts ...Option) *cobra.Command {
	a := &app{lookupEnv: os.LookupEnv}
	for _, opt := range opts {
		opt(a)
	}

	cmd := &cobra.Command{
		Use:   "incrementals",
		Short: "Tools for incremental builds",
		Long: `Find newer commit-built versions of a dependency that are safe to adopt, and
compute the changelist version suffix of a git checkout.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose output")
	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "configuration file (default: $XDG_CONFIG_HOME/"+config.FileName+")")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newFindCmd(a))
	cmd.AddCommand(newChangelistCmd(a))

	return cmd
}

func (a *app) setup(cmd *cobra.Command) error {
	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	var (
		cfg  *config.Config
		path string
		err  error
	)
	if a.configPath != "" {
		path = a.configPath
		cfg, err = config.LoadFile(cmd.Context(), path)
	} else {
		cfg, path, err = config.Discover(cmd.Context())
	}
	if err != nil {
		return clierr.Wrap(clierr.ExitUsage, "failed to load configuration", err)
	}
	if path != "" {
		a.logger.Debug("loaded configuration", "path", path)
	}
	a.cfg = cfg
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number and the bundled extensions",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := lifecycle.NewRegistry()
			defer func() { _ = reg.Close() }()
			if err := reg.Register(changelist.NewExtension(Version)); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printf(out, "incrementals version %s\n", Version)
			for _, c := range reg.Capabilities() {
				printf(out, "  %s\n", c)
			}
			return nil
		},
	}
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
