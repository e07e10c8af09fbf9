package changelist

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jenkinsci/incrementals-tools/errors"
	"github.com/jenkinsci/incrementals-tools/git"
	"github.com/jenkinsci/incrementals-tools/lifecycle"
)

// ExtensionName is the capability name of the extension.
const ExtensionName = "git-changelist"

// Build properties read or written by the extension.
const (
	PropSetChangelist = "set.changelist"
	PropChangelist    = "changelist"
	PropScmTag        = "scmTag"
	PropIgnoreDirt    = "ignore.dirt"
	PropFormat        = "changelist.format"
	PropGitHubRepo    = "gitHubRepo"
)

// OpenFunc opens the checkout containing dir.
type OpenFunc func(ctx context.Context, dir string) (Checkout, error)

// Extension sets the changelist and scmTag properties of a build that asks
// for them with set.changelist=true, and rejects projects whose version does
// not include the changelist.
type Extension struct {
	Version string

	// Open defaults to opening dir with go-git.
	Open OpenFunc

	// StatusReader, when set, replaces the checkout's own status
	// computation.
	StatusReader func(dir string) git.StatusReader

	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)

	Logger *slog.Logger
}

// NewExtension creates an Extension reporting version as its capability.
func NewExtension(version string) *Extension {
	return &Extension{Version: version}
}

// Capability implements lifecycle.Participant.
func (e *Extension) Capability() lifecycle.Capability {
	return lifecycle.Capability{Name: ExtensionName, Version: e.Version}
}

// AfterSessionStart implements lifecycle.Participant.
func (e *Extension) AfterSessionStart(ctx context.Context, s *lifecycle.Session) error {
	logger := e.logger()
	if !s.Flag(PropSetChangelist) {
		logger.Debug("skipping changelist computation", "reason", PropSetChangelist+" is not true")
		return nil
	}

	_, hasChangelist := s.Property(PropChangelist)
	_, hasScmTag := s.Property(PropScmTag)
	if hasChangelist || hasScmTag {
		logger.Info("declining to override properties", "properties", []string{PropChangelist, PropScmTag})
	} else if err := e.setChangelist(ctx, s, logger); err != nil {
		return err
	}

	if _, ok := s.Property(PropGitHubRepo); ok {
		logger.Info("declining to override properties", "properties", []string{PropGitHubRepo})
		return nil
	}
	lookup := e.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	repo := GitHubRepo(lookup)
	if repo == "" {
		logger.Info("no information available to set " + PropGitHubRepo)
		return nil
	}
	logger.Info("setting property", "name", PropGitHubRepo, "value", repo)
	s.Properties[PropGitHubRepo] = repo
	return nil
}

func (e *Extension) setChangelist(ctx context.Context, s *lifecycle.Session, logger *slog.Logger) error {
	logger.Debug("computing changelist", "dir", s.Dir)

	open := e.Open
	if open == nil {
		open = openRepo
	}
	checkout, err := open(ctx, s.Dir)
	if err != nil {
		return gitFailure(ctx, err)
	}

	opts := []Option{WithAllowDirty(s.Flag(PropIgnoreDirt)), WithLogger(logger)}
	if e.StatusReader != nil {
		opts = append(opts, WithStatusReader(e.StatusReader(s.Dir)))
	}
	rev, err := New(checkout, opts...).Identify(ctx)
	if err != nil {
		return err
	}

	format := DefaultFormat
	if f, ok := s.Property(PropFormat); ok && f != "" {
		format = f
	}
	value, err := Format(format, rev.Count, rev.Abbrev)
	if err != nil {
		return err
	}

	logger.Info("setting properties", PropChangelist, value, PropScmTag, rev.FullHash)
	s.Properties[PropChangelist] = value
	s.Properties[PropScmTag] = rev.FullHash
	return nil
}

// AfterProjectsRead implements lifecycle.Participant.
func (e *Extension) AfterProjectsRead(ctx context.Context, s *lifecycle.Session) error {
	if !s.Flag(PropSetChangelist) {
		return nil
	}
	changelist, ok := s.Property(PropChangelist)
	if !ok || changelist == "" {
		return nil
	}

	var missing []string
	for _, p := range s.Projects {
		if !strings.Contains(p.Version, changelist) {
			e.logger().Warn("project version does not include the changelist", "project", p.ID, "version", p.Version)
			missing = append(missing, p.ID)
		}
	}
	if len(missing) > 0 {
		return &errors.Error{
			Code:    errors.CodeInvalidInput,
			Message: "projects do not include ${" + PropChangelist + "} in their version: " + strings.Join(missing, ", "),
			Context: map[string]interface{}{PropChangelist: changelist},
		}
	}
	return nil
}

func (e *Extension) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openRepo(ctx context.Context, dir string) (Checkout, error) {
	return git.OpenPath(ctx, dir)
}
