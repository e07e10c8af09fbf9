// Package resolver finds the newest version of an artifact that is safe to
// adopt from a given branch.
//
// Versions built from a commit carry the commit in their descriptor's scm
// section. Such a version is only accepted when the hosting service reports
// the commit as reachable from the target branch. Versions without commit
// provenance are formal releases and are accepted as they are.
package resolver

import (
	"context"
	"io"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/jenkinsci/incrementals-tools/errors"
	"github.com/jenkinsci/incrementals-tools/hosting"
	"github.com/jenkinsci/incrementals-tools/maven"
	"github.com/jenkinsci/incrementals-tools/version"
)

// Defaults.
const (
	DefaultHost           = "github.com"
	DefaultConcurrency    = 4
	DefaultDescriptorType = "pom"
)

// MetadataReader lists the versions of an artifact in one repository. It
// reports a repository that does not know the artifact with CodeNotFound.
type MetadataReader interface {
	Versions(ctx context.Context, c maven.Coordinate, repo string) ([]string, error)
}

// DescriptorReader fetches the descriptor of one version.
type DescriptorReader interface {
	Descriptor(ctx context.Context, c maven.Coordinate, version, repo, typ string) (*maven.Project, error)
}

// AncestryClient compares a commit with a branch. A branch or repository
// unknown to the service is reported with CodeNotFound.
type AncestryClient interface {
	Compare(ctx context.Context, owner, repo, base, head string) (hosting.Status, error)
}

// Candidate is one version of an artifact in one repository.
type Candidate struct {
	Coordinate maven.Coordinate
	Version    version.Version
	Repository string
}

// BaseURL returns the directory of the candidate's files,
// for example https://repo/net/nowhere/lib/1.23/.
func (c Candidate) BaseURL() string {
	return maven.VersionURL(c.Repository, c.Coordinate, c.Version.String())
}

// FullURL returns the URL of one file of the candidate,
// for example https://repo/net/nowhere/lib/1.23/lib-1.23.pom.
func (c Candidate) FullURL(typ string) string {
	return maven.ArtifactURL(c.Repository, c.Coordinate, c.Version.String(), typ)
}

func (c Candidate) String() string {
	return c.BaseURL()
}

// Resolver searches repositories for adoptable versions.
type Resolver struct {
	meta     MetadataReader
	desc     DescriptorReader
	ancestry AncestryClient

	logger         *slog.Logger
	hosts          []string
	concurrency    int
	descriptorType string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithHosts sets the hosting service hosts recognized in scm URLs.
func WithHosts(hosts ...string) Option {
	return func(r *Resolver) {
		if len(hosts) > 0 {
			r.hosts = hosts
		}
	}
}

// WithConcurrency bounds how many repositories are listed at once.
func WithConcurrency(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// New creates a Resolver.
func New(meta MetadataReader, desc DescriptorReader, ancestry AncestryClient, opts ...Option) *Resolver {
	r := &Resolver{
		meta:           meta,
		desc:           desc,
		ancestry:       ancestry,
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		hosts:          []string{DefaultHost},
		concurrency:    DefaultConcurrency,
		descriptorType: DefaultDescriptorType,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Find returns the newest version of c strictly newer than current that is
// safe to adopt from branch, or nil if there is none.
//
// Candidates are examined newest first and the search stops at the first
// accepted candidate or at the first one that is not newer than current.
func (r *Resolver) Find(ctx context.Context, c maven.Coordinate, current, branch string, repos []string) (*Candidate, error) {
	currentV := version.Parse(current)
	logger := r.logger.With("coordinate", c.String())
	logger.Info("searching for updates", "current", current, "branch", branch)

	candidates, err := r.loadCandidates(ctx, c, repos)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		logger.Info("found no candidates")
		return nil, nil
	}
	logger.Info("found candidates",
		"count", len(candidates),
		"newest", candidates[0].Version.String(),
		"oldest", candidates[len(candidates)-1].Version.String())

	for i := range candidates {
		candidate := &candidates[i]

		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, errors.ContextCode(err), "search stopped")
		}

		if candidate.Version.Compare(currentV) <= 0 {
			logger.Info("stopping search", "candidate", candidate.String(), "reason", "not newer than current")
			return nil, nil
		}
		logger.Info("considering candidate", "candidate", candidate.String())

		ref, err := r.commitOf(ctx, candidate)
		if err != nil {
			return nil, err
		}
		if ref == nil {
			logger.Info("accepting candidate", "candidate", candidate.String(), "reason", "not built from a commit")
			return candidate, nil
		}
		logger.Info("mapped candidate to commit", "candidate", candidate.String(), "commit", ref.Abbrev(), "url", ref.String())

		status, err := r.ancestry.Compare(ctx, ref.Owner, ref.Repo, ref.Hash, branch)
		switch {
		case errors.IsNotFound(err):
			logger.Info("skipping candidate", "candidate", candidate.String(), "reason", "branch or repository not found", "error", err)
			continue
		case err != nil:
			return nil, err
		}

		if status.IsAncestor() {
			logger.Info("accepting candidate", "candidate", candidate.String(), "reason", "commit is within "+branch, "status", string(status))
			return candidate, nil
		}
		logger.Info("skipping candidate", "candidate", candidate.String(), "reason", "commit is not within "+branch, "status", string(status))
	}

	return nil, nil
}

func (r *Resolver) commitOf(ctx context.Context, candidate *Candidate) (*CommitRef, error) {
	project, err := r.desc.Descriptor(ctx, candidate.Coordinate, candidate.Version.String(), candidate.Repository, r.descriptorType)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeOf(err), "reading descriptor of %s", candidate.FullURL(r.descriptorType))
	}
	return ParseCommitRef(project, candidate.Coordinate.ArtifactID, r.hosts)
}

// loadCandidates lists every repository and returns the union of their
// versions sorted newest first. Of equal versions the one from the earliest
// repository is kept.
func (r *Resolver) loadCandidates(ctx context.Context, c maven.Coordinate, repos []string) ([]Candidate, error) {
	listed := make([][]string, len(repos))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, repo := range repos {
		g.Go(func() error {
			versions, err := r.meta.Versions(gctx, c, repo)
			if errors.IsNotFound(err) {
				r.logger.Debug("artifact not in repository", "coordinate", c.String(), "repository", repo)
				return nil
			}
			if err != nil {
				return err
			}
			listed[i] = versions
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var candidates []Candidate
	for i, versions := range listed {
		for _, v := range versions {
			candidates = append(candidates, Candidate{
				Coordinate: c,
				Version:    version.Parse(v),
				Repository: maven.NormalizeRepository(repos[i]),
			})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[j].Version.Less(candidates[i].Version)
	})

	deduped := candidates[:0]
	for _, cand := range candidates {
		if n := len(deduped); n > 0 && deduped[n-1].Version.Equal(cand.Version) {
			continue
		}
		deduped = append(deduped, cand)
	}
	return deduped, nil
}
