// Package hosting answers commit ancestry questions using a source hosting
// service's compare API.
package hosting

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"

	"github.com/jenkinsci/incrementals-tools/errors"
)

// DefaultTimeout bounds a single compare request.
const DefaultTimeout = 30 * time.Second

// Status is the relation of a compare head to its base.
type Status string

// Compare statuses as reported by the API. The head is the branch, the base
// the commit in question.
const (
	StatusIdentical Status = "identical"
	StatusAhead     Status = "ahead"
	StatusBehind    Status = "behind"
	StatusDiverged  Status = "diverged"
)

// IsAncestor reports whether the base commit is reachable from, or equal to,
// the head.
func (s Status) IsAncestor() bool {
	return s == StatusIdentical || s == StatusAhead
}

// Options configures a GitHub client.
type Options struct {
	// BaseURL of the REST API. Empty means https://api.github.com/.
	BaseURL string

	// Token authenticates requests when set.
	Token string

	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     *slog.Logger
}

// Option modifies Options.
type Option func(*Options)

// WithBaseURL points the client at a different API root, such as a GitHub
// Enterprise server or a test server.
func WithBaseURL(u string) Option {
	return func(o *Options) {
		o.BaseURL = u
	}
}

// WithToken sets the API token.
func WithToken(token string) Option {
	return func(o *Options) {
		o.Token = token
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *Options) {
		o.HTTPClient = client
	}
}

// WithTimeout sets the request timeout. Zero or negative values fall back to
// DefaultTimeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.Timeout = timeout
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// GitHub compares commits through the GitHub REST API.
type GitHub struct {
	client *github.Client
	logger *slog.Logger
}

// NewGitHub creates a client.
func NewGitHub(opts ...Option) (*GitHub, error) {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}

	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	httpClient := o.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: o.Timeout}
	}

	client := github.NewClient(httpClient)
	if o.Token != "" {
		client = client.WithAuthToken(o.Token)
	}

	if o.BaseURL != "" {
		base := o.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, errors.Newf(errors.CodeInvalidConfig, "invalid API base URL %q", o.BaseURL)
		}
		client.BaseURL = u
	}

	return &GitHub{client: client, logger: o.Logger}, nil
}

// Compare returns the status of head relative to base in owner/repo. A
// repository, commit or branch unknown to the service yields CodeNotFound.
func (g *GitHub) Compare(ctx context.Context, owner, repo, base, head string) (Status, error) {
	cmp, _, err := g.client.Repositories.CompareCommits(ctx, owner, repo, base, head, &github.ListOptions{PerPage: 1})
	if err != nil {
		return "", classify(ctx, err, owner+"/"+repo, base, head)
	}

	status := Status(cmp.GetStatus())
	g.logger.Debug("compared commits",
		"repository", owner+"/"+repo,
		"base", base,
		"head", head,
		"status", status)

	switch status {
	case StatusIdentical, StatusAhead, StatusBehind, StatusDiverged:
		return status, nil
	default:
		return "", errors.Newf(errors.CodeInvalidInput, "unexpected compare status %q for %s/%s %s...%s", status, owner, repo, base, head)
	}
}

func classify(ctx context.Context, err error, repo, base, head string) error {
	attrs := map[string]interface{}{
		"repository": repo,
		"base":       base,
		"head":       head,
	}

	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	if stderrors.As(err, &rateErr) || stderrors.As(err, &abuseErr) {
		return errors.WrapWithContext(err, errors.CodeRateLimit, "compare rate limited", attrs)
	}

	var respErr *github.ErrorResponse
	if stderrors.As(err, &respErr) && respErr.Response != nil {
		if respErr.Response.StatusCode == http.StatusNotFound {
			return errors.WrapWithContext(err, errors.CodeNotFound, "compare target not found", attrs)
		}
		return errors.WrapWithContext(err, errors.CodeNetwork, "compare failed", attrs)
	}

	var netErr net.Error
	if stderrors.Is(ctx.Err(), context.DeadlineExceeded) || (stderrors.As(err, &netErr) && netErr.Timeout()) {
		return errors.WrapWithContext(err, errors.CodeTimeout, "compare timed out", attrs)
	}
	return errors.WrapWithContext(err, errors.CodeNetwork, "compare failed", attrs)
}
