package maven

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/jenkinsci/incrementals-tools/errors"
)

// Client configuration defaults.
const (
	DefaultMaxIdleConns        = 50
	DefaultMaxIdleConnsPerHost = 20
	DefaultIdleConnTimeout     = 90 * time.Second
	DefaultRequestTimeout      = 15 * time.Second

	// MaxDocumentSize bounds the size of a fetched metadata or descriptor file.
	MaxDocumentSize = 16 << 20
)

// Client fetches version listings and descriptors from http(s) and file://
// repositories.
type Client struct {
	client *http.Client
	fs     billy.Filesystem
	logger *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.client = client
		}
	}
}

// WithTimeout sets the HTTP request timeout.
// Zero or negative values fall back to DefaultRequestTimeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.client.Timeout = timeout
		} else {
			c.client.Timeout = DefaultRequestTimeout
		}
	}
}

// WithFilesystem sets the filesystem file:// URLs are resolved against.
// Defaults to the OS filesystem.
func WithFilesystem(fsys billy.Filesystem) ClientOption {
	return func(c *Client) {
		if fsys != nil {
			c.fs = fsys
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a repository client.
func NewClient(opts ...ClientOption) *Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        DefaultMaxIdleConns,
		MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
		IdleConnTimeout:     DefaultIdleConnTimeout,
	}

	c := &Client{
		client: &http.Client{
			Timeout:   DefaultRequestTimeout,
			Transport: transport,
		},
		fs:     osfs.New("/"),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Versions lists the versions of c published to repo, in document order.
// A repository that does not know the artifact yields a CodeNotFound error.
func (cl *Client) Versions(ctx context.Context, c Coordinate, repo string) ([]string, error) {
	u := MetadataURL(repo, c)

	data, err := cl.fetch(ctx, u)
	if err != nil {
		return nil, err
	}

	versions, err := ParseMetadata(bytes.NewReader(data))
	if err != nil {
		return nil, errors.WrapWithContext(err, errors.CodeInvalidInput,
			"malformed repository metadata", map[string]interface{}{"url": u})
	}

	cl.logger.Debug("listed versions",
		"coordinate", c.String(),
		"repository", repo,
		"count", len(versions))
	return versions, nil
}

// Descriptor fetches and parses the descriptor of one version, typically
// with typ "pom".
func (cl *Client) Descriptor(ctx context.Context, c Coordinate, version, repo, typ string) (*Project, error) {
	u := ArtifactURL(repo, c, version, typ)

	data, err := cl.fetch(ctx, u)
	if err != nil {
		return nil, err
	}

	project, err := ParseDescriptor(bytes.NewReader(data))
	if err != nil {
		return nil, errors.WrapWithContext(err, errors.CodeInvalidInput,
			"malformed descriptor", map[string]interface{}{"url": u})
	}
	project.URL = u
	return project, nil
}

// fetch returns the body of rawURL. Missing resources are reported with
// CodeNotFound, everything else with CodeNetwork or CodeTimeout.
func (cl *Client) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeInvalidInput, "invalid repository URL %q", rawURL)
	}

	switch u.Scheme {
	case "file":
		return cl.readFile(ctx, u)
	case "http", "https":
		return cl.get(ctx, rawURL)
	default:
		return nil, errors.Newf(errors.CodeInvalidInput, "unsupported repository URL scheme %q in %s", u.Scheme, rawURL)
	}
}

func (cl *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeInvalidInput, "invalid request for %s", rawURL)
	}

	resp, err := cl.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, transportCode(ctx, err), "GET %s", rawURL)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, errors.Newf(errors.CodeNotFound, "%s: HTTP %d", rawURL, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, errors.Newf(errors.CodeRateLimit, "%s: HTTP %d", rawURL, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, errors.Newf(errors.CodeNetwork, "%s: HTTP %d", rawURL, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxDocumentSize+1))
	if err != nil {
		return nil, errors.Wrapf(err, transportCode(ctx, err), "reading %s", rawURL)
	}
	if len(data) > MaxDocumentSize {
		return nil, errors.Newf(errors.CodeInvalidInput, "%s exceeds %d bytes", rawURL, MaxDocumentSize)
	}
	return data, nil
}

func (cl *Client) readFile(ctx context.Context, u *url.URL) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeTimeout, "repository read cancelled")
	}

	f, err := cl.fs.Open(u.Path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) || os.IsNotExist(err) {
			return nil, errors.Newf(errors.CodeNotFound, "%s does not exist", u.String())
		}
		return nil, errors.Wrapf(err, errors.CodeNetwork, "opening %s", u.String())
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, MaxDocumentSize+1))
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeNetwork, "reading %s", u.String())
	}
	if len(data) > MaxDocumentSize {
		return nil, errors.Newf(errors.CodeInvalidInput, "%s exceeds %d bytes", u.String(), MaxDocumentSize)
	}
	return data, nil
}

// transportCode classifies a failed request.
func transportCode(ctx context.Context, err error) errors.ErrorCode {
	if stderrors.Is(ctx.Err(), context.DeadlineExceeded) || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.CodeTimeout
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return errors.CodeTimeout
	}
	return errors.CodeNetwork
}

// Project holds the parts of a descriptor the resolver inspects.
type Project struct {
	// URL is where the descriptor was read from.
	URL string

	// SCMs lists every scm element of the document, at any depth.
	SCMs []SCM
}

// SCM lists the url and tag elements found anywhere inside one scm element.
type SCM struct {
	URLs []string
	Tags []string
}

// ParseMetadata returns the text of every version element inside the single
// versions element of a maven-metadata.xml document.
func ParseMetadata(r io.Reader) ([]string, error) {
	root, err := parseDocument(r)
	if err != nil {
		return nil, err
	}

	versionsEs := root.find("versions")
	if len(versionsEs) != 1 {
		return nil, fmt.Errorf("expected exactly one <versions> element, found %d", len(versionsEs))
	}

	var versions []string
	for _, v := range versionsEs[0].findBelow("version") {
		if s := v.content(); s != "" {
			versions = append(versions, s)
		}
	}
	return versions, nil
}

// ParseDescriptor extracts the scm sections of a project descriptor. The url
// and tag texts are kept as written, so a padded tag is not a commit hash.
func ParseDescriptor(r io.Reader) (*Project, error) {
	root, err := parseDocument(r)
	if err != nil {
		return nil, err
	}

	project := &Project{}
	for _, scmE := range root.find("scm") {
		var scm SCM
		for _, u := range scmE.findBelow("url") {
			scm.URLs = append(scm.URLs, u.textContent())
		}
		for _, t := range scmE.findBelow("tag") {
			scm.Tags = append(scm.Tags, t.textContent())
		}
		project.SCMs = append(project.SCMs, scm)
	}
	return project, nil
}

// String renders a short description for logs.
func (p *Project) String() string {
	var b strings.Builder
	b.WriteString(p.URL)
	for _, scm := range p.SCMs {
		fmt.Fprintf(&b, " scm(url=%v, tag=%v)", scm.URLs, scm.Tags)
	}
	return b.String()
}
