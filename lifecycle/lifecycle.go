// Package lifecycle runs build extensions around one build invocation.
//
// Extensions are registered explicitly with a Registry together with the
// capability they provide. The registry drives them through the build:
//
//	reg := lifecycle.NewRegistry()
//	reg.Register(ext)
//	reg.Start(ctx, session)        // after the session starts
//	reg.ProjectsRead(ctx, session) // after the projects were read
//	reg.Close()
//
// A registry serves a single invocation and is discarded afterwards.
package lifecycle

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/jenkinsci/incrementals-tools/errors"
	"github.com/jenkinsci/incrementals-tools/version"
)

// Session is the state of one build invocation shared with extensions.
type Session struct {
	// Dir is the top-level project directory.
	Dir string

	// Properties are the user properties of the build. Extensions may add
	// to them during Start.
	Properties map[string]string

	// Projects are the projects of the build, available to ProjectsRead.
	Projects []Project
}

// NewSession creates a session rooted at dir.
func NewSession(dir string, props map[string]string) *Session {
	if props == nil {
		props = map[string]string{}
	}
	return &Session{Dir: dir, Properties: props}
}

// Property returns a property value and whether it is set.
func (s *Session) Property(name string) (string, bool) {
	v, ok := s.Properties[name]
	return v, ok
}

// Flag reports whether a property is set to "true".
func (s *Session) Flag(name string) bool {
	return s.Properties[name] == "true"
}

// Project is one project of a build.
type Project struct {
	ID      string
	Version string
}

// Capability identifies an extension and its version.
type Capability struct {
	Name    string
	Version string
}

func (c Capability) String() string {
	return c.Name + ":" + c.Version
}

// Participant is a build extension.
type Participant interface {
	Capability() Capability
	AfterSessionStart(ctx context.Context, s *Session) error
	AfterProjectsRead(ctx context.Context, s *Session) error
}

type state int

const (
	stateNew state = iota
	stateStarted
	stateClosed
)

// Registry holds the participants of one build invocation.
type Registry struct {
	mu           sync.Mutex
	participants []Participant
	byName       map[string]Capability
	state        state
	logger       *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		byName: map[string]Capability{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a participant. Names must be unique and registration is
// only possible before Start.
func (r *Registry) Register(p Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != stateNew {
		return errors.New(errors.CodeInternal, "cannot register participants after the build started")
	}

	c := p.Capability()
	if strings.TrimSpace(c.Name) == "" {
		return errors.New(errors.CodeInvalidInput, "participant name cannot be empty")
	}
	if _, ok := r.byName[c.Name]; ok {
		return errors.Newf(errors.CodeInvalidInput, "participant %q is already registered", c.Name)
	}

	r.byName[c.Name] = c
	r.participants = append(r.participants, p)
	r.logger.Debug("registered participant", "name", c.Name, "version", c.Version)
	return nil
}

// Lookup returns the capability registered under name.
func (r *Registry) Lookup(name string) (Capability, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byName[name]
	return c, ok
}

// Capabilities returns all registered capabilities sorted by name.
func (r *Registry) Capabilities() []Capability {
	r.mu.Lock()
	defer r.mu.Unlock()

	caps := make([]Capability, 0, len(r.byName))
	for _, c := range r.byName {
		caps = append(caps, c)
	}
	sort.Slice(caps, func(i, j int) bool { return caps[i].Name < caps[j].Name })
	return caps
}

// Start runs AfterSessionStart on every participant in registration order
// and stops at the first error.
func (r *Registry) Start(ctx context.Context, s *Session) error {
	participants, err := r.transition(stateNew, stateStarted, "start")
	if err != nil {
		return err
	}

	for _, p := range participants {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.AfterSessionStart(ctx, s); err != nil {
			return errors.Wrapf(err, errors.CodeOf(err), "%s failed after session start", p.Capability().Name)
		}
	}
	return nil
}

// ProjectsRead runs AfterProjectsRead on every participant in registration
// order and stops at the first error.
func (r *Registry) ProjectsRead(ctx context.Context, s *Session) error {
	r.mu.Lock()
	if r.state != stateStarted {
		r.mu.Unlock()
		return errors.New(errors.CodeInternal, "projects read before the build started")
	}
	participants := append([]Participant(nil), r.participants...)
	r.mu.Unlock()

	for _, p := range participants {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.AfterProjectsRead(ctx, s); err != nil {
			return errors.Wrapf(err, errors.CodeOf(err), "%s failed after projects were read", p.Capability().Name)
		}
	}
	return nil
}

// Close releases participants that implement io.Closer, in reverse
// registration order. Closing twice is a no-op.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.state == stateClosed {
		r.mu.Unlock()
		return nil
	}
	r.state = stateClosed
	participants := r.participants
	r.participants = nil
	r.mu.Unlock()

	var first error
	for i := len(participants) - 1; i >= 0; i-- {
		closer, ok := participants[i].(io.Closer)
		if !ok {
			continue
		}
		if err := closer.Close(); err != nil {
			r.logger.Warn("failed to close participant", "name", participants[i].Capability().Name, "error", err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

func (r *Registry) transition(from, to state, op string) ([]Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != from {
		return nil, errors.Newf(errors.CodeInternal, "cannot %s the build twice or after close", op)
	}
	r.state = to
	return append([]Participant(nil), r.participants...), nil
}

// RequireExtensionVersion checks that the extension registered under name,
// if any, has a version allowed by spec. A bare version in spec is a
// minimum. A missing extension passes.
func RequireExtensionVersion(reg *Registry, name, spec string) error {
	if strings.TrimSpace(spec) == "" {
		return errors.Newf(errors.CodeInvalidConfig, "%s version can't be empty", name)
	}

	c, ok := reg.Lookup(name)
	if !ok {
		return nil
	}
	if c.Version == spec {
		return nil
	}

	r, err := version.ParseRange(spec)
	if err != nil {
		return errors.Wrapf(err, errors.CodeInvalidConfig, "the requested %s version %s is invalid", name, spec)
	}
	if !r.Contains(version.Parse(c.Version)) {
		return errors.Newf(errors.CodeInvalidInput, "detected %s version %s is not in the allowed range %s", name, c.Version, r)
	}
	return nil
}
