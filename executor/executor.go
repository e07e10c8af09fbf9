// Package executor runs external programs such as the git CLI, capturing
// their output and translating failures into coded errors.
package executor

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/jenkinsci/incrementals-tools/errors"
)

// Result holds the captured output of a finished command.
type Result struct {
	Stdout   []byte
	Stderr   string
	ExitCode int
}

// Executor runs a command and returns its captured output.
type Executor interface {
	Execute(ctx context.Context, args []string, opts ...Option) (*Result, error)
}

// Options configures a single execution.
type Options struct {
	// WorkingDir is the directory the command runs in.
	WorkingDir string

	// Env is appended to the current environment.
	Env map[string]string

	Logger *slog.Logger
}

// Option modifies Options.
type Option func(*Options)

// DefaultOptions returns the options used when none are given.
func DefaultOptions() *Options {
	return &Options{
		Env:    make(map[string]string),
		Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})),
	}
}

// ProgramExecutor runs a fixed program with varying arguments.
type ProgramExecutor struct {
	program string
	options *Options
}

// New creates an executor for program.
func New(program string, opts ...Option) *ProgramExecutor {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	return &ProgramExecutor{program: program, options: options}
}

// Program returns the program this executor runs.
func (p *ProgramExecutor) Program() string {
	return p.program
}

// Execute runs the program with args. A non-zero exit is reported as a
// CodeExecutionFailed error carrying the exit code and stderr; the partial
// Result is returned alongside it.
func (p *ProgramExecutor) Execute(ctx context.Context, args []string, opts ...Option) (*Result, error) {
	options := p.mergeOptions(opts...)

	start := time.Now()
	result, err := p.executeOnce(ctx, args, options)
	options.Logger.Debug("ran command",
		"program", p.program,
		"args", args,
		"exit", result.ExitCode,
		"elapsed", time.Since(start))
	return result, err
}

func (p *ProgramExecutor) executeOnce(ctx context.Context, args []string, options *Options) (*Result, error) {
	cmd := exec.CommandContext(ctx, p.program, args...)
	if options.WorkingDir != "" {
		cmd.Dir = options.WorkingDir
	}
	if len(options.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range options.Env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
		}
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	result := &Result{
		Stdout: stdout.Bytes(),
		Stderr: stderr.String(),
	}
	if runErr == nil {
		return result, nil
	}

	var exitErr *exec.ExitError
	if stderrors.As(runErr, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
	} else {
		result.ExitCode = -1
	}

	return result, errors.WrapWithContext(runErr, errors.CodeExecutionFailed,
		fmt.Sprintf("%s %s failed", p.program, strings.Join(args, " ")),
		map[string]interface{}{
			"exit":   result.ExitCode,
			"stderr": strings.TrimSpace(result.Stderr),
		})
}

func (p *ProgramExecutor) mergeOptions(opts ...Option) *Options {
	merged := *p.options
	merged.Env = make(map[string]string, len(p.options.Env))
	for k, v := range p.options.Env {
		merged.Env[k] = v
	}
	for _, opt := range opts {
		opt(&merged)
	}
	return &merged
}

// WithWorkingDir sets the working directory.
func WithWorkingDir(dir string) Option {
	return func(o *Options) {
		o.WorkingDir = dir
	}
}

// WithEnvVar adds a single environment variable.
func WithEnvVar(key, value string) Option {
	return func(o *Options) {
		if o.Env == nil {
			o.Env = make(map[string]string)
		}
		o.Env[key] = value
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		if logger != nil {
			o.Logger = logger
		}
	}
}
