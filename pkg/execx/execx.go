// Package execx wraps external command execution behind a small Runner
// interface with a synchronous and an asynchronous variant. The rest of
// the application shells out through it, which keeps git and other
// subprocesses mockable in tests.
package execx

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
)

// Result captures the outcome of one command execution.
type Result struct {
	Cmd      string
	Args     []string
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success reports whether the command exited zero.
func (r *Result) Success() bool { return r.ExitCode == 0 }

// CommandLine renders the executed command for diagnostics.
func (r *Result) CommandLine() string {
	return strings.Join(append([]string{r.Cmd}, r.Args...), " ")
}

// Runner executes external commands.
//
// Run blocks until completion and yields the captured result; a non-zero
// exit is reported through Result.ExitCode, not the error. The error is
// reserved for failures to run at all (binary missing, context canceled
// before start).
//
// Start returns immediately and invokes done later with the same result
// shape, without blocking the caller.
type Runner interface {
	Run(ctx context.Context, dir string, name string, args ...string) (*Result, error)
	Start(ctx context.Context, dir string, name string, args []string, done func(*Result, error))
}

// Local runs commands on the local system via os/exec.
type Local struct {
	// Env, when non-nil, replaces the child's environment.
	Env []string
}

// NewLocal creates a Runner that inherits the parent environment.
func NewLocal() *Local { return &Local{} }

// Run executes the command in dir (empty for the current directory) and
// blocks until it finishes.
func (l *Local) Run(ctx context.Context, dir string, name string, args ...string) (*Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if l.Env != nil {
		cmd.Env = l.Env
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	res := &Result{Cmd: name, Args: args}
	err := cmd.Run()
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, err
	}
	return res, nil
}

// Start executes the command in a separate goroutine and calls done on
// completion.
func (l *Local) Start(ctx context.Context, dir string, name string, args []string, done func(*Result, error)) {
	go func() {
		done(l.Run(ctx, dir, name, args...))
	}()
}
