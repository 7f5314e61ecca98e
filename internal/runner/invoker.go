package runner

import (
	"context"
	"fmt"
	"io"

	"github.com/bitrise-io/go-utils/v2/command"
	"github.com/bitrise-io/go-utils/v2/env"
	"go.uber.org/zap"
)

// Invocation is one external runner process.
type Invocation struct {
	Target string
	Name   string
	Args   []string
	Dir    string
}

// Argv is the full command line.
func (i Invocation) Argv() []string { return append([]string{i.Name}, i.Args...) }

// Invoker starts the external runner and waits for it. A non-zero exit code
// is not an error; err is only set when the process could not run.
type Invoker interface {
	Invoke(ctx context.Context, inv Invocation) (exitCode int, err error)
}

// ExecInvoker runs invocations as child processes that inherit the
// environment.
type ExecInvoker struct {
	factory command.Factory
	stdout  io.Writer
	stderr  io.Writer
	logger  *zap.Logger
}

// NewExecInvoker streams the runner output to stdout and stderr.
func NewExecInvoker(stdout, stderr io.Writer, logger *zap.Logger) *ExecInvoker {
	return &ExecInvoker{
		factory: command.NewFactory(env.NewRepository()),
		stdout:  stdout,
		stderr:  stderr,
		logger:  logger.Named("invoker"),
	}
}

// Invoke implements Invoker. The context is checked before the process
// starts; a running process is not interrupted.
func (e *ExecInvoker) Invoke(ctx context.Context, inv Invocation) (int, error) {
	if err := ctx.Err(); err != nil {
		return -1, err
	}
	cmd := e.factory.Create(inv.Name, inv.Args, &command.Opts{
		Stdout: e.stdout,
		Stderr: e.stderr,
		Dir:    inv.Dir,
	})
	e.logger.Debug("Starting runner process.", zap.String("dir", inv.Dir))
	code, err := cmd.RunAndReturnExitCode()
	if err != nil {
		if code > 0 {
			return code, nil
		}
		return code, fmt.Errorf("runner %q did not run: %w", inv.Name, err)
	}
	return code, nil
}
