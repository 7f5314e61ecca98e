// Package runner invokes the external test runner once per test target with
// the compiled command line.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
	"go.uber.org/zap"

	"github.com/xkilldash9x/staywright/internal/cliargs"
	"github.com/xkilldash9x/staywright/internal/config"
)

// ErrTestsFailed is returned when at least one runner invocation exited
// with a non-zero status.
var ErrTestsFailed = errors.New("tests failed")

// argsSentinel separates runner flags from the flags the test binary parses.
const argsSentinel = "-args"

// Driver runs test targets sequentially.
type Driver struct {
	cfg     *config.RunConfiguration
	invoker Invoker
	out     io.Writer
	logger  *zap.Logger
	now     func() time.Time
}

// Option customizes a Driver.
type Option func(*Driver)

// WithOutput redirects the argument banner. The default is stdout.
func WithOutput(w io.Writer) Option { return func(d *Driver) { d.out = w } }

// WithClock replaces the clock used to stamp report folders.
func WithClock(now func() time.Time) Option { return func(d *Driver) { d.now = now } }

// NewDriver builds a driver for cfg.
func NewDriver(cfg *config.RunConfiguration, invoker Invoker, logger *zap.Logger, opts ...Option) *Driver {
	d := &Driver{
		cfg:     cfg,
		invoker: invoker,
		out:     os.Stdout,
		logger:  logger.Named("driver"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type step struct {
	name      string
	base      []string
	selection []string
}

// plan validates every name of target and resolves its selection clause
// before anything is started.
func (d *Driver) plan(target Target) ([]step, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}
	rc := d.cfg.Runner()
	extra, err := shellquote.Split(rc.ExtraArgs)
	if err != nil {
		return nil, fmt.Errorf("%w: runner.extra_args: %v", config.ErrInvalid, err)
	}
	base, tags := rc.Args, []string(nil)
	if target.Strategy == ByMarker {
		base, tags = splitTags(rc.Args)
	}
	base = append(append([]string(nil), base...), extra...)

	steps := make([]step, 0, len(target.Names))
	for _, name := range target.Names {
		sel, err := selection(target.Strategy, name, d.cfg.RootFolder(), rc.Package, tags)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step{name: name, base: base, selection: sel})
	}
	return steps, nil
}

// invocation builds the runner command for one target name at time now.
func (d *Driver) invocation(s step, now time.Time) Invocation {
	args := append([]string(nil), s.base...)
	args = append(args, s.selection...)
	args = append(args, argsSentinel, "--")
	args = append(args, cliargs.Compile(d.cfg, s.name, now)...)
	return Invocation{
		Target: s.name,
		Name:   d.cfg.Runner().Executable,
		Args:   args,
		Dir:    d.cfg.RootFolder(),
	}
}

// Run invokes the runner once per name of target, in order. Failing tests do
// not stop the run; they make Run return ErrTestsFailed at the end. A runner
// that cannot be started aborts the run.
func (d *Driver) Run(ctx context.Context, target Target) error {
	steps, err := d.plan(target)
	if err != nil {
		return err
	}

	var failed []string
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		inv := d.invocation(s, d.now())
		printable := cliargs.Redact(inv.Argv())
		fmt.Fprint(d.out, Banner(printable))
		d.logger.Info("Invoking test runner.",
			zap.String("target", s.name),
			zap.String("strategy", string(target.Strategy)),
			zap.String("command", shellquote.Join(printable...)),
		)

		code, err := d.invoker.Invoke(ctx, inv)
		if err != nil {
			return fmt.Errorf("running target %q: %w", s.name, err)
		}
		if code != 0 {
			d.logger.Warn("Test target failed.", zap.String("target", s.name), zap.Int("exit_code", code))
			failed = append(failed, s.name)
			continue
		}
		d.logger.Info("Test target passed.", zap.String("target", s.name))
	}

	if len(failed) > 0 {
		return fmt.Errorf("%w: %s", ErrTestsFailed, strings.Join(failed, ", "))
	}
	return nil
}
