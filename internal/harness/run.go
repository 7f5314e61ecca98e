package harness

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/staywright/internal/browser"
	"github.com/xkilldash9x/staywright/internal/config"
	"github.com/xkilldash9x/staywright/internal/fixture"
	"github.com/xkilldash9x/staywright/internal/site"
)

// T is what setup hooks and test bodies work with.
type T struct {
	*testing.T
	Config  *config.RunConfiguration
	Session *fixture.Session
	Page    browser.Page
	Site    *site.Site
	Logger  *zap.Logger
}

// Hook prepares the page before the body runs. An error fails the test and
// files its artifacts under the setup folder.
type Hook func(*T) error

// Run executes body once per configured browser as subtests named after the
// browser. Each run gets a fresh session whose recordings are kept or
// dropped according to the artifact policy once the body has finished.
func Run(t *testing.T, setup Hook, body func(*T), overrides ...browser.ContextOption) {
	t.Helper()
	s := Current()
	if s == nil {
		t.Fatal("harness: no suite installed; call harness.Main from TestMain")
	}
	_, file, _, _ := runtime.Caller(1)
	s.Run(t, file, setup, body, overrides...)
}

// Run is the suite-bound form of the package-level Run; file is the source
// file declaring the test.
func (s *Suite) Run(t *testing.T, file string, setup Hook, body func(*T), overrides ...browser.ContextOption) {
	t.Helper()
	for _, kind := range s.cfg.Browsers() {
		t.Run(kind.String(), func(t *testing.T) {
			if s.cfg.Workers() > 1 {
				t.Parallel()
			}
			s.runOne(t, kind, file, setup, body, overrides)
		})
	}
}

// outcomeOf classifies a finished body. A body that neither returned nor
// failed nor skipped panicked or exited the goroutine some other way.
func outcomeOf(failed, skipped, returned bool) fixture.Outcome {
	switch {
	case failed:
		return fixture.OutcomeFailed
	case returned || skipped:
		return fixture.OutcomePassed
	default:
		return fixture.OutcomeUnknown
	}
}

// Open launches the browser of the given kind and opens a session on it
// with the suite-wide context options.
func (s *Suite) Open(ctx context.Context, kind config.Browser, id fixture.Identity, overrides ...browser.ContextOption) (*fixture.Session, error) {
	b, err := s.launcher.Browser(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("launching %s: %w", kind, err)
	}
	base, err := s.contextOptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("preparing context options: %w", err)
	}
	return fixture.Setup(b, base, s.Settings(), id, s.logger, overrides...)
}

func (s *Suite) runOne(t *testing.T, kind config.Browser, file string, setup Hook, body func(*T), overrides []browser.ContextOption) {
	sess, err := s.Open(t.Context(), kind, fixture.Identity{File: file, Name: t.Name()}, overrides...)
	if err != nil {
		t.Fatalf("opening session: %v", err)
	}

	start := s.now()
	var (
		returned bool
		setupErr error
	)
	// A panicking body is reported as a test error so the remaining tests
	// still run and the reports get written.
	defer func() {
		r := recover()
		in := fixture.TeardownInput{Outcome: outcomeOf(t.Failed(), t.Skipped(), returned)}
		if setupErr != nil {
			failed := fixture.OutcomeFailed
			in.SetupOverride = &failed
		}
		report, err := sess.Teardown(in)
		if err != nil {
			t.Errorf("teardown: %v", err)
		}
		s.record(s.result(t, kind, file, in, report, start, setupErr))
		if r != nil {
			t.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()

	tt := &T{T: t, Config: s.cfg, Session: sess, Logger: s.logger.With(zap.String("test", t.Name()))}
	if tt.Page, setupErr = sess.NewPage(); setupErr != nil {
		t.Fatalf("setup failed: %v", setupErr)
	}
	if tt.Site, setupErr = site.New(tt.Page, s.cfg.BaseURL(), tt.Logger); setupErr != nil {
		t.Fatalf("setup failed: %v", setupErr)
	}
	if setup != nil {
		if setupErr = setup(tt); setupErr != nil {
			t.Fatalf("setup failed: %v", setupErr)
		}
	}
	body(tt)
	returned = true
}

func (s *Suite) result(t *testing.T, kind config.Browser, file string, in fixture.TeardownInput, report fixture.TeardownReport, start time.Time, setupErr error) Result {
	rel, err := filepath.Rel(s.cfg.RootFolder(), file)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(file)
	}
	outcome := in.Outcome
	if in.SetupOverride != nil {
		outcome = *in.SetupOverride
	}
	r := Result{
		NodeID:    filepath.ToSlash(rel) + "::" + t.Name(),
		Package:   fixture.DottedPath(s.cfg.RootFolder(), file),
		Name:      t.Name(),
		Browser:   kind.String(),
		Outcome:   outcome.String(),
		Duration:  s.now().Sub(start).Seconds(),
		Folder:    report.Folder,
		Artifacts: report.Persisted,
	}
	for _, e := range report.Swallowed {
		r.CaptureErrors = append(r.CaptureErrors, e.Error())
	}
	if setupErr != nil {
		r.Message = "setup failed: " + setupErr.Error()
	}
	return r
}
