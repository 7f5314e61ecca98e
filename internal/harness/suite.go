package harness

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/staywright/internal/browser"
	"github.com/xkilldash9x/staywright/internal/config"
	"github.com/xkilldash9x/staywright/internal/fixture"
)

// StorageStatePath is where the saved login state lives, relative to the
// suite root.
var StorageStatePath = filepath.Join(".auth", "state.json")

// videoScratchDir holds recordings until teardown saves or deletes them.
const videoScratchDir = ".video"

// Launcher provides browsers to the suite.
type Launcher interface {
	Browser(ctx context.Context, kind config.Browser) (browser.Browser, error)
	Device(ctx context.Context, name string) (browser.ContextOptions, error)
	Shutdown(ctx context.Context) error
}

// Suite is the state shared by every test of one test binary run.
type Suite struct {
	cfg       *config.RunConfiguration
	opts      *Options
	launcher  Launcher
	logger    *zap.Logger
	outputDir string
	runID     string
	started   time.Time
	now       func() time.Time

	mu      sync.Mutex
	results []Result
}

var current atomic.Pointer[Suite]

// Current returns the suite installed by Main, or nil.
func Current() *Suite { return current.Load() }

func setCurrent(s *Suite) { current.Store(s) }

// NewSuite prepares a suite. Artifacts go to opts.Output, or to the reports
// folder of cfg when the binary was started without one.
func NewSuite(cfg *config.RunConfiguration, opts *Options, launcher Launcher, logger *zap.Logger, now func() time.Time) *Suite {
	if now == nil {
		now = time.Now
	}
	out := opts.Output
	if out == "" {
		out = cfg.ReportsFolderPattern()
	}
	return &Suite{
		cfg:       cfg,
		opts:      opts,
		launcher:  launcher,
		logger:    logger.Named("suite"),
		outputDir: out,
		runID:     uuid.NewString(),
		started:   now(),
		now:       now,
	}
}

// Config is the validated run configuration.
func (s *Suite) Config() *config.RunConfiguration { return s.cfg }

// OutputDir is the artifact root of this run.
func (s *Suite) OutputDir() string { return s.outputDir }

// Settings derives the per-session settings from the configuration.
func (s *Suite) Settings() fixture.Settings {
	return fixture.Settings{
		OutputDir:            s.outputDir,
		RootFolder:           s.cfg.RootFolder(),
		Tracing:              s.cfg.Tracing(),
		Video:                s.cfg.Video(),
		Screenshot:           s.cfg.Screenshot(),
		FullPageScreenshot:   s.cfg.FullPageScreenshot(),
		Viewport:             s.cfg.Viewport(),
		IgnoreHTTPSErrors:    s.cfg.IgnoreHTTPSErrors(),
		ClipboardPermissions: s.cfg.ClipboardPermissions(),
		DefaultTimeout:       time.Duration(s.cfg.DefaultTimeoutMs()) * time.Millisecond,
		NavigationTimeout:    time.Duration(s.cfg.NavigationTimeoutMs()) * time.Millisecond,
	}
}

// contextOptions returns the suite-wide context defaults: the base URL, the
// video scratch directory, the emulated device and the saved login state.
func (s *Suite) contextOptions(ctx context.Context) (browser.ContextOptions, error) {
	base := browser.ContextOptions{}
	if name := s.cfg.Device(); name != "" {
		d, err := s.launcher.Device(ctx, name)
		if err != nil {
			return browser.ContextOptions{}, err
		}
		base = d
	}
	base.BaseURL = s.cfg.BaseURL()
	base.RecordVideoDir = filepath.Join(s.outputDir, videoScratchDir)

	if s.cfg.UseStorageState() {
		path := filepath.Join(s.cfg.RootFolder(), StorageStatePath)
		if _, err := os.Stat(path); err == nil {
			base = base.Apply(browser.WithStorageState(path))
		} else {
			s.logger.Warn("Storage state requested but not found; starting logged out.", zap.String("path", path))
		}
	}
	return base, nil
}

func (s *Suite) record(r Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, r)
}

// Results returns the recorded results in completion order.
func (s *Suite) Results() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Result(nil), s.results...)
}

// Finish shuts the browsers down and writes the requested reports.
func (s *Suite) Finish(ctx context.Context, exitCode int) error {
	var errs []error
	if err := s.launcher.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("browser shutdown: %w", err))
	}

	results := s.Results()
	report := Report{
		RunID:    s.runID,
		Created:  float64(s.started.UnixNano()) / 1e9,
		Duration: s.now().Sub(s.started).Seconds(),
		ExitCode: exitCode,
		Root:     s.cfg.RootFolder(),
		Summary:  summarize(results),
		Tests:    results,
	}
	if s.opts.JSONReport && s.opts.JSONReportFile != "" {
		if err := WriteJSON(s.opts.JSONReportFile, report, s.opts.JSONReportIndent); err != nil {
			errs = append(errs, err)
		}
	}
	if s.opts.JUnitXML != "" {
		if err := WriteJUnit(s.opts.JUnitXML, report, s.started); err != nil {
			errs = append(errs, err)
		}
	}
	_ = os.RemoveAll(filepath.Join(s.outputDir, videoScratchDir))

	s.logger.Info("Test run finished.",
		zap.String("run_id", s.runID),
		zap.Int("passed", report.Summary.Passed),
		zap.Int("failed", report.Summary.Failed+report.Summary.Unknown),
		zap.String("output", s.outputDir),
	)
	return errors.Join(errs...)
}
