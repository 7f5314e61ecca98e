// Package harness is the test-binary side of a run: it turns the compiled
// arguments back into a configuration, gives every test an isolated browser
// session and writes the JSON and JUnit reports once the tests are done.
package harness

import (
	"context"
	"flag"
	"fmt"
	"io"
	"maps"
	"os"
	"strconv"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/staywright/internal/browser"
	"github.com/xkilldash9x/staywright/internal/cliargs"
	"github.com/xkilldash9x/staywright/internal/config"
	"github.com/xkilldash9x/staywright/internal/observability"
)

const (
	// EnvConfig points at the configuration file when the binary runs
	// without compiled arguments.
	EnvConfig = "STAYWRIGHT_CONFIG"
	// EnvInstall makes the browser manager download missing engines.
	EnvInstall = "STAYWRIGHT_INSTALL"

	finishTimeout = time.Minute
	adhocLabel    = "go-test"
)

// debuggerOverrides are forced over the configuration file in debugger mode.
var debuggerOverrides = map[string]any{
	"viewport.width":  1600,
	"viewport.height": 900,
	"log_level":       string(config.LogDebug),
	"tracing":         string(config.RecordingOff),
	"video":           string(config.RecordingOff),
	"screenshot":      string(config.ScreenshotOff),
}

// DebuggerOverrides returns the configuration values forced in debugger
// mode, keyed the way the configuration file spells them.
func DebuggerOverrides() map[string]any {
	return maps.Clone(debuggerOverrides)
}

type testRunner interface {
	Run() int
}

// Main runs the tests of m. Call it from TestMain.
func Main(m *testing.M) {
	os.Exit(run(m, os.Args, os.Stderr, newManager))
}

type launcherFactory func(cfg *config.RunConfiguration, logger *zap.Logger) Launcher

func newManager(cfg *config.RunConfiguration, logger *zap.Logger) Launcher {
	return browser.NewManager(browser.LaunchOptions{
		Headed:  cfg.Headed(),
		Channel: cfg.Channel(),
		Install: os.Getenv(EnvInstall) != "",
		Kinds:   cfg.Browsers(),
	}, logger)
}

func configPath() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	if p, ok := config.Locate("."); ok {
		return p
	}
	return ""
}

// resolve produces the options and the validated configuration. Without a
// sentinel the configuration file is compiled the same way the CLI does it.
func resolve(argv []string, now time.Time) (*Options, *config.RunConfiguration, error) {
	args, ok := sentinelArgs(argv)
	if !ok {
		cfg, err := config.Load(configPath())
		if err != nil {
			return nil, nil, err
		}
		args = cliargs.Compile(cfg, adhocLabel, now)
	}
	opts, err := ParseArgs(args)
	if err != nil {
		return nil, nil, err
	}
	if opts.UseDebuggerArgs {
		cfg, err := config.LoadWith(configPath(), DebuggerOverrides())
		if err != nil {
			return nil, nil, err
		}
		return opts, cfg, nil
	}
	cfg, err := config.New(opts.Spec)
	if err != nil {
		return nil, nil, err
	}
	return opts, cfg, nil
}

func run(m testRunner, argv []string, stderr io.Writer, launch launcherFactory) int {
	if !flag.Parsed() {
		flag.Parse()
	}
	opts, cfg, err := resolve(argv, time.Now())
	if err != nil {
		fmt.Fprintln(stderr, "staywright:", err)
		return 2
	}

	observability.InitializeLogger(observability.WithLevel(loggerConfig(cfg), cfg.LogLevel()))
	defer observability.Sync()
	logger := observability.GetLogger().Named("harness")

	if cfg.Workers() > 1 {
		if err := flag.Set("test.parallel", strconv.Itoa(cfg.Workers())); err != nil {
			logger.Warn("Could not set test parallelism.", zap.Error(err))
		}
	}

	suite := NewSuite(cfg, opts, launch(cfg, logger), logger, nil)
	setCurrent(suite)
	defer setCurrent(nil)
	logger.Info("Test run started.",
		zap.String("run_id", suite.runID),
		zap.Strings("browsers", browserNames(cfg)),
		zap.String("output", suite.OutputDir()),
		zap.Bool("debugger", opts.UseDebuggerArgs),
	)

	code := m.Run()

	ctx, cancel := context.WithTimeout(context.Background(), finishTimeout)
	defer cancel()
	if err := suite.Finish(ctx, code); err != nil {
		logger.Error("Failed to finish the test run.", zap.Error(err))
		if code == 0 {
			code = 1
		}
	}
	return code
}

// loggerConfig is the logger configuration of the configuration file, or the
// console defaults when the configuration came from flags only.
func loggerConfig(cfg *config.RunConfiguration) config.LoggerConfig {
	lc := cfg.Logger()
	if lc.Format == "" {
		lc.Format = "console"
	}
	if lc.ServiceName == "" {
		lc.ServiceName = "staywright"
	}
	return lc
}

func browserNames(cfg *config.RunConfiguration) []string {
	var out []string
	for _, b := range cfg.Browsers() {
		out = append(out, b.String())
	}
	return out
}
