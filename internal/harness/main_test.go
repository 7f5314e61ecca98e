package harness

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/staywright/internal/cliargs"
	"github.com/xkilldash9x/staywright/internal/config"
	"github.com/xkilldash9x/staywright/internal/observability"
)

type fakeRunner struct {
	code int
	seen *Suite
}

func (f *fakeRunner) Run() int {
	f.seen = Current()
	return f.code
}

func TestRun_InstallsSuiteAndWritesReports(t *testing.T) {
	observability.ResetForTest()
	t.Cleanup(observability.ResetForTest)

	cfg := testConfig(t, nil)
	now := time.Date(2026, time.October, 19, 16, 45, 0, 0, time.UTC)
	argv := append([]string{"/tmp/e2e.test", "-test.v=true", "--"}, cliargs.Compile(cfg, "TestA", now)...)
	launcher := newFakeLauncher()
	runner := &fakeRunner{code: 1}
	var stderr bytes.Buffer

	code := run(runner, argv, &stderr, func(*config.RunConfiguration, *zap.Logger) Launcher { return launcher })

	assert.Equal(t, 1, code)
	assert.Empty(t, stderr.String())
	require.NotNil(t, runner.seen)
	assert.Equal(t, cliargs.ReportsFolder(cfg, "TestA", now), runner.seen.OutputDir())
	assert.Nil(t, Current())
	assert.Equal(t, 1, launcher.shutdowns)

	out := cliargs.ReportsFolder(cfg, "TestA", now)
	_, err := os.Stat(filepath.Join(out, cliargs.JSONReportName))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(out, cliargs.JUnitReportName))
	assert.NoError(t, err)
}

func TestRun_RejectsInvalidArguments(t *testing.T) {
	var stderr bytes.Buffer
	runner := &fakeRunner{}

	code := run(runner, []string{"/tmp/e2e.test", "--", "--base-url", "http://insecure.example"}, &stderr,
		func(*config.RunConfiguration, *zap.Logger) Launcher { return newFakeLauncher() })

	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), "https")
	assert.Nil(t, runner.seen)
}

func TestResolve_DebuggerArgsLoadTheConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.FileName)
	require.NoError(t, config.WriteTemplate(path))
	t.Setenv(EnvConfig, path)

	_, cfg, err := resolve([]string{"bin", "--", "--use-debugger-args", "--base-url", "https://ignored.example"}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "https://localhost", cfg.BaseURL())
	assert.Equal(t, config.LogDebug, cfg.LogLevel())
	assert.Equal(t, config.RecordingOff, cfg.Tracing())
	assert.Equal(t, config.RecordingOff, cfg.Video())
	assert.Equal(t, config.ScreenshotOff, cfg.Screenshot())
	assert.Equal(t, config.Viewport{Width: 1600, Height: 900}, cfg.Viewport())
}

func TestResolve_WithoutSentinelCompilesTheConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.FileName)
	require.NoError(t, config.WriteTemplate(path))
	t.Setenv(EnvConfig, path)
	now := time.Date(2026, time.October, 19, 7, 0, 0, 0, time.UTC)

	opts, cfg, err := resolve([]string{"bin", "-test.run=TestA"}, now)
	require.NoError(t, err)
	assert.Equal(t, "https://localhost", cfg.BaseURL())
	assert.Contains(t, opts.Output, adhocLabel+"-19-10-2026_07-00-00")
}
