// File: internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validSpec returns a spec that passes validation; tests mutate copies of it.
func validSpec(t *testing.T) Spec {
	t.Helper()
	return Spec{
		BaseURL:    "https://www.airbnb.com/",
		Username:   "admin",
		Password:   "secret",
		LogLevel:   "INFO",
		Browsers:   []string{"chromium", "firefox"},
		Tracing:    "retain-on-failure",
		Video:      "off",
		Screenshot: "only-on-failure",
		Viewport:   ViewportSpec{Width: 1600, Height: 900},
		RootFolder: t.TempDir(),
	}
}

// -- Constructor and Defaults Tests --

func TestNew_AppliesDefaults(t *testing.T) {
	spec := validSpec(t)
	cfg, err := New(spec)
	require.NoError(t, err)

	assert.Equal(t, DefaultNavigationTimeout, cfg.NavigationTimeoutMs())
	assert.Equal(t, DefaultActionTimeout, cfg.DefaultTimeoutMs())
	assert.Equal(t, 1, cfg.Workers())
	assert.Equal(t, []Browser{Chromium, Firefox}, cfg.Browsers())
	assert.Equal(t, ChannelNone, cfg.Channel())
	assert.Equal(t, filepath.Join(spec.RootFolder, "reports", "test-report"), cfg.ReportsFolderPattern())
}

func TestNew_ReturnsDefensiveCopies(t *testing.T) {
	spec := validSpec(t)
	spec.Tests.Targets = []string{"TestA"}
	cfg, err := New(spec)
	require.NoError(t, err)

	spec.Tests.Targets[0] = "mutated"
	browsers := cfg.Browsers()
	browsers[0] = WebKit

	assert.Equal(t, []string{"TestA"}, cfg.Targets())
	assert.Equal(t, Chromium, cfg.Browsers()[0])
}

// -- Validation Logic Tests --

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Spec)
		errMsg string
	}{
		{"plain http base url", func(s *Spec) { s.BaseURL = "http://example.com" }, "must be an https:// URL"},
		{"base url without host", func(s *Spec) { s.BaseURL = "https://" }, "must be an https:// URL"},
		{"unknown log level", func(s *Spec) { s.LogLevel = "TRACE" }, "log level"},
		{"empty browser list", func(s *Spec) { s.Browsers = nil }, "at least one browser"},
		{"unknown browser", func(s *Spec) { s.Browsers = []string{"opera"} }, "browser \"opera\""},
		{"duplicate browser", func(s *Spec) { s.Browsers = []string{"webkit", "WebKit"} }, "more than once"},
		{"unknown channel", func(s *Spec) { s.BrowserChannel = "beta" }, "browser channel"},
		{"unknown tracing mode", func(s *Spec) { s.Tracing = "sometimes" }, "tracing"},
		{"video only-on-failure is screenshot vocabulary", func(s *Spec) { s.Video = "only-on-failure" }, "video"},
		{"screenshot retain-on-failure is recording vocabulary", func(s *Spec) { s.Screenshot = "retain-on-failure" }, "screenshot mode"},
		{"narrow viewport", func(s *Spec) { s.Viewport.Width = 99 }, "viewport"},
		{"short viewport", func(s *Spec) { s.Viewport.Height = 0 }, "viewport"},
		{"navigation timeout below minimum", func(s *Spec) { s.NavigationTimeout = 9999 }, "navigation_timeout"},
		{"default timeout below minimum", func(s *Spec) { s.DefaultTimeout = 1999 }, "default_timeout"},
		{"too many workers", func(s *Spec) { s.Workers = 5 }, "workers"},
		{"negative workers", func(s *Spec) { s.Workers = -1 }, "workers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := validSpec(t)
			tt.mutate(&spec)

			cfg, err := New(spec)
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestNew_BoundaryValuesAccepted(t *testing.T) {
	spec := validSpec(t)
	spec.Viewport = ViewportSpec{Width: MinViewportSide, Height: MinViewportSide}
	spec.NavigationTimeout = MinNavigationTimeoutMs
	spec.DefaultTimeout = MinDefaultTimeoutMs
	spec.Workers = MaxWorkers
	spec.LogLevel = "warning"
	spec.BrowserChannel = "MSEdge"

	cfg, err := New(spec)
	require.NoError(t, err)
	assert.Equal(t, Viewport{Width: 100, Height: 100}, cfg.Viewport())
	assert.Equal(t, MinNavigationTimeoutMs, cfg.NavigationTimeoutMs())
	assert.Equal(t, MinDefaultTimeoutMs, cfg.DefaultTimeoutMs())
	assert.Equal(t, 4, cfg.Workers())
	assert.Equal(t, LogWarning, cfg.LogLevel())
	assert.Equal(t, ChannelMSEdge, cfg.Channel())
}

func TestNew_ExpandsHomeInPaths(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })

	spec := validSpec(t)
	spec.RootFolder = "~/suite"
	spec.ReportsFolder = "/var/tmp/reports/run"

	cfg, err := New(spec)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "suite"), cfg.RootFolder())
	assert.Equal(t, "/var/tmp/reports/run", cfg.ReportsFolderPattern())
}

// -- Policy Decision Tests --

func TestRecordingMode_Retain(t *testing.T) {
	assert.True(t, RecordingOn.Retain(false))
	assert.True(t, RecordingOn.Retain(true))
	assert.False(t, RecordingOff.Retain(false))
	assert.False(t, RecordingOff.Retain(true))
	assert.False(t, RecordingRetainOnFailure.Retain(false))
	assert.True(t, RecordingRetainOnFailure.Retain(true))

	assert.True(t, RecordingOn.Records())
	assert.True(t, RecordingRetainOnFailure.Records())
	assert.False(t, RecordingOff.Records())
}

func TestScreenshotMode_Capture(t *testing.T) {
	assert.True(t, ScreenshotOn.Capture(false))
	assert.True(t, ScreenshotOn.Capture(true))
	assert.False(t, ScreenshotOff.Capture(true))
	assert.False(t, ScreenshotOnlyOnFailure.Capture(false))
	assert.True(t, ScreenshotOnlyOnFailure.Capture(true))
}

func TestLogLevel_ZapLevel(t *testing.T) {
	assert.Equal(t, "fatal", LogCritical.ZapLevel())
	assert.Equal(t, "error", LogError.ZapLevel())
	assert.Equal(t, "warn", LogWarning.ZapLevel())
	assert.Equal(t, "info", LogInfo.ZapLevel())
	assert.Equal(t, "debug", LogDebug.ZapLevel())
}

func TestBrowser_SupportsClipboardPermissions(t *testing.T) {
	assert.True(t, Chromium.SupportsClipboardPermissions())
	assert.False(t, Firefox.SupportsClipboardPermissions())
	assert.False(t, WebKit.SupportsClipboardPermissions())
}

// -- Viper Loading Tests --

func TestLoad(t *testing.T) {
	t.Run("file values override defaults", func(t *testing.T) {
		root := t.TempDir()
		path := filepath.Join(root, "staywright.yaml")
		content := `
base_url: https://staging.example.com
browsers: [webkit, firefox]
video: "on"
workers: 3
root_folder: ` + root + `
tests:
  run_by: file
  targets: [e2e/flows_test.go]
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		t.Setenv("STAYWRIGHT_PASSWORD", "from-env")

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "https://staging.example.com", cfg.BaseURL())
		assert.Equal(t, []Browser{WebKit, Firefox}, cfg.Browsers())
		assert.Equal(t, RecordingOn, cfg.Video())
		assert.Equal(t, RecordingRetainOnFailure, cfg.Tracing())
		assert.Equal(t, 3, cfg.Workers())
		assert.Equal(t, "from-env", cfg.Password())
		assert.Equal(t, "file", cfg.RunBy())
		assert.Equal(t, []string{"e2e/flows_test.go"}, cfg.Targets())
		assert.Equal(t, "go", cfg.Runner().Executable)
		assert.Equal(t, "./e2e", cfg.Runner().Package)
	})

	t.Run("missing base url fails validation", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "staywright.yaml")
		require.NoError(t, os.WriteFile(path, []byte("workers: 2\n"), 0o644))

		_, err := Load(path)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalid)
		assert.Equal(t, 1, strings.Count(err.Error(), ErrInvalid.Error()), "got %q", err)
	})

	t.Run("malformed file is reported", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "staywright.yaml")
		require.NoError(t, os.WriteFile(path, []byte("browsers: [chromium\n"), 0o644))

		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error reading config file")
	})
}

func TestSetDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	assert.Equal(t, "retain-on-failure", v.GetString("tracing"))
	assert.Equal(t, "only-on-failure", v.GetString("screenshot"))
	assert.Equal(t, DefaultNavigationTimeout, v.GetInt("navigation_timeout"))
	assert.Equal(t, []string{"chromium"}, v.GetStringSlice("browsers"))
	assert.Equal(t, "staywright", v.GetString("logger.service_name"))
}

func TestWriteTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "staywright.yaml")
	require.NoError(t, WriteTemplate(path))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://localhost", cfg.BaseURL())
	assert.Equal(t, LogDebug, cfg.LogLevel())
	assert.Equal(t, 60000, cfg.NavigationTimeoutMs())
	assert.Equal(t, 10000, cfg.DefaultTimeoutMs())
	assert.True(t, cfg.IgnoreHTTPSErrors())
	assert.True(t, cfg.ClipboardPermissions())

	// A second write must not clobber the first.
	assert.Error(t, WriteTemplate(path))
}

func TestLoadWith_OverridesWin(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, WriteTemplate(path))

	cfg, err := LoadWith(path, map[string]any{"tracing": "off", "viewport.width": 1280, "log_level": "ERROR"})
	require.NoError(t, err)
	assert.Equal(t, RecordingOff, cfg.Tracing())
	assert.Equal(t, 1280, cfg.Viewport().Width)
	assert.Equal(t, LogError, cfg.LogLevel())
}

func TestLocate(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "e2e", "flows")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	_, ok := Locate(nested)
	assert.False(t, ok, "no file anywhere above a fresh temp dir")

	want := filepath.Join(root, FileName)
	require.NoError(t, os.WriteFile(want, []byte("base_url: https://example.com\n"), 0o644))
	got, ok := Locate(nested)
	require.True(t, ok)
	assert.Equal(t, want, got)
}
