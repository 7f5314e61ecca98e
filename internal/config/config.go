// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// ErrInvalid marks every configuration rejected at construction time.
var ErrInvalid = errors.New("invalid configuration")

const (
	MinViewportSide          = 100
	MinNavigationTimeoutMs   = 10000
	MinDefaultTimeoutMs      = 2000
	DefaultNavigationTimeout = 45000
	DefaultActionTimeout     = 5000
	MinWorkers               = 1
	MaxWorkers               = 4
)

// Spec is the raw, unvalidated shape of a run configuration as it is read
// from the configuration file and the environment.
type Spec struct {
	BaseURL              string       `mapstructure:"base_url" yaml:"base_url"`
	Username             string       `mapstructure:"username" yaml:"username"`
	Password             string       `mapstructure:"password" yaml:"-"`
	Headed               bool         `mapstructure:"headed" yaml:"headed"`
	LogLevel             string       `mapstructure:"log_level" yaml:"log_level"`
	Browsers             []string     `mapstructure:"browsers" yaml:"browsers"`
	BrowserChannel       string       `mapstructure:"browser_channel" yaml:"browser_channel"`
	Device               string       `mapstructure:"device" yaml:"device"`
	Tracing              string       `mapstructure:"tracing" yaml:"tracing"`
	Video                string       `mapstructure:"video" yaml:"video"`
	Screenshot           string       `mapstructure:"screenshot" yaml:"screenshot"`
	FullPageScreenshot   bool         `mapstructure:"full_page_screenshot" yaml:"full_page_screenshot"`
	Viewport             ViewportSpec `mapstructure:"viewport" yaml:"viewport"`
	NavigationTimeout    int          `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	DefaultTimeout       int          `mapstructure:"default_timeout" yaml:"default_timeout"`
	Workers              int          `mapstructure:"workers" yaml:"workers"`
	RootFolder           string       `mapstructure:"root_folder" yaml:"root_folder"`
	ReportsFolder        string       `mapstructure:"reports_folder" yaml:"reports_folder"`
	IgnoreHTTPSErrors    bool         `mapstructure:"ignore_https_errors" yaml:"ignore_https_errors"`
	UseStorageState      bool         `mapstructure:"use_storage_state" yaml:"use_storage_state"`
	ClipboardPermissions bool         `mapstructure:"clipboard_permissions" yaml:"clipboard_permissions"`
	Tests                TestsSpec    `mapstructure:"tests" yaml:"tests"`
	Runner               RunnerConfig `mapstructure:"runner" yaml:"runner"`
	Logger               LoggerConfig `mapstructure:"logger" yaml:"logger"`
}

// ViewportSpec is the raw viewport size in CSS pixels.
type ViewportSpec struct {
	Width  int `mapstructure:"width" yaml:"width"`
	Height int `mapstructure:"height" yaml:"height"`
}

// TestsSpec names what the run executes. The runner package validates it.
type TestsSpec struct {
	RunBy   string   `mapstructure:"run_by" yaml:"run_by"`
	Targets []string `mapstructure:"targets" yaml:"targets"`
}

// RunnerConfig describes how the external test runner is invoked.
type RunnerConfig struct {
	Executable string   `mapstructure:"executable" yaml:"executable"`
	Args       []string `mapstructure:"args" yaml:"args"`
	Package    string   `mapstructure:"package" yaml:"package"`
	// ExtraArgs is split with shell quoting rules and appended before the
	// selection clause.
	ExtraArgs string `mapstructure:"extra_args" yaml:"extra_args"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color names for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// Viewport is a validated viewport size.
type Viewport struct {
	Width  int
	Height int
}

// RunConfiguration is an immutable, validated description of a test run.
// Construct it with New; the zero value is not usable.
type RunConfiguration struct {
	baseURL              string
	username             string
	password             string
	headed               bool
	logLevel             LogLevel
	browsers             []Browser
	channel              Channel
	device               string
	tracing              RecordingMode
	video                RecordingMode
	screenshot           ScreenshotMode
	fullPageScreenshot   bool
	viewport             Viewport
	navigationTimeout    int
	defaultTimeout       int
	workers              int
	rootFolder           string
	reportsFolder        string
	ignoreHTTPSErrors    bool
	useStorageState      bool
	clipboardPermissions bool
	tests                TestsSpec
	runner               RunnerConfig
	logger               LoggerConfig
}

func (c *RunConfiguration) BaseURL() string              { return c.baseURL }
func (c *RunConfiguration) Username() string             { return c.username }
func (c *RunConfiguration) Password() string             { return c.password }
func (c *RunConfiguration) Headed() bool                 { return c.headed }
func (c *RunConfiguration) LogLevel() LogLevel           { return c.logLevel }
func (c *RunConfiguration) Channel() Channel             { return c.channel }
func (c *RunConfiguration) Device() string               { return c.device }
func (c *RunConfiguration) Tracing() RecordingMode       { return c.tracing }
func (c *RunConfiguration) Video() RecordingMode         { return c.video }
func (c *RunConfiguration) Screenshot() ScreenshotMode   { return c.screenshot }
func (c *RunConfiguration) FullPageScreenshot() bool     { return c.fullPageScreenshot }
func (c *RunConfiguration) Viewport() Viewport           { return c.viewport }
func (c *RunConfiguration) NavigationTimeoutMs() int     { return c.navigationTimeout }
func (c *RunConfiguration) DefaultTimeoutMs() int        { return c.defaultTimeout }
func (c *RunConfiguration) Workers() int                 { return c.workers }
func (c *RunConfiguration) RootFolder() string           { return c.rootFolder }
func (c *RunConfiguration) ReportsFolderPattern() string { return c.reportsFolder }
func (c *RunConfiguration) IgnoreHTTPSErrors() bool      { return c.ignoreHTTPSErrors }
func (c *RunConfiguration) UseStorageState() bool        { return c.useStorageState }
func (c *RunConfiguration) ClipboardPermissions() bool   { return c.clipboardPermissions }
func (c *RunConfiguration) Logger() LoggerConfig         { return c.logger }
func (c *RunConfiguration) Runner() RunnerConfig         { return c.runner }
func (c *RunConfiguration) RunBy() string                { return c.tests.RunBy }

// Browsers returns a copy of the browser matrix in configured order.
func (c *RunConfiguration) Browsers() []Browser {
	return append([]Browser(nil), c.browsers...)
}

// Targets returns a copy of the configured test targets.
func (c *RunConfiguration) Targets() []string {
	return append([]string(nil), c.tests.Targets...)
}

// New validates spec and returns the immutable configuration. Every failure
// wraps ErrInvalid.
func New(spec Spec) (*RunConfiguration, error) {
	cfg := &RunConfiguration{
		username:             spec.Username,
		password:             spec.Password,
		headed:               spec.Headed,
		device:               strings.TrimSpace(spec.Device),
		fullPageScreenshot:   spec.FullPageScreenshot,
		ignoreHTTPSErrors:    spec.IgnoreHTTPSErrors,
		useStorageState:      spec.UseStorageState,
		clipboardPermissions: spec.ClipboardPermissions,
		tests: TestsSpec{
			RunBy:   spec.Tests.RunBy,
			Targets: append([]string(nil), spec.Tests.Targets...),
		},
		runner: spec.Runner,
		logger: spec.Logger,
	}
	cfg.runner.Args = append([]string(nil), spec.Runner.Args...)
	if cfg.runner.Executable == "" {
		cfg.runner.Executable = DefaultRunnerExecutable
	}
	if cfg.runner.Args == nil {
		cfg.runner.Args = append([]string(nil), DefaultRunnerArgs...)
	}
	if cfg.runner.Package == "" {
		cfg.runner.Package = DefaultRunnerPackage
	}

	var err error
	if cfg.baseURL, err = validateBaseURL(spec.BaseURL); err != nil {
		return nil, err
	}
	if cfg.logLevel, err = ParseLogLevel(spec.LogLevel); err != nil {
		return nil, err
	}
	if cfg.browsers, err = parseBrowsers(spec.Browsers); err != nil {
		return nil, err
	}
	if cfg.channel, err = ParseChannel(spec.BrowserChannel); err != nil {
		return nil, err
	}
	if cfg.tracing, err = ParseRecordingMode(spec.Tracing); err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}
	if cfg.video, err = ParseRecordingMode(spec.Video); err != nil {
		return nil, fmt.Errorf("video: %w", err)
	}
	if cfg.screenshot, err = ParseScreenshotMode(spec.Screenshot); err != nil {
		return nil, err
	}
	if spec.Viewport.Width < MinViewportSide || spec.Viewport.Height < MinViewportSide {
		return nil, fmt.Errorf("%w: viewport %dx%d must be at least %dx%d",
			ErrInvalid, spec.Viewport.Width, spec.Viewport.Height, MinViewportSide, MinViewportSide)
	}
	cfg.viewport = Viewport{Width: spec.Viewport.Width, Height: spec.Viewport.Height}

	if cfg.navigationTimeout, err = timeoutOrDefault("navigation_timeout", spec.NavigationTimeout, MinNavigationTimeoutMs, DefaultNavigationTimeout); err != nil {
		return nil, err
	}
	if cfg.defaultTimeout, err = timeoutOrDefault("default_timeout", spec.DefaultTimeout, MinDefaultTimeoutMs, DefaultActionTimeout); err != nil {
		return nil, err
	}

	cfg.workers = spec.Workers
	if cfg.workers == 0 {
		cfg.workers = MinWorkers
	}
	if cfg.workers < MinWorkers || cfg.workers > MaxWorkers {
		return nil, fmt.Errorf("%w: workers must be between %d and %d, got %d", ErrInvalid, MinWorkers, MaxWorkers, spec.Workers)
	}

	if cfg.rootFolder, err = resolvePath(spec.RootFolder, ""); err != nil {
		return nil, err
	}
	reports := spec.ReportsFolder
	if strings.TrimSpace(reports) == "" {
		reports = filepath.Join("reports", "test-report")
	}
	if cfg.reportsFolder, err = resolvePath(reports, cfg.rootFolder); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewFromViper decodes v into a Spec and validates it.
func NewFromViper(v *viper.Viper) (*RunConfiguration, error) {
	// Secrets never live in the config file.
	_ = v.BindEnv("password", "STAYWRIGHT_PASSWORD")
	_ = v.BindEnv("username", "STAYWRIGHT_USERNAME")

	var spec Spec
	if err := v.Unmarshal(&spec); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return New(spec)
}

func validateBaseURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: base_url %q: %v", ErrInvalid, raw, err)
	}
	if u.Scheme != "https" || u.Host == "" {
		return "", fmt.Errorf("%w: base_url %q must be an https:// URL", ErrInvalid, raw)
	}
	return u.String(), nil
}

func parseBrowsers(raw []string) ([]Browser, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: at least one browser is required", ErrInvalid)
	}
	seen := make(map[Browser]struct{}, len(raw))
	out := make([]Browser, 0, len(raw))
	for _, r := range raw {
		b, err := ParseBrowser(r)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[b]; dup {
			return nil, fmt.Errorf("%w: browser %q listed more than once", ErrInvalid, b)
		}
		seen[b] = struct{}{}
		out = append(out, b)
	}
	return out, nil
}

func timeoutOrDefault(name string, value, min, def int) (int, error) {
	if value == 0 {
		return def, nil
	}
	if value < min {
		return 0, fmt.Errorf("%w: %s must be at least %d ms, got %d", ErrInvalid, name, min, value)
	}
	return value, nil
}

// resolvePath expands a leading ~ and makes p absolute, relative to base when
// base is set and to the working directory otherwise.
func resolvePath(p, base string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		p = "."
	}
	expanded, err := homedir.Expand(p)
	if err != nil {
		return "", fmt.Errorf("%w: path %q: %v", ErrInvalid, p, err)
	}
	if !filepath.IsAbs(expanded) && base != "" {
		expanded = filepath.Join(base, expanded)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("%w: path %q: %v", ErrInvalid, p, err)
	}
	return abs, nil
}
