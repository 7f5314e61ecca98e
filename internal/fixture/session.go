// Package fixture creates the isolated browser session every test runs in and
// decides, once the test has finished, which recordings of it are kept.
package fixture

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/staywright/internal/browser"
	"github.com/xkilldash9x/staywright/internal/config"
)

// PlaceholderTraceTitle is used when the test name cannot be resolved.
const PlaceholderTraceTitle = "tracing"

// ScreenshotTimeout bounds every end-of-test screenshot.
const ScreenshotTimeout = 5 * time.Second

var clipboardPermissions = []string{"clipboard-write", "clipboard-read"}

// Settings is the per-run snapshot of the configuration a session needs.
type Settings struct {
	OutputDir            string
	RootFolder           string
	Tracing              config.RecordingMode
	Video                config.RecordingMode
	Screenshot           config.ScreenshotMode
	FullPageScreenshot   bool
	Viewport             config.Viewport
	IgnoreHTTPSErrors    bool
	ClipboardPermissions bool
	DefaultTimeout       time.Duration
	NavigationTimeout    time.Duration
}

// Session is the browser context owned by exactly one test.
type Session struct {
	id       string
	ctx      browser.Context
	kind     config.Browser
	identity Identity
	settings Settings
	logger   *zap.Logger
	tracing  bool

	mu       sync.Mutex
	pages    []browser.Page
	tornDown bool
}

// Setup opens a context on b for the test named by id. Options in overrides
// are applied over base; the viewport, video size and TLS tolerance always
// come from settings.
func Setup(b browser.Browser, base browser.ContextOptions, settings Settings, id Identity, logger *zap.Logger, overrides ...browser.ContextOption) (*Session, error) {
	opts := base.Apply(overrides...)

	viewport := &browser.Size{Width: settings.Viewport.Width, Height: settings.Viewport.Height}
	opts.Viewport = viewport
	opts.RecordVideoSize = viewport
	opts.IgnoreHTTPSErrors = settings.IgnoreHTTPSErrors
	if !settings.Video.Records() {
		opts.RecordVideoDir = ""
	}

	ctx, err := b.NewContext(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open browser context: %w", err)
	}

	sessionID := uuid.New().String()
	s := &Session{
		id:       sessionID,
		ctx:      ctx,
		kind:     b.Kind(),
		identity: id,
		settings: settings,
		logger: logger.Named("session").With(
			zap.String("session_id", sessionID),
			zap.String("browser", b.Kind().String()),
			zap.String("test", id.Name),
		),
	}
	ctx.OnPage(s.track)

	if err := s.configure(); err != nil {
		if closeErr := ctx.Close(); closeErr != nil {
			s.logger.Warn("Failed to close context after setup error.", zap.Error(closeErr))
		}
		return nil, err
	}
	s.logger.Debug("Session ready.", zap.Bool("tracing", s.tracing))
	return s, nil
}

func (s *Session) configure() error {
	if s.settings.Tracing.Records() {
		title, err := s.identity.Title()
		if err != nil {
			s.logger.Error("Could not resolve the test name for the trace title.", zap.Error(err))
			title = PlaceholderTraceTitle
		}
		if err := s.ctx.StartTracing(browser.TracingOptions{
			Title:       title,
			Screenshots: true,
			Snapshots:   true,
			Sources:     true,
		}); err != nil {
			return fmt.Errorf("failed to start tracing: %w", err)
		}
		s.tracing = true
	}

	s.ctx.SetDefaultTimeout(s.settings.DefaultTimeout)
	s.ctx.SetDefaultNavigationTimeout(s.settings.NavigationTimeout)

	if s.settings.ClipboardPermissions && s.kind.SupportsClipboardPermissions() {
		if err := s.ctx.GrantPermissions(clipboardPermissions); err != nil {
			return fmt.Errorf("failed to grant clipboard permissions: %w", err)
		}
	}
	return nil
}

func (s *Session) track(p browser.Page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages = append(s.pages, p)
}

// ID is the unique session identifier used in logs.
func (s *Session) ID() string { return s.id }

// Browser is the engine the session runs on.
func (s *Session) Browser() config.Browser { return s.kind }

// Context exposes the underlying browser context.
func (s *Session) Context() browser.Context { return s.ctx }

// NewPage opens a page. The page is tracked through the page observer like
// any page the site opens by itself.
func (s *Session) NewPage() (browser.Page, error) {
	p, err := s.ctx.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	return p, nil
}

// Pages returns the pages opened so far, in creation order.
func (s *Session) Pages() []browser.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]browser.Page(nil), s.pages...)
}
