// internal/browser/manager.go
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/staywright/internal/config"
)

const playwrightInstallTimeout = 5 * time.Minute
const shutdownGracePeriod = 15 * time.Second

// LaunchOptions configures how browser engines are started.
type LaunchOptions struct {
	Headed  bool
	Channel config.Channel
	Args    []string
	// Install downloads the driver and the engines in Kinds before the first launch.
	Install bool
	Kinds   []config.Browser
}

// Manager owns the Playwright driver and one launched browser per engine.
// Engines are started lazily, the first time a test asks for them.
type Manager struct {
	logger *zap.Logger
	opts   LaunchOptions

	pw       *playwright.Playwright
	browsers map[config.Browser]playwright.Browser
	mu       sync.Mutex

	// Initialization state management
	initOnce sync.Once
	initErr  error
}

// NewManager creates a new browser manager. Initialization is deferred until
// the first browser is requested.
func NewManager(opts LaunchOptions, logger *zap.Logger) *Manager {
	m := &Manager{
		logger:   logger.Named("browser_manager"),
		opts:     opts,
		browsers: make(map[config.Browser]playwright.Browser),
	}
	m.logger.Debug("Browser manager created (initialization deferred).")
	return m
}

// initialize starts the Playwright driver.
func (m *Manager) initialize(ctx context.Context) error {
	m.initOnce.Do(func() {
		if m.opts.Install {
			if err := m.ensureInstallation(ctx); err != nil {
				m.initErr = err
				return
			}
		}

		pw, err := playwright.Run()
		if err != nil {
			m.initErr = fmt.Errorf("failed to start playwright driver: %w", err)
			return
		}
		m.pw = pw
		m.logger.Info("Playwright driver started.")
	})
	return m.initErr
}

func (m *Manager) ensureInstallation(ctx context.Context) error {
	kinds := make([]string, 0, len(m.opts.Kinds))
	for _, k := range m.opts.Kinds {
		kinds = append(kinds, k.String())
	}
	m.logger.Info("Verifying Playwright browser installation...", zap.Strings("browsers", kinds))

	installCtx, installCancel := context.WithTimeout(ctx, playwrightInstallTimeout)
	defer installCancel()

	// playwright.Install blocks without a context, so it runs on its own goroutine.
	installErrChan := make(chan error, 1)
	go func() {
		if err := playwright.Install(&playwright.RunOptions{Browsers: kinds}); err != nil {
			installErrChan <- fmt.Errorf("failed to install playwright browsers: %w", err)
			return
		}
		installErrChan <- nil
	}()

	select {
	case err := <-installErrChan:
		return err
	case <-installCtx.Done():
		return fmt.Errorf("timeout waiting for Playwright installation: %w", installCtx.Err())
	}
}

func (m *Manager) launchOptions(kind config.Browser) playwright.BrowserTypeLaunchOptions {
	o := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(!m.opts.Headed),
		Timeout:  playwright.Float(60000),
	}
	if len(m.opts.Args) > 0 {
		o.Args = append([]string(nil), m.opts.Args...)
	}
	// Branded channels only exist for Chromium.
	if kind == config.Chromium && m.opts.Channel != config.ChannelNone {
		o.Channel = playwright.String(m.opts.Channel.String())
	}
	return o
}

func (m *Manager) browserType(kind config.Browser) (playwright.BrowserType, error) {
	switch kind {
	case config.Chromium:
		return m.pw.Chromium, nil
	case config.Firefox:
		return m.pw.Firefox, nil
	case config.WebKit:
		return m.pw.WebKit, nil
	}
	return nil, fmt.Errorf("unsupported browser %q", kind)
}

// Browser returns the launched engine of the given kind, launching it on first use.
func (m *Manager) Browser(ctx context.Context, kind config.Browser) (Browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := m.initialize(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if b, ok := m.browsers[kind]; ok {
		return Wrap(kind, b), nil
	}
	bt, err := m.browserType(kind)
	if err != nil {
		return nil, err
	}
	b, err := bt.Launch(m.launchOptions(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to launch %s: %w", kind, wrapErr(err))
	}
	m.browsers[kind] = b
	m.logger.Info("Browser launched.",
		zap.String("browser", kind.String()),
		zap.String("browser_version", b.Version()),
		zap.Bool("headed", m.opts.Headed),
	)
	return Wrap(kind, b), nil
}

// Device returns context options emulating a named device from the
// Playwright device registry.
func (m *Manager) Device(ctx context.Context, name string) (ContextOptions, error) {
	if err := m.initialize(ctx); err != nil {
		return ContextOptions{}, err
	}
	d, ok := m.pw.Devices[name]
	if !ok || d == nil {
		return ContextOptions{}, fmt.Errorf("unknown device %q", name)
	}
	return deviceOptions(d), nil
}

func deviceOptions(d *playwright.DeviceDescriptor) ContextOptions {
	opts := ContextOptions{
		UserAgent:         d.UserAgent,
		DeviceScaleFactor: d.DeviceScaleFactor,
		IsMobile:          d.IsMobile,
		HasTouch:          d.HasTouch,
	}
	if d.Viewport != nil {
		opts.Viewport = &Size{Width: d.Viewport.Width, Height: d.Viewport.Height}
	}
	return opts
}

// Shutdown closes every launched browser concurrently and stops the driver.
func (m *Manager) Shutdown(ctx context.Context) error {
	if m.pw == nil {
		m.logger.Debug("Manager not initialized, skipping shutdown sequence.")
		return nil
	}

	m.mu.Lock()
	toClose := make(map[config.Browser]playwright.Browser, len(m.browsers))
	for k, b := range m.browsers {
		toClose[k] = b
	}
	m.browsers = make(map[config.Browser]playwright.Browser)
	m.mu.Unlock()

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownGracePeriod)
	defer cancel()

	g, _ := errgroup.WithContext(shutdownCtx)
	for kind, b := range toClose {
		g.Go(func() error {
			if err := b.Close(); err != nil {
				m.logger.Warn("Failed to close browser.", zap.String("browser", kind.String()), zap.Error(err))
				return fmt.Errorf("failed to close %s: %w", kind, err)
			}
			return nil
		})
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	var shutdownErr error
	select {
	case shutdownErr = <-done:
	case <-shutdownCtx.Done():
		m.logger.Warn("Timeout waiting for browsers to close. Stopping the driver anyway.", zap.Error(shutdownCtx.Err()))
		shutdownErr = shutdownCtx.Err()
	}

	if err := m.pw.Stop(); err != nil {
		m.logger.Error("Failed to stop Playwright driver.", zap.Error(err))
		if shutdownErr == nil {
			shutdownErr = fmt.Errorf("failed to stop playwright driver: %w", err)
		}
	}
	m.logger.Info("Browser manager shutdown complete.")
	return shutdownErr
}
