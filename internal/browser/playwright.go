// File: internal/browser/playwright.go
package browser

import (
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/xkilldash9x/staywright/internal/config"
)

// wrapErr maps Playwright timeouts onto ErrTimeout and keeps the original
// error in the chain.
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}

func ms(d time.Duration) float64 { return float64(d.Milliseconds()) }

func toPlaywrightSize(s *Size) *playwright.Size {
	if s == nil {
		return nil
	}
	return &playwright.Size{Width: s.Width, Height: s.Height}
}

type pwBrowser struct {
	kind    config.Browser
	browser playwright.Browser
}

// Wrap adapts a launched Playwright browser to the Browser interface.
func Wrap(kind config.Browser, b playwright.Browser) Browser {
	return &pwBrowser{kind: kind, browser: b}
}

func (b *pwBrowser) Kind() config.Browser { return b.kind }

func (b *pwBrowser) NewContext(opts ContextOptions) (Context, error) {
	o := playwright.BrowserNewContextOptions{
		Viewport:          toPlaywrightSize(opts.Viewport),
		IgnoreHttpsErrors: playwright.Bool(opts.IgnoreHTTPSErrors),
	}
	if opts.BaseURL != "" {
		o.BaseURL = playwright.String(opts.BaseURL)
	}
	if opts.RecordVideoDir != "" {
		o.RecordVideo = &playwright.RecordVideo{
			Dir:  opts.RecordVideoDir,
			Size: toPlaywrightSize(opts.RecordVideoSize),
		}
	}
	if opts.StorageStatePath != "" {
		o.StorageStatePath = playwright.String(opts.StorageStatePath)
	}
	if opts.Locale != "" {
		o.Locale = playwright.String(opts.Locale)
	}
	if opts.UserAgent != "" {
		o.UserAgent = playwright.String(opts.UserAgent)
	}
	if opts.DeviceScaleFactor > 0 {
		o.DeviceScaleFactor = playwright.Float(opts.DeviceScaleFactor)
	}
	if opts.IsMobile {
		o.IsMobile = playwright.Bool(true)
	}
	if opts.HasTouch {
		o.HasTouch = playwright.Bool(true)
	}

	c, err := b.browser.NewContext(o)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s context: %w", b.kind, wrapErr(err))
	}
	return &pwContext{ctx: c, recordsVideo: opts.RecordVideoDir != ""}, nil
}

type pwContext struct {
	ctx          playwright.BrowserContext
	recordsVideo bool
}

func (c *pwContext) wrapPage(p playwright.Page) Page {
	return &pwPage{page: p, recordsVideo: c.recordsVideo}
}

func (c *pwContext) NewPage() (Page, error) {
	p, err := c.ctx.NewPage()
	if err != nil {
		return nil, wrapErr(err)
	}
	return c.wrapPage(p), nil
}

func (c *pwContext) OnPage(fn func(Page)) {
	c.ctx.OnPage(func(p playwright.Page) { fn(c.wrapPage(p)) })
}

func (c *pwContext) StartTracing(opts TracingOptions) error {
	return wrapErr(c.ctx.Tracing().Start(playwright.TracingStartOptions{
		Title:       playwright.String(opts.Title),
		Screenshots: playwright.Bool(opts.Screenshots),
		Snapshots:   playwright.Bool(opts.Snapshots),
		Sources:     playwright.Bool(opts.Sources),
	}))
}

func (c *pwContext) StopTracing(path string) error {
	if path == "" {
		return wrapErr(c.ctx.Tracing().Stop())
	}
	return wrapErr(c.ctx.Tracing().Stop(path))
}

func (c *pwContext) SetDefaultTimeout(d time.Duration) { c.ctx.SetDefaultTimeout(ms(d)) }

func (c *pwContext) SetDefaultNavigationTimeout(d time.Duration) {
	c.ctx.SetDefaultNavigationTimeout(ms(d))
}

func (c *pwContext) GrantPermissions(permissions []string) error {
	return wrapErr(c.ctx.GrantPermissions(permissions))
}

func (c *pwContext) Close() error { return wrapErr(c.ctx.Close()) }

type pwPage struct {
	page         playwright.Page
	recordsVideo bool
}

func (p *pwPage) Goto(url string) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{WaitUntil: playwright.WaitUntilStateLoad})
	return wrapErr(err)
}

func (p *pwPage) URL() string { return p.page.URL() }

func (p *pwPage) WaitForLoad() error {
	return wrapErr(p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{State: playwright.LoadStateLoad}))
}

func (p *pwPage) Wait(d time.Duration) { p.page.WaitForTimeout(ms(d)) }

func (p *pwPage) Screenshot(opts ScreenshotOptions) error {
	o := playwright.PageScreenshotOptions{
		Path:     playwright.String(opts.Path),
		FullPage: playwright.Bool(opts.FullPage),
	}
	if opts.Timeout > 0 {
		o.Timeout = playwright.Float(ms(opts.Timeout))
	}
	_, err := p.page.Screenshot(o)
	return wrapErr(err)
}

func (p *pwPage) Video() Video {
	if !p.recordsVideo {
		return nil
	}
	v := p.page.Video()
	if v == nil {
		return nil
	}
	return &pwVideo{video: v}
}

func (p *pwPage) Close() error { return wrapErr(p.page.Close()) }

func (p *pwPage) Locator(selector string) Locator {
	return &pwLocator{loc: p.page.Locator(selector)}
}

func (p *pwPage) GetByLabel(text string) Locator {
	return &pwLocator{loc: p.page.GetByLabel(text)}
}

func (p *pwPage) GetByRole(role, name string) Locator {
	var o playwright.PageGetByRoleOptions
	if name != "" {
		o.Name = name
	}
	return &pwLocator{loc: p.page.GetByRole(playwright.AriaRole(role), o)}
}

func (p *pwPage) GetByTestID(id string) Locator {
	return &pwLocator{loc: p.page.GetByTestId(id)}
}

func (p *pwPage) GetByText(text string) Locator {
	return &pwLocator{loc: p.page.GetByText(text)}
}

type pwLocator struct {
	loc playwright.Locator
}

func (l *pwLocator) Locator(selector string) Locator {
	return &pwLocator{loc: l.loc.Locator(selector)}
}

func (l *pwLocator) GetByLabel(text string) Locator {
	return &pwLocator{loc: l.loc.GetByLabel(text)}
}

func (l *pwLocator) GetByRole(role, name string) Locator {
	var o playwright.LocatorGetByRoleOptions
	if name != "" {
		o.Name = name
	}
	return &pwLocator{loc: l.loc.GetByRole(playwright.AriaRole(role), o)}
}

func (l *pwLocator) GetByTestID(id string) Locator {
	return &pwLocator{loc: l.loc.GetByTestId(id)}
}

func (l *pwLocator) GetByText(text string) Locator {
	return &pwLocator{loc: l.loc.GetByText(text)}
}

func (l *pwLocator) Filter(hasText string) Locator {
	return &pwLocator{loc: l.loc.Filter(playwright.LocatorFilterOptions{HasText: hasText})}
}

func (l *pwLocator) First() Locator    { return &pwLocator{loc: l.loc.First()} }
func (l *pwLocator) Nth(i int) Locator { return &pwLocator{loc: l.loc.Nth(i)} }

func (l *pwLocator) Count() (int, error) {
	n, err := l.loc.Count()
	return n, wrapErr(err)
}

func (l *pwLocator) All() ([]Locator, error) {
	all, err := l.loc.All()
	if err != nil {
		return nil, wrapErr(err)
	}
	out := make([]Locator, 0, len(all))
	for _, a := range all {
		out = append(out, &pwLocator{loc: a})
	}
	return out, nil
}

func (l *pwLocator) Click() error            { return wrapErr(l.loc.Click()) }
func (l *pwLocator) Fill(value string) error { return wrapErr(l.loc.Fill(value)) }

func (l *pwLocator) InputValue() (string, error) {
	v, err := l.loc.InputValue()
	return v, wrapErr(err)
}

func (l *pwLocator) TextContent() (string, error) {
	v, err := l.loc.TextContent()
	return v, wrapErr(err)
}

func (l *pwLocator) Attribute(name string) (string, error) {
	v, err := l.loc.GetAttribute(name)
	return v, wrapErr(err)
}

func (l *pwLocator) IsVisible() (bool, error) {
	v, err := l.loc.IsVisible()
	return v, wrapErr(err)
}

func (l *pwLocator) IsEnabled() (bool, error) {
	v, err := l.loc.IsEnabled()
	return v, wrapErr(err)
}

func (l *pwLocator) WaitVisible(timeout time.Duration) error {
	o := playwright.LocatorWaitForOptions{State: playwright.WaitForSelectorStateVisible}
	if timeout > 0 {
		o.Timeout = playwright.Float(ms(timeout))
	}
	return wrapErr(l.loc.WaitFor(o))
}

func (l *pwLocator) ScrollIntoView() error { return wrapErr(l.loc.ScrollIntoViewIfNeeded()) }

type pwVideo struct {
	video playwright.Video
}

func (v *pwVideo) SaveAs(path string) error { return wrapErr(v.video.SaveAs(path)) }
func (v *pwVideo) Delete() error            { return wrapErr(v.video.Delete()) }
