// Package browsertest provides in-memory fakes of the browser capability
// interfaces. Every fake appends to a shared Journal so tests can assert the
// exact order of browser operations.
package browsertest

import (
	"fmt"
	"sync"
	"time"

	"github.com/xkilldash9x/staywright/internal/browser"
	"github.com/xkilldash9x/staywright/internal/config"
)

// Journal records browser operations in the order they happened.
type Journal struct {
	mu    sync.Mutex
	calls []string
}

// Record is a no-op on a nil journal.
func (j *Journal) Record(format string, args ...any) {
	if j == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.calls = append(j.calls, fmt.Sprintf(format, args...))
}

// Calls returns a copy of the recorded operations.
func (j *Journal) Calls() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.calls...)
}

// Browser is a fake browser.Browser.
type Browser struct {
	KindValue config.Browser
	Journal   *Journal
	NewErr    error
	Contexts  []*Context
	LastOpts  browser.ContextOptions
	// ContextSetup customizes every context before it is returned.
	ContextSetup func(*Context)
}

// NewBrowser returns a fake of the given kind with a fresh journal.
func NewBrowser(kind config.Browser) *Browser {
	return &Browser{KindValue: kind, Journal: &Journal{}}
}

func (b *Browser) Kind() config.Browser { return b.KindValue }

func (b *Browser) NewContext(opts browser.ContextOptions) (browser.Context, error) {
	b.Journal.Record("browser.new_context")
	if b.NewErr != nil {
		return nil, b.NewErr
	}
	b.LastOpts = opts
	c := &Context{Journal: b.Journal, Opts: opts, recordsVideo: opts.RecordVideoDir != ""}
	if b.ContextSetup != nil {
		b.ContextSetup(c)
	}
	b.Contexts = append(b.Contexts, c)
	return c, nil
}

// Context is a fake browser.Context.
type Context struct {
	Journal *Journal
	Opts    browser.ContextOptions

	TracingErr     error
	StopTracingErr error
	GrantErr       error
	CloseErr       error
	NewPageErr     error

	Tracing           *browser.TracingOptions
	DefaultTimeout    time.Duration
	NavigationTimeout time.Duration
	Permissions       []string
	Closed            bool
	// PageSetup customizes every page before observers see it.
	PageSetup func(*Page)

	recordsVideo bool
	observers    []func(browser.Page)
	pages        []*Page
}

func (c *Context) NewPage() (browser.Page, error) {
	c.Journal.Record("context.new_page")
	if c.NewPageErr != nil {
		return nil, c.NewPageErr
	}
	return c.Open(), nil
}

// Open simulates a page opened by the site (a popup) and notifies observers.
func (c *Context) Open() *Page {
	p := &Page{Journal: c.Journal, Index: len(c.pages) + 1, URLValue: "about:blank"}
	if c.recordsVideo {
		p.VideoValue = &Video{Journal: c.Journal, Page: p.Index}
	}
	if c.PageSetup != nil {
		c.PageSetup(p)
	}
	c.pages = append(c.pages, p)
	for _, fn := range c.observers {
		fn(p)
	}
	return p
}

// Pages returns every page opened in the context.
func (c *Context) Pages() []*Page { return append([]*Page(nil), c.pages...) }

func (c *Context) OnPage(fn func(browser.Page)) {
	c.observers = append(c.observers, fn)
}

func (c *Context) StartTracing(opts browser.TracingOptions) error {
	c.Journal.Record("tracing.start title=%s", opts.Title)
	if c.TracingErr != nil {
		return c.TracingErr
	}
	c.Tracing = &opts
	return nil
}

func (c *Context) StopTracing(path string) error {
	if path == "" {
		c.Journal.Record("tracing.stop discard")
	} else {
		c.Journal.Record("tracing.stop %s", path)
	}
	return c.StopTracingErr
}

func (c *Context) SetDefaultTimeout(d time.Duration) {
	c.Journal.Record("context.default_timeout %s", d)
	c.DefaultTimeout = d
}

func (c *Context) SetDefaultNavigationTimeout(d time.Duration) {
	c.Journal.Record("context.navigation_timeout %s", d)
	c.NavigationTimeout = d
}

func (c *Context) GrantPermissions(permissions []string) error {
	c.Journal.Record("context.grant %v", permissions)
	if c.GrantErr != nil {
		return c.GrantErr
	}
	c.Permissions = append(c.Permissions, permissions...)
	return nil
}

func (c *Context) Close() error {
	c.Journal.Record("context.close")
	c.Closed = true
	return c.CloseErr
}

// Page is a fake browser.Page. Locators are served from Elements keyed by
// selector, test id, label, role+name or text.
type Page struct {
	Journal       *Journal
	Index         int
	URLValue      string
	GotoErr       error
	ScreenshotErr error
	VideoValue    *Video
	Elements      map[string]*Locator
	Screenshots   []browser.ScreenshotOptions
	Waited        time.Duration
	// OnGoto lets a test react to navigation, for example to change URLValue.
	OnGoto func(url string)
}

func (p *Page) Goto(url string) error {
	p.Journal.Record("page%d.goto %s", p.Index, url)
	if p.GotoErr != nil {
		return p.GotoErr
	}
	p.URLValue = url
	if p.OnGoto != nil {
		p.OnGoto(url)
	}
	return nil
}

func (p *Page) URL() string          { return p.URLValue }
func (p *Page) WaitForLoad() error   { return nil }
func (p *Page) Wait(d time.Duration) { p.Waited += d }

func (p *Page) Screenshot(opts browser.ScreenshotOptions) error {
	p.Journal.Record("page%d.screenshot %s", p.Index, opts.Path)
	if p.ScreenshotErr != nil {
		return p.ScreenshotErr
	}
	p.Screenshots = append(p.Screenshots, opts)
	return nil
}

func (p *Page) Video() browser.Video {
	if p.VideoValue == nil {
		return nil
	}
	return p.VideoValue
}

func (p *Page) Close() error {
	p.Journal.Record("page%d.close", p.Index)
	return nil
}

func (p *Page) lookup(key string) browser.Locator {
	if l, ok := p.Elements[key]; ok {
		return l
	}
	return &Locator{Key: key}
}

func (p *Page) Locator(selector string) browser.Locator { return p.lookup(selector) }
func (p *Page) GetByLabel(text string) browser.Locator  { return p.lookup("label=" + text) }
func (p *Page) GetByRole(role, name string) browser.Locator {
	return p.lookup("role=" + role + "[" + name + "]")
}
func (p *Page) GetByTestID(id string) browser.Locator { return p.lookup("testid=" + id) }
func (p *Page) GetByText(text string) browser.Locator { return p.lookup("text=" + text) }

// Video is a fake browser.Video.
type Video struct {
	Journal *Journal
	Page    int
	SaveErr error
	Saved   []string
	Deleted bool
}

func (v *Video) SaveAs(path string) error {
	v.Journal.Record("video%d.save %s", v.Page, path)
	if v.SaveErr != nil {
		return v.SaveErr
	}
	v.Saved = append(v.Saved, path)
	return nil
}

func (v *Video) Delete() error {
	v.Journal.Record("video%d.delete", v.Page)
	v.Deleted = true
	return nil
}

var (
	_ browser.Browser = (*Browser)(nil)
	_ browser.Context = (*Context)(nil)
	_ browser.Page    = (*Page)(nil)
	_ browser.Locator = (*Locator)(nil)
	_ browser.Video   = (*Video)(nil)
)
