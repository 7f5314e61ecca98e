// File: internal/browser/interface.go
package browser

import (
	"errors"
	"time"

	"github.com/xkilldash9x/staywright/internal/config"
)

// ErrTimeout is wrapped by every error caused by a bounded wait expiring.
var ErrTimeout = errors.New("browser: timeout")

// Browser is a launched browser engine able to open isolated contexts.
type Browser interface {
	Kind() config.Browser
	NewContext(opts ContextOptions) (Context, error)
}

// Context is an isolated browser session (cookies, storage, recordings).
type Context interface {
	NewPage() (Page, error)
	// OnPage registers fn to be called for every page opened in the context,
	// including pages opened by the site itself.
	OnPage(fn func(Page))
	StartTracing(opts TracingOptions) error
	// StopTracing ends the trace. An empty path discards the recording.
	StopTracing(path string) error
	SetDefaultTimeout(d time.Duration)
	SetDefaultNavigationTimeout(d time.Duration)
	GrantPermissions(permissions []string) error
	Close() error
}

// Page is one tab inside a Context.
type Page interface {
	Goto(url string) error
	URL() string
	WaitForLoad() error
	Wait(d time.Duration)
	Screenshot(opts ScreenshotOptions) error
	// Video returns the page recording, or nil when the context does not record.
	Video() Video
	Close() error
	Finder
}

// Finder creates locators. Both pages and locators can scope a search.
type Finder interface {
	Locator(selector string) Locator
	GetByLabel(text string) Locator
	GetByRole(role, name string) Locator
	GetByTestID(id string) Locator
	GetByText(text string) Locator
}

// Locator resolves lazily to zero or more elements.
type Locator interface {
	Finder
	Filter(hasText string) Locator
	First() Locator
	Nth(i int) Locator
	All() ([]Locator, error)
	Count() (int, error)
	Click() error
	Fill(value string) error
	InputValue() (string, error)
	TextContent() (string, error)
	Attribute(name string) (string, error)
	IsVisible() (bool, error)
	IsEnabled() (bool, error)
	WaitVisible(timeout time.Duration) error
	ScrollIntoView() error
}

// Video is the recording of a single page.
type Video interface {
	SaveAs(path string) error
	Delete() error
}

// Size is a width and height in CSS pixels.
type Size struct {
	Width  int
	Height int
}

// TracingOptions configures a trace recording.
type TracingOptions struct {
	Title       string
	Screenshots bool
	Snapshots   bool
	Sources     bool
}

// ScreenshotOptions configures a page screenshot.
type ScreenshotOptions struct {
	Path     string
	FullPage bool
	Timeout  time.Duration
}

// ContextOptions are the options a new context is created with.
type ContextOptions struct {
	BaseURL           string
	Viewport          *Size
	RecordVideoDir    string
	RecordVideoSize   *Size
	IgnoreHTTPSErrors bool
	StorageStatePath  string
	Locale            string
	UserAgent         string
	DeviceScaleFactor float64
	IsMobile          bool
	HasTouch          bool
}

// ContextOption mutates ContextOptions. Options given for a single test are
// applied after the suite defaults and therefore win.
type ContextOption func(*ContextOptions)

// WithLocale overrides the context locale.
func WithLocale(locale string) ContextOption {
	return func(o *ContextOptions) { o.Locale = locale }
}

// WithStorageState starts the context from a saved storage state file.
func WithStorageState(path string) ContextOption {
	return func(o *ContextOptions) { o.StorageStatePath = path }
}

// WithUserAgent overrides the user agent string.
func WithUserAgent(ua string) ContextOption {
	return func(o *ContextOptions) { o.UserAgent = ua }
}

// Apply returns a copy of o with opts applied in order.
func (o ContextOptions) Apply(opts ...ContextOption) ContextOptions {
	out := o
	for _, opt := range opts {
		if opt != nil {
			opt(&out)
		}
	}
	return out
}
