// File: internal/config/enums.go
package config

import (
	"fmt"
	"strings"
)

// RecordingMode controls trace and video capture.
type RecordingMode string

const (
	RecordingOn              RecordingMode = "on"
	RecordingOff             RecordingMode = "off"
	RecordingRetainOnFailure RecordingMode = "retain-on-failure"
)

// ParseRecordingMode converts a raw value into a RecordingMode.
func ParseRecordingMode(s string) (RecordingMode, error) {
	switch m := RecordingMode(strings.ToLower(strings.TrimSpace(s))); m {
	case RecordingOn, RecordingOff, RecordingRetainOnFailure:
		return m, nil
	}
	return "", fmt.Errorf("%w: recording mode %q must be one of on, off, retain-on-failure", ErrInvalid, s)
}

// Records reports whether the browser must record at all under this mode.
func (m RecordingMode) Records() bool {
	return m == RecordingOn || m == RecordingRetainOnFailure
}

// Retain decides whether a recording made under this mode is kept for a test
// with the given outcome.
func (m RecordingMode) Retain(failed bool) bool {
	switch m {
	case RecordingOn:
		return true
	case RecordingRetainOnFailure:
		return failed
	default:
		return false
	}
}

func (m RecordingMode) String() string { return string(m) }

// ScreenshotMode controls end-of-test screenshots.
type ScreenshotMode string

const (
	ScreenshotOn            ScreenshotMode = "on"
	ScreenshotOff           ScreenshotMode = "off"
	ScreenshotOnlyOnFailure ScreenshotMode = "only-on-failure"
)

// ParseScreenshotMode converts a raw value into a ScreenshotMode.
func ParseScreenshotMode(s string) (ScreenshotMode, error) {
	switch m := ScreenshotMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ScreenshotOn, ScreenshotOff, ScreenshotOnlyOnFailure:
		return m, nil
	}
	return "", fmt.Errorf("%w: screenshot mode %q must be one of on, off, only-on-failure", ErrInvalid, s)
}

// Capture decides whether screenshots are taken for a test with the given outcome.
func (m ScreenshotMode) Capture(failed bool) bool {
	switch m {
	case ScreenshotOn:
		return true
	case ScreenshotOnlyOnFailure:
		return failed
	default:
		return false
	}
}

func (m ScreenshotMode) String() string { return string(m) }

// Browser is one engine of the browser matrix.
type Browser string

const (
	Chromium Browser = "chromium"
	Firefox  Browser = "firefox"
	WebKit   Browser = "webkit"
)

// ParseBrowser converts a raw value into a Browser.
func ParseBrowser(s string) (Browser, error) {
	switch b := Browser(strings.ToLower(strings.TrimSpace(s))); b {
	case Chromium, Firefox, WebKit:
		return b, nil
	}
	return "", fmt.Errorf("%w: browser %q must be one of chromium, firefox, webkit", ErrInvalid, s)
}

// SupportsClipboardPermissions reports whether clipboard permissions can be
// granted to contexts of this browser. Only Chromium exposes them.
func (b Browser) SupportsClipboardPermissions() bool { return b == Chromium }

func (b Browser) String() string { return string(b) }

// Channel selects a branded build of Chromium.
type Channel string

const (
	ChannelNone   Channel = ""
	ChannelChrome Channel = "chrome"
	ChannelMSEdge Channel = "msedge"
)

// ParseChannel converts a raw value into a Channel. The empty string means
// the bundled browser build.
func ParseChannel(s string) (Channel, error) {
	switch c := Channel(strings.ToLower(strings.TrimSpace(s))); c {
	case ChannelNone, ChannelChrome, ChannelMSEdge:
		return c, nil
	}
	return "", fmt.Errorf("%w: browser channel %q must be one of chrome, msedge", ErrInvalid, s)
}

func (c Channel) String() string { return string(c) }

// LogLevel is the verbosity handed to the test runner.
type LogLevel string

const (
	LogCritical LogLevel = "CRITICAL"
	LogError    LogLevel = "ERROR"
	LogWarning  LogLevel = "WARNING"
	LogInfo     LogLevel = "INFO"
	LogDebug    LogLevel = "DEBUG"
)

// ParseLogLevel converts a raw value into a LogLevel. Matching is case-insensitive.
func ParseLogLevel(s string) (LogLevel, error) {
	switch l := LogLevel(strings.ToUpper(strings.TrimSpace(s))); l {
	case LogCritical, LogError, LogWarning, LogInfo, LogDebug:
		return l, nil
	}
	return "", fmt.Errorf("%w: log level %q must be one of CRITICAL, ERROR, WARNING, INFO, DEBUG", ErrInvalid, s)
}

// ZapLevel maps the level onto the name zap understands.
func (l LogLevel) ZapLevel() string {
	switch l {
	case LogCritical:
		return "fatal"
	case LogError:
		return "error"
	case LogWarning:
		return "warn"
	case LogInfo:
		return "info"
	default:
		return "debug"
	}
}

func (l LogLevel) String() string { return string(l) }
