package fixture

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/staywright/internal/browser"
	"github.com/xkilldash9x/staywright/internal/browser/browsertest"
	"github.com/xkilldash9x/staywright/internal/config"
)

const (
	testRoot   = "/suite"
	testOutput = "/suite/reports/test-report-run-07-03-2024_09-05-03"
)

var testIdentity = Identity{
	File: "/suite/e2e/flows_test.go",
	Name: "TestGetHighestRatingPage/chromium",
}

func newSettings(mutate func(*Settings)) Settings {
	s := Settings{
		OutputDir:         testOutput,
		RootFolder:        testRoot,
		Tracing:           config.RecordingRetainOnFailure,
		Video:             config.RecordingRetainOnFailure,
		Screenshot:        config.ScreenshotOnlyOnFailure,
		Viewport:          config.Viewport{Width: 1600, Height: 900},
		IgnoreHTTPSErrors: true,
		DefaultTimeout:    5 * time.Second,
		NavigationTimeout: 45 * time.Second,
	}
	if mutate != nil {
		mutate(&s)
	}
	return s
}

func setupSession(t *testing.T, b *browsertest.Browser, settings Settings) (*Session, *browsertest.Context) {
	t.Helper()
	s, err := Setup(b, browser.ContextOptions{RecordVideoDir: "/tmp/videos"}, settings, testIdentity, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, b.Contexts, 1)
	return s, b.Contexts[0]
}

const artifactFolder = testOutput + "/e2e.flows_test.TestGetHighestRatingPage_chromium"

// -- Identity --

func TestIdentity_Folder(t *testing.T) {
	tests := []struct {
		name  string
		id    Identity
		setup bool
		want  string
	}{
		{"subtest separator", testIdentity, false, "e2e.flows_test.TestGetHighestRatingPage_chromium"},
		{"brackets in parametrized names", Identity{File: "/suite/e2e/flows_test.go", Name: "TestSearch[chromium-Amsterdam]"}, false, "e2e.flows_test.TestSearch_chromium-Amsterdam"},
		{"setup phase ignores the name", testIdentity, true, "e2e.flows_test.base_test_setup"},
		{"nested package", Identity{File: "/suite/e2e/booking/reserve_test.go", Name: "TestReserve"}, false, "e2e.booking.reserve_test.TestReserve"},
		{"file outside root", Identity{File: "/elsewhere/x_test.go", Name: "TestX"}, false, "x_test.TestX"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.id.Folder(testRoot, tt.setup))
		})
	}
}

func TestArtifactPath(t *testing.T) {
	assert.Equal(t, "/out/x/trace_failed.zip", ArtifactPath("/out/x", KindTrace, "failed", 0))
	assert.Equal(t, "/out/x/screenshot_passed-2.png", ArtifactPath("/out/x", KindScreenshot, "passed", 2))
	assert.Equal(t, "/out/x/video_failed-1.webm", ArtifactPath("/out/x", KindVideo, "failed", 1))
}

func TestOutcome(t *testing.T) {
	assert.False(t, OutcomePassed.Failed())
	assert.True(t, OutcomeFailed.Failed())
	assert.True(t, OutcomeUnknown.Failed(), "a test without a result counts as failed")
	assert.Equal(t, "failed", OutcomeUnknown.Status())
	assert.Equal(t, "unknown", OutcomeUnknown.String())
}

// -- Context Initializer --

func TestSetup_ConfiguresContext(t *testing.T) {
	b := browsertest.NewBrowser(config.Chromium)
	settings := newSettings(func(s *Settings) { s.ClipboardPermissions = true })
	base := browser.ContextOptions{
		BaseURL:        "https://www.airbnb.com/",
		Locale:         "en-US",
		Viewport:       &browser.Size{Width: 10, Height: 10},
		RecordVideoDir: "/tmp/videos",
	}

	s, err := Setup(b, base, settings, testIdentity, zap.NewNop(), browser.WithLocale("nl-NL"))
	require.NoError(t, err)
	c := b.Contexts[0]

	assert.Equal(t, "nl-NL", b.LastOpts.Locale, "per-test overrides win over defaults")
	assert.Equal(t, "https://www.airbnb.com/", b.LastOpts.BaseURL)
	assert.Equal(t, &browser.Size{Width: 1600, Height: 900}, b.LastOpts.Viewport, "viewport always comes from settings")
	assert.Equal(t, &browser.Size{Width: 1600, Height: 900}, b.LastOpts.RecordVideoSize)
	assert.Equal(t, "/tmp/videos", b.LastOpts.RecordVideoDir)
	assert.True(t, b.LastOpts.IgnoreHTTPSErrors)

	require.NotNil(t, c.Tracing)
	assert.Equal(t, browser.TracingOptions{Title: testIdentity.Name, Screenshots: true, Snapshots: true, Sources: true}, *c.Tracing)
	assert.Equal(t, 5*time.Second, c.DefaultTimeout)
	assert.Equal(t, 45*time.Second, c.NavigationTimeout)
	assert.Equal(t, []string{"clipboard-write", "clipboard-read"}, c.Permissions)
	assert.NotEmpty(t, s.ID())
	assert.Equal(t, config.Chromium, s.Browser())
}

func TestSetup_ClipboardOnlyForChromium(t *testing.T) {
	for _, kind := range []config.Browser{config.Firefox, config.WebKit} {
		t.Run(kind.String(), func(t *testing.T) {
			b := browsertest.NewBrowser(kind)
			_, c := setupSession(t, b, newSettings(func(s *Settings) { s.ClipboardPermissions = true }))
			assert.Empty(t, c.Permissions)
		})
	}

	t.Run("chromium without the flag", func(t *testing.T) {
		b := browsertest.NewBrowser(config.Chromium)
		_, c := setupSession(t, b, newSettings(nil))
		assert.Empty(t, c.Permissions)
	})
}

func TestSetup_TracingTitleFallsBackToPlaceholder(t *testing.T) {
	b := browsertest.NewBrowser(config.Chromium)
	_, err := Setup(b, browser.ContextOptions{}, newSettings(nil), Identity{File: testIdentity.File}, zap.NewNop())
	require.NoError(t, err)

	require.NotNil(t, b.Contexts[0].Tracing)
	assert.Equal(t, PlaceholderTraceTitle, b.Contexts[0].Tracing.Title)
}

func TestSetup_TracingOffDoesNotRecord(t *testing.T) {
	b := browsertest.NewBrowser(config.Chromium)
	_, c := setupSession(t, b, newSettings(func(s *Settings) { s.Tracing = config.RecordingOff }))
	assert.Nil(t, c.Tracing)
}

func TestSetup_VideoOffDoesNotRecord(t *testing.T) {
	b := browsertest.NewBrowser(config.Firefox)
	setupSession(t, b, newSettings(func(s *Settings) { s.Video = config.RecordingOff }))
	assert.Empty(t, b.LastOpts.RecordVideoDir)
}

func TestSetup_Errors(t *testing.T) {
	t.Run("context creation failure", func(t *testing.T) {
		b := browsertest.NewBrowser(config.Chromium)
		b.NewErr = errors.New("browser crashed")

		_, err := Setup(b, browser.ContextOptions{}, newSettings(nil), testIdentity, zap.NewNop())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "browser crashed")
	})

	t.Run("failure after the context opened closes it", func(t *testing.T) {
		b := browsertest.NewBrowser(config.Chromium)
		b.ContextSetup = func(c *browsertest.Context) { c.GrantErr = errors.New("denied") }

		_, err := Setup(b, browser.ContextOptions{}, newSettings(func(s *Settings) { s.ClipboardPermissions = true }), testIdentity, zap.NewNop())
		require.Error(t, err)
		assert.True(t, b.Contexts[0].Closed)
	})
}

func TestSession_TracksEveryPage(t *testing.T) {
	b := browsertest.NewBrowser(config.Chromium)
	s, c := setupSession(t, b, newSettings(nil))

	p, err := s.NewPage()
	require.NoError(t, err)
	popup := c.Open()

	pages := s.Pages()
	require.Len(t, pages, 2)
	assert.Same(t, p, pages[0])
	assert.Same(t, popup, pages[1])
}

// -- Artifact Policy Engine --

func TestTeardown_OrderIsFixed(t *testing.T) {
	b := browsertest.NewBrowser(config.Chromium)
	settings := newSettings(func(s *Settings) {
		s.Tracing = config.RecordingOn
		s.Video = config.RecordingOn
		s.Screenshot = config.ScreenshotOn
	})
	s, c := setupSession(t, b, settings)
	_, err := s.NewPage()
	require.NoError(t, err)
	c.Open()

	before := len(b.Journal.Calls())
	report, err := s.Teardown(TeardownInput{Outcome: OutcomeFailed})
	require.NoError(t, err)

	want := []string{
		"tracing.stop " + artifactFolder + "/trace_failed.zip",
		"page1.screenshot " + artifactFolder + "/screenshot_failed-1.png",
		"page2.screenshot " + artifactFolder + "/screenshot_failed-2.png",
		"context.close",
		"video1.save " + artifactFolder + "/video_failed-1.webm",
		"video2.save " + artifactFolder + "/video_failed-2.webm",
	}
	assert.Equal(t, want, b.Journal.Calls()[before:])
	assert.Equal(t, artifactFolder, report.Folder)
	assert.Equal(t, "failed", report.Status)
	assert.Len(t, report.Persisted, 5)
	assert.Empty(t, report.Swallowed)
}

func TestTeardown_DecisionTable(t *testing.T) {
	recordingModes := []config.RecordingMode{config.RecordingOn, config.RecordingOff, config.RecordingRetainOnFailure}
	screenshotModes := []config.ScreenshotMode{config.ScreenshotOn, config.ScreenshotOff, config.ScreenshotOnlyOnFailure}
	outcomes := []Outcome{OutcomePassed, OutcomeFailed, OutcomeUnknown}

	kept := map[config.RecordingMode]map[bool]bool{
		config.RecordingOn:              {false: true, true: true},
		config.RecordingOff:             {false: false, true: false},
		config.RecordingRetainOnFailure: {false: false, true: true},
	}
	shot := map[config.ScreenshotMode]map[bool]bool{
		config.ScreenshotOn:            {false: true, true: true},
		config.ScreenshotOff:           {false: false, true: false},
		config.ScreenshotOnlyOnFailure: {false: false, true: true},
	}

	for _, trace := range recordingModes {
		for _, video := range recordingModes {
			for _, screenshot := range screenshotModes {
				for _, outcome := range outcomes {
					name := fmt.Sprintf("trace=%s/video=%s/screenshot=%s/%s", trace, video, screenshot, outcome)
					t.Run(name, func(t *testing.T) {
						b := browsertest.NewBrowser(config.Chromium)
						s, _ := setupSession(t, b, newSettings(func(s *Settings) {
							s.Tracing = trace
							s.Video = video
							s.Screenshot = screenshot
						}))
						_, err := s.NewPage()
						require.NoError(t, err)

						report, err := s.Teardown(TeardownInput{Outcome: outcome})
						require.NoError(t, err)

						failed := outcome != OutcomePassed
						status := "passed"
						if failed {
							status = "failed"
						}
						var want []string
						if kept[trace][failed] {
							want = append(want, filepath.Join(artifactFolder, "trace_"+status+".zip"))
						}
						if shot[screenshot][failed] {
							want = append(want, filepath.Join(artifactFolder, "screenshot_"+status+"-1.png"))
						}
						if kept[video][failed] {
							want = append(want, filepath.Join(artifactFolder, "video_"+status+"-1.webm"))
						}
						assert.Equal(t, want, report.Persisted)

						calls := b.Journal.Calls()
						if trace != config.RecordingOff && !kept[trace][failed] {
							assert.Contains(t, calls, "tracing.stop discard")
						}
						if video != config.RecordingOff && !kept[video][failed] {
							assert.Contains(t, calls, "video1.delete")
						}
					})
				}
			}
		}
	}
}

func TestTeardown_SwallowsCaptureFailures(t *testing.T) {
	tests := []struct {
		outcome Outcome
		status  string
	}{
		{OutcomePassed, "passed"},
		{OutcomeFailed, "failed"},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			b := browsertest.NewBrowser(config.Chromium)
			b.ContextSetup = func(c *browsertest.Context) {
				c.PageSetup = func(p *browsertest.Page) {
					if p.Index == 1 {
						p.ScreenshotErr = errors.New("page crashed")
						p.VideoValue.SaveErr = errors.New("disk full")
					}
				}
			}
			settings := newSettings(func(s *Settings) {
				s.Video = config.RecordingOn
				s.Screenshot = config.ScreenshotOn
			})
			s, c := setupSession(t, b, settings)
			c.Open()
			c.Open()

			report, err := s.Teardown(TeardownInput{Outcome: tt.outcome})
			require.NoError(t, err, "capture failures must not surface as teardown errors")
			assert.Equal(t, tt.status, report.Status)

			require.Len(t, report.Swallowed, 2)
			var captureErr *ArtifactCaptureError
			require.ErrorAs(t, report.Swallowed[0], &captureErr)
			assert.Equal(t, KindScreenshot, captureErr.Kind)
			assert.Equal(t, artifactFolder+"/screenshot_"+tt.status+"-1.png", captureErr.Path)
			require.ErrorAs(t, report.Swallowed[1], &captureErr)
			assert.Equal(t, KindVideo, captureErr.Kind)

			assert.Equal(t, []string{
				artifactFolder + "/screenshot_" + tt.status + "-2.png",
				artifactFolder + "/video_" + tt.status + "-2.webm",
			}, report.Persisted)
			assert.True(t, c.Closed)
		})
	}
}

func TestTeardown_SkipsPagesWithoutVideo(t *testing.T) {
	b := browsertest.NewBrowser(config.Chromium)
	b.ContextSetup = func(c *browsertest.Context) {
		c.PageSetup = func(p *browsertest.Page) {
			if p.Index == 1 {
				p.VideoValue = nil
			}
		}
	}
	s, c := setupSession(t, b, newSettings(func(s *Settings) { s.Video = config.RecordingOn }))
	c.Open()
	c.Open()

	report, err := s.Teardown(TeardownInput{Outcome: OutcomePassed})
	require.NoError(t, err)
	assert.Equal(t, []string{artifactFolder + "/video_passed-2.webm"}, report.Persisted, "indices stay tied to page order")
	assert.Empty(t, report.Swallowed)
}

func TestTeardown_SetupOverride(t *testing.T) {
	b := browsertest.NewBrowser(config.Chromium)
	s, c := setupSession(t, b, newSettings(func(s *Settings) { s.Screenshot = config.ScreenshotOn }))
	c.Open()

	failed := OutcomeFailed
	report, err := s.Teardown(TeardownInput{Outcome: OutcomePassed, SetupOverride: &failed})
	require.NoError(t, err)

	folder := testOutput + "/e2e.flows_test.base_test_setup"
	assert.Equal(t, folder, report.Folder)
	assert.Equal(t, []string{
		folder + "/trace_failed.zip",
		folder + "/screenshot_failed-1.png",
		folder + "/video_failed-1.webm",
	}, report.Persisted)
}

func TestTeardown_CloseErrorIsReturned(t *testing.T) {
	b := browsertest.NewBrowser(config.Chromium)
	b.ContextSetup = func(c *browsertest.Context) { c.CloseErr = errors.New("already gone") }
	s, c := setupSession(t, b, newSettings(nil))
	c.Open()

	report, err := s.Teardown(TeardownInput{Outcome: OutcomeFailed})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already gone")
	assert.Contains(t, report.Persisted, artifactFolder+"/video_failed-1.webm", "videos are still processed")
}

func TestTeardown_OnlyOnce(t *testing.T) {
	b := browsertest.NewBrowser(config.Chromium)
	s, _ := setupSession(t, b, newSettings(nil))

	_, err := s.Teardown(TeardownInput{Outcome: OutcomePassed})
	require.NoError(t, err)
	_, err = s.Teardown(TeardownInput{Outcome: OutcomePassed})
	assert.ErrorIs(t, err, ErrTornDown)
}
