package fixture

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/xkilldash9x/staywright/internal/browser"
)

// TeardownInput carries the test result into Teardown.
type TeardownInput struct {
	Outcome Outcome
	// SetupOverride is set when the setup hook failed. Artifacts then go to
	// the base_test_setup folder and are labelled with this outcome.
	SetupOverride *Outcome
}

// TeardownReport lists what Teardown did with every recording.
type TeardownReport struct {
	Folder    string
	Status    string
	Persisted []string
	Swallowed []error
}

// Teardown persists or discards the session recordings according to the
// configured policy and closes the context. The order is fixed: the trace is
// stopped first, screenshots are taken while pages are still open, the
// context is closed, and only then are videos saved, because a video is
// complete only once its page has closed.
//
// Capture failures never fail the test; they are collected in the report.
// The returned error is only set when the context could not be closed.
func (s *Session) Teardown(in TeardownInput) (TeardownReport, error) {
	s.mu.Lock()
	if s.tornDown {
		s.mu.Unlock()
		return TeardownReport{}, ErrTornDown
	}
	s.tornDown = true
	pages := append([]browser.Page(nil), s.pages...)
	s.mu.Unlock()

	outcome := in.Outcome
	setupPhase := in.SetupOverride != nil
	if setupPhase {
		outcome = *in.SetupOverride
	}
	failed := outcome.Failed()

	report := TeardownReport{
		Folder: filepath.Join(s.settings.OutputDir, s.identity.Folder(s.settings.RootFolder, setupPhase)),
		Status: outcome.Status(),
	}
	capture := func(kind ArtifactKind, path string, err error) {
		if err != nil {
			report.Swallowed = append(report.Swallowed, &ArtifactCaptureError{Kind: kind, Path: path, Err: err})
			return
		}
		report.Persisted = append(report.Persisted, path)
	}

	// 1. Trace
	if s.tracing {
		if s.settings.Tracing.Retain(failed) {
			path := ArtifactPath(report.Folder, KindTrace, report.Status, 0)
			capture(KindTrace, path, s.ctx.StopTracing(path))
		} else if err := s.ctx.StopTracing(""); err != nil {
			s.logger.Debug("Failed to discard trace.", zap.Error(err))
		}
	}

	// 2. Screenshots, while the pages are still open
	if s.settings.Screenshot.Capture(failed) {
		for i, p := range pages {
			path := ArtifactPath(report.Folder, KindScreenshot, report.Status, i+1)
			capture(KindScreenshot, path, p.Screenshot(browser.ScreenshotOptions{
				Path:     path,
				FullPage: s.settings.FullPageScreenshot,
				Timeout:  ScreenshotTimeout,
			}))
		}
	}

	// 3. Close
	var closeErr error
	if err := s.ctx.Close(); err != nil {
		closeErr = fmt.Errorf("failed to close browser context: %w", err)
	}

	// 4. Videos, finalized by the close above
	if s.settings.Video.Records() {
		keep := s.settings.Video.Retain(failed)
		for i, p := range pages {
			v := p.Video()
			if v == nil {
				continue
			}
			if !keep {
				if err := v.Delete(); err != nil {
					s.logger.Debug("Failed to delete discarded video.", zap.Int("page", i+1), zap.Error(err))
				}
				continue
			}
			path := ArtifactPath(report.Folder, KindVideo, report.Status, i+1)
			capture(KindVideo, path, v.SaveAs(path))
		}
	}

	if len(report.Swallowed) > 0 {
		s.logger.Warn("Some artifacts could not be captured.",
			zap.String("outcome", outcome.String()),
			zap.Errors("errors", report.Swallowed),
		)
	}
	s.logger.Debug("Session torn down.",
		zap.String("outcome", outcome.String()),
		zap.String("folder", report.Folder),
		zap.Strings("persisted", report.Persisted),
	)
	return report, closeErr
}
