package site

import (
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/xkilldash9x/staywright/internal/browser"
)

// HomePage is the landing page with the full search bar.
type HomePage struct {
	page      browser.Page
	base      *url.URL
	logger    *zap.Logger
	SearchBar *SearchBar
}

func newHomePage(page browser.Page, base *url.URL, logger *zap.Logger, search *SearchBar) *HomePage {
	return &HomePage{page: page, base: base, logger: logger.Named("home_page"), SearchBar: search}
}

// Navigate opens the landing page and waits for it to load.
func (h *HomePage) Navigate() error {
	if err := h.page.Goto("/"); err != nil {
		return fmt.Errorf("opening home page: %w", err)
	}
	if err := h.page.WaitForLoad(); err != nil {
		return err
	}
	h.logger.Info("Home page opened.", zap.String("url", h.page.URL()))
	return nil
}

// ValidateNavigation checks the browser is on the landing page.
func (h *HomePage) ValidateNavigation() error {
	if got, want := h.page.URL(), h.base.String(); got != want {
		return fmt.Errorf("%w: on %q, expected %q", ErrNavigationAssertion, got, want)
	}
	return nil
}
