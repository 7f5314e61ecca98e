package site

import (
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/staywright/internal/browser"
)

// ReservationPage is the booking confirmation step.
type ReservationPage struct {
	page   browser.Page
	base   *url.URL
	logger *zap.Logger
	title  browser.Locator
}

func newReservationPage(page browser.Page, base *url.URL, logger *zap.Logger) *ReservationPage {
	return &ReservationPage{
		page:   page,
		base:   base,
		logger: logger.Named("reservation_page"),
		title:  page.Locator(`[data-section-id="DESKTOP_TITLE"]`),
	}
}

// WaitLoaded blocks until the reservation title is visible.
func (r *ReservationPage) WaitLoaded() error {
	if err := r.title.WaitVisible(0); err != nil {
		return fmt.Errorf("waiting for reservation page: %w", err)
	}
	return nil
}

// ValidateNavigation checks the browser is on the booking flow.
func (r *ReservationPage) ValidateNavigation() error {
	current := r.page.URL()
	if !strings.HasPrefix(current, r.base.JoinPath("book").String()) {
		return fmt.Errorf("%w: %q is not a reservation page", ErrNavigationAssertion, current)
	}
	return nil
}

// AssertAdults checks the URL books for adults adults.
func (r *ReservationPage) AssertAdults(adults int) error {
	if adults < 1 {
		return fmt.Errorf("%w: a booking needs at least one adult", ErrInvalidArgument)
	}
	current := r.page.URL()
	if want := fmt.Sprintf("numberOfAdults=%d", adults); !strings.Contains(current, want) {
		return fmt.Errorf("%w: %q does not contain %q", ErrNavigationAssertion, current, want)
	}
	return nil
}
