package site

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/staywright/internal/browser"
)

// TranslationPopupTimeout bounds the wait for the auto-translation notice.
const TranslationPopupTimeout = 3 * time.Second

// ApartmentPage is a single listing.
type ApartmentPage struct {
	page   browser.Page
	base   *url.URL
	logger *zap.Logger

	translationPopup browser.Locator
	closePopup       browser.Locator
	reserveButtons   browser.Locator
}

func newApartmentPage(page browser.Page, base *url.URL, logger *zap.Logger) *ApartmentPage {
	return &ApartmentPage{
		page:             page,
		base:             base,
		logger:           logger.Named("apartment_page"),
		translationPopup: page.GetByLabel("Translation on"),
		closePopup:       page.GetByRole("button", "Close"),
		reserveButtons:   page.Locator(testID("book-it-default") + " " + testID("homes-pdp-cta-btn")),
	}
}

// DismissTranslationPopup closes the translation notice if it shows up.
func (a *ApartmentPage) DismissTranslationPopup() error {
	if err := a.translationPopup.WaitVisible(TranslationPopupTimeout); err != nil {
		if errors.Is(err, browser.ErrTimeout) {
			return nil
		}
		return err
	}
	if err := a.closePopup.Click(); err != nil {
		return fmt.Errorf("closing translation popup: %w", err)
	}
	a.logger.Debug("Translation popup dismissed.")
	return nil
}

// ValidateNavigation checks the browser is on a listing.
func (a *ApartmentPage) ValidateNavigation() error {
	current := a.page.URL()
	for _, section := range []string{"rooms", "luxury"} {
		if strings.HasPrefix(current, a.base.JoinPath(section).String()) {
			return nil
		}
	}
	return fmt.Errorf("%w: %q is not a listing page", ErrNavigationAssertion, current)
}

// Reserve clicks the first visible and enabled reserve button.
func (a *ApartmentPage) Reserve() error {
	buttons, err := a.reserveButtons.All()
	if err != nil {
		return err
	}
	for _, b := range buttons {
		visible, err := b.IsVisible()
		if err != nil {
			return err
		}
		enabled, err := b.IsEnabled()
		if err != nil {
			return err
		}
		if visible && enabled {
			if err := b.Click(); err != nil {
				return fmt.Errorf("clicking reserve: %w", err)
			}
			return a.page.WaitForLoad()
		}
	}
	return fmt.Errorf("%w: no clickable reserve button among %d", ErrNavigationAssertion, len(buttons))
}
