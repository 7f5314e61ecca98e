// Package site holds the page objects of the booking site and the scan that
// finds its highest rated listings.
package site

import (
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/staywright/internal/browser"
)

// Site bundles the page objects bound to one browser page.
type Site struct {
	Home        *HomePage
	Search      *SearchBar
	Results     *ResultsPage
	Apartment   *ApartmentPage
	Reservation *ReservationPage
}

// Option customizes New.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces the clock used to validate stay dates.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New binds the page objects to page. baseURL is the site root.
func New(page browser.Page, baseURL string, logger *zap.Logger, opts ...Option) (*Site, error) {
	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("%w: base url %q", ErrInvalidArgument, baseURL)
	}
	if base.Path == "" {
		base.Path = "/"
	}
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("site")

	search := newSearchBar(page, logger, o.now)
	return &Site{
		Home:        newHomePage(page, base, logger, search),
		Search:      search,
		Results:     newResultsPage(page, base, logger, search),
		Apartment:   newApartmentPage(page, base, logger),
		Reservation: newReservationPage(page, base, logger),
	}, nil
}
