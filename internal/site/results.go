package site

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/xkilldash9x/staywright/internal/browser"
)

var firstNumber = regexp.MustCompile(`\d+`)

// ResultsPage is the search results listing.
type ResultsPage struct {
	page   browser.Page
	base   *url.URL
	logger *zap.Logger

	Pagination *PaginationBar
	SearchBar  *SearchBar

	header        browser.Locator
	filterButton  browser.Locator
	filtersForm   browser.Locator
	guestFavorite browser.Locator
	showResults   browser.Locator
}

func newResultsPage(page browser.Page, base *url.URL, logger *zap.Logger, search *SearchBar) *ResultsPage {
	form := page.Locator(testID("modal-container")).GetByLabel("Filters")
	return &ResultsPage{
		page:          page,
		base:          base,
		logger:        logger.Named("results_page"),
		Pagination:    newPaginationBar(page, logger),
		SearchBar:     search,
		header:        page.Locator(`//span[contains(text(), "Search results")]`),
		filterButton:  page.GetByTestID("category-bar-filter-button"),
		filtersForm:   form,
		guestFavorite: form.GetByRole("button", "").Filter("Guest favorites"),
		showResults:   form.Locator("a").Filter("places"),
	}
}

var titleCase = cases.Title(language.English)

// LocationURL is the results URL prefix for a destination.
func (r *ResultsPage) LocationURL(location string) string {
	return r.base.JoinPath("s", titleCase.String(location)).String()
}

// DatesQuery is the URL fragment that encodes the stay.
func DatesQuery(checkIn, checkOut time.Time) string {
	return fmt.Sprintf("calendar&checkin=%s&checkout=%s", checkIn.Format(time.DateOnly), checkOut.Format(time.DateOnly))
}

// ValidateNavigation checks the page URL reflects the searched destination
// and dates.
func (r *ResultsPage) ValidateNavigation(location string, checkIn, checkOut time.Time) error {
	current := r.page.URL()
	for _, want := range []string{r.LocationURL(location), DatesQuery(checkIn, checkOut)} {
		if !strings.Contains(current, want) {
			return fmt.Errorf("%w: %q does not contain %q", ErrNavigationAssertion, current, want)
		}
	}
	return nil
}

// AssertGuestsInURL checks every non-zero guest counter is part of the URL.
func (r *ResultsPage) AssertGuestsInURL(g Guests) error {
	current := r.page.URL()
	for _, kind := range GuestKinds {
		n := g.Count(kind)
		if n == 0 {
			continue
		}
		if want := fmt.Sprintf("%s=%d", kind, n); !strings.Contains(current, want) {
			return fmt.Errorf("%w: %q does not contain %q", ErrNavigationAssertion, current, want)
		}
	}
	return nil
}

// ResultsCount reads the number of places from the header. ok is false when
// the header carries no number.
func (r *ResultsPage) ResultsCount() (count int, ok bool, err error) {
	if err := r.header.WaitVisible(0); err != nil {
		return 0, false, err
	}
	text, err := r.header.TextContent()
	if err != nil {
		return 0, false, err
	}
	m := firstNumber.FindString(text)
	if m == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

// FilterByGuestFavorites applies the "Guest favorites" filter.
func (r *ResultsPage) FilterByGuestFavorites() error {
	steps := []struct {
		name string
		loc  browser.Locator
	}{
		{"filters button", r.filterButton},
		{"guest favorites", r.guestFavorite},
		{"show results", r.showResults},
	}
	for _, st := range steps {
		if err := st.loc.Click(); err != nil {
			return fmt.Errorf("clicking %s: %w", st.name, err)
		}
	}
	if err := r.page.WaitForLoad(); err != nil {
		return err
	}
	if err := waitForResultCards(r.page); err != nil {
		return err
	}
	r.logger.Info("Guest favorites filter applied.")
	return nil
}

// Cards returns the listing cards of the current page without waiting for
// them; callers that change the page wait for the grid first.
func (r *ResultsPage) Cards() ([]browser.Locator, error) {
	return r.page.Locator(cardContainerSelector).All()
}

// Rating extracts the rating of card.
func (r *ResultsPage) Rating(card browser.Locator) (float64, bool, error) {
	if err := card.WaitVisible(0); err != nil {
		return 0, false, err
	}
	text, err := card.TextContent()
	if err != nil {
		return 0, false, err
	}
	v, ok := ExtractRating(text)
	return v, ok, nil
}

// Link returns the absolute URL the card points to.
func (r *ResultsPage) Link(card browser.Locator) (string, error) {
	href, err := card.Locator("a").First().Attribute("href")
	if err != nil {
		return "", err
	}
	return resolveLink(r.base, href)
}

// HighestRated scans every result page for the best rated listings.
func (r *ResultsPage) HighestRated(ctx context.Context) ([]CardRecord, error) {
	records, err := HighestRated(ctx, r, r.Pagination)
	if err != nil {
		return nil, err
	}
	r.logger.Info("Highest rated listings collected.", zap.Int("count", len(records)))
	return records, nil
}

// NavigateToCard opens the listing of rec.
func (r *ResultsPage) NavigateToCard(rec CardRecord) error {
	if err := r.page.Goto(rec.Link); err != nil {
		return fmt.Errorf("opening listing %s: %w", rec.Link, err)
	}
	return r.page.WaitForLoad()
}

// OpenHighestRated filters by guest favorites, scans the results and opens
// the first highest rated listing.
func (r *ResultsPage) OpenHighestRated(ctx context.Context) (CardRecord, error) {
	if err := r.FilterByGuestFavorites(); err != nil {
		return CardRecord{}, err
	}
	records, err := r.HighestRated(ctx)
	if err != nil {
		return CardRecord{}, err
	}
	if len(records) == 0 {
		return CardRecord{}, fmt.Errorf("%w: no rated listing was found", ErrAggregation)
	}
	best := records[0]
	r.logger.Info("Opening highest rated listing.",
		zap.Float64("rating", best.Rating),
		zap.Int("page", best.Page),
		zap.String("link", best.Link),
	)
	return best, r.NavigateToCard(best)
}
