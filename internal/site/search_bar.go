package site

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/staywright/internal/browser"
)

// GuestKind is one of the guest counters of the search bar.
type GuestKind string

const (
	Adults   GuestKind = "adults"
	Children GuestKind = "children"
	Infants  GuestKind = "infants"
	Pets     GuestKind = "pets"
)

// GuestKinds lists the counters in the order the site renders them.
var GuestKinds = []GuestKind{Adults, Children, Infants, Pets}

// StepAction is a stepper button.
type StepAction string

const (
	Increase StepAction = "increase"
	Decrease StepAction = "decrease"
)

// Guests is a full guest selection.
type Guests struct {
	Adults   int
	Children int
	Infants  int
	Pets     int
}

// Count returns the number for kind.
func (g Guests) Count(kind GuestKind) int {
	switch kind {
	case Adults:
		return g.Adults
	case Children:
		return g.Children
	case Infants:
		return g.Infants
	default:
		return g.Pets
	}
}

const (
	destinationPollInterval = time.Second
	destinationPollTimeout  = 15 * time.Second
	calendarSettleDelay     = time.Second
	stepperDelay            = 500 * time.Millisecond
	expandSettleDelay       = time.Second
	// ExpandTimeout bounds the wait for the collapsed search bar.
	ExpandTimeout = 5 * time.Second
)

// SearchBar drives the destination, dates and guests search form.
type SearchBar struct {
	page   browser.Page
	logger *zap.Logger
	now    func() time.Time

	root         browser.Locator
	options      browser.Locator
	destination  browser.Locator
	checkIn      browser.Locator
	checkOut     browser.Locator
	guestsButton browser.Locator
	guestsPanel  browser.Locator
	searchButton browser.Locator
	littleSearch browser.Locator
}

func newSearchBar(page browser.Page, logger *zap.Logger, now func() time.Time) *SearchBar {
	root := page.Locator("#search-tabpanel")
	return &SearchBar{
		page:         page,
		logger:       logger.Named("search_bar"),
		now:          now,
		root:         root,
		options:      page.GetByRole("listbox", "").GetByRole("option", ""),
		destination:  root.Locator("#bigsearch-query-location-input"),
		checkIn:      page.GetByTestID("structured-search-input-field-split-dates-0"),
		checkOut:     page.GetByTestID("structured-search-input-field-split-dates-1"),
		guestsButton: page.GetByTestID("structured-search-input-field-guests-button"),
		guestsPanel:  page.GetByTestID("structured-search-input-field-guests-panel"),
		searchButton: page.GetByTestID("structured-search-input-search-button"),
		littleSearch: page.GetByTestID("little-search"),
	}
}

func calendarDay(t time.Time) string {
	return testID("calendar-day-" + t.Format("01/02/2006"))
}

func stepperButton(kind GuestKind, action StepAction) string {
	return testID(fmt.Sprintf("stepper-%s-%s-button", kind, action))
}

func stepperValue(kind GuestKind) string {
	return testID(fmt.Sprintf("stepper-%s-value", kind))
}

// SearchDestination types value, picks the matching suggestion and waits for
// the input to hold the selection.
func (s *SearchBar) SearchDestination(value string) error {
	if err := s.destination.Fill(value); err != nil {
		return fmt.Errorf("typing destination: %w", err)
	}
	option := s.options.Filter(value).First()
	if err := option.WaitVisible(0); err != nil {
		return fmt.Errorf("waiting for destination suggestion %q: %w", value, err)
	}
	if err := option.Click(); err != nil {
		return fmt.Errorf("choosing destination suggestion %q: %w", value, err)
	}

	for waited := time.Duration(0); ; waited += destinationPollInterval {
		v, err := s.destination.Attribute("value")
		if err != nil {
			return err
		}
		if v != "" {
			s.logger.Info("Destination selected.", zap.String("destination", v))
			return nil
		}
		if waited >= destinationPollTimeout {
			return fmt.Errorf("%w: destination input still empty after %s", browser.ErrTimeout, destinationPollTimeout)
		}
		s.page.Wait(destinationPollInterval)
	}
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// InsertDates selects the stay in the calendar. It returns false when one of
// the days is not selectable on the site.
func (s *SearchBar) InsertDates(checkIn, checkOut time.Time) (bool, error) {
	today := dateOnly(s.now())
	in, out := dateOnly(checkIn), dateOnly(checkOut)
	if in.Before(today) {
		return false, fmt.Errorf("%w: check-in %s is in the past", ErrInvalidArgument, checkIn.Format(time.DateOnly))
	}
	if out.Before(today) || out.Before(in) {
		return false, fmt.Errorf("%w: check-out %s is before check-in or today", ErrInvalidArgument, checkOut.Format(time.DateOnly))
	}

	if err := s.openPanel(s.checkIn); err != nil {
		return false, err
	}
	inDay := s.page.Locator(calendarDay(checkIn))
	outDay := s.page.Locator(calendarDay(checkOut))
	s.page.Wait(calendarSettleDelay)

	for _, day := range []browser.Locator{inDay, outDay} {
		enabled, err := day.IsEnabled()
		if err != nil {
			return false, err
		}
		if !enabled {
			s.logger.Warn("Calendar day is not selectable.",
				zap.String("check_in", checkIn.Format(time.DateOnly)),
				zap.String("check_out", checkOut.Format(time.DateOnly)),
			)
			return false, nil
		}
	}
	if err := inDay.Click(); err != nil {
		return false, fmt.Errorf("clicking check-in day: %w", err)
	}
	if err := outDay.Click(); err != nil {
		return false, fmt.Errorf("clicking check-out day: %w", err)
	}
	return true, nil
}

// openPanel clicks button unless its panel is already expanded.
func (s *SearchBar) openPanel(button browser.Locator) error {
	expanded, err := button.Attribute("aria-expanded")
	if err != nil {
		return err
	}
	if expanded == "true" {
		return nil
	}
	if err := button.Click(); err != nil {
		return fmt.Errorf("opening search panel: %w", err)
	}
	return nil
}

// AddGuests presses the stepper of kind quantity times.
func (s *SearchBar) AddGuests(kind GuestKind, action StepAction, quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("%w: negative guest quantity %d", ErrInvalidArgument, quantity)
	}
	if err := s.openPanel(s.guestsButton); err != nil {
		return err
	}
	if err := s.guestsPanel.WaitVisible(0); err != nil {
		return fmt.Errorf("waiting for guests panel: %w", err)
	}
	button := s.page.Locator(stepperButton(kind, action))
	for i := 0; i < quantity; i++ {
		if err := button.Click(); err != nil {
			return fmt.Errorf("pressing %s %s: %w", kind, action, err)
		}
		s.page.Wait(stepperDelay)
	}
	s.logger.Info("Guests updated.", zap.String("kind", string(kind)), zap.String("action", string(action)), zap.Int("quantity", quantity))
	return nil
}

// ClickSearch submits the form and waits for the results page to load.
func (s *SearchBar) ClickSearch() error {
	if err := s.searchButton.Click(); err != nil {
		return fmt.Errorf("clicking search: %w", err)
	}
	return s.page.WaitForLoad()
}

// Expand opens the collapsed search bar on the results page. It returns false
// when the collapsed bar does not show up within timeout.
func (s *SearchBar) Expand(timeout time.Duration) (bool, error) {
	if err := s.littleSearch.WaitVisible(timeout); err != nil {
		if errors.Is(err, browser.ErrTimeout) {
			s.logger.Warn("Collapsed search bar not found.", zap.Duration("timeout", timeout))
			return false, nil
		}
		return false, err
	}
	if err := s.littleSearch.Click(); err != nil {
		return false, fmt.Errorf("expanding search bar: %w", err)
	}
	s.page.Wait(expandSettleDelay)
	return true, nil
}

// GuestsCount reads the current value of a stepper. The guests panel must be
// open.
func (s *SearchBar) GuestsCount(kind GuestKind) (int, error) {
	text, err := s.page.Locator(stepperValue(kind)).TextContent()
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, fmt.Errorf("%s counter %q is not a number: %w", kind, text, err)
	}
	return n, nil
}

// AssertLocation checks the destination input contains location, ignoring case.
func (s *SearchBar) AssertLocation(location string) error {
	v, err := s.destination.Attribute("value")
	if err != nil {
		return err
	}
	if !strings.Contains(strings.ToLower(v), strings.ToLower(location)) {
		return fmt.Errorf("%w: destination %q does not contain %q", ErrNavigationAssertion, v, location)
	}
	return nil
}

// shortDate renders t the way the date buttons show it, e.g. "Oct 19".
func shortDate(t time.Time) string { return fmt.Sprintf("%s %d", t.Format("Jan"), t.Day()) }

// AssertDates checks both date buttons show the expected days.
func (s *SearchBar) AssertDates(checkIn, checkOut time.Time) error {
	for _, c := range []struct {
		button browser.Locator
		date   time.Time
	}{{s.checkIn, checkIn}, {s.checkOut, checkOut}} {
		text, err := c.button.TextContent()
		if err != nil {
			return err
		}
		if want := shortDate(c.date); !strings.Contains(text, want) {
			return fmt.Errorf("%w: date button %q does not show %q", ErrNavigationAssertion, text, want)
		}
	}
	return nil
}

// AssertGuests opens the guests panel and compares every counter with want.
func (s *SearchBar) AssertGuests(want Guests) error {
	if want.Adults < 1 {
		return fmt.Errorf("%w: a booking needs at least one adult", ErrInvalidArgument)
	}
	if err := s.openPanel(s.guestsButton); err != nil {
		return err
	}
	for _, kind := range GuestKinds {
		got, err := s.GuestsCount(kind)
		if err != nil {
			return err
		}
		if got != want.Count(kind) {
			return fmt.Errorf("%w: %s counter is %d, expected %d", ErrNavigationAssertion, kind, got, want.Count(kind))
		}
	}
	return nil
}
