package site

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/xkilldash9x/staywright/internal/browser"
)

const (
	cardContainerSelector = `[data-testid="card-container"]`
	// cardSettleDelay gives the result grid time to finish re-rendering once
	// the first card is visible.
	cardSettleDelay = 500 * time.Millisecond
)

func testID(id string) string { return fmt.Sprintf(`[data-testid="%s"]`, id) }

// waitForResultCards blocks until the first listing card is visible.
func waitForResultCards(page browser.Page) error {
	if err := page.Locator(cardContainerSelector).First().WaitVisible(0); err != nil {
		return fmt.Errorf("waiting for result cards: %w", err)
	}
	page.Wait(cardSettleDelay)
	return nil
}

// ExtractRating reads the rating out of a card's text. The value follows the
// last occurrence of "breakdown" and runs up to the next space. ok is false
// when there is no number there, which is the case for unrated listings.
func ExtractRating(text string) (rating float64, ok bool) {
	parts := strings.Split(text, "breakdown")
	tail := parts[len(parts)-1]
	token, _, _ := strings.Cut(tail, " ")
	v, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// resolveLink turns a card href into an absolute URL on base.
func resolveLink(base *url.URL, href string) (string, error) {
	if strings.TrimSpace(href) == "" {
		return "", fmt.Errorf("%w: listing card has no link", ErrAggregation)
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("%w: listing link %q: %v", ErrAggregation, href, err)
	}
	return base.ResolveReference(ref).String(), nil
}
