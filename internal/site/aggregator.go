package site

import (
	"context"
	"fmt"

	"github.com/xkilldash9x/staywright/internal/browser"
)

// CardRecord is one listing that shares the highest rating found.
type CardRecord struct {
	Card   browser.Locator
	Page   int
	Rating float64
	Link   string
}

// CardSource exposes the listing cards of the current result page.
type CardSource interface {
	Cards() ([]browser.Locator, error)
	// Rating returns ok=false for cards without a readable rating.
	Rating(card browser.Locator) (rating float64, ok bool, err error)
	Link(card browser.Locator) (string, error)
}

// Paginator moves through result pages.
type Paginator interface {
	Visible() (bool, error)
	// Next returns false when there is no further page.
	Next(ctx context.Context) (bool, error)
}

// HighestRated walks every result page reachable through pager and returns
// all cards sharing the maximum rating, in the order they were seen. Cards
// without a readable rating are skipped. A page without any cards is an
// error; a scan where no card had a rating returns an empty slice.
func HighestRated(ctx context.Context, source CardSource, pager Paginator) ([]CardRecord, error) {
	var best []CardRecord
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cards, err := source.Cards()
		if err != nil {
			return nil, fmt.Errorf("reading cards of page %d: %w", page, err)
		}
		if len(cards) == 0 {
			return nil, fmt.Errorf("%w: no listing cards on page %d", ErrAggregation, page)
		}

		for _, card := range cards {
			rating, ok, err := source.Rating(card)
			if err != nil {
				return nil, fmt.Errorf("reading rating on page %d: %w", page, err)
			}
			if !ok {
				continue
			}
			if len(best) > 0 && rating < best[0].Rating {
				continue
			}
			link, err := source.Link(card)
			if err != nil {
				return nil, err
			}
			rec := CardRecord{Card: card, Page: page, Rating: rating, Link: link}
			if len(best) > 0 && rating > best[0].Rating {
				best = best[:0]
			}
			best = append(best, rec)
		}

		visible, err := pager.Visible()
		if err != nil {
			return nil, fmt.Errorf("checking pagination: %w", err)
		}
		if !visible {
			break
		}
		advanced, err := pager.Next(ctx)
		if err != nil {
			return nil, fmt.Errorf("advancing past page %d: %w", page, err)
		}
		if !advanced {
			break
		}
	}
	if best == nil {
		best = []CardRecord{}
	}
	return best, nil
}
