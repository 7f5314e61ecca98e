package site

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/staywright/internal/browser"
)

// PaginationBar drives the numbered pager below the search results.
type PaginationBar struct {
	page    browser.Page
	logger  *zap.Logger
	root    browser.Locator
	next    browser.Locator
	prev    browser.Locator
	current browser.Locator
}

func newPaginationBar(page browser.Page, logger *zap.Logger) *PaginationBar {
	root := page.GetByLabel("Search results pagination")
	return &PaginationBar{
		page:    page,
		logger:  logger.Named("pagination_bar"),
		root:    root,
		next:    root.GetByLabel("Next"),
		prev:    root.GetByLabel("Previous"),
		current: root.Locator(`button[aria-current="page"]`),
	}
}

// Visible reports whether the pager is rendered at all.
func (p *PaginationBar) Visible() (bool, error) { return p.root.IsVisible() }

// CurrentPage reads the number of the selected page button.
func (p *PaginationBar) CurrentPage() (int, error) {
	text, err := p.current.TextContent()
	if err != nil {
		return 0, fmt.Errorf("reading current page: %w", err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, fmt.Errorf("current page %q is not a number: %w", text, err)
	}
	return n, nil
}

// NextDisabled reports whether the site marks the Next button as disabled.
func (p *PaginationBar) NextDisabled() (bool, error) {
	v, err := p.next.Attribute("aria-disabled")
	if err != nil {
		return false, err
	}
	return v == "true", nil
}

// Next advances one page and waits for the new results.
func (p *PaginationBar) Next(ctx context.Context) (bool, error) {
	disabled, err := p.NextDisabled()
	if err != nil {
		return false, err
	}
	if disabled {
		p.logger.Info("Reached the last results page.")
		return false, nil
	}
	return p.step(ctx, p.next, 1)
}

// Previous goes back one page. It returns false on the first page.
func (p *PaginationBar) Previous(ctx context.Context) (bool, error) {
	n, err := p.CurrentPage()
	if err != nil {
		return false, err
	}
	if n <= 1 {
		return false, nil
	}
	return p.step(ctx, p.prev, -1)
}

func (p *PaginationBar) step(ctx context.Context, button browser.Locator, delta int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	from, err := p.CurrentPage()
	if err != nil {
		return false, err
	}
	to := from + delta
	if err := button.Click(); err != nil {
		return false, fmt.Errorf("clicking pager: %w", err)
	}
	if err := p.current.GetByText(strconv.Itoa(to)).WaitVisible(0); err != nil {
		return false, fmt.Errorf("pagination failed moving from page %d to %d: %w", from, to, err)
	}
	if err := waitForResultCards(p.page); err != nil {
		return false, err
	}
	p.logger.Info("Moved to results page.", zap.Int("page", to))
	return true, nil
}
