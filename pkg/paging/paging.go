package paging

import (
	"context"
	"errors"

	"github.com/dashlink/dashlink-go/pkg/entity"
)

// DefaultPageSize is the page size used when draining a listing.
const DefaultPageSize = 100

// Paging errors.
var (
	ErrExhausted = errors.New("no more pages")
	ErrStalled   = errors.New("server returned the same page link twice")
)

// Fetcher requests one page.
type Fetcher func(ctx context.Context, link entity.PageLink) (entity.PageData, error)

// Cursor iterates the pages of one listing.
type Cursor struct {
	fetch Fetcher
	link  entity.PageLink
	done  bool
	pages int
}

// NewCursor creates a cursor starting at first.
func NewCursor(fetch Fetcher, first entity.PageLink) *Cursor {
	return &Cursor{fetch: fetch, link: first}
}

// HasNext reports whether another page can be requested.
func (c *Cursor) HasNext() bool {
	return !c.done
}

// Pages returns how many pages have been fetched.
func (c *Cursor) Pages() int {
	return c.pages
}

// Next fetches the next page. It returns ErrExhausted once the server has
// reported the last page.
func (c *Cursor) Next(ctx context.Context) (entity.PageData, error) {
	if c.done {
		return entity.PageData{}, ErrExhausted
	}

	page, err := c.fetch(ctx, c.link)
	if err != nil {
		return entity.PageData{}, err
	}
	c.pages++

	next, ok := page.Next(c.link)
	switch {
	case !ok:
		c.done = true
	case next == c.link:
		c.done = true
		return page, ErrStalled
	default:
		c.link = next
	}
	return page, nil
}

// Drain fetches every page starting at first and concatenates the results
// in server order.
func Drain(ctx context.Context, fetch Fetcher, first entity.PageLink) ([]entity.Entity, error) {
	c := NewCursor(fetch, first)
	var all []entity.Entity
	for c.HasNext() {
		page, err := c.Next(ctx)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Data...)
	}
	if all == nil {
		all = []entity.Entity{}
	}
	return all, nil
}

// First fetches a single page and ignores any continuation.
func First(ctx context.Context, fetch Fetcher, link entity.PageLink) ([]entity.Entity, error) {
	page, err := fetch(ctx, link)
	if err != nil {
		return nil, err
	}
	if page.Data == nil {
		return []entity.Entity{}, nil
	}
	return page.Data, nil
}
