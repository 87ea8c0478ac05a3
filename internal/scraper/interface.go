package scraper

import (
	"context"
	"errors"
	"time"
)

// ErrElementNotFound is returned when a selector matches nothing
var ErrElementNotFound = errors.New("element not found")

// Engine opens browsing sessions. Open failing means no browser could be
// started, which callers treat as fatal.
type Engine interface {
	Name() string
	Open(ctx context.Context) (Session, error)
}

// Session is one browser (or browser-like) instance. Pages opened from the
// same session share cookies.
type Session interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// Page is a single tab
type Page interface {
	// Navigate loads url and waits for the load event
	Navigate(ctx context.Context, url string) error

	// WaitForSelector blocks until selector matches or timeout elapses
	WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error

	// Elements returns every current match of selector, possibly none
	Elements(ctx context.Context, selector string) ([]Element, error)

	// Element returns the first match or ErrElementNotFound
	Element(ctx context.Context, selector string) (Element, error)

	// HTML returns the current document markup
	HTML(ctx context.Context) (string, error)

	// URL returns the current document address
	URL() string

	// Activate clicks el and waits up to timeout for the network to settle
	Activate(ctx context.Context, el Element, timeout time.Duration) error

	Close() error
}

// Element is a handle to a node of the current document
type Element interface {
	Text() (string, error)

	// Attribute returns the value and whether the attribute exists
	Attribute(name string) (string, bool, error)

	Visible() (bool, error)

	// Disabled reports a disabled or aria-disabled="true" control
	Disabled() (bool, error)

	// Element returns the first descendant matching selector or
	// ErrElementNotFound
	Element(selector string) (Element, error)
}

// MarkupSource fetches the settled markup of a page, used by selector
// discovery when no interactive walk is needed
type MarkupSource interface {
	FetchMarkup(ctx context.Context, url string) (string, error)
}
