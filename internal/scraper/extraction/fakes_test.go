package extraction

import (
	"context"
	"errors"
	"time"

	"jobscout/internal/scraper"
)

type fakeElement struct {
	text     string
	attrs    map[string]string
	children map[string]*fakeElement
	hidden   bool
	disabled bool
	// failWith is returned from every child lookup
	failWith error
	panics   bool
}

func (e *fakeElement) Text() (string, error) { return e.text, nil }

func (e *fakeElement) Attribute(name string) (string, bool, error) {
	v, ok := e.attrs[name]
	return v, ok, nil
}

func (e *fakeElement) Visible() (bool, error) { return !e.hidden, nil }

func (e *fakeElement) Disabled() (bool, error) { return e.disabled, nil }

func (e *fakeElement) Element(selector string) (scraper.Element, error) {
	if e.panics {
		panic("stale node")
	}
	if e.failWith != nil {
		return nil, e.failWith
	}
	child, ok := e.children[selector]
	if !ok {
		return nil, scraper.ErrElementNotFound
	}
	return child, nil
}

// fakePage serves a fixed sequence of listing pages; Activate moves to the
// next one
type fakePage struct {
	url     string
	pages   [][]*fakeElement
	current int
	next    map[int]*fakeElement
	closed  bool
}

func (p *fakePage) Navigate(_ context.Context, url string) error {
	p.url = url
	return nil
}

func (p *fakePage) WaitForSelector(context.Context, string, time.Duration) error {
	if len(p.pages) == 0 || len(p.pages[p.current]) == 0 {
		return errors.New("timeout")
	}
	return nil
}

func (p *fakePage) Elements(context.Context, string) ([]scraper.Element, error) {
	out := make([]scraper.Element, 0, len(p.pages[p.current]))
	for _, el := range p.pages[p.current] {
		out = append(out, el)
	}
	return out, nil
}

func (p *fakePage) Element(_ context.Context, selector string) (scraper.Element, error) {
	if selector == "a.next" {
		if el, ok := p.next[p.current]; ok {
			return el, nil
		}
	}
	return nil, scraper.ErrElementNotFound
}

func (p *fakePage) HTML(context.Context) (string, error) { return "<html></html>", nil }

func (p *fakePage) URL() string { return p.url }

func (p *fakePage) Activate(context.Context, scraper.Element, time.Duration) error {
	p.current++
	return nil
}

func (p *fakePage) Close() error {
	p.closed = true
	return nil
}

type fakeSession struct {
	list  *fakePage
	pages int
}

func (s *fakeSession) NewPage(context.Context) (scraper.Page, error) {
	s.pages++
	if s.pages == 1 {
		return s.list, nil
	}
	return nil, errors.New("no detail tab in this session")
}

func (s *fakeSession) Close() error { return nil }

func card(title, href string) *fakeElement {
	return &fakeElement{
		children: map[string]*fakeElement{
			".title": {text: title},
			"a":      {attrs: map[string]string{"href": href}},
		},
	}
}
