package headed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"jobscout/internal/logging/types"
	"jobscout/internal/scraper"
)

// requestIdle is how long the network must stay quiet after a click
const requestIdle = 500 * time.Millisecond

type rodPage struct {
	page       *rod.Page
	navTimeout time.Duration
	limiter    *scraper.HostLimiter
	logger     types.Logger
}

func (p *rodPage) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// Navigate loads url and waits for the load event
func (p *rodPage) Navigate(ctx context.Context, url string) error {
	if err := p.limiter.Wait(ctx, url); err != nil {
		return err
	}

	navCtx, cancel := p.withTimeout(ctx, p.navTimeout)
	defer cancel()

	page := p.page.Context(navCtx)
	if err := page.Navigate(url); err != nil {
		p.limiter.RecordFailure(url, err)
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		p.limiter.RecordFailure(url, err)
		return fmt.Errorf("failed waiting for %s to load: %w", url, err)
	}
	p.limiter.RecordSuccess(url)

	p.logger.Debug("Successfully navigated to URL", map[string]interface{}{"url": url})
	return nil
}

// WaitForSelector waits for an element to appear on the page
func (p *rodPage) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	waitCtx, cancel := p.withTimeout(ctx, timeout)
	defer cancel()

	if _, err := p.page.Context(waitCtx).Element(selector); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("element with selector '%s' not found within timeout: %w", selector, scraper.ErrElementNotFound)
	}
	return nil
}

func (p *rodPage) Elements(ctx context.Context, selector string) ([]scraper.Element, error) {
	els, err := p.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("failed to query %q: %w", selector, err)
	}
	out := make([]scraper.Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el})
	}
	return out, nil
}

func (p *rodPage) Element(ctx context.Context, selector string) (scraper.Element, error) {
	has, el, err := p.page.Context(ctx).Has(selector)
	if err != nil {
		return nil, fmt.Errorf("failed to query %q: %w", selector, err)
	}
	if !has {
		return nil, fmt.Errorf("selector %q: %w", selector, scraper.ErrElementNotFound)
	}
	return &rodElement{el: el}, nil
}

func (p *rodPage) HTML(ctx context.Context) (string, error) {
	html, err := p.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("failed to get page HTML: %w", err)
	}
	return html, nil
}

func (p *rodPage) URL() string {
	info, err := p.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

// Activate clicks the control and waits until no request has been in
// flight for a short quiet period, or the timeout passes
func (p *rodPage) Activate(ctx context.Context, el scraper.Element, timeout time.Duration) error {
	re, ok := el.(*rodElement)
	if !ok {
		return errors.New("element does not belong to a headed page")
	}

	actCtx, cancel := p.withTimeout(ctx, timeout)
	defer cancel()

	wait := p.page.Context(actCtx).WaitRequestIdle(requestIdle, nil, nil, nil)
	if err := re.el.Context(actCtx).Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("failed to click: %w", err)
	}
	wait()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}

func (p *rodPage) Close() error {
	return p.page.Close()
}

type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Text() (string, error) {
	return e.el.Text()
}

func (e *rodElement) Attribute(name string) (string, bool, error) {
	v, err := e.el.Attribute(name)
	if err != nil {
		return "", false, err
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

func (e *rodElement) Visible() (bool, error) {
	return e.el.Visible()
}

func (e *rodElement) Disabled() (bool, error) {
	_, disabled, err := e.Attribute("disabled")
	if err != nil || disabled {
		return disabled, err
	}
	aria, _, err := e.Attribute("aria-disabled")
	return strings.EqualFold(aria, "true"), err
}

func (e *rodElement) Element(selector string) (scraper.Element, error) {
	has, el, err := e.el.Has(selector)
	if err != nil {
		return nil, fmt.Errorf("failed to query %q: %w", selector, err)
	}
	if !has {
		return nil, fmt.Errorf("selector %q: %w", selector, scraper.ErrElementNotFound)
	}
	return &rodElement{el: el}, nil
}
