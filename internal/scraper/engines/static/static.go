// Package static is an engine for server-rendered careers sites. Pages are
// fetched with net/http and queried with goquery; nothing is executed, so
// activating a control means following its href.
package static

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"jobscout/internal/config"
	"jobscout/internal/logging"
	"jobscout/internal/logging/types"
	"jobscout/internal/scraper"
)

const maxBodyBytes = 10 << 20

// Engine implements scraper.Engine over plain HTTP
type Engine struct {
	client    *http.Client
	userAgent string
	limiter   *scraper.HostLimiter
	logger    types.Logger
}

func NewEngine(cfg *config.Config, limiter *scraper.HostLimiter) *Engine {
	if limiter == nil {
		limiter = scraper.NewHostLimiter(cfg.Scraper.HostRateLimit, cfg.Scraper.HostBurst)
	}
	return &Engine{
		client:    &http.Client{Timeout: cfg.Scraper.BrowserTimeout},
		userAgent: cfg.Scraper.UserAgent,
		limiter:   limiter,
		logger:    logging.GetGlobalLogger().WithField("engine", "static"),
	}
}

func (e *Engine) Name() string { return "static" }

// Open never fails: there is no browser to launch
func (e *Engine) Open(ctx context.Context) (scraper.Session, error) {
	return &session{engine: e}, nil
}

type session struct {
	engine *Engine
}

func (s *session) NewPage(ctx context.Context) (scraper.Page, error) {
	return &page{engine: s.engine}, nil
}

func (s *session) Close() error { return nil }

type page struct {
	engine *Engine
	doc    *goquery.Document
	url    *url.URL
}

func (p *page) Navigate(ctx context.Context, target string) error {
	e := p.engine
	if err := e.limiter.Wait(ctx, target); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to create request for %s: %w", target, err)
	}
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := e.client.Do(req)
	if err != nil {
		e.limiter.RecordFailure(target, err)
		return fmt.Errorf("failed to navigate to %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("failed to navigate to %s: status %d", target, resp.StatusCode)
		e.limiter.RecordFailure(target, err)
		return err
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", target, err)
	}
	e.limiter.RecordSuccess(target)

	p.doc = doc
	p.url = resp.Request.URL
	e.logger.Debug("Page fetched", map[string]interface{}{"url": p.url.String()})
	return nil
}

// WaitForSelector checks the already loaded document; a static DOM never
// changes, so there is nothing to wait for
func (p *page) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	if p.doc == nil {
		return fmt.Errorf("no document loaded")
	}
	found, err := matchCount(p.doc.Selection, selector)
	if err != nil {
		return err
	}
	if found == 0 {
		return fmt.Errorf("selector %q: %w", selector, scraper.ErrElementNotFound)
	}
	return nil
}

func (p *page) Elements(ctx context.Context, selector string) ([]scraper.Element, error) {
	if p.doc == nil {
		return nil, fmt.Errorf("no document loaded")
	}
	matches, err := find(p.doc.Selection, selector)
	if err != nil {
		return nil, err
	}
	out := make([]scraper.Element, 0, matches.Length())
	matches.Each(func(_ int, s *goquery.Selection) {
		out = append(out, &element{sel: s})
	})
	return out, nil
}

func (p *page) Element(ctx context.Context, selector string) (scraper.Element, error) {
	if p.doc == nil {
		return nil, fmt.Errorf("no document loaded")
	}
	return first(p.doc.Selection, selector)
}

func (p *page) HTML(ctx context.Context) (string, error) {
	if p.doc == nil {
		return "", fmt.Errorf("no document loaded")
	}
	return p.doc.Html()
}

func (p *page) URL() string {
	if p.url == nil {
		return ""
	}
	return p.url.String()
}

// Activate follows the control's href relative to the current document
func (p *page) Activate(ctx context.Context, el scraper.Element, timeout time.Duration) error {
	href, ok, err := el.Attribute("href")
	if err != nil {
		return err
	}
	href = strings.TrimSpace(href)
	if !ok || href == "" || href == "#" || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return fmt.Errorf("control has no followable href")
	}
	next, err := p.url.Parse(href)
	if err != nil {
		return fmt.Errorf("invalid href %q: %w", href, err)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return p.Navigate(ctx, next.String())
}

func (p *page) Close() error {
	p.doc = nil
	return nil
}

type element struct {
	sel *goquery.Selection
}

func (e *element) Text() (string, error) {
	return e.sel.Text(), nil
}

func (e *element) Attribute(name string) (string, bool, error) {
	v, ok := e.sel.Attr(name)
	return v, ok, nil
}

var hiddenStyle = regexp.MustCompile(`(?i)display\s*:\s*none|visibility\s*:\s*hidden`)

// Visible approximates layout visibility from markup: the node and its
// ancestors must not be hidden by attribute or inline style
func (e *element) Visible() (bool, error) {
	for s := e.sel; s.Length() > 0; s = s.Parent() {
		if goquery.NodeName(s) == "#document" {
			break
		}
		if _, hidden := s.Attr("hidden"); hidden {
			return false, nil
		}
		if hiddenStyle.MatchString(s.AttrOr("style", "")) {
			return false, nil
		}
		if goquery.NodeName(s) == "input" && strings.EqualFold(s.AttrOr("type", ""), "hidden") {
			return false, nil
		}
	}
	return true, nil
}

func (e *element) Disabled() (bool, error) {
	if _, ok := e.sel.Attr("disabled"); ok {
		return true, nil
	}
	return strings.EqualFold(e.sel.AttrOr("aria-disabled", ""), "true"), nil
}

func (e *element) Element(selector string) (scraper.Element, error) {
	return first(e.sel, selector)
}

// find compiles the selector first so a bad model-proposed selector is an
// error instead of an empty match
func find(root *goquery.Selection, selector string) (*goquery.Selection, error) {
	m, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	return root.FindMatcher(m), nil
}

func first(root *goquery.Selection, selector string) (scraper.Element, error) {
	matches, err := find(root, selector)
	if err != nil {
		return nil, err
	}
	if matches.Length() == 0 {
		return nil, fmt.Errorf("selector %q: %w", selector, scraper.ErrElementNotFound)
	}
	return &element{sel: matches.First()}, nil
}

func matchCount(root *goquery.Selection, selector string) (int, error) {
	matches, err := find(root, selector)
	if err != nil {
		return 0, err
	}
	return matches.Length(), nil
}
