package extraction

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"jobscout/internal/clock"
	"jobscout/internal/logging"
	"jobscout/internal/logging/types"
	"jobscout/internal/scraper"
	"jobscout/pkg/models"
	"jobscout/pkg/utils"
)

// Discoverer proposes selector maps for page markup
type Discoverer interface {
	DiscoverListSelectors(ctx context.Context, markup, pageURL string) (models.SelectorMap, error)
	DiscoverDetailSelectors(ctx context.Context, markup string) (models.DetailSelectorMap, error)
}

// SelectorSaver persists a freshly discovered list selector map
type SelectorSaver interface {
	SaveSelectors(ctx context.Context, company string, selectors models.SelectorMap) error
}

// Config holds the walk's bounded waits
type Config struct {
	SelectorTimeout   time.Duration
	PageSettleWait    time.Duration
	DetailSettleWait  time.Duration
	NavigationTimeout time.Duration
}

// Options describes one extraction run
type Options struct {
	Company string
	URL     string
	// Selectors skips list discovery when set
	Selectors      *models.SelectorMap
	ExtractDetails bool
	// MaxPages bounds pagination; 0 follows it to the end
	MaxPages int
}

// Result is what a walk yields in its terminal state
type Result struct {
	Jobs            []models.JobRecord
	Pages           int
	Reason          TerminalReason
	Selectors       models.SelectorMap
	DetailSelectors *models.DetailSelectorMap
	Skipped         int
	// Err carries the cause when Reason is a failure
	Err error
}

// Runner drives the extraction state machine over browser sessions
type Runner struct {
	discoverer Discoverer
	saver      SelectorSaver
	config     Config
	clock      clock.Clock
	logger     types.Logger
}

type RunnerOption func(*Runner)

func WithClock(c clock.Clock) RunnerOption {
	return func(r *Runner) { r.clock = c }
}

func WithLogger(l types.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// WithSelectorSaver stores list selectors as soon as discovery produces them
func WithSelectorSaver(s SelectorSaver) RunnerOption {
	return func(r *Runner) { r.saver = s }
}

func NewRunner(discoverer Discoverer, cfg Config, opts ...RunnerOption) *Runner {
	r := &Runner{
		discoverer: discoverer,
		config:     cfg,
		clock:      clock.Real(),
		logger:     logging.GetGlobalLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.config.SelectorTimeout <= 0 {
		r.config.SelectorTimeout = 30 * time.Second
	}
	if r.config.NavigationTimeout <= 0 {
		r.config.NavigationTimeout = 60 * time.Second
	}
	return r
}

// Run walks the listing at opts.URL inside session. Only a failure to open
// the list tab is returned as an error; every other failure ends the walk
// with a terminal reason.
func (r *Runner) Run(ctx context.Context, session scraper.Session, opts Options) (*Result, error) {
	list, err := session.NewPage(ctx)
	if err != nil {
		return nil, utils.NewBrowserError("failed to open list page").Wrap(err)
	}
	defer list.Close()

	w := &walk{
		runner:  r,
		session: session,
		list:    list,
		opts:    opts,
		page:    1,
		result:  &Result{Jobs: []models.JobRecord{}},
		logger: r.logger.WithFields(map[string]interface{}{
			"company": opts.Company,
			"url":     opts.URL,
		}),
	}
	defer w.closeDetail()

	w.run(ctx)
	return w.result, nil
}

type walk struct {
	runner  *Runner
	session scraper.Session
	list    scraper.Page
	detail  scraper.Page
	opts    Options
	logger  types.Logger

	selectors models.SelectorMap
	schema    *models.DetailSelectorMap

	items   []scraper.Element
	index   int
	page    int
	current *models.JobRecord
	// detailReady means the detail tab already shows the current item's link
	detailReady bool

	result *Result
}

func (w *walk) run(ctx context.Context) {
	state := StateListLoaded
	if w.opts.Selectors == nil {
		state = StateListDiscovery
	} else {
		w.selectors = *w.opts.Selectors
		if !w.navigateList(ctx) {
			state = StateTerminal
		}
	}

	for state != StateTerminal {
		if ctx.Err() != nil {
			w.terminate(ReasonCanceled, ctx.Err())
			break
		}
		w.logger.Debug("Extraction state", map[string]interface{}{"state": state.String(), "page": w.page})

		switch state {
		case StateListDiscovery:
			state = w.discoverList(ctx)
		case StateListLoaded:
			state = w.loadList(ctx)
		case StateItemIterating:
			state = w.iterate(ctx)
		case StateDetailSchemaDiscovery:
			state = w.discoverDetailSchema(ctx)
		case StateDetailFetching:
			state = w.fetchDetail(ctx)
		case StatePageAdvance:
			state = w.advance(ctx)
		default:
			w.terminate(ReasonNoItems, fmt.Errorf("unknown state %d", state))
			state = StateTerminal
		}
	}

	w.result.Selectors = w.selectors
	w.result.DetailSelectors = w.schema
	w.result.Pages = w.page
	w.logger.Info("Extraction finished", map[string]interface{}{
		"jobs":    len(w.result.Jobs),
		"pages":   w.result.Pages,
		"skipped": w.result.Skipped,
		"reason":  string(w.result.Reason),
	})
}

func (w *walk) terminate(reason TerminalReason, err error) {
	if w.result.Reason == "" {
		w.result.Reason = reason
		w.result.Err = err
	}
}

func (w *walk) navigateList(ctx context.Context) bool {
	if err := w.list.Navigate(ctx, w.opts.URL); err != nil {
		w.logger.Error("Failed to load listing page", map[string]interface{}{"error": err.Error()})
		w.terminate(ReasonNavigationFailed, err)
		return false
	}
	return true
}

func (w *walk) discoverList(ctx context.Context) State {
	if !w.navigateList(ctx) {
		return StateTerminal
	}
	if err := w.runner.clock.Sleep(ctx, w.runner.config.PageSettleWait); err != nil {
		w.terminate(ReasonCanceled, err)
		return StateTerminal
	}

	markup, err := w.list.HTML(ctx)
	if err != nil {
		w.terminate(ReasonNavigationFailed, err)
		return StateTerminal
	}

	selectors, err := w.runner.discoverer.DiscoverListSelectors(ctx, markup, w.list.URL())
	if err != nil {
		w.logger.Error("List selector discovery failed", map[string]interface{}{"error": err.Error()})
		w.terminate(ReasonDiscoveryFailed, err)
		return StateTerminal
	}
	w.selectors = selectors

	if !selectors.Usable() {
		w.terminate(ReasonNoSelectors, errors.New("no job_item selector identified"))
		return StateTerminal
	}
	if w.runner.saver != nil && w.opts.Company != "" {
		if err := w.runner.saver.SaveSelectors(ctx, w.opts.Company, selectors); err != nil {
			w.logger.Warn("Failed to save discovered selectors", map[string]interface{}{"error": err.Error()})
		}
	}
	return StateListLoaded
}

func (w *walk) loadList(ctx context.Context) State {
	if !w.selectors.Usable() {
		w.terminate(ReasonNoSelectors, errors.New("selector map has no job_item selector"))
		return StateTerminal
	}

	itemSel := *w.selectors.JobItem
	if err := w.list.WaitForSelector(ctx, itemSel, w.runner.config.SelectorTimeout); err != nil {
		w.logger.Warn("Job items did not appear", map[string]interface{}{"page": w.page, "error": err.Error()})
		w.terminate(ReasonNoItems, err)
		return StateTerminal
	}

	items, err := w.list.Elements(ctx, itemSel)
	if err != nil || len(items) == 0 {
		w.terminate(ReasonNoItems, err)
		return StateTerminal
	}

	w.logger.Info("Scraping page", map[string]interface{}{"page": w.page, "items": len(items)})
	w.items = items
	w.index = 0
	return StateItemIterating
}

func (w *walk) iterate(ctx context.Context) State {
	for w.index < len(w.items) {
		if ctx.Err() != nil {
			return StateItemIterating
		}
		item := w.items[w.index]
		w.index++

		record, err := w.extractItem(item)
		if err != nil {
			w.result.Skipped++
			w.logger.Warn("Skipping job item", map[string]interface{}{
				"page":  w.page,
				"index": w.index,
				"error": err.Error(),
			})
			continue
		}

		if w.opts.ExtractDetails && record.JobURL != nil {
			w.current = record
			if w.schema == nil {
				return StateDetailSchemaDiscovery
			}
			return StateDetailFetching
		}
		w.result.Jobs = append(w.result.Jobs, *record)
	}
	return StatePageAdvance
}

// extractItem reads one job card. Any panic or non-missing element error
// fails the item only.
func (w *walk) extractItem(item scraper.Element) (record *models.JobRecord, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			record = nil
			err = fmt.Errorf("panic while extracting item: %v", rec)
		}
	}()

	sel := w.selectors
	record = &models.JobRecord{Company: w.opts.Company}

	if record.Title, err = fieldText(item, sel.Title, utils.CleanInline); err != nil {
		return nil, err
	}
	if record.Location, err = fieldText(item, sel.Location, utils.CleanInline); err != nil {
		return nil, err
	}
	if record.PreviewDescription, err = fieldText(item, sel.Description, utils.CleanText); err != nil {
		return nil, err
	}

	link, err := optionalElement(item, sel.JobLink)
	if err != nil {
		return nil, err
	}
	if link == nil {
		// cards that are themselves anchors
		if _, ok, aerr := item.Attribute("href"); aerr == nil && ok {
			link = item
		}
	}
	if link != nil {
		if href, ok, aerr := link.Attribute("href"); aerr == nil && ok {
			record.JobURL = absolutize(w.list.URL(), href)
		}
	}

	idEl, err := optionalElement(item, sel.JobID)
	if err != nil {
		return nil, err
	}
	// only the clickable element and the job_id element identify a job;
	// no match leaves JobID nil
	for _, candidate := range []scraper.Element{link, idEl} {
		if candidate == nil {
			continue
		}
		if id := ResolveJobID(candidate); id != nil {
			record.JobID = id
			break
		}
	}
	return record, nil
}

func (w *walk) discoverDetailSchema(ctx context.Context) State {
	empty := models.DetailSelectorMap{}
	w.schema = &empty

	page, err := w.detailPage(ctx)
	if err != nil {
		w.logger.Warn("Detail tab unavailable", map[string]interface{}{"error": err.Error()})
		return w.emitCurrent(ctx)
	}
	if err := w.openDetail(ctx, page, *w.current.JobURL); err != nil {
		w.logger.Warn("Failed to load detail page for schema discovery", map[string]interface{}{
			"url":   *w.current.JobURL,
			"error": err.Error(),
		})
		return w.emitCurrent(ctx)
	}

	markup, err := page.HTML(ctx)
	if err == nil {
		var schema models.DetailSelectorMap
		schema, err = w.runner.discoverer.DiscoverDetailSelectors(ctx, markup)
		if err == nil {
			w.schema = &schema
		}
	}
	if err != nil {
		w.logger.Warn("Detail selector discovery failed, using heuristics only", map[string]interface{}{"error": err.Error()})
	}

	w.detailReady = true
	return StateDetailFetching
}

func (w *walk) fetchDetail(ctx context.Context) State {
	page, err := w.detailPage(ctx)
	if err != nil {
		w.logger.Warn("Detail tab unavailable", map[string]interface{}{"error": err.Error()})
		return w.emitCurrent(ctx)
	}

	if !w.detailReady {
		if err := w.openDetail(ctx, page, *w.current.JobURL); err != nil {
			w.logger.Warn("Failed to load detail page", map[string]interface{}{
				"url":   *w.current.JobURL,
				"error": err.Error(),
			})
			return w.emitCurrent(ctx)
		}
	}
	w.detailReady = false

	ai := map[string]*string{}
	for _, field := range w.schema.Fields() {
		if field.Selector == nil {
			continue
		}
		ai[field.Key] = detailFieldText(ctx, page, *field.Selector)
	}

	var fallback map[string]*string
	if markup, err := page.HTML(ctx); err == nil {
		fallback = HeuristicsFromHTML(markup, utils.Deref(w.current.Title))
	}

	w.current.Details = MergeDetails(ai, fallback)
	return w.emitCurrent(ctx)
}

// emitCurrent appends the pending record and returns to the list, which is
// re-waited so the next item reads a settled container
func (w *walk) emitCurrent(ctx context.Context) State {
	w.result.Jobs = append(w.result.Jobs, *w.current)
	w.current = nil
	w.detailReady = false

	if err := w.list.WaitForSelector(ctx, *w.selectors.JobItem, w.runner.config.SelectorTimeout); err != nil {
		w.logger.Warn("List container lost after detail visit", map[string]interface{}{"error": err.Error()})
	}
	return StateItemIterating
}

func (w *walk) advance(ctx context.Context) State {
	if w.opts.MaxPages > 0 && w.page >= w.opts.MaxPages {
		w.terminate(ReasonMaxPages, nil)
		return StateTerminal
	}
	if w.selectors.PaginationNext == nil {
		w.terminate(ReasonLastPage, nil)
		return StateTerminal
	}

	next, err := w.list.Element(ctx, *w.selectors.PaginationNext)
	if err != nil {
		w.terminate(ReasonLastPage, nil)
		return StateTerminal
	}
	if visible, err := next.Visible(); err != nil || !visible {
		w.terminate(ReasonLastPage, nil)
		return StateTerminal
	}
	if disabled, err := next.Disabled(); err != nil || disabled {
		w.terminate(ReasonLastPage, nil)
		return StateTerminal
	}

	if err := w.list.Activate(ctx, next, w.runner.config.NavigationTimeout); err != nil {
		w.logger.Warn("Failed to follow pagination", map[string]interface{}{"page": w.page, "error": err.Error()})
		w.terminate(ReasonPaginationFailed, err)
		return StateTerminal
	}
	w.page++
	return StateListLoaded
}

func (w *walk) detailPage(ctx context.Context) (scraper.Page, error) {
	if w.detail != nil {
		return w.detail, nil
	}
	page, err := w.session.NewPage(ctx)
	if err != nil {
		return nil, err
	}
	w.detail = page
	return page, nil
}

func (w *walk) openDetail(ctx context.Context, page scraper.Page, link string) error {
	if err := page.Navigate(ctx, link); err != nil {
		return err
	}
	return w.runner.clock.Sleep(ctx, w.runner.config.DetailSettleWait)
}

func (w *walk) closeDetail() {
	if w.detail != nil {
		_ = w.detail.Close()
		w.detail = nil
	}
}

func optionalElement(parent scraper.Element, selector *string) (scraper.Element, error) {
	if selector == nil {
		return nil, nil
	}
	el, err := parent.Element(*selector)
	if errors.Is(err, scraper.ErrElementNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return el, nil
}

func fieldText(parent scraper.Element, selector *string, clean func(string) *string) (*string, error) {
	el, err := optionalElement(parent, selector)
	if err != nil || el == nil {
		return nil, err
	}
	text, err := el.Text()
	if err != nil {
		return nil, err
	}
	return clean(text), nil
}

// detailFieldText reads the first match of selector on a detail page, nil
// when it is missing or hidden
func detailFieldText(ctx context.Context, page scraper.Page, selector string) *string {
	el, err := page.Element(ctx, selector)
	if err != nil {
		return nil
	}
	if visible, err := el.Visible(); err != nil || !visible {
		return nil
	}
	text, err := el.Text()
	if err != nil {
		return nil
	}
	return utils.CleanText(text)
}

// absolutize resolves href against the page address
func absolutize(base, href string) *string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return nil
	}
	ref, err := url.Parse(href)
	if err != nil {
		return nil
	}
	if b, err := url.Parse(base); err == nil && b.IsAbs() {
		ref = b.ResolveReference(ref)
	}
	out := ref.String()
	return &out
}
