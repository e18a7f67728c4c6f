// Package navigation implements partial page navigation: internal links are
// followed by fetching the target page and swapping only the content region
// of the live document, reconciling the head and re-running the lifecycle
// hook, while session history is kept in step.
package navigation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"sitenav/internal/dom"
	"sitenav/internal/headsync"
	"sitenav/internal/parser"
	"sitenav/internal/urlnorm"
	"sitenav/pkg/logger"
	"sitenav/pkg/metrics"
)

type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (io.ReadCloser, string, string, time.Duration, error)
}

type History interface {
	Push(url string)
	Current() string
}

type Scroller interface {
	Active() bool
	JumpToTop()
	ScrollToTop()
	ScrollIntoView(id string)
}

// Hook re-initializes effects on the live document after a swap. It is
// called with the document locked and must not block on the network.
type Hook interface {
	Run(ctx context.Context, doc *goquery.Document)
}

// FallbackFunc performs a full document navigation to url.
type FallbackFunc func(ctx context.Context, url string) error

type Options struct {
	ContentSelector string
	LinkSelector    string
	FadeClass       string
	FadeDelay       time.Duration
	HomeToken       string
	FallbackOnError bool
}

func DefaultOptions() Options {
	return Options{
		ContentSelector: "#content",
		LinkSelector:    "a[data-link]",
		FadeClass:       "fade-out",
		FadeDelay:       16 * time.Millisecond,
		HomeToken:       "home",
		FallbackOnError: true,
	}
}

type Deps struct {
	Fetcher  Fetcher
	Parser   *parser.Parser
	Head     *headsync.Reconciler
	History  History
	Scroller Scroller
	Hook     Hook
	Metrics  *metrics.Metrics
	Logger   *logger.Logger
}

// Outcome is what a click turned into.
type Outcome int

const (
	// OutcomeIgnored: not an internal link, the browser navigates natively.
	OutcomeIgnored Outcome = iota
	// OutcomeAnchor: same page, scrolled to the fragment without fetching.
	OutcomeAnchor
	// OutcomeNavigated: content region swapped.
	OutcomeNavigated
	// OutcomeFallback: partial load failed, a full navigation was done.
	OutcomeFallback
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAnchor:
		return "anchor"
	case OutcomeNavigated:
		return "navigated"
	case OutcomeFallback:
		return "fallback"
	default:
		return "ignored"
	}
}

// Result describes one completed load.
type Result struct {
	URL        string
	Normalized string
	Seq        uint64
	Elapsed    time.Duration
	Head       headsync.Result
	Fallback   bool
}

// Controller owns the navigation state of one page session.
type Controller struct {
	doc      *dom.Document
	fetcher  Fetcher
	parser   *parser.Parser
	head     *headsync.Reconciler
	history  History
	scroller Scroller
	hook     Hook
	metrics  *metrics.Metrics
	log      *logger.Logger
	opts     Options

	mu       sync.Mutex
	current  string
	seq      uint64
	inFlight int
	fallback FallbackFunc
}

// New builds a controller over the live document doc. Fetcher is required;
// a nil Parser or Head gets the defaults.
func New(doc *dom.Document, deps Deps, opts Options) (*Controller, error) {
	if deps.Fetcher == nil {
		return nil, errors.New("navigation: fetcher is required")
	}
	def := DefaultOptions()
	if opts.ContentSelector == "" {
		opts.ContentSelector = def.ContentSelector
	}
	if opts.LinkSelector == "" {
		opts.LinkSelector = def.LinkSelector
	}
	if opts.FadeClass == "" {
		opts.FadeClass = def.FadeClass
	}
	if opts.HomeToken == "" {
		opts.HomeToken = def.HomeToken
	}
	if deps.Parser == nil {
		deps.Parser = parser.New()
	}
	if deps.Head == nil {
		h, err := headsync.New(nil)
		if err != nil {
			return nil, err
		}
		deps.Head = h
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	c := &Controller{
		doc:      doc,
		fetcher:  deps.Fetcher,
		parser:   deps.Parser,
		head:     deps.Head,
		history:  deps.History,
		scroller: deps.Scroller,
		hook:     deps.Hook,
		metrics:  deps.Metrics,
		log:      deps.Logger,
		opts:     opts,
	}
	if u := doc.URL(); u != nil {
		c.current, _ = urlnorm.Normalize(nil, u.String())
	}
	return c, nil
}

// SetFallback installs the full-navigation fallback used when
// Options.FallbackOnError is set.
func (c *Controller) SetFallback(fn FallbackFunc) {
	c.mu.Lock()
	c.fallback = fn
	c.mu.Unlock()
}

// SetCurrent records rawURL as the page on display, after a full load.
func (c *Controller) SetCurrent(rawURL string) error {
	n, err := urlnorm.Normalize(nil, rawURL)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.current = n
	c.mu.Unlock()
	return nil
}

// Current is the normalized address of the last page swapped in.
func (c *Controller) Current() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// InFlight reports whether any load is between fade start and swap.
func (c *Controller) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight > 0
}

func (c *Controller) Options() Options { return c.opts }

// HandleClick routes a click on target. Clicks outside internal links are
// ignored so the browser can navigate natively.
func (c *Controller) HandleClick(ctx context.Context, target *goquery.Selection) (Outcome, error) {
	var href string
	var ok bool
	_ = c.doc.View(func(*goquery.Document) error {
		link := target.Closest(c.opts.LinkSelector)
		if link.Length() > 0 {
			href, ok = link.Attr("href")
		}
		return nil
	})
	if !ok {
		return OutcomeIgnored, nil
	}
	return c.Follow(ctx, href)
}

// Follow acts on an internal link's href: an anchor on the current page is
// scrolled to, anything else is loaded and pushed onto history.
func (c *Controller) Follow(ctx context.Context, href string) (Outcome, error) {
	u, err := c.doc.Resolve(href)
	if err != nil {
		return OutcomeIgnored, fmt.Errorf("navigation: resolve %q: %w", href, err)
	}
	target := u.String()

	if frag, ok := urlnorm.Fragment(nil, target); ok && urlnorm.SamePage(nil, target, c.location()) {
		c.jump(frag)
		return OutcomeAnchor, nil
	}

	res, err := c.Navigate(ctx, target)
	if err != nil {
		return OutcomeIgnored, err
	}
	if res.Fallback {
		return OutcomeFallback, nil
	}
	return OutcomeNavigated, nil
}

// location is the address the browser shows, which is what same-page
// comparisons are made against.
func (c *Controller) location() string {
	if c.history != nil {
		if cur := c.history.Current(); cur != "" {
			return cur
		}
	}
	if u := c.doc.URL(); u != nil {
		return u.String()
	}
	return ""
}

func (c *Controller) jump(frag string) {
	var exists bool
	_ = c.doc.View(func(d *goquery.Document) error {
		exists = dom.ElementByID(d, frag).Length() > 0
		return nil
	})
	if c.scroller != nil {
		switch {
		case exists:
			c.scroller.ScrollIntoView(frag)
		case frag == c.opts.HomeToken:
			c.scroller.ScrollToTop()
		}
	}
	c.count(metrics.OutcomeAnchor)
}

// Navigate loads rawURL and pushes it onto history once it is displayed.
func (c *Controller) Navigate(ctx context.Context, rawURL string) (Result, error) {
	res, err := c.load(ctx, rawURL, true)
	if err != nil {
		return c.recover(ctx, res, err, true)
	}
	return res, nil
}

// LoadPage loads rawURL without touching history, as on back/forward.
func (c *Controller) LoadPage(ctx context.Context, rawURL string) (Result, error) {
	res, err := c.load(ctx, rawURL, false)
	if err != nil {
		return c.recover(ctx, res, err, false)
	}
	return res, nil
}

// HandlePop is the history listener for back/forward moves.
func (c *Controller) HandlePop(ctx context.Context, rawURL string) error {
	_, err := c.LoadPage(ctx, rawURL)
	if errors.Is(err, ErrSuperseded) {
		return nil
	}
	return err
}

func (c *Controller) load(ctx context.Context, rawURL string, push bool) (Result, error) {
	start := time.Now()
	seq := c.begin()
	defer c.end()
	res := Result{URL: rawURL, Seq: seq}

	normalized, err := urlnorm.Normalize(nil, rawURL)
	if err != nil {
		c.fail(seq, metrics.OutcomeFetchError)
		return res, &FetchError{URL: rawURL, Err: err}
	}
	loc, _ := url.Parse(rawURL)

	c.fade(seq)
	if err := pause(ctx, c.opts.FadeDelay); err != nil {
		c.fail(seq, metrics.OutcomeFetchError)
		return res, &FetchError{URL: rawURL, Err: err}
	}

	body, finalURL, contentType, _, err := c.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		c.fail(seq, metrics.OutcomeFetchError)
		return res, &FetchError{URL: rawURL, Err: err}
	}
	parsed, err := c.parser.Parse(body, contentType, finalURL)
	body.Close()
	if err != nil {
		c.fail(seq, metrics.OutcomeFetchError)
		return res, &FetchError{URL: rawURL, Err: err}
	}

	var content string
	found := false
	err = parsed.View(func(d *goquery.Document) error {
		region := d.Find(c.opts.ContentSelector).First()
		if region.Length() == 0 {
			return nil
		}
		found = true
		var err error
		content, err = region.Html()
		return err
	})
	if err != nil {
		c.fail(seq, metrics.OutcomeFetchError)
		return res, &FetchError{URL: rawURL, Err: err}
	}
	if !found {
		c.fail(seq, metrics.OutcomeContentMissing)
		return res, &ContentMissingError{URL: rawURL, Selector: c.opts.ContentSelector}
	}

	err = c.doc.UpdateLocation(loc, func(live *goquery.Document) error {
		if !c.isLatest(seq) {
			return ErrSuperseded
		}
		region := live.Find(c.opts.ContentSelector).First()
		if region.Length() == 0 {
			return &ContentMissingError{URL: addressOf(live), Selector: c.opts.ContentSelector}
		}
		region.SetHtml(content)
		region.RemoveClass(c.opts.FadeClass)

		_ = parsed.View(func(fetched *goquery.Document) error {
			res.Head = c.head.Reconcile(live, fetched)
			return nil
		})

		if c.scroller != nil && c.scroller.Active() {
			c.scroller.JumpToTop()
		}
		if c.hook != nil {
			c.hook.Run(ctx, live)
		}
		if frag, ok := urlnorm.Fragment(nil, rawURL); ok && c.scroller != nil {
			if dom.ElementByID(live, frag).Length() > 0 {
				c.scroller.ScrollIntoView(frag)
			}
		}

		c.mu.Lock()
		c.current = normalized
		c.mu.Unlock()
		if push && c.history != nil {
			c.history.Push(rawURL)
		}
		return nil
	})
	switch {
	case errors.Is(err, ErrSuperseded):
		c.count(metrics.OutcomeSuperseded)
		c.log.Debugf("navigation: discarded stale load of %s (seq %d)", rawURL, seq)
		return res, err
	case err != nil:
		c.fail(seq, metrics.OutcomeContentMissing)
		return res, err
	}

	res.Normalized = normalized
	res.Elapsed = time.Since(start)
	c.count(metrics.OutcomeSwapped)
	if c.metrics != nil {
		c.metrics.NavigationDuration.Observe(res.Elapsed.Seconds())
	}
	c.log.Infof("navigation: swapped in %s (seq %d) in %s", rawURL, seq, res.Elapsed)
	return res, nil
}

// recover handles a failed load: the page stays as it was, and if enabled
// the controller falls back to a full navigation so the user still lands
// on the requested page.
func (c *Controller) recover(ctx context.Context, res Result, cause error, push bool) (Result, error) {
	if errors.Is(cause, ErrSuperseded) {
		return res, cause
	}
	c.log.Errorf("navigation: load %s (seq %d) failed: %v", res.URL, res.Seq, cause)

	c.mu.Lock()
	fallback := c.fallback
	latest := c.seq == res.Seq
	c.mu.Unlock()

	if !c.opts.FallbackOnError || fallback == nil {
		return res, cause
	}
	if !latest {
		return res, ErrSuperseded
	}
	if err := fallback(ctx, res.URL); err != nil {
		return res, errors.Join(cause, fmt.Errorf("full navigation fallback: %w", err))
	}
	if err := c.SetCurrent(res.URL); err != nil {
		return res, err
	}
	if push && c.history != nil {
		c.history.Push(res.URL)
	}
	c.count(metrics.OutcomeFallback)
	res.Normalized = c.Current()
	res.Fallback = true
	return res, nil
}

func (c *Controller) begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.inFlight++
	if c.metrics != nil {
		c.metrics.NavigationsInFlight.Inc()
	}
	return c.seq
}

func (c *Controller) end() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight--
	if c.metrics != nil {
		c.metrics.NavigationsInFlight.Dec()
	}
}

func (c *Controller) isLatest(seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return seq == c.seq
}

func (c *Controller) fade(seq uint64) {
	_ = c.doc.Update(func(live *goquery.Document) error {
		if c.isLatest(seq) {
			live.Find(c.opts.ContentSelector).First().AddClass(c.opts.FadeClass)
		}
		return nil
	})
}

// fail undoes the fade unless a newer load owns the content region now.
func (c *Controller) fail(seq uint64, outcome string) {
	_ = c.doc.Update(func(live *goquery.Document) error {
		if c.isLatest(seq) {
			live.Find(c.opts.ContentSelector).First().RemoveClass(c.opts.FadeClass)
		}
		return nil
	})
	c.count(outcome)
}

func (c *Controller) count(outcome string) {
	if c.metrics != nil {
		c.metrics.NavigationsTotal.WithLabelValues(outcome).Inc()
	}
}

func addressOf(d *goquery.Document) string {
	if d.Url == nil {
		return "live document"
	}
	return d.Url.String()
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
