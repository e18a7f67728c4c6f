// Package session wires one live page: the document, its history, the
// smooth scroller, the effect installers and the navigation controller.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"sitenav/internal/chrome"
	"sitenav/internal/dom"
	"sitenav/internal/effects"
	"sitenav/internal/headsync"
	"sitenav/internal/history"
	"sitenav/internal/ioformats"
	"sitenav/internal/lifecycle"
	"sitenav/internal/models"
	"sitenav/internal/navigation"
	"sitenav/internal/parser"
	"sitenav/internal/prefs"
	"sitenav/internal/scroll"
	"sitenav/internal/urlnorm"
	"sitenav/pkg/logger"
	"sitenav/pkg/metrics"
)

var (
	// ErrNoTarget is returned by Click when the selector matches nothing.
	ErrNoTarget = errors.New("session: click target not found")
	ErrNoMenu   = errors.New("session: page has no menu")
)

const (
	menuSelector      = "#menu, #menu__overlay"
	menuOpen          = "show"
	menuCloseSelector = ".main-menu li, .menu__logo"
)

type Options struct {
	Navigation       navigation.Options
	Effects          effects.Options
	Partials         []chrome.Partial
	HeadSelectors    []string
	BodyIDAttr       string
	ClearStaleBodyID bool
	SmoothScroll     bool
}

func DefaultOptions() Options {
	return Options{
		Navigation:       navigation.DefaultOptions(),
		Partials:         chrome.DefaultPartials,
		HeadSelectors:    headsync.DefaultSelectors,
		BodyIDAttr:       "id",
		ClearStaleBodyID: true,
		SmoothScroll:     true,
	}
}

type Deps struct {
	Fetcher navigation.Fetcher
	Prefs   prefs.Store
	Metrics *metrics.Metrics
	Logger  *logger.Logger
}

type Session struct {
	ID string

	doc      *dom.Document
	fetcher  navigation.Fetcher
	parser   *parser.Parser
	history  *history.Stack
	scroll   *scroll.Controller
	registry *lifecycle.Registry
	chrome   *chrome.Loader
	ctrl     *navigation.Controller
	prefs    prefs.Store
	log      *logger.Logger

	mu     sync.Mutex
	opened bool
}

// New builds an empty session. Nothing is fetched until Open.
func New(id string, deps Deps, opts Options) (*Session, error) {
	if deps.Fetcher == nil {
		return nil, errors.New("session: fetcher is required")
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.Prefs == nil {
		deps.Prefs = prefs.NewMemoryStore()
	}
	log := deps.Logger
	if id != "" {
		log = log.With("session", id)
	}

	head, err := headsync.New(opts.HeadSelectors)
	if err != nil {
		return nil, err
	}
	if opts.BodyIDAttr != "" {
		head.BodyIDAttr = opts.BodyIDAttr
	}
	head.ClearStaleBodyID = opts.ClearStaleBodyID

	p := parser.New()
	p.BodyIDAttr = head.BodyIDAttr

	s := &Session{
		ID:       id,
		doc:      dom.Empty(),
		fetcher:  deps.Fetcher,
		parser:   p,
		history:  history.New(),
		scroll:   scroll.New(opts.SmoothScroll),
		registry: lifecycle.NewRegistry(log),
		chrome:   chrome.NewLoader(deps.Fetcher, opts.Partials, log),
		prefs:    deps.Prefs,
		log:      log,
	}

	fx := opts.Effects
	fx.Prefs = deps.Prefs
	if fx.ContentSelector == "" {
		fx.ContentSelector = opts.Navigation.ContentSelector
	}
	if fx.BodyIDAttr == "" {
		fx.BodyIDAttr = head.BodyIDAttr
	}
	if err := effects.Register(s.registry, fx); err != nil {
		return nil, err
	}
	s.registry.AfterRun(s.scroll.Resize)
	if deps.Metrics != nil {
		s.registry.AfterRun(deps.Metrics.HookRunsTotal.Inc)
	}

	s.ctrl, err = navigation.New(s.doc, navigation.Deps{
		Fetcher:  deps.Fetcher,
		Parser:   p,
		Head:     head,
		History:  s.history,
		Scroller: s.scroll,
		Hook:     s.registry,
		Metrics:  deps.Metrics,
		Logger:   log,
	}, opts.Navigation)
	if err != nil {
		return nil, err
	}
	s.ctrl.SetFallback(s.load)
	s.history.OnPop(s.ctrl.HandlePop)
	return s, nil
}

// Open performs a full document load of rawURL and records it as the first
// history entry of the visit.
func (s *Session) Open(ctx context.Context, rawURL string) error {
	if _, err := urlnorm.Normalize(nil, rawURL); err != nil {
		return fmt.Errorf("session: open %q: %w", rawURL, err)
	}
	if err := s.load(ctx, rawURL); err != nil {
		return err
	}
	s.history.Push(rawURL)
	s.mu.Lock()
	s.opened = true
	s.mu.Unlock()
	return nil
}

// load replaces the whole document, as a browser does on a full navigation.
// Static installers run again because the new document has none of their
// work in it.
func (s *Session) load(ctx context.Context, rawURL string) error {
	body, finalURL, contentType, elapsed, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return &navigation.FetchError{URL: rawURL, Err: err}
	}
	parsed, err := s.parser.Parse(body, contentType, finalURL)
	body.Close()
	if err != nil {
		return &navigation.FetchError{URL: rawURL, Err: err}
	}

	s.doc.Replace(parsed)
	s.registry.Reset()
	partials := s.chrome.Load(ctx, s.doc)

	frag, hasFrag := urlnorm.Fragment(nil, rawURL)
	_ = s.doc.Update(func(d *goquery.Document) error {
		s.registry.InstallStatic(ctx, d)
		s.registry.Run(ctx, d)
		s.scroll.JumpToTop()
		if hasFrag && dom.ElementByID(d, frag).Length() > 0 {
			s.scroll.ScrollIntoView(frag)
		}
		return nil
	})
	if err := s.ctrl.SetCurrent(rawURL); err != nil {
		return err
	}
	s.log.Infof("session: loaded %s in %s (%d partials)", rawURL, elapsed, partials)
	return nil
}

// Click dispatches a click on the first element matching selector. A click
// on a menu entry closes the menu before the link is followed.
func (s *Session) Click(ctx context.Context, selector string) (navigation.Outcome, error) {
	var target *goquery.Selection
	var inMenu bool
	_ = s.doc.View(func(d *goquery.Document) error {
		target = d.Find(selector).First()
		inMenu = target.Closest(menuCloseSelector).Length() > 0
		return nil
	})
	if target == nil || target.Length() == 0 {
		return navigation.OutcomeIgnored, fmt.Errorf("%w: %s", ErrNoTarget, selector)
	}
	if inMenu {
		s.closeMenu()
	}
	return s.ctrl.HandleClick(ctx, target)
}

// Navigate follows href as if it were an internal link on the page.
func (s *Session) Navigate(ctx context.Context, href string) (navigation.Outcome, error) {
	return s.ctrl.Follow(ctx, href)
}

func (s *Session) Back(ctx context.Context) error    { return s.history.Back(ctx) }
func (s *Session) Forward(ctx context.Context) error { return s.history.Forward(ctx) }

// ToggleTheme flips the colour theme and returns the new one.
func (s *Session) ToggleTheme(ctx context.Context) (string, error) {
	var theme string
	err := s.doc.Update(func(d *goquery.Document) error {
		var err error
		theme, err = effects.ToggleTheme(ctx, d, s.prefs)
		return err
	})
	return theme, err
}

// ToggleMenu opens or closes the menu overlay. Scrolling is frozen while it
// is open.
func (s *Session) ToggleMenu() (bool, error) {
	var open bool
	err := s.doc.Update(func(d *goquery.Document) error {
		if d.Find(menuSelector).Length() == 0 {
			return ErrNoMenu
		}
		open = !menuIsOpen(d)
		setMenuVisible(d, open)
		return nil
	})
	if err != nil {
		return false, err
	}
	if open {
		s.scroll.Stop()
	} else {
		s.scroll.Start()
	}
	return open, nil
}

// closeMenu closes the menu if it is open and lets the page scroll again.
func (s *Session) closeMenu() {
	var closed bool
	_ = s.doc.Update(func(d *goquery.Document) error {
		if menuIsOpen(d) {
			setMenuVisible(d, false)
			closed = true
		}
		return nil
	})
	if closed {
		s.scroll.Start()
	}
}

func menuIsOpen(d *goquery.Document) bool {
	return d.Find(menuSelector).First().HasClass(menuOpen)
}

func setMenuVisible(d *goquery.Document, visible bool) {
	toggle := func(sel *goquery.Selection, class string) {
		if visible {
			sel.AddClass(class)
		} else {
			sel.RemoveClass(class)
		}
	}
	toggle(d.Find(menuSelector), menuOpen)
	toggle(d.Find("#hamburger"), "active")
	toggle(d.Find("body"), "ov-hidden")
	toggle(d.Find(".menu__logo"), "visible")
	toggle(d.Find(".main-menu li"), "visible")
}

// Content is the inner markup of the content region.
func (s *Session) Content() (string, error) {
	var out string
	err := s.doc.View(func(d *goquery.Document) error {
		var err error
		out, err = d.Find(s.ctrl.Options().ContentSelector).First().Html()
		return err
	})
	return out, err
}

func (s *Session) Opened() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened
}

// Snapshot captures the externally visible state of the page.
func (s *Session) Snapshot() models.Snapshot {
	snap := models.Snapshot{
		ID:           s.ID,
		Location:     s.history.Current(),
		Normalized:   s.ctrl.Current(),
		InFlight:     s.ctrl.InFlight(),
		History:      s.history.Entries(),
		HistoryIndex: s.history.Index(),
		Scroll:       s.scroll.Position(),
		HookRuns:     s.registry.Runs(),
	}
	_ = s.doc.View(func(d *goquery.Document) error {
		snap.Meta = s.parser.Summarize(d)
		snap.Theme = effects.CurrentTheme(d)
		snap.MenuOpen = menuIsOpen(d)
		snap.ContentHTML, _ = d.Find(s.ctrl.Options().ContentSelector).First().Html()
		return nil
	})
	return snap
}

// Document exposes the live document for read access.
func (s *Session) Document() *dom.Document { return s.doc }

// Apply executes one scripted step and returns a short outcome label.
func (s *Session) Apply(ctx context.Context, step models.Step) (string, error) {
	switch step.Action {
	case ioformats.ActionOpen:
		if err := s.Open(ctx, step.Target); err != nil {
			return "", err
		}
		return "opened", nil
	case ioformats.ActionClick:
		o, err := s.Click(ctx, step.Target)
		return o.String(), err
	case ioformats.ActionNavigate:
		o, err := s.Navigate(ctx, step.Target)
		return o.String(), err
	case ioformats.ActionBack:
		return navigation.OutcomeNavigated.String(), s.Back(ctx)
	case ioformats.ActionForward:
		return navigation.OutcomeNavigated.String(), s.Forward(ctx)
	case ioformats.ActionTheme:
		return s.ToggleTheme(ctx)
	case ioformats.ActionMenu:
		open, err := s.ToggleMenu()
		if open {
			return "menu-open", err
		}
		return "menu-closed", err
	}
	return "", fmt.Errorf("session: unknown action %q", step.Action)
}

// Do runs Apply and records the outcome with a snapshot taken afterwards.
func (s *Session) Do(ctx context.Context, step models.Step) models.StepResult {
	res := models.StepResult{Step: step}
	outcome, err := s.Apply(ctx, step)
	if err != nil {
		res.Error = err.Error()
	} else {
		res.Outcome = outcome
	}
	res.Snapshot = s.Snapshot()
	return res
}
