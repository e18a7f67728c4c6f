// Package lifecycle runs the effect installers that (re)attach behaviour to
// a document after it is loaded or its content region is swapped.
package lifecycle

import (
	"context"
	"fmt"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"sitenav/pkg/logger"
)

// Phase says when an installer runs.
type Phase int

const (
	// PerContent installers run after every content swap.
	PerContent Phase = iota
	// Static installers target page chrome (header, footer) and run once per
	// document load.
	Static
)

func (p Phase) String() string {
	if p == Static {
		return "static"
	}
	return "per-content"
}

// InstallFunc attaches one effect. It must no-op when its targets are absent
// and must not duplicate work on targets it already initialized.
type InstallFunc func(ctx context.Context, doc *goquery.Document) error

type installer struct {
	name  string
	phase Phase
	fn    InstallFunc
}

type Registry struct {
	mu         sync.Mutex
	installers []installer
	staticDone bool
	runs       int
	log        *logger.Logger
	afterRun   []func()
}

func NewRegistry(log *logger.Logger) *Registry {
	if log == nil {
		log = logger.Nop()
	}
	return &Registry{log: log}
}

// Register appends an installer. Names must be unique.
func (r *Registry) Register(name string, phase Phase, fn InstallFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, in := range r.installers {
		if in.name == name {
			return fmt.Errorf("lifecycle: installer %q already registered", name)
		}
	}
	r.installers = append(r.installers, installer{name: name, phase: phase, fn: fn})
	return nil
}

// MustRegister is Register for wiring code where a duplicate is a bug.
func (r *Registry) MustRegister(name string, phase Phase, fn InstallFunc) {
	if err := r.Register(name, phase, fn); err != nil {
		panic(err)
	}
}

// AfterRun adds a callback invoked at the end of every Run, e.g. to
// recompute scroll bounds.
func (r *Registry) AfterRun(fn func()) {
	r.mu.Lock()
	r.afterRun = append(r.afterRun, fn)
	r.mu.Unlock()
}

// Names lists installers of the given phase in run order.
func (r *Registry) Names(phase Phase) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, in := range r.installers {
		if in.phase == phase {
			out = append(out, in.name)
		}
	}
	return out
}

// InstallStatic runs the static installers the first time it is called
// after construction or Reset, and does nothing afterwards.
func (r *Registry) InstallStatic(ctx context.Context, doc *goquery.Document) {
	r.mu.Lock()
	if r.staticDone {
		r.mu.Unlock()
		return
	}
	r.staticDone = true
	list := r.snapshot(Static)
	r.mu.Unlock()

	r.runAll(ctx, doc, list)
}

// Reset forgets that static installers ran; call it when a whole new
// document replaces the old one.
func (r *Registry) Reset() {
	r.mu.Lock()
	r.staticDone = false
	r.mu.Unlock()
}

// Run invokes every per-content installer in registration order. A failing
// installer is logged and the rest still run; the sequence always runs in
// full, even when ctx is already done.
func (r *Registry) Run(ctx context.Context, doc *goquery.Document) {
	r.mu.Lock()
	list := r.snapshot(PerContent)
	after := append([]func(){}, r.afterRun...)
	r.mu.Unlock()

	r.runAll(ctx, doc, list)
	for _, fn := range after {
		fn()
	}

	r.mu.Lock()
	r.runs++
	r.mu.Unlock()
}

// Runs counts completed Run calls.
func (r *Registry) Runs() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs
}

func (r *Registry) snapshot(phase Phase) []installer {
	var out []installer
	for _, in := range r.installers {
		if in.phase == phase {
			out = append(out, in)
		}
	}
	return out
}

func (r *Registry) runAll(ctx context.Context, doc *goquery.Document, list []installer) {
	for _, in := range list {
		if err := in.fn(ctx, doc); err != nil {
			r.log.Errorf("lifecycle: installer %s failed: %v", in.name, err)
		}
	}
}
