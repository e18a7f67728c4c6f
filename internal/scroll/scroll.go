// Package scroll is the headless smooth-scroll controller. It records where
// each request left the viewport instead of animating it.
package scroll

import (
	"sync"

	"sitenav/internal/models"
)

type Controller struct {
	mu      sync.Mutex
	enabled bool
	stopped bool
	pos     models.ScrollPosition
	moves   int
	resizes int
}

// New returns a controller. A disabled controller stands in for native
// window scrolling: Active reports false but scroll requests still land.
func New(enabled bool) *Controller {
	return &Controller{enabled: enabled, pos: models.ScrollPosition{Top: true}}
}

// Active reports whether smooth scrolling is in charge of the page.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled && !c.stopped
}

// JumpToTop resets to the top without animating.
func (c *Controller) JumpToTop() {
	c.move(models.ScrollPosition{Top: true})
}

func (c *Controller) ScrollToTop() {
	c.move(models.ScrollPosition{Top: true, Smooth: true})
}

// ScrollIntoView brings the element with the given id into view smoothly.
func (c *Controller) ScrollIntoView(id string) {
	c.move(models.ScrollPosition{Anchor: id, Smooth: true})
}

// Stop freezes scrolling while an overlay (the open menu) owns the page.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()
}

func (c *Controller) Start() {
	c.mu.Lock()
	c.stopped = false
	c.mu.Unlock()
}

// Resize recomputes scroll bounds after the content changed.
func (c *Controller) Resize() {
	c.mu.Lock()
	c.resizes++
	c.mu.Unlock()
}

func (c *Controller) Position() models.ScrollPosition {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pos
}

// Moves counts scroll requests that landed.
func (c *Controller) Moves() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.moves
}

// Resizes counts Resize calls.
func (c *Controller) Resizes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resizes
}

func (c *Controller) move(p models.ScrollPosition) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.pos = p
	c.moves++
}
