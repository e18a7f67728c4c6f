// Package history models a browser tab's session history: a list of entries
// with a cursor, where pushing drops forward entries and moving the cursor
// notifies pop listeners without adding entries.
package history

import (
	"context"
	"errors"
	"sync"
)

var ErrNoEntry = errors.New("history: no entry in that direction")

// PopListener is called after the cursor moves, with the new current URL.
type PopListener func(ctx context.Context, url string) error

type Stack struct {
	mu        sync.Mutex
	entries   []string
	index     int
	listeners []PopListener
}

func New() *Stack { return &Stack{index: -1} }

// Push adds url after the current entry and makes it current.
func (s *Stack) Push(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries[:s.index+1], url)
	s.index = len(s.entries) - 1
}

// Replace rewrites the current entry, or pushes when the stack is empty.
func (s *Stack) Replace(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index < 0 {
		s.entries = []string{url}
		s.index = 0
		return
	}
	s.entries[s.index] = url
}

func (s *Stack) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index < 0 {
		return ""
	}
	return s.entries[s.index]
}

func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Stack) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

func (s *Stack) Entries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.entries...)
}

// OnPop registers a listener for cursor moves.
func (s *Stack) OnPop(l PopListener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

func (s *Stack) Back(ctx context.Context) error    { return s.Go(ctx, -1) }
func (s *Stack) Forward(ctx context.Context) error { return s.Go(ctx, 1) }

// Go moves the cursor by delta and notifies listeners. Listener errors are
// joined; the cursor stays moved either way, as in a browser.
func (s *Stack) Go(ctx context.Context, delta int) error {
	s.mu.Lock()
	next := s.index + delta
	if delta == 0 || next < 0 || next >= len(s.entries) {
		s.mu.Unlock()
		return ErrNoEntry
	}
	s.index = next
	url := s.entries[next]
	listeners := append([]PopListener(nil), s.listeners...)
	s.mu.Unlock()

	var errs []error
	for _, l := range listeners {
		if err := l(ctx, url); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
