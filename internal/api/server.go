// Package api exposes page sessions over HTTP so a remote client can drive
// partial navigation and inspect the resulting document state.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"sitenav/internal/session"
	"sitenav/pkg/logger"
	"sitenav/pkg/metrics"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTooManySessions = errors.New("session limit reached")
)

// SessionFactory builds an unopened session. visitor keys stored
// preferences and may be empty.
type SessionFactory func(id, visitor string) (*session.Session, error)

type Options struct {
	MaxSessions    int
	RequestTimeout time.Duration
}

type Server struct {
	newSession SessionFactory
	gatherer   prometheus.Gatherer
	metrics    *metrics.Metrics
	log        *logger.Logger
	opts       Options

	mu       sync.RWMutex
	sessions map[string]*session.Session
}

func NewServer(factory SessionFactory, gatherer prometheus.Gatherer, m *metrics.Metrics, log *logger.Logger, opts Options) *Server {
	if log == nil {
		log = logger.Nop()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Server{
		newSession: factory,
		gatherer:   gatherer,
		metrics:    m,
		log:        log,
		opts:       opts,
		sessions:   make(map[string]*session.Session),
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler { return s.setupRouter() }

func (s *Server) create(ctx context.Context, rawURL, visitor string) (*session.Session, error) {
	s.mu.RLock()
	full := s.opts.MaxSessions > 0 && len(s.sessions) >= s.opts.MaxSessions
	s.mu.RUnlock()
	if full {
		return nil, ErrTooManySessions
	}

	id := uuid.NewString()
	sess, err := s.newSession(id, visitor)
	if err != nil {
		return nil, fmt.Errorf("build session: %w", err)
	}
	if err := sess.Open(ctx, rawURL); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.opts.MaxSessions > 0 && len(s.sessions) >= s.opts.MaxSessions {
		return nil, ErrTooManySessions
	}
	s.sessions[id] = sess
	if s.metrics != nil {
		s.metrics.SessionsActive.Inc()
	}
	return sess, nil
}

func (s *Server) get(id string) (*session.Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrSessionNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *Server) remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	if s.metrics != nil {
		s.metrics.SessionsActive.Dec()
	}
	return nil
}

// Len reports the number of live sessions.
func (s *Server) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close drops every session.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.SessionsActive.Sub(float64(len(s.sessions)))
	}
	clear(s.sessions)
}
