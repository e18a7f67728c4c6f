package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sitenav/internal/history"
	"sitenav/internal/ioformats"
	"sitenav/internal/models"
	"sitenav/internal/navigation"
	"sitenav/internal/session"
	"sitenav/internal/urlnorm"
)

type createReq struct {
	URL     string `json:"url"`
	Visitor string `json:"visitor,omitempty"`
}

type clickReq struct {
	Selector string `json:"selector"`
}

type navigateReq struct {
	Href string `json:"href"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.Len()})
}

// POST /sessions  { "url": "https://...", "visitor": "..." }
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if _, err := urlnorm.Normalize(nil, req.URL); err != nil {
		writeError(w, http.StatusBadRequest, "invalid url: "+err.Error())
		return
	}
	sess, err := s.create(r.Context(), req.URL, req.Visitor)
	if err != nil {
		s.log.Errorf("create session for %s: %v", req.URL, err)
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.Header().Set("Location", "/sessions/"+sess.ID)
	writeJSON(w, http.StatusCreated, sess.Snapshot())
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.remove(chi.URLParam(r, "id")); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /sessions/{id}/click  { "selector": "#to-work" }
func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	var req clickReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Selector == "" {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	s.step(w, r, models.Step{Action: ioformats.ActionClick, Target: req.Selector})
}

// POST /sessions/{id}/navigate  { "href": "/work/" }
func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req navigateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Href == "" {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	s.step(w, r, models.Step{Action: ioformats.ActionNavigate, Target: req.Href})
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	s.step(w, r, models.Step{Action: ioformats.ActionBack})
}

func (s *Server) handleForward(w http.ResponseWriter, r *http.Request) {
	s.step(w, r, models.Step{Action: ioformats.ActionForward})
}

func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	s.step(w, r, models.Step{Action: ioformats.ActionTheme})
}

func (s *Server) handleMenu(w http.ResponseWriter, r *http.Request) {
	s.step(w, r, models.Step{Action: ioformats.ActionMenu})
}

// step applies one action and answers with the step record. Failed steps
// still carry the snapshot so the client sees the page was left intact.
func (s *Server) step(w http.ResponseWriter, r *http.Request, st models.Step) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	res := models.StepResult{Step: st}
	outcome, err := sess.Apply(r.Context(), st)
	res.Snapshot = sess.Snapshot()
	if err != nil {
		s.log.Warnf("session %s: %s %s: %v", sess.ID, st.Action, st.Target, err)
		res.Error = err.Error()
		writeJSON(w, statusFor(err), res)
		return
	}
	res.Outcome = outcome
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return nil, false
	}
	return sess, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, session.ErrNoTarget), errors.Is(err, session.ErrNoMenu):
		return http.StatusNotFound
	case errors.Is(err, ErrTooManySessions):
		return http.StatusServiceUnavailable
	case errors.Is(err, history.ErrNoEntry), errors.Is(err, navigation.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, navigation.ErrContentMissing):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, navigation.ErrFetch):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
