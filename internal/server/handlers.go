package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/claude/sessiontimer/internal/install"
	"github.com/claude/sessiontimer/internal/journal"
	"github.com/claude/sessiontimer/internal/notify"
	"github.com/claude/sessiontimer/internal/timer"
)

type visibilityRequest struct {
	Hidden *bool `json:"hidden"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.timer.Snapshot(r.Context())
	if err != nil {
		s.timerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.timer.Summary(r.Context())
	if err != nil {
		s.timerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// command adapts a timer command to a handler that answers with the new snapshot.
// Commands that do not apply in the current state still answer 200.
func (s *Server) command(fn func(context.Context) (timer.Snapshot, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := fn(r.Context())
		if err != nil {
			s.timerError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func (s *Server) handleVisibility(w http.ResponseWriter, r *http.Request) {
	var req visibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Hidden == nil {
		writeError(w, http.StatusBadRequest, "hidden is required")
		return
	}
	snap, err := s.timer.SetHidden(r.Context(), *req.Hidden)
	if err != nil {
		s.timerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	active := s.notes.Active()
	if active == nil {
		active = []notify.Notification{}
	}
	writeJSON(w, http.StatusOK, active)
}

func (s *Server) handleInstallStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"available": s.installer.Available()})
}

func (s *Server) handleInstall(w http.ResponseWriter, r *http.Request) {
	outcome, err := s.installer.Install(r.Context())
	if errors.Is(err, install.ErrNoOffer) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		s.log.Error("install error", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]install.Outcome{"outcome": outcome})
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, "report journal disabled")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	entries, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.log.Error("query reports", "error", err)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) timerError(w http.ResponseWriter, err error) {
	s.log.Warn("timer command failed", "error", err)
	writeError(w, http.StatusServiceUnavailable, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
