package serve

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/everydev1618/gochat"
	"github.com/everydev1618/gochat/dsl"
)

// --- Session Handlers ---

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Details: err.Error()})
			return
		}
	}

	reply, err := s.manager.Create(r.Context(), strings.TrimSpace(req.Module))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reply)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.manager.List()
	resp := make([]SessionResponse, 0, len(sessions))
	for _, sess := range sessions {
		resp = append(resp, sessionToResponse(sess))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.manager.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	snap := sess.Snapshot()
	detail := SessionDetailResponse{
		SessionResponse: sessionToResponse(sess),
		Variables:       make(map[string]string, len(snap.Variables)),
		Locks:           snap.Locks,
	}
	detail.CurrentStep = snap.CurrentStep
	for name, v := range snap.Variables {
		detail.Variables[name] = dsl.FormatValue(v)
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Details: err.Error()})
		return
	}

	reply, err := s.manager.Send(r.Context(), chi.URLParam(r, "id"), req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Close(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if s.store != nil {
		msgs, err := s.store.ListMessages(id)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "load transcript", Details: err.Error()})
			return
		}
		if msgs == nil {
			msgs = []TranscriptMessage{}
		}
		writeJSON(w, http.StatusOK, TranscriptResponse{SessionID: id, Messages: msgs})
		return
	}

	// Without persistence only live sessions have a transcript.
	sess, err := s.manager.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	snap := sess.Snapshot()
	msgs := make([]TranscriptMessage, 0, len(snap.Transcript))
	for _, u := range snap.Transcript {
		msgs = append(msgs, TranscriptMessage{
			SessionID: id,
			Role:      string(u.Role),
			Content:   u.Text,
			CreatedAt: u.At,
		})
	}
	writeJSON(w, http.StatusOK, TranscriptResponse{SessionID: id, Messages: msgs})
}

func (s *Server) handleSessionHistory(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusOK, []SessionRecord{})
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	records, err := s.store.ListSessions(limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "list sessions", Details: err.Error()})
		return
	}
	if records == nil {
		records = []SessionRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// --- Stats ---

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatsResponse{
		ActiveSessions: len(s.manager.List()),
		Modules:        s.manager.Modules(),
		Uptime:         time.Since(s.startedAt).Truncate(time.Second).String(),
	})
}

// --- Helpers ---

func sessionToResponse(sess *Session) SessionResponse {
	return SessionResponse{
		ID:         sess.ID,
		Module:     sess.Module,
		CreatedAt:  sess.CreatedAt,
		LastActive: sess.LastActive(),
		Ended:      sess.Ended(),
	}
}

// writeError maps session errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, chat.ErrSessionNotFound), errors.Is(err, chat.ErrNotConfigured):
		status = http.StatusNotFound
	case errors.Is(err, chat.ErrSessionClosed):
		status = http.StatusGone
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
