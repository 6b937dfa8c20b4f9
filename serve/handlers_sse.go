package serve

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/everydev1618/gochat"
)

const sseHeartbeat = 30 * time.Second

// handleSSE streams every session's events. Optional query parameters
// narrow the feed: session=<id> and type=<t1,t2>.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := EventFilter{SessionID: q.Get("session")}
	for _, t := range strings.Split(q.Get("type"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			filter.Types = append(filter.Types, chat.EventType(t))
		}
	}
	s.streamEvents(w, r, filter, nil)
}

// handleSessionEvents follows one conversation until it ends.
func (s *Server) handleSessionEvents(w http.ResponseWriter, r *http.Request) {
	sess, err := s.manager.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	s.streamEvents(w, r, EventFilter{SessionID: sess.ID}, sess)
}

// streamEvents writes matching events as SSE frames. When sess is set the
// stream closes with an "end" frame once the conversation is over.
func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request, filter EventFilter, sess *Session) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	sub, err := s.broker.Subscribe(filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	defer func() {
		s.broker.Unsubscribe(sub)
		if n := sub.Dropped(); n > 0 {
			s.logger.Warn("sse subscriber fell behind", "session", filter.SessionID, "dropped", n)
		}
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	end := func() {
		fmt.Fprint(w, "event: end\ndata: {}\n\n")
		flusher.Flush()
	}
	if sess != nil && sess.Ended() {
		end()
		return
	}

	ticker := time.NewTicker(sseHeartbeat)
	defer ticker.Stop()

	var seq int
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if sess != nil && sess.Ended() {
				end()
				return
			}
			fmt.Fprint(w, ": heartbeat\n\n")
			flusher.Flush()
		case ev, ok := <-sub.Events:
			if !ok {
				if sess != nil {
					end()
				}
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			seq++
			fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", seq, ev.Type, data)
			flusher.Flush()
		}
	}
}
