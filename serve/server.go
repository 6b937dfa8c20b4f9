package serve

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/everydev1618/gochat"
)

// Config holds server configuration.
type Config struct {
	Addr   string
	DBPath string

	// ScriptPath is watched for changes when Watch is set.
	ScriptPath string
	Watch      bool
}

// Server is the HTTP front end for concurrent conversations.
type Server struct {
	cfg       Config
	manager   *SessionManager
	broker    *EventBroker
	metrics   *Metrics
	store     Store
	logger    *slog.Logger
	startedAt time.Time
}

// New creates a Server. The manager is built from mcfg with the server's
// event handling chained in front of mcfg.Observer.
func New(cfg Config, mcfg ManagerConfig) *Server {
	if cfg.Addr == "" {
		cfg.Addr = chat.DefaultAddr
	}
	s := &Server{
		cfg:       cfg,
		broker:    NewEventBroker(),
		metrics:   NewMetrics(),
		logger:    mcfg.Logger,
		startedAt: time.Now(),
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	userObserver := mcfg.Observer
	mcfg.Observer = func(ev chat.Event) {
		s.observe(ev)
		if userObserver != nil {
			userObserver(ev)
		}
	}
	userOnCreate := mcfg.OnCreate
	mcfg.OnCreate = func(sess *Session) {
		s.sessionCreated(sess)
		if userOnCreate != nil {
			userOnCreate(sess)
		}
	}
	s.manager = NewSessionManager(mcfg)
	return s
}

// Manager returns the session manager.
func (s *Server) Manager() *SessionManager {
	return s.manager
}

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Open opens and initializes the transcript database. Without a DBPath
// transcripts are not persisted.
func (s *Server) Open() error {
	if s.cfg.DBPath == "" || s.store != nil {
		return nil
	}
	store, err := NewSQLiteStore(s.cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := store.Init(); err != nil {
		store.Close()
		return fmt.Errorf("init database: %w", err)
	}
	s.store = store
	return nil
}

// Start opens the store, registers routes and listens for HTTP requests.
// It blocks until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if err := s.Open(); err != nil {
		return err
	}

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	go s.manager.Run(runCtx)

	if s.cfg.Watch && s.cfg.ScriptPath != "" {
		watcher := NewScriptWatcher(s.cfg.ScriptPath, s.manager)
		watcher.logger = s.logger
		go func() {
			if err := watcher.Run(runCtx); err != nil {
				s.logger.Error("script watcher stopped", "error", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.Handler(),
	}

	// Start server in goroutine.
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("gochat serve started", "addr", s.cfg.Addr, "modules", s.manager.Modules())
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or error.
	select {
	case <-ctx.Done():
		s.logger.Info("shutting down server")
	case err := <-errCh:
		return err
	}

	// Close broker first; this closes all SSE subscriber channels,
	// unblocking their handlers so the HTTP server can drain cleanly.
	s.broker.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("server shutdown error", "error", err)
	}

	cancelRun()
	for _, sess := range s.manager.List() {
		s.manager.Close(sess.ID)
	}

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Error("store close error", "error", err)
		}
	}

	return nil
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(corsMiddleware)
	r.Use(s.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", s.handleStats)
		r.Get("/events", s.handleSSE)

		r.Post("/sessions", s.handleCreateSession)
		r.Get("/sessions", s.handleListSessions)
		r.Get("/sessions/history", s.handleSessionHistory)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Delete("/sessions/{id}", s.handleCloseSession)
		r.Post("/sessions/{id}/messages", s.handleSendMessage)
		r.Get("/sessions/{id}/transcript", s.handleTranscript)
		r.Get("/sessions/{id}/events", s.handleSessionEvents)
	})

	return r
}

// sessionCreated records a session before its engine starts.
func (s *Server) sessionCreated(sess *Session) {
	s.metrics.SessionStarted()
	if s.store == nil {
		return
	}
	if err := s.store.InsertSession(SessionRecord{
		ID:        sess.ID,
		Module:    sess.Module,
		StartedAt: sess.CreatedAt,
	}); err != nil {
		s.logger.Warn("persist session failed", "session", sess.ID, "error", err)
	}
}

// observe fans engine events out to metrics, SSE subscribers and the store.
func (s *Server) observe(ev chat.Event) {
	s.metrics.Observe(ev)
	s.broker.Publish(ev)

	if s.store == nil {
		return
	}

	var err error
	switch ev.Type {
	case chat.EventUserSaid, chat.EventBotSaid:
		role := string(chat.RoleUser)
		if ev.Type == chat.EventBotSaid {
			role = string(chat.RoleAssistant)
		}
		err = s.store.InsertMessage(TranscriptMessage{
			SessionID: ev.SessionID,
			Role:      role,
			Step:      ev.Step,
			Content:   ev.Text,
			CreatedAt: ev.Timestamp,
		})
	case chat.EventSessionEnded:
		err = s.store.EndSession(ev.SessionID, ev.Timestamp, ev.Error)
	case chat.EventStepEntered:
	default:
		err = s.store.InsertEvent(StoreEvent{
			Type:      string(ev.Type),
			SessionID: ev.SessionID,
			Step:      ev.Step,
			Action:    ev.Action,
			Target:    ev.Target,
			Error:     ev.Error,
			Timestamp: ev.Timestamp,
		})
	}
	if err != nil {
		s.logger.Warn("persist event failed", "type", ev.Type, "session", ev.SessionID, "error", err)
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start), "remote", r.RemoteAddr)
	})
}

// corsMiddleware adds permissive CORS headers for development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
