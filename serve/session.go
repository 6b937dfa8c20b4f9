package serve

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/everydev1618/gochat"
	"github.com/everydev1618/gochat/dsl"
)

// Session is one running conversation.
type Session struct {
	ID        string
	Module    string
	CreatedAt time.Time

	engine *dsl.Engine
	io     *queueChannel
	cancel context.CancelFunc
	done   chan struct{}

	sendMu     sync.Mutex
	mu         sync.Mutex
	lastActive time.Time
	ended      bool
	endErr     error
	snap       Snapshot
}

// LastActive returns when the session last received input.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Ended reports whether the conversation has finished.
func (s *Session) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}

// Snapshot is a copy of a session's conversation state.
type Snapshot struct {
	CurrentStep string
	Variables   map[string]any
	Locks       []string
	Transcript  []chat.Utterance
}

// Snapshot returns the state as of the last time the engine waited for
// input or finished.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		CurrentStep: s.snap.CurrentStep,
		Variables:   maps.Clone(s.snap.Variables),
		Locks:       slices.Clone(s.snap.Locks),
		Transcript:  slices.Clone(s.snap.Transcript),
	}
}

// capture copies the engine state. Only the engine goroutine may call it.
func (s *Session) capture() {
	st := s.engine.State()
	snap := Snapshot{
		CurrentStep: st.CurrentStep,
		Variables:   st.Snapshot(),
		Transcript:  st.Recent(0),
	}
	for name := range st.Locks {
		snap.Locks = append(snap.Locks, name)
	}
	sort.Strings(snap.Locks)

	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}

// Reply is the bot output for one turn.
type Reply struct {
	SessionID string   `json:"session_id"`
	Said      []string `json:"said"`
	Ended     bool     `json:"ended"`
}

// ManagerConfig configures a SessionManager.
type ManagerConfig struct {
	Classifier chat.Classifier
	Replier    chat.Replier
	Store      chat.Store
	ExitWords  []string
	History    int
	Apology    string
	AIUnavail  string

	// IdleTimeout ends input waits and idle sessions. Zero uses
	// chat.DefaultIdleTimeout.
	IdleTimeout time.Duration

	// Observer receives every engine event from every session.
	Observer chat.Observer

	// OnCreate is called before a new session's engine starts.
	OnCreate func(sess *Session)

	Logger *slog.Logger
}

// SessionManager runs many independent conversations. Sessions share only
// the collaborators in ManagerConfig; each owns its execution state.
type SessionManager struct {
	cfg ManagerConfig

	mu       sync.RWMutex
	sessions map[string]*Session
	scripts  map[string]*dsl.Script
	fallback string
}

// NewSessionManager creates a manager with no scripts loaded.
func NewSessionManager(cfg ManagerConfig) *SessionManager {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = chat.DefaultIdleTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &SessionManager{
		cfg:      cfg,
		sessions: make(map[string]*Session),
		scripts:  make(map[string]*dsl.Script),
	}
}

// SetScript registers script under its module name, replacing any earlier
// version. Running sessions keep the script they started with. The first
// script registered becomes the default module.
func (m *SessionManager) SetScript(script *dsl.Script) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts[script.Module] = script
	if m.fallback == "" {
		m.fallback = script.Module
	}
}

// Script returns the current script for module. An empty module selects
// the default.
func (m *SessionManager) Script(module string) (*dsl.Script, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if module == "" {
		module = m.fallback
	}
	s, ok := m.scripts[module]
	return s, ok
}

// Modules lists the registered module names.
func (m *SessionManager) Modules() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.scripts))
	for name := range m.scripts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create starts a conversation for module and returns its greeting.
func (m *SessionManager) Create(ctx context.Context, module string) (*Reply, error) {
	script, ok := m.Script(module)
	if !ok {
		return nil, fmt.Errorf("module %q: %w", module, chat.ErrNotConfigured)
	}

	id := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	sess := &Session{
		ID:         id,
		Module:     script.Module,
		CreatedAt:  time.Now(),
		lastActive: time.Now(),
		io:         newQueueChannel(m.cfg.IdleTimeout),
		done:       make(chan struct{}),
	}

	runCtx, cancel := context.WithCancel(context.Background())
	sess.cancel = cancel
	sess.engine = dsl.NewEngine(script, sess.io, m.engineOptions(id)...)
	sess.io.waiting = sess.capture

	m.mu.Lock()
	m.sessions[id] = sess
	m.mu.Unlock()

	if m.cfg.OnCreate != nil {
		m.cfg.OnCreate(sess)
	}
	m.cfg.Logger.Info("session created", "session", id, "module", script.Module)
	go m.run(runCtx, sess)

	return m.await(ctx, sess)
}

func (m *SessionManager) engineOptions(id string) []dsl.EngineOption {
	opts := []dsl.EngineOption{
		dsl.WithSessionID(id),
		dsl.WithLogger(m.cfg.Logger),
		dsl.WithApology(m.cfg.Apology),
		dsl.WithAIUnavailable(m.cfg.AIUnavail),
	}
	if m.cfg.Classifier != nil {
		opts = append(opts, dsl.WithClassifier(m.cfg.Classifier))
	}
	if m.cfg.Replier != nil {
		opts = append(opts, dsl.WithReplier(m.cfg.Replier))
	}
	if m.cfg.Store != nil {
		opts = append(opts, dsl.WithStore(m.cfg.Store))
	}
	if len(m.cfg.ExitWords) > 0 {
		opts = append(opts, dsl.WithExitWords(m.cfg.ExitWords))
	}
	if m.cfg.History > 0 {
		opts = append(opts, dsl.WithReplyHistory(m.cfg.History))
	}
	if m.cfg.Observer != nil {
		opts = append(opts, dsl.WithObserver(m.cfg.Observer))
	}
	return opts
}

func (m *SessionManager) run(ctx context.Context, sess *Session) {
	err := sess.engine.Run(ctx)
	sess.capture()

	sess.mu.Lock()
	sess.ended = true
	sess.endErr = err
	sess.mu.Unlock()

	sess.io.finish()
	close(sess.done)

	if err != nil && ctx.Err() == nil {
		m.cfg.Logger.Error("session failed", "session", sess.ID, "error", err)
	} else {
		m.cfg.Logger.Info("session ended", "session", sess.ID)
	}
}

// await waits for the engine to ask for input or finish.
func (m *SessionManager) await(ctx context.Context, sess *Session) (*Reply, error) {
	select {
	case t := <-sess.io.out:
		return &Reply{SessionID: sess.ID, Said: t.said, Ended: t.ended}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Send delivers one utterance and returns what the bot said in response.
func (m *SessionManager) Send(ctx context.Context, id, text string) (*Reply, error) {
	sess, err := m.Get(id)
	if err != nil {
		return nil, err
	}

	sess.sendMu.Lock()
	defer sess.sendMu.Unlock()

	// Drop output nobody collected, e.g. after an idle timeout.
	select {
	case <-sess.io.out:
	default:
	}

	select {
	case sess.io.in <- text:
	case <-sess.done:
		return nil, fmt.Errorf("session %s: %w", id, chat.ErrSessionClosed)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	sess.touch()

	return m.await(ctx, sess)
}

// Get returns a session by id.
func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, chat.ErrSessionNotFound)
	}
	return sess, nil
}

// Close stops a session and forgets it.
func (m *SessionManager) Close(id string) error {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("session %s: %w", id, chat.ErrSessionNotFound)
	}

	sess.cancel()
	<-sess.done
	return nil
}

// List returns all sessions, oldest first.
func (m *SessionManager) List() []*Session {
	m.mu.RLock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// CleanupIdle closes sessions that have ended or been inactive longer than
// timeout and returns their ids.
func (m *SessionManager) CleanupIdle(timeout time.Duration) []string {
	cutoff := time.Now().Add(-timeout)

	var stale []string
	for _, s := range m.List() {
		if s.Ended() || s.LastActive().Before(cutoff) {
			stale = append(stale, s.ID)
		}
	}
	for _, id := range stale {
		if err := m.Close(id); err == nil {
			m.cfg.Logger.Info("idle session closed", "session", id)
		}
	}
	return stale
}

// Run sweeps idle sessions until ctx is cancelled, then closes the rest.
func (m *SessionManager) Run(ctx context.Context) {
	interval := m.cfg.IdleTimeout / 2
	if interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			for _, s := range m.List() {
				m.Close(s.ID)
			}
			return
		case <-ticker.C:
			m.CleanupIdle(m.cfg.IdleTimeout)
		}
	}
}
