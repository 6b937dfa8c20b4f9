package serve

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite (pure Go).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Enable WAL mode for concurrent reads.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return &SQLiteStore{db: db}, nil
}

// Init creates the schema tables.
func (s *SQLiteStore) Init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id         TEXT PRIMARY KEY,
		module     TEXT NOT NULL DEFAULT '',
		started_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		ended_at   DATETIME,
		error      TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS messages (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		role       TEXT NOT NULL,
		step       TEXT NOT NULL DEFAULT '',
		content    TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS events (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		type       TEXT NOT NULL,
		session_id TEXT NOT NULL DEFAULT '',
		step       TEXT NOT NULL DEFAULT '',
		action     TEXT NOT NULL DEFAULT '',
		target     TEXT NOT NULL DEFAULT '',
		error      TEXT NOT NULL DEFAULT '',
		timestamp  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id);
	CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// InsertSession records a new session.
func (s *SQLiteStore) InsertSession(r SessionRecord) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO sessions (id, module, started_at) VALUES (?, ?, ?)`,
		r.ID, r.Module, r.StartedAt,
	)
	return err
}

// EndSession marks a session finished.
func (s *SQLiteStore) EndSession(id string, endedAt time.Time, errMsg string) error {
	_, err := s.db.Exec(
		`UPDATE sessions SET ended_at = ?, error = ? WHERE id = ?`,
		endedAt, errMsg, id,
	)
	return err
}

// ListSessions returns recent sessions, newest first.
func (s *SQLiteStore) ListSessions(limit int) ([]SessionRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, module, started_at, ended_at, error
		 FROM sessions ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []SessionRecord
	for rows.Next() {
		var r SessionRecord
		var endedAt sql.NullTime
		if err := rows.Scan(&r.ID, &r.Module, &r.StartedAt, &endedAt, &r.Error); err != nil {
			return nil, err
		}
		if endedAt.Valid {
			r.EndedAt = &endedAt.Time
		}
		sessions = append(sessions, r)
	}
	return sessions, rows.Err()
}

// InsertMessage appends a transcript entry.
func (s *SQLiteStore) InsertMessage(m TranscriptMessage) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(
		`INSERT INTO messages (session_id, role, step, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		m.SessionID, m.Role, m.Step, m.Content, m.CreatedAt,
	)
	return err
}

// ListMessages returns a session's transcript, oldest first.
func (s *SQLiteStore) ListMessages(sessionID string) ([]TranscriptMessage, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, role, step, content, created_at
		 FROM messages WHERE session_id = ? ORDER BY id ASC`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []TranscriptMessage
	for rows.Next() {
		var m TranscriptMessage
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Step, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// InsertEvent records an engine event.
func (s *SQLiteStore) InsertEvent(e StoreEvent) error {
	_, err := s.db.Exec(
		`INSERT INTO events (type, session_id, step, action, target, error, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Type, e.SessionID, e.Step, e.Action, e.Target, e.Error, e.Timestamp,
	)
	return err
}

// ListEvents returns recent events, newest first.
func (s *SQLiteStore) ListEvents(limit int) ([]StoreEvent, error) {
	rows, err := s.db.Query(
		`SELECT id, type, session_id, step, action, target, error, timestamp
		 FROM events ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []StoreEvent
	for rows.Next() {
		var e StoreEvent
		if err := rows.Scan(&e.ID, &e.Type, &e.SessionID, &e.Step, &e.Action, &e.Target, &e.Error, &e.Timestamp); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
