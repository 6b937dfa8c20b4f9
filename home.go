package chat

import (
	"os"
	"path/filepath"
)

// Home returns the gochat home directory.
// It defaults to ~/.gochat but can be overridden with the GOCHAT_HOME environment variable.
func Home() string {
	if v := os.Getenv("GOCHAT_HOME"); v != "" {
		return v
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".gochat")
}

// DefaultDBPath returns the default demo store path (~/.gochat/gochat.db).
func DefaultDBPath() string {
	return filepath.Join(Home(), "gochat.db")
}

// DefaultTranscriptPath returns the default transcript database used by the server.
func DefaultTranscriptPath() string {
	return filepath.Join(Home(), "sessions.db")
}

// ScriptsPath returns the directory example scripts are written to.
func ScriptsPath() string {
	return filepath.Join(Home(), "scripts")
}

// EnsureHome creates the gochat home and scripts directories if they don't exist.
func EnsureHome() error {
	return os.MkdirAll(ScriptsPath(), 0o755)
}
