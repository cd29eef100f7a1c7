// Package state persists user data across runs in a SQLite database.
package state

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	appName    = "wavecast"
	dbFileName = "wavecast.db"

	// the MPRIS and HTTP surfaces may toggle favorites concurrently
	dsnPragmas = "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
)

type Manager struct {
	db *sql.DB
}

// Open opens the database under dir, or under the XDG data directory when
// dir is empty.
func Open(dir string) (*Manager, error) {
	dbPath, err := getDBPath(dir)
	if err != nil {
		return nil, err
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath+dsnPragmas)
	if err != nil {
		return nil, err
	}
	return newManager(db)
}

func newManager(db *sql.DB) (*Manager, error) {
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Manager{db: db}, nil
}

func (m *Manager) Close() error {
	return m.db.Close()
}

func getDBPath(dir string) (string, error) {
	if dir != "" {
		return filepath.Join(dir, dbFileName), nil
	}
	return xdg.DataFile(filepath.Join(appName, dbFileName))
}
