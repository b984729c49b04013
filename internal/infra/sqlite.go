package infra

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"
)

// SQLiteHandle bundles the opened database with the file lock guarding it.
type SQLiteHandle struct {
	DB   *sql.DB
	lock *flock.Flock
}

// NewSQLiteDB opens (creating if needed) the local cache database. A file
// lock next to the database keeps a second engine process from writing the
// same store.
func NewSQLiteDB(dbPath string) (*SQLiteHandle, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	lock := flock.New(dbPath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring cache lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("cache database %s is locked by another process", dbPath)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("opening cache db: %w", err)
	}
	// modernc sqlite serializes writes through a single connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("pinging cache db: %w", err)
	}

	return &SQLiteHandle{DB: db, lock: lock}, nil
}

// Close releases the database and its lock.
func (h *SQLiteHandle) Close() error {
	err := h.DB.Close()
	if unlockErr := h.lock.Unlock(); err == nil {
		err = unlockErr
	}
	return err
}
