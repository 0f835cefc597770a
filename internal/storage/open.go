package storage

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Handle bundles an opened history database with everything Close must undo.
type Handle struct {
	Store *HistoryStore

	db       *sql.DB
	tempPath string
}

// OpenHistory opens the Chromium History database at path for reading. A
// running browser keeps the file locked, so with copyFirst the database is
// copied to a uniquely named temp file and the copy is opened instead.
func OpenHistory(path string, copyFirst bool) (*Handle, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("history database: %w", err)
	}

	h := &Handle{}
	openPath := path
	if copyFirst {
		tmp := filepath.Join(os.TempDir(), "tabsnap-history-"+uuid.NewString()+".db")
		if err := copyFile(path, tmp); err != nil {
			os.Remove(tmp)
			return nil, fmt.Errorf("copy history database: %w", err)
		}
		h.tempPath = tmp
		openPath = tmp
	}

	db, err := sql.Open("sqlite3", "file:"+openPath+"?mode=ro")
	if err != nil {
		h.removeTemp()
		return nil, fmt.Errorf("open database: %w", err)
	}
	h.db = db

	store, err := NewHistoryStore(db)
	if err != nil {
		db.Close()
		h.removeTemp()
		return nil, fmt.Errorf("init store: %w", err)
	}
	h.Store = store

	return h, nil
}

// CreateHistory creates a new, empty Chromium-compatible History database at
// path and returns it opened for writing.
func CreateHistory(path string) (*Handle, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	store, err := NewHistoryStore(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init store: %w", err)
	}

	return &Handle{Store: store, db: db}, nil
}

// Close releases the store, the database and any temp copy.
func (h *Handle) Close() error {
	if h.Store != nil {
		h.Store.Close()
	}
	var err error
	if h.db != nil {
		err = h.db.Close()
	}
	h.removeTemp()
	return err
}

func (h *Handle) removeTemp() {
	if h.tempPath != "" {
		os.Remove(h.tempPath)
		h.tempPath = ""
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
