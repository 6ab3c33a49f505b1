package board

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/lawrns/foco/types"
)

// New opens the store backing path, picking the backend from the file
// extension: .db, .sqlite, and .sqlite3 open the SQLite backend, anything
// else the JSON file backend. The file is created on first write if it
// does not exist.
//
// Both backends implement TestStore; callers that need the test hooks can
// assert for it.
func New(path string, opts ...Option) (types.Store, error) {
	if path == "" {
		return nil, errors.New("store path cannot be empty")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return newSQLiteStore(path, cfg)
	default:
		return newJSONStore(path, cfg)
	}
}
