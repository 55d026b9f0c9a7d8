// Package chatdb reads the Messages app's chat.db and assembles typed
// conversation, message, attachment, and reaction aggregates. The
// schema declares no foreign keys, so all joins are explicit; the
// handle is opened strictly read-only because the Messages app may
// hold its own write lock on the file.
package chatdb

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"imsgd/internal/contacts"
)

// Reader is the read-only query surface over chat.db. Each call reads
// a fresh snapshot; no state is retained between calls.
type Reader struct {
	db       *sql.DB
	resolver contacts.Resolver
	logger   *zap.Logger
}

// Open opens chat.db read-only and verifies the connection. resolver
// may be nil, in which case raw handles are formatted for display.
func Open(path string, resolver contacts.Resolver, logger *zap.Logger) (*Reader, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open chat.db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping chat.db: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{db: db, resolver: resolver, logger: logger}, nil
}

// Close releases the read-only handle.
func (r *Reader) Close() error {
	return r.db.Close()
}

// resolveName returns the display name for a raw handle: contact cache
// first, then phone formatting, then the handle itself.
func (r *Reader) resolveName(handle string) string {
	if handle == "" {
		return ""
	}
	if r.resolver != nil {
		if name := r.resolver.Resolve(handle); name != "" {
			return name
		}
	}
	return contacts.FormatHandle(handle)
}
