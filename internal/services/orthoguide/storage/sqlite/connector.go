package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// Connector opens a fresh read-only handle on the store for every caller.
// Handles are not pooled across requests; callers close them on every path.
type Connector struct {
	path string
}

// NewConnector returns a Connector for the store at path.
func NewConnector(path string) (*Connector, error) {
	clean, err := cleanPath(path)
	if err != nil {
		return nil, err
	}
	return &Connector{path: clean}, nil
}

// Path returns the store location.
func (c *Connector) Path() string {
	if c == nil {
		return ""
	}
	return c.path
}

// Open returns a single-connection handle on the store.
func (c *Connector) Open(ctx context.Context) (*sql.DB, error) {
	if c == nil || c.path == "" {
		return nil, fmt.Errorf("storage is not configured")
	}
	dsn, err := readOnlyDSN(c.path)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
