// Package sqlite provides the SQLite-backed gene-root store: one-time seeding,
// per-request connections and readiness checks.
package sqlite

import (
	"database/sql"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

const driverName = "sqlite"

// DefaultPath is the store location relative to the working directory.
var DefaultPath = filepath.Join("data", "test_data.db")

// QuoteIdentifier quotes name for use as a SQLite table or column identifier.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func cleanPath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("storage path is required")
	}
	return filepath.Clean(path), nil
}

// openReadWrite opens path for the bootstrap, creating the file if needed.
func openReadWrite(path string) (*sql.DB, error) {
	dsn, err := fileDSN(path, "rwc")
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// readOnlyDSN builds a URI that never creates the file, so a store removed
// at runtime surfaces as an open failure instead of an empty database.
func readOnlyDSN(path string) (string, error) {
	return fileDSN(path, "ro")
}

// fileDSN builds an absolute file: URI with the path percent-escaped, so
// '#', '?' and '%' in directory names reach SQLite intact.
func fileDSN(path, mode string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve storage path: %w", err)
	}
	slashed := filepath.ToSlash(abs)
	if !strings.HasPrefix(slashed, "/") {
		slashed = "/" + slashed
	}
	u := url.URL{
		Scheme:   "file",
		Path:     slashed,
		RawQuery: url.Values{"mode": {mode}}.Encode(),
	}
	return u.String(), nil
}
