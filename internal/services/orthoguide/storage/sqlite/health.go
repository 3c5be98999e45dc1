package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/orthoguide/orthoguide/internal/services/orthoguide/storage"
)

// HealthCheck reports whether the seeded organism table is queryable.
type HealthCheck struct {
	Connector *Connector
	Table     string
}

// Ready returns nil when Table exists in the store. A missing store file or
// table yields an error wrapping storage.ErrUnseeded.
func (h HealthCheck) Ready(ctx context.Context) error {
	table := h.Table
	if table == "" {
		table = storage.DefaultOrganism
	}
	db, err := h.Connector.Open(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", storage.ErrUnseeded, err)
	}
	defer db.Close()

	var name string
	err = db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: table %s not found", storage.ErrUnseeded, table)
	}
	if err != nil {
		return fmt.Errorf("check table %s: %w", table, err)
	}
	return nil
}
