package sqlite

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/orthoguide/orthoguide/internal/services/orthoguide/storage"
	"github.com/sirupsen/logrus"
)

//go:embed schema.sql
var schemaSQL string

// SeedResult reports what Seed did.
type SeedResult struct {
	Path    string
	Created bool
	Rows    int
}

// Seed creates the store at path with the default organism table and its
// sample records when no file exists there. An existing file is left alone
// without checking its schema or content.
//
// Failures wrap storage.ErrSeedFailed and remove the partially written file
// so the next start retries the bootstrap.
func Seed(ctx context.Context, path string, logger logrus.FieldLogger) (SeedResult, error) {
	return seed(ctx, path, logger, storage.SampleRecords())
}

func seed(ctx context.Context, path string, logger logrus.FieldLogger, records []storage.OrthologRecord) (SeedResult, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	clean, err := cleanPath(path)
	if err != nil {
		return SeedResult{}, fmt.Errorf("%w: %v", storage.ErrSeedFailed, err)
	}
	result := SeedResult{Path: clean}
	log := logger.WithField("path", clean)

	if _, err := os.Stat(clean); err == nil {
		log.Debug("database found, skipping seed")
		return result, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return result, fmt.Errorf("%w: stat %s: %v", storage.ErrSeedFailed, clean, err)
	}

	log.Info("database not found, creating a new one")
	rows, err := createAndSeed(ctx, clean, records)
	if err != nil {
		log.WithError(err).Error("database seed failed")
		if rmErr := os.Remove(clean); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			log.WithError(rmErr).Warn("remove partial database")
		}
		return result, fmt.Errorf("%w: %v", storage.ErrSeedFailed, err)
	}
	result.Created = true
	result.Rows = rows
	log.WithField("rows", rows).Info("sample database created")
	return result, nil
}

func createAndSeed(ctx context.Context, path string, records []storage.OrthologRecord) (int, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("create storage dir: %w", err)
		}
	}
	db, err := openReadWrite(path)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	table := QuoteIdentifier(storage.DefaultOrganism)
	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return 0, fmt.Errorf("create table %s: %w", storage.DefaultOrganism, err)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s VALUES (?, ?, ?, ?, ?, ?)`, table))
	if err != nil {
		return 0, fmt.Errorf("prepare seed insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, rec.Node, rec.CogID, rec.Root, rec.CladeName, rec.QueryItem, rec.NcbiTaxonID); err != nil {
			return 0, fmt.Errorf("insert %s: %w", rec.QueryItem, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed: %w", err)
	}
	return len(records), nil
}
