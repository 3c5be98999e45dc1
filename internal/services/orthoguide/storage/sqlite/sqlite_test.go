package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/orthoguide/orthoguide/internal/platform/logging"
	"github.com/orthoguide/orthoguide/internal/services/orthoguide/storage"
)

func seedTempStore(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "data", "test_data.db")
	result, err := Seed(context.Background(), path, logging.Discard())
	if err != nil {
		t.Fatalf("seed store: %v", err)
	}
	if !result.Created {
		t.Fatal("expected seed to create the store")
	}
	return path
}

func countRows(t *testing.T, path string) int {
	t.Helper()

	connector, err := NewConnector(path)
	if err != nil {
		t.Fatalf("new connector: %v", err)
	}
	db, err := connector.Open(context.Background())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer db.Close()

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM hsa`).Scan(&count); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return count
}

func TestQuoteIdentifier(t *testing.T) {
	t.Parallel()

	if got := QuoteIdentifier("hsa"); got != `"hsa"` {
		t.Fatalf("QuoteIdentifier(hsa) = %s", got)
	}
	if got := QuoteIdentifier(`a"b`); got != `"a""b"` {
		t.Fatalf("QuoteIdentifier(a\"b) = %s", got)
	}
}

func TestSeedCreatesSampleTable(t *testing.T) {
	t.Parallel()

	path := seedTempStore(t)
	if got, want := countRows(t, path), len(storage.SampleRecords()); got != want {
		t.Fatalf("row count = %d, want %d", got, want)
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	t.Parallel()

	path := seedTempStore(t)
	before := countRows(t, path)

	result, err := Seed(context.Background(), path, logging.Discard())
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if result.Created {
		t.Fatal("expected second seed to skip creation")
	}
	if after := countRows(t, path); after != before {
		t.Fatalf("row count changed from %d to %d", before, after)
	}
}

func TestSeedSkipsExistingFileWithoutInspectingIt(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "existing.db")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatalf("write placeholder: %v", err)
	}
	result, err := Seed(context.Background(), path, logging.Discard())
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if result.Created {
		t.Fatal("expected existing file to be left alone")
	}
}

func TestSeedRequiresPath(t *testing.T) {
	t.Parallel()

	_, err := Seed(context.Background(), " ", logging.Discard())
	if !errors.Is(err, storage.ErrSeedFailed) {
		t.Fatalf("seed error = %v, want %v", err, storage.ErrSeedFailed)
	}
}

func TestSeedFailureIsReported(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	path := filepath.Join(blocker, "test_data.db")

	_, err := Seed(context.Background(), path, logging.Discard())
	if !errors.Is(err, storage.ErrSeedFailed) {
		t.Fatalf("seed error = %v, want %v", err, storage.ErrSeedFailed)
	}
}

func TestNewConnectorRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := NewConnector(""); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestConnectorOpenDoesNotCreateMissingStore(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing.db")
	connector, err := NewConnector(path)
	if err != nil {
		t.Fatalf("new connector: %v", err)
	}
	if _, err := connector.Open(context.Background()); err == nil {
		t.Fatal("expected open error for missing store")
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected store file to stay absent, stat err = %v", err)
	}
}

func TestConnectorOpenIsReadOnly(t *testing.T) {
	t.Parallel()

	path := seedTempStore(t)
	connector, err := NewConnector(path)
	if err != nil {
		t.Fatalf("new connector: %v", err)
	}
	db, err := connector.Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`DELETE FROM hsa`); err == nil {
		t.Fatal("expected write through read-only handle to fail")
	}
}

func TestHealthCheckReady(t *testing.T) {
	t.Parallel()

	path := seedTempStore(t)
	connector, err := NewConnector(path)
	if err != nil {
		t.Fatalf("new connector: %v", err)
	}
	if err := (HealthCheck{Connector: connector}).Ready(context.Background()); err != nil {
		t.Fatalf("ready: %v", err)
	}
}

func TestHealthCheckReportsMissingTable(t *testing.T) {
	t.Parallel()

	path := seedTempStore(t)
	connector, err := NewConnector(path)
	if err != nil {
		t.Fatalf("new connector: %v", err)
	}
	err = (HealthCheck{Connector: connector, Table: "mmu"}).Ready(context.Background())
	if !errors.Is(err, storage.ErrUnseeded) {
		t.Fatalf("ready error = %v, want %v", err, storage.ErrUnseeded)
	}
}

func TestHealthCheckReportsMissingStore(t *testing.T) {
	t.Parallel()

	connector, err := NewConnector(filepath.Join(t.TempDir(), "gone.db"))
	if err != nil {
		t.Fatalf("new connector: %v", err)
	}
	err = (HealthCheck{Connector: connector}).Ready(context.Background())
	if !errors.Is(err, storage.ErrUnseeded) {
		t.Fatalf("ready error = %v, want %v", err, storage.ErrUnseeded)
	}
}

func TestSeedRemovesPartialStoreAndRetries(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data", "test_data.db")
	dup := storage.SampleRecords()[0]
	records := []storage.OrthologRecord{dup, dup}

	_, err := seed(context.Background(), path, logging.Discard(), records)
	if !errors.Is(err, storage.ErrSeedFailed) {
		t.Fatalf("seed error = %v, want %v", err, storage.ErrSeedFailed)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected partial store to be removed, stat err = %v", err)
	}

	result, err := Seed(context.Background(), path, logging.Discard())
	if err != nil {
		t.Fatalf("retry seed: %v", err)
	}
	if !result.Created {
		t.Fatal("expected retry to create the store")
	}
	if got := countRows(t, path); got != len(storage.SampleRecords()) {
		t.Fatalf("row count = %d, want %d", got, len(storage.SampleRecords()))
	}
}

func TestStorePathWithURIMetacharacters(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := filepath.Join(root, "run#1?x=y%20", "test_data.db")
	if _, err := Seed(context.Background(), path, logging.Discard()); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected store at %s: %v", path, err)
	}
	if got := countRows(t, path); got != len(storage.SampleRecords()) {
		t.Fatalf("row count = %d, want %d", got, len(storage.SampleRecords()))
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			names = append(names, entry.Name())
		}
		t.Fatalf("expected only the store directory, got %v", names)
	}
}

func TestReadOnlyDSNEscapesPath(t *testing.T) {
	t.Parallel()

	dsn, err := readOnlyDSN("/srv/run#1/test_data.db")
	if err != nil {
		t.Fatalf("read-only dsn: %v", err)
	}
	if want := "file:///srv/run%231/test_data.db?mode=ro"; dsn != want {
		t.Fatalf("readOnlyDSN = %q, want %q", dsn, want)
	}
}
