package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers "sqlite3" (cgo)
	_ "modernc.org/sqlite"          // registers "sqlite" (pure Go)

	"mercator-hq/turnstile/pkg/ratelimit"
)

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Driver is the database/sql driver name: "sqlite" (modernc.org/sqlite)
	// or "sqlite3" (github.com/mattn/go-sqlite3).
	// Default: "sqlite"
	Driver string

	// Path is the database file path. ":memory:" opens a private in-memory
	// database.
	Path string

	// WALMode enables Write-Ahead Logging mode.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Driver:      "sqlite",
		Path:        "data/journal.db",
		WALMode:     true,
		BusyTimeout: 5 * time.Second,
	}
}

// SQLiteStorage implements Storage on SQLite through either supported
// driver. It holds a single connection, since SQLite admits one writer.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger

	insertStmt *sql.Stmt

	closeOnce sync.Once
}

// NewSQLiteStorage opens the database, applies pragmas and creates the
// schema. Parent directories of the database file are created as needed.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if config.Driver == "" {
		config.Driver = "sqlite"
	}
	if config.Driver != "sqlite" && config.Driver != "sqlite3" {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, config.Driver)
	}
	if config.Path == "" {
		return nil, NewStorageError(config.Driver, "open", fmt.Errorf("db path cannot be empty"))
	}
	if config.BusyTimeout == 0 {
		config.BusyTimeout = 5 * time.Second
	}

	logger := slog.Default().With("component", "journal.storage.sqlite")

	if config.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(config.Path), 0o755); err != nil {
			return nil, NewStorageError(config.Driver, "mkdir", err)
		}
	}

	db, err := sql.Open(config.Driver, config.Path)
	if err != nil {
		return nil, NewStorageError(config.Driver, "open", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLiteStorage{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite journal initialized",
		"driver", config.Driver,
		"path", config.Path,
		"wal_mode", config.WALMode,
	)

	return s, nil
}

// initialize applies pragmas, creates the schema and prepares statements.
func (s *SQLiteStorage) initialize() error {
	driver := s.config.Driver

	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return NewStorageError(driver, "enable_wal", err)
		}
	}

	busyTimeoutMs := s.config.BusyTimeout.Milliseconds()
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs)); err != nil {
		return NewStorageError(driver, "set_busy_timeout", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return NewStorageError(driver, "create_schema", err)
	}

	if _, err := s.db.Exec(insertSchemaVersion, SchemaVersion, time.Now().UnixNano()); err != nil {
		return NewStorageError(driver, "insert_schema_version", err)
	}

	var version sql.NullInt64
	if err := s.db.QueryRow(getSchemaVersion).Scan(&version); err != nil {
		return NewStorageError(driver, "get_schema_version", err)
	}
	if version.Int64 != SchemaVersion {
		return NewStorageError(driver, "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version.Int64))
	}

	stmt, err := s.db.Prepare(insertDecision)
	if err != nil {
		return NewStorageError(driver, "prepare", err)
	}
	s.insertStmt = stmt

	return nil
}

// Store inserts record.
func (s *SQLiteStorage) Store(ctx context.Context, record *Record) error {
	allowed := 0
	if record.Allowed {
		allowed = 1
	}

	_, err := s.insertStmt.ExecContext(ctx,
		record.ID,
		string(record.Kind),
		record.Permits,
		allowed,
		record.DecidedAt.UnixNano(),
	)
	if err != nil {
		return NewStorageError(s.config.Driver, "store", err)
	}
	return nil
}

// Summarize aggregates records decided at or after since.
func (s *SQLiteStorage) Summarize(ctx context.Context, since time.Time) ([]KindSummary, error) {
	rows, err := s.db.QueryContext(ctx, summarizeDecisions, since.UnixNano())
	if err != nil {
		return nil, NewStorageError(s.config.Driver, "summarize", err)
	}
	defer rows.Close()

	var out []KindSummary
	for rows.Next() {
		var (
			kind string
			sum  KindSummary
		)
		if err := rows.Scan(&kind, &sum.Admitted, &sum.Rejected, &sum.AdmittedPermits, &sum.RejectedPermits); err != nil {
			return nil, NewStorageError(s.config.Driver, "summarize_scan", err)
		}
		sum.Kind = ratelimit.Kind(kind)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError(s.config.Driver, "summarize", err)
	}

	return out, nil
}

// Prune deletes records decided before olderThan.
func (s *SQLiteStorage) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, pruneDecisions, olderThan.UnixNano())
	if err != nil {
		return 0, NewStorageError(s.config.Driver, "prune", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, NewStorageError(s.config.Driver, "prune", err)
	}

	s.logger.Debug("journal pruned", "deleted", n, "older_than", olderThan)
	return n, nil
}

// Count returns the number of stored records.
func (s *SQLiteStorage) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, countDecisions).Scan(&n); err != nil {
		return 0, NewStorageError(s.config.Driver, "count", err)
	}
	return n, nil
}

// Close releases the prepared statement and closes the database. It is safe
// to call more than once.
func (s *SQLiteStorage) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.insertStmt != nil {
			s.insertStmt.Close()
		}
		if s.config.WALMode {
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
		}
		if cerr := s.db.Close(); cerr != nil {
			err = NewStorageError(s.config.Driver, "close", cerr)
		}
	})
	return err
}
