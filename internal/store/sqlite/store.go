// Package sqlite implements store.Store on SQLite via modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/recipebox/recipebox-server/internal/store"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Pragmas are set per connection via the DSN so every pooled connection
// enforces foreign keys and waits on a busy writer.
var pragmas = []string{
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"foreign_keys(1)",
	"busy_timeout(5000)",
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store provides SQLite-backed persistence for the RecipeBox server.
type Store struct {
	db     *sql.DB
	q      querier
	inTx   bool
	logger *slog.Logger
	psql   sq.StatementBuilderType
}

var _ store.Store = (*Store)(nil)

// Open creates or opens the SQLite database at path and applies the schema.
func Open(path string, logger *slog.Logger) (*Store, error) {
	dsn := "file:" + path + "?_pragma=" + strings.Join(pragmas, "&_pragma=")
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	if logger != nil {
		logger.Info("SQLite database opened", "path", path)
	}

	return newStore(db, logger), nil
}

func newStore(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{
		db:     db,
		q:      db,
		logger: logger,
		psql:   sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// WithTx runs fn inside a transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Store) error) error {
	return s.runInTx(ctx, func(tx *Store) error { return fn(tx) })
}

func (s *Store) runInTx(ctx context.Context, fn func(tx *Store) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := fn(&Store{db: s.db, q: tx, inTx: true, logger: s.logger, psql: s.psql}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// query runs a squirrel SELECT built against the store's placeholder format.
func (s *Store) query(ctx context.Context, b sq.SelectBuilder) (*sql.Rows, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return s.q.QueryContext(ctx, query, args...)
}

// formatTime formats a time.Time to RFC3339Nano for storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime parses a RFC3339Nano string back to time.Time.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// notFound maps sql.ErrNoRows to store.ErrNotFound with msg.
func notFound(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound.WithMessage(msg)
	}
	return err
}

// requireAffected reports store.ErrNotFound when an UPDATE or DELETE matched nothing.
func requireAffected(res sql.Result, msg string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound.WithMessage(msg)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}
