/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Persists every record the engines consume and produce: shifts, staff
  shift assignments, attendance, salaries, payroll settings, periods,
  details and the adjustment ledger. The engines never see SQL; they get
  plain values back.

INTERFACES IMPLEMENTED:
  generic.Store:      Adjustment ledger persistence
  payroll.Repository: Everything a payroll run reads and writes
  shift.Lookup:       Via ListShifts + shift.NewCatalog

INVARIANTS BACKED BY THE SCHEMA:
  - idx_attendances_legacy_day: one legacy attendance per staff per day
  - idx_attendances_shift_day:  one attendance per staff per day per shift
  - salaries UNIQUE(tenant_id, staff_id): one active salary (upsert)
  - payroll_settings PRIMARY KEY(tenant_id): singleton per tenant
  - payroll_details UNIQUE(period_id, staff_id): one detail per staff
  - ledger_entries triggers: no UPDATE, no DELETE
  - idx_ledger_entries_idempotency: one entry per tenant per idempotency key

CONCURRENCY:
  Writes are serialized by a sync.RWMutex and the pool is capped at one
  connection, so ":memory:" databases behave like a single database.
  Finalizing a period is a conditional UPDATE, so two concurrent finalize
  calls cannot both succeed. WithTx writes a ledger entry and the detail it
  adjusts in one transaction.

MIGRATION:
  Versioned migrations are embedded (migrations/*.sql) and applied with
  golang-migrate on New(). `shiftpay migrate` runs the same code.

USAGE:
  store, err := sqlite.New("./data/shiftpay.db", logger)
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - migrate.go: Embedded migrations
  - payroll/service.go: Repository interface
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/shiftpay/generic"
	"go.uber.org/zap"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens the database without running migrations.
func Open(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// New opens the database at dbPath and migrates it to the latest version.
// Use ":memory:" for an in-memory database.
func New(dbPath string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := Open(dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := Migrate(db, log); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// =============================================================================
// HELPERS
// =============================================================================

type scanner interface {
	Scan(dest ...any) error
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	execer
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(timeLayout), Valid: true}
}

func parseNullTime(ns sql.NullString) *time.Time {
	if !ns.Valid {
		return nil
	}
	t := parseTime(ns.String)
	return &t
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullClock(c *generic.Clock) sql.NullString {
	if c == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: c.String(), Valid: true}
}

func parseNullClock(ns sql.NullString) (*generic.Clock, error) {
	if !ns.Valid {
		return nil, nil
	}
	c, err := generic.ParseClock(ns.String)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}

func parseNullInt(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func notFound(entity, id string) error {
	return generic.NewRuleError(generic.ErrNotFound, entity, id, "", "")
}

// DB exposes the underlying handle for migrations and maintenance.
func (s *Store) DB() *sql.DB {
	return s.db
}
