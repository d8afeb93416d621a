package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/shiftpay/generic"
	"github.com/warp/shiftpay/payroll"
)

// =============================================================================
// LEDGER - generic.Store implementation
// =============================================================================

const entryColumns = `id, tenant_id, reference, entry_type, delta_value, delta_unit,
	reason, idempotency_key, created_by, created_at`

// Append writes one ledger entry. The table is guarded by triggers that
// abort any UPDATE or DELETE.
func (s *Store) Append(ctx context.Context, e generic.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendEntry(ctx, s.db, e)
}

func appendEntry(ctx context.Context, db execer, e generic.Entry) error {
	if e.ID == "" {
		e.ID = generic.EntryID(uuid.NewString())
	}
	unit := e.Delta.Unit
	if unit == "" {
		unit = generic.UnitCurrency
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO ledger_entries (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		string(e.ID), string(e.TenantID), e.Reference, string(e.Type), e.Delta.Value, string(unit),
		e.Reason, nullString(e.IdempotencyKey), e.CreatedBy, formatTime(e.CreatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) && e.IdempotencyKey != "" {
			return generic.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return nil
}

// Load returns the entries of a reference, oldest first.
func (s *Store) Load(ctx context.Context, reference string) ([]generic.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return loadEntries(ctx, s.db, reference)
}

func loadEntries(ctx context.Context, db querier, reference string) ([]generic.Entry, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM ledger_entries WHERE reference = ? ORDER BY created_at, rowid`,
		reference)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []generic.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Find returns the tenant's entry carrying the idempotency key.
func (s *Store) Find(ctx context.Context, tenantID generic.TenantID, idempotencyKey string) (generic.Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findEntry(ctx, s.db, tenantID, idempotencyKey)
}

func findEntry(ctx context.Context, db querier, tenantID generic.TenantID, idempotencyKey string) (generic.Entry, bool, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM ledger_entries WHERE tenant_id = ? AND idempotency_key = ?`,
		string(tenantID), idempotencyKey)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return generic.Entry{}, false, nil
	}
	if err != nil {
		return generic.Entry{}, false, fmt.Errorf("failed to check idempotency key: %w", err)
	}
	return e, true, nil
}

func scanEntry(row scanner) (generic.Entry, error) {
	var (
		e                 generic.Entry
		id, tenantID, typ string
		value             decimal.Decimal
		unit, createdAt   string
		idempotencyKey    sql.NullString
	)
	if err := row.Scan(&id, &tenantID, &e.Reference, &typ, &value, &unit,
		&e.Reason, &idempotencyKey, &e.CreatedBy, &createdAt); err != nil {
		return generic.Entry{}, err
	}
	e.ID = generic.EntryID(id)
	e.TenantID = generic.TenantID(tenantID)
	e.Type = generic.EntryType(typ)
	e.Delta = generic.NewAmount(value, generic.Unit(unit))
	e.IdempotencyKey = idempotencyKey.String
	e.CreatedAt = parseTime(createdAt)
	return e, nil
}

// =============================================================================
// TRANSACTIONAL STORE (payroll.Tx)
// =============================================================================

// WithTx runs fn inside one database transaction. fn must only use the
// store it is given: the pool holds a single connection.
func (s *Store) WithTx(ctx context.Context, fn func(tx payroll.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) Append(ctx context.Context, e generic.Entry) error {
	return appendEntry(ctx, ts.tx, e)
}

func (ts *txStore) Load(ctx context.Context, reference string) ([]generic.Entry, error) {
	return loadEntries(ctx, ts.tx, reference)
}

func (ts *txStore) Find(ctx context.Context, tenantID generic.TenantID, idempotencyKey string) (generic.Entry, bool, error) {
	return findEntry(ctx, ts.tx, tenantID, idempotencyKey)
}

func (ts *txStore) SaveDetail(ctx context.Context, d payroll.Detail) error {
	return saveDetail(ctx, ts.tx, d)
}

var (
	_ generic.Store = (*Store)(nil)
	_ payroll.Tx    = (*txStore)(nil)
)
