/*
ledger.go - Append-only adjustment log

PURPOSE:
  Every manual change to a computed figure (a bonus added to a payroll
  detail, a deduction, a payment) is recorded here. The computed record
  itself is replaced by a new value on each amendment; the ledger keeps
  the history that explains how it got there.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: No Update, No Delete. EVER.
  2. IMMUTABLE: Once written, entries cannot be modified
  3. IDEMPOTENT: Same idempotency key = same entry (no duplicates).
     Keys are scoped per tenant and bound to one reference.

EXAMPLE FLOW:
  1. Payroll run computes take-home 1835.00 for staff S in October
  2. HR adds a 100.00 bonus: EntryBonus +100 (ref: detail id)
  3. HR adds a 35.00 deduction: EntryDeduction +35
  4. Detail is paid: EntryPayment 1900.00

  Replaying the entries for the detail reproduces its bonus and
  deduction totals.

SEE ALSO:
  - store.go: Low-level persistence interface
  - payroll/service.go: Records amendments through the ledger
*/
package generic

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ENTRY - Atomic, immutable adjustment record
// =============================================================================

type EntryID string

type EntryType string

const (
	EntryBonus     EntryType = "bonus"
	EntryDeduction EntryType = "deduction"
	EntryPayment   EntryType = "payment"
)

type Entry struct {
	ID             EntryID
	TenantID       TenantID
	Reference      string // what the entry adjusts, e.g. a payroll detail id
	Type           EntryType
	Delta          Amount
	Reason         string
	IdempotencyKey string

	// Audit fields
	CreatedBy string
	CreatedAt time.Time
}

// =============================================================================
// LEDGER - Append-only adjustment log
// =============================================================================

// Ledger is the history of all manual adjustments.
//
// INVARIANTS:
//   - Append-only: No Update, No Delete. EVER.
//   - Idempotent: a repeated idempotency key is rejected.
type Ledger interface {
	// Append adds an entry. A key already used for the same reference
	// returns ErrDuplicateIdempotencyKey (a retry); a key used for another
	// reference of the tenant returns ErrIdempotencyKeyReused.
	Append(ctx context.Context, e Entry) error

	// Entries returns all entries for a reference, oldest first.
	Entries(ctx context.Context, reference string) ([]Entry, error)

	// Total sums the entries of one type for a reference.
	Total(ctx context.Context, reference string, typ EntryType) (decimal.Decimal, error)
}

// =============================================================================
// DEFAULT LEDGER - Implementation using Store
// =============================================================================

type DefaultLedger struct {
	Store Store
}

func NewLedger(store Store) *DefaultLedger {
	return &DefaultLedger{Store: store}
}

func (l *DefaultLedger) Append(ctx context.Context, e Entry) error {
	if e.IdempotencyKey != "" {
		prior, found, err := l.Store.Find(ctx, e.TenantID, e.IdempotencyKey)
		if err != nil {
			return err
		}
		if found {
			if prior.Reference != e.Reference {
				return fmt.Errorf("%w: key %q belongs to %s", ErrIdempotencyKeyReused, e.IdempotencyKey, prior.Reference)
			}
			return ErrDuplicateIdempotencyKey
		}
	}
	return l.Store.Append(ctx, e)
}

func (l *DefaultLedger) Entries(ctx context.Context, reference string) ([]Entry, error) {
	return l.Store.Load(ctx, reference)
}

func (l *DefaultLedger) Total(ctx context.Context, reference string, typ EntryType) (decimal.Decimal, error) {
	entries, err := l.Store.Load(ctx, reference)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, e := range entries {
		if e.Type == typ {
			total = total.Add(e.Delta.Value)
		}
	}
	return total, nil
}
