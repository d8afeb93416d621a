/*
store.go - Persistence interface for ledger entries

PURPOSE:
  Defines the interface between the adjustment ledger and the database.
  The Store handles persistence while maintaining append-only semantics.

APPEND-ONLY CONTRACT:
  - Append(): Single entry write
  - NO Update() or Delete() methods exist

IMPLEMENTATIONS:
  - store/sqlite/ledger.go: SQLite
  - generic/store/memory.go: In-memory for testing

SEE ALSO:
  - ledger.go: Higher-level interface using Store
*/
package generic

import "context"

// Store handles persistence of ledger entries.
// IMPORTANT: Store is APPEND-ONLY. No Update, No Delete. Ever.
type Store interface {
	// Append persists an entry. Returns ErrDuplicateIdempotencyKey if the
	// tenant already has an entry with the key.
	Append(ctx context.Context, e Entry) error

	// Load returns all entries for a reference, ordered by CreatedAt.
	Load(ctx context.Context, reference string) ([]Entry, error)

	// Find returns the tenant's entry written with idempotencyKey, if any.
	// Keys are scoped per tenant.
	Find(ctx context.Context, tenantID TenantID, idempotencyKey string) (Entry, bool, error)
}
