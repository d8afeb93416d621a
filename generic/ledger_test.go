package generic_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/shiftpay/generic"
	"github.com/warp/shiftpay/generic/store"
)

func newTestLedger() generic.Ledger {
	return generic.NewLedger(store.NewMemory())
}

func entry(ref string, typ generic.EntryType, value int64, key string, at time.Time) generic.Entry {
	return generic.Entry{
		ID:             generic.EntryID(key),
		TenantID:       "tenant-1",
		Reference:      ref,
		Type:           typ,
		Delta:          generic.NewAmountFromInt(value, generic.UnitCurrency),
		IdempotencyKey: key,
		CreatedAt:      at,
	}
}

func TestLedger_Total_SumsByType(t *testing.T) {
	// GIVEN: A detail with two bonuses and one deduction
	// WHEN: Totals are read back
	// THEN: Each type sums independently

	ledger := newTestLedger()
	ctx := context.Background()
	now := time.Date(2025, time.November, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, ledger.Append(ctx, entry("detail-1", generic.EntryBonus, 100, "k1", now)))
	require.NoError(t, ledger.Append(ctx, entry("detail-1", generic.EntryBonus, 50, "k2", now.Add(time.Minute))))
	require.NoError(t, ledger.Append(ctx, entry("detail-1", generic.EntryDeduction, 35, "k3", now.Add(2*time.Minute))))
	require.NoError(t, ledger.Append(ctx, entry("detail-2", generic.EntryBonus, 999, "k4", now)))

	bonus, err := ledger.Total(ctx, "detail-1", generic.EntryBonus)
	require.NoError(t, err)
	assert.Equal(t, "150", bonus.String())

	deduction, err := ledger.Total(ctx, "detail-1", generic.EntryDeduction)
	require.NoError(t, err)
	assert.Equal(t, "35", deduction.String())
}

func TestLedger_DuplicateIdempotencyKey_Rejected(t *testing.T) {
	ledger := newTestLedger()
	ctx := context.Background()
	now := time.Date(2025, time.November, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, ledger.Append(ctx, entry("detail-1", generic.EntryBonus, 100, "retry-me", now)))
	err := ledger.Append(ctx, entry("detail-1", generic.EntryBonus, 100, "retry-me", now))
	assert.ErrorIs(t, err, generic.ErrDuplicateIdempotencyKey)

	entries, err := ledger.Entries(ctx, "detail-1")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "retry must not double-count")
}

func TestLedger_IdempotencyKey_ScopedToTenantAndReference(t *testing.T) {
	// GIVEN: Key "req-1" already used for detail-1 of tenant-1
	// WHEN: The same key is used for detail-2, and by another tenant
	// THEN: Reuse within the tenant is a conflict; the other tenant is unaffected

	ledger := newTestLedger()
	ctx := context.Background()
	now := time.Date(2025, time.November, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, ledger.Append(ctx, entry("detail-1", generic.EntryBonus, 100, "req-1", now)))

	err := ledger.Append(ctx, entry("detail-2", generic.EntryBonus, 50, "req-1", now))
	assert.ErrorIs(t, err, generic.ErrIdempotencyKeyReused)
	assert.True(t, generic.IsConflict(err))

	other := entry("detail-9", generic.EntryBonus, 50, "req-1", now)
	other.TenantID = "tenant-2"
	require.NoError(t, ledger.Append(ctx, other))

	entries, err := ledger.Entries(ctx, "detail-2")
	require.NoError(t, err)
	assert.Empty(t, entries)
	entries, err = ledger.Entries(ctx, "detail-9")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLedger_Entries_OrderedByCreatedAt(t *testing.T) {
	ledger := newTestLedger()
	ctx := context.Background()
	base := time.Date(2025, time.November, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, ledger.Append(ctx, entry("d", generic.EntryBonus, 3, "c", base.Add(2*time.Hour))))
	require.NoError(t, ledger.Append(ctx, entry("d", generic.EntryBonus, 1, "a", base)))
	require.NoError(t, ledger.Append(ctx, entry("d", generic.EntryBonus, 2, "b", base.Add(time.Hour))))

	entries, err := ledger.Entries(ctx, "d")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "a", entries[0].IdempotencyKey)
	assert.Equal(t, "b", entries[1].IdempotencyKey)
	assert.Equal(t, "c", entries[2].IdempotencyKey)
}

func TestRuleError_UnwrapsToKind(t *testing.T) {
	err := generic.NewRuleError(generic.ErrInvalidShiftConfig, "shift", "s1", "duration", "too short").WithBounds(30, 60)

	assert.ErrorIs(t, err, generic.ErrInvalidShiftConfig)
	assert.True(t, generic.IsClientError(err))
	assert.False(t, generic.IsConflict(err))
	assert.Equal(t, "invalid shift configuration: shift s1: duration too short (got 30, limit 60)", err.Error())
}
