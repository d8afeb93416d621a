package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/warp/shiftpay/generic"
	"github.com/warp/shiftpay/shift"
	"github.com/warp/shiftpay/staffshift"
)

// =============================================================================
// STAFF SHIFT ASSIGNMENTS
// =============================================================================

const assignmentColumns = `id, tenant_id, staff_id, shift_id, date,
	check_in_time, check_out_time, actual_break_duration_minutes,
	total_worked_minutes, effective_minutes, late_minutes, overtime_minutes, is_completed,
	notes, created_at, updated_at`

// SaveAssignment inserts or replaces an assignment. Assigning the same
// shift twice to one staff member on one day is rejected with
// ErrOverlappingAssignment.
func (s *Store) SaveAssignment(ctx context.Context, a staffshift.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveAssignment(ctx, s.db, a)
}

// SaveAssignments writes a batch in one transaction.
func (s *Store) SaveAssignments(ctx context.Context, list []staffshift.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, a := range list {
		if err := saveAssignment(ctx, tx, a); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func saveAssignment(ctx context.Context, db execer, a staffshift.Assignment) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO staff_shifts (`+assignmentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			shift_id = excluded.shift_id,
			date = excluded.date,
			check_in_time = excluded.check_in_time,
			check_out_time = excluded.check_out_time,
			actual_break_duration_minutes = excluded.actual_break_duration_minutes,
			total_worked_minutes = excluded.total_worked_minutes,
			effective_minutes = excluded.effective_minutes,
			late_minutes = excluded.late_minutes,
			overtime_minutes = excluded.overtime_minutes,
			is_completed = excluded.is_completed,
			notes = excluded.notes,
			updated_at = excluded.updated_at
		WHERE staff_shifts.tenant_id = excluded.tenant_id
	`,
		string(a.ID), string(a.TenantID), string(a.StaffID), string(a.ShiftID), a.Date.String(),
		nullClock(a.CheckIn), nullClock(a.CheckOut), nullInt(a.ActualBreakDurationMinutes),
		a.TotalWorkedMinutes, a.EffectiveMinutes, a.LateMinutes, a.OvertimeMinutes, boolInt(a.IsCompleted),
		a.Notes, formatTime(a.CreatedAt), formatTime(a.UpdatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.NewRuleError(generic.ErrOverlappingAssignment, "staff_shift", string(a.ID), "shift_id",
				"shift already assigned to this staff member on this date")
		}
		return fmt.Errorf("failed to save staff shift: %w", err)
	}
	return nil
}

func (s *Store) GetAssignment(ctx context.Context, tenantID generic.TenantID, id staffshift.ID) (staffshift.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+assignmentColumns+` FROM staff_shifts WHERE tenant_id = ? AND id = ?`,
		string(tenantID), string(id))
	a, err := scanAssignment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return staffshift.Assignment{}, notFound("staff_shift", string(id))
	}
	return a, err
}

// ListAssignmentsByStaffDate returns one staff member's assignments on a day,
// the set an overlap check runs against.
func (s *Store) ListAssignmentsByStaffDate(ctx context.Context, tenantID generic.TenantID, staffID generic.StaffID, date generic.Date) ([]staffshift.Assignment, error) {
	return s.queryAssignments(ctx,
		`SELECT `+assignmentColumns+` FROM staff_shifts
		 WHERE tenant_id = ? AND staff_id = ? AND date = ?
		 ORDER BY created_at`,
		string(tenantID), string(staffID), date.String())
}

// ListAssignmentsOnDates returns every assignment of the tenant on the given
// days. Bulk assignment loads its overlap set with it.
func (s *Store) ListAssignmentsOnDates(ctx context.Context, tenantID generic.TenantID, dates []generic.Date) ([]staffshift.Assignment, error) {
	var out []staffshift.Assignment
	seen := make(map[string]bool, len(dates))
	for _, d := range dates {
		if seen[d.String()] {
			continue
		}
		seen[d.String()] = true
		list, err := s.queryAssignments(ctx,
			`SELECT `+assignmentColumns+` FROM staff_shifts
			 WHERE tenant_id = ? AND date = ?
			 ORDER BY created_at`,
			string(tenantID), d.String())
		if err != nil {
			return nil, err
		}
		out = append(out, list...)
	}
	return out, nil
}

// ListAssignmentsInRange returns the tenant's assignments dated inside r,
// inclusive on both ends.
func (s *Store) ListAssignmentsInRange(ctx context.Context, tenantID generic.TenantID, r generic.DateRange) ([]staffshift.Assignment, error) {
	return s.queryAssignments(ctx,
		`SELECT `+assignmentColumns+` FROM staff_shifts
		 WHERE tenant_id = ? AND date >= ? AND date <= ?
		 ORDER BY date, staff_id`,
		string(tenantID), r.Start.String(), r.End.String())
}

func (s *Store) queryAssignments(ctx context.Context, query string, args ...any) ([]staffshift.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query staff shifts: %w", err)
	}
	defer rows.Close()

	var out []staffshift.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAssignment(row scanner) (staffshift.Assignment, error) {
	var (
		a                     staffshift.Assignment
		id, tenantID, staffID string
		shiftID, date         string
		checkIn, checkOut     sql.NullString
		actualBreak           sql.NullInt64
		completed             int
		createdAt, updatedAt  string
	)
	err := row.Scan(&id, &tenantID, &staffID, &shiftID, &date,
		&checkIn, &checkOut, &actualBreak,
		&a.TotalWorkedMinutes, &a.EffectiveMinutes, &a.LateMinutes, &a.OvertimeMinutes, &completed,
		&a.Notes, &createdAt, &updatedAt)
	if err != nil {
		return staffshift.Assignment{}, err
	}

	if a.Date, err = generic.ParseDate(date); err != nil {
		return staffshift.Assignment{}, fmt.Errorf("staff shift %s: %w", id, err)
	}
	if a.CheckIn, err = parseNullClock(checkIn); err != nil {
		return staffshift.Assignment{}, fmt.Errorf("staff shift %s: %w", id, err)
	}
	if a.CheckOut, err = parseNullClock(checkOut); err != nil {
		return staffshift.Assignment{}, fmt.Errorf("staff shift %s: %w", id, err)
	}
	a.ID = staffshift.ID(id)
	a.TenantID = generic.TenantID(tenantID)
	a.StaffID = generic.StaffID(staffID)
	a.ShiftID = shift.ID(shiftID)
	a.ActualBreakDurationMinutes = parseNullInt(actualBreak)
	a.IsCompleted = completed == 1
	a.CreatedAt = parseTime(createdAt)
	a.UpdatedAt = parseTime(updatedAt)
	return a, nil
}
