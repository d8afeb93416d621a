package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/warp/shiftpay/attendance"
	"github.com/warp/shiftpay/generic"
	"github.com/warp/shiftpay/shift"
)

// =============================================================================
// ATTENDANCE
// =============================================================================

const attendanceColumns = `id, tenant_id, staff_id, date, check_in_time,
	check_out_time, shift_id, break_override_minutes, is_weekend, total_hours,
	notes, created_at, updated_at`

// SaveAttendance inserts or replaces an attendance record. A second legacy
// record for the same staff and day, or a second record for the same shift,
// is rejected with ErrDuplicateAttendance.
func (s *Store) SaveAttendance(ctx context.Context, a attendance.Attendance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attendances (`+attendanceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			check_in_time = excluded.check_in_time,
			check_out_time = excluded.check_out_time,
			shift_id = excluded.shift_id,
			break_override_minutes = excluded.break_override_minutes,
			is_weekend = excluded.is_weekend,
			total_hours = excluded.total_hours,
			notes = excluded.notes,
			updated_at = excluded.updated_at
		WHERE attendances.tenant_id = excluded.tenant_id
	`,
		string(a.ID), string(a.TenantID), string(a.StaffID), a.Date.String(), nullClock(a.CheckIn),
		nullClock(a.CheckOut), nullString(string(a.ShiftID)), nullInt(a.BreakOverrideMinutes),
		boolInt(a.IsWeekend), a.TotalHours, a.Notes, formatTime(a.CreatedAt), formatTime(a.UpdatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.NewRuleError(generic.ErrDuplicateAttendance, "attendance", string(a.ID), "date",
				"attendance already recorded for this staff member on this date")
		}
		return fmt.Errorf("failed to save attendance: %w", err)
	}
	return nil
}

func (s *Store) GetAttendance(ctx context.Context, tenantID generic.TenantID, id attendance.ID) (attendance.Attendance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+attendanceColumns+` FROM attendances WHERE tenant_id = ? AND id = ?`,
		string(tenantID), string(id))
	a, err := scanAttendance(row)
	if errors.Is(err, sql.ErrNoRows) {
		return attendance.Attendance{}, notFound("attendance", string(id))
	}
	return a, err
}

// ListAttendanceByStaffDate returns one staff member's records on a day,
// the set a duplicate check runs against.
func (s *Store) ListAttendanceByStaffDate(ctx context.Context, tenantID generic.TenantID, staffID generic.StaffID, date generic.Date) ([]attendance.Attendance, error) {
	return s.queryAttendance(ctx,
		`SELECT `+attendanceColumns+` FROM attendances
		 WHERE tenant_id = ? AND staff_id = ? AND date = ?
		 ORDER BY created_at`,
		string(tenantID), string(staffID), date.String())
}

// ListAttendanceInRange returns the tenant's records dated inside r,
// inclusive on both ends.
func (s *Store) ListAttendanceInRange(ctx context.Context, tenantID generic.TenantID, r generic.DateRange) ([]attendance.Attendance, error) {
	return s.queryAttendance(ctx,
		`SELECT `+attendanceColumns+` FROM attendances
		 WHERE tenant_id = ? AND date >= ? AND date <= ?
		 ORDER BY date, staff_id`,
		string(tenantID), r.Start.String(), r.End.String())
}

func (s *Store) queryAttendance(ctx context.Context, query string, args ...any) ([]attendance.Attendance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance: %w", err)
	}
	defer rows.Close()

	var out []attendance.Attendance
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAttendance(row scanner) (attendance.Attendance, error) {
	var (
		a                     attendance.Attendance
		id, tenantID, staffID string
		date                  string
		checkIn, checkOut     sql.NullString
		shiftID               sql.NullString
		breakOverride         sql.NullInt64
		weekend               int
		createdAt, updatedAt  string
	)
	err := row.Scan(&id, &tenantID, &staffID, &date, &checkIn,
		&checkOut, &shiftID, &breakOverride, &weekend, &a.TotalHours,
		&a.Notes, &createdAt, &updatedAt)
	if err != nil {
		return attendance.Attendance{}, err
	}

	if a.Date, err = generic.ParseDate(date); err != nil {
		return attendance.Attendance{}, fmt.Errorf("attendance %s: %w", id, err)
	}
	if a.CheckIn, err = parseNullClock(checkIn); err != nil {
		return attendance.Attendance{}, fmt.Errorf("attendance %s: %w", id, err)
	}
	if a.CheckOut, err = parseNullClock(checkOut); err != nil {
		return attendance.Attendance{}, fmt.Errorf("attendance %s: %w", id, err)
	}
	a.ID = attendance.ID(id)
	a.TenantID = generic.TenantID(tenantID)
	a.StaffID = generic.StaffID(staffID)
	a.ShiftID = shift.ID(shiftID.String)
	a.BreakOverrideMinutes = parseNullInt(breakOverride)
	a.IsWeekend = weekend == 1
	a.CreatedAt = parseTime(createdAt)
	a.UpdatedAt = parseTime(updatedAt)
	return a, nil
}
