package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/warp/shiftpay/generic"
	"github.com/warp/shiftpay/shift"
)

// =============================================================================
// SHIFTS
// =============================================================================

const shiftColumns = `id, tenant_id, name, start_time, end_time, is_active,
	has_break_time, break_duration_minutes, min_working_hours, max_working_hours,
	overtime_multiplier, late_threshold_minutes, early_check_in_allowed_minutes,
	created_at, updated_at`

// SaveShift inserts or replaces a shift.
func (s *Store) SaveShift(ctx context.Context, sh shift.Shift) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shifts (`+shiftColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			is_active = excluded.is_active,
			has_break_time = excluded.has_break_time,
			break_duration_minutes = excluded.break_duration_minutes,
			min_working_hours = excluded.min_working_hours,
			max_working_hours = excluded.max_working_hours,
			overtime_multiplier = excluded.overtime_multiplier,
			late_threshold_minutes = excluded.late_threshold_minutes,
			early_check_in_allowed_minutes = excluded.early_check_in_allowed_minutes,
			updated_at = excluded.updated_at
		WHERE shifts.tenant_id = excluded.tenant_id
	`,
		string(sh.ID), string(sh.TenantID), sh.Name, sh.Start.String(), sh.End.String(), boolInt(sh.IsActive),
		boolInt(sh.HasBreakTime), sh.BreakDurationMinutes, sh.MinWorkingHours, sh.MaxWorkingHours,
		sh.OvertimeMultiplier, sh.LateThresholdMinutes, sh.EarlyCheckInAllowedMinutes,
		formatTime(sh.CreatedAt), formatTime(sh.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save shift: %w", err)
	}
	return nil
}

func (s *Store) GetShift(ctx context.Context, tenantID generic.TenantID, id shift.ID) (shift.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+shiftColumns+` FROM shifts WHERE tenant_id = ? AND id = ?`,
		string(tenantID), string(id))
	sh, err := scanShift(row)
	if errors.Is(err, sql.ErrNoRows) {
		return shift.Shift{}, notFound("shift", string(id))
	}
	return sh, err
}

// ListShifts returns every shift of the tenant, active or retired.
func (s *Store) ListShifts(ctx context.Context, tenantID generic.TenantID) ([]shift.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+shiftColumns+` FROM shifts WHERE tenant_id = ? ORDER BY start_time, name`,
		string(tenantID))
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}
	defer rows.Close()

	var shifts []shift.Shift
	for rows.Next() {
		sh, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, sh)
	}
	return shifts, rows.Err()
}

func scanShift(row scanner) (shift.Shift, error) {
	var (
		sh                   shift.Shift
		id, tenantID         string
		start, end           string
		active, hasBreak     int
		createdAt, updatedAt string
	)
	err := row.Scan(&id, &tenantID, &sh.Name, &start, &end, &active,
		&hasBreak, &sh.BreakDurationMinutes, &sh.MinWorkingHours, &sh.MaxWorkingHours,
		&sh.OvertimeMultiplier, &sh.LateThresholdMinutes, &sh.EarlyCheckInAllowedMinutes,
		&createdAt, &updatedAt)
	if err != nil {
		return shift.Shift{}, err
	}

	if sh.Start, err = generic.ParseClock(start); err != nil {
		return shift.Shift{}, fmt.Errorf("shift %s: %w", id, err)
	}
	if sh.End, err = generic.ParseClock(end); err != nil {
		return shift.Shift{}, fmt.Errorf("shift %s: %w", id, err)
	}
	sh.ID = shift.ID(id)
	sh.TenantID = generic.TenantID(tenantID)
	sh.IsActive = active == 1
	sh.HasBreakTime = hasBreak == 1
	sh.CreatedAt = parseTime(createdAt)
	sh.UpdatedAt = parseTime(updatedAt)
	return sh, nil
}
